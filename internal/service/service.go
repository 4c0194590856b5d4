package service

import "context"

// Service is the single point of contact with the backend. All REST calls go
// through this interface; the session manager and the todo store never touch
// HTTP directly.
type Service interface {
	// Register creates a new account.
	Register(ctx context.Context, email, password string) (UserRecord, error)

	// Login exchanges credentials for an opaque bearer token.
	Login(ctx context.Context, email, password string) (string, error)

	// ListTasks returns every task of the authenticated user, in API order.
	ListTasks(ctx context.Context, token string) ([]Task, error)

	// UploadImage uploads a local image file and returns its remote URL.
	UploadImage(ctx context.Context, localPath, token string) (string, error)

	// CreateTask creates a task. The id is assigned by the backend.
	CreateTask(ctx context.Context, token string, data NewTaskData) (Task, error)

	// UpdateTask applies a partial update and returns the server's
	// representation of the task.
	UpdateTask(ctx context.Context, id, token string, update TaskUpdate) (Task, error)

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, id, token string) error
}
