// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"rtodo/internal/service"
)

// Token is the session token FakeService issues on every successful login.
const Token = "fake-token"

// FakeService is an in-memory implementation of service.Service for testing.
// Accounts map email to password; tasks live in a single slice in server
// order (newest last, mirroring a backend that appends on create).
type FakeService struct {
	mu       sync.RWMutex
	accounts map[string]string
	tasks    []service.Task

	// Calls records each operation name in invocation order.
	Calls []string

	// Uploads records the local path of every UploadImage call.
	Uploads []string

	// DropPhotoOnUpdate makes UpdateTask responses omit the photo field,
	// mimicking backends that return partial task objects.
	DropPhotoOnUpdate bool

	// Error injection for testing
	RegisterErr    error
	LoginErr       error
	ListTasksErr   error
	UploadImageErr error
	CreateTaskErr  error
	UpdateTaskErr  error
	DeleteTaskErr  error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		accounts: make(map[string]string),
	}
}

// AddAccount seeds an account.
func (f *FakeService) AddAccount(email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[email] = password
}

// AddTask seeds a task and returns it.
func (f *FakeService) AddTask(title string) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{ID: uuid.NewString(), Title: title}
	f.tasks = append(f.tasks, t)
	return t
}

// Tasks returns a copy of the current server-side tasks.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	return out
}

func (f *FakeService) record(op string) {
	f.Calls = append(f.Calls, op)
}

// Register implements service.Service.
func (f *FakeService) Register(ctx context.Context, email, password string) (service.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Register")
	if f.RegisterErr != nil {
		return service.UserRecord{}, f.RegisterErr
	}
	if _, ok := f.accounts[email]; ok {
		return service.UserRecord{}, service.Errf(service.KindConflict, "email already exists")
	}
	f.accounts[email] = password
	return service.UserRecord{ID: uuid.NewString(), Email: email}, nil
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, email, password string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Login")
	if f.LoginErr != nil {
		return "", f.LoginErr
	}
	want, ok := f.accounts[email]
	if !ok || want != password {
		return "", service.Errf(service.KindAuth, "invalid credentials")
	}
	return Token, nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context, token string) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListTasks")
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

// UploadImage implements service.Service. The returned URL embeds the base
// name of the uploaded file so tests can assert the substitution.
func (f *FakeService) UploadImage(ctx context.Context, localPath, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UploadImage")
	if f.UploadImageErr != nil {
		return "", f.UploadImageErr
	}
	f.Uploads = append(f.Uploads, localPath)
	base := localPath
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	return "https://cdn.example.com/" + base, nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, token string, data service.NewTaskData) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	if strings.TrimSpace(data.Title) == "" {
		return service.Task{}, service.Errf(service.KindValidation, "title is required")
	}
	t := service.Task{
		ID:       uuid.NewString(),
		Title:    data.Title,
		PhotoURI: data.PhotoURI,
		Location: data.Location,
	}
	f.tasks = append(f.tasks, t)
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, id, token string, update service.TaskUpdate) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateTask")
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	for i, t := range f.tasks {
		if t.ID != id {
			continue
		}
		if update.Title != nil {
			t.Title = *update.Title
		}
		if update.Completed != nil {
			t.Completed = *update.Completed
		}
		if update.Image != nil {
			t.PhotoURI = *update.Image
		}
		if update.Location != nil {
			t.Location = update.Location
		}
		f.tasks[i] = t
		if f.DropPhotoOnUpdate {
			t.PhotoURI = ""
		}
		return t, nil
	}
	return service.Task{}, service.Errf(service.KindNotFound, "task not found")
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteTask")
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return service.Errf(service.KindNotFound, "task not found")
}
