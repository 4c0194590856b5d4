// Package service defines the backend-agnostic contract for todo operations.
package service

// LocationData is a geolocation tag attached to a task.
// Timestamp is unix milliseconds; it is kept locally but never sent to the backend.
type LocationData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp,omitempty"`
}

// Task is a single todo item as exposed to callers.
// PhotoURI is the canonical photo attribute: the backend may answer with
// photoUri, image or imageUrl, and the client folds all three into this field
// before a Task leaves it.
type Task struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	PhotoURI  string        `json:"photoUri,omitempty"`
	Location  *LocationData `json:"location,omitempty"`
	Completed bool          `json:"completed"`
}

// NewTaskData is the transient payload for creating a task.
// PhotoURI may be a local file path; callers upload it and substitute the
// remote URL before the create call goes out.
type NewTaskData struct {
	Title    string
	PhotoURI string
	Location *LocationData
}

// TaskUpdate is a partial update. Only non-nil fields are sent. Image is
// renamed to photoUri on the wire; an empty-string Image clears the photo.
type TaskUpdate struct {
	Title     *string
	Completed *bool
	Image     *string
	Location  *LocationData
}

// UserRecord is the account record returned by registration.
type UserRecord struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
