// Package todos reconciles the local task list with the backend. The list is
// a cache of server state: every mutating call re-syncs from the server's
// response, with optimistic updates only where explicitly rolled back on
// failure.
package todos

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"rtodo/internal/auth"
	"rtodo/internal/service"
)

// Store owns the in-memory task list for the active session. Overlapping
// operations are not sequenced against each other: if two mutating calls
// race, the list reflects whichever response lands last.
type Store struct {
	api     service.Service
	session *auth.Manager

	mu      sync.Mutex
	tasks   []service.Task
	loading bool
	lastErr error
	subs    map[int]func()
	nextSub int
}

// New creates a Store bound to the given session.
func New(api service.Service, session *auth.Manager) *Store {
	return &Store{
		api:     api,
		session: session,
		subs:    make(map[int]func()),
	}
}

// Tasks returns a copy of the current list.
func (s *Store) Tasks() []service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]service.Task(nil), s.tasks...)
}

// Loading reports whether a heavy operation is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the error recorded by the last failed operation, or nil.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Subscribe registers fn to run after every list or loading change. The
// returned function unsubscribes.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
	s.notify()
}

func (s *Store) recordErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// Fetch replaces the local list with the server's. A no-op when
// unauthenticated. On failure the previous list is preserved and the error
// recorded; an authorization failure additionally signs the session out,
// since a 401 here means the token is no longer valid.
func (s *Store) Fetch(ctx context.Context) error {
	token := s.session.Token()
	if token == "" {
		return nil
	}

	s.setLoading(true)
	defer s.setLoading(false)
	s.recordErr(nil)

	list, err := s.api.ListTasks(ctx, token)
	if err != nil {
		s.recordErr(err)
		if service.IsAuth(err) {
			slog.Debug("fetch unauthorized, signing out")
			s.session.SignOut(ctx)
		}
		return err
	}

	s.mu.Lock()
	s.tasks = list
	s.mu.Unlock()
	s.notify()
	return nil
}

// Create uploads a local photo first (a reference not starting with http),
// substitutes the returned URL, then creates the task and prepends the
// server's representation. If the upload fails, create is never attempted.
// Returns whether the task was created; on failure the list is untouched and
// the error recorded.
func (s *Store) Create(ctx context.Context, data service.NewTaskData) bool {
	token := s.session.Token()
	if token == "" {
		return false
	}

	s.setLoading(true)
	defer s.setLoading(false)

	if data.PhotoURI != "" && !isRemote(data.PhotoURI) {
		url, err := s.api.UploadImage(ctx, data.PhotoURI, token)
		if err != nil {
			s.recordErr(err)
			return false
		}
		data.PhotoURI = url
	}

	created, err := s.api.CreateTask(ctx, token, data)
	if err != nil {
		s.recordErr(err)
		return false
	}

	s.mu.Lock()
	s.tasks = append([]service.Task{created}, s.tasks...)
	s.mu.Unlock()
	s.notify()
	return true
}

// Update applies a partial update. A completed change is applied to the local
// list immediately, with the whole prior task snapshotted so a failure
// restores it exactly. The loading flag is only raised for heavy updates
// (title or image); a pure completed toggle stays unblocking. When the update
// does not touch the image and the server's representation carries no image
// under any alias, the previously known photo is kept rather than dropped.
func (s *Store) Update(ctx context.Context, id string, update service.TaskUpdate) bool {
	token := s.session.Token()
	if token == "" {
		return false
	}

	var snapshot *service.Task
	if update.Completed != nil {
		s.mu.Lock()
		for i := range s.tasks {
			if s.tasks[i].ID == id {
				prior := s.tasks[i]
				snapshot = &prior
				s.tasks[i].Completed = *update.Completed
				break
			}
		}
		s.mu.Unlock()
		s.notify()
	}

	heavy := update.Title != nil || update.Image != nil
	if heavy {
		s.setLoading(true)
		defer s.setLoading(false)
	}

	if update.Image != nil && *update.Image != "" && !isRemote(*update.Image) {
		url, err := s.api.UploadImage(ctx, *update.Image, token)
		if err != nil {
			s.recordErr(err)
			s.restore(snapshot)
			return false
		}
		update.Image = &url
	}

	updated, err := s.api.UpdateTask(ctx, id, token, update)
	if err != nil {
		s.recordErr(err)
		s.restore(snapshot)
		return false
	}

	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID != id {
			continue
		}
		if update.Image == nil && updated.PhotoURI == "" {
			updated.PhotoURI = s.tasks[i].PhotoURI
		}
		s.tasks[i] = updated
		break
	}
	s.mu.Unlock()
	s.notify()
	return true
}

// restore puts an optimistically mutated task back to its snapshot.
func (s *Store) restore(snapshot *service.Task) {
	if snapshot == nil {
		return
	}
	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == snapshot.ID {
			s.tasks[i] = *snapshot
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

// Delete removes the task from the visible list immediately. On failure the
// exact prior list is restored, order included, to avoid drift.
func (s *Store) Delete(ctx context.Context, id string) bool {
	token := s.session.Token()
	if token == "" {
		return false
	}

	s.mu.Lock()
	prev := append([]service.Task(nil), s.tasks...)
	kept := s.tasks[:0:0]
	for _, t := range s.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	s.mu.Unlock()
	s.notify()

	if err := s.api.DeleteTask(ctx, id, token); err != nil {
		s.recordErr(err)
		s.mu.Lock()
		s.tasks = prev
		s.mu.Unlock()
		s.notify()
		return false
	}
	return true
}

// Toggle flips a task's completed flag via Update.
func (s *Store) Toggle(ctx context.Context, id string, currentStatus bool) bool {
	next := !currentStatus
	return s.Update(ctx, id, service.TaskUpdate{Completed: &next})
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http")
}
