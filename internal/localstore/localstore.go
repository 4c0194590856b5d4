// Package localstore keeps a device-local task list that works without a
// session. Tasks live as JSON in the key-value store; photos are copied into
// the config directory so they survive whatever happens to the source file.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"rtodo/internal/service"
	"rtodo/internal/storage"
)

// TasksKey is the kv entry the local list is stored under.
const TasksKey = "localTasks"

// Store manages the offline task list.
type Store struct {
	kv        *storage.KV
	photosDir string
}

// New creates a Store copying photos into photosDir.
func New(kv *storage.KV, photosDir string) *Store {
	return &Store{kv: kv, photosDir: photosDir}
}

// Load returns the stored list. A corrupt entry is logged and treated as
// empty rather than failing the caller.
func (s *Store) Load(ctx context.Context) ([]service.Task, error) {
	raw, ok, err := s.kv.Get(ctx, TasksKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var tasks []service.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		slog.Warn("local task list corrupt, starting empty", "err", err)
		return nil, nil
	}
	return tasks, nil
}

func (s *Store) save(ctx context.Context, tasks []service.Task) error {
	data, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, TasksKey, string(data))
}

// Create appends a new local task. Ids come from unix millis. A provided
// photo is copied into the photos directory; if the copy fails the original
// path is kept, logged.
func (s *Store) Create(ctx context.Context, data service.NewTaskData) (service.Task, error) {
	title := strings.TrimSpace(data.Title)
	if title == "" {
		return service.Task{}, service.Errf(service.KindValidation, "title is required")
	}

	tasks, err := s.Load(ctx)
	if err != nil {
		return service.Task{}, err
	}

	id := strconv.FormatInt(time.Now().UnixMilli(), 10)
	photo := data.PhotoURI
	if photo != "" {
		copied, err := s.copyPhoto(photo, id)
		if err != nil {
			slog.Warn("photo copy failed, keeping original path", "err", err)
		} else {
			photo = copied
		}
	}

	task := service.Task{
		ID:       id,
		Title:    title,
		PhotoURI: photo,
		Location: data.Location,
	}
	tasks = append(tasks, task)
	if err := s.save(ctx, tasks); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

func (s *Store) copyPhoto(src, id string) (string, error) {
	if err := os.MkdirAll(s.photosDir, 0700); err != nil {
		return "", err
	}
	dst := filepath.Join(s.photosDir, id+".jpg")
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		os.Remove(dst)
		return "", err
	}
	return dst, nil
}

// Toggle flips a task's completed flag. An unknown id is a no-op.
func (s *Store) Toggle(ctx context.Context, id string) error {
	tasks, err := s.Load(ctx)
	if err != nil {
		return err
	}
	for i := range tasks {
		if tasks[i].ID == id {
			tasks[i].Completed = !tasks[i].Completed
			return s.save(ctx, tasks)
		}
	}
	return nil
}

// Delete removes a task, and its photo when the photo is one we copied.
func (s *Store) Delete(ctx context.Context, id string) error {
	tasks, err := s.Load(ctx)
	if err != nil {
		return err
	}
	kept := tasks[:0:0]
	for _, t := range tasks {
		if t.ID != id {
			kept = append(kept, t)
			continue
		}
		if t.PhotoURI != "" && strings.HasPrefix(t.PhotoURI, s.photosDir+string(filepath.Separator)) {
			if err := os.Remove(t.PhotoURI); err != nil && !os.IsNotExist(err) {
				slog.Warn("removing photo failed", "path", t.PhotoURI, "err", err)
			}
		}
	}
	if len(kept) == len(tasks) {
		return fmt.Errorf("task not found: %s", id)
	}
	return s.save(ctx, kept)
}
