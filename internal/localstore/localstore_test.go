package localstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtodo/internal/localstore"
	"rtodo/internal/service"
	"rtodo/internal/storage"
)

func newStore(t *testing.T) (*localstore.Store, *storage.KV, string) {
	t.Helper()
	dir := t.TempDir()
	kv, err := storage.Open(filepath.Join(dir, "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	photos := filepath.Join(dir, "photos")
	return localstore.New(kv, photos), kv, photos
}

func TestLoadEmpty(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newStore(t)
	tasks, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestCreateAndLoad(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newStore(t)

	created, err := s.Create(ctx, service.NewTaskData{Title: "  milk  "})
	require.NoError(t, err)
	assert.Equal(t, "milk", created.Title)
	assert.NotEmpty(t, created.ID)

	tasks, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, created, tasks[0])
}

func TestCreateEmptyTitle(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newStore(t)
	_, err := s.Create(ctx, service.NewTaskData{Title: "   "})
	require.Error(t, err)
	assert.True(t, service.IsValidation(err))
}

func TestCreateCopiesPhoto(t *testing.T) {
	ctx := context.Background()
	s, _, photos := newStore(t)

	src := filepath.Join(t.TempDir(), "orig.jpg")
	require.NoError(t, os.WriteFile(src, []byte("jpeg-bytes"), 0644))

	created, err := s.Create(ctx, service.NewTaskData{Title: "milk", PhotoURI: src})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(photos, created.ID+".jpg"), created.PhotoURI)

	copied, err := os.ReadFile(created.PhotoURI)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(copied))
}

func TestCreatePhotoCopyFailureKeepsOriginalPath(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newStore(t)

	missing := filepath.Join(t.TempDir(), "missing.jpg")
	created, err := s.Create(ctx, service.NewTaskData{Title: "milk", PhotoURI: missing})
	require.NoError(t, err)
	assert.Equal(t, missing, created.PhotoURI)
}

func TestToggle(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newStore(t)
	created, err := s.Create(ctx, service.NewTaskData{Title: "milk"})
	require.NoError(t, err)

	require.NoError(t, s.Toggle(ctx, created.ID))
	tasks, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, tasks[0].Completed)

	require.NoError(t, s.Toggle(ctx, created.ID))
	tasks, _ = s.Load(ctx)
	assert.False(t, tasks[0].Completed)

	// Unknown id is a no-op.
	require.NoError(t, s.Toggle(ctx, "nope"))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newStore(t)
	created, err := s.Create(ctx, service.NewTaskData{Title: "milk"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, created.ID))
	tasks, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	require.Error(t, s.Delete(ctx, created.ID))
}

func TestDeleteRemovesCopiedPhoto(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newStore(t)

	src := filepath.Join(t.TempDir(), "orig.jpg")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))
	created, err := s.Create(ctx, service.NewTaskData{Title: "milk", PhotoURI: src})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, created.ID))
	_, statErr := os.Stat(created.PhotoURI)
	assert.True(t, os.IsNotExist(statErr))

	// The source file is untouched.
	_, statErr = os.Stat(src)
	assert.NoError(t, statErr)
}

func TestCorruptListStartsEmpty(t *testing.T) {
	ctx := context.Background()
	s, kv, _ := newStore(t)
	require.NoError(t, kv.Set(ctx, localstore.TasksKey, "{not json"))

	tasks, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}
