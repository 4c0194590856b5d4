package commands_test

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rtodo/internal/auth"
	"rtodo/internal/commands"
	"rtodo/internal/config"
	"rtodo/internal/exitcode"
	"rtodo/internal/localstore"
	"rtodo/internal/service"
	"rtodo/internal/storage"
	"rtodo/internal/testutil"
	"rtodo/internal/todos"
)

// newEnv wires a full Env against a FakeService with a signed-in session.
func newEnv(t *testing.T, svc *testutil.FakeService) *commands.Env {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	kv, err := storage.Open(filepath.Join(dir, "store.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	svc.AddAccount("a@b.c", "pw")
	session := auth.NewManager(svc, kv)
	session.Load(ctx)
	if err := session.SignIn(ctx, "a@b.c", "pw"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	return &commands.Env{
		Service: svc,
		Session: session,
		Todos:   todos.New(svc, session),
		Store:   kv,
		Local:   localstore.New(kv, filepath.Join(dir, "photos")),
	}
}

// runCommand runs cmd against env.
func runCommand(t *testing.T, cmd commands.Command, env *commands.Env, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{
		Dir:   t.TempDir(),
		Quiet: quiet,
	}

	ctx := context.Background()
	code = cmd.Run(ctx, cfg, env, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

// Tests for version command
func TestVersionCommand(t *testing.T) {
	cmd := &commands.VersionCmd{}

	stdout, stderr, code := runCommand(t, cmd, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "rtodo 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

// Tests for help command
func TestHelpCommand(t *testing.T) {
	cmd := &commands.HelpCmd{}

	stdout, stderr, code := runCommand(t, cmd, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("help output should contain 'Usage:'")
	}
	for _, name := range []string{"login", "signup", "offline", "edit", "whoami"} {
		if !strings.Contains(stdout, name) {
			t.Errorf("help output should mention %s", name)
		}
	}
}

// Tests for list command
func TestListCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk")
	svc.AddTask("Buy eggs")
	env := newEnv(t, svc)

	cmd := &commands.ListCmd{}
	stdout, stderr, code := runCommand(t, cmd, env, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}

	expected := "   1  [ ]  Buy milk\n   2  [ ]  Buy eggs\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestListCommand_Empty(t *testing.T) {
	env := newEnv(t, testutil.NewFakeService())

	cmd := &commands.ListCmd{}
	stdout, _, code := runCommand(t, cmd, env, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "no tasks found\n" {
		t.Errorf("expected 'no tasks found', got %q", stdout)
	}
}

func TestListCommand_EmptyQuiet(t *testing.T) {
	env := newEnv(t, testutil.NewFakeService())

	cmd := &commands.ListCmd{}
	stdout, _, code := runCommand(t, cmd, env, nil, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no output, got %q", stdout)
	}
}

func TestListCommand_PendingKeepsNumbering(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("first")
	done := svc.AddTask("second")
	svc.AddTask("third")
	ctx := context.Background()
	completed := true
	if _, err := svc.UpdateTask(ctx, done.ID, testutil.Token, service.TaskUpdate{Completed: &completed}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	env := newEnv(t, svc)

	cmd := &commands.ListCmd{}
	parseFlags(t, cmd, "--pending")
	stdout, _, code := runCommand(t, cmd, env, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	// Completed task is hidden but its number is not reused.
	expected := "   1  [ ]  first\n   3  [ ]  third\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestListCommand_BackendError(t *testing.T) {
	svc := testutil.NewFakeService()
	env := newEnv(t, svc)
	svc.ListTasksErr = service.Errf(service.KindServer, "boom")

	cmd := &commands.ListCmd{}
	_, stderr, code := runCommand(t, cmd, env, nil, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if !strings.Contains(stderr, "backend error") {
		t.Errorf("expected backend error message, got %q", stderr)
	}
}

// Tests for add command
func TestAddCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	env := newEnv(t, svc)

	cmd := &commands.AddCmd{}
	stdout, stderr, code := runCommand(t, cmd, env, []string{"Buy", "milk"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}

	tasks := svc.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" {
		t.Errorf("expected task 'Buy milk' on the server, got %+v", tasks)
	}
}

func TestAddCommand_NoTitle(t *testing.T) {
	env := newEnv(t, testutil.NewFakeService())

	cmd := &commands.AddCmd{}
	_, stderr, code := runCommand(t, cmd, env, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: title required\n" {
		t.Errorf("expected title error, got %q", stderr)
	}
}

func TestAddCommand_WithPhoto(t *testing.T) {
	svc := testutil.NewFakeService()
	env := newEnv(t, svc)

	photo := filepath.Join(t.TempDir(), "p.jpg")
	if err := os.WriteFile(photo, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := &commands.AddCmd{}
	cmd.SetPhoto(photo)
	_, _, code := runCommand(t, cmd, env, []string{"Buy milk"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if len(svc.Uploads) != 1 || svc.Uploads[0] != photo {
		t.Errorf("expected photo upload of %s, got %v", photo, svc.Uploads)
	}
	tasks := svc.Tasks()
	if len(tasks) != 1 || !strings.HasPrefix(tasks[0].PhotoURI, "https://") {
		t.Errorf("expected remote photo URL on task, got %+v", tasks)
	}
}

func TestAddCommand_WithLocation(t *testing.T) {
	svc := testutil.NewFakeService()
	env := newEnv(t, svc)

	cmd := &commands.AddCmd{}
	cmd.SetLocation("40.4168,-3.7038")
	_, _, code := runCommand(t, cmd, env, []string{"Buy milk"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	tasks := svc.Tasks()
	if len(tasks) != 1 || tasks[0].Location == nil {
		t.Fatalf("expected location on task, got %+v", tasks)
	}
	if tasks[0].Location.Latitude != 40.4168 || tasks[0].Location.Longitude != -3.7038 {
		t.Errorf("unexpected coordinates: %+v", tasks[0].Location)
	}
	if tasks[0].Location.Timestamp == 0 {
		t.Error("expected a timestamp stamped on the location")
	}
}

func TestAddCommand_BadLocation(t *testing.T) {
	env := newEnv(t, testutil.NewFakeService())

	cmd := &commands.AddCmd{}
	cmd.SetLocation("not-a-location")
	_, stderr, code := runCommand(t, cmd, env, []string{"Buy milk"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "invalid location") {
		t.Errorf("expected location error, got %q", stderr)
	}
}

func TestAddCommand_UploadFailure(t *testing.T) {
	svc := testutil.NewFakeService()
	env := newEnv(t, svc)
	svc.UploadImageErr = service.Errf(service.KindUpload, "no image url in response")

	cmd := &commands.AddCmd{}
	cmd.SetPhoto("/tmp/p.jpg")
	_, stderr, code := runCommand(t, cmd, env, []string{"Buy milk"}, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if !strings.Contains(stderr, "no image url") {
		t.Errorf("expected upload error, got %q", stderr)
	}
	if len(svc.Tasks()) != 0 {
		t.Error("task must not be created when the upload fails")
	}
}

// Tests for done/undo commands
func TestDoneCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk")
	env := newEnv(t, svc)

	cmd := &commands.DoneCmd{}
	stdout, _, code := runCommand(t, cmd, env, []string{"1"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}
	if !svc.Tasks()[0].Completed {
		t.Error("expected task completed on the server")
	}
}

func TestDoneCommand_AlreadyDone(t *testing.T) {
	svc := testutil.NewFakeService()
	seeded := svc.AddTask("Buy milk")
	completed := true
	if _, err := svc.UpdateTask(context.Background(), seeded.ID, testutil.Token, service.TaskUpdate{Completed: &completed}); err != nil {
		t.Fatal(err)
	}
	env := newEnv(t, svc)

	cmd := &commands.DoneCmd{}
	stdout, _, code := runCommand(t, cmd, env, []string{"1"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "already done\n" {
		t.Errorf("expected 'already done', got %q", stdout)
	}
}

func TestUndoCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	seeded := svc.AddTask("Buy milk")
	completed := true
	if _, err := svc.UpdateTask(context.Background(), seeded.ID, testutil.Token, service.TaskUpdate{Completed: &completed}); err != nil {
		t.Fatal(err)
	}
	env := newEnv(t, svc)

	cmd := &commands.UndoCmd{}
	stdout, _, code := runCommand(t, cmd, env, []string{"1"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}
	if svc.Tasks()[0].Completed {
		t.Error("expected task pending on the server")
	}
}

func TestDoneCommand_OutOfRange(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk")
	env := newEnv(t, svc)

	cmd := &commands.DoneCmd{}
	_, stderr, code := runCommand(t, cmd, env, []string{"5"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task number out of range: 5\n" {
		t.Errorf("expected out of range error, got %q", stderr)
	}
}

func TestDoneCommand_BadRef(t *testing.T) {
	env := newEnv(t, testutil.NewFakeService())

	cmd := &commands.DoneCmd{}
	_, stderr, code := runCommand(t, cmd, env, []string{"zero"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "invalid task reference") {
		t.Errorf("expected bad ref error, got %q", stderr)
	}
}

// Tests for rm command
func TestRmCommand(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk")
	svc.AddTask("Buy eggs")
	env := newEnv(t, svc)

	cmd := &commands.RmCmd{}
	stdout, _, code := runCommand(t, cmd, env, []string{"1"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}
	tasks := svc.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Buy eggs" {
		t.Errorf("expected only 'Buy eggs' left, got %+v", tasks)
	}
}

func TestRmCommand_BackendError(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk")
	env := newEnv(t, svc)
	svc.DeleteTaskErr = service.Errf(service.KindServer, "boom")

	cmd := &commands.RmCmd{}
	_, stderr, code := runCommand(t, cmd, env, []string{"1"}, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if !strings.Contains(stderr, "backend error") {
		t.Errorf("expected backend error, got %q", stderr)
	}
	if len(svc.Tasks()) != 1 {
		t.Error("server list must be unchanged")
	}
}

// Tests for edit command
func TestEditCommand_Title(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk")
	env := newEnv(t, svc)

	cmd := &commands.EditCmd{}
	parseFlags(t, cmd, "--title", "Buy oat milk")
	stdout, _, code := runCommand(t, cmd, env, []string{"1"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}
	if got := svc.Tasks()[0].Title; got != "Buy oat milk" {
		t.Errorf("expected updated title, got %q", got)
	}
}

func TestEditCommand_ClearPhoto(t *testing.T) {
	svc := testutil.NewFakeService()
	seeded := svc.AddTask("Buy milk")
	img := "https://cdn/p.jpg"
	if _, err := svc.UpdateTask(context.Background(), seeded.ID, testutil.Token, service.TaskUpdate{Image: &img}); err != nil {
		t.Fatal(err)
	}
	env := newEnv(t, svc)

	cmd := &commands.EditCmd{}
	parseFlags(t, cmd, "--clear-photo")
	_, _, code := runCommand(t, cmd, env, []string{"1"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if got := svc.Tasks()[0].PhotoURI; got != "" {
		t.Errorf("expected photo cleared, got %q", got)
	}
}

func TestEditCommand_PhotoAndClearPhotoConflict(t *testing.T) {
	env := newEnv(t, testutil.NewFakeService())

	cmd := &commands.EditCmd{}
	parseFlags(t, cmd, "--photo", "/tmp/p.jpg", "--clear-photo")
	_, stderr, code := runCommand(t, cmd, env, []string{"1"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "cannot use both") {
		t.Errorf("expected conflict error, got %q", stderr)
	}
}

func TestEditCommand_NothingToChange(t *testing.T) {
	env := newEnv(t, testutil.NewFakeService())

	cmd := &commands.EditCmd{}
	_, stderr, code := runCommand(t, cmd, env, []string{"1"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: nothing to change\n" {
		t.Errorf("expected nothing-to-change error, got %q", stderr)
	}
}

// parseFlags runs args through the command's registered flags, the way the
// dispatcher does before calling Run.
func parseFlags(t *testing.T, cmd commands.Command, args ...string) {
	t.Helper()
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
}
