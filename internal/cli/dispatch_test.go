package cli_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"rtodo/internal/auth"
	"rtodo/internal/cli"
	"rtodo/internal/commands"
	"rtodo/internal/config"
	"rtodo/internal/exitcode"
	"rtodo/internal/localstore"
	"rtodo/internal/storage"
	"rtodo/internal/testutil"
	"rtodo/internal/todos"
)

// fakeFactory builds an Env backed by a FakeService. When signedIn is true
// the session holds a valid token.
func fakeFactory(t *testing.T, svc *testutil.FakeService, signedIn bool) cli.EnvFactory {
	t.Helper()
	return func(ctx context.Context, cfg *config.Config) (*commands.Env, error) {
		kv, err := storage.Open(filepath.Join(t.TempDir(), "store.db"))
		if err != nil {
			return nil, err
		}
		session := auth.NewManager(svc, kv)
		session.Load(ctx)
		if signedIn {
			svc.AddAccount("a@b.c", "pw")
			if err := session.SignIn(ctx, "a@b.c", "pw"); err != nil {
				return nil, err
			}
		}
		return &commands.Env{
			Service: svc,
			Session: session,
			Todos:   todos.New(svc, session),
			Store:   kv,
			Local:   localstore.New(kv, filepath.Join(cfg.Dir, "photos")),
		}, nil
	}
}

func run(t *testing.T, factory cli.EnvFactory, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	t.Setenv(config.EnvAPIURL, "")

	d := cli.NewDispatcher(commands.DefaultRegistry, factory)
	var outBuf, errBuf bytes.Buffer
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		// Flags go before positionals; slot --config right after the command.
		rest := append([]string{}, args[1:]...)
		args = append([]string{args[0], "--config", t.TempDir()}, rest...)
	}
	code = d.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestUnknownCommand(t *testing.T) {
	_, stderr, code := run(t, nil, "frobnicate")
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: unknown command: frobnicate\n" {
		t.Errorf("expected unknown command error, got %q", stderr)
	}
}

func TestFlagBeforeCommand(t *testing.T) {
	_, stderr, code := run(t, nil, "--quiet")
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: unknown command: --quiet\n" {
		t.Errorf("expected unknown command error, got %q", stderr)
	}
}

func TestUnknownFlag(t *testing.T) {
	_, stderr, code := run(t, nil, "version", "--bogus")
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "unknown flag: -bogus") {
		t.Errorf("expected unknown flag error, got %q", stderr)
	}
}

func TestFlagNeedsArgument(t *testing.T) {
	_, stderr, code := run(t, nil, "login", "--password")
	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.Contains(stderr, "flag needs an argument") {
		t.Errorf("expected flag argument error, got %q", stderr)
	}
}

func TestVersionNeedsNoEnv(t *testing.T) {
	// A factory that always fails must not be called for version.
	factory := func(ctx context.Context, cfg *config.Config) (*commands.Env, error) {
		t.Error("factory must not run for version")
		return nil, errors.New("unreachable")
	}
	stdout, _, code := run(t, factory, "version")
	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "rtodo 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

func TestNoArgsDispatchesToList(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk")
	// No args means no --config flag either; the default dir is fine because
	// the factory ignores it.
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	d := cli.NewDispatcher(commands.DefaultRegistry, fakeFactory(t, svc, true))
	var outBuf, errBuf bytes.Buffer
	code := d.Run(context.Background(), nil, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, errBuf.String())
	}
	if outBuf.String() != "   1  [ ]  Buy milk\n" {
		t.Errorf("expected task listing, got %q", outBuf.String())
	}
}

func TestListCommandThroughDispatcher(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk")

	stdout, stderr, code := run(t, fakeFactory(t, svc, true), "list")
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "   1  [ ]  Buy milk\n" {
		t.Errorf("expected task listing, got %q", stdout)
	}
}

func TestAliasDispatch(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("Buy milk")

	stdout, _, code := run(t, fakeFactory(t, svc, true), "ls")
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "   1  [ ]  Buy milk\n" {
		t.Errorf("expected task listing, got %q", stdout)
	}
}

func TestAuthRequiredCommandWithoutSession(t *testing.T) {
	svc := testutil.NewFakeService()

	_, stderr, code := run(t, fakeFactory(t, svc, false), "list")
	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stderr != "error: not logged in (run: rtodo login)\n" {
		t.Errorf("expected login hint, got %q", stderr)
	}
}

func TestFactoryNotLoggedInError(t *testing.T) {
	factory := func(ctx context.Context, cfg *config.Config) (*commands.Env, error) {
		return nil, auth.ErrNotLoggedIn
	}
	_, stderr, code := run(t, factory, "list")
	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stderr != "error: not logged in (run: rtodo login)\n" {
		t.Errorf("expected login hint, got %q", stderr)
	}
}

func TestFactoryBackendError(t *testing.T) {
	factory := func(ctx context.Context, cfg *config.Config) (*commands.Env, error) {
		return nil, errors.New("store locked")
	}
	_, stderr, code := run(t, factory, "list")
	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if !strings.Contains(stderr, "backend error: store locked") {
		t.Errorf("expected backend error, got %q", stderr)
	}
}

func TestOfflineRunsWithoutSession(t *testing.T) {
	svc := testutil.NewFakeService()

	stdout, stderr, code := run(t, fakeFactory(t, svc, false), "offline")
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "no tasks found\n" {
		t.Errorf("expected empty offline listing, got %q", stdout)
	}
}

func TestQuietFlag(t *testing.T) {
	svc := testutil.NewFakeService()

	stdout, _, code := run(t, fakeFactory(t, svc, true), "add", "--quiet", "Buy", "milk")
	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no output with --quiet, got %q", stdout)
	}
}
