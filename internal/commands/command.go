// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"rtodo/internal/auth"
	"rtodo/internal/config"
	"rtodo/internal/localstore"
	"rtodo/internal/service"
	"rtodo/internal/storage"
	"rtodo/internal/todos"
)

// Env bundles the wired core a command runs against. Built once per
// invocation by the dispatcher's factory.
type Env struct {
	// Service is the backend client; nil when no API URL is configured.
	Service service.Service

	// Session is the session manager, already loaded from the store.
	Session *auth.Manager

	// Todos is the task synchronization store for the active session.
	Todos *todos.Store

	// Store is the persistent key-value store.
	Store *storage.KV

	// Local is the offline task store.
	Local *localstore.Store
}

// Close releases the Env's resources.
func (e *Env) Close() error {
	if e.Store != nil {
		return e.Store.Close()
	}
	return nil
}

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsEnv reports whether the command needs the wired Env at all.
	// help and version run without one.
	NeedsEnv() bool

	// NeedsAuth reports whether the command requires an authenticated
	// session. login, signup, logout and offline return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided; env is nil if NeedsEnv() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int
}
