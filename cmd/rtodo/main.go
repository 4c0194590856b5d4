// Package main is the entry point for the rtodo CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"rtodo/internal/auth"
	"rtodo/internal/backend/resttodo"
	"rtodo/internal/cli"
	"rtodo/internal/commands"
	"rtodo/internal/config"
	"rtodo/internal/localstore"
	"rtodo/internal/service"
	"rtodo/internal/storage"
	"rtodo/internal/todos"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, buildEnv)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

// buildEnv wires the stores and backend client for one invocation.
func buildEnv(ctx context.Context, cfg *config.Config) (*commands.Env, error) {
	if err := cfg.EnsureDir(); err != nil {
		return nil, err
	}

	kv, err := storage.Open(cfg.StorePath())
	if err != nil {
		return nil, err
	}

	var svc service.Service
	if cfg.APIURL != "" {
		svc = resttodo.New(cfg.APIURL)
	}

	session := auth.NewManager(svc, kv)
	session.Load(ctx)

	return &commands.Env{
		Service: svc,
		Session: session,
		Todos:   todos.New(svc, session),
		Store:   kv,
		Local:   localstore.New(kv, cfg.PhotosDir()),
	}, nil
}
