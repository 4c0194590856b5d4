package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"rtodo/internal/config"
	"rtodo/internal/exitcode"
)

func init() {
	Register(&DoneCmd{})
	Register(&UndoCmd{})
}

// DoneCmd marks a task completed.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return nil }
func (c *DoneCmd) Synopsis() string  { return "Mark a task completed" }
func (c *DoneCmd) Usage() string     { return "rtodo done <n>" }
func (c *DoneCmd) NeedsEnv() bool    { return true }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	return runToggle(ctx, cfg, env, args, true, out, errOut)
}

// UndoCmd marks a task pending again.
type UndoCmd struct{}

func (c *UndoCmd) Name() string      { return "undo" }
func (c *UndoCmd) Aliases() []string { return nil }
func (c *UndoCmd) Synopsis() string  { return "Mark a task pending" }
func (c *UndoCmd) Usage() string     { return "rtodo undo <n>" }
func (c *UndoCmd) NeedsEnv() bool    { return true }
func (c *UndoCmd) NeedsAuth() bool   { return true }

func (c *UndoCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UndoCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	return runToggle(ctx, cfg, env, args, false, out, errOut)
}

// runToggle is the shared implementation for done and undo.
func runToggle(ctx context.Context, cfg *config.Config, env *Env, args []string, want bool, out, errOut io.Writer) int {
	num, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	task, code, ok := resolveTask(ctx, env.Todos, num, errOut)
	if !ok {
		return code
	}

	if task.Completed == want {
		if !cfg.Quiet {
			if want {
				fmt.Fprintln(out, "already done")
			} else {
				fmt.Fprintln(out, "not done")
			}
		}
		return exitcode.Success
	}

	if !env.Todos.Toggle(ctx, task.ID, task.Completed) {
		return failure(errOut, env.Todos.Err())
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
