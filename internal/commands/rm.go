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
	Register(&RmCmd{})
}

// RmCmd deletes a task.
type RmCmd struct{}

func (c *RmCmd) Name() string      { return "rm" }
func (c *RmCmd) Aliases() []string { return []string{"delete"} }
func (c *RmCmd) Synopsis() string  { return "Delete a task" }
func (c *RmCmd) Usage() string     { return "rtodo rm <n>" }
func (c *RmCmd) NeedsEnv() bool    { return true }
func (c *RmCmd) NeedsAuth() bool   { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	num, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	task, code, ok := resolveTask(ctx, env.Todos, num, errOut)
	if !ok {
		return code
	}

	if !env.Todos.Delete(ctx, task.ID) {
		return failure(errOut, env.Todos.Err())
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
