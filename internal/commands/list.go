package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"rtodo/internal/config"
	"rtodo/internal/exitcode"
	"rtodo/internal/output"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `rtodo` (no args) and `rtodo list`.
type ListCmd struct {
	pending bool
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "rtodo list [--pending]" }
func (c *ListCmd) NeedsEnv() bool    { return true }
func (c *ListCmd) NeedsAuth() bool   { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.pending, "pending", false, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if err := env.Todos.Fetch(ctx); err != nil {
		return failure(errOut, err)
	}

	tasks := env.Todos.Tasks()
	printed := 0
	for i, task := range tasks {
		if c.pending && task.Completed {
			continue
		}
		output.FormatTask(out, i+1, task)
		printed++
	}

	if printed == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no tasks found")
	}
	return exitcode.Success
}
