package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"rtodo/internal/config"
	"rtodo/internal/exitcode"
	"rtodo/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd applies a partial update to a task.
type EditCmd struct {
	title      string
	titleSet   bool
	photo      string
	clearPhoto bool
	location   string
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Edit a task" }
func (c *EditCmd) Usage() string {
	return "rtodo edit <n> [--title <title>] [--photo <path>] [--clear-photo] [--location <lat,lng>]"
}
func (c *EditCmd) NeedsEnv() bool  { return true }
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.Func("title", "", func(s string) error {
		c.title = s
		c.titleSet = true
		return nil
	})
	fs.StringVar(&c.photo, "photo", "", "")
	fs.BoolVar(&c.clearPhoto, "clear-photo", false, "")
	fs.StringVar(&c.location, "location", "", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	num, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	var update service.TaskUpdate
	if c.titleSet {
		title := c.title
		update.Title = &title
	}
	if c.photo != "" && c.clearPhoto {
		fmt.Fprintln(errOut, "error: cannot use both --photo and --clear-photo")
		return exitcode.UserError
	}
	if c.photo != "" {
		photo := c.photo
		update.Image = &photo
	}
	if c.clearPhoto {
		empty := ""
		update.Image = &empty
	}
	if c.location != "" {
		loc, err := parseLocation(c.location)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		loc.Timestamp = time.Now().UnixMilli()
		update.Location = loc
	}
	if update.Title == nil && update.Image == nil && update.Location == nil {
		fmt.Fprintln(errOut, "error: nothing to change")
		return exitcode.UserError
	}

	task, code, ok := resolveTask(ctx, env.Todos, num, errOut)
	if !ok {
		return code
	}

	if !env.Todos.Update(ctx, task.ID, update) {
		return failure(errOut, env.Todos.Err())
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
