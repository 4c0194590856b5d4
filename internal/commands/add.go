package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"rtodo/internal/config"
	"rtodo/internal/exitcode"
	"rtodo/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	photo    string
	location string
}

// SetPhoto sets the photo path (for testing).
func (c *AddCmd) SetPhoto(path string) { c.photo = path }

// SetLocation sets the location string (for testing).
func (c *AddCmd) SetLocation(loc string) { c.location = loc }

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "rtodo add [--photo <path>] [--location <lat,lng>] <title...>"
}
func (c *AddCmd) NeedsEnv() bool  { return true }
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.photo, "photo", "", "")
	fs.StringVar(&c.photo, "p", "", "")
	fs.StringVar(&c.location, "location", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	data := service.NewTaskData{Title: title, PhotoURI: c.photo}
	if c.location != "" {
		loc, err := parseLocation(c.location)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		loc.Timestamp = time.Now().UnixMilli()
		data.Location = loc
	}

	if !env.Todos.Create(ctx, data) {
		return failure(errOut, env.Todos.Err())
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
