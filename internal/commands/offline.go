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
	"rtodo/internal/output"
	"rtodo/internal/service"
)

func init() {
	Register(&OfflineCmd{})
}

// OfflineCmd manages the device-local task list, usable without a session.
type OfflineCmd struct{}

func (c *OfflineCmd) Name() string      { return "offline" }
func (c *OfflineCmd) Aliases() []string { return nil }
func (c *OfflineCmd) Synopsis() string  { return "Manage local-only tasks" }
func (c *OfflineCmd) Usage() string {
	return "rtodo offline <list | add [--photo <path>] [--location <lat,lng>] <title...> | done <n> | rm <n>>"
}
func (c *OfflineCmd) NeedsEnv() bool  { return true }
func (c *OfflineCmd) NeedsAuth() bool { return false }

func (c *OfflineCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *OfflineCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		return c.runList(ctx, cfg, env, out, errOut)
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "list":
		return c.runList(ctx, cfg, env, out, errOut)
	case "add":
		return c.runAdd(ctx, cfg, env, rest, out, errOut)
	case "done":
		return c.runDone(ctx, cfg, env, rest, out, errOut)
	case "rm":
		return c.runRm(ctx, cfg, env, rest, out, errOut)
	default:
		fmt.Fprintf(errOut, "error: unknown offline subcommand: %s\n", sub)
		return exitcode.UserError
	}
}

func (c *OfflineCmd) runList(ctx context.Context, cfg *config.Config, env *Env, out, errOut io.Writer) int {
	tasks, err := env.Local.Load(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	for i, task := range tasks {
		output.FormatTask(out, i+1, task)
	}
	if len(tasks) == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no tasks found")
	}
	return exitcode.Success
}

func (c *OfflineCmd) runAdd(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	// Subcommand flags are parsed here: the dispatcher's flag pass stops at
	// the subcommand word.
	fs := flag.NewFlagSet("offline add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	photo := fs.String("photo", "", "")
	location := fs.String("location", "", "")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	title := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(title) == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	data := service.NewTaskData{Title: title, PhotoURI: *photo}
	if *location != "" {
		loc, err := parseLocation(*location)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		loc.Timestamp = time.Now().UnixMilli()
		data.Location = loc
	}

	if _, err := env.Local.Create(ctx, data); err != nil {
		if service.IsValidation(err) {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

func (c *OfflineCmd) runDone(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	task, code, ok := c.resolve(ctx, env, args, errOut)
	if !ok {
		return code
	}
	if err := env.Local.Toggle(ctx, task.ID); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

func (c *OfflineCmd) runRm(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	task, code, ok := c.resolve(ctx, env, args, errOut)
	if !ok {
		return code
	}
	if err := env.Local.Delete(ctx, task.ID); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

func (c *OfflineCmd) resolve(ctx context.Context, env *Env, args []string, errOut io.Writer) (service.Task, int, bool) {
	num, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.Task{}, exitcode.UserError, false
	}
	tasks, err := env.Local.Load(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.Task{}, exitcode.BackendError, false
	}
	if num > len(tasks) {
		fmt.Fprintf(errOut, "error: task number out of range: %d\n", num)
		return service.Task{}, exitcode.UserError, false
	}
	return tasks[num-1], 0, true
}
