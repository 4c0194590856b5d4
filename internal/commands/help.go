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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "rtodo help" }
func (c *HelpCmd) NeedsEnv() bool    { return false }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  rtodo                                              List all tasks
  rtodo list [common flags] [--pending]              List tasks
  rtodo add [common flags] [--photo <path>] [--location <lat,lng>] <title...>
  rtodo done [common flags] <n>
  rtodo undo [common flags] <n>
  rtodo edit [common flags] [--title <t>] [--photo <path>] [--clear-photo] [--location <lat,lng>] <n>
  rtodo rm [common flags] <n>
  rtodo offline [list | add [--photo <path>] [--location <lat,lng>] <title...> | done <n> | rm <n>]
  rtodo login [common flags] [--password <password>] <email>
  rtodo signup [common flags] [--password <password>] <email>
  rtodo logout [common flags]
  rtodo whoami [common flags]
  rtodo help
  rtodo version

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
