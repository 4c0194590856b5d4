package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"rtodo/internal/config"
	"rtodo/internal/exitcode"
	"rtodo/internal/service"
)

func init() {
	Register(&SignupCmd{})
}

// SignupCmd implements the signup command: register, then sign in with the
// same credentials.
type SignupCmd struct {
	password string
}

// SetPassword sets the password (for testing).
func (c *SignupCmd) SetPassword(p string) { c.password = p }

func (c *SignupCmd) Name() string      { return "signup" }
func (c *SignupCmd) Aliases() []string { return []string{"register"} }
func (c *SignupCmd) Synopsis() string  { return "Create an account and sign in" }
func (c *SignupCmd) Usage() string     { return "rtodo signup [--password <password>] <email>" }
func (c *SignupCmd) NeedsEnv() bool    { return true }
func (c *SignupCmd) NeedsAuth() bool   { return false }

func (c *SignupCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.password, "password", "", "")
}

func (c *SignupCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(errOut, "error: email required")
		return exitcode.UserError
	}
	email := args[0]

	if env.Service == nil {
		fmt.Fprintf(errOut, "error: %s\n", errNoAPIURL)
		return exitcode.AuthError
	}

	if env.Session.Authenticated() {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	password, err := readPassword(c.password, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: reading password: %v\n", err)
		return exitcode.UserError
	}

	if err := env.Session.SignUp(ctx, email, password); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		if service.IsAuth(err) || service.IsValidation(err) {
			return exitcode.AuthError
		}
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
