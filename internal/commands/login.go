package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"rtodo/internal/config"
	"rtodo/internal/exitcode"
	"rtodo/internal/service"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	password string
}

// SetPassword sets the password (for testing).
func (c *LoginCmd) SetPassword(p string) { c.password = p }

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in" }
func (c *LoginCmd) Usage() string     { return "rtodo login [--password <password>] <email>" }
func (c *LoginCmd) NeedsEnv() bool    { return true }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.password, "password", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
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

	if err := env.Session.SignIn(ctx, email, password); err != nil {
		if service.IsAuth(err) {
			fmt.Fprintf(errOut, "error: invalid credentials\n")
			return exitcode.AuthError
		}
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// errNoAPIURL is shared by every command that talks to the backend.
const errNoAPIURL = "api url not configured (set RTODO_API_URL or api_url in config.yaml)"

// readPassword returns flagVal when set, otherwise prompts. A terminal gets a
// hidden prompt; anything else reads a line from stdin.
func readPassword(flagVal string, errOut io.Writer) (string, error) {
	if flagVal != "" {
		return flagVal, nil
	}
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(errOut, "Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(errOut)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
