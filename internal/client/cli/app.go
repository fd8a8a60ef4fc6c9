package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

type App struct {
	config    *config.Config
	api       client.Client
	reader    *bufio.Reader
	out       io.Writer
	userName  string
	expiresAt time.Time
	now       func() time.Time
}

func NewApp(c *config.Config) *App {
	return newApp(c, client.NewHTTPClient(c.ServerEndpointAddr, c.RequestTimeout), os.Stdin, os.Stdout)
}

func newApp(c *config.Config, api client.Client, in io.Reader, out io.Writer) *App {
	return &App{
		config: c,
		api:    api,
		reader: bufio.NewReader(in),
		out:    out,
		now:    time.Now,
	}
}

func (a *App) isLoggedIn() bool {
	return a.api.Authenticated()
}

// getStatus renders the prompt suffix: the signed-in email and the minutes
// left on the token.
func (a *App) getStatus() string {
	if !a.isLoggedIn() || a.userName == "" {
		return ""
	}
	left := a.expiresAt.Sub(a.now()).Round(time.Minute)
	if left <= 0 {
		return fmt.Sprintf("(%s expired)", a.userName)
	}
	return fmt.Sprintf("(%s %s)", a.userName, left)
}

// Run checks that the server answers and then blocks in the REPL until the
// user exits or input ends.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to gophauth CLI (type 'help' for commands)")

	if err := a.api.Ping(ctx); err != nil {
		fmt.Fprintf(a.out, "Warning: %s is not reachable: %v\n", a.config.ServerEndpointAddr, err)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

// report prints a one-line explanation of a failed command.
func (a *App) report(err error) error {
	switch {
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintln(a.out, "Server unavailable, try again later")
	case errors.Is(err, client.ErrNotAuthenticated):
		fmt.Fprintln(a.out, "Please log in first")
	case errors.Is(err, common.ErrInvalidToken):
		a.userName = ""
		fmt.Fprintln(a.out, "Session expired, please log in again")
	default:
		fmt.Fprintf(a.out, "Error: %v\n", err)
	}
	return err
}
