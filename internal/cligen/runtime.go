package cligen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tarrence/linode-cli/internal/linodehttp"
	"github.com/tarrence/linode-cli/internal/output"
)

// Runtime is the per-invocation state operation commands execute against.
type Runtime struct {
	BaseURL string
	Token   string

	Client  *linodehttp.Client
	Printer *output.Printer

	// Defaults are profile values for body arguments of create actions,
	// keyed by argument path.
	Defaults   map[string]any
	NoDefaults bool

	// Page, when positive, fetches exactly that page of a list.
	Page     int
	PageSize int

	// Getenv and ReadPassword default to the process environment and a
	// no-echo terminal prompt.
	Getenv       func(string) string
	ReadPassword func(prompt string) (string, error)
}

type runtimeKey struct{}

func WithRuntime(ctx context.Context, rt *Runtime) context.Context {
	return context.WithValue(ctx, runtimeKey{}, rt)
}

func RuntimeFrom(cmd *cobra.Command) (*Runtime, error) {
	v := cmd.Context().Value(runtimeKey{})
	if v == nil {
		return nil, errors.New("internal error: runtime missing from context")
	}
	rt, ok := v.(*Runtime)
	if !ok || rt == nil {
		return nil, errors.New("internal error: runtime has wrong type")
	}
	if rt.Client == nil {
		return nil, errors.New("internal error: HTTP client missing from runtime")
	}
	if rt.Printer == nil {
		return nil, errors.New("internal error: printer missing from runtime")
	}
	if rt.Getenv == nil {
		rt.Getenv = os.Getenv
	}
	if rt.ReadPassword == nil {
		rt.ReadPassword = terminalPassword(rt.Printer.Err())
	}
	return rt, nil
}

// terminalPassword prompts on w and reads a line from stdin without echo.
func terminalPassword(w io.Writer) func(string) (string, error) {
	return func(prompt string) (string, error) {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return "", errors.New("stdin is not a terminal")
		}
		fmt.Fprint(w, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
