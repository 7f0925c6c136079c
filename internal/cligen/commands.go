package cligen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"cloudeng.io/logging/ctxlog"
	"github.com/spf13/cobra"

	"github.com/tarrence/linode-cli/internal/catalog"
	"github.com/tarrence/linode-cli/internal/clierr"
	"github.com/tarrence/linode-cli/internal/linodehttp"
)

func argumentError(err error) error { return clierr.New(clierr.Argument, err) }

// FlagError is installed as the root flag error func so malformed options
// exit with the argument status.
func FlagError(_ *cobra.Command, err error) error { return argumentError(err) }

// AddCatalogCommands adds one command per catalog command under root, each
// holding one subcommand per action.
func AddCatalogCommands(root *cobra.Command, cat *catalog.Catalog) error {
	for _, c := range cat.Commands {
		if existing, _, err := root.Find([]string{c.Name}); err == nil && existing != root {
			return fmt.Errorf("command %q collides with a built-in command", c.Name)
		}
		short := c.Summary
		if short == "" {
			short = "Manage " + c.Name
		}
		group := &cobra.Command{
			Use:           c.Name,
			Short:         short,
			Args:          cobra.ArbitraryArgs,
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				if len(args) == 0 {
					return cmd.Help()
				}
				return Unrecognized(cmd, args[0])
			},
		}
		// Flags meant for a mistyped action must not hide the
		// unrecognized-action error.
		group.FParseErrWhitelist.UnknownFlags = true
		seen := map[string]string{}
		for _, op := range c.Actions {
			for _, name := range append([]string{op.Action}, op.Aliases...) {
				if prev, dup := seen[name]; dup {
					return fmt.Errorf("duplicate action name %q in command %q (%s %s conflicts with %s)",
						name, c.Name, op.Method, op.URL, prev)
				}
				seen[name] = op.Method + " " + op.URL
			}
			group.AddCommand(buildOperationCmd(cat, op))
		}
		root.AddCommand(group)
	}
	return nil
}

// Unrecognized reports name as unknown beneath cmd, listing nearby names.
func Unrecognized(cmd *cobra.Command, name string) error {
	what := "command"
	if cmd.HasParent() {
		what = "action for " + cmd.Name()
	}
	msg := fmt.Sprintf("unrecognized %s %q", what, name)
	if s := suggestions(cmd, name); len(s) > 0 {
		msg += "\n\nDid you mean:\n\t" + strings.Join(s, "\n\t")
	}
	return clierr.Unrecognizedf("%s", msg)
}

// suggestions ranks cobra's edit-distance suggestions, putting names that
// share the typed prefix first.
func suggestions(cmd *cobra.Command, name string) []string {
	if cmd.SuggestionsMinimumDistance <= 0 {
		cmd.SuggestionsMinimumDistance = 2
	}
	s := cmd.SuggestionsFor(name)
	sort.SliceStable(s, func(i, j int) bool {
		pi, pj := strings.HasPrefix(s[i], name), strings.HasPrefix(s[j], name)
		if pi != pj {
			return pi
		}
		return len(s[i]) < len(s[j])
	})
	return s
}

func buildOperationCmd(cat *catalog.Catalog, op *catalog.Operation) *cobra.Command {
	use := op.Action
	for _, p := range op.PathParams {
		use += " <" + p.Name + ">"
	}
	short := strings.TrimSpace(op.Summary)
	if short == "" {
		short = fmt.Sprintf("%s %s", strings.ToUpper(op.Method), op.URL)
	}
	if op.Deprecated {
		short += " (deprecated)"
	}

	cmd := &cobra.Command{
		Use:           use,
		Aliases:       op.Aliases,
		Short:         short,
		Long:          operationHelp(op),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().SortFlags = false

	body := bindBodyFlags(cmd, op)
	positionals := checkPositionals(op.PathParams)
	cmd.Args = func(cmd *cobra.Command, args []string) error {
		if err := positionals(cmd, args); err != nil {
			return body.detachedPassword(cmd, err)
		}
		return nil
	}
	queryBindings := bindQueryParams(cmd, op.QueryParams)
	var filters *filterFlags
	if op.IsList() {
		filters = bindFilterFlags(cmd, op)
	}
	uploadFile := new(string)
	if op.Upload != nil {
		cmd.Flags().StringVar(uploadFile, "file", "", "Local file to upload (required)")
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := RuntimeFrom(cmd)
		if err != nil {
			return err
		}
		if err := checkRawBody(cmd, op); err != nil {
			return err
		}
		if op.Deprecated {
			rt.Printer.Warnf("%s %s is deprecated and may be removed", op.Command, op.Action)
		}
		body.warnDeprecated(cmd, rt.Printer)
		if op.AuthRequired && strings.TrimSpace(rt.Token) == "" {
			return clierr.Authf("%s %s requires a token; set LINODE_CLI_TOKEN, pass --token, or run `linode configure`", op.Command, op.Action)
		}

		path, err := expandPath(op.URL, op.PathParams, args)
		if err != nil {
			return argumentError(err)
		}
		endpoint, err := joinBaseAndPath(resolveBase(rt.BaseURL, op, cat), path)
		if err != nil {
			return argumentError(err)
		}

		q := url.Values{}
		for _, b := range queryBindings {
			if err := b.addToQuery(q, cmd); err != nil {
				return argumentError(fmt.Errorf("--%s: %w", b.flag, err))
			}
		}

		if op.Upload != nil {
			return runUpload(ctx, rt, op, withQuery(endpoint, q), *uploadFile)
		}

		var reqBody []byte
		if op.IsMutating() || cmd.Flags().Changed(rawBodyFlag) {
			if reqBody, err = body.build(cmd, rt); err != nil {
				return err
			}
		}
		filter := ""
		if filters != nil {
			if filter, err = filters.header(cmd); err != nil {
				return err
			}
		}

		do := func(query url.Values) (*linodehttp.Result, error) {
			target := withQuery(endpoint, query)
			ctxlog.Debug(ctx, "dispatching", "command", op.Command, "action", op.Action, "method", op.Method, "url", target)
			req, err := http.NewRequestWithContext(ctx, strings.ToUpper(op.Method), target, nil)
			if err != nil {
				return nil, err
			}
			if filter != "" {
				req.Header.Set(filterHeader, filter)
			}
			if rt.Token != "" {
				linodehttp.ApplyAuth(req, rt.Token)
			}
			res, err := rt.Client.Do(req, reqBody)
			return checkResult(ctx, res, err)
		}

		if op.IsList() {
			pr, err := fetchPages(ctx, q, rt.Page, rt.PageSize, do)
			if err != nil {
				return err
			}
			if rt.Page > 0 && rt.Page > pr.Pages && pr.Pages > 0 {
				rt.Printer.Warnf("page %d requested but there are only %d", rt.Page, pr.Pages)
			}
			return rt.Printer.Render(op, pr.Items)
		}

		res, err := do(q)
		if err != nil {
			return err
		}
		return rt.Printer.Render(op, res.Body)
	}
	return cmd
}

func withQuery(endpoint string, q url.Values) string {
	if len(q) == 0 {
		return endpoint
	}
	return endpoint + "?" + q.Encode()
}

// checkResult maps transport failures and error responses to exit statuses.
func checkResult(ctx context.Context, res *linodehttp.Result, err error) (*linodehttp.Result, error) {
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, clierr.New(clierr.Request, err)
	}
	if !res.OK() {
		return nil, clierr.New(clierr.Request, res.Err())
	}
	return res, nil
}

func runUpload(ctx context.Context, rt *Runtime, op *catalog.Operation, endpoint, file string) error {
	if strings.TrimSpace(file) == "" {
		return clierr.Argumentf("missing required arguments: --file")
	}
	fi, err := os.Stat(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return clierr.FileIOf("upload source %s does not exist", file)
		}
		return clierr.FileIOf("upload source %s: %v", file, err)
	}
	if !fi.Mode().IsRegular() {
		return clierr.FileIOf("upload source %s is not a regular file", file)
	}
	if op.Upload.MaxSize > 0 && fi.Size() > op.Upload.MaxSize {
		return clierr.FileIOf("%s is %d bytes; the maximum upload size is %d bytes", file, fi.Size(), op.Upload.MaxSize)
	}
	f, err := os.Open(file)
	if err != nil {
		return clierr.FileIOf("opening %s: %v", file, err)
	}
	defer f.Close()

	ctxlog.Info(ctx, "uploading", "file", file, "bytes", fi.Size(), "url", endpoint)
	res, err := rt.Client.Upload(ctx, endpoint, rt.Token, op.Upload.ContentType, f, fi.Size(), rt.Printer.Err())
	if res, err = checkResult(ctx, res, err); err != nil {
		return err
	}
	return rt.Printer.Render(op, res.Body)
}

// operationHelp is the long help for an action: its description, the
// endpoint it calls and, for lists, the attributes results filter on.
func operationHelp(op *catalog.Operation) string {
	var sb strings.Builder
	if d := strings.TrimSpace(op.Description); d != "" {
		sb.WriteString(d)
	} else if s := strings.TrimSpace(op.Summary); s != "" {
		sb.WriteString(s)
	}
	fmt.Fprintf(&sb, "\n\nAPI: %s %s", strings.ToUpper(op.Method), op.URL)
	if op.DocsURL != "" {
		fmt.Fprintf(&sb, "\nDocumentation: %s", op.DocsURL)
	}
	if op.Deprecated {
		sb.WriteString("\n\nThis action is deprecated.")
	}
	if !op.AuthRequired {
		sb.WriteString("\nThis action does not require authentication.")
	}
	if f := op.Response.Filterable(); op.IsList() && len(f) > 0 {
		sb.WriteString("\n\nResults can be filtered on:")
		for _, a := range f {
			fmt.Fprintf(&sb, "\n  --%s (%s)", a.Name, a.Type)
		}
	}
	if len(op.BranchRequired) > 0 {
		sb.WriteString("\n\nOne of these argument sets is required:")
		for _, br := range op.BranchRequired {
			names := make([]string, len(br))
			for i, p := range br {
				names[i] = "--" + p
			}
			fmt.Fprintf(&sb, "\n  %s", strings.Join(names, " "))
		}
	}
	for _, a := range op.Args {
		if a.Format == catalog.FormatPassword {
			fmt.Fprintf(&sb, "\n\n--%s may also be set with %s.", a.Path, PasswordEnv(a.Path))
		}
	}
	return sb.String()
}
