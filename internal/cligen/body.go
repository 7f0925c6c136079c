package cligen

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tarrence/linode-cli/internal/catalog"
	"github.com/tarrence/linode-cli/internal/clierr"
	"github.com/tarrence/linode-cli/internal/output"
)

const rawBodyFlag = "raw-body"

type argBinding struct {
	arg catalog.BodyArgument
	val *argValue
}

type bodyFlags struct {
	op      *catalog.Operation
	args    []*argBinding
	rawBody *string
}

func bindBodyFlags(cmd *cobra.Command, op *catalog.Operation) *bodyFlags {
	b := &bodyFlags{op: op, rawBody: new(string)}
	for _, a := range op.Args {
		if cmd.Flags().Lookup(a.Path) != nil {
			continue
		}
		typ := a.Type
		multi := a.Kind() != catalog.KindScalar
		if multi {
			typ = a.ItemType
		}
		ab := &argBinding{arg: a, val: &argValue{typ: typ, multi: multi}}
		cmd.Flags().Var(ab.val, a.Path, argUsage(a))
		if a.Format == catalog.FormatPassword && !multi {
			ab.val.secret = true
			cmd.Flags().Lookup(a.Path).NoOptDefVal = passwordPrompt
		}
		b.args = append(b.args, ab)
	}
	cmd.Flags().StringVar(b.rawBody, rawBodyFlag, "", "Send this JSON document as the request body instead of building one from arguments")
	return b
}

func argUsage(a catalog.BodyArgument) string {
	var parts []string
	if a.Description != "" {
		parts = append(parts, firstLine(a.Description))
	}
	if len(a.Enum) > 0 {
		parts = append(parts, "one of: "+strings.Join(a.Enum, ", "))
	}
	switch {
	case a.Required:
		parts = append(parts, "(required)")
	case len(a.Branches) > 0:
		parts = append(parts, "(conditionally required)")
	}
	if a.Kind() != catalog.KindScalar {
		parts = append(parts, "(repeatable)")
	}
	if catalog.IsFileFormat(a.Format) {
		parts = append(parts, "(value or path to a file)")
	}
	if a.Format == catalog.FormatPassword {
		parts = append(parts, "(give as --"+a.Path+"=VALUE, or alone to be prompted)")
	}
	if a.Deprecated {
		parts = append(parts, "(deprecated)")
	}
	return strings.Join(parts, " ")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// checkRawBody rejects --raw-body on a GET or combined with any other
// argument of the action, naming the offending flags in declared order.
func checkRawBody(cmd *cobra.Command, op *catalog.Operation) error {
	if !cmd.Flags().Changed(rawBodyFlag) {
		return nil
	}
	if op.Method == "get" {
		return clierr.Argumentf("--raw-body cannot be specified for actions with method %s", op.Method)
	}
	if op.Upload != nil {
		return clierr.Argumentf("--raw-body cannot be specified for upload actions; use --file")
	}
	var conflicts []string
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == rawBodyFlag || !f.Changed || cmd.InheritedFlags().Lookup(f.Name) != nil {
			return
		}
		if _, ok := f.Value.(*argValue); ok {
			conflicts = append(conflicts, "--"+f.Name)
		}
	})
	if len(conflicts) > 0 {
		return clierr.Argumentf("--raw-body cannot be specified with action arguments: %s", strings.Join(conflicts, ", "))
	}
	return nil
}

// warnDeprecated prints one warning per deprecated argument that was given.
func (b *bodyFlags) warnDeprecated(cmd *cobra.Command, p *output.Printer) {
	for _, ab := range b.args {
		if ab.arg.Deprecated && cmd.Flags().Changed(ab.arg.Path) {
			p.Warnf("--%s is deprecated and may be removed from %s %s", ab.arg.Path, b.op.Command, b.op.Action)
		}
	}
}

// detachedPassword explains leftover positional arguments when a password
// flag was given bare and its intended value was parsed as a positional.
func (b *bodyFlags) detachedPassword(cmd *cobra.Command, err error) error {
	for _, ab := range b.args {
		if ab.val.prompt && cmd.Flags().Changed(ab.arg.Path) {
			return clierr.Argumentf("%v; a bare --%s prompts for its value, pass one inline as --%s=VALUE",
				err, ab.arg.Path, ab.arg.Path)
		}
	}
	return err
}

// build assembles the request body. rt supplies profile defaults and the
// password sources.
func (b *bodyFlags) build(cmd *cobra.Command, rt *Runtime) ([]byte, error) {
	if cmd.Flags().Changed(rawBodyFlag) {
		raw := strings.TrimSpace(*b.rawBody)
		if !json.Valid([]byte(raw)) {
			return nil, clierr.Argumentf("--raw-body is not valid JSON")
		}
		return []byte(raw), nil
	}

	given := map[string][]string{}
	for _, ab := range b.args {
		vals, err := b.valuesFor(cmd, rt, ab)
		if err != nil {
			return nil, err
		}
		if len(vals) > 0 {
			given[ab.arg.Path] = vals
		}
	}

	if err := b.checkRequired(given); err != nil {
		return nil, err
	}

	body := map[string]any{}
	lists := map[string][]map[string]any{}
	var listOrder []string
	for _, ab := range b.args {
		vals, ok := given[ab.arg.Path]
		if !ok {
			continue
		}
		a := ab.arg
		conv := make([]any, len(vals))
		for i, s := range vals {
			typ := a.Type
			if a.Kind() != catalog.KindScalar {
				typ = a.ItemType
			}
			v, err := convert(typ, s)
			if err != nil {
				return nil, clierr.Argumentf("invalid value for --%s: %v", a.Path, err)
			}
			conv[i] = v
		}
		switch a.Kind() {
		case catalog.KindScalar:
			setPath(body, a.Path, conv[0])
		case catalog.KindScalarList:
			setPath(body, a.Path, conv)
		case catalog.KindObjectListField:
			items, seen := lists[a.ListItem]
			if !seen {
				listOrder = append(listOrder, a.ListItem)
			}
			for i, v := range conv {
				for len(items) <= i {
					items = append(items, map[string]any{})
				}
				setPath(items[i], a.Leaf(), v)
			}
			lists[a.ListItem] = items
		}
	}
	for _, name := range listOrder {
		elems := make([]any, len(lists[name]))
		for i, m := range lists[name] {
			elems[i] = m
		}
		setPath(body, name, elems)
	}
	if len(body) == 0 && !b.op.IsMutating() {
		return nil, nil
	}
	return json.Marshal(body)
}

// valuesFor resolves an argument's raw values from its flag, the password
// sources and profile defaults, reading files for file-valued formats.
func (b *bodyFlags) valuesFor(cmd *cobra.Command, rt *Runtime, ab *argBinding) ([]string, error) {
	a := ab.arg
	var vals []string
	if cmd.Flags().Changed(a.Path) {
		vals = slices.Clone(ab.val.values)
	}

	if a.Format == catalog.FormatPassword && len(vals) == 0 && (a.Required || ab.val.prompt) {
		pw, err := b.password(rt, a)
		if err != nil {
			return nil, err
		}
		vals = []string{pw}
	}

	if len(vals) == 0 && b.op.Method == "post" && !rt.NoDefaults {
		if d, ok := rt.Defaults[a.Path]; ok {
			vals = defaultValues(d)
		}
	}

	if catalog.IsFileFormat(a.Format) {
		for i, v := range vals {
			contents, err := readIfFile(v)
			if err != nil {
				return nil, clierr.FileIOf("reading --%s: %v", a.Path, err)
			}
			vals[i] = contents
		}
	}
	return vals, nil
}

// PasswordEnv returns the environment variable consulted for a password
// argument at path.
func PasswordEnv(path string) string {
	return "LINODE_CLI_" + strings.ToUpper(strings.ReplaceAll(path, ".", "_"))
}

func (b *bodyFlags) password(rt *Runtime, a catalog.BodyArgument) (string, error) {
	if v := rt.Getenv(PasswordEnv(a.Path)); v != "" {
		return v, nil
	}
	pw, err := rt.ReadPassword(fmt.Sprintf("%s: ", a.Path))
	if err != nil {
		return "", clierr.Argumentf("no value for --%s: set %s or run interactively (%v)", a.Path, PasswordEnv(a.Path), err)
	}
	return pw, nil
}

func defaultValues(d any) []string {
	if list, ok := d.([]any); ok {
		out := make([]string, len(list))
		for i, v := range list {
			out[i] = fmt.Sprint(v)
		}
		return out
	}
	return []string{fmt.Sprint(d)}
}

// readIfFile returns the contents of v when it names a regular file, and v
// itself otherwise.
func readIfFile(v string) (string, error) {
	if v == "" || strings.Contains(v, "\n") {
		return v, nil
	}
	fi, err := os.Stat(v)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrInvalid) {
			return v, nil
		}
		return "", err
	}
	if !fi.Mode().IsRegular() {
		return v, nil
	}
	data, err := os.ReadFile(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// checkRequired lists every missing required argument in one error, then
// checks the given arguments satisfy at least one body branch.
func (b *bodyFlags) checkRequired(given map[string][]string) error {
	var missing []string
	for _, ab := range b.args {
		if ab.arg.Required {
			if _, ok := given[ab.arg.Path]; !ok {
				missing = append(missing, "--"+ab.arg.Path)
			}
		}
	}
	if len(missing) > 0 {
		return clierr.Argumentf("missing required arguments: %s", strings.Join(missing, ", "))
	}
	if len(b.op.BranchRequired) == 0 {
		return nil
	}
	var alts []string
	for _, branch := range b.op.BranchRequired {
		fits := true
		for _, p := range branch {
			if _, ok := given[p]; !ok {
				fits = false
				break
			}
		}
		if fits {
			return nil
		}
		names := make([]string, len(branch))
		for i, p := range branch {
			names[i] = "--" + p
		}
		alts = append(alts, "("+strings.Join(names, ", ")+")")
	}
	return clierr.Argumentf("arguments must include one of: %s", strings.Join(alts, " or "))
}

// setPath stores v under the dotted path in m, creating objects as needed.
func setPath(m map[string]any, path string, v any) {
	segs := strings.Split(path, ".")
	for _, s := range segs[:len(segs)-1] {
		next, ok := m[s].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[s] = next
		}
		m = next
	}
	m[segs[len(segs)-1]] = v
}
