package catalog

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Header starts every serialized catalog.
const Header = "# Generated by `linode catalog bake`. Regenerate with `go generate ./specs` instead of editing by hand.\n"

// Marshal serializes the catalog. The output depends only on the catalog
// contents, so baking the same document twice yields identical bytes.
func Marshal(c *Catalog) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(Header)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode catalog: %w", err)
	}
	return buf.Bytes(), nil
}

func Unmarshal(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if c.Version != FormatVersion {
		return nil, fmt.Errorf("catalog format version %d is not supported (want %d)", c.Version, FormatVersion)
	}
	for _, cmd := range c.Commands {
		for _, op := range cmd.Actions {
			if op.Command == "" {
				op.Command = cmd.Name
			}
		}
	}
	return &c, nil
}

// LoadFile reads a baked catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %q: %w", path, err)
	}
	return Unmarshal(b)
}

// LoadFS reads a baked catalog from an embedded filesystem.
func LoadFS(fsys fs.FS, name string) (*Catalog, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog %q: %w", name, err)
	}
	return Unmarshal(b)
}

// Verify checks the structural invariants the CLI generator relies on:
// unique command/action names (aliases included), every URL placeholder
// bound to a path parameter, and list_item references that name a list.
func (c *Catalog) Verify() error {
	var problems []string
	seenCmd := map[string]bool{}
	for _, cmd := range c.Commands {
		if seenCmd[cmd.Name] {
			problems = append(problems, fmt.Sprintf("duplicate command %q", cmd.Name))
		}
		seenCmd[cmd.Name] = true
		seenAction := map[string]string{}
		for _, op := range cmd.Actions {
			for _, name := range append([]string{op.Action}, op.Aliases...) {
				if prev, ok := seenAction[name]; ok {
					problems = append(problems, fmt.Sprintf("duplicate action %q in command %q (%s conflicts with %s)", name, cmd.Name, op.Action, prev))
				}
				seenAction[name] = op.Action
			}
			problems = append(problems, op.verify()...)
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("catalog verification failed:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

func (op *Operation) verify() []string {
	var problems []string
	id := op.Command + " " + op.Action
	bound := map[string]bool{}
	for _, p := range op.PathParams {
		bound[p.Name] = true
	}
	for _, name := range Placeholders(op.URL) {
		if !bound[name] {
			problems = append(problems, fmt.Sprintf("%s: placeholder {%s} in %s has no path parameter", id, name, op.URL))
		}
	}
	lists := map[string]bool{}
	for _, a := range op.Args {
		if a.ListItem != "" {
			lists[a.ListItem] = true
		}
	}
	for _, a := range op.Args {
		if a.ListItem != "" && !strings.HasPrefix(a.Path, a.ListItem+".") {
			problems = append(problems, fmt.Sprintf("%s: argument %s is not inside its list %s", id, a.Path, a.ListItem))
		}
		if lists[a.Path] {
			problems = append(problems, fmt.Sprintf("%s: list %s is also a scalar argument", id, a.Path))
		}
	}
	return problems
}

// Placeholders returns the {name} placeholders of a URL template in order.
func Placeholders(template string) []string {
	var out []string
	for i := 0; i < len(template); i++ {
		if template[i] != '{' {
			continue
		}
		j := strings.IndexByte(template[i:], '}')
		if j <= 1 {
			continue
		}
		out = append(out, template[i+1:i+j])
		i += j
	}
	return out
}
