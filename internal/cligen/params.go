package cligen

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tarrence/linode-cli/internal/catalog"
)

// argValue is a pflag.Value that validates each occurrence against a
// catalog datatype. Repeating a multi-valued flag appends; repeating a
// single-valued one keeps the last value.
type argValue struct {
	typ    string
	multi  bool
	values []string

	// secret values accept passwordPrompt, given as a bare flag, as a
	// request to read the value from the environment or a terminal.
	secret bool
	prompt bool
}

// passwordPrompt is the value a password flag takes when given without one.
const passwordPrompt = "prompt"

func (v *argValue) String() string { return strings.Join(v.values, ",") }

func (v *argValue) Type() string {
	if v.secret {
		return "password"
	}
	switch v.typ {
	case catalog.TypeInteger:
		return "int"
	case catalog.TypeNumber:
		return "float"
	case catalog.TypeBoolean:
		return "bool"
	case catalog.TypeJSON:
		return "json"
	}
	return "string"
}

func (v *argValue) Set(s string) error {
	if v.secret && s == passwordPrompt {
		v.prompt = true
		return nil
	}
	if _, err := convert(v.typ, s); err != nil {
		return err
	}
	if v.multi {
		v.values = append(v.values, s)
	} else {
		v.values = []string{s}
	}
	return nil
}

// convert turns a command-line string into the JSON value for typ.
func convert(typ, s string) (any, error) {
	switch typ {
	case catalog.TypeInteger:
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			return nil, fmt.Errorf("%q is not an integer", s)
		}
		return json.Number(s), nil
	case catalog.TypeNumber:
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("%q is not a number", s)
		}
		return json.Number(s), nil
	case catalog.TypeBoolean:
		return parseBool(s)
	case catalog.TypeJSON, catalog.TypeObject:
		if !json.Valid([]byte(s)) {
			return nil, fmt.Errorf("%q is not valid JSON", s)
		}
		return json.RawMessage(s), nil
	}
	return s, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "y", "1":
		return true, nil
	case "no", "false", "n", "0":
		return false, nil
	}
	return false, fmt.Errorf("%q is not a boolean (use yes or no)", s)
}

type paramBinding struct {
	param catalog.Parameter
	flag  string
	val   *argValue
}

func bindQueryParams(cmd *cobra.Command, params []catalog.Parameter) []*paramBinding {
	var out []*paramBinding
	for _, p := range params {
		if cmd.Flags().Lookup(p.Name) != nil {
			continue
		}
		desc := p.Description
		if desc == "" {
			desc = fmt.Sprintf("query parameter %q", p.Name)
		}
		b := &paramBinding{param: p, flag: p.Name, val: &argValue{typ: p.Type}}
		cmd.Flags().Var(b.val, p.Name, desc)
		out = append(out, b)
	}
	return out
}

func (b *paramBinding) addToQuery(values url.Values, cmd *cobra.Command) error {
	if !cmd.Flags().Changed(b.flag) {
		return nil
	}
	for _, s := range b.val.values {
		v, err := convert(b.param.Type, s)
		if err != nil {
			return err
		}
		values.Add(b.param.Name, fmt.Sprint(v))
	}
	return nil
}

// checkPositionals validates path parameter values given positionally.
func checkPositionals(params []catalog.Parameter) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != len(params) {
			names := make([]string, len(params))
			for i, p := range params {
				names[i] = p.Name
			}
			if len(params) == 0 {
				return argumentError(fmt.Errorf("unexpected positional arguments: %s", strings.Join(args, " ")))
			}
			return argumentError(fmt.Errorf("expected %d positional argument(s) (%s), got %d",
				len(params), strings.Join(names, ", "), len(args)))
		}
		for i, p := range params {
			if p.Type == catalog.TypeInteger {
				if _, err := strconv.ParseInt(args[i], 10, 64); err != nil {
					return argumentError(fmt.Errorf("invalid value for %s: %q is not an integer", p.Name, args[i]))
				}
			}
		}
		return nil
	}
}
