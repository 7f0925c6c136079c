package openapi

import (
	"encoding/json"
	"strconv"
)

// Vendor extensions understood by the baker.
const (
	extCommand    = "x-linode-cli-command"
	extAction     = "x-linode-cli-action"
	extSkip       = "x-linode-cli-skip"
	extFilterable = "x-linode-filterable"
	extDisplay    = "x-linode-cli-display"
	extColor      = "x-linode-cli-color"
	extSubtables  = "x-linode-cli-subtables"
	extRows       = "x-linode-cli-rows"
	extUseSchema  = "x-linode-cli-use-schema"
	extFormat     = "x-linode-cli-format"
	extUpload     = "x-linode-cli-upload"
)

// decodeExt decodes extension key of exts into out. kin-openapi may hand
// back either decoded values or raw JSON, so both go through a JSON round trip.
func decodeExt(exts map[string]any, key string, out any) bool {
	v, ok := exts[key]
	if !ok || v == nil {
		return false
	}
	var raw []byte
	switch t := v.(type) {
	case json.RawMessage:
		raw = t
	case []byte:
		raw = t
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return false
		}
		raw = b
	}
	return json.Unmarshal(raw, out) == nil
}

func extString(exts map[string]any, key string) string {
	var s string
	if decodeExt(exts, key, &s) {
		return s
	}
	return ""
}

// extStrings accepts either a single string or a list of strings.
func extStrings(exts map[string]any, key string) []string {
	var list []string
	if decodeExt(exts, key, &list) {
		return list
	}
	if s := extString(exts, key); s != "" {
		return []string{s}
	}
	return nil
}

func extBool(exts map[string]any, key string) bool {
	var b bool
	if decodeExt(exts, key, &b) {
		return b
	}
	if s := extString(exts, key); s != "" {
		v, _ := strconv.ParseBool(s)
		return v
	}
	return false
}

func extInt(exts map[string]any, key string) int {
	var f float64
	if decodeExt(exts, key, &f) {
		return int(f)
	}
	if s := extString(exts, key); s != "" {
		v, _ := strconv.Atoi(s)
		return v
	}
	return 0
}

// extColorMap reads a value → color mapping; non-string colors are dropped.
func extColorMap(exts map[string]any) map[string]string {
	var m map[string]any
	if !decodeExt(exts, extColor, &m) || len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

type uploadExt struct {
	MaxSize     int64  `json:"max-size"`
	ContentType string `json:"content-type"`
}
