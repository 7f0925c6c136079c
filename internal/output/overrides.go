package output

import (
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/tarrence/linode-cli/internal/catalog"
)

// OverrideFunc renders an irregular response itself. Returning false skips
// the default rendering.
type OverrideFunc func(p *Printer, op *catalog.Operation, data []byte) (bool, error)

type overrideKey struct {
	command, action string
	mode            Mode
}

var (
	overridesMu sync.RWMutex
	overrides   = map[overrideKey]OverrideFunc{}
)

// RegisterOverride installs fn for command and action in each of modes.
func RegisterOverride(command, action string, fn OverrideFunc, modes ...Mode) {
	overridesMu.Lock()
	defer overridesMu.Unlock()
	for _, m := range modes {
		overrides[overrideKey{command, action, m}] = fn
	}
}

func lookupOverride(command, action string, mode Mode) OverrideFunc {
	overridesMu.RLock()
	defer overridesMu.RUnlock()
	return overrides[overrideKey{command, action, mode}]
}

var textModes = []Mode{ModeTable, ModeASCII, ModeDelimited, ModeMarkdown}

func init() {
	RegisterOverride("domains", "zone-file", printZoneFile, textModes...)
	RegisterOverride("lke", "kubeconfig-view", printKubeconfig, textModes...)
}

func printZoneFile(p *Printer, _ *catalog.Operation, data []byte) (bool, error) {
	for _, line := range gjson.GetBytes(data, "zone_file").Array() {
		if _, err := fmt.Fprintln(p.out, line.String()); err != nil {
			return false, err
		}
	}
	return false, nil
}

func printKubeconfig(p *Printer, _ *catalog.Operation, data []byte) (bool, error) {
	enc := gjson.GetBytes(data, "kubeconfig").String()
	if enc == "" {
		return true, nil
	}
	dec, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return false, fmt.Errorf("kubeconfig is not valid base64: %w", err)
	}
	_, err = p.out.Write(dec)
	return false, err
}
