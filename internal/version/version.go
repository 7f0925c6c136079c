// Package version reports the build identity of the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/tarrence/linode-cli/internal/version.version=..."
var (
	version   = ""
	commitSHA = ""
	buildDate = ""
)

// Version is the release version, falling back to the module version
// recorded by the go tool and then to "dev".
func Version() string {
	v := version
	if v == "" {
		v = "dev"
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			v = bi.Main.Version
		}
	}
	if commitSHA != "" {
		v += "+" + commitSHA
	}
	if buildDate != "" {
		v += " (" + buildDate + ")"
	}
	return v
}

// UserAgent identifies the client, and the spec version its catalog was
// baked from when known.
func UserAgent(apiVersion string) string {
	ua := "linode-cli/" + Version()
	if apiVersion != "" {
		ua += " linode-api/" + apiVersion
	}
	return fmt.Sprintf("%s (%s; %s)", ua, runtime.GOOS, runtime.GOARCH)
}
