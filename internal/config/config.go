// Package config resolves the active user profile, API endpoint and
// timeout from the config file and LINODE_CLI_* environment variables.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tarrence/linode-cli/internal/clierr"
)

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "LINODE_CLI"

const defaultTimeout = 30 * time.Second

type user struct {
	Token    string
	Defaults map[string]any
}

// Config is the resolved configuration for one invocation.
type Config struct {
	v     *viper.Viper
	name  string
	user  user
	users map[string]user
}

// DefaultPath is where the config file is looked for when --config is not
// given: $XDG_CONFIG_HOME/linode-cli/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "linode-cli", "config.yaml")
}

// Load reads file (or the default location when empty) and selects the
// profile asUser, falling back to default-user. A missing default file is
// not an error; a missing explicit one is. Naming a profile that does not
// exist exits with clierr.UnknownUser.
func Load(file, asUser string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
	} else {
		def := DefaultPath()
		v.AddConfigPath(filepath.Dir(def))
		v.SetConfigName(strings.TrimSuffix(filepath.Base(def), filepath.Ext(def)))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("token", EnvPrefix+"_TOKEN")
	_ = v.BindEnv("api.url", EnvPrefix+"_API_URL")
	_ = v.BindEnv("api.timeout", EnvPrefix+"_TIMEOUT")
	v.SetDefault("api.timeout", defaultTimeout.String())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, clierr.Errorf(clierr.UnknownUser, "failed to read config %s: %v", file, err)
		}
	}

	c := &Config{v: v, users: map[string]user{}}
	if err := v.UnmarshalKey("users", &c.users); err != nil {
		return nil, clierr.Errorf(clierr.UnknownUser, "invalid users section in config: %v", err)
	}

	name := strings.ToLower(asUser)
	if name == "" {
		name = strings.ToLower(v.GetString("default-user"))
	}
	if name != "" {
		u, ok := c.users[name]
		if !ok {
			return nil, clierr.Errorf(clierr.UnknownUser, "unknown user %q; configured users: %s", name, strings.Join(c.Users(), ", "))
		}
		c.name, c.user = name, u
	}
	return c, nil
}

// User is the selected profile name, empty when none is configured.
func (c *Config) User() string { return c.name }

// Users lists the configured profile names.
func (c *Config) Users() []string {
	out := make([]string, 0, len(c.users))
	for name := range c.users {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Token returns LINODE_CLI_TOKEN when set, otherwise the profile token.
func (c *Config) Token() string {
	if t := c.v.GetString("token"); t != "" {
		return t
	}
	return c.user.Token
}

// BaseURL is the configured API root; empty means the catalog default.
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.v.GetString("api.url"), "/")
}

func (c *Config) Timeout() time.Duration {
	if d := c.v.GetDuration("api.timeout"); d > 0 {
		return d
	}
	return defaultTimeout
}

// Defaults returns the profile's body-argument defaults keyed by dotted
// argument path; nested maps in the file are flattened.
func (c *Config) Defaults() map[string]any {
	out := map[string]any{}
	flatten(out, "", c.user.Defaults)
	return out
}

func flatten(out map[string]any, prefix string, m map[string]any) {
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok {
			flatten(out, prefix+k+".", sub)
			continue
		}
		out[prefix+k] = v
	}
}

// File is the config file that was read, if any.
func (c *Config) File() string {
	return c.v.ConfigFileUsed()
}
