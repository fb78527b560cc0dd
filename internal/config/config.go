// Package config loads the steuer settings from flags, environment
// variables prefixed with STEUER_ and an optional steuer.yaml.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/thornpw/steuer/internal/mapping"
	"github.com/thornpw/steuer/internal/resolver"
)

const (
	EnvPrefix = "STEUER"
	fileName  = "steuer"
)

type Config struct {
	Database Database `mapstructure:"database"`

	// Events enables the lifecycle notifications of the session.
	Events  bool    `mapstructure:"events"`
	Mode    string  `mapstructure:"mode"`
	Listen  string  `mapstructure:"listen"`
	Debug   bool    `mapstructure:"debug"`
	Tray    bool    `mapstructure:"tray"`
	Acquire Acquire `mapstructure:"acquire"`
}

type Database struct {
	Alias string `mapstructure:"alias"`
	// File is the database path. Dir is used when File is empty.
	File  string `mapstructure:"file"`
	Dir   string `mapstructure:"dir"`
	Watch bool   `mapstructure:"watch"`
}

type Acquire struct {
	Settle time.Duration `mapstructure:"settle"`
	Idle   time.Duration `mapstructure:"idle"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.alias", mapping.DefaultAlias)
	v.SetDefault("database.file", "")
	v.SetDefault("database.dir", "")
	v.SetDefault("database.watch", true)
	v.SetDefault("events", true)
	v.SetDefault("mode", resolver.Directions.String())
	v.SetDefault("listen", "localhost:8080")
	v.SetDefault("debug", false)
	v.SetDefault("tray", runtime.GOOS == "windows")
	v.SetDefault("acquire.settle", 100*time.Millisecond)
	v.SetDefault("acquire.idle", 10*time.Millisecond)
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"db":      "database.alias",
	"db-file": "database.file",
	"db-dir":  "database.dir",
	"watch":   "database.watch",
	"events":  "events",
	"mode":    "mode",
	"listen":  "listen",
	"debug":   "debug",
	"tray":    "tray",
	"settle":  "acquire.settle",
	"idle":    "acquire.idle",
}

// AddFlags defines the persistent flags of the CLI on fs.
func AddFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "Set custom configuration file path")
	fs.String("db", mapping.DefaultAlias, "Mapping database alias")
	fs.String("db-file", "", "Mapping database file (default ~/.steuer/steuer.json)")
	fs.String("db-dir", "", "Directory holding steuer.json")
	fs.Bool("watch", true, "Reload the mapping database when the file changes")
	fs.Bool("events", true, "Fire lifecycle notifications")
	fs.String("mode", resolver.Directions.String(), "Resolver mode: directions, actions or quiet")
	fs.String("listen", "localhost:8080", "Viewer listen address, empty to disable")
	fs.Bool("debug", false, "Enable debug logging")
	fs.Bool("tray", runtime.GOOS == "windows", "Show a tray icon")
	fs.Duration("settle", 100*time.Millisecond, "Debounce iteration length while configuring")
	fs.Duration("idle", 10*time.Millisecond, "Poll interval while waiting for input")
}

// New returns a viper instance with defaults, environment binding and the
// flags of fs bound to their keys.
func New(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs == nil {
		return v, nil
	}
	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errors.Wrapf(err, "bind flag %s", name)
			}
		}
	}
	return v, nil
}

// Load reads the configuration file, if any, and decodes v. An explicit
// path must exist; without one steuer.yaml is looked up in the working
// directory and in ~/.steuer.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(fileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, mapping.DefaultDir))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read configuration")
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "decode configuration")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c.Database.Alias == "" {
		return errors.New("config: database.alias is empty")
	}
	if _, ok := resolver.ParseMode(c.Mode); !ok {
		return errors.Errorf("config: unknown mode %q", c.Mode)
	}
	if c.Acquire.Settle < 0 || c.Acquire.Idle < 0 {
		return errors.New("config: negative acquire interval")
	}
	return nil
}

// DatabasePath is the mapping database file to use.
func (c *Config) DatabasePath() string {
	switch {
	case c.Database.File != "":
		return c.Database.File
	case c.Database.Dir != "":
		return filepath.Join(c.Database.Dir, mapping.DefaultFilename)
	}
	return mapping.DefaultPath()
}

// ResolverMode parses Mode. Validate has checked it already.
func (c *Config) ResolverMode() resolver.Mode {
	m, _ := resolver.ParseMode(c.Mode)
	return m
}
