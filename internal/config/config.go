// Package config resolves the client's configuration from command
// flags, ELYSIAN_* environment variables and an optional config file,
// in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the resolved client configuration. Typed fields cover the
// settings shared across commands; one-off command flags are read
// through String/Int/Bool.
type Config struct {
	// APIURL roots the learning service, IdentityURL the identity
	// provider. An empty IdentityURL derives APIURL + "/identity",
	// which is where the sandbox mounts its provider.
	APIURL      string
	IdentityURL string
	APIKey      string

	Lang string

	CredentialsPath string
	HistoryPath     string
	VocabCachePath  string
	DictURL         string

	Timeout time.Duration

	// Listen playback preferences.
	Speed   float64
	Lenient bool

	// External audio capture command for speak practice.
	RecordCommand string
	RecordArgs    []string
	RecordMIME    string

	LogLevel  string
	LogFormat string

	v *viper.Viper
}

// Load binds cmd's flags and the environment to a fresh viper instance
// and resolves the configuration. A .env file in the working directory
// is folded into the environment first.
func Load(cmd *cobra.Command) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("error loading .env file", "error", err)
	}

	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("ELYSIAN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("elysian")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/elysian")
	v.AddConfigPath("/etc/elysian")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	cfg := &Config{
		APIURL:          strings.TrimRight(v.GetString("api-url"), "/"),
		IdentityURL:     strings.TrimRight(v.GetString("identity-url"), "/"),
		APIKey:          v.GetString("api-key"),
		Lang:            v.GetString("lang"),
		CredentialsPath: v.GetString("credentials"),
		HistoryPath:     v.GetString("history-db"),
		VocabCachePath:  v.GetString("vocab-db"),
		DictURL:         v.GetString("dict-url"),
		Timeout:         v.GetDuration("timeout"),
		Speed:           v.GetFloat64("speed"),
		Lenient:         v.GetBool("lenient"),
		RecordCommand:   v.GetString("record-cmd"),
		RecordArgs:      v.GetStringSlice("record-args"),
		RecordMIME:      v.GetString("record-mime"),
		LogLevel:        v.GetString("log-level"),
		LogFormat:       v.GetString("log-format"),
		v:               v,
	}
	if err := cfg.fillDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// String reads a command-specific key through the same flag/env/file
// resolution as the typed fields.
func (c *Config) String(key string) string { return c.v.GetString(key) }

// Int reads a command-specific integer key.
func (c *Config) Int(key string) int { return c.v.GetInt(key) }

// Bool reads a command-specific boolean key.
func (c *Config) Bool(key string) bool { return c.v.GetBool(key) }

func (c *Config) fillDefaults() error {
	if c.APIURL == "" {
		c.APIURL = "http://localhost:8001"
	}
	if c.IdentityURL == "" {
		c.IdentityURL = c.APIURL + "/identity"
	}
	if c.Lang == "" {
		c.Lang = "en"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.CredentialsPath == "" || c.HistoryPath == "" || c.VocabCachePath == "" {
		dir, err := dataDir()
		if err != nil {
			return err
		}
		if c.CredentialsPath == "" {
			c.CredentialsPath = filepath.Join(dir, "credentials.json")
		}
		if c.HistoryPath == "" {
			c.HistoryPath = filepath.Join(dir, "history.db")
		}
		if c.VocabCachePath == "" {
			c.VocabCachePath = filepath.Join(dir, "vocab.db")
		}
	}
	return nil
}

// dataDir is where the client keeps credentials and local databases.
func dataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "elysian"), nil
}

// EnsureParent creates the directory that will hold path.
func EnsureParent(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o700)
}
