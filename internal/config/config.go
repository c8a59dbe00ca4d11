package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	EnvConfigPath = "PLASTIC_GO_CONFIG"
	appDir        = "plastic-go"
	fileName      = "config.toml"
)

type Config struct {
	CM     CMConfig     `toml:"cm"`
	Log    LogConfig    `toml:"log"`
	Watch  WatchConfig  `toml:"watch"`
	Diff   DiffConfig   `toml:"diff"`
	Status StatusConfig `toml:"status"`
}

type CMConfig struct {
	Binary                 string `toml:"binary_path"`
	WorkspaceRoot          string `toml:"workspace_root"`
	ActivityTimeoutSeconds int    `toml:"activity_timeout_seconds"`
	ExitWaitMillis         int    `toml:"exit_wait_millis"`
}

type LogConfig struct {
	Level string `toml:"level"` // debug | info | warn | error
	File  string `toml:"file"`
}

type WatchConfig struct {
	DebounceMillis int      `toml:"debounce_millis"`
	Ignore         []string `toml:"ignore"` // base name globs
}

type DiffConfig struct {
	Theme   string `toml:"theme"` // auto | light | dark | none
	Context int    `toml:"context"`
}

type StatusConfig struct {
	// RedundantErrors lists substrings of cm errors reported as information.
	RedundantErrors []string `toml:"redundant_errors"`
}

func Default(binaryPath, workspaceRoot string) Config {
	return Config{
		CM: CMConfig{
			Binary:                 binaryPath,
			WorkspaceRoot:          workspaceRoot,
			ActivityTimeoutSeconds: 60,
			ExitWaitMillis:         1000,
		},
		Log: LogConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			DebounceMillis: 350,
			Ignore:         []string{".plastic", "*.tmp", "*~"},
		},
		Diff: DiffConfig{
			Theme:   "auto",
			Context: 3,
		},
		Status: StatusConfig{
			RedundantErrors: []string{"is not in a workspace"},
		},
	}
}

// DefaultPath returns the config file location: $PLASTIC_GO_CONFIG, or
// plastic-go/config.toml under the user config directory.
func DefaultPath(getenv func(string) string) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	if p := strings.TrimSpace(getenv(EnvConfigPath)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appDir, fileName)
}

// Load reads path over defaults. A missing or empty file yields defaults.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.CM.Binary) == "" {
		return errors.New("cm.binary_path is required")
	}
	if c.CM.ActivityTimeoutSeconds <= 0 {
		return fmt.Errorf("cm.activity_timeout_seconds must be > 0, got %d", c.CM.ActivityTimeoutSeconds)
	}
	if c.CM.ExitWaitMillis <= 0 {
		return fmt.Errorf("cm.exit_wait_millis must be > 0, got %d", c.CM.ExitWaitMillis)
	}

	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}

	if c.Watch.DebounceMillis < 0 {
		return fmt.Errorf("watch.debounce_millis must be >= 0, got %d", c.Watch.DebounceMillis)
	}
	for i, pattern := range c.Watch.Ignore {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("watch.ignore[%d]: invalid pattern %q", i, pattern)
		}
	}

	switch strings.ToLower(strings.TrimSpace(c.Diff.Theme)) {
	case "", "auto", "light", "dark", "none":
	default:
		return fmt.Errorf("invalid diff.theme: %q", c.Diff.Theme)
	}
	if c.Diff.Context < 0 {
		return fmt.Errorf("diff.context must be >= 0, got %d", c.Diff.Context)
	}

	for i, s := range c.Status.RedundantErrors {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("status.redundant_errors[%d] is empty", i)
		}
	}
	return nil
}

// BinaryPath and WorkingDirectory let the cm section drive shell restarts.
func (c CMConfig) BinaryPath() string       { return c.Binary }
func (c CMConfig) WorkingDirectory() string { return c.WorkspaceRoot }

func (c CMConfig) ActivityTimeout() time.Duration {
	return time.Duration(c.ActivityTimeoutSeconds) * time.Second
}

func (c CMConfig) ExitWait() time.Duration {
	return time.Duration(c.ExitWaitMillis) * time.Millisecond
}

func (c WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}
