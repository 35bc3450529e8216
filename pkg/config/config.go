// Package config loads the CLI's layered user preferences: built-in
// defaults, a user config file, an optional repository-local override, and
// finally command-line flags (applied by the caller, not by this package).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Analyzer holds analyzer-tunable preferences.
type Analyzer struct {
	Workers int `toml:"workers"`
}

// Output holds report-rendering preferences.
type Output struct {
	Format   string `toml:"format"`
	Compress bool   `toml:"compress"`
}

// Signing holds report-signing preferences.
type Signing struct {
	Key string `toml:"key"`
}

// Config is the decoded shape of repostat.toml / config.toml.
type Config struct {
	Analyzer Analyzer `toml:"analyzer"`
	Output   Output   `toml:"output"`
	Signing  Signing  `toml:"signing"`
}

// Default returns the built-in configuration used when no file is present
// at any layer.
func Default() *Config {
	return &Config{
		Analyzer: Analyzer{Workers: 0},
		Output:   Output{Format: "json", Compress: false},
		Signing:  Signing{Key: ""},
	}
}

// Load resolves configuration in narrowest-wins order: built-in defaults,
// then the user config file, then a repository-local override if repoDir
// is non-empty and the file exists. explicitPath, if non-empty, replaces
// the user config file lookup entirely. A missing file at any layer is not
// an error.
func Load(explicitPath, repoDir string) (*Config, error) {
	cfg := Default()

	userPath := explicitPath
	if userPath == "" {
		p, err := userConfigPath()
		if err != nil {
			return nil, err
		}
		userPath = p
	}
	if err := mergeFile(cfg, userPath); err != nil {
		return nil, err
	}

	if repoDir != "" {
		if err := mergeFile(cfg, filepath.Join(repoDir, "repostat.toml")); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

func userConfigPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); strings.TrimSpace(xdg) != "" {
		return filepath.Join(xdg, "repostat", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home dir: %w", err)
	}
	return filepath.Join(home, ".repostat.toml"), nil
}

// ResolveWorkers applies flag > config > engine-default precedence. flag <=
// 0 means "not set on the command line".
func ResolveWorkers(flag int, cfg *Config) int {
	if flag > 0 {
		return flag
	}
	if cfg != nil && cfg.Analyzer.Workers > 0 {
		return cfg.Analyzer.Workers
	}
	return 0 // Analyzer falls back to WorkerCount() itself.
}
