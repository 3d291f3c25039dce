package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".unitedatom"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "UNITEDATOM_"

// ErrConfigNotFound reports a missing configuration file.
var ErrConfigNotFound = errors.New("configuration file not found")

// LoadConfigFile decodes the YAML file at path on top of cfg, so keys that
// are absent keep their current values. A missing file is ErrConfigNotFound.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrConfigNotFound
	case err != nil:
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with UNITEDATOM_* environment variables.
// Lists are comma separated.
func ApplyEnv(cfg *Config) error {
	return ApplyEnvFrom(cfg, nil)
}

// ApplyEnvFrom is ApplyEnv reading from vars instead of the process
// environment when vars is non-nil.
func ApplyEnvFrom(cfg *Config, vars map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if vars != nil {
		opts.Environment = vars
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}

// FindConfigFile returns configPath if it exists. With an empty
// configPath it looks for .unitedatom in the working directory, then
// config.yaml in the XDG config directory, then .unitedatom in the home
// directory. It returns "" when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		return existing(configPath)
	}
	for _, candidate := range searchPaths() {
		if found := existing(candidate); found != "" {
			return found
		}
	}
	return ""
}

func searchPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, DefaultConfigFile))
	}
	paths = append(paths, filepath.Join(XDGConfigDir(), "config.yaml"))
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, DefaultConfigFile))
	}
	return paths
}

func existing(path string) string {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}
	return ""
}
