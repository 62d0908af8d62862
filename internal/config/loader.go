package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ProjectConfigNames are the project config file names, in lookup order.
var ProjectConfigNames = []string{".cyagen.yaml", ".cyagen.yml"}

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from files and environment variables.
	// Priority: defaults → user file → project file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
	homeDir    string
}

// LoaderOption configures a Loader.
type LoaderOption func(*loader)

// WithConfigFile uses path as the project file instead of searching rootDir.
// The file must exist.
func WithConfigFile(path string) LoaderOption {
	return func(l *loader) {
		l.configFile = path
	}
}

// WithHomeDir sets the directory holding the user file (.cyagen/config.yaml).
// An empty dir disables the user layer.
func WithHomeDir(dir string) LoaderOption {
	return func(l *loader) {
		l.homeDir = dir
	}
}

// NewLoader creates a new configuration loader for the given root directory.
// The user layer is read from the current user's home directory unless
// WithHomeDir says otherwise.
func NewLoader(rootDir string, opts ...LoaderOption) Loader {
	l := &loader{rootDir: rootDir}
	if home, err := os.UserHomeDir(); err == nil {
		l.homeDir = home
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CYAGEN_*)
// 2. Project file
// 3. User file
// 4. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Enable environment variable overrides
	v.SetEnvPrefix("CYAGEN")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., CYAGEN_PARSER_CALL_POLICY)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if l.homeDir != "" {
		if _, err := mergeFile(v, filepath.Join(l.homeDir, ".cyagen", "config.yaml")); err != nil {
			return nil, err
		}
	}

	if l.configFile != "" {
		found, err := mergeFile(v, l.configFile)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("failed to read config file: %s does not exist", l.configFile)
		}
	} else {
		for _, name := range ProjectConfigNames {
			found, err := mergeFile(v, filepath.Join(l.rootDir, name))
			if err != nil {
				return nil, err
			}
			if found {
				break
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// mergeFile merges the YAML file at path into v. A missing file is not an
// error; found reports whether it existed.
func mergeFile(v *viper.Viper, path string) (found bool, err error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	defer f.Close()

	if err := v.MergeConfig(f); err != nil {
		return true, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return true, nil
}

// setDefaults configures viper with default values. Every key needs a default
// for AutomaticEnv to see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("parser.local_static_var_macro_name", defaults.Parser.LocalStaticVarMacroName)
	v.SetDefault("parser.call_policy", defaults.Parser.CallPolicy)
	v.SetDefault("parser.attribution", defaults.Parser.Attribution)

	v.SetDefault("templates.jinja_extensions", defaults.Templates.JinjaExtensions)
	v.SetDefault("templates.ignore", defaults.Templates.Ignore)

	v.SetDefault("output.merge_manual_sections", defaults.Output.MergeManualSections)
	v.SetDefault("output.format", defaults.Output.Format)

	v.SetDefault("render.utc", defaults.Render.UTC)

	v.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMS)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}
