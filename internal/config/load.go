package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gnames/gn"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/matsen/artmeta/internal/errcode"
)

const (
	// ConfigDirName is the directory name under XDG_CONFIG_HOME.
	ConfigDirName = "artmeta"
	// ConfigFile is the config file name.
	ConfigFile = "config.yaml"
	// JournalFile is the default deposit journal file name.
	JournalFile = "journal.db"
	// EnvPrefix prefixes environment overrides, e.g. ARTMETA_DEPOSITOR_EMAIL.
	EnvPrefix = "ARTMETA"
)

// ConfigDir returns the artmeta config directory.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/artmeta.
func ConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDirName)
}

// ConfigPath returns the path to the default config file.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, ConfigFile)
}

// LoadResult is a loaded configuration with the place it came from.
type LoadResult struct {
	Config     *Config
	SourcePath string // config file used, empty if none
	Source     string // "file", "defaults" or "defaults+env"
}

// Load reads configuration from a YAML file, environment and defaults.
// With an empty path the default location is used if it exists; a missing
// explicit path is an error.
func Load(path string) (*LoadResult, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// keys have to be known to viper for env overrides to reach Unmarshal
	def := New()
	v.SetDefault("depositor.name", def.Depositor.Name)
	v.SetDefault("depositor.email", def.Depositor.Email)
	v.SetDefault("registrant", def.Registrant)
	v.SetDefault("resource_url_template", def.ResourceURLTemplate)
	v.SetDefault("journal_path", def.JournalPath)
	v.SetDefault("metrics_path", def.MetricsPath)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	explicit := path != ""
	if !explicit {
		if p := ConfigPath(); p != "" {
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}

	res := &LoadResult{Source: "defaults"}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
				if explicit {
					return nil, configError(errcode.ConfigReadError, path,
						fmt.Errorf("config file not found: %w", err))
				}
			} else {
				return nil, configError(errcode.ConfigReadError, path, err)
			}
		} else {
			res.Source = "file"
			res.SourcePath = v.ConfigFileUsed()
		}
	}
	if res.Source == "defaults" && hasEnvVars() {
		res.Source = "defaults+env"
	}

	var raw Config
	if err := v.Unmarshal(&raw); err != nil {
		return nil, configError(errcode.ConfigReadError, path, err)
	}
	if err := raw.Validate(); err != nil {
		return nil, configError(errcode.ConfigInvalidError, path, err)
	}

	res.Config = New(raw.ToOptions()...)
	return res, nil
}

func hasEnvVars() bool {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, EnvPrefix+"_") {
			return true
		}
	}
	return false
}

func configError(code gn.ErrorCode, path string, err error) error {
	msg := "Cannot read config <em>%s</em>"
	if code == errcode.ConfigInvalidError {
		msg = "Invalid config <em>%s</em>"
	}
	return &gn.Error{Code: code, Msg: msg, Vars: []any{path}, Err: err}
}

const configHeader = `# artmeta configuration
#
# Precedence (highest to lowest):
#   1. CLI flags
#   2. Environment variables (ARTMETA_DEPOSITOR_EMAIL, ARTMETA_LOG_LEVEL, ...)
#   3. This file
#   4. Built-in defaults
#
# resource_url_template placeholders: {doi}, {pid_v2}, {pid_v3}, {lang}.
# An empty journal_path keeps the deposit journal next to this file.

`

// Generate writes a documented config file with default values to path,
// or to the default location when path is empty. It never overwrites an
// existing file. It returns the path written.
func Generate(path string, cfg *Config) (string, error) {
	if path == "" {
		path = ConfigPath()
	}
	if path == "" {
		return "", configError(errcode.ConfigWriteError, path,
			errors.New("cannot determine config directory"))
	}
	if cfg == nil {
		cfg = New()
	}

	if _, err := os.Stat(path); err == nil {
		return "", configError(errcode.ConfigWriteError, path,
			fmt.Errorf("config file already exists at %s", path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", configError(errcode.ConfigWriteError, path, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", configError(errcode.ConfigWriteError, path, err)
	}
	content := append([]byte(configHeader), data...)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", configError(errcode.ConfigWriteError, path, err)
	}
	return path, nil
}
