// Package config holds the operator settings of artmeta: who deposits, where
// the deposit journal and the metrics file live, and how to log.
//
// Precedence (highest to lowest): CLI flags > ARTMETA_* env vars >
// config.yaml > defaults. A Config returned by New is valid; every change
// goes through an Option, and invalid options are ignored with a warning.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gnames/gn"
	"github.com/go-playground/validator/v10"
)

// Config represents the complete artmeta configuration.
type Config struct {
	// Depositor identifies who submits DOI deposits.
	Depositor DepositorConfig `mapstructure:"depositor" yaml:"depositor"`

	// Registrant is the organization that owns the DOIs.
	Registrant string `mapstructure:"registrant" yaml:"registrant"`

	// ResourceURLTemplate builds landing page URLs. Empty means the SciELO
	// article page. Placeholders: {doi}, {pid_v2}, {pid_v3}, {lang}.
	ResourceURLTemplate string `mapstructure:"resource_url_template" yaml:"resource_url_template"`

	// JournalPath is the SQLite file of the deposit journal. Empty means
	// journal.db in the config directory.
	JournalPath string `mapstructure:"journal_path" yaml:"journal_path"`

	// MetricsPath is a node-exporter textfile written after each run.
	// Empty disables metrics output.
	MetricsPath string `mapstructure:"metrics_path" yaml:"metrics_path"`

	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// DepositorConfig is the contact Crossref writes back to.
type DepositorConfig struct {
	Name  string `mapstructure:"name"  yaml:"name"`
	Email string `mapstructure:"email" yaml:"email" validate:"omitempty,email"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format is 'text' or 'json'.
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
	// Level is one of 'debug', 'info', 'warn', 'error'.
	Level string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
}

// New creates a Config with default values.
func New(opts ...Option) *Config {
	res := &Config{
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
	}
	res.Update(opts)
	return res
}

// Update applies options in order.
func (c *Config) Update(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a Config that did not come through options, e.g. one
// unmarshalled from a file.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// JournalFile returns the deposit journal path, falling back to the config
// directory.
func (c *Config) JournalFile() string {
	if c.JournalPath != "" {
		return ExpandPath(c.JournalPath)
	}
	return filepath.Join(ConfigDir(), JournalFile)
}

// Option is a function that modifies a Config.
type Option func(*Config)

// OptDepositorName sets the depositor name of DOI deposits.
func OptDepositorName(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Depositor Name", s) {
			c.Depositor.Name = s
		}
	}
}

// OptDepositorEmail sets the depositor email of DOI deposits.
func OptDepositorEmail(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if validate.Var(s, "required,email") != nil {
			gn.Warn("<em>Depositor Email</em> is not a valid address, ignoring %q", s)
			return
		}
		c.Depositor.Email = s
	}
}

// OptRegistrant sets the registrant of DOI deposits.
func OptRegistrant(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Registrant", s) {
			c.Registrant = s
		}
	}
}

// OptResourceURLTemplate sets the landing page template.
func OptResourceURLTemplate(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if !strings.HasPrefix(s, "http") {
			gn.Warn("<em>Resource URL</em> has to be an http(s) URL, ignoring %q", s)
			return
		}
		c.ResourceURLTemplate = s
	}
}

// OptJournalPath sets the deposit journal file.
func OptJournalPath(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Journal Path", s) {
			c.JournalPath = ExpandPath(s)
		}
	}
}

// OptMetricsPath sets the metrics textfile.
func OptMetricsPath(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Metrics Path", s) {
			c.MetricsPath = ExpandPath(s)
		}
	}
}

// OptLogLevel sets the log level.
func OptLogLevel(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		if isValidEnum("Log.Level", s) {
			c.Log.Level = s
		}
	}
}

// OptLogFormat sets the log format.
func OptLogFormat(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		if isValidEnum("Log.Format", s) {
			c.Log.Format = s
		}
	}
}

// ToOptions converts the persistent fields to options, so that a Config
// read from a file can be replayed over defaults.
func (c *Config) ToOptions() []Option {
	var res []Option
	add := func(s string, opt func(string) Option) {
		if s != "" {
			res = append(res, opt(s))
		}
	}
	add(c.Depositor.Name, OptDepositorName)
	add(c.Depositor.Email, OptDepositorEmail)
	add(c.Registrant, OptRegistrant)
	add(c.ResourceURLTemplate, OptResourceURLTemplate)
	add(c.JournalPath, OptJournalPath)
	add(c.MetricsPath, OptMetricsPath)
	add(c.Log.Level, OptLogLevel)
	add(c.Log.Format, OptLogFormat)
	return res
}

func isValidString(name, s string) bool {
	res := s != ""
	if !res {
		gn.Warn("<em>%s</em> cannot be empty, ignoring", name)
	}
	return res
}

var enums = map[string][]string{
	"Log.Level":  {"debug", "info", "warn", "error"},
	"Log.Format": {"json", "text"},
}

func isValidEnum(name, val string) bool {
	for _, v := range enums[name] {
		if v == val {
			return true
		}
	}
	gn.Warn("<em>%s</em> must be one of %s, ignoring %q",
		name, strings.Join(enums[name], ", "), val)
	return false
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
