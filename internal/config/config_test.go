package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gnames/gn"

	"github.com/matsen/artmeta/internal/errcode"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("log defaults = %+v, want info/text", cfg.Log)
	}
	if cfg.Depositor.Name != "" || cfg.Registrant != "" {
		t.Errorf("depositor should be empty by default, got %+v", cfg.Depositor)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestOptions(t *testing.T) {
	cfg := New(
		OptDepositorName(" SciELO "),
		OptDepositorEmail("deposit@scielo.org"),
		OptRegistrant("SciELO"),
		OptResourceURLTemplate("https://example.org/{doi}"),
		OptLogLevel("DEBUG"),
		OptLogFormat("json"),
	)
	if cfg.Depositor.Name != "SciELO" {
		t.Errorf("Depositor.Name = %q", cfg.Depositor.Name)
	}
	if cfg.Depositor.Email != "deposit@scielo.org" {
		t.Errorf("Depositor.Email = %q", cfg.Depositor.Email)
	}
	if cfg.ResourceURLTemplate != "https://example.org/{doi}" {
		t.Errorf("ResourceURLTemplate = %q", cfg.ResourceURLTemplate)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestOptionsRejectInvalid(t *testing.T) {
	cfg := New(OptDepositorEmail("deposit@scielo.org"))
	cfg.Update([]Option{
		OptDepositorEmail("not an email"),
		OptDepositorName("  "),
		OptResourceURLTemplate("ftp://example.org"),
		OptLogLevel("loud"),
		OptLogFormat("tint"),
	})

	if cfg.Depositor.Email != "deposit@scielo.org" {
		t.Errorf("invalid email replaced the valid one: %q", cfg.Depositor.Email)
	}
	if cfg.Depositor.Name != "" {
		t.Errorf("blank name accepted: %q", cfg.Depositor.Name)
	}
	if cfg.ResourceURLTemplate != "" {
		t.Errorf("non-http template accepted: %q", cfg.ResourceURLTemplate)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("invalid log settings accepted: %+v", cfg.Log)
	}
}

func TestToOptionsRoundTrip(t *testing.T) {
	orig := New(
		OptDepositorName("SciELO"),
		OptDepositorEmail("deposit@scielo.org"),
		OptRegistrant("SciELO Brasil"),
		OptJournalPath("/tmp/journal.db"),
		OptMetricsPath("/tmp/artmeta.prom"),
		OptLogLevel("warn"),
	)
	got := New(orig.ToOptions()...)
	if *got != *orig {
		t.Errorf("round trip = %+v, want %+v", got, orig)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in, want string
	}{
		{"~/artmeta/journal.db", filepath.Join(home, "artmeta/journal.db")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfigPathRespectsXDG(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)

	want := filepath.Join(tmp, "artmeta", "config.yaml")
	if got := ConfigPath(); got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}
	if got := New().JournalFile(); got != filepath.Join(tmp, "artmeta", "journal.db") {
		t.Errorf("JournalFile() = %q", got)
	}
	if got := New(OptJournalPath("/data/j.db")).JournalFile(); got != "/data/j.db" {
		t.Errorf("JournalFile() with path = %q", got)
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `depositor:
  name: SciELO
  email: deposit@scielo.org
registrant: SciELO Brasil
resource_url_template: https://example.org/{pid_v3}
log:
  level: warn
  format: json
`)
	res, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if res.Source != "file" || res.SourcePath != path {
		t.Errorf("source = %q %q", res.Source, res.SourcePath)
	}
	cfg := res.Config
	if cfg.Depositor.Email != "deposit@scielo.org" || cfg.Registrant != "SciELO Brasil" {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.Log.Level != "warn" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.ResourceURLTemplate != "https://example.org/{pid_v3}" {
		t.Errorf("ResourceURLTemplate = %q", cfg.ResourceURLTemplate)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "depositor:\n  email: file@scielo.org\n")
	t.Setenv("ARTMETA_DEPOSITOR_EMAIL", "env@scielo.org")
	t.Setenv("ARTMETA_REGISTRANT", "Env Registrant")

	res, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if res.Config.Depositor.Email != "env@scielo.org" {
		t.Errorf("Depositor.Email = %q, want env value", res.Config.Depositor.Email)
	}
	if res.Config.Registrant != "Env Registrant" {
		t.Errorf("Registrant = %q", res.Config.Registrant)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	res, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if res.SourcePath != "" {
		t.Errorf("SourcePath = %q, want none", res.SourcePath)
	}
	if res.Config.Log.Level != "info" {
		t.Errorf("Log.Level = %q", res.Config.Log.Level)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		code gn.ErrorCode
	}{
		{"missing explicit file", filepath.Join(t.TempDir(), "nope.yaml"), errcode.ConfigReadError},
		{"malformed yaml", writeFile(t, "log: [unclosed\n"), errcode.ConfigReadError},
		{"invalid level", writeFile(t, "log:\n  level: loud\n"), errcode.ConfigInvalidError},
		{"invalid email", writeFile(t, "depositor:\n  email: nobody\n"), errcode.ConfigInvalidError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			var gnErr *gn.Error
			if !errors.As(err, &gnErr) {
				t.Fatalf("Load() error = %v, want gn.Error", err)
			}
			if gnErr.Code != tt.code {
				t.Errorf("code = %v, want %v", gnErr.Code, tt.code)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := Generate("", New(OptDepositorName("SciELO")))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if path != ConfigPath() {
		t.Errorf("Generate() path = %q, want %q", path, ConfigPath())
	}

	res, err := Load("")
	if err != nil {
		t.Fatalf("loading generated config: %v", err)
	}
	if res.Source != "file" {
		t.Errorf("Source = %q, want file", res.Source)
	}
	if res.Config.Depositor.Name != "SciELO" {
		t.Errorf("Depositor.Name = %q", res.Config.Depositor.Name)
	}

	if _, err := Generate(path, nil); err == nil {
		t.Error("Generate() overwrote an existing file")
	}
}
