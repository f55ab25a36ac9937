package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultPageSize != DefaultConfig().DefaultPageSize {
		t.Fatalf("DefaultPageSize = %d, want %d", cfg.DefaultPageSize, DefaultConfig().DefaultPageSize)
	}
	if cfg.HTTP.Port != 4000 {
		t.Fatalf("HTTP.Port = %d, want 4000", cfg.HTTP.Port)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "max_page_size: 50\nhttp:\n  port: 8080\n")

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxPageSize != 50 {
		t.Fatalf("MaxPageSize = %d, want 50", cfg.MaxPageSize)
	}
	if cfg.HTTP.Port != 8080 {
		t.Fatalf("HTTP.Port = %d, want 8080", cfg.HTTP.Port)
	}
	// Untouched scalars keep defaults
	if cfg.HTTP.Bind != "127.0.0.1" {
		t.Fatalf("HTTP.Bind = %q, want default", cfg.HTTP.Bind)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, "max_page_size: [not an int\n")

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EBLOG_ENV", "prod")
	t.Setenv("EBLOG_LOG_LEVEL", "debug")
	t.Setenv("EBLOG_PORT", "9090")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Env != "prod" || cfg.LogLevel != "debug" || cfg.HTTP.Port != 9090 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadWithRepo_RepoWins(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()
	nested := filepath.Join(repoRoot, "a", "b")
	if err := os.MkdirAll(nested, 0700); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	writeConfig(t, globalDir, "default_page_size: 20\ndisabled_tools: [post_delete]\n")
	writeConfig(t, filepath.Join(repoRoot, ".eblog"), "default_page_size: 5\ndisabled_tools: [post_update, post_delete]\n")

	cfg, err := LoadWithRepo(globalDir, nested)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.DefaultPageSize != 5 {
		t.Errorf("DefaultPageSize = %d, want 5", cfg.DefaultPageSize)
	}
	want := []string{"post_delete", "post_update"}
	if !reflect.DeepEqual(cfg.DisabledTools, want) {
		t.Errorf("DisabledTools = %v, want %v", cfg.DisabledTools, want)
	}
}

func TestFindRepoConfig_NotFound(t *testing.T) {
	if got := FindRepoConfig(t.TempDir()); got != "" {
		t.Errorf("FindRepoConfig() = %q, want empty", got)
	}
}

func TestMerge_ArraysDeduplicated(t *testing.T) {
	base := &Config{DisabledTypes: []string{" post ", ""}}
	overlay := &Config{DisabledTypes: []string{"post"}}

	got := Merge(base, overlay)
	if !reflect.DeepEqual(got.DisabledTypes, []string{"post"}) {
		t.Errorf("DisabledTypes = %v, want [post]", got.DisabledTypes)
	}
}

func TestBaseDir(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv(HomeEnv, "/tmp/eblog-test-home")
		dir, err := BaseDir()
		if err != nil {
			t.Fatalf("BaseDir() error = %v", err)
		}
		if dir != "/tmp/eblog-test-home" {
			t.Errorf("BaseDir() = %q", dir)
		}
	})

	t.Run("home fallback", func(t *testing.T) {
		t.Setenv(HomeEnv, "")
		home := t.TempDir()
		t.Setenv("HOME", home)
		dir, err := BaseDir()
		if err != nil {
			t.Fatalf("BaseDir() error = %v", err)
		}
		if dir != filepath.Join(home, ".eblog") {
			t.Errorf("BaseDir() = %q, want %q", dir, filepath.Join(home, ".eblog"))
		}
	})
}
