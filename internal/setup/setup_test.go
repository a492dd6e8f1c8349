package setup

import (
	"bufio"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Guliveer/diskwatch/internal/config"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    InstallMode
		wantErr bool
	}{
		{"system", ModeSystem, false},
		{"user", ModeUser, false},
		{"invalid", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestResolvePaths_UserMode(t *testing.T) {
	p := ResolvePaths(ModeUser)
	if p.ConfigPath == "" {
		t.Error("ConfigPath should not be empty")
	}
	if p.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
	if filepath.Dir(p.HistoryPath) != p.DataDir {
		t.Errorf("HistoryPath %s should live in DataDir %s", p.HistoryPath, p.DataDir)
	}
}

func TestResolvePaths_SystemMode(t *testing.T) {
	p := ResolvePaths(ModeSystem)
	if p.ConfigPath == "" {
		t.Error("ConfigPath should not be empty")
	}
}

func TestResolveMode_Interactive(t *testing.T) {
	mode, err := resolveMode("", bufio.NewReader(strings.NewReader("2\n")), io.Discard)
	if err != nil {
		t.Fatalf("resolveMode: %v", err)
	}
	if mode != ModeUser {
		t.Errorf("mode = %v, want user", mode)
	}

	if _, err := resolveMode("", bufio.NewReader(strings.NewReader("9\n")), io.Discard); err == nil {
		t.Error("expected error for invalid choice")
	}
}

func testPaths(t *testing.T) Paths {
	dir := t.TempDir()
	return Paths{
		ConfigDir:   filepath.Join(dir, "etc"),
		ConfigPath:  filepath.Join(dir, "etc", "config.yaml"),
		DataDir:     filepath.Join(dir, "data"),
		HistoryPath: filepath.Join(dir, "data", "history.db"),
	}
}

func TestInstall_WritesLoadableConfig(t *testing.T) {
	paths := testPaths(t)

	if err := install(io.Discard, paths, Options{Backend: config.BackendFile, RetentionDays: 7}); err != nil {
		t.Fatalf("install: %v", err)
	}

	cfg, err := config.Load(paths.ConfigPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.History.Path != paths.HistoryPath {
		t.Errorf("History.Path = %q, want %q", cfg.History.Path, paths.HistoryPath)
	}
	if cfg.History.Backend != config.BackendFile {
		t.Errorf("History.Backend = %q, want file", cfg.History.Backend)
	}
	if cfg.History.RetentionDays != 7 {
		t.Errorf("History.RetentionDays = %d, want 7", cfg.History.RetentionDays)
	}
}

func TestInstall_RefusesOverwriteWithoutForce(t *testing.T) {
	paths := testPaths(t)
	if err := install(io.Discard, paths, Options{}); err != nil {
		t.Fatalf("first install: %v", err)
	}

	err := install(io.Discard, paths, Options{})
	if !errors.Is(err, ErrConfigExists) {
		t.Fatalf("second install error = %v, want ErrConfigExists", err)
	}
	if err := install(io.Discard, paths, Options{Force: true}); err != nil {
		t.Fatalf("forced install: %v", err)
	}
}

func TestInstall_RejectsInvalidOptions(t *testing.T) {
	paths := testPaths(t)
	if err := install(io.Discard, paths, Options{Backend: "postgres"}); err == nil {
		t.Fatal("expected validation error")
	}
}
