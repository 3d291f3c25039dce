package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/unitedatom/internal/config"
	"github.com/nao1215/unitedatom/internal/geometry"
)

// TestNewInitCmd tests the init command flags.
func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
		if flag.DefValue != config.DefaultConfigFile {
			t.Errorf("expected default %q, got %q", config.DefaultConfigFile, flag.DefValue)
		}
	})

	t.Run("has force flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("force")
		if flag == nil {
			t.Fatal("expected force flag")
		}
		if flag.Shorthand != "f" {
			t.Errorf("expected shorthand 'f', got %q", flag.Shorthand)
		}
	})
}

func runInit(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewInitCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// TestRunInitCmd tests the init command execution.
func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates config file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", ".unitedatom")
		out, err := runInit(t, "-o", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Created configuration file") {
			t.Errorf("unexpected output %q", out)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected config file to be created: %v", err)
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".unitedatom")
		if err := os.WriteFile(path, []byte("keep"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := runInit(t, "-o", path); err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Errorf("expected already exists error, got %v", err)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "keep" {
			t.Error("existing file was modified")
		}
	})

	t.Run("force overwrites", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".unitedatom")
		if err := os.WriteFile(path, []byte("old"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := runInit(t, "-o", path, "-f"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) == "old" {
			t.Error("expected file to be overwritten")
		}
	})
}

// TestConfigTemplateLoads checks that the generated file is a valid
// configuration once its relative paths exist.
func TestConfigTemplateLoads(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".unitedatom")
	if _, err := runInit(t, "-o", path); err != nil {
		t.Fatal(err)
	}

	cfg := config.NewConfig()
	if err := config.LoadConfigFile(path, cfg); err != nil {
		t.Fatalf("LoadConfigFile() error = %v", err)
	}
	if len(cfg.Residues) != 20 {
		t.Errorf("residues = %d, want 20", len(cfg.Residues))
	}
	if cfg.NPShape != geometry.ShapeSphere {
		t.Errorf("shape = %v, want sphere", cfg.NPShape)
	}
	if len(cfg.NPRadii) != 3 || len(cfg.ZetaPotentials) != 2 {
		t.Errorf("np generation = %v x %v", cfg.NPRadii, cfg.ZetaPotentials)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
