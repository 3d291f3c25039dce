package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/unitedatom/internal/geometry"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default grid is 5 degrees", func(t *testing.T) {
		t.Parallel()
		if cfg.AngleDelta != 5 {
			t.Errorf("expected AngleDelta to be 5, got %v", cfg.AngleDelta)
		}
	})

	t.Run("default sampling is 128 samples of 512 steps", func(t *testing.T) {
		t.Parallel()
		if cfg.Samples != 128 || cfg.Steps != 512 {
			t.Errorf("expected 128 samples and 512 steps, got %d and %d", cfg.Samples, cfg.Steps)
		}
	})

	t.Run("default margin and temperature", func(t *testing.T) {
		t.Parallel()
		if cfg.Margin != 2.0 || cfg.Temperature != 300 {
			t.Errorf("expected margin 2 and T 300, got %v and %v", cfg.Margin, cfg.Temperature)
		}
	})

	t.Run("default bounding radius uses the NP", func(t *testing.T) {
		t.Parallel()
		if cfg.BoundingRadius != -1 {
			t.Errorf("expected BoundingRadius -1, got %v", cfg.BoundingRadius)
		}
	})

	t.Run("default disorder bounds", func(t *testing.T) {
		t.Parallel()
		if cfg.DisorderStrategy != DisorderIgnore || cfg.DisorderMin != -5 || cfg.DisorderMax != 50 {
			t.Errorf("unexpected disorder defaults: %d [%v, %v]", cfg.DisorderStrategy, cfg.DisorderMin, cfg.DisorderMax)
		}
	})

	t.Run("default shape is sphere with isotropic potentials", func(t *testing.T) {
		t.Parallel()
		if cfg.NPShape != geometry.ShapeSphere || !cfg.SumPotentials {
			t.Errorf("expected isotropic sphere, got %v sum=%v", cfg.NPShape, cfg.SumPotentials)
		}
	})

	t.Run("default workers is positive", func(t *testing.T) {
		t.Parallel()
		if cfg.Workers <= 0 {
			t.Errorf("expected positive Workers, got %d", cfg.Workers)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	// validConfig returns a minimal valid configuration.
	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.PDBTargets = []string{"proteins"}
		cfg.Residues = []Residue{{Name: "ALA", Radius: 0.3}}
		cfg.NPRadii = []float64{5}
		cfg.ZetaPotentials = []float64{0}
		cfg.PMFDir = "pmfs"
		return cfg
	}

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		if err := validConfig().Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("np targets replace generation settings", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.NPRadii = nil
		cfg.PMFDir = ""
		cfg.NPTargets = []string{"nps"}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"no pdb targets", func(c *Config) { c.PDBTargets = nil }, ErrNoPDBTarget},
		{"no residues", func(c *Config) { c.Residues = nil }, ErrNoResidues},
		{"no radii", func(c *Config) { c.NPRadii = nil }, ErrNoNPSource},
		{"no zeta potentials", func(c *Config) { c.ZetaPotentials = nil }, ErrNoNPSource},
		{"no pmf directory", func(c *Config) { c.PMFDir = "" }, ErrNoPMFDir},
		{"unknown shape", func(c *Config) { c.NPShape = geometry.Shape(9) }, ErrInvalidShape},
		{"zero angle delta", func(c *Config) { c.AngleDelta = 0 }, ErrInvalidAngleDelta},
		{"angle delta not dividing 180", func(c *Config) { c.AngleDelta = 7 }, ErrInvalidAngleDelta},
		{"zero samples", func(c *Config) { c.Samples = 0 }, ErrInvalidSamples},
		{"single step", func(c *Config) { c.Steps = 1 }, ErrInvalidSteps},
		{"zero temperature", func(c *Config) { c.Temperature = 0 }, ErrInvalidTemperature},
		{"unknown disorder strategy", func(c *Config) { c.DisorderStrategy = 3 }, ErrInvalidDisorderStrategy},
		{"zero workers", func(c *Config) { c.Workers = 0 }, ErrInvalidWorkers},
		{"json and markdown", func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, ErrConflictingReportFormats},
	}

	for _, tt := range tests {
		t.Run(tt.name+" returns error", func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// TestOmegaSet tests automatic and explicit omega angles.
func TestOmegaSet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		shape    geometry.Shape
		explicit []float64
		want     []float64
	}{
		{name: "sphere", shape: geometry.ShapeSphere, want: []float64{0}},
		{name: "cube", shape: geometry.ShapeCube, want: []float64{0}},
		{name: "cylinder", shape: geometry.ShapeCylinderA, want: []float64{0, 45, 90, 135}},
		{name: "cylinder-c", shape: geometry.ShapeCylinderC, want: []float64{0, 45, 90, 135}},
		{name: "explicit", shape: geometry.ShapeCylinderB, explicit: []float64{30}, want: []float64{30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			cfg.NPShape = tt.shape
			cfg.OmegaAngles = tt.explicit
			got := cfg.OmegaSet()
			if len(got) != len(tt.want) {
				t.Fatalf("OmegaSet() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("OmegaSet() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

// TestResidueTables tests the residue lookups.
func TestResidueTables(t *testing.T) {
	t.Parallel()

	cfg := &Config{Residues: []Residue{{Name: "ALA", Radius: 0.3}, {Name: "GLY", Radius: 0.25}}}

	ids := cfg.ResidueIDs()
	if ids["ALA"] != 0 || ids["GLY"] != 1 || len(ids) != 2 {
		t.Errorf("unexpected ids: %v", ids)
	}
	radii := cfg.ResidueRadii()
	if len(radii) != 2 || radii[1] != 0.25 {
		t.Errorf("unexpected radii: %v", radii)
	}
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		err := LoadConfigFile("/nonexistent/path/.unitedatom", NewConfig())
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
	})

	t.Run("loads valid YAML config over defaults", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".unitedatom")
		content := `residues:
  - name: ALA
    radius: 0.32
  - name: ARG
    radius: 0.41
pdb-targets:
  - proteins/
np-radii: [5, 10]
zeta-potentials: [-0.02]
np-shape: cylinder
samples: 16
mfpt: true
omega-angles: [0, 90]
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg := NewConfig()
		if err := LoadConfigFile(configPath, cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Residues) != 2 || cfg.Residues[1].Name != "ARG" || cfg.Residues[1].Radius != 0.41 {
			t.Errorf("unexpected residues: %+v", cfg.Residues)
		}
		if cfg.NPShape != geometry.ShapeCylinderA {
			t.Errorf("expected cylinder, got %v", cfg.NPShape)
		}
		if cfg.Samples != 16 || !cfg.MFPT {
			t.Errorf("expected samples 16 and mfpt, got %d %v", cfg.Samples, cfg.MFPT)
		}
		if len(cfg.NPRadii) != 2 || cfg.ZetaPotentials[0] != -0.02 {
			t.Errorf("unexpected NP generation settings: %v %v", cfg.NPRadii, cfg.ZetaPotentials)
		}
		if cfg.Steps != DefaultSteps {
			t.Errorf("expected absent key to keep default steps, got %d", cfg.Steps)
		}
	})

	t.Run("accepts numeric shape ids", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".unitedatom")
		if err := os.WriteFile(configPath, []byte("np-shape: 3\n"), 0600); err != nil {
			t.Fatal(err)
		}
		cfg := NewConfig()
		if err := LoadConfigFile(configPath, cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.NPShape != geometry.ShapeCube {
			t.Errorf("expected cube, got %v", cfg.NPShape)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".unitedatom")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if err := LoadConfigFile(configPath, NewConfig()); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("returns error for unknown shape", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".unitedatom")
		if err := os.WriteFile(configPath, []byte("np-shape: cone\n"), 0600); err != nil {
			t.Fatal(err)
		}
		if err := LoadConfigFile(configPath, NewConfig()); err == nil {
			t.Error("expected error for unknown shape")
		}
	})
}

// TestApplyEnv tests environment overrides.
func TestApplyEnv(t *testing.T) {
	t.Parallel()

	t.Run("overrides scalar and list fields", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		err := ApplyEnvFrom(cfg, map[string]string{
			"UNITEDATOM_SAMPLES":          "32",
			"UNITEDATOM_NP_RADII":         "2.5,7.5",
			"UNITEDATOM_NP_SHAPE":         "cube",
			"UNITEDATOM_SEED":             "12345",
			"UNITEDATOM_MFPT":             "true",
			"UNITEDATOM_OUTPUT_DIRECTORY": "/tmp/ua",
			"SAMPLES":                     "99",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Samples != 32 {
			t.Errorf("expected samples 32, got %d", cfg.Samples)
		}
		if len(cfg.NPRadii) != 2 || cfg.NPRadii[1] != 7.5 {
			t.Errorf("unexpected radii %v", cfg.NPRadii)
		}
		if cfg.NPShape != geometry.ShapeCube || cfg.Seed != 12345 || !cfg.MFPT {
			t.Errorf("unexpected shape/seed/mfpt: %v %d %v", cfg.NPShape, cfg.Seed, cfg.MFPT)
		}
		if cfg.OutputDir != "/tmp/ua" {
			t.Errorf("unexpected output dir %q", cfg.OutputDir)
		}
		if cfg.Steps != DefaultSteps {
			t.Errorf("expected unset variable to keep default, got %d", cfg.Steps)
		}
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		t.Parallel()

		if err := ApplyEnvFrom(NewConfig(), map[string]string{"UNITEDATOM_STEPS": "many"}); err == nil {
			t.Error("expected error for malformed integer")
		}
	})
}

// TestFingerprint tests that the fingerprint tracks result-changing settings only.
func TestFingerprint(t *testing.T) {
	t.Parallel()

	base := NewConfig()
	fp := base.Fingerprint()
	if len(fp) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(fp))
	}

	same := NewConfig()
	same.Workers = base.Workers + 3
	same.OutputDir = "elsewhere"
	if same.Fingerprint() != fp {
		t.Error("workers and output dir should not change the fingerprint")
	}

	changed := NewConfig()
	changed.Samples = 64
	if changed.Fingerprint() == fp {
		t.Error("samples should change the fingerprint")
	}
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Run("returns explicit path if exists", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("samples: 4\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
		"cache":  XDGCacheDir(),
	} {
		if dir == "" {
			t.Errorf("expected non-empty XDG %s dir", name)
		}
		if filepath.Base(dir) != AppName {
			t.Errorf("expected XDG %s dir to end in %s, got %q", name, AppName, dir)
		}
	}
}
