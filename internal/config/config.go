package config

import (
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"

	"github.com/nao1215/unitedatom/internal/geometry"
	"github.com/nao1215/unitedatom/internal/input"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "unitedatom"

	// DefaultAngleDelta is the orientation bin width in degrees. 5° gives a
	// 36 by 72 grid of 2592 bins.
	DefaultAngleDelta = 5.0

	// DefaultSamples is the number of stochastic poses averaged per bin.
	DefaultSamples = 128

	// DefaultSteps is the number of points in each radial profile.
	DefaultSteps = 512

	// DefaultMargin is how far beyond the NP's outer bound profiles start, in nm.
	DefaultMargin = 2.0

	// DefaultTemperature is the temperature in K.
	DefaultTemperature = 300.0

	// DefaultBoundingRadius of -1 means the NP's own bounds are used.
	DefaultBoundingRadius = -1.0

	// DefaultOverlapRadiusFactor leaves bead radii unscaled for the overlap test.
	DefaultOverlapRadiusFactor = 1.0

	// DefaultDisorderMin and DefaultDisorderMax bound the B-factor range that
	// marks a residue as disordered. With AlphaFold files the B-factor column
	// holds pLDDT, so the default range means pLDDT below 50.
	DefaultDisorderMin = -5.0
	DefaultDisorderMax = 50.0

	// DefaultPMFCutoff is the distance, in nm, beyond which PMFs are zero.
	DefaultPMFCutoff = 5.0
)

// Disorder strategies for PDB residues whose B-factor falls within the
// disorder bounds.
const (
	// DisorderIgnore treats every residue as ordered.
	DisorderIgnore = input.DisorderIgnore

	// DisorderCentre moves disordered residues to the centre of the
	// ordered residues but keeps their occupancy.
	DisorderCentre = input.DisorderCentre

	// DisorderSuppress moves disordered residues to the centre and sets
	// their occupancy to the suppressed sentinel.
	DisorderSuppress = input.DisorderSuppress
)

// Residue is one entry of the residue table. The order of the table fixes
// the residue-type ids.
type Residue struct {
	Name string `yaml:"name"`

	// Radius is used by the overlap test, in nm.
	Radius float64 `yaml:"radius"`
}

// Config holds all configuration options for unitedatom.
// It is filled from defaults, then the configuration file, then
// UNITEDATOM_* environment variables, then command-line flags.
type Config struct {
	// Residues is the residue table. PDB residue names must appear here.
	Residues []Residue `yaml:"residues"`

	// PDBTargets are .pdb files or directories searched recursively.
	PDBTargets []string `yaml:"pdb-targets" env:"PDB_TARGETS"`

	// NPTargets are .np files or directories searched recursively. When
	// empty, one single-bead NP is generated per (radius, zeta) pair.
	NPTargets []string `yaml:"np-targets" env:"NP_TARGETS"`

	// NPRadii and ZetaPotentials drive NP generation, in nm and V.
	NPRadii        []float64 `yaml:"np-radii" env:"NP_RADII"`
	ZetaPotentials []float64 `yaml:"zeta-potentials" env:"ZETA_POTENTIALS"`

	// NPShape is the scan shape. It selects the integrator, the isotropic
	// distance model and the output naming rules.
	NPShape geometry.Shape `yaml:"np-shape" env:"NP_SHAPE"`

	// PMFDir holds one {residue}.dat table per residue for generated NPs.
	PMFDir    string  `yaml:"pmf-directory" env:"PMF_DIRECTORY"`
	PMFCutoff float64 `yaml:"pmf-cutoff" env:"PMF_CUTOFF"`

	// HamakerFile is copied into generated NP files. The supplied
	// potential does not read it.
	HamakerFile string `yaml:"hamaker-file" env:"HAMAKER_FILE"`

	// OutputDir receives one subdirectory of results per NP.
	OutputDir string `yaml:"output-directory" env:"OUTPUT_DIRECTORY"`

	// BoundingRadius overrides the NP's inner bound when non-negative; the
	// outer bound then becomes BoundingRadius + 0.01.
	BoundingRadius float64 `yaml:"bounding-radius" env:"BOUNDING_RADIUS"`

	AngleDelta  float64 `yaml:"angle-delta" env:"ANGLE_DELTA"`
	Samples     int     `yaml:"samples" env:"SAMPLES"`
	Steps       int     `yaml:"steps" env:"STEPS"`
	Margin      float64 `yaml:"margin" env:"MARGIN"`
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE"`

	// OverlapPenalty, in kT, is applied to residues closer than their
	// closest allowed approach. Only used with SumPotentials.
	OverlapPenalty      float64 `yaml:"overlap-penalty" env:"OVERLAP_PENALTY"`
	OverlapRadiusFactor float64 `yaml:"overlap-radius-factor" env:"OVERLAP_RADIUS_FACTOR"`

	// SumPotentials treats the NP as one isotropic bead instead of summing
	// over every NP bead.
	SumPotentials bool `yaml:"sum-potentials" env:"SUM_POTENTIALS"`

	MFPT           bool `yaml:"mfpt" env:"MFPT"`
	SavePotentials bool `yaml:"save-potentials" env:"SAVE_POTENTIALS"`

	// OmegaAngles are rotations about the molecule axis, in degrees.
	// Empty means automatic: 0 for spheres and cubes, 0/45/90/135 for cylinders.
	OmegaAngles []float64 `yaml:"omega-angles" env:"OMEGA_ANGLES"`

	DisorderStrategy int     `yaml:"disorder-strategy" env:"DISORDER_STRATEGY"`
	DisorderMin      float64 `yaml:"disorder-min" env:"DISORDER_MIN"`
	DisorderMax      float64 `yaml:"disorder-max" env:"DISORDER_MAX"`

	// Workers is the number of parallel tasks per scan.
	Workers int `yaml:"workers" env:"WORKERS"`

	// Seed is the master seed. Zero draws a fresh seed from crypto/rand.
	Seed uint64 `yaml:"seed" env:"SEED"`

	// The fields below are set from flags only.

	// Verbose enables debug logging. When false only warnings and errors
	// are logged.
	Verbose bool `yaml:"-" env:"VERBOSE"`

	// LogJSON switches the log handler to JSON.
	LogJSON bool `yaml:"-" env:"LOG_JSON"`

	// ConfigFilePath is the explicit configuration file, if any.
	ConfigFilePath string `yaml:"-"`

	// DBDir is where the scan ledger lives. Defaults to the XDG data directory.
	DBDir string `yaml:"-" env:"DB_DIR"`

	// SaveToDB records completed scans in the ledger.
	SaveToDB bool `yaml:"-" env:"SAVE_TO_DB"`

	// MetricsFile, when set, receives Prometheus text-format metrics at exit.
	MetricsFile string `yaml:"-" env:"METRICS_FILE"`

	// JSONReport and MarkdownReport select the summary report format.
	JSONReport     bool `yaml:"-"`
	MarkdownReport bool `yaml:"-"`

	// ReportFile writes the summary report to a file instead of stdout.
	ReportFile string `yaml:"-"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		NPShape:             geometry.ShapeSphere,
		PMFCutoff:           DefaultPMFCutoff,
		HamakerFile:         "none",
		OutputDir:           "results",
		BoundingRadius:      DefaultBoundingRadius,
		AngleDelta:          DefaultAngleDelta,
		Samples:             DefaultSamples,
		Steps:               DefaultSteps,
		Margin:              DefaultMargin,
		Temperature:         DefaultTemperature,
		OverlapRadiusFactor: DefaultOverlapRadiusFactor,
		SumPotentials:       true,
		DisorderStrategy:    DisorderIgnore,
		DisorderMin:         DefaultDisorderMin,
		DisorderMax:         DefaultDisorderMax,
		Workers:             runtime.GOMAXPROCS(0),
		DBDir:               XDGDataDir(),
		SaveToDB:            true,
	}
}

// XDGDataDir returns the XDG data directory for unitedatom.
// On Linux: ~/.local/share/unitedatom
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for unitedatom.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for unitedatom.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// OmegaSet returns the omega angles to scan, resolving the automatic set.
func (c *Config) OmegaSet() []float64 {
	if len(c.OmegaAngles) > 0 {
		return c.OmegaAngles
	}
	step := 180
	if c.NPShape.IsCylinder() {
		step = 45
	}
	var out []float64
	for a := 0; a < 180; a += step {
		out = append(out, float64(a))
	}
	return out
}

// ResidueIDs maps residue names to their type ids.
func (c *Config) ResidueIDs() map[string]int {
	ids := make(map[string]int, len(c.Residues))
	for i, r := range c.Residues {
		ids[r.Name] = i
	}
	return ids
}

// ResidueRadii returns residue radii indexed by type id.
func (c *Config) ResidueRadii() []float64 {
	radii := make([]float64, len(c.Residues))
	for i, r := range c.Residues {
		radii[i] = r.Radius
	}
	return radii
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if len(c.PDBTargets) == 0 {
		return ErrNoPDBTarget
	}
	if len(c.Residues) == 0 {
		return ErrNoResidues
	}
	if len(c.NPTargets) == 0 {
		if len(c.NPRadii) == 0 || len(c.ZetaPotentials) == 0 {
			return ErrNoNPSource
		}
		if c.PMFDir == "" {
			return ErrNoPMFDir
		}
	}
	if !c.NPShape.Valid() {
		return ErrInvalidShape
	}
	if c.AngleDelta <= 0 || 180/c.AngleDelta != float64(int(180/c.AngleDelta)) {
		return ErrInvalidAngleDelta
	}
	if c.Samples <= 0 {
		return ErrInvalidSamples
	}
	if c.Steps < 2 {
		return ErrInvalidSteps
	}
	if c.Temperature <= 0 {
		return ErrInvalidTemperature
	}
	if c.DisorderStrategy < DisorderIgnore || c.DisorderStrategy > DisorderSuppress {
		return ErrInvalidDisorderStrategy
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
