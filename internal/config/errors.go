package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoPDBTarget is returned when no molecule file or directory is given.
	ErrNoPDBTarget = errors.New("no pdb target specified: provide a .pdb file or a directory of them")

	// ErrNoResidues is returned when the residue table is empty.
	ErrNoResidues = errors.New("no residues configured")

	// ErrNoNPSource is returned when there are neither NP targets nor
	// radii and zeta potentials to generate NPs from.
	ErrNoNPSource = errors.New("no nanoparticles: provide np-targets or both np-radii and zeta-potentials")

	// ErrNoPMFDir is returned when generated NPs have no PMF directory.
	ErrNoPMFDir = errors.New("generated nanoparticles require a pmf-directory")

	// ErrInvalidShape is returned for an unknown NP shape.
	ErrInvalidShape = errors.New("invalid np shape: must be one of sphere, cylinder, cube, cylinder-b, cylinder-c or 1-5")

	// ErrInvalidAngleDelta is returned when the bin width does not divide 180°.
	ErrInvalidAngleDelta = errors.New("invalid angle delta: must be positive and divide 180 evenly")

	// ErrInvalidSamples is returned when the sample count is not positive.
	ErrInvalidSamples = errors.New("invalid samples: must be positive")

	// ErrInvalidSteps is returned when profiles would have fewer than two points.
	ErrInvalidSteps = errors.New("invalid steps: must be at least 2")

	// ErrInvalidTemperature is returned when the temperature is not positive.
	ErrInvalidTemperature = errors.New("invalid temperature: must be positive")

	// ErrInvalidDisorderStrategy is returned for a strategy other than 0, 1 or 2.
	ErrInvalidDisorderStrategy = errors.New("invalid disorder strategy: must be 0, 1 or 2")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
