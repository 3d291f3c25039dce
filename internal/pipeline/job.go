package pipeline

import (
	"time"

	"github.com/nao1215/unitedatom/internal/geometry"
	"github.com/nao1215/unitedatom/internal/model"
	"github.com/nao1215/unitedatom/internal/profile"
	"github.com/nao1215/unitedatom/internal/summary"
)

// Job carries one scan key through the pipeline. Steps fill in the result
// fields as they run.
type Job struct {
	Key          model.ScanKey
	Molecule     *model.Molecule
	Nanoparticle *model.Nanoparticle
	Potential    profile.Potential

	// Grid is set by the scan step.
	Grid *model.Grid

	// Path is the grid file, whether just written or found by the checkpoint.
	Path string

	// Stats is set by the summary step.
	Stats *summary.Stats

	// Skipped is set when the grid already existed. The remaining steps
	// do not run.
	Skipped bool

	// Elapsed is the wall-clock time of the scan step.
	Elapsed time.Duration

	// PerformedSteps lists the names of the steps that ran, in order.
	PerformedSteps []string

	Err error
}

// Target is a nanoparticle together with the potential used against it.
type Target struct {
	Nanoparticle *model.Nanoparticle
	Potential    profile.Potential
}

// Plan builds one job per (target, molecule, omega), in that nesting
// order. The key takes its radius from the NP's inner bound and its zeta
// from the NP.
func Plan(targets []Target, molecules []*model.Molecule, omegas []float64, shape geometry.Shape, mfpt bool) []*Job {
	jobs := make([]*Job, 0, len(targets)*len(molecules)*len(omegas))
	for _, t := range targets {
		for _, mol := range molecules {
			for _, omega := range omegas {
				jobs = append(jobs, &Job{
					Key: model.ScanKey{
						Molecule:     mol.Name,
						Nanoparticle: t.Nanoparticle.Name,
						Shape:        shape,
						Radius:       t.Nanoparticle.InnerBound,
						Zeta:         t.Nanoparticle.Zeta,
						Omega:        omega,
						MFPT:         mfpt,
					},
					Molecule:     mol,
					Nanoparticle: t.Nanoparticle,
					Potential:    t.Potential,
				})
			}
		}
	}
	return jobs
}
