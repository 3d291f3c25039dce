package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nao1215/unitedatom/internal/integrate"
	"github.com/nao1215/unitedatom/internal/model"
	"github.com/nao1215/unitedatom/internal/orient"
	"github.com/nao1215/unitedatom/internal/profile"
)

// ErrNoSamples is returned when a scan is configured with zero samples.
var ErrNoSamples = errors.New("at least one sample per bin is required")

// ProfileSink receives the canonical profile of every bin when profile
// saving is enabled. phiDeg and thetaDeg are the bin's left-hand edges.
type ProfileSink interface {
	SaveProfile(key model.ScanKey, phiDeg, thetaDeg int, p profile.Profile) error
}

// Observer is notified of scan progress. Implementations must be safe for
// concurrent use.
type Observer interface {
	// ObserveBin is called once per completed bin.
	ObserveBin()

	// ObserveDegenerate is called for every degenerate free-energy integral.
	ObserveDegenerate()
}

type nopObserver struct{}

func (nopObserver) ObserveBin()        {}
func (nopObserver) ObserveDegenerate() {}

// Options configures a Scanner.
type Options struct {
	Bins        orient.Bins
	Samples     int
	Temperature float64
	Profile     profile.Options

	// SaveProfiles writes the canonical profile of each bin to Sink.
	SaveProfiles bool
	Sink         ProfileSink

	Observer Observer
}

// Scanner computes the orientation grid for one molecule, nanoparticle and
// scan key. The scanner itself holds no per-task state; each call to
// ScanRange builds its own sampler and profile builder.
type Scanner struct {
	mol    *model.Molecule
	np     *model.Nanoparticle
	pot    profile.Potential
	key    model.ScanKey
	opts   Options
	logger *slog.Logger
}

// NewScanner validates the options and returns a Scanner.
func NewScanner(mol *model.Molecule, np *model.Nanoparticle, pot profile.Potential, key model.ScanKey, opts Options, logger *slog.Logger) (*Scanner, error) {
	if opts.Samples < 1 {
		return nil, ErrNoSamples
	}
	if opts.Bins.Count() == 0 {
		return nil, orient.ErrInvalidDelta
	}
	if opts.SaveProfiles && opts.Sink == nil {
		return nil, errors.New("profile saving requires a sink")
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts.Profile.Radius = key.Radius
	opts.Profile.Shape = key.Shape
	return &Scanner{
		mol:    mol,
		np:     np,
		pot:    pot,
		key:    key,
		opts:   opts,
		logger: logger.With("molecule", key.Molecule, "np", key.Nanoparticle),
	}, nil
}

// Key returns the key of the grid this scanner produces.
func (s *Scanner) Key() model.ScanKey { return s.key }

// Bins returns the bin grid being scanned.
func (s *Scanner) Bins() orient.Bins { return s.opts.Bins }

// ScanRange computes bins [offset, offset+len(out)) into out using rng for
// the stochastic samples. Cancellation is checked between bins.
func (s *Scanner) ScanRange(ctx context.Context, offset int, out []model.BinResult, rng *rand.Rand) error {
	builder, err := profile.NewBuilder(s.mol, s.np, s.pot, s.opts.Profile, s.logger)
	if err != nil {
		return fmt.Errorf("create profile builder: %w", err)
	}
	sampler := orient.NewSampler(s.opts.Bins, s.mol.Positions(), s.key.OmegaRadians(), rng)
	integ := integrate.New(s.key.Shape, s.opts.Temperature, s.logger)

	n := s.opts.Samples
	pos := make([]r3.Vec, sampler.Len())
	energy := make([]float64, n)
	mfpt := make([]float64, n)
	minloc := make([]float64, n)
	contacts := make([]float64, n)

	for b := range out {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		bin := offset + b
		for sample := 0; sample <= n; sample++ {
			canonical := sample == n
			p := builder.Build(sampler.Sample(pos, bin, canonical))

			if canonical {
				if s.opts.SaveProfiles {
					phi, theta := int(s.opts.Bins.PhiDeg(bin)), int(s.opts.Bins.ThetaDeg(bin))
					if err := s.opts.Sink.SaveProfile(s.key, phi, theta, p); err != nil {
						return fmt.Errorf("save profile for bin %d: %w", bin, err)
					}
				}
				continue
			}

			minloc[sample] = p.MinLocation - s.key.Radius
			contacts[sample] = float64(p.Contacts)

			r := integ.FreeEnergy(p)
			if r.Degenerate {
				s.opts.Observer.ObserveDegenerate()
			}
			energy[sample] = r.Value
			mfpt[sample] = integ.MFPT(p, s.key.MFPT)
		}

		res := &out[b]
		res.Phi = s.opts.Bins.PhiDeg(bin)
		res.Theta = s.opts.Bins.ThetaDeg(bin)
		res.FreeEnergy, res.FreeEnergySD = MeanSD(energy)
		res.MFPT, res.MFPTSD = MeanSD(mfpt)
		res.MinLocation, res.MinLocationSD = MeanSD(minloc)
		res.Contacts, res.ContactsSD = MeanSD(contacts)
		s.opts.Observer.ObserveBin()
	}
	return nil
}
