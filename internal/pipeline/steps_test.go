package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/unitedatom/internal/database"
	"github.com/nao1215/unitedatom/internal/geometry"
	"github.com/nao1215/unitedatom/internal/model"
	"github.com/nao1215/unitedatom/internal/orient"
	"github.com/nao1215/unitedatom/internal/output"
	"github.com/nao1215/unitedatom/internal/profile"
	"github.com/nao1215/unitedatom/internal/scan"
	"github.com/nao1215/unitedatom/internal/summary"
)

type fakeLedger struct {
	mu      sync.Mutex
	records []database.ScanRecord
	err     error
}

func (f *fakeLedger) Record(_ context.Context, rec *database.ScanRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.records = append(f.records, *rec)
	return int64(len(f.records)), nil
}

type fakeMetrics struct {
	mu        sync.Mutex
	completed map[string]int
	skipped   int
}

func (f *fakeMetrics) ScanCompleted(shape string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed == nil {
		f.completed = make(map[string]int)
	}
	f.completed[shape]++
}

func (f *fakeMetrics) ScanSkipped() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skipped++
}

func scanJob(t *testing.T, name string) *Job {
	t.Helper()

	np := &model.Nanoparticle{
		Name:       "np1R_5_ZP_0",
		Beads:      []model.NPBead{{Type: 0}},
		Types:      []model.NPBeadType{{Shape: geometry.ShapeSphere, Radius: 5}},
		InnerBound: 5,
		OuterBound: 5,
		Isotropic:  true,
	}
	mol := &model.Molecule{Name: name, Beads: []model.Bead{{Occupancy: 1}}}
	pot := profile.PotentialFunc(func(_, _ int, d float64) float64 { return d })
	return Plan([]Target{{Nanoparticle: np, Potential: pot}}, []*model.Molecule{mol}, []float64{0}, geometry.ShapeSphere, false)[0]
}

func scanOptions(t *testing.T) scan.Options {
	t.Helper()

	bins, err := orient.NewBins(60)
	if err != nil {
		t.Fatal(err)
	}
	return scan.Options{
		Bins:        bins,
		Samples:     2,
		Temperature: 300,
		Profile:     profile.Options{Steps: 4, Margin: 2},
	}
}

func testConfig(t *testing.T, dir string) Config {
	t.Helper()

	return Config{
		Store:       output.NewWriter(dir),
		Dispatcher:  scan.NewDispatcher(scan.WithWorkers(2), scan.WithSeed(1)),
		ScanOptions: scanOptions(t),
		RunID:       "run-1",
		Fingerprint: "abc",
	}
}

// TestCheckpointStep tests skipping of keys whose grid already exists.
func TestCheckpointStep(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := output.NewWriter(dir)
	metrics := &fakeMetrics{}
	step := NewCheckpointStep(store, metrics)

	job := scanJob(t, "mol")
	if err := step.Do(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	if job.Skipped {
		t.Fatal("job skipped before any grid exists")
	}

	g := &model.Grid{Key: job.Key, Delta: 60}
	if _, err := store.WriteGrid(g); err != nil {
		t.Fatal(err)
	}

	job = scanJob(t, "mol")
	if err := step.Do(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	if !job.Skipped {
		t.Error("job not skipped after grid was written")
	}
	if job.Path != store.GridPath(job.Key) {
		t.Errorf("Path = %q, want %q", job.Path, store.GridPath(job.Key))
	}
	if metrics.skipped != 1 {
		t.Errorf("skipped = %d, want 1", metrics.skipped)
	}
}

// TestGridStepsRequireGrid tests the steps that cannot run without a grid.
func TestGridStepsRequireGrid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		step Step
	}{
		{name: "write", step: NewWriteStep(output.NewWriter(t.TempDir()))},
		{name: "summary", step: NewSummaryStep()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.step.Do(context.Background(), testJob())
			if !errors.Is(err, ErrNoGrid) {
				t.Errorf("Do() error = %v, want ErrNoGrid", err)
			}
		})
	}
}

// TestLedgerStep tests the record built from a finished job.
func TestLedgerStep(t *testing.T) {
	t.Parallel()

	t.Run("records job", func(t *testing.T) {
		t.Parallel()

		ledger := &fakeLedger{}
		job := scanJob(t, "mol")
		job.Grid = &model.Grid{Key: job.Key, Delta: 60, Bins: []model.BinResult{{Theta: 60, FreeEnergy: -2}}}
		job.Path = "/tmp/mol.uam"
		job.Elapsed = 3 * time.Second
		if err := NewSummaryStep().Do(context.Background(), job); err != nil {
			t.Fatal(err)
		}

		if err := NewLedgerStep(ledger, "run-1", "abc").Do(context.Background(), job); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if len(ledger.records) != 1 {
			t.Fatalf("records = %d, want 1", len(ledger.records))
		}
		rec := ledger.records[0]
		if rec.RunID != "run-1" || rec.Fingerprint != "abc" || rec.Molecule != "mol" || rec.Shape != "sphere" {
			t.Errorf("unexpected record %+v", rec)
		}
		if rec.OutputPath != job.Path || rec.Elapsed != job.Elapsed || rec.BoltzmannAverage != job.Stats.Boltzmann {
			t.Errorf("record does not carry job results: %+v", rec)
		}
	})

	t.Run("requires stats", func(t *testing.T) {
		t.Parallel()

		if err := NewLedgerStep(&fakeLedger{}, "r", "f").Do(context.Background(), testJob()); err == nil {
			t.Error("expected error without stats")
		}
	})

	t.Run("wraps ledger error", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("disk full")
		job := testJob()
		job.Stats = &summary.Stats{}
		err := NewLedgerStep(&fakeLedger{err: boom}, "r", "f").Do(context.Background(), job)
		if !errors.Is(err, boom) {
			t.Errorf("Do() error = %v, want %v", err, boom)
		}
	})
}

// TestDefaultPipeline tests the assembled pipeline end to end on a single
// bead, and that a second run is served from the checkpoint.
func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	t.Run("step names", func(t *testing.T) {
		t.Parallel()

		cfg := testConfig(t, t.TempDir())
		if got := DefaultPipeline(cfg).StepNames(); len(got) != 4 {
			t.Errorf("StepNames() = %v, want 4 steps", got)
		}

		cfg.Ledger = &fakeLedger{}
		cfg.Metrics = &fakeMetrics{}
		want := []string{"checkpoint", "scan", "write", "summary", "ledger", "metrics"}
		got := DefaultPipeline(cfg).StepNames()
		if len(got) != len(want) {
			t.Fatalf("StepNames() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("StepNames()[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("scans then skips", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ledger := &fakeLedger{}
		metrics := &fakeMetrics{}
		cfg := testConfig(t, dir)
		cfg.Ledger = ledger
		cfg.Metrics = metrics

		job := scanJob(t, "mol")
		if err := DefaultPipeline(cfg).Execute(context.Background(), job); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if job.Skipped || job.Grid == nil || job.Stats == nil {
			t.Fatalf("job not scanned: %+v", job)
		}
		if len(job.Grid.Bins) != 18 || job.Stats.Bins != 18 {
			t.Errorf("bins = %d, stats bins = %d, want 18", len(job.Grid.Bins), job.Stats.Bins)
		}
		if _, err := output.ReadGrid(job.Path); err != nil {
			t.Errorf("ReadGrid(%q) error = %v", job.Path, err)
		}

		again := scanJob(t, "mol")
		if err := DefaultPipeline(cfg).Execute(context.Background(), again); err != nil {
			t.Fatalf("second Execute() error = %v", err)
		}
		if !again.Skipped || again.Grid != nil {
			t.Error("second run should be skipped without scanning")
		}
		if len(ledger.records) != 1 {
			t.Errorf("ledger records = %d, want 1", len(ledger.records))
		}
		if metrics.completed["sphere"] != 1 || metrics.skipped != 1 {
			t.Errorf("metrics = %+v", metrics)
		}
	})
}
