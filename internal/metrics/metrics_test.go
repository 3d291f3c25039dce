package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// counterValue returns the summed value of a counter family by name.
func counterValue(t *testing.T, r *Recorder, name string) float64 {
	t.Helper()

	families, err := r.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

// TestRecorder_Counters tests that observations reach the collectors.
func TestRecorder_Counters(t *testing.T) {
	t.Parallel()

	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				r.ObserveBin()
			}
		}()
	}
	wg.Wait()
	r.ObserveDegenerate()
	r.ObserveNonFinite()
	r.ObserveNonFinite()
	r.ScanSkipped()
	r.ScanCompleted("sphere", 2*time.Second)
	r.ScanCompleted("cylinder", time.Second)

	tests := []struct {
		name string
		want float64
	}{
		{name: "unitedatom_bins_computed_total", want: 800},
		{name: "unitedatom_degenerate_integrals_total", want: 1},
		{name: "unitedatom_nonfinite_potentials_total", want: 2},
		{name: "unitedatom_scans_skipped_total", want: 1},
		{name: "unitedatom_scans_completed_total", want: 2},
	}
	for _, tt := range tests {
		if got := counterValue(t, r, tt.name); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// TestRecorder_WriteTextfile tests the textfile export.
func TestRecorder_WriteTextfile(t *testing.T) {
	t.Parallel()

	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	r.ScanCompleted("cube", 90*time.Second)

	path := filepath.Join(t.TempDir(), "unitedatom.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read metrics file: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`unitedatom_scans_completed_total{shape="cube"} 1`,
		`unitedatom_scan_duration_seconds_count{shape="cube"} 1`,
		"# TYPE unitedatom_bins_computed_total counter",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics file missing %q", want)
		}
	}
}

// TestRecorder_WriteTextfileError tests that an unwritable path fails.
func TestRecorder_WriteTextfileError(t *testing.T) {
	t.Parallel()

	r, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "missing", "dir", "unitedatom.prom")
	if err := r.WriteTextfile(path); err == nil {
		t.Error("expected error for missing directory")
	}
}
