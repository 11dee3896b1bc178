package chromatogram

import (
	"errors"
	"testing"

	"github.com/ChrisMcGann/RawInspect/pkg/core"
	"github.com/ChrisMcGann/RawInspect/pkg/store"
	"github.com/ChrisMcGann/RawInspect/pkg/store/memory"
)

func testStore() *memory.Store {
	return memory.New(memory.Run{
		Scans: []memory.Scan{
			memory.CentroidScan(1, 0.10, []float64{100, 200}, []float64{10, 4}),
			memory.CentroidScan(2, 0.20, []float64{100, 200, 300}, []float64{50, 6, 2}),
			memory.CentroidScan(3, 0.30, []float64{150, 200}, []float64{20, 1}),
		},
		Analog: [][]memory.AnalogSample{{
			{Scan: 2, Time: 0.2, Value: 3},
			{Scan: 1, Time: 0.1, Value: 1},
		}},
	})
}

func TestBasePeakChromatogram(t *testing.T) {
	e := New(testStore(), nil)

	points, failures, err := e.Extract(store.TraceSpec{Type: store.TraceBasePeak}, 1, 3)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if failures.Count != 0 {
		t.Errorf("Expected no failures, got %d", failures.Count)
	}

	want := []core.ChromatogramPoint{{Time: 0.10, Intensity: 10}, {Time: 0.20, Intensity: 50}, {Time: 0.30, Intensity: 20}}
	if len(points) != len(want) {
		t.Fatalf("Expected %d points, got %d", len(want), len(points))
	}
	for i := range want {
		if points[i] != want[i] {
			t.Errorf("Point %d: expected %+v, got %+v", i, want[i], points[i])
		}
		if i > 0 && points[i].Time <= points[i-1].Time {
			t.Errorf("Point %d: time not increasing", i)
		}
	}
}

func TestEmptyRange(t *testing.T) {
	e := New(testStore(), nil)

	points, failures, err := e.Extract(store.TraceSpec{Type: store.TraceBasePeak}, 3, 1)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("Expected no points, got %d", len(points))
	}
	if failures.Count != 0 {
		t.Errorf("Expected no failures, got %d", failures.Count)
	}
}

func TestTICAndMassRange(t *testing.T) {
	e := New(testStore(), nil)

	tic, _, err := e.Extract(store.TraceSpec{Type: store.TraceTIC}, 1, 3)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if tic[1].Intensity != 58 {
		t.Errorf("Expected TIC 58 for scan 2, got %v", tic[1].Intensity)
	}

	xic, _, err := e.Extract(store.TraceSpec{Type: store.TraceMassRange, MassRange: &core.MassRange{Low: 190, High: 210}}, 1, 3)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	got := []float64{xic[0].Intensity, xic[1].Intensity, xic[2].Intensity}
	if got[0] != 4 || got[1] != 6 || got[2] != 1 {
		t.Errorf("Expected XIC [4 6 1], got %v", got)
	}

	if _, _, err := e.Extract(store.TraceSpec{Type: store.TraceMassRange}, 1, 3); !errors.Is(err, core.ErrInvalidOptions) {
		t.Errorf("Expected ErrInvalidOptions without a mass range, got %v", err)
	}
}

func TestUnreadableScansAreSkipped(t *testing.T) {
	s := testStore()
	s.Run().Scans[1].Corrupt = true
	e := New(s, nil)

	points, failures, err := e.Extract(store.TraceSpec{Type: store.TraceBasePeak}, 1, 3)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(points) != 2 || failures.Count != 1 {
		t.Errorf("Expected 2 points and 1 failure, got %d and %d", len(points), failures.Count)
	}
}

func TestDeviceTraces(t *testing.T) {
	s := testStore()
	e := New(s, nil)

	if _, _, err := e.Extract(store.TraceSpec{Type: store.TraceAnalog}, 1, 3); !errors.Is(err, core.ErrNoData) {
		t.Errorf("Expected ErrNoData for analog trace on MS device, got %v", err)
	}

	if err := s.SelectChannel(store.DeviceAnalog, 0); err != nil {
		t.Fatalf("SelectChannel failed: %v", err)
	}
	points, _, err := e.Extract(store.TraceSpec{Type: store.TraceAnalog}, 1, 3)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(points) != 2 || points[0].Time != 0.1 || points[1].Intensity != 3 {
		t.Errorf("Unexpected analog trace %+v", points)
	}

	if _, _, err := e.Extract(store.TraceSpec{Type: store.TraceTIC}, 1, 3); !errors.Is(err, core.ErrNoData) {
		t.Errorf("Expected ErrNoData for TIC on analog device, got %v", err)
	}
}

func TestParseTraceType(t *testing.T) {
	if tt, err := ParseTraceType("BasePeak"); err != nil || tt != store.TraceBasePeak {
		t.Errorf("Expected BasePeak, got %v (%v)", tt, err)
	}
	if _, err := ParseTraceType("bogus"); err == nil {
		t.Error("Expected error for unknown trace type")
	}
}
