package circuit

import (
	"math"
	"testing"

	"github.com/edp1096/magnet-sim/pkg/control"
	"github.com/edp1096/magnet-sim/pkg/matrix"
	"github.com/edp1096/magnet-sim/pkg/table"
)

func newTestInductance(t *testing.T, values [][]float64, n int) *matrix.Inductance {
	t.Helper()
	m, err := matrix.NewInductance(values, n)
	if err != nil {
		t.Fatalf("building inductance matrix: %v", err)
	}
	return m
}

func TestFreeDecayDerivative(t *testing.T) {
	// No drive: L*dI/dt = -R*I, so dI/dt = -R*I/L = -0.001*10/0.001 = -10.
	l := newTestInductance(t, [][]float64{{0.001}}, 1)
	sys, err := New(1, l, []*table.Table{table.Constant(0.001)})
	if err != nil {
		t.Fatalf("building system: %v", err)
	}

	didt := make([]float64, 1)
	if err := sys.Derivative(0, []float64{10}, didt); err != nil {
		t.Fatalf("derivative: %v", err)
	}
	if math.Abs(didt[0]+10) > 1e-9 {
		t.Errorf("dI/dt = %v, want -10", didt[0])
	}
}

func TestResistanceUsesCurrentMagnitude(t *testing.T) {
	l := newTestInductance(t, [][]float64{{0.001}}, 1)
	tb, err := table.New([]float64{0, 100}, []float64{0.001, 0.011})
	if err != nil {
		t.Fatalf("building table: %v", err)
	}
	sys, err := New(1, l, []*table.Table{tb})
	if err != nil {
		t.Fatalf("building system: %v", err)
	}

	if got, want := sys.Resistance(0, -50), 0.006; math.Abs(got-want) > 1e-12 {
		t.Errorf("Resistance(0, -50) = %v, want %v", got, want)
	}
}

func TestSharedResistanceTable(t *testing.T) {
	l := newTestInductance(t, [][]float64{{0.001, 0}, {0, 0.001}}, 2)
	sys, err := New(2, l, []*table.Table{table.Constant(0.5)})
	if err != nil {
		t.Fatalf("shared resistance table should be accepted: %v", err)
	}
	if sys.Resistance(0, 1) != 0.5 || sys.Resistance(1, 1) != 0.5 {
		t.Error("both circuits should share the single table")
	}
}

func TestResistanceCardinality(t *testing.T) {
	l := newTestInductance(t, [][]float64{{0.001, 0}, {0, 0.001}}, 2)
	_, err := New(2, l, []*table.Table{table.Constant(1), table.Constant(1), table.Constant(1)})
	if err == nil {
		t.Error("expected error for 3 resistance tables on 2 circuits")
	}
}

func TestDriveExclusivity(t *testing.T) {
	l := newTestInductance(t, [][]float64{{0.001}}, 1)
	sys, err := New(1, l, []*table.Table{table.Constant(0.001)})
	if err != nil {
		t.Fatalf("building system: %v", err)
	}

	if err := sys.SetControllers([]*control.PID{control.NewFixedPID("PID1", 10)}); err != nil {
		t.Fatalf("setting controllers: %v", err)
	}
	if err := sys.SetVoltageSources([]*table.Table{table.Constant(1)}); err == nil {
		t.Error("expected error configuring voltages on top of controllers")
	}
}

func TestVoltageDrivenDerivative(t *testing.T) {
	// L*dI/dt = U - R*I with U = 2, R*I = 0.001*100 -> dI/dt = 1900.
	l := newTestInductance(t, [][]float64{{0.001}}, 1)
	sys, err := New(1, l, []*table.Table{table.Constant(0.001)})
	if err != nil {
		t.Fatalf("building system: %v", err)
	}
	if err := sys.SetVoltageSources([]*table.Table{table.Constant(2)}); err != nil {
		t.Fatalf("setting voltage sources: %v", err)
	}

	didt := make([]float64, 1)
	if err := sys.Derivative(0, []float64{100}, didt); err != nil {
		t.Fatalf("derivative: %v", err)
	}
	if math.Abs(didt[0]-1900) > 1e-6 {
		t.Errorf("dI/dt = %v, want 1900", didt[0])
	}
}

func TestCoupledDerivative(t *testing.T) {
	// Two identical circuits with mutual coupling and symmetric state decay
	// identically: L*dI/dt = -R*I with I = [10, 10].
	l := newTestInductance(t, [][]float64{{0.001, 0.0001}, {0.0001, 0.001}}, 2)
	sys, err := New(2, l, []*table.Table{table.Constant(0.001)})
	if err != nil {
		t.Fatalf("building system: %v", err)
	}

	didt := make([]float64, 2)
	if err := sys.Derivative(0, []float64{10, 10}, didt); err != nil {
		t.Fatalf("derivative: %v", err)
	}
	// (L_self + L_mutual) * di = -R*I -> di = -0.01/0.0011
	want := -0.01 / 0.0011
	for i := range didt {
		if math.Abs(didt[i]-want) > 1e-6 {
			t.Errorf("dI_%d/dt = %v, want %v", i, didt[i], want)
		}
	}
}
