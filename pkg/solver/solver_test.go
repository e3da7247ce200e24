package solver

import (
	"math"
	"testing"
)

var testConfig = Config{
	TryStep:  1e-3,
	MaxStep:  0.01,
	RelError: 1e-6,
	AbsError: 1e-9,
}

func TestIntegrateExponentialDecay(t *testing.T) {
	// y' = -y, y(0) = 1 has the solution exp(-t).
	f := func(t float64, y, dy []float64) {
		dy[0] = -y[0]
	}

	points := []float64{0, 0.5, 1, 2}
	states, err := Integrate(f, []float64{1}, points, testConfig)
	if err != nil {
		t.Fatalf("integrating: %v", err)
	}
	if len(states) != len(points) {
		t.Fatalf("got %d states, want %d", len(states), len(points))
	}
	for i, pt := range points {
		want := math.Exp(-pt)
		if math.Abs(states[i][0]-want) > 1e-5 {
			t.Errorf("y(%g) = %v, want %v", pt, states[i][0], want)
		}
	}
}

func TestIntegrateHarmonicOscillator(t *testing.T) {
	// y'' = -y as a 2-D system; y(0)=1, y'(0)=0 gives cos(t).
	f := func(t float64, y, dy []float64) {
		dy[0] = y[1]
		dy[1] = -y[0]
	}

	points := []float64{0, math.Pi / 2, math.Pi}
	states, err := Integrate(f, []float64{1, 0}, points, testConfig)
	if err != nil {
		t.Fatalf("integrating: %v", err)
	}
	if math.Abs(states[1][0]) > 1e-4 {
		t.Errorf("y(pi/2) = %v, want 0", states[1][0])
	}
	if math.Abs(states[2][0]+1) > 1e-4 {
		t.Errorf("y(pi) = %v, want -1", states[2][0])
	}
}

func TestIntegrateValidation(t *testing.T) {
	f := func(t float64, y, dy []float64) { dy[0] = 0 }

	if _, err := Integrate(f, nil, []float64{0, 1}, testConfig); err == nil {
		t.Error("expected error for empty initial state")
	}
	if _, err := Integrate(f, []float64{1}, []float64{0}, testConfig); err == nil {
		t.Error("expected error for a single output point")
	}
	if _, err := Integrate(f, []float64{1}, []float64{0, 1, 1}, testConfig); err == nil {
		t.Error("expected error for non-increasing points")
	}
}
