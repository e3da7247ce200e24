package solver

import (
	"fmt"

	"github.com/ready-steady/ode/dopri"
)

// Derivative is the ODE right-hand side in the integrator's calling
// convention: write dy/dt at (t, y) into f.
type Derivative func(t float64, y, f []float64)

// Config carries the adaptive step control settings.
type Config struct {
	TryStep  float64 // initial step size
	MaxStep  float64 // step size cap
	RelError float64
	AbsError float64
}

// Integrate solves y' = f(t, y) from y(points[0]) = initial with the
// adaptive Dormand-Prince (RK45) method and returns the state at each of
// the requested points. points must be strictly increasing.
func Integrate(f Derivative, initial []float64, points []float64, cfg Config) ([][]float64, error) {
	if len(initial) == 0 {
		return nil, fmt.Errorf("integration requires a non-empty initial state")
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("integration requires at least 2 output points, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i] <= points[i-1] {
			return nil, fmt.Errorf("output points must be strictly increasing at index %d", i)
		}
	}

	integrator, err := dopri.New(&dopri.Config{
		TryStep:  cfg.TryStep,
		MaxStep:  cfg.MaxStep,
		RelError: cfg.RelError,
		AbsError: cfg.AbsError,
	})
	if err != nil {
		return nil, fmt.Errorf("integrator setup failed: %v", err)
	}

	values, _, err := integrator.Compute(f, initial, points)
	if err != nil {
		return nil, fmt.Errorf("integration failed: %v", err)
	}

	nd := len(initial)
	states := make([][]float64, len(points))
	for i := range points {
		states[i] = values[i*nd : (i+1)*nd]
	}
	return states, nil
}
