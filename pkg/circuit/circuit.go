package circuit

import (
	"fmt"
	"math"

	"github.com/edp1096/magnet-sim/pkg/control"
	"github.com/edp1096/magnet-sim/pkg/matrix"
	"github.com/edp1096/magnet-sim/pkg/table"
)

// System is the coupled RL circuit model
//
//	U_i = R_i(I_i)*I_i + sum_j L[i][j]*dI_j/dt
//
// rearranged for integration as L * dI/dt = U - R(I)*I. The applied
// voltages U come from per-circuit PID controllers, from voltage tables,
// or are zero (free response). At most one drive may be configured.
type System struct {
	n           int
	inductance  *matrix.Inductance
	resistances []*table.Table // one shared or one per circuit
	controllers []*control.PID
	voltages    []*table.Table

	// scratch vectors reused across derivative evaluations
	netVoltage []float64
}

// New builds a system with its resistance set. The resistance set must
// contain exactly one table (shared) or one table per circuit.
func New(n int, inductance *matrix.Inductance, resistances []*table.Table) (*System, error) {
	if n < 1 {
		return nil, fmt.Errorf("system requires at least 1 circuit, got %d", n)
	}
	if inductance == nil || inductance.Size() != n {
		return nil, fmt.Errorf("inductance matrix must be %dx%d", n, n)
	}
	if len(resistances) != 1 && len(resistances) != n {
		return nil, fmt.Errorf("resistance tables must have 1 or %d entries, got %d", n, len(resistances))
	}
	return &System{
		n:           n,
		inductance:  inductance,
		resistances: resistances,
		netVoltage:  make([]float64, n),
	}, nil
}

// SetControllers configures closed-loop current tracking, one controller
// per circuit.
func (s *System) SetControllers(controllers []*control.PID) error {
	if len(controllers) != s.n {
		return fmt.Errorf("controllers must have %d entries, got %d", s.n, len(controllers))
	}
	if s.voltages != nil {
		return fmt.Errorf("system already has voltage sources configured")
	}
	s.controllers = controllers
	return nil
}

// SetVoltageSources configures open-loop voltage drive, one table per
// circuit.
func (s *System) SetVoltageSources(voltages []*table.Table) error {
	if len(voltages) != s.n {
		return fmt.Errorf("voltage tables must have %d entries, got %d", s.n, len(voltages))
	}
	if s.controllers != nil {
		return fmt.Errorf("system already has controllers configured")
	}
	s.voltages = voltages
	return nil
}

func (s *System) Size() int { return s.n }

func (s *System) Inductance() *matrix.Inductance { return s.inductance }

// Resistance evaluates circuit i's resistance at the given current.
func (s *System) Resistance(i int, current float64) float64 {
	if len(s.resistances) == 1 {
		return s.resistances[0].Evaluate(math.Abs(current))
	}
	return s.resistances[i].Evaluate(math.Abs(current))
}

// Derivative writes dI/dt at (t, currents) into didt. When controllers
// are configured each call advances their state, so the integrator must
// evaluate in non-decreasing time order.
func (s *System) Derivative(t float64, currents, didt []float64) error {
	if len(currents) != s.n || len(didt) != s.n {
		return fmt.Errorf("current vectors must have length %d", s.n)
	}

	for i := 0; i < s.n; i++ {
		resistiveDrop := s.Resistance(i, currents[i]) * currents[i]

		var applied float64
		switch {
		case s.controllers != nil:
			applied, _ = s.controllers[i].Compute(currents[i], t)
		case s.voltages != nil:
			applied = s.voltages[i].Evaluate(t)
		}

		s.netVoltage[i] = applied - resistiveDrop
	}

	return s.inductance.Solve(s.netVoltage, didt)
}
