package analysis

import (
	"errors"
	"fmt"
)

// Error categories surfaced by a run. Configuration problems are caught
// before any integration work; numerical warnings never become errors.
var (
	ErrConfiguration   = errors.New("invalid configuration")
	ErrUnsupportedMode = errors.New("unsupported control mode")
	ErrIntegration     = errors.New("integration failed")
)

// Mode selects how the circuits are driven.
type Mode int

const (
	ModeVoltage Mode = iota // open loop, applied voltage profiles
	ModePID                 // closed loop, per-circuit current tracking
	ModeNone                // free response, zero applied voltage
)

func (m Mode) String() string {
	switch m {
	case ModeVoltage:
		return "voltage"
	case ModePID:
		return "pid"
	case ModeNone:
		return "none"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a mode flag value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "voltage":
		return ModeVoltage, nil
	case "pid":
		return ModePID, nil
	case "none":
		return ModeNone, nil
	default:
		return 0, fmt.Errorf("%w: control mode must be 'pid', 'voltage', or 'none', got %q", ErrConfiguration, s)
	}
}

// Analysis is one simulation pass over a configured system.
type Analysis interface {
	Setup() error
	Execute() error
	Result() *Result
}

// Result is the full derived record of one transient run. All per-circuit
// series are indexed [circuit][sample] and share Times.
type Result struct {
	Times        []float64
	Currents     [][]float64
	TotalCurrent []float64

	Voltages          [][]float64
	InductiveVoltages [][]float64
	Resistances       [][]float64

	// Setpoint series are present in ModePID only.
	Setpoints     [][]float64
	TotalSetpoint []float64

	// Raw drive profile samples as loaded.
	ProfileTimes  []float64
	ProfileValues [][]float64

	Mode       Mode
	N          int
	Inductance [][]float64
}
