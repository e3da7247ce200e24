package control

import (
	"math"

	"github.com/edp1096/magnet-sim/internal/consts"
)

// Current thresholds for the gain schedule (A).
const (
	lowCurrentLimit = 60
	midCurrentLimit = 800
)

// Gains returns the scheduled (Kp, Ki, Kd) for a measured current.
// The schedule switches on current magnitude only; t is accepted for
// future time-dependent schedules. The mid and high tiers carry the same
// gain set on purpose.
func Gains(measured, t float64) (kp, ki, kd float64) {
	switch {
	case measured <= lowCurrentLimit:
		return 5, 0.2, 0
	case measured <= midCurrentLimit:
		return 12, 1, 0
	default:
		return 12, 1, 0
	}
}

// PID is a controller with gains scheduled per call from the measured
// value. Compute must be called with non-decreasing time.
type PID struct {
	Kp, Ki, Kd float64

	name          string
	setpointFunc  func(t float64) float64
	fixedSetpoint float64
	hasLimits     bool
	outMin        float64
	outMax        float64
	startTime     float64

	prevError float64
	integral  float64
	prevTime  float64
	firstCall bool
	prevKi    float64
}

// NewPID builds a controller tracking a time-varying setpoint.
func NewPID(name string, setpoint func(t float64) float64) *PID {
	return &PID{
		name:         name,
		setpointFunc: setpoint,
		firstCall:    true,
	}
}

// NewFixedPID builds a controller tracking a constant setpoint.
func NewFixedPID(name string, setpoint float64) *PID {
	return &PID{
		name:          name,
		fixedSetpoint: setpoint,
		firstCall:     true,
	}
}

func (p *PID) Name() string { return p.name }

// SetOutputLimits clamps the controller output to [min, max].
func (p *PID) SetOutputLimits(min, max float64) {
	p.hasLimits = true
	p.outMin = min
	p.outMax = max
}

// SetStartTime seeds the previous-time state, also used as the Reset target.
func (p *PID) SetStartTime(t float64) {
	p.startTime = t
	p.prevTime = t
}

// Setpoint evaluates the setpoint source at time t.
func (p *PID) Setpoint(t float64) float64 {
	if p.setpointFunc != nil {
		return p.setpointFunc(t)
	}
	return p.fixedSetpoint
}

// Compute advances the controller by one step and returns the control
// output together with the setpoint used.
func (p *PID) Compute(processVariable, t float64) (output, setpoint float64) {
	setpoint = p.Setpoint(t)
	err := setpoint - processVariable

	var dt float64
	if p.firstCall {
		dt = consts.MinDt
	} else {
		dt = t - p.prevTime
		dt = math.Max(dt, consts.MinDt)
	}

	kp, ki, kd := Gains(processVariable, t)
	p.Kp = kp
	p.Ki = ki
	p.Kd = kd

	proportional := p.Kp * err

	// Rescale the accumulated integral when the schedule switches tiers so
	// the integral term does not jump with the new Ki. Ki == 0 skips the
	// rescale entirely.
	if math.Abs(ki-p.prevKi) > 0.01 && ki != 0 {
		p.integral = p.integral * p.prevKi / ki
	}

	p.integral += err * dt
	integralTerm := p.Ki * p.integral

	var derivativeTerm float64
	if p.firstCall {
		derivativeTerm = 0
		p.firstCall = false
	} else if dt > 0 {
		derivativeTerm = p.Kd * (err - p.prevError) / dt
	}

	output = proportional + integralTerm + derivativeTerm
	if p.hasLimits {
		output = math.Max(p.outMin, math.Min(output, p.outMax))
	}

	p.prevError = err
	p.prevTime = t
	p.prevKi = ki

	return output, setpoint
}

// Reset restores the control state to freshly constructed while keeping
// the setpoint source and output limits.
func (p *PID) Reset() {
	p.prevError = 0
	p.integral = 0
	p.prevTime = p.startTime
	p.firstCall = true
	p.prevKi = 0
}
