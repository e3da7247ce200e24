package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/edp1096/magnet-sim/internal/consts"
	"github.com/edp1096/magnet-sim/pkg/circuit"
	"github.com/edp1096/magnet-sim/pkg/control"
	"github.com/edp1096/magnet-sim/pkg/loader"
	"github.com/edp1096/magnet-sim/pkg/matrix"
	"github.com/edp1096/magnet-sim/pkg/solver"
	"github.com/edp1096/magnet-sim/pkg/table"
)

// Config describes one transient run.
type Config struct {
	N               int
	TStart, TEnd    float64
	InitialCurrents []float64 // nil means all zero
	Mode            Mode

	Inductance  [][]float64
	Resistances []*table.Table
	Drive       *loader.Profile // targets in ModePID, voltages in ModeVoltage
}

// Transient integrates the coupled circuit ODE over the configured span
// and reconstructs the reporting series from the accepted trajectory.
type Transient struct {
	cfg Config

	inductance *matrix.Inductance
	system     *circuit.System
	result     *Result
}

func NewTransient(cfg Config) *Transient {
	return &Transient{cfg: cfg}
}

// Setup validates the configuration and assembles the system. All
// configuration errors surface here, before integration starts.
func (tr *Transient) Setup() error {
	cfg := &tr.cfg

	if cfg.N < 1 {
		return fmt.Errorf("%w: circuit count must be at least 1, got %d", ErrConfiguration, cfg.N)
	}
	if cfg.TEnd <= cfg.TStart {
		return fmt.Errorf("%w: time span (%g, %g) is empty", ErrConfiguration, cfg.TStart, cfg.TEnd)
	}
	if cfg.InitialCurrents == nil {
		cfg.InitialCurrents = make([]float64, cfg.N)
	}
	if len(cfg.InitialCurrents) != cfg.N {
		return fmt.Errorf("%w: initial currents must have %d values, got %d", ErrConfiguration, cfg.N, len(cfg.InitialCurrents))
	}
	switch cfg.Mode {
	case ModePID, ModeVoltage:
		if cfg.Drive == nil {
			return fmt.Errorf("%w: mode %s requires a drive profile", ErrConfiguration, cfg.Mode)
		}
		if cfg.Drive.Circuits() != cfg.N {
			return fmt.Errorf("%w: drive profile has %d circuits, want %d", ErrConfiguration, cfg.Drive.Circuits(), cfg.N)
		}
	case ModeNone:
		// Valid for integration; rejected at result reporting.
	default:
		return fmt.Errorf("%w: unknown mode %s", ErrConfiguration, cfg.Mode)
	}

	inductance, err := matrix.NewInductance(cfg.Inductance, cfg.N)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	tr.inductance = inductance

	system, err := circuit.New(cfg.N, inductance, cfg.Resistances)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	switch cfg.Mode {
	case ModePID:
		controllers, err := tr.buildControllers()
		if err != nil {
			return err
		}
		if err := system.SetControllers(controllers); err != nil {
			return fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
	case ModeVoltage:
		tables, err := tr.cfg.Drive.Tables()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		if err := system.SetVoltageSources(tables); err != nil {
			return fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
	}

	tr.system = system
	return nil
}

// buildControllers makes one fresh controller per circuit from fresh
// setpoint tables. Used for the integration pass and again for the
// reconstruction pass, whose controllers must start from clean state.
func (tr *Transient) buildControllers() ([]*control.PID, error) {
	tables, err := tr.cfg.Drive.Tables()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	controllers := make([]*control.PID, tr.cfg.N)
	for i := range controllers {
		tb := tables[i]
		pid := control.NewPID(fmt.Sprintf("PID%d", i+1), tb.Evaluate)
		pid.SetOutputLimits(consts.OutputMin, consts.OutputMax)
		controllers[i] = pid
	}
	return controllers, nil
}

// Execute integrates the system and reconstructs the reporting series.
func (tr *Transient) Execute() error {
	if tr.system == nil {
		return fmt.Errorf("%w: analysis is not set up", ErrConfiguration)
	}

	points := tr.outputGrid()

	var derivErr error
	rhs := func(t float64, y, f []float64) {
		if derivErr != nil {
			for i := range f {
				f[i] = 0
			}
			return
		}
		if err := tr.system.Derivative(t, y, f); err != nil {
			derivErr = err
			for i := range f {
				f[i] = 0
			}
		}
	}

	states, err := solver.Integrate(rhs, tr.cfg.InitialCurrents, points, solver.Config{
		TryStep:  consts.MinDt,
		MaxStep:  consts.MaxStep,
		RelError: consts.RelTol,
		AbsError: consts.AbsTol,
	})
	if derivErr != nil {
		return fmt.Errorf("%w: %v", ErrIntegration, derivErr)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIntegration, err)
	}

	return tr.reconstruct(points, states)
}

// outputGrid spaces the reported samples uniformly at no more than the
// step cap, ending exactly at TEnd.
func (tr *Transient) outputGrid() []float64 {
	span := tr.cfg.TEnd - tr.cfg.TStart
	steps := int(math.Ceil(span / consts.MaxStep))
	if steps < 1 {
		steps = 1
	}

	points := make([]float64, steps+1)
	for i := 0; i <= steps; i++ {
		points[i] = tr.cfg.TStart + span*float64(i)/float64(steps)
	}
	points[steps] = tr.cfg.TEnd
	return points
}

// reconstruct replays the drive over the accepted trajectory to recover a
// causally ordered voltage/setpoint log, one evaluation per sample, and
// derives resistances and inductive voltages.
func (tr *Transient) reconstruct(times []float64, states [][]float64) error {
	n := tr.cfg.N

	currents := make([][]float64, n)
	for i := 0; i < n; i++ {
		currents[i] = make([]float64, len(times))
		for j := range times {
			currents[i][j] = states[j][i]
		}
	}

	total := make([]float64, len(times))
	for i := 0; i < n; i++ {
		floats.Add(total, currents[i])
	}

	result := &Result{
		Times:        times,
		Currents:     currents,
		TotalCurrent: total,
		Mode:         tr.cfg.Mode,
		N:            n,
		Inductance:   tr.inductance.Values(),
	}
	if tr.cfg.Drive != nil {
		result.ProfileTimes = tr.cfg.Drive.Times
		result.ProfileValues = tr.cfg.Drive.Values
	}

	result.Resistances = make([][]float64, n)
	for i := 0; i < n; i++ {
		result.Resistances[i] = make([]float64, len(times))
		for j := range times {
			result.Resistances[i][j] = tr.system.Resistance(i, currents[i][j])
		}
	}

	result.InductiveVoltages = tr.inductiveVoltages(times, currents)

	switch tr.cfg.Mode {
	case ModePID:
		// The integration-pass controllers advanced once per derivative
		// evaluation and are out of sync with the accepted trajectory.
		// Replay fresh ones over the accepted samples only.
		controllers, err := tr.buildControllers()
		if err != nil {
			return err
		}

		result.Voltages = make([][]float64, n)
		result.Setpoints = make([][]float64, n)
		for i := 0; i < n; i++ {
			result.Voltages[i] = make([]float64, len(times))
			result.Setpoints[i] = make([]float64, len(times))
			for j, t := range times {
				v, sp := controllers[i].Compute(currents[i][j], t)
				result.Voltages[i][j] = v
				result.Setpoints[i][j] = sp
			}
		}

		result.TotalSetpoint = make([]float64, len(times))
		for i := 0; i < n; i++ {
			floats.Add(result.TotalSetpoint, result.Setpoints[i])
		}

	case ModeVoltage:
		tables, err := tr.cfg.Drive.Tables()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfiguration, err)
		}

		result.Voltages = make([][]float64, n)
		for i := 0; i < n; i++ {
			result.Voltages[i] = make([]float64, len(times))
			for j, t := range times {
				result.Voltages[i][j] = tables[i].Evaluate(t)
			}
		}

	default:
		return fmt.Errorf("%w: mode %s cannot produce a result bundle", ErrUnsupportedMode, tr.cfg.Mode)
	}

	tr.result = result
	return nil
}

// inductiveVoltages approximates sum_k L[i][k]*dI_k/dt per sample with a
// backward difference, zero at the first sample.
func (tr *Transient) inductiveVoltages(times []float64, currents [][]float64) [][]float64 {
	n := tr.cfg.N

	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = make([]float64, len(times))
		for j := 1; j < len(times); j++ {
			dt := times[j] - times[j-1]
			var v float64
			for k := 0; k < n; k++ {
				didt := (currents[k][j] - currents[k][j-1]) / dt
				v += tr.inductance.At(i, k) * didt
			}
			out[i][j] = v
		}
	}
	return out
}

// Result returns the bundle produced by Execute, nil before a successful
// run.
func (tr *Transient) Result() *Result {
	return tr.result
}
