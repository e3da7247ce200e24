package consts

const (
	RelTol  = 1e-6 // integration relative tolerance
	AbsTol  = 1e-9 // integration absolute tolerance
	MaxStep = 0.01 // step cap (s); the PID discretization needs fine resolution
	MinDt   = 1e-3 // smallest dt the controllers divide by

	// Drive capability is asymmetric: large positive swing, small negative floor.
	OutputMin = -100.0
	OutputMax = 100000.0
)
