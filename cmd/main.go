package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/edp1096/magnet-sim/pkg/analysis"
	"github.com/edp1096/magnet-sim/pkg/loader"
	"github.com/edp1096/magnet-sim/pkg/output"
	"github.com/edp1096/magnet-sim/pkg/plot"
	"github.com/edp1096/magnet-sim/pkg/util"
)

var (
	tStart     = flag.Float64("start", 0, "simulation start time (s)")
	tEnd       = flag.Float64("end", 130, "simulation end time (s)")
	nCircuits  = flag.Int("n", 1, "number of circuits")
	resistance = flag.String("resistance", "resistance_circuit.csv", "comma separated resistance CSV files (1 shared or one per circuit)")
	inductance = flag.String("inductance", "inductance_matrix.csv", "inductance matrix CSV file")
	inputs     = flag.String("inputs", "inputs_circuits_voltages.csv", "drive profile CSV file (targets or voltages)")
	expected   = flag.String("expected", "expected_circuits_currents.csv", "recorded data CSV file for comparison")
	modeFlag   = flag.String("mode", "voltage", "control mode: voltage or pid")
	inputDir   = flag.String("dir", ".", "directory holding the input files")
	outputDir  = flag.String("out", ".", "directory for result files")
	savePlots  = flag.Bool("save", false, "save result plots as PNG")
	verbose    = flag.Bool("verbose", false, "verbose output")
)

func profileKind(mode analysis.Mode) loader.Kind {
	if mode == analysis.ModePID {
		return loader.KindCurrent
	}
	return loader.KindVoltage
}

// initialCurrents seeds the run: a tracking run starts on its target
// profile, a voltage run starts from the recorded currents when a
// recording exists, otherwise from zero.
func initialCurrents(mode analysis.Mode, drive *loader.Profile, n int) ([]float64, error) {
	if mode == analysis.ModePID {
		tables, err := drive.Tables()
		if err != nil {
			return nil, err
		}
		currents := make([]float64, n)
		for i := range tables {
			currents[i] = tables[i].Evaluate(*tStart)
		}
		return currents, nil
	}

	if _, err := os.Stat(*expected); err == nil {
		recorded, err := loader.LoadReferenceProfile(*expected, n, loader.KindVoltage)
		if err != nil {
			return nil, err
		}
		return recorded.NearestSample(*tStart), nil
	}
	return make([]float64, n), nil
}

func printSummary(res *analysis.Result) {
	last := len(res.Times) - 1
	fmt.Printf("\nSimulation finished: %d samples over (%g, %g) s\n", len(res.Times), res.Times[0], res.Times[last])
	fmt.Println("Final state:")
	for i := range res.Currents {
		fmt.Printf("  I%d = %-12s R%d = %-12s U%d = %s\n",
			i+1, util.FormatValueFactor(res.Currents[i][last], "A"),
			i+1, util.FormatValueFactor(res.Resistances[i][last], "Ohm"),
			i+1, util.FormatValueFactor(res.Voltages[i][last], "V"))
	}
	fmt.Printf("  I total = %s\n", util.FormatValueFactor(res.TotalCurrent[last], "A"))
}

func run() error {
	mode, err := analysis.ParseMode(*modeFlag)
	if err != nil {
		return err
	}
	if mode == analysis.ModeNone {
		return fmt.Errorf("mode none is not runnable from the command line, use voltage or pid")
	}

	if *inputDir != "." {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		if err := os.Chdir(*inputDir); err != nil {
			return fmt.Errorf("input directory: %v", err)
		}
		defer os.Chdir(cwd)
	}

	resistanceFiles := strings.Split(*resistance, ",")
	if len(resistanceFiles) != 1 && len(resistanceFiles) != *nCircuits {
		return fmt.Errorf("resistance files must have 1 or %d entries, got %d", *nCircuits, len(resistanceFiles))
	}

	if *verbose {
		fmt.Printf("Time span: (%g, %g)\n", *tStart, *tEnd)
		fmt.Printf("Circuits: %d\n", *nCircuits)
		fmt.Printf("Mode: %s\n", mode)
		fmt.Printf("Resistance files: %v\n", resistanceFiles)
		fmt.Printf("Inductance file: %s\n", *inductance)
		fmt.Printf("Inputs file: %s\n", *inputs)
	}

	inductanceMatrix, err := loader.LoadInductanceMatrix(*inductance, *nCircuits)
	if err != nil {
		return err
	}
	resistances, err := loader.LoadResistanceTables(resistanceFiles)
	if err != nil {
		return err
	}
	drive, err := loader.LoadDriveProfile(*inputs, *nCircuits, profileKind(mode))
	if err != nil {
		return err
	}

	initial, err := initialCurrents(mode, drive, *nCircuits)
	if err != nil {
		return err
	}

	tr := analysis.NewTransient(analysis.Config{
		N:               *nCircuits,
		TStart:          *tStart,
		TEnd:            *tEnd,
		InitialCurrents: initial,
		Mode:            mode,
		Inductance:      inductanceMatrix,
		Resistances:     resistances,
		Drive:           drive,
	})
	if err := tr.Setup(); err != nil {
		return err
	}

	fmt.Printf("Running %s mode simulation with %d circuit(s)...\n", mode, *nCircuits)
	if err := tr.Execute(); err != nil {
		return err
	}
	res := tr.Result()
	printSummary(res)

	if *verbose {
		fmt.Println("Inductance matrix (H):")
		for _, row := range res.Inductance {
			for _, v := range row {
				fmt.Printf(" %s", util.FormatMagnitude(v))
			}
			fmt.Println()
		}
	}

	// Recorded data for overlay, optional.
	var reference *loader.Profile
	if _, err := os.Stat(*expected); err == nil {
		reference, err = loader.LoadReferenceProfile(*expected, *nCircuits, profileKind(mode))
		if err != nil {
			return err
		}
	}

	// Write the result series complementary to the drive: controller
	// voltages for a tracking run, simulated currents for a voltage run.
	var csvErr error
	if mode == analysis.ModePID {
		path := filepath.Join(*outputDir, "voltage_circuit.csv")
		csvErr = output.WriteResampled(path, res.ProfileTimes, res.Times, res.Voltages, "voltage")
		if csvErr == nil {
			fmt.Printf("Voltage data saved to %s\n", path)
		}
	} else {
		path := filepath.Join(*outputDir, "current_circuit.csv")
		csvErr = output.WriteResampled(path, res.ProfileTimes, res.Times, res.Currents, "current")
		if csvErr == nil {
			fmt.Printf("Current data saved to %s\n", path)
		}
	}
	if csvErr != nil {
		fmt.Printf("Error writing CSV file: %v\n", csvErr)
	}

	if *savePlots {
		dir := filepath.Join(*outputDir, "plots")
		if err := plot.SaveAll(res, reference, dir); err != nil {
			return err
		}
		fmt.Printf("Plots saved to %s\n", dir)
	}

	return nil
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
