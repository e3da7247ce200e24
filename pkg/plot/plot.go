package plot

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/edp1096/magnet-sim/pkg/analysis"
	"github.com/edp1096/magnet-sim/pkg/loader"
)

type series struct {
	label  string
	times  []float64
	values []float64
	dashed bool
}

func makeXYs(times, values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(times))
	for i := range times {
		pts[i].X = times[i]
		pts[i].Y = values[i]
	}
	return pts
}

func saveLinePlot(path, title, yLabel string, lines []series) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())

	for i, s := range lines {
		line, err := plotter.NewLine(makeXYs(s.times, s.values))
		if err != nil {
			return fmt.Errorf("plotting %s: %v", s.label, err)
		}
		line.Color = plotutil.Color(i)
		if s.dashed {
			line.Dashes = plotutil.Dashes(1)
		}
		p.Add(line)
		p.Legend.Add(s.label, line)
	}

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("saving %s: %v", path, err)
	}
	return nil
}

// SaveAll renders the run into PNG files under dir: drive profiles,
// per-circuit currents, applied voltages and resistances. A reference
// profile, when present, is overlaid on the series it was recorded for
// (voltages for a tracking run, currents for a voltage-driven run).
func SaveAll(res *analysis.Result, ref *loader.Profile, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %v", dir, err)
	}

	inputName := "Voltage"
	inputUnit := "Voltage (V)"
	if res.Mode == analysis.ModePID {
		inputName = "Target"
		inputUnit = "Current (A)"
	}

	var lines []series
	for i, values := range res.ProfileValues {
		lines = append(lines, series{
			label:  fmt.Sprintf("Circuit %d %s", i+1, inputName),
			times:  res.ProfileTimes,
			values: values,
		})
	}
	if err := saveLinePlot(filepath.Join(dir, "profiles.png"), inputName+" Profiles", inputUnit, lines); err != nil {
		return err
	}

	lines = lines[:0]
	for i := range res.Currents {
		lines = append(lines, series{
			label:  fmt.Sprintf("Circuit %d Current", i+1),
			times:  res.Times,
			values: res.Currents[i],
		})
	}
	if res.Mode == analysis.ModePID {
		for i := range res.Setpoints {
			lines = append(lines, series{
				label:  fmt.Sprintf("Circuit %d Setpoint", i+1),
				times:  res.Times,
				values: res.Setpoints[i],
				dashed: true,
			})
		}
	}
	if ref != nil && res.Mode == analysis.ModeVoltage {
		for i, values := range ref.Values {
			lines = append(lines, series{
				label:  fmt.Sprintf("Circuit %d Measured", i+1),
				times:  ref.Times,
				values: values,
				dashed: true,
			})
		}
	}
	if err := saveLinePlot(filepath.Join(dir, "currents.png"), "Individual Circuit Currents", "Current (A)", lines); err != nil {
		return err
	}

	lines = lines[:0]
	for i := range res.Voltages {
		lines = append(lines, series{
			label:  fmt.Sprintf("Voltage %d", i+1),
			times:  res.Times,
			values: res.Voltages[i],
		})
	}
	if ref != nil && res.Mode == analysis.ModePID {
		for i, values := range ref.Values {
			lines = append(lines, series{
				label:  fmt.Sprintf("Voltage %d Measured", i+1),
				times:  ref.Times,
				values: values,
				dashed: true,
			})
		}
	}
	if err := saveLinePlot(filepath.Join(dir, "voltages.png"), "Individual Applied Voltages", "Voltage (V)", lines); err != nil {
		return err
	}

	lines = lines[:0]
	for i := range res.Resistances {
		lines = append(lines, series{
			label:  fmt.Sprintf("Circuit %d Resistance", i+1),
			times:  res.Times,
			values: res.Resistances[i],
		})
	}
	return saveLinePlot(filepath.Join(dir, "resistances.png"), "Individual Resistances R(I)", "Resistance (Ohm)", lines)
}
