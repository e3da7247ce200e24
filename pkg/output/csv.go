package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/edp1096/magnet-sim/pkg/table"
)

// WriteResampled interpolates the simulated series onto sampleTimes and
// writes them as CSV with columns time,<prefix>1..<prefix>N. Result
// trajectories are denser than the drive profile, so files written this
// way line up row for row with the input profile.
func WriteResampled(path string, sampleTimes, seriesTimes []float64, series [][]float64, prefix string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := make([]string, 1+len(series))
	header[0] = "time"
	for i := range series {
		header[i+1] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing %s: %v", path, err)
	}

	tables := make([]*table.Table, len(series))
	for i := range series {
		tb, err := table.New(seriesTimes, series[i])
		if err != nil {
			return fmt.Errorf("resampling %s%d: %v", prefix, i+1, err)
		}
		tables[i] = tb
	}

	row := make([]string, 1+len(series))
	for _, t := range sampleTimes {
		row[0] = strconv.FormatFloat(t, 'g', -1, 64)
		for i, tb := range tables {
			row[i+1] = strconv.FormatFloat(tb.Evaluate(t), 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing %s: %v", path, err)
		}
	}

	w.Flush()
	return w.Error()
}
