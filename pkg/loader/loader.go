package loader

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/edp1096/magnet-sim/pkg/table"
)

// Kind selects which per-circuit columns a profile file carries.
type Kind int

const (
	KindCurrent Kind = iota // current1..currentN target columns
	KindVoltage             // voltage1..voltageN applied columns
)

func (k Kind) prefix() string {
	if k == KindVoltage {
		return "voltage"
	}
	return "current"
}

// complement returns the column prefix of the matching reference file.
// A current-tracking run is compared against recorded voltages and a
// voltage-driven run against recorded currents.
func (k Kind) complement() Kind {
	if k == KindVoltage {
		return KindCurrent
	}
	return KindVoltage
}

// Profile holds the raw samples of a per-circuit time series file.
type Profile struct {
	Times  []float64
	Values [][]float64 // [circuit][sample]
}

// NewProfile wraps already loaded samples, one value row per circuit.
func NewProfile(times []float64, values [][]float64) (*Profile, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("profile requires at least one sample")
	}
	for i, row := range values {
		if len(row) != len(times) {
			return nil, fmt.Errorf("profile circuit %d has %d samples, want %d", i+1, len(row), len(times))
		}
	}
	return &Profile{Times: times, Values: values}, nil
}

func (p *Profile) Circuits() int { return len(p.Values) }

// Tables builds fresh interpolation tables, one per circuit.
func (p *Profile) Tables() ([]*table.Table, error) {
	tables := make([]*table.Table, len(p.Values))
	for i, values := range p.Values {
		tb, err := table.New(p.Times, values)
		if err != nil {
			return nil, fmt.Errorf("profile circuit %d: %v", i+1, err)
		}
		tables[i] = tb
	}
	return tables, nil
}

// NearestSample returns the per-circuit values at the sample time closest
// to t.
func (p *Profile) NearestSample(t float64) []float64 {
	best := 0
	for i, pt := range p.Times {
		if math.Abs(pt-t) < math.Abs(p.Times[best]-t) {
			best = i
		}
	}
	out := make([]float64, len(p.Values))
	for i := range p.Values {
		out[i] = p.Values[i][best]
	}
	return out
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %v", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("file %s is empty", path)
	}
	return records, nil
}

func parseField(path, field string, row int) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, fmt.Errorf("%s row %d: parsing %q: %v", path, row+1, field, err)
	}
	return v, nil
}

// LoadInductanceMatrix reads a headerless N x N matrix.
func LoadInductanceMatrix(path string, n int) ([][]float64, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if len(records) != n {
		return nil, fmt.Errorf("inductance matrix in %s must be %dx%d, got %d rows", path, n, n, len(records))
	}

	matrix := make([][]float64, n)
	for i, record := range records {
		if len(record) != n {
			return nil, fmt.Errorf("inductance matrix in %s must be %dx%d, row %d has %d columns", path, n, n, i+1, len(record))
		}
		matrix[i] = make([]float64, n)
		for j, field := range record {
			v, err := parseField(path, field, i)
			if err != nil {
				return nil, err
			}
			matrix[i][j] = v
		}
	}
	return matrix, nil
}

// LoadResistanceTables reads one resistance-vs-current table per file.
// Each file needs "current" and "resistance" header columns.
func LoadResistanceTables(paths []string) ([]*table.Table, error) {
	tables := make([]*table.Table, 0, len(paths))
	for _, path := range paths {
		records, err := readCSV(path)
		if err != nil {
			return nil, err
		}

		currentIdx, resistanceIdx := -1, -1
		for i, name := range records[0] {
			switch strings.TrimSpace(name) {
			case "current":
				currentIdx = i
			case "resistance":
				resistanceIdx = i
			}
		}
		if currentIdx < 0 || resistanceIdx < 0 {
			return nil, fmt.Errorf("file %s must have 'current' and 'resistance' columns", path)
		}

		currents := make([]float64, 0, len(records)-1)
		resistances := make([]float64, 0, len(records)-1)
		for i, record := range records[1:] {
			c, err := parseField(path, record[currentIdx], i+1)
			if err != nil {
				return nil, err
			}
			r, err := parseField(path, record[resistanceIdx], i+1)
			if err != nil {
				return nil, err
			}
			currents = append(currents, c)
			resistances = append(resistances, r)
		}

		tb, err := table.New(currents, resistances)
		if err != nil {
			return nil, fmt.Errorf("file %s: %v", path, err)
		}
		tables = append(tables, tb)
	}
	return tables, nil
}

// LoadDriveProfile reads the per-circuit drive file: a "time" column plus
// current1..N or voltage1..N depending on kind.
func LoadDriveProfile(path string, n int, kind Kind) (*Profile, error) {
	return loadProfile(path, n, kind.prefix())
}

// LoadReferenceProfile reads recorded data for comparison with a run.
// The columns are complementary to the run kind: recorded voltages for a
// current-tracking run, recorded currents for a voltage-driven run.
func LoadReferenceProfile(path string, n int, kind Kind) (*Profile, error) {
	return loadProfile(path, n, kind.complement().prefix())
}

func loadProfile(path string, n int, prefix string) (*Profile, error) {
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.TrimSpace(name)] = i
	}

	timeIdx, ok := header["time"]
	if !ok {
		return nil, fmt.Errorf("required column 'time' not found in %s", path)
	}

	columns := make([]int, n)
	var missing []string
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%s%d", prefix, i+1)
		idx, ok := header[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		columns[i] = idx
	}
	if len(missing) > 0 {
		var available []string
		for name := range header {
			if strings.HasPrefix(name, prefix) {
				available = append(available, name)
			}
		}
		return nil, fmt.Errorf("missing %s columns %v in %s, available: %v", prefix, missing, path, available)
	}

	times := make([]float64, 0, len(records)-1)
	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, 0, len(records)-1)
	}

	for i, record := range records[1:] {
		t, err := parseField(path, record[timeIdx], i+1)
		if err != nil {
			return nil, err
		}
		times = append(times, t)
		for j, col := range columns {
			v, err := parseField(path, record[col], i+1)
			if err != nil {
				return nil, err
			}
			values[j] = append(values[j], v)
		}
	}

	return NewProfile(times, values)
}
