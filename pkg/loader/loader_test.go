package loader

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadInductanceMatrix(t *testing.T) {
	path := writeFile(t, "inductance.csv", "0.001,0.0001\n0.0001,0.001\n")

	m, err := LoadInductanceMatrix(path, 2)
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if m[0][0] != 0.001 || m[0][1] != 0.0001 || m[1][0] != 0.0001 || m[1][1] != 0.001 {
		t.Errorf("matrix = %v", m)
	}
}

func TestLoadInductanceMatrixWrongSize(t *testing.T) {
	path := writeFile(t, "inductance.csv", "0.001,0.0001\n0.0001,0.001\n")
	if _, err := LoadInductanceMatrix(path, 3); err == nil {
		t.Error("expected error for 2x2 file loaded as 3x3")
	}
}

func TestLoadResistanceTables(t *testing.T) {
	path := writeFile(t, "resistance.csv", "current,resistance\n0,0.001\n100,0.011\n")

	tables, err := LoadResistanceTables([]string{path})
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("got %d tables, want 1", len(tables))
	}
	if got := tables[0].Evaluate(50); math.Abs(got-0.006) > 1e-12 {
		t.Errorf("Evaluate(50) = %v, want 0.006", got)
	}
}

func TestLoadResistanceTablesMissingColumn(t *testing.T) {
	path := writeFile(t, "resistance.csv", "current,ohms\n0,0.001\n")
	if _, err := LoadResistanceTables([]string{path}); err == nil {
		t.Error("expected error for missing resistance column")
	}
}

func TestLoadDriveProfile(t *testing.T) {
	path := writeFile(t, "inputs.csv", "time,current1,current2\n0,10,5\n1,20,5\n2,30,5\n")

	p, err := LoadDriveProfile(path, 2, KindCurrent)
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if p.Circuits() != 2 || len(p.Times) != 3 {
		t.Fatalf("profile shape = (%d circuits, %d samples)", p.Circuits(), len(p.Times))
	}

	tables, err := p.Tables()
	if err != nil {
		t.Fatalf("tables: %v", err)
	}
	if got := tables[0].Evaluate(0.5); math.Abs(got-15) > 1e-12 {
		t.Errorf("circuit 1 at t=0.5 = %v, want 15", got)
	}
	if got := tables[1].Evaluate(1.5); got != 5 {
		t.Errorf("circuit 2 at t=1.5 = %v, want 5", got)
	}
}

func TestLoadDriveProfileMissingColumns(t *testing.T) {
	path := writeFile(t, "inputs.csv", "time,current1\n0,10\n1,20\n")

	_, err := LoadDriveProfile(path, 2, KindCurrent)
	if err == nil {
		t.Fatal("expected error for missing current2 column")
	}
	if !strings.Contains(err.Error(), "current2") {
		t.Errorf("error %q should name the missing column", err)
	}
}

func TestLoadDriveProfileNoTimeColumn(t *testing.T) {
	path := writeFile(t, "inputs.csv", "t,current1\n0,10\n")
	if _, err := LoadDriveProfile(path, 1, KindCurrent); err == nil {
		t.Error("expected error for missing time column")
	}
}

func TestLoadReferenceProfileSwapsColumns(t *testing.T) {
	// A current-tracking run is compared against recorded voltages.
	path := writeFile(t, "expected.csv", "time,voltage1\n0,1.5\n1,2.5\n")

	p, err := LoadReferenceProfile(path, 1, KindCurrent)
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if p.Values[0][1] != 2.5 {
		t.Errorf("reference value = %v, want 2.5", p.Values[0][1])
	}
}

func TestNearestSample(t *testing.T) {
	p, err := NewProfile([]float64{0, 1, 2}, [][]float64{{10, 20, 30}})
	if err != nil {
		t.Fatalf("building profile: %v", err)
	}

	if got := p.NearestSample(1.2); got[0] != 20 {
		t.Errorf("NearestSample(1.2) = %v, want [20]", got)
	}
	if got := p.NearestSample(-5); got[0] != 10 {
		t.Errorf("NearestSample(-5) = %v, want [10]", got)
	}
}

func TestNewProfileValidation(t *testing.T) {
	if _, err := NewProfile(nil, nil); err == nil {
		t.Error("expected error for empty profile")
	}
	if _, err := NewProfile([]float64{0, 1}, [][]float64{{1}}); err == nil {
		t.Error("expected error for ragged values")
	}
}
