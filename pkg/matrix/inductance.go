package matrix

import (
	"fmt"
	"math"

	"github.com/edp1096/sparse"
	"gonum.org/v1/gonum/mat"
)

const (
	symTol    = 1e-10 // relative symmetry tolerance
	rankRcond = 1e-12 // singular value cutoff for the least-squares fallback
)

// Inductance holds the symmetrized N x N inductance matrix together with
// its LU factorization. The matrix is constant for a simulation run, so it
// is stamped and factored once and every Solve call is substitution only.
// A singular matrix switches Solve to an SVD least-squares path instead of
// aborting the run.
type Inductance struct {
	n    int
	vals []float64 // row-major, symmetrized

	lu  *sparse.Matrix
	rhs []float64 // 1-based scratch for the sparse solver

	singular bool
	svd      *mat.SVD
	rank     int
}

// NewInductance validates, symmetrizes and factors the matrix.
func NewInductance(values [][]float64, n int) (*Inductance, error) {
	if n < 1 {
		return nil, fmt.Errorf("inductance matrix size must be at least 1, got %d", n)
	}
	if len(values) != n {
		return nil, fmt.Errorf("inductance matrix must be %dx%d, got %d rows", n, n, len(values))
	}
	for i, row := range values {
		if len(row) != n {
			return nil, fmt.Errorf("inductance matrix must be %dx%d, row %d has %d columns", n, n, i, len(row))
		}
	}

	m := &Inductance{
		n:    n,
		vals: make([]float64, n*n),
		rhs:  make([]float64, n+1),
	}

	asymmetric := false
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			avg := (values[i][j] + values[j][i]) / 2
			m.vals[i*n+j] = avg
			diff := math.Abs(values[i][j] - values[j][i])
			scale := math.Max(math.Abs(values[i][j]), math.Abs(values[j][i]))
			if diff > symTol*math.Max(scale, 1) {
				asymmetric = true
			}
		}
	}
	if asymmetric {
		fmt.Println("Warning: inductance matrix is not symmetric. Enforcing symmetry by averaging.")
	}

	if !m.positiveDefinite() {
		fmt.Println("Warning: inductance matrix has non-positive eigenvalues. This may indicate an unphysical inductance matrix.")
	}

	if err := m.factor(); err != nil {
		fmt.Printf("Warning: singular inductance matrix (%v). Using least-squares solve.\n", err)
		if err := m.factorLeastSquares(); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Inductance) positiveDefinite() bool {
	var es mat.EigenSym
	if !es.Factorize(mat.NewSymDense(m.n, m.vals), false) {
		return false
	}
	for _, ev := range es.Values(nil) {
		if ev <= 0 {
			return false
		}
	}
	return true
}

func (m *Inductance) factor() error {
	config := &sparse.Configuration{
		Real:           true,
		Complex:        false,
		Expandable:     true,
		Translate:      false,
		ModifiedNodal:  true,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	}

	lu, err := sparse.Create(int64(m.n), config)
	if err != nil {
		return fmt.Errorf("creating sparse matrix: %v", err)
	}

	for i := 0; i < m.n; i++ {
		for j := 0; j < m.n; j++ {
			lu.GetElement(int64(i+1), int64(j+1)).Real = m.vals[i*m.n+j]
		}
	}

	if err := lu.Factor(); err != nil {
		return fmt.Errorf("matrix factorization failed: %v", err)
	}

	m.lu = lu
	return nil
}

func (m *Inductance) factorLeastSquares() error {
	m.singular = true
	m.svd = &mat.SVD{}
	if !m.svd.Factorize(mat.NewDense(m.n, m.n, m.vals), mat.SVDThin) {
		return fmt.Errorf("svd factorization of inductance matrix failed")
	}
	m.rank = m.svd.Rank(rankRcond)
	return nil
}

// Solve computes x with L*x = rhs into dst. Both slices have length N.
func (m *Inductance) Solve(rhs, dst []float64) error {
	if len(rhs) != m.n || len(dst) != m.n {
		return fmt.Errorf("rhs and dst must have length %d, got %d and %d", m.n, len(rhs), len(dst))
	}

	if !m.singular {
		for i := 0; i < m.n; i++ {
			m.rhs[i+1] = rhs[i]
		}
		sol, err := m.lu.Solve(m.rhs)
		if err != nil {
			// Keep going on the least-squares path rather than abort.
			fmt.Printf("Warning: inductance solve failed (%v). Switching to least-squares solve.\n", err)
			if lserr := m.factorLeastSquares(); lserr != nil {
				return lserr
			}
		} else {
			copy(dst, sol[1:m.n+1])
			return nil
		}
	}

	var x mat.VecDense
	m.svd.SolveVecTo(&x, mat.NewVecDense(m.n, rhs), m.rank)
	for i := 0; i < m.n; i++ {
		dst[i] = x.AtVec(i)
	}
	return nil
}

func (m *Inductance) Size() int { return m.n }

func (m *Inductance) At(i, j int) float64 {
	return m.vals[i*m.n+j]
}

// Values returns a copy of the symmetrized matrix.
func (m *Inductance) Values() [][]float64 {
	out := make([][]float64, m.n)
	for i := range out {
		out[i] = make([]float64, m.n)
		copy(out[i], m.vals[i*m.n:(i+1)*m.n])
	}
	return out
}
