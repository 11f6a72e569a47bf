// Package mat holds the small set of matrix helpers used to build design and restriction
// matrices on top of gonum.
package mat

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrColMismatch    = errors.New("column size mismatch")
	ErrZeroRows       = errors.New("matrix has no rows")
	ErrRowOutOfBounds = errors.New("row is out of bounds")
	ErrNegativeDim    = errors.New("negative dimensions not allowed")
)

// NewDenseFromArray converts a slice of rows into a gonum dense matrix. Every row must have
// the same length.
func NewDenseFromArray(x [][]float64) (*mat.Dense, error) {
	m := len(x)
	if m == 0 {
		return nil, mat.ErrZeroLength
	}

	n := -1
	for i, row := range x {
		if n >= 0 && len(row) != n {
			return nil, fmt.Errorf("at row %d, %w", i, ErrColMismatch)
		}
		if n < 0 {
			n = len(row)
		}
	}
	if n == 0 {
		return nil, mat.ErrZeroLength
	}

	// flatten to row order
	data := make([]float64, 0, m*n)
	for _, row := range x {
		data = append(data, row...)
	}
	return mat.NewDense(m, n, data), nil
}

// AddConstant returns a copy of x with a column of ones prepended, so the intercept is
// always coefficient 0 of a fit on the result.
func AddConstant(x mat.Matrix) (*mat.Dense, error) {
	if x == nil {
		return nil, ErrZeroRows
	}
	m, n := x.Dims()
	if m == 0 {
		return nil, ErrZeroRows
	}

	out := mat.NewDense(m, n+1, nil)
	for i := 0; i < m; i++ {
		out.Set(i, 0, 1.0)
		for j := 0; j < n; j++ {
			out.Set(i, j+1, x.At(i, j))
		}
	}
	return out, nil
}

// IdentityWithout returns the rows of the k x k identity matrix with row drop removed. A
// negative drop keeps every row.
func IdentityWithout(k, drop int) (*mat.Dense, error) {
	if k <= 0 {
		return nil, ErrNegativeDim
	}
	if drop >= k {
		return nil, fmt.Errorf("dropping row %d of %d, %w", drop, k, ErrRowOutOfBounds)
	}

	rows := k
	if drop >= 0 {
		rows--
	}
	if rows == 0 {
		return nil, ErrZeroRows
	}

	out := mat.NewDense(rows, k, nil)
	var r int
	for i := 0; i < k; i++ {
		if i == drop {
			continue
		}
		out.Set(r, i, 1.0)
		r++
	}
	return out, nil
}

// Rank computes the numerical rank of a from its singular values. Singular values at or
// below tol are treated as zero. If tol is non-positive, max(m, n) * eps * largest singular
// value is used.
func Rank(a mat.Matrix, tol float64) int {
	m, n := a.Dims()
	if m == 0 || n == 0 {
		return 0
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDNone); !ok {
		return 0
	}
	vals := svd.Values(nil)
	if len(vals) == 0 || vals[0] == 0 {
		return 0
	}
	if tol <= 0 {
		tol = vals[0] * float64(max(m, n)) * eps
	}

	var rank int
	for _, v := range vals {
		if v > tol {
			rank++
		}
	}
	return rank
}

// eps is the float64 machine epsilon
var eps = math.Nextafter(1, 2) - 1
