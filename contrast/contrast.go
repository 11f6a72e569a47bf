// Package contrast tests linear restrictions R * beta = 0 on the coefficients of a fitted
// linear model using F and t statistics.
package contrast

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	mat_ "github.com/aouyang1/go-linhypothesis/mat"
	"github.com/aouyang1/go-linhypothesis/stats"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Model is the read-only view of a fitted linear model needed to test restrictions on its
// coefficients.
type Model interface {
	// Params returns the estimated coefficients
	Params() []float64

	// NormalizedCovParams returns (X'X)^-1, the coefficient covariance without the error
	// variance
	NormalizedCovParams() *mat.SymDense

	// Scale returns the estimated error variance
	Scale() float64

	// DFResid returns the residual degrees of freedom
	DFResid() float64
}

// FResult is the outcome of an F test on a set of linear restrictions
type FResult struct {
	F       float64 `json:"f"`
	PValue  float64 `json:"p_value"`
	DFNum   float64 `json:"df_num"`
	DFDenom float64 `json:"df_denom"`

	// Rank is the number of independent restrictions actually tested. It is lower than
	// the number of rows in R when rows were dropped as linearly dependent.
	Rank int `json:"rank"`

	// Rows are the indices of the restriction rows used in the statistic
	Rows []int `json:"rows"`

	// Effect is R * beta for every supplied restriction row
	Effect []float64 `json:"effect"`
}

func (f *FResult) String() string {
	return fmt.Sprintf("<F test: F=%g, p=%g, df_denom=%g, df_num=%g>", f.F, f.PValue, f.DFDenom, f.DFNum)
}

// TResult is the outcome of a t test on a single linear restriction
type TResult struct {
	T      float64 `json:"t"`
	PValue float64 `json:"p_value"`
	DF     float64 `json:"df"`

	// Effect is r * beta
	Effect float64 `json:"effect"`

	// SD is the standard error of the effect
	SD float64 `json:"sd"`
}

func (t *TResult) String() string {
	return fmt.Sprintf("<T test: effect=%g, sd=%g, t=%g, p=%g, df_denom=%g>", t.Effect, t.SD, t.T, t.PValue, t.DF)
}

// F tests the joint hypothesis R * beta = 0. R must have one column per model coefficient.
// Under the null the statistic follows an F distribution with (rank, DFResid) degrees of
// freedom, where rank is the number of independent restriction rows.
func F(m Model, r mat.Matrix, opt *Options) (*FResult, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNoModel
	}
	if r == nil {
		return nil, ErrNoRestriction
	}

	params := m.Params()
	k := len(params)
	nr, nc := r.Dims()
	if nc != k {
		return nil, fmt.Errorf("restriction has %d columns and model has %d coefficients, %w", nc, k, ErrDimensionMismatch)
	}

	beta := mat.NewVecDense(k, params)
	effect := mat.NewVecDense(nr, nil)
	effect.MulVec(r, beta)

	rows := independentRows(r, opt.RankTolerance)
	rank := len(rows)
	if rank == 0 {
		return nil, fmt.Errorf("restriction has no non-zero rows, %w", ErrSingularCovariance)
	}
	if rank < nr {
		if opt.RankPolicy == RankStrict {
			return nil, fmt.Errorf("%d of %d restriction rows are independent, %w", rank, nr, ErrRankDeficient)
		}
		slog.Warn("dropping linearly dependent restriction rows", "rows", nr, "rank", rank, "kept", rows)
	}

	rr := mat.NewDense(rank, k, nil)
	q := mat.NewVecDense(rank, nil)
	for i, row := range rows {
		rr.SetRow(i, mat.Row(nil, row, r))
		q.SetVec(i, effect.AtVec(row))
	}

	covQ, err := restrictionCov(m, rr)
	if err != nil {
		return nil, err
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(covQ); !ok {
		return nil, fmt.Errorf("restriction covariance is not positive definite, %w", ErrSingularCovariance)
	}
	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, q); err != nil {
		return nil, fmt.Errorf("%s, %w", err.Error(), ErrSingularCovariance)
	}

	dfNum := float64(rank)
	dfDenom := m.DFResid()
	f := mat.Dot(q, &sol) / dfNum

	return &FResult{
		F:       f,
		PValue:  stats.FSF(f, dfNum, dfDenom),
		DFNum:   dfNum,
		DFDenom: dfDenom,
		Rank:    rank,
		Rows:    rows,
		Effect:  mat.Col(nil, 0, effect),
	}, nil
}

// T tests the single restriction r * beta = 0 with a two-sided t test on DFResid degrees of
// freedom.
func T(m Model, r []float64) (*TResult, error) {
	if m == nil {
		return nil, ErrNoModel
	}
	if len(r) == 0 {
		return nil, ErrNoRestriction
	}

	params := m.Params()
	k := len(params)
	if len(r) != k {
		return nil, fmt.Errorf("restriction has %d columns and model has %d coefficients, %w", len(r), k, ErrDimensionMismatch)
	}

	return tTest(r, params, m.NormalizedCovParams(), m.Scale(), m.DFResid())
}

// TRows runs a separate t test for every row of R. Rows are evaluated concurrently since they
// only share read access to the model.
func TRows(m Model, r mat.Matrix) ([]*TResult, error) {
	if m == nil {
		return nil, ErrNoModel
	}
	if r == nil {
		return nil, ErrNoRestriction
	}

	params := m.Params()
	k := len(params)
	nr, nc := r.Dims()
	if nc != k {
		return nil, fmt.Errorf("restriction has %d columns and model has %d coefficients, %w", nc, k, ErrDimensionMismatch)
	}

	cov := m.NormalizedCovParams()
	scale := m.Scale()
	df := m.DFResid()

	res := make([]*TResult, nr)
	errs := make([]error, nr)

	var wg sync.WaitGroup
	for i := 0; i < nr; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res[i], errs[i] = tTest(mat.Row(nil, i, r), params, cov, scale, df)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("restriction row %d, %w", i, err)
		}
	}
	return res, nil
}

func tTest(r, params []float64, cov *mat.SymDense, scale, df float64) (*TResult, error) {
	effect := floats.Dot(r, params)

	rVec := mat.NewVecDense(len(r), r)
	var covR mat.VecDense
	covR.MulVec(cov, rVec)
	v := mat.Dot(rVec, &covR)

	sd := math.Sqrt(scale * v)
	if !(sd > 0) || math.IsInf(sd, 0) {
		return nil, fmt.Errorf("restriction variance of %g, %w", scale*v, ErrSingularCovariance)
	}

	tVal := effect / sd
	return &TResult{
		T:      tVal,
		PValue: stats.TTwoSided(tVal, df),
		DF:     df,
		Effect: effect,
		SD:     sd,
	}, nil
}

// restrictionCov computes scale * R (X'X)^-1 R'
func restrictionCov(m Model, r mat.Matrix) (*mat.SymDense, error) {
	nr, _ := r.Dims()
	scale := m.Scale()

	var rc, rcr mat.Dense
	rc.Mul(r, m.NormalizedCovParams())
	rcr.Mul(&rc, r.T())

	cov := mat.NewSymDense(nr, nil)
	for i := 0; i < nr; i++ {
		for j := i; j < nr; j++ {
			v := scale * 0.5 * (rcr.At(i, j) + rcr.At(j, i))
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("non-finite restriction covariance, %w", ErrSingularCovariance)
			}
			cov.SetSym(i, j, v)
		}
	}
	return cov, nil
}

// independentRows greedily keeps the rows of r that increase its rank, in order
func independentRows(r mat.Matrix, tol float64) []int {
	nr, k := r.Dims()

	var keep []int
	for i := 0; i < nr; i++ {
		cand := append(append([]int(nil), keep...), i)
		sub := mat.NewDense(len(cand), k, nil)
		for j, row := range cand {
			sub.SetRow(j, mat.Row(nil, row, r))
		}
		if mat_.Rank(sub, tol) == len(cand) {
			keep = cand
		}
	}
	return keep
}
