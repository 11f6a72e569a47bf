package linearmodel

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/aouyang1/go-linhypothesis/contrast"
	mat_ "github.com/aouyang1/go-linhypothesis/mat"
	"github.com/aouyang1/go-linhypothesis/stats"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// DefaultConditionWarn is the design matrix condition number above which a fit logs a
	// multicollinearity warning.
	DefaultConditionWarn = 1e6

	// DefaultRankTolerance is the relative size below which a diagonal entry of the QR factor
	// marks a linearly dependent column.
	DefaultRankTolerance = 1e-12
)

// OLSOptions represents input options to run the OLS Regression
type OLSOptions struct {
	// FitIntercept adds a constant 1.0 feature as the first column if set to true
	FitIntercept bool `json:"fit_intercept"`

	// RankTolerance is the smallest allowed ratio between a diagonal entry of the QR factor R
	// and its largest diagonal entry before the design matrix is declared rank deficient.
	// Zero uses DefaultRankTolerance.
	RankTolerance float64 `json:"rank_tolerance"`

	// ConditionWarn is the condition number above which the fit logs a warning. Zero uses
	// DefaultConditionWarn.
	ConditionWarn float64 `json:"condition_warn"`

	// Contrast configures the F test used for the overall regression F statistic
	Contrast *contrast.Options `json:"contrast"`
}

// Validate runs basic validation on OLS options and returns a copy with defaults filled in.
// The receiver is never modified, so one options value can be shared across concurrent fits.
func (o *OLSOptions) Validate() (*OLSOptions, error) {
	if o == nil {
		o = NewDefaultOLSOptions()
	}
	if o.RankTolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	if o.ConditionWarn < 0 {
		return nil, ErrNegativeCondition
	}

	cp := *o
	if cp.ConditionWarn == 0 {
		cp.ConditionWarn = DefaultConditionWarn
	}

	c, err := o.Contrast.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid contrast options, %w", err)
	}
	cp.Contrast = c
	return &cp, nil
}

// NewDefaultOLSOptions returns a default set of OLS Regression options
func NewDefaultOLSOptions() *OLSOptions {
	return &OLSOptions{
		FitIntercept:  true,
		ConditionWarn: DefaultConditionWarn,
		Contrast:      contrast.NewDefaultOptions(),
	}
}

// OLSResults is an immutable ordinary least squares fit. Accessors return copies.
type OLSResults struct {
	opt *OLSOptions

	params  []float64
	normCov *mat.SymDense
	fitted  []float64
	resid   []float64

	nObs     int
	constIdx int

	rss           float64
	centeredTSS   float64
	uncenteredTSS float64
	dfResid       float64
	dfModel       float64
	scale         float64
	cond          float64

	fvalue   float64
	fpvalue  float64
	warnings []string
}

// Fit computes the ordinary least squares estimate of y on x using a QR factorization of x.
// y must be an n x 1 matrix (a 1 x n matrix is also accepted). If opt.FitIntercept is set a
// constant column is prepended to x, so the intercept is params[0].
func Fit(x, y mat.Matrix, opt *OLSOptions) (*OLSResults, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	if x == nil {
		return nil, ErrNoTrainingMatrix
	}
	if y == nil {
		return nil, ErrNoTargetMatrix
	}
	m, _ := x.Dims()

	yVals, err := targetVector(y, m)
	if err != nil {
		return nil, err
	}

	if opt.FitIntercept {
		xWithOnes, err := mat_.AddConstant(x)
		if err != nil {
			return nil, err
		}
		x = xWithOnes
	}
	_, n := x.Dims()
	if m < n {
		return nil, fmt.Errorf("%d observations for %d coefficients, %w", m, n, ErrRankDeficient)
	}

	qr := new(mat.QR)
	qr.Factorize(x)

	r := new(mat.Dense)
	qr.RTo(r)

	if err := checkRank(r, n, opt.RankTolerance); err != nil {
		return nil, err
	}

	// solves R * beta = Q' * y without forming the full m x m Q
	beta := new(mat.VecDense)
	if err := qr.SolveVecTo(beta, false, mat.NewVecDense(m, yVals)); err != nil {
		if err := conditionError(err); err != nil {
			return nil, err
		}
	}
	c := mat.Col(nil, 0, beta)

	normCov, err := normalizedCov(r, n)
	if err != nil {
		return nil, err
	}

	fitted := mat.NewVecDense(m, nil)
	fitted.MulVec(x, mat.NewVecDense(n, c))

	res := &OLSResults{
		opt:      opt,
		params:   c,
		normCov:  normCov,
		fitted:   mat.Col(nil, 0, fitted),
		nObs:     m,
		constIdx: constantColumn(x),
		cond:     qr.Cond(),
	}

	res.resid = make([]float64, m)
	floats.SubTo(res.resid, yVals, res.fitted)
	res.rss = floats.Dot(res.resid, res.resid)

	yMean := stat.Mean(yVals, nil)
	for _, v := range yVals {
		res.centeredTSS += (v - yMean) * (v - yMean)
		res.uncenteredTSS += v * v
	}

	res.dfResid = float64(m - n)
	res.dfModel = float64(n)
	if res.constIdx >= 0 {
		res.dfModel--
	}
	res.scale = math.NaN()
	if res.dfResid > 0 {
		res.scale = res.rss / res.dfResid
	}

	if res.cond > opt.ConditionWarn {
		msg := fmt.Sprintf("condition number %.4g exceeds %.4g, design matrix may be multicollinear", res.cond, opt.ConditionWarn)
		res.warnings = append(res.warnings, msg)
		slog.Warn("large condition number in ols fit", "condition", res.cond, "threshold", opt.ConditionWarn)
	}
	if res.dfResid == 0 {
		res.warnings = append(res.warnings, "no residual degrees of freedom, error variance is undefined")
		slog.Warn("ols fit has no residual degrees of freedom", "observations", m, "coefficients", n)
	}

	res.fvalue, res.fpvalue = math.NaN(), math.NaN()
	if res.dfModel > 0 && res.dfResid > 0 {
		fRes, err := res.overallF()
		if err != nil {
			res.warnings = append(res.warnings, fmt.Sprintf("unable to compute overall F statistic, %s", err.Error()))
			slog.Warn("unable to compute overall F statistic", "error", err.Error())
		} else {
			res.fvalue, res.fpvalue = fRes.F, fRes.PValue
		}
	}

	return res, nil
}

func targetVector(y mat.Matrix, m int) ([]float64, error) {
	ym, yn := y.Dims()
	switch {
	case yn == 1 && ym == m:
		return mat.Col(nil, 0, y), nil
	case ym == 1 && yn == m:
		return mat.Row(nil, 0, y), nil
	}
	return nil, fmt.Errorf("training data has %d rows and target has %d x %d, %w", m, ym, yn, ErrTargetLenMismatch)
}

// checkRank rejects an upper triangular QR factor with a negligible diagonal entry
func checkRank(r *mat.Dense, n int, tol float64) error {
	var maxDiag float64
	for i := 0; i < n; i++ {
		maxDiag = math.Max(maxDiag, math.Abs(r.At(i, i)))
	}
	if tol == 0 {
		tol = DefaultRankTolerance
	}
	for i := 0; i < n; i++ {
		if d := math.Abs(r.At(i, i)); !(d > tol*maxDiag) {
			return fmt.Errorf("column %d is linearly dependent on earlier columns, %w", i, ErrRankDeficient)
		}
	}
	return nil
}

// normalizedCov computes (X'X)^-1 = R^-1 R^-T from the n x n leading block of the QR factor
func normalizedCov(r *mat.Dense, n int) (*mat.SymDense, error) {
	rTri := mat.NewTriDense(n, mat.Upper, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			rTri.SetTri(i, j, r.At(i, j))
		}
	}

	var rInv mat.TriDense
	if err := rInv.InverseTri(rTri); err != nil {
		if err := conditionError(err); err != nil {
			return nil, err
		}
	}

	cov := new(mat.SymDense)
	cov.SymOuterK(1.0, &rInv)
	return cov, nil
}

// conditionError lets finite condition warnings from gonum through and maps singular
// results to ErrRankDeficient
func conditionError(err error) error {
	var cond mat.Condition
	if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
		return fmt.Errorf("%s, %w", err.Error(), ErrRankDeficient)
	}
	slog.Warn("ill-conditioned least squares problem", "condition", float64(cond))
	return nil
}

// constantColumn returns the index of the first column holding a single non-zero value, or -1
func constantColumn(x mat.Matrix) int {
	m, n := x.Dims()
	for j := 0; j < n; j++ {
		v := x.At(0, j)
		if v == 0 {
			continue
		}
		isConst := true
		for i := 1; i < m; i++ {
			if x.At(i, j) != v {
				isConst = false
				break
			}
		}
		if isConst {
			return j
		}
	}
	return -1
}

// overallF tests that every coefficient other than the constant is zero
func (o *OLSResults) overallF() (*contrast.FResult, error) {
	r, err := mat_.IdentityWithout(len(o.params), o.constIdx)
	if err != nil {
		return nil, err
	}
	return contrast.F(o, r, o.opt.Contrast)
}

// Params returns the estimated coefficients in design matrix column order
func (o *OLSResults) Params() []float64 {
	return copySlice(o.params)
}

// NormalizedCovParams returns (X'X)^-1
func (o *OLSResults) NormalizedCovParams() *mat.SymDense {
	k := len(o.params)
	cov := mat.NewSymDense(k, nil)
	cov.CopySym(o.normCov)
	return cov
}

// CovParams returns the estimated coefficient covariance, scale * (X'X)^-1
func (o *OLSResults) CovParams() *mat.SymDense {
	cov := o.NormalizedCovParams()
	cov.ScaleSym(o.scale, cov)
	return cov
}

// Scale returns the unbiased error variance estimate RSS / DFResid
func (o *OLSResults) Scale() float64 {
	return o.scale
}

// DFResid returns the residual degrees of freedom, n - k
func (o *OLSResults) DFResid() float64 {
	return o.dfResid
}

// DFModel returns the model degrees of freedom, k minus one if a constant column is present
func (o *OLSResults) DFModel() float64 {
	return o.dfModel
}

// NObs returns the number of observations used in the fit
func (o *OLSResults) NObs() int {
	return o.nObs
}

// ConstantIndex returns the design matrix column detected as the constant, or -1 if none
func (o *OLSResults) ConstantIndex() int {
	return o.constIdx
}

// Residuals returns y - X * params
func (o *OLSResults) Residuals() []float64 {
	return copySlice(o.resid)
}

// FittedValues returns X * params
func (o *OLSResults) FittedValues() []float64 {
	return copySlice(o.fitted)
}

// RSS returns the residual sum of squares
func (o *OLSResults) RSS() float64 {
	return o.rss
}

// ESS returns the explained sum of squares, centered if the model has a constant
func (o *OLSResults) ESS() float64 {
	if o.constIdx >= 0 {
		return o.centeredTSS - o.rss
	}
	return o.uncenteredTSS - o.rss
}

// RSquared returns the coefficient of determination. Models without a constant use the
// uncentered total sum of squares.
func (o *OLSResults) RSquared() float64 {
	if o.constIdx >= 0 {
		return 1.0 - o.rss/o.centeredTSS
	}
	return 1.0 - o.rss/o.uncenteredTSS
}

// AdjRSquared returns the coefficient of determination adjusted for degrees of freedom
func (o *OLSResults) AdjRSquared() float64 {
	kConst := 0.0
	if o.constIdx >= 0 {
		kConst = 1.0
	}
	return 1.0 - (float64(o.nObs)-kConst)/o.dfResid*(1.0-o.RSquared())
}

// BSE returns the standard error of every coefficient, sqrt(scale * [(X'X)^-1]_jj)
func (o *OLSResults) BSE() []float64 {
	bse := make([]float64, len(o.params))
	for j := range bse {
		bse[j] = math.Sqrt(o.scale * o.normCov.At(j, j))
	}
	return bse
}

// T returns the t statistic of every coefficient against zero
func (o *OLSResults) T() []float64 {
	bse := o.BSE()
	t := make([]float64, len(o.params))
	for j, p := range o.params {
		t[j] = p / bse[j]
	}
	return t
}

// PValues returns the two-sided p-value of every coefficient t statistic
func (o *OLSResults) PValues() []float64 {
	t := o.T()
	p := make([]float64, len(t))
	for j, tv := range t {
		p[j] = stats.TTwoSided(tv, o.dfResid)
	}
	return p
}

// ConfInt returns the lower and upper 1 - alpha confidence bounds of every coefficient
func (o *OLSResults) ConfInt(alpha float64) ([]float64, []float64, error) {
	if !(alpha > 0 && alpha < 1) {
		return nil, nil, fmt.Errorf("got %g, %w", alpha, ErrInvalidAlpha)
	}
	q := stats.TQuantile(1.0-alpha/2.0, o.dfResid)
	bse := o.BSE()

	lower := make([]float64, len(o.params))
	upper := make([]float64, len(o.params))
	for j, p := range o.params {
		lower[j] = p - q*bse[j]
		upper[j] = p + q*bse[j]
	}
	return lower, upper, nil
}

// FValue returns the F statistic that every non-constant coefficient is zero
func (o *OLSResults) FValue() float64 {
	return o.fvalue
}

// FPValue returns the p-value of FValue
func (o *OLSResults) FPValue() float64 {
	return o.fpvalue
}

// LogLikelihood returns the Gaussian log likelihood at the maximum likelihood variance
func (o *OLSResults) LogLikelihood() float64 {
	n := float64(o.nObs)
	return -n / 2.0 * (math.Log(2.0*math.Pi) + math.Log(o.rss/n) + 1.0)
}

// AIC returns the Akaike information criterion
func (o *OLSResults) AIC() float64 {
	return -2.0*o.LogLikelihood() + 2.0*float64(len(o.params))
}

// BIC returns the Bayesian information criterion
func (o *OLSResults) BIC() float64 {
	return -2.0*o.LogLikelihood() + math.Log(float64(o.nObs))*float64(len(o.params))
}

// ConditionNumber returns the estimated condition number of the design matrix
func (o *OLSResults) ConditionNumber() float64 {
	return o.cond
}

// Warnings returns the non-fatal numerical issues found during the fit
func (o *OLSResults) Warnings() []string {
	w := make([]string, len(o.warnings))
	copy(w, o.warnings)
	return w
}

// Predict returns x * params. x must be laid out like the training matrix, without the
// constant column when the fit added the intercept.
func (o *OLSResults) Predict(x mat.Matrix) ([]float64, error) {
	if x == nil {
		return nil, ErrNoDesignMatrix
	}
	if o.opt.FitIntercept {
		xWithOnes, err := mat_.AddConstant(x)
		if err != nil {
			return nil, err
		}
		x = xWithOnes
	}

	m, n := x.Dims()
	if n != len(o.params) {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", n, len(o.params), ErrFeatureLenMismatch)
	}

	res := mat.NewVecDense(m, nil)
	res.MulVec(x, mat.NewVecDense(n, o.Params()))
	return mat.Col(nil, 0, res), nil
}

// FContrast tests the joint hypothesis r * params = 0
func (o *OLSResults) FContrast(r mat.Matrix) (*contrast.FResult, error) {
	return contrast.F(o, r, o.opt.Contrast)
}

// TContrast tests the single hypothesis r * params = 0
func (o *OLSResults) TContrast(r []float64) (*contrast.TResult, error) {
	return contrast.T(o, r)
}

// TContrasts runs an independent t test for every row of r
func (o *OLSResults) TContrasts(r mat.Matrix) ([]*contrast.TResult, error) {
	return contrast.TRows(o, r)
}

func copySlice(s []float64) []float64 {
	c := make([]float64, len(s))
	copy(c, s)
	return c
}
