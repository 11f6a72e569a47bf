// Package linhypothesis fits ordinary least squares regressions on named datasets and tests
// linear hypotheses on the fitted coefficients.
package linhypothesis

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aouyang1/go-linhypothesis/contrast"
	"github.com/aouyang1/go-linhypothesis/dataset"
	"github.com/aouyang1/go-linhypothesis/linearmodel"
	mat_ "github.com/aouyang1/go-linhypothesis/mat"

	"github.com/go-echarts/go-echarts/v2/components"
	"gonum.org/v1/gonum/mat"
)

// ConstName is the parameter name given to the intercept
const ConstName = "const"

var (
	ErrNotFit          = errors.New("analyzer has not been fit")
	ErrNoDataset       = errors.New("no dataset")
	ErrUnknownParam    = errors.New("unknown parameter name")
	ErrEmptyHypothesis = errors.New("hypothesis has no terms")
)

// Analyzer fits a linear regression on a dataset and runs hypothesis tests against the fit
type Analyzer struct {
	opt *Options

	data  *dataset.Dataset
	names []string
	res   *linearmodel.OLSResults
}

// New creates an Analyzer with the provided options. If no options are provided a default is used.
func New(opt *Options) (*Analyzer, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &Analyzer{opt: opt}, nil
}

// Fit regresses the dataset response on its predictors
func (a *Analyzer) Fit(d *dataset.Dataset) error {
	if d == nil {
		return ErrNoDataset
	}
	x, err := d.X()
	if err != nil {
		return fmt.Errorf("unable to build design matrix, %w", err)
	}

	res, err := linearmodel.Fit(x, d.Y(), a.opt.OLSOptions)
	if err != nil {
		return fmt.Errorf("unable to fit ols model, %w", err)
	}

	names := make([]string, 0, len(d.ExogNames)+1)
	if a.opt.OLSOptions.FitIntercept {
		names = append(names, ConstName)
	}
	names = append(names, d.ExogNames...)

	a.data = d.Copy()
	a.names = names
	a.res = res
	return nil
}

// FitArrays regresses y on the predictor rows of x, naming predictors x1, x2, ...
func (a *Analyzer) FitArrays(y []float64, x [][]float64) error {
	var p int
	if len(x) > 0 {
		p = len(x[0])
	}
	names := make([]string, p)
	for j := range names {
		names[j] = fmt.Sprintf("x%d", j+1)
	}

	d, err := dataset.New("y", y, names, x)
	if err != nil {
		return err
	}
	return a.Fit(d)
}

// Results returns the underlying regression results
func (a *Analyzer) Results() (*linearmodel.OLSResults, error) {
	if a.res == nil {
		return nil, ErrNotFit
	}
	return a.res, nil
}

// ParamNames returns the coefficient names in fit order, starting with ConstName when an
// intercept was fit
func (a *Analyzer) ParamNames() []string {
	names := make([]string, len(a.names))
	copy(names, a.names)
	return names
}

// Coefficients returns every coefficient keyed by parameter name
func (a *Analyzer) Coefficients() (map[string]float64, error) {
	if a.res == nil {
		return nil, ErrNotFit
	}
	coef := make(map[string]float64, len(a.names))
	for j, p := range a.res.Params() {
		coef[a.names[j]] = p
	}
	return coef, nil
}

// Restriction builds a restriction matrix from hypotheses keyed by parameter name. Every
// hypothesis becomes one row, so {"GNP": 1, "UNEMP": -1} tests GNP = UNEMP.
func (a *Analyzer) Restriction(hypotheses ...map[string]float64) (*mat.Dense, error) {
	if a.res == nil {
		return nil, ErrNotFit
	}
	if len(hypotheses) == 0 {
		return nil, ErrEmptyHypothesis
	}

	idx := make(map[string]int, len(a.names))
	for j, name := range a.names {
		idx[name] = j
	}

	r := mat.NewDense(len(hypotheses), len(a.names), nil)
	for i, h := range hypotheses {
		if len(h) == 0 {
			return nil, fmt.Errorf("hypothesis %d, %w", i, ErrEmptyHypothesis)
		}
		for name, w := range h {
			j, exists := idx[name]
			if !exists {
				return nil, fmt.Errorf("%s in hypothesis %d, %w", name, i, ErrUnknownParam)
			}
			r.Set(i, j, w)
		}
	}
	return r, nil
}

// FTest jointly tests the restriction rows r * beta = 0
func (a *Analyzer) FTest(r [][]float64) (*contrast.FResult, error) {
	if a.res == nil {
		return nil, ErrNotFit
	}
	rMx, err := mat_.NewDenseFromArray(r)
	if err != nil {
		return nil, fmt.Errorf("invalid restriction, %w", err)
	}
	return a.res.FContrast(rMx)
}

// TTest tests the single restriction r * beta = 0
func (a *Analyzer) TTest(r []float64) (*contrast.TResult, error) {
	if a.res == nil {
		return nil, ErrNotFit
	}
	return a.res.TContrast(r)
}

// TTests runs a separate t test for every restriction row
func (a *Analyzer) TTests(r [][]float64) ([]*contrast.TResult, error) {
	if a.res == nil {
		return nil, ErrNotFit
	}
	rMx, err := mat_.NewDenseFromArray(r)
	if err != nil {
		return nil, fmt.Errorf("invalid restriction, %w", err)
	}
	return a.res.TContrasts(rMx)
}

// OverallFTest tests that every coefficient other than the intercept is zero
func (a *Analyzer) OverallFTest() (*contrast.FResult, error) {
	if a.res == nil {
		return nil, ErrNotFit
	}
	r, err := mat_.IdentityWithout(len(a.names), a.res.ConstantIndex())
	if err != nil {
		return nil, err
	}
	return a.res.FContrast(r)
}

// VIF returns the variance inflation factor of every predictor in the fit dataset
func (a *Analyzer) VIF() (map[string]float64, error) {
	if a.res == nil {
		return nil, ErrNotFit
	}
	features := make(map[string][]float64, len(a.data.ExogNames))
	for _, name := range a.data.ExogNames {
		col, _ := a.data.Column(name)
		features[name] = col
	}
	return linearmodel.VarianceInflationFactor(features)
}

// ModelEq returns a string representation of the fit model as y ~ b0*const + b1*x1 ...
func (a *Analyzer) ModelEq() (string, error) {
	if a.res == nil {
		return "", ErrNotFit
	}
	terms := make([]string, 0, len(a.names))
	for j, p := range a.res.Params() {
		terms = append(terms, fmt.Sprintf("%.5g*%s", p, a.names[j]))
	}
	return fmt.Sprintf("%s ~ %s", a.data.EndogName, strings.Join(terms, " + ")), nil
}

// Model generates a serializable summary of the fit options, coefficient estimates and
// inference statistics
func (a *Analyzer) Model() (Model, error) {
	if a.res == nil {
		return Model{}, ErrNotFit
	}
	lower, upper, err := a.res.ConfInt(a.opt.Alpha)
	if err != nil {
		return Model{}, err
	}
	opt, err := a.opt.Validate()
	if err != nil {
		return Model{}, err
	}

	m := Model{
		Options:     opt,
		EndogName:   a.data.EndogName,
		ParamNames:  a.ParamNames(),
		Params:      toValues(a.res.Params()),
		BSE:         toValues(a.res.BSE()),
		T:           toValues(a.res.T()),
		PValues:     toValues(a.res.PValues()),
		ConfLower:   toValues(lower),
		ConfUpper:   toValues(upper),
		NObs:        a.res.NObs(),
		DFResid:     Value(a.res.DFResid()),
		DFModel:     Value(a.res.DFModel()),
		RSS:         Value(a.res.RSS()),
		Scale:       Value(a.res.Scale()),
		RSquared:    Value(a.res.RSquared()),
		AdjRSquared: Value(a.res.AdjRSquared()),
		FValue:      Value(a.res.FValue()),
		FPValue:     Value(a.res.FPValue()),
		Condition:   Value(a.res.ConditionNumber()),
		Warnings:    a.res.Warnings(),
	}
	return m, nil
}

// PlotFit uses the Apache Echarts library to generate an html file showing the observed and
// fitted response, the residuals, and the coefficient t statistics
func (a *Analyzer) PlotFit(path string) error {
	if a.res == nil {
		return ErrNotFit
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return a.renderPlot(file)
}

func (a *Analyzer) renderPlot(w io.Writer) error {
	page := components.NewPage()
	page.AddCharts(
		LineFit(a.data.EndogName, a.data.Endog, a.res.FittedValues()),
		LineResiduals(a.res.Residuals()),
		BarT(a.names, a.res.T()),
	)
	return page.Render(w)
}
