package linearmodel

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// OLSRegression computes ordinary least squares using QR factorization
type OLSRegression struct {
	opt       *OLSOptions
	res       *OLSResults
	coef      []float64
	intercept float64
}

// NewOLSRegression initializes an ordinary least squares model ready for fitting
func NewOLSRegression(opt *OLSOptions) (*OLSRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &OLSRegression{
		opt: opt,
	}, nil
}

// Fit the model according to the given training data
func (o *OLSRegression) Fit(x, y mat.Matrix) error {
	if o.opt == nil {
		return ErrNoOptions
	}
	res, err := Fit(x, y, o.opt)
	if err != nil {
		return err
	}
	o.res = res

	c := res.Params()
	if o.opt.FitIntercept {
		o.intercept = c[0]
		o.coef = c[1:]
	} else {
		o.intercept = 0.0
		o.coef = c
	}
	return nil
}

// Predict using the OLS model
func (o *OLSRegression) Predict(x mat.Matrix) ([]float64, error) {
	if o.opt == nil {
		return nil, ErrNoOptions
	}
	if o.res == nil {
		return nil, ErrNotFit
	}
	return o.res.Predict(x)
}

// Score computes the coefficient of determination of the prediction
func (o *OLSRegression) Score(x, y mat.Matrix) (float64, error) {
	if o.opt == nil {
		return 0.0, ErrNoOptions
	}
	if x == nil {
		return 0.0, ErrNoDesignMatrix
	}
	if y == nil {
		return 0.0, ErrNoTargetMatrix
	}

	m, _ := x.Dims()
	ySlice, err := targetVector(y, m)
	if err != nil {
		return 0.0, fmt.Errorf("design matrix has %d rows, %w", m, err)
	}

	res, err := o.Predict(x)
	if err != nil {
		return 0.0, err
	}
	return stat.RSquaredFrom(res, ySlice, nil), nil
}

// Intercept returns the computed intercept if FitIntercept is set to true. Defaults to 0.0 if not set.
func (o *OLSRegression) Intercept() float64 {
	return o.intercept
}

// Coef returns a slice of the trained coefficients in the same order of the training feature Matrix by column.
func (o *OLSRegression) Coef() []float64 {
	return copySlice(o.coef)
}

// Results returns the inference results of the last fit
func (o *OLSRegression) Results() (*OLSResults, error) {
	if o.res == nil {
		return nil, ErrNotFit
	}
	return o.res, nil
}
