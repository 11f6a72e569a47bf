package linhypothesis

import (
	"fmt"

	"github.com/aouyang1/go-linhypothesis/linearmodel"
)

const DefaultAlpha = 0.05

// Options configures the regression fit and the confidence level of reported intervals
type Options struct {
	OLSOptions *linearmodel.OLSOptions `json:"ols_options"`

	// Alpha is the significance level of coefficient confidence intervals
	Alpha float64 `json:"alpha"`
}

// NewDefaultOptions fits with an intercept and reports 95% confidence intervals
func NewDefaultOptions() *Options {
	return &Options{
		OLSOptions: linearmodel.NewDefaultOLSOptions(),
		Alpha:      DefaultAlpha,
	}
}

// Validate runs basic validation on the analyzer options and returns a copy with defaults
// filled in. The receiver is never modified.
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}

	cp := *o
	if cp.Alpha == 0 {
		cp.Alpha = DefaultAlpha
	}
	if !(cp.Alpha > 0 && cp.Alpha < 1) {
		return nil, fmt.Errorf("got %g, %w", cp.Alpha, linearmodel.ErrInvalidAlpha)
	}

	ols, err := o.OLSOptions.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid ols options, %w", err)
	}
	cp.OLSOptions = ols
	return &cp, nil
}
