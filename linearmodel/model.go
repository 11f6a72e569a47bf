// Package linearmodel fits ordinary least squares regressions and exposes the inference
// quantities needed to test hypotheses on the fitted coefficients.
package linearmodel

import (
	"gonum.org/v1/gonum/mat"
)

// Model is a fitted linear regression that can be used for prediction
type Model interface {
	Fit(x, y mat.Matrix) error
	Predict(x mat.Matrix) ([]float64, error)
	Score(x, y mat.Matrix) (float64, error)
	Intercept() float64
	Coef() []float64
}
