// Package dataset holds in-memory regression datasets: an endogenous response and the
// exogenous predictors observed alongside it.
package dataset

import (
	"errors"
	"fmt"

	mat_ "github.com/aouyang1/go-linhypothesis/mat"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoObservations     = errors.New("no observations")
	ErrDatasetLenMismatch = errors.New("predictors have a different length than observations")
	ErrNameLenMismatch    = errors.New("number of predictor names does not match number of predictors")
)

// Dataset is a response vector and a row-major predictor table of the same length. No
// constant column is included; add one with mat.AddConstant or fit with an intercept.
type Dataset struct {
	EndogName string      `json:"endog_name"`
	ExogNames []string    `json:"exog_names"`
	Endog     []float64   `json:"endog"`
	Exog      [][]float64 `json:"exog"`
}

// New returns a Dataset holding copies of the input response and predictors
func New(endogName string, endog []float64, exogNames []string, exog [][]float64) (*Dataset, error) {
	if len(endog) == 0 {
		return nil, ErrNoObservations
	}
	if len(exog) != len(endog) {
		return nil, fmt.Errorf(
			"predictors have %d rows, but response has a length of %d, %w",
			len(exog), len(endog), ErrDatasetLenMismatch,
		)
	}
	for i, row := range exog {
		if len(row) != len(exogNames) {
			return nil, fmt.Errorf(
				"row %d has %d predictors and %d names, %w",
				i, len(row), len(exogNames), ErrNameLenMismatch,
			)
		}
	}

	d := &Dataset{
		EndogName: endogName,
		ExogNames: exogNames,
		Endog:     endog,
		Exog:      exog,
	}
	return d.Copy(), nil
}

// Copy returns a deep copy of the dataset
func (d *Dataset) Copy() *Dataset {
	names := make([]string, len(d.ExogNames))
	copy(names, d.ExogNames)

	endog := make([]float64, len(d.Endog))
	copy(endog, d.Endog)

	exog := make([][]float64, len(d.Exog))
	for i, row := range d.Exog {
		exog[i] = make([]float64, len(row))
		copy(exog[i], row)
	}
	return &Dataset{
		EndogName: d.EndogName,
		ExogNames: names,
		Endog:     endog,
		Exog:      exog,
	}
}

// NumObs returns the number of observations
func (d *Dataset) NumObs() int {
	return len(d.Endog)
}

// X returns the predictors as an n x p design matrix without a constant column
func (d *Dataset) X() (*mat.Dense, error) {
	return mat_.NewDenseFromArray(d.Copy().Exog)
}

// Y returns the response as an n x 1 matrix
func (d *Dataset) Y() *mat.Dense {
	y := make([]float64, len(d.Endog))
	copy(y, d.Endog)
	return mat.NewDense(len(y), 1, y)
}

// Column returns a copy of the named predictor
func (d *Dataset) Column(name string) ([]float64, bool) {
	for j, n := range d.ExogNames {
		if n != name {
			continue
		}
		col := make([]float64, len(d.Exog))
		for i, row := range d.Exog {
			col[i] = row[j]
		}
		return col, true
	}
	return nil, false
}
