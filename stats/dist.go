// Package stats provides the distribution tails used to turn test statistics into p-values.
// Upper tails are computed from the complemented regularized incomplete beta function so
// small p-values keep their relative precision instead of cancelling in 1 - cdf.
package stats

import (
	"math"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

// FSF returns the survival function P(F > f) of the F distribution with (d1, d2) degrees of
// freedom. NaN is returned for non-positive degrees of freedom or a NaN statistic.
func FSF(f, d1, d2 float64) float64 {
	if !validDF(d1) || !validDF(d2) || math.IsNaN(f) {
		return math.NaN()
	}
	if f <= 0 {
		return 1.0
	}
	if math.IsInf(f, 1) {
		return 0.0
	}
	return mathext.RegIncBeta(d2/2.0, d1/2.0, d2/(d2+d1*f))
}

// FCDF returns P(F <= f) of the F distribution with (d1, d2) degrees of freedom.
func FCDF(f, d1, d2 float64) float64 {
	if !validDF(d1) || !validDF(d2) || math.IsNaN(f) {
		return math.NaN()
	}
	return distuv.F{D1: d1, D2: d2}.CDF(f)
}

// TSF returns the survival function P(T > t) of Student's t distribution with df degrees of
// freedom.
func TSF(t, df float64) float64 {
	if !validDF(df) || math.IsNaN(t) {
		return math.NaN()
	}
	tail := 0.5 * tailBeta(t, df)
	if t > 0 {
		return tail
	}
	return 1.0 - tail
}

// TTwoSided returns P(|T| > |t|) of Student's t distribution with df degrees of freedom.
func TTwoSided(t, df float64) float64 {
	if !validDF(df) || math.IsNaN(t) {
		return math.NaN()
	}
	return tailBeta(t, df)
}

// TQuantile returns the p-th quantile of the standard Student's t distribution.
func TQuantile(p, df float64) float64 {
	if !validDF(df) || math.IsNaN(p) || p < 0 || p > 1 {
		return math.NaN()
	}
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Quantile(p)
}

// tailBeta is the two-sided tail mass of a t statistic, I_{df/(df+t^2)}(df/2, 1/2)
func tailBeta(t, df float64) float64 {
	if math.IsInf(t, 0) {
		return 0.0
	}
	x := df / (df + t*t)
	return mathext.RegIncBeta(df/2.0, 0.5, x)
}

func validDF(df float64) bool {
	return df > 0 && !math.IsNaN(df)
}
