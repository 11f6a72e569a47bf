package linearmodel

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrMinimumFeatures     = errors.New("need at least 2 features to compute VIF")
	ErrFeatureLen          = errors.New("must have at least 2 points per feature")
	ErrFeatureSizeMismatch = errors.New("some feature length is not consistent")
)

// VarianceInflationFactor regresses every feature on the remaining features plus an intercept
// and returns 1 / (1 - R^2) per feature. Values well above 10 indicate the feature is close to
// a linear combination of the others, which inflates the variance of its coefficient.
func VarianceInflationFactor(features map[string][]float64) (map[string]float64, error) {
	if len(features) < 2 {
		return nil, ErrMinimumFeatures
	}

	labels := make([]string, 0, len(features))
	var m int
	for label, feature := range features {
		if len(feature) < 2 {
			return nil, fmt.Errorf("%s, %w", label, ErrFeatureLen)
		}
		if m == 0 {
			m = len(feature)
		}
		if m != len(feature) {
			return nil, fmt.Errorf("%s, %w", label, ErrFeatureSizeMismatch)
		}
		labels = append(labels, label)
	}
	sort.Strings(labels)

	n := len(labels)
	opt := NewDefaultOLSOptions()
	opt.ConditionWarn = math.Inf(1)

	vif := make(map[string]float64, n)
	for _, label := range labels {
		x := mat.NewDense(m, n-1, nil)
		c := 0
		for _, other := range labels {
			if other == label {
				continue
			}
			x.SetCol(c, features[other])
			c++
		}
		y := mat.NewDense(m, 1, append([]float64(nil), features[label]...))

		res, err := Fit(x, y, opt)
		if err != nil {
			return nil, fmt.Errorf("unable to regress %s on remaining features, %w", label, err)
		}
		vif[label] = 1.0 / (1.0 - res.RSquared())
	}
	return vif, nil
}
