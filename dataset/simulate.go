package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrNoCoefficients    = errors.New("no coefficients to simulate with")
	ErrNegativeNoise     = errors.New("negative noise scale")
	ErrTooFewCategories  = errors.New("need at least 2 categories")
	ErrTooFewObservation = errors.New("fewer observations than categories")
)

// Series is a simulated response that can be built up additively
type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

// GenerateConstY returns a series of n copies of val
func GenerateConstY(n int, val float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Series(y)
}

// GenerateLinearY returns x * coef for a row-major predictor table
func GenerateLinearY(x [][]float64, coef []float64) Series {
	y := make([]float64, 0, len(x))
	for _, row := range x {
		y = append(y, floats.Dot(row, coef))
	}
	return Series(y)
}

// GenerateNoise returns n draws of zero mean Gaussian noise with standard deviation scale
func GenerateNoise(rng *rand.Rand, n int, scale float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, rng.NormFloat64()*scale)
	}
	return Series(y)
}

// NewRand returns a deterministic random source for the seed
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewLinear simulates y = intercept + x * coef + e with e ~ N(0, sigma^2). Predictors are drawn
// uniformly from [0, 10).
func NewLinear(n int, coef []float64, intercept, sigma float64, seed uint64) (*Dataset, error) {
	if n <= 0 {
		return nil, ErrNoObservations
	}
	if len(coef) == 0 {
		return nil, ErrNoCoefficients
	}
	if sigma < 0 {
		return nil, ErrNegativeNoise
	}

	rng := NewRand(seed)

	names := make([]string, len(coef))
	for j := range coef {
		names[j] = fmt.Sprintf("x%d", j+1)
	}

	exog := make([][]float64, n)
	for i := range exog {
		row := make([]float64, len(coef))
		for j := range row {
			row[j] = 10.0 * rng.Float64()
		}
		exog[i] = row
	}

	y := GenerateConstY(n, intercept).
		Add(GenerateLinearY(exog, coef)).
		Add(GenerateNoise(rng, n, sigma))

	return &Dataset{
		EndogName: "y",
		ExogNames: names,
		Endog:     y,
		Exog:      exog,
	}, nil
}

// Dummies one-hot encodes n observations evenly spread across ncat ordered categories.
// Observation i falls into category round(i * (ncat-1) / (n-1)).
func Dummies(n, ncat int) ([][]float64, error) {
	if ncat < 2 {
		return nil, ErrTooFewCategories
	}
	if n < ncat {
		return nil, fmt.Errorf("%d observations for %d categories, %w", n, ncat, ErrTooFewObservation)
	}

	out := make([][]float64, n)
	for i := range out {
		cat := int(math.RoundToEven(float64(i) * float64(ncat-1) / float64(n-1)))
		row := make([]float64, ncat)
		row[cat] = 1.0
		out[i] = row
	}
	return out, nil
}

// NewCategorical simulates a response whose mean depends only on the category of each
// observation, y = effects[cat] + e with e ~ N(0, sigma^2). The last category is the
// reference level, so the predictors are the dummies of the first len(effects)-1 categories.
func NewCategorical(n int, effects []float64, sigma float64, seed uint64) (*Dataset, error) {
	if sigma < 0 {
		return nil, ErrNegativeNoise
	}
	ncat := len(effects)
	dummies, err := Dummies(n, ncat)
	if err != nil {
		return nil, err
	}

	rng := NewRand(seed)
	y := GenerateLinearY(dummies, effects).Add(GenerateNoise(rng, n, sigma))

	names := make([]string, ncat-1)
	for j := range names {
		names[j] = fmt.Sprintf("cat%d", j)
	}
	exog := make([][]float64, n)
	for i, row := range dummies {
		exog[i] = row[:ncat-1]
	}

	return &Dataset{
		EndogName: "y",
		ExogNames: names,
		Endog:     y,
		Exog:      exog,
	}, nil
}
