package contrast

import "fmt"

// RankPolicy controls how F tests treat restriction matrices with linearly dependent rows.
type RankPolicy int

const (
	// RankReduce drops dependent rows and tests the remaining independent restrictions,
	// reporting the reduced rank as the numerator degrees of freedom.
	RankReduce RankPolicy = iota

	// RankStrict rejects restriction matrices with dependent rows.
	RankStrict
)

func (r RankPolicy) String() string {
	switch r {
	case RankReduce:
		return "reduce"
	case RankStrict:
		return "strict"
	default:
		return fmt.Sprintf("RankPolicy(%d)", int(r))
	}
}

// Options configures the F test
type Options struct {
	// RankPolicy decides what happens when the restriction rows are not independent
	RankPolicy RankPolicy `json:"rank_policy"`

	// RankTolerance is the singular value cutoff used to determine the row rank of the
	// restriction matrix. Non-positive values use max(r, k) * eps * largest singular value.
	RankTolerance float64 `json:"rank_tolerance"`
}

// NewDefaultOptions returns options that reduce dependent restrictions to their row rank
func NewDefaultOptions() *Options {
	return &Options{
		RankPolicy: RankReduce,
	}
}

// Validate runs basic validation on contrast options and returns a validated copy. The
// receiver is never modified.
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	switch o.RankPolicy {
	case RankReduce, RankStrict:
	default:
		return nil, fmt.Errorf("%s, %w", o.RankPolicy, ErrUnknownRankPolicy)
	}
	if o.RankTolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	cp := *o
	return &cp, nil
}
