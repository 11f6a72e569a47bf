package contrast

import "errors"

var (
	ErrNoModel            = errors.New("no fitted model")
	ErrNoRestriction      = errors.New("no restriction provided")
	ErrDimensionMismatch  = errors.New("restriction columns do not match number of model coefficients")
	ErrRankDeficient      = errors.New("restriction matrix has linearly dependent rows")
	ErrSingularCovariance = errors.New("covariance of restriction cannot be inverted")
	ErrUnknownRankPolicy  = errors.New("unknown rank policy")
	ErrNegativeTolerance  = errors.New("negative rank tolerance")
)
