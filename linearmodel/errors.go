package linearmodel

import (
	"errors"
)

var (
	ErrNoOptions          = errors.New("no initialized model options")
	ErrTargetLenMismatch  = errors.New("target length does not match target rows")
	ErrNoTrainingMatrix   = errors.New("no training matrix")
	ErrNoTargetMatrix     = errors.New("no target matrix")
	ErrNoDesignMatrix     = errors.New("no design matrix for inference")
	ErrFeatureLenMismatch = errors.New("number of features does not match number of model coefficients")
	ErrRankDeficient      = errors.New("design matrix is rank deficient")
	ErrNotFit             = errors.New("model has not been fit")
	ErrNegativeTolerance  = errors.New("negative rank tolerance")
	ErrNegativeCondition  = errors.New("negative condition number warning threshold")
	ErrInvalidAlpha       = errors.New("alpha must be between 0 and 1")
)
