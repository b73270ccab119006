package services

import "github.com/pkg/errors"

// 치명적 오류. 호출자는 errors.Is 로 판별
var (
	ErrFileNotFound    = errors.New("log file not found")
	ErrEmptyData       = errors.New("log file is empty")
	ErrNoTimestamp     = errors.New("no usable timestamp column")
	ErrModelNotTrained = errors.New("model not trained")
	ErrInvalidBundle   = errors.New("invalid model bundle")
	ErrFeatureMismatch = errors.New("feature matrix does not match trained model")
)
