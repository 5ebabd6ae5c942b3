package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrStageNotConfigured  = errors.New("no active model configured for stage")
	ErrModelNotRegistered  = errors.New("model not registered")
	ErrNoStageInput        = errors.New("no input available for stage")
)
