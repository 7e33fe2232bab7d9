package model

import "errors"

var (
	ErrEmptyID         = errors.New("id is required")
	ErrDuplicateID     = errors.New("id already exists")
	ErrUnknownCategory = errors.New("unknown cost category")
	ErrUnknownRateType = errors.New("unknown rate type")
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrUnknownLine     = errors.New("cost line not found")
	ErrUnknownResource = errors.New("resource not found")
	ErrInvalidMonth    = errors.New("month is outside the financial year")
)
