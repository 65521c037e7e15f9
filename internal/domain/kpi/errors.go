package kpi

import "errors"

var (
	ErrNotFound       = errors.New("kpi not found")
	ErrForbidden      = errors.New("actor is not a participant of this kpi")
	ErrInvalidRatings = errors.New("invalid ratings")
	ErrNotRateable    = errors.New("kpi cannot be rated")
)
