package service

import "errors"

// ErrInvalidInput is returned when a request reaches a service with values
// that the domain rejects outright.
var ErrInvalidInput = errors.New("invalid input")
