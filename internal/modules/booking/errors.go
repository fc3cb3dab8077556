package booking

import "errors"

var (
	ErrValidation  = errors.New("validation error")
	ErrUnavailable = errors.New("slot already booked or unavailable")
	ErrStorage     = errors.New("storage error")
)
