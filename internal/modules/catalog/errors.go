package catalog

import "errors"

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("equipment not found")
	ErrForbidden  = errors.New("forbidden")
)
