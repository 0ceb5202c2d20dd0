package domain

import "errors"

// ErrValidation marks caller input that was rejected before any network call.
var ErrValidation = errors.New("validation error")
