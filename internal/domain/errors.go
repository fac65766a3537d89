package domain

import "errors"

// ErrConfiguration is returned for invalid setup values such as a bad
// interval unit/magnitude or a malformed commission spec. It is raised
// synchronously at setup or first use, never from a timer loop.
var ErrConfiguration = errors.New("invalid configuration")
