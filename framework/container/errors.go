package container

import "errors"

var (
	// ErrServiceNotRegistered means that neither the container nor any of its ancestors has a
	// registration for the requested token.
	ErrServiceNotRegistered = errors.New("service not registered")

	// ErrServiceTypeMismatch means that a token resolved to a value of an unexpected type.
	ErrServiceTypeMismatch = errors.New("resolved service has unexpected type")
)
