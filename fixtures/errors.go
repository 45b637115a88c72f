package fixtures

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEntityType is returned by CreateEntity when no factory is registered for a type.
	ErrUnknownEntityType = errors.New("unknown entity type")

	// ErrEntityCreationFailed is matched by EntityCreationFailedError.
	ErrEntityCreationFailed = errors.New("entity creation failed")
)

// EntityCreationFailedError means that the service did not accept a create request.
type EntityCreationFailedError struct {
	EntityType string
	Status     int
	StatusText string
	Body       string
}

func (e *EntityCreationFailedError) Error() string {
	msg := fmt.Sprintf("failed to create %s: HTTP %d %s", e.EntityType, e.Status, e.StatusText)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *EntityCreationFailedError) Is(target error) bool {
	return target == ErrEntityCreationFailed
}
