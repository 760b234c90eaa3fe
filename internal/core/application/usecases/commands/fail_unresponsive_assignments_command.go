package commands

import (
	"errors"
	"time"

	"dispatch/internal/pkg/guard"
)

var (
	ErrFailUnresponsiveAssignmentsCommandIsNotConstructed = errors.New(
		"FailUnresponsiveAssignmentsCommand must be created via NewFailUnresponsiveAssignmentsCommand constructor",
	)
	ErrResponseTimeoutIsInvalid = errors.New("response timeout must be greater than 0")
)

// FailUnresponsiveAssignmentsCommand represents a sweep request: fail every
// order whose assigned driver has not reported pickup within the timeout.
type FailUnresponsiveAssignmentsCommand struct { //nolint:recvcheck //using for validation
	responseTimeout time.Duration

	guard guard.ConstructorGuard
}

// NewFailUnresponsiveAssignmentsCommand creates a sweep command with the
// driver response timeout.
func NewFailUnresponsiveAssignmentsCommand(responseTimeout time.Duration) (FailUnresponsiveAssignmentsCommand, error) {
	cmd := FailUnresponsiveAssignmentsCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setResponseTimeout(responseTimeout); err != nil {
		return FailUnresponsiveAssignmentsCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c FailUnresponsiveAssignmentsCommand) Validate() error {
	return c.guard.Validate(ErrFailUnresponsiveAssignmentsCommandIsNotConstructed)
}

// ResponseTimeout returns how long an assigned driver may stay silent.
func (c FailUnresponsiveAssignmentsCommand) ResponseTimeout() time.Duration {
	return c.responseTimeout
}

func (c *FailUnresponsiveAssignmentsCommand) setResponseTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return ErrResponseTimeoutIsInvalid
	}

	c.responseTimeout = timeout
	return nil
}
