package world

import (
	"errors"
	"fmt"

	"github.com/plus3/ecsrt/ecs/addon"
)

var (
	// ErrTornDown matches every UseAfterTeardownError.
	ErrTornDown = errors.New("world: handle torn down")
	// ErrDisabled matches every SubsystemDisabledError.
	ErrDisabled = errors.New("world: addon disabled")
	// ErrInvalidEntity is returned for dead or nil entity refs.
	ErrInvalidEntity = errors.New("world: entity reference is not valid")
)

// UseAfterTeardownError is returned by every operation on a closed World.
type UseAfterTeardownError struct {
	Op string
}

func (e *UseAfterTeardownError) Error() string {
	return fmt.Sprintf("world: %s called after teardown", e.Op)
}

func (e *UseAfterTeardownError) Is(target error) bool {
	return target == ErrTornDown
}

// SubsystemDisabledError is returned by operations whose addon is off.
type SubsystemDisabledError struct {
	Op    string
	Addon addon.ID
}

func (e *SubsystemDisabledError) Error() string {
	return fmt.Sprintf("world: %s requires the %s addon, which is disabled", e.Op, e.Addon)
}

func (e *SubsystemDisabledError) Is(target error) bool {
	return target == ErrDisabled
}
