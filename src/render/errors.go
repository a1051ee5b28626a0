package render

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

var (
	// ErrMissingCapability is returned when a required extension or layer is not available.
	ErrMissingCapability = errors.New("required capability not available")
	// ErrNameTooLong is returned when a capability name does not fit the driver's name field.
	ErrNameTooLong = errors.New("capability name exceeds name field size")
	// ErrNoPhysicalDevice is returned when the instance enumerates no physical devices.
	ErrNoPhysicalDevice = errors.New("no physical devices available")
	// ErrNoGraphicsQueue is returned when no queue family has the graphics bit.
	ErrNoGraphicsQueue = errors.New("no queue family supports graphics")
	// ErrNoPresentQueue is returned when no queue family can present to the surface.
	ErrNoPresentQueue = errors.New("no queue family supports presentation")
	// ErrDispatchLoad is returned when the dispatch table of a live handle cannot be loaded.
	ErrDispatchLoad = errors.New("failed to load dispatch table")
)

// ResultError is a non-success vk.Result returned by a native call.
type ResultError struct {
	Op     string
	Result vk.Result
}

func (e *ResultError) Error() string {
	if err := vk.Error(e.Result); err != nil {
		return fmt.Sprintf("%s: %v (%d)", e.Op, err, e.Result)
	}
	return fmt.Sprintf("%s: vulkan result %d", e.Op, e.Result)
}

// DispatchError is returned when the full dispatch table of a live handle could
// not be loaded. It matches ErrDispatchLoad and unwraps to the loader's error.
type DispatchError struct {
	Handle string
	Err    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Handle, ErrDispatchLoad, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

func (e *DispatchError) Is(target error) bool { return target == ErrDispatchLoad }

// NewError returns nil for vk.Success, otherwise a *ResultError carrying a stack.
func NewError(op string, retVal vk.Result) error {
	if !IsError(retVal) {
		return nil
	}
	return errors.WithStack(&ResultError{Op: op, Result: retVal})
}

func IsError(retVal vk.Result) bool {
	return retVal != vk.Success
}

// OrPanic runs the finalizers in order and panics when err is non-nil. It is used
// for calls that cannot fail under correct usage, such as the fill half of a
// count-then-fill enumeration.
func OrPanic(err error, finalizers ...func()) {
	if err == nil {
		return
	}
	for _, fn := range finalizers {
		fn()
	}
	panic(err)
}

// CheckError converts a panic raised by OrPanic back into an error. It must be
// deferred before any rollback so that rollbacks run first.
func CheckError(err *error) {
	if v := recover(); v != nil {
		if e, ok := v.(error); ok {
			*err = e
			return
		}
		*err = errors.Errorf("%+v", v)
	}
}
