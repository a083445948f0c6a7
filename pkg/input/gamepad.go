package input

import (
	"context"
	"errors"
)

var (
	// ErrUnsupported is returned by OpenGamepad on platforms without evdev.
	ErrUnsupported = errors.New("gamepad input is only supported on linux")
	// ErrGamepadClosed is returned by Run when the device stops delivering events.
	ErrGamepadClosed = errors.New("gamepad event stream closed")
)

// Source produces controller events into a Queue until ctx is cancelled.
type Source interface {
	Run(ctx context.Context, q *Queue) error
	Close() error
}
