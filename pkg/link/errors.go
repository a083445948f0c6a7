package link

import (
	"errors"
	"fmt"

	"github.com/open-teleop/rovpilot/pkg/rov"
)

// Sentinels matched by LinkError through errors.Is.
var (
	ErrDisconnected = errors.New("link disconnected")
	ErrTimeout      = errors.New("link write timed out")
	ErrEncoding     = errors.New("command encoding failed")
)

// LinkErrorKind classifies a failed send.
type LinkErrorKind int

const (
	Disconnected LinkErrorKind = iota
	Timeout
	EncodingError
)

func (k LinkErrorKind) sentinel() error {
	switch k {
	case Timeout:
		return ErrTimeout
	case EncodingError:
		return ErrEncoding
	default:
		return ErrDisconnected
	}
}

func (k LinkErrorKind) String() string {
	return k.sentinel().Error()
}

// LinkError is returned by Channel.SendCommand.
type LinkError struct {
	Kind    LinkErrorKind
	Command rov.Command
	Err     error
}

func (e *LinkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to send %s: %s: %v", e.Command, e.Kind, e.Err)
	}
	return fmt.Sprintf("failed to send %s: %s", e.Command, e.Kind)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrTimeout) and friends match on Kind.
func (e *LinkError) Is(target error) bool {
	return target == e.Kind.sentinel()
}
