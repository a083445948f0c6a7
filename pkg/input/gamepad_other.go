//go:build !linux

package input

import (
	"context"

	"github.com/open-teleop/rovpilot/pkg/log"
)

// Gamepad is unavailable off linux.
type Gamepad struct{}

var _ Source = (*Gamepad)(nil)

func OpenGamepad(path string, triggerMax int, logger log.Logger) (*Gamepad, error) {
	return nil, ErrUnsupported
}

func (g *Gamepad) Run(ctx context.Context, q *Queue) error {
	return ErrUnsupported
}

func (g *Gamepad) Close() error {
	return nil
}
