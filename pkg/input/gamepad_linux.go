//go:build linux

package input

import (
	"context"
	"fmt"

	"github.com/kenshaw/evdev"

	"github.com/open-teleop/rovpilot/pkg/log"
)

// Gamepad reads an evdev joystick device.
type Gamepad struct {
	path   string
	d      *evdev.Evdev
	tr     Translator
	logger log.Logger
}

var _ Source = (*Gamepad)(nil)

// OpenGamepad opens the evdev device at path, e.g. /dev/input/event5.
func OpenGamepad(path string, triggerMax int, logger log.Logger) (*Gamepad, error) {
	d, err := evdev.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input device '%s': %w", path, err)
	}
	logger.WithField("device", path).Infof("Opened gamepad %q", d.Name())
	return &Gamepad{
		path:   path,
		d:      d,
		tr:     Translator{TriggerMax: triggerMax},
		logger: logger.WithField("device", path),
	}, nil
}

// Run pushes translated events to q until ctx is done or the device goes away.
func (g *Gamepad) Run(ctx context.Context, q *Queue) error {
	ch := g.d.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case env, ok := <-ch:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrGamepadClosed
			}
			evs := g.tr.Translate(env.Event)
			if len(evs) > 0 {
				g.logger.Debugf("Input %v", evs)
				q.Push(evs...)
			}
		}
	}
}

func (g *Gamepad) Close() error {
	return g.d.Close()
}
