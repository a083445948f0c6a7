package session

import (
	"errors"
	"fmt"
	"time"
)

// Frame is the timing of one host loop iteration.
type Frame struct {
	Now   time.Time
	Delta time.Duration
}

// Run drives screen until it quits. The active screen is closed on every
// exit path. A screen that fails to initialize ends the run with an error.
func Run(e *Engine, screen Screen) (err error) {
	if err := screen.Init(e); err != nil {
		if closeErr := screen.Close(e); closeErr != nil {
			e.Logger.Warnf("Failed to close screen: %v", closeErr)
		}
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer func() {
		err = errors.Join(err, screen.Close(e))
	}()

	ticker := time.NewTicker(e.Config.Control.FrameInterval())
	defer ticker.Stop()

	prev := time.Now()
	for {
		now := time.Now()
		trans := screen.Update(e, Frame{Now: now, Delta: now.Sub(prev)})
		prev = now

		switch trans.Action {
		case Quit:
			e.Logger.Infof("Leaving %s screen", screen.Kind)
			return nil
		case Switch:
			if err := trans.Next.Init(e); err != nil {
				if closeErr := trans.Next.Close(e); closeErr != nil {
					e.Logger.Warnf("Failed to close screen: %v", closeErr)
				}
				return fmt.Errorf("failed to initialize screen: %w", err)
			}
			if err := screen.Close(e); err != nil {
				e.Logger.Warnf("Failed to close %s screen: %v", screen.Kind, err)
			}
			e.Logger.Infof("Switched from %s to %s screen", screen.Kind, trans.Next.Kind)
			screen = trans.Next
		}

		<-ticker.C
	}
}
