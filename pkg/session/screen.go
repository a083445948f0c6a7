// Package session runs the operator screens: serial port selection and the
// control session that turns controller input into vehicle commands.
package session

import (
	"fmt"

	"github.com/open-teleop/rovpilot/pkg/config"
	"github.com/open-teleop/rovpilot/pkg/control"
	"github.com/open-teleop/rovpilot/pkg/input"
	"github.com/open-teleop/rovpilot/pkg/journal"
	"github.com/open-teleop/rovpilot/pkg/link"
	"github.com/open-teleop/rovpilot/pkg/log"
	"github.com/open-teleop/rovpilot/pkg/telemetry"
)

// Renderer receives the snapshot of the active screen once per frame.
type Renderer interface {
	Render(s telemetry.Snapshot)
}

// Recorder receives one record per dispatch cycle that emitted commands.
type Recorder interface {
	Record(r journal.Record) bool
}

// Engine holds what every screen shares. Renderer and Recorder are
// optional.
type Engine struct {
	Input    *input.Queue
	Config   *config.Config
	Mixer    *control.Mixer
	Logger   log.Logger
	Renderer Renderer
	Recorder Recorder

	// Open connects to the vehicle at a serial device path.
	Open func(path string) (link.Channel, error)
}

func (e *Engine) render(s telemetry.Snapshot) {
	if e.Renderer != nil {
		e.Renderer.Render(s)
	}
}

// Kind selects the Screen variant.
type Kind int

const (
	KindPortSelect Kind = iota
	KindControl
)

func (k Kind) String() string {
	if k == KindControl {
		return telemetry.ScreenControl
	}
	return telemetry.ScreenPortSelect
}

// Screen is the closed set of screens. Exactly the field matching Kind is
// set.
type Screen struct {
	Kind    Kind
	Select  *PortSelect
	Control *RovControl
}

func SelectScreen(p *PortSelect) Screen  { return Screen{Kind: KindPortSelect, Select: p} }
func ControlScreen(c *RovControl) Screen { return Screen{Kind: KindControl, Control: c} }

// Action is what the host loop does after a frame.
type Action int

const (
	Continue Action = iota
	Quit
	Switch
)

// Trans is the result of one Update. Next is only used with Switch.
type Trans struct {
	Action Action
	Next   Screen
}

func (s Screen) valid() error {
	switch {
	case s.Kind == KindPortSelect && s.Select != nil:
		return nil
	case s.Kind == KindControl && s.Control != nil:
		return nil
	}
	return fmt.Errorf("screen %s has no state", s.Kind)
}

// Init prepares the screen before its first frame.
func (s Screen) Init(e *Engine) error {
	if err := s.valid(); err != nil {
		return err
	}
	if s.Kind == KindControl {
		return s.Control.Init(e)
	}
	return s.Select.Init(e)
}

// Update runs one frame.
func (s Screen) Update(e *Engine, frame Frame) Trans {
	if s.Kind == KindControl {
		return s.Control.Update(e, frame)
	}
	return s.Select.Update(e, frame)
}

// Close releases what the screen owns.
func (s Screen) Close(e *Engine) error {
	if s.Kind == KindControl && s.Control != nil {
		return s.Control.Close(e)
	}
	return nil
}
