package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/open-teleop/rovpilot/pkg/control"
	"github.com/open-teleop/rovpilot/pkg/journal"
	"github.com/open-teleop/rovpilot/pkg/link"
	"github.com/open-teleop/rovpilot/pkg/mirror"
	"github.com/open-teleop/rovpilot/pkg/rov"
	"github.com/open-teleop/rovpilot/pkg/telemetry"
)

// recentResponses is how many vehicle responses a snapshot carries.
const recentResponses = 16

// State of a control session.
type State int

const (
	Active State = iota
	Terminating
)

func (s State) String() string {
	if s == Terminating {
		return "terminating"
	}
	return "active"
}

// RovControl is the control session. It owns the channel (nil when running
// without hardware) and the mirror, and is driven by a single goroutine.
type RovControl struct {
	port    string
	channel link.Channel
	vehicle *mirror.Vehicle

	current  control.ControlState
	previous control.ControlState

	state        State
	lastDispatch time.Time
	cycles       uint64

	// resync is set after a failed send; the next cycle sends the absolute
	// command set instead of a diff.
	resync        bool
	failureStreak int
	lastError     string

	firmware  string
	responses []rov.Response
}

// NewRovControl creates a session on channel, which may be nil.
func NewRovControl(port string, channel link.Channel) *RovControl {
	return &RovControl{
		port:    port,
		channel: channel,
		vehicle: mirror.New(),
	}
}

// State reports whether the session is still active.
func (c *RovControl) State() State {
	return c.state
}

// Init puts the vehicle in a known state: master off, motors stopped,
// lights off. A link failure here is unrecoverable.
func (c *RovControl) Init(e *Engine) error {
	baseline := e.Mixer.Resync(c.current)
	if err := c.vehicle.ApplyAll(baseline); err != nil {
		return err
	}
	if c.channel == nil {
		e.Logger.Infof("No vehicle link, running the control session against the mirror only")
		return nil
	}
	for _, cmd := range baseline {
		if err := c.channel.SendCommand(cmd); err != nil {
			return fmt.Errorf("failed to initialize vehicle on '%s': %w", c.port, err)
		}
	}
	e.Logger.WithField("port", c.port).Infof("Control session started")
	return nil
}

// Update runs one frame: input, dispatch when due, responses, render.
func (c *RovControl) Update(e *Engine, frame Frame) Trans {
	if c.state == Terminating {
		return Trans{Action: Quit}
	}

	for _, ev := range e.Input.Drain() {
		if ev.IsQuit() {
			c.state = Terminating
			return Trans{Action: Quit}
		}
		c.current.Apply(ev)
	}

	if frame.Now.Sub(c.lastDispatch) >= e.Config.Control.DispatchInterval() {
		c.dispatch(e, frame.Now)
	}
	c.vehicle.Tick(frame.Delta)

	c.drainResponses(e)

	e.render(c.Snapshot(frame.Now))
	return Trans{Action: Continue}
}

// dispatch runs one cycle. The first failed send ends the cycle and the
// next cycle resyncs.
func (c *RovControl) dispatch(e *Engine, now time.Time) {
	resync := c.resync
	var cmds []rov.Command
	if resync {
		cmds = e.Mixer.Resync(c.current)
	} else {
		cmds = e.Mixer.Diff(c.previous, c.current)
	}

	if err := c.vehicle.ApplyAll(cmds); err != nil {
		e.Logger.Errorf("Mirror rejected commands: %v", err)
	}

	failed := 0
	var sendErr error
	if c.channel != nil {
		for i, cmd := range cmds {
			if err := c.channel.SendCommand(cmd); err != nil {
				failed = len(cmds) - i
				sendErr = err
				break
			}
		}
	}
	c.noteSendResult(e, sendErr)

	c.current = c.current.Consumed()
	c.previous = c.current
	c.lastDispatch = now
	c.cycles++

	if len(cmds) > 0 && e.Recorder != nil {
		r := journal.Record{
			Time:     now,
			Port:     c.port,
			Cycle:    c.cycles,
			Resync:   resync,
			Commands: cmds,
			Failed:   failed,
		}
		if sendErr != nil {
			r.Error = sendErr.Error()
		}
		e.Recorder.Record(r)
	}
}

// noteSendResult logs the first failure of a streak and a summary once the
// link recovers.
func (c *RovControl) noteSendResult(e *Engine, err error) {
	if err == nil {
		if c.failureStreak > 0 {
			e.Logger.Infof("Vehicle link recovered after %d failed cycles", c.failureStreak)
		}
		c.failureStreak = 0
		c.resync = false
		return
	}

	c.failureStreak++
	c.resync = true
	c.lastError = err.Error()
	if c.failureStreak == 1 {
		e.Logger.Warnf("Command send failed, resyncing next cycle: %v", err)
	}
	if errors.Is(err, link.ErrEncoding) {
		e.Logger.Errorf("Internal error encoding command: %v", err)
	}
}

func (c *RovControl) drainResponses(e *Engine) {
	if c.channel == nil {
		return
	}
	for _, r := range c.channel.PollResponses() {
		switch r.Kind {
		case rov.ResponseHello:
			c.firmware = r.Text
			if err := link.CheckFirmware(r.Text, e.Config.Firmware.Constraint); err != nil {
				e.Logger.Warnf("Vehicle firmware check failed: %v", err)
				c.lastError = err.Error()
			} else {
				e.Logger.Infof("Vehicle firmware %s", r.Text)
			}
		case rov.ResponseFault:
			e.Logger.Errorf("Vehicle fault: %s", r.Text)
			c.lastError = r.Text
		case rov.ResponseLog:
			e.Logger.Infof("Vehicle: %s", r.Text)
		default:
			e.Logger.Debugf("Vehicle response %v", r)
		}

		c.responses = append(c.responses, r)
		if len(c.responses) > recentResponses {
			c.responses = c.responses[len(c.responses)-recentResponses:]
		}
	}
}

// Snapshot describes the session for the operator.
func (c *RovControl) Snapshot(now time.Time) telemetry.Snapshot {
	s := telemetry.Snapshot{
		Time:      now,
		Screen:    telemetry.ScreenControl,
		Port:      c.port,
		Online:    c.channel != nil,
		Firmware:  c.firmware,
		Control:   c.current,
		Mirror:    c.vehicle.State(),
		Cycles:    c.cycles,
		LastError: c.lastError,
		Link: telemetry.LinkStatus{
			FailureStreak: c.failureStreak,
			Resyncing:     c.resync,
		},
	}
	if stats, ok := c.channel.(interface{ Stats() link.Stats }); ok {
		s.Link.Stats = stats.Stats()
	}
	if len(c.responses) > 0 {
		s.Responses = append([]rov.Response(nil), c.responses...)
	}
	return s
}

// Close stops the motors on a best-effort basis and releases the channel.
func (c *RovControl) Close(e *Engine) error {
	c.state = Terminating
	if c.channel == nil {
		return nil
	}
	for _, id := range rov.Motors() {
		if err := c.channel.SendCommand(rov.ControlMotor(id, 0)); err != nil {
			e.Logger.Warnf("Failed to stop motors on exit: %v", err)
			break
		}
	}
	if err := c.channel.Close(); err != nil {
		return fmt.Errorf("failed to close vehicle link: %w", err)
	}
	return nil
}
