package control

import (
	"math"

	"github.com/open-teleop/rovpilot/pkg/input"
)

// ThrustMode scales every motor output.
type ThrustMode int

const (
	ThrustNormal ThrustMode = iota
	ThrustEmergency
)

func (m ThrustMode) String() string {
	if m == ThrustEmergency {
		return "emergency"
	}
	return "normal"
}

func (m ThrustMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// SamplerReleaseMode selects how many sampler units one release asks for.
type SamplerReleaseMode int

const (
	ReleaseOne SamplerReleaseMode = iota
	ReleaseAll
)

func (m SamplerReleaseMode) String() string {
	if m == ReleaseAll {
		return "all"
	}
	return "one"
}

func (m SamplerReleaseMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// ControlState is a snapshot of operator intent. It is a plain value: copy it
// to keep a previous snapshot.
type ControlState struct {
	ForwardThrust    float64 `json:"forward_thrust"`
	SidewaysThrust   float64 `json:"sideways_thrust"`
	RotationalThrust float64 `json:"rotational_thrust"`
	AscentThrust     float64 `json:"ascent_thrust"`
	DescentThrust    float64 `json:"descent_thrust"`

	PowerMaster bool `json:"power_master"`
	PowerLights bool `json:"power_lights"`

	// SamplerRelease is one-shot. The session clears it after every
	// dispatch cycle.
	SamplerRelease bool `json:"sampler_release"`

	ThrustMode         ThrustMode         `json:"thrust_mode"`
	SamplerReleaseMode SamplerReleaseMode `json:"sampler_release_mode"`

	// held has one bit per input.Button that is currently down, so a
	// repeated button-down does not toggle twice.
	held uint32
}

// Apply folds one controller event into the state. Each mapped event touches
// exactly one field; anything else is ignored.
func (s *ControlState) Apply(ev input.Event) {
	switch ev.Type {
	case input.EventAxis:
		s.applyAxis(ev.Axis, clampUnit(ev.Value))
	case input.EventButtonDown:
		if s.isHeld(ev.Button) {
			return
		}
		s.setHeld(ev.Button, true)
		s.buttonDown(ev.Button)
	case input.EventButtonUp:
		s.setHeld(ev.Button, false)
		s.buttonUp(ev.Button)
	}
}

func (s *ControlState) applyAxis(axis input.Axis, v float64) {
	switch axis {
	case input.AxisLeftY:
		s.ForwardThrust = v
	case input.AxisLeftX:
		s.SidewaysThrust = v
	case input.AxisRightX:
		s.RotationalThrust = v
	case input.AxisTriggerLeft:
		s.AscentThrust = v
	case input.AxisTriggerRight:
		s.DescentThrust = v
	}
}

func (s *ControlState) buttonDown(b input.Button) {
	switch b {
	case input.ButtonY:
		s.PowerLights = !s.PowerLights
	case input.ButtonStart:
		s.PowerMaster = !s.PowerMaster
	case input.ButtonB:
		s.SamplerRelease = true
	case input.ButtonRightShoulder:
		s.ThrustMode = ThrustEmergency
	case input.ButtonLeftShoulder:
		s.SamplerReleaseMode = ReleaseAll
	}
}

func (s *ControlState) buttonUp(b input.Button) {
	switch b {
	case input.ButtonRightShoulder:
		s.ThrustMode = ThrustNormal
	case input.ButtonLeftShoulder:
		s.SamplerReleaseMode = ReleaseOne
	}
}

func (s *ControlState) isHeld(b input.Button) bool {
	if b <= 0 || b >= 32 {
		return false
	}
	return s.held&(1<<uint(b)) != 0
}

func (s *ControlState) setHeld(b input.Button, down bool) {
	if b <= 0 || b >= 32 {
		return
	}
	if down {
		s.held |= 1 << uint(b)
	} else {
		s.held &^= 1 << uint(b)
	}
}

// Consumed returns s with the one-shot fields cleared. The session stores
// the result as the previous snapshot and as the new current state.
func (s ControlState) Consumed() ControlState {
	s.SamplerRelease = false
	return s
}

// Axes returns the thrust axes in mixing column order: forward, sideways,
// rotational, ascent, descent.
func (s ControlState) Axes() [5]float64 {
	return [5]float64{s.ForwardThrust, s.SidewaysThrust, s.RotationalThrust, s.AscentThrust, s.DescentThrust}
}

func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
