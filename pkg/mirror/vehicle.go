// Package mirror keeps a local model of the vehicle that is fed the same
// commands as the real link. It exists for operator feedback only and never
// talks to the hardware.
package mirror

import (
	"errors"
	"time"

	"github.com/open-teleop/rovpilot/pkg/rov"
)

// SamplerPulse is how long the sampler relay stays energised per release.
const SamplerPulse = 250 * time.Millisecond

// State is the mirrored vehicle.
type State struct {
	Motors       [rov.MotorCount]int16 `json:"motors"`
	LightRelay   bool                  `json:"light_relay"`
	SamplerRelay bool                  `json:"sampler_relay"`
	RobotIsOn    bool                  `json:"robot_is_on"`

	// SamplesReleased counts released units; a release-all adds
	// rov.SampleAmountAll.
	SamplesReleased uint `json:"samples_released"`

	// SamplerRemaining is the time left on the current sampler pulse.
	SamplerRemaining time.Duration `json:"sampler_remaining_ns"`
}

// Vehicle owns a State and mutates it only through commands and Tick.
type Vehicle struct {
	state State
}

func New() *Vehicle {
	return &Vehicle{}
}

// Apply updates the mirror for one command. Commands the mirror cannot model
// and out-of-range motor ids return *rov.InvariantError and leave the state
// unchanged.
func (v *Vehicle) Apply(cmd rov.Command) error {
	switch cmd.Kind {
	case rov.KindControlMotor:
		if !cmd.Motor.Valid() {
			return &rov.InvariantError{Command: cmd, Reason: "motor index out of range"}
		}
		v.state.Motors[cmd.Motor] = cmd.Throttle
	case rov.KindLightsOn:
		v.state.LightRelay = true
	case rov.KindLightsOff:
		v.state.LightRelay = false
	case rov.KindMasterOn:
		v.state.RobotIsOn = true
	case rov.KindMasterOff:
		v.state.RobotIsOn = false
	case rov.KindCollectSamples:
		if cmd.Amount == 0 {
			return &rov.InvariantError{Command: cmd, Reason: "sample amount must be positive"}
		}
		v.state.SamplerRelay = true
		v.state.SamplerRemaining = SamplerPulse
		v.state.SamplesReleased += uint(cmd.Amount)
	default:
		return &rov.InvariantError{Command: cmd, Reason: "command not modeled by the mirror"}
	}
	return nil
}

// ApplyAll applies every command in order, continuing past rejected ones.
// The returned error joins every rejection.
func (v *Vehicle) ApplyAll(cmds []rov.Command) error {
	var errs []error
	for _, cmd := range cmds {
		if err := v.Apply(cmd); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Tick advances the sampler pulse by dt and releases the relay when it ends.
func (v *Vehicle) Tick(dt time.Duration) {
	if !v.state.SamplerRelay {
		return
	}
	v.state.SamplerRemaining -= dt
	if v.state.SamplerRemaining <= 0 {
		v.state.SamplerRemaining = 0
		v.state.SamplerRelay = false
	}
}

// Reset returns the mirror to a powered-down vehicle.
func (v *Vehicle) Reset() {
	v.state = State{}
}

// State returns a copy of the mirrored state.
func (v *Vehicle) State() State {
	return v.state
}
