package rov

import (
	"fmt"

	"github.com/open-teleop/rovpilot/pkg/flatbuffers/rov/message"
)

// MotorCount is the number of thrusters on the vehicle.
const MotorCount = 6

// SampleAmountAll asks the sampler to release every loaded unit.
const SampleAmountAll uint8 = 255

// MotorID indexes one of the vehicle thrusters. Only values below MotorCount
// are valid; use NewMotorID to build one from an untrusted integer.
type MotorID uint8

// NewMotorID validates i as a thruster index.
func NewMotorID(i int) (MotorID, error) {
	if i < 0 || i >= MotorCount {
		return 0, &InvariantError{Reason: fmt.Sprintf("motor index %d out of range [0, %d)", i, MotorCount)}
	}
	return MotorID(i), nil
}

// Valid reports whether m addresses an existing thruster.
func (m MotorID) Valid() bool {
	return m < MotorCount
}

// Motors lists every valid MotorID in order.
func Motors() [MotorCount]MotorID {
	var ids [MotorCount]MotorID
	for i := range ids {
		ids[i] = MotorID(i)
	}
	return ids
}

// CommandKind tags the Command variant. Values match the wire enum.
type CommandKind uint8

const (
	KindNone           = CommandKind(message.CommandKindNONE)
	KindControlMotor   = CommandKind(message.CommandKindCONTROL_MOTOR)
	KindCollectSamples = CommandKind(message.CommandKindCOLLECT_SAMPLES)
	KindLightsOn       = CommandKind(message.CommandKindLIGHTS_ON)
	KindLightsOff      = CommandKind(message.CommandKindLIGHTS_OFF)
	KindMasterOn       = CommandKind(message.CommandKindMASTER_ON)
	KindMasterOff      = CommandKind(message.CommandKindMASTER_OFF)
)

var commandKindNames = map[CommandKind]string{
	KindNone:           "none",
	KindControlMotor:   "control_motor",
	KindCollectSamples: "collect_samples",
	KindLightsOn:       "lights_on",
	KindLightsOff:      "lights_off",
	KindMasterOn:       "master_on",
	KindMasterOff:      "master_off",
}

func (k CommandKind) String() string {
	if s, ok := commandKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("command_kind(%d)", uint8(k))
}

// MarshalText renders the kind by name for JSON payloads.
func (k CommandKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a name produced by MarshalText.
func (k *CommandKind) UnmarshalText(b []byte) error {
	for kind, name := range commandKindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown command kind %q", string(b))
}

// Known reports whether k is one of the declared command variants.
func (k CommandKind) Known() bool {
	return k >= KindControlMotor && k <= KindMasterOff
}

// Command is one discrete instruction for the vehicle. Only the fields
// belonging to Kind are meaningful: Motor and Throttle for ControlMotor,
// Amount for CollectSamples. Commands are values and compare with ==.
type Command struct {
	Kind     CommandKind `json:"kind"`
	Motor    MotorID     `json:"motor,omitempty"`
	Throttle int16       `json:"throttle,omitempty"`
	Amount   uint8       `json:"amount,omitempty"`
}

func ControlMotor(id MotorID, throttle int16) Command {
	return Command{Kind: KindControlMotor, Motor: id, Throttle: throttle}
}

func CollectSamples(amount uint8) Command {
	return Command{Kind: KindCollectSamples, Amount: amount}
}

func LightsOn() Command  { return Command{Kind: KindLightsOn} }
func LightsOff() Command { return Command{Kind: KindLightsOff} }
func MasterOn() Command  { return Command{Kind: KindMasterOn} }
func MasterOff() Command { return Command{Kind: KindMasterOff} }

// Validate rejects unknown kinds, out-of-range motor ids and sample
// requests for zero units.
func (c Command) Validate() error {
	if !c.Kind.Known() {
		return &InvariantError{Command: c, Reason: "unknown command kind"}
	}
	if c.Kind == KindControlMotor && !c.Motor.Valid() {
		return &InvariantError{Command: c, Reason: fmt.Sprintf("motor index %d out of range [0, %d)", c.Motor, MotorCount)}
	}
	if c.Kind == KindCollectSamples && c.Amount == 0 {
		return &InvariantError{Command: c, Reason: "sample amount must be at least 1"}
	}
	return nil
}

func (c Command) String() string {
	switch c.Kind {
	case KindControlMotor:
		return fmt.Sprintf("control_motor(id=%d, throttle=%d)", c.Motor, c.Throttle)
	case KindCollectSamples:
		if c.Amount == SampleAmountAll {
			return "collect_samples(all)"
		}
		return fmt.Sprintf("collect_samples(%d)", c.Amount)
	default:
		return c.Kind.String()
	}
}
