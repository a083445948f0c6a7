package input

import (
	"fmt"
	"strings"
)

// EventType classifies a decoded controller event.
type EventType int

const (
	EventNone EventType = iota
	EventAxis
	EventButtonDown
	EventButtonUp
	EventKeyUp
	EventQuit
)

// Axis names a gamepad analog axis using the SDL game controller layout.
type Axis int

const (
	AxisNone Axis = iota
	AxisLeftX
	AxisLeftY
	AxisRightX
	AxisRightY
	AxisTriggerLeft
	AxisTriggerRight
)

// Button names a gamepad button using the SDL game controller layout.
type Button int

const (
	ButtonNone Button = iota
	ButtonA
	ButtonB
	ButtonX
	ButtonY
	ButtonBack
	ButtonGuide
	ButtonStart
	ButtonLeftStick
	ButtonRightStick
	ButtonLeftShoulder
	ButtonRightShoulder
	ButtonDPadUp
	ButtonDPadDown
	ButtonDPadLeft
	ButtonDPadRight
)

// Key names the few keyboard keys the sessions react to.
type Key int

const (
	KeyNone Key = iota
	KeyEscape
	KeyEnter
	KeyArrowUp
	KeyArrowDown
)

var eventTypeNames = []string{"none", "axis", "button_down", "button_up", "key_up", "quit"}

var axisNames = []string{"none", "left_x", "left_y", "right_x", "right_y", "trigger_left", "trigger_right"}

var buttonNames = []string{
	"none", "a", "b", "x", "y", "back", "guide", "start", "left_stick", "right_stick",
	"left_shoulder", "right_shoulder", "dpad_up", "dpad_down", "dpad_left", "dpad_right",
}

var keyNames = []string{"none", "escape", "enter", "up", "down"}

// Event is one decoded controller event. Value is only used by EventAxis and
// holds the normalized position in [-1, 1].
type Event struct {
	Type   EventType `json:"type"`
	Axis   Axis      `json:"axis,omitempty"`
	Button Button    `json:"button,omitempty"`
	Key    Key       `json:"key,omitempty"`
	Value  float64   `json:"value,omitempty"`
}

// NormalizeAxis maps a signed 16-bit reading onto [-1, 1): -32768 gives
// exactly -1 and 32767 gives just under 1.
func NormalizeAxis(raw int16) float64 {
	return float64(raw) / 32768.0
}

// AxisMotion builds an axis event from a raw signed 16-bit reading.
func AxisMotion(axis Axis, raw int16) Event {
	return Event{Type: EventAxis, Axis: axis, Value: NormalizeAxis(raw)}
}

// AxisValue builds an axis event from an already normalized value.
func AxisValue(axis Axis, v float64) Event {
	return Event{Type: EventAxis, Axis: axis, Value: v}
}

// Event constructors.
func ButtonDown(b Button) Event { return Event{Type: EventButtonDown, Button: b} }
func ButtonUp(b Button) Event   { return Event{Type: EventButtonUp, Button: b} }
func KeyUp(k Key) Event         { return Event{Type: EventKeyUp, Key: k} }
func Quit() Event               { return Event{Type: EventQuit} }

// IsQuit reports whether ev asks the active screen to terminate: an explicit
// quit or the escape key being released.
func (ev Event) IsQuit() bool {
	return ev.Type == EventQuit || (ev.Type == EventKeyUp && ev.Key == KeyEscape)
}

func (ev Event) String() string {
	switch ev.Type {
	case EventAxis:
		return fmt.Sprintf("axis(%s=%.3f)", ev.Axis, ev.Value)
	case EventButtonDown, EventButtonUp:
		return fmt.Sprintf("%s(%s)", ev.Type, ev.Button)
	case EventKeyUp:
		return fmt.Sprintf("key_up(%s)", ev.Key)
	default:
		return ev.Type.String()
	}
}

func (t EventType) String() string { return nameOf(eventTypeNames, int(t)) }
func (a Axis) String() string      { return nameOf(axisNames, int(a)) }
func (b Button) String() string    { return nameOf(buttonNames, int(b)) }
func (k Key) String() string       { return nameOf(keyNames, int(k)) }

func (t EventType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }
func (a Axis) MarshalText() ([]byte, error)      { return []byte(a.String()), nil }
func (b Button) MarshalText() ([]byte, error)    { return []byte(b.String()), nil }
func (k Key) MarshalText() ([]byte, error)       { return []byte(k.String()), nil }

// UnmarshalText accepts the names produced by MarshalText, case-insensitive.
func (t *EventType) UnmarshalText(b []byte) error {
	i, err := parseName(eventTypeNames, "event type", string(b))
	*t = EventType(i)
	return err
}

func (a *Axis) UnmarshalText(b []byte) error {
	i, err := parseName(axisNames, "axis", string(b))
	*a = Axis(i)
	return err
}

func (b *Button) UnmarshalText(text []byte) error {
	i, err := parseName(buttonNames, "button", string(text))
	*b = Button(i)
	return err
}

func (k *Key) UnmarshalText(b []byte) error {
	i, err := parseName(keyNames, "key", string(b))
	*k = Key(i)
	return err
}

func nameOf(names []string, i int) string {
	if i >= 0 && i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("unknown(%d)", i)
}

func parseName(names []string, what, value string) (int, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for i, n := range names {
		if n == normalized {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", what, value)
}
