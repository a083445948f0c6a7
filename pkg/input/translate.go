package input

import "github.com/kenshaw/evdev"

// kernelButtons follows the xpad driver, which names buttons after the
// face labels: BtnX is the X button and BtnY the Y button.
var kernelButtons = map[evdev.KeyType]Button{
	evdev.BtnA:      ButtonA,
	evdev.BtnB:      ButtonB,
	evdev.BtnX:      ButtonX,
	evdev.BtnY:      ButtonY,
	evdev.BtnTL:     ButtonLeftShoulder,
	evdev.BtnTR:     ButtonRightShoulder,
	evdev.BtnSelect: ButtonBack,
	evdev.BtnStart:  ButtonStart,
	evdev.BtnMode:   ButtonGuide,
	evdev.BtnThumbL: ButtonLeftStick,
	evdev.BtnThumbR: ButtonRightStick,
}

var kernelKeys = map[evdev.KeyType]Key{
	evdev.KeyEscape: KeyEscape,
	evdev.KeyEnter:  KeyEnter,
	evdev.KeyUp:     KeyArrowUp,
	evdev.KeyDown:   KeyArrowDown,
}

// Translator turns raw kernel input events into Events. The D-pad reports as
// a hat axis, so the translator remembers the last hat position to emit the
// matching button-up.
type Translator struct {
	// TriggerMax is the full-scale trigger reading (1023 on xpad).
	TriggerMax int

	hatX, hatY int32
}

// Translate maps one kernel event. Unmapped codes and key auto-repeat give
// no events.
func (t *Translator) Translate(ev evdev.Event) []Event {
	switch ev.Type {
	case evdev.EventKey:
		return t.key(evdev.KeyType(ev.Code), ev.Value)
	case evdev.EventAbsolute:
		return t.abs(evdev.AbsoluteType(ev.Code), ev.Value)
	}
	return nil
}

func (t *Translator) key(code evdev.KeyType, value int32) []Event {
	if value == 2 {
		return nil
	}
	if b, ok := kernelButtons[code]; ok {
		if value == 1 {
			return []Event{ButtonDown(b)}
		}
		return []Event{ButtonUp(b)}
	}
	if k, ok := kernelKeys[code]; ok && value == 0 {
		return []Event{KeyUp(k)}
	}
	return nil
}

func (t *Translator) abs(code evdev.AbsoluteType, value int32) []Event {
	switch code {
	case evdev.AbsoluteX:
		return []Event{AxisMotion(AxisLeftX, clampInt16(value))}
	case evdev.AbsoluteY:
		return []Event{AxisMotion(AxisLeftY, clampInt16(value))}
	case evdev.AbsoluteRX:
		return []Event{AxisMotion(AxisRightX, clampInt16(value))}
	case evdev.AbsoluteRY:
		return []Event{AxisMotion(AxisRightY, clampInt16(value))}
	case evdev.AbsoluteZ:
		return []Event{AxisMotion(AxisTriggerLeft, t.trigger(value))}
	case evdev.AbsoluteRZ:
		return []Event{AxisMotion(AxisTriggerRight, t.trigger(value))}
	case evdev.AbsoluteHat0X:
		evs := hatEvents(t.hatX, value, ButtonDPadLeft, ButtonDPadRight)
		t.hatX = value
		return evs
	case evdev.AbsoluteHat0Y:
		evs := hatEvents(t.hatY, value, ButtonDPadUp, ButtonDPadDown)
		t.hatY = value
		return evs
	}
	return nil
}

// trigger rescales a 0..TriggerMax reading onto 0..32767 like SDL does.
func (t *Translator) trigger(value int32) int16 {
	full := int64(t.TriggerMax)
	if full <= 0 {
		full = 1023
	}
	return clampInt16(int32(int64(value) * 32767 / full))
}

func hatEvents(prev, next int32, neg, pos Button) []Event {
	if prev == next {
		return nil
	}
	var evs []Event
	switch {
	case prev < 0:
		evs = append(evs, ButtonUp(neg))
	case prev > 0:
		evs = append(evs, ButtonUp(pos))
	}
	switch {
	case next < 0:
		evs = append(evs, ButtonDown(neg))
	case next > 0:
		evs = append(evs, ButtonDown(pos))
	}
	return evs
}

func clampInt16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
