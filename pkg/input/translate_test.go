package input

import (
	"testing"

	"github.com/kenshaw/evdev"
)

func keyEvent(code evdev.KeyType, value int32) evdev.Event {
	return evdev.Event{Type: evdev.EventKey, Code: uint16(code), Value: value}
}

func absEvent(code evdev.AbsoluteType, value int32) evdev.Event {
	return evdev.Event{Type: evdev.EventAbsolute, Code: uint16(code), Value: value}
}

func TestTranslateButtons(t *testing.T) {
	tr := &Translator{TriggerMax: 1023}

	evs := tr.Translate(keyEvent(evdev.BtnY, 1))
	if len(evs) != 1 || evs[0] != ButtonDown(ButtonY) {
		t.Errorf("Expected Y down, got %v", evs)
	}
	evs = tr.Translate(keyEvent(evdev.BtnTR, 0))
	if len(evs) != 1 || evs[0] != ButtonUp(ButtonRightShoulder) {
		t.Errorf("Expected right shoulder up, got %v", evs)
	}
	if evs := tr.Translate(keyEvent(evdev.BtnA, 2)); evs != nil {
		t.Errorf("Auto-repeat should be dropped, got %v", evs)
	}
	if evs := tr.Translate(keyEvent(evdev.KeyEscape, 1)); evs != nil {
		t.Errorf("Escape press should be ignored, got %v", evs)
	}
	evs = tr.Translate(keyEvent(evdev.KeyEscape, 0))
	if len(evs) != 1 || !evs[0].IsQuit() {
		t.Errorf("Escape release should quit, got %v", evs)
	}
}

func TestTranslateButtonMapping(t *testing.T) {
	cases := []struct {
		code evdev.KeyType
		want Button
	}{
		{evdev.BtnA, ButtonA},
		{evdev.BtnB, ButtonB},
		{evdev.BtnX, ButtonX},
		{evdev.BtnY, ButtonY},
		{evdev.BtnTL, ButtonLeftShoulder},
		{evdev.BtnTR, ButtonRightShoulder},
		{evdev.BtnSelect, ButtonBack},
		{evdev.BtnStart, ButtonStart},
		{evdev.BtnMode, ButtonGuide},
		{evdev.BtnThumbL, ButtonLeftStick},
		{evdev.BtnThumbR, ButtonRightStick},
	}

	tr := &Translator{}
	for _, tc := range cases {
		evs := tr.Translate(keyEvent(tc.code, 1))
		if len(evs) != 1 || evs[0] != ButtonDown(tc.want) {
			t.Errorf("Code 0x%x: expected %v down, got %v", uint16(tc.code), tc.want, evs)
		}
	}
}

func TestTranslateKeys(t *testing.T) {
	tr := &Translator{}

	cases := []struct {
		code evdev.KeyType
		want Key
	}{
		{evdev.KeyEnter, KeyEnter},
		{evdev.KeyUp, KeyArrowUp},
		{evdev.KeyDown, KeyArrowDown},
	}
	for _, tc := range cases {
		evs := tr.Translate(keyEvent(tc.code, 0))
		if len(evs) != 1 || evs[0] != KeyUp(tc.want) {
			t.Errorf("Expected key_up(%v), got %v", tc.want, evs)
		}
	}
}

func TestTranslateAxes(t *testing.T) {
	tr := &Translator{TriggerMax: 1023}

	evs := tr.Translate(absEvent(evdev.AbsoluteY, -32768))
	if len(evs) != 1 || evs[0].Axis != AxisLeftY || evs[0].Value != -1.0 {
		t.Errorf("Expected left_y -1.0, got %v", evs)
	}

	evs = tr.Translate(absEvent(evdev.AbsoluteRZ, 1023))
	if len(evs) != 1 || evs[0] != AxisMotion(AxisTriggerRight, 32767) {
		t.Errorf("Expected full right trigger, got %v", evs)
	}

	evs = tr.Translate(absEvent(evdev.AbsoluteZ, 0))
	if len(evs) != 1 || evs[0].Value != 0 {
		t.Errorf("Expected released left trigger, got %v", evs)
	}

	if evs := tr.Translate(absEvent(evdev.AbsoluteThrottle, 5)); evs != nil {
		t.Errorf("Unmapped axis should give no events, got %v", evs)
	}
	if evs := tr.Translate(evdev.Event{Type: evdev.EventSync}); evs != nil {
		t.Errorf("Sync events should give no events, got %v", evs)
	}
}

func TestTranslateHat(t *testing.T) {
	tr := &Translator{}

	evs := tr.Translate(absEvent(evdev.AbsoluteHat0Y, -1))
	if len(evs) != 1 || evs[0] != ButtonDown(ButtonDPadUp) {
		t.Fatalf("Expected dpad up down, got %v", evs)
	}
	evs = tr.Translate(absEvent(evdev.AbsoluteHat0Y, 1))
	if len(evs) != 2 || evs[0] != ButtonUp(ButtonDPadUp) || evs[1] != ButtonDown(ButtonDPadDown) {
		t.Fatalf("Expected up release then down press, got %v", evs)
	}
	evs = tr.Translate(absEvent(evdev.AbsoluteHat0Y, 0))
	if len(evs) != 1 || evs[0] != ButtonUp(ButtonDPadDown) {
		t.Fatalf("Expected dpad down release, got %v", evs)
	}
	if evs := tr.Translate(absEvent(evdev.AbsoluteHat0Y, 0)); evs != nil {
		t.Errorf("Unchanged hat should give no events, got %v", evs)
	}
	evs = tr.Translate(absEvent(evdev.AbsoluteHat0X, 1))
	if len(evs) != 1 || evs[0] != ButtonDown(ButtonDPadRight) {
		t.Errorf("Expected dpad right down, got %v", evs)
	}
}
