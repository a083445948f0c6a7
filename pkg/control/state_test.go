package control

import (
	"math"
	"testing"

	"github.com/open-teleop/rovpilot/pkg/input"
)

func TestApplyAxisMapping(t *testing.T) {
	var s ControlState
	s.Apply(input.AxisMotion(input.AxisLeftY, -32768))
	s.Apply(input.AxisMotion(input.AxisLeftX, 16384))
	s.Apply(input.AxisMotion(input.AxisRightX, 32767))
	s.Apply(input.AxisMotion(input.AxisTriggerLeft, 8192))
	s.Apply(input.AxisMotion(input.AxisTriggerRight, -16384))

	if s.ForwardThrust != -1.0 {
		t.Errorf("Expected forward -1.0, got %v", s.ForwardThrust)
	}
	if s.SidewaysThrust != 0.5 {
		t.Errorf("Expected sideways 0.5, got %v", s.SidewaysThrust)
	}
	if s.RotationalThrust <= 0.9999 || s.RotationalThrust >= 1.0 {
		t.Errorf("Expected rotational just under 1.0, got %v", s.RotationalThrust)
	}
	if s.AscentThrust != 0.25 {
		t.Errorf("Expected ascent 0.25, got %v", s.AscentThrust)
	}
	if s.DescentThrust != -0.5 {
		t.Errorf("Expected descent -0.5, got %v", s.DescentThrust)
	}
}

func TestApplyClampsAxisValues(t *testing.T) {
	values := []float64{-7, -1.0001, -1, -0.3, 0, 0.7, 1, 1.5, 1e9, math.Inf(1), math.Inf(-1), math.NaN()}
	for _, v := range values {
		var s ControlState
		s.Apply(input.AxisValue(input.AxisLeftY, v))
		if s.ForwardThrust < -1 || s.ForwardThrust > 1 || math.IsNaN(s.ForwardThrust) {
			t.Errorf("Value %v produced out-of-range thrust %v", v, s.ForwardThrust)
		}
	}
}

func TestApplyToggleIsEdgeTriggered(t *testing.T) {
	var s ControlState

	s.Apply(input.ButtonDown(input.ButtonY))
	if !s.PowerLights {
		t.Fatalf("Y down should turn the lights on")
	}

	// A repeated down without an up in between must not toggle back.
	s.Apply(input.ButtonDown(input.ButtonY))
	if !s.PowerLights {
		t.Errorf("Repeated Y down should be ignored")
	}

	s.Apply(input.ButtonUp(input.ButtonY))
	if !s.PowerLights {
		t.Errorf("Y up should not change the lights")
	}

	s.Apply(input.ButtonDown(input.ButtonY))
	if s.PowerLights {
		t.Errorf("Second press should turn the lights off")
	}

	s.Apply(input.ButtonDown(input.ButtonStart))
	if !s.PowerMaster {
		t.Errorf("Start down should toggle the master relay")
	}
}

func TestApplyLevelTriggeredModes(t *testing.T) {
	var s ControlState

	s.Apply(input.ButtonDown(input.ButtonRightShoulder))
	if s.ThrustMode != ThrustEmergency {
		t.Errorf("Right shoulder down should select emergency thrust")
	}
	s.Apply(input.ButtonUp(input.ButtonRightShoulder))
	if s.ThrustMode != ThrustNormal {
		t.Errorf("Right shoulder up should select normal thrust")
	}

	s.Apply(input.ButtonDown(input.ButtonLeftShoulder))
	if s.SamplerReleaseMode != ReleaseAll {
		t.Errorf("Left shoulder down should select release all")
	}
	s.Apply(input.ButtonUp(input.ButtonLeftShoulder))
	if s.SamplerReleaseMode != ReleaseOne {
		t.Errorf("Left shoulder up should select release one")
	}
}

func TestApplyIgnoresUnmappedEvents(t *testing.T) {
	var s ControlState
	before := s

	s.Apply(input.AxisMotion(input.AxisRightY, 12000))
	s.Apply(input.ButtonDown(input.ButtonX))
	s.Apply(input.ButtonUp(input.ButtonX))
	s.Apply(input.KeyUp(input.KeyEnter))
	s.Apply(input.Event{})

	if s != before {
		t.Errorf("Unmapped events changed the state: %+v", s)
	}
}

func TestApplyIdempotentUnderRepeats(t *testing.T) {
	events := []input.Event{
		input.AxisMotion(input.AxisLeftY, 9000),
		input.ButtonDown(input.ButtonY),
		input.ButtonDown(input.ButtonStart),
		input.ButtonDown(input.ButtonB),
		input.ButtonDown(input.ButtonRightShoulder),
		input.ButtonUp(input.ButtonLeftShoulder),
	}

	for _, ev := range events {
		var once, twice ControlState
		once.Apply(ev)
		twice.Apply(ev)
		twice.Apply(ev)
		if once != twice {
			t.Errorf("Event %v is not idempotent: %+v vs %+v", ev, once, twice)
		}
	}
}

func TestSamplerReleaseSetByB(t *testing.T) {
	var s ControlState
	s.Apply(input.ButtonDown(input.ButtonB))
	if !s.SamplerRelease {
		t.Fatalf("B down should request a sampler release")
	}
	if s.Consumed().SamplerRelease {
		t.Errorf("Consumed should clear the one-shot flag")
	}
	if !s.SamplerRelease {
		t.Errorf("Consumed must not modify the receiver")
	}
}
