package input

import (
	"encoding/json"
	"sync"
	"testing"
)

func TestNormalizeAxisExtremes(t *testing.T) {
	if v := NormalizeAxis(-32768); v != -1.0 {
		t.Errorf("Expected -1.0 for -32768, got %v", v)
	}
	v := NormalizeAxis(32767)
	if v >= 1.0 || v < 0.9999 {
		t.Errorf("Expected just under 1.0 for 32767, got %v", v)
	}
	if v := NormalizeAxis(0); v != 0 {
		t.Errorf("Expected 0 for 0, got %v", v)
	}
}

func TestEventJSON(t *testing.T) {
	var ev Event
	if err := json.Unmarshal([]byte(`{"type":"axis","axis":"left_y","value":-0.25}`), &ev); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if ev != AxisValue(AxisLeftY, -0.25) {
		t.Errorf("Unexpected event %v", ev)
	}

	var button Event
	if err := json.Unmarshal([]byte(`{"type":"BUTTON_DOWN","button":"Right_Shoulder"}`), &button); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if button != ButtonDown(ButtonRightShoulder) {
		t.Errorf("Unexpected event %v", button)
	}

	var arrow Event
	if err := json.Unmarshal([]byte(`{"type":"key_up","key":"up"}`), &arrow); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if arrow != KeyUp(KeyArrowUp) {
		t.Errorf("Unexpected event %v", arrow)
	}

	data, err := json.Marshal(KeyUp(KeyEscape))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"type":"key_up","key":"escape"}` {
		t.Errorf("Unexpected json %s", data)
	}

	var unknown Event
	if err := json.Unmarshal([]byte(`{"type":"axis","axis":"throttle"}`), &unknown); err == nil {
		t.Errorf("Expected error for unknown axis")
	}
}

func TestIsQuit(t *testing.T) {
	if !Quit().IsQuit() || !KeyUp(KeyEscape).IsQuit() {
		t.Errorf("Quit and escape release should quit")
	}
	if KeyUp(KeyEnter).IsQuit() || ButtonDown(ButtonB).IsQuit() {
		t.Errorf("Other events should not quit")
	}
}

func TestQueueDrain(t *testing.T) {
	q := NewQueue()
	if evs := q.Drain(); evs != nil {
		t.Errorf("Expected nil from empty queue, got %v", evs)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(ButtonDown(ButtonA))
			}
		}()
	}
	wg.Wait()

	if q.Len() != 400 {
		t.Errorf("Expected 400 pending events, got %d", q.Len())
	}
	if evs := q.Drain(); len(evs) != 400 {
		t.Errorf("Expected 400 drained events, got %d", len(evs))
	}
	if q.Len() != 0 {
		t.Errorf("Queue should be empty after drain")
	}
}

func TestQueuePreservesOrder(t *testing.T) {
	q := NewQueue()
	q.Push(ButtonDown(ButtonY), ButtonUp(ButtonY))
	q.Push(Quit())

	evs := q.Drain()
	want := []Event{ButtonDown(ButtonY), ButtonUp(ButtonY), Quit()}
	if len(evs) != len(want) {
		t.Fatalf("Expected %d events, got %d", len(want), len(evs))
	}
	for i := range want {
		if evs[i] != want[i] {
			t.Errorf("Event %d: expected %v, got %v", i, want[i], evs[i])
		}
	}
}
