package session

import (
	"time"

	"github.com/open-teleop/rovpilot/pkg/input"
	"github.com/open-teleop/rovpilot/pkg/link"
	"github.com/open-teleop/rovpilot/pkg/telemetry"
)

// PortSelect lists candidate serial devices and opens the chosen one.
// D-pad or arrow keys move the cursor, A or Enter connects.
type PortSelect struct {
	patterns []string
	ports    []string
	cursor   int
	lastScan time.Time

	lastError string
}

// NewPortSelect scans the given glob patterns, e.g. /dev/ttyACM*.
func NewPortSelect(patterns []string) *PortSelect {
	return &PortSelect{patterns: patterns}
}

func (p *PortSelect) Init(e *Engine) error {
	p.rescan(e, time.Now())
	return nil
}

// Update runs one frame of the selection screen.
func (p *PortSelect) Update(e *Engine, frame Frame) Trans {
	if frame.Now.Sub(p.lastScan) >= e.Config.Serial.RescanInterval() {
		p.rescan(e, frame.Now)
	}

	for _, ev := range e.Input.Drain() {
		if ev.IsQuit() {
			return Trans{Action: Quit}
		}
		switch {
		case isPress(ev, input.ButtonDPadUp, input.KeyArrowUp):
			p.move(-1)
		case isPress(ev, input.ButtonDPadDown, input.KeyArrowDown):
			p.move(1)
		case isPress(ev, input.ButtonA, input.KeyEnter):
			if next, ok := p.connect(e); ok {
				return Trans{Action: Switch, Next: next}
			}
		}
	}

	e.render(p.Snapshot(frame.Now))
	return Trans{Action: Continue}
}

// Selected returns the port under the cursor, or "" when none is present.
func (p *PortSelect) Selected() string {
	if len(p.ports) == 0 {
		return ""
	}
	return p.ports[p.cursor]
}

func (p *PortSelect) Snapshot(now time.Time) telemetry.Snapshot {
	return telemetry.Snapshot{
		Time:      now,
		Screen:    telemetry.ScreenPortSelect,
		Ports:     append([]string(nil), p.ports...),
		Cursor:    p.cursor,
		LastError: p.lastError,
	}
}

func (p *PortSelect) connect(e *Engine) (Screen, bool) {
	port := p.Selected()
	if port == "" {
		return Screen{}, false
	}
	ch, err := e.Open(port)
	if err != nil {
		e.Logger.Errorf("Failed to connect to '%s': %v", port, err)
		p.lastError = err.Error()
		return Screen{}, false
	}
	return ControlScreen(NewRovControl(port, ch)), true
}

func (p *PortSelect) move(delta int) {
	if len(p.ports) == 0 {
		return
	}
	p.cursor = (p.cursor + delta + len(p.ports)) % len(p.ports)
}

func (p *PortSelect) rescan(e *Engine, now time.Time) {
	p.lastScan = now
	ports, err := link.ScanPorts(p.patterns)
	if err != nil {
		e.Logger.Errorf("Failed to scan serial ports: %v", err)
		p.lastError = err.Error()
		return
	}
	if !equalStrings(ports, p.ports) {
		e.Logger.Infof("Serial ports: %v", ports)
	}

	// Keep the cursor on the same device when the list changes.
	selected := p.Selected()
	p.ports = ports
	p.cursor = 0
	for i, port := range ports {
		if port == selected {
			p.cursor = i
		}
	}
}

// isPress matches a button press or the release of the equivalent key.
func isPress(ev input.Event, b input.Button, k input.Key) bool {
	return (ev.Type == input.EventButtonDown && ev.Button == b) ||
		(ev.Type == input.EventKeyUp && ev.Key == k)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
