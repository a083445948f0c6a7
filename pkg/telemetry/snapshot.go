// Package telemetry carries what the operator sees: a status snapshot built
// by the active screen every frame, fanned out to web clients and the
// ZeroMQ publisher.
package telemetry

import (
	"time"

	"github.com/open-teleop/rovpilot/pkg/control"
	"github.com/open-teleop/rovpilot/pkg/link"
	"github.com/open-teleop/rovpilot/pkg/mirror"
	"github.com/open-teleop/rovpilot/pkg/rov"
)

// Screen names used in Snapshot.Screen.
const (
	ScreenPortSelect = "port_select"
	ScreenControl    = "control"
)

// Snapshot is the operator-facing state of the active screen.
type Snapshot struct {
	Time   time.Time `json:"time"`
	Screen string    `json:"screen"`

	// Port selection
	Ports  []string `json:"ports,omitempty"`
	Cursor int      `json:"cursor"`

	// Control session
	Port      string               `json:"port,omitempty"`
	Online    bool                 `json:"online"`
	Firmware  string               `json:"firmware,omitempty"`
	Control   control.ControlState `json:"control"`
	Mirror    mirror.State         `json:"mirror"`
	Cycles    uint64               `json:"cycles"`
	Link      LinkStatus           `json:"link"`
	Responses []rov.Response       `json:"responses,omitempty"`

	LastError string `json:"last_error,omitempty"`
}

// LinkStatus summarises the vehicle link.
type LinkStatus struct {
	link.Stats
	FailureStreak int  `json:"failure_streak"`
	Resyncing     bool `json:"resyncing"`
}
