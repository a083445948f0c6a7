package api

import (
	"github.com/open-teleop/rovpilot/pkg/input"
	"github.com/open-teleop/rovpilot/pkg/journal"
	"github.com/open-teleop/rovpilot/pkg/telemetry"
)

// StatusSource is the telemetry hub as seen by the API.
type StatusSource interface {
	Latest() telemetry.Snapshot
	Subscribe(buffer int) (<-chan telemetry.Snapshot, func())
}

// JournalReader lists recent dispatch records.
type JournalReader interface {
	Recent(limit int) ([]journal.Record, error)
}

// EventSink receives operator input from WebSocket clients.
type EventSink interface {
	Push(events ...input.Event)
}

// Journal listing bounds.
const (
	DefaultJournalLimit = 50
	MaxJournalLimit     = 500
)
