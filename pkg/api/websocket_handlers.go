package api

import (
	"encoding/json"
	"errors"
	"syscall"

	"github.com/gofiber/contrib/websocket"

	"github.com/open-teleop/rovpilot/pkg/input"
	customlog "github.com/open-teleop/rovpilot/pkg/log"
)

// statusBuffer is the per-client snapshot backlog; older snapshots are
// dropped by the hub when a client falls behind.
const statusBuffer = 4

// ControlWebSocketHandler reads JSON input events and pushes them to the
// session input queue, e.g. {"type":"axis","axis":"left_y","value":0.5}.
//
// Toggles (lights on Y, master on Start) act on the press edge only: a
// button_down for a button already held is ignored, so clients must send the
// matching button_up before the next press toggles again.
func ControlWebSocketHandler(conn *websocket.Conn, logger customlog.Logger, sink EventSink) {
	logger.Infof("Control WebSocket connected: %s", conn.RemoteAddr())
	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			logClose(logger, "Control", err)
			break
		}
		if mt != websocket.TextMessage {
			logger.Debugf("Ignoring non-text Control WS message type: %d", mt)
			continue
		}

		ev, err := parseEvent(msg)
		if err != nil {
			logger.Warnf("Dropping control message %q: %v", string(msg), err)
			_ = conn.WriteJSON(map[string]string{"error": err.Error()})
			continue
		}
		sink.Push(ev)
	}
	logger.Infof("Control WebSocket disconnected: %s", conn.RemoteAddr())
}

func parseEvent(msg []byte) (input.Event, error) {
	var ev input.Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		return input.Event{}, err
	}
	switch ev.Type {
	case input.EventNone:
		return input.Event{}, errors.New("missing event type")
	case input.EventAxis:
		if ev.Axis == input.AxisNone {
			return input.Event{}, errors.New("axis event without axis")
		}
		return input.AxisValue(ev.Axis, ev.Value), nil
	case input.EventButtonDown, input.EventButtonUp:
		if ev.Button == input.ButtonNone {
			return input.Event{}, errors.New("button event without button")
		}
	case input.EventKeyUp:
		if ev.Key == input.KeyNone {
			return input.Event{}, errors.New("key event without key")
		}
	}
	return ev, nil
}

// StatusWebSocketHandler streams rate-limited snapshots until the client
// goes away.
func StatusWebSocketHandler(conn *websocket.Conn, logger customlog.Logger, status StatusSource) {
	logger.Infof("Status WebSocket connected: %s", conn.RemoteAddr())
	snapshots, unsubscribe := status.Subscribe(statusBuffer)
	defer unsubscribe()

	// Reads only serve to notice the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logClose(logger, "Status", err)
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			logger.Infof("Status WebSocket disconnected: %s", conn.RemoteAddr())
			return
		case s, ok := <-snapshots:
			if !ok {
				return
			}
			if err := conn.WriteJSON(s); err != nil {
				logger.Debugf("Status WS write failed: %v", err)
				return
			}
		}
	}
}

func logClose(logger customlog.Logger, name string, err error) {
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) &&
		!errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) {
		logger.Warnf("%s WS read error: %v", name, err)
		return
	}
	logger.Debugf("%s WS connection closed: %v", name, err)
}
