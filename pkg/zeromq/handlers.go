package zeromq

import (
	"encoding/json"
	"fmt"
	"time"
)

// ReplyHandler answers one request type with the value returned by source,
// wrapped in a responseType envelope.
type ReplyHandler struct {
	requestType  string
	responseType string
	source       func() (interface{}, error)
}

// NewStatusHandler answers STATUS_REQUEST with the latest status snapshot.
func NewStatusHandler(latest func() interface{}) *ReplyHandler {
	return &ReplyHandler{
		requestType:  MsgTypeStatusRequest,
		responseType: MsgTypeStatusResponse,
		source: func() (interface{}, error) {
			return latest(), nil
		},
	}
}

// NewConfigHandler answers CONFIG_REQUEST with the current configuration.
func NewConfigHandler(current func() (interface{}, error)) *ReplyHandler {
	return &ReplyHandler{
		requestType:  MsgTypeConfigRequest,
		responseType: MsgTypeConfigResponse,
		source:       current,
	}
}

// HandleMessage validates the request envelope and builds the reply.
func (h *ReplyHandler) HandleMessage(data []byte) ([]byte, error) {
	var msg ZeroMQMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type != h.requestType {
		return nil, fmt.Errorf("unexpected message type: %s", msg.Type)
	}

	payload, err := h.source()
	if err != nil {
		return nil, err
	}

	response := ZeroMQMessage{
		Type:      h.responseType,
		Timestamp: float64(time.Now().Unix()),
		Data:      payload,
	}
	responseData, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize response: %w", err)
	}
	return responseData, nil
}

// Register wires the status and config handlers into s.
func Register(s *Service, latest func() interface{}, current func() (interface{}, error)) {
	s.RegisterHandler(MsgTypeStatusRequest, NewStatusHandler(latest))
	s.RegisterHandler(MsgTypeConfigRequest, NewConfigHandler(current))
}
