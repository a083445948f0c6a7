package rov

import (
	"fmt"

	"github.com/open-teleop/rovpilot/pkg/flatbuffers/rov/message"
)

// ResponseKind tags a message sent back by the vehicle.
type ResponseKind uint8

const (
	ResponseNone  = ResponseKind(message.ResponseKindNONE)
	ResponseHello = ResponseKind(message.ResponseKindHELLO)
	ResponseAck   = ResponseKind(message.ResponseKindACK)
	ResponseLog   = ResponseKind(message.ResponseKindLOG)
	ResponseFault = ResponseKind(message.ResponseKindFAULT)
)

var responseKindNames = map[ResponseKind]string{
	ResponseNone:  "none",
	ResponseHello: "hello",
	ResponseAck:   "ack",
	ResponseLog:   "log",
	ResponseFault: "fault",
}

func (k ResponseKind) String() string {
	if s, ok := responseKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("response_kind(%d)", uint8(k))
}

func (k ResponseKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ResponseKind) UnmarshalText(b []byte) error {
	for kind, name := range responseKindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown response kind %q", string(b))
}

// Response is a decoded vehicle message.
//
// Hello carries the firmware version in Text, Ack names the acknowledged
// command kind, Log and Fault carry free text.
type Response struct {
	Kind    ResponseKind `json:"kind"`
	Command CommandKind  `json:"command,omitempty"`
	Text    string       `json:"text,omitempty"`
}

func (r Response) String() string {
	switch r.Kind {
	case ResponseAck:
		return fmt.Sprintf("ack(%s)", r.Command)
	case ResponseNone:
		return "none"
	default:
		return fmt.Sprintf("%s(%q)", r.Kind, r.Text)
	}
}
