package rov

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/open-teleop/rovpilot/pkg/flatbuffers/rov/message"
)

// Frame layout, little endian:
//
//	magic[4] | version u16 | length u16 | crc32 u32 | payload[length]
//
// The payload is a flatbuffers Command or Response table and the checksum is
// CRC-32 (IEEE) over the payload only.
const (
	ProtocolVersion uint16 = 1
	HeaderSize             = 12
	MaxPayloadSize         = 1024
)

var (
	// CommandMagic prefixes frames sent to the vehicle.
	CommandMagic = [4]byte{'R', 'O', 'V', 'C'}
	// ResponseMagic prefixes frames sent by the vehicle.
	ResponseMagic = [4]byte{'R', 'O', 'V', 'S'}
)

var (
	ErrShortFrame = errors.New("frame too short")
	ErrBadMagic   = errors.New("bad frame magic")
	ErrVersion    = errors.New("unsupported protocol version")
	ErrChecksum   = errors.New("frame checksum mismatch")
	ErrTooLarge   = errors.New("frame payload too large")
	ErrMalformed  = errors.New("malformed payload")
)

// Header is the fixed-size prefix of every frame.
type Header struct {
	Magic    [4]byte
	Version  uint16
	Length   uint16
	Checksum uint32
}

// ParseHeader decodes the first HeaderSize bytes of b. It checks the version
// and length bound but not the magic, which depends on direction.
func ParseHeader(b []byte) (Header, error) {
	var h Header
	if len(b) < HeaderSize {
		return h, ErrShortFrame
	}
	copy(h.Magic[:], b[:4])
	h.Version = binary.LittleEndian.Uint16(b[4:6])
	h.Length = binary.LittleEndian.Uint16(b[6:8])
	h.Checksum = binary.LittleEndian.Uint32(b[8:12])
	if h.Version != ProtocolVersion {
		return h, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	if int(h.Length) > MaxPayloadSize {
		return h, fmt.Errorf("%w: %d bytes", ErrTooLarge, h.Length)
	}
	return h, nil
}

// EncodeCommand validates cmd and returns its complete frame.
func EncodeCommand(cmd Command) ([]byte, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	builder := flatbuffers.NewBuilder(32)
	message.CommandStart(builder)
	message.CommandAddKind(builder, message.CommandKind(cmd.Kind))
	message.CommandAddMotor(builder, byte(cmd.Motor))
	message.CommandAddThrottle(builder, cmd.Throttle)
	message.CommandAddAmount(builder, cmd.Amount)
	root := message.CommandEnd(builder)
	message.FinishCommandBuffer(builder, root)

	return frame(CommandMagic, builder.FinishedBytes())
}

// DecodeCommand parses a frame produced by EncodeCommand.
func DecodeCommand(b []byte) (Command, error) {
	payload, err := unframe(CommandMagic, b)
	if err != nil {
		return Command{}, err
	}

	var cmd Command
	err = readTable(payload, func() {
		t := message.GetRootAsCommand(payload, 0)
		cmd = Command{
			Kind:     CommandKind(t.Kind()),
			Motor:    MotorID(t.Motor()),
			Throttle: t.Throttle(),
			Amount:   t.Amount(),
		}
	})
	if err != nil {
		return Command{}, err
	}
	if err := cmd.Validate(); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

// EncodeResponse returns the frame for r. The vehicle firmware and the test
// doubles use it; the topside only decodes responses.
func EncodeResponse(r Response) ([]byte, error) {
	builder := flatbuffers.NewBuilder(64)
	var text flatbuffers.UOffsetT
	if r.Text != "" {
		text = builder.CreateString(r.Text)
	}
	message.ResponseStart(builder)
	message.ResponseAddKind(builder, message.ResponseKind(r.Kind))
	message.ResponseAddCommand(builder, message.CommandKind(r.Command))
	if r.Text != "" {
		message.ResponseAddText(builder, text)
	}
	root := message.ResponseEnd(builder)
	message.FinishResponseBuffer(builder, root)

	return frame(ResponseMagic, builder.FinishedBytes())
}

// DecodeResponse parses a vehicle frame.
func DecodeResponse(b []byte) (Response, error) {
	payload, err := unframe(ResponseMagic, b)
	if err != nil {
		return Response{}, err
	}

	var r Response
	err = readTable(payload, func() {
		t := message.GetRootAsResponse(payload, 0)
		r = Response{
			Kind:    ResponseKind(t.Kind()),
			Command: CommandKind(t.Command()),
			Text:    string(t.Text()),
		}
	})
	if err != nil {
		return Response{}, err
	}
	if r.Kind == ResponseNone || r.Kind > ResponseFault {
		return Response{}, fmt.Errorf("%w: response kind %d", ErrMalformed, uint8(r.Kind))
	}
	return r, nil
}

func frame(magic [4]byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(payload))
	}
	out := make([]byte, HeaderSize+len(payload))
	copy(out[:4], magic[:])
	binary.LittleEndian.PutUint16(out[4:6], ProtocolVersion)
	binary.LittleEndian.PutUint16(out[6:8], uint16(len(payload)))
	binary.LittleEndian.PutUint32(out[8:12], crc32.ChecksumIEEE(payload))
	copy(out[HeaderSize:], payload)
	return out, nil
}

func unframe(magic [4]byte, b []byte) ([]byte, error) {
	h, err := ParseHeader(b)
	if err != nil {
		return nil, err
	}
	if h.Magic != magic {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, h.Magic[:])
	}
	if len(b) != HeaderSize+int(h.Length) {
		return nil, fmt.Errorf("%w: header says %d payload bytes, got %d", ErrShortFrame, h.Length, len(b)-HeaderSize)
	}
	payload := b[HeaderSize:]
	if crc32.ChecksumIEEE(payload) != h.Checksum {
		return nil, ErrChecksum
	}
	return payload, nil
}

// readTable runs fn over a flatbuffer payload. The generated accessors index
// the buffer without bounds checks of their own, so a corrupt table panics.
func readTable(payload []byte, fn func()) (err error) {
	if len(payload) < flatbuffers.SizeUOffsetT {
		return fmt.Errorf("%w: %d bytes", ErrMalformed, len(payload))
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()
	fn()
	return nil
}
