package link

import (
	"bufio"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/open-teleop/rovpilot/pkg/log"
	"github.com/open-teleop/rovpilot/pkg/rov"
)

// Channel is the command link to the vehicle. It is owned by a single
// session and need not be safe for concurrent callers.
type Channel interface {
	// SendCommand transmits one command, giving up after the write timeout.
	SendCommand(cmd rov.Command) error
	// PollResponses drains buffered responses without blocking.
	PollResponses() []rov.Response
	Close() error
}

// Stats are running counters of a StreamChannel.
type Stats struct {
	Sent    uint64 `json:"sent"`
	Failed  uint64 `json:"failed"`
	Dropped uint64 `json:"dropped"`
}

// StreamChannel implements Channel over any byte stream. A writer goroutine
// performs the blocking writes so SendCommand can enforce its timeout, and a
// reader goroutine decodes response frames into an unbounded queue.
type StreamChannel struct {
	rw      io.ReadWriteCloser
	timeout time.Duration
	logger  log.Logger

	writes chan writeRequest

	mu        sync.Mutex
	responses []rov.Response

	done      chan struct{}
	dead      chan struct{}
	deadOnce  sync.Once
	deadErr   error
	closeOnce sync.Once
	closeErr  error
	wg        sync.WaitGroup

	sent    atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64
}

var _ Channel = (*StreamChannel)(nil)

type writeRequest struct {
	frame  []byte
	result chan error
}

// NewStreamChannel takes ownership of rw and starts the reader and writer.
func NewStreamChannel(rw io.ReadWriteCloser, writeTimeout time.Duration, logger log.Logger) *StreamChannel {
	c := &StreamChannel{
		rw:      rw,
		timeout: writeTimeout,
		logger:  logger,
		writes:  make(chan writeRequest),
		done:    make(chan struct{}),
		dead:    make(chan struct{}),
	}
	c.wg.Add(2)
	go c.writeLoop()
	go c.readLoop()
	return c
}

// SendCommand encodes cmd and waits at most the write timeout for the
// transport to accept it.
func (c *StreamChannel) SendCommand(cmd rov.Command) error {
	frame, err := rov.EncodeCommand(cmd)
	if err != nil {
		c.failed.Add(1)
		return &LinkError{Kind: EncodingError, Command: cmd, Err: err}
	}

	if err := c.deadError(cmd); err != nil {
		return err
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	req := writeRequest{frame: frame, result: make(chan error, 1)}
	select {
	case c.writes <- req:
	case <-c.dead:
		return c.deadError(cmd)
	case <-timer.C:
		// The writer is still stuck on an earlier frame.
		c.failed.Add(1)
		return &LinkError{Kind: Timeout, Command: cmd}
	}

	select {
	case err := <-req.result:
		if err != nil {
			c.failed.Add(1)
			return &LinkError{Kind: Disconnected, Command: cmd, Err: err}
		}
		c.sent.Add(1)
		return nil
	case <-c.dead:
		return c.deadError(cmd)
	case <-timer.C:
		c.failed.Add(1)
		return &LinkError{Kind: Timeout, Command: cmd}
	}
}

// PollResponses returns every response decoded since the last call.
func (c *StreamChannel) PollResponses() []rov.Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.responses) == 0 {
		return nil
	}
	out := c.responses
	c.responses = nil
	return out
}

// Close releases the transport and waits for both goroutines to exit.
func (c *StreamChannel) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.markDead(ErrDisconnected)
		c.closeErr = c.rw.Close()
		c.wg.Wait()
	})
	return c.closeErr
}

// Stats returns a snapshot of the channel counters.
func (c *StreamChannel) Stats() Stats {
	return Stats{
		Sent:    c.sent.Load(),
		Failed:  c.failed.Load(),
		Dropped: c.dropped.Load(),
	}
}

func (c *StreamChannel) deadError(cmd rov.Command) error {
	select {
	case <-c.dead:
		c.failed.Add(1)
		return &LinkError{Kind: Disconnected, Command: cmd, Err: c.deadErr}
	default:
		return nil
	}
}

func (c *StreamChannel) markDead(err error) {
	c.deadOnce.Do(func() {
		c.deadErr = err
		close(c.dead)
	})
}

func (c *StreamChannel) writeLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case req := <-c.writes:
			_, err := c.rw.Write(req.frame)
			if err != nil {
				c.markDead(err)
			}
			req.result <- err
		}
	}
}

func (c *StreamChannel) readLoop() {
	defer c.wg.Done()
	br := bufio.NewReader(c.rw)
	for {
		frame, err := readFrame(br)
		if err != nil {
			select {
			case <-c.done:
			default:
				c.logger.Errorf("Vehicle link read failed: %v", err)
			}
			c.markDead(err)
			return
		}

		resp, err := rov.DecodeResponse(frame)
		if err != nil {
			c.dropped.Add(1)
			c.logger.Warnf("Dropping undecodable response frame: %v", err)
			continue
		}

		c.mu.Lock()
		c.responses = append(c.responses, resp)
		c.mu.Unlock()
	}
}

// readFrame skips bytes until the response magic, then reads one frame. A
// header that fails to parse is returned without its payload so the decoder
// reports it and the reader resynchronises on the next magic.
func readFrame(br *bufio.Reader) ([]byte, error) {
	matched := 0
	for matched < len(rov.ResponseMagic) {
		b, err := br.ReadByte()
		if err != nil {
			return nil, err
		}
		switch {
		case b == rov.ResponseMagic[matched]:
			matched++
		case b == rov.ResponseMagic[0]:
			matched = 1
		default:
			matched = 0
		}
	}

	header := make([]byte, rov.HeaderSize)
	copy(header, rov.ResponseMagic[:])
	if _, err := io.ReadFull(br, header[len(rov.ResponseMagic):]); err != nil {
		return nil, err
	}
	h, err := rov.ParseHeader(header)
	if err != nil {
		return header, nil
	}

	frame := make([]byte, rov.HeaderSize+int(h.Length))
	copy(frame, header)
	if _, err := io.ReadFull(br, frame[rov.HeaderSize:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	return frame, nil
}
