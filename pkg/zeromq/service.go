package zeromq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pebbe/zmq4"

	"github.com/open-teleop/rovpilot/pkg/config"
	"github.com/open-teleop/rovpilot/pkg/log"
)

// Common errors
var (
	ErrServiceClosed      = errors.New("zeromq service is closed")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// Message types
const (
	MsgTypeStatusRequest  = "STATUS_REQUEST"
	MsgTypeStatusResponse = "STATUS_RESPONSE"
	MsgTypeConfigRequest  = "CONFIG_REQUEST"
	MsgTypeConfigResponse = "CONFIG_RESPONSE"
	MsgTypeError          = "ERROR"
)

// ZeroMQMessage represents a generic message structure for ZeroMQ communication
type ZeroMQMessage struct {
	Type      string      `json:"type"`
	Timestamp float64     `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// ErrorResponse represents an error response message
type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// MessageHandler defines the interface for handlers that process specific message types
type MessageHandler interface {
	HandleMessage(data []byte) ([]byte, error)
}

// HandlerFunc is a function type that implements MessageHandler
type HandlerFunc func(data []byte) ([]byte, error)

// HandleMessage calls the function
func (f HandlerFunc) HandleMessage(data []byte) ([]byte, error) {
	return f(data)
}

// MessageDispatcher routes JSON requests to handlers by message type
type MessageDispatcher struct {
	handlers map[string]MessageHandler
	logger   log.Logger
	mu       sync.RWMutex
}

// NewMessageDispatcher creates a new message dispatcher
func NewMessageDispatcher(logger log.Logger) *MessageDispatcher {
	return &MessageDispatcher{
		handlers: make(map[string]MessageHandler),
		logger:   logger,
	}
}

// RegisterHandler adds a handler for a specific message type
func (d *MessageDispatcher) RegisterHandler(messageType string, handler MessageHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[messageType] = handler
	d.logger.Debugf("Registered handler for message type: %s", messageType)
}

// Dispatch processes a message and routes it to the appropriate handler
func (d *MessageDispatcher) Dispatch(data []byte) ([]byte, error) {
	var msg ZeroMQMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	d.mu.RLock()
	handler, exists := d.handlers[msg.Type]
	d.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, msg.Type)
	}
	return handler.HandleMessage(data)
}

// errorReply builds the ERROR envelope sent back for a failed request.
func errorReply(err error) []byte {
	code := 500
	if errors.Is(err, ErrUnknownMessageType) {
		code = 404
	}
	reply, _ := json.Marshal(ZeroMQMessage{
		Type:      MsgTypeError,
		Timestamp: float64(time.Now().Unix()),
		Data:      ErrorResponse{Message: err.Error(), Code: code},
	})
	return reply
}

// Service owns the ZeroMQ context, a PUB socket for status snapshots and an
// optional REP socket answering requests. Either address may be empty.
type Service struct {
	ctx        *zmq4.Context
	pub        *zmq4.Socket
	rep        *zmq4.Socket
	dispatcher *MessageDispatcher
	logger     log.Logger

	pubMu   sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewService creates the sockets described by cfg.
func NewService(cfg config.TelemetryConfig, logger log.Logger) (*Service, error) {
	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ context: %w", err)
	}

	s := &Service{
		ctx:        ctx,
		dispatcher: NewMessageDispatcher(logger),
		logger:     logger,
		stop:       make(chan struct{}),
	}

	if cfg.PublishAddress != "" {
		s.pub, err = s.bind(zmq4.PUB, cfg.PublishAddress)
		if err != nil {
			s.closeSockets()
			return nil, err
		}
		logger.Infof("Publishing status on %s", cfg.PublishAddress)
	}

	if cfg.RequestAddress != "" {
		s.rep, err = s.bind(zmq4.REP, cfg.RequestAddress)
		if err != nil {
			s.closeSockets()
			return nil, err
		}
		logger.Infof("Answering requests on %s", cfg.RequestAddress)
	}

	return s, nil
}

func (s *Service) bind(t zmq4.Type, address string) (*zmq4.Socket, error) {
	socket, err := s.ctx.NewSocket(t)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s socket: %w", t, err)
	}
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}
	if err := socket.Bind(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", address, err)
	}
	return socket, nil
}

// RegisterHandler adds a handler for a specific request type
func (s *Service) RegisterHandler(messageType string, handler MessageHandler) {
	s.dispatcher.RegisterHandler(messageType, handler)
}

// Start begins answering requests. Publishing works without Start.
func (s *Service) Start() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if s.running {
		return
	}
	s.running = true
	if s.rep == nil {
		return
	}

	s.wg.Add(1)
	go s.serve()
}

func (s *Service) serve() {
	defer s.wg.Done()

	poller := zmq4.NewPoller()
	poller.Add(s.rep, zmq4.POLLIN)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		// Poll with a timeout so Stop is noticed.
		sockets, err := poller.Poll(200 * time.Millisecond)
		if err != nil {
			s.logger.Warnf("Error polling request socket: %v", err)
			continue
		}
		if len(sockets) == 0 {
			continue
		}

		msg, err := s.rep.RecvBytes(0)
		if err != nil {
			s.logger.Warnf("Error receiving request: %v", err)
			continue
		}

		reply, err := s.dispatcher.Dispatch(msg)
		if err != nil {
			s.logger.Warnf("Error dispatching request: %v", err)
			reply = errorReply(err)
		}
		if _, err := s.rep.SendBytes(reply, 0); err != nil {
			s.logger.Warnf("Error sending reply: %v", err)
		}
	}
}

// PublishMessage sends a message with the given topic. Without a PUB socket
// it is a no-op.
func (s *Service) PublishMessage(topic string, message []byte) error {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	if s.ctx == nil {
		return ErrServiceClosed
	}
	if s.pub == nil {
		return nil
	}

	// Send two messages in sequence (topic first, then message)
	if _, err := s.pub.Send(topic, zmq4.SNDMORE); err != nil {
		return fmt.Errorf("failed to send topic: %w", err)
	}
	if _, err := s.pub.SendBytes(message, zmq4.DONTWAIT); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// PublishJSON publishes a JSON-serializable message with the given topic
func (s *Service) PublishJSON(topic string, messageType string, data interface{}) error {
	msg := ZeroMQMessage{
		Type:      messageType,
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
		Data:      data,
	}

	msgData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return s.PublishMessage(topic, msgData)
}

// Stop halts the request loop and releases the sockets and context.
func (s *Service) Stop() {
	s.pubMu.Lock()
	if s.ctx == nil {
		s.pubMu.Unlock()
		return
	}
	wasRunning := s.running
	s.running = false
	s.pubMu.Unlock()

	if wasRunning {
		close(s.stop)
		s.wg.Wait()
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	s.closeSockets()
	s.logger.Infof("ZeroMQ service stopped")
}

func (s *Service) closeSockets() {
	if s.pub != nil {
		s.pub.Close()
		s.pub = nil
	}
	if s.rep != nil {
		s.rep.Close()
		s.rep = nil
	}
	if s.ctx != nil {
		s.ctx.Term()
		s.ctx = nil
	}
}
