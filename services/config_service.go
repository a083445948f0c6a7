package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/open-teleop/rovpilot/pkg/config"
	customlog "github.com/open-teleop/rovpilot/pkg/log"
)

// Config notification published after a successful update.
const (
	ConfigTopic          = "rov.config"
	MsgTypeConfigUpdated = "CONFIG_UPDATED"
)

// ValidationError marks an update rejected because of its content rather
// than an I/O failure.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ConfigPublisher announces configuration updates. The ZeroMQ service
// satisfies it.
type ConfigPublisher interface {
	PublishJSON(topic string, messageType string, data interface{}) error
}

// ConfigService manages the on-disk configuration file.
type ConfigService interface {
	GetCurrentConfig() *config.Config
	GetCurrentConfigYAML() ([]byte, error)
	UpdateConfig(newConfigYAML []byte) (*config.Config, error)
	SetPublisher(p ConfigPublisher)
}

type configService struct {
	path      string
	logger    customlog.Logger
	publisher ConfigPublisher
	current   *config.Config
	mu        sync.RWMutex
}

// NewConfigService serves path, starting from the already loaded current
// configuration. Updates are persisted to path and take effect for the next
// run.
func NewConfigService(path string, current *config.Config, logger customlog.Logger) (ConfigService, error) {
	if path == "" {
		return nil, fmt.Errorf("configuration path cannot be empty")
	}
	if current == nil {
		current = config.Default()
	}
	return &configService{
		path:    path,
		logger:  logger,
		current: current,
	}, nil
}

// GetCurrentConfig returns the configuration last loaded or accepted.
// Callers must not modify it.
func (s *configService) GetCurrentConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// GetCurrentConfigYAML returns the file content, or the current
// configuration rendered as YAML when the file does not exist yet.
func (s *configService) GetCurrentConfigYAML() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		s.logger.Errorf("Error reading config file '%s': %v", s.path, err)
		return nil, fmt.Errorf("error reading config file '%s': %w", s.path, err)
	}
	return s.current.Marshal()
}

// UpdateConfig parses and validates newConfigYAML, persists it and makes it
// current. Rejected content is reported as *ValidationError.
func (s *configService) UpdateConfig(newConfigYAML []byte) (*config.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := config.Parse(newConfigYAML)
	if err != nil {
		s.logger.Warnf("Rejected configuration update: %v", err)
		return nil, &ValidationError{Err: err}
	}

	if err := os.WriteFile(s.path, newConfigYAML, 0644); err != nil {
		s.logger.Errorf("Error writing config file '%s': %v", s.path, err)
		return nil, fmt.Errorf("error writing config file '%s': %w", s.path, err)
	}

	s.current = cfg
	s.logger.Infof("Persisted configuration update to %s (vehicle %s, version %s)", s.path, cfg.VehicleID, cfg.Version)

	if s.publisher != nil {
		if err := s.publisher.PublishJSON(ConfigTopic, MsgTypeConfigUpdated, cfg); err != nil {
			s.logger.Warnf("Failed to publish config update notification: %v", err)
		}
	}
	return cfg, nil
}

// SetPublisher allows injecting the ConfigPublisher after initialization.
func (s *configService) SetPublisher(p ConfigPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = p
}
