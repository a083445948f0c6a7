package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/open-teleop/rovpilot/pkg/rov"
)

// AxisCount is the number of thrust axes, the column count of the mixing
// matrix. It has one row per rov.MotorCount thruster.
const AxisCount = 5

// MinDispatchInterval is the shortest allowed gap between two dispatch cycles.
const MinDispatchInterval = 5 * time.Millisecond

// Config represents the topside configuration
type Config struct {
	Version   string          `yaml:"version" json:"version"`
	VehicleID string          `yaml:"vehicle_id" json:"vehicle_id"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Serial    SerialConfig    `yaml:"serial" json:"serial"`
	Control   ControlConfig   `yaml:"control" json:"control"`
	Input     InputConfig     `yaml:"input" json:"input"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Journal   JournalConfig   `yaml:"journal" json:"journal"`
	Firmware  FirmwareConfig  `yaml:"firmware" json:"firmware"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	LogDir string `yaml:"log_dir,omitempty" json:"log_dir,omitempty"`
}

// SerialConfig holds serial link settings
type SerialConfig struct {
	Baud             int      `yaml:"baud" json:"baud"`
	WriteTimeoutMs   int      `yaml:"write_timeout_ms" json:"write_timeout_ms"`
	ReadTimeoutMs    int      `yaml:"read_timeout_ms" json:"read_timeout_ms"`
	Candidates       []string `yaml:"candidates" json:"candidates"`
	RescanIntervalMs int      `yaml:"rescan_interval_ms" json:"rescan_interval_ms"`
}

// ControlConfig holds the tuning of the intent-to-command translation.
//
// Mixing has one row per motor and one column per thrust axis in the order
// forward, sideways, rotational, ascent, descent.
type ControlConfig struct {
	DispatchIntervalMs  int         `yaml:"dispatch_interval_ms" json:"dispatch_interval_ms"`
	FrameIntervalMs     int         `yaml:"frame_interval_ms" json:"frame_interval_ms"`
	Deadzone            float64     `yaml:"deadzone" json:"deadzone"`
	NormalGain          float64     `yaml:"normal_gain" json:"normal_gain"`
	EmergencyMultiplier float64     `yaml:"emergency_multiplier" json:"emergency_multiplier"`
	Mixing              [][]float64 `yaml:"mixing" json:"mixing"`
}

// InputConfig holds the gamepad source settings
type InputConfig struct {
	Device     string `yaml:"device,omitempty" json:"device,omitempty"`
	TriggerMax int    `yaml:"trigger_max" json:"trigger_max"`
}

// ServerConfig holds HTTP server configuration. Port 0 disables the server.
type ServerConfig struct {
	HTTPPort int `yaml:"http_port" json:"http_port"`
}

// TelemetryConfig holds status publishing settings. PublishAddress binds a
// ZeroMQ PUB socket and RequestAddress a REP socket answering status and
// configuration requests; either may be empty.
type TelemetryConfig struct {
	PublishAddress string `yaml:"publish_address,omitempty" json:"publish_address,omitempty"`
	RequestAddress string `yaml:"request_address,omitempty" json:"request_address,omitempty"`
	PublishHz      int    `yaml:"publish_hz" json:"publish_hz"`
}

// JournalConfig holds the dispatch journal settings. An empty path disables it.
type JournalConfig struct {
	Path      string `yaml:"path,omitempty" json:"path,omitempty"`
	Workers   int    `yaml:"workers" json:"workers"`
	QueueSize int    `yaml:"queue_size" json:"queue_size"`
}

// FirmwareConfig holds the accepted vehicle firmware versions
type FirmwareConfig struct {
	Constraint string `yaml:"constraint" json:"constraint"`
}

// DefaultMixing is the thruster geometry of the vehicle: four vectored
// horizontal thrusters and two vertical ones.
func DefaultMixing() [][]float64 {
	return [][]float64{
		{1, -1, -1, 0, 0}, // front right
		{1, 1, 1, 0, 0},   // front left
		{1, 1, -1, 0, 0},  // rear right
		{1, -1, 1, 0, 0},  // rear left
		{0, 0, 0, 1, -1},  // vertical left
		{0, 0, 0, 1, -1},  // vertical right
	}
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Version:   "1.0",
		VehicleID: "rov",
		Logging: LoggingConfig{
			Level: "info",
		},
		Serial: SerialConfig{
			Baud:             115200,
			WriteTimeoutMs:   20,
			ReadTimeoutMs:    100,
			Candidates:       []string{"/dev/ttyACM*", "/dev/ttyUSB*"},
			RescanIntervalMs: 1000,
		},
		Control: ControlConfig{
			DispatchIntervalMs:  5,
			FrameIntervalMs:     1,
			Deadzone:            0.05,
			NormalGain:          0.5,
			EmergencyMultiplier: 2.0,
			Mixing:              DefaultMixing(),
		},
		Input: InputConfig{
			TriggerMax: 1023,
		},
		Server: ServerConfig{
			HTTPPort: 8080,
		},
		Telemetry: TelemetryConfig{
			PublishHz: 20,
		},
		Journal: JournalConfig{
			Workers:   1,
			QueueSize: 256,
		},
		Firmware: FirmwareConfig{
			Constraint: "~1.0",
		},
	}
}

// LoadConfig loads configuration from the specified file path. Fields absent
// from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the semantic constraints yaml decoding cannot express.
func (c *Config) Validate() error {
	ctl := c.Control
	if len(ctl.Mixing) != rov.MotorCount {
		return fmt.Errorf("invalid config: control.mixing must have %d rows, got %d", rov.MotorCount, len(ctl.Mixing))
	}
	for i, row := range ctl.Mixing {
		if len(row) != AxisCount {
			return fmt.Errorf("invalid config: control.mixing row %d must have %d weights, got %d", i, AxisCount, len(row))
		}
	}
	if ctl.Deadzone < 0 || ctl.Deadzone >= 1 {
		return fmt.Errorf("invalid config: control.deadzone must be in [0, 1), got %v", ctl.Deadzone)
	}
	if ctl.NormalGain <= 0 {
		return fmt.Errorf("invalid config: control.normal_gain must be positive, got %v", ctl.NormalGain)
	}
	if ctl.EmergencyMultiplier <= 0 {
		return fmt.Errorf("invalid config: control.emergency_multiplier must be positive, got %v", ctl.EmergencyMultiplier)
	}
	if time.Duration(ctl.DispatchIntervalMs)*time.Millisecond < MinDispatchInterval {
		return fmt.Errorf("invalid config: control.dispatch_interval_ms must be at least %d, got %d",
			MinDispatchInterval.Milliseconds(), ctl.DispatchIntervalMs)
	}
	if ctl.FrameIntervalMs <= 0 {
		return fmt.Errorf("invalid config: control.frame_interval_ms must be positive, got %d", ctl.FrameIntervalMs)
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("invalid config: serial.baud must be positive, got %d", c.Serial.Baud)
	}
	if c.Serial.WriteTimeoutMs <= 0 {
		return fmt.Errorf("invalid config: serial.write_timeout_ms must be positive, got %d", c.Serial.WriteTimeoutMs)
	}
	if c.Telemetry.PublishHz <= 0 {
		return fmt.Errorf("invalid config: telemetry.publish_hz must be positive, got %d", c.Telemetry.PublishHz)
	}
	if c.Input.TriggerMax <= 0 {
		return fmt.Errorf("invalid config: input.trigger_max must be positive, got %d", c.Input.TriggerMax)
	}
	return nil
}

// DispatchInterval returns the minimum gap between dispatch cycles.
func (c ControlConfig) DispatchInterval() time.Duration {
	d := time.Duration(c.DispatchIntervalMs) * time.Millisecond
	if d < MinDispatchInterval {
		return MinDispatchInterval
	}
	return d
}

// FrameInterval returns the host loop period.
func (c ControlConfig) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMs) * time.Millisecond
}

// WriteTimeout bounds a single command write.
func (s SerialConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMs) * time.Millisecond
}

// ReadTimeout is the serial port read timeout.
func (s SerialConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMs) * time.Millisecond
}

// RescanInterval is how often the port selection screen globs for devices.
func (s SerialConfig) RescanInterval() time.Duration {
	return time.Duration(s.RescanIntervalMs) * time.Millisecond
}

// PublishInterval is the minimum gap between two telemetry fan-outs.
func (t TelemetryConfig) PublishInterval() time.Duration {
	if t.PublishHz <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(t.PublishHz)
}

// Marshal renders the configuration back to YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
