package link

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync/atomic"

	"github.com/tarm/serial"

	"github.com/open-teleop/rovpilot/pkg/config"
	"github.com/open-teleop/rovpilot/pkg/log"
)

// OpenSerial opens the vehicle's serial device and wraps it in a
// StreamChannel.
func OpenSerial(path string, cfg config.SerialConfig, logger log.Logger) (*StreamChannel, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        path,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port '%s': %w", path, err)
	}

	logger = logger.WithField("port", path)
	logger.Infof("Opened serial port at %d baud", cfg.Baud)
	return NewStreamChannel(&serialPort{port: port}, cfg.WriteTimeout(), logger), nil
}

// serialPort hides read timeouts. With a read timeout configured the port
// reports an idle line as a zero-length read or io.EOF, which would otherwise
// look like a closed stream.
type serialPort struct {
	port   *serial.Port
	closed atomic.Bool
}

func (p *serialPort) Read(b []byte) (int, error) {
	for {
		n, err := p.port.Read(b)
		if n > 0 {
			return n, nil
		}
		if p.closed.Load() {
			return 0, io.EOF
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
	}
}

func (p *serialPort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *serialPort) Close() error {
	p.closed.Store(true)
	return p.port.Close()
}

// ScanPorts expands the glob patterns and returns the matching device paths,
// sorted and without duplicates.
func ScanPorts(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var ports []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid port pattern '%s': %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				ports = append(ports, m)
			}
		}
	}
	sort.Strings(ports)
	return ports, nil
}
