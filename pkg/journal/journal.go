// Package journal persists one record per dispatch cycle that produced
// commands. Records are queued by the session without blocking and written
// to a storm (bolt) database by a small worker pool.
package journal

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/asdine/storm/v3"

	"github.com/open-teleop/rovpilot/pkg/config"
	"github.com/open-teleop/rovpilot/pkg/log"
	"github.com/open-teleop/rovpilot/pkg/rov"
)

// ErrNotRunning is returned by Recent after Stop.
var ErrNotRunning = errors.New("journal is not running")

// Record is one dispatch cycle.
type Record struct {
	ID       int           `storm:"id,increment" json:"id"`
	Time     time.Time     `storm:"index" json:"time"`
	Port     string        `json:"port,omitempty"`
	Cycle    uint64        `json:"cycle"`
	Resync   bool          `json:"resync,omitempty"`
	Commands []rov.Command `json:"commands"`
	Failed   int           `json:"failed,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Metrics tracks the journal workers.
type Metrics struct {
	QueuedCount    int64 `json:"queued"`
	WrittenCount   int64 `json:"written"`
	DroppedCount   int64 `json:"dropped"`
	ErrorCount     int64 `json:"errors"`
	WriteTimeAvgUs int64 `json:"write_time_avg_us"`
	WriteTimeMaxUs int64 `json:"write_time_max_us"`
}

// Journal is a bounded queue in front of a storm database.
type Journal struct {
	path        string
	workerCount int
	logger      log.Logger
	db          *storm.DB
	queue       chan Record

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup

	metricsMu sync.Mutex
	metrics   Metrics
}

// Open opens (or creates) the database at cfg.Path.
func Open(cfg config.JournalConfig, logger log.Logger) (*Journal, error) {
	db, err := storm.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal '%s': %w", cfg.Path, err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 256
	}

	return &Journal{
		path:        cfg.Path,
		workerCount: workers,
		logger:      logger.WithField("journal", cfg.Path),
		db:          db,
		queue:       make(chan Record, size),
	}, nil
}

// Start launches the workers.
func (j *Journal) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return
	}
	j.running = true
	j.logger.Infof("Starting journal with %d workers", j.workerCount)

	for i := 0; i < j.workerCount; i++ {
		j.wg.Add(1)
		go j.worker(i)
	}
}

// Record queues r. It returns false without blocking when the journal is
// stopped or the queue is full.
func (j *Journal) Record(r Record) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return false
	}

	select {
	case j.queue <- r:
		j.metricsMu.Lock()
		j.metrics.QueuedCount++
		j.metricsMu.Unlock()
		return true
	default:
		j.metricsMu.Lock()
		j.metrics.DroppedCount++
		dropped := j.metrics.DroppedCount
		j.metricsMu.Unlock()
		if dropped == 1 {
			j.logger.Warnf("Journal queue is full, discarding records")
		}
		return false
	}
}

// Recent returns up to limit records, newest first.
func (j *Journal) Recent(limit int) ([]Record, error) {
	j.mu.Lock()
	running := j.running
	j.mu.Unlock()
	if !running {
		return nil, ErrNotRunning
	}

	var records []Record
	err := j.db.All(&records, storm.Limit(limit), storm.Reverse())
	if err != nil && !errors.Is(err, storm.ErrNotFound) {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	return records, nil
}

// Stop drains the queue, waits for the workers and closes the database.
func (j *Journal) Stop() error {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return nil
	}
	j.running = false
	close(j.queue)
	j.mu.Unlock()

	j.logger.Infof("Stopping journal")
	j.wg.Wait()

	m := j.GetMetrics()
	j.logger.Infof("Journal metrics: written=%d, dropped=%d, errors=%d, avg_time=%dµs, max_time=%dµs",
		m.WrittenCount, m.DroppedCount, m.ErrorCount, m.WriteTimeAvgUs, m.WriteTimeMaxUs)

	return j.db.Close()
}

// GetMetrics returns a copy of the current metrics.
func (j *Journal) GetMetrics() Metrics {
	j.metricsMu.Lock()
	defer j.metricsMu.Unlock()
	return j.metrics
}

func (j *Journal) worker(id int) {
	defer j.wg.Done()
	j.logger.Debugf("Journal worker %d started", id)

	for r := range j.queue {
		start := time.Now()
		err := j.db.Save(&r)
		elapsed := time.Since(start).Microseconds()

		j.metricsMu.Lock()
		if err != nil {
			j.metrics.ErrorCount++
		} else {
			j.metrics.WrittenCount++
		}
		if j.metrics.WriteTimeAvgUs == 0 {
			j.metrics.WriteTimeAvgUs = elapsed
		} else {
			j.metrics.WriteTimeAvgUs = (j.metrics.WriteTimeAvgUs + elapsed) / 2
		}
		if elapsed > j.metrics.WriteTimeMaxUs {
			j.metrics.WriteTimeMaxUs = elapsed
		}
		j.metricsMu.Unlock()

		if err != nil {
			j.logger.Errorf("Failed to write journal record for cycle %d: %v", r.Cycle, err)
		}
	}

	j.logger.Debugf("Journal worker %d stopped", id)
}
