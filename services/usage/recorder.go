package usage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/upb/model-orchestrator/models"
	"github.com/upb/model-orchestrator/services"
	"go.uber.org/zap"
)

// insertTimeout bounds one sink write so a stuck sink cannot wedge a worker
const insertTimeout = 5 * time.Second

// Sink receives usage records. The postgres repository satisfies this; a
// log-backed sink stands in when no database is configured.
type Sink interface {
	Insert(ctx context.Context, record *models.UsageRecord) error
}

// Config holds configuration for the Recorder
type Config struct {
	BufferSize  int // Size of the record buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  10000,
		WorkerCount: 4,
	}
}

// Recorder writes usage records asynchronously. Record never blocks the
// request path: when the buffer is full the record is dropped with a warning
// rather than stalling orchestration.
type Recorder struct {
	sink        Sink
	logger      *zap.Logger
	recordChan  chan *models.UsageRecord
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	started     bool
	mu          sync.Mutex

	dropped uint64
}

// NewRecorder creates a new Recorder instance
func NewRecorder(sink Sink, logger *zap.Logger, config Config) *Recorder {
	return &Recorder{
		sink:        sink,
		logger:      logger,
		recordChan:  make(chan *models.UsageRecord, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
	}
}

// Start starts the background workers
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("usage recorder already started")
	}

	for i := 0; i < r.workerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.started = true
	r.logger.Info("started usage recorder",
		zap.Int("worker_count", r.workerCount),
		zap.Int("buffer_size", r.bufferSize))

	return nil
}

// Stop drains pending records and stops the workers. Records still queued
// when the timeout expires are lost.
func (r *Recorder) Stop(timeout time.Duration) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return fmt.Errorf("usage recorder not started")
	}
	r.started = false
	r.mu.Unlock()

	r.logger.Info("stopping usage recorder", zap.Int("pending_records", len(r.recordChan)))

	close(r.recordChan)

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("usage recorder stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("usage recorder stop timeout after %v", timeout)
	}
}

// Record queues a usage record without blocking. A full buffer drops the
// record; accounting is best effort and never fails an orchestration.
func (r *Recorder) Record(record *models.UsageRecord) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return services.WrapError(services.ErrorTypeRecording, "usage recorder not started", nil)
	}
	r.mu.Unlock()

	select {
	case r.recordChan <- record:
		return nil
	default:
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
		r.logger.Warn("usage record buffer full, dropping record",
			zap.String("request_id", record.RequestID),
			zap.String("provider_used", record.ProviderUsed))
		return services.WrapError(services.ErrorTypeRecording, "usage record buffer full", nil)
	}
}

// worker processes records from the channel
func (r *Recorder) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("usage worker started", zap.Int("worker_id", id))

	for record := range r.recordChan {
		if err := r.processRecord(record); err != nil {
			r.logger.Error("failed to persist usage record",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("request_id", record.RequestID),
				zap.String("provider_used", record.ProviderUsed))
		}
	}

	r.logger.Debug("usage worker stopped", zap.Int("worker_id", id))
}

// processRecord writes a single record to the sink
func (r *Recorder) processRecord(record *models.UsageRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	if err := r.sink.Insert(ctx, record); err != nil {
		return fmt.Errorf("failed to insert usage record: %w", err)
	}

	return nil
}

// Stats represents recorder statistics
type Stats struct {
	BufferSize     int
	PendingRecords int
	WorkerCount    int
	DroppedRecords uint64
	Started        bool
}

// GetStats returns statistics about the recorder
func (r *Recorder) GetStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Stats{
		BufferSize:     r.bufferSize,
		PendingRecords: len(r.recordChan),
		WorkerCount:    r.workerCount,
		DroppedRecords: r.dropped,
		Started:        r.started,
	}
}
