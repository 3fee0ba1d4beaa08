package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// RecorderConfig contains configuration for the Recorder.
type RecorderConfig struct {
	// Enabled enables audit recording. A disabled recorder accepts and
	// discards records.
	Enabled bool

	// BufferSize is the size of the async write channel.
	// Default: 1000
	BufferSize int

	// WriteTimeout is the timeout for a single storage write.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// OnDrop, if set, is called once per record dropped on a full buffer.
	OnDrop func()
}

// RecorderStats reports the recorder's lifetime counters.
type RecorderStats struct {
	// Written is the number of records successfully persisted.
	Written int64

	// Dropped is the number of records discarded on a full buffer.
	Dropped int64
}

// Recorder writes admission records to a Store asynchronously so the
// admission path never blocks on storage.
type Recorder struct {
	store      Store
	config     RecorderConfig
	recordChan chan *Record
	done       chan struct{}
	wg         sync.WaitGroup
	closeOnce  sync.Once
	logger     *slog.Logger

	written atomic.Int64
	dropped atomic.Int64
}

// NewRecorder creates a recorder writing to store and starts its
// background worker.
func NewRecorder(store Store, config RecorderConfig) *Recorder {
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}

	r := &Recorder{
		store:      store,
		config:     config,
		recordChan: make(chan *Record, config.BufferSize),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "audit.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("audit recorder initialized",
		"enabled", config.Enabled,
		"buffer_size", config.BufferSize,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// Record enqueues a decision for async persistence. It fills in the record
// ID and timestamp when absent, never blocks, and drops the record (counting
// the drop) when the buffer is full. It returns ErrRecorderClosed after
// Close; a drop is not an error.
func (r *Recorder) Record(record *Record) error {
	if !r.config.Enabled {
		return nil
	}

	select {
	case <-r.done:
		return ErrRecorderClosed
	default:
	}

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Time.IsZero() {
		record.Time = time.Now()
	}

	select {
	case r.recordChan <- record:
	default:
		r.dropped.Add(1)
		if r.config.OnDrop != nil {
			r.config.OnDrop()
		}
		r.logger.Warn("audit buffer full, dropping record",
			"record_id", record.ID,
			"client_key", record.ClientKey,
			"buffer_size", r.config.BufferSize,
		)
	}
	return nil
}

// Stats returns the lifetime write and drop counters.
func (r *Recorder) Stats() RecorderStats {
	return RecorderStats{
		Written: r.written.Load(),
		Dropped: r.dropped.Load(),
	}
}

// Close stops the recorder, drains records already enqueued, and waits for
// the worker to finish. Close is idempotent.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()

		// A Record call that won the race against close(done) may enqueue
		// after the worker's final drain pass. Sweep the channel once more;
		// a racer that still has not sent by now loses its record.
		for {
			select {
			case record := <-r.recordChan:
				r.write(record)
			default:
				return
			}
		}
	})
	return nil
}

// worker drains the record channel and writes to storage.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.write(record)

		case <-r.done:
			// Drain whatever is already enqueued before exiting.
			for {
				select {
				case record := <-r.recordChan:
					r.write(record)
				default:
					return
				}
			}
		}
	}
}

// write persists a single record.
func (r *Recorder) write(record *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()

	if err := r.store.Insert(ctx, record); err != nil {
		r.logger.Error("failed to store audit record",
			"record_id", record.ID,
			"client_key", record.ClientKey,
			"error", err,
		)
		return
	}

	r.written.Add(1)

	elapsed := time.Since(start)
	if elapsed > r.config.WriteTimeout/2 {
		r.logger.Warn("slow audit write",
			"record_id", record.ID,
			"duration_ms", elapsed.Milliseconds(),
		)
	}
}
