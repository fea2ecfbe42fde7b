package store

import (
	"context"
	"log/slog"
)

const recorderQueueSize = 256

// Recorder writes quote records off the request path. Records are queued and
// inserted by a single background worker; when the queue is full the record
// is dropped, a slow database must never stall quote serving.
type Recorder struct {
	db     *Database
	queue  chan *QuoteRecord
	done   chan struct{}
	logger *slog.Logger
}

func NewRecorder(db *Database, logger *slog.Logger) *Recorder {
	return &Recorder{
		db:     db,
		queue:  make(chan *QuoteRecord, recorderQueueSize),
		done:   make(chan struct{}),
		logger: logger.With("module", "store"),
	}
}

// Start runs the insert worker until ctx is cancelled, then drains whatever
// is already queued before returning.
func (r *Recorder) Start(ctx context.Context) {
	go func() {
		defer close(r.done)
		for {
			select {
			case record := <-r.queue:
				r.insert(record)
			case <-ctx.Done():
				for {
					select {
					case record := <-r.queue:
						r.insert(record)
					default:
						return
					}
				}
			}
		}
	}()
}

// Record queues one record without blocking.
func (r *Recorder) Record(record *QuoteRecord) {
	select {
	case r.queue <- record:
	default:
		r.logger.Warn("quote history queue full, dropping record")
	}
}

// Wait blocks until the worker has finished draining after Start's context
// was cancelled.
func (r *Recorder) Wait() {
	<-r.done
}

func (r *Recorder) insert(record *QuoteRecord) {
	if err := r.db.Create(record).Error; err != nil {
		r.logger.Error("failed to insert quote record", slog.Any("error", err))
	}
}
