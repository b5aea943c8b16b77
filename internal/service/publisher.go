package service

import (
	"context"
	"errors"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/core/ports"
	"schnl-ledger/internal/platform/metrics"

	"github.com/rs/zerolog"
)

// NamedPublisher labels a sink for logs and metrics.
type NamedPublisher struct {
	Name      string
	Publisher ports.EventPublisher
}

// fanoutPublisher delivers every entry to all sinks, independently.
type fanoutPublisher struct {
	sinks   []NamedPublisher
	metrics *metrics.Metrics
}

// NewFanoutPublisher combines sinks into one publisher. A failing sink does
// not stop delivery to the others; all failures are joined.
func NewFanoutPublisher(m *metrics.Metrics, sinks ...NamedPublisher) ports.EventPublisher {
	return &fanoutPublisher{sinks: sinks, metrics: m}
}

func (f *fanoutPublisher) Publish(ctx context.Context, entry *domain.JournalEntry) error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Publisher.Publish(ctx, entry); err != nil {
			if f.metrics != nil {
				f.metrics.ObservePublishFailure(sink.Name)
			}
			errs = append(errs, errors.Join(errors.New(sink.Name), err))
		}
	}
	return errors.Join(errs...)
}

const defaultPublishQueue = 1024

// entryDispatcher delivers committed entries to a publisher from a single
// goroutine, in the order they were enqueued. enqueue and stop must be
// serialized by the caller.
type entryDispatcher struct {
	publisher ports.EventPublisher
	queue     chan *domain.JournalEntry
	done      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	stopped   bool
	log       zerolog.Logger
}

func newEntryDispatcher(p ports.EventPublisher, size int, log zerolog.Logger) *entryDispatcher {
	if size <= 0 {
		size = defaultPublishQueue
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &entryDispatcher{
		publisher: p,
		queue:     make(chan *domain.JournalEntry, size),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		log:       log,
	}
	go d.run()
	return d
}

func (d *entryDispatcher) run() {
	defer close(d.done)
	for entry := range d.queue {
		if err := d.publisher.Publish(d.ctx, entry); err != nil {
			d.log.Warn().Err(err).Uint64("seq", entry.Seq).Msg("failed to publish ledger events")
		}
	}
}

// enqueue blocks while the queue is full so that no entry is skipped.
func (d *entryDispatcher) enqueue(entry *domain.JournalEntry) bool {
	if d.stopped {
		return false
	}
	d.queue <- entry
	return true
}

func (d *entryDispatcher) stop() {
	if d.stopped {
		return
	}
	d.stopped = true
	close(d.queue)
}

// wait blocks until the queue is drained. When ctx ends first the in-flight
// publish is cancelled and the remaining entries are abandoned.
func (d *entryDispatcher) wait(ctx context.Context) error {
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}
}
