package analytics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/metrics"
)

// Kind names one counter.
type Kind string

// Counter kinds.
const (
	KindResumeView  Kind = "resume_view"
	KindResumeMatch Kind = "resume_match"
	KindJobView     Kind = "job_view"
	KindJobMatch    Kind = "job_match"
)

// DefaultBuffer is the event queue size.
const DefaultBuffer = 256

const applyTimeout = 5 * time.Second

// Event is one counter increment.
type Event struct {
	Kind Kind
	ID   string
}

// Counters applies counter increments on a single background worker.
// Record never blocks: a full queue drops the event.
type Counters struct {
	resumes CounterStore
	jobs    CounterStore
	events  chan Event
	done    chan struct{}
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewCounters creates the counter worker. Call Run to start applying events.
// buffer <= 0 uses DefaultBuffer.
func NewCounters(resumes, jobs CounterStore, buffer int, logger *zap.Logger) *Counters {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Counters{
		resumes: resumes,
		jobs:    jobs,
		events:  make(chan Event, buffer),
		done:    make(chan struct{}),
		logger:  logger,
	}
}

// Record enqueues an increment. Safe to call after Close; the event is dropped.
func (c *Counters) Record(kind Kind, id string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.drop(kind, id)
		return
	}
	select {
	case c.events <- Event{Kind: kind, ID: id}:
	default:
		c.drop(kind, id)
	}
}

// ResumesViewed records a view for every résumé id.
func (c *Counters) ResumesViewed(ids ...string) {
	for _, id := range ids {
		c.Record(KindResumeView, id)
	}
}

// ResumesMatched records a match appearance for every résumé id.
func (c *Counters) ResumesMatched(ids ...string) {
	for _, id := range ids {
		c.Record(KindResumeMatch, id)
	}
}

// JobMatched records one match run for a job.
func (c *Counters) JobMatched(id string) {
	c.Record(KindJobMatch, id)
}

// Run applies events until ctx is cancelled or Close drains the queue.
func (c *Counters) Run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-c.events:
			if !ok {
				return
			}
			c.apply(ctx, ev)
		}
	}
}

// Close stops accepting events and waits for Run to drain the queue.
// It must only be called when Run was started.
func (c *Counters) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
	c.mu.Unlock()
	<-c.done
}

func (c *Counters) apply(ctx context.Context, ev Event) {
	ctx, cancel := context.WithTimeout(ctx, applyTimeout)
	defer cancel()

	var err error
	switch ev.Kind {
	case KindResumeView:
		err = c.resumes.IncrementViews(ctx, ev.ID)
	case KindResumeMatch:
		err = c.resumes.IncrementMatches(ctx, ev.ID)
	case KindJobView:
		err = c.jobs.IncrementViews(ctx, ev.ID)
	case KindJobMatch:
		err = c.jobs.IncrementMatches(ctx, ev.ID)
	default:
		c.logger.Warn("Unknown analytics event", zap.String("kind", string(ev.Kind)))
		return
	}
	if err != nil {
		metrics.AnalyticsEventsTotal.WithLabelValues(string(ev.Kind), "failed").Inc()
		c.logger.Warn("Failed to apply analytics event",
			zap.String("kind", string(ev.Kind)),
			zap.String("id", ev.ID),
			zap.Error(err),
		)
		return
	}
	metrics.AnalyticsEventsTotal.WithLabelValues(string(ev.Kind), "applied").Inc()
}

func (c *Counters) drop(kind Kind, id string) {
	metrics.AnalyticsEventsTotal.WithLabelValues(string(kind), "dropped").Inc()
	c.logger.Debug("Analytics event dropped", zap.String("kind", string(kind)), zap.String("id", id))
}
