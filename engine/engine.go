// Package engine keeps a bounded tail of a growing, time-indexed row set
// synchronized with one or more rendering consumers. A background worker
// polls the source for appended or corrected rows; deliveries are batched,
// de-duplicated and coalesced, and always executed on a single consumer
// goroutine (an external UI loop waiting on Adds/Patches, or Serve).
package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/fulldump/livetail/sink"
	"github.com/fulldump/livetail/source"
	"github.com/fulldump/livetail/store"
)

type Config struct {
	Source source.Source // mandatory
	Sinks  []sink.Sink

	// Lookback is the window size: how many rows stay visible.
	Lookback int

	// Timeout is the worker sleep between polls. Default is 1 second.
	Timeout time.Duration

	// Log receives worker diagnostics. Default is discard.
	Log *log.Logger
}

type Engine struct {
	config *Config
	log    *log.Logger

	store     *store.Store
	queue     *queue
	scheduler *scheduler
	sinks     []sink.Sink

	// lastKnown is the highest index observed from the source, so polls
	// only ask for newer rows. Distinct from the store's delivered cursor.
	lastKnown atomic.Int64

	newData atomic.Bool
	running atomic.Bool
	done    chan struct{}
}

// New builds the engine: it fetches the initial window, establishes the
// sink schema, leaves an append flush armed so the first drain streams the
// initial content, and starts the poll worker.
func New(config *Config) (*Engine, error) {

	if config.Source == nil {
		return nil, fmt.Errorf("config: source is mandatory")
	}
	if config.Lookback < 1 {
		return nil, fmt.Errorf("config: lookback must be positive")
	}
	if config.Timeout == 0 {
		config.Timeout = time.Second
	}
	logger := config.Log
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	e := &Engine{
		config:    config,
		log:       logger,
		store:     store.NewStore(config.Lookback),
		queue:     &queue{},
		scheduler: newScheduler(),
		sinks:     config.Sinks,
		done:      make(chan struct{}),
	}
	e.lastKnown.Store(store.NoPosition)

	rows, err := config.Source.FetchInitial(config.Lookback)
	if err != nil {
		return nil, fmt.Errorf("initial fetch: %w", err)
	}
	e.store.Replace(rows)
	if last, exists := e.store.PositionOfLastAppended(); exists {
		e.lastKnown.Store(last)
	}

	// No consumer loop is draining yet, apply the schema directly.
	columns, _ := e.store.TakeSchema()
	for _, s := range e.sinks {
		s.ApplySchema(columns)
	}
	e.queue.MarkAppendPending()
	e.scheduler.RequestFlush(flushAdds)

	e.running.Store(true)
	go e.worker()

	return e, nil
}

// Set replaces the whole dataset and schedules a full resync delivery:
// schema first, then every row as fresh append data, in one batch.
// Corrections pending against the old dataset are discarded, the fresh
// stream supersedes them. Safe to call with the worker running.
func (e *Engine) Set(rows []store.Row) {
	e.store.Replace(rows)
	if last, exists := e.store.PositionOfLastAppended(); exists {
		e.lastKnown.Store(last)
	} else {
		e.lastKnown.Store(store.NoPosition)
	}
	e.queue.Reset()
	e.queue.MarkAppendPending()
	e.scheduler.RequestFlush(flushAdds)
}

// NotifyUpdate signals that the source may have new or changed rows. It
// never blocks and never touches the source; the worker picks the flag up
// on its next tick.
func (e *Engine) NotifyUpdate() {
	e.newData.Store(true)
}

// GetLastPosition returns the tail index of the window, false when empty.
func (e *Engine) GetLastPosition() (int64, bool) {
	return e.store.PositionOfLastAppended()
}

// Stop halts the worker cooperatively: it waits, bounded by the poll
// timeout, for the current cycle or sleep to finish, and never interrupts
// it. Flushes already armed can still be drained afterwards.
func (e *Engine) Stop() {
	if !e.running.CompareAndSwap(true, false) {
		return
	}
	select {
	case <-e.done:
	case <-time.After(e.config.Timeout + 100*time.Millisecond):
	}
}

// Adds is the armed signal for append flushes. An external consumer loop
// waits on it and calls FlushAdds in its own turn.
func (e *Engine) Adds() <-chan struct{} {
	return e.scheduler.adds
}

// Patches is the armed signal for correction flushes, see Adds.
func (e *Engine) Patches() <-chan struct{} {
	return e.scheduler.patches
}

// Serve drains flush signals serially until the context is cancelled. It
// is the consumer loop for hosts that do not bring their own.
func (e *Engine) Serve(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.scheduler.adds:
			e.FlushAdds()
		case <-e.scheduler.patches:
			e.FlushPatches()
		}
	}
}

// FlushAdds delivers everything appended since the last delivery as one
// ascending batch, preceded by the schema when a resync changed it. With
// nothing pending it returns without touching any sink. Must be called
// from the consumer loop.
func (e *Engine) FlushAdds() {
	defer e.recoverSink("adds")

	if !e.queue.ConsumeAppendFlag() {
		return
	}

	rows, retain, columns, schema := e.store.TakeUndelivered()
	if schema {
		for _, s := range e.sinks {
			s.ApplySchema(columns)
		}
	}
	if len(rows) == 0 {
		return
	}
	for _, s := range e.sinks {
		s.StreamRows(rows, retain)
	}
}

// FlushPatches delivers pending corrections in observation order. A
// correction whose index has not been delivered yet is skipped: the store
// already holds its corrected fields and the pending adds flush carries
// them, so each index reaches the sinks exactly once whichever flush
// drains first. A correction whose row left a sink's retained window is
// re-expressed as a one-row stream, so it is never silently dropped. Must
// be called from the consumer loop.
func (e *Engine) FlushPatches() {
	defer e.recoverSink("patches")

	corrections := e.queue.DrainCorrections()
	if len(corrections) == 0 {
		return
	}

	delivered, exists := e.store.DeliveredPosition()

	retain := e.store.Len()
	if retain > e.config.Lookback {
		retain = e.config.Lookback
	}

	for _, row := range corrections {
		if !exists || row.Index > delivered {
			// Undelivered index: the pending adds flush carries it.
			continue
		}
		for _, s := range e.sinks {
			if !s.PatchRow(row) {
				s.StreamRows([]store.Row{row}, retain)
			}
		}
	}
}

// Drain runs one poll cycle and both flushes synchronously: everything the
// source has right now ends up delivered when it returns. For hosts that
// want a final catch-up before shutdown, called from the consumer
// goroutine, typically after Stop.
func (e *Engine) Drain() {
	e.pollOnce()
	e.FlushAdds()
	e.FlushPatches()
}

// recoverSink keeps a panicking sink from killing the consumer loop.
func (e *Engine) recoverSink(flush string) {
	if r := recover(); r != nil {
		e.log.Printf("ERROR: recovered sink panic on %s flush: %v", flush, r)
	}
}
