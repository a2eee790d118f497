package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fulldump/livetail/sink"
	"github.com/fulldump/livetail/source"
	"github.com/fulldump/livetail/store"
)

// TestRaceFeedServeResync runs the full loop under contention: a live
// simulated feed, the worker polling it, Serve draining flushes into a
// table, and periodic full resyncs from a third goroutine. Meant for
// `go test -race`; the invariant is that the window never outgrows the
// lookback.
func TestRaceFeedServeResync(t *testing.T) {

	lookback := 10

	sim := source.NewSimulator("BTC-USD", 42)
	for i := 0; i < 50; i++ {
		sim.Step()
	}

	table := sink.NewTable()
	e, err := New(&Config{
		Source:   sim,
		Sinks:    []sink.Sink{table},
		Lookback: lookback,
		Timeout:  time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Serve(ctx)

	duration := 2 * time.Second
	start := time.Now()

	wg := sync.WaitGroup{}
	wg.Add(2)

	// Feed
	go func() {
		defer wg.Done()
		for time.Since(start) < duration {
			sim.Step()
			e.NotifyUpdate()
			time.Sleep(time.Millisecond)
		}
	}()

	// Resync
	go func() {
		defer wg.Done()
		next := int64(100_000)
		for time.Since(start) < duration {
			rows := []store.Row{}
			for i := next; i < next+20; i++ {
				rows = append(rows, priceRow(i, float64(i)))
			}
			next += 20
			e.Set(rows)
			if size := e.store.Len(); size > lookback {
				t.Errorf("window has %d rows, lookback is %d", size, lookback)
				return
			}
			time.Sleep(50 * time.Millisecond)
		}
	}()

	wg.Wait()
	e.Stop()

	if size := e.store.Len(); size > lookback {
		t.Errorf("window has %d rows, lookback is %d", size, lookback)
	}
	if size := table.Len(); size > lookback {
		t.Errorf("table has %d rows, lookback is %d", size, lookback)
	}
}

// churnSource keeps re-serving a band of low indexes with fresh fields,
// imitating a feed that lags far behind the resyncs.
type churnSource struct {
	tick int64
}

func (c *churnSource) FetchInitial(back int) ([]store.Row, error) {
	return priceRows(1, 3), nil
}

func (c *churnSource) FetchSince(position int64) ([]store.Row, error) {
	c.tick++
	return []store.Row{priceRow(1+c.tick%50, float64(c.tick))}, nil
}

// TestRaceResyncCursorNeverFallsBack hammers the worker's cursor advance
// against concurrent resyncs. Meant for `go test -race`; after a resync
// the fetch cursor must never sit below the new tail, or the next poll
// re-fetches rows the resync already superseded.
func TestRaceResyncCursorNeverFallsBack(t *testing.T) {

	src := &churnSource{}
	e, err := New(&Config{
		Source:   src,
		Lookback: 10,
		Timeout:  100 * time.Microsecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Stop()

	duration := 2 * time.Second
	start := time.Now()

	wg := sync.WaitGroup{}
	wg.Add(2)

	// Wake-ups
	go func() {
		defer wg.Done()
		for time.Since(start) < duration {
			e.NotifyUpdate()
			time.Sleep(100 * time.Microsecond)
		}
	}()

	// Resync
	go func() {
		defer wg.Done()
		tail := int64(100_000)
		for time.Since(start) < duration {
			e.Set(priceRows(tail-9, tail))
			if cursor := e.lastKnown.Load(); cursor < tail {
				t.Errorf("cursor fell back to %d after a resync to %d", cursor, tail)
				return
			}
			tail += 10
			time.Sleep(time.Millisecond)
		}
	}()

	wg.Wait()

	if cursor := e.lastKnown.Load(); cursor < 100_000 {
		t.Errorf("cursor ended at %d, below every resync tail", cursor)
	}
}
