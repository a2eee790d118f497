package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fulldump/livetail/engine"
	"github.com/fulldump/livetail/sink"
	"github.com/fulldump/livetail/source"
	"github.com/fulldump/livetail/store"
)

func Parallel(workers int, f func()) {
	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}
	wg.Wait()
}

// countSink counts deliveries without keeping them, so the bench measures
// the pipeline and not a growing mirror.
type countSink struct {
	schemas  atomic.Int64
	streamed atomic.Int64
	patched  atomic.Int64
}

func (s *countSink) ApplySchema(columns []string) {
	s.schemas.Add(1)
}

func (s *countSink) StreamRows(rows []store.Row, retain int) {
	s.streamed.Add(int64(len(rows)))
}

func (s *countSink) PatchRow(row store.Row) bool {
	s.patched.Add(1)
	return true
}

// CreatePipeline wires a simulated feed into an engine draining into a
// counting sink and starts the consumer loop. The returned stop joins the
// consumer, runs the final catch-up and prints the delivery counters.
func CreatePipeline(c Config, sim *source.Simulator) (counter *countSink, eng *engine.Engine, stop func()) {

	counter = &countSink{}

	eng, err := engine.New(&engine.Config{
		Source:   sim,
		Sinks:    []sink.Sink{counter},
		Lookback: c.Lookback,
		Timeout:  time.Duration(c.PollUs) * time.Microsecond,
	})
	if err != nil {
		fmt.Println("ERROR:", err.Error())
		os.Exit(-1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		eng.Serve(ctx)
	}()

	stop = func() {
		eng.Stop()
		cancel()
		wg.Wait()
		eng.Drain()

		fmt.Println("schemas:", counter.schemas.Load())
		fmt.Println("streamed:", counter.streamed.Load())
		fmt.Println("patched:", counter.patched.Load())
	}

	return counter, eng, stop
}

// Progress prints the delivered total every second until stopped.
func Progress(counter *countSink) (stop func()) {
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-time.After(1 * time.Second):
				fmt.Println("delivered:", counter.streamed.Load()+counter.patched.Load())
			}
		}
	}()
	return func() {
		close(done)
	}
}
