package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fulldump/livetail/source"
)

// TestStream pushes a rolling feed through the whole pipeline: bars open,
// trade and close, the engine classifies and the consumer drains.
func TestStream(c Config) {

	fmt.Println("== STREAM ==")

	sim := source.NewSimulator("BENCH", 1)
	sim.BarTicks = c.BarTicks

	counter, eng, stop := CreatePipeline(c, sim)
	defer stop()

	stopProgress := Progress(counter)
	defer stopProgress()

	events := c.Rows

	t0 := time.Now()
	Parallel(c.Workers, func() {
		for {
			n := atomic.AddInt64(&events, -1)
			if n < 0 {
				break
			}
			sim.Step()
			eng.NotifyUpdate()
		}
	})
	took := time.Since(t0)

	fmt.Println("events:", c.Rows)
	fmt.Println("took:", took)
	fmt.Printf("Throughput: %.2f events/sec\n", float64(c.Rows)/took.Seconds())
}
