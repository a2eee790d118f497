package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fulldump/livetail/source"
)

// TestPatch keeps one bar open for the whole run, so after the first
// delivery every event the engine observes is a correction to the same
// row. Measures the patch path.
func TestPatch(c Config) {

	fmt.Println("== PATCH ==")

	sim := source.NewSimulator("BENCH", 1)
	sim.BarTicks = int(c.Rows) + 1

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
