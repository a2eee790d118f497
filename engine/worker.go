package engine

import (
	"time"
)

// worker is the poll loop: wake every timeout and, when an update was
// signalled, pull everything new from the source and route it. It exits
// when the running flag is cleared.
func (e *Engine) worker() {
	defer close(e.done)

	for e.running.Load() {
		if e.newData.CompareAndSwap(true, false) {
			e.pollOnce()
		}
		time.Sleep(e.config.Timeout)
	}
}

// pollOnce runs one poll cycle: fetch, classify, queue, schedule.
func (e *Engine) pollOnce() {

	position := e.lastKnown.Load()
	rows, err := e.config.Source.FetchSince(position)
	if err != nil {
		// transient: drop the whole cycle and retry on the next tick
		e.newData.Store(true)
		e.log.Printf("ERROR: fetch since %d: %s", position, err.Error())
		return
	}

	var adds, patches bool
	for _, row := range rows {
		appended, err := e.store.Upsert(row)
		if err != nil {
			e.log.Printf("WARNING: drop row %d: %s", row.Index, err.Error())
			continue
		}
		if appended {
			// Advance monotonically: a concurrent resync may have rewritten
			// the cursor, rows from the superseded fetch must not drag it
			// back down.
			for {
				current := e.lastKnown.Load()
				if row.Index <= current || e.lastKnown.CompareAndSwap(current, row.Index) {
					break
				}
			}
			e.queue.MarkAppendPending()
			adds = true
		} else {
			e.queue.EnqueueCorrection(row)
			patches = true
		}
	}

	if adds {
		e.scheduler.RequestFlush(flushAdds)
	}
	if patches {
		e.scheduler.RequestFlush(flushPatches)
	}
}
