package store

import (
	"sync"
	"testing"
	"time"
)

func TestRaceUpsertTakeReplace(t *testing.T) {
	s := NewStore(10)
	s.Replace(priceRows(0, 9))

	var wg sync.WaitGroup
	wg.Add(3)

	start := time.Now()
	duration := 2 * time.Second

	// Writer
	go func() {
		defer wg.Done()
		i := int64(10)
		for time.Since(start) < duration {
			_, err := s.Upsert(priceRow(i, float64(i)))
			if err != nil {
				t.Error(err)
				return
			}
			i++
		}
	}()

	// Consumer
	go func() {
		defer wg.Done()
		for time.Since(start) < duration {
			rows, retain, _, _ := s.TakeUndelivered()
			if len(rows) > retain {
				t.Errorf("batch of %d rows exceeds retain %d", len(rows), retain)
				return
			}
		}
	}()

	// Resync
	go func() {
		defer wg.Done()
		for time.Since(start) < duration {
			s.Replace(priceRows(0, 49))
			if size := s.Len(); size > 10 {
				t.Errorf("store size %d exceeds lookback", size)
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()

	wg.Wait()

	if size := s.Len(); size > 10 {
		t.Errorf("store size %d exceeds lookback", size)
	}
}
