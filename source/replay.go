package source

import (
	"fmt"
	"io"
	"sort"
	"sync"

	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/livetail/store"
)

// Replay plays back an NDJSON event log, one row per line in the same
// shape the NDJSON sink writes them:
//
//	{"index":12,"fields":{"close":101.3,"volume":840}}
//
// A line repeating an earlier index is a correction event and flows
// through as such. The whole log is decoded up front; Advance releases
// events to the engine, so a driver controls the playback pace.
type Replay struct {
	mutex sync.Mutex

	events   []store.Row
	released int
	served   int
}

func NewReplay(r io.Reader) (*Replay, error) {
	events := []store.Row{}

	decoder := jsontext.NewDecoder(r)
	for {
		row := store.Row{}
		err := json2.UnmarshalDecode(decoder, &row)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode event %d: %w", len(events)+1, err)
		}
		events = append(events, row)
	}

	return &Replay{
		events: events,
	}, nil
}

// Advance releases up to n more events to the engine and returns how many
// were actually released.
func (r *Replay) Advance(n int) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	released := n
	if remaining := len(r.events) - r.released; released > remaining {
		released = remaining
	}
	r.released += released
	return released
}

// Remaining returns how many events have not been released yet.
func (r *Replay) Remaining() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return len(r.events) - r.released
}

func (r *Replay) FetchInitial(back int) ([]store.Row, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	// collapse released events by index, a later event wins
	byIndex := map[int64]store.Row{}
	for _, row := range r.events[:r.released] {
		byIndex[row.Index] = row
	}

	rows := make([]store.Row, 0, len(byIndex))
	for _, row := range byIndex {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Index < rows[j].Index })
	if len(rows) > back {
		rows = rows[len(rows)-back:]
	}

	r.served = r.released

	return rows, nil
}

// FetchSince serves every released event not handed out yet, in log order.
// The position is not needed: the log order is authoritative, and the
// engine re-classifies each row anyway.
func (r *Replay) FetchSince(position int64) ([]store.Row, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	rows := append([]store.Row{}, r.events[r.served:r.released]...)
	r.served = r.released

	return rows, nil
}
