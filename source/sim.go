package source

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/fulldump/livetail/store"
)

var sjsonOptions = &sjson.Options{Optimistic: true}

// Simulator generates a synthetic OHLCV bar feed. The current bar lives as
// raw JSON and absorbs one trade per Step (close moves, high/low stretch,
// volume grows); every BarTicks steps the bar freezes and the next one
// opens. A bar that changed after being served is re-emitted by FetchSince,
// which is how corrections reach the engine.
type Simulator struct {
	mutex sync.Mutex

	symbol string
	feed   string // session id, stamped into every bar
	random *rand.Rand

	bar     []byte // current bar, raw JSON
	index   int64
	price   float64
	tick    int
	changed bool // current bar has unserved mutations

	closed  []store.Row // finished bars, oldest first
	pending []store.Row // final states never served before the bar froze

	fetches int

	// BarTicks is how many Steps a bar stays open. History bounds how many
	// finished bars are kept for FetchInitial. FailEvery > 0 makes every
	// Nth FetchSince fail with a transient error.
	BarTicks  int
	History   int
	FailEvery int
}

func NewSimulator(symbol string, seed int64) *Simulator {
	s := &Simulator{
		symbol:   symbol,
		feed:     uuid.NewString(),
		random:   rand.New(rand.NewSource(seed)),
		price:    100,
		BarTicks: 5,
		History:  256,
	}
	s.bar = s.openBar()
	s.changed = true
	return s
}

// Step advances the feed one tick.
func (s *Simulator) Step() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.tick++
	if s.tick%s.BarTicks == 0 {
		s.rollBar()
		return
	}

	s.price = round2(s.price * (1 + (s.random.Float64()-0.5)*0.01))

	bar := s.bar
	bar, _ = sjson.SetBytesOptions(bar, "close", s.price, sjsonOptions)
	if s.price > gjson.GetBytes(bar, "high").Float() {
		bar, _ = sjson.SetBytesOptions(bar, "high", s.price, sjsonOptions)
	}
	if s.price < gjson.GetBytes(bar, "low").Float() {
		bar, _ = sjson.SetBytesOptions(bar, "low", s.price, sjsonOptions)
	}
	volume := gjson.GetBytes(bar, "volume").Float() + float64(s.random.Intn(100)+1)
	bar, _ = sjson.SetBytesOptions(bar, "volume", volume, sjsonOptions)

	s.bar = bar
	s.changed = true
}

func (s *Simulator) FetchInitial(back int) ([]store.Row, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	rows := append([]store.Row{}, s.closed...)
	rows = append(rows, s.decodeBar())
	if len(rows) > back {
		rows = rows[len(rows)-back:]
	}

	// everything visible has been served now
	s.pending = nil
	s.changed = false

	return rows, nil
}

func (s *Simulator) FetchSince(position int64) ([]store.Row, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.fetches++
	if s.FailEvery > 0 && s.fetches%s.FailEvery == 0 {
		return nil, fmt.Errorf("simulated feed outage (fetch %d)", s.fetches)
	}

	rows := []store.Row{}
	for _, row := range s.closed {
		if row.Index > position {
			rows = append(rows, row)
		}
	}
	for _, row := range s.pending {
		// unserved final states; the ones above position were already
		// picked from closed
		if row.Index <= position {
			rows = append(rows, row)
		}
	}
	s.pending = nil

	if s.changed {
		rows = append(rows, s.decodeBar())
		s.changed = false
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Index < rows[j].Index })

	return rows, nil
}

// Feed returns the session id stamped into every bar.
func (s *Simulator) Feed() string {
	return s.feed
}

func (s *Simulator) rollBar() {
	final := s.decodeBar()
	s.closed = append(s.closed, final)
	if len(s.closed) > s.History {
		s.closed = append([]store.Row{}, s.closed[len(s.closed)-s.History:]...)
	}
	if s.changed {
		s.pending = append(s.pending, final)
	}

	s.index++
	s.bar = s.openBar()
	s.changed = true
}

func (s *Simulator) openBar() []byte {
	b := []byte(`{}`)
	b, _ = sjson.SetBytesOptions(b, "feed", s.feed, sjsonOptions)
	b, _ = sjson.SetBytesOptions(b, "symbol", s.symbol, sjsonOptions)
	b, _ = sjson.SetBytesOptions(b, "time", time.Now().Unix(), sjsonOptions)
	b, _ = sjson.SetBytesOptions(b, "open", s.price, sjsonOptions)
	b, _ = sjson.SetBytesOptions(b, "high", s.price, sjsonOptions)
	b, _ = sjson.SetBytesOptions(b, "low", s.price, sjsonOptions)
	b, _ = sjson.SetBytesOptions(b, "close", s.price, sjsonOptions)
	b, _ = sjson.SetBytesOptions(b, "volume", 0.0, sjsonOptions)
	return b
}

func (s *Simulator) decodeBar() store.Row {
	fields, _ := gjson.ParseBytes(s.bar).Value().(map[string]any)
	return store.Row{Index: s.index, Fields: fields}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
