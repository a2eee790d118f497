// mklog simulates a feed and writes its event log as JSON lines, one row
// event per line, appends and corrections interleaved exactly as a poller
// would have observed them. Pipe it into `tail -replay`.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fulldump/goconfig"
	json2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/livetail/source"
	"github.com/fulldump/livetail/store"
)

var VERSION = "dev"

type Config struct {
	Symbol  string `usage:"instrument symbol"`
	Seed    int64  `usage:"feed random seed, 0 picks one from the clock"`
	Steps   int64  `usage:"trades to simulate"`
	Version bool   `usage:"show version and exit"`
}

func main() {

	c := Config{
		Symbol: "BTC-USD",
		Steps:  500,
	}
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", VERSION)
		return
	}

	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	sim := source.NewSimulator(c.Symbol, seed)

	events, err := WriteLog(os.Stdout, sim, c.Steps)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err.Error())
		os.Exit(-1)
	}

	fmt.Fprintln(os.Stderr, "events:", events)
}

// WriteLog steps the feed and writes every observed row event to w,
// returning how many events were written. Observation happens after every
// trade, so intra-bar changes show up as correction events in the log.
func WriteLog(w io.Writer, sim *source.Simulator, steps int64) (int64, error) {

	encoder := jsontext.NewEncoder(w)

	events := int64(0)
	position := store.NoPosition

	for i := int64(0); i < steps; i++ {
		sim.Step()

		rows, err := sim.FetchSince(position)
		if err != nil {
			return events, fmt.Errorf("fetch since %d: %w", position, err)
		}
		for _, row := range rows {
			err := json2.MarshalEncode(encoder, row)
			if err != nil {
				return events, fmt.Errorf("encode event %d: %w", events, err)
			}
			events++
			if row.Index > position {
				position = row.Index
			}
		}
	}

	return events, nil
}
