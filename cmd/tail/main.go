package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fulldump/goconfig"

	"github.com/fulldump/livetail/engine"
	"github.com/fulldump/livetail/sink"
	"github.com/fulldump/livetail/source"
)

var VERSION = "dev"

type Config struct {
	Replay   bool   `usage:"read a replay log from stdin instead of simulating"`
	Symbol   string `usage:"instrument symbol for the simulated feed"`
	Seed     int64  `usage:"feed random seed, 0 picks one from the clock"`
	Steps    int64  `usage:"simulated trades to emit, 0 runs until a signal"`
	Lookback int    `usage:"window size in rows"`
	TradeMs  int    `usage:"milliseconds between feed events"`
	PollMs   int    `usage:"worker poll interval in milliseconds"`
	Filter   string `usage:"only emit rows matching this JSON condition"`
	Columns  string `usage:"comma separated columns to emit, empty emits all"`
	Version  bool   `usage:"show version and exit"`
}

func main() {

	c := Config{
		Symbol:   "BTC-USD",
		Lookback: 30,
		TradeMs:  100,
		PollMs:   50,
	}
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", VERSION)
		return
	}

	out, ndjson, err := buildSink(c)
	if err != nil {
		fmt.Println("ERROR:", err.Error())
		os.Exit(-1)
	}

	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var src source.Source
	var sim *source.Simulator
	var rep *source.Replay
	if c.Replay {
		rep, err = source.NewReplay(os.Stdin)
		if err != nil {
			fmt.Println("ERROR:", err.Error())
			os.Exit(-1)
		}
		src = rep
	} else {
		sim = source.NewSimulator(c.Symbol, seed)
		src = sim
	}

	eng, err := engine.New(&engine.Config{
		Source:   src,
		Sinks:    []sink.Sink{out},
		Lookback: c.Lookback,
		Timeout:  time.Duration(c.PollMs) * time.Millisecond,
	})
	if err != nil {
		fmt.Println("ERROR:", err.Error())
		os.Exit(-1)
	}

	stop := make(chan struct{})
	stopOnce := sync.Once{}
	shutdown := func() {
		stopOnce.Do(func() {
			close(stop)
		})
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-signalChan
		fmt.Fprintln(os.Stderr, "Signal received", sig.String())
		shutdown()
	}()

	ctx, cancel := context.WithCancel(context.Background())

	wg := &sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		eng.Serve(ctx)
	}()

	// Feed events on their own clock until the log runs out, the step
	// budget is spent, or a signal arrives.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(time.Duration(c.TradeMs) * time.Millisecond)
		defer ticker.Stop()
		steps := int64(0)
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
			if c.Replay {
				rep.Advance(1)
				eng.NotifyUpdate()
				if rep.Remaining() == 0 {
					shutdown()
					return
				}
				continue
			}
			sim.Step()
			eng.NotifyUpdate()
			steps++
			if c.Steps > 0 && steps >= c.Steps {
				shutdown()
				return
			}
		}
	}()

	<-stop
	cancel()
	wg.Wait()

	// The worker is gone after Stop, so this final catch-up delivers
	// everything still in flight before the process exits.
	eng.Stop()
	eng.Drain()

	if err := ndjson.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR:", err.Error())
		os.Exit(-1)
	}
}

// buildSink assembles the emit chain: NDJSON on stdout, optionally behind
// a column projection and a row filter.
func buildSink(c Config) (sink.Sink, *sink.NDJSON, error) {

	ndjson := sink.NewNDJSON(os.Stdout)

	var s sink.Sink = ndjson

	if c.Columns != "" {
		columns := []string{}
		for _, name := range strings.Split(c.Columns, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				columns = append(columns, name)
			}
		}
		s = sink.NewProject(s, columns...)
	}

	if c.Filter != "" {
		conditions := map[string]interface{}{}
		err := json.Unmarshal([]byte(c.Filter), &conditions)
		if err != nil {
			return nil, nil, fmt.Errorf("filter: %w", err)
		}
		s = sink.NewFilter(s, conditions)
	}

	return s, ndjson, nil
}
