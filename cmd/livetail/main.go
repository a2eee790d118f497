package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fulldump/goconfig"

	"github.com/fulldump/livetail/configuration"
	"github.com/fulldump/livetail/engine"
	"github.com/fulldump/livetail/sink"
	"github.com/fulldump/livetail/source"
)

var VERSION = "dev"

func main() {

	c := configuration.Default()
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", VERSION)
		return
	}

	if c.ShowConfig {
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "    ")
		e.Encode(c)
	}

	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	sim := source.NewSimulator(c.Symbol, seed)
	if c.BarTicks > 0 {
		sim.BarTicks = c.BarTicks
	}
	for i := 0; i < c.Lookback*sim.BarTicks; i++ {
		sim.Step()
	}

	mirror := sink.NewTable()

	eng, err := engine.New(&engine.Config{
		Source:   sim,
		Sinks:    []sink.Sink{mirror},
		Lookback: c.Lookback,
		Timeout:  time.Duration(c.PollMs) * time.Millisecond,
	})
	if err != nil {
		fmt.Println("ERROR:", err.Error())
		os.Exit(-1)
	}

	// Trades happen on their own clock, the engine just gets poked.
	exit := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Duration(c.TradeMs) * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-exit:
				return
			case <-ticker.C:
				sim.Step()
				eng.NotifyUpdate()
			}
		}
	}()

	p := tea.NewProgram(newModel(eng, mirror, c.Symbol, sim.Feed()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Println("ERROR:", err.Error())
	}

	close(exit)
	eng.Stop()
}
