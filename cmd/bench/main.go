package main

import (
	"log"
	"strings"

	"github.com/fulldump/goconfig"
)

type Config struct {
	Test     string `usage:"name of the test: ALL | STREAM | PATCH"`
	Rows     int64  `usage:"number of feed events"`
	Lookback int    `usage:"window size in rows"`
	BarTicks int    `usage:"trades per bar"`
	Workers  int    `usage:"number of feeding workers"`
	PollUs   int    `usage:"worker poll interval in microseconds"`
}

func main() {

	c := Config{
		Test:     "ALL",
		Rows:     1_000_000,
		Lookback: 64,
		BarTicks: 5,
		Workers:  4,
		PollUs:   500,
	}
	goconfig.Read(&c)

	switch strings.ToUpper(c.Test) {
	case "ALL":
		TestStream(c)
		TestPatch(c)
	case "STREAM":
		TestStream(c)
	case "PATCH":
		TestPatch(c)
	default:
		log.Fatalf("Unknown test %s", c.Test)
	}
}
