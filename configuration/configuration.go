package configuration

type Configuration struct {
	Symbol     string `usage:"instrument symbol for the simulated feed"`
	Seed       int64  `usage:"feed random seed, 0 picks one from the clock"`
	Lookback   int    `usage:"how many rows stay on screen"`
	TradeMs    int    `usage:"milliseconds between simulated trades"`
	PollMs     int    `usage:"worker poll interval in milliseconds"`
	BarTicks   int    `usage:"trades per bar before it closes"`
	Version    bool   `usage:"show version and exit"`
	ShowConfig bool   `usage:"print config"`
}

func Default() Configuration {
	return Configuration{
		Symbol:   "BTC-USD",
		Seed:     0,
		Lookback: 30,
		TradeMs:  200,
		PollMs:   100,
		BarTicks: 5,
	}
}
