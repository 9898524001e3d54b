package config

import (
	"flag"
	"time"
)

type RelayConfig struct {
	Relay   Relay
	Library Library
}

type Relay struct {
	Debug bool
	Tag   string
	// Origin restricts websocket upgrades to one origin; empty or * allows any.
	Origin     string
	Monitoring Monitoring
	Server     Server
}

type Server struct {
	Address string
	Https   bool
	Tls     struct {
		Address   string
		Domain    string
		HttpsCert string
		HttpsKey  string
		CacheDir  string
	}
}

type Monitoring struct {
	Port             int
	URLPrefix        string
	MetricEnabled    bool
	ProfilingEnabled bool
}

func (m Monitoring) IsEnabled() bool { return m.MetricEnabled || m.ProfilingEnabled }

// Library points to a directory with the mini-game metadata files.
type Library struct {
	BasePath  string
	Supported []string
	Verbose   bool
	WatchMode bool
}

// Session holds client-side coordinator defaults.
type Session struct {
	// PublicURL is the base of join deep links, e.g. https://games.example.com/.
	PublicURL string
	// RelayDelayMs is the artificial delivery delay of the in-process
	// broadcast stand-in, modeling transport asynchrony.
	RelayDelayMs int
	// MaxPlayers is the default session capacity when a game does not say.
	MaxPlayers int
}

// Delay converts the configured relay delay to a duration,
// negative when unset so the transport applies its own default.
func (s Session) Delay() time.Duration {
	if s.RelayDelayMs <= 0 {
		return -1
	}
	return time.Duration(s.RelayDelayMs) * time.Millisecond
}

// ClientConfig carries the embedding client's coordinator settings.
// Clients have no config file of their own, everything comes from the
// environment (PARTY_SESSION_*).
type ClientConfig struct {
	Session Session
}

func NewClientConfig() (conf ClientConfig) {
	if err := LoadConfigEnv(&conf); err != nil {
		panic(err)
	}
	if conf.Session.MaxPlayers < 1 {
		conf.Session.MaxPlayers = 4
	}
	return
}

// allows custom config path
var relayConfigPath string

func NewRelayConfig() (conf RelayConfig) {
	if err := LoadConfig(&conf, relayConfigPath); err != nil {
		panic(err)
	}
	return
}

// ParseFlags updates config values from passed runtime flags.
// Define own flags with default value set to the current config param.
// Don't forget to call flag.Parse().
func (c *RelayConfig) ParseFlags() {
	flag.StringVar(&c.Relay.Server.Address, "address", c.Relay.Server.Address, "Relay server address")
	flag.IntVar(&c.Relay.Monitoring.Port, "monitoring.port", c.Relay.Monitoring.Port, "Monitoring server port")
	flag.StringVar(&c.Library.BasePath, "library", c.Library.BasePath, "Game library directory")
	flag.StringVar(&relayConfigPath, "conf", relayConfigPath, "Set custom configuration file path")
	flag.Parse()
}

func (s Server) GetAddr() string {
	if s.Https {
		return s.Tls.Address
	}
	return s.Address
}
