// Package relay runs the shared broadcast server that same-origin
// peers attach to when they are not colocated in one process.
package relay

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/openminis/party/pkg/config"
	"github.com/openminis/party/pkg/games"
	"github.com/openminis/party/pkg/logger"
	"github.com/openminis/party/pkg/monitoring"
	"github.com/openminis/party/pkg/network/httpx"
	"github.com/openminis/party/pkg/service"
)

type Relay struct {
	conf     config.RelayConfig
	log      *logger.Logger
	services service.Group
	hub      *Hub
}

func New(conf config.RelayConfig, log *logger.Logger) *Relay {
	r := &Relay{conf: conf, log: log, hub: NewHub(conf.Relay.Origin, log)}

	lib := games.NewLib(conf.Library, log)
	lib.Scan()

	server, err := httpx.NewServer(
		conf.Relay.Server.GetAddr(),
		func(_ *httpx.Server) http.Handler {
			h := http.NewServeMux()
			h.HandleFunc("/ws", r.hub.handleClientConnection)
			h.HandleFunc("/games", listGames(lib, log))
			h.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
			return h
		},
		httpx.WithServerConfig(conf.Relay.Server),
		httpx.WithLogger(log),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("couldn't init relay server")
	}

	var mon *monitoring.Monitoring
	if conf.Relay.Monitoring.IsEnabled() {
		mon = monitoring.New(conf.Relay.Monitoring, conf.Relay.Tag, log)
	}
	r.services.Add(server)
	r.services.AddIf(mon != nil, mon)
	return r
}

func (r *Relay) Start() { r.services.Start() }

func (r *Relay) Shutdown(ctx context.Context) error { return r.services.Shutdown(ctx) }

// listGames exposes the mini-game catalog to the frontend.
func listGames(lib games.Library, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lib.GetAll()); err != nil {
			log.Error().Err(err).Msg("games list encode fail")
		}
	}
}
