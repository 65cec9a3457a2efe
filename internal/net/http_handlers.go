package net

import (
	"encoding/json"
	nethttp "net/http"
	"net/http/pprof"
	"time"

	"shakeout/server/internal/game"
	"shakeout/server/internal/game/catalog"
	"shakeout/server/internal/journal"
	"shakeout/server/internal/net/proto"
	"shakeout/server/internal/net/ws"
	"shakeout/server/internal/observability"
	"shakeout/server/internal/telemetry"
	"shakeout/server/logging"
	"shakeout/server/logging/sinks"
)

// Diagnostics is the read-only engine surface exposed over HTTP.
type Diagnostics interface {
	Snapshot() game.Snapshot
}

type HTTPHandlerConfig struct {
	Logger        telemetry.Logger
	Observability observability.Config
	TickInterval  time.Duration
	// Metrics, when set, is included in /diagnostics.
	Metrics *logging.Metrics
	// Router, when set, reports logging throughput in /diagnostics.
	Router *logging.Router
	// Journal, when set, lists the current game's recent events.
	Journal *journal.Journal
	// Logs, when set, lists the current game's recent log output.
	Logs *sinks.MemorySink
}

func NewHTTPHandler(lobby *ws.Lobby, engine Diagnostics, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.Discard()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status       string              `json:"status"`
			ServerTime   int64               `json:"serverTime"`
			TickMillis   int64               `json:"tickMillis"`
			Game         game.Snapshot       `json:"game"`
			Lobby        []proto.LobbyMember `json:"lobby"`
			Telemetry    map[string]uint64   `json:"telemetry,omitempty"`
			LogEvents    uint64              `json:"logEvents,omitempty"`
			LogDropped   uint64              `json:"logDropped,omitempty"`
			LogSinks     []logging.SinkStats `json:"logSinks,omitempty"`
			RecentEvents []game.Event        `json:"recentEvents,omitempty"`
			RecentLogs   []logging.Event     `json:"recentLogs,omitempty"`
			ProtoVersion int                 `json:"protocolVersion"`
		}{
			Status:       "ok",
			ServerTime:   time.Now().UnixMilli(),
			TickMillis:   cfg.TickInterval.Milliseconds(),
			Game:         engine.Snapshot(),
			Lobby:        lobby.Members(),
			RecentEvents: cfg.Journal.Recent(),
			ProtoVersion: proto.Version,
		}
		if cfg.Metrics != nil {
			payload.Telemetry = cfg.Metrics.Snapshot()
		}
		if cfg.Router != nil {
			stats := cfg.Router.Stats()
			payload.LogEvents = stats.EventsTotal
			payload.LogDropped = stats.DroppedTotal
			payload.LogSinks = stats.Sinks
		}
		if cfg.Logs != nil && payload.Game.GameID != "" {
			payload.RecentLogs = cfg.Logs.ForGame(payload.Game.GameID)
		}
		writeJSON(w, logger, payload)
	})

	mux.HandleFunc("/schema/mode-config", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, logger, catalog.ModeConfigSchema())
	})

	mux.HandleFunc("/ws", lobby.Handle)

	if cfg.Observability.EnablePprofTrace {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	return mux
}

func writeJSON(w nethttp.ResponseWriter, logger telemetry.Logger, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Printf("failed to encode response: %v", err)
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
