package web

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/nano/citypath/internal/editor"
	"github.com/nano/citypath/internal/web/api"
	"github.com/nano/citypath/protocol"
)

var logger = log.WithField("component", "web")

// NewRouter mounts the path API and the metrics endpoint. With queries set the
// query journal is readable under /v1/queries.
func NewRouter(ws *editor.Workspace, onGridChanged func(*protocol.GridResponse), queries bool) http.Handler {
	router := mux.NewRouter()
	if queries {
		router.PathPrefix("/v1/queries").Handler(api.MakeQueryService())
	}
	router.PathPrefix("/v1/").Handler(api.MakePathService(ws, onGridChanged))
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	return router
}

// Startup serves the HTTP API on webserver.addr and blocks until it fails.
func Startup(ws *editor.Workspace, onGridChanged func(*protocol.GridResponse)) {
	addr := viper.GetString("webserver.addr")
	if addr == "" {
		addr = ":12307"
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      NewRouter(ws, onGridChanged, viper.GetBool("database.enable")),
		ReadTimeout:  viper.GetDuration("webserver.read_timeout"),
		WriteTimeout: viper.GetDuration("webserver.write_timeout"),
		IdleTimeout:  time.Minute,
	}
	logger.Infof("web service listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal(err)
	}
}
