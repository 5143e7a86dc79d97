// Package admin serves read-only operator endpoints over HTTP.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Bans interface {
	Contains(name string) bool
	Enumerate() []string
}

type banStatus struct {
	Name   string `json:"name"`
	Banned bool   `json:"banned"`
}

func NewRouter(bans Bans, gatherer prometheus.Gatherer) *mux.Router {
	router := mux.NewRouter()

	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/bans", listBans(bans)).Methods(http.MethodGet)
	router.HandleFunc("/bans/{name}", getBan(bans)).Methods(http.MethodGet)
	router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("/debug/pprof/profile", pprof.Profile)
	router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("/debug/pprof/trace", pprof.Trace)
	router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)

	return router
}

func listBans(bans Bans) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, bans.Enumerate())
	}
}

func getBan(bans Bans) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]

		if !bans.Contains(name) {
			writeJSON(w, http.StatusNotFound, banStatus{name, false})
			return
		}

		writeJSON(w, http.StatusOK, banStatus{name, true})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// Serve runs the router on address until ctx is cancelled.
func Serve(ctx context.Context, address string, handler http.Handler, logger *zap.Logger) error {
	server := &http.Server{Addr: address, Handler: handler}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		server.Shutdown(shutdownCtx)
	}()

	logger.Info("Admin endpoints are on", zap.String("address", address))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	return nil
}
