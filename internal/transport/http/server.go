package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spacetraveling/blog/pkg/config"
)

// NewRouter registers the page props API next to the health and metrics endpoints.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := fmt.Fprintf(w, "OK"); err != nil {
			slog.Debug("Failed to write health response", "error", err)
		}
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/home", h.Home).Methods(http.MethodGet)
	api.HandleFunc("/paths", h.Paths).Methods(http.MethodGet)
	api.HandleFunc("/posts", h.NextPage).Methods(http.MethodGet)
	api.HandleFunc("/posts/{uid}", h.Post).Methods(http.MethodGet)
	api.HandleFunc("/webhooks/prismic", h.Webhook).Methods(http.MethodPost)
	api.HandleFunc("/preview", h.Preview).Methods(http.MethodGet)
	api.HandleFunc("/exit-preview", h.ExitPreview).Methods(http.MethodGet)

	return r
}

func NewHTTPServer(cfg *config.Config, h *Handlers) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
