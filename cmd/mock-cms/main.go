package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/mux"
)

func newRouter(repo *repository) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/v2", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"refs": []map[string]any{
				{"id": "master", "ref": masterRef, "label": "Master", "isMasterRef": true},
			},
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/v2/documents/search", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ref") == "" {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(w, map[string]string{"error": "missing ref"})
			return
		}
		base := "http://" + r.Host + r.URL.Path
		writeJSON(w, repo.search(base, r.URL.Query()))
	}).Methods(http.MethodGet)

	return r
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	repo := &repository{docs: fixtures()}

	slog.Info("Mock CMS server running on :8081", "documents", len(repo.docs))
	if err := http.ListenAndServe(":8081", newRouter(repo)); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
