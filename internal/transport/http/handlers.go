package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"

	"github.com/spacetraveling/blog/internal/app"
	"github.com/spacetraveling/blog/internal/domain"
)

// PreviewCookie holds the preview session id.
const PreviewCookie = "spacetraveling.preview"

// SiteService serves generated page props.
type SiteService interface {
	HomeProps(ctx context.Context) (*domain.HomeProps, error)
	PostProps(ctx context.Context, uid, previewRef string) (*domain.PostProps, error)
	StaticPaths(ctx context.Context) ([]string, error)
	NextPage(ctx context.Context, cursor string) (*domain.ListingPage, error)
}

// Revalidator enqueues snapshot rebuilds.
type Revalidator interface {
	Request(ctx context.Context, eventType string, documentIDs []string) (string, error)
}

// PreviewSessions manages preview sessions.
type PreviewSessions interface {
	Begin(ctx context.Context, ref, documentID string) (sessionID, uid string, err error)
	Ref(ctx context.Context, sessionID string) string
	End(ctx context.Context, sessionID string) error
	TTL() time.Duration
}

type Handlers struct {
	site          SiteService
	revalidator   Revalidator
	previews      PreviewSessions
	webhookSecret string
}

func NewHandlers(site SiteService, revalidator Revalidator, previews PreviewSessions, webhookSecret string) *Handlers {
	if webhookSecret == "" {
		slog.Warn("WEBHOOK_SECRET is empty, CMS webhooks are not authenticated")
	}
	return &Handlers{
		site:          site,
		revalidator:   revalidator,
		previews:      previews,
		webhookSecret: webhookSecret,
	}
}

type pathEntry struct {
	Slug string `json:"slug"`
}

type pathsResponse struct {
	Paths []pathEntry `json:"paths"`
}

type webhookPayload struct {
	Type      string   `json:"type"`
	Secret    string   `json:"secret"`
	MasterRef string   `json:"masterRef"`
	Documents []string `json:"documents"`
}

type webhookResponse struct {
	EventID string `json:"event_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	props, err := h.site.HomeProps(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

func (h *Handlers) Paths(w http.ResponseWriter, r *http.Request) {
	uids, err := h.site.StaticPaths(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := pathsResponse{Paths: make([]pathEntry, 0, len(uids))}
	for _, uid := range uids {
		resp.Paths = append(resp.Paths, pathEntry{Slug: uid})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) NextPage(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")
	if cursor == "" {
		writeError(w, r, domain.ErrInvalidCursor)
		return
	}
	page, err := h.site.NextPage(r.Context(), cursor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) Post(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]
	ref := h.previews.Ref(r.Context(), previewSession(r))

	props, err := h.site.PostProps(r.Context(), uid, ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

func (h *Handlers) Webhook(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid webhook payload"})
		return
	}

	if h.webhookSecret != "" && subtle.ConstantTimeCompare([]byte(payload.Secret), []byte(h.webhookSecret)) != 1 {
		slog.Warn("Rejected webhook with invalid secret", "remote_addr", r.RemoteAddr)
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid webhook secret"})
		return
	}

	eventID, err := h.revalidator.Request(r.Context(), payload.Type, payload.Documents)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, webhookResponse{EventID: eventID})
}

func (h *Handlers) Preview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessionID, uid, err := h.previews.Begin(r.Context(), q.Get("token"), q.Get("documentId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     PreviewCookie,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(h.previews.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	location := "/"
	if uid != "" {
		location = "/post/" + url.PathEscape(uid)
	}
	http.Redirect(w, r, location, http.StatusTemporaryRedirect)
}

func (h *Handlers) ExitPreview(w http.ResponseWriter, r *http.Request) {
	if err := h.previews.End(r.Context(), previewSession(r)); err != nil {
		slog.Warn("Failed to end preview session", "error", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     PreviewCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

func previewSession(r *http.Request) string {
	c, err := r.Cookie(PreviewCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCursor), errors.Is(err, app.ErrMissingPreviewToken):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCMSUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}
