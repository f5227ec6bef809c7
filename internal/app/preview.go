package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/spacetraveling/blog/internal/domain"
	"github.com/spacetraveling/blog/internal/infra/metrics"
)

// ErrMissingPreviewToken is returned when a preview is started without a CMS ref.
var ErrMissingPreviewToken = errors.New("missing preview token")

// PreviewService manages preview sessions: a browser session id mapped to a CMS preview ref.
type PreviewService struct {
	store domain.PreviewStore
	cms   domain.CMSClient
	ttl   time.Duration
}

func NewPreviewService(store domain.PreviewStore, cms domain.CMSClient, ttl time.Duration) *PreviewService {
	return &PreviewService{store: store, cms: cms, ttl: ttl}
}

func (s *PreviewService) TTL() time.Duration {
	return s.ttl
}

// Begin opens a session for ref and resolves the uid of documentID (empty when no document was given).
func (s *PreviewService) Begin(ctx context.Context, ref, documentID string) (sessionID, uid string, err error) {
	if ref == "" {
		return "", "", ErrMissingPreviewToken
	}

	if documentID != "" {
		uid, err = s.cms.DocumentUID(ctx, documentID, ref)
		if err != nil {
			return "", "", fmt.Errorf("failed to resolve preview document: %w", err)
		}
	}

	sessionID = uuid.NewString()
	if err := s.store.Save(ctx, sessionID, ref, s.ttl); err != nil {
		return "", "", err
	}
	metrics.PreviewSessions.WithLabelValues("start").Inc()
	slog.Info("Preview session started", "session_id", sessionID, "uid", uid)
	return sessionID, uid, nil
}

// Ref returns the preview ref of sessionID, or "" when the session is unknown or unreadable.
func (s *PreviewService) Ref(ctx context.Context, sessionID string) string {
	if sessionID == "" {
		return ""
	}
	ref, err := s.store.Get(ctx, sessionID)
	if err != nil {
		slog.Warn("Failed to read preview session, serving published content", "session_id", sessionID, "error", err)
		return ""
	}
	return ref
}

func (s *PreviewService) End(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	metrics.PreviewSessions.WithLabelValues("end").Inc()
	slog.Info("Preview session ended", "session_id", sessionID)
	return nil
}
