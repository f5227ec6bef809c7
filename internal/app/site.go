package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/spacetraveling/blog/internal/domain"
	"github.com/spacetraveling/blog/internal/infra/metrics"
)

const (
	commentsScriptURL = "https://utteranc.es/client.js"
	commentsAnchorID  = "inject-comments-for-uterances"

	// pathsPageSize is the page size used when crawling every post for static paths.
	pathsPageSize = 100
	// maxListingPages bounds the crawl against a CMS that keeps returning a cursor.
	maxListingPages = 200
)

var errTooManyPages = errors.New("listing exceeded page limit")

// SiteConfig holds the generation settings of SiteService.
type SiteConfig struct {
	HomePageSize       int
	RevalidateInterval time.Duration
	Workers            int
	CommentsRepo       string
	CommentsIssueTerm  string
	CommentsTheme      string
}

// SiteService generates page props from the CMS and serves them from the static snapshot.
type SiteService struct {
	cms        domain.CMSClient
	store      domain.PageStore
	pageSize   int
	revalidate time.Duration
	workers    int
	comments   domain.CommentsConfig
	now        func() time.Time
	generating sync.Mutex
}

func NewSiteService(cms domain.CMSClient, store domain.PageStore, cfg SiteConfig) *SiteService {
	if cfg.HomePageSize <= 0 {
		cfg.HomePageSize = 10
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &SiteService{
		cms:        cms,
		store:      store,
		pageSize:   cfg.HomePageSize,
		revalidate: cfg.RevalidateInterval,
		workers:    cfg.Workers,
		comments: domain.CommentsConfig{
			ScriptURL: commentsScriptURL,
			Repo:      cfg.CommentsRepo,
			IssueTerm: cfg.CommentsIssueTerm,
			Theme:     cfg.CommentsTheme,
			AnchorID:  commentsAnchorID,
		},
		now: time.Now,
	}
}

// Start regenerates the whole site once and then every revalidation interval until ctx is done.
func (s *SiteService) Start(ctx context.Context) {
	slog.Info("Starting site generator", "interval", s.revalidate, "workers", s.workers)

	if err := s.GenerateAll(ctx); err != nil && ctx.Err() == nil {
		slog.Error("Initial generation failed", "error", err)
	}

	if s.revalidate <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(s.revalidate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Context cancelled, stopping site generator")
			return
		case <-ticker.C:
			if err := s.GenerateAll(ctx); err != nil && ctx.Err() == nil {
				slog.Error("Scheduled generation failed", "error", err)
			}
		}
	}
}

// HomeProps serves the listing page. A snapshot younger than the revalidation
// interval is returned as is; otherwise it is regenerated, falling back to the
// stale snapshot when the CMS fails.
func (s *SiteService) HomeProps(ctx context.Context) (*domain.HomeProps, error) {
	snapshot, err := s.store.GetHome(ctx)
	if err != nil {
		slog.Warn("Failed to read home snapshot", "error", err)
		snapshot = nil
	}

	if snapshot != nil && s.fresh(snapshot.GeneratedAt) {
		metrics.SnapshotLookups.WithLabelValues("home", "hit").Inc()
		return snapshot, nil
	}

	props, err := s.generateHome(ctx)
	if err != nil {
		if snapshot != nil {
			metrics.SnapshotLookups.WithLabelValues("home", "stale").Inc()
			slog.Error("Home regeneration failed, serving stale snapshot", "generated_at", snapshot.GeneratedAt, "error", err)
			return snapshot, nil
		}
		return nil, err
	}
	metrics.SnapshotLookups.WithLabelValues("home", "miss").Inc()

	if err := s.store.SaveHome(ctx, props); err != nil {
		slog.Warn("Failed to save home snapshot", "error", err)
	}
	return props, nil
}

func (s *SiteService) fresh(generatedAt time.Time) bool {
	if s.revalidate <= 0 {
		return true
	}
	return s.now().Sub(generatedAt) < s.revalidate
}

// PostProps serves a post page. Without a preview ref the snapshot is used and
// filled on a miss; with one the store is bypassed and the props are marked as preview.
func (s *SiteService) PostProps(ctx context.Context, uid, previewRef string) (*domain.PostProps, error) {
	if previewRef == "" {
		snapshot, err := s.store.GetPost(ctx, uid)
		if err != nil {
			slog.Warn("Failed to read post snapshot", "uid", uid, "error", err)
		} else if snapshot != nil {
			metrics.SnapshotLookups.WithLabelValues("post", "hit").Inc()
			return snapshot, nil
		}
		metrics.SnapshotLookups.WithLabelValues("post", "miss").Inc()
	}

	ref, preview := previewRef, previewRef != ""
	if !preview {
		var err error
		if ref, err = s.masterRef(ctx); err != nil {
			return nil, err
		}
	}

	props, err := s.generatePost(ctx, uid, ref, preview)
	if err != nil {
		return nil, err
	}

	if previewRef == "" {
		if err := s.store.SavePost(ctx, props); err != nil {
			slog.Warn("Failed to save post snapshot", "uid", uid, "error", err)
		}
	}
	return props, nil
}

// StaticPaths returns the uid of every published post, following all listing pages.
func (s *SiteService) StaticPaths(ctx context.Context) ([]string, error) {
	state, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}
	uids := make([]string, 0, len(state.Posts))
	for _, p := range state.Posts {
		uids = append(uids, p.UID)
	}
	return uids, nil
}

// LoadMore fetches the page behind state's cursor and appends it. It is a no-op when there is nothing left.
func (s *SiteService) LoadMore(ctx context.Context, state domain.ListingState) (domain.ListingState, error) {
	if !state.HasMore() {
		return state, nil
	}
	page, err := s.cms.FetchPage(ctx, state.NextPage)
	if err != nil {
		return state, fmt.Errorf("failed to load more posts: %w", err)
	}
	return domain.AppendPage(state, *page), nil
}

// NextPage fetches one listing page by cursor, formatted like the home page.
func (s *SiteService) NextPage(ctx context.Context, cursor string) (*domain.ListingPage, error) {
	page, err := s.cms.FetchPage(ctx, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch next page: %w", err)
	}
	return &domain.ListingPage{
		Posts:    postCards(page.Results),
		NextPage: page.NextPage,
	}, nil
}

type job struct {
	uid string
}

// GenerateAll rebuilds the home snapshot and every post snapshot, then drops
// snapshots of posts that no longer exist. Concurrent calls are serialised.
func (s *SiteService) GenerateAll(ctx context.Context) error {
	s.generating.Lock()
	defer s.generating.Unlock()

	tr := otel.Tracer("site-generator")
	ctx, span := tr.Start(ctx, "GenerateAll")
	defer span.End()

	start := time.Now()
	slog.Info("Generating site")

	home, err := s.generateHome(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to generate home: %w", err)
	}
	if err := s.store.SaveHome(ctx, home); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save home: %w", err)
	}

	uids, err := s.StaticPaths(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to list posts: %w", err)
	}
	span.SetAttributes(attribute.Int("posts", len(uids)))

	ref, err := s.masterRef(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	jobs := make(chan job, s.workers*2)
	generated := make([]*domain.PostProps, 0, len(uids))
	errs := make([]error, 0)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range jobs {
				props, err := s.generatePost(ctx, j.uid, ref, false)
				mu.Lock()
				if err != nil {
					slog.Error("Post generation failed", "uid", j.uid, "worker_id", id, "error", err)
					errs = append(errs, fmt.Errorf("post %s: %w", j.uid, err))
				} else {
					generated = append(generated, props)
				}
				mu.Unlock()
			}
		}(i)
	}

feed:
	for _, uid := range uids {
		select {
		case jobs <- job{uid: uid}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		span.RecordError(err)
		return err
	}

	if err := s.store.SavePosts(ctx, generated); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save posts: %w", err)
	}

	removed, err := s.store.DeleteStalePosts(ctx, uids)
	if err != nil {
		return fmt.Errorf("failed to delete stale posts: %w", err)
	}

	slog.Info("Site generated", "posts", len(uids), "stale_removed", removed, "duration", time.Since(start))
	return nil
}

func (s *SiteService) listAll(ctx context.Context) (domain.ListingState, error) {
	first, err := s.cms.Query(ctx, postTypePredicate(), domain.QueryOptions{
		Fetch:     []string{"post.title"},
		PageSize:  pathsPageSize,
		Orderings: orderingNewestFirst,
	})
	if err != nil {
		return domain.ListingState{}, fmt.Errorf("failed to query posts: %w", err)
	}

	state := domain.NewListingState(*first)
	for pages := 1; state.HasMore(); pages++ {
		if pages >= maxListingPages {
			slog.Error("Reached max pages limit", "max_pages", maxListingPages, "posts", len(state.Posts))
			return domain.ListingState{}, fmt.Errorf("%w: %d pages", errTooManyPages, maxListingPages)
		}
		state, err = s.LoadMore(ctx, state)
		if err != nil {
			return domain.ListingState{}, err
		}
	}
	return state, nil
}

func (s *SiteService) generateHome(ctx context.Context) (props *domain.HomeProps, err error) {
	start := time.Now()
	defer func() { s.observe("home", start, err) }()

	page, err := s.cms.Query(ctx, postTypePredicate(), domain.QueryOptions{
		Fetch:     []string{"post.title", "post.subtitle", "post.author"},
		PageSize:  s.pageSize,
		Orderings: orderingNewestFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query home posts: %w", err)
	}

	return &domain.HomeProps{
		Posts:       postCards(page.Results),
		NextPage:    page.NextPage,
		GeneratedAt: s.now(),
	}, nil
}

func (s *SiteService) masterRef(ctx context.Context) (string, error) {
	ref, err := s.cms.Ref(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve master ref: %w", err)
	}
	return ref, nil
}

// generatePost builds the props of uid with every query pinned to ref.
func (s *SiteService) generatePost(ctx context.Context, uid, ref string, preview bool) (props *domain.PostProps, err error) {
	start := time.Now()
	defer func() { s.observe("post", start, err) }()

	post, err := s.cms.GetByUID(ctx, postType, uid, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to get post %q: %w", uid, err)
	}

	adjacent, err := ResolveAdjacent(ctx, s.cms, post, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve adjacent posts of %q: %w", uid, err)
	}

	return &domain.PostProps{
		Post: domain.PostView{
			PostDetail:     *post,
			ReadingMinutes: domain.EstimateReadingMinutes(post.Content),
			PublishedLabel: FormatPublished(post.FirstPublicationDate),
			EditedLabel:    FormatEdited(post.FirstPublicationDate, post.LastPublicationDate),
		},
		Preview:     preview,
		Adjacent:    adjacent,
		Comments:    s.comments,
		GeneratedAt: s.now(),
	}, nil
}

func postCards(results []domain.PostSummary) []domain.PostCard {
	cards := make([]domain.PostCard, 0, len(results))
	for _, p := range results {
		cards = append(cards, domain.PostCard{
			UID:            p.UID,
			Title:          p.Title,
			Subtitle:       p.Subtitle,
			Author:         p.Author,
			PublishedLabel: FormatPublished(p.FirstPublicationDate),
		})
	}
	return cards
}

func (s *SiteService) observe(page string, start time.Time, err error) {
	status := "success"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	metrics.PagesGenerated.WithLabelValues(page, status).Inc()
	metrics.GenerationDuration.WithLabelValues(page).Observe(time.Since(start).Seconds())
}
