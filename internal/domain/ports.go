package domain

import (
	"context"
	"fmt"
	"time"
)

// QueryOptions mirrors the search parameters of the CMS API.
type QueryOptions struct {
	Fetch     []string
	PageSize  int
	After     string
	Orderings string
	// Ref selects the content release; empty means the master ref.
	Ref string
}

// CMSClient is the headless CMS collaborator.
type CMSClient interface {
	// Ref returns the current master ref.
	Ref(ctx context.Context) (string, error)
	Query(ctx context.Context, predicates []string, opts QueryOptions) (*PostPage, error)
	GetByUID(ctx context.Context, docType, uid, ref string) (*PostDetail, error)
	// FetchPage follows a NextPage cursor returned by a previous query.
	FetchPage(ctx context.Context, cursor string) (*PostPage, error)
	// DocumentUID resolves a document id to its uid (used by preview links).
	DocumentUID(ctx context.Context, id, ref string) (string, error)
}

// HomeStore persists generated listing props.
type HomeStore interface {
	SaveHome(ctx context.Context, props *HomeProps) error
	GetHome(ctx context.Context) (*HomeProps, error)
}

// PostStore persists generated post props.
type PostStore interface {
	SavePost(ctx context.Context, props *PostProps) error
	SavePosts(ctx context.Context, posts []*PostProps) error
	GetPost(ctx context.Context, uid string) (*PostProps, error)
	DeleteStalePosts(ctx context.Context, keep []string) (int64, error)
}

// PageStore is the static snapshot of every generated page.
// Get methods return (nil, nil) on a miss.
type PageStore interface {
	HomeStore
	PostStore
}

// PreviewStore keeps preview refs per browser session.
// Get returns ("", nil) for an unknown or expired session.
type PreviewStore interface {
	Save(ctx context.Context, sessionID, ref string, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

// EventProducer publishes revalidation events to a queue.
type EventProducer interface {
	Publish(ctx context.Context, event *RevalidationEvent) error
	Close() error
}

// PredicateAt builds the CMS "at" predicate matching path against value.
func PredicateAt(path, value string) string {
	return fmt.Sprintf("at(%s,%q)", path, value)
}
