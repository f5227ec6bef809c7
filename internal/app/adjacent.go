package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/spacetraveling/blog/internal/domain"
)

const (
	postType = "post"

	orderingOldestFirst = "[document.first_publication_date]"
	orderingNewestFirst = "[document.first_publication_date desc]"
)

func postTypePredicate() []string {
	return []string{domain.PredicateAt("document.type", postType)}
}

// ResolveAdjacent finds the posts published right after (Next) and right before (Previous) post.
// Both queries run concurrently; either failure fails the resolution.
func ResolveAdjacent(ctx context.Context, cms domain.CMSClient, post *domain.PostDetail, ref string) (domain.AdjacentPosts, error) {
	var next, previous *domain.AdjacentPost

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		next, err = adjacentQuery(gctx, cms, post.ID, ref, orderingOldestFirst)
		if err != nil {
			return fmt.Errorf("next post: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		previous, err = adjacentQuery(gctx, cms, post.ID, ref, orderingNewestFirst)
		if err != nil {
			return fmt.Errorf("previous post: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.AdjacentPosts{}, err
	}
	return domain.AdjacentPosts{Previous: previous, Next: next}, nil
}

func adjacentQuery(ctx context.Context, cms domain.CMSClient, afterID, ref, orderings string) (*domain.AdjacentPost, error) {
	page, err := cms.Query(ctx, postTypePredicate(), domain.QueryOptions{
		Fetch:     []string{"post.title"},
		PageSize:  1,
		After:     afterID,
		Orderings: orderings,
		Ref:       ref,
	})
	if err != nil {
		return nil, err
	}
	if len(page.Results) == 0 {
		return nil, nil
	}
	first := page.Results[0]
	return &domain.AdjacentPost{UID: first.UID, Title: first.Title}, nil
}
