package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spacetraveling/blog/internal/domain"
	"github.com/spacetraveling/blog/internal/domain/mocks"
)

var fixedNow = time.Date(2021, 4, 1, 12, 0, 0, 0, time.UTC)

func newTestSite(cms *mocks.MockCMSClient, store *mocks.MockPageStore) *SiteService {
	s := NewSiteService(cms, store, SiteConfig{
		HomePageSize:       2,
		RevalidateInterval: time.Hour,
		Workers:            2,
		CommentsRepo:       "sambuite/desafio-blog-nextjs",
		CommentsIssueTerm:  "url",
		CommentsTheme:      "github-dark",
	})
	s.now = func() time.Time { return fixedNow }
	return s
}

func pageSize(n int) interface{} {
	return mock.MatchedBy(func(opts domain.QueryOptions) bool { return opts.PageSize == n })
}

// expectPost registers GetByUID and both adjacency queries for uid.
func expectPost(cms *mocks.MockCMSClient, uid, ref string, post *domain.PostDetail) {
	cms.On("GetByUID", mock.Anything, "post", uid, ref).Return(post, nil)
	cms.On("Query", mock.Anything, mock.Anything, mock.MatchedBy(func(opts domain.QueryOptions) bool {
		return opts.PageSize == 1 && opts.After == post.ID && opts.Ref == ref
	})).Return(&domain.PostPage{}, nil)
}

func samplePost() *domain.PostDetail {
	first := time.Date(2021, 3, 15, 19, 25, 28, 0, time.UTC)
	last := time.Date(2021, 3, 25, 19, 25, 28, 0, time.UTC)
	return &domain.PostDetail{
		ID:                   "YFK",
		UID:                  "como-utilizar-hooks",
		FirstPublicationDate: &first,
		LastPublicationDate:  &last,
		Title:                "Como utilizar Hooks",
		Author:               "Joseph Oliveira",
		Content: []domain.ContentBlock{
			{Heading: heading("Proin et varius"), Body: []domain.RichTextBlock{{Type: "paragraph", Text: " one two three "}}},
		},
	}
}

func heading(s string) *string {
	return &s
}

func TestSiteService_HomeProps_FreshSnapshot(t *testing.T) {
	cms := new(mocks.MockCMSClient)
	store := new(mocks.MockPageStore)
	s := newTestSite(cms, store)

	snapshot := &domain.HomeProps{GeneratedAt: fixedNow.Add(-30 * time.Minute)}
	store.On("GetHome", mock.Anything).Return(snapshot, nil)

	got, err := s.HomeProps(context.Background())

	require.NoError(t, err)
	assert.Same(t, snapshot, got)
	cms.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
}

func TestSiteService_HomeProps_StaleSnapshotRegenerated(t *testing.T) {
	cms := new(mocks.MockCMSClient)
	store := new(mocks.MockPageStore)
	s := newTestSite(cms, store)

	published := time.Date(2021, 3, 15, 19, 25, 28, 0, time.UTC)
	store.On("GetHome", mock.Anything).Return(&domain.HomeProps{GeneratedAt: fixedNow.Add(-2 * time.Hour)}, nil)
	cms.On("Query", mock.Anything, postTypePredicate(), domain.QueryOptions{
		Fetch:     []string{"post.title", "post.subtitle", "post.author"},
		PageSize:  2,
		Orderings: orderingNewestFirst,
	}).Return(&domain.PostPage{
		NextPage: "https://cms/page2",
		Results: []domain.PostSummary{
			{UID: "a", Title: "A", Subtitle: "sa", Author: "Ana", FirstPublicationDate: &published},
			{UID: "b", Title: "B"},
		},
	}, nil)
	store.On("SaveHome", mock.Anything, mock.AnythingOfType("*domain.HomeProps")).Return(nil)

	got, err := s.HomeProps(context.Background())

	require.NoError(t, err)
	assert.Equal(t, fixedNow, got.GeneratedAt)
	assert.Equal(t, "https://cms/page2", got.NextPage)
	require.Len(t, got.Posts, 2)
	assert.Equal(t, domain.PostCard{UID: "a", Title: "A", Subtitle: "sa", Author: "Ana", PublishedLabel: "15 mar 2021"}, got.Posts[0])
	assert.Empty(t, got.Posts[1].PublishedLabel)
	store.AssertExpectations(t)
}

func TestSiteService_HomeProps_StaleServedWhenCMSDown(t *testing.T) {
	cms := new(mocks.MockCMSClient)
	store := new(mocks.MockPageStore)
	s := newTestSite(cms, store)

	stale := &domain.HomeProps{GeneratedAt: fixedNow.Add(-3 * time.Hour)}
	store.On("GetHome", mock.Anything).Return(stale, nil)
	cms.On("Query", mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrCMSUnavailable)

	got, err := s.HomeProps(context.Background())

	require.NoError(t, err)
	assert.Same(t, stale, got)
	store.AssertNotCalled(t, "SaveHome", mock.Anything, mock.Anything)
}

func TestSiteService_HomeProps_NoSnapshotAndCMSDown(t *testing.T) {
	cms := new(mocks.MockCMSClient)
	store := new(mocks.MockPageStore)
	s := newTestSite(cms, store)

	store.On("GetHome", mock.Anything).Return(nil, nil)
	cms.On("Query", mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrCMSUnavailable)

	_, err := s.HomeProps(context.Background())

	assert.ErrorIs(t, err, domain.ErrCMSUnavailable)
}

func TestSiteService_PostProps_SnapshotHit(t *testing.T) {
	cms := new(mocks.MockCMSClient)
	store := new(mocks.MockPageStore)
	s := newTestSite(cms, store)

	snapshot := &domain.PostProps{Post: domain.PostView{PostDetail: domain.PostDetail{UID: "a"}}}
	store.On("GetPost", mock.Anything, "a").Return(snapshot, nil)

	got, err := s.PostProps(context.Background(), "a", "")

	require.NoError(t, err)
	assert.Same(t, snapshot, got)
	cms.AssertNotCalled(t, "GetByUID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSiteService_PostProps_MissGeneratesAndSaves(t *testing.T) {
	cms := new(mocks.MockCMSClient)
	store := new(mocks.MockPageStore)
	s := newTestSite(cms, store)

	post := samplePost()
	store.On("GetPost", mock.Anything, post.UID).Return(nil, nil)
	cms.On("Ref", mock.Anything).Return("MASTER", nil).Once()
	expectPost(cms, post.UID, "MASTER", post)
	store.On("SavePost", mock.Anything, mock.AnythingOfType("*domain.PostProps")).Return(nil)

	got, err := s.PostProps(context.Background(), post.UID, "")

	require.NoError(t, err)
	cms.AssertNumberOfCalls(t, "Ref", 1)
	assert.False(t, got.Preview)
	assert.Equal(t, 1, got.Post.ReadingMinutes)
	assert.Equal(t, "15 mar 2021", got.Post.PublishedLabel)
	assert.Equal(t, "* editado em 25 mar 2021, às 19:25h", got.Post.EditedLabel)
	assert.Equal(t, post.Title, got.Post.Title)
	assert.Nil(t, got.Adjacent.Next)
	assert.Nil(t, got.Adjacent.Previous)
	assert.Equal(t, domain.CommentsConfig{
		ScriptURL: "https://utteranc.es/client.js",
		Repo:      "sambuite/desafio-blog-nextjs",
		IssueTerm: "url",
		Theme:     "github-dark",
		AnchorID:  "inject-comments-for-uterances",
	}, got.Comments)
	assert.Equal(t, fixedNow, got.GeneratedAt)
	store.AssertExpectations(t)
}

func TestSiteService_PostProps_PreviewBypassesStore(t *testing.T) {
	cms := new(mocks.MockCMSClient)
	store := new(mocks.MockPageStore)
	s := newTestSite(cms, store)

	post := samplePost()
	expectPost(cms, post.UID, "PREVIEW", post)

	got, err := s.PostProps(context.Background(), post.UID, "PREVIEW")

	require.NoError(t, err)
	assert.True(t, got.Preview)
	store.AssertNotCalled(t, "GetPost", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "SavePost", mock.Anything, mock.Anything)
}

func TestSiteService_PostProps_NotFound(t *testing.T) {
	cms := new(mocks.MockCMSClient)
	store := new(mocks.MockPageStore)
	s := newTestSite(cms, store)

	store.On("GetPost", mock.Anything, "missing").Return(nil, nil)
	cms.On("Ref", mock.Anything).Return("MASTER", nil)
	cms.On("GetByUID", mock.Anything, "post", "missing", "MASTER").Return(nil, domain.ErrNotFound)

	_, err := s.PostProps(context.Background(), "missing", "")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	store.AssertNotCalled(t, "SavePost", mock.Anything, mock.Anything)
}

func TestSiteService_LoadMore(t *testing.T) {
	a := domain.PostSummary{UID: "a"}
	b := domain.PostSummary{UID: "b"}
	c := domain.PostSummary{UID: "c"}

	t.Run("appends next page", func(t *testing.T) {
		cms := new(mocks.MockCMSClient)
		s := newTestSite(cms, new(mocks.MockPageStore))
		cms.On("FetchPage", mock.Anything, "url2").Return(&domain.PostPage{Results: []domain.PostSummary{c}}, nil)

		state := domain.NewListingState(domain.PostPage{NextPage: "url2", Results: []domain.PostSummary{a, b}})
		got, err := s.LoadMore(context.Background(), state)

		require.NoError(t, err)
		assert.Equal(t, []domain.PostSummary{a, b, c}, got.Posts)
		assert.False(t, got.HasMore())
	})

	t.Run("no cursor is a no-op", func(t *testing.T) {
		cms := new(mocks.MockCMSClient)
		s := newTestSite(cms, new(mocks.MockPageStore))

		state := domain.NewListingState(domain.PostPage{Results: []domain.PostSummary{a}})
		got, err := s.LoadMore(context.Background(), state)

		require.NoError(t, err)
		assert.Equal(t, state, got)
		cms.AssertNotCalled(t, "FetchPage", mock.Anything, mock.Anything)
	})

	t.Run("collaborator error propagates", func(t *testing.T) {
		cms := new(mocks.MockCMSClient)
		s := newTestSite(cms, new(mocks.MockPageStore))
		cause := errors.New("connection reset")
		cms.On("FetchPage", mock.Anything, "url2").Return(nil, cause)

		state := domain.NewListingState(domain.PostPage{NextPage: "url2", Results: []domain.PostSummary{a}})
		got, err := s.LoadMore(context.Background(), state)

		assert.ErrorIs(t, err, cause)
		assert.Equal(t, state, got)
	})
}

func TestSiteService_StaticPaths_FollowsEveryPage(t *testing.T) {
	cms := new(mocks.MockCMSClient)
	s := newTestSite(cms, new(mocks.MockPageStore))

	cms.On("Query", mock.Anything, postTypePredicate(), pageSize(pathsPageSize)).
		Return(&domain.PostPage{NextPage: "url2", Results: []domain.PostSummary{{UID: "a"}, {UID: "b"}}}, nil)
	cms.On("FetchPage", mock.Anything, "url2").
		Return(&domain.PostPage{Results: []domain.PostSummary{{UID: "c"}}}, nil)

	uids, err := s.StaticPaths(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, uids)
}

func TestSiteService_StaticPaths_RepeatingCursorStops(t *testing.T) {
	cms := new(mocks.MockCMSClient)
	s := newTestSite(cms, new(mocks.MockPageStore))

	cms.On("Query", mock.Anything, postTypePredicate(), pageSize(pathsPageSize)).
		Return(&domain.PostPage{NextPage: "loop", Results: []domain.PostSummary{{UID: "a"}}}, nil)
	cms.On("FetchPage", mock.Anything, "loop").
		Return(&domain.PostPage{NextPage: "loop", Results: []domain.PostSummary{{UID: "a"}}}, nil)

	uids, err := s.StaticPaths(context.Background())

	assert.ErrorIs(t, err, errTooManyPages)
	assert.Nil(t, uids)
	cms.AssertNumberOfCalls(t, "FetchPage", maxListingPages-1)
}

func TestSiteService_NextPage_FormatsCards(t *testing.T) {
	cms := new(mocks.MockCMSClient)
	s := newTestSite(cms, new(mocks.MockPageStore))

	published := time.Date(2021, 3, 20, 10, 0, 0, 0, time.UTC)
	cms.On("FetchPage", mock.Anything, "url2").Return(&domain.PostPage{
		NextPage: "url3",
		Results:  []domain.PostSummary{{ID: "C", UID: "c", Title: "C", Author: "Ana", FirstPublicationDate: &published}},
	}, nil)

	got, err := s.NextPage(context.Background(), "url2")

	require.NoError(t, err)
	assert.Equal(t, "url3", got.NextPage)
	assert.Equal(t, []domain.PostCard{{UID: "c", Title: "C", Author: "Ana", PublishedLabel: "20 mar 2021"}}, got.Posts)
}

func TestSiteService_GenerateAll(t *testing.T) {
	cms := new(mocks.MockCMSClient)
	store := new(mocks.MockPageStore)
	s := newTestSite(cms, store)

	cms.On("Query", mock.Anything, postTypePredicate(), pageSize(2)).
		Return(&domain.PostPage{Results: []domain.PostSummary{{UID: "a"}, {UID: "b"}}}, nil)
	cms.On("Query", mock.Anything, postTypePredicate(), pageSize(pathsPageSize)).
		Return(&domain.PostPage{Results: []domain.PostSummary{{UID: "a"}, {UID: "b"}}}, nil)
	cms.On("Ref", mock.Anything).Return("MASTER", nil).Once()
	expectPost(cms, "a", "MASTER", &domain.PostDetail{ID: "A", UID: "a"})
	expectPost(cms, "b", "MASTER", &domain.PostDetail{ID: "B", UID: "b"})

	store.On("SaveHome", mock.Anything, mock.Anything).Return(nil).Once()
	store.On("SavePosts", mock.Anything, mock.MatchedBy(func(posts []*domain.PostProps) bool {
		uids := map[string]bool{}
		for _, p := range posts {
			uids[p.Post.UID] = true
		}
		return len(posts) == 2 && uids["a"] && uids["b"]
	})).Return(nil).Once()
	store.On("DeleteStalePosts", mock.Anything, []string{"a", "b"}).Return(int64(1), nil).Once()

	require.NoError(t, s.GenerateAll(context.Background()))
	store.AssertExpectations(t)
	cms.AssertNumberOfCalls(t, "Ref", 1)
}

func TestSiteService_GenerateAll_PostFailureKeepsSnapshots(t *testing.T) {
	cms := new(mocks.MockCMSClient)
	store := new(mocks.MockPageStore)
	s := newTestSite(cms, store)

	cms.On("Query", mock.Anything, postTypePredicate(), pageSize(2)).
		Return(&domain.PostPage{Results: []domain.PostSummary{{UID: "a"}}}, nil)
	cms.On("Query", mock.Anything, postTypePredicate(), pageSize(pathsPageSize)).
		Return(&domain.PostPage{Results: []domain.PostSummary{{UID: "a"}}}, nil)
	cms.On("Ref", mock.Anything).Return("MASTER", nil)
	cms.On("GetByUID", mock.Anything, "post", "a", "MASTER").Return(nil, domain.ErrCMSUnavailable)
	store.On("SaveHome", mock.Anything, mock.Anything).Return(nil)

	err := s.GenerateAll(context.Background())

	assert.ErrorIs(t, err, domain.ErrCMSUnavailable)
	store.AssertNotCalled(t, "SavePosts", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "DeleteStalePosts", mock.Anything, mock.Anything)
}
