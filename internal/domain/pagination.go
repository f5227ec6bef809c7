package domain

// ListingState is what the listing page has accumulated so far.
type ListingState struct {
	Posts    []PostSummary `json:"posts"`
	NextPage string        `json:"next_page"`
}

// HasMore reports whether a "load more" action should be offered.
func (s ListingState) HasMore() bool {
	return s.NextPage != ""
}

// NewListingState starts a listing from the first fetched page.
func NewListingState(first PostPage) ListingState {
	return AppendPage(ListingState{}, first)
}

// AppendPage concatenates page onto state and moves the cursor to page.NextPage.
// Posts are kept in CMS order and are not de-duplicated.
func AppendPage(state ListingState, page PostPage) ListingState {
	posts := make([]PostSummary, 0, len(state.Posts)+len(page.Results))
	posts = append(posts, state.Posts...)
	posts = append(posts, page.Results...)
	return ListingState{
		Posts:    posts,
		NextPage: page.NextPage,
	}
}
