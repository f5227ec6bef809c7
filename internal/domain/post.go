package domain

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the CMS has no document for the requested identifier.
	ErrNotFound = errors.New("post not found")
	// ErrInvalidCursor is returned for a pagination cursor that does not belong to the configured CMS.
	ErrInvalidCursor = errors.New("invalid pagination cursor")
	// ErrCMSUnavailable wraps transport failures talking to the CMS.
	ErrCMSUnavailable = errors.New("cms unavailable")
)

// PostSummary is the listing representation of a post.
type PostSummary struct {
	ID                   string     `json:"id" bson:"id"`
	UID                  string     `json:"uid" bson:"uid"`
	FirstPublicationDate *time.Time `json:"first_publication_date" bson:"first_publication_date"`
	Title                string     `json:"title" bson:"title"`
	Subtitle             string     `json:"subtitle" bson:"subtitle"`
	Author               string     `json:"author" bson:"author"`
}

// PostPage is one page of a CMS query. NextPage is empty when there are no further pages.
type PostPage struct {
	NextPage string        `json:"next_page"`
	Results  []PostSummary `json:"results"`
}

// Span is an inline rich-text annotation (strong, em, hyperlink...). Rendering happens in the client.
type Span struct {
	Start int            `json:"start" bson:"start"`
	End   int            `json:"end" bson:"end"`
	Type  string         `json:"type" bson:"type"`
	Data  map[string]any `json:"data,omitempty" bson:"data,omitempty"`
}

// RichTextBlock is a single paragraph-level rich-text node.
type RichTextBlock struct {
	Type  string `json:"type" bson:"type"`
	Text  string `json:"text" bson:"text"`
	Spans []Span `json:"spans" bson:"spans"`
}

// ContentBlock is a titled section of a post body. Heading is nil when the CMS omitted it.
type ContentBlock struct {
	Heading *string         `json:"heading" bson:"heading"`
	Body    []RichTextBlock `json:"body" bson:"body"`
}

// PostDetail is a full post as returned by the CMS.
type PostDetail struct {
	ID                   string         `json:"id" bson:"id"`
	UID                  string         `json:"uid" bson:"uid"`
	FirstPublicationDate *time.Time     `json:"first_publication_date" bson:"first_publication_date"`
	LastPublicationDate  *time.Time     `json:"last_publication_date" bson:"last_publication_date"`
	Title                string         `json:"title" bson:"title"`
	Subtitle             string         `json:"subtitle" bson:"subtitle"`
	BannerURL            string         `json:"banner_url" bson:"banner_url"`
	Author               string         `json:"author" bson:"author"`
	Content              []ContentBlock `json:"content" bson:"content"`
}

// AdjacentPost is a navigation link to a neighbouring post.
type AdjacentPost struct {
	UID   string `json:"uid" bson:"uid"`
	Title string `json:"title" bson:"title"`
}

// AdjacentPosts holds the posts published right before and right after a post.
type AdjacentPosts struct {
	Previous *AdjacentPost `json:"previous" bson:"previous"`
	Next     *AdjacentPost `json:"next" bson:"next"`
}
