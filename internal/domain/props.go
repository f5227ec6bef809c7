package domain

import "time"

// PostCard is a listing entry ready for display.
type PostCard struct {
	UID            string `json:"uid" bson:"uid"`
	Title          string `json:"title" bson:"title"`
	Subtitle       string `json:"subtitle" bson:"subtitle"`
	Author         string `json:"author" bson:"author"`
	PublishedLabel string `json:"published_label" bson:"published_label"`
}

// HomeProps is the generated data for the listing page.
type HomeProps struct {
	Posts       []PostCard `json:"posts" bson:"posts"`
	NextPage    string     `json:"next_page" bson:"next_page"`
	GeneratedAt time.Time  `json:"generated_at" bson:"generated_at"`
}

// ListingPage is one further page of the listing, shaped like the first.
type ListingPage struct {
	Posts    []PostCard `json:"posts"`
	NextPage string     `json:"next_page"`
}

// PostView is a post enriched with display-only fields.
type PostView struct {
	PostDetail     `bson:",inline"`
	ReadingMinutes int    `json:"reading_minutes" bson:"reading_minutes"`
	PublishedLabel string `json:"published_label" bson:"published_label"`
	// EditedLabel is empty unless the post was republished after its first publication.
	EditedLabel string `json:"edited_label,omitempty" bson:"edited_label,omitempty"`
}

// CommentsConfig is the fixed configuration of the hosted comments script.
type CommentsConfig struct {
	ScriptURL string `json:"script_url" bson:"script_url"`
	Repo      string `json:"repo" bson:"repo"`
	IssueTerm string `json:"issue_term" bson:"issue_term"`
	Theme     string `json:"theme" bson:"theme"`
	AnchorID  string `json:"anchor_id" bson:"anchor_id"`
}

// PostProps is the generated data for a single post page.
type PostProps struct {
	Post        PostView       `json:"post" bson:"post"`
	Preview     bool           `json:"preview" bson:"preview"`
	Adjacent    AdjacentPosts  `json:"adjacent_posts" bson:"adjacent_posts"`
	Comments    CommentsConfig `json:"comments" bson:"comments"`
	GeneratedAt time.Time      `json:"generated_at" bson:"generated_at"`
}

// RevalidationEvent asks the generator to rebuild the static snapshot.
type RevalidationEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	DocumentIDs []string  `json:"document_ids"`
	ReceivedAt  time.Time `json:"received_at"`
}
