package transformer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spacetraveling/blog/internal/domain"
)

// prismicDateLayout is the timestamp format of Prismic's REST API ("2021-03-25T19:25:28+0000").
const prismicDateLayout = "2006-01-02T15:04:05-0700"

// ErrNoMasterRef is returned when the API root lists no master ref.
var ErrNoMasterRef = errors.New("prismic api has no master ref")

type prismicRef struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}

type prismicAPI struct {
	Refs []prismicRef `json:"refs"`
}

type prismicContent struct {
	Heading *string                `json:"heading"`
	Body    []domain.RichTextBlock `json:"body"`
}

type prismicPostData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
	Banner   struct {
		URL string `json:"url"`
	} `json:"banner"`
	Content []prismicContent `json:"content"`
}

type prismicDocument struct {
	ID                   string          `json:"id"`
	UID                  string          `json:"uid"`
	Type                 string          `json:"type"`
	FirstPublicationDate *string         `json:"first_publication_date"`
	LastPublicationDate  *string         `json:"last_publication_date"`
	Data                 prismicPostData `json:"data"`
}

type prismicSearchResponse struct {
	Page             int               `json:"page"`
	ResultsPerPage   int               `json:"results_per_page"`
	TotalResultsSize int               `json:"total_results_size"`
	TotalPages       int               `json:"total_pages"`
	NextPage         *string           `json:"next_page"`
	PrevPage         *string           `json:"prev_page"`
	Results          []prismicDocument `json:"results"`
}

// SearchResult is a decoded /documents/search response.
type SearchResult struct {
	NextPage     string
	TotalResults int
	Documents    []domain.PostDetail
}

// PostPage projects the result to the listing shape.
func (r *SearchResult) PostPage() *domain.PostPage {
	page := &domain.PostPage{
		NextPage: r.NextPage,
		Results:  make([]domain.PostSummary, 0, len(r.Documents)),
	}
	for _, d := range r.Documents {
		page.Results = append(page.Results, domain.PostSummary{
			ID:                   d.ID,
			UID:                  d.UID,
			FirstPublicationDate: d.FirstPublicationDate,
			Title:                d.Title,
			Subtitle:             d.Subtitle,
			Author:               d.Author,
		})
	}
	return page
}

type PrismicTransformer struct{}

func NewPrismicTransformer() *PrismicTransformer {
	return &PrismicTransformer{}
}

// MasterRef decodes the API root document and returns the master content ref.
func (t *PrismicTransformer) MasterRef(reader io.Reader) (string, error) {
	var api prismicAPI
	if err := json.NewDecoder(reader).Decode(&api); err != nil {
		return "", fmt.Errorf("failed to decode prismic api root: %w", err)
	}
	for _, ref := range api.Refs {
		if ref.IsMasterRef {
			return ref.Ref, nil
		}
	}
	return "", ErrNoMasterRef
}

// Search decodes a /documents/search response.
func (t *PrismicTransformer) Search(reader io.Reader) (*SearchResult, error) {
	var resp prismicSearchResponse
	if err := json.NewDecoder(reader).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode prismic search response: %w", err)
	}

	result := &SearchResult{
		TotalResults: resp.TotalResultsSize,
		Documents:    make([]domain.PostDetail, 0, len(resp.Results)),
	}
	if resp.NextPage != nil {
		result.NextPage = *resp.NextPage
	}
	for _, doc := range resp.Results {
		result.Documents = append(result.Documents, t.normalize(doc))
	}
	return result, nil
}

func (t *PrismicTransformer) normalize(doc prismicDocument) domain.PostDetail {
	content := make([]domain.ContentBlock, 0, len(doc.Data.Content))
	for _, c := range doc.Data.Content {
		content = append(content, domain.ContentBlock{
			Heading: c.Heading,
			Body:    c.Body,
		})
	}

	return domain.PostDetail{
		ID:                   doc.ID,
		UID:                  doc.UID,
		FirstPublicationDate: parseDate(doc.FirstPublicationDate),
		LastPublicationDate:  parseDate(doc.LastPublicationDate),
		Title:                doc.Data.Title,
		Subtitle:             doc.Data.Subtitle,
		BannerURL:            doc.Data.Banner.URL,
		Author:               doc.Data.Author,
		Content:              content,
	}
}

// parseDate accepts Prismic's own layout and RFC 3339; anything else is treated as unknown.
func parseDate(raw *string) *time.Time {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	for _, layout := range []string{prismicDateLayout, time.RFC3339} {
		if ts, err := time.Parse(layout, *raw); err == nil {
			utc := ts.UTC()
			return &utc
		}
	}
	return nil
}
