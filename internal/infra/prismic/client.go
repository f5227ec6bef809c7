package prismic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/spacetraveling/blog/internal/domain"
	"github.com/spacetraveling/blog/internal/infra/metrics"
	"github.com/spacetraveling/blog/internal/infra/transformer"
	"github.com/spacetraveling/blog/pkg/logging"
)

const (
	defaultMaxRetries = 3
	defaultBackoff    = 500 * time.Millisecond
)

var errRetriesExceeded = errors.New("max retries exceeded")

// Option customises a Client.
type Option func(*Client)

// WithRetryBackoff sets the first retry delay; it doubles on every attempt.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// Client talks to the Prismic REST API v2.
type Client struct {
	endpoint    *url.URL
	accessToken string
	client      *http.Client
	transformer *transformer.PrismicTransformer
	cb          *gobreaker.CircuitBreaker
	sampler     *logging.ErrorSampler
	tracer      trace.Tracer
	maxRetries  int
	backoff     time.Duration
}

func NewClient(endpoint, accessToken string, timeout time.Duration, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid prismic endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid prismic endpoint %q: scheme must be http or https", endpoint)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid prismic endpoint %q: missing host", endpoint)
	}

	cbSettings := gobreaker.Settings{
		Name:        "prismic",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("CircuitBreaker state changed", "name", name, "from", from, "to", to)
		},
		// A missing document or a caller giving up says nothing about CMS health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, domain.ErrNotFound) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
	}

	c := &Client{
		endpoint:    parsed,
		accessToken: accessToken,
		client: &http.Client{
			Timeout: timeout,
		},
		transformer: transformer.NewPrismicTransformer(),
		cb:          gobreaker.NewCircuitBreaker(cbSettings),
		sampler:     logging.NewErrorSampler(10, nil),
		tracer:      otel.Tracer("prismic"),
		maxRetries:  defaultMaxRetries,
		backoff:     defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Ref returns the master ref of the repository.
func (c *Client) Ref(ctx context.Context) (string, error) {
	var ref string
	err := c.do(ctx, "ref", c.endpoint.String(), func(body io.Reader) error {
		var err error
		ref, err = c.transformer.MasterRef(body)
		return err
	})
	if err != nil {
		return "", err
	}
	return ref, nil
}

func (c *Client) Query(ctx context.Context, predicates []string, opts domain.QueryOptions) (*domain.PostPage, error) {
	result, err := c.search(ctx, "query", predicates, opts)
	if err != nil {
		return nil, err
	}
	return c.publicPage(result), nil
}

func (c *Client) GetByUID(ctx context.Context, docType, uid, ref string) (*domain.PostDetail, error) {
	predicates := []string{domain.PredicateAt(fmt.Sprintf("my.%s.uid", docType), uid)}
	result, err := c.search(ctx, "get_by_uid", predicates, domain.QueryOptions{PageSize: 1, Ref: ref})
	if err != nil {
		return nil, err
	}
	if len(result.Documents) == 0 {
		return nil, fmt.Errorf("%s %q: %w", docType, uid, domain.ErrNotFound)
	}
	return &result.Documents[0], nil
}

func (c *Client) DocumentUID(ctx context.Context, id, ref string) (string, error) {
	predicates := []string{domain.PredicateAt("document.id", id)}
	result, err := c.search(ctx, "document_uid", predicates, domain.QueryOptions{PageSize: 1, Ref: ref})
	if err != nil {
		return "", err
	}
	if len(result.Documents) == 0 || result.Documents[0].UID == "" {
		return "", fmt.Errorf("document %q: %w", id, domain.ErrNotFound)
	}
	return result.Documents[0].UID, nil
}

// FetchPage follows a next_page URL. Only URLs on the configured CMS host are accepted.
func (c *Client) FetchPage(ctx context.Context, cursor string) (*domain.PostPage, error) {
	pageURL, err := c.validateCursor(cursor)
	if err != nil {
		return nil, err
	}

	var result *transformer.SearchResult
	err = c.do(ctx, "fetch_page", pageURL, func(body io.Reader) error {
		var err error
		result, err = c.transformer.Search(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.publicPage(result), nil
}

// publicPage projects result to a listing page whose cursor is safe to hand to
// browsers. The access token is added back by validateCursor.
func (c *Client) publicPage(result *transformer.SearchResult) *domain.PostPage {
	page := result.PostPage()
	page.NextPage = stripAccessToken(page.NextPage)
	return page
}

func stripAccessToken(cursor string) string {
	if cursor == "" {
		return ""
	}
	parsed, err := url.Parse(cursor)
	if err != nil {
		return ""
	}
	q := parsed.Query()
	if !q.Has("access_token") {
		return cursor
	}
	q.Del("access_token")
	parsed.RawQuery = q.Encode()
	return parsed.String()
}

func (c *Client) validateCursor(cursor string) (string, error) {
	if strings.TrimSpace(cursor) == "" {
		return "", fmt.Errorf("empty cursor: %w", domain.ErrInvalidCursor)
	}
	parsed, err := url.Parse(cursor)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}
	if parsed.Scheme != c.endpoint.Scheme || parsed.Host != c.endpoint.Host {
		return "", fmt.Errorf("cursor host %q: %w", parsed.Host, domain.ErrInvalidCursor)
	}
	if c.accessToken != "" {
		q := parsed.Query()
		if q.Get("access_token") == "" {
			q.Set("access_token", c.accessToken)
			parsed.RawQuery = q.Encode()
		}
	}
	return parsed.String(), nil
}

func (c *Client) search(ctx context.Context, op string, predicates []string, opts domain.QueryOptions) (*transformer.SearchResult, error) {
	ref := opts.Ref
	if ref == "" {
		var err error
		ref, err = c.Ref(ctx)
		if err != nil {
			return nil, err
		}
	}

	searchURL := c.buildSearchURL(ref, predicates, opts)

	var result *transformer.SearchResult
	err := c.do(ctx, op, searchURL, func(body io.Reader) error {
		var err error
		result, err = c.transformer.Search(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) buildSearchURL(ref string, predicates []string, opts domain.QueryOptions) string {
	values := url.Values{}
	values.Set("ref", ref)
	if len(predicates) > 0 {
		var q strings.Builder
		q.WriteString("[")
		for _, p := range predicates {
			q.WriteString("[" + p + "]")
		}
		q.WriteString("]")
		values.Set("q", q.String())
	}
	if len(opts.Fetch) > 0 {
		values.Set("fetch", strings.Join(opts.Fetch, ","))
	}
	if opts.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.After != "" {
		values.Set("after", opts.After)
	}
	if opts.Orderings != "" {
		values.Set("orderings", opts.Orderings)
	}
	if c.accessToken != "" {
		values.Set("access_token", c.accessToken)
	}
	return c.endpoint.String() + "/documents/search?" + values.Encode()
}

// do runs a GET through the circuit breaker with retries and hands the body to decode.
func (c *Client) do(ctx context.Context, op, target string, decode func(io.Reader) error) (err error) {
	ctx, span := c.tracer.Start(ctx, "prismic."+op, trace.WithAttributes(attribute.String("http.url", target)))
	start := time.Now()
	defer func() {
		status := "ok"
		switch {
		case errors.Is(err, domain.ErrNotFound):
			status = "not_found"
		case err != nil:
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.CMSRequestDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
		span.End()
	}()

	var body io.ReadCloser
	backoff := c.backoff

	_, err = c.cb.Execute(func() (interface{}, error) {
		for i := 0; i <= c.maxRetries; i++ {
			if i > 0 {
				metrics.CMSRetries.WithLabelValues(op).Inc()
				slog.Info("Retrying request", "op", op, "attempt", i, "max_retries", c.maxRetries)
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(backoff):
					backoff *= 2
				}
			}

			req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if reqErr != nil {
				return nil, fmt.Errorf("failed to create request: %w", reqErr)
			}
			req.Header.Set("Accept", "application/json")

			resp, respErr := c.client.Do(req)
			if respErr != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				c.sampler.Warn("prismic:"+op+":network", "Request failed", "op", op, "error", respErr)
				continue
			}

			if resp.StatusCode >= 500 {
				closeBody(resp.Body)
				c.sampler.Warn("prismic:"+op+":5xx", "Server error", "op", op, "status_code", resp.StatusCode)
				continue
			}

			if resp.StatusCode == http.StatusNotFound {
				closeBody(resp.Body)
				return nil, domain.ErrNotFound
			}

			if resp.StatusCode != http.StatusOK {
				closeBody(resp.Body)
				return nil, fmt.Errorf("prismic returned status %d", resp.StatusCode)
			}

			body = resp.Body
			return nil, nil
		}
		return nil, errRetriesExceeded
	})

	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("prismic %s: %w", op, err)
		}
		return fmt.Errorf("prismic %s: %w: %w", op, domain.ErrCMSUnavailable, err)
	}
	defer closeBody(body)

	c.sampler.Reset("prismic:" + op + ":network")
	c.sampler.Reset("prismic:" + op + ":5xx")

	if err := decode(body); err != nil {
		return fmt.Errorf("prismic %s: %w", op, err)
	}
	return nil
}

func closeBody(body io.Closer) {
	if err := body.Close(); err != nil {
		slog.Warn("Failed to close response body", "error", err)
	}
}
