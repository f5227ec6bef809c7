package main

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const prismicDateLayout = "2006-01-02T15:04:05-0700"

var predicatePattern = regexp.MustCompile(`at\(([^,]+),"([^"]*)"\)`)

type searchResponse struct {
	Page             int              `json:"page"`
	ResultsPerPage   int              `json:"results_per_page"`
	ResultsSize      int              `json:"results_size"`
	TotalResultsSize int              `json:"total_results_size"`
	TotalPages       int              `json:"total_pages"`
	NextPage         *string          `json:"next_page"`
	PrevPage         *string          `json:"prev_page"`
	Results          []map[string]any `json:"results"`
}

type repository struct {
	docs []document
}

func matches(doc document, path, value string) bool {
	switch path {
	case "document.type":
		return doc.Type == value
	case "document.id":
		return doc.ID == value
	case "my." + doc.Type + ".uid":
		return doc.UID == value
	default:
		return false
	}
}

// search answers a /documents/search query. base is the absolute URL of the search endpoint.
func (r *repository) search(base string, params url.Values) searchResponse {
	results := make([]document, 0, len(r.docs))
	predicates := predicatePattern.FindAllStringSubmatch(params.Get("q"), -1)
	for _, doc := range r.docs {
		ok := true
		for _, p := range predicates {
			if !matches(doc, p[1], p[2]) {
				ok = false
				break
			}
		}
		if ok {
			results = append(results, doc)
		}
	}

	desc := strings.Contains(params.Get("orderings"), "desc")
	sort.SliceStable(results, func(i, j int) bool {
		if desc {
			return results[i].First.After(results[j].First)
		}
		return results[i].First.Before(results[j].First)
	})

	if after := params.Get("after"); after != "" {
		for i, doc := range results {
			if doc.ID == after {
				results = results[i+1:]
				break
			}
		}
	}

	pageSize := atoiOr(params.Get("pageSize"), 20)
	page := atoiOr(params.Get("page"), 1)
	total := len(results)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	fetch := fetchFields(params.Get("fetch"))
	encoded := make([]map[string]any, 0, end-start)
	for _, doc := range results[start:end] {
		encoded = append(encoded, encode(doc, fetch))
	}

	resp := searchResponse{
		Page:             page,
		ResultsPerPage:   pageSize,
		ResultsSize:      len(encoded),
		TotalResultsSize: total,
		TotalPages:       totalPages,
		Results:          encoded,
	}
	if page < totalPages {
		next := pageURL(base, params, page+1)
		resp.NextPage = &next
	}
	if page > 1 {
		prev := pageURL(base, params, page-1)
		resp.PrevPage = &prev
	}
	return resp
}

func pageURL(base string, params url.Values, page int) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))
	return base + "?" + q.Encode()
}

func fetchFields(raw string) map[string]bool {
	if raw == "" {
		return nil
	}
	fields := map[string]bool{}
	for _, f := range strings.Split(raw, ",") {
		if i := strings.LastIndex(f, "."); i >= 0 {
			f = f[i+1:]
		}
		fields[strings.TrimSpace(f)] = true
	}
	return fields
}

func encode(doc document, fetch map[string]bool) map[string]any {
	data := map[string]any{}
	for k, v := range doc.Data {
		if fetch == nil || fetch[k] {
			data[k] = v
		}
	}
	return map[string]any{
		"id":                     doc.ID,
		"uid":                    doc.UID,
		"type":                   doc.Type,
		"first_publication_date": doc.First.Format(prismicDateLayout),
		"last_publication_date":  doc.Last.Format(prismicDateLayout),
		"data":                   data,
	}
}

func atoiOr(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
