package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/marcusreed/propforge/model"
)

// CrossrefConnector searches the Crossref works API, a DOI-centric registry
// that the literature agent favors when a topic needs solid DOI coverage
// for reference-checking (spec §4.7, §4.8's DOI-based dedup).
type CrossrefConnector struct {
	BaseURL    string
	MailTo     string // polite-pool identification, per Crossref's etiquette
	HTTPClient *http.Client
	limiter    *rate.Limiter
}

// NewCrossrefConnector builds a connector against the public Crossref API.
func NewCrossrefConnector(mailTo string, requestsPerSecond float64) *CrossrefConnector {
	return &CrossrefConnector{
		BaseURL:    "https://api.crossref.org/works",
		MailTo:     mailTo,
		HTTPClient: &http.Client{},
		limiter:    newLimiter(requestsPerSecond),
	}
}

func (c *CrossrefConnector) Name() string { return "crossref" }

func (c *CrossrefConnector) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?rows=0", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &ErrSourceUnavailable{Source: c.Name(), Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return &ErrSourceUnavailable{Source: c.Name(), Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return nil
}

type crossrefResponse struct {
	Message struct {
		Items []crossrefItem `json:"items"`
	} `json:"message"`
}

type crossrefItem struct {
	DOI     string            `json:"DOI"`
	Title   []string          `json:"title"`
	Author  []crossrefAuthor  `json:"author"`
	Issued  crossrefDateParts `json:"issued"`
	Abstract string           `json:"abstract"`
	ContainerTitle []string   `json:"container-title"`
	IsReferencedByCount int   `json:"is-referenced-by-count"`
	URL     string            `json:"URL"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDateParts struct {
	DateParts [][]int `json:"date-parts"`
}

func (c *CrossrefConnector) Search(ctx context.Context, query string, filters SearchFilters) ([]model.Paper, error) {
	if err := waitForSlot(ctx, c.limiter); err != nil {
		return nil, err
	}

	rows := filters.MaxResults
	if rows <= 0 {
		rows = 20
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("rows", strconv.Itoa(rows))
	if c.MailTo != "" {
		params.Set("mailto", c.MailTo)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("crossref: building request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &ErrSourceUnavailable{Source: c.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ErrSourceUnavailable{Source: c.Name(), Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var parsed crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("crossref: decoding response: %w", err)
	}

	papers := make([]model.Paper, 0, len(parsed.Message.Items))
	for _, item := range parsed.Message.Items {
		title := ""
		if len(item.Title) > 0 {
			title = item.Title[0]
		}
		venue := ""
		if len(item.ContainerTitle) > 0 {
			venue = item.ContainerTitle[0]
		}
		authors := make([]string, 0, len(item.Author))
		for _, a := range item.Author {
			authors = append(authors, strings.TrimSpace(a.Given+" "+a.Family))
		}
		var year *int
		if len(item.Issued.DateParts) > 0 && len(item.Issued.DateParts[0]) > 0 {
			y := item.Issued.DateParts[0][0]
			year = &y
		}
		papers = append(papers, model.Paper{
			PaperID:       item.DOI,
			Title:         title,
			Authors:       authors,
			Year:          year,
			Abstract:      item.Abstract,
			Venue:         venue,
			CitationCount: item.IsReferencedByCount,
			DOI:           item.DOI,
			URL:           item.URL,
			Source:        "crossref",
		})
	}
	return papers, nil
}
