package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/marcusreed/propforge/model"
)

// SemanticScholarConnector searches the Semantic Scholar Graph API.
// Grounded on src/mcp_servers/semantic_scholar_mcp.py (field mapping in
// _normalize_paper: paperId/title/abstract/year/authors/venue/
// citationCount/externalIds.DOI).
type SemanticScholarConnector struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	limiter    *rate.Limiter
}

// NewSemanticScholarConnector builds a connector against the public
// Semantic Scholar API. apiKey is optional; an empty key uses the
// unauthenticated (more heavily rate-limited) tier.
func NewSemanticScholarConnector(apiKey string, requestsPerSecond float64) *SemanticScholarConnector {
	return &SemanticScholarConnector{
		BaseURL:    "https://api.semanticscholar.org/graph/v1",
		APIKey:     apiKey,
		HTTPClient: &http.Client{},
		limiter:    newLimiter(requestsPerSecond),
	}
}

func (c *SemanticScholarConnector) Name() string { return "semantic_scholar" }

func (c *SemanticScholarConnector) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/paper/search?query=test&limit=1", nil)
	if err != nil {
		return err
	}
	c.addHeaders(req)
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

func (c *SemanticScholarConnector) addHeaders(req *http.Request) {
	if c.APIKey != "" {
		req.Header.Set("x-api-key", c.APIKey)
	}
}

type semanticScholarSearchResponse struct {
	Data []semanticScholarPaper `json:"data"`
}

type semanticScholarPaper struct {
	PaperID       string                   `json:"paperId"`
	Title         string                   `json:"title"`
	Abstract      string                   `json:"abstract"`
	Year          *int                     `json:"year"`
	Authors       []semanticScholarAuthor  `json:"authors"`
	Venue         string                   `json:"venue"`
	CitationCount int                      `json:"citationCount"`
	ExternalIDs   map[string]string        `json:"externalIds"`
	URL           string                   `json:"url"`
}

type semanticScholarAuthor struct {
	Name string `json:"name"`
}

func (c *SemanticScholarConnector) Search(ctx context.Context, query string, filters SearchFilters) ([]model.Paper, error) {
	if err := waitForSlot(ctx, c.limiter); err != nil {
		return nil, err
	}

	limit := filters.MaxResults
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", "title,abstract,year,authors,venue,citationCount,externalIds,url")
	if filters.FromYear > 0 || filters.ToYear > 0 {
		from, to := "", ""
		if filters.FromYear > 0 {
			from = strconv.Itoa(filters.FromYear)
		}
		if filters.ToYear > 0 {
			to = strconv.Itoa(filters.ToYear)
		}
		params.Set("year", from+"-"+to)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/paper/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("semantic_scholar: building request: %w", err)
	}
	c.addHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &ErrSourceUnavailable{Source: c.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ErrSourceUnavailable{Source: c.Name(), Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var parsed semanticScholarSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("semantic_scholar: decoding response: %w", err)
	}

	papers := make([]model.Paper, 0, len(parsed.Data))
	for _, p := range parsed.Data {
		authors := make([]string, 0, len(p.Authors))
		for _, a := range p.Authors {
			authors = append(authors, a.Name)
		}
		papers = append(papers, model.Paper{
			PaperID:       p.PaperID,
			Title:         p.Title,
			Authors:       authors,
			Year:          p.Year,
			Abstract:      p.Abstract,
			Venue:         p.Venue,
			CitationCount: p.CitationCount,
			DOI:           p.ExternalIDs["DOI"],
			URL:           p.URL,
			Source:        "semantic_scholar",
		})
	}
	return papers, nil
}
