package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/marcusreed/propforge/model"
)

// ArxivConnector searches the arXiv preprint repository's Atom feed API.
// Grounded on src/mcp_servers/arxiv_mcp.py (ArxivMCP): same base URL,
// search_query construction, and Atom-namespace field mapping, translated
// from Python's xml.etree to Go's encoding/xml.
type ArxivConnector struct {
	BaseURL    string
	HTTPClient *http.Client
	limiter    *rate.Limiter
}

// NewArxivConnector builds a connector against the public arXiv API,
// limited to requestsPerSecond (arXiv's published etiquette asks for no
// more than one request every three seconds).
func NewArxivConnector(requestsPerSecond float64) *ArxivConnector {
	return &ArxivConnector{
		BaseURL:    "http://export.arxiv.org/api/query",
		HTTPClient: &http.Client{},
		limiter:    newLimiter(requestsPerSecond),
	}
}

func (c *ArxivConnector) Name() string { return "arxiv" }

func (c *ArxivConnector) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?search_query=all:test&max_results=0", nil)
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

func (c *ArxivConnector) Search(ctx context.Context, query string, filters SearchFilters) ([]model.Paper, error) {
	if err := waitForSlot(ctx, c.limiter); err != nil {
		return nil, err
	}

	maxResults := filters.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(maxResults))
	params.Set("sortBy", "relevance")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("arxiv: building request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &ErrSourceUnavailable{Source: c.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ErrSourceUnavailable{Source: c.Name(), Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("arxiv: reading response: %w", err)
	}

	return parseArxivFeed(body)
}

type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string         `xml:"id"`
	Title     string         `xml:"title"`
	Summary   string         `xml:"summary"`
	Published string         `xml:"published"`
	Authors   []arxivAuthor  `xml:"author"`
	Links     []arxivLink    `xml:"link"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

func parseArxivFeed(body []byte) ([]model.Paper, error) {
	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("arxiv: parsing atom feed: %w", err)
	}

	papers := make([]model.Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		authors := make([]string, 0, len(e.Authors))
		for _, a := range e.Authors {
			authors = append(authors, a.Name)
		}

		var year *int
		if len(e.Published) >= 4 {
			if y, err := strconv.Atoi(e.Published[:4]); err == nil {
				year = &y
			}
		}

		papers = append(papers, model.Paper{
			PaperID:  arxivID(e.ID),
			Title:    strings.TrimSpace(strings.Join(strings.Fields(e.Title), " ")),
			Authors:  authors,
			Year:     year,
			Abstract: strings.TrimSpace(e.Summary),
			URL:      e.ID,
			Source:   "arxiv",
		})
	}
	return papers, nil
}

func arxivID(absURL string) string {
	idx := strings.LastIndex(absURL, "/abs/")
	if idx == -1 {
		return absURL
	}
	return absURL[idx+len("/abs/"):]
}
