package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/marcusreed/propforge/model"
)

// WebFallbackConnector scrapes a generic search results page with goquery
// when no structured academic API covers a topic (spec §4.7's "web
// fallback" connector). It is intentionally permissive about result shape:
// papers it returns carry only a title and URL, letting downstream agents
// treat them as low-confidence leads.
//
// Grounded on the teacher's tool/brave.go BraveSearch, generalized from a
// JSON API response to an HTML results page parsed with goquery, which is
// the shape a generic web fallback (no guaranteed JSON API) needs.
type WebFallbackConnector struct {
	SearchURL    string // must contain a "%s" placeholder for the query
	ResultSel    string // CSS selector for a single result container
	TitleSel     string // CSS selector for the title within a result, relative
	LinkSel      string // CSS selector for the link within a result, relative
	HTTPClient   *http.Client
	limiter      *rate.Limiter
}

// NewWebFallbackConnector builds a connector against a configurable search
// endpoint. Defaults target a generic "q=" query-string search page.
func NewWebFallbackConnector(searchURL string, requestsPerSecond float64) *WebFallbackConnector {
	return &WebFallbackConnector{
		SearchURL:  searchURL,
		ResultSel:  ".result",
		TitleSel:   ".result-title",
		LinkSel:    "a",
		HTTPClient: &http.Client{},
		limiter:    newLimiter(requestsPerSecond),
	}
}

func (c *WebFallbackConnector) Name() string { return "web_fallback" }

func (c *WebFallbackConnector) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.SearchURL, nil)
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

func (c *WebFallbackConnector) Search(ctx context.Context, query string, filters SearchFilters) ([]model.Paper, error) {
	if err := waitForSlot(ctx, c.limiter); err != nil {
		return nil, err
	}

	limit := filters.MaxResults
	if limit <= 0 {
		limit = 10
	}

	target := fmt.Sprintf(c.SearchURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("web_fallback: building request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &ErrSourceUnavailable{Source: c.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ErrSourceUnavailable{Source: c.Name(), Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("web_fallback: parsing html: %w", err)
	}

	var papers []model.Paper
	doc.Find(c.ResultSel).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(papers) >= limit {
			return false
		}
		title := sel.Find(c.TitleSel).First().Text()
		href, _ := sel.Find(c.LinkSel).First().Attr("href")
		if title == "" {
			return true
		}
		papers = append(papers, model.Paper{
			PaperID: "web:" + strconv.Itoa(i),
			Title:   title,
			URL:     href,
			Source:  c.Name(),
		})
		return true
	})
	return papers, nil
}
