package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Paper is a normalized literature record returned by a source connector.
type Paper struct {
	PaperID       string   `json:"paper_id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Year          *int     `json:"year,omitempty"`
	Abstract      string   `json:"abstract"`
	Venue         string   `json:"venue"`
	CitationCount int      `json:"citation_count"`
	DOI           string   `json:"doi,omitempty"`
	URL           string   `json:"url"`
	Source        string   `json:"source"`
}

var titleCaseFolder = cases.Fold()

// NormalizeTitle normalizes a title by Unicode NFKC, casefold, and
// whitespace collapse, per the dedup identity rule of spec §3/§9.
func NormalizeTitle(title string) string {
	folded := titleCaseFolder.String(norm.NFKC.String(title))
	fields := strings.Fields(folded)
	return strings.Join(fields, " ")
}

// NormalizeDOI casefolds a DOI for exact-match comparison.
func NormalizeDOI(doi string) string {
	return strings.ToLower(strings.TrimSpace(doi))
}

// DedupePapers merges a set of Paper records. Two records belong to the same
// group iff their normalized title matches OR their normalized DOI matches
// (spec §3 invariant 7, §9 design note) — a union, not a simple key
// partition, since one duplicate may carry a DOI the other lacks. Within a
// group, the record with the highest citation count survives.
func DedupePapers(papers []Paper) []Paper {
	parent := make([]int, len(papers))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	byTitle := make(map[string]int, len(papers))
	byDOI := make(map[string]int, len(papers))
	for i, p := range papers {
		if title := NormalizeTitle(p.Title); title != "" {
			if j, ok := byTitle[title]; ok {
				union(i, j)
			} else {
				byTitle[title] = i
			}
		}
		if doi := NormalizeDOI(p.DOI); doi != "" {
			if j, ok := byDOI[doi]; ok {
				union(i, j)
			} else {
				byDOI[doi] = i
			}
		}
	}

	best := make(map[int]int, len(papers)) // group root -> index of best record
	order := make([]int, 0, len(papers))    // group roots in first-seen order
	for i, p := range papers {
		root := find(i)
		if bestIdx, ok := best[root]; ok {
			if p.CitationCount > papers[bestIdx].CitationCount {
				best[root] = i
			}
			continue
		}
		best[root] = i
		order = append(order, root)
	}

	out := make([]Paper, 0, len(order))
	for _, root := range order {
		out = append(out, papers[best[root]])
	}
	return out
}
