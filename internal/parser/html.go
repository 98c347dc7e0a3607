package parser

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/flixtrack/flixtrack/internal/types"
)

// Listing page markers. The provider's ranking table has kept these hooks
// stable across redesigns; they are the same attributes the page's own
// week picker and table widget use.
const (
	selWeekMarker = "[data-week]"
	selTitleCell  = "td.tbl-cell-name"
	selWeeksBadge = "span.wk-number"
)

// maxListEntries caps extraction at the Top 10 shape the pages advertise.
const maxListEntries = 10

// ParsePage reads one listing page and extracts its reporting week and
// ranking entries.
func ParsePage(r io.Reader) (string, []types.RankingEntry, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", nil, fmt.Errorf("parse listing page: %w", err)
	}
	return ExtractWeek(doc), ExtractRankings(doc), nil
}

// ExtractWeek returns the reporting week advertised by a listing page.
// The week picker stamps its selection on a data-week attribute; a page
// without one, or with a value that is not an ISO date, yields "unknown".
func ExtractWeek(doc *goquery.Document) string {
	week, ok := doc.Find(selWeekMarker).First().Attr("data-week")
	if !ok {
		return types.WeekUnknown
	}
	week = strings.TrimSpace(week)
	if _, err := time.Parse("2006-01-02", week); err != nil {
		return types.WeekUnknown
	}
	return week
}

// ExtractRankings pulls up to 10 entries from a listing page. Rank is the
// 1-based row position (the pages are pre-sorted), the title is the row's
// name cell, and weeks-on-list degrades to 0 when the badge is missing or
// malformed. Rows without a title are dropped. The pages do not publish
// viewing hours, so HoursViewed stays 0.
func ExtractRankings(doc *goquery.Document) []types.RankingEntry {
	var entries []types.RankingEntry
	doc.Find(selTitleCell).EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		title := directText(cell)
		if title == "" {
			// malformed row, keep scanning
			return true
		}
		weeks := ParseIntOrDefault(cell.Closest("tr").Find(selWeeksBadge).First().Text(), 0)
		entries = append(entries, types.RankingEntry{
			Rank:         len(entries) + 1,
			Title:        title,
			WeeksInTop10: weeks,
		})
		return len(entries) < maxListEntries
	})
	return entries
}

// directText concatenates only the immediate text children of the
// selection's first node. Name cells nest badge markup ("NEW", trophy
// icons) whose text must not leak into the title.
func directText(sel *goquery.Selection) string {
	if len(sel.Nodes) == 0 {
		return ""
	}
	var b strings.Builder
	for n := sel.Nodes[0].FirstChild; n != nil; n = n.NextSibling {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
	}
	return strings.TrimSpace(b.String())
}
