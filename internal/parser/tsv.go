package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/flixtrack/flixtrack/internal/types"
)

// Header names of the bulk export. country_iso2 and season_title are
// present in the file but not consumed here.
const (
	colCountryName = "country_name"
	colWeek        = "week"
	colCategory    = "category"
	colWeeklyRank  = "weekly_rank"
	colShowTitle   = "show_title"
	colWeeksInTop  = "cumulative_weeks_in_top_10"
)

// categorySlugs maps the export's category labels to canonical slugs.
var categorySlugs = map[string]string{
	"Films": types.CategoryFilms,
	"TV":    types.CategoryTV,
}

// CategorySlug canonicalizes a provider category label. Unknown labels
// pass through lowercased rather than failing the row.
func CategorySlug(label string) string {
	if slug, ok := categorySlugs[label]; ok {
		return slug
	}
	return strings.ToLower(label)
}

// groupKey identifies one (week, country, category) combination. The
// category is kept as the raw export label; it is canonicalized at emit
// time so group ordering matches the source labels.
type groupKey struct {
	week     string
	country  string
	category string
}

// exportRow carries the unparsed cells one entry is built from.
type exportRow struct {
	rank  string
	title string
	weeks string
}

// ParseCountriesTSV parses the provider's bulk export into one
// CountryRanking per (week, country, category) combination, sorted by
// that key.
//
// Two passes: the first streams rows, tracks the latest week seen (when
// no target week is given), filters to tracked countries, and groups the
// survivors; the second drops every group outside the latest week and
// builds rank-sorted entries for the rest. Latest-week detection compares
// week strings directly, which orders correctly because the field is a
// fixed-width ISO date (YYYY-MM-DD).
//
// A target week that matches nothing yields an empty slice, not an
// error. The only error condition is an export whose header is missing a
// required column; row-level defects are skipped or degraded instead.
func ParseCountriesTSV(tsvText, targetWeek string, tracked map[string]string) ([]types.CountryRanking, error) {
	r := csv.NewReader(strings.NewReader(tsvText))
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read export header: %w", err)
	}
	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	grouped := make(map[groupKey][]exportRow)
	latestWeek := ""

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// malformed line, skip
			continue
		}

		week := cell(record, cols[colWeek])
		countryName := cell(record, cols[colCountryName])

		if targetWeek == "" && week > latestWeek {
			latestWeek = week
		}
		if targetWeek != "" && week != targetWeek {
			continue
		}
		if _, ok := tracked[countryName]; !ok {
			continue
		}

		key := groupKey{week: week, country: countryName, category: cell(record, cols[colCategory])}
		grouped[key] = append(grouped[key], exportRow{
			rank:  cell(record, cols[colWeeklyRank]),
			title: cell(record, cols[colShowTitle]),
			weeks: cell(record, cols[colWeeksInTop]),
		})
	}

	// Retroactively keep only the detected latest week.
	if targetWeek == "" {
		for key := range grouped {
			if key.week != latestWeek {
				delete(grouped, key)
			}
		}
	}

	keys := make([]groupKey, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b groupKey) int {
		if c := strings.Compare(a.week, b.week); c != 0 {
			return c
		}
		if c := strings.Compare(a.country, b.country); c != 0 {
			return c
		}
		return strings.Compare(a.category, b.category)
	})

	rankings := make([]types.CountryRanking, 0, len(keys))
	for _, key := range keys {
		rows := grouped[key]
		slices.SortStableFunc(rows, func(a, b exportRow) int {
			return ParseIntOrDefault(a.rank, 0) - ParseIntOrDefault(b.rank, 0)
		})

		entries := make([]types.RankingEntry, 0, len(rows))
		for _, row := range rows {
			entries = append(entries, types.RankingEntry{
				Rank:         ParseIntOrDefault(row.rank, 0),
				Title:        row.title,
				WeeksInTop10: ParseIntOrDefault(row.weeks, 0),
			})
		}

		rankings = append(rankings, types.NewCountryRanking(
			key.week,
			tracked[key.country],
			key.country,
			CategorySlug(key.category),
			types.SourceTSV,
			entries,
		))
	}

	return rankings, nil
}

// indexColumns maps the required header names to their positions.
func indexColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	required := []string{colCountryName, colWeek, colCategory, colWeeklyRank, colShowTitle, colWeeksInTop}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("export header missing column %q", name)
		}
	}
	return cols, nil
}

// cell returns record[idx], or "" when the row is too short.
func cell(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return record[idx]
}
