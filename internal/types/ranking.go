package types

import (
	"time"
)

// Source identifies which acquisition path produced a result.
type Source string

const (
	// SourceTSV is the structured bulk export, the primary path.
	SourceTSV Source = "tsv"

	// SourceHTMLFallback is the per-country page scrape, used when the
	// export path fails or comes back empty.
	SourceHTMLFallback Source = "html_fallback"

	// SourceNone means both paths were exhausted.
	SourceNone Source = "none"
)

// Canonical category slugs.
const (
	CategoryFilms = "films"
	CategoryTV    = "tv"
)

// WeekUnknown is recorded when a scraped page carries no parsable week
// marker. Validation downgrades it to a warning rather than an error.
const WeekUnknown = "unknown"

// RankingEntry is a single title's position within one weekly Top 10 list.
type RankingEntry struct {
	// Rank is the list position, 1-10 for well-formed data.
	Rank int `bson:"rank" json:"rank"`

	// Title is the show or film name. Never empty in a well-formed entry.
	Title string `bson:"title" json:"title"`

	// WeeksInTop10 is the cumulative number of weeks the title has charted.
	WeeksInTop10 int `bson:"weeks_in_top_10" json:"weeks_in_top_10"`

	// HoursViewed is the reported viewing time. Neither source carries it
	// today, so it stays 0 and is omitted from stored documents.
	HoursViewed int `bson:"hours_viewed,omitempty" json:"hours_viewed,omitempty"`
}

// CountryRanking is one country's Top 10 list for a single week and
// category. The tuple (Week, Country, Category) is its storage identity.
type CountryRanking struct {
	// Week is the reporting week as a fixed-width ISO date (YYYY-MM-DD),
	// or the literal "unknown" when a scraped page carries no week marker.
	Week string `bson:"week" json:"week"`

	// Country is the URL-safe slug, e.g. "south-korea".
	Country string `bson:"country" json:"country"`

	// CountryName is the display name, e.g. "South Korea".
	CountryName string `bson:"country_name" json:"country_name"`

	// Category is "films" or "tv".
	Category string `bson:"category" json:"category"`

	// Source records which acquisition path produced this value.
	Source Source `bson:"source" json:"source"`

	// Rankings holds the entries ordered by ascending rank,
	// conventionally 10 of them.
	Rankings []RankingEntry `bson:"rankings" json:"rankings"`

	// FetchedAt is the capture timestamp.
	FetchedAt time.Time `bson:"fetched_at" json:"fetched_at"`
}

// NewCountryRanking builds a CountryRanking stamped with the current time.
func NewCountryRanking(week, country, countryName, category string, source Source, entries []RankingEntry) CountryRanking {
	return CountryRanking{
		Week:        week,
		Country:     country,
		CountryName: countryName,
		Category:    category,
		Source:      source,
		Rankings:    entries,
		FetchedAt:   time.Now().UTC(),
	}
}

// Key returns the storage identity tuple in week/country/category form,
// for logs and error messages.
func (c CountryRanking) Key() string {
	return c.Week + "/" + c.Country + "/" + c.Category
}

// ScrapeResult is the orchestrator's sole return contract: the collected
// rankings, the source that produced them, and the failure messages
// accumulated along the attempted chain. Always constructible; a caller
// never sees a partial or invalid state.
type ScrapeResult struct {
	Rankings   []CountryRanking `json:"rankings"`
	SourceUsed Source           `json:"source_used"`
	Errors     []string         `json:"errors"`
}
