package observability

import (
	"log/slog"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// Metrics tracks operational counters for a collection run. All fields
// are safe for concurrent use; a single instance is shared by the HTTP
// client hooks and the pipeline.
type Metrics struct {
	// Request metrics, counted per attempt (retries included)
	RequestsTotal  atomic.Int64
	RequestsFailed atomic.Int64

	// Response metrics
	Responses2xx atomic.Int64
	Responses3xx atomic.Int64
	Responses4xx atomic.Int64
	Responses5xx atomic.Int64

	// Data metrics
	BytesDownloaded atomic.Int64
	RankingsFetched atomic.Int64
	RecordsRejected atomic.Int64
	DocumentsSaved  atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

// InstrumentClient hooks the counters into a resty client.
func (m *Metrics) InstrumentClient(client *resty.Client) {
	client.OnBeforeRequest(func(_ *resty.Client, _ *resty.Request) error {
		m.RequestsTotal.Add(1)
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		switch status := resp.StatusCode(); {
		case status >= 200 && status < 300:
			m.Responses2xx.Add(1)
		case status >= 300 && status < 400:
			m.Responses3xx.Add(1)
		case status >= 400 && status < 500:
			m.Responses4xx.Add(1)
		case status >= 500:
			m.Responses5xx.Add(1)
		}
		m.BytesDownloaded.Add(resp.Size())
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		m.RequestsFailed.Add(1)
		m.logger.Debug("request failed", "url", req.URL, "error", err)
	})
}

// Snapshot returns all counters as a map, for the end-of-run summary.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"requests_total":   m.RequestsTotal.Load(),
		"requests_failed":  m.RequestsFailed.Load(),
		"responses_2xx":    m.Responses2xx.Load(),
		"responses_3xx":    m.Responses3xx.Load(),
		"responses_4xx":    m.Responses4xx.Load(),
		"responses_5xx":    m.Responses5xx.Load(),
		"bytes_downloaded": m.BytesDownloaded.Load(),
		"rankings_fetched": m.RankingsFetched.Load(),
		"records_rejected": m.RecordsRejected.Load(),
		"documents_saved":  m.DocumentsSaved.Load(),
	}
}
