package types

import (
	"time"
)

// RunStatus summarizes the outcome of one collection run.
type RunStatus string

const (
	RunSuccess        RunStatus = "success"
	RunPartialFailure RunStatus = "partial_failure"
	RunFailure        RunStatus = "failure"
)

// ScrapeRun is the audit record written once per invocation.
type ScrapeRun struct {
	RunID          string    `bson:"run_id" json:"run_id"`
	StartedAt      time.Time `bson:"started_at" json:"started_at"`
	CompletedAt    time.Time `bson:"completed_at" json:"completed_at"`
	Status         RunStatus `bson:"status" json:"status"`
	SourceUsed     Source    `bson:"source_used" json:"source_used"`
	DocumentsSaved int       `bson:"total_documents_saved" json:"total_documents_saved"`
	Errors         []string  `bson:"errors" json:"errors"`
}

// Duration returns the wall-clock time the run took.
func (r ScrapeRun) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}
