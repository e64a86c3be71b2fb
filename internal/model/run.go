package model

import "time"

// RunStatus is the lifecycle state of a scrape run.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusPartial RunStatus = "partial"
	RunStatusFailed  RunStatus = "failed"
)

// Terminal reports whether the status is final. A run row is never
// mutated again once it reaches a terminal status.
func (s RunStatus) Terminal() bool {
	return s == RunStatusSuccess || s == RunStatusPartial || s == RunStatusFailed
}

// Scrape type labels recorded on runs.
const (
	ScrapeTypeFull    = "full"
	ScrapeTypeRefresh = "refresh"
	ScrapeTypeSeed    = "seed"
)

// FilteredScrapeType labels a crawl restricted to a single category.
func FilteredScrapeType(category string) string {
	return "filtered_" + category
}

// ScrapeRun is the audit row for one pipeline invocation. Exactly one
// is written per invocation, opened when work starts and finalized once.
type ScrapeRun struct {
	ID             string     `json:"id"`
	SourceName     string     `json:"source_name"`
	ScrapeType     string     `json:"scrape_type"`
	Status         RunStatus  `json:"status"`
	RecordsAdded   int        `json:"records_added"`
	RecordsUpdated int        `json:"records_updated"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// RunSummary is what an invocation reports back to its caller.
type RunSummary struct {
	RunID          string `json:"run_id"`
	RecordsAdded   int    `json:"records_added"`
	RecordsUpdated int    `json:"records_updated"`
	Errors         int    `json:"errors"`
}
