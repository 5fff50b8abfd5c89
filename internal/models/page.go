package models

import "time"

const (
	// DefaultTitle is used for pages without a <title> element.
	DefaultTitle = "No Title"

	// ContentNotFound is the body of pages without a recognizable content region.
	ContentNotFound = "Content not found"
)

// PageResult is the outcome of extracting one page
type PageResult struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Succeeded bool   `json:"succeeded"`
	Err       string `json:"error,omitempty"`

	// Cause is the error behind a failed result.
	Cause error `json:"-"`
}

// ConsolidatedDocument holds per-page results in discovery order
type ConsolidatedDocument struct {
	Source      string       `json:"source"`
	GeneratedAt time.Time    `json:"generated_at"`
	Pages       []PageResult `json:"pages"`
	Cancelled   bool         `json:"cancelled,omitempty"`
}

// RunSummary provides high-level numbers about a consolidated document
type RunSummary struct {
	TotalPages      int `json:"total_pages"`
	Succeeded       int `json:"succeeded"`
	Failed          int `json:"failed"`
	ContentNotFound int `json:"content_not_found"`
	Words           int `json:"words"`
	ReadingMinutes  int `json:"reading_minutes"`
}
