package documents

import "time"

// Document statuses. A row is written already resolved to completed or failed;
// processing only exists transiently inside an ingestion call.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Content is the extracted field data for one document. Its shape is
// template-driven and open-ended, so it stays an untyped mapping.
type Content map[string]any

// Document represents one processed (or attempted) scan owned by a user.
type Document struct {
	ID           string
	UserID       string
	FileName     string
	FilePath     string // storage key; empty for documents saved without an upload
	FileSize     string // human-readable, e.g. "1.2 MB"
	Resolution   string // "WxH" for images, "N pages" for PDFs, empty if unknown
	DocumentType string
	Status       string
	Saved        bool
	Content      Content
	// ConfidenceScore is 0-100; nil when never scored (saved without upload).
	ConfidenceScore *float64
	ProcessingTime  string // human-readable, e.g. "1.2s"
	ScannedAt       time.Time
	CreatedAt       time.Time
}
