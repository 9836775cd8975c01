package models

import "time"

// IngestionSummary is the per-run aggregate written at the end of every
// ingestion run, including interrupted ones.
type IngestionSummary struct {
	RunTimestamp    string  `json:"run_timestamp"`
	StartTerm       int     `json:"start_term"`
	EndTerm         int     `json:"end_term"`
	CasesSeen       int64   `json:"cases_seen"`
	CasesWithDocket int64   `json:"cases_with_docket"`
	CasesWithAudio  int64   `json:"cases_with_audio"`
	CasesSkipped    int64   `json:"cases_skipped"`
	OAsChecked      int64   `json:"oas_checked"`
	OAsExisting     int64   `json:"oas_existing"`
	OAsNew          int64   `json:"oas_new"`
	OAsUploaded     int64   `json:"oas_uploaded"`
	Failures        int64   `json:"failures"`
	TotalBytes      int64   `json:"total_bytes"`
	DurationSeconds float64 `json:"duration_seconds"`
	Interrupted     bool    `json:"interrupted"`
}

// TransformSummary is the per-run aggregate for the transformation pass.
type TransformSummary struct {
	RunTimestamp    string  `json:"run_timestamp"`
	DocumentsFound  int     `json:"documents_found"`
	Skipped         int     `json:"skipped"`
	Processed       int     `json:"processed"`
	Failed          int     `json:"failed"`
	ChunksWritten   int     `json:"chunks_written"`
	DurationSeconds float64 `json:"duration_seconds"`
	Interrupted     bool    `json:"interrupted"`
}

// JunkRecord preserves an input that failed a structural invariant. Junk is
// kept for offline inspection and never retried automatically.
type JunkRecord struct {
	JunkID   string    `json:"junk_id"`
	Term     int       `json:"term"`
	Context  string    `json:"context"`
	Item     string    `json:"item"`
	LoggedAt time.Time `json:"logged_at"`
}
