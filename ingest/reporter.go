package ingest

import (
	"sync/atomic"
	"time"

	"scotustician-pipeline/models"
)

// Reporter accumulates per-run counters. All methods are safe for
// concurrent use by pool workers.
type Reporter struct {
	casesSeen       atomic.Int64
	casesWithDocket atomic.Int64
	casesWithAudio  atomic.Int64
	casesSkipped    atomic.Int64
	oasChecked      atomic.Int64
	oasExisting     atomic.Int64
	oasNew          atomic.Int64
	oasUploaded     atomic.Int64
	failures        atomic.Int64
	totalBytes      atomic.Int64
}

// NewReporter creates an empty reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

func (r *Reporter) CaseSeen()        { r.casesSeen.Add(1) }
func (r *Reporter) CaseWithDocket()  { r.casesWithDocket.Add(1) }
func (r *Reporter) CaseWithAudio()   { r.casesWithAudio.Add(1) }
func (r *Reporter) CaseSkipped()     { r.casesSkipped.Add(1) }
func (r *Reporter) OAChecked()       { r.oasChecked.Add(1) }
func (r *Reporter) OAExisting()      { r.oasExisting.Add(1) }
func (r *Reporter) OANew()           { r.oasNew.Add(1) }
func (r *Reporter) OAUploaded()      { r.oasUploaded.Add(1) }
func (r *Reporter) Failure()         { r.failures.Add(1) }
func (r *Reporter) AddBytes(n int64) { r.totalBytes.Add(n) }

// Failures returns the item-level failure count so far.
func (r *Reporter) Failures() int64 {
	return r.failures.Load()
}

// OAsNew returns the count of work units selected for fetching.
func (r *Reporter) OAsNew() int64 {
	return r.oasNew.Load()
}

// Summary snapshots the counters into a persistable run summary.
func (r *Reporter) Summary(runTimestamp string, startTerm, endTerm int, started time.Time, interrupted bool) models.IngestionSummary {
	return models.IngestionSummary{
		RunTimestamp:    runTimestamp,
		StartTerm:       startTerm,
		EndTerm:         endTerm,
		CasesSeen:       r.casesSeen.Load(),
		CasesWithDocket: r.casesWithDocket.Load(),
		CasesWithAudio:  r.casesWithAudio.Load(),
		CasesSkipped:    r.casesSkipped.Load(),
		OAsChecked:      r.oasChecked.Load(),
		OAsExisting:     r.oasExisting.Load(),
		OAsNew:          r.oasNew.Load(),
		OAsUploaded:     r.oasUploaded.Load(),
		Failures:        r.failures.Load(),
		TotalBytes:      r.totalBytes.Load(),
		DurationSeconds: time.Since(started).Seconds(),
		Interrupted:     interrupted,
	}
}
