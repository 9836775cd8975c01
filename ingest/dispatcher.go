package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"scotustician-pipeline/models"
)

// RawStore is the slice of the corpus store the dispatcher writes to.
type RawStore interface {
	PutRawDocument(ctx context.Context, oaID, runTimestamp string, body []byte) (string, error)
}

const (
	// DefaultWorkers is the default worker pool size.
	DefaultWorkers = 8
	// DefaultGracePeriod bounds the wait for in-flight workers on shutdown.
	DefaultGracePeriod = 30 * time.Second
)

// Dispatcher fetches, enriches and persists work units on a fixed-size
// worker pool. Item-level failures are counted and never abort sibling
// workers.
type Dispatcher struct {
	api      CorpusAPI
	store    RawStore
	reporter *Reporter
	pool     *ants.Pool
	grace    time.Duration
	dryRun   bool
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithGracePeriod sets the shutdown grace period.
func WithGracePeriod(d time.Duration) DispatcherOption {
	return func(dp *Dispatcher) { dp.grace = d }
}

// WithDryRun logs would-be uploads instead of writing them.
func WithDryRun(dryRun bool) DispatcherOption {
	return func(dp *Dispatcher) { dp.dryRun = dryRun }
}

// NewDispatcher creates a dispatcher with the given pool size.
func NewDispatcher(api CorpusAPI, store RawStore, reporter *Reporter, workers int, opts ...DispatcherOption) (*Dispatcher, error) {
	if workers < 1 {
		workers = DefaultWorkers
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	d := &Dispatcher{
		api:      api,
		store:    store,
		reporter: reporter,
		pool:     pool,
		grace:    DefaultGracePeriod,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run dispatches all work units to the pool and waits for completion. When
// the context is cancelled mid-run, not-yet-started units are dropped and
// in-flight workers get at most the grace period to finish.
func (d *Dispatcher) Run(ctx context.Context, units []models.WorkUnit, runTimestamp string) {
	log.Printf("Dispatching %d oral argument task(s) to worker pool", len(units))

	var wg sync.WaitGroup

	for _, unit := range units {
		if ctx.Err() != nil {
			log.Printf("Shutdown requested, dropping remaining tasks")
			break
		}

		unit := unit
		wg.Add(1)
		err := d.pool.Submit(func() {
			defer wg.Done()
			d.process(ctx, unit, runTimestamp)
		})
		if err != nil {
			wg.Done()
			d.reporter.Failure()
			log.Printf("Failed to submit task for OA %s: %v", unit.OA.ID, err)
		}
	}

	d.wait(ctx, &wg)
}

// wait blocks until all submitted work finishes, bounded by the grace
// period once shutdown has been requested.
func (d *Dispatcher) wait(ctx context.Context, wg *sync.WaitGroup) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-ctx.Done():
	}

	select {
	case <-done:
	case <-time.After(d.grace):
		log.Printf("Grace period expired with workers still in flight")
	}
}

// Release tears down the worker pool. The dispatcher must not be used
// after calling Release.
func (d *Dispatcher) Release() {
	d.pool.Release()
}

func (d *Dispatcher) process(ctx context.Context, unit models.WorkUnit, runTimestamp string) {
	if ctx.Err() != nil {
		return
	}

	if unit.OA.ID == "" || unit.OA.Href == "" {
		log.Printf("Skipping malformed OA entry for case %s (term %d)", unit.Case.DocketNumber, unit.Term)
		d.reporter.Failure()
		return
	}

	started := time.Now()

	doc, err := d.api.Document(ctx, unit.OA.Href)
	if err != nil {
		log.Printf("No data for OA %s (term %d, docket %s): %v", unit.OA.ID, unit.Term, unit.Case.DocketNumber, err)
		d.reporter.Failure()
		return
	}

	doc["term"] = unit.Term
	doc["case_id"] = unit.Case.CaseID
	doc["docket_number"] = unit.Case.DocketNumber
	doc["session"] = unit.Session
	doc["fetched_at"] = time.Now().UTC().Format(time.RFC3339)

	body, err := json.Marshal(doc)
	if err != nil {
		log.Printf("Failed to serialize OA %s: %v", unit.OA.ID, err)
		d.reporter.Failure()
		return
	}

	sizeMB := float64(len(body)) / (1024 * 1024)

	if d.dryRun {
		log.Printf("[DRY-RUN] Would upload OA %s | Size: %.2f MB", unit.OA.ID, sizeMB)
		d.reporter.OAUploaded()
		d.reporter.AddBytes(int64(len(body)))
		return
	}

	if ctx.Err() != nil {
		return
	}

	key, err := d.store.PutRawDocument(ctx, unit.OA.ID, runTimestamp, body)
	if err != nil {
		log.Printf("Failed to store OA %s: %v", unit.OA.ID, err)
		d.reporter.Failure()
		return
	}

	d.reporter.OAUploaded()
	d.reporter.AddBytes(int64(len(body)))
	log.Printf("Uploaded: %s | %.2f MB | %.2fs", key, sizeMB, time.Since(started).Seconds())
}
