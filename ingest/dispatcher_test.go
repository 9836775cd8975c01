package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scotustician-pipeline/models"
)

func testStart() time.Time {
	return time.Now().Add(-time.Second)
}

// fakeRawStore records stored documents.
type fakeRawStore struct {
	mu     sync.Mutex
	stored map[string][]byte
	err    error
}

func newFakeRawStore() *fakeRawStore {
	return &fakeRawStore{stored: make(map[string][]byte)}
}

func (f *fakeRawStore) PutRawDocument(ctx context.Context, oaID, runTimestamp string, body []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := "raw/oa/" + oaID + "_" + runTimestamp + ".json"
	f.stored[key] = body
	return key, nil
}

func unit(term int, oaID, href string) models.WorkUnit {
	return models.WorkUnit{
		Term: term,
		Case: models.CaseRef{
			Term:         term,
			CaseID:       "10",
			DocketNumber: "17-1618",
		},
		Session: 0,
		OA:      models.OARef{ID: oaID, Href: href},
	}
}

func TestDispatcherUploadsAndEnriches(t *testing.T) {
	api := &fakeAPI{
		documents: map[string]models.RawDocument{
			"https://example.org/oa/25236": {"id": float64(25236), "title": "argument"},
		},
	}
	store := newFakeRawStore()
	reporter := NewReporter()

	d, err := NewDispatcher(api, store, reporter, 2)
	require.NoError(t, err)
	defer d.Release()

	d.Run(context.Background(), []models.WorkUnit{unit(2019, "25236", "https://example.org/oa/25236")}, "ts")

	require.Len(t, store.stored, 1)
	body := store.stored["raw/oa/25236_ts.json"]
	require.NotNil(t, body)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.Equal(t, float64(2019), doc["term"])
	assert.Equal(t, "10", doc["case_id"])
	assert.Equal(t, "17-1618", doc["docket_number"])
	assert.Equal(t, float64(0), doc["session"])
	assert.NotEmpty(t, doc["fetched_at"])

	summary := reporter.Summary("ts", 2019, 2020, testStart(), false)
	assert.Equal(t, int64(1), summary.OAsUploaded)
	assert.Equal(t, int64(0), summary.Failures)
	assert.Greater(t, summary.TotalBytes, int64(0))
}

func TestDispatcherIsolatesItemFailures(t *testing.T) {
	api := &fakeAPI{
		documents: map[string]models.RawDocument{
			"https://example.org/oa/1": {"id": float64(1)},
		},
		docErrs: map[string]error{
			"https://example.org/oa/2": errors.New("fetch failed"),
		},
	}
	store := newFakeRawStore()
	reporter := NewReporter()

	d, err := NewDispatcher(api, store, reporter, 2)
	require.NoError(t, err)
	defer d.Release()

	units := []models.WorkUnit{
		unit(2019, "1", "https://example.org/oa/1"),
		unit(2019, "2", "https://example.org/oa/2"),
		unit(2019, "", ""), // malformed entry
	}
	d.Run(context.Background(), units, "ts")

	assert.Len(t, store.stored, 1)
	assert.Equal(t, int64(2), reporter.Failures())
}

func TestDispatcherDryRunWritesNothing(t *testing.T) {
	api := &fakeAPI{
		documents: map[string]models.RawDocument{
			"https://example.org/oa/1": {"id": float64(1)},
		},
	}
	store := newFakeRawStore()
	reporter := NewReporter()

	d, err := NewDispatcher(api, store, reporter, 1, WithDryRun(true))
	require.NoError(t, err)
	defer d.Release()

	d.Run(context.Background(), []models.WorkUnit{unit(2019, "1", "https://example.org/oa/1")}, "ts")

	assert.Empty(t, store.stored)
	summary := reporter.Summary("ts", 2019, 2020, testStart(), false)
	assert.Equal(t, int64(1), summary.OAsUploaded)
}

func TestDispatcherDropsPendingOnCancellation(t *testing.T) {
	api := &fakeAPI{
		documents: map[string]models.RawDocument{
			"https://example.org/oa/1": {"id": float64(1)},
		},
	}
	store := newFakeRawStore()
	reporter := NewReporter()

	d, err := NewDispatcher(api, store, reporter, 1, WithGracePeriod(100*time.Millisecond))
	require.NoError(t, err)
	defer d.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	units := []models.WorkUnit{
		unit(2019, "1", "https://example.org/oa/1"),
		unit(2019, "2", "https://example.org/oa/2"),
	}
	d.Run(ctx, units, "ts")

	assert.Empty(t, store.stored, "cancelled run must not write")
}
