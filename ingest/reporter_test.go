package ingest

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReporterSummary(t *testing.T) {
	r := NewReporter()
	r.CaseSeen()
	r.CaseSeen()
	r.CaseWithDocket()
	r.CaseWithAudio()
	r.CaseSkipped()
	r.OAChecked()
	r.OAChecked()
	r.OAExisting()
	r.OANew()
	r.OAUploaded()
	r.Failure()
	r.AddBytes(2048)

	started := time.Now().Add(-2 * time.Second)
	s := r.Summary("20260831_120000", 1980, 2025, started, true)

	assert.Equal(t, "20260831_120000", s.RunTimestamp)
	assert.Equal(t, 1980, s.StartTerm)
	assert.Equal(t, 2025, s.EndTerm)
	assert.Equal(t, int64(2), s.CasesSeen)
	assert.Equal(t, int64(1), s.CasesWithDocket)
	assert.Equal(t, int64(1), s.CasesWithAudio)
	assert.Equal(t, int64(1), s.CasesSkipped)
	assert.Equal(t, int64(2), s.OAsChecked)
	assert.Equal(t, int64(1), s.OAsExisting)
	assert.Equal(t, int64(1), s.OAsNew)
	assert.Equal(t, int64(1), s.OAsUploaded)
	assert.Equal(t, int64(1), s.Failures)
	assert.Equal(t, int64(2048), s.TotalBytes)
	assert.True(t, s.Interrupted)
	assert.Greater(t, s.DurationSeconds, 1.0)
}

func TestReporterConcurrentUse(t *testing.T) {
	r := NewReporter()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.OAUploaded()
			r.Failure()
			r.AddBytes(10)
		}()
	}
	wg.Wait()

	s := r.Summary("ts", 0, 0, time.Now(), false)
	assert.Equal(t, int64(50), s.OAsUploaded)
	assert.Equal(t, int64(50), s.Failures)
	assert.Equal(t, int64(500), s.TotalBytes)
}
