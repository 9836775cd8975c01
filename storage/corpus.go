package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"scotustician-pipeline/models"
)

// maxJunkItemLen bounds the snapshot stored with a junk record so that a
// pathological input cannot blow up the side channel.
const maxJunkItemLen = 10000

// CorpusStore wraps an ObjectStore with the corpus key layout: raw
// documents, the ingested-set index, the junk side channel and run
// summaries.
type CorpusStore struct {
	store ObjectStore
}

// NewCorpusStore creates a corpus store over the given object store.
func NewCorpusStore(store ObjectStore) *CorpusStore {
	return &CorpusStore{store: store}
}

// PutRawDocument stores one serialized oral-argument document under the raw
// namespace and returns the key it was written to. The oa_id is also
// recorded as object metadata.
func (c *CorpusStore) PutRawDocument(ctx context.Context, oaID, runTimestamp string, body []byte) (string, error) {
	key := RawOAKey(oaID, runTimestamp)

	metadata := map[string]string{
		MetadataOAID:      oaID,
		MetadataRunsStamp: runTimestamp,
	}
	if err := c.store.Put(ctx, key, body, metadata); err != nil {
		return "", fmt.Errorf("failed to store raw document %s: %w", oaID, err)
	}

	return key, nil
}

// GetRawDocument retrieves a stored raw document by key.
func (c *CorpusStore) GetRawDocument(ctx context.Context, key string) ([]byte, error) {
	return c.store.Get(ctx, key)
}

// ListRawKeys returns every key in the raw namespace.
func (c *CorpusStore) ListRawKeys(ctx context.Context) ([]string, error) {
	return c.store.List(ctx, RawOAPrefix)
}

// ExistingOAIDs reconstructs the set of already-ingested oral-argument ids
// from the raw namespace listing. An id in this set is never re-fetched;
// re-ingestion requires deleting the stored object first.
func (c *CorpusStore) ExistingOAIDs(ctx context.Context) (map[string]struct{}, error) {
	keys, err := c.store.List(ctx, RawOAPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing oral arguments: %w", err)
	}

	existing := make(map[string]struct{})
	for _, key := range keys {
		if oaID, ok := OAIDFromKey(key); ok {
			existing[oaID] = struct{}{}
		}
	}

	log.Printf("Found %d existing oral arguments in storage", len(existing))
	return existing, nil
}

// LogJunk appends a junk record for an input that failed a structural
// invariant. Failures to write junk are logged, never escalated.
func (c *CorpusStore) LogJunk(ctx context.Context, term int, item interface{}, tag string) {
	snapshot := junkSnapshot(item)

	rec := models.JunkRecord{
		JunkID:   uuid.New().String(),
		Term:     term,
		Context:  tag,
		Item:     snapshot,
		LoggedAt: time.Now().UTC(),
	}

	body, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		log.Printf("Failed to marshal junk record: %v", err)
		return
	}

	key := JunkKey(term, tag, rec.JunkID)
	if err := c.store.Put(ctx, key, body, nil); err != nil {
		log.Printf("Failed to log junk: %v", err)
		return
	}

	log.Printf("Logged junk data: %s for term %d", tag, term)
}

// PutSummary persists a per-run summary under the dated log namespace.
func (c *CorpusStore) PutSummary(ctx context.Context, runTimestamp string, summary interface{}) error {
	body, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	key := SummaryKey(runTimestamp)
	if err := c.store.Put(ctx, key, body, nil); err != nil {
		return fmt.Errorf("failed to upload summary: %w", err)
	}

	return nil
}

// PutCaseSummary stores the corpus-wide case summary listing.
func (c *CorpusStore) PutCaseSummary(ctx context.Context, body []byte) error {
	if err := c.store.Put(ctx, CaseSummaryKey, body, nil); err != nil {
		return fmt.Errorf("failed to store case summary: %w", err)
	}
	return nil
}

func junkSnapshot(item interface{}) string {
	var s string
	switch v := item.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case json.RawMessage:
		s = string(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			s = fmt.Sprintf("%v", v)
		} else {
			s = string(b)
		}
	}

	if len(s) > maxJunkItemLen {
		s = s[:maxJunkItemLen]
	}
	return s
}
