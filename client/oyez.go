package client

import (
	"context"
	"encoding/json"
	"fmt"

	"scotustician-pipeline/models"
)

const apiBase = "https://api.oyez.org"

// CaseFull is the subset of the full case record the pipeline reads.
type CaseFull struct {
	OralArgumentAudio []oaAudio `json:"oral_argument_audio"`
}

type oaAudio struct {
	ID   json.Number `json:"id"`
	Href string      `json:"href"`
}

// OARefs converts the audio list to validated-shape references. Entries
// keep whatever id/href they carry; presence is checked at dispatch time.
func (c *CaseFull) OARefs() []models.OARef {
	refs := make([]models.OARef, 0, len(c.OralArgumentAudio))
	for _, oa := range c.OralArgumentAudio {
		refs = append(refs, models.OARef{ID: oa.ID.String(), Href: oa.Href})
	}
	return refs
}

// Oyez wraps the rate-limited client with the corpus endpoints.
type Oyez struct {
	client *Client
	base   string
}

// NewOyez creates an Oyez API wrapper over the given client.
func NewOyez(c *Client) *Oyez {
	return &Oyez{client: c, base: apiBase}
}

// NewOyezWithBase creates a wrapper pointed at an alternate base URL.
func NewOyezWithBase(c *Client, base string) *Oyez {
	return &Oyez{client: c, base: base}
}

// CasesByTerm returns the raw case entries for one term. A response that is
// not a JSON array is an error; the caller logs it and skips the term.
func (o *Oyez) CasesByTerm(ctx context.Context, term int) ([]json.RawMessage, error) {
	body, err := o.client.Fetch(ctx, fmt.Sprintf("%s/cases?per_page=0&filter=term:%d", o.base, term))
	if err != nil {
		return nil, err
	}

	var cases []json.RawMessage
	if err := json.Unmarshal(body, &cases); err != nil {
		return nil, fmt.Errorf("expected list of cases for term %d: %w", term, err)
	}
	return cases, nil
}

// CaseFull fetches the full case record for one docket.
func (o *Oyez) CaseFull(ctx context.Context, term int, docketNumber string) (*CaseFull, error) {
	body, err := o.client.Fetch(ctx, fmt.Sprintf("%s/cases/%d/%s", o.base, term, docketNumber))
	if err != nil {
		return nil, err
	}

	var cf CaseFull
	if err := json.Unmarshal(body, &cf); err != nil {
		return nil, fmt.Errorf("failed to decode case %d/%s: %w", term, docketNumber, err)
	}
	return &cf, nil
}

// Document fetches an arbitrary corpus document (an oral-argument
// transcript) by href.
func (o *Oyez) Document(ctx context.Context, href string) (models.RawDocument, error) {
	body, err := o.client.Fetch(ctx, href)
	if err != nil {
		return nil, err
	}

	var doc models.RawDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", href, err)
	}
	return doc, nil
}

// CaseSummaryRaw fetches the corpus-wide case summary listing as raw bytes.
func (o *Oyez) CaseSummaryRaw(ctx context.Context) ([]byte, error) {
	return o.client.Fetch(ctx, o.base+"/cases?per_page=0")
}

// CasesByTermRaw fetches one term's case listing as raw bytes. Used by the
// read-through API handlers.
func (o *Oyez) CasesByTermRaw(ctx context.Context, term int) ([]byte, error) {
	return o.client.Fetch(ctx, fmt.Sprintf("%s/cases?per_page=0&filter=term:%d", o.base, term))
}

// CaseFullRaw fetches one full case record as raw bytes.
func (o *Oyez) CaseFullRaw(ctx context.Context, term int, docketNumber string) ([]byte, error) {
	return o.client.Fetch(ctx, fmt.Sprintf("%s/cases/%d/%s", o.base, term, docketNumber))
}
