package ingest

import (
	"context"
	"encoding/json"
	"log"

	"scotustician-pipeline/client"
	"scotustician-pipeline/models"
)

// CorpusAPI is the slice of the remote corpus API the ingestion pass uses.
// *client.Oyez satisfies it.
type CorpusAPI interface {
	CasesByTerm(ctx context.Context, term int) ([]json.RawMessage, error)
	CaseFull(ctx context.Context, term int, docketNumber string) (*client.CaseFull, error)
	Document(ctx context.Context, href string) (models.RawDocument, error)
}

// JunkSink records inputs that failed a structural invariant.
type JunkSink interface {
	LogJunk(ctx context.Context, term int, item interface{}, tag string)
}

// Enumerator walks the remote term → case → oral-argument hierarchy and
// produces the work units not yet present in the ingested set.
type Enumerator struct {
	api      CorpusAPI
	junk     JunkSink
	reporter *Reporter
}

// NewEnumerator creates an enumerator.
func NewEnumerator(api CorpusAPI, junk JunkSink, reporter *Reporter) *Enumerator {
	return &Enumerator{api: api, junk: junk, reporter: reporter}
}

// caseSummary is the shape of one entry in a term's case listing.
type caseSummary struct {
	ID           json.Number `json:"ID"`
	DocketNumber string      `json:"docket_number"`
}

// parseCase validates one raw case entry at the boundary. It returns a
// CaseRef, or an empty junk tag name when the entry is malformed.
func parseCase(term int, raw json.RawMessage) (models.CaseRef, string) {
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(raw, &shape); err != nil {
		return models.CaseRef{}, "non_dict_case"
	}

	var cs caseSummary
	if err := json.Unmarshal(raw, &cs); err != nil || cs.DocketNumber == "" {
		return models.CaseRef{}, "missing_docket_number"
	}

	return models.CaseRef{
		Term:         term,
		CaseID:       cs.ID.String(),
		DocketNumber: cs.DocketNumber,
	}, ""
}

// Discover enumerates terms in [startTerm, endTerm) and returns the work
// units whose oa_id is not already in existing. Term-level failures are
// logged and skipped; malformed cases go to the junk sink. Discover checks
// for cancellation at every term, case and unit boundary.
func (e *Enumerator) Discover(ctx context.Context, startTerm, endTerm int, existing map[string]struct{}) []models.WorkUnit {
	var units []models.WorkUnit

	for term := startTerm; term < endTerm; term++ {
		if ctx.Err() != nil {
			return units
		}

		cases, err := e.api.CasesByTerm(ctx, term)
		if err != nil {
			log.Printf("Failed to list cases for term %d: %v", term, err)
			continue
		}
		log.Printf("Found %d cases for term %d", len(cases), term)

		for _, raw := range cases {
			if ctx.Err() != nil {
				return units
			}
			units = append(units, e.discoverCase(ctx, term, raw, existing)...)
		}
	}

	return units
}

func (e *Enumerator) discoverCase(ctx context.Context, term int, raw json.RawMessage, existing map[string]struct{}) []models.WorkUnit {
	e.reporter.CaseSeen()

	caseRef, junkTag := parseCase(term, raw)
	if junkTag != "" {
		e.junk.LogJunk(ctx, term, raw, junkTag)
		e.reporter.CaseSkipped()
		return nil
	}
	e.reporter.CaseWithDocket()

	caseFull, err := e.api.CaseFull(ctx, term, caseRef.DocketNumber)
	if err != nil {
		log.Printf("No full case data for %s (term %d): %v", caseRef.DocketNumber, term, err)
		e.reporter.CaseSkipped()
		return nil
	}

	oaRefs := caseFull.OARefs()
	if len(oaRefs) == 0 {
		return nil
	}
	e.reporter.CaseWithAudio()
	log.Printf("Case %s (term %d) has %d oral argument(s)", caseRef.DocketNumber, term, len(oaRefs))

	var units []models.WorkUnit
	for idx, oa := range oaRefs {
		e.reporter.OAChecked()

		if _, ok := existing[oa.ID]; ok && oa.ID != "" {
			e.reporter.OAExisting()
			continue
		}

		e.reporter.OANew()
		units = append(units, models.WorkUnit{
			Term:    term,
			Case:    caseRef,
			Session: idx,
			OA:      oa,
		})
	}

	return units
}
