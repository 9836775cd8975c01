package storage

import (
	"fmt"
	"strings"
)

// Key layout for the corpus bucket. The raw-document key convention is the
// basis of the ingested-set index, so format and parse live together here;
// every raw put additionally records the id in object metadata under
// MetadataOAID so identity survives a future key-format change.
const (
	RawOAPrefix       = "raw/oa/"
	JunkPrefix        = "junk/"
	SummaryPrefix     = "logs/daily/"
	CaseSummaryKey    = "case_summary.json"
	MetadataOAID      = "oa-id"
	MetadataRunsStamp = "run-timestamp"
)

// RawOAKey builds the storage key for one raw oral-argument document:
// raw/oa/{oa_id}_{runTimestamp}.json
func RawOAKey(oaID, runTimestamp string) string {
	return fmt.Sprintf("%s%s_%s.json", RawOAPrefix, oaID, runTimestamp)
}

// OAIDFromKey extracts the oa_id component from a raw-document key.
// Returns false for keys outside the raw namespace or without the
// id_timestamp shape.
func OAIDFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, RawOAPrefix) {
		return "", false
	}

	name := key[len(RawOAPrefix):]
	idx := strings.Index(name, "_")
	if idx <= 0 {
		return "", false
	}
	return name[:idx], true
}

// JunkKey builds the storage key for one junk record:
// junk/{term}_{context}_{junkID}.json
func JunkKey(term int, context, junkID string) string {
	return fmt.Sprintf("%s%d_%s_%s.json", JunkPrefix, term, context, junkID)
}

// SummaryKey builds the dated storage key for a run summary:
// logs/daily/{yyyymmdd}/summary_{runTimestamp}.json
// runTimestamp has the form yyyymmdd_hhmmss.
func SummaryKey(runTimestamp string) string {
	datePrefix := runTimestamp
	if idx := strings.Index(runTimestamp, "_"); idx > 0 {
		datePrefix = runTimestamp[:idx]
	}
	return fmt.Sprintf("%s%s/summary_%s.json", SummaryPrefix, datePrefix, runTimestamp)
}
