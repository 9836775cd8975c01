package models

// Utterance is one speaker utterance extracted from a transcript, in
// document order. UtteranceIndex is dense over kept utterances (the
// sub-4-word noise filter runs before indices are assigned) so that
// re-normalizing an unchanged document reproduces identical indices.
type Utterance struct {
	CaseID         string `json:"case_id"`
	OAID           string `json:"oa_id"`
	UtteranceIndex int    `json:"utterance_index"`
	SpeakerID      string `json:"speaker_id"`
	SpeakerName    string `json:"speaker_name"`
	Text           string `json:"text"`
	WordCount      int    `json:"word_count"`
	TokenCount     int    `json:"token_count"`
	CharStart      int    `json:"char_start_offset"`
	CharEnd        int    `json:"char_end_offset"`
	StartMs        *int64 `json:"start_time_ms,omitempty"`
	EndMs          *int64 `json:"end_time_ms,omitempty"`

	// SectionIndex is the ordinal of the transcript section this utterance
	// came from. Used for section-level chunk grouping; not persisted.
	SectionIndex int `json:"-"`
}
