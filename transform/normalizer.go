package transform

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"scotustician-pipeline/models"
)

// ErrMalformedTranscript marks a document without a usable
// transcript.sections array. The caller routes the original bytes to the
// junk sink and moves on; the error never crosses the work-unit boundary.
var ErrMalformedTranscript = errors.New("transcript missing sections")

// minUtteranceWords is the noise filter: utterances shorter than this are
// dropped before indices are assigned, so kept utterances are densely
// numbered.
const minUtteranceWords = 4

// NormalizedDocument is the ordered utterance view of one raw document.
type NormalizedDocument struct {
	CaseID       string
	OAID         string
	SectionCount int
	Utterances   []models.Utterance
}

// Normalize converts one raw oral-argument document into its ordered
// utterance sequence. It walks sections → turns → text blocks in document
// order, assigning dense utterance indices and running character offsets
// over the kept text (utterances joined by a single newline). The result
// is a pure function of the document, so re-normalizing an unchanged
// document yields identical indices and offsets.
func Normalize(doc models.RawDocument, tok Tokenizer) (*NormalizedDocument, error) {
	caseID := jsonString(doc["case_id"])
	oaID := jsonString(doc["id"])

	transcript, ok := doc["transcript"].(map[string]interface{})
	if !ok {
		return nil, ErrMalformedTranscript
	}
	sections, ok := transcript["sections"].([]interface{})
	if !ok || len(sections) == 0 {
		return nil, ErrMalformedTranscript
	}

	nd := &NormalizedDocument{
		CaseID:       caseID,
		OAID:         oaID,
		SectionCount: len(sections),
	}

	index := 0
	offset := 0

	for si, rawSection := range sections {
		section, ok := rawSection.(map[string]interface{})
		if !ok {
			continue
		}
		turns, _ := section["turns"].([]interface{})

		for _, rawTurn := range turns {
			turn, ok := rawTurn.(map[string]interface{})
			if !ok {
				continue
			}

			speakerName, speakerID := speakerOf(turn)

			blocks, _ := turn["text_blocks"].([]interface{})
			for _, rawBlock := range blocks {
				block, ok := rawBlock.(map[string]interface{})
				if !ok {
					continue
				}
				text, _ := block["text"].(string)

				words := strings.Fields(text)
				if len(words) < minUtteranceWords {
					continue
				}

				utt := models.Utterance{
					CaseID:         caseID,
					OAID:           oaID,
					UtteranceIndex: index,
					SpeakerID:      speakerID,
					SpeakerName:    speakerName,
					Text:           text,
					WordCount:      len(words),
					TokenCount:     tok.Count(text),
					CharStart:      offset,
					CharEnd:        offset + len(text),
					StartMs:        timestampMs(block["start"]),
					EndMs:          timestampMs(block["stop"]),
					SectionIndex:   si,
				}

				nd.Utterances = append(nd.Utterances, utt)
				index++
				offset = utt.CharEnd + 1
			}
		}
	}

	return nd, nil
}

// speakerOf extracts the speaker name and identifier from a turn. Turns
// without a speaker are attributed to "None", matching the corpus
// convention for unattributed text.
func speakerOf(turn map[string]interface{}) (name, id string) {
	speaker, ok := turn["speaker"].(map[string]interface{})
	if !ok {
		return "None", ""
	}

	if n, ok := speaker["name"].(string); ok && n != "" {
		name = n
	} else {
		name = "None"
	}

	if ident, ok := speaker["identifier"].(string); ok && ident != "" {
		id = ident
	} else {
		id = jsonString(speaker["ID"])
	}
	return name, id
}

// timestampMs converts a seconds value from the transcript into integer
// milliseconds. Returns nil when the field is absent or non-numeric.
func timestampMs(v interface{}) *int64 {
	var seconds float64
	switch n := v.(type) {
	case float64:
		seconds = n
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil
		}
		seconds = f
	default:
		return nil
	}

	ms := int64(seconds * 1000)
	return &ms
}

// jsonString renders a decoded JSON scalar as its canonical string form.
func jsonString(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case json.Number:
		return n.String()
	case float64:
		// Ids decode as float64; render without a fractional part when whole.
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%g", n)
	default:
		return fmt.Sprintf("%v", n)
	}
}
