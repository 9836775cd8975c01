package transform

import (
	"fmt"
	"strings"

	"scotustician-pipeline/models"
)

// ChunkTokenBudget is the maximum token count embedded per section chunk.
// Chunks over budget are truncated at token granularity before embedding.
const ChunkTokenBudget = 8000

// BuildSectionChunks groups kept utterances by their originating transcript
// section and assembles one chunk per non-empty section. Chunk text is the
// "{speaker}: {text}" rendering of the section's utterances in order.
// Embedding fields are filled in later by the embedding stage.
func BuildSectionChunks(doc *NormalizedDocument, tok Tokenizer) []models.SectionChunk {
	bySection := make(map[int][]models.Utterance)
	var order []int
	for _, utt := range doc.Utterances {
		if _, seen := bySection[utt.SectionIndex]; !seen {
			order = append(order, utt.SectionIndex)
		}
		bySection[utt.SectionIndex] = append(bySection[utt.SectionIndex], utt)
	}

	chunks := make([]models.SectionChunk, 0, len(order))
	for _, si := range order {
		utts := bySection[si]

		lines := make([]string, len(utts))
		for i, utt := range utts {
			lines[i] = fmt.Sprintf("%s: %s", utt.SpeakerName, utt.Text)
		}
		text := strings.Join(lines, "\n")

		tokenCount := tok.Count(text)
		if tokenCount > ChunkTokenBudget {
			text = tok.Truncate(text, ChunkTokenBudget)
			tokenCount = tok.Count(text)
		}

		chunks = append(chunks, models.SectionChunk{
			CaseID:              doc.CaseID,
			OAID:                doc.OAID,
			SectionID:           si,
			ChunkText:           text,
			WordCount:           len(strings.Fields(text)),
			TokenCount:          tokenCount,
			StartUtteranceIndex: utts[0].UtteranceIndex,
			EndUtteranceIndex:   utts[len(utts)-1].UtteranceIndex,
		})
	}

	return chunks
}
