package plan

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// Word is one transcribed word with absolute narration timestamps in seconds.
type Word struct {
	Text  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type rawChunk struct {
	Text       string    `json:"text"`
	Word       string    `json:"word"`
	Timestamp  []float64 `json:"timestamp"`
	Timestamps []float64 `json:"timestamps"`
	Start      *float64  `json:"start"`
	End        *float64  `json:"end"`
}

type rawSegment struct {
	Words []rawChunk `json:"words"`
}

type rawTranscript struct {
	Output   json.RawMessage `json:"output"`
	Chunks   []rawChunk      `json:"chunks"`
	Words    []rawChunk      `json:"words"`
	Segments []rawSegment    `json:"segments"`
}

// DecodeTranscript extracts word-level timings from a transcription model
// response. The whisper backend has shipped several shapes over time: chunks
// at the top level or nested under output, timestamps as a [start, end] pair
// or as start/end fields, and a segments fallback.
func DecodeTranscript(raw []byte) ([]Word, error) {
	var doc rawTranscript
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}

	var nested rawTranscript
	if len(doc.Output) > 0 {
		// output may also be a bare string; ignore it in that case.
		_ = json.Unmarshal(doc.Output, &nested)
	}

	chunks := doc.Chunks
	if len(chunks) == 0 {
		chunks = nested.Chunks
	}
	if len(chunks) == 0 {
		chunks = doc.Words
	}
	if words := chunkWords(chunks); len(words) > 0 {
		return words, nil
	}

	segments := doc.Segments
	if len(segments) == 0 {
		segments = nested.Segments
	}
	var words []Word
	for _, segment := range segments {
		words = append(words, chunkWords(segment.Words)...)
	}
	return words, nil
}

func chunkWords(chunks []rawChunk) []Word {
	words := make([]Word, 0, len(chunks))
	for _, chunk := range chunks {
		text := strings.TrimSpace(chunk.Text)
		if text == "" {
			text = strings.TrimSpace(chunk.Word)
		}
		if text == "" {
			continue
		}

		var start, end float64
		timestamp := chunk.Timestamp
		if len(timestamp) < 2 {
			timestamp = chunk.Timestamps
		}
		if len(timestamp) >= 2 {
			start, end = timestamp[0], timestamp[1]
		} else {
			if chunk.Start != nil {
				start = *chunk.Start
			}
			end = start
			if chunk.End != nil {
				end = *chunk.End
			}
		}
		words = append(words, Word{Text: text, Start: start, End: end})
	}
	return words
}

// MergeTimelines concatenates per-file transcripts into one timeline. Each
// file's words are shifted by the running offset, which advances to the last
// word's end so the next file's timings continue where this one stopped.
func MergeTimelines(perFile [][]Word) []Word {
	var timeline []Word
	offset := 0.0
	for _, words := range perFile {
		for _, word := range words {
			timeline = append(timeline, Word{
				Text:  word.Text,
				Start: offset + word.Start,
				End:   offset + word.End,
			})
		}
		if len(words) > 0 {
			offset = timeline[len(timeline)-1].End
		}
	}
	return timeline
}

// FindTimestamp locates an identifier snippet in the transcript by sliding a
// normalized token window over the words. Returns the start time of the first
// matching word.
func FindTimestamp(identifier string, words []Word) (float64, bool) {
	var tokens []string
	for _, token := range strings.Fields(identifier) {
		if normalized := normalizeToken(token); normalized != "" {
			tokens = append(tokens, normalized)
		}
	}
	if len(tokens) == 0 {
		return 0, false
	}

	normalized := make([]string, len(words))
	for i, word := range words {
		normalized[i] = normalizeToken(word.Text)
	}

	for idx := 0; idx+len(tokens) <= len(normalized); idx++ {
		match := true
		for j, token := range tokens {
			if normalized[idx+j] != token {
				match = false
				break
			}
		}
		if match {
			return words[idx].Start, true
		}
	}
	return 0, false
}

// AttachTimestamps resolves each entry's identifier against the transcript
// and returns entries with timestamps filled in where a match was found.
func AttachTimestamps(entries []Entry, words []Word) []Entry {
	enriched := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		resolved := Entry{Identifier: entry.Identifier, ImagePrompt: entry.ImagePrompt}
		if start, ok := FindTimestamp(entry.Identifier, words); ok {
			resolved.Timestamp = &start
		}
		enriched = append(enriched, resolved)
	}
	return enriched
}

func normalizeToken(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
