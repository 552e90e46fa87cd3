package plan

import (
	"strings"
	"testing"
)

func f(value float64) *float64 { return &value }

func TestParseRoundTrip(t *testing.T) {
	doc := New("The Lost Library", "a1b2c3d4", []Entry{
		{Identifier: "greatest library in history never burned", ImagePrompt: "ancient harbor at dawn", Timestamp: f(0)},
		{Identifier: "scholars measured the earth", ImagePrompt: "astronomers with bronze instruments", Timestamp: f(12.5)},
	})

	data, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if parsed.Format != FormatVersion {
		t.Fatalf("unexpected format %q", parsed.Format)
	}
	if parsed.VideoID != "a1b2c3d4" {
		t.Fatalf("unexpected video id %q", parsed.VideoID)
	}
	if len(parsed.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(parsed.Entries))
	}
	if !parsed.Entries[1].HasTimestamp() || *parsed.Entries[1].Timestamp != 12.5 {
		t.Fatalf("second entry timestamp not preserved: %+v", parsed.Entries[1])
	}
}

func TestParseRejectsBadDocuments(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"wrong format", `{"video_title":"t","video_id":"v","format":"MEDIA_PLAN_V0","entries":[{"identifier":"a","image_prompt":"b"}]}`},
		{"missing video id", `{"video_title":"t","format":"MEDIA_PLAN_V1","entries":[{"identifier":"a","image_prompt":"b"}]}`},
		{"no entries", `{"video_title":"t","video_id":"v","format":"MEDIA_PLAN_V1","entries":[]}`},
		{"not json", `plan`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNormalizeEntries(t *testing.T) {
	entries, err := NormalizeEntries([]Entry{
		{Identifier: "  keep this cue  ", ImagePrompt: " a prompt "},
		{Identifier: "", ImagePrompt: "orphan prompt"},
		{Identifier: "orphan cue", ImagePrompt: "   "},
	})
	if err != nil {
		t.Fatalf("NormalizeEntries returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Identifier != "keep this cue" || entries[0].ImagePrompt != "a prompt" {
		t.Fatalf("entry not trimmed: %+v", entries[0])
	}

	if _, err := NormalizeEntries([]Entry{{Identifier: "", ImagePrompt: ""}}); err == nil {
		t.Fatal("expected error when nothing usable remains")
	}
}

func TestClipPrompt(t *testing.T) {
	doc := New("t", "v", []Entry{
		{Identifier: "first", ImagePrompt: "first prompt"},
		{Identifier: "second", ImagePrompt: "  second prompt  "},
	})
	prompt, err := doc.ClipPrompt()
	if err != nil {
		t.Fatalf("ClipPrompt returned error: %v", err)
	}
	if prompt != "second prompt" {
		t.Fatalf("unexpected prompt %q", prompt)
	}

	short := New("t", "v", []Entry{{Identifier: "only", ImagePrompt: "p"}})
	if _, err := short.ClipPrompt(); err == nil {
		t.Fatal("expected error with fewer than two entries")
	}
}

func TestDecodeTranscriptShapes(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"top level chunks with timestamp pair", `{"chunks":[{"text":" Hello","timestamp":[0.0,0.4]},{"text":"world","timestamp":[0.4,0.9]}]}`},
		{"nested output chunks", `{"output":{"chunks":[{"text":"Hello","timestamp":[0.0,0.4]},{"text":"world","timestamp":[0.4,0.9]}]}}`},
		{"start end fields", `{"words":[{"text":"Hello","start":0.0,"end":0.4},{"text":"world","start":0.4,"end":0.9}]}`},
		{"segments fallback", `{"segments":[{"words":[{"word":"Hello","start":0.0,"end":0.4},{"word":"world","start":0.4,"end":0.9}]}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			words, err := DecodeTranscript([]byte(tc.data))
			if err != nil {
				t.Fatalf("DecodeTranscript returned error: %v", err)
			}
			if len(words) != 2 {
				t.Fatalf("expected 2 words, got %d", len(words))
			}
			if words[0].Text != "Hello" || words[0].Start != 0 || words[0].End != 0.4 {
				t.Fatalf("unexpected first word %+v", words[0])
			}
			if words[1].Text != "world" || words[1].Start != 0.4 || words[1].End != 0.9 {
				t.Fatalf("unexpected second word %+v", words[1])
			}
		})
	}
}

func TestDecodeTranscriptStringOutput(t *testing.T) {
	words, err := DecodeTranscript([]byte(`{"output":"plain transcription text"}`))
	if err != nil {
		t.Fatalf("DecodeTranscript returned error: %v", err)
	}
	if len(words) != 0 {
		t.Fatalf("expected no words, got %d", len(words))
	}
}

func TestMergeTimelinesAccumulatesOffsets(t *testing.T) {
	timeline := MergeTimelines([][]Word{
		{{Text: "hook", Start: 0, End: 1.5}},
		nil,
		{{Text: "intro", Start: 0, End: 2}, {Text: "line", Start: 2, End: 3}},
		{{Text: "scene", Start: 0, End: 1}},
	})

	if len(timeline) != 4 {
		t.Fatalf("expected 4 words, got %d", len(timeline))
	}
	if timeline[1].Start != 1.5 || timeline[1].End != 3.5 {
		t.Fatalf("second file not offset: %+v", timeline[1])
	}
	if timeline[2].Start != 3.5 || timeline[2].End != 4.5 {
		t.Fatalf("offset not cumulative: %+v", timeline[2])
	}
	if timeline[3].Start != 4.5 || timeline[3].End != 5.5 {
		t.Fatalf("third file not offset from second file end: %+v", timeline[3])
	}
}

func TestFindTimestampMatchesNormalizedWindow(t *testing.T) {
	words := []Word{
		{Text: "What", Start: 0, End: 0.2},
		{Text: "if", Start: 0.2, End: 0.3},
		{Text: "the", Start: 0.3, End: 0.4},
		{Text: "greatest", Start: 0.4, End: 0.8},
		{Text: "library,", Start: 0.8, End: 1.2},
		{Text: "in", Start: 1.2, End: 1.3},
		{Text: "History", Start: 1.3, End: 1.8},
	}

	start, ok := FindTimestamp("greatest library in history", words)
	if !ok {
		t.Fatal("expected a match despite punctuation and case differences")
	}
	if start != 0.4 {
		t.Fatalf("expected start 0.4, got %v", start)
	}

	if _, ok := FindTimestamp("never spoken words", words); ok {
		t.Fatal("expected no match")
	}
	if _, ok := FindTimestamp("   ", words); ok {
		t.Fatal("expected no match for empty identifier")
	}
}

func TestAttachTimestamps(t *testing.T) {
	words := []Word{
		{Text: "scholars", Start: 10, End: 10.5},
		{Text: "measured", Start: 10.5, End: 11},
		{Text: "the", Start: 11, End: 11.1},
		{Text: "earth", Start: 11.1, End: 11.6},
	}
	entries := []Entry{
		{Identifier: "scholars measured the earth", ImagePrompt: "astronomers"},
		{Identifier: "phrase not in narration", ImagePrompt: "skyline"},
	}

	enriched := AttachTimestamps(entries, words)
	if len(enriched) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(enriched))
	}
	if !enriched[0].HasTimestamp() || *enriched[0].Timestamp != 10 {
		t.Fatalf("first entry timestamp wrong: %+v", enriched[0])
	}
	if enriched[1].Timestamp != nil {
		t.Fatalf("unmatched entry should keep nil timestamp, got %v", *enriched[1].Timestamp)
	}
	if strings.TrimSpace(enriched[1].ImagePrompt) != "skyline" {
		t.Fatalf("prompt not carried through: %+v", enriched[1])
	}
}
