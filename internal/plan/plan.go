package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// FormatVersion identifies the media plan document format.
const FormatVersion = "MEDIA_PLAN_V1"

// Entry is one visual cue: a short narration snippet anchoring where the
// visual should change, the prompt to render it with, and the resolved
// narration timestamp. Timestamp is nil when the snippet could not be
// located in the transcript.
type Entry struct {
	Identifier  string   `json:"identifier"`
	ImagePrompt string   `json:"image_prompt"`
	Timestamp   *float64 `json:"timestamp"`
}

// HasTimestamp reports whether the entry carries a usable timestamp.
func (e Entry) HasTimestamp() bool {
	return e.Timestamp != nil && !math.IsNaN(*e.Timestamp) && !math.IsInf(*e.Timestamp, 0)
}

// Plan is the persisted media plan document.
type Plan struct {
	VideoTitle string  `json:"video_title"`
	VideoID    string  `json:"video_id"`
	Format     string  `json:"format"`
	Entries    []Entry `json:"entries"`
}

// New builds a plan document in the current format.
func New(videoTitle, videoID string, entries []Entry) Plan {
	return Plan{
		VideoTitle: videoTitle,
		VideoID:    videoID,
		Format:     FormatVersion,
		Entries:    entries,
	}
}

// Parse decodes and validates a stored media plan.
func Parse(data []byte) (Plan, error) {
	var doc Plan
	if err := json.Unmarshal(data, &doc); err != nil {
		return Plan{}, fmt.Errorf("decode media plan: %w", err)
	}
	if doc.Format != FormatVersion {
		return Plan{}, fmt.Errorf("unsupported media plan format %q", doc.Format)
	}
	if strings.TrimSpace(doc.VideoID) == "" {
		return Plan{}, errors.New("media plan is missing a video id")
	}
	if len(doc.Entries) == 0 {
		return Plan{}, errors.New("media plan has no entries")
	}
	return doc, nil
}

// Encode renders the plan as indented JSON for the plan artifact.
func (p Plan) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode media plan: %w", err)
	}
	return append(data, '\n'), nil
}

// ClipPrompt returns the prompt used for the animated short clip: the second
// entry's image prompt.
func (p Plan) ClipPrompt() (string, error) {
	if len(p.Entries) < 2 {
		return "", errors.New("media plan needs at least two entries to pick a clip prompt")
	}
	prompt := strings.TrimSpace(p.Entries[1].ImagePrompt)
	if prompt == "" {
		return "", errors.New("second media plan entry has no image prompt")
	}
	return prompt, nil
}

// NormalizeEntries trims planner output and drops unusable items. Returns an
// error when nothing usable remains.
func NormalizeEntries(entries []Entry) ([]Entry, error) {
	normalized := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		identifier := strings.TrimSpace(entry.Identifier)
		prompt := strings.TrimSpace(entry.ImagePrompt)
		if identifier == "" || prompt == "" {
			continue
		}
		normalized = append(normalized, Entry{Identifier: identifier, ImagePrompt: prompt})
	}
	if len(normalized) == 0 {
		return nil, errors.New("planner returned no usable entries")
	}
	return normalized, nil
}
