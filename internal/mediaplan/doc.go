// Package mediaplan builds the media plan artifact: the language model
// proposes narration cues with image prompts, and word-level transcription of
// the narration audio anchors each cue to a timeline timestamp.
package mediaplan
