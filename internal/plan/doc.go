// Package plan models the media plan document that maps narration cues to
// image prompts and timestamps, and the word-level transcript timeline the
// timestamps are resolved against.
package plan
