// Package voiceover synthesizes one narration audio file per script section
// through the generative-media backend's speech model.
package voiceover
