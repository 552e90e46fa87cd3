// Package replicate wraps the Replicate predictions API used by the voice,
// plan, images, clip, and thumbnail stages.
//
// Predictions are created against a model path (owner/name, optionally
// pinned to a version after a colon) and polled until they reach a terminal
// status. Output payloads vary by model: media models return file URLs,
// transcription models return structured JSON, so the Prediction type keeps
// the raw output and offers typed accessors.
package replicate
