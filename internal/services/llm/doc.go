// Package llm wraps the OpenRouter chat completion API used by the outline,
// script, plan, and metadata stages.
//
// The client retries transient failures with exponential backoff, honors
// Retry-After headers, and tolerates the schema quirks some providers exhibit
// (streaming deltas on non-streaming requests, legacy text fields, fenced
// JSON payloads).
package llm
