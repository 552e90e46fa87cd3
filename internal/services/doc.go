// Package services provides shared helpers for the external-service clients:
// sentinel error markers used to classify stage failures, an error wrapper
// that carries stage context, and context annotation helpers for structured
// logging correlation.
package services
