// Package outline generates the structured outline a project's script is
// written from, using the configured language model and the channel's topic
// and style guidance.
package outline
