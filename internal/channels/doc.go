// Package channels loads the channel registry: each channel is a named
// video-production target with its topic focus, voice, style guidance, and
// upload preferences. Channels are declared in a YAML file and resolved by
// name when a pipeline run starts.
package channels
