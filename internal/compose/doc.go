// Package compose assembles the final video: section narration concatenated
// into one track, still images timed to each section, the short clip spliced
// into the timeline, and optional background music mixed underneath.
package compose
