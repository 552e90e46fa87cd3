// Package workspace manages the per-channel working folders that hold stage
// artifacts. Every project gets a directory named from the slugged title and
// video id; each stage writes exactly one artifact (or artifact set) under a
// predictable name. All writes go through atomic write-then-rename so a
// failed stage never leaves a partial artifact at the final path.
package workspace
