// Package ffmpeg shells out to ffmpeg and ffprobe for audio concatenation,
// duration probing, and final video assembly.
//
// Command construction is kept in pure helpers so tests can assert the exact
// argument lists without spawning processes; the package-level commandContext
// hook lets tests substitute the executed binary entirely.
package ffmpeg
