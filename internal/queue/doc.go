// Package queue persists the run state of video projects in SQLite. Each
// project item walks a linear status lifecycle, one processing/done pair per
// pipeline stage; the store is the authoritative record of which stages have
// produced artifacts, replacing artifact-presence checks on disk.
package queue
