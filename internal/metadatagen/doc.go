// Package metadatagen produces the upload metadata record: title,
// description, and tags, with the title always forced back to the exact
// project title.
package metadatagen
