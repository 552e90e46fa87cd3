// Package uploader publishes the composed video, thumbnail, and metadata to
// YouTube and records the upload receipt.
package uploader
