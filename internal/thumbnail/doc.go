// Package thumbnail renders the video's thumbnail image from the project
// title with dedicated thumbnail style guidance.
package thumbnail
