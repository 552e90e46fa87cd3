// Command reelsmith drives the content pipeline: it creates video projects,
// runs them stage by stage to a published upload, and reports on their
// progress.
package main
