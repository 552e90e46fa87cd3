// Package workflow sequences the content pipeline stages for a project.
//
// The manager walks a project item through the ordered stage list, delegating
// each transition to stageexec.Run so status changes are persisted before and
// after every stage. Runs are one-shot: a failed or review-routed item stops
// the walk and a later invocation resumes from the recorded status.
package workflow
