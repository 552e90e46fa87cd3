package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a project item. Every pipeline stage
// owns a processing/done pair; the done status of one stage is the start
// status of the next.
type Status string

const (
	StatusPending      Status = "pending"
	StatusOutlining    Status = "outlining"
	StatusOutlined     Status = "outlined"
	StatusScripting    Status = "scripting"
	StatusScripted     Status = "scripted"
	StatusVoicing      Status = "voicing"
	StatusVoiced       Status = "voiced"
	StatusPlanning     Status = "planning"
	StatusPlanned      Status = "planned"
	StatusImaging      Status = "imaging"
	StatusImaged       Status = "imaged"
	StatusClipping     Status = "clipping"
	StatusClipped      Status = "clipped"
	StatusComposing    Status = "composing"
	StatusComposed     Status = "composed"
	StatusThumbnailing Status = "thumbnailing"
	StatusThumbnailed  Status = "thumbnailed"
	StatusPackaging    Status = "packaging"
	StatusPackaged     Status = "packaged"
	StatusUploading    Status = "uploading"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusReview       Status = "review"
)

var allStatuses = []Status{
	StatusPending,
	StatusOutlining,
	StatusOutlined,
	StatusScripting,
	StatusScripted,
	StatusVoicing,
	StatusVoiced,
	StatusPlanning,
	StatusPlanned,
	StatusImaging,
	StatusImaged,
	StatusClipping,
	StatusClipped,
	StatusComposing,
	StatusComposed,
	StatusThumbnailing,
	StatusThumbnailed,
	StatusPackaging,
	StatusPackaged,
	StatusUploading,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusOutlining:    {},
	StatusScripting:    {},
	StatusVoicing:      {},
	StatusPlanning:     {},
	StatusImaging:      {},
	StatusClipping:     {},
	StatusComposing:    {},
	StatusThumbnailing: {},
	StatusPackaging:    {},
	StatusUploading:    {},
}

type statusTransition struct {
	from Status
	to   Status
}

// stageRollbackTransitions reset an interrupted processing status to the
// upstream done status so a stage re-runs cleanly after a crash.
var stageRollbackTransitions = []statusTransition{
	{from: StatusOutlining, to: StatusPending},
	{from: StatusScripting, to: StatusOutlined},
	{from: StatusVoicing, to: StatusScripted},
	{from: StatusPlanning, to: StatusVoiced},
	{from: StatusImaging, to: StatusPlanned},
	{from: StatusClipping, to: StatusImaged},
	{from: StatusComposing, to: StatusClipped},
	{from: StatusThumbnailing, to: StatusComposed},
	{from: StatusPackaging, to: StatusThumbnailed},
	{from: StatusUploading, to: StatusPackaged},
}

// Item represents a video project persisted in SQLite.
type Item struct {
	ID              int64
	Channel         string
	Title           string
	VideoID         string
	Slug            string
	Status          Status
	OutlineFile     string
	ScriptFile      string
	AudioJSON       string
	PlanFile        string
	ImagesJSON      string
	ClipFile        string
	VideoFile       string
	ThumbnailFile   string
	MetadataFile    string
	ReceiptFile     string
	UploadID        string
	UploadURL       string
	ErrorMessage    string
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	NeedsReview     bool
	ReviewReason    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight stage.
func (i Item) IsProcessing() bool {
	_, ok := processingStatuses[i.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// RollbackStatus maps an in-flight processing status to the upstream done
// status its stage starts from.
func RollbackStatus(status Status) (Status, bool) {
	for _, transition := range stageRollbackTransitions {
		if transition.from == status {
			return transition.to, true
		}
	}
	return "", false
}

// IsTerminal reports whether the item has finished its lifecycle.
func (i Item) IsTerminal() bool {
	switch i.Status {
	case StatusCompleted, StatusFailed, StatusReview:
		return true
	default:
		return false
	}
}

// InitProgress resets progress fields for a new stage.
func (i *Item) InitProgress(stage, message string) {
	if i.ProgressStage == "" {
		i.ProgressStage = stage
	}
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
}

// SetProgress updates all three progress fields together.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// SetFailed marks the item as failed with the given error message. The
// progress stage label is left in place so the failing stage stays visible
// and retries know where to resume.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
}

// SetReview routes the item to manual review with a reason. The progress
// stage label is preserved, same as SetFailed.
func (i *Item) SetReview(reason string) {
	i.Status = StatusReview
	i.NeedsReview = true
	i.ReviewReason = reason
	i.ProgressPercent = 0
	i.ProgressMessage = reason
}
