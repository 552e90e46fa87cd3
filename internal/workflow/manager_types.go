package workflow

import (
	"reelsmith/internal/queue"
	"reelsmith/internal/stage"
)

// StageSet bundles the concrete pipeline handlers the manager orchestrates.
type StageSet struct {
	Outliner    stage.Handler
	Scripter    stage.Handler
	Voicer      stage.Handler
	Planner     stage.Handler
	Imager      stage.Handler
	Clipper     stage.Handler
	Composer    stage.Handler
	Thumbnailer stage.Handler
	Packager    stage.Handler
	Uploader    stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

func buildStages(set StageSet) []pipelineStage {
	return []pipelineStage{
		{"outline", set.Outliner, queue.StatusPending, queue.StatusOutlining, queue.StatusOutlined},
		{"script", set.Scripter, queue.StatusOutlined, queue.StatusScripting, queue.StatusScripted},
		{"voice", set.Voicer, queue.StatusScripted, queue.StatusVoicing, queue.StatusVoiced},
		{"plan", set.Planner, queue.StatusVoiced, queue.StatusPlanning, queue.StatusPlanned},
		{"images", set.Imager, queue.StatusPlanned, queue.StatusImaging, queue.StatusImaged},
		{"clip", set.Clipper, queue.StatusImaged, queue.StatusClipping, queue.StatusClipped},
		{"compose", set.Composer, queue.StatusClipped, queue.StatusComposing, queue.StatusComposed},
		{"thumbnail", set.Thumbnailer, queue.StatusComposed, queue.StatusThumbnailing, queue.StatusThumbnailed},
		{"metadata", set.Packager, queue.StatusThumbnailed, queue.StatusPackaging, queue.StatusPackaged},
		{"upload", set.Uploader, queue.StatusPackaged, queue.StatusUploading, queue.StatusCompleted},
	}
}

// StageNames lists the pipeline stages in execution order.
func StageNames() []string {
	stages := buildStages(StageSet{})
	names := make([]string, 0, len(stages))
	for _, stg := range stages {
		names = append(names, stg.name)
	}
	return names
}
