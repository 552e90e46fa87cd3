package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/stage"
	"reelsmith/internal/stageexec"
)

// Manager coordinates pipeline execution for project items.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	notifier     notifications.Service
	stages       []pipelineStage
	stageByStart map[queue.Status]pipelineStage
	stageByName  map[string]pipelineStage
}

// NewManager constructs a workflow manager with the default notifier.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger, set StageSet) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg), set)
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier
// (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service, set StageSet) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	stages := buildStages(set)
	byStart := make(map[queue.Status]pipelineStage, len(stages))
	byName := make(map[string]pipelineStage, len(stages))
	for _, stg := range stages {
		byStart[stg.startStatus] = stg
		byName[stg.name] = stg
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		notifier:     notifier,
		stages:       stages,
		stageByStart: byStart,
		stageByName:  byName,
	}
}

// RunAll walks the item from its recorded status to completion, stopping on
// the first stage failure or review routing.
func (m *Manager) RunAll(ctx context.Context, item *queue.Item) error {
	if item == nil {
		return fmt.Errorf("project item is required")
	}

	if m.notifier != nil && item.Status == queue.StatusPending {
		if err := m.notifier.NotifyProjectStarted(ctx, item.Channel, item.Title); err != nil {
			m.logger.Debug("project start notification failed", logging.Error(err))
		}
	}

	for {
		if item.IsTerminal() {
			break
		}
		stg, ok := m.stageByStart[item.Status]
		if !ok {
			return fmt.Errorf("no stage accepts status %q", item.Status)
		}
		if err := m.runStage(ctx, stg, item); err != nil {
			return err
		}
		m.notifyMilestone(ctx, item)
	}
	return nil
}

// RunStage re-runs a single named stage regardless of the item's recorded
// status, resetting the item to the stage's start status first. Artifacts
// written by later stages are left in place and overwritten when those
// stages run again.
func (m *Manager) RunStage(ctx context.Context, item *queue.Item, stageName string) error {
	if item == nil {
		return fmt.Errorf("project item is required")
	}
	stg, ok := m.stageByName[strings.ToLower(strings.TrimSpace(stageName))]
	if !ok {
		return fmt.Errorf("unknown stage %q (expected one of %s)", stageName, strings.Join(StageNames(), ", "))
	}

	item.Status = stg.startStatus
	item.NeedsReview = false
	item.ReviewReason = ""
	item.ErrorMessage = ""
	if err := m.store.Update(ctx, item); err != nil {
		return fmt.Errorf("persist stage reset: %w", err)
	}

	if err := m.runStage(ctx, stg, item); err != nil {
		return err
	}
	m.notifyMilestone(ctx, item)
	return nil
}

func (m *Manager) runStage(ctx context.Context, stg pipelineStage, item *queue.Item) error {
	if stg.handler == nil {
		return fmt.Errorf("stage %s has no handler", stg.name)
	}

	stageCtx := services.WithItemID(ctx, item.ID)
	stageCtx = services.WithChannel(stageCtx, item.Channel)
	stageCtx = services.WithRequestID(stageCtx, uuid.NewString())

	return stageexec.Run(stageCtx, stageexec.Options{
		Logger:     m.logger,
		Store:      m.store,
		Notifier:   m.notifier,
		Handler:    stg.handler,
		StageName:  stg.name,
		Processing: stg.processingStatus,
		Done:       stg.doneStatus,
		Item:       item,
	})
}

func (m *Manager) notifyMilestone(ctx context.Context, item *queue.Item) {
	if m.notifier == nil {
		return
	}
	var err error
	switch item.Status {
	case queue.StatusScripted:
		err = m.notifier.NotifyScriptReady(ctx, item.Title)
	case queue.StatusComposed:
		err = m.notifier.NotifyVideoComposed(ctx, item.Title)
	case queue.StatusCompleted:
		err = m.notifier.NotifyUploadCompleted(ctx, item.Title, item.UploadURL)
	default:
		return
	}
	if err != nil {
		m.logger.Debug("milestone notification failed", logging.Error(err))
	}
}

// Health reports the readiness of every configured stage handler.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	results := make([]stage.Health, 0, len(m.stages))
	for _, stg := range m.stages {
		if stg.handler == nil {
			results = append(results, stage.Unhealthy(stg.name, "no handler configured"))
			continue
		}
		results = append(results, stg.handler.HealthCheck(ctx))
	}
	return results
}
