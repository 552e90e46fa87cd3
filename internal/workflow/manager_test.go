package workflow_test

import (
	"context"
	"errors"
	"testing"

	"reelsmith/internal/logging"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/stage"
	"reelsmith/internal/testsupport"
	"reelsmith/internal/workflow"
)

type stubStage struct {
	name        string
	prepareHook func(*queue.Item)
	executeHook func(*queue.Item)
	prepareErr  error
	executeErr  error
	calls       int
	health      stage.Health
}

func newStubStage(name string) *stubStage {
	return &stubStage{name: name, health: stage.Healthy(name)}
}

func (s *stubStage) Prepare(_ context.Context, item *queue.Item) error {
	if s.prepareHook != nil {
		s.prepareHook(item)
	}
	return s.prepareErr
}

func (s *stubStage) Execute(_ context.Context, item *queue.Item) error {
	s.calls++
	if s.executeHook != nil {
		s.executeHook(item)
	}
	return s.executeErr
}

func (s *stubStage) HealthCheck(context.Context) stage.Health {
	return s.health
}

func stubStageSet() (workflow.StageSet, []*stubStage) {
	stubs := make([]*stubStage, 0, 10)
	add := func(name string) *stubStage {
		stub := newStubStage(name)
		stubs = append(stubs, stub)
		return stub
	}
	set := workflow.StageSet{
		Outliner:    add("outline"),
		Scripter:    add("script"),
		Voicer:      add("voice"),
		Planner:     add("plan"),
		Imager:      add("images"),
		Clipper:     add("clip"),
		Composer:    add("compose"),
		Thumbnailer: add("thumbnail"),
		Packager:    add("metadata"),
		Uploader:    add("upload"),
	}
	return set, stubs
}

type recordingNotifier struct {
	started  []string
	scripts  []string
	composed []string
	uploads  []string
	reviews  []string
	errors   []string
}

func (n *recordingNotifier) NotifyProjectStarted(_ context.Context, channel, title string) error {
	n.started = append(n.started, title)
	return nil
}

func (n *recordingNotifier) NotifyScriptReady(_ context.Context, title string) error {
	n.scripts = append(n.scripts, title)
	return nil
}

func (n *recordingNotifier) NotifyVideoComposed(_ context.Context, title string) error {
	n.composed = append(n.composed, title)
	return nil
}

func (n *recordingNotifier) NotifyUploadCompleted(_ context.Context, title, watchURL string) error {
	n.uploads = append(n.uploads, title)
	return nil
}

func (n *recordingNotifier) NotifyReviewRequired(_ context.Context, title, reason string) error {
	n.reviews = append(n.reviews, reason)
	return nil
}

func (n *recordingNotifier) NotifyError(_ context.Context, err error, contextLabel string) error {
	n.errors = append(n.errors, contextLabel)
	return nil
}

func (n *recordingNotifier) TestNotification(context.Context) error { return nil }

func TestRunAllWalksEveryStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set, stubs := stubStageSet()
	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier, set)

	ctx := context.Background()
	item := testsupport.NewProject(t, store, "history-shorts", "The Lost Library", "video-1", "the-lost-library")

	if err := mgr.RunAll(ctx, item); err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	if item.Status != queue.StatusCompleted {
		t.Fatalf("expected completed status, got %s", item.Status)
	}
	for _, stub := range stubs {
		if stub.calls != 1 {
			t.Fatalf("stage %s executed %d times, expected 1", stub.name, stub.calls)
		}
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusCompleted {
		t.Fatalf("expected persisted completed status, got %s", fetched.Status)
	}

	if len(notifier.started) != 1 || len(notifier.scripts) != 1 || len(notifier.composed) != 1 || len(notifier.uploads) != 1 {
		t.Fatalf("unexpected notifications: %+v", notifier)
	}
}

func TestRunAllStopsOnFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set, stubs := stubStageSet()
	stubs[2].executeErr = errors.New("synthesis backend unavailable")
	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier, set)

	ctx := context.Background()
	item := testsupport.NewProject(t, store, "history-shorts", "Bronze Age Collapse", "video-2", "bronze-age-collapse")

	if err := mgr.RunAll(ctx, item); err == nil {
		t.Fatal("expected stage failure to propagate")
	}
	if item.Status != queue.StatusFailed {
		t.Fatalf("expected failed status, got %s", item.Status)
	}
	for _, stub := range stubs[3:] {
		if stub.calls != 0 {
			t.Fatalf("stage %s should not have run after failure", stub.name)
		}
	}
	if len(notifier.errors) != 1 {
		t.Fatalf("expected one error notification, got %d", len(notifier.errors))
	}
}

func TestRunAllRoutesValidationErrorsToReview(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set, stubs := stubStageSet()
	stubs[1].prepareErr = services.MissingInput("script", "outline.txt")
	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier, set)

	ctx := context.Background()
	item := testsupport.NewProject(t, store, "history-shorts", "First Cities", "video-3", "first-cities")

	if err := mgr.RunAll(ctx, item); err == nil {
		t.Fatal("expected validation failure to propagate")
	}
	if item.Status != queue.StatusReview {
		t.Fatalf("expected review status, got %s", item.Status)
	}
	if !item.NeedsReview {
		t.Fatal("expected needs review flag")
	}
	if len(notifier.reviews) != 1 {
		t.Fatalf("expected one review notification, got %d", len(notifier.reviews))
	}
}

func TestRunAllResumesFromRecordedStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set, stubs := stubStageSet()
	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier, set)

	ctx := context.Background()
	item := testsupport.NewProject(t, store, "history-shorts", "Silk Road", "video-4", "silk-road")
	item.Status = queue.StatusVoiced
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if err := mgr.RunAll(ctx, item); err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}
	for i, stub := range stubs {
		expected := 0
		if i >= 3 {
			expected = 1
		}
		if stub.calls != expected {
			t.Fatalf("stage %s executed %d times, expected %d", stub.name, stub.calls, expected)
		}
	}
}

func TestRunStageResetsAndRunsSingleStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set, stubs := stubStageSet()
	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier, set)

	ctx := context.Background()
	item := testsupport.NewProject(t, store, "history-shorts", "Roman Roads", "video-5", "roman-roads")
	item.Status = queue.StatusCompleted
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if err := mgr.RunStage(ctx, item, "thumbnail"); err != nil {
		t.Fatalf("RunStage failed: %v", err)
	}
	if item.Status != queue.StatusThumbnailed {
		t.Fatalf("expected thumbnailed status, got %s", item.Status)
	}
	for i, stub := range stubs {
		expected := 0
		if stub.name == "thumbnail" {
			expected = 1
		}
		if stub.calls != expected {
			t.Fatalf("stage %d (%s) executed %d times, expected %d", i, stub.name, stub.calls, expected)
		}
	}
}

func TestRunStageRejectsUnknownStage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set, _ := stubStageSet()
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{}, set)

	item := testsupport.NewProject(t, store, "history-shorts", "Test", "video-6", "test")
	if err := mgr.RunStage(context.Background(), item, "polish"); err == nil {
		t.Fatal("expected error for unknown stage")
	}
}
