package queue_test

import (
	"context"
	"fmt"
	"testing"

	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item, err := store.NewProject(ctx, "history-shorts", "The Lost Library", "video-1", "the-lost-library")
	if err != nil {
		t.Fatalf("NewProject failed: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected item ID to be assigned")
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", item.Status)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.Title != "The Lost Library" {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}

	found, err := store.FindByChannelTitle(ctx, "history-shorts", "The Lost Library")
	if err != nil {
		t.Fatalf("FindByChannelTitle failed: %v", err)
	}
	if found == nil || found.ID != item.ID {
		t.Fatalf("expected to find inserted item, got %#v", found)
	}
}

func TestNewProjectRequiresFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := store.NewProject(ctx, "", "Title", "vid", "slug"); err == nil {
		t.Fatal("expected error when channel missing")
	}
	if _, err := store.NewProject(ctx, "channel", "", "vid", "slug"); err == nil {
		t.Fatal("expected error when title missing")
	}
	if _, err := store.NewProject(ctx, "channel", "Title", "", "slug"); err == nil {
		t.Fatal("expected error when video id missing")
	}
}

func TestUpdatePersistsArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	item := testsupport.NewProject(t, store, "history-shorts", "Bronze Age Collapse", "video-2", "bronze-age-collapse")

	item.Status = queue.StatusScripted
	item.OutlineFile = "/tmp/outline.txt"
	item.ScriptFile = "/tmp/script.txt"
	item.SetProgressComplete("Script", "script written")
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusScripted {
		t.Fatalf("expected scripted status, got %s", fetched.Status)
	}
	if fetched.ScriptFile != "/tmp/script.txt" {
		t.Fatalf("expected script file to persist, got %q", fetched.ScriptFile)
	}
	if fetched.ProgressPercent != 100 {
		t.Fatalf("expected progress 100, got %v", fetched.ProgressPercent)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewProject(t, store, "history-shorts", "First", "video-10", "first")
	second := testsupport.NewProject(t, store, "history-shorts", "Second", "video-11", "second")

	second.Status = queue.StatusCompleted
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	pending, err := store.List(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != first.ID {
		t.Fatalf("expected only first item pending, got %#v", pending)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected two items, got %d", len(all))
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	cases := []struct {
		name          string
		initialStatus queue.Status
		expected      queue.Status
	}{
		{"outlining", queue.StatusOutlining, queue.StatusPending},
		{"scripting", queue.StatusScripting, queue.StatusOutlined},
		{"voicing", queue.StatusVoicing, queue.StatusScripted},
		{"planning", queue.StatusPlanning, queue.StatusVoiced},
		{"imaging", queue.StatusImaging, queue.StatusPlanned},
		{"clipping", queue.StatusClipping, queue.StatusImaged},
		{"composing", queue.StatusComposing, queue.StatusClipped},
		{"thumbnailing", queue.StatusThumbnailing, queue.StatusComposed},
		{"packaging", queue.StatusPackaging, queue.StatusThumbnailed},
		{"uploading", queue.StatusUploading, queue.StatusPackaged},
	}
	var ids []int64
	for i, tc := range cases {
		item := testsupport.NewProject(t, store, "history-shorts", fmt.Sprintf("Project-%s", tc.name), fmt.Sprintf("video-reset-%d", i), tc.name)
		item.Status = tc.initialStatus
		item.ProgressStage = tc.name
		if err := store.Update(ctx, item); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids = append(ids, item.ID)
	}

	count, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if count != int64(len(cases)) {
		t.Fatalf("expected %d items reset, got %d", len(cases), count)
	}

	for i, tc := range cases {
		fetched, err := store.GetByID(ctx, ids[i])
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if fetched.Status != tc.expected {
			t.Fatalf("%s: expected status %s, got %s", tc.name, tc.expected, fetched.Status)
		}
		if fetched.ProgressPercent != 0 {
			t.Fatalf("%s: expected progress reset, got %v", tc.name, fetched.ProgressPercent)
		}
	}
}

func TestFailureStatusRouting(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected queue.Status
	}{
		{"nil", nil, queue.StatusFailed},
		{"generic", fmt.Errorf("boom"), queue.StatusFailed},
		{"missing input", services.MissingInput("script", "outline.txt"), queue.StatusReview},
		{"configuration", services.Wrap(services.ErrConfiguration, "upload", "credentials", "missing refresh token", nil), queue.StatusReview},
	}
	for _, tc := range cases {
		if got := queue.FailureStatus(tc.err); got != tc.expected {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.expected, got)
		}
	}
}
