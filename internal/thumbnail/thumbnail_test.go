package thumbnail_test

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"reelsmith/internal/channels"
	"reelsmith/internal/queue"
	"reelsmith/internal/services/replicate"
	"reelsmith/internal/testsupport"
	"reelsmith/internal/thumbnail"
	"reelsmith/internal/workspace"
)

type stubMedia struct {
	model string
	input map[string]any
}

func (s *stubMedia) Run(_ context.Context, model string, input map[string]any) (*replicate.Prediction, error) {
	s.model = model
	s.input = input
	return &replicate.Prediction{Status: "succeeded", Output: json.RawMessage(`"https://cdn.example/thumb.jpg"`)}, nil
}

func (s *stubMedia) Download(_ context.Context, _, destPath string) (int64, error) {
	return workspace.WriteStreamAtomic(destPath, strings.NewReader("jpg"), 0o644)
}

func TestExecuteRendersThumbnailFromTitle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	project, err := workspace.NewProject(cfg.Paths.WorkspaceDir, "demo", "the-lost-library", "a1b2c3d4")
	if err != nil {
		t.Fatalf("NewProject returned error: %v", err)
	}

	media := &stubMedia{}
	handler := thumbnail.NewThumbnailerWithClient(cfg, channels.Channel{}, project, media)

	item := &queue.Item{Title: "The Lost Library", VideoID: "a1b2c3d4"}
	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if media.model != cfg.Models.Thumbnail {
		t.Fatalf("unexpected model %q", media.model)
	}
	prompt := media.input["prompt"].(string)
	if !strings.Contains(prompt, "The Lost Library") {
		t.Fatalf("title missing from prompt: %q", prompt)
	}
	if media.input["aspect_ratio"] != "16:9" || media.input["output_format"] != "jpg" {
		t.Fatalf("render settings wrong: %v", media.input)
	}

	if item.ThumbnailFile != project.ThumbnailPath() {
		t.Fatalf("thumbnail artifact not recorded: %q", item.ThumbnailFile)
	}
	if _, err := os.Stat(project.ThumbnailPath()); err != nil {
		t.Fatalf("thumbnail artifact missing: %v", err)
	}
}

func TestPrepareRejectsMissingTitle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	project, err := workspace.NewProject(cfg.Paths.WorkspaceDir, "demo", "slug", "a1b2c3d4")
	if err != nil {
		t.Fatalf("NewProject returned error: %v", err)
	}
	handler := thumbnail.NewThumbnailerWithClient(cfg, channels.Channel{}, project, &stubMedia{})

	prepErr := handler.Prepare(context.Background(), &queue.Item{Title: " "})
	if prepErr == nil {
		t.Fatal("expected validation error")
	}
	if queue.FailureStatus(prepErr) != queue.StatusReview {
		t.Fatalf("expected review routing, got %v", queue.FailureStatus(prepErr))
	}
}
