package imagery_test

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"reelsmith/internal/channels"
	"reelsmith/internal/imagery"
	"reelsmith/internal/plan"
	"reelsmith/internal/queue"
	"reelsmith/internal/services/replicate"
	"reelsmith/internal/testsupport"
	"reelsmith/internal/workspace"
)

type stubMedia struct {
	prompts   []string
	downloads []string
}

func (s *stubMedia) Run(_ context.Context, _ string, input map[string]any) (*replicate.Prediction, error) {
	s.prompts = append(s.prompts, input["prompt"].(string))
	return &replicate.Prediction{Status: "succeeded", Output: json.RawMessage(`"https://cdn.example/image.png"`)}, nil
}

func (s *stubMedia) Download(_ context.Context, _, destPath string) (int64, error) {
	s.downloads = append(s.downloads, destPath)
	return workspace.WriteStreamAtomic(destPath, strings.NewReader("png"), 0o644)
}

func f(value float64) *float64 { return &value }

func newProject(t *testing.T, workspaceDir string) workspace.Project {
	t.Helper()
	project, err := workspace.NewProject(workspaceDir, "demo", "the-lost-library", "a1b2c3d4")
	if err != nil {
		t.Fatalf("NewProject returned error: %v", err)
	}
	return project
}

func writePlan(t *testing.T, project workspace.Project, entries []plan.Entry) {
	t.Helper()
	data, err := plan.New("The Lost Library", "a1b2c3d4", entries).Encode()
	if err != nil {
		t.Fatalf("encode plan fixture: %v", err)
	}
	testsupport.WriteFile(t, project.PlanPath(), data)
}

func TestPrepareRequiresPlanArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	project := newProject(t, cfg.Paths.WorkspaceDir)
	handler := imagery.NewImagerWithClient(cfg, channels.Channel{}, project, &stubMedia{})

	err := handler.Prepare(context.Background(), &queue.Item{})
	if err == nil {
		t.Fatal("expected missing-input error")
	}
	if queue.FailureStatus(err) != queue.StatusReview {
		t.Fatalf("expected review routing, got %v", queue.FailureStatus(err))
	}
}

func TestExecuteRendersTimestampedEntriesOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	project := newProject(t, cfg.Paths.WorkspaceDir)
	writePlan(t, project, []plan.Entry{
		{Identifier: "a", ImagePrompt: "ancient harbor at dawn", Timestamp: f(0.2)},
		{Identifier: "b", ImagePrompt: "unmatched cue"},
		{Identifier: "c", ImagePrompt: "astronomers with instruments", Timestamp: f(3.0)},
	})

	media := &stubMedia{}
	handler := imagery.NewImagerWithClient(cfg, channels.Channel{ImageStyle: "warm film grain"}, project, media)

	item := &queue.Item{Title: "The Lost Library", VideoID: "a1b2c3d4"}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if len(media.prompts) != 2 {
		t.Fatalf("expected 2 renders (entry without timestamp skipped), got %d", len(media.prompts))
	}
	if !strings.Contains(media.prompts[0], "warm film grain") {
		t.Fatalf("channel image style not appended: %q", media.prompts[0])
	}

	wantFirst := project.ImagePath(1, 0.2)
	if media.downloads[0] != wantFirst {
		t.Fatalf("first image path %q, want %q", media.downloads[0], wantFirst)
	}
	wantThird := project.ImagePath(3, 3.0)
	if media.downloads[1] != wantThird {
		t.Fatalf("plan index must be preserved in filenames: %q, want %q", media.downloads[1], wantThird)
	}

	var manifest []string
	if err := json.Unmarshal([]byte(item.ImagesJSON), &manifest); err != nil {
		t.Fatalf("decode image manifest: %v", err)
	}
	if len(manifest) != 2 {
		t.Fatalf("unexpected manifest %v", manifest)
	}
	for _, path := range manifest {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("image artifact %s missing: %v", path, err)
		}
	}
}

func TestExecuteFailsWhenNothingRenderable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	project := newProject(t, cfg.Paths.WorkspaceDir)
	writePlan(t, project, []plan.Entry{{Identifier: "a", ImagePrompt: "no timestamp"}})

	handler := imagery.NewImagerWithClient(cfg, channels.Channel{}, project, &stubMedia{})
	err := handler.Execute(context.Background(), &queue.Item{})
	if err == nil {
		t.Fatal("expected error when no entry is renderable")
	}
	if queue.FailureStatus(err) != queue.StatusReview {
		t.Fatalf("expected review routing, got %v", queue.FailureStatus(err))
	}
}
