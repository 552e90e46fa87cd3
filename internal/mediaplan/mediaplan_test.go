package mediaplan_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"reelsmith/internal/channels"
	"reelsmith/internal/config"
	"reelsmith/internal/mediaplan"
	"reelsmith/internal/plan"
	"reelsmith/internal/queue"
	"reelsmith/internal/services/replicate"
	"reelsmith/internal/testsupport"
	"reelsmith/internal/workspace"
)

type stubCompleter struct {
	response string
}

func (s *stubCompleter) CompleteJSON(context.Context, string, string) (string, error) {
	return s.response, nil
}

type stubTranscriber struct {
	outputs []string
	calls   int
}

func (s *stubTranscriber) Run(_ context.Context, _ string, _ map[string]any) (*replicate.Prediction, error) {
	output := s.outputs[s.calls%len(s.outputs)]
	s.calls++
	return &replicate.Prediction{Status: "succeeded", Output: json.RawMessage(output)}, nil
}

const sampleScript = `VIDEO_TITLE: The Lost Library
VIDEO_ID: a1b2c3d4
FORMAT: REELSMITH_SCRIPT_V1

[HOOK]
The greatest library never burned.

[INTRO]
Tracing the real fate of Alexandria.

[SCENES]
1. The founding
   Narration: Scrolls from every docking ship.
2. The golden age
   Narration: Scholars measured the earth.
3. The decline
   Narration: Funding dried up quietly.

[OUTRO]
History rarely burns overnight.`

func newProject(t *testing.T, workspaceDir string) workspace.Project {
	t.Helper()
	project, err := workspace.NewProject(workspaceDir, "demo", "the-lost-library", "a1b2c3d4")
	if err != nil {
		t.Fatalf("NewProject returned error: %v", err)
	}
	return project
}

func writeAudioFixtures(t *testing.T, cfg *config.Config, project workspace.Project) {
	t.Helper()
	for _, section := range []string{"hook", "intro", "scene-1", "scene-2", "scene-3", "outro"} {
		testsupport.WriteFile(t, project.AudioSectionPath(section, cfg.Speech.AudioFormat), []byte("audio"))
	}
}

func TestPrepareRequiresUpstreamArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	project := newProject(t, cfg.Paths.WorkspaceDir)
	handler := mediaplan.NewPlannerWithClients(cfg, channels.Channel{}, project, &stubCompleter{}, &stubTranscriber{})

	err := handler.Prepare(context.Background(), &queue.Item{Title: "The Lost Library"})
	if err == nil {
		t.Fatal("expected missing-input error without script")
	}
	if queue.FailureStatus(err) != queue.StatusReview {
		t.Fatalf("expected review routing, got %v", queue.FailureStatus(err))
	}

	testsupport.WriteFile(t, project.ScriptPath(), []byte(sampleScript))
	if err := handler.Prepare(context.Background(), &queue.Item{}); err == nil {
		t.Fatal("expected missing-input error without audio")
	}
}

func TestExecuteWritesPlanWithResolvedTimestamps(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	project := newProject(t, cfg.Paths.WorkspaceDir)
	testsupport.WriteFile(t, project.ScriptPath(), []byte(sampleScript))
	writeAudioFixtures(t, cfg, project)

	planner := &stubCompleter{response: `[
		{"identifier": "greatest library never burned", "image_prompt": "a vast ancient library at dusk"},
		{"identifier": "scholars measured the earth", "image_prompt": "astronomers with bronze instruments"},
		{"identifier": "phrase that was never narrated", "image_prompt": "empty skyline"}
	]`}

	// Each section transcript covers one second; offsets accumulate per file.
	transcriber := &stubTranscriber{outputs: []string{
		`{"chunks":[{"text":"The","timestamp":[0.0,0.2]},{"text":"greatest","timestamp":[0.2,0.4]},{"text":"library","timestamp":[0.4,0.6]},{"text":"never","timestamp":[0.6,0.8]},{"text":"burned","timestamp":[0.8,1.0]}]}`,
		`{"chunks":[{"text":"Tracing","timestamp":[0.0,1.0]}]}`,
		`{"chunks":[{"text":"Scrolls","timestamp":[0.0,1.0]}]}`,
		`{"chunks":[{"text":"Scholars","timestamp":[0.0,0.3]},{"text":"measured","timestamp":[0.3,0.6]},{"text":"the","timestamp":[0.6,0.7]},{"text":"earth","timestamp":[0.7,1.0]}]}`,
		`{"chunks":[{"text":"Funding","timestamp":[0.0,1.0]}]}`,
		`{"chunks":[{"text":"History","timestamp":[0.0,1.0]}]}`,
	}}

	handler := mediaplan.NewPlannerWithClients(cfg, channels.Channel{}, project, planner, transcriber)
	item := &queue.Item{Title: "The Lost Library", VideoID: "a1b2c3d4"}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if transcriber.calls != 6 {
		t.Fatalf("expected 6 transcription calls, got %d", transcriber.calls)
	}
	if item.PlanFile != project.PlanPath() {
		t.Fatalf("plan artifact not recorded: %q", item.PlanFile)
	}

	data, err := os.ReadFile(project.PlanPath())
	if err != nil {
		t.Fatalf("read plan artifact: %v", err)
	}
	doc, err := plan.Parse(data)
	if err != nil {
		t.Fatalf("parse plan artifact: %v", err)
	}
	if len(doc.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(doc.Entries))
	}
	if !doc.Entries[0].HasTimestamp() || *doc.Entries[0].Timestamp != 0.2 {
		t.Fatalf("first cue should resolve inside the hook: %+v", doc.Entries[0])
	}
	// scene-2 audio starts after hook+intro+scene-1, three seconds in.
	if !doc.Entries[1].HasTimestamp() || *doc.Entries[1].Timestamp != 3.0 {
		t.Fatalf("second cue should carry the cross-file offset: %+v", doc.Entries[1])
	}
	if doc.Entries[2].Timestamp != nil {
		t.Fatalf("unmatched cue should keep a null timestamp: %+v", doc.Entries[2])
	}
}

func TestExecuteRejectsUnusablePlannerOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	project := newProject(t, cfg.Paths.WorkspaceDir)
	testsupport.WriteFile(t, project.ScriptPath(), []byte(sampleScript))
	writeAudioFixtures(t, cfg, project)

	handler := mediaplan.NewPlannerWithClients(cfg, channels.Channel{}, project,
		&stubCompleter{response: `[{"identifier": "", "image_prompt": ""}]`}, &stubTranscriber{outputs: []string{`{}`}})

	err := handler.Execute(context.Background(), &queue.Item{Title: "The Lost Library", VideoID: "a1b2c3d4"})
	if err == nil {
		t.Fatal("expected error for unusable planner output")
	}
	if queue.FailureStatus(err) != queue.StatusFailed {
		t.Fatalf("backend misbehavior should fail, got %v", queue.FailureStatus(err))
	}
	if _, statErr := os.Stat(project.PlanPath()); statErr == nil {
		t.Fatal("no plan artifact should be written on failure")
	}
}
