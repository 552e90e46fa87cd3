package metadatagen_test

import (
	"context"
	"encoding/json"
	"os"
	"reflect"
	"testing"

	"reelsmith/internal/channels"
	"reelsmith/internal/metadatagen"
	"reelsmith/internal/plan"
	"reelsmith/internal/queue"
	"reelsmith/internal/testsupport"
	"reelsmith/internal/workspace"
)

type stubCompleter struct {
	response string
	prompts  []string
}

func (s *stubCompleter) CompleteJSON(_ context.Context, _, userPrompt string) (string, error) {
	s.prompts = append(s.prompts, userPrompt)
	return s.response, nil
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

func writePlanFixture(t *testing.T, project workspace.Project) {
	t.Helper()
	data, err := plan.New("The Lost Library", "a1b2c3d4", []plan.Entry{
		{Identifier: "greatest library never burned", ImagePrompt: "ancient library at dusk", Timestamp: f(0.2)},
		{Identifier: "scholars measured the earth", ImagePrompt: "bronze instruments", Timestamp: f(3)},
	}).Encode()
	if err != nil {
		t.Fatalf("encode plan fixture: %v", err)
	}
	testsupport.WriteFile(t, project.PlanPath(), data)
}

func TestExecuteForcesProjectTitle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	project := newProject(t, cfg.Paths.WorkspaceDir)
	writePlanFixture(t, project)

	client := &stubCompleter{response: `{
		"title": "A Clickbait Title The Model Invented",
		"description": "The real story of the Library of Alexandria.",
		"tags": "history, alexandria, library, ancient world"
	}`}
	handler := metadatagen.NewPackagerWithClient(cfg, channels.Channel{}, project, client)

	item := &queue.Item{Channel: "demo", Title: "The Lost Library", VideoID: "a1b2c3d4"}
	if err := handler.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if err := handler.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	data, err := os.ReadFile(project.MetadataPath())
	if err != nil {
		t.Fatalf("read metadata artifact: %v", err)
	}
	var doc metadatagen.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode metadata artifact: %v", err)
	}

	if doc.Format != metadatagen.FormatVersion {
		t.Fatalf("unexpected format %q", doc.Format)
	}
	if doc.Metadata.Title != "The Lost Library" {
		t.Fatalf("model title must be overridden with the project title, got %q", doc.Metadata.Title)
	}
	wantTags := []string{"history", "alexandria", "library", "ancient world"}
	if !reflect.DeepEqual(doc.Metadata.Tags, wantTags) {
		t.Fatalf("tags not normalized: %v", doc.Metadata.Tags)
	}
	if doc.Channel != "demo" || doc.VideoID != "a1b2c3d4" {
		t.Fatalf("document identity wrong: %+v", doc)
	}
	if item.MetadataFile != project.MetadataPath() {
		t.Fatalf("metadata artifact not recorded: %q", item.MetadataFile)
	}

	if len(client.prompts) != 1 {
		t.Fatalf("expected one completion request, got %d", len(client.prompts))
	}
}

func TestPrepareRequiresPlanArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	project := newProject(t, cfg.Paths.WorkspaceDir)
	handler := metadatagen.NewPackagerWithClient(cfg, channels.Channel{}, project, &stubCompleter{})

	err := handler.Prepare(context.Background(), &queue.Item{})
	if err == nil {
		t.Fatal("expected missing-input error")
	}
	if queue.FailureStatus(err) != queue.StatusReview {
		t.Fatalf("expected review routing, got %v", queue.FailureStatus(err))
	}
}

func TestNormalizeTags(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{"array", `["history", " maps ", ""]`, []string{"history", "maps"}},
		{"comma string", `"history, maps , , ancient world"`, []string{"history", "maps", "ancient world"}},
		{"unusable shape", `42`, nil},
		{"empty", ``, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := metadatagen.NormalizeTags(json.RawMessage(tc.raw))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("NormalizeTags(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}
