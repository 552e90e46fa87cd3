package metadatagen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"reelsmith/internal/channels"
	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/plan"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/services/llm"
	"reelsmith/internal/stage"
	"reelsmith/internal/workspace"
)

// FormatVersion identifies the metadata document format.
const FormatVersion = "YOUTUBE_METADATA_V1"

// Record is the upload-facing metadata payload.
type Record struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Document is the persisted metadata artifact.
type Document struct {
	VideoTitle string `json:"video_title"`
	VideoID    string `json:"video_id"`
	Channel    string `json:"channel_name"`
	Format     string `json:"format"`
	Metadata   Record `json:"metadata"`
}

type completionClient interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Packager produces the metadata artifact.
type Packager struct {
	cfg     *config.Config
	channel channels.Channel
	project workspace.Project
	client  completionClient
	logger  *slog.Logger
}

// NewPackager constructs the metadata stage handler with the configured
// language model client.
func NewPackager(cfg *config.Config, channel channels.Channel, project workspace.Project) *Packager {
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	return NewPackagerWithClient(cfg, channel, project, client)
}

// NewPackagerWithClient allows injecting the completion client (used in tests).
func NewPackagerWithClient(cfg *config.Config, channel channels.Channel, project workspace.Project, client completionClient) *Packager {
	return &Packager{cfg: cfg, channel: channel, project: project, client: client, logger: logging.NewNop()}
}

// SetLogger installs the scoped logger used during execution.
func (p *Packager) SetLogger(logger *slog.Logger) {
	if logger == nil {
		p.logger = logging.NewNop()
		return
	}
	p.logger = logging.NewComponentLogger(logger, "metadata")
}

func (p *Packager) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)
	item.InitProgress("Packaging", "Preparing metadata generation")
	if _, err := os.Stat(p.project.PlanPath()); err != nil {
		return services.MissingInput("metadata", workspace.PlanFile)
	}
	logger.Info("starting metadata preparation")
	return nil
}

func (p *Packager) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)

	planData, err := os.ReadFile(p.project.PlanPath())
	if err != nil {
		return services.Wrap(services.ErrTransient, "metadata", "read plan", "media plan unreadable", err)
	}
	doc, err := plan.Parse(planData)
	if err != nil {
		return services.Wrap(services.ErrValidation, "metadata", "parse plan", err.Error(), nil)
	}

	item.SetProgress("Packaging", "Requesting metadata", 20)
	content, err := p.client.CompleteJSON(ctx, systemPrompt, buildPrompt(item.Title, doc.Entries))
	if err != nil {
		return services.Wrap(services.ErrExternalService, "metadata", "request metadata", "language model request failed", err)
	}

	var raw struct {
		Title       string          `json:"title"`
		Description string          `json:"description"`
		Tags        json.RawMessage `json:"tags"`
	}
	if err := llm.DecodeLLMJSON(content, &raw); err != nil {
		return services.Wrap(services.ErrExternalService, "metadata", "decode metadata", "metadata response was not a JSON object", err)
	}

	record := Record{
		// The model is asked to echo the title, but it is never trusted to.
		Title:       item.Title,
		Description: strings.TrimSpace(raw.Description),
		Tags:        NormalizeTags(raw.Tags),
	}
	artifact := Document{
		VideoTitle: item.Title,
		VideoID:    item.VideoID,
		Channel:    item.Channel,
		Format:     FormatVersion,
		Metadata:   record,
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrTransient, "metadata", "encode artifact", "marshal metadata", err)
	}
	path := p.project.MetadataPath()
	if err := workspace.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "metadata", "persist artifact", "write metadata", err)
	}
	item.MetadataFile = path
	item.SetProgressComplete("Packaging", fmt.Sprintf("Metadata ready (%d tags)", len(record.Tags)))
	logger.Info("metadata generated", logging.String("path", path), logging.Int("tags", len(record.Tags)))
	return nil
}

// HealthCheck verifies the language model is configured.
func (p *Packager) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(p.cfg.LLM.APIKey) == "" {
		return stage.Unhealthy("metadata", "llm api key is not configured")
	}
	return stage.Healthy("metadata")
}

const systemPrompt = "You craft YouTube upload metadata and return compact machine-readable JSON only."

func buildPrompt(title string, entries []plan.Entry) string {
	var highlights []string
	for _, entry := range entries {
		if len(highlights) == 5 {
			break
		}
		identifier := strings.TrimSpace(entry.Identifier)
		imagePrompt := strings.TrimSpace(entry.ImagePrompt)
		if identifier != "" && imagePrompt != "" {
			highlights = append(highlights, fmt.Sprintf("- %s: %s", identifier, imagePrompt))
		}
	}
	summary := strings.Join(highlights, "\n")
	if summary == "" {
		summary = "- No media plan entries provided"
	}

	return fmt.Sprintf(
		"Return a compact JSON object with these keys: title, description and tags. "+
			"Use the exact provided video title without changing it. "+
			"The title should be punchy and under 70 characters. "+
			"The description should be 2-3 sentences summarizing the video and inviting engagement. "+
			"Provide 8-12 concise tags as a comma-separated string. "+
			"Do not include any explanations or markdown.\n\n"+
			"VIDEO_TITLE: %s\nFORMAT: %s\nMEDIA PLAN HIGHLIGHTS:\n%s",
		title, FormatVersion, summary)
}

// NormalizeTags accepts the tag shapes language models actually return, a
// JSON array of strings or a comma-separated string, and flattens either into
// a trimmed list.
func NormalizeTags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return trimTags(list)
	}

	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		return trimTags(strings.Split(joined, ","))
	}
	return nil
}

func trimTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
