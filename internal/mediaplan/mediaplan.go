package mediaplan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"reelsmith/internal/channels"
	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/plan"
	"reelsmith/internal/queue"
	"reelsmith/internal/scriptdoc"
	"reelsmith/internal/services"
	"reelsmith/internal/services/llm"
	"reelsmith/internal/services/replicate"
	"reelsmith/internal/stage"
	"reelsmith/internal/workspace"
)

type completionClient interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type transcriptionClient interface {
	Run(ctx context.Context, model string, input map[string]any) (*replicate.Prediction, error)
}

// Planner produces the media plan artifact from the script and narration
// audio.
type Planner struct {
	cfg      *config.Config
	channel  channels.Channel
	project  workspace.Project
	llm      completionClient
	media    transcriptionClient
	logger   *slog.Logger
	audioURI func(path string) (string, error)
}

// NewPlanner constructs the plan stage handler with the configured clients.
func NewPlanner(cfg *config.Config, channel channels.Channel, project workspace.Project) *Planner {
	llmClient := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	mediaClient := replicate.NewClient(replicate.Config{
		APIToken:              cfg.Replicate.APIToken,
		BaseURL:               cfg.Replicate.BaseURL,
		PollIntervalSeconds:   cfg.Replicate.PollIntervalSeconds,
		PredictionTimeoutSecs: cfg.Replicate.PredictionTimeoutSecs,
	})
	return NewPlannerWithClients(cfg, channel, project, llmClient, mediaClient)
}

// NewPlannerWithClients allows injecting collaborators (used in tests).
func NewPlannerWithClients(cfg *config.Config, channel channels.Channel, project workspace.Project, llmClient completionClient, mediaClient transcriptionClient) *Planner {
	return &Planner{
		cfg:      cfg,
		channel:  channel,
		project:  project,
		llm:      llmClient,
		media:    mediaClient,
		logger:   logging.NewNop(),
		audioURI: replicate.DataURI,
	}
}

// SetLogger installs the scoped logger used during execution.
func (p *Planner) SetLogger(logger *slog.Logger) {
	if logger == nil {
		p.logger = logging.NewNop()
		return
	}
	p.logger = logging.NewComponentLogger(logger, "plan")
}

func (p *Planner) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)
	item.InitProgress("Planning", "Preparing media plan")
	if _, err := os.Stat(p.project.ScriptPath()); err != nil {
		return services.MissingInput("plan", workspace.ScriptFile)
	}
	if _, err := os.Stat(p.project.AudioDirPath()); err != nil {
		return services.MissingInput("plan", workspace.AudioDir)
	}
	logger.Info("starting plan preparation")
	return nil
}

func (p *Planner) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, p.logger)

	scriptData, err := os.ReadFile(p.project.ScriptPath())
	if err != nil {
		return services.Wrap(services.ErrTransient, "plan", "read script", "script artifact unreadable", err)
	}
	script := string(scriptData)

	sections, err := scriptdoc.Sections(script)
	if err != nil {
		return services.Wrap(services.ErrValidation, "plan", "split script", err.Error(), nil)
	}
	order := make([]string, len(sections))
	for i, section := range sections {
		order[i] = section.Name
	}
	audioPaths, err := p.project.ListAudioSections(order, p.cfg.Speech.AudioFormat)
	if err != nil {
		return services.MissingInput("plan", workspace.AudioDir)
	}

	item.SetProgress("Planning", "Requesting visual cues", 10)
	entries, err := p.requestEntries(ctx, script)
	if err != nil {
		return err
	}
	logger.Info("planner proposed cues", logging.Int("count", len(entries)))

	timeline, err := p.transcribe(ctx, item, audioPaths)
	if err != nil {
		return err
	}
	logger.Info("narration transcribed", logging.Int("words", len(timeline)))

	enriched := plan.AttachTimestamps(entries, timeline)
	doc := plan.New(item.Title, item.VideoID, enriched)
	data, err := doc.Encode()
	if err != nil {
		return services.Wrap(services.ErrTransient, "plan", "encode plan", "encode media plan", err)
	}
	path := p.project.PlanPath()
	if err := workspace.WriteFileAtomic(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "plan", "persist artifact", "write media plan", err)
	}

	matched := 0
	for _, entry := range enriched {
		if entry.HasTimestamp() {
			matched++
		}
	}
	item.PlanFile = path
	item.SetProgressComplete("Planning", fmt.Sprintf("Media plan ready (%d cues, %d matched)", len(enriched), matched))
	return nil
}

// HealthCheck verifies both backing services are configured.
func (p *Planner) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(p.cfg.LLM.APIKey) == "" {
		return stage.Unhealthy("plan", "llm api key is not configured")
	}
	if strings.TrimSpace(p.cfg.Replicate.APIToken) == "" {
		return stage.Unhealthy("plan", "replicate api token is not configured")
	}
	return stage.Healthy("plan")
}

const plannerSystemPrompt = "You are a media planner for narrated videos. " +
	"You decide when the on-screen visual should change and return machine-readable JSON."

func (p *Planner) requestEntries(ctx context.Context, script string) ([]plan.Entry, error) {
	prompt := fmt.Sprintf(
		"Read the narration script and decide when a new image should appear. "+
			"Identify concise snippets of the narration (6-10 words) that anchor where the image should change. "+
			"For each cue provide an expressive image generation prompt. "+
			"Return a JSON array where each item has the fields \"identifier\" (the exact narration snippet) and \"image_prompt\". "+
			"Do not include any explanations outside the JSON.\n\nSCRIPT:\n%s",
		strings.TrimSpace(script))

	content, err := p.llm.CompleteJSON(ctx, plannerSystemPrompt, prompt)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "plan", "request cues", "language model request failed", err)
	}
	var raw []plan.Entry
	if err := llm.DecodeLLMJSON(content, &raw); err != nil {
		return nil, services.Wrap(services.ErrExternalService, "plan", "decode cues", "planner response was not a JSON array", err)
	}
	entries, err := plan.NormalizeEntries(raw)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "plan", "normalize cues", err.Error(), nil)
	}
	return entries, nil
}

func (p *Planner) transcribe(ctx context.Context, item *queue.Item, audioPaths []string) ([]plan.Word, error) {
	perFile := make([][]plan.Word, 0, len(audioPaths))
	for i, path := range audioPaths {
		percent := 30 + float64(i)/float64(len(audioPaths))*60
		item.SetProgress("Planning", fmt.Sprintf("Transcribing narration (%d/%d)", i+1, len(audioPaths)), percent)

		uri, err := p.audioURI(path)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "plan", "encode audio", "read narration audio", err)
		}
		prediction, err := p.media.Run(ctx, p.cfg.Models.Transcribe, map[string]any{
			"audio":         uri,
			"task":          "transcribe",
			"timestamp":     "word",
			"batch_size":    64,
			"diarise_audio": false,
		})
		if err != nil {
			return nil, services.Wrap(services.ErrExternalService, "plan", "transcribe audio", "transcription failed", err)
		}
		words, err := plan.DecodeTranscript(prediction.Output)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalService, "plan", "decode transcript", "transcription output unusable", err)
		}
		perFile = append(perFile, words)
	}
	return plan.MergeTimelines(perFile), nil
}
