package outline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"reelsmith/internal/channels"
	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/services/llm"
	"reelsmith/internal/stage"
	"reelsmith/internal/workspace"
)

type completionClient interface {
	CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Outliner produces the outline artifact for a project.
type Outliner struct {
	cfg     *config.Config
	channel channels.Channel
	project workspace.Project
	client  completionClient
	logger  *slog.Logger
}

// NewOutliner constructs the outline stage handler with the configured
// language model client.
func NewOutliner(cfg *config.Config, channel channels.Channel, project workspace.Project) *Outliner {
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	return NewOutlinerWithClient(cfg, channel, project, client)
}

// NewOutlinerWithClient allows injecting the completion client (used in tests).
func NewOutlinerWithClient(cfg *config.Config, channel channels.Channel, project workspace.Project, client completionClient) *Outliner {
	return &Outliner{cfg: cfg, channel: channel, project: project, client: client, logger: logging.NewNop()}
}

// SetLogger installs the scoped logger used during execution.
func (o *Outliner) SetLogger(logger *slog.Logger) {
	if logger == nil {
		o.logger = logging.NewNop()
		return
	}
	o.logger = logging.NewComponentLogger(logger, "outline")
}

func (o *Outliner) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, o.logger)
	item.InitProgress("Outlining", "Preparing outline generation")
	if strings.TrimSpace(item.Title) == "" {
		return services.Wrap(services.ErrValidation, "outline", "validate inputs", "project has no title", nil)
	}
	logger.Info("starting outline preparation", logging.String("title", item.Title))
	return nil
}

func (o *Outliner) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, o.logger)
	item.SetProgress("Outlining", "Requesting outline", 10)

	content, err := o.client.CompleteText(ctx, systemPrompt, o.buildPrompt(item.Title))
	if err != nil {
		return services.Wrap(services.ErrExternalService, "outline", "request outline", "language model request failed", err)
	}
	if err := validateOutline(content); err != nil {
		return services.Wrap(services.ErrExternalService, "outline", "validate output", err.Error(), nil)
	}

	path := o.project.OutlinePath()
	if err := workspace.WriteFileAtomic(path, []byte(strings.TrimSpace(content)+"\n"), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "outline", "persist artifact", "write outline", err)
	}
	item.OutlineFile = path
	item.SetProgressComplete("Outlining", "Outline ready")
	logger.Info("outline generated", logging.String("path", path))
	return nil
}

// HealthCheck verifies the language model is configured.
func (o *Outliner) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(o.cfg.LLM.APIKey) == "" {
		return stage.Unhealthy("outline", "llm api key is not configured")
	}
	return stage.Healthy("outline")
}

const systemPrompt = "You are a senior content strategist for YouTube channels. " +
	"You produce tight, well-structured video outlines that a script writer can expand directly."

func (o *Outliner) buildPrompt(title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create an outline for a YouTube video titled %q.\n", title)
	if o.channel.Topic != "" {
		fmt.Fprintf(&b, "The channel covers %s.\n", o.channel.Topic)
	}
	if o.channel.Style != "" {
		fmt.Fprintf(&b, "Editorial style: %s.\n", o.channel.Style)
	}
	if o.channel.TargetWords > 0 {
		fmt.Fprintf(&b, "The finished script should land near %d words; size the outline accordingly.\n", o.channel.TargetWords)
	}
	b.WriteString("\nStructure the outline as:\n")
	b.WriteString("HOOK: one line that earns the first ten seconds.\n")
	b.WriteString("INTRO: what the video promises.\n")
	b.WriteString("SCENES: three to six numbered beats, one line each, covering the arc of the topic.\n")
	b.WriteString("OUTRO: the takeaway and call to action.\n")
	b.WriteString("\nReturn only the outline text.")
	return b.String()
}

func validateOutline(content string) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return fmt.Errorf("language model returned an empty outline")
	}
	lines := 0
	for _, line := range strings.Split(trimmed, "\n") {
		if strings.TrimSpace(line) != "" {
			lines++
		}
	}
	if lines < 4 {
		return fmt.Errorf("outline has %d lines; expected hook, intro, scenes, and outro", lines)
	}
	return nil
}
