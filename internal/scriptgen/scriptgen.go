package scriptgen

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"reelsmith/internal/channels"
	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/queue"
	"reelsmith/internal/scriptdoc"
	"reelsmith/internal/services"
	"reelsmith/internal/services/llm"
	"reelsmith/internal/stage"
	"reelsmith/internal/workspace"
)

type completionClient interface {
	CompleteText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Scripter turns the outline artifact into the narration script artifact.
type Scripter struct {
	cfg     *config.Config
	channel channels.Channel
	project workspace.Project
	client  completionClient
	logger  *slog.Logger
}

// NewScripter constructs the script stage handler with the configured
// language model client.
func NewScripter(cfg *config.Config, channel channels.Channel, project workspace.Project) *Scripter {
	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	return NewScripterWithClient(cfg, channel, project, client)
}

// NewScripterWithClient allows injecting the completion client (used in tests).
func NewScripterWithClient(cfg *config.Config, channel channels.Channel, project workspace.Project, client completionClient) *Scripter {
	return &Scripter{cfg: cfg, channel: channel, project: project, client: client, logger: logging.NewNop()}
}

// SetLogger installs the scoped logger used during execution.
func (s *Scripter) SetLogger(logger *slog.Logger) {
	if logger == nil {
		s.logger = logging.NewNop()
		return
	}
	s.logger = logging.NewComponentLogger(logger, "script")
}

func (s *Scripter) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)
	item.InitProgress("Scripting", "Preparing script generation")
	if _, err := os.Stat(s.project.OutlinePath()); err != nil {
		return services.MissingInput("script", workspace.OutlineFile)
	}
	logger.Info("starting script preparation", logging.String("title", item.Title))
	return nil
}

func (s *Scripter) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, s.logger)
	item.SetProgress("Scripting", "Requesting script", 10)

	outlineData, err := os.ReadFile(s.project.OutlinePath())
	if err != nil {
		return services.Wrap(services.ErrTransient, "script", "read outline", "outline artifact unreadable", err)
	}

	content, err := s.client.CompleteText(ctx, systemPrompt, s.buildPrompt(item, string(outlineData)))
	if err != nil {
		return services.Wrap(services.ErrExternalService, "script", "request script", "language model request failed", err)
	}
	script := strings.TrimSpace(content)
	if err := scriptdoc.Validate(script, item.Title, item.VideoID); err != nil {
		return services.Wrap(services.ErrValidation, "script", "validate output", err.Error(), nil)
	}

	path := s.project.ScriptPath()
	if err := workspace.WriteFileAtomic(path, []byte(script+"\n"), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "script", "persist artifact", "write script", err)
	}
	item.ScriptFile = path
	item.SetProgressComplete("Scripting", "Script ready")
	logger.Info("script generated", logging.String("path", path), logging.Int("bytes", len(script)))
	return nil
}

// HealthCheck verifies the language model is configured.
func (s *Scripter) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(s.cfg.LLM.APIKey) == "" {
		return stage.Unhealthy("script", "llm api key is not configured")
	}
	return stage.Healthy("script")
}

const systemPrompt = "You are a professional YouTube script writer. " +
	"You write vivid narration suitable for voiceover and follow output templates exactly."

func (s *Scripter) buildPrompt(item *queue.Item, outline string) string {
	template := fmt.Sprintf(`VIDEO_TITLE: %s
VIDEO_ID: %s
FORMAT: %s

[HOOK]
- one to two short lines that grab attention.

[INTRO]
- a concise setup that frames the topic.

[SCENES]
1. Scene title
   Narration: 2-4 sentences of dialogue.
   Visuals: 1-2 sentences that describe imagery.
2. Scene title
   Narration: 2-4 sentences of dialogue.
   Visuals: 1-2 sentences that describe imagery.
3. Scene title
   Narration: 2-4 sentences of dialogue.
   Visuals: 1-2 sentences that describe imagery.
`, item.Title, item.VideoID, scriptdoc.FormatVersion)

	var b strings.Builder
	b.WriteString("Write the full narration script for the outline below, following the exact template. ")
	if s.channel.TargetWords > 0 {
		fmt.Fprintf(&b, "Keep the overall length close to %d words. ", s.channel.TargetWords)
	}
	if s.channel.Style != "" {
		fmt.Fprintf(&b, "Editorial style: %s. ", s.channel.Style)
	}
	b.WriteString("Fill in real content everywhere; never leave angle-bracket placeholders. ")
	b.WriteString("Return only the script.\n\n")
	fmt.Fprintf(&b, "OUTLINE:\n%s\n\n", strings.TrimSpace(outline))
	fmt.Fprintf(&b, "Template:\n%s\n[OUTRO]\n- a brief takeaway and call to action.\n", template)
	return b.String()
}
