package shortclip

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"reelsmith/internal/channels"
	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/plan"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/services/replicate"
	"reelsmith/internal/stage"
	"reelsmith/internal/workspace"
)

type mediaClient interface {
	Run(ctx context.Context, model string, input map[string]any) (*replicate.Prediction, error)
	Download(ctx context.Context, fileURL, destPath string) (int64, error)
}

// Clipper renders the short clip artifact.
type Clipper struct {
	cfg     *config.Config
	channel channels.Channel
	project workspace.Project
	client  mediaClient
	logger  *slog.Logger
}

// NewClipper constructs the clip stage handler with the configured
// generative-media client.
func NewClipper(cfg *config.Config, channel channels.Channel, project workspace.Project) *Clipper {
	client := replicate.NewClient(replicate.Config{
		APIToken:              cfg.Replicate.APIToken,
		BaseURL:               cfg.Replicate.BaseURL,
		PollIntervalSeconds:   cfg.Replicate.PollIntervalSeconds,
		PredictionTimeoutSecs: cfg.Replicate.PredictionTimeoutSecs,
	})
	return NewClipperWithClient(cfg, channel, project, client)
}

// NewClipperWithClient allows injecting the media client (used in tests).
func NewClipperWithClient(cfg *config.Config, channel channels.Channel, project workspace.Project, client mediaClient) *Clipper {
	return &Clipper{cfg: cfg, channel: channel, project: project, client: client, logger: logging.NewNop()}
}

// SetLogger installs the scoped logger used during execution.
func (c *Clipper) SetLogger(logger *slog.Logger) {
	if logger == nil {
		c.logger = logging.NewNop()
		return
	}
	c.logger = logging.NewComponentLogger(logger, "clip")
}

func (c *Clipper) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, c.logger)
	item.InitProgress("Clipping", "Preparing clip generation")
	if _, err := os.Stat(c.project.PlanPath()); err != nil {
		return services.MissingInput("clip", workspace.PlanFile)
	}
	logger.Info("starting clip preparation")
	return nil
}

func (c *Clipper) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, c.logger)

	data, err := os.ReadFile(c.project.PlanPath())
	if err != nil {
		return services.Wrap(services.ErrTransient, "clip", "read plan", "media plan unreadable", err)
	}
	doc, err := plan.Parse(data)
	if err != nil {
		return services.Wrap(services.ErrValidation, "clip", "parse plan", err.Error(), nil)
	}
	prompt, err := doc.ClipPrompt()
	if err != nil {
		return services.Wrap(services.ErrValidation, "clip", "select prompt", err.Error(), nil)
	}
	if c.channel.ClipStyle != "" {
		prompt += "\n\nStyle: " + c.channel.ClipStyle
	}

	item.SetProgress("Clipping", "Rendering short clip", 20)
	prediction, err := c.client.Run(ctx, c.cfg.Models.Clip, map[string]any{
		"fps":          c.cfg.Compose.ClipFPS,
		"prompt":       prompt,
		"duration":     c.cfg.Compose.ClipDuration,
		"resolution":   c.cfg.Compose.ClipResolution,
		"aspect_ratio": "16:9",
		"camera_fixed": false,
	})
	if err != nil {
		return services.Wrap(services.ErrExternalService, "clip", "render clip", "clip generation failed", err)
	}
	clipURL, err := prediction.OutputURL()
	if err != nil {
		return services.Wrap(services.ErrExternalService, "clip", "render clip", "clip output unusable", err)
	}

	dest := c.project.ClipPath()
	if _, err := c.client.Download(ctx, clipURL, dest); err != nil {
		return services.Wrap(services.ErrTransient, "clip", "persist artifact", "download clip", err)
	}
	item.ClipFile = dest
	item.SetProgressComplete("Clipping", "Short clip ready")
	logger.Info("clip rendered", logging.String("path", dest))
	return nil
}

// HealthCheck verifies the media backend is configured.
func (c *Clipper) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(c.cfg.Replicate.APIToken) == "" {
		return stage.Unhealthy("clip", "replicate api token is not configured")
	}
	return stage.Healthy("clip")
}
