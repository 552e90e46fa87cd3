package thumbnail

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
	"reelsmith/internal/services/replicate"
	"reelsmith/internal/stage"
	"reelsmith/internal/workspace"
)

type mediaClient interface {
	Run(ctx context.Context, model string, input map[string]any) (*replicate.Prediction, error)
	Download(ctx context.Context, fileURL, destPath string) (int64, error)
}

const styleGuidance = "high-impact YouTube thumbnail, cinematic depth, bold focal subject, " +
	"dramatic lighting, clear contrast, vibrant yet professional palette, clean negative " +
	"space for title placement, modern and trustworthy aesthetic"

// Thumbnailer renders the thumbnail artifact.
type Thumbnailer struct {
	cfg     *config.Config
	channel channels.Channel
	project workspace.Project
	client  mediaClient
	logger  *slog.Logger
}

// NewThumbnailer constructs the thumbnail stage handler with the configured
// generative-media client.
func NewThumbnailer(cfg *config.Config, channel channels.Channel, project workspace.Project) *Thumbnailer {
	client := replicate.NewClient(replicate.Config{
		APIToken:              cfg.Replicate.APIToken,
		BaseURL:               cfg.Replicate.BaseURL,
		PollIntervalSeconds:   cfg.Replicate.PollIntervalSeconds,
		PredictionTimeoutSecs: cfg.Replicate.PredictionTimeoutSecs,
	})
	return NewThumbnailerWithClient(cfg, channel, project, client)
}

// NewThumbnailerWithClient allows injecting the media client (used in tests).
func NewThumbnailerWithClient(cfg *config.Config, channel channels.Channel, project workspace.Project, client mediaClient) *Thumbnailer {
	return &Thumbnailer{cfg: cfg, channel: channel, project: project, client: client, logger: logging.NewNop()}
}

// SetLogger installs the scoped logger used during execution.
func (t *Thumbnailer) SetLogger(logger *slog.Logger) {
	if logger == nil {
		t.logger = logging.NewNop()
		return
	}
	t.logger = logging.NewComponentLogger(logger, "thumbnail")
}

func (t *Thumbnailer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)
	item.InitProgress("Thumbnailing", "Preparing thumbnail generation")
	if strings.TrimSpace(item.Title) == "" {
		return services.Wrap(services.ErrValidation, "thumbnail", "validate inputs", "project has no title", nil)
	}
	logger.Info("starting thumbnail preparation", logging.String("title", item.Title))
	return nil
}

func (t *Thumbnailer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, t.logger)
	item.SetProgress("Thumbnailing", "Rendering thumbnail", 20)

	prediction, err := t.client.Run(ctx, t.cfg.Models.Thumbnail, map[string]any{
		"prompt":              buildPrompt(item.Title),
		"aspect_ratio":        "16:9",
		"output_format":       "jpg",
		"safety_filter_level": "block_only_high",
	})
	if err != nil {
		return services.Wrap(services.ErrExternalService, "thumbnail", "render thumbnail", "thumbnail generation failed", err)
	}
	imageURL, err := prediction.OutputURL()
	if err != nil {
		return services.Wrap(services.ErrExternalService, "thumbnail", "render thumbnail", "thumbnail output unusable", err)
	}

	dest := t.project.ThumbnailPath()
	if _, err := t.client.Download(ctx, imageURL, dest); err != nil {
		return services.Wrap(services.ErrTransient, "thumbnail", "persist artifact", "download thumbnail", err)
	}
	item.ThumbnailFile = dest
	item.SetProgressComplete("Thumbnailing", "Thumbnail ready")
	logger.Info("thumbnail rendered", logging.String("path", dest))
	return nil
}

// HealthCheck verifies the media backend is configured.
func (t *Thumbnailer) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(t.cfg.Replicate.APIToken) == "" {
		return stage.Unhealthy("thumbnail", "replicate api token is not configured")
	}
	return stage.Healthy("thumbnail")
}

func buildPrompt(title string) string {
	return fmt.Sprintf(
		"Eye-catching YouTube thumbnail about: %s. Include a clear focal subject and composition that quickly communicates the topic.\n\n%s",
		title, styleGuidance)
}
