package imagery

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
	"reelsmith/internal/services/replicate"
	"reelsmith/internal/stage"
	"reelsmith/internal/workspace"
)

type mediaClient interface {
	Run(ctx context.Context, model string, input map[string]any) (*replicate.Prediction, error)
	Download(ctx context.Context, fileURL, destPath string) (int64, error)
}

// Imager renders the still-image artifacts for the timeline.
type Imager struct {
	cfg     *config.Config
	channel channels.Channel
	project workspace.Project
	client  mediaClient
	logger  *slog.Logger
}

// NewImager constructs the images stage handler with the configured
// generative-media client.
func NewImager(cfg *config.Config, channel channels.Channel, project workspace.Project) *Imager {
	client := replicate.NewClient(replicate.Config{
		APIToken:              cfg.Replicate.APIToken,
		BaseURL:               cfg.Replicate.BaseURL,
		PollIntervalSeconds:   cfg.Replicate.PollIntervalSeconds,
		PredictionTimeoutSecs: cfg.Replicate.PredictionTimeoutSecs,
	})
	return NewImagerWithClient(cfg, channel, project, client)
}

// NewImagerWithClient allows injecting the media client (used in tests).
func NewImagerWithClient(cfg *config.Config, channel channels.Channel, project workspace.Project, client mediaClient) *Imager {
	return &Imager{cfg: cfg, channel: channel, project: project, client: client, logger: logging.NewNop()}
}

// SetLogger installs the scoped logger used during execution.
func (m *Imager) SetLogger(logger *slog.Logger) {
	if logger == nil {
		m.logger = logging.NewNop()
		return
	}
	m.logger = logging.NewComponentLogger(logger, "images")
}

func (m *Imager) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, m.logger)
	item.InitProgress("Imaging", "Preparing image generation")
	if _, err := os.Stat(m.project.PlanPath()); err != nil {
		return services.MissingInput("images", workspace.PlanFile)
	}
	logger.Info("starting image preparation")
	return nil
}

func (m *Imager) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, m.logger)

	doc, err := m.loadPlan()
	if err != nil {
		return err
	}

	var paths []string
	for idx, entry := range doc.Entries {
		prompt := strings.TrimSpace(entry.ImagePrompt)
		if !entry.HasTimestamp() || prompt == "" {
			logger.Info("skipping plan entry without timestamp or prompt", logging.Int("entry", idx+1))
			continue
		}
		percent := float64(idx) / float64(len(doc.Entries)) * 100
		item.SetProgress("Imaging", fmt.Sprintf("Rendering image %d/%d", idx+1, len(doc.Entries)), percent)

		prediction, err := m.client.Run(ctx, m.cfg.Models.Image, map[string]any{"prompt": m.styledPrompt(prompt)})
		if err != nil {
			return services.Wrap(services.ErrExternalService, "images", fmt.Sprintf("render entry %d", idx+1), "image generation failed", err)
		}
		imageURL, err := prediction.OutputURL()
		if err != nil {
			return services.Wrap(services.ErrExternalService, "images", fmt.Sprintf("render entry %d", idx+1), "image output unusable", err)
		}
		dest := m.project.ImagePath(idx+1, *entry.Timestamp)
		if _, err := m.client.Download(ctx, imageURL, dest); err != nil {
			return services.Wrap(services.ErrTransient, "images", fmt.Sprintf("persist entry %d", idx+1), "download image", err)
		}
		paths = append(paths, dest)
		logger.Info("image rendered", logging.Int("entry", idx+1), logging.String("path", dest))
	}

	if len(paths) == 0 {
		return services.Wrap(services.ErrValidation, "images", "collect output",
			"no plan entry had both a timestamp and a prompt; re-run the plan stage", nil)
	}

	manifest, err := json.Marshal(paths)
	if err != nil {
		return services.Wrap(services.ErrTransient, "images", "encode manifest", "marshal image manifest", err)
	}
	item.ImagesJSON = string(manifest)
	item.SetProgressComplete("Imaging", fmt.Sprintf("Rendered %d images", len(paths)))
	return nil
}

// HealthCheck verifies the media backend is configured.
func (m *Imager) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(m.cfg.Replicate.APIToken) == "" {
		return stage.Unhealthy("images", "replicate api token is not configured")
	}
	return stage.Healthy("images")
}

func (m *Imager) loadPlan() (plan.Plan, error) {
	data, err := os.ReadFile(m.project.PlanPath())
	if err != nil {
		return plan.Plan{}, services.Wrap(services.ErrTransient, "images", "read plan", "media plan unreadable", err)
	}
	doc, err := plan.Parse(data)
	if err != nil {
		return plan.Plan{}, services.Wrap(services.ErrValidation, "images", "parse plan", err.Error(), nil)
	}
	return doc, nil
}

func (m *Imager) styledPrompt(prompt string) string {
	if m.channel.ImageStyle == "" {
		return prompt
	}
	return prompt + "\n\nStyle: " + m.channel.ImageStyle
}
