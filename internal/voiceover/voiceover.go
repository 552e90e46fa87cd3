package voiceover

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
	"reelsmith/internal/queue"
	"reelsmith/internal/scriptdoc"
	"reelsmith/internal/services"
	"reelsmith/internal/services/replicate"
	"reelsmith/internal/stage"
	"reelsmith/internal/workspace"
)

type mediaClient interface {
	Run(ctx context.Context, model string, input map[string]any) (*replicate.Prediction, error)
	Download(ctx context.Context, fileURL, destPath string) (int64, error)
}

// Voicer renders the narration audio artifacts, one file per script section.
type Voicer struct {
	cfg     *config.Config
	channel channels.Channel
	project workspace.Project
	client  mediaClient
	logger  *slog.Logger
}

// NewVoicer constructs the voice stage handler with the configured
// generative-media client.
func NewVoicer(cfg *config.Config, channel channels.Channel, project workspace.Project) *Voicer {
	client := replicate.NewClient(replicate.Config{
		APIToken:              cfg.Replicate.APIToken,
		BaseURL:               cfg.Replicate.BaseURL,
		PollIntervalSeconds:   cfg.Replicate.PollIntervalSeconds,
		PredictionTimeoutSecs: cfg.Replicate.PredictionTimeoutSecs,
	})
	return NewVoicerWithClient(cfg, channel, project, client)
}

// NewVoicerWithClient allows injecting the media client (used in tests).
func NewVoicerWithClient(cfg *config.Config, channel channels.Channel, project workspace.Project, client mediaClient) *Voicer {
	return &Voicer{cfg: cfg, channel: channel, project: project, client: client, logger: logging.NewNop()}
}

// SetLogger installs the scoped logger used during execution.
func (v *Voicer) SetLogger(logger *slog.Logger) {
	if logger == nil {
		v.logger = logging.NewNop()
		return
	}
	v.logger = logging.NewComponentLogger(logger, "voice")
}

func (v *Voicer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, v.logger)
	item.InitProgress("Voicing", "Preparing voice synthesis")
	if _, err := os.Stat(v.project.ScriptPath()); err != nil {
		return services.MissingInput("voice", workspace.ScriptFile)
	}
	logger.Info("starting voice preparation", logging.String("voice_id", v.voiceID()))
	return nil
}

func (v *Voicer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, v.logger)

	scriptData, err := os.ReadFile(v.project.ScriptPath())
	if err != nil {
		return services.Wrap(services.ErrTransient, "voice", "read script", "script artifact unreadable", err)
	}
	sections, err := scriptdoc.Sections(string(scriptData))
	if err != nil {
		return services.Wrap(services.ErrValidation, "voice", "split script", err.Error(), nil)
	}

	format := v.cfg.Speech.AudioFormat
	names := make([]string, 0, len(sections))
	for i, section := range sections {
		percent := float64(i) / float64(len(sections)) * 100
		item.SetProgress("Voicing", fmt.Sprintf("Synthesizing %s (%d/%d)", section.Name, i+1, len(sections)), percent)

		prediction, err := v.client.Run(ctx, v.cfg.Models.Speech, v.speechInput(section.Text))
		if err != nil {
			return services.Wrap(services.ErrExternalService, "voice", "synthesize "+section.Name, "speech synthesis failed", err)
		}
		audioURL, err := prediction.OutputURL()
		if err != nil {
			return services.Wrap(services.ErrExternalService, "voice", "synthesize "+section.Name, "speech output unusable", err)
		}
		dest := v.project.AudioSectionPath(section.Name, format)
		if _, err := v.client.Download(ctx, audioURL, dest); err != nil {
			return services.Wrap(services.ErrTransient, "voice", "persist "+section.Name, "download audio", err)
		}
		names = append(names, section.Name)
		logger.Info("section synthesized", logging.String("section", section.Name), logging.String("path", dest))
	}

	manifest, err := json.Marshal(names)
	if err != nil {
		return services.Wrap(services.ErrTransient, "voice", "encode manifest", "marshal section manifest", err)
	}
	item.AudioJSON = string(manifest)
	item.SetProgressComplete("Voicing", fmt.Sprintf("Narration ready (%d sections)", len(names)))
	return nil
}

// HealthCheck verifies the media backend is configured.
func (v *Voicer) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(v.cfg.Replicate.APIToken) == "" {
		return stage.Unhealthy("voice", "replicate api token is not configured")
	}
	return stage.Healthy("voice")
}

func (v *Voicer) voiceID() string {
	if v.channel.VoiceID != "" {
		return v.channel.VoiceID
	}
	return channels.DefaultVoiceID
}

func (v *Voicer) speechInput(text string) map[string]any {
	return map[string]any{
		"text":                  text,
		"pitch":                 0,
		"speed":                 v.cfg.Speech.Speed,
		"volume":                1,
		"bitrate":               v.cfg.Speech.Bitrate,
		"channel":               "mono",
		"emotion":               v.cfg.Speech.Emotion,
		"voice_id":              v.voiceID(),
		"sample_rate":           v.cfg.Speech.SampleRate,
		"audio_format":          v.cfg.Speech.AudioFormat,
		"language_boost":        "English",
		"subtitle_enable":       false,
		"english_normalization": true,
	}
}
