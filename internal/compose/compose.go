package compose

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"reelsmith/internal/channels"
	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/queue"
	"reelsmith/internal/scriptdoc"
	"reelsmith/internal/services"
	"reelsmith/internal/services/ffmpeg"
	"reelsmith/internal/stage"
	"reelsmith/internal/workspace"
)

// clipIndex is the timeline position the short clip replaces: the intro
// section, directly after the hook.
const clipIndex = 1

type videoAssembler interface {
	Available() error
	ProbeDuration(ctx context.Context, path string) (float64, error)
	ConcatAudio(ctx context.Context, inputs []string, output string) error
	Compose(ctx context.Context, req ffmpeg.ComposeRequest) error
}

// Composer assembles the final video artifact.
type Composer struct {
	cfg     *config.Config
	channel channels.Channel
	project workspace.Project
	ffmpeg  videoAssembler
	logger  *slog.Logger
}

// NewComposer constructs the compose stage handler driving the system ffmpeg.
func NewComposer(cfg *config.Config, channel channels.Channel, project workspace.Project) *Composer {
	return NewComposerWithAssembler(cfg, channel, project, ffmpeg.NewClient(
		ffmpeg.WithFFmpegBinary(cfg.FFmpegBinary()),
		ffmpeg.WithFFprobeBinary(cfg.FFprobeBinary()),
	))
}

// NewComposerWithAssembler allows injecting the assembler (used in tests).
func NewComposerWithAssembler(cfg *config.Config, channel channels.Channel, project workspace.Project, assembler videoAssembler) *Composer {
	return &Composer{cfg: cfg, channel: channel, project: project, ffmpeg: assembler, logger: logging.NewNop()}
}

// SetLogger installs the scoped logger used during execution.
func (c *Composer) SetLogger(logger *slog.Logger) {
	if logger == nil {
		c.logger = logging.NewNop()
		return
	}
	c.logger = logging.NewComponentLogger(logger, "compose")
}

func (c *Composer) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, c.logger)
	item.InitProgress("Composing", "Preparing video assembly")

	if _, err := os.Stat(c.project.ScriptPath()); err != nil {
		return services.MissingInput("compose", workspace.ScriptFile)
	}
	if _, err := os.Stat(c.project.AudioDirPath()); err != nil {
		return services.MissingInput("compose", workspace.AudioDir)
	}
	if _, err := os.Stat(c.project.ImagesDirPath()); err != nil {
		return services.MissingInput("compose", workspace.ImagesDir)
	}
	if _, err := os.Stat(c.project.ClipPath()); err != nil {
		return services.MissingInput("compose", workspace.ClipFile)
	}
	if c.channel.MusicPath != "" {
		if _, err := os.Stat(c.channel.MusicPath); err != nil {
			return services.Wrap(services.ErrConfiguration, "compose", "validate inputs",
				fmt.Sprintf("channel music file %q is missing", c.channel.MusicPath), nil)
		}
	}
	if c.channel.AvatarEnabled() {
		if _, err := os.Stat(c.channel.AvatarDir); err != nil {
			return services.Wrap(services.ErrConfiguration, "compose", "validate inputs",
				fmt.Sprintf("channel avatar directory %q is missing", c.channel.AvatarDir), nil)
		}
	}
	logger.Info("starting compose preparation")
	return nil
}

func (c *Composer) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, c.logger)

	scriptData, err := os.ReadFile(c.project.ScriptPath())
	if err != nil {
		return services.Wrap(services.ErrTransient, "compose", "read script", "script artifact unreadable", err)
	}
	sections, err := scriptdoc.Sections(string(scriptData))
	if err != nil {
		return services.Wrap(services.ErrValidation, "compose", "split script", err.Error(), nil)
	}
	order := make([]string, len(sections))
	for i, section := range sections {
		order[i] = section.Name
	}

	audioPaths, err := c.project.ListAudioSections(order, c.cfg.Speech.AudioFormat)
	if err != nil {
		return services.MissingInput("compose", workspace.AudioDir)
	}
	images, err := c.project.ListImages()
	if err != nil || len(images) == 0 {
		return services.MissingInput("compose", workspace.ImagesDir)
	}

	item.SetProgress("Composing", "Measuring narration", 10)
	segments, err := c.buildSegments(ctx, order, audioPaths, images)
	if err != nil {
		return err
	}

	narration := filepath.Join(c.project.Dir(), ".narration."+c.cfg.Speech.AudioFormat)
	defer os.Remove(narration)
	item.SetProgress("Composing", "Concatenating narration", 30)
	if err := c.ffmpeg.ConcatAudio(ctx, audioPaths, narration); err != nil {
		return services.Wrap(services.ErrExternalService, "compose", "concat narration", "ffmpeg concat failed", err)
	}

	width, height, err := parseResolution(c.cfg.Compose.Resolution)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "compose", "parse resolution", err.Error(), nil)
	}

	staged := filepath.Join(c.project.Dir(), ".video.part.mp4")
	defer os.Remove(staged)
	item.SetProgress("Composing", "Rendering timeline", 50)
	err = c.ffmpeg.Compose(ctx, ffmpeg.ComposeRequest{
		Segments:          segments,
		AudioPath:         narration,
		MusicPath:         c.channel.MusicPath,
		MusicVolume:       c.cfg.Compose.MusicVolume,
		Width:             width,
		Height:            height,
		FPS:               c.cfg.Compose.FPS,
		TransitionSeconds: c.cfg.Compose.TransitionSeconds,
		OutputPath:        staged,
	})
	if err != nil {
		return services.Wrap(services.ErrExternalService, "compose", "render timeline", "ffmpeg compose failed", err)
	}

	dest := c.project.VideoPath()
	if err := workspace.PublishFile(staged, dest); err != nil {
		return services.Wrap(services.ErrTransient, "compose", "persist artifact", "publish video", err)
	}
	item.VideoFile = dest
	item.SetProgressComplete("Composing", fmt.Sprintf("Video assembled (%d segments)", len(segments)))
	logger.Info("video composed", logging.String("path", dest), logging.Int("segments", len(segments)))
	return nil
}

// HealthCheck verifies ffmpeg and ffprobe are on PATH.
func (c *Composer) HealthCheck(ctx context.Context) stage.Health {
	if err := c.ffmpeg.Available(); err != nil {
		return stage.Unhealthy("compose", err.Error())
	}
	return stage.Healthy("compose")
}

// buildSegments pairs section audio with visuals by index: one still per
// section, the last still reused when audio outnumbers images, and the short
// clip spliced in at clipIndex. Each segment runs for its section's narration
// duration. When the channel carries an avatar, every segment gets a pose
// overlay alternating between the left and right edges of the frame.
func (c *Composer) buildSegments(ctx context.Context, order []string, audioPaths, images []string) ([]ffmpeg.Segment, error) {
	clipPath := c.project.ClipPath()
	avatar := c.channel.AvatarEnabled()
	segments := make([]ffmpeg.Segment, 0, len(audioPaths))
	for i, audioPath := range audioPaths {
		duration, err := c.ffmpeg.ProbeDuration(ctx, audioPath)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalService, "compose", "probe "+order[i], "ffprobe failed", err)
		}
		segment := ffmpeg.Segment{Duration: duration}
		if i == clipIndex {
			segment.Path = clipPath
			segment.IsVideo = true
		} else {
			imageIdx := i
			if imageIdx >= len(images) {
				imageIdx = len(images) - 1
			}
			segment.Path = images[imageIdx]
		}
		if avatar {
			pose, err := avatarAsset(c.channel.AvatarDir, order[i], i)
			if err != nil {
				return nil, services.Wrap(services.ErrConfiguration, "compose", "select avatar", err.Error(), nil)
			}
			segment.AvatarPath = pose
			segment.AvatarOnLeft = i%2 == 0
		}
		segments = append(segments, segment)
	}
	return segments, nil
}

func parseResolution(value string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(value)), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("resolution %q is not in WIDTHxHEIGHT form", value)
	}
	width, err := strconv.Atoi(parts[0])
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("resolution %q has an invalid width", value)
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("resolution %q has an invalid height", value)
	}
	return width, height, nil
}
