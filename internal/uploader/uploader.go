package uploader

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
	"reelsmith/internal/metadatagen"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/services/youtube"
	"reelsmith/internal/stage"
	"reelsmith/internal/workspace"
)

type uploadClient interface {
	Upload(ctx context.Context, videoPath, thumbnailPath string, meta youtube.Metadata, privacy string) (youtube.Receipt, error)
	AddToPlaylist(ctx context.Context, playlistID, videoID string) error
}

// Uploader publishes the finished video and records the receipt artifact.
type Uploader struct {
	cfg              *config.Config
	channel          channels.Channel
	project          workspace.Project
	client           uploadClient
	checkCredentials func() error
	logger           *slog.Logger
}

// NewUploader constructs the upload stage handler with the configured
// YouTube client.
func NewUploader(cfg *config.Config, channel channels.Channel, project workspace.Project) *Uploader {
	client := youtube.NewClient(youtube.Config{
		CategoryID:        categoryID(cfg, channel),
		Privacy:           cfg.YouTube.Privacy,
		NotifySubscribers: cfg.YouTube.NotifySubscribers,
		MadeForKids:       cfg.YouTube.MadeForKids,
		DefaultLanguage:   defaultLanguage(cfg, channel),
	})
	return NewUploaderWithClient(cfg, channel, project, client)
}

// NewUploaderWithClient allows injecting the upload client (used in tests).
func NewUploaderWithClient(cfg *config.Config, channel channels.Channel, project workspace.Project, client uploadClient) *Uploader {
	return &Uploader{
		cfg:              cfg,
		channel:          channel,
		project:          project,
		client:           client,
		checkCredentials: youtube.CheckCredentials,
		logger:           logging.NewNop(),
	}
}

// SetLogger installs the scoped logger used during execution.
func (u *Uploader) SetLogger(logger *slog.Logger) {
	if logger == nil {
		u.logger = logging.NewNop()
		return
	}
	u.logger = logging.NewComponentLogger(logger, "upload")
}

// SetCredentialCheck overrides credential detection (used in tests).
func (u *Uploader) SetCredentialCheck(check func() error) {
	u.checkCredentials = check
}

func (u *Uploader) Prepare(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, u.logger)
	item.InitProgress("Uploading", "Preparing upload")

	if _, err := os.Stat(u.project.VideoPath()); err != nil {
		return services.MissingInput("upload", workspace.VideoFile)
	}
	if _, err := os.Stat(u.project.ThumbnailPath()); err != nil {
		return services.MissingInput("upload", workspace.ThumbnailFile)
	}
	if _, err := os.Stat(u.project.MetadataPath()); err != nil {
		return services.MissingInput("upload", workspace.MetadataFile)
	}
	if u.channel.UploadEnabled() {
		if err := u.checkCredentials(); err != nil {
			return services.Wrap(services.ErrConfiguration, "upload", "check credentials", err.Error(), nil)
		}
	}
	logger.Info("starting upload preparation", logging.Bool("upload_enabled", u.channel.UploadEnabled()))
	return nil
}

func (u *Uploader) Execute(ctx context.Context, item *queue.Item) error {
	logger := logging.WithContext(ctx, u.logger)

	if !u.channel.UploadEnabled() {
		item.SetProgressComplete("Uploading", "Upload disabled for channel; skipped")
		logger.Info("upload skipped", logging.String("channel", u.channel.Name))
		return nil
	}

	meta, err := u.loadMetadata()
	if err != nil {
		return err
	}

	item.SetProgress("Uploading", "Uploading video", 20)
	receipt, err := u.client.Upload(ctx, u.project.VideoPath(), u.project.ThumbnailPath(), meta, u.privacy())
	if err != nil {
		return services.Wrap(services.ErrExternalService, "upload", "upload video", "upload failed", err)
	}

	if u.channel.PlaylistID != "" {
		item.SetProgress("Uploading", "Adding to playlist", 90)
		if err := u.client.AddToPlaylist(ctx, u.channel.PlaylistID, receipt.VideoID); err != nil {
			// The video is already published; losing the playlist entry is
			// not worth re-uploading on retry.
			logger.Warn("playlist insert failed",
				logging.String("playlist_id", u.channel.PlaylistID),
				logging.Error(err),
			)
		} else {
			receipt.PlaylistID = u.channel.PlaylistID
		}
	}

	data, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrTransient, "upload", "encode receipt", "marshal receipt", err)
	}
	path := u.project.ReceiptPath()
	if err := workspace.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "upload", "persist artifact", "write receipt", err)
	}

	item.ReceiptFile = path
	item.UploadID = receipt.VideoID
	item.UploadURL = receipt.WatchURL
	item.SetProgressComplete("Uploading", fmt.Sprintf("Published as %s", receipt.VideoID))
	logger.Info("video uploaded",
		logging.String("video_id", receipt.VideoID),
		logging.String("watch_url", receipt.WatchURL),
		logging.String("privacy", receipt.Privacy),
	)
	return nil
}

// HealthCheck verifies upload credentials are present when the channel
// publishes.
func (u *Uploader) HealthCheck(ctx context.Context) stage.Health {
	if !u.channel.UploadEnabled() {
		return stage.Healthy("upload")
	}
	if err := u.checkCredentials(); err != nil {
		return stage.Unhealthy("upload", err.Error())
	}
	return stage.Healthy("upload")
}

func (u *Uploader) loadMetadata() (youtube.Metadata, error) {
	data, err := os.ReadFile(u.project.MetadataPath())
	if err != nil {
		return youtube.Metadata{}, services.Wrap(services.ErrTransient, "upload", "read metadata", "metadata artifact unreadable", err)
	}
	var doc metadatagen.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return youtube.Metadata{}, services.Wrap(services.ErrValidation, "upload", "parse metadata", "metadata artifact is not valid JSON", err)
	}
	title := strings.TrimSpace(doc.Metadata.Title)
	if title == "" {
		title = strings.TrimSpace(doc.VideoTitle)
	}
	if title == "" {
		return youtube.Metadata{}, services.Wrap(services.ErrValidation, "upload", "parse metadata", "metadata artifact has no title", nil)
	}
	return youtube.Metadata{
		Title:       title,
		Description: doc.Metadata.Description,
		Tags:        doc.Metadata.Tags,
	}, nil
}

func (u *Uploader) privacy() string {
	if u.channel.Privacy != "" {
		return u.channel.Privacy
	}
	return u.cfg.YouTube.Privacy
}

func categoryID(cfg *config.Config, channel channels.Channel) string {
	if channel.CategoryID != "" {
		return channel.CategoryID
	}
	return cfg.YouTube.CategoryID
}

func defaultLanguage(cfg *config.Config, channel channels.Channel) string {
	if channel.Language != "" {
		return channel.Language
	}
	return cfg.YouTube.DefaultLanguage
}
