package youtube

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

const (
	envClientID     = "YOUTUBE_CLIENT_ID"
	envClientSecret = "YOUTUBE_CLIENT_SECRET"
	envRefreshToken = "YOUTUBE_REFRESH_TOKEN"
)

// Config captures the upload defaults that are not per-channel.
type Config struct {
	CategoryID        string
	Privacy           string
	NotifySubscribers bool
	MadeForKids       bool
	DefaultLanguage   string
}

// Metadata is the published title, description, and tag set for a video.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
}

// Receipt records a completed upload.
type Receipt struct {
	VideoID    string    `json:"video_id"`
	WatchURL   string    `json:"watch_url"`
	Title      string    `json:"title"`
	Privacy    string    `json:"privacy"`
	PlaylistID string    `json:"playlist_id,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Client uploads videos using OAuth2 refresh-token credentials from the
// environment.
type Client struct {
	cfg Config
}

// NewClient constructs an upload client.
func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// CheckCredentials reports whether the OAuth environment variables are set.
func CheckCredentials() error {
	var missing []string
	for _, name := range []string{envClientID, envClientSecret, envRefreshToken} {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing environment credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Upload inserts the video, sets its thumbnail when provided, and returns a
// receipt with the watch URL. Privacy overrides the configured default when
// non-empty.
func (c *Client) Upload(ctx context.Context, videoPath, thumbnailPath string, meta Metadata, privacy string) (Receipt, error) {
	var empty Receipt
	if strings.TrimSpace(meta.Title) == "" {
		return empty, errors.New("upload: title required")
	}
	if err := CheckCredentials(); err != nil {
		return empty, fmt.Errorf("upload: %w", err)
	}

	svc, err := c.newService(ctx)
	if err != nil {
		return empty, fmt.Errorf("upload: youtube service: %w", err)
	}

	resolvedPrivacy := strings.TrimSpace(privacy)
	if resolvedPrivacy == "" {
		resolvedPrivacy = c.cfg.Privacy
	}
	video := buildVideo(meta, c.cfg, resolvedPrivacy)

	file, err := os.Open(videoPath)
	if err != nil {
		return empty, fmt.Errorf("upload: open video: %w", err)
	}
	defer file.Close()

	call := svc.Videos.Insert([]string{"snippet", "status"}, video)
	call.Media(file)
	call.NotifySubscribers(c.cfg.NotifySubscribers)

	uploaded, err := call.Do()
	if err != nil {
		return empty, fmt.Errorf("upload: insert video: %w", err)
	}

	if strings.TrimSpace(thumbnailPath) != "" {
		thumb, err := os.Open(thumbnailPath)
		if err != nil {
			return empty, fmt.Errorf("upload: open thumbnail: %w", err)
		}
		defer thumb.Close()
		thumbCall := svc.Thumbnails.Set(uploaded.Id)
		thumbCall.Media(thumb)
		if _, err := thumbCall.Do(); err != nil {
			return empty, fmt.Errorf("upload: set thumbnail: %w", err)
		}
	}

	return Receipt{
		VideoID:    uploaded.Id,
		WatchURL:   "https://www.youtube.com/watch?v=" + uploaded.Id,
		Title:      meta.Title,
		Privacy:    resolvedPrivacy,
		UploadedAt: time.Now().UTC(),
	}, nil
}

// AddToPlaylist appends an uploaded video to a channel playlist.
func (c *Client) AddToPlaylist(ctx context.Context, playlistID, videoID string) error {
	if strings.TrimSpace(playlistID) == "" {
		return errors.New("playlist: playlist id required")
	}
	if strings.TrimSpace(videoID) == "" {
		return errors.New("playlist: video id required")
	}
	svc, err := c.newService(ctx)
	if err != nil {
		return fmt.Errorf("playlist: youtube service: %w", err)
	}

	entry := &yt.PlaylistItem{
		Snippet: &yt.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &yt.ResourceId{
				Kind:    "youtube#video",
				VideoId: videoID,
			},
		},
	}
	if _, err := svc.PlaylistItems.Insert([]string{"snippet"}, entry).Context(ctx).Do(); err != nil {
		return fmt.Errorf("playlist: insert item: %w", err)
	}
	return nil
}

func (c *Client) newService(ctx context.Context) (*yt.Service, error) {
	conf := &oauth2.Config{
		ClientID:     os.Getenv(envClientID),
		ClientSecret: os.Getenv(envClientSecret),
		Endpoint:     google.Endpoint,
		Scopes:       []string{yt.YoutubeUploadScope, yt.YoutubeScope},
	}
	token := &oauth2.Token{
		RefreshToken: os.Getenv(envRefreshToken),
		// Force an immediate refresh; only the refresh token is persisted.
		Expiry: time.Now().Add(-time.Hour),
	}
	source := conf.TokenSource(ctx, token)
	return yt.NewService(ctx, option.WithTokenSource(source))
}

func buildVideo(meta Metadata, cfg Config, privacy string) *yt.Video {
	tags := make([]string, 0, len(meta.Tags))
	for _, tag := range meta.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return &yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:                strings.TrimSpace(meta.Title),
			Description:          meta.Description,
			Tags:                 tags,
			CategoryId:           cfg.CategoryID,
			DefaultLanguage:      cfg.DefaultLanguage,
			DefaultAudioLanguage: cfg.DefaultLanguage,
		},
		Status: &yt.VideoStatus{
			PrivacyStatus:           privacy,
			SelfDeclaredMadeForKids: cfg.MadeForKids,
			// ForceSendFields keeps false values on the wire.
			ForceSendFields: []string{"SelfDeclaredMadeForKids"},
		},
	}
}
