package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelsmith/internal/config"
)

const userAgent = "Reelsmith/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyProjectStarted(ctx context.Context, channel, title string) error
	NotifyScriptReady(ctx context.Context, title string) error
	NotifyVideoComposed(ctx context.Context, title string) error
	NotifyUploadCompleted(ctx context.Context, title, watchURL string) error
	NotifyReviewRequired(ctx context.Context, title, reason string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyProjectStarted(ctx context.Context, channel, title string) error {
	channel = strings.TrimSpace(channel)
	title = strings.TrimSpace(title)
	data := payload{
		title:   "Reelsmith - Project Started",
		message: fmt.Sprintf("Started: %s (%s)", title, channel),
		tags:    []string{"reelsmith", "project", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyScriptReady(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	data := payload{
		title:   "Reelsmith - Script Ready",
		message: fmt.Sprintf("Script written: %s", title),
		tags:    []string{"reelsmith", "script", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyVideoComposed(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	data := payload{
		title:   "Reelsmith - Video Composed",
		message: fmt.Sprintf("Video assembled: %s", title),
		tags:    []string{"reelsmith", "compose", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUploadCompleted(ctx context.Context, title, watchURL string) error {
	title = strings.TrimSpace(title)
	watchURL = strings.TrimSpace(watchURL)
	message := fmt.Sprintf("Published: %s", title)
	if watchURL != "" {
		message = fmt.Sprintf("%s\n%s", message, watchURL)
	}
	data := payload{
		title:    "Reelsmith - Upload Complete",
		message:  message,
		tags:     []string{"reelsmith", "upload", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyReviewRequired(ctx context.Context, title, reason string) error {
	title = strings.TrimSpace(title)
	reason = strings.TrimSpace(reason)
	message := fmt.Sprintf("Needs review: %s", title)
	if reason != "" {
		message = fmt.Sprintf("%s\nReason: %s", message, reason)
	}
	data := payload{
		title:   "Reelsmith - Review Required",
		message: message,
		tags:    []string{"reelsmith", "review"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Reelsmith - Error",
		message:  builder.String(),
		tags:     []string{"reelsmith", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Reelsmith - Test",
		message:  "Notification system test",
		tags:     []string{"reelsmith", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyProjectStarted(context.Context, string, string) error { return nil }
func (noopService) NotifyScriptReady(context.Context, string) error            { return nil }
func (noopService) NotifyVideoComposed(context.Context, string) error          { return nil }
func (noopService) NotifyUploadCompleted(context.Context, string, string) error {
	return nil
}
func (noopService) NotifyReviewRequired(context.Context, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error           { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
