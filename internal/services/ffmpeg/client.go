package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// Client wraps the ffmpeg and ffprobe command-line tools.
type Client struct {
	ffmpegBin  string
	ffprobeBin string
}

// Option configures the client.
type Option func(*Client)

// WithFFmpegBinary overrides the default ffmpeg binary name.
func WithFFmpegBinary(binary string) Option {
	return func(c *Client) {
		if binary != "" {
			c.ffmpegBin = binary
		}
	}
}

// WithFFprobeBinary overrides the default ffprobe binary name.
func WithFFprobeBinary(binary string) Option {
	return func(c *Client) {
		if binary != "" {
			c.ffprobeBin = binary
		}
	}
}

// NewClient constructs a client using defaults.
func NewClient(opts ...Option) *Client {
	client := &Client{ffmpegBin: "ffmpeg", ffprobeBin: "ffprobe"}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Available verifies both binaries can be found on PATH.
func (c *Client) Available() error {
	if _, err := exec.LookPath(c.ffmpegBin); err != nil {
		return fmt.Errorf("ffmpeg not found: %w", err)
	}
	if _, err := exec.LookPath(c.ffprobeBin); err != nil {
		return fmt.Errorf("ffprobe not found: %w", err)
	}
	return nil
}

// ProbeDuration returns the duration of a media file in seconds.
func (c *Client) ProbeDuration(ctx context.Context, path string) (float64, error) {
	if strings.TrimSpace(path) == "" {
		return 0, errors.New("media path required")
	}
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	cmd := commandContext(ctx, c.ffprobeBin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w (%s)", path, err, strings.TrimSpace(stderr.String()))
	}
	raw := strings.TrimSpace(stdout.String())
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: parse duration %q: %w", path, raw, err)
	}
	return duration, nil
}

// ConcatAudio joins the input audio files in order into a single output file
// using the concat demuxer.
func (c *Client) ConcatAudio(ctx context.Context, inputs []string, output string) error {
	if len(inputs) == 0 {
		return errors.New("no audio inputs provided")
	}
	if strings.TrimSpace(output) == "" {
		return errors.New("output path required")
	}
	for _, input := range inputs {
		if _, err := os.Stat(input); err != nil {
			return fmt.Errorf("audio input %s: %w", input, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	listFile, err := writeConcatList(inputs, filepath.Dir(output))
	if err != nil {
		return err
	}
	defer os.Remove(listFile)

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		output,
	}
	return c.runFFmpeg(ctx, args, "concat audio")
}

func writeConcatList(inputs []string, dir string) (string, error) {
	file, err := os.CreateTemp(dir, "concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("create concat list: %w", err)
	}
	defer file.Close()

	for _, input := range inputs {
		abs, err := filepath.Abs(input)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", input, err)
		}
		escaped := strings.ReplaceAll(abs, "'", `'\''`)
		if _, err := fmt.Fprintf(file, "file '%s'\n", escaped); err != nil {
			return "", fmt.Errorf("write concat list: %w", err)
		}
	}
	return file.Name(), nil
}

func (c *Client) runFFmpeg(ctx context.Context, args []string, op string) error {
	cmd := commandContext(ctx, c.ffmpegBin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if len(detail) > 500 {
			detail = detail[len(detail)-500:]
		}
		return fmt.Errorf("ffmpeg %s: %w (%s)", op, err, detail)
	}
	return nil
}
