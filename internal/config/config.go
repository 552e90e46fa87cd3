package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and registry file configuration.
type Paths struct {
	WorkspaceDir string `toml:"workspace_dir"`
	LogDir       string `toml:"log_dir"`
	ChannelsFile string `toml:"channels_file"`
}

// LLM contains connection settings for the text-generation service used by
// the outline, script, plan, and metadata stages.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Replicate contains connection settings for the generative-media backend
// hosting the speech, image, clip, thumbnail, and transcription models.
type Replicate struct {
	APIToken              string `toml:"api_token"`
	BaseURL               string `toml:"base_url"`
	PollIntervalSeconds   int    `toml:"poll_interval_seconds"`
	PredictionTimeoutSecs int    `toml:"prediction_timeout_seconds"`
}

// Models maps each generative concern to a backend model identifier.
type Models struct {
	Speech     string `toml:"speech"`
	Image      string `toml:"image"`
	Clip       string `toml:"clip"`
	Thumbnail  string `toml:"thumbnail"`
	Transcribe string `toml:"transcribe"`
}

// Speech contains voice synthesis parameters shared by all channels.
type Speech struct {
	AudioFormat string  `toml:"audio_format"`
	Emotion     string  `toml:"emotion"`
	SampleRate  int     `toml:"sample_rate"`
	Bitrate     int     `toml:"bitrate"`
	Speed       float64 `toml:"speed"`
}

// Compose contains video assembly parameters.
type Compose struct {
	FPS               int     `toml:"fps"`
	Resolution        string  `toml:"resolution"`
	TransitionSeconds float64 `toml:"transition_seconds"`
	MusicVolume       float64 `toml:"music_volume"`
	ClipDuration      int     `toml:"clip_duration"`
	ClipFPS           int     `toml:"clip_fps"`
	ClipResolution    string  `toml:"clip_resolution"`
}

// YouTube contains upload settings. OAuth credentials come from the
// environment (YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET,
// YOUTUBE_REFRESH_TOKEN), never from the config file.
type YouTube struct {
	CategoryID        string `toml:"category_id"`
	Privacy           string `toml:"privacy"`
	NotifySubscribers bool   `toml:"notify_subscribers"`
	MadeForKids       bool   `toml:"made_for_kids"`
	DefaultLanguage   string `toml:"default_language"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications contains push notification settings. An empty topic disables
// notifications entirely.
type Notifications struct {
	NtfyTopic          string `toml:"ntfy_topic"`
	RequestTimeoutSecs int    `toml:"request_timeout_seconds"`
}

// Config encapsulates all configuration values for reelsmith.
type Config struct {
	Paths         Paths         `toml:"paths"`
	LLM           LLM           `toml:"llm"`
	Replicate     Replicate     `toml:"replicate"`
	Models        Models        `toml:"models"`
	Speech        Speech        `toml:"speech"`
	Compose       Compose       `toml:"compose"`
	YouTube       YouTube       `toml:"youtube"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelsmith/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return is
// the resolved path, the third whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelsmith.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for pipeline operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkspaceDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for composition.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
