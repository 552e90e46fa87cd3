package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeReplicate()
	c.normalizeModels()
	c.normalizeSpeech()
	c.normalizeCompose()
	c.normalizeYouTube()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		c.Paths.WorkspaceDir = defaultWorkspaceDir
	}
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ChannelsFile) == "" {
		c.Paths.ChannelsFile = defaultChannelsFile
	}
	if c.Paths.ChannelsFile, err = expandPath(c.Paths.ChannelsFile); err != nil {
		return fmt.Errorf("paths.channels_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = os.Getenv("REELSMITH_LLM_API_KEY")
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSecs
	}
}

func (c *Config) normalizeReplicate() {
	if c.Replicate.APIToken == "" {
		c.Replicate.APIToken = os.Getenv("REPLICATE_API_TOKEN")
	}
	c.Replicate.APIToken = strings.TrimSpace(c.Replicate.APIToken)
	c.Replicate.BaseURL = strings.TrimRight(strings.TrimSpace(c.Replicate.BaseURL), "/")
	if c.Replicate.BaseURL == "" {
		c.Replicate.BaseURL = defaultReplicateBaseURL
	}
	if c.Replicate.PollIntervalSeconds <= 0 {
		c.Replicate.PollIntervalSeconds = defaultReplicatePollSecs
	}
	if c.Replicate.PredictionTimeoutSecs <= 0 {
		c.Replicate.PredictionTimeoutSecs = defaultReplicateTimeoutSecs
	}
}

func (c *Config) normalizeModels() {
	trim := func(value, fallback string) string {
		value = strings.TrimSpace(value)
		if value == "" {
			return fallback
		}
		return value
	}
	c.Models.Speech = trim(c.Models.Speech, defaultSpeechModel)
	c.Models.Image = trim(c.Models.Image, defaultImageModel)
	c.Models.Clip = trim(c.Models.Clip, defaultClipModel)
	c.Models.Thumbnail = trim(c.Models.Thumbnail, defaultThumbnailModel)
	c.Models.Transcribe = trim(c.Models.Transcribe, defaultTranscribeModel)
}

func (c *Config) normalizeSpeech() {
	c.Speech.AudioFormat = strings.ToLower(strings.TrimSpace(c.Speech.AudioFormat))
	if c.Speech.AudioFormat == "" {
		c.Speech.AudioFormat = defaultAudioFormat
	}
	c.Speech.Emotion = strings.TrimSpace(c.Speech.Emotion)
	if c.Speech.Emotion == "" {
		c.Speech.Emotion = defaultSpeechEmotion
	}
	if c.Speech.SampleRate <= 0 {
		c.Speech.SampleRate = defaultSpeechSampleRate
	}
	if c.Speech.Bitrate <= 0 {
		c.Speech.Bitrate = defaultSpeechBitrate
	}
	if c.Speech.Speed <= 0 {
		c.Speech.Speed = 1.0
	}
}

func (c *Config) normalizeCompose() {
	if c.Compose.FPS <= 0 {
		c.Compose.FPS = defaultComposeFPS
	}
	c.Compose.Resolution = strings.TrimSpace(c.Compose.Resolution)
	if c.Compose.Resolution == "" {
		c.Compose.Resolution = defaultComposeResolution
	}
	if c.Compose.TransitionSeconds < 0 {
		c.Compose.TransitionSeconds = 0
	}
	if c.Compose.MusicVolume < 0 {
		c.Compose.MusicVolume = 0
	}
	if c.Compose.ClipDuration <= 0 {
		c.Compose.ClipDuration = defaultClipDuration
	}
	if c.Compose.ClipFPS <= 0 {
		c.Compose.ClipFPS = defaultClipFPS
	}
	c.Compose.ClipResolution = strings.TrimSpace(c.Compose.ClipResolution)
	if c.Compose.ClipResolution == "" {
		c.Compose.ClipResolution = defaultClipResolution
	}
}

func (c *Config) normalizeYouTube() {
	c.YouTube.CategoryID = strings.TrimSpace(c.YouTube.CategoryID)
	if c.YouTube.CategoryID == "" {
		c.YouTube.CategoryID = defaultYouTubeCategoryID
	}
	c.YouTube.Privacy = strings.ToLower(strings.TrimSpace(c.YouTube.Privacy))
	if c.YouTube.Privacy == "" {
		c.YouTube.Privacy = defaultYouTubePrivacy
	}
	c.YouTube.DefaultLanguage = strings.TrimSpace(c.YouTube.DefaultLanguage)
	if c.YouTube.DefaultLanguage == "" {
		c.YouTube.DefaultLanguage = defaultYouTubeLanguage
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
