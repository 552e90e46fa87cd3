package config

const (
	defaultWorkspaceDir   = "~/.local/share/reelsmith/workspace"
	defaultLogDir         = "~/.local/share/reelsmith/logs"
	defaultChannelsFile   = "~/.config/reelsmith/channels.yaml"
	defaultLLMBaseURL     = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel       = "openai/gpt-5"
	defaultLLMTimeoutSecs = 120

	defaultReplicateBaseURL     = "https://api.replicate.com/v1"
	defaultReplicatePollSecs    = 2
	defaultReplicateTimeoutSecs = 600

	defaultSpeechModel     = "minimax/speech-02-turbo"
	defaultImageModel      = "black-forest-labs/flux-1.1-pro"
	defaultClipModel       = "bytedance/seedance-1-pro-fast"
	defaultThumbnailModel  = "google/imagen-4-fast"
	defaultTranscribeModel = "vaibhavs10/incredibly-fast-whisper"

	defaultAudioFormat      = "mp3"
	defaultSpeechEmotion    = "happy"
	defaultSpeechSampleRate = 32000
	defaultSpeechBitrate    = 128000

	defaultComposeFPS        = 30
	defaultComposeResolution = "1920x1080"
	defaultTransitionSecs    = 0.6
	defaultMusicVolume       = 0.12
	defaultClipDuration      = 5
	defaultClipFPS           = 24
	defaultClipResolution    = "720p"

	defaultYouTubeCategoryID = "27"
	defaultYouTubePrivacy    = "private"
	defaultYouTubeLanguage   = "en"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultNtfyTimeoutSecs = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       defaultLogDir,
			ChannelsFile: defaultChannelsFile,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSecs,
		},
		Replicate: Replicate{
			BaseURL:               defaultReplicateBaseURL,
			PollIntervalSeconds:   defaultReplicatePollSecs,
			PredictionTimeoutSecs: defaultReplicateTimeoutSecs,
		},
		Models: Models{
			Speech:     defaultSpeechModel,
			Image:      defaultImageModel,
			Clip:       defaultClipModel,
			Thumbnail:  defaultThumbnailModel,
			Transcribe: defaultTranscribeModel,
		},
		Speech: Speech{
			AudioFormat: defaultAudioFormat,
			Emotion:     defaultSpeechEmotion,
			SampleRate:  defaultSpeechSampleRate,
			Bitrate:     defaultSpeechBitrate,
			Speed:       1.0,
		},
		Compose: Compose{
			FPS:               defaultComposeFPS,
			Resolution:        defaultComposeResolution,
			TransitionSeconds: defaultTransitionSecs,
			MusicVolume:       defaultMusicVolume,
			ClipDuration:      defaultClipDuration,
			ClipFPS:           defaultClipFPS,
			ClipResolution:    defaultClipResolution,
		},
		YouTube: YouTube{
			CategoryID:      defaultYouTubeCategoryID,
			Privacy:         defaultYouTubePrivacy,
			DefaultLanguage: defaultYouTubeLanguage,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeoutSecs: defaultNtfyTimeoutSecs,
		},
	}
}
