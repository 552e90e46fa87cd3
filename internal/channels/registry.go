package channels

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultVoiceID is used when a channel does not select a voice.
	DefaultVoiceID = "Wise_Woman"

	defaultImageStyle = "unified modern visual style, consistent color palette, " +
		"clean professional composition, subtle gradients, sharp clarity, " +
		"cohesive lighting, refined minimal aesthetic"
	defaultClipStyle = "cinematic storytelling, smooth camera presence, steady " +
		"framing, balanced lighting, cohesive color palette, clean modern motion pacing"
)

// Channel is the resolved configuration for one video-production target.
type Channel struct {
	Name         string `yaml:"name"`
	Topic        string `yaml:"topic"`
	TargetWords  int    `yaml:"target_words"`
	VoiceID      string `yaml:"voice_id"`
	Style        string `yaml:"style"`
	ImageStyle   string `yaml:"image_style"`
	ClipStyle    string `yaml:"clip_style"`
	MusicPath    string `yaml:"music_path"`
	AvatarDir    string `yaml:"avatar_dir"`
	AvatarEnable *bool  `yaml:"avatar_enabled"`
	Privacy      string `yaml:"privacy"`
	CategoryID   string `yaml:"category_id"`
	Language     string `yaml:"language"`
	PlaylistID   string `yaml:"playlist_id"`
	UploadEnable *bool  `yaml:"upload_enabled"`
}

// UploadEnabled reports whether the upload stage should publish for this
// channel. Defaults to true when unset.
func (c Channel) UploadEnabled() bool {
	if c.UploadEnable == nil {
		return true
	}
	return *c.UploadEnable
}

// AvatarEnabled reports whether composed videos carry the presenter avatar
// overlay. Requires an avatar directory; defaults to true when the toggle is
// unset.
func (c Channel) AvatarEnabled() bool {
	if c.AvatarDir == "" {
		return false
	}
	if c.AvatarEnable == nil {
		return true
	}
	return *c.AvatarEnable
}

type registryFile struct {
	Channels []Channel `yaml:"channels"`
}

// Registry holds the loaded channel set keyed by name.
type Registry struct {
	channels []Channel
	byName   map[string]Channel
}

// ErrNotRegistered is returned when a channel name has no registry entry.
var ErrNotRegistered = errors.New("channel not registered")

// Load reads and validates the channel registry at path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("channel registry %s not found; create it with at least one channel entry: %w", path, err)
		}
		return nil, fmt.Errorf("read channel registry: %w", err)
	}
	return Parse(data)
}

// Parse decodes a registry document and applies per-channel defaults.
func Parse(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse channel registry: %w", err)
	}
	if len(file.Channels) == 0 {
		return nil, errors.New("channel registry declares no channels")
	}

	registry := &Registry{byName: make(map[string]Channel, len(file.Channels))}
	for i := range file.Channels {
		channel := normalizeChannel(file.Channels[i])
		if channel.Name == "" {
			return nil, fmt.Errorf("channel entry %d is missing a name", i+1)
		}
		if _, exists := registry.byName[channel.Name]; exists {
			return nil, fmt.Errorf("duplicate channel name %q", channel.Name)
		}
		registry.channels = append(registry.channels, channel)
		registry.byName[channel.Name] = channel
	}
	return registry, nil
}

// Get resolves a channel by name.
func (r *Registry) Get(name string) (Channel, error) {
	channel, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return Channel{}, fmt.Errorf("%w: %q", ErrNotRegistered, name)
	}
	return channel, nil
}

// All returns the channels in declaration order.
func (r *Registry) All() []Channel {
	out := make([]Channel, len(r.channels))
	copy(out, r.channels)
	return out
}

func normalizeChannel(channel Channel) Channel {
	channel.Name = strings.TrimSpace(channel.Name)
	channel.Topic = strings.TrimSpace(channel.Topic)
	channel.VoiceID = strings.TrimSpace(channel.VoiceID)
	if channel.VoiceID == "" {
		channel.VoiceID = DefaultVoiceID
	}
	channel.Style = strings.TrimSpace(channel.Style)
	channel.ImageStyle = strings.TrimSpace(channel.ImageStyle)
	if channel.ImageStyle == "" {
		channel.ImageStyle = defaultImageStyle
	}
	channel.ClipStyle = strings.TrimSpace(channel.ClipStyle)
	if channel.ClipStyle == "" {
		channel.ClipStyle = defaultClipStyle
	}
	channel.MusicPath = strings.TrimSpace(channel.MusicPath)
	channel.AvatarDir = strings.TrimSpace(channel.AvatarDir)
	channel.Privacy = strings.ToLower(strings.TrimSpace(channel.Privacy))
	channel.CategoryID = strings.TrimSpace(channel.CategoryID)
	channel.Language = strings.TrimSpace(channel.Language)
	channel.PlaylistID = strings.TrimSpace(channel.PlaylistID)
	if channel.TargetWords < 0 {
		channel.TargetWords = 0
	}
	return channel
}
