package channels_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"reelsmith/internal/channels"
)

const sampleRegistry = `
channels:
  - name: demo
    topic: forgotten history
    target_words: 1200
    voice_id: Grinch
    privacy: UNLISTED
    music_path: " /media/music/calm.mp3 "
  - name: science
    topic: everyday physics
    upload_enabled: false
`

func TestParseAppliesDefaults(t *testing.T) {
	registry, err := channels.Parse([]byte(sampleRegistry))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	demo, err := registry.Get("demo")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if demo.VoiceID != "Grinch" {
		t.Fatalf("voice override lost: %q", demo.VoiceID)
	}
	if demo.Privacy != "unlisted" {
		t.Fatalf("privacy not lowercased: %q", demo.Privacy)
	}
	if demo.MusicPath != "/media/music/calm.mp3" {
		t.Fatalf("music path not trimmed: %q", demo.MusicPath)
	}
	if !demo.UploadEnabled() {
		t.Fatal("upload should default to enabled")
	}

	science, err := registry.Get("science")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if science.VoiceID != channels.DefaultVoiceID {
		t.Fatalf("expected default voice, got %q", science.VoiceID)
	}
	if science.ImageStyle == "" || science.ClipStyle == "" {
		t.Fatal("style defaults not applied")
	}
	if science.UploadEnabled() {
		t.Fatal("upload_enabled: false not honored")
	}
}

func TestAvatarEnabled(t *testing.T) {
	registry, err := channels.Parse([]byte(`
channels:
  - name: with-avatar
    avatar_dir: " /assets/avatar "
  - name: avatar-off
    avatar_dir: /assets/avatar
    avatar_enabled: false
  - name: no-avatar
`))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	withAvatar, _ := registry.Get("with-avatar")
	if withAvatar.AvatarDir != "/assets/avatar" {
		t.Fatalf("avatar dir not trimmed: %q", withAvatar.AvatarDir)
	}
	if !withAvatar.AvatarEnabled() {
		t.Fatal("avatar should default to enabled when a directory is set")
	}

	avatarOff, _ := registry.Get("avatar-off")
	if avatarOff.AvatarEnabled() {
		t.Fatal("avatar_enabled: false not honored")
	}

	noAvatar, _ := registry.Get("no-avatar")
	if noAvatar.AvatarEnabled() {
		t.Fatal("avatar requires a directory")
	}
}

func TestParseRejectsBadRegistries(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"empty", "channels: []"},
		{"missing name", "channels:\n  - topic: something\n"},
		{"duplicate name", "channels:\n  - name: demo\n  - name: demo\n"},
		{"invalid yaml", "channels: ["},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := channels.Parse([]byte(tc.doc)); err == nil {
				t.Fatalf("expected error for %s registry", tc.name)
			}
		})
	}
}

func TestGetUnknownChannel(t *testing.T) {
	registry, err := channels.Parse([]byte(sampleRegistry))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	_, err = registry.Get("nope")
	if !errors.Is(err, channels.ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestAllPreservesDeclarationOrder(t *testing.T) {
	registry, err := channels.Parse([]byte(sampleRegistry))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	all := registry.All()
	if len(all) != 2 || all[0].Name != "demo" || all[1].Name != "science" {
		t.Fatalf("unexpected channel order: %v", all)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := channels.Load(filepath.Join(t.TempDir(), "channels.yaml"))
	if err == nil {
		t.Fatal("expected error for missing registry file")
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.yaml")
	if err := os.WriteFile(path, []byte(sampleRegistry), 0o644); err != nil {
		t.Fatalf("write registry: %v", err)
	}
	registry, err := channels.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if _, err := registry.Get("demo"); err != nil {
		t.Fatalf("loaded registry missing demo: %v", err)
	}
}
