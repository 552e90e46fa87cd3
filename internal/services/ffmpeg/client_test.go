package ffmpeg

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func stubCommand(t *testing.T, capture *[][]string, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if capture != nil {
			*capture = append(*capture, append([]string{name}, args...))
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFMPEG_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "duration":
		os.Stdout.WriteString("12.345\n")
		os.Exit(0)
	case "fail":
		os.Stderr.WriteString("boom\n")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}

func TestProbeDurationParsesOutput(t *testing.T) {
	stubCommand(t, nil, "duration")

	client := NewClient()
	duration, err := client.ProbeDuration(context.Background(), "/tmp/audio.mp3")
	if err != nil {
		t.Fatalf("ProbeDuration returned error: %v", err)
	}
	if duration != 12.345 {
		t.Fatalf("expected 12.345, got %v", duration)
	}
}

func TestProbeDurationReportsFailure(t *testing.T) {
	stubCommand(t, nil, "fail")

	client := NewClient()
	if _, err := client.ProbeDuration(context.Background(), "/tmp/missing.mp3"); err == nil {
		t.Fatal("expected probe failure")
	}
}

func TestConcatAudioBuildsListFile(t *testing.T) {
	var captured [][]string
	stubCommand(t, &captured, "success")

	dir := t.TempDir()
	inputs := []string{
		filepath.Join(dir, "hook.mp3"),
		filepath.Join(dir, "intro.mp3"),
	}
	for _, input := range inputs {
		if err := os.WriteFile(input, []byte("audio"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}

	client := NewClient()
	output := filepath.Join(dir, "narration.mp3")
	if err := client.ConcatAudio(context.Background(), inputs, output); err != nil {
		t.Fatalf("ConcatAudio returned error: %v", err)
	}

	if len(captured) != 1 {
		t.Fatalf("expected one command, got %d", len(captured))
	}
	args := captured[0]
	if args[0] != "ffmpeg" {
		t.Fatalf("expected ffmpeg invocation, got %q", args[0])
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-f concat") || !strings.Contains(joined, "-c copy") {
		t.Fatalf("unexpected concat args: %v", args)
	}
}

func TestConcatAudioRequiresExistingInputs(t *testing.T) {
	client := NewClient()
	err := client.ConcatAudio(context.Background(), []string{"/nonexistent/audio.mp3"}, filepath.Join(t.TempDir(), "out.mp3"))
	if err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestBuildComposeArgsTimeline(t *testing.T) {
	req := ComposeRequest{
		Segments: []Segment{
			{Path: "/work/images/001-t0-00.png", Duration: 4.2},
			{Path: "/work/clips/short-clip.mp4", IsVideo: true, Duration: 5},
			{Path: "/work/images/002-t9-20.png", Duration: 6.1},
		},
		AudioPath:         "/work/audio/narration.mp3",
		MusicPath:         "/assets/music/bg.mp3",
		MusicVolume:       0.12,
		Width:             1920,
		Height:            1080,
		FPS:               30,
		TransitionSeconds: 0.6,
		OutputPath:        "/work/video.mp4",
	}
	args, err := buildComposeArgs(req)
	if err != nil {
		t.Fatalf("buildComposeArgs returned error: %v", err)
	}
	joined := strings.Join(args, " ")

	if !strings.Contains(joined, "-loop 1 -t 4.2 -i /work/images/001-t0-00.png") {
		t.Fatalf("missing image input in %q", joined)
	}
	if !strings.Contains(joined, "-stream_loop -1 -t 5 -i /work/clips/short-clip.mp4") {
		t.Fatalf("missing looped clip input in %q", joined)
	}
	if !strings.Contains(joined, "concat=n=3:v=1:a=0[video]") {
		t.Fatalf("missing concat filter in %q", joined)
	}
	if !strings.Contains(joined, "volume=0.12[bg]") || !strings.Contains(joined, "amix=inputs=2") {
		t.Fatalf("missing music mix in %q", joined)
	}
	if !strings.Contains(joined, "fade=t=in:st=0:d=0.6") {
		t.Fatalf("missing fade transition in %q", joined)
	}
	if !strings.Contains(joined, "-map [video]") || !strings.Contains(joined, "-map [audio]") {
		t.Fatalf("missing stream mapping in %q", joined)
	}
}

func TestBuildComposeArgsAvatarOverlay(t *testing.T) {
	req := ComposeRequest{
		Segments: []Segment{
			{Path: "/work/images/001-t0-00.png", Duration: 4, AvatarPath: "/assets/avatar/pointing_1.png", AvatarOnLeft: true},
			{Path: "/work/images/002-t4-00.png", Duration: 6, AvatarPath: "/assets/avatar/casual_1.png"},
			{Path: "/work/images/003-t10-00.png", Duration: 3, AvatarPath: "/assets/avatar/casual_1.png", AvatarOnLeft: true},
		},
		AudioPath:  "/work/audio/narration.mp3",
		Width:      1920,
		Height:     1080,
		FPS:        30,
		OutputPath: "/work/video.mp4",
	}
	args, err := buildComposeArgs(req)
	if err != nil {
		t.Fatalf("buildComposeArgs returned error: %v", err)
	}
	joined := strings.Join(args, " ")

	if !strings.Contains(joined, "-i /assets/avatar/pointing_1.png") {
		t.Fatalf("missing avatar input in %q", joined)
	}
	if strings.Count(joined, "-i /assets/avatar/casual_1.png") != 1 {
		t.Fatalf("reused avatar should be a single input: %q", joined)
	}
	// Left-side poses are mirrored to face the frame; right-side poses are
	// positioned from the right edge. Margins are 4%/5% of 1920x1080.
	if !strings.Contains(joined, "hflip,scale=") {
		t.Fatalf("left avatar not mirrored in %q", joined)
	}
	if !strings.Contains(joined, "overlay=x=76:y=main_h-overlay_h-54") {
		t.Fatalf("missing left overlay placement in %q", joined)
	}
	if !strings.Contains(joined, "overlay=x=main_w-overlay_w-76:y=main_h-overlay_h-54") {
		t.Fatalf("missing right overlay placement in %q", joined)
	}
	// The pose never upscales and caps at 28% width / 80% height.
	if !strings.Contains(joined, "min(1,min(537/iw,864/ih))") {
		t.Fatalf("missing avatar scale cap in %q", joined)
	}
	if !strings.Contains(joined, "[s0][s1][s2]concat=n=3:v=1:a=0[video]") {
		t.Fatalf("composited segments not concatenated in %q", joined)
	}
}

func TestBuildComposeArgsWithoutMusicMapsNarration(t *testing.T) {
	req := ComposeRequest{
		Segments:   []Segment{{Path: "/work/images/001-t0-00.png", Duration: 3}},
		AudioPath:  "/work/audio/narration.mp3",
		Width:      1920,
		Height:     1080,
		FPS:        30,
		OutputPath: "/work/video.mp4",
	}
	args, err := buildComposeArgs(req)
	if err != nil {
		t.Fatalf("buildComposeArgs returned error: %v", err)
	}
	joined := strings.Join(args, " ")
	if strings.Contains(joined, "amix") {
		t.Fatalf("unexpected music mix in %q", joined)
	}
	if !strings.Contains(joined, "-map 1:a") {
		t.Fatalf("expected narration mapping in %q", joined)
	}
}

func TestBuildComposeArgsValidation(t *testing.T) {
	base := ComposeRequest{
		Segments:   []Segment{{Path: "img.png", Duration: 3}},
		AudioPath:  "audio.mp3",
		Width:      1920,
		Height:     1080,
		FPS:        30,
		OutputPath: "out.mp4",
	}

	broken := base
	broken.Segments = nil
	if _, err := buildComposeArgs(broken); err == nil {
		t.Fatal("expected error for empty segments")
	}

	broken = base
	broken.Segments = []Segment{{Path: "img.png", Duration: 0}}
	if _, err := buildComposeArgs(broken); err == nil {
		t.Fatal("expected error for zero-duration segment")
	}

	broken = base
	broken.AudioPath = ""
	if _, err := buildComposeArgs(broken); err == nil {
		t.Fatal("expected error for missing audio")
	}

	broken = base
	broken.Width = 0
	if _, err := buildComposeArgs(broken); err == nil {
		t.Fatal("expected error for invalid resolution")
	}
}
