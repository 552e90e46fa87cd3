package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Segment is one visual element on the composed timeline. Image segments are
// held for their duration; video segments are looped and trimmed to fit. When
// AvatarPath is set the pose is overlaid near the bottom edge, mirrored to
// face inward on the left side.
type Segment struct {
	Path         string
	IsVideo      bool
	Duration     float64
	AvatarPath   string
	AvatarOnLeft bool
}

// Avatar overlay geometry relative to the output frame: the pose is capped at
// 28% of the width and 80% of the height without upscaling, inset 4%
// horizontally and 5% vertically, anchored to the bottom.
const (
	avatarMaxWidthRatio  = 0.28
	avatarMaxHeightRatio = 0.80
	avatarMarginXRatio   = 0.04
	avatarMarginYRatio   = 0.05
)

// ComposeRequest describes a full timeline assembly.
type ComposeRequest struct {
	Segments          []Segment
	AudioPath         string
	MusicPath         string
	MusicVolume       float64
	Width             int
	Height            int
	FPS               int
	TransitionSeconds float64
	OutputPath        string
}

// Compose renders the timeline into a single H.264/AAC video file.
func (c *Client) Compose(ctx context.Context, req ComposeRequest) error {
	args, err := buildComposeArgs(req)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return c.runFFmpeg(ctx, args, "compose")
}

func buildComposeArgs(req ComposeRequest) ([]string, error) {
	if len(req.Segments) == 0 {
		return nil, errors.New("no timeline segments provided")
	}
	if strings.TrimSpace(req.AudioPath) == "" {
		return nil, errors.New("narration audio path required")
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return nil, errors.New("output path required")
	}
	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("invalid resolution %dx%d", req.Width, req.Height)
	}
	if req.FPS <= 0 {
		return nil, fmt.Errorf("invalid fps %d", req.FPS)
	}
	for i, segment := range req.Segments {
		if segment.Duration <= 0 {
			return nil, fmt.Errorf("segment %d: non-positive duration %v", i, segment.Duration)
		}
	}

	args := []string{"-y"}
	for _, segment := range req.Segments {
		duration := formatSeconds(segment.Duration)
		if segment.IsVideo {
			args = append(args, "-stream_loop", "-1", "-t", duration, "-i", segment.Path)
		} else {
			args = append(args, "-loop", "1", "-t", duration, "-i", segment.Path)
		}
	}
	narrationIndex := len(req.Segments)
	args = append(args, "-i", req.AudioPath)

	musicIndex := -1
	if strings.TrimSpace(req.MusicPath) != "" {
		musicIndex = narrationIndex + 1
		args = append(args, "-stream_loop", "-1", "-i", req.MusicPath)
	}

	nextInput := narrationIndex + 1
	if musicIndex >= 0 {
		nextInput++
	}
	avatarInputs := make(map[string]int)
	for _, segment := range req.Segments {
		if segment.AvatarPath == "" {
			continue
		}
		if _, seen := avatarInputs[segment.AvatarPath]; seen {
			continue
		}
		avatarInputs[segment.AvatarPath] = nextInput
		args = append(args, "-i", segment.AvatarPath)
		nextInput++
	}

	maxAvatarW := int(float64(req.Width) * avatarMaxWidthRatio)
	maxAvatarH := int(float64(req.Height) * avatarMaxHeightRatio)
	marginX := int(float64(req.Width) * avatarMarginXRatio)
	marginY := int(float64(req.Height) * avatarMarginYRatio)

	var filter strings.Builder
	labels := make([]string, len(req.Segments))
	for i, segment := range req.Segments {
		fade := fadeExpr(segment.Duration, req.TransitionSeconds)
		if segment.AvatarPath == "" {
			// Fade directly on the scaled visual.
			fmt.Fprintf(&filter,
				"[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d%s[v%d];",
				i, req.Width, req.Height, req.Width, req.Height, req.FPS, fade, i,
			)
			labels[i] = fmt.Sprintf("[v%d]", i)
			continue
		}
		// Overlay the avatar first so the fade covers the whole composite.
		fmt.Fprintf(&filter,
			"[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d[v%d];",
			i, req.Width, req.Height, req.Width, req.Height, req.FPS, i,
		)
		flip := ""
		x := fmt.Sprintf("main_w-overlay_w-%d", marginX)
		if segment.AvatarOnLeft {
			flip = "hflip,"
			x = strconv.Itoa(marginX)
		}
		fit := fmt.Sprintf("min(1,min(%d/iw,%d/ih))", maxAvatarW, maxAvatarH)
		fmt.Fprintf(&filter,
			"[%d:v]%sscale=w='iw*%s':h='ih*%s'[a%d];[v%d][a%d]overlay=x=%s:y=main_h-overlay_h-%d%s[s%d];",
			avatarInputs[segment.AvatarPath], flip, fit, fit, i, i, i, x, marginY, fade, i,
		)
		labels[i] = fmt.Sprintf("[s%d]", i)
	}
	for _, label := range labels {
		filter.WriteString(label)
	}
	fmt.Fprintf(&filter, "concat=n=%d:v=1:a=0[video]", len(req.Segments))

	audioLabel := fmt.Sprintf("%d:a", narrationIndex)
	if musicIndex >= 0 {
		volume := req.MusicVolume
		if volume <= 0 {
			volume = 0.12
		}
		fmt.Fprintf(&filter, ";[%d:a]volume=%s[bg];[%d:a][bg]amix=inputs=2:duration=first[audio]",
			musicIndex, formatSeconds(volume), narrationIndex)
		audioLabel = "[audio]"
	}

	args = append(args,
		"-filter_complex", filter.String(),
		"-map", "[video]",
		"-map", audioLabel,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		req.OutputPath,
	)
	return args, nil
}

// fadeExpr adds fade-in/fade-out transitions, shortened when a segment is too
// brief to hold the full transition on both ends.
func fadeExpr(duration, transition float64) string {
	if transition <= 0 {
		return ""
	}
	if transition > duration/2 {
		transition = duration / 2
	}
	return fmt.Sprintf(",fade=t=in:st=0:d=%s,fade=t=out:st=%s:d=%s",
		formatSeconds(transition),
		formatSeconds(duration-transition),
		formatSeconds(transition),
	)
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
