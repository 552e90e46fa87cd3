package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"
)

// Artifact file and directory names, one per stage.
const (
	OutlineFile   = "outline.txt"
	ScriptFile    = "script.txt"
	AudioDir      = "audio"
	PlanFile      = "media-plan.json"
	ImagesDir     = "images"
	ClipsDir      = "clips"
	ClipFile      = "short-clip.mp4"
	VideoFile     = "video.mp4"
	ThumbnailFile = "thumbnail.jpg"
	MetadataFile  = "metadata.json"
	ReceiptFile   = "upload.json"
)

// Project locates one video project's working folder inside a channel's
// workspace and names every stage artifact within it.
type Project struct {
	root    string
	channel string
	slug    string
	videoID string
}

// NewProject builds the project layout for a channel, title slug, and video id.
func NewProject(workspaceRoot, channel, slug, videoID string) (Project, error) {
	if strings.TrimSpace(workspaceRoot) == "" {
		return Project{}, fmt.Errorf("workspace root is required")
	}
	if strings.TrimSpace(channel) == "" {
		return Project{}, fmt.Errorf("channel name is required")
	}
	if strings.TrimSpace(videoID) == "" {
		return Project{}, fmt.Errorf("video id is required")
	}
	if slug == "" {
		slug = "video"
	}
	return Project{root: workspaceRoot, channel: channel, slug: slug, videoID: videoID}, nil
}

// Dir returns the project's working folder.
func (p Project) Dir() string {
	return filepath.Join(p.root, p.channel, p.slug+"-"+p.videoID)
}

// Ensure creates the working folder.
func (p Project) Ensure() error {
	if err := os.MkdirAll(p.Dir(), 0o755); err != nil {
		return fmt.Errorf("create working folder: %w", err)
	}
	return nil
}

// Channel returns the owning channel name.
func (p Project) Channel() string { return p.channel }

// VideoID returns the project's video identifier.
func (p Project) VideoID() string { return p.videoID }

func (p Project) path(parts ...string) string {
	return filepath.Join(append([]string{p.Dir()}, parts...)...)
}

// OutlinePath is the outline stage artifact.
func (p Project) OutlinePath() string { return p.path(OutlineFile) }

// ScriptPath is the script stage artifact.
func (p Project) ScriptPath() string { return p.path(ScriptFile) }

// AudioDirPath is the voice stage artifact directory.
func (p Project) AudioDirPath() string { return p.path(AudioDir) }

// AudioSectionPath names one narration section's audio file.
func (p Project) AudioSectionPath(section, format string) string {
	return p.path(AudioDir, section+"."+format)
}

// PlanPath is the media plan artifact.
func (p Project) PlanPath() string { return p.path(PlanFile) }

// ImagesDirPath is the still-image artifact directory.
func (p Project) ImagesDirPath() string { return p.path(ImagesDir) }

// ImagePath names one still image by plan index and timestamp.
func (p Project) ImagePath(index int, timestamp float64) string {
	stamp := strings.ReplaceAll(fmt.Sprintf("%.2f", timestamp), ".", "-")
	return p.path(ImagesDir, fmt.Sprintf("%03d-t%s.png", index, stamp))
}

// ClipPath is the short clip artifact.
func (p Project) ClipPath() string { return p.path(ClipsDir, ClipFile) }

// VideoPath is the composed video artifact.
func (p Project) VideoPath() string { return p.path(VideoFile) }

// ThumbnailPath is the thumbnail artifact.
func (p Project) ThumbnailPath() string { return p.path(ThumbnailFile) }

// MetadataPath is the metadata record artifact.
func (p Project) MetadataPath() string { return p.path(MetadataFile) }

// ReceiptPath is the upload confirmation artifact.
func (p Project) ReceiptPath() string { return p.path(ReceiptFile) }

// ListImages returns the still-image artifacts in plan order.
func (p Project) ListImages() ([]string, error) {
	entries, err := os.ReadDir(p.ImagesDirPath())
	if err != nil {
		return nil, err
	}
	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		images = append(images, filepath.Join(p.ImagesDirPath(), name))
	}
	sort.Strings(images)
	return images, nil
}

// ListAudioSections returns the narration audio files in section order as
// recorded by the voice stage manifest ordering (hook, intro, scenes, outro).
func (p Project) ListAudioSections(order []string, format string) ([]string, error) {
	paths := make([]string, 0, len(order))
	for _, section := range order {
		path := p.AudioSectionPath(section, format)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("audio section %s: %w", section, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Lock acquires an advisory lock on the project folder so a single operator
// run owns it at a time. The caller must release the returned lock.
func (p Project) Lock() (*flock.Flock, error) {
	if err := p.Ensure(); err != nil {
		return nil, err
	}
	lock := flock.New(filepath.Join(p.Dir(), ".reelsmith.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire project lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("project %s is locked by another run", p.Dir())
	}
	return lock, nil
}
