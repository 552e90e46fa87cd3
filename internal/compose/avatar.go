package compose

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// avatarPriority maps section-name fragments to the poses that suit them.
// Sections without a match cycle through the casual sequence.
var avatarPriority = []struct {
	key   string
	poses []string
}{
	{"hook", []string{"pointing_1.png"}},
	{"intro", []string{"casual_1.png", "waving_1.png"}},
	{"outro", []string{"waving_1.png", "casual_2.png"}},
}

var casualAvatarSequence = []string{"casual_1.png", "casual_2.png", "casual_3.png"}

// avatarAsset picks the avatar pose for one timeline section. Preferred poses
// that are missing on disk fall back to the casual sequence, then to the first
// PNG in the directory.
func avatarAsset(dir, sectionName string, index int) (string, error) {
	lower := strings.ToLower(sectionName)
	var preferred []string
	for _, entry := range avatarPriority {
		if strings.Contains(lower, entry.key) {
			preferred = entry.poses
			break
		}
	}
	if preferred == nil {
		preferred = []string{casualAvatarSequence[index%len(casualAvatarSequence)]}
	}
	preferred = append(append([]string{}, preferred...), casualAvatarSequence...)

	for _, name := range preferred {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err == nil && len(matches) > 0 {
		return matches[0], nil
	}
	return "", fmt.Errorf("no avatar images found in %s", dir)
}
