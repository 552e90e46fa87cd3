package scriptdoc

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// FormatVersion identifies the script layout this package understands.
const FormatVersion = "REELSMITH_SCRIPT_V1"

// Section is one narration unit in voiceover order.
type Section struct {
	Name string
	Text string
}

var sceneSplitPattern = regexp.MustCompile(`\n(?:\d+\.\s)`)
var sceneMarkerPattern = regexp.MustCompile(`\n\d+\.\s`)

// Validate checks a generated script against the format contract. All
// problems are collected into a single error.
func Validate(script, videoTitle, videoID string) error {
	var problems []string

	if !headerPresent(script, "VIDEO_TITLE", videoTitle) {
		problems = append(problems, "missing or incorrect VIDEO_TITLE header")
	}
	if !headerPresent(script, "VIDEO_ID", videoID) {
		problems = append(problems, "missing or incorrect VIDEO_ID header")
	}
	if !headerPresent(script, "FORMAT", FormatVersion) {
		problems = append(problems, "missing or incorrect FORMAT header")
	}

	for _, section := range []string{"[HOOK]", "[INTRO]", "[SCENES]", "[OUTRO]"} {
		if !strings.Contains(script, section) {
			problems = append(problems, fmt.Sprintf("missing required section %s", section))
		}
	}

	if len(sceneMarkerPattern.FindAllString(script, -1)) < 3 {
		problems = append(problems, "at least three numbered scenes are required")
	}

	if strings.ContainsAny(script, "<>") {
		problems = append(problems, "script contains placeholder brackets")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid script: %s", strings.Join(problems, "; "))
	}
	return nil
}

func headerPresent(script, header, value string) bool {
	pattern := regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(header) + `:\s*` + regexp.QuoteMeta(value) + `\s*$`)
	return pattern.MatchString(script)
}

// Sections splits a script into its ordered narration units: hook, intro,
// each numbered scene, then outro.
func Sections(script string) ([]Section, error) {
	hook, err := extractSection(script, "HOOK", "INTRO")
	if err != nil {
		return nil, err
	}
	intro, err := extractSection(script, "INTRO", "SCENES")
	if err != nil {
		return nil, err
	}
	scenesBlock, err := extractSection(script, "SCENES", "OUTRO")
	if err != nil {
		return nil, err
	}
	outro, err := extractSection(script, "OUTRO", "")
	if err != nil {
		return nil, err
	}

	scenes, err := splitScenes(scenesBlock)
	if err != nil {
		return nil, err
	}

	sections := make([]Section, 0, len(scenes)+3)
	sections = append(sections, Section{Name: "hook", Text: hook}, Section{Name: "intro", Text: intro})
	for i, scene := range scenes {
		sections = append(sections, Section{Name: fmt.Sprintf("scene-%d", i+1), Text: scene})
	}
	sections = append(sections, Section{Name: "outro", Text: outro})
	return sections, nil
}

func extractSection(script, start, end string) (string, error) {
	var pattern *regexp.Regexp
	if end != "" {
		pattern = regexp.MustCompile(`(?is)\[` + regexp.QuoteMeta(start) + `\]\s*(.*?)(?:\n\[` + regexp.QuoteMeta(end) + `\]|\z)`)
	} else {
		pattern = regexp.MustCompile(`(?is)\[` + regexp.QuoteMeta(start) + `\]\s*(.*)`)
	}
	match := pattern.FindStringSubmatch(script)
	if match == nil {
		return "", fmt.Errorf("missing section [%s] in script", start)
	}
	return strings.TrimSpace(match[1]), nil
}

func splitScenes(scenesBlock string) ([]string, error) {
	trimmed := strings.TrimSpace(scenesBlock)
	if trimmed == "" {
		return nil, errors.New("no scenes found in [SCENES] section")
	}

	indices := sceneSplitPattern.FindAllStringIndex("\n"+trimmed, -1)
	if len(indices) == 0 {
		return nil, errors.New("no scenes found in [SCENES] section")
	}

	padded := "\n" + trimmed
	var scenes []string
	for i, idx := range indices {
		start := idx[0] + 1
		end := len(padded)
		if i+1 < len(indices) {
			end = indices[i+1][0]
		}
		scene := strings.TrimSpace(padded[start:end])
		if scene != "" {
			scenes = append(scenes, scene)
		}
	}
	if len(scenes) == 0 {
		return nil, errors.New("no scenes found in [SCENES] section")
	}
	return scenes, nil
}
