package config

import (
	"errors"
	"fmt"
	"strings"
)

var validPrivacyStatuses = map[string]struct{}{
	"private":  {},
	"unlisted": {},
	"public":   {},
}

// Validate checks configuration invariants that normalization cannot repair.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		problems = append(problems, "paths.workspace_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must not be empty")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		problems = append(problems, "llm.model must not be empty")
	}
	if _, ok := validPrivacyStatuses[c.YouTube.Privacy]; !ok {
		problems = append(problems, fmt.Sprintf("youtube.privacy must be one of private, unlisted, public (got %q)", c.YouTube.Privacy))
	}
	if c.Compose.MusicVolume > 1 {
		problems = append(problems, "compose.music_volume must be between 0 and 1")
	}
	if format := c.Logging.Format; format != "console" && format != "json" {
		problems = append(problems, fmt.Sprintf("logging.format must be console or json (got %q)", format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
