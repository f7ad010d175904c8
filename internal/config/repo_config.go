package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sevigo/change-warden/internal/core"
)

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParsing  = errors.New("config parsing failed")
)

// LoadProjectRules loads the per-project review rules file. An empty path
// yields an empty rules set. A missing file yields an empty rules set together
// with ErrConfigNotFound so the caller can decide whether to warn.
func LoadProjectRules(path string) (*core.RulesFile, error) {
	rules := &core.RulesFile{Projects: map[string]core.ProjectRules{}}
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return rules, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read project rules %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigParsing, err)
	}
	if rules.Projects == nil {
		rules.Projects = map[string]core.ProjectRules{}
	}
	return rules, nil
}
