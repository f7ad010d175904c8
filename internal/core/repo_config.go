package core

import "strings"

// ProjectRules holds per-project review settings from the rules file.
type ProjectRules struct {
	// Custom instructions appended to the review prompt.
	CustomInstructions []string `yaml:"custom_instructions"`

	// Extensions eligible for review. Overrides the global list when set.
	// The leading dot is optional. Example: [".go", "py"]
	SupportedExtensions []string `yaml:"supported_extensions"`
}

// RulesFile represents the structure of the project rules YAML file.
type RulesFile struct {
	Projects map[string]ProjectRules `yaml:"projects"`
}

// DefaultProjectRules returns rules with no overrides.
func DefaultProjectRules() *ProjectRules {
	return &ProjectRules{
		CustomInstructions:  []string{},
		SupportedExtensions: []string{},
	}
}

// For returns the rules for a project, matching names case-insensitively.
// A nil RulesFile yields the defaults.
func (f *RulesFile) For(project string) *ProjectRules {
	if f == nil {
		return DefaultProjectRules()
	}
	if r, ok := f.Projects[project]; ok {
		return &r
	}
	for name, r := range f.Projects {
		if strings.EqualFold(name, project) {
			return &r
		}
	}
	return DefaultProjectRules()
}
