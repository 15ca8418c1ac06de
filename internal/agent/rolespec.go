package agent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/reqflow/engine/internal/types"
)

// roleSpecFile is the on-disk shape of a role definitions file: a list
// under a top-level `roles:` key, matching the teacher's YAML-driven
// configuration convention.
type roleSpecFile struct {
	Roles []types.RoleSpec `yaml:"roles"`
}

// LoadRoleSpecs reads role definitions from a YAML file at path, keyed by
// RoleSpec.ID for constant-time lookup by the Orchestrator.
func LoadRoleSpecs(path string) (map[string]types.RoleSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("agent: read role specs %s: %w", path, err)
	}

	var file roleSpecFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("agent: parse role specs %s: %w", path, err)
	}

	specs := make(map[string]types.RoleSpec, len(file.Roles))
	for _, spec := range file.Roles {
		if spec.ID == "" {
			return nil, fmt.Errorf("agent: role spec in %s missing id", path)
		}
		specs[spec.ID] = spec
	}
	return specs, nil
}

// DefaultRoleSpecs returns the built-in role set (clarifier, analyst,
// documenter, reviewer) used when no role file is configured, matching the
// sub-steps named in spec.md §4.1's task-scheduling section.
func DefaultRoleSpecs() map[string]types.RoleSpec {
	specs := []types.RoleSpec{
		{
			ID:        "clarifier",
			Name:      "Clarifier",
			SubSteps:  []string{"clarify"},
			Threshold: 0.7,
			PromptTemplates: map[string]string{
				"clarify": `Evaluate the requirement text against eight quality dimensions
(functional, non_functional, user_roles, business_rules, constraints,
acceptance_criteria, integration, data), each scored 0.0-1.0, with missing
aspects and improvement suggestions per dimension. Propose up to 5 follow-up
questions tagged with the dimension they address (as "category") and a
priority of high, med, or low. Respond with a single JSON object:
{"quality":{"dimensions":[{"dimension":"functional","score":0.0,"missing_aspects":[],"suggestions":[]}],"overall":0.0},"questions":[{"id":"q1","text":"","category":"functional","priority":"high"}]}`,
			},
		},
		{
			ID:       "analyst",
			Name:     "Analyst",
			SubSteps: []string{"business_process", "business_rules", "value", "risk"},
			Threshold: 0.7,
		},
		{
			ID:        "documenter",
			Name:      "Documenter",
			SubSteps:  []string{"document"},
			Threshold: 0.7,
		},
		{
			ID:        "reviewer",
			Name:      "Reviewer",
			SubSteps:  []string{"review"},
			Threshold: 0.7,
		},
	}

	out := make(map[string]types.RoleSpec, len(specs))
	for _, s := range specs {
		out[s.ID] = s
	}
	return out
}
