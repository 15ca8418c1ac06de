package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/reqflow/engine/internal/llm"
	"github.com/reqflow/engine/internal/types"
)

// actOutput is one sub-step's contribution: free-form content staged for
// CollaborationState, plus any artifact it produced.
type actOutput struct {
	content   string
	artifacts []types.Artifact
}

// act executes each of the role's declared sub-steps in turn, using the
// session's mode (not quick) for the Gateway call, and returns the combined
// staging map the Runtime will commit on a successful cycle.
func act(ctx context.Context, gw Generator, role types.RoleSpec, task *types.Task, think ThinkOutput, mode llm.Mode) (map[string]any, []types.Artifact, error) {
	staged := make(map[string]any, len(role.SubSteps))
	var artifacts []types.Artifact

	subSteps := role.SubSteps
	if len(subSteps) == 0 {
		subSteps = []string{"default"}
	}

	for _, step := range subSteps {
		out, err := actStep(ctx, gw, role, task, think, mode, step)
		if err != nil {
			return nil, nil, err
		}
		staged[stagingKey(role.ID, step)] = out.content
		artifacts = append(artifacts, out.artifacts...)
	}

	return staged, artifacts, nil
}

func actStep(ctx context.Context, gw Generator, role types.RoleSpec, task *types.Task, think ThinkOutput, mode llm.Mode, step string) (actOutput, error) {
	prompt := actPrompt(role, task, think, step)
	text, err := gw.Generate(ctx, prompt, mode)
	if err != nil {
		return actOutput{}, err
	}
	return actOutput{content: text}, nil
}

func actPrompt(role types.RoleSpec, task *types.Task, think ThinkOutput, step string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the %s agent executing sub-step %q for task %s.\n", role.Name, step, task.Name)
	if tmpl, ok := role.PromptTemplates[step]; ok && tmpl != "" {
		b.WriteString(tmpl)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Think summary: %s\n", think.Summary)
	if len(think.NextActions) > 0 {
		fmt.Fprintf(&b, "Planned actions: %s\n", strings.Join(think.NextActions, "; "))
	}
	b.WriteString("Produce the sub-step's output content.")
	return b.String()
}

func stagingKey(roleID, step string) string {
	return roleID + "." + step
}
