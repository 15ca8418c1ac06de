package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/reqflow/engine/internal/llm"
	"github.com/reqflow/engine/internal/types"
)

// ThinkOutput is the parsed result of a Think call: the agent's read of the
// task and the shared collaboration state before acting on it.
type ThinkOutput struct {
	Summary        string   `json:"summary"`
	Insights       []string `json:"insights"`
	NextActions    []string `json:"next_actions"`
	Confidence     float64  `json:"confidence"`
	ReasoningChain []string `json:"reasoning_chain"`
}

const thinkMaxAttempts = 2

// think composes a prompt from the role, task and a read-only snapshot of
// shared state, calls the Gateway in quick mode, and parses the result. A
// single malformed response is retried once before surfacing TransientError
// think_parse.
func think(ctx context.Context, gw Generator, role types.RoleSpec, task *types.Task, view types.View) (ThinkOutput, error) {
	prompt := thinkPrompt(role, task, view)

	var lastErr error
	for attempt := 0; attempt < thinkMaxAttempts; attempt++ {
		text, err := gw.Generate(ctx, prompt, llm.ModeQuick)
		if err != nil {
			return ThinkOutput{}, err
		}

		var out ThinkOutput
		if err := extractJSON(text, &out); err != nil {
			lastErr = err
			continue
		}
		return out, nil
	}
	return ThinkOutput{}, types.Wrap(types.ErrTransient, "think response did not parse as JSON", lastErr)
}

func thinkPrompt(role types.RoleSpec, task *types.Task, view types.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the %s agent (role id: %s).\n", role.Name, role.ID)
	fmt.Fprintf(&b, "Task: %s\n", task.Name)
	if tmpl, ok := role.PromptTemplates["think"]; ok && tmpl != "" {
		b.WriteString(tmpl)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Shared state revision: %d\n", view.Revision)
	for k, v := range view.Shared {
		fmt.Fprintf(&b, "- %s: %v\n", k, v)
	}
	b.WriteString("Respond with a single JSON object: {\"summary\":\"\",\"insights\":[],\"next_actions\":[],\"confidence\":0.0,\"reasoning_chain\":[]}")
	return b.String()
}
