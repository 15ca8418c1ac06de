package types

// Participant is one role/agent pairing assigned to a Task. Most tasks have
// a single participant; the type is a slice to allow future multi-agent
// collaboration on one task without a schema change.
type Participant struct {
	Role    string `json:"role"`
	AgentID string `json:"agent_id"`
}

// Task is one unit of scheduled work in a session's task tree: the root
// task, a per-phase task (clarify/analyze/document/review), or a
// sub-step task within analyze (business_process/business_rules/value/risk).
type Task struct {
	ID        ID `json:"id"`
	SessionID ID `json:"session_id"`
	ParentID  ID `json:"parent_id,omitempty"`

	Name         string        `json:"name"`
	Participants []Participant `json:"participants"`

	Status   AgentStatus `json:"status"`
	Progress float64     `json:"progress"`

	// Dependencies are ids of sibling tasks that must reach terminal
	// success before this task is ready to run.
	Dependencies []ID `json:"dependencies,omitempty"`

	// Weight is this task's weight in its parent's progress roll-up (a
	// weighted mean over siblings); each task's creator sets it, and a
	// zero Weight contributes nothing.
	Weight float64 `json:"weight"`

	Result *TaskResult `json:"result,omitempty"`

	// RetryCount tracks transient-failure retries already spent, per the
	// two-retries-with-backoff failure policy.
	RetryCount int `json:"retry_count"`
}

// TaskResult is what a successful Agent Runtime cycle produces.
type TaskResult struct {
	Content   string        `json:"content"`
	Quality   ReflectScore  `json:"quality"`
	Artifacts []Artifact    `json:"artifacts,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ReflectScore is the Reflect step's self-evaluation of an Act output
// against the role's quality rubric.
type ReflectScore struct {
	Completeness   float64 `json:"completeness"`
	Accuracy       float64 `json:"accuracy"`
	Professionalism float64 `json:"professionalism"`
	Clarity        float64 `json:"clarity"`
	Actionability  float64 `json:"actionability"`
	Innovation     float64 `json:"innovation"`

	Overall     float64 `json:"overall"`
	GatePassed  bool    `json:"gate_passed"`
}

// Terminal reports whether the task has reached a status from which it
// will not transition further.
func (t *Task) Terminal() bool {
	return t.Status.Terminal()
}

// RoleSpec parameterizes the single Agent Runtime executor for a named
// role; adding a role is a data change (a new RoleSpec), never a new Go
// type, per the "no subclassing" design note.
type RoleSpec struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`

	SubSteps []string `json:"sub_steps" yaml:"sub_steps"`

	PromptTemplates map[string]string `json:"prompt_templates" yaml:"prompt_templates"`

	// QualityWeights weight the six ReflectScore dimensions; an empty map
	// weights all six equally, and a dimension missing from a non-empty
	// map gets weight 1.
	QualityWeights map[string]float64 `json:"quality_weights" yaml:"quality_weights"`

	// Threshold is the minimum ReflectScore.Overall for quality_gate_passed.
	Threshold float64 `json:"threshold" yaml:"threshold"`
}
