package agent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRoleSpecs_ParsesRolesKeyedByID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roles.yaml")
	contents := `
roles:
  - id: clarifier
    name: Custom Clarifier
    sub_steps: [clarify]
    threshold: 0.9
    prompt_templates:
      clarify: "ask better questions"
  - id: analyst
    name: Custom Analyst
    sub_steps: [business_process, risk]
    threshold: 0.65
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	specs, err := LoadRoleSpecs(path)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	clarifier, ok := specs["clarifier"]
	require.True(t, ok)
	assert.Equal(t, "Custom Clarifier", clarifier.Name)
	assert.Equal(t, []string{"clarify"}, clarifier.SubSteps)
	assert.Equal(t, 0.9, clarifier.Threshold)
	assert.Equal(t, "ask better questions", clarifier.PromptTemplates["clarify"])

	analyst, ok := specs["analyst"]
	require.True(t, ok)
	assert.Equal(t, []string{"business_process", "risk"}, analyst.SubSteps)
}

func TestLoadRoleSpecs_MissingIDIsRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roles:\n  - name: Nameless\n"), 0o644))

	_, err := LoadRoleSpecs(path)
	assert.Error(t, err)
}

func TestLoadRoleSpecs_MissingFile(t *testing.T) {
	_, err := LoadRoleSpecs(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}
