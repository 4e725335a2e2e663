package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithRevisionSubstitutesPlaceholder(t *testing.T) {
	m := ModeResetFromOther.WithRevision("abc123")
	assert.Equal(t, []string{"diff-index", "-R", "--cached", "abc123"}, m.DifferArgs)
	assert.Equal(t, []string{"--cached"}, m.ApplierArgs)
	// the original mode is untouched.
	assert.Equal(t, []string{"diff-index", "-R", "--cached", "<rev>"}, ModeResetFromOther.DifferArgs)
}

func TestWithRevisionCheckoutFromOther(t *testing.T) {
	m := ModeCheckoutFromOther.WithRevision("feature-x")
	assert.Equal(t, []string{"diff-index", "-R", "feature-x"}, m.DifferArgs)
}

func TestPromptForGenericHunk(t *testing.T) {
	fd := &FileDiff{}
	h := &Hunk{Header: HunkHeader{OldOffset: 1, NewOffset: 1}}
	assert.Equal(t, ModeStageAdd.Prompts.Hunk, ModeStageAdd.PromptFor(fd, h))
}

func TestPromptForModeChange(t *testing.T) {
	fd := &FileDiff{ModeChange: true}
	h := &Hunk{}
	assert.Equal(t, ModeStageAdd.Prompts.Mode, ModeStageAdd.PromptFor(fd, h))
}

func TestPromptForDeletionAndAddition(t *testing.T) {
	h := &Hunk{Header: HunkHeader{OldOffset: 1, NewOffset: 1}}
	assert.Equal(t, ModeStageAdd.Prompts.Deletion, ModeStageAdd.PromptFor(&FileDiff{Deleted: true}, h))
	assert.Equal(t, ModeStageAdd.Prompts.Addition, ModeStageAdd.PromptFor(&FileDiff{Added: true}, h))
}

func TestModeTableShapes(t *testing.T) {
	assert.True(t, ModeResetFromHEAD.Reverse)
	assert.True(t, ModeResetFromHEAD.IndexOnly)
	assert.True(t, ModeCheckoutFromHEAD.DualTarget)
	assert.True(t, ModeCheckoutFromOther.DualTarget)
	assert.False(t, ModeStageAdd.DualTarget)
}
