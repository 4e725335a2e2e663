package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antgroup/hugescm/modules/diferenco/color"
)

func TestParseEditedHunkLexesHeaderAndBody(t *testing.T) {
	plain := NewBuffer(nil)
	edited := "@@ -1,3 +1,3 @@\n context1\n-old line\n+new line\n context2\n"

	e := ParseEditedHunk(plain, []byte(edited), false)
	require.False(t, e.HasFatalErrors())
	assert.True(t, e.HasHeader)
	assert.Equal(t, 1, e.Header.OldOffset)
	assert.Equal(t, 3, e.OldCount)
	assert.Equal(t, 3, e.NewCount)
	assert.False(t, e.ContextOnly)
	// pre-image: context1, old line, context2 (non-reverse '-' lines are pre).
	assert.Len(t, e.PreImage, 3)
}

func TestParseEditedHunkSkipsCommentLines(t *testing.T) {
	plain := NewBuffer(nil)
	edited := "# header comment\n@@ -1,1 +1,1 @@\n# a note\n-old\n+new\n"
	e := ParseEditedHunk(plain, []byte(edited), false)
	require.False(t, e.HasFatalErrors())
	assert.True(t, e.HasHeader)
	assert.Equal(t, 1, e.OldCount)
	assert.Equal(t, 1, e.NewCount)
}

func TestParseEditedHunkPureDeletionIsEmpty(t *testing.T) {
	plain := NewBuffer(nil)
	e := ParseEditedHunk(plain, []byte("# everything removed\n"), false)
	assert.True(t, e.IsEmpty())
}

func TestParseEditedHunkDuplicateHeaderIsFatal(t *testing.T) {
	plain := NewBuffer(nil)
	edited := "@@ -1,1 +1,1 @@\n@@ -2,1 +2,1 @@\n-old\n+new\n"
	e := ParseEditedHunk(plain, []byte(edited), false)
	require.True(t, e.HasFatalErrors())
	assert.Equal(t, DuplicateHeader, e.Errors[0].Kind)
}

func TestParseEditedHunkHeaderAfterBodyIsNotFirstLine(t *testing.T) {
	plain := NewBuffer(nil)
	edited := " context\n@@ -1,1 +1,1 @@\n-old\n+new\n"
	e := ParseEditedHunk(plain, []byte(edited), false)
	require.True(t, e.HasFatalErrors())
	assert.Equal(t, HeaderNotFirstLine, e.Errors[0].Kind)
}

func TestParseEditedHunkIncompleteNotLast(t *testing.T) {
	plain := NewBuffer(nil)
	edited := " context1\n\\ No newline at end of file\n context2\n"
	e := ParseEditedHunk(plain, []byte(edited), false)
	require.True(t, e.HasFatalErrors())
	assert.Equal(t, IncompleteNotLast, e.Errors[0].Kind)
}

func TestParseEditedHunkIncompleteContextBeforeDeletion(t *testing.T) {
	plain := NewBuffer(nil)
	edited := " context1\n\\ No newline at end of file\n-old\n"
	e := ParseEditedHunk(plain, []byte(edited), false)
	require.True(t, e.HasFatalErrors())
	assert.Equal(t, IncompleteContextBeforeDeletion, e.Errors[0].Kind)
}

func TestParseEditedHunkIncompleteContextBeforeAddition(t *testing.T) {
	plain := NewBuffer(nil)
	edited := " context1\n\\ No newline at end of file\n+new\n"
	e := ParseEditedHunk(plain, []byte(edited), false)
	require.True(t, e.HasFatalErrors())
	assert.Equal(t, IncompleteContextBeforeAddition, e.Errors[0].Kind)
}

func TestValidateEditAppliesIdenticalEditUnchanged(t *testing.T) {
	files, err := ParseDiff([]byte(simpleDiff), nil)
	require.NoError(t, err)
	plain := NewBuffer([]byte(simpleDiff))
	h := files[0].Hunks[0]
	SnapshotPreImage(plain, h, false)

	var rendered []byte
	RenderHunk(plain, h, 0, false, &rendered)

	edited := ParseEditedHunk(plain, rendered, false)
	require.False(t, edited.HasFatalErrors())

	err = ValidateEdit(plain.Bytes(), h, plain.Bytes(), edited)
	require.NoError(t, err)
	assert.True(t, h.Edited)
	assert.Equal(t, 1, h.Header.OldOffset)
	assert.Equal(t, 1, h.Header.NewOffset)
	assert.Equal(t, 3, h.Header.OldCount)
	assert.Equal(t, 3, h.Header.NewCount)
	assert.Equal(t, 0, h.Delta)
}

func TestValidateEditCanceledOnEmptyEdit(t *testing.T) {
	files, err := ParseDiff([]byte(simpleDiff), nil)
	require.NoError(t, err)
	plain := NewBuffer([]byte(simpleDiff))
	h := files[0].Hunks[0]
	SnapshotPreImage(plain, h, false)

	edited := ParseEditedHunk(plain, []byte("# nothing kept\n"), false)
	err = ValidateEdit(plain.Bytes(), h, plain.Bytes(), edited)
	assert.ErrorIs(t, err, ErrEditCanceled)
}

func TestValidateEditAddingALineAdjustsDelta(t *testing.T) {
	files, err := ParseDiff([]byte(simpleDiff), nil)
	require.NoError(t, err)
	plain := NewBuffer([]byte(simpleDiff))
	h := files[0].Hunks[0]
	SnapshotPreImage(plain, h, false)

	edited := ParseEditedHunk(plain, []byte(
		"@@ -1,3 +1,4 @@\n context1\n-old line\n+new line\n+extra line\n context2\n"), false)
	require.False(t, edited.HasFatalErrors())

	err = ValidateEdit(plain.Bytes(), h, plain.Bytes(), edited)
	require.NoError(t, err)
	assert.Equal(t, 4, h.Header.NewCount)
	// old-new count changed from 0 (3-3) to -1 (3-4): delta grows by 1.
	assert.Equal(t, 1, h.Delta)
}

func TestRecolorEditedBodyColorsLinesBySign(t *testing.T) {
	plain := NewBuffer([]byte(" context\n-old\n+new\n"))
	hunk := &Hunk{Start: 0, HeaderLen: 0, End: plain.Len()}
	colored := NewBuffer(nil)
	cc := color.NewColorConfig()

	RecolorEditedBody(plain, colored, hunk, cc)

	got := string(colored.Slice(hunk.ColoredStart, hunk.ColoredEnd))
	want := " context\n" +
		cc[color.Old] + "-old" + cc.Reset(color.Old) + "\n" +
		cc[color.New] + "+new" + cc.Reset(color.New) + "\n"
	assert.Equal(t, want, got)
	assert.Equal(t, 0, hunk.ColoredHeaderLen)
}
