package patch

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTerminal struct {
	lines []string
	i     int
}

func (f *fakeTerminal) ReadLine(prompt string) (string, error) {
	if f.i >= len(f.lines) {
		return "", io.EOF
	}
	line := f.lines[f.i]
	f.i++
	return line, nil
}

func TestFileSessionAcceptHunk(t *testing.T) {
	files, err := ParseDiff([]byte(simpleDiff), nil)
	require.NoError(t, err)
	plain := NewBuffer([]byte(simpleDiff))
	fd := files[0]

	term := &fakeTerminal{lines: []string{"y"}}
	sess := NewFileSession(plain, nil, fd, ModeStageAdd, term, nil, nil)

	require.NoError(t, sess.Run())
	assert.Equal(t, UseHunk, fd.Hunks[0].Use)
	assert.False(t, sess.QuitAll())
}

func TestFileSessionRejectHunk(t *testing.T) {
	files, err := ParseDiff([]byte(simpleDiff), nil)
	require.NoError(t, err)
	plain := NewBuffer([]byte(simpleDiff))
	fd := files[0]

	term := &fakeTerminal{lines: []string{"n"}}
	sess := NewFileSession(plain, nil, fd, ModeStageAdd, term, nil, nil)

	require.NoError(t, sess.Run())
	assert.Equal(t, Skip, fd.Hunks[0].Use)
}

func TestFileSessionQuitRejectsRemaining(t *testing.T) {
	raw := `diff --git a/file.txt b/file.txt
index 1111111..2222222 100644
--- a/file.txt
+++ b/file.txt
@@ -1,1 +1,1 @@
-a
+b
@@ -10,1 +10,1 @@
-c
+d
`
	files, err := ParseDiff([]byte(raw), nil)
	require.NoError(t, err)
	plain := NewBuffer([]byte(raw))
	fd := files[0]
	require.Len(t, fd.Hunks, 2)

	term := &fakeTerminal{lines: []string{"q"}}
	sess := NewFileSession(plain, nil, fd, ModeStageAdd, term, nil, nil)

	err = sess.Run()
	assert.ErrorIs(t, err, ErrQuit)
	assert.True(t, sess.QuitAll())
	for _, h := range fd.Hunks {
		assert.Equal(t, Skip, h.Use)
	}
}

func TestFileSessionEndOfInputActsLikeQuit(t *testing.T) {
	files, err := ParseDiff([]byte(simpleDiff), nil)
	require.NoError(t, err)
	plain := NewBuffer([]byte(simpleDiff))
	fd := files[0]

	term := &fakeTerminal{} // no lines queued: immediate EOF
	sess := NewFileSession(plain, nil, fd, ModeStageAdd, term, nil, nil)

	err = sess.Run()
	assert.ErrorIs(t, err, ErrQuit)
	assert.Equal(t, Skip, fd.Hunks[0].Use)
}

func TestFileSessionSplitThenAcceptBoth(t *testing.T) {
	files, err := ParseDiff([]byte(twoRunDiff), nil)
	require.NoError(t, err)
	plain := NewBuffer([]byte(twoRunDiff))
	fd := files[0]
	require.Equal(t, 2, fd.Hunks[0].SplittableInto)

	term := &fakeTerminal{lines: []string{"s", "y", "y"}}
	sess := NewFileSession(plain, nil, fd, ModeStageAdd, term, nil, nil)

	require.NoError(t, sess.Run())
	require.Len(t, fd.Hunks, 2)
	assert.Equal(t, UseHunk, fd.Hunks[0].Use)
	assert.Equal(t, UseHunk, fd.Hunks[1].Use)
}

func TestFileSessionAcceptAllWithA(t *testing.T) {
	raw := `diff --git a/file.txt b/file.txt
index 1111111..2222222 100644
--- a/file.txt
+++ b/file.txt
@@ -1,1 +1,1 @@
-a
+b
@@ -10,1 +10,1 @@
-c
+d
`
	files, err := ParseDiff([]byte(raw), nil)
	require.NoError(t, err)
	plain := NewBuffer([]byte(raw))
	fd := files[0]
	require.Len(t, fd.Hunks, 2)

	term := &fakeTerminal{lines: []string{"a"}}
	sess := NewFileSession(plain, nil, fd, ModeStageAdd, term, nil, nil)

	require.NoError(t, sess.Run())
	for _, h := range fd.Hunks {
		assert.Equal(t, UseHunk, h.Use)
	}
}

func TestGotoSummaryLabelsHunks(t *testing.T) {
	files, err := ParseDiff([]byte(twoRunDiff), nil)
	require.NoError(t, err)
	fd := files[0]
	entries := GotoSummary(fd)
	require.Len(t, entries, 1)
	assert.Equal(t, "@@ -1,5 +1,5 @@", entries[0].Label)
	assert.Equal(t, 0, entries[0].Omitted)
}

func TestHelpTextFiltersByPermission(t *testing.T) {
	text := HelpText(ModeStageAdd, allowSplit)
	assert.Contains(t, text, "s - split the current hunk into smaller hunks")
	assert.NotContains(t, text, "e - manually edit the current hunk")
}
