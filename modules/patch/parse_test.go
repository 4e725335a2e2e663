package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simpleDiff = `diff --git a/file.txt b/file.txt
index 1111111..2222222 100644
--- a/file.txt
+++ b/file.txt
@@ -1,3 +1,3 @@
 context1
-old line
+new line
 context2
`

func TestParseDiffSingleHunk(t *testing.T) {
	files, err := ParseDiff([]byte(simpleDiff), nil)
	require.NoError(t, err)
	require.Len(t, files, 1)

	fd := files[0]
	require.Len(t, fd.Hunks, 1)
	h := fd.Hunks[0]
	assert.Equal(t, 1, h.Header.OldOffset)
	assert.Equal(t, 3, h.Header.OldCount)
	assert.Equal(t, 1, h.Header.NewOffset)
	assert.Equal(t, 3, h.Header.NewCount)
	// a single signed run surrounded by leading/trailing context only has
	// no interior context run to split at.
	assert.Equal(t, 1, h.SplittableInto)

	oldCount, newCount := CountLines(NewBuffer([]byte(simpleDiff)), h)
	assert.Equal(t, 3, oldCount)
	assert.Equal(t, 3, newCount)
}

const twoRunDiff = `diff --git a/file.txt b/file.txt
index 1111111..2222222 100644
--- a/file.txt
+++ b/file.txt
@@ -1,5 +1,5 @@
 context1
-old one
+new one
 middle
-old two
+new two
 context2
`

func TestParseDiffSplittableIntoTwoRuns(t *testing.T) {
	files, err := ParseDiff([]byte(twoRunDiff), nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	h := files[0].Hunks[0]
	// the "middle" context line between the two signed runs is an
	// interior boundary, confirmed because a signed line follows it.
	assert.Equal(t, 2, h.SplittableInto)
}

func TestParseDiffMultipleFiles(t *testing.T) {
	raw := simpleDiff + `diff --git a/other.txt b/other.txt
index 3333333..4444444 100644
--- a/other.txt
+++ b/other.txt
@@ -1,2 +1,2 @@
-a
+b
 c
`
	files, err := ParseDiff([]byte(raw), nil)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Len(t, files[0].Hunks, 1)
	assert.Len(t, files[1].Hunks, 1)
}

func TestParseDiffNewFile(t *testing.T) {
	raw := `diff --git a/new.txt b/new.txt
new file mode 100644
index 0000000..1111111
--- /dev/null
+++ b/new.txt
@@ -0,0 +1,2 @@
+line one
+line two
`
	files, err := ParseDiff([]byte(raw), nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, files[0].Added)
	assert.False(t, files[0].Deleted)
}

func TestParseDiffDeletedAndAddedInvariantViolation(t *testing.T) {
	raw := `diff --git a/f.txt b/f.txt
deleted file mode 100644
new file mode 100644
index 0000000..1111111
--- a/f.txt
+++ /dev/null
@@ -1 +0,0 @@
-gone
`
	_, err := ParseDiff([]byte(raw), nil)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestParseDiffModeChange(t *testing.T) {
	raw := `diff --git a/script.sh b/script.sh
old mode 100644
new mode 100755
index 1111111..1111111
--- a/script.sh
+++ b/script.sh
@@ -1,2 +1,2 @@
 line1
-old
+new
`
	files, err := ParseDiff([]byte(raw), nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	fd := files[0]
	assert.True(t, fd.ModeChange)
	require.Len(t, fd.Hunks, 2)
	assert.True(t, fd.Hunks[0].IsPseudo())
	assert.Equal(t, 1, fd.FirstBodyIndex())
}

func TestParseDiffColorMismatch(t *testing.T) {
	// colored has fewer lines than plain: should surface ErrMismatchedColor.
	_, err := ParseDiff([]byte(simpleDiff), []byte("only one line\n"))
	assert.ErrorIs(t, err, ErrMismatchedColor)
}

func TestParseDiffColorOverflow(t *testing.T) {
	// colored has one extra trailing line beyond plain's line count: the
	// one-line-per-line invariant is violated on the long side too.
	colored := simpleDiff + "extra line\n"
	_, err := ParseDiff([]byte(simpleDiff), []byte(colored))
	assert.ErrorIs(t, err, ErrMismatchedColor)
}

func TestParseDiffMalformedHunkHeader(t *testing.T) {
	raw := `diff --git a/f.txt b/f.txt
index 1111111..2222222 100644
--- a/f.txt
+++ b/f.txt
@@ not a real header @@
 context
`
	_, err := ParseDiff([]byte(raw), nil)
	assert.ErrorIs(t, err, ErrMalformedDiff)
}
