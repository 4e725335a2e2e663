package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitHunkNotSplittable(t *testing.T) {
	files, err := ParseDiff([]byte(simpleDiff), nil)
	require.NoError(t, err)
	plain := NewBuffer([]byte(simpleDiff))
	fd := files[0]
	require.Equal(t, 1, fd.Hunks[0].SplittableInto)

	err = SplitHunk(plain, nil, fd, 0)
	assert.ErrorIs(t, err, ErrNotSplittable)
}

func TestSplitHunkNoSuchHunk(t *testing.T) {
	files, err := ParseDiff([]byte(simpleDiff), nil)
	require.NoError(t, err)
	plain := NewBuffer([]byte(simpleDiff))
	err = SplitHunk(plain, nil, files[0], 5)
	assert.ErrorIs(t, err, ErrNoSuchHunk)
}

func TestSplitHunkTwoRuns(t *testing.T) {
	files, err := ParseDiff([]byte(twoRunDiff), nil)
	require.NoError(t, err)
	plain := NewBuffer([]byte(twoRunDiff))
	fd := files[0]
	require.Equal(t, 2, fd.Hunks[0].SplittableInto)

	err = SplitHunk(plain, nil, fd, 0)
	require.NoError(t, err)
	require.Len(t, fd.Hunks, 2)

	first, second := fd.Hunks[0], fd.Hunks[1]
	assert.Equal(t, 1, first.SplittableInto)
	assert.Equal(t, 1, second.SplittableInto)

	// old/new counts of both sub-hunks must reconstitute the original
	// hunk's total counts (spec.md §4.4 splitter law).
	assert.Equal(t, 5, first.Header.OldCount+second.Header.OldCount-
		overlapLineCount(plain, first, second))
	assert.Equal(t, first.Header.OldOffset, 1)
	assert.Equal(t, second.Header.OldOffset+second.Header.OldCount, 6)
	assert.Equal(t, second.Header.NewOffset+second.Header.NewCount, 6)

	var firstOut, secondOut []byte
	RenderHunk(plain, first, 0, false, &firstOut)
	RenderHunk(plain, second, 0, false, &secondOut)
	assert.Contains(t, string(firstOut), "old one")
	assert.Contains(t, string(firstOut), "middle")
	assert.Contains(t, string(secondOut), "middle")
	assert.Contains(t, string(secondOut), "old two")
}

// overlapLineCount returns 1 when both sub-hunks share exactly one
// straddling context line (the "middle" boundary line counted in both
// halves' old/new counts per spec.md §4.4), 0 otherwise.
func overlapLineCount(plain *Buffer, first, second *Hunk) int {
	_ = plain
	if first.Header.OldOffset+first.Header.OldCount > second.Header.OldOffset {
		return first.Header.OldOffset + first.Header.OldCount - second.Header.OldOffset
	}
	return 0
}

func TestSplitHunkColoredTracking(t *testing.T) {
	coloredSrc := []byte(twoRunDiff) // same line count, stand-in "colored" stream
	files, err := ParseDiff([]byte(twoRunDiff), coloredSrc)
	require.NoError(t, err)
	plain := NewBuffer([]byte(twoRunDiff))
	colored := NewBuffer(coloredSrc)
	fd := files[0]

	err = SplitHunk(plain, colored, fd, 0)
	require.NoError(t, err)
	for _, h := range fd.Hunks {
		assert.Greater(t, h.ColoredEnd, h.ColoredStart)
	}
}
