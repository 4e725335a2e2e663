package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferAppendAndSlice(t *testing.T) {
	b := NewBuffer([]byte("hello "))
	start, end := b.Append([]byte("world"))
	assert.Equal(t, 6, start)
	assert.Equal(t, 11, end)
	assert.Equal(t, "world", string(b.Slice(start, end)))
	assert.Equal(t, "hello world", string(b.Bytes()))
	assert.Equal(t, 11, b.Len())
}

func TestBufferAppendRangeSurvivesTruncate(t *testing.T) {
	b := NewBuffer([]byte("abcdef"))
	start, end := b.AppendRange(2, 4)
	assert.Equal(t, "cd", string(b.Slice(start, end)))
	assert.Equal(t, "abcdefcd", string(b.Bytes()))
}

func TestBufferTruncate(t *testing.T) {
	b := NewBuffer([]byte("abcdef"))
	b.Append([]byte("ghi"))
	b.Truncate(6)
	assert.Equal(t, "abcdef", string(b.Bytes()))
}

func TestNextLine(t *testing.T) {
	b := []byte("one\ntwo\nthree")
	assert.Equal(t, 4, nextLine(b, 0))
	assert.Equal(t, 8, nextLine(b, 4))
	assert.Equal(t, len(b), nextLine(b, 8))
	assert.Equal(t, len(b), nextLine(b, len(b)))
}

func TestHunkIsPseudo(t *testing.T) {
	pseudo := &Hunk{Header: HunkHeader{}}
	assert.True(t, pseudo.IsPseudo())

	real := &Hunk{Header: HunkHeader{OldOffset: 1, NewOffset: 1}}
	assert.False(t, real.IsPseudo())
}

func TestFileDiffFirstBodyIndex(t *testing.T) {
	plain := &Hunk{Header: HunkHeader{OldOffset: 1, NewOffset: 1}}
	fd := &FileDiff{Hunks: []*Hunk{plain}}
	assert.Equal(t, 0, fd.FirstBodyIndex())

	modeHunk := &Hunk{}
	fd2 := &FileDiff{ModeChange: true, Hunks: []*Hunk{modeHunk, plain}}
	assert.Equal(t, 1, fd2.FirstBodyIndex())
}

func TestFileDiffValidateMutualExclusivity(t *testing.T) {
	fd := &FileDiff{Deleted: true}
	assert.NoError(t, fd.validate())

	fd2 := &FileDiff{Deleted: true, Added: true}
	assert.ErrorIs(t, fd2.validate(), ErrInvariantViolation)

	fd3 := &FileDiff{ModeChange: true}
	assert.NoError(t, fd3.validate())
}
