package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func linesOf(buf *Buffer, texts ...string) []LineRange {
	var ranges []LineRange
	for _, t := range texts {
		start, end := buf.Append([]byte(t))
		ranges = append(ranges, LineRange{Start: start, End: end})
	}
	return ranges
}

func TestLcsLinesIdentical(t *testing.T) {
	buf := NewBuffer(nil)
	a := linesOf(buf, " one\n", " two\n", " three\n")
	b := linesOf(buf, " one\n", " two\n", " three\n")

	m := lcsLines(buf.Bytes(), a, buf.Bytes(), b)
	assert.Equal(t, 3, m.LenStr)
	assert.Equal(t, 3, m.LenSeq)
	require := assert.New(t)
	require.NotEmpty(m.Match)
	found := false
	for _, mt := range m.Match {
		if mt.OffA == 0 && mt.OffB == 0 {
			found = true
		}
	}
	require.True(found)
}

func TestLcsLinesNoCommonLines(t *testing.T) {
	buf := NewBuffer(nil)
	a := linesOf(buf, " alpha\n")
	b := linesOf(buf, " beta\n")

	m := lcsLines(buf.Bytes(), a, buf.Bytes(), b)
	assert.Equal(t, 0, m.LenStr)
	assert.Empty(t, m.Match)
}

func TestLcsLinesEmptyInputs(t *testing.T) {
	buf := NewBuffer(nil)
	m := lcsLines(buf.Bytes(), nil, buf.Bytes(), nil)
	assert.Equal(t, 0, m.LenStr)
	assert.Equal(t, 0, m.LenSeq)
}

func TestLineEqTreatsStrippedLeadingSpaceOnBlankLineAsContextMatch(t *testing.T) {
	// original context line is a blank line (" \n"); the user's editor
	// stripped its leading space, leaving just "\n".
	plainA := []byte(" \n")
	plainB := []byte("\n")
	a := LineRange{Start: 0, End: len(plainA)}
	b := LineRange{Start: 0, End: len(plainB)}
	assert.True(t, lineEq(plainA, a, plainB, b))
}

func TestLineEqDifferentContentMismatches(t *testing.T) {
	plainA := []byte(" same\n")
	plainB := []byte(" different\n")
	a := LineRange{Start: 0, End: len(plainA)}
	b := LineRange{Start: 0, End: len(plainB)}
	assert.False(t, lineEq(plainA, a, plainB, b))
}
