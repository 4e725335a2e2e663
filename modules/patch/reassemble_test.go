package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antgroup/hugescm/modules/diferenco/color"
)

func TestReassemblePatchRoundTripWithUseAll(t *testing.T) {
	files, err := ParseDiff([]byte(twoRunDiff), nil)
	require.NoError(t, err)
	fd := files[0]
	plain := NewBuffer([]byte(twoRunDiff))
	cc := color.NewColorConfig()

	out, err := ReassemblePatch(plain, nil, fd, cc, false, true)
	require.NoError(t, err)
	assert.True(t, out.HasChanges)
	assert.Equal(t, twoRunDiff, string(out.Plain))
}

func TestReassemblePatchSkipsRejectedHunk(t *testing.T) {
	files, err := ParseDiff([]byte(twoRunDiff), nil)
	require.NoError(t, err)
	fd := files[0]
	fd.Hunks[0].Use = Skip
	plain := NewBuffer([]byte(twoRunDiff))
	cc := color.NewColorConfig()

	out, err := ReassemblePatch(plain, nil, fd, cc, false, false)
	require.NoError(t, err)
	assert.False(t, out.HasChanges)

	var header []byte
	RenderDiffHeader(plain, fd, &header)
	assert.Equal(t, string(header), string(out.Plain))
}

func TestReassemblePatchPropagatesDeltaPastSkippedHunk(t *testing.T) {
	raw := `diff --git a/file.txt b/file.txt
index 1111111..2222222 100644
--- a/file.txt
+++ b/file.txt
@@ -1,2 +1,1 @@
-old1
-old2
+new1
@@ -10,1 +9,1 @@
-c
+d
`
	files, err := ParseDiff([]byte(raw), nil)
	require.NoError(t, err)
	fd := files[0]
	require.Len(t, fd.Hunks, 2)
	fd.Hunks[0].Use = Skip
	fd.Hunks[1].Use = UseHunk
	plain := NewBuffer([]byte(raw))
	cc := color.NewColorConfig()

	out, err := ReassemblePatch(plain, nil, fd, cc, false, false)
	require.NoError(t, err)
	assert.True(t, out.HasChanges)
	// hunk 0 (old_count=2, new_count=1) is skipped entirely, so its
	// one-line shrink must not apply to hunk 1's emitted new offset: had
	// the skip not fed into delta, this would render "+9,1" instead.
	assert.Contains(t, string(out.Plain), "@@ -10,1 +10,1 @@")
	assert.NotContains(t, string(out.Plain), "@@ -10,1 +9,1 @@")
}

func TestReassemblePatchMergesSplitAcceptedHunks(t *testing.T) {
	coloredSrc := []byte(twoRunDiff)
	files, err := ParseDiff([]byte(twoRunDiff), coloredSrc)
	require.NoError(t, err)
	fd := files[0]
	plain := NewBuffer([]byte(twoRunDiff))
	colored := NewBuffer(coloredSrc)

	require.NoError(t, SplitHunk(plain, colored, fd, 0))
	require.Len(t, fd.Hunks, 2)
	fd.Hunks[0].Use = UseHunk
	fd.Hunks[1].Use = UseHunk

	cc := color.NewColorConfig()
	out, err := ReassemblePatch(plain, colored, fd, cc, false, false)
	require.NoError(t, err)
	assert.True(t, out.HasChanges)
	assert.Equal(t, twoRunDiff, string(out.Plain))
	assert.NotEmpty(t, out.Colored)
}
