package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMergeHunksReconstitutesSplitHunk splits twoRunDiff's single hunk and
// merges the two resulting sub-hunks back together, exercising the literal
// byte-range overlap branch: split sub-hunks share their straddling context
// line's bytes, so the merge never needs to relocate or append anything.
func TestMergeHunksReconstitutesSplitHunk(t *testing.T) {
	files, err := ParseDiff([]byte(twoRunDiff), nil)
	require.NoError(t, err)
	plain := NewBuffer([]byte(twoRunDiff))
	fd := files[0]

	require.NoError(t, SplitHunk(plain, nil, fd, 0))
	require.Len(t, fd.Hunks, 2)

	idx := 0
	merged, ok, err := MergeHunks(plain, fd, &idx, true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	assert.Equal(t, 1, merged.Header.OldOffset)
	assert.Equal(t, 5, merged.Header.OldCount)
	assert.Equal(t, 1, merged.Header.NewOffset)
	assert.Equal(t, 5, merged.Header.NewCount)

	var out []byte
	RenderHunk(plain, &merged, 0, false, &out)
	assert.Equal(t, "@@ -1,5 +1,5 @@\n context1\n-old one\n+new one\n middle\n-old two\n+new two\n context2\n", string(out))
}

// TestMergeHunksNoOverlapReturnsFalse verifies two hunks whose new-side
// ranges never touch are left alone.
func TestMergeHunksNoOverlapReturnsFalse(t *testing.T) {
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
	fd := files[0]
	plain := NewBuffer([]byte(raw))

	idx := 0
	_, ok, err := MergeHunks(plain, fd, &idx, true)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, idx)
}

// TestMergeHunksSkipsHunkNotAccepted mirrors MergeHunks' use_all=false
// path: an undecided hunk (Use left at its zero value) never merges unless
// useAll forces it.
func TestMergeHunksSkipsHunkNotAccepted(t *testing.T) {
	files, err := ParseDiff([]byte(twoRunDiff), nil)
	require.NoError(t, err)
	plain := NewBuffer([]byte(twoRunDiff))
	fd := files[0]
	require.NoError(t, SplitHunk(plain, nil, fd, 0))

	idx := 0
	_, ok, err := MergeHunks(plain, fd, &idx, false)
	require.NoError(t, err)
	assert.False(t, ok)
}
