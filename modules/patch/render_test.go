package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHunkRoundTrip(t *testing.T) {
	files, err := ParseDiff([]byte(simpleDiff), nil)
	require.NoError(t, err)
	plain := NewBuffer([]byte(simpleDiff))
	h := files[0].Hunks[0]

	var out []byte
	RenderHunk(plain, h, 0, false, &out)
	assert.Equal(t, "@@ -1,3 +1,3 @@\n context1\n-old line\n+new line\n context2\n", string(out))
}

func TestRenderHunkAppliesDelta(t *testing.T) {
	files, err := ParseDiff([]byte(simpleDiff), nil)
	require.NoError(t, err)
	plain := NewBuffer([]byte(simpleDiff))
	h := files[0].Hunks[0]

	var out []byte
	RenderHunk(plain, h, 2, false, &out)
	assert.Equal(t, "@@ -1,3 +3,3 @@\n context1\n-old line\n+new line\n context2\n", string(out))

	out = nil
	RenderHunk(plain, h, 2, true, &out)
	assert.Equal(t, "@@ --1,3 +1,3 @@\n context1\n-old line\n+new line\n context2\n", string(out))
}

func TestRenderDiffHeaderSkipsRejectedModeChange(t *testing.T) {
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
	fd := files[0]
	plain := NewBuffer([]byte(raw))

	// reject the mode-change pseudo hunk.
	fd.Hunks[0].Use = Skip

	var out []byte
	RenderDiffHeader(plain, fd, &out)
	got := string(out)
	assert.Contains(t, got, "diff --git a/script.sh b/script.sh")
	assert.Contains(t, got, "index 1111111..1111111")
	assert.NotContains(t, got, "old mode")
	assert.NotContains(t, got, "new mode")
}

func TestRenderDiffHeaderKeepsModeChangeWhenAccepted(t *testing.T) {
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
	fd := files[0]
	plain := NewBuffer([]byte(raw))
	fd.Hunks[0].Use = UseHunk

	var out []byte
	RenderDiffHeader(plain, fd, &out)
	got := string(out)
	assert.Contains(t, got, "old mode 100644")
	assert.Contains(t, got, "new mode 100755")
}

func TestFormatPrompt(t *testing.T) {
	assert.Equal(t, "(1/3) Stage this hunk", FormatPrompt(1, 3, "Stage this hunk", ""))
	assert.Equal(t, "(2/3) Stage this hunk [y,n,q,a,d%s,j,J,k,K,g,/,s,e,?]? ",
		FormatPrompt(2, 3, "Stage this hunk [y,n,q,a,d%s,j,J,k,K,g,/,s,e,?]? ", ""))
}
