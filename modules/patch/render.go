package patch

import (
	"fmt"
	"strconv"

	"github.com/antgroup/hugescm/modules/diferenco/color"
)

// RenderHunk emits h to out, given cumulative delta: the net line shift
// introduced by earlier accept/reject decisions for this file (spec.md
// §4.3). When cc is non-nil the function-context "extra" bytes are styled
// with the fragment color; body bytes are copied verbatim regardless
// (pre-colored bytes live in the colored buffer and are not re-colored
// here — see RenderHunkColored for that path).
func RenderHunk(plain *Buffer, h *Hunk, delta int, reverse bool, out *[]byte) {
	if h.IsPseudo() {
		*out = append(*out, plain.Slice(h.Start, h.End)...)
		return
	}
	oldOffset, newOffset := h.Header.OldOffset, h.Header.NewOffset
	if reverse {
		oldOffset -= delta
	} else {
		newOffset += delta
	}
	writeHunkHeader(out, oldOffset, h.Header.OldCount, newOffset, h.Header.NewCount, plain, h.Header.ExtraStart, h.Header.ExtraEnd)
	*out = append(*out, plain.Slice(h.Start+h.HeaderLen, h.End)...)
}

// RenderHunkColored is RenderHunk's counterpart for the colored stream: it
// emits the colored bytes for h's body verbatim (they were produced by the
// external differ, or by recoloring an edited hunk — see edit.go) and
// synthesizes a freshly colored header using cc.
func RenderHunkColored(plain, colored *Buffer, h *Hunk, delta int, reverse bool, cc color.ColorConfig, out *[]byte) {
	if h.IsPseudo() {
		*out = append(*out, colored.Slice(h.ColoredStart, h.ColoredEnd)...)
		return
	}
	oldOffset, newOffset := h.Header.OldOffset, h.Header.NewOffset
	if reverse {
		oldOffset -= delta
	} else {
		newOffset += delta
	}
	*out = append(*out, cc[color.Frag]...)
	writeHunkHeader(out, oldOffset, h.Header.OldCount, newOffset, h.Header.NewCount, plain, h.Header.ExtraStart, h.Header.ExtraEnd)
	trimNewline(out)
	*out = append(*out, cc.Reset(color.Frag)...)
	*out = append(*out, '\n')
	*out = append(*out, colored.Slice(h.ColoredStart+h.ColoredHeaderLen, h.ColoredEnd)...)
}

func trimNewline(out *[]byte) {
	if n := len(*out); n > 0 && (*out)[n-1] == '\n' {
		*out = (*out)[:n-1]
	}
}

// writeHunkHeader appends "@@ -o[,c] +o[,c] @@[ extra]\n" to out, omitting
// the count suffix when count==1 (spec.md §4.3).
func writeHunkHeader(out *[]byte, oldOffset, oldCount, newOffset, newCount int, plain *Buffer, extraStart, extraEnd int) {
	*out = append(*out, "@@ -"...)
	*out = appendRange(out, oldOffset, oldCount)
	*out = append(*out, " +"...)
	*out = appendRange(out, newOffset, newCount)
	*out = append(*out, " @@"...)
	if extraEnd > extraStart {
		*out = append(*out, ' ')
		*out = append(*out, plain.Slice(extraStart, extraEnd)...)
	}
	*out = append(*out, '\n')
}

func appendRange(out *[]byte, offset, count int) []byte {
	b := *out
	b = strconv.AppendInt(b, int64(offset), 10)
	if count != 1 {
		b = append(b, ',')
		b = strconv.AppendInt(b, int64(count), 10)
	}
	return b
}

// RenderDiffHeader emits a FileDiff's header (C3's render_diff_header):
// normally this is just the verbatim Head pseudo-hunk, but if the file had
// a mode change that was rejected, the two mode-change lines are excised
// from the header bytes, per spec.md §4.3.
func RenderDiffHeader(plain *Buffer, fd *FileDiff, out *[]byte) {
	skipModeChange := fd.ModeChange && len(fd.Hunks) > 0 && fd.Hunks[0].Use != UseHunk
	if !skipModeChange {
		*out = append(*out, plain.Slice(fd.Head.Start, fd.Head.End)...)
		return
	}
	first := fd.Hunks[0]
	*out = append(*out, plain.Slice(fd.Head.Start, first.Start)...)
	*out = append(*out, plain.Slice(first.End, fd.Head.End)...)
}

// RenderDiffHeaderColored is RenderDiffHeader's colored counterpart.
func RenderDiffHeaderColored(colored *Buffer, fd *FileDiff, out *[]byte) {
	skipModeChange := fd.ModeChange && len(fd.Hunks) > 0 && fd.Hunks[0].Use != UseHunk
	if !skipModeChange {
		*out = append(*out, colored.Slice(fd.Head.ColoredStart, fd.Head.ColoredEnd)...)
		return
	}
	first := fd.Hunks[0]
	*out = append(*out, colored.Slice(fd.Head.ColoredStart, first.ColoredStart)...)
	*out = append(*out, colored.Slice(first.ColoredEnd, fd.Head.ColoredEnd)...)
}

// FormatPrompt renders the "(i/N) <prompt> [extras]? " line, spec.md §6.4.
func FormatPrompt(index, total int, prompt string, extras string) string {
	if extras == "" {
		return fmt.Sprintf("(%d/%d) %s", index, total, prompt)
	}
	return fmt.Sprintf("(%d/%d) %s", index, total, fmt.Sprintf(prompt, extras))
}
