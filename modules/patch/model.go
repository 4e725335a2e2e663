// Package patch implements the interactive patch-selection engine that
// powers zeta's "add -p" family of commands: parsing a unified diff
// produced by an external differ, letting a caller accept/reject/split/
// edit hunks, and reassembling a synthetic patch for an external applier.
//
// The package never launches a differ, applier, or editor itself, and
// never reads a terminal: those are external collaborators, described
// here only as the Differ, Applier, Editor, and Terminal interfaces.
package patch

import "bytes"

// Use records a hunk's accept/reject decision.
type Use int

const (
	Undecided Use = iota
	Skip
	UseHunk
)

// Buffer is an append-only byte arena. Byte ranges into a Buffer remain
// valid across appends, which is what lets the merger (C5) and the edited
// hunk validator (C6) extend a FileDiff's plain text after parsing without
// invalidating earlier hunks' [start,end) ranges.
type Buffer struct {
	b []byte
}

// NewBuffer wraps raw as the initial contents of a Buffer.
func NewBuffer(raw []byte) *Buffer {
	return &Buffer{b: append([]byte(nil), raw...)}
}

// Bytes returns the buffer's current contents. The returned slice aliases
// the Buffer's storage and must not be mutated.
func (buf *Buffer) Bytes() []byte { return buf.b }

// Len returns the current length of the buffer.
func (buf *Buffer) Len() int { return len(buf.b) }

// Slice returns buf.Bytes()[start:end].
func (buf *Buffer) Slice(start, end int) []byte { return buf.b[start:end] }

// Append appends p to the buffer and returns the byte range [start,end)
// that now holds it.
func (buf *Buffer) Append(p []byte) (start, end int) {
	start = len(buf.b)
	buf.b = append(buf.b, p...)
	return start, len(buf.b)
}

// AppendRange appends buf's own bytes [start,end) to itself (a copy, not
// an alias) and returns the new range. Used by the merger to hold the
// union of two non-adjacent hunk ranges.
func (buf *Buffer) AppendRange(start, end int) (newStart, newEnd int) {
	return buf.Append(buf.b[start:end])
}

// Truncate shrinks the buffer back to length n. Callers (the merger, the
// reassembler) must ensure no live Hunk range extends past n.
func (buf *Buffer) Truncate(n int) { buf.b = buf.b[:n] }

// nextLine returns the end of the line starting at i (the index just past
// the line's trailing '\n', or len(b) if i's line has no terminator).
func nextLine(b []byte, i int) int {
	if i >= len(b) {
		return i
	}
	if idx := bytes.IndexByte(b[i:], '\n'); idx >= 0 {
		return i + idx + 1
	}
	return len(b)
}

// HunkHeader is the parsed/synthesized form of an "@@ -o,c +o,c @@ extra"
// line. ExtraStart/ExtraEnd is the byte range of the function-context text
// after the second "@@", or an empty range if there is none.
type HunkHeader struct {
	OldOffset, OldCount int
	NewOffset, NewCount int
	ExtraStart, ExtraEnd int
}

// Hunk is a contiguous run of diff body lines (or a pseudo-hunk: the file
// header block, or a mode-change block) together with the bookkeeping the
// engine needs to accept/reject/split/edit/render it.
type Hunk struct {
	Start, End int // byte range in the plain Buffer
	ColoredStart, ColoredEnd int // byte range in the colored Buffer, or 0,0

	// HeaderLen is the number of bytes between Start and where this
	// hunk's body lines begin in the plain Buffer: for a hunk straight
	// out of the parser this is the length of its own "@@ ... @@\n" line;
	// for a hunk produced by SplitHunk or installed by an edit it is 0,
	// since neither ever writes a literal header line into the buffer
	// (the header is always synthesized fresh at render time from
	// HunkHeader). Stored as a length relative to Start, not an absolute
	// offset, so it survives MergeHunks relocating a hunk's bytes to a
	// new position via Buffer.AppendRange. RenderHunk always renders
	// plain[Start+HeaderLen:End], never plain[Start:End] directly.
	HeaderLen int

	// ColoredHeaderLen is HeaderLen's counterpart for the colored Buffer,
	// meaningful only when ColoredEnd > ColoredStart.
	ColoredHeaderLen int

	Header HunkHeader

	// SplittableInto is the number of sub-hunks obtainable by splitting
	// at interior context-line runs; always >= 1.
	SplittableInto int

	Use Use

	// Delta is the signed line-count change introduced by a user edit of
	// this hunk, independent of inter-hunk shift. Zero until edited.
	Delta int

	// Edited is true once the hunk's body has been replaced by a
	// user-edited version (its byte range points into appended bytes).
	Edited bool

	// orig* is a snapshot captured the first time this hunk is edited, so
	// a failed edit attempt can be retried against the true original.
	origCaptured bool
	OrigStart, OrigEnd               int
	OrigOldOffset, OrigNewOffset     int

	// PreImage is the set of line ranges (into the plain Buffer) that this
	// hunk consumes from the source side: context lines plus "pre" lines
	// (removals normally, additions in reverse mode), plus any trailing
	// incomplete-EOL marker lines. Used by the LCS offset inference in the
	// edited-hunk validator.
	PreImage []LineRange
}

// LineRange is a half-open byte range, one diff body line (including its
// trailing newline, if any).
type LineRange struct {
	Start, End int
}

// IsPseudo reports whether h is a pseudo-hunk (file header or mode-change
// block): both offsets are zero and it is rendered verbatim, never
// reheadered.
func (h *Hunk) IsPseudo() bool {
	return h.Header.OldOffset == 0 && h.Header.NewOffset == 0
}

// snapshotOrig records h's current start/end/offsets the first time it is
// edited. A no-op on subsequent edits of the same hunk.
func (h *Hunk) snapshotOrig() {
	if h.origCaptured {
		return
	}
	h.OrigStart, h.OrigEnd = h.Start, h.End
	h.OrigOldOffset, h.OrigNewOffset = h.Header.OldOffset, h.Header.NewOffset
	h.origCaptured = true
}

// FileDiff is one file's worth of parsed diff: a pseudo-hunk header plus
// an ordered list of body hunks (the first of which is a mode-change
// pseudo-hunk when ModeChange is true and there is no other change).
type FileDiff struct {
	// Head covers the file's "diff ..." header block, including any
	// "old mode"/"new mode" lines (nested mode-change pseudo-hunk is
	// Hunks[0] when ModeChange is true).
	Head Hunk

	Hunks []*Hunk

	Deleted    bool
	Added      bool
	ModeChange bool
	Binary     bool

	// OldPath/NewPath are the paths named on the "diff ..." header line,
	// best-effort for display only (e.g. the "g" goto summary).
	OldPath, NewPath string
}

// FirstBodyIndex returns the index of the first hunk that is not the
// mode-change pseudo-hunk.
func (fd *FileDiff) FirstBodyIndex() int {
	if fd.ModeChange && len(fd.Hunks) > 0 && fd.Hunks[0].IsPseudo() {
		return 1
	}
	return 0
}

// validate checks the mutual-exclusivity invariant (spec.md §3 item 5).
func (fd *FileDiff) validate() error {
	n := 0
	if fd.Deleted {
		n++
	}
	if fd.Added {
		n++
	}
	if fd.ModeChange {
		n++
	}
	if n > 1 {
		return ErrInvariantViolation
	}
	return nil
}
