package patch

import (
	"bytes"

	"github.com/antgroup/hugescm/modules/diferenco/color"
)

// EditedHunk is the parsed form of hunk text a user produced in an
// external editor: a header (if present), a body, the pre-image implied
// by that body, and any lexing errors found along the way (spec.md §4.6).
type EditedHunk struct {
	HasHeader   bool
	Header      HunkHeader
	Start, End  int // byte range in plain, of the retained (non-comment) body
	OldCount    int
	NewCount    int
	ContextOnly bool
	PreImage    []LineRange
	Errors      []HunkError
}

// ParseEditedHunk lexes editedText (the bytes a user's editor produced
// from a rendered hunk, possibly with "# " comment lines interleaved) and
// appends its retained lines to plain, building the edited hunk's body
// and pre-image. It never returns an error itself: malformed input is
// reported via EditedHunk.Errors, per spec.md §4.6 step 4.
// incompleteMark records one "\ No newline at end of file"-style marker
// seen while lexing, along with the sign of the body line it attaches to
// (0 if none has been seen yet), for process_incomplete-style validation
// once the whole hunk has been scanned.
type incompleteMark struct {
	pos  int
	sign byte
}

func ParseEditedHunk(plain *Buffer, editedText []byte, reverse bool) *EditedHunk {
	e := &EditedHunk{ContextOnly: true}
	start := plain.Len()

	var sawAnyLine bool
	var sign byte // sign of the most recent body/header line: ' ', '-', '+', '@', or 0
	var marks []incompleteMark
	lastContext, lastMinus, lastPlus := -1, -1, -1

	for i := 0; i < len(editedText); {
		end := nextLine(editedText, i)
		line := editedText[i:end]
		pos := i
		i = end
		if len(line) == 0 {
			continue
		}
		switch line[0] {
		case '#':
			continue
		case '@':
			header, _, _, err := parseHunkHeaderLine(string(line), 0)
			if err != nil {
				e.Errors = append(e.Errors, HunkError{Kind: BadLine, Pos: pos})
			} else {
				switch {
				case e.HasHeader:
					e.Errors = append(e.Errors, HunkError{Kind: DuplicateHeader, Pos: pos})
				case sawAnyLine:
					e.Errors = append(e.Errors, HunkError{Kind: HeaderNotFirstLine, Pos: pos})
				default:
					e.Header = header
					e.HasHeader = true
				}
			}
			sign = '@'
			continue
		case ' ', '-', '+':
			sawAnyLine = true
			if line[0] != ' ' {
				e.ContextOnly = false
			}
			lineStart, lineEnd := plain.Append(line)
			e.PreImage = appendPreImageLine(e.PreImage, lineStart, lineEnd, line[0], reverse)
			switch line[0] {
			case ' ':
				e.OldCount++
				e.NewCount++
				lastContext = pos
			case '-':
				e.OldCount++
				lastMinus = pos
			case '+':
				e.NewCount++
				lastPlus = pos
			}
			sign = line[0]
		case '\\':
			if len(line) < 12 || !bytes.HasPrefix(line, []byte("\\ ")) {
				e.Errors = append(e.Errors, HunkError{Kind: BadIncompleteLine, Pos: pos})
				continue
			}
			lineStart, lineEnd := plain.Append(line)
			e.PreImage = appendPreImageLine(e.PreImage, lineStart, lineEnd, sign, reverse)
			marks = append(marks, incompleteMark{pos: pos, sign: sign})
			// sign is left as-is: a run of "\" markers still attaches to
			// whichever body line introduced them.
		default:
			e.Errors = append(e.Errors, HunkError{Kind: BadLine, Pos: pos})
		}
	}

	var sawContextMark, sawMinusMark, sawPlusMark bool
	for _, m := range marks {
		switch m.sign {
		case 0, '@':
			e.Errors = append(e.Errors, HunkError{Kind: FirstLineIsIncomplete, Pos: m.pos})
		case ' ':
			switch {
			case lastContext >= 0 && m.pos < lastContext:
				e.Errors = append(e.Errors, HunkError{Kind: IncompleteNotLast, Pos: m.pos})
			case lastMinus >= 0 && m.pos < lastMinus:
				e.Errors = append(e.Errors, HunkError{Kind: IncompleteContextBeforeDeletion, Pos: m.pos})
			case lastPlus >= 0 && m.pos < lastPlus:
				e.Errors = append(e.Errors, HunkError{Kind: IncompleteContextBeforeAddition, Pos: m.pos})
			case sawContextMark:
				e.Errors = append(e.Errors, HunkError{Kind: DuplicateIncomplete, Pos: m.pos})
			default:
				sawContextMark = true
			}
		case '-':
			switch {
			case lastMinus >= 0 && m.pos < lastMinus:
				e.Errors = append(e.Errors, HunkError{Kind: IncompleteNotLast, Pos: m.pos})
			case sawMinusMark:
				e.Errors = append(e.Errors, HunkError{Kind: DuplicateIncomplete, Pos: m.pos})
			default:
				sawMinusMark = true
			}
		case '+':
			switch {
			case lastPlus >= 0 && m.pos < lastPlus:
				e.Errors = append(e.Errors, HunkError{Kind: IncompleteNotLast, Pos: m.pos})
			case sawPlusMark:
				e.Errors = append(e.Errors, HunkError{Kind: DuplicateIncomplete, Pos: m.pos})
			default:
				sawPlusMark = true
			}
		}
	}

	e.Start, e.End = start, plain.Len()
	return e
}

// appendPreImageLine records a freshly-appended edited-hunk line in the
// pre-image when it is a context or "pre" line (same direction rule as
// SnapshotPreImage). For a "\" marker, sign is the body line it attaches
// to, not '\\' itself, so the same direction rule decides whether the
// marker belongs in the pre-image too.
func appendPreImageLine(pre []LineRange, start, end int, sign byte, reverse bool) []LineRange {
	isPre := sign == ' ' || (reverse && sign == '+') || (!reverse && sign == '-')
	if !isPre {
		return pre
	}
	return append(pre, LineRange{Start: start, End: end})
}

// HasFatalErrors reports whether e's lexing produced any error.
func (e *EditedHunk) HasFatalErrors() bool { return len(e.Errors) > 0 }

// IsEmpty reports whether the user deleted the entire hunk body — a
// cancel, per spec.md §4.6 "A pure-deletion edit ... cancels the edit".
func (e *EditedHunk) IsEmpty() bool { return e.OldCount == 0 && e.NewCount == 0 && !e.HasHeader }

// isContextOnly reports whether hunk's current body is entirely context
// lines (no '+'/'-'), so an offset-ambiguous edit of it can be accepted
// at any of several equally valid offsets (spec.md §4.6 step 6).
func (h *Hunk) isContextOnly() bool {
	return h.Header.OldCount == h.Header.NewCount && h.SplittableInto == 1
}

// applyEditedHunk installs edited's body, header, and counts onto hunk,
// adjusting hunk.Delta to reflect the change in (old-new) line count.
func applyEditedHunk(hunk *Hunk, edited *EditedHunk, offsetDelta int) {
	oldOldCount, oldNewCount := hunk.Header.OldCount, hunk.Header.NewCount
	hunk.Start, hunk.HeaderLen, hunk.End = edited.Start, 0, edited.End
	if edited.HasHeader {
		hunk.Header.OldOffset = edited.Header.OldOffset
		hunk.Header.NewOffset = edited.Header.NewOffset
	} else {
		hunk.Header.OldOffset += offsetDelta
		hunk.Header.NewOffset += offsetDelta
	}
	hunk.Header.OldCount = edited.OldCount
	hunk.Header.NewCount = edited.NewCount
	hunk.Header.ExtraStart, hunk.Header.ExtraEnd = 0, 0
	hunk.Delta += (oldOldCount - oldNewCount) - (edited.OldCount - edited.NewCount)
	hunk.Edited = true
	hunk.SplittableInto = 1
	hunk.PreImage = edited.PreImage
	// The old colored range no longer corresponds to the new body; the
	// caller recolors it via RecolorEditedBody and installs the result.
	hunk.ColoredStart, hunk.ColoredHeaderLen, hunk.ColoredEnd = 0, 0, 0
}

// RecolorEditedBody appends a freshly colored rendering of hunk's current
// body (plain[hunk.Start+hunk.HeaderLen : hunk.End]) to colored and installs
// the result as hunk's colored range, per spec.md §4.6 step 7: context lines
// take cc[color.Context], '-' lines cc[color.Old], '+' lines cc[color.New],
// with the reset sequence written before each line's newline and any '\r'
// preceding '\n' left outside the colored span (same split unified_encoder
// uses for "no newline at end of file" lines).
func RecolorEditedBody(plain, colored *Buffer, hunk *Hunk, cc color.ColorConfig) {
	start, colEnd := recolorRange(plain, colored, hunk.Start+hunk.HeaderLen, hunk.End, cc)
	hunk.ColoredStart, hunk.ColoredHeaderLen, hunk.ColoredEnd = start, 0, colEnd
}

// recolorRange appends a freshly colored rendering of plain[bodyStart:end]
// to colored and returns its range: context lines take cc[color.Context],
// '-' lines cc[color.Old], '+' lines cc[color.New], with the reset sequence
// written before each line's newline and any '\r' preceding '\n' left
// outside the colored span (same split unified_encoder uses for "no newline
// at end of file" lines).
func recolorRange(plain, colored *Buffer, bodyStart, end int, cc color.ColorConfig) (start, colEnd int) {
	b := plain.Bytes()
	var buf []byte
	for i := bodyStart; i < end; {
		lineEnd := nextLine(b, i)
		line := b[i:lineEnd]
		key := color.Context
		switch {
		case len(line) > 0 && line[0] == '-':
			key = color.Old
		case len(line) > 0 && line[0] == '+':
			key = color.New
		}
		content := line
		var crlf []byte
		if bytes.HasSuffix(content, []byte("\n")) {
			content = content[:len(content)-1]
			if bytes.HasSuffix(content, []byte("\r")) {
				content = content[:len(content)-1]
				crlf = []byte("\r\n")
			} else {
				crlf = []byte("\n")
			}
		}
		buf = append(buf, cc[key]...)
		buf = append(buf, content...)
		buf = append(buf, cc.Reset(key)...)
		buf = append(buf, crlf...)
		i = lineEnd
	}
	return colored.Append(buf)
}

// CheckEditedHunkHeader implements add-patch.c's check_edited_hunk_header:
// given the LCS matches between hunk's original pre-image and the edited
// one, decide whether the new offset can be inferred unambiguously, and if
// so install it onto hunk.Header.
func CheckEditedHunkHeader(matches Matches, hunk *Hunk, edited *EditedHunk) error {
	origOldOffset := hunk.Header.OldOffset
	origNewOffset := hunk.Header.NewOffset
	editedOldOffset := edited.Header.OldOffset

	var candidates []int
	for i, mt := range matches.Match {
		validSpan := matches.LenSeq == matches.LenStr &&
			(mt.OffA == 0 || mt.OffB == 0) &&
			(mt.OffA+matches.LenStr == len(hunk.PreImage) || mt.OffB+matches.LenStr == len(edited.PreImage))
		if !validSpan {
			continue
		}
		if edited.HasHeader && origOldOffset != editedOldOffset &&
			((mt.OffA == 0 && mt.OffB < origOldOffset && origOldOffset-mt.OffB == editedOldOffset) ||
				(mt.OffB == 0 && origOldOffset+mt.OffA == editedOldOffset)) {
			hunk.Header.OldOffset = editedOldOffset
			hunk.Header.NewOffset = editedOldOffset + origNewOffset - origOldOffset
			return nil
		}
		candidates = append(candidates, i)
	}
	switch len(candidates) {
	case 1:
		mt := matches.Match[candidates[0]]
		delta := mt.OffA - mt.OffB
		if delta > 0 || -delta < origOldOffset {
			hunk.Header.OldOffset += delta
			hunk.Header.NewOffset += delta
			return nil
		}
		return ErrPreimageBeforeStart
	case 0:
		return ErrPreimageDoesNotMatch
	default:
		if edited.ContextOnly {
			return nil
		}
		return ErrAmbiguousOffset
	}
}

// ValidateEdit is the entry point the driver (C8) calls after
// ParseEditedHunk succeeds with no lexer errors: it runs the LCS offset
// check and, on success, installs the edited hunk's new header, body, and
// delta onto hunk (spec.md §4.6 steps 5-7).
func ValidateEdit(plainA []byte, hunk *Hunk, plainB []byte, edited *EditedHunk) error {
	hunk.snapshotOrig()

	if edited.IsEmpty() {
		return ErrEditCanceled
	}

	if edited.ContextOnly && hunk.isContextOnly() {
		applyEditedHunk(hunk, edited, 0)
		return nil
	}

	if len(hunk.PreImage) == 0 || len(edited.PreImage) == 0 {
		applyEditedHunk(hunk, edited, 0)
		return nil
	}

	matches := lcsLines(plainA, hunk.PreImage, plainB, edited.PreImage)
	if err := CheckEditedHunkHeader(matches, hunk, edited); err != nil {
		return err
	}
	applyEditedHunk(hunk, edited, 0)
	return nil
}
