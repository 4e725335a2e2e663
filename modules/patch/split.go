package patch

// SplitHunk splits file.Hunks[hunkIndex] into its SplittableInto maximal
// number of sub-hunks, each separated by a run of context lines, and
// replaces it in place. Returns ErrNotSplittable if the hunk cannot be
// split further (spec.md §4.4).
//
// colored may be nil (no color tracking active for this session); when
// non-nil, sub-hunk colored ranges are derived by walking plain and
// colored body lines in lockstep, the same one-line-per-line
// correspondence the parser itself relies on (spec.md §4.1).
func SplitHunk(plain, colored *Buffer, fd *FileDiff, hunkIndex int) error {
	if hunkIndex < 0 || hunkIndex >= len(fd.Hunks) {
		return ErrNoSuchHunk
	}
	hunk := fd.Hunks[hunkIndex]
	if hunk.SplittableInto < 2 {
		return ErrNotSplittable
	}
	n := hunk.SplittableInto
	b := plain.Bytes()

	trackColor := colored != nil && hunk.ColoredEnd > hunk.ColoredStart
	var cb []byte
	var colPos int
	if trackColor {
		cb = colored.Bytes()
		colPos = nextLine(cb, hunk.ColoredStart) // colored body begin
	}

	subs := make([]*Hunk, 0, n)
	oldOffset, newOffset := hunk.Header.OldOffset, hunk.Header.NewOffset
	bodyBegin := hunk.Start + hunk.HeaderLen

	var (
		curStart        = bodyBegin
		curColStart     = colPos
		curOldCount     int
		curNewCount     int
		sawSigned       bool
		pendingCtxStart = -1 // start of a context run that might begin the next sub-hunk
		pendingCtxOld   int
		pendingCtxNew   int
		pendingColStart int
	)

	flush := func(end, colEnd, advanceOld, advanceNew int) {
		h := &Hunk{
			Use:            hunk.Use,
			SplittableInto: 1,
			Header: HunkHeader{
				OldOffset: oldOffset,
				NewOffset: newOffset,
				OldCount:  curOldCount,
				NewCount:  curNewCount,
			},
		}
		h.Start = curStart
		h.End = end
		if trackColor {
			h.ColoredStart = curColStart
			h.ColoredEnd = colEnd
		}
		subs = append(subs, h)
		// advanceOld/advanceNew exclude the straddling context lines that
		// also open the next sub-hunk, so they are not skipped twice.
		oldOffset += advanceOld
		newOffset += advanceNew
		curOldCount, curNewCount = 0, 0
	}

	for i := bodyBegin; i < hunk.End; {
		end := nextLine(b, i)
		c := byte(0)
		if i < len(b) {
			c = b[i]
		}
		var colEnd int
		if trackColor {
			colEnd = nextLine(cb, colPos)
		}
		switch c {
		case ' ':
			if sawSigned && pendingCtxStart < 0 {
				pendingCtxStart = i
				pendingColStart = colPos
				pendingCtxOld, pendingCtxNew = 0, 0
			}
			if pendingCtxStart >= 0 {
				pendingCtxOld++
				pendingCtxNew++
			}
			curOldCount++
			curNewCount++
		case '-', '+':
			if pendingCtxStart >= 0 {
				// context run ends a sub-hunk boundary: the context lines
				// straddle both sub-hunks, so flush up to (but not
				// including) this signed run, with the context counted in
				// the flushed sub-hunk, then start the next sub-hunk back
				// at pendingCtxStart so the same context lines open it.
				flush(i, colPos, curOldCount-pendingCtxOld, curNewCount-pendingCtxNew)
				curStart = pendingCtxStart
				curColStart = pendingColStart
				curOldCount, curNewCount = pendingCtxOld, pendingCtxNew
				pendingCtxStart = -1
			}
			if c == '-' {
				curOldCount++
			} else {
				curNewCount++
			}
			sawSigned = true
		case '\\':
			// attaches to previous line; no count change.
		}
		i = end
		colPos = colEnd
	}
	// last sub-hunk gets the rest.
	last := &Hunk{
		Use:            hunk.Use,
		SplittableInto: 1,
		Header: HunkHeader{
			OldOffset: oldOffset,
			NewOffset: newOffset,
			OldCount:  curOldCount,
			NewCount:  curNewCount,
		},
	}
	last.Start = curStart
	last.End = hunk.End
	if trackColor {
		last.ColoredStart = curColStart
		last.ColoredEnd = hunk.ColoredEnd
	}
	subs = append(subs, last)

	if last.Header.OldOffset+last.Header.OldCount != hunk.Header.OldOffset+hunk.Header.OldCount {
		return ErrInvariantViolation
	}
	if last.Header.NewOffset+last.Header.NewCount != hunk.Header.NewOffset+hunk.Header.NewCount {
		return ErrInvariantViolation
	}

	replaced := make([]*Hunk, 0, len(fd.Hunks)+len(subs)-1)
	replaced = append(replaced, fd.Hunks[:hunkIndex]...)
	replaced = append(replaced, subs...)
	replaced = append(replaced, fd.Hunks[hunkIndex+1:]...)
	fd.Hunks = replaced
	return nil
}
