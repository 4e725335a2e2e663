package patch

import "bytes"

// MergeHunks coalesces file.Hunks[*hunkIndex] forward with any following
// accepted hunks whose (possibly edited) range overlaps it, per spec.md
// §4.5. On success it returns the merged hunk and advances *hunkIndex to
// the index of the last hunk folded in; ok is false if nothing merged
// (hunkIndex is unchanged and merged is the zero value).
//
// useAll causes every hunk to be treated as accepted regardless of its Use
// field, matching reassemble_patch's own use_all parameter (spec.md §4.7:
// the round-trip "accept everything" property needs this).
func MergeHunks(plain *Buffer, fd *FileDiff, hunkIndex *int, useAll bool) (merged Hunk, ok bool, err error) {
	i := *hunkIndex
	hunk := fd.Hunks[i]
	if !useAll && hunk.Use != UseHunk {
		return Hunk{}, false, nil
	}

	merged = *hunk
	header := &merged.Header

	for i+1 < len(fd.Hunks) {
		next := fd.Hunks[i+1]
		nh := &next.Header

		if (!useAll && next.Use != UseHunk) ||
			header.NewOffset >= nh.NewOffset+merged.Delta ||
			header.NewOffset+header.NewCount < nh.NewOffset+merged.Delta {
			break
		}

		var delta int
		if merged.Start < next.Start && merged.End > next.Start {
			// Unedited, literal byte-range overlap: just extend.
			merged.End = next.End
			merged.ColoredEnd = next.ColoredEnd
			delta = 0
		} else {
			b := plain.Bytes()
			overlapCount := header.NewOffset + header.NewCount - merged.Delta - nh.NewOffset
			overlapEnd := next.Start
			overlapStart := overlapEnd
			for j := 0; j < overlapCount; j++ {
				overlapNext := nextLine(b, overlapEnd)
				if overlapNext > next.End {
					return Hunk{}, false, ErrInvariantViolation
				}
				if b[overlapEnd] != ' ' {
					return Hunk{}, false, ErrHunksDoNotOverlap
				}
				overlapStart = overlapEnd
				overlapEnd = overlapNext
			}
			length := overlapEnd - overlapStart

			if length > merged.End-merged.Start {
				return Hunk{}, false, ErrHunksDoNotOverlap
			}
			tail := b[merged.End-length : merged.End]
			head := b[overlapStart:overlapEnd]
			if !bytes.Equal(tail, head) {
				return Hunk{}, false, ErrHunksDoNotOverlap
			}

			if merged.End != plain.Len() {
				start, end := plain.AppendRange(merged.Start, merged.End)
				merged.Start, merged.End = start, end
				b = plain.Bytes()
			}
			_, end := plain.Append(b[overlapEnd:next.End])
			merged.End = end
			merged.SplittableInto += next.SplittableInto
			delta = merged.Delta
			merged.Delta += next.Delta
			// The relocated/appended body no longer lines up with the
			// original colored ranges; the session recolors a merged hunk
			// the same way it would an edited one before rendering it.
			merged.ColoredStart, merged.ColoredHeaderLen, merged.ColoredEnd = 0, 0, 0
		}

		header.OldCount = nh.OldOffset + nh.OldCount - header.OldOffset
		header.NewCount = nh.NewOffset + delta + nh.NewCount - header.NewOffset
		i++
	}

	if i == *hunkIndex {
		return Hunk{}, false, nil
	}
	*hunkIndex = i
	return merged, true, nil
}
