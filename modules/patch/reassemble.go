package patch

import "github.com/antgroup/hugescm/modules/diferenco/color"

// Reassembled is one file's worth of output from ReassemblePatch: the
// synthetic patch text (for the applier) plus the colored text (for
// display), along with whether the file had any accepted change at all.
type Reassembled struct {
	Plain      []byte
	Colored    []byte
	HasChanges bool
}

// ReassemblePatch builds the patch to hand to the applier for one file,
// folding mergeable runs of accepted hunks together and keeping track of
// the cumulative line-count delta across hunks, per spec.md §4.7.
//
// reverse selects the "reverse applier" numbering used by checkout-style
// modes (spec.md §6.1): when true, offset deltas are subtracted from the
// old side instead of added to the new side (mirrored from RenderHunk).
//
// useAll reassembles as if every hunk were accepted, regardless of its Use
// field — this is what the round-trip "accept everything reproduces the
// original diff" property (spec.md §8) exercises.
func ReassemblePatch(plain, colored *Buffer, fd *FileDiff, cc color.ColorConfig, reverse, useAll bool) (Reassembled, error) {
	savedPlainLen := plain.Len()
	savedColoredLen := 0
	if colored != nil {
		savedColoredLen = colored.Len()
	}
	defer func() {
		plain.Truncate(savedPlainLen)
		if colored != nil {
			colored.Truncate(savedColoredLen)
		}
	}()

	var out Reassembled
	RenderDiffHeader(plain, fd, &out.Plain)
	if colored != nil {
		RenderDiffHeaderColored(colored, fd, &out.Colored)
	}

	delta := 0
	for i := fd.FirstBodyIndex(); i < len(fd.Hunks); i++ {
		hunk := fd.Hunks[i]
		if !useAll && hunk.Use != UseHunk {
			// a rejected hunk still shifts the running offset seen by
			// later hunks, per add-patch.c's skip-path delta update.
			delta += hunk.Header.OldCount - hunk.Header.NewCount
			continue
		}

		merged, ok, err := MergeHunks(plain, fd, &i, useAll)
		if err != nil {
			return Reassembled{}, err
		}
		h := hunk
		if ok {
			h = &merged
			if colored != nil && h.ColoredStart == 0 && h.ColoredEnd == 0 {
				// MergeHunks zeroes the colored range when it relocated or
				// appended body bytes (its literal, non-relocating overlap
				// path carries the original colored range forward instead).
				start, colEnd := recolorRange(plain, colored, h.Start+h.HeaderLen, h.End, cc)
				h.ColoredStart, h.ColoredHeaderLen, h.ColoredEnd = start, 0, colEnd
			}
		}

		RenderHunk(plain, h, delta, reverse, &out.Plain)
		if colored != nil {
			RenderHunkColored(plain, colored, h, delta, reverse, cc, &out.Colored)
		}
		delta += h.Delta
		out.HasChanges = true
	}

	return out, nil
}
