package patch

// SnapshotPreImage walks h's body lines in buf and records its pre-image:
// the lines the hunk consumes from the source side (context lines plus
// removals, or context lines plus additions when reverse is true), plus
// any trailing incomplete-EOL "\" marker that immediately follows one of
// those lines. Used by the edited-hunk validator (C6) to compute the LCS
// against a user-edited hunk.
func SnapshotPreImage(buf *Buffer, h *Hunk, reverse bool) {
	h.PreImage = h.PreImage[:0]
	b := buf.Bytes()
	allowIncomplete := false
	for i := h.Start; i < h.End; {
		end := nextLine(b, i)
		c := byte(0)
		if i < len(b) {
			c = b[i]
		}
		isPre := c == ' ' || (reverse && c == '+') || (!reverse && c == '-')
		if isPre || (allowIncomplete && c == '\\') {
			h.PreImage = append(h.PreImage, LineRange{Start: i, End: end})
			allowIncomplete = c != '\\'
		} else {
			allowIncomplete = false
		}
		i = end
	}
}

// ClearPreImage releases h's pre-image (allocate/clear per spec.md §4.2).
func (h *Hunk) ClearPreImage() { h.PreImage = nil }
