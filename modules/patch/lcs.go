package patch

// lineEq compares two pre-image lines by content, ignoring their leading
// sign/context byte, with one exception: an empty context line that had
// its leading space stripped by an editor ("" instead of " ") still
// matches a " " line (spec.md §4.6 step 5 "edited pre-image ... matches").
func lineEq(plainA []byte, a LineRange, plainB []byte, b LineRange) bool {
	p := plainA[a.Start:a.End]
	q := plainB[b.Start:b.End]
	if len(p) > 0 && len(q) > 0 && p[0] != '\\' && q[0] != '\\' {
		if len(p) == len(q) {
			return string(p[1:]) == string(q[1:])
		}
		return len(q) == 1 && len(p) == 2 && p[0] == ' '
	}
	if len(p) == 0 || len(q) == 0 {
		return len(p) == len(q)
	}
	return p[0] == q[0]
}

// Match is one maximal common substring found by lcsLines, at offsets
// off_a into a and off_b into b.
type Match struct {
	OffA, OffB int
}

// Matches is the result of lcsLines: every maximal-length common substring
// of a and b (LenStr is that length), plus the length of a's and b's
// longest common subsequence (LenSeq), computed in the same O(len(a) *
// len(b)) pass (spec.md §4.6 step 5, grounded on add-patch.c's lcs()).
type Matches struct {
	LenStr int
	LenSeq int
	Match  []Match
}

// lcsLines computes Matches for the line arrays a (in plainA) and b (in
// plainB).
func lcsLines(plainA []byte, a []LineRange, plainB []byte, b []LineRange) Matches {
	var m Matches
	if len(a) == 0 || len(b) == 0 {
		return m
	}
	lastSeq := make([]int, len(b))
	lastStr := make([]int, maxInt(len(b)-1, 0))

	var lenSeq, lenStr int
	var lastLenSeq, lastLenStr int

	for i := 0; i < len(a); i++ {
		lastLenSeq = 0
		lastLenStr = 0
		for j := 0; j < len(b); j++ {
			if lineEq(plainA, a[i], plainB, b[j]) {
				if i == 0 || j == 0 {
					lenSeq = 1
					lenStr = 1
				} else {
					lenSeq = lastSeq[j-1] + 1
					lenStr = lastStr[j-1] + 1
				}
				if lenStr > m.LenStr {
					m.LenStr = lenStr
					m.Match = m.Match[:0]
				}
				if lenStr >= m.LenStr {
					m.Match = append(m.Match, Match{OffA: i + 1 - lenStr, OffB: j + 1 - lenStr})
				}
			} else if j == 0 || lastLenSeq < lastSeq[j] {
				lenSeq = lastSeq[j]
				lenStr = 0
			} else {
				lenSeq = lastLenSeq
				lenStr = 0
			}
			if j > 0 {
				lastSeq[j-1] = lastLenSeq
				lastStr[j-1] = lastLenStr
			}
			lastLenSeq = lenSeq
			lastLenStr = lenStr
		}
		lastSeq[len(b)-1] = lastLenSeq
	}
	m.LenSeq = lenSeq
	return m
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
