package patch

import (
	"errors"

	"github.com/antgroup/hugescm/pkg/tr"
)

// Fatal errors: abort the whole interactive session.
var (
	ErrMalformedDiff      = errors.New("patch: malformed diff")
	ErrMismatchedColor    = errors.New("patch: mismatched output from interactive filter")
	ErrInvariantViolation = errors.New("patch: BUG: invariant violation")
)

// Operation-scoped errors: surfaced to the user, session continues.
var (
	ErrHunksDoNotOverlap  = errors.New("patch: hunks do not overlap")
	ErrNotSplittable      = errors.New("patch: hunk is not splittable")
	ErrNoSuchHunk         = errors.New("patch: no such hunk")
	ErrBadSearch          = errors.New("patch: bad search expression")
	ErrNoMatch            = errors.New("patch: no hunk matches")
	ErrCommandNotPermitted = errors.New("patch: command not available for this hunk")
)

// Edit-validation errors (§4.6, §7).
var (
	ErrEditCanceled              = errors.New("patch: edit canceled")
	ErrPreimageDoesNotMatch      = errors.New("patch: edited pre-image does not match the original")
	ErrAmbiguousOffset           = errors.New("patch: unable to determine new hunk offset")
	ErrPreimageBeforeStart       = errors.New("patch: preimage extends beyond beginning of file")
)

// ErrQuit is returned by the interactive driver when the user terminates
// the whole session (the "q" command, or end-of-input on the terminal).
var ErrQuit = errors.New("patch: user quit")

// HunkErrorKind enumerates the per-line parse error kinds from spec.md §7.
type HunkErrorKind int

const (
	BadLine HunkErrorKind = iota
	DuplicateHeader
	HeaderNotFirstLine
	BadIncompleteLine
	DuplicateIncomplete
	FirstLineIsIncomplete
	IncompleteContextBeforeAddition
	IncompleteContextBeforeDeletion
	IncompleteNotLast
)

var hunkErrorMessages = [...]string{
	BadLine:                          "invalid line",
	DuplicateHeader:                  "can only handle a single hunk",
	HeaderNotFirstLine:               "hunk header must be the first line",
	BadIncompleteLine:                "'\\' line must start '\\ ' and be at least 12 characters",
	DuplicateIncomplete:              "duplicate '\\' line",
	FirstLineIsIncomplete:            "hunk cannot begin with '\\' line",
	IncompleteContextBeforeAddition:  "addition after '\\' context line",
	IncompleteContextBeforeDeletion:  "deletion after '\\' context line",
	IncompleteNotLast:                "'\\' must be last line",
}

// String returns the human-readable message for k.
func (k HunkErrorKind) String() string {
	if int(k) < 0 || int(k) >= len(hunkErrorMessages) {
		return tr.W("unknown error")
	}
	return tr.W(hunkErrorMessages[k])
}

// HunkError is one parse error found while lexing a user-edited hunk, with
// the byte position (into the edited text) of the offending line.
type HunkError struct {
	Kind HunkErrorKind
	Pos  int
}

func (e HunkError) Error() string { return e.Kind.String() }
