package patch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/antgroup/hugescm/modules/diferenco/color"
	"github.com/antgroup/hugescm/pkg/tr"
)

// Terminal is the interactive driver's only collaborator for user I/O: a
// line of input per call, and nothing else. The concrete implementation
// (reading os.Stdin, detecting whether it is actually a tty) lives outside
// this package (spec.md §1's "never reads a terminal" rule).
type Terminal interface {
	// ReadLine prints prompt and returns the next line of input with its
	// trailing newline stripped. io.EOF is returned at end-of-input.
	ReadLine(prompt string) (string, error)
}

// Editor opens line-bounded text in a user's editor and returns what they
// saved, per spec.md §4.6's "user produced this text externally" model.
type Editor interface {
	Edit(initial []byte) (edited []byte, err error)
}

// permission bits for the current hunk, recomputed before every prompt
// (spec.md §4.8).
type permission int

const (
	allowNext permission = 1 << iota
	allowPrev
	allowNextUndecided
	allowPrevUndecided
	allowSearch
	allowSplit
	allowEdit
	allowGoto
)

// FileSession drives one FileDiff through the interactive command loop.
// Run renders the current hunk (colored via CC when Colored is set, plain
// otherwise) ahead of every prompt it reads, via RenderHunk/RenderHunkColored,
// so the user sees the diff body before being asked to decide it.
// ShouldRender/Current remain exported for a host that wants to render the
// hunk itself (e.g. to a different stream than the prompt line) instead of
// relying on Run's own rendering; Run does not consult them.
type FileSession struct {
	Plain, Colored *Buffer
	FD             *FileDiff
	Mode           *Mode
	Term           Terminal
	Ed             Editor
	Reverse        bool
	CC             color.ColorConfig

	cur            int
	renderedIndex  int
	quitAll        bool

	// LastError is the most recent operation-scoped error (spec.md §7)
	// produced by "g", "/", "s", or "e" — surfaced to the user as a
	// diagnostic, then cleared before the next command is read.
	LastError error
}

// NewFileSession creates a driver over fd, positioned at its first
// decidable hunk. cc is used only to recolor a hunk body after a
// successful edit (RecolorEditedBody); it may be nil when colored is nil.
func NewFileSession(plain, colored *Buffer, fd *FileDiff, mode *Mode, term Terminal, ed Editor, cc color.ColorConfig) *FileSession {
	return &FileSession{
		Plain:         plain,
		Colored:       colored,
		FD:            fd,
		Mode:          mode,
		Term:          term,
		Ed:            ed,
		Reverse:       mode != nil && mode.Reverse,
		CC:            cc,
		cur:           fd.FirstBodyIndex(),
		renderedIndex: -1,
	}
}

// Run executes the command loop over fd's hunks until every hunk has a
// decision, the user quits this file ("q" or EOF), or an error occurs.
// ErrQuit propagates to the caller (the multi-file driver) so it can stop
// processing further files too, per spec.md §5 "Cancellation".
func (s *FileSession) Run() error {
	// len(s.FD.Hunks) is re-read every iteration (not cached) since "s"
	// (SplitHunk) grows it mid-session.
	for s.cur < len(s.FD.Hunks) {
		hunk := s.FD.Hunks[s.cur]
		if hunk.Use != Undecided {
			if nxt, ok := s.nextUndecided(s.cur); ok {
				s.cur = nxt
				continue
			}
			break
		}

		perm := s.permissions()
		prompt := s.formatPrompt(perm)

		if s.renderedIndex != s.cur {
			prompt = string(s.renderHunk(hunk)) + prompt
			s.renderedIndex = s.cur
		}

		line, err := s.Term.ReadLine(prompt)
		if err != nil {
			// End-of-input is treated as "q" (spec.md §5).
			s.rejectRemainingAllFiles()
			return ErrQuit
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		s.LastError = nil
		cont, runErr := s.dispatch(line[0], line, perm)
		if runErr != nil {
			return runErr
		}
		if !cont {
			break
		}
	}
	return nil
}

// renderHunk renders hunk's current body (colored, when s.Colored is set,
// otherwise plain) at delta 0 — the same offset editCommand uses to build
// editor input, since the display shows the hunk as it stands, not as it
// will appear in the final reassembled patch.
func (s *FileSession) renderHunk(hunk *Hunk) []byte {
	var out []byte
	if s.Colored != nil {
		RenderHunkColored(s.Plain, s.Colored, hunk, 0, s.Reverse, s.CC, &out)
	} else {
		RenderHunk(s.Plain, hunk, 0, s.Reverse, &out)
	}
	return out
}

// ShouldRender reports whether the current hunk needs to be (re)rendered
// before the next prompt — true on first entry and after "p". Run renders
// automatically; this is for a host driving FileSession hunk-by-hunk
// instead of calling Run.
func (s *FileSession) ShouldRender() bool { return s.renderedIndex != s.cur }

// Current returns the index of the hunk currently awaiting a decision, or
// len(s.FD.Hunks) if the file is fully decided.
func (s *FileSession) Current() int { return s.cur }

func (s *FileSession) permissions() permission {
	n := len(s.FD.Hunks)
	var p permission
	if s.cur < n {
		hunk := s.FD.Hunks[s.cur]
		if hunk.SplittableInto > 1 {
			p |= allowSplit
		}
		if !hunk.IsPseudo() {
			p |= allowEdit
		}
	}
	if s.cur+1 < n {
		p |= allowNext
	}
	if s.cur > 0 {
		p |= allowPrev
	}
	if _, ok := s.nextUndecidedFrom(s.cur + 1); ok {
		p |= allowNextUndecided
	}
	if _, ok := s.prevUndecidedFrom(s.cur - 1); ok {
		p |= allowPrevUndecided
	}
	if n > 0 {
		p |= allowSearch | allowGoto
	}
	return p
}

func (s *FileSession) formatPrompt(perm permission) string {
	if s.cur >= len(s.FD.Hunks) {
		return ""
	}
	hunk := s.FD.Hunks[s.cur]
	base := s.Mode.PromptFor(s.FD, hunk)

	var extras []string
	if perm&allowNextUndecided != 0 || perm&allowPrevUndecided != 0 {
		if perm&allowNextUndecided != 0 {
			extras = append(extras, "j")
		}
		if perm&allowPrevUndecided != 0 {
			extras = append(extras, "k")
		}
	}
	if perm&allowNext != 0 {
		extras = append(extras, "J")
	}
	if perm&allowPrev != 0 {
		extras = append(extras, "K")
	}
	if perm&allowGoto != 0 {
		extras = append(extras, "g")
	}
	if perm&allowSearch != 0 {
		extras = append(extras, "/")
	}
	if perm&allowSplit != 0 {
		extras = append(extras, "s")
	}
	if perm&allowEdit != 0 {
		extras = append(extras, "e")
	}
	extras = append(extras, "p")

	extraStr := ""
	if len(extras) > 0 {
		extraStr = "," + strings.Join(extras, ",")
	}
	template := base + tr.W(" [y,n,q,a,d%s,?]? ")
	return FormatPrompt(s.cur+1, len(s.FD.Hunks), template, extraStr)
}

// dispatch applies one command key; it returns cont=false when the file
// loop should stop (all decided, or "d").
func (s *FileSession) dispatch(key byte, line string, perm permission) (cont bool, err error) {
	hunk := s.FD.Hunks[s.cur]
	switch key {
	case 'y':
		hunk.Use = UseHunk
		s.advance()
		return s.cur < len(s.FD.Hunks), nil
	case 'n':
		hunk.Use = Skip
		s.advance()
		return s.cur < len(s.FD.Hunks), nil
	case 'a':
		for i := s.cur; i < len(s.FD.Hunks); i++ {
			if s.FD.Hunks[i].Use == Undecided {
				s.FD.Hunks[i].Use = UseHunk
			}
		}
		return false, nil
	case 'd':
		for i := s.cur; i < len(s.FD.Hunks); i++ {
			if s.FD.Hunks[i].Use == Undecided {
				s.FD.Hunks[i].Use = Skip
			}
		}
		return false, nil
	case 'q':
		s.rejectRemainingAllFiles()
		return false, ErrQuit
	case 'j':
		if perm&allowNextUndecided == 0 {
			s.LastError = ErrCommandNotPermitted
			return true, nil
		}
		if i, ok := s.nextUndecidedFrom(s.cur + 1); ok {
			s.cur = i
		}
		return true, nil
	case 'k':
		if perm&allowPrevUndecided == 0 {
			s.LastError = ErrCommandNotPermitted
			return true, nil
		}
		if i, ok := s.prevUndecidedFrom(s.cur - 1); ok {
			s.cur = i
		}
		return true, nil
	case 'J':
		if perm&allowNext == 0 {
			s.LastError = ErrCommandNotPermitted
			return true, nil
		}
		s.cur++
		s.renderedIndex = -1
		return true, nil
	case 'K':
		if perm&allowPrev == 0 {
			s.LastError = ErrCommandNotPermitted
			return true, nil
		}
		s.cur--
		s.renderedIndex = -1
		return true, nil
	case 'g':
		if perm&allowGoto == 0 {
			s.LastError = ErrCommandNotPermitted
			return true, nil
		}
		s.LastError = s.gotoCommand(line)
		return true, nil
	case '/':
		if perm&allowSearch == 0 {
			s.LastError = ErrCommandNotPermitted
			return true, nil
		}
		s.LastError = s.searchCommand(line)
		return true, nil
	case 's':
		if perm&allowSplit == 0 {
			s.LastError = ErrCommandNotPermitted
			return true, nil
		}
		s.LastError = SplitHunk(s.Plain, s.Colored, s.FD, s.cur)
		s.renderedIndex = -1
		return true, nil
	case 'e':
		if perm&allowEdit == 0 {
			s.LastError = ErrCommandNotPermitted
			return true, nil
		}
		if err := s.editCommand(); err != nil && err != ErrEditCanceled {
			s.LastError = err
		}
		s.renderedIndex = -1
		return true, nil
	case 'p':
		s.renderedIndex = -1
		return true, nil
	case '?':
		return true, nil
	default:
		s.LastError = ErrCommandNotPermitted
		return true, nil
	}
}

func (s *FileSession) advance() {
	s.cur++
	s.renderedIndex = -1
}

func (s *FileSession) nextUndecided(from int) (int, bool) {
	return s.nextUndecidedFrom(from)
}

func (s *FileSession) nextUndecidedFrom(from int) (int, bool) {
	for i := from; i < len(s.FD.Hunks); i++ {
		if s.FD.Hunks[i].Use == Undecided {
			return i, true
		}
	}
	return 0, false
}

func (s *FileSession) prevUndecidedFrom(from int) (int, bool) {
	for i := from; i >= 0; i-- {
		if s.FD.Hunks[i].Use == Undecided {
			return i, true
		}
	}
	return 0, false
}

func (s *FileSession) rejectRemainingAllFiles() {
	for _, h := range s.FD.Hunks {
		if h.Use == Undecided {
			h.Use = Skip
		}
	}
	s.quitAll = true
}

// QuitAll reports whether the user's last command should terminate
// processing of every remaining file, not just this one.
func (s *FileSession) QuitAll() bool { return s.quitAll }

// maxGotoEntries bounds the "g" summary list (SPEC_FULL.md §7, ported from
// add-patch.c's DisplayGotoLabel / list_and_choose behavior of truncating
// long hunk lists).
const maxGotoEntries = 20

// GotoEntry is one line of the "g" summary.
type GotoEntry struct {
	Index   int
	Label   string
	Omitted int // > 0 only on the last entry, when the list was truncated
}

// GotoSummary builds up to maxGotoEntries entries describing fd's hunks,
// for display before prompting for a number.
func GotoSummary(fd *FileDiff) []GotoEntry {
	n := len(fd.Hunks)
	shown := n
	omitted := 0
	if shown > maxGotoEntries {
		omitted = shown - maxGotoEntries
		shown = maxGotoEntries
	}
	entries := make([]GotoEntry, 0, shown)
	for i := 0; i < shown; i++ {
		entries = append(entries, GotoEntry{Index: i + 1, Label: displayGotoLabel(fd.Hunks[i])})
	}
	if omitted > 0 && len(entries) > 0 {
		entries[len(entries)-1].Omitted = omitted
	}
	return entries
}

// displayGotoLabel is a one-line synopsis of a hunk's header, used by the
// "g" summary (SPEC_FULL.md §7, ported from add-patch.c's
// DisplayGotoLabel).
func displayGotoLabel(h *Hunk) string {
	if h.IsPseudo() {
		return "Header"
	}
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.Header.OldOffset, h.Header.OldCount, h.Header.NewOffset, h.Header.NewCount)
}

func (s *FileSession) gotoCommand(line string) error {
	arg := strings.TrimSpace(line[1:])
	if arg == "" {
		return nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(s.FD.Hunks) {
		return ErrNoSuchHunk
	}
	s.cur = n - 1
	s.renderedIndex = -1
	return nil
}

func (s *FileSession) searchCommand(line string) error {
	expr := strings.TrimSpace(line[1:])
	if expr == "" {
		return ErrBadSearch
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return ErrBadSearch
	}
	n := len(s.FD.Hunks)
	for i := 1; i <= n; i++ {
		idx := (s.cur + i) % n
		h := s.FD.Hunks[idx]
		if re.Match(s.Plain.Slice(h.Start, h.End)) {
			s.cur = idx
			s.renderedIndex = -1
			return nil
		}
	}
	return ErrNoMatch
}

func (s *FileSession) editCommand() error {
	hunk := s.FD.Hunks[s.cur]
	if len(hunk.PreImage) == 0 {
		SnapshotPreImage(s.Plain, hunk, s.Reverse)
	}
	var rendered []byte
	RenderHunk(s.Plain, hunk, 0, s.Reverse, &rendered)

	for {
		edited, err := s.Ed.Edit(rendered)
		if err != nil {
			return err
		}
		parsed := ParseEditedHunk(s.Plain, edited, s.Reverse)
		if parsed.IsEmpty() {
			s.Plain.Truncate(parsed.Start)
			return ErrEditCanceled
		}
		if parsed.HasFatalErrors() {
			rendered = annotateErrors(edited, parsed.Errors)
			s.Plain.Truncate(parsed.Start)
			if !s.confirmRetry() {
				return ErrEditCanceled
			}
			continue
		}
		if err := ValidateEdit(s.Plain.Bytes(), hunk, s.Plain.Bytes(), parsed); err != nil {
			s.Plain.Truncate(parsed.Start)
			if !s.confirmRetry() {
				return ErrEditCanceled
			}
			var again []byte
			RenderHunk(s.Plain, hunk, 0, s.Reverse, &again)
			rendered = again
			continue
		}
		if s.Colored != nil {
			RecolorEditedBody(s.Plain, s.Colored, hunk, s.CC)
		}
		hunk.Use = UseHunk
		return nil
	}
}

// confirmRetry asks "edit again? [y/n]" per spec.md §4.8's `e` row; "q" at
// this prompt means "no", not a global quit (SPEC_FULL.md §7).
func (s *FileSession) confirmRetry() bool {
	line, err := s.Term.ReadLine(tr.W("Your edit didn't apply. Edit again [y/n]? "))
	if err != nil {
		return false
	}
	line = strings.TrimSpace(line)
	return len(line) > 0 && line[0] == 'y'
}

// annotateErrors re-renders edited with a "# error: ..." comment line
// inserted immediately before each offending line, per spec.md §7.
func annotateErrors(edited []byte, errs []HunkError) []byte {
	byPos := make(map[int]HunkError, len(errs))
	for _, e := range errs {
		byPos[e.Pos] = e
	}
	var out []byte
	for i := 0; i < len(edited); {
		end := nextLine(edited, i)
		if e, ok := byPos[i]; ok {
			out = append(out, tr.Sprintf("# error: %s\n", e.Kind.String())...)
		}
		out = append(out, edited[i:end]...)
		i = end
	}
	return out
}

// HelpText returns the active mode's help text filtered to the commands
// currently permitted, per spec.md §4.8's `?` row.
func HelpText(mode *Mode, perm permission) string {
	lines := strings.Split(mode.Prompts.Help, "\n")
	var out []string
	for _, l := range lines {
		if len(l) == 0 {
			continue
		}
		key := l[0]
		switch key {
		case 'y', 'n', 'q', 'a', 'd':
			out = append(out, tr.W(l))
		}
	}
	extra := []struct {
		bit  permission
		text string
	}{
		{allowNextUndecided, "j - leave this hunk undecided, see next undecided hunk"},
		{allowPrevUndecided, "k - leave this hunk undecided, see previous undecided hunk"},
		{allowNext, "J - leave this hunk undecided, see next hunk"},
		{allowPrev, "K - leave this hunk undecided, see previous hunk"},
		{allowGoto, "g - select a hunk to go to"},
		{allowSearch, "/ - search for a hunk matching the given regex"},
		{allowSplit, "s - split the current hunk into smaller hunks"},
		{allowEdit, "e - manually edit the current hunk"},
	}
	for _, ex := range extra {
		if perm&ex.bit != 0 {
			out = append(out, tr.W(ex.text))
		}
	}
	out = append(out, tr.W("p - print the current hunk"))
	out = append(out, tr.W("? - print help"))
	return strings.Join(out, "\n")
}
