package zeta

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/antgroup/hugescm/modules/diferenco/color"
	"github.com/antgroup/hugescm/modules/patch"
	"github.com/antgroup/hugescm/pkg/tr"
)

// stdioTerminal is the default patch.Terminal: line-oriented prompts over
// os.Stdin/os.Stdout, grounded on pkg/zeta/tag.go's isatty-gated prompt
// pattern (but patch.Terminal itself is unconditional — callers decide
// whether interactive mode is even appropriate before starting a session).
type stdioTerminal struct {
	out *os.File
	in  *bufio.Reader
}

func newStdioTerminal() *stdioTerminal {
	return &stdioTerminal{out: os.Stdout, in: bufio.NewReader(os.Stdin)}
}

func (t *stdioTerminal) ReadLine(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	line, err := t.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	if err == io.EOF && line == "" {
		return "", io.EOF
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line, nil
}

// hunkEditor is the default patch.Editor: writes the rendered hunk to a
// scratch file under the repository's odb root and launches the
// configured core.editor, grounded on pkg/zeta/tag.go's
// tagMessageFromPrompt/messageReadFromPath scratch-file round trip.
type hunkEditor struct {
	ctx    context.Context
	editor string
	path   string
}

func newHunkEditor(ctx context.Context, r *Repository) *hunkEditor {
	return &hunkEditor{ctx: ctx, editor: r.coreEditor(), path: os.TempDir() + "/zeta-patch-hunk-edit.diff"}
}

func (e *hunkEditor) Edit(initial []byte) ([]byte, error) {
	if err := os.WriteFile(e.path, initial, 0644); err != nil {
		return nil, err
	}
	defer os.Remove(e.path) // nolint
	if err := launchEditor(e.ctx, e.editor, e.path, nil); err != nil {
		return nil, err
	}
	return os.ReadFile(e.path)
}

// PatchSession drives the interactive "add -p" family of commands over
// every file the differ reports for mode, per spec.md §2's system
// overview ("iterate files, per file: parse then drive the interactive
// loop, then reassemble and apply").
type PatchSession struct {
	Mode     *patch.Mode
	Differ   patch.Differ
	Applier  patch.Applier
	Term     patch.Terminal
	Editor   patch.Editor
	CC       color.ColorConfig
	UseColor bool

	Confirm patch.Confirm
}

// NewPatchSession wires the default collaborators (self-binary differ,
// configurable applier, stdio terminal, core.editor-based editor) for one
// worktree session.
func NewPatchSession(ctx context.Context, r *Repository, mode *patch.Mode, useColor bool) *PatchSession {
	return &PatchSession{
		Mode:     mode,
		Differ:   NewPatchDiffer(r.BaseDir()),
		Applier:  NewPatchApplier(r.BaseDir(), r.patchApplier()),
		Term:     newStdioTerminal(),
		Editor:   newHunkEditor(ctx, r),
		CC:       color.NewColorConfig(),
		UseColor: useColor,
		Confirm: func(prompt string) (bool, error) {
			t := newStdioTerminal()
			line, err := t.ReadLine(prompt + tr.W(" [y/n]? "))
			if err != nil {
				return false, err
			}
			return len(line) > 0 && line[0] == 'y', nil
		},
	}
}

// Run executes the full interactive loop: diff, parse, drive every file,
// reassemble each file's accepted hunks, and apply per mode.
func (ps *PatchSession) Run(ctx context.Context) error {
	plain, colored, err := ps.Differ.Diff(ctx, ps.Mode, ps.UseColor)
	if err != nil {
		return err
	}

	plainBuf := patch.NewBuffer(plain)
	var coloredBuf *patch.Buffer
	if ps.UseColor {
		coloredBuf = patch.NewBuffer(colored)
	}

	var coloredBytes []byte
	if coloredBuf != nil {
		coloredBytes = coloredBuf.Bytes()
	}
	files, err := patch.ParseDiff(plainBuf.Bytes(), coloredBytes)
	if err != nil {
		return err
	}

	for _, fd := range files {
		sess := patch.NewFileSession(plainBuf, coloredBuf, fd, ps.Mode, ps.Term, ps.Editor, ps.CC)
		if err := sess.Run(); err != nil {
			if err == patch.ErrQuit {
				break
			}
			return err
		}

		reassembled, err := patch.ReassemblePatch(plainBuf, coloredBuf, fd, ps.CC, ps.Mode.Reverse, false)
		if err != nil {
			return err
		}
		if !reassembled.HasChanges {
			continue
		}
		if err := ps.apply(ctx, reassembled.Plain); err != nil {
			return err
		}
	}
	return nil
}

func (ps *PatchSession) apply(ctx context.Context, p []byte) error {
	if !ps.Mode.DualTarget {
		return patch.ApplySingleTarget(ctx, ps.Applier, ps.Mode, p)
	}
	outcome, err := patch.ApplyDualTarget(ctx, ps.Applier, ps.Confirm, p)
	if err != nil {
		return err
	}
	if outcome == patch.AppliedNeither {
		_, _ = os.Stdout.Write(p)
	}
	return nil
}
