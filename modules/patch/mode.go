package patch

import "github.com/antgroup/hugescm/pkg/tr"

// PromptSet holds the four mode-specific prompt templates and the help
// text for one mode, keyed by the kind of hunk being decided (spec.md
// §6.1 "four prompt-template strings (one per {mode-change, deletion,
// addition, generic-hunk})").
type PromptSet struct {
	Hunk     string
	Mode     string
	Deletion string
	Addition string
	Help     string
}

// Mode fully describes what the engine consumes from, and produces for,
// its environment: the differ/applier argument shape, whether hunks are
// numbered in reverse (old-file) terms, whether the target is index-only,
// and the prompt/help text shown to the user (spec.md §6.1).
type Mode struct {
	Name string

	// DifferArgs/ApplierArgs are illustrative argument vectors for the
	// mode's differ/applier invocation; the CLI glue layer
	// (pkg/zeta/patch_differ.go, pkg/zeta/patch_applier.go) turns these
	// into actual zeta subcommands.
	DifferArgs  []string
	ApplierArgs []string

	// Reverse selects reverse-applier numbering (old_offset adjustment
	// instead of new_offset, see RenderHunk).
	Reverse bool

	// IndexOnly is true for modes that touch only the index, never the
	// worktree.
	IndexOnly bool

	// DualTarget is true only for checkout-from-HEAD and
	// checkout-from-other, whose apply step independently targets the
	// index and the worktree (spec.md §4.9).
	DualTarget bool

	Prompts PromptSet
}

// prompts are grounded on other_examples' patchPrompts/patchHelp tables,
// extended with the richer j/k/J/K/g// /s/e/p alphabet of spec.md §4.8
// (the extras suffix is appended by FormatPrompt at render time, not baked
// into these templates).
var (
	ModeStageAdd = &Mode{
		Name:        "stage",
		DifferArgs:  []string{"diff-files"},
		ApplierArgs: []string{"--cached"},
		Prompts: PromptSet{
			Hunk:     "Stage this hunk",
			Mode:     "Stage mode change",
			Deletion: "Stage deletion",
			Addition: "Stage addition",
			Help: `y - stage this hunk
n - do not stage this hunk
q - quit; do not stage this hunk or any of the remaining ones
a - stage this hunk and all later hunks in the file
d - do not stage this hunk or any of the later hunks in the file`,
		},
		IndexOnly: true,
	}

	ModeStash = &Mode{
		Name:        "stash",
		DifferArgs:  []string{"diff-index", "HEAD"},
		ApplierArgs: []string{"--cached"},
		Prompts: PromptSet{
			Hunk:     "Stash this hunk",
			Mode:     "Stash mode change",
			Deletion: "Stash deletion",
			Addition: "Stash addition",
			Help: `y - stash this hunk
n - do not stash this hunk
q - quit; do not stash this hunk or any of the remaining ones
a - stash this hunk and all later hunks in the file
d - do not stash this hunk or any of the later hunks in the file`,
		},
		IndexOnly: true,
	}

	ModeResetFromHEAD = &Mode{
		Name:        "reset_head",
		DifferArgs:  []string{"diff-index", "--cached"},
		ApplierArgs: []string{"-R", "--cached"},
		Reverse:     true,
		Prompts: PromptSet{
			Hunk:     "Unstage this hunk",
			Mode:     "Unstage mode change",
			Deletion: "Unstage deletion",
			Addition: "Unstage addition",
			Help: `y - unstage this hunk
n - do not unstage this hunk
q - quit; do not unstage this hunk or any of the remaining ones
a - unstage this hunk and all later hunks in the file
d - do not unstage this hunk or any of the later hunks in the file`,
		},
		IndexOnly: true,
	}

	ModeResetFromOther = &Mode{
		Name:        "reset_nothead",
		DifferArgs:  []string{"diff-index", "-R", "--cached", "<rev>"},
		ApplierArgs: []string{"--cached"},
		Prompts: PromptSet{
			Hunk:     "Apply this hunk to index",
			Mode:     "Apply mode change to index",
			Deletion: "Apply deletion to index",
			Addition: "Apply addition to index",
			Help: `y - apply this hunk to index
n - do not apply this hunk to index
q - quit; do not apply this hunk or any of the remaining ones
a - apply this hunk and all later hunks in the file
d - do not apply this hunk or any of the later hunks in the file`,
		},
		IndexOnly: true,
	}

	ModeCheckoutFromIndex = &Mode{
		Name:        "checkout_index",
		DifferArgs:  []string{"diff-files"},
		ApplierArgs: []string{"-R"},
		Reverse:     true,
		Prompts: PromptSet{
			Hunk:     "Discard this hunk from worktree",
			Mode:     "Discard mode change from worktree",
			Deletion: "Discard deletion from worktree",
			Addition: "Discard addition from worktree",
			Help: `y - discard this hunk from worktree
n - do not discard this hunk from worktree
q - quit; do not discard this hunk or any of the remaining ones
a - discard this hunk and all later hunks in the file
d - do not discard this hunk or any of the later hunks in the file`,
		},
	}

	ModeCheckoutFromHEAD = &Mode{
		Name:        "checkout_head",
		DifferArgs:  []string{"diff-index"},
		Reverse:     true,
		DualTarget:  true,
		Prompts: PromptSet{
			Hunk:     "Discard this hunk from index and worktree",
			Mode:     "Discard mode change from index and worktree",
			Deletion: "Discard deletion from index and worktree",
			Addition: "Discard addition from index and worktree",
			Help: `y - discard this hunk from index and worktree
n - do not discard this hunk from index and worktree
q - quit; do not discard this hunk or any of the remaining ones
a - discard this hunk and all later hunks in the file
d - do not discard this hunk or any of the later hunks in the file`,
		},
	}

	ModeCheckoutFromOther = &Mode{
		Name:       "checkout_nothead",
		DifferArgs: []string{"diff-index", "-R", "<rev>"},
		DualTarget: true,
		Prompts: PromptSet{
			Hunk:     "Apply this hunk to index and worktree",
			Mode:     "Apply mode change to index and worktree",
			Deletion: "Apply deletion to index and worktree",
			Addition: "Apply addition to index and worktree",
			Help: `y - apply this hunk to index and worktree
n - do not apply this hunk to index and worktree
q - quit; do not apply this hunk or any of the remaining ones
a - apply this hunk and all later hunks in the file
d - do not apply this hunk or any of the later hunks in the file`,
		},
	}
)

// WithRevision returns a copy of m with every "<rev>" placeholder in
// DifferArgs/ApplierArgs replaced by rev, for the two modes
// (reset_nothead, checkout_nothead) whose differ/applier target a
// caller-supplied revision rather than HEAD or the index.
func (m *Mode) WithRevision(rev string) *Mode {
	cp := *m
	cp.DifferArgs = substituteRev(m.DifferArgs, rev)
	cp.ApplierArgs = substituteRev(m.ApplierArgs, rev)
	return &cp
}

func substituteRev(args []string, rev string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if a == "<rev>" {
			a = rev
		}
		out[i] = a
	}
	return out
}

// PromptFor returns the prompt template for the kind of hunk h is: a
// mode-change pseudo-hunk, a pure addition/deletion (whole-file), or a
// generic hunk.
func (m *Mode) PromptFor(fd *FileDiff, h *Hunk) string {
	switch {
	case fd.ModeChange && h.IsPseudo():
		return tr.W(m.Prompts.Mode)
	case fd.Deleted:
		return tr.W(m.Prompts.Deletion)
	case fd.Added:
		return tr.W(m.Prompts.Addition)
	default:
		return tr.W(m.Prompts.Hunk)
	}
}
