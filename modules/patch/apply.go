package patch

import (
	"context"

	"github.com/antgroup/hugescm/pkg/tr"
)

// Differ launches the external diff generator for a mode and returns its
// plain and colored output as a matched pair of byte streams (spec.md §1
// out-of-scope: "launching the differ").
type Differ interface {
	Diff(ctx context.Context, mode *Mode, wantColor bool) (plain, colored []byte, err error)
}

// Applier launches the external patch-apply program against one or more
// targets (spec.md §4.9).
type Applier interface {
	// Check reports whether patch would apply cleanly to target without
	// actually applying it.
	Check(ctx context.Context, patch []byte, args []string) (bool, error)
	// Apply actually applies patch with the given arguments.
	Apply(ctx context.Context, patch []byte, args []string) error
}

// ApplySingleTarget pipes the reassembled patch straight to the applier
// with mode.ApplierArgs, per spec.md §4.9 "Single-target mode". Used by
// every mode except checkout-from-HEAD/checkout-from-other.
func ApplySingleTarget(ctx context.Context, applier Applier, mode *Mode, patch []byte) error {
	return applier.Apply(ctx, patch, mode.ApplierArgs)
}

// DualTargetOutcome reports which target(s) ApplyDualTarget actually
// touched.
type DualTargetOutcome int

const (
	AppliedNeither DualTargetOutcome = iota
	AppliedWorktreeOnly
	AppliedBoth
)

// Confirm asks the user a yes/no question (used by ApplyDualTarget's
// worktree-only prompt); the concrete implementation reads the terminal,
// outside this package.
type Confirm func(prompt string) (bool, error)

// ApplyDualTarget implements the checkout-from-HEAD apply flow (spec.md
// §4.9 "Dual-target mode"): it pre-checks the patch against the index and
// the worktree independently, then applies to both, to the worktree only
// (with confirmation), or to neither.
//
// When neither target accepts the patch, the caller is expected to print
// patch to stdout itself (this function only reports AppliedNeither; it
// does not perform any I/O beyond the Applier/Confirm collaborators).
func ApplyDualTarget(ctx context.Context, applier Applier, confirm Confirm, patch []byte) (DualTargetOutcome, error) {
	indexOK, err := applier.Check(ctx, patch, []string{"--cached"})
	if err != nil {
		return AppliedNeither, err
	}
	worktreeOK, err := applier.Check(ctx, patch, nil)
	if err != nil {
		return AppliedNeither, err
	}

	switch {
	case indexOK && worktreeOK:
		if err := applier.Apply(ctx, patch, []string{"--cached"}); err != nil {
			return AppliedNeither, err
		}
		if err := applier.Apply(ctx, patch, nil); err != nil {
			return AppliedNeither, err
		}
		return AppliedBoth, nil
	case worktreeOK:
		ok, err := confirm(tr.W("Apply to worktree only"))
		if err != nil || !ok {
			return AppliedNeither, err
		}
		if err := applier.Apply(ctx, patch, nil); err != nil {
			return AppliedNeither, err
		}
		return AppliedWorktreeOnly, nil
	default:
		return AppliedNeither, nil
	}
}
