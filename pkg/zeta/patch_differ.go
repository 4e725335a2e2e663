package zeta

import (
	"context"
	"os"

	"github.com/antgroup/hugescm/modules/command"
	"github.com/antgroup/hugescm/modules/patch"
)

// zetaPatchDiffer launches the zeta binary itself to produce the plain and
// colored text for one of the seven modes (spec.md §6.1): each mode names
// a subcommand/flags pair ("diff-files", "diff-index HEAD", ...) in the
// same way git-add--interactive shells out to `git diff-files`/`git
// diff-index` rather than reimplementing diff generation inline.
//
// The plain and colored runs are two independent child-process
// invocations of the same differ, which is what guarantees the
// line-for-line correspondence the core package's parser depends on
// (spec.md §4.1's "parallel colored cursor" invariant): both streams come
// from the exact same diff computation, only the color flag differs.
type zetaPatchDiffer struct {
	binary string
	repo   string
}

// NewPatchDiffer returns the default patch.Differ for a worktree at repo,
// shelling out to the zeta binary located at os.Executable() (falling
// back to "zeta" on PATH if that lookup fails).
func NewPatchDiffer(repo string) patch.Differ {
	bin, err := os.Executable()
	if err != nil || bin == "" {
		bin = "zeta"
	}
	return &zetaPatchDiffer{binary: bin, repo: repo}
}

func (d *zetaPatchDiffer) Diff(ctx context.Context, mode *patch.Mode, wantColor bool) (plain, colored []byte, err error) {
	if plain, err = d.run(ctx, mode, false); err != nil {
		return nil, nil, err
	}
	if !wantColor {
		return plain, nil, nil
	}
	if colored, err = d.run(ctx, mode, true); err != nil {
		return nil, nil, err
	}
	return plain, colored, nil
}

func (d *zetaPatchDiffer) run(ctx context.Context, mode *patch.Mode, color bool) ([]byte, error) {
	args := append([]string{"diff"}, mode.DifferArgs...)
	if color {
		args = append(args, "--color=always")
	} else {
		args = append(args, "--color=never")
	}
	cmd := command.NewFromOptions(ctx, &command.RunOpts{
		Environ:  os.Environ(),
		RepoPath: d.repo,
	}, d.binary, args...)
	return cmd.Output()
}
