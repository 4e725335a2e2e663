package zeta

import (
	"bytes"
	"context"
	"os"

	"github.com/antgroup/hugescm/modules/command"
	"github.com/antgroup/hugescm/modules/patch"
)

// zetaPatchApplier shells out to a configurable external patch-apply
// program, grounded on pkg/zeta/editor.go's launchEditor pattern of
// resolving a core.* config value with an environment-variable and
// built-in fallback. zeta has no in-process equivalent of `git apply`
// (see DESIGN.md), so the applier is always an external child process,
// just like the differ (spec.md §1 out-of-scope: "launching the
// applier").
type zetaPatchApplier struct {
	program string
	repo    string
}

const defaultPatchApplier = "patch"

// NewPatchApplier returns the default patch.Applier for a worktree at
// repo, running program (or "patch" if empty) with "-p1".
func NewPatchApplier(repo, program string) patch.Applier {
	if program == "" {
		program = defaultPatchApplier
	}
	return &zetaPatchApplier{program: program, repo: repo}
}

func (a *zetaPatchApplier) Check(ctx context.Context, p []byte, args []string) (bool, error) {
	fullArgs := append([]string{"-p1", "--dry-run"}, args...)
	_, err := a.runWithStdin(ctx, p, fullArgs)
	return err == nil, nil
}

func (a *zetaPatchApplier) Apply(ctx context.Context, p []byte, args []string) error {
	fullArgs := append([]string{"-p1"}, args...)
	_, err := a.runWithStdin(ctx, p, fullArgs)
	return err
}

func (a *zetaPatchApplier) runWithStdin(ctx context.Context, p []byte, args []string) ([]byte, error) {
	cmd := command.NewFromOptions(ctx, &command.RunOpts{
		Environ:  os.Environ(),
		RepoPath: a.repo,
		Stdin:    bytes.NewReader(p),
	}, a.program, args...)
	return cmd.Output()
}
