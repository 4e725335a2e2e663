package patch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeApplier struct {
	checkIndex, checkWorktree bool
	applyCalls                [][]string
	applyErr                  error
}

func (f *fakeApplier) Check(_ context.Context, _ []byte, args []string) (bool, error) {
	if len(args) > 0 && args[0] == "--cached" {
		return f.checkIndex, nil
	}
	return f.checkWorktree, nil
}

func (f *fakeApplier) Apply(_ context.Context, _ []byte, args []string) error {
	f.applyCalls = append(f.applyCalls, args)
	return f.applyErr
}

func TestApplySingleTargetUsesModeArgs(t *testing.T) {
	f := &fakeApplier{}
	err := ApplySingleTarget(context.Background(), f, ModeResetFromHEAD, []byte("patch"))
	require.NoError(t, err)
	require.Len(t, f.applyCalls, 1)
	assert.Equal(t, ModeResetFromHEAD.ApplierArgs, f.applyCalls[0])
}

func TestApplyDualTargetBothOK(t *testing.T) {
	f := &fakeApplier{checkIndex: true, checkWorktree: true}
	outcome, err := ApplyDualTarget(context.Background(), f, nil, []byte("patch"))
	require.NoError(t, err)
	assert.Equal(t, AppliedBoth, outcome)
	require.Len(t, f.applyCalls, 2)
}

func TestApplyDualTargetWorktreeOnlyConfirmed(t *testing.T) {
	f := &fakeApplier{checkIndex: false, checkWorktree: true}
	confirm := func(prompt string) (bool, error) { return true, nil }
	outcome, err := ApplyDualTarget(context.Background(), f, confirm, []byte("patch"))
	require.NoError(t, err)
	assert.Equal(t, AppliedWorktreeOnly, outcome)
	require.Len(t, f.applyCalls, 1)
	assert.Nil(t, f.applyCalls[0])
}

func TestApplyDualTargetWorktreeOnlyDeclined(t *testing.T) {
	f := &fakeApplier{checkIndex: false, checkWorktree: true}
	confirm := func(prompt string) (bool, error) { return false, nil }
	outcome, err := ApplyDualTarget(context.Background(), f, confirm, []byte("patch"))
	require.NoError(t, err)
	assert.Equal(t, AppliedNeither, outcome)
	assert.Empty(t, f.applyCalls)
}

func TestApplyDualTargetNeitherOK(t *testing.T) {
	f := &fakeApplier{checkIndex: false, checkWorktree: false}
	calledConfirm := false
	confirm := func(prompt string) (bool, error) { calledConfirm = true; return true, nil }
	outcome, err := ApplyDualTarget(context.Background(), f, confirm, []byte("patch"))
	require.NoError(t, err)
	assert.Equal(t, AppliedNeither, outcome)
	assert.False(t, calledConfirm)
	assert.Empty(t, f.applyCalls)
}
