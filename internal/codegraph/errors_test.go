package codegraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorUnwrapsToUnderlying(t *testing.T) {
	underlying := errors.New("disk full")
	err := newError(KindStoreCorrupt, "open", "/tmp/proj", underlying)

	require.True(t, errors.Is(err, underlying))
	require.Equal(t, KindStoreCorrupt, err.Kind)
	require.Contains(t, err.Error(), "store_corrupt")
	require.Contains(t, err.Error(), "/tmp/proj")
}

func TestErrorIsMatchesSameKindOnly(t *testing.T) {
	a := newError(KindLockBusy, "sync", "", errors.New("busy"))
	b := newError(KindLockBusy, "index", "", errors.New("still busy"))
	c := newError(KindStoreCorrupt, "open", "", errors.New("corrupt"))

	require.True(t, errors.Is(a, b))
	require.False(t, errors.Is(a, c))
}

func TestIsHelpersClassifyWrappedErrors(t *testing.T) {
	lockErr := newError(KindLockBusy, "sync", "", errors.New("busy"))
	wrapped := errors.New("outer: " + lockErr.Error())

	require.True(t, IsLockBusy(lockErr))
	require.False(t, IsLockBusy(wrapped)) // plain errors.New does not carry a Kind to unwrap to
	require.False(t, IsStoreCorrupt(lockErr))
}

func TestSentinelsCompareByKind(t *testing.T) {
	specific := newError(KindNotInitialized, "open", "/a/b", nil)
	require.True(t, errors.Is(specific, ErrNotInitialized))
	require.False(t, errors.Is(specific, ErrAlreadyInitialized))
}
