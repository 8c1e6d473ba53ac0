package lock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func TestAcquireAndReleaseRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codegraph.db.lock")
	l := New(path)

	release, err := l.Acquire(context.Background(), time.Second)
	require.NoError(t, err)
	release()

	release2, err := l.Acquire(context.Background(), time.Second)
	require.NoError(t, err)
	release2()
}

func TestAcquireTimesOutWhenHeldByAnotherInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codegraph.db.lock")
	holder := New(path)
	release, err := holder.Acquire(context.Background(), time.Second)
	require.NoError(t, err)
	defer release()

	contender := New(path)
	_, err = contender.Acquire(context.Background(), 50*time.Millisecond)
	require.ErrorIs(t, err, ErrBusy)
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codegraph.db.lock")
	holder := New(path)
	release, err := holder.Acquire(context.Background(), time.Second)
	require.NoError(t, err)
	defer release()

	contender := New(path)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = contender.Acquire(ctx, time.Second)
	require.Error(t, err)
}

func TestInProcessMutexSerializesSameInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codegraph.db.lock")
	l := New(path)

	release, err := l.Acquire(context.Background(), time.Second)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		r, err := l.Acquire(context.Background(), time.Second)
		require.NoError(t, err)
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire on the same instance should have blocked on the in-process mutex")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	<-acquired
}
