package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReruns(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "schema.yaml")
	other := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0o644))

	var calls atomic.Int32
	w, err := NewWatcher([]string{file}, func() error {
		calls.Add(1)
		return nil
	}, nil)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(file, []byte("b"), 0o644))
	require.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int32(2), calls.Load())
}

func TestWatcherInitialError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "schema.yaml")
	boom := errors.New("boom")

	w, err := NewWatcher([]string{file}, func() error { return boom }, nil)
	require.NoError(t, err)
	err = w.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}
