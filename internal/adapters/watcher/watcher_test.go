package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/watcher"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestWatcher_ReportsChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), domain.DirPerm))
	require.NoError(t, os.MkdirAll(filepath.Join(root, domain.KilnDirName), domain.DirPerm))

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()

	w, err := watcher.NewWatcher(logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx, root))
	defer func() { _ = w.Stop() }()

	events := make(chan ports.WatchEvent, 16)
	go func() {
		for ev := range w.Events() {
			events <- ev
		}
		close(events)
	}()

	// Changes below the state directory are not reported.
	require.NoError(t, os.WriteFile(filepath.Join(root, domain.KilnDirName, "state"), []byte("x"), domain.FilePerm))
	target := filepath.Join(root, "src", "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main"), domain.FilePerm))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			assert.NotContains(t, ev.Path, domain.KilnDirName)
			if ev.Path == target {
				return
			}
		case <-deadline:
			t.Fatal("no event for the changed file")
		}
	}
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	root := t.TempDir()

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()

	w, err := watcher.NewWatcher(logger)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context(), root))
	defer func() { _ = w.Stop() }()

	dir := filepath.Join(root, "generated")
	require.NoError(t, os.Mkdir(dir, domain.DirPerm))

	target := filepath.Join(dir, "file.txt")
	seen := make(chan struct{})
	go func() {
		for ev := range w.Events() {
			if ev.Path == dir {
				// The directory is watched once its create event was delivered.
				time.Sleep(50 * time.Millisecond)
				_ = os.WriteFile(target, []byte("x"), domain.FilePerm)
			}
			if ev.Path == target {
				close(seen)
				return
			}
		}
	}()

	select {
	case <-seen:
	case <-time.After(5 * time.Second):
		t.Fatal("no event for a file in a new directory")
	}
}
