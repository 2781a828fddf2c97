package file

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/dancepractice/internal/logger"
	"github.com/tejashwikalptaru/dancepractice/internal/testutil"
)

func TestWatcher_DebouncedChange(t *testing.T) {
	defer testutil.VerifyNoLeaks(t)

	dir := t.TempDir()
	path := filepath.Join(dir, CustomFileName)

	var calls atomic.Int32
	w, err := NewWatcher(path, 100*time.Millisecond, func() { calls.Add(1) }, logger.NewTestLogger())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
