package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCheckpoints(t *testing.T) {
	t.Run("missing file yields empty state", func(t *testing.T) {
		cs := LoadCheckpoints(filepath.Join(t.TempDir(), "nope.json"))

		_, ok := cs.Get("tmobile")
		assert.False(t, ok)
	})

	t.Run("corrupt file yields empty state", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		cs := LoadCheckpoints(path)

		_, ok := cs.Get("tmobile")
		assert.False(t, ok)
	})

	t.Run("round trips through save", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.json")

		cs := LoadCheckpoints(path)
		cs.Advance("tmobile", 1700000000)
		cs.Advance("verizon", 1700000100)
		require.NoError(t, cs.Save())

		reloaded := LoadCheckpoints(path)
		ts, ok := reloaded.Get("tmobile")
		require.True(t, ok)
		assert.Equal(t, float64(1700000000), ts)
		ts, ok = reloaded.Get("verizon")
		require.True(t, ok)
		assert.Equal(t, float64(1700000100), ts)
	})

	t.Run("save creates parent directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "state.json")

		cs := LoadCheckpoints(path)
		cs.Advance("tmobile", 1700000000)
		require.NoError(t, cs.Save())

		_, err := os.Stat(path)
		assert.NoError(t, err)
	})
}

func TestCheckpointNeverRegresses(t *testing.T) {
	cs := LoadCheckpoints(filepath.Join(t.TempDir(), "state.json"))

	cs.Advance("tmobile", 2000)
	cs.Advance("tmobile", 1000)

	ts, ok := cs.Get("tmobile")
	require.True(t, ok)
	assert.Equal(t, float64(2000), ts)

	cs.Advance("tmobile", 3000)
	ts, _ = cs.Get("tmobile")
	assert.Equal(t, float64(3000), ts)
}
