package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	t.Run("splits evenly", func(t *testing.T) {
		batches := Chunk([]int{1, 2, 3, 4}, 2)

		require.Len(t, batches, 2)
		assert.Equal(t, []int{1, 2}, batches[0])
		assert.Equal(t, []int{3, 4}, batches[1])
	})

	t.Run("last batch carries the remainder", func(t *testing.T) {
		batches := Chunk([]string{"a", "b", "c"}, 2)

		require.Len(t, batches, 2)
		assert.Equal(t, []string{"c"}, batches[1])
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Chunk([]int(nil), 5))
	})
}

func TestRetry(t *testing.T) {
	t.Run("returns first success", func(t *testing.T) {
		calls := 0
		got, err := Retry(3, time.Millisecond, func() (int, error) {
			calls++
			if calls < 2 {
				return 0, errors.New("transient")
			}
			return 42, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 2, calls)
	})

	t.Run("gives up after the attempt limit", func(t *testing.T) {
		calls := 0
		_, err := Retry(3, time.Millisecond, func() (string, error) {
			calls++
			return "", errors.New("permanent")
		})

		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})
}
