package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLocation(t *testing.T) {
	t.Run("city and state mention", func(t *testing.T) {
		loc := ExtractLocation("Coverage dropped constantly when I was in Austin, TX last month")

		require.NotNil(t, loc)
		assert.Equal(t, "Austin", loc.City)
		assert.Equal(t, "TX", loc.State)
		assert.Equal(t, "USA", loc.Country)
		assert.Equal(t, 0.9, loc.Confidence)
	})

	t.Run("full state name", func(t *testing.T) {
		loc := ExtractLocation("service here in rural montana is unusable")

		require.NotNil(t, loc)
		assert.Equal(t, "MT", loc.State)
		assert.Equal(t, 0.5, loc.Confidence)
	})

	t.Run("bare abbreviation is low confidence", func(t *testing.T) {
		loc := ExtractLocation("Switched carriers after moving to WA recently")

		require.NotNil(t, loc)
		assert.Equal(t, "WA", loc.State)
		assert.Equal(t, 0.3, loc.Confidence)
	})

	t.Run("no location", func(t *testing.T) {
		assert.Nil(t, ExtractLocation("the billing page keeps crashing on me"))
	})

	t.Run("unknown abbreviation is ignored", func(t *testing.T) {
		assert.Nil(t, ExtractLocation("my plan costs too much QQ"))
	})
}

func TestParseAuthorLocation(t *testing.T) {
	t.Run("city comma state", func(t *testing.T) {
		loc := ParseAuthorLocation("Los Angeles, CA")

		require.NotNil(t, loc)
		assert.Equal(t, "Los Angeles", loc.City)
		assert.Equal(t, "CA", loc.State)
		assert.Equal(t, "USA", loc.Country)
		assert.Equal(t, 1.0, loc.Confidence)
	})

	t.Run("canadian province", func(t *testing.T) {
		loc := ParseAuthorLocation("Montreal, Quebec")

		require.NotNil(t, loc)
		assert.Equal(t, "Canada", loc.Country)
	})

	t.Run("single token", func(t *testing.T) {
		loc := ParseAuthorLocation("Texas")

		require.NotNil(t, loc)
		assert.Equal(t, "Texas", loc.State)
		assert.Equal(t, 0.8, loc.Confidence)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, ParseAuthorLocation("   "))
	})
}
