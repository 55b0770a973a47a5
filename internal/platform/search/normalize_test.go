package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "dune", Normalize("  dune\t"))
	assert.Equal(t, "", Normalize("   "))

	t.Run("composes decomposed accents", func(t *testing.T) {
		// e + combining acute becomes the precomposed character
		assert.Equal(t, "caf\u00e9", Normalize("cafe\u0301"))
	})
}
