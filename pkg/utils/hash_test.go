package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashKey(t *testing.T) {
	a := HashKey("manglish", "Hostel undo?")
	b := HashKey(" MANGLISH", "hostel undo? ")

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, HashKey("en", "hostel"), HashKey("ml", "hostel"))
	assert.NotEqual(t, HashKey("ab", "c"), HashKey("a", "bc"))
}
