package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/campus-assistant/backend/internal/language"
)

func TestTouchReportsFirstMessage(t *testing.T) {
	s := NewStore(time.Hour)

	state, first := s.Touch("abc")
	assert.True(t, first)
	assert.Equal(t, 1, state.MessageCount)

	state, first = s.Touch("abc")
	assert.False(t, first)
	assert.Equal(t, 2, state.MessageCount)
}

func TestSetLanguageAndDelete(t *testing.T) {
	s := NewStore(time.Hour)
	s.Touch("abc")
	s.SetLanguage("abc", language.Manglish)

	state, ok := s.Get("abc")
	assert.True(t, ok)
	assert.Equal(t, language.Manglish, state.Language)
	assert.Equal(t, 1, state.MessageCount)

	s.Delete("abc")
	_, ok = s.Get("abc")
	assert.False(t, ok)

	_, first := s.Touch("abc")
	assert.True(t, first)
}

func TestSessionsExpire(t *testing.T) {
	s := NewStore(20 * time.Millisecond)
	s.Touch("abc")
	time.Sleep(40 * time.Millisecond)

	_, ok := s.Get("abc")
	assert.False(t, ok)
}
