package qa

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-assistant/backend/internal/knowledge"
	"github.com/campus-assistant/backend/internal/language"
)

func loadStore(t *testing.T) *Store {
	t.Helper()
	base, err := knowledge.Load()
	require.NoError(t, err)
	return NewStore(base.QA)
}

func TestSearchSelectsOneFact(t *testing.T) {
	s := loadStore(t)

	tests := []struct {
		name       string
		query      string
		want       string
		category   string
		confidence float64
	}{
		{"name", "principal name", "Dr. Mohammad Shekoor T", "principal", ConfidencePatternFact},
		{"phone", "principal phone number", "04994-256400", "principal", ConfidencePatternFact},
		{"email", "email of principal", "lbscek@gmail.com", "principal", ConfidencePatternFact},
		{"first fact", "Who is the principal?", "The Principal of LBS College of Engineering, Kasaragod is Dr. Mohammad Shekoor T. The office is in the Administrative Block.", "principal", ConfidencePatternFirst},
		{"office phone", "college phone", "04994-256400", "contact_info", ConfidencePatternFact},
		{"hod name", "cse hod name", "Dr. Manoj Kumar G", "department_heads", ConfidencePatternFact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, ok := s.Search(tt.query, language.English)
			require.True(t, ok)
			assert.Equal(t, tt.want, res.Content)
			assert.Equal(t, tt.category, res.Category)
			assert.Equal(t, tt.confidence, res.Confidence)
		})
	}
}

func TestSearchResponseAlternatives(t *testing.T) {
	s := loadStore(t)

	en, ok := s.Search("thanks a lot", language.English)
	require.True(t, ok)
	assert.False(t, language.HasMalayalamScript(en.Content))
	assert.Equal(t, ConfidencePatternFact, en.Confidence)

	ml, ok := s.Search("thanks a lot", language.Malayalam)
	require.True(t, ok)
	assert.True(t, language.HasMalayalamScript(ml.Content))

	manglish, ok := s.Search("nanni", language.Manglish)
	require.True(t, ok)
	assert.Equal(t, en.Content, manglish.Content)
}

func TestSearchPhoneRoundTrip(t *testing.T) {
	s := loadStore(t)

	checked := 0
	for _, entry := range s.Entries() {
		phone, ok := entry.Facts.Get("Phone")
		if !ok {
			continue
		}
		pattern := firstPatternWithout(entry.Patterns, "name")
		require.NotEmpty(t, pattern, "entry %d", entry.ID)

		res, ok := s.Search("phone "+pattern, language.English)
		require.True(t, ok, "entry %d", entry.ID)
		assert.Equal(t, phone.Value, res.Content, "entry %d", entry.ID)
		checked++
	}
	assert.Positive(t, checked)
}

func firstPatternWithout(patterns []string, word string) string {
	for _, p := range patterns {
		if !strings.Contains(strings.ToLower(p), word) {
			return p
		}
	}
	return ""
}

func TestSearchTagMatch(t *testing.T) {
	s := NewStore([]knowledge.QAEntry{
		{ID: 1, Patterns: []string{"bus timing"}, Tags: []string{"transport"}, Facts: knowledge.Facts{
			{Label: "Summary", Value: "College buses leave at 8 AM."},
		}},
		{ID: 2, Patterns: []string{"say thanks"}, Tags: []string{"gratitude"}, Facts: knowledge.Facts{
			{Label: "Response", Alternatives: []string{"Welcome!", "സ്വാഗതം!"}},
		}},
	})

	res, ok := s.Search("any transport options?", language.English)
	require.True(t, ok)
	assert.Equal(t, "College buses leave at 8 AM.", res.Content)
	assert.Equal(t, "transport", res.Category)
	assert.Equal(t, ConfidenceTagFirst, res.Confidence)

	res, ok = s.Search("gratitude", language.Malayalam)
	require.True(t, ok)
	assert.Equal(t, "Welcome!", res.Content)
	assert.Equal(t, ConfidenceTagList, res.Confidence)
}

func TestSearchReverseContainment(t *testing.T) {
	s := NewStore([]knowledge.QAEntry{
		{ID: 7, Patterns: []string{"hostel fee details"}, Facts: knowledge.Facts{{Label: "Fee", Value: "Rs 3000 per month"}}},
	})

	res, ok := s.Search("hostel fee", language.English)
	require.True(t, ok)
	assert.Equal(t, "general", res.Category)
	assert.Equal(t, 7, res.EntryID)
}

func TestSearchSkipsMalformedEntries(t *testing.T) {
	s := NewStore([]knowledge.QAEntry{
		{ID: 1, Patterns: []string{"canteen"}},
		{ID: 2, Patterns: []string{"canteen"}, Facts: knowledge.Facts{{Label: "Menu"}}},
		{ID: 3, Facts: knowledge.Facts{{Label: "Orphan", Value: "never reached"}}},
		{ID: 4, Patterns: []string{"canteen"}, Facts: knowledge.Facts{{Label: "Hours", Value: "8 AM - 6 PM"}}},
	})

	res, ok := s.Search("canteen hours", language.English)
	require.True(t, ok)
	assert.Equal(t, 4, res.EntryID)
	assert.Equal(t, "8 AM - 6 PM", res.Content)
}

func TestSearchMiss(t *testing.T) {
	s := loadStore(t)

	for _, q := range []string{"", "  ", "asdkjasdkj", "library"} {
		_, ok := s.Search(q, language.English)
		assert.False(t, ok, q)
	}
}
