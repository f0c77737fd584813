package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-assistant/backend/internal/knowledge"
	"github.com/campus-assistant/backend/internal/language"
)

func loadResponder(t *testing.T) *Responder {
	t.Helper()
	base, err := knowledge.Load()
	require.NoError(t, err)
	return NewResponder(base.Categories)
}

func TestDetect(t *testing.T) {
	r := loadResponder(t)

	tests := []struct {
		query string
		want  string
	}{
		{"How do I apply?", "admission"},
		{"what is the tuition", "fees"},
		{"is there mtech", "courses"},
		{"average salary package", "placements"},
		{"boys hostel rules", "boys_hostel"},
		{"girls hostel", "ladies_hostel"},
		{"boarding", "hostel"},
		{"wifi on campus", "facilities"},
		{"office email", "contact"},
		{"directions please", "location"},
		{"who is the director", "principal"},
		{"asthra dates", "events"},
		// "admission" and "fees" both match; declaration order decides.
		{"admission fees", "admission"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, ok := r.Detect(tt.query)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectMiss(t *testing.T) {
	r := loadResponder(t)

	for _, q := range []string{"", "asdkjasdkj", "hello"} {
		_, ok := r.Detect(q)
		assert.False(t, ok, q)
	}
}

func TestResponse(t *testing.T) {
	r := loadResponder(t)

	en := r.Response("principal", language.English)
	assert.Contains(t, en, "Dr. Mohammad Shekoor T")

	ml := r.Response("principal", language.Malayalam)
	assert.True(t, language.HasMalayalamScript(ml))

	manglish := r.Response("principal", language.Manglish)
	assert.Contains(t, manglish, "aanu")

	assert.Empty(t, r.Response("weather", language.English))
}

func TestResponseFallsBackToEnglish(t *testing.T) {
	r := NewResponder([]knowledge.CategoryTemplate{{
		Name:      "events",
		Templates: map[language.Language]string{language.English: "Asthra is our tech fest."},
	}})

	assert.Equal(t, "Asthra is our tech fest.", r.Response("events", language.Manglish))
}

func TestNamesKeepOrder(t *testing.T) {
	r := loadResponder(t)
	names := r.Names()
	require.Len(t, names, 12)
	assert.Equal(t, "admission", names[0])
	assert.Equal(t, "events", names[11])
}
