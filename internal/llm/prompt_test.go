package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-assistant/backend/internal/language"
)

func TestBuildSystemPromptPerLanguage(t *testing.T) {
	tests := []struct {
		lang language.Language
		want string
	}{
		{language.Malayalam, "Reply only in Malayalam script"},
		{language.Manglish, "Reply in Manglish"},
		{language.English, "Reply in friendly conversational English"},
		{language.Language("fr"), "Reply in friendly conversational English"},
	}

	for _, tt := range tests {
		t.Run(string(tt.lang), func(t *testing.T) {
			prompt, err := BuildSystemPrompt(tt.lang, "  Library opens at 9.  ")
			require.NoError(t, err)
			assert.Contains(t, prompt, "LANGUAGE INSTRUCTION: "+tt.want)
			assert.Contains(t, prompt, "CONTEXT (use this info to answer):\nLibrary opens at 9.")
			assert.Contains(t, prompt, "04994-250790")
		})
	}
}

func TestBuildContext(t *testing.T) {
	ctx := BuildContext(AugmentRequest{
		LocalAnswer:    "Placements are handled by the placement cell.",
		History:        []Turn{{Role: "user", Content: "hi"}},
		WebsiteURL:     "https://lbscek.ac.in/placement/",
		WebsiteContent: "Top recruiters include TCS.",
	})

	assert.Equal(t, "LOCAL ANSWER:\nPlacements are handled by the placement cell.\n\n"+
		"RECENT CONVERSATION:\nuser: hi\n\n"+
		"WEBSITE CONTENT FROM https://lbscek.ac.in/placement/:\nTop recruiters include TCS.", ctx)

	assert.Empty(t, BuildContext(AugmentRequest{}))
}
