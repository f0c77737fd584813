package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Language
	}{
		{"empty", "", English},
		{"whitespace", "   \t", English},
		{"english question", "Is there hostel?", English},
		{"manglish question", "hostel undo?", Manglish},
		{"malayalam script", "ഹോസ്റ്റൽ ഉണ്ടോ?", Malayalam},
		{"mixed script wins", "hostel ഉണ്ടോ", Malayalam},
		{"single loanword", "library", English},
		{"nonsense", "asdkjasdkj", English},
		{"english with loanword", "I need help with admission", English},
		{"english wayfinding", "where is the library", English},
		{"manglish fees", "fees ethra aanu", Manglish},
		{"manglish location", "college evide aanu?", Manglish},
		{"manglish want", "enikku admission venam", Manglish},
		{"manglish thanks", "nanni", Manglish},
		{"manglish locative", "hostel il food undo", Manglish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.text))
		})
	}
}

func TestDetectIsDeterministic(t *testing.T) {
	inputs := []string{"hostel undo?", "Is there hostel?", "library evide", "ലൈബ്രറി"}
	first := make([]Language, len(inputs))
	for i, in := range inputs {
		first[i] = Detect(in)
	}
	for round := 0; round < 3; round++ {
		for i := len(inputs) - 1; i >= 0; i-- {
			assert.Equal(t, first[i], Detect(inputs[i]))
		}
	}
}

func TestDetectMalayalamBlock(t *testing.T) {
	for r := rune(0x0D00); r <= 0x0D7F; r += 0x11 {
		assert.Equal(t, Malayalam, Detect("where is "+string(r)), "rune %U", r)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Language
		ok   bool
	}{
		{"en", English, true},
		{"English", English, true},
		{" ml ", Malayalam, true},
		{"malayalam", Malayalam, true},
		{"MANGLISH", Manglish, true},
		{"ta", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestScoreSentencePatternCountsOnce(t *testing.T) {
	manglish, _ := score("xyz il qqq il www")
	// "il" tokens: two suffix hits, plus a single pattern bonus.
	assert.Equal(t, 4.0, manglish)
}
