package humanize

import (
	"math/rand"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/campus-assistant/backend/internal/knowledge"
)

// Thresholds are exclusive: a draw must be strictly greater to fire.
const (
	greetingThreshold   = 0.3
	starterThreshold    = 0.4
	transitionThreshold = 0.7
	closingThreshold    = 0.5
)

type RandomSource interface {
	Float64() float64
	Intn(n int) int
}

type Clock interface {
	Now() time.Time
}

type Phrases struct {
	Greetings   knowledge.Greetings
	Starters    []string
	Transitions []string
	Closings    []string
}

func PhrasesFrom(r knowledge.Responses) Phrases {
	return Phrases{
		Greetings:   r.Greetings,
		Starters:    r.Starters,
		Transitions: r.Transitions,
		Closings:    r.Closings,
	}
}

// Humanizer frames a terse answer with conversational phrases. It only adds
// text around the answer and never rewrites the facts inside it.
type Humanizer struct {
	phrases Phrases
	rnd     RandomSource
	clock   Clock
}

// New builds a Humanizer. A nil rnd uses the process-wide math/rand source
// and a nil clock uses the local wall clock.
func New(phrases Phrases, rnd RandomSource, clock Clock) *Humanizer {
	if rnd == nil {
		rnd = globalRand{}
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &Humanizer{phrases: phrases, rnd: rnd, clock: clock}
}

func (h *Humanizer) Humanize(text string, firstMessage bool) string {
	result := text

	if firstMessage && h.rnd.Float64() > greetingThreshold {
		if greeting := h.Greeting(); greeting != "" {
			result = greeting + "\n\n" + result
		}
	} else if h.rnd.Float64() > starterThreshold {
		if starter := h.pick(h.phrases.Starters); starter != "" {
			result = starter + lowerLeadingWord(result)
		}
	}

	sentences, seps := splitSentences(result)
	if len(sentences) > 2 && h.rnd.Float64() > transitionThreshold {
		if transition := h.pick(h.phrases.Transitions); transition != "" {
			mid := len(sentences) / 2
			sentences[mid] = transition + sentences[mid]
			result = joinSentences(sentences, seps)
		}
	}

	if h.rnd.Float64() > closingThreshold {
		if closing := h.pick(h.phrases.Closings); closing != "" {
			result = result + "\n\n" + closing
		}
	}

	return result
}

// Greeting picks a greeting for the current local hour.
func (h *Humanizer) Greeting() string {
	g := h.phrases.Greetings
	hour := h.clock.Now().Hour()

	var bucket []string
	switch {
	case hour >= 5 && hour < 12:
		bucket = g.Morning
	case hour >= 12 && hour < 17:
		bucket = g.Afternoon
	case hour >= 17 && hour < 21:
		bucket = g.Evening
	}
	if len(bucket) == 0 {
		bucket = g.General
	}
	return h.pick(bucket)
}

func (h *Humanizer) pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[h.rnd.Intn(len(options))]
}

// splitSentences cuts s at whitespace that follows '.', '!' or '?'. The
// separators are returned so the text can be put back together unchanged.
func splitSentences(s string) (sentences, seps []string) {
	start := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsSpace(r) || i == 0 || !strings.ContainsRune(".!?", rune(s[i-1])) {
			i += size
			continue
		}

		end := i
		for end < len(s) {
			r, size := utf8.DecodeRuneInString(s[end:])
			if !unicode.IsSpace(r) {
				break
			}
			end += size
		}
		sentences = append(sentences, s[start:i])
		seps = append(seps, s[i:end])
		start, i = end, end
	}
	sentences = append(sentences, s[start:])
	return sentences, seps
}

func joinSentences(sentences, seps []string) string {
	var b strings.Builder
	for i, s := range sentences {
		b.WriteString(s)
		if i < len(seps) {
			b.WriteString(seps[i])
		}
	}
	return b.String()
}

// plainLeadWords may be lowercased after a starter phrase. Anything else,
// such as names, acronyms, numbers or links, keeps its spelling.
var plainLeadWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "our": {}, "your": {}, "you": {}, "yes": {}, "no": {},
	"it": {}, "its": {}, "it's": {}, "there": {}, "this": {}, "that": {}, "these": {},
	"those": {}, "we": {}, "we're": {}, "they": {}, "he": {}, "she": {}, "in": {}, "on": {},
	"at": {}, "for": {}, "to": {}, "if": {}, "so": {}, "basically": {}, "sure": {},
	"well": {}, "here": {}, "most": {}, "all": {}, "every": {}, "each": {}, "students": {},
	"admission": {}, "admissions": {}, "college": {}, "campus": {}, "hostel": {}, "fees": {},
}

func lowerLeadingWord(s string) string {
	end := strings.IndexFunc(s, unicode.IsSpace)
	if end < 0 {
		end = len(s)
	}
	word := strings.TrimRight(s[:end], ",.!?:;")
	if _, ok := plainLeadWords[strings.ToLower(word)]; !ok {
		return s
	}

	r, size := utf8.DecodeRuneInString(s)
	if !unicode.IsUpper(r) || word[size:] != strings.ToLower(word[size:]) {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// DefaultRandom returns the process-wide math/rand source, which is safe
// for concurrent use.
func DefaultRandom() RandomSource {
	return globalRand{}
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) Intn(n int) int   { return rand.Intn(n) }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
