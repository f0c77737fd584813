package query

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/campus-assistant/backend/internal/campus"
	"github.com/campus-assistant/backend/internal/category"
	"github.com/campus-assistant/backend/internal/faq"
	"github.com/campus-assistant/backend/internal/humanize"
	"github.com/campus-assistant/backend/internal/knowledge"
	"github.com/campus-assistant/backend/internal/language"
	"github.com/campus-assistant/backend/internal/qa"
	"github.com/campus-assistant/backend/pkg/logger"
)

type Source string

const (
	SourceQA       Source = "qa_database"
	SourceLocation Source = "location"
	SourceCategory Source = "category"
	SourceFAQ      Source = "faq"
	SourceGreeting Source = "greeting"
	SourceFallback Source = "fallback"
)

const (
	qaMinConfidence    = 0.7
	locationConfidence = 0.9
	categoryConfidence = 0.85
	greetingConfidence = 1.0

	defaultNotFound = "Sorry, I couldn't find an answer to that. Please contact the college office at 04994-256400."
)

type Answer struct {
	Content    string  `json:"content"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`

	// Fact is the tier's answer before humanizing. It is stable across
	// turns and empty for greetings and the fallback.
	Fact string `json:"-"`
}

var wayfindingFiller = regexp.MustCompile(`where is|how to reach|navigate to|find|the`)

type Options struct {
	Random humanize.RandomSource
	Clock  humanize.Clock
}

// Resolver answers a query from the local knowledge base, trying each tier
// in a fixed order and stopping at the first confident hit. It never does
// I/O and is safe for concurrent use.
type Resolver struct {
	directory  *campus.Directory
	qa         *qa.Store
	categories *category.Responder
	faqs       *faq.Matcher
	humanizer  *humanize.Humanizer
	responses  knowledge.Responses
	rnd        humanize.RandomSource
}

func NewResolver(base *knowledge.Base, opts Options) *Resolver {
	rnd := opts.Random
	if rnd == nil {
		rnd = humanize.DefaultRandom()
	}
	return &Resolver{
		directory:  campus.NewDirectory(base),
		qa:         qa.NewStore(base.QA),
		categories: category.NewResponder(base.Categories),
		faqs:       faq.NewMatcher(base.FAQs),
		humanizer:  humanize.New(humanize.PhrasesFrom(base.Responses), rnd, opts.Clock),
		responses:  base.Responses,
		rnd:        rnd,
	}
}

func (r *Resolver) Resolve(query string, lang language.Language) Answer {
	return r.ResolveTurn(query, lang, false)
}

// ResolveTurn is Resolve for one turn of a conversation. On the first
// message the humanizer may open with a time-of-day greeting.
func (r *Resolver) ResolveTurn(query string, lang language.Language, firstMessage bool) Answer {
	if !lang.Valid() {
		lang = language.English
	}

	tiers := []struct {
		name string
		fn   func(string, language.Language) (Answer, bool)
	}{
		{"greeting", r.greeting},
		{"qa", r.fromQA},
		{"location", r.fromLocation},
		{"category", r.fromCategory},
		{"faq", r.fromFAQ},
	}

	for _, tier := range tiers {
		if answer, ok := r.try(tier.name, tier.fn, query, lang); ok {
			if answer.Source != SourceGreeting {
				answer.Fact = answer.Content
				answer.Content = r.humanizer.Humanize(answer.Content, firstMessage)
			}
			return answer
		}
	}
	return r.fallback(lang)
}

// try runs one tier. A panic inside a tier is logged and treated as a miss.
func (r *Resolver) try(name string, fn func(string, language.Language) (Answer, bool), query string, lang language.Language) (answer Answer, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Resolution tier panicked",
				zap.String("tier", name),
				zap.Any("panic", rec),
			)
			answer, ok = Answer{}, false
		}
	}()
	return fn(query, lang)
}

func (r *Resolver) greeting(query string, _ language.Language) (Answer, bool) {
	if !r.isGreeting(query) {
		return Answer{}, false
	}
	return Answer{
		Content:    r.humanizer.Greeting(),
		Category:   "greeting",
		Confidence: greetingConfidence,
		Source:     SourceGreeting,
	}, true
}

// isGreeting reports whether the query is or starts with a greeting word.
// Plain prefixes also catch words such as "highest" or "history" for "hi".
func (r *Resolver) isGreeting(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, word := range r.responses.GreetingWords {
		word = strings.ToLower(word)
		if word != "" && strings.HasPrefix(q, word) {
			return true
		}
	}
	return false
}

func (r *Resolver) fromQA(query string, lang language.Language) (Answer, bool) {
	res, ok := r.qa.Search(query, lang)
	if !ok || res.Confidence <= qaMinConfidence {
		return Answer{}, false
	}
	return Answer{
		Content:    res.Content,
		Category:   res.Category,
		Confidence: res.Confidence,
		Source:     SourceQA,
	}, true
}

func (r *Resolver) fromLocation(query string, lang language.Language) (Answer, bool) {
	stripped := strings.TrimSpace(wayfindingFiller.ReplaceAllString(strings.ToLower(query), ""))
	if utf8.RuneCountInString(stripped) <= 2 && !r.directory.IsLocationQuery(query) {
		return Answer{}, false
	}

	loc, ok := r.directory.FindLocation(query)
	if !ok {
		return Answer{}, false
	}
	return Answer{
		Content:    r.describeLocation(loc, lang),
		Category:   "location",
		Confidence: locationConfidence,
		Source:     SourceLocation,
	}, true
}

func (r *Resolver) describeLocation(loc *knowledge.Location, lang language.Language) string {
	tmpl, ok := r.responses.LocationAnswer[lang]
	if !ok || tmpl.Intro == "" {
		tmpl = r.responses.LocationAnswer[language.English]
	}
	if tmpl.Intro == "" {
		tmpl = knowledge.LocationTemplate{
			Intro:   "{name} is located on campus. {description}",
			Timings: "Timing: {timings}",
			Map:     "Google Maps: {url}",
		}
	}

	name := loc.Name
	if lang == language.Malayalam && loc.MalayalamName != "" {
		name = loc.MalayalamName
	}
	replacer := strings.NewReplacer(
		"{name}", name,
		"{description}", loc.Description,
		"{timings}", loc.Timings,
		"{url}", loc.MapsURL,
	)

	var b strings.Builder
	b.WriteString(strings.TrimSpace(replacer.Replace(tmpl.Intro)))
	if loc.Timings != "" && tmpl.Timings != "" {
		b.WriteString("\n")
		b.WriteString(replacer.Replace(tmpl.Timings))
	}
	b.WriteString("\n\n")
	b.WriteString(replacer.Replace(tmpl.Map))
	return b.String()
}

func (r *Resolver) fromCategory(query string, lang language.Language) (Answer, bool) {
	name, ok := r.categories.Detect(query)
	if !ok || name == "location" {
		return Answer{}, false
	}
	text := r.categories.Response(name, lang)
	if text == "" {
		return Answer{}, false
	}
	return Answer{
		Content:    text,
		Category:   name,
		Confidence: categoryConfidence,
		Source:     SourceCategory,
	}, true
}

// fromFAQ returns any FAQ hit, even a keyword-only one. It is the last
// signal before the fallback.
func (r *Resolver) fromFAQ(query string, lang language.Language) (Answer, bool) {
	res, ok := r.faqs.Search(query, lang)
	if !ok {
		return Answer{}, false
	}
	return Answer{
		Content:    res.Content,
		Category:   res.Category,
		Confidence: res.Confidence,
		Source:     SourceFAQ,
	}, true
}

func (r *Resolver) fallback(lang language.Language) Answer {
	replies := r.responses.NotFound[lang]
	if len(replies) == 0 {
		replies = r.responses.NotFound[language.English]
	}
	content := defaultNotFound
	if len(replies) > 0 {
		content = replies[r.rnd.Intn(len(replies))]
	}
	return Answer{
		Content:    content,
		Category:   "unknown",
		Confidence: 0,
		Source:     SourceFallback,
	}
}

// Directions looks up a walking route directly, bypassing resolution.
func (r *Resolver) Directions(from, to string, lang language.Language) (*campus.Directions, bool) {
	return r.directory.FindRoute(from, to, lang)
}

func (r *Resolver) Directory() *campus.Directory {
	return r.directory
}

// Categories lists the information categories answered from templates,
// in matching order.
func (r *Resolver) Categories() []string {
	return r.categories.Names()
}

func (r *Resolver) Greeting() string {
	return r.humanizer.Greeting()
}
