package knowledge

import (
	"strings"

	"github.com/campus-assistant/backend/internal/language"
)

type Location struct {
	ID            string   `yaml:"id" json:"id"`
	Name          string   `yaml:"name" json:"name"`
	MalayalamName string   `yaml:"malayalam_name" json:"malayalam_name"`
	Category      string   `yaml:"category" json:"category"`
	Description   string   `yaml:"description" json:"description"`
	MapsURL       string   `yaml:"maps_url" json:"maps_url"`
	Keywords      []string `yaml:"keywords" json:"keywords"`
	Timings       string   `yaml:"timings,omitempty" json:"timings,omitempty"`
	Floor         string   `yaml:"floor,omitempty" json:"floor,omitempty"`
	SubLocations  []string `yaml:"sub_locations,omitempty" json:"sub_locations,omitempty"`
}

// LocationCategories lists the directory categories in display order.
var LocationCategories = []string{"administration", "academic", "facility", "hostel", "sports", "amenity"}

// Alias maps a free-text phrase onto a location id.
type Alias struct {
	Phrase string `yaml:"phrase"`
	ID     string `yaml:"id"`
}

type Route struct {
	From  string                         `yaml:"from" json:"from"`
	To    string                         `yaml:"to" json:"to"`
	Steps map[language.Language][]string `yaml:"steps" json:"steps"`
}

// StepsFor returns the steps in lang, or the English steps when lang has none.
func (r Route) StepsFor(lang language.Language) []string {
	if steps := r.Steps[lang]; len(steps) > 0 {
		return steps
	}
	return r.Steps[language.English]
}

type QAEntry struct {
	ID       int      `yaml:"id"`
	Patterns []string `yaml:"patterns"`
	Tags     []string `yaml:"tags"`
	Facts    Facts    `yaml:"facts"`
}

// Fact is one labelled answer. Conversational entries carry a list of
// alternative phrasings instead of a single value.
type Fact struct {
	Label        string
	Value        string
	Alternatives []string
}

func (f Fact) IsText() bool {
	return f.Alternatives == nil && f.Value != ""
}

func (f Fact) IsList() bool {
	return len(f.Alternatives) > 0
}

// Facts keeps the order the facts were written in.
type Facts []Fact

func (fs Facts) Get(label string) (Fact, bool) {
	for _, f := range fs {
		if strings.EqualFold(f.Label, label) {
			return f, true
		}
	}
	return Fact{}, false
}

type FAQ struct {
	ID         string   `yaml:"id" json:"id"`
	Question   string   `yaml:"question" json:"question"`
	QuestionML string   `yaml:"question_ml,omitempty" json:"question_ml,omitempty"`
	Answer     string   `yaml:"answer" json:"answer"`
	AnswerML   string   `yaml:"answer_ml,omitempty" json:"answer_ml,omitempty"`
	Category   string   `yaml:"category" json:"category"`
	Keywords   []string `yaml:"keywords" json:"keywords"`
}

type CategoryTemplate struct {
	Name      string                       `yaml:"name"`
	Keywords  []string                     `yaml:"keywords"`
	Templates map[language.Language]string `yaml:"templates"`
}

type Greetings struct {
	Morning   []string `yaml:"morning"`
	Afternoon []string `yaml:"afternoon"`
	Evening   []string `yaml:"evening"`
	General   []string `yaml:"general"`
}

// LocationTemplate renders a location answer. Placeholders are {name},
// {description}, {timings} and {url}.
type LocationTemplate struct {
	Intro   string `yaml:"intro"`
	Timings string `yaml:"timings"`
	Map     string `yaml:"map"`
}

type Responses struct {
	GreetingWords  []string                               `yaml:"greeting_words"`
	Greetings      Greetings                              `yaml:"greetings"`
	Starters       []string                               `yaml:"starters"`
	Transitions    []string                               `yaml:"transitions"`
	Closings       []string                               `yaml:"closings"`
	NotFound       map[language.Language][]string         `yaml:"not_found"`
	LocationAnswer map[language.Language]LocationTemplate `yaml:"location_answer"`
}

// Base is one complete, immutable snapshot of the campus knowledge.
type Base struct {
	Locations  []Location
	Aliases    []Alias
	Triggers   []string
	Routes     []Route
	QA         []QAEntry
	FAQs       []FAQ
	Categories []CategoryTemplate
	Responses  Responses
}
