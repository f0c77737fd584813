package category

import (
	"strings"

	"github.com/campus-assistant/backend/internal/knowledge"
	"github.com/campus-assistant/backend/internal/language"
)

// Responder maps a query onto a topic and returns that topic's canned reply.
type Responder struct {
	categories []knowledge.CategoryTemplate
	byName     map[string]int
}

func NewResponder(categories []knowledge.CategoryTemplate) *Responder {
	r := &Responder{
		categories: categories,
		byName:     make(map[string]int, len(categories)),
	}
	for i, c := range categories {
		if _, seen := r.byName[c.Name]; !seen {
			r.byName[c.Name] = i
		}
	}
	return r
}

// Detect returns the first category, in declaration order, with a keyword
// inside the query.
func (r *Responder) Detect(query string) (string, bool) {
	q := strings.ToLower(query)
	if strings.TrimSpace(q) == "" {
		return "", false
	}
	for _, c := range r.categories {
		for _, kw := range c.Keywords {
			if kw != "" && strings.Contains(q, strings.ToLower(kw)) {
				return c.Name, true
			}
		}
	}
	return "", false
}

// Response returns the template for name in lang, falling back to English.
// Unknown categories yield an empty string.
func (r *Responder) Response(name string, lang language.Language) string {
	i, ok := r.byName[name]
	if !ok {
		return ""
	}
	templates := r.categories[i].Templates
	if text := templates[lang]; text != "" {
		return text
	}
	return templates[language.English]
}

func (r *Responder) Names() []string {
	names := make([]string, 0, len(r.categories))
	for _, c := range r.categories {
		names = append(names, c.Name)
	}
	return names
}
