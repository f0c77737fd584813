package faq

import (
	"strings"

	"github.com/campus-assistant/backend/internal/knowledge"
	"github.com/campus-assistant/backend/internal/language"
)

const (
	ConfidenceQuestion = 0.9
	ConfidenceKeyword  = 0.7
)

type Result struct {
	ID         string
	Content    string
	Category   string
	Confidence float64
}

type Matcher struct {
	faqs []knowledge.FAQ
}

func NewMatcher(faqs []knowledge.FAQ) *Matcher {
	return &Matcher{faqs: faqs}
}

// Search returns the first FAQ whose question contains the query, whose
// opening three words appear in the query, or whose keyword appears in the
// query.
func (m *Matcher) Search(query string, lang language.Language) (Result, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Result{}, false
	}

	for _, f := range m.faqs {
		if f.Question == "" || f.Answer == "" {
			continue
		}
		question := strings.ToLower(f.Question)
		if strings.Contains(question, q) || strings.Contains(q, leadingWords(question, 3)) {
			return m.result(f, lang, ConfidenceQuestion), true
		}
		for _, kw := range f.Keywords {
			if kw != "" && strings.Contains(q, strings.ToLower(kw)) {
				return m.result(f, lang, ConfidenceKeyword), true
			}
		}
	}
	return Result{}, false
}

func (m *Matcher) result(f knowledge.FAQ, lang language.Language, confidence float64) Result {
	content := f.Answer
	if lang == language.Malayalam && f.AnswerML != "" {
		content = f.AnswerML
	}
	return Result{ID: f.ID, Content: content, Category: f.Category, Confidence: confidence}
}

func leadingWords(s string, n int) string {
	words := strings.Split(s, " ")
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
