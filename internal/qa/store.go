package qa

import (
	"strings"

	"github.com/campus-assistant/backend/internal/knowledge"
	"github.com/campus-assistant/backend/internal/language"
)

const (
	ConfidencePatternFact  = 0.95
	ConfidencePatternFirst = 0.85
	ConfidenceTagList      = 0.8
	ConfidenceTagFirst     = 0.75
)

// Result is a single fact picked from the first matching entry.
type Result struct {
	Content    string
	Category   string
	Confidence float64
	EntryID    int
}

// Store searches curated Q&A entries. It answers with one fact, never the
// whole record.
type Store struct {
	entries []knowledge.QAEntry
}

func NewStore(entries []knowledge.QAEntry) *Store {
	return &Store{entries: entries}
}

// Search walks entries in order. Within an entry the patterns are tried
// before the tags.
func (s *Store) Search(query string, lang language.Language) (Result, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Result{}, false
	}

	for _, entry := range s.entries {
		if len(entry.Facts) == 0 {
			continue
		}
		if res, ok := matchPatterns(entry, q, lang); ok {
			return res, true
		}
		if res, ok := matchTags(entry, q); ok {
			return res, true
		}
	}
	return Result{}, false
}

func matchPatterns(entry knowledge.QAEntry, q string, lang language.Language) (Result, bool) {
	category := "general"
	if len(entry.Tags) > 0 {
		category = entry.Tags[0]
	}

	for _, pattern := range entry.Patterns {
		p := strings.ToLower(pattern)
		if p == "" || !(strings.Contains(q, p) || strings.Contains(p, q)) {
			continue
		}
		content, confidence, ok := selectFact(entry.Facts, q, lang)
		if !ok {
			continue
		}
		return Result{Content: content, Category: category, Confidence: confidence, EntryID: entry.ID}, true
	}
	return Result{}, false
}

func matchTags(entry knowledge.QAEntry, q string) (Result, bool) {
	for _, tag := range entry.Tags {
		if tag == "" || !strings.Contains(q, strings.ToLower(tag)) {
			continue
		}
		if resp, ok := entry.Facts.Get("Response"); ok && resp.IsList() {
			return Result{Content: resp.Alternatives[0], Category: tag, Confidence: ConfidenceTagList, EntryID: entry.ID}, true
		}
		if first := entry.Facts[0]; first.IsText() {
			return Result{Content: first.Value, Category: tag, Confidence: ConfidenceTagFirst, EntryID: entry.ID}, true
		}
	}
	return Result{}, false
}

// selectFact picks the fact the query asks about: a reply alternative, then
// a name, phone or email when the query mentions one, then the first fact.
func selectFact(facts knowledge.Facts, q string, lang language.Language) (string, float64, bool) {
	if resp, ok := facts.Get("Response"); ok && resp.IsList() {
		return pickAlternative(resp.Alternatives, lang), ConfidencePatternFact, true
	}

	if strings.Contains(q, "name") {
		if f, ok := facts.Get("Name"); ok && f.IsText() {
			return f.Value, ConfidencePatternFact, true
		}
	}
	if strings.Contains(q, "phone") || strings.Contains(q, "number") || strings.Contains(q, "call") {
		if f, ok := facts.Get("Phone"); ok && f.IsText() {
			return f.Value, ConfidencePatternFact, true
		}
	}
	if strings.Contains(q, "email") {
		if f, ok := facts.Get("Email"); ok && f.IsText() {
			return f.Value, ConfidencePatternFact, true
		}
	}

	if first := facts[0]; first.IsText() {
		return first.Value, ConfidencePatternFirst, true
	}
	return "", 0, false
}

func pickAlternative(alternatives []string, lang language.Language) string {
	if lang == language.Malayalam {
		for _, alt := range alternatives {
			if language.HasMalayalamScript(alt) {
				return alt
			}
		}
	}
	return alternatives[0]
}

// Entries exposes the underlying table, mainly for tests and admin views.
func (s *Store) Entries() []knowledge.QAEntry {
	return s.entries
}
