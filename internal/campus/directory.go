package campus

import (
	"strings"

	"github.com/campus-assistant/backend/internal/knowledge"
	"github.com/campus-assistant/backend/internal/language"
)

// Directory answers "where is" and "how do I get to" questions from a
// static gazetteer. Lookups are first-match in table order.
type Directory struct {
	locations []knowledge.Location
	aliases   []knowledge.Alias
	triggers  []string
	routes    []knowledge.Route
	byID      map[string]int
}

type Directions struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Steps []string `json:"steps"`
}

// Text joins the steps into one sentence list ending with a period.
func (d Directions) Text() string {
	return strings.Join(d.Steps, ". ") + "."
}

type RouteRef struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func NewDirectory(base *knowledge.Base) *Directory {
	d := &Directory{
		locations: base.Locations,
		aliases:   base.Aliases,
		triggers:  base.Triggers,
		routes:    base.Routes,
		byID:      make(map[string]int, len(base.Locations)),
	}
	for i, loc := range base.Locations {
		if _, seen := d.byID[loc.ID]; !seen {
			d.byID[loc.ID] = i
		}
	}
	return d
}

// FindLocation returns the first location whose keywords appear in the
// query, whose name contains the query, or whose Malayalam name contains
// the raw query. Alias phrases are consulted only when nothing matched.
func (d *Directory) FindLocation(query string) (*knowledge.Location, bool) {
	if strings.TrimSpace(query) == "" {
		return nil, false
	}
	q := strings.ToLower(query)

	for i := range d.locations {
		loc := &d.locations[i]
		if matchesLocation(loc, query, q) {
			return loc, true
		}
	}

	for _, alias := range d.aliases {
		if alias.Phrase == "" || !strings.Contains(q, strings.ToLower(alias.Phrase)) {
			continue
		}
		return d.Location(alias.ID)
	}
	return nil, false
}

func matchesLocation(loc *knowledge.Location, raw, lower string) bool {
	for _, kw := range loc.Keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	if strings.Contains(strings.ToLower(loc.Name), lower) {
		return true
	}
	return loc.MalayalamName != "" && strings.Contains(loc.MalayalamName, raw)
}

func (d *Directory) Location(id string) (*knowledge.Location, bool) {
	i, ok := d.byID[id]
	if !ok {
		return nil, false
	}
	return &d.locations[i], true
}

// IsLocationQuery reports whether the query asks for a place, either through
// a wayfinding trigger in any supported language or by naming a location.
func (d *Directory) IsLocationQuery(query string) bool {
	q := strings.ToLower(query)
	for _, trigger := range d.triggers {
		if trigger != "" && strings.Contains(q, strings.ToLower(trigger)) {
			return true
		}
	}
	_, ok := d.FindLocation(query)
	return ok
}

// FindRoute matches both labels by containment in either direction, so
// "Admin Block" finds "Administrative Block" and vice versa. Routes are
// directional.
func (d *Directory) FindRoute(from, to string, lang language.Language) (*Directions, bool) {
	f, t := strings.ToLower(strings.TrimSpace(from)), strings.ToLower(strings.TrimSpace(to))
	if f == "" || t == "" {
		return nil, false
	}

	for _, route := range d.routes {
		if !containsEither(strings.ToLower(route.From), f) || !containsEither(strings.ToLower(route.To), t) {
			continue
		}
		steps := route.StepsFor(lang)
		if len(steps) == 0 {
			continue
		}
		return &Directions{From: route.From, To: route.To, Steps: steps}, true
	}
	return nil, false
}

func (d *Directory) BuildDirections(from, to string, lang language.Language) (string, bool) {
	dir, ok := d.FindRoute(from, to, lang)
	if !ok {
		return "", false
	}
	return dir.Text(), true
}

// LocationsByCategory groups locations under every known category, keeping
// table order inside each group.
func (d *Directory) LocationsByCategory() map[string][]knowledge.Location {
	grouped := make(map[string][]knowledge.Location, len(knowledge.LocationCategories))
	for _, c := range knowledge.LocationCategories {
		grouped[c] = []knowledge.Location{}
	}
	for _, loc := range d.locations {
		grouped[loc.Category] = append(grouped[loc.Category], loc)
	}
	return grouped
}

func (d *Directory) Routes() []RouteRef {
	refs := make([]RouteRef, 0, len(d.routes))
	for _, r := range d.routes {
		refs = append(refs, RouteRef{From: r.From, To: r.To})
	}
	return refs
}

func (d *Directory) Locations() []knowledge.Location {
	return d.locations
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
