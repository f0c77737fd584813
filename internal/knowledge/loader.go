package knowledge

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/campus-assistant/backend/internal/language"
	"github.com/campus-assistant/backend/pkg/logger"
)

//go:embed data/*.yaml
var embedded embed.FS

const (
	locationsFile  = "locations.yaml"
	routesFile     = "routes.yaml"
	qaFile         = "qa.yaml"
	faqsFile       = "faqs.yaml"
	categoriesFile = "categories.yaml"
	responsesFile  = "responses.yaml"
)

type locationsDoc struct {
	Locations []Location `yaml:"locations"`
	Aliases   []Alias    `yaml:"aliases"`
	Triggers  []string   `yaml:"triggers"`
}

type routesDoc struct {
	Routes []Route `yaml:"routes"`
}

type qaDoc struct {
	Entries []QAEntry `yaml:"entries"`
}

type faqsDoc struct {
	FAQs []FAQ `yaml:"faqs"`
}

type categoriesDoc struct {
	Categories []CategoryTemplate `yaml:"categories"`
}

// Load parses the knowledge base compiled into the binary.
func Load() (*Base, error) {
	return LoadDir("")
}

// LoadDir parses the knowledge base from dir. Files missing from dir are
// taken from the embedded copy, so an override directory only needs the
// files it changes. An empty dir loads the embedded data.
func LoadDir(dir string) (*Base, error) {
	var (
		locs  locationsDoc
		rts   routesDoc
		qa    qaDoc
		faqs  faqsDoc
		cats  categoriesDoc
		resps Responses
	)

	files := []struct {
		name string
		out  interface{}
	}{
		{locationsFile, &locs},
		{routesFile, &rts},
		{qaFile, &qa},
		{faqsFile, &faqs},
		{categoriesFile, &cats},
		{responsesFile, &resps},
	}

	for _, f := range files {
		data, source, err := readFile(dir, f.name)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, f.out); err != nil {
			return nil, fmt.Errorf("failed to parse %s (%s): %w", f.name, source, err)
		}
		logger.Debug("Loaded knowledge file", zap.String("file", f.name), zap.String("source", source))
	}

	return &Base{
		Locations:  locs.Locations,
		Aliases:    locs.Aliases,
		Triggers:   locs.Triggers,
		Routes:     rts.Routes,
		QA:         qa.Entries,
		FAQs:       faqs.FAQs,
		Categories: cats.Categories,
		Responses:  resps,
	}, nil
}

func readFile(dir, name string) ([]byte, string, error) {
	if dir != "" {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err == nil {
			return data, path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	data, err := embedded.ReadFile("data/" + name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read embedded %s: %w", name, err)
	}
	return data, "embedded", nil
}

// Prune drops every record that cannot be served and reports what it
// dropped. A location needs an id unique in the table and a maps url; an
// alias needs a known location; routes and categories need English text.
func (b *Base) Prune() []error {
	var problems []error

	ids := make(map[string]struct{}, len(b.Locations))
	locations := b.Locations[:0:0]
	for i, loc := range b.Locations {
		switch {
		case loc.ID == "":
			problems = append(problems, fmt.Errorf("location #%d: missing id", i))
			continue
		case loc.MapsURL == "":
			problems = append(problems, fmt.Errorf("location %q: empty maps url", loc.ID))
			continue
		}
		if _, dup := ids[loc.ID]; dup {
			problems = append(problems, fmt.Errorf("location %q: duplicate id", loc.ID))
			continue
		}
		ids[loc.ID] = struct{}{}
		locations = append(locations, loc)
	}
	b.Locations = locations

	aliases := b.Aliases[:0:0]
	for _, alias := range b.Aliases {
		if _, ok := ids[alias.ID]; !ok {
			problems = append(problems, fmt.Errorf("alias %q: unknown location %q", alias.Phrase, alias.ID))
			continue
		}
		aliases = append(aliases, alias)
	}
	b.Aliases = aliases

	routes := b.Routes[:0:0]
	for i, route := range b.Routes {
		if len(route.Steps[language.English]) == 0 {
			problems = append(problems, fmt.Errorf("route #%d (%s -> %s): no english steps", i, route.From, route.To))
			continue
		}
		routes = append(routes, route)
	}
	b.Routes = routes

	categories := b.Categories[:0:0]
	for _, cat := range b.Categories {
		if cat.Templates[language.English] == "" {
			problems = append(problems, fmt.Errorf("category %q: no english template", cat.Name))
			continue
		}
		categories = append(categories, cat)
	}
	b.Categories = categories

	if len(b.Responses.NotFound[language.English]) == 0 {
		problems = append(problems, errors.New("responses: no english not-found replies, using the built-in reply"))
	}

	return problems
}
