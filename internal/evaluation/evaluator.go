package evaluation

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/campus-assistant/backend/internal/language"
	"github.com/campus-assistant/backend/internal/query"
	"github.com/campus-assistant/backend/pkg/logger"
)

//go:embed golden.yaml
var goldenDataset []byte

const (
	Correct = "correct"
	Partial = "partial"
	Wrong   = "wrong"
)

type Resolver interface {
	Resolve(query string, lang language.Language) query.Answer
}

type Dataset struct {
	Items []DatasetItem `yaml:"items" json:"items"`
}

// DatasetItem is one expected resolution. Category and Contains are
// optional; an empty Language means the classifier decides.
type DatasetItem struct {
	Query    string `yaml:"query" json:"query"`
	Language string `yaml:"language" json:"language"`
	Source   string `yaml:"source" json:"source"`
	Category string `yaml:"category" json:"category"`
	Contains string `yaml:"contains" json:"contains"`
}

type ItemResult struct {
	Query          string  `json:"query"`
	ExpectedSource string  `json:"expected_source"`
	Source         string  `json:"source"`
	Category       string  `json:"category"`
	Confidence     float64 `json:"confidence"`
	Classification string  `json:"classification"`
}

type Report struct {
	TotalQueries      int            `json:"total_queries"`
	CorrectCount      int            `json:"correct"`
	PartialCount      int            `json:"partial"`
	WrongCount        int            `json:"wrong"`
	CorrectPercentage float64        `json:"correct_percentage"`
	AvgConfidence     float64        `json:"avg_confidence"`
	BySource          map[string]int `json:"correct_by_source"`
	Failures          []ItemResult   `json:"failures"`
}

type Evaluator struct {
	resolver Resolver
}

func NewEvaluator(resolver Resolver) *Evaluator {
	return &Evaluator{resolver: resolver}
}

// GoldenDataset returns the regression set compiled into the binary.
func GoldenDataset() (*Dataset, error) {
	return LoadDataset(goldenDataset)
}

// LoadDataset parses a dataset in YAML or JSON.
func LoadDataset(data []byte) (*Dataset, error) {
	var dataset Dataset
	if err := yaml.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}
	if len(dataset.Items) == 0 {
		return nil, errors.New("dataset has no items")
	}
	for i, item := range dataset.Items {
		if strings.TrimSpace(item.Query) == "" || item.Source == "" {
			return nil, fmt.Errorf("dataset item %d: query and source are required", i)
		}
	}
	return &dataset, nil
}

func (e *Evaluator) EvaluateItem(item DatasetItem) ItemResult {
	lang, ok := language.Parse(item.Language)
	if !ok {
		lang = language.Detect(item.Query)
	}

	answer := e.resolver.Resolve(item.Query, lang)
	result := ItemResult{
		Query:          item.Query,
		ExpectedSource: item.Source,
		Source:         string(answer.Source),
		Category:       answer.Category,
		Confidence:     answer.Confidence,
	}

	switch {
	case string(answer.Source) != item.Source:
		result.Classification = Wrong
	case item.Category != "" && answer.Category != item.Category,
		item.Contains != "" && !strings.Contains(answer.Content, item.Contains):
		result.Classification = Partial
	default:
		result.Classification = Correct
	}
	return result
}

func (e *Evaluator) Run(dataset *Dataset) *Report {
	logger.Info("Running resolver evaluation", zap.Int("items", len(dataset.Items)))

	report := &Report{
		TotalQueries: len(dataset.Items),
		BySource:     map[string]int{},
		Failures:     []ItemResult{},
	}

	var totalConfidence float64
	for _, item := range dataset.Items {
		result := e.EvaluateItem(item)
		totalConfidence += result.Confidence

		switch result.Classification {
		case Correct:
			report.CorrectCount++
			report.BySource[result.Source]++
			continue
		case Partial:
			report.PartialCount++
		default:
			report.WrongCount++
		}
		report.Failures = append(report.Failures, result)
	}

	if report.TotalQueries > 0 {
		report.CorrectPercentage = float64(report.CorrectCount) / float64(report.TotalQueries) * 100
		report.AvgConfidence = totalConfidence / float64(report.TotalQueries)
	}

	logger.Info("Resolver evaluation completed",
		zap.Int("total", report.TotalQueries),
		zap.Int("correct", report.CorrectCount),
		zap.Int("partial", report.PartialCount),
		zap.Int("wrong", report.WrongCount),
	)

	return report
}

func GenerateReport(report *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, `
Resolver Evaluation Report
==========================

Total Queries: %d

Classifications:
- Correct: %d (%.1f%%)
- Partial: %d
- Wrong: %d

Average Confidence: %.2f
`,
		report.TotalQueries,
		report.CorrectCount, report.CorrectPercentage,
		report.PartialCount,
		report.WrongCount,
		report.AvgConfidence,
	)

	sources := make([]string, 0, len(report.BySource))
	for source := range report.BySource {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	if len(sources) > 0 {
		b.WriteString("\nCorrect by tier:\n")
		for _, source := range sources {
			fmt.Fprintf(&b, "- %s: %d\n", source, report.BySource[source])
		}
	}

	if len(report.Failures) > 0 {
		b.WriteString("\nFailures:\n")
		for _, f := range report.Failures {
			fmt.Fprintf(&b, "- %q expected %s, got %s (%s)\n", f.Query, f.ExpectedSource, f.Source, f.Classification)
		}
	}
	return b.String()
}
