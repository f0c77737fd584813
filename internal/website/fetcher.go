package website

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/campus-assistant/backend/pkg/logger"
)

const (
	BaseURL          = "https://lbscek.ac.in/"
	DefaultUserAgent = "Mozilla/5.0 (compatible; LBSCollegeBot/1.0)"
	DefaultMaxChars  = 3000
)

type topic struct {
	pattern *regexp.Regexp
	url     string
}

// Checked in order; the first match wins.
var topics = []topic{
	{regexp.MustCompile(`admission|apply|keam|entrance`), BaseURL + "admissions/"},
	{regexp.MustCompile(`course|program|branch|degree`), BaseURL + "academics/"},
	{regexp.MustCompile(`cse|computer\s*science`), BaseURL + "departments/cse/"},
	{regexp.MustCompile(`ece|electronics\s*communication`), BaseURL + "departments/ece/"},
	{regexp.MustCompile(`eee|electrical`), BaseURL + "departments/eee/"},
	{regexp.MustCompile(`mechanical|me\s*department`), BaseURL + "departments/me/"},
	{regexp.MustCompile(`civil|ce\s*department`), BaseURL + "departments/ce/"},
	{regexp.MustCompile(`placement|job|recruit|company`), BaseURL + "placements/"},
	{regexp.MustCompile(`faculty|teacher|professor|staff`), BaseURL + "faculty/"},
	{regexp.MustCompile(`hostel|accommodation|stay`), BaseURL + "facilities/"},
	{regexp.MustCompile(`facility|facilities|lab|library|canteen`), BaseURL + "facilities/"},
	{regexp.MustCompile(`contact|phone|email|address`), BaseURL + "contact/"},
	{regexp.MustCompile(`about|history|college`), BaseURL + "about/"},
}

var whitespace = regexp.MustCompile(`\s+`)

// URLFor picks the college website page most relevant to message.
func URLFor(message string) string {
	lower := strings.ToLower(message)
	for _, t := range topics {
		if t.pattern.MatchString(lower) {
			return t.url
		}
	}
	return BaseURL
}

type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxChars   int
}

func NewFetcher(timeout time.Duration, userAgent string, maxChars int) *Fetcher {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		maxChars:   maxChars,
	}
}

// Fetch downloads a page and returns its visible body text with navigation
// chrome removed, whitespace collapsed and the result capped at maxChars runes.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("website returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, nav, footer, header").Remove()
	text := strings.TrimSpace(whitespace.ReplaceAllString(doc.Find("body").Text(), " "))
	text = truncate(text, f.maxChars)

	logger.Debug("Website content fetched",
		zap.String("url", url),
		zap.Int("length", len(text)),
	)

	return text, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
