package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campus-assistant/backend/internal/language"
	"github.com/campus-assistant/backend/internal/metrics"
	"github.com/campus-assistant/backend/pkg/circuitbreaker"
	"github.com/campus-assistant/backend/pkg/logger"
	"github.com/campus-assistant/backend/pkg/retry"
)

const (
	DefaultEndpoint = "https://api.sarvam.ai/text-to-speech"
	DefaultModel    = "bulbul:v2"
	DefaultSpeaker  = "manisha"
	DefaultMaxChars = 500

	LanguageMalayalam = "ml-IN"
	LanguageEnglish   = "en-IN"
)

var (
	ErrEmptyText     = errors.New("tts: text is required")
	ErrNotConfigured = errors.New("tts: api key not configured")
)

var (
	emojiPattern   = regexp.MustCompile(`[\x{1F300}-\x{1FAFF}\x{2600}-\x{27BF}\x{FE0F}\x{200D}\x{20E3}•]`)
	newlinePattern = regexp.MustCompile(`\n+`)
)

type Config struct {
	Endpoint   string
	APIKey     string
	Model      string
	Speaker    string
	SampleRate int
	MaxChars   int
	Timeout    time.Duration
}

type Client struct {
	cfg         Config
	httpClient  *http.Client
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

type Audio struct {
	// Data is base64 encoded WAV.
	Data     string `json:"audio"`
	Format   string `json:"format"`
	Speaker  string `json:"speaker"`
	Language string `json:"language"`
}

type synthesizeRequest struct {
	Inputs              []string `json:"inputs"`
	TargetLanguageCode  string   `json:"target_language_code"`
	Speaker             string   `json:"speaker"`
	Pitch               float64  `json:"pitch"`
	Pace                float64  `json:"pace"`
	Loudness            float64  `json:"loudness"`
	SpeechSampleRate    int      `json:"speech_sample_rate"`
	EnablePreprocessing bool     `json:"enable_preprocessing"`
	Model               string   `json:"model"`
}

type synthesizeResponse struct {
	Audios []string `json:"audios"`
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("sarvam returned status %d: %s", e.status, e.body)
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Speaker == "" {
		cfg.Speaker = DefaultSpeaker
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 22050
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxChars
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	cb := circuitbreaker.NewCircuitBreaker("tts", circuitbreaker.Config{
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		IsFailure: func(err error) bool {
			var se *statusError
			return !errors.As(err, &se) || se.status >= 500 || se.status == http.StatusTooManyRequests
		},
		OnStateChange: func(name string, _ circuitbreaker.State, to circuitbreaker.State) {
			metrics.CircuitState.WithLabelValues(name).Set(float64(to))
		},
		Logger: logger.GetLogger(),
	})

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cb:         cb,
		retryConfig: retry.Config{
			MaxAttempts:    2,
			InitialDelay:   300 * time.Millisecond,
			MaxDelay:       2 * time.Second,
			Multiplier:     2.0,
			JitterFraction: 0.1,
			Logger:         logger.GetLogger(),
		},
	}, nil
}

// LanguageCode maps a reply language to a Sarvam target language. Text in
// Malayalam script is always spoken as Malayalam.
func LanguageCode(lang language.Language, text string) string {
	if lang == language.Malayalam || language.HasMalayalamScript(text) {
		return LanguageMalayalam
	}
	return LanguageEnglish
}

// CleanText strips markup and pictographs that should not be read aloud.
func CleanText(text string) string {
	text = emojiPattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "**", "")
	text = newlinePattern.ReplaceAllString(text, ". ")
	return strings.TrimSpace(text)
}

// Truncate cuts text to at most max runes.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

// Synthesize converts text to speech. The text is cleaned and truncated
// before it is sent.
func (c *Client) Synthesize(ctx context.Context, text string, lang language.Language) (*Audio, error) {
	text = Truncate(CleanText(text), c.cfg.MaxChars)
	if text == "" {
		return nil, ErrEmptyText
	}

	code := LanguageCode(lang, text)
	payload, err := json.Marshal(synthesizeRequest{
		Inputs:              []string{text},
		TargetLanguageCode:  code,
		Speaker:             c.cfg.Speaker,
		Pitch:               0,
		Pace:                1,
		Loudness:            1.5,
		SpeechSampleRate:    c.cfg.SampleRate,
		EnablePreprocessing: true,
		Model:               c.cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var audio string
	err = c.cb.Execute(ctx, func(ctx context.Context) error {
		return retry.Do(ctx, c.retryConfig, func(ctx context.Context) error {
			var err error
			audio, err = c.post(ctx, payload)
			var se *statusError
			if errors.As(err, &se) && se.status < 500 && se.status != http.StatusTooManyRequests {
				return retry.Permanent(err)
			}
			return err
		})
	})
	if err != nil {
		metrics.TTSRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}

	metrics.TTSRequests.WithLabelValues("ok").Inc()
	logger.Debug("Speech synthesized",
		zap.String("language", code),
		zap.Int("text_length", len(text)),
	)

	return &Audio{
		Data:     audio,
		Format:   "wav",
		Speaker:  c.cfg.Speaker,
		Language: code,
	}, nil
}

func (c *Client) post(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-Subscription-Key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	var out synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Audios) == 0 || out.Audios[0] == "" {
		return "", retry.Permanent(errors.New("sarvam returned no audio"))
	}
	return out.Audios[0], nil
}
