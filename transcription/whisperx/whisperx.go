// Package whisperx implements transcription.Provider against a WhisperX HTTP
// sidecar. The sidecar runs transcription plus forced alignment and returns
// segments with word-level timestamps and confidence scores.
package whisperx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skillsenselab/scribe/provider"
	"github.com/skillsenselab/scribe/transcript"
	"github.com/skillsenselab/scribe/transcription"
)

const (
	// ProviderName is the registered name for the WhisperX provider.
	ProviderName = "whisperx"

	defaultBaseURL = "http://localhost:8387"
	defaultModel   = "medium"
	defaultTimeout = 300 * time.Second
)

// Config holds configuration for the WhisperX transcription provider.
type Config struct {
	BaseURL  string        `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
	Model    string        `json:"model" yaml:"model" mapstructure:"model"`
	Language string        `json:"language,omitempty" yaml:"language" mapstructure:"language"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// Provider implements transcription.Provider using a WhisperX HTTP sidecar.
type Provider struct {
	cfg    Config
	client *http.Client
}

// NewProvider creates a new WhisperX transcription provider.
func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Provider{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Factory returns a provider.Factory that creates WhisperX Provider
// instances from a generic config map.
func Factory() provider.Factory[transcription.Provider] {
	return func(cfg map[string]any) (transcription.Provider, error) {
		wc := Config{}
		if v, ok := cfg["base_url"].(string); ok {
			wc.BaseURL = v
		}
		if v, ok := cfg["model"].(string); ok {
			wc.Model = v
		}
		if v, ok := cfg["language"].(string); ok {
			wc.Language = v
		}
		if v, ok := cfg["timeout"].(time.Duration); ok {
			wc.Timeout = v
		}
		return NewProvider(wc), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks if the WhisperX sidecar is reachable and its model loaded.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// TranscribeAndAlign sends an audio file to the WhisperX sidecar and returns
// aligned segments.
func (p *Provider) TranscribeAndAlign(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	audioData, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	model := p.cfg.Model
	if req.Model != "" {
		model = req.Model
	}
	lang := p.cfg.Language
	if req.Language != "" {
		lang = req.Language
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio", filepath.Base(req.AudioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, fmt.Errorf("write audio data: %w", err)
	}

	_ = writer.WriteField("model", model)
	if lang != "" {
		_ = writer.WriteField("language", lang)
	}
	if req.ReferenceText != "" {
		_ = writer.WriteField("reference_text", req.ReferenceText)
	}
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/align", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whisperx request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("whisperx error (status %d): %s", resp.StatusCode, string(body))
	}

	var result whisperxResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode whisperx response: %w", err)
	}

	return toResult(&result), nil
}

// --- internal WhisperX API response types ---

type whisperxResponse struct {
	Segments []whisperxSegment `json:"segments"`
	Language string            `json:"language"`
	Duration float64           `json:"duration"`
}

type whisperxSegment struct {
	Text  string         `json:"text"`
	Start *float64       `json:"start"`
	End   *float64       `json:"end"`
	Words []whisperxWord `json:"words"`
}

type whisperxWord struct {
	Word  string   `json:"word"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Score *float64 `json:"score"`
}

func toResult(resp *whisperxResponse) *transcription.Result {
	segments := make([]transcript.Segment, len(resp.Segments))
	wordCount := 0

	for i, seg := range resp.Segments {
		words := make([]transcript.Word, len(seg.Words))
		for j, w := range seg.Words {
			// Alignment confidence defaults to 1.0 when the sidecar
			// does not score a word.
			confidence := 1.0
			if w.Score != nil {
				confidence = *w.Score
			}
			words[j] = transcript.Word{
				Text:       w.Word,
				Start:      w.Start,
				End:        w.End,
				Confidence: confidence,
			}
		}
		wordCount += len(words)

		segments[i] = transcript.Segment{
			Text:  strings.TrimSpace(seg.Text),
			Start: seg.Start,
			End:   seg.End,
			Words: words,
		}
	}

	return &transcription.Result{
		Segments:  segments,
		Language:  resp.Language,
		WordCount: wordCount,
		Duration:  resp.Duration,
	}
}
