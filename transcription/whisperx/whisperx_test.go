package whisperx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/skillsenselab/scribe/transcription"
)

func writeTempAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, []byte("RIFFfake"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranscribeAndAlign_DecodesWordsAndDefaultsConfidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/align" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "medium" {
			t.Errorf("expected default model medium, got %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"language": "en",
			"duration": 4.2,
			"segments": []map[string]any{
				{
					"text":  "  hello world ",
					"start": 0.5,
					"end":   1.5,
					"words": []map[string]any{
						{"word": "hello", "start": 0.5, "end": 0.9, "score": 0.87},
						{"word": "world", "start": 1.0, "end": 1.5},
					},
				},
			},
		})
	}))
	defer srv.Close()

	p := NewProvider(Config{BaseURL: srv.URL})
	res, err := p.TranscribeAndAlign(context.Background(), transcription.Request{AudioPath: writeTempAudio(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(res.Segments))
	}
	seg := res.Segments[0]
	if seg.Text != "hello world" {
		t.Errorf("expected trimmed text, got %q", seg.Text)
	}
	if seg.Start == nil || *seg.Start != 0.5 {
		t.Errorf("expected start 0.5, got %v", seg.Start)
	}
	if len(seg.Words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(seg.Words))
	}
	if seg.Words[0].Confidence != 0.87 {
		t.Errorf("expected scored confidence 0.87, got %v", seg.Words[0].Confidence)
	}
	if seg.Words[1].Confidence != 1.0 {
		t.Errorf("expected default confidence 1.0 for unscored word, got %v", seg.Words[1].Confidence)
	}
	if res.WordCount != 2 {
		t.Errorf("expected word count 2, got %d", res.WordCount)
	}
	if res.Language != "en" {
		t.Errorf("expected language en, got %q", res.Language)
	}
}

func TestTranscribeAndAlign_SegmentWithoutTimestamps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"segments": []map[string]any{
				{"text": "untimed", "words": []map[string]any{}},
			},
		})
	}))
	defer srv.Close()

	p := NewProvider(Config{BaseURL: srv.URL})
	res, err := p.TranscribeAndAlign(context.Background(), transcription.Request{AudioPath: writeTempAudio(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seg := res.Segments[0]
	if seg.Start != nil || seg.End != nil {
		t.Errorf("expected nil timestamps, got start=%v end=%v", seg.Start, seg.End)
	}
}

func TestTranscribeAndAlign_SidecarFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewProvider(Config{BaseURL: srv.URL})
	if _, err := p.TranscribeAndAlign(context.Background(), transcription.Request{AudioPath: writeTempAudio(t)}); err == nil {
		t.Error("expected error on sidecar failure")
	}
}

func TestIsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	p := NewProvider(Config{BaseURL: srv.URL})
	if !p.IsAvailable(context.Background()) {
		t.Error("expected provider available")
	}
	srv.Close()
	if p.IsAvailable(context.Background()) {
		t.Error("expected provider unavailable after server stop")
	}
}
