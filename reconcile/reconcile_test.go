package reconcile

import (
	"testing"

	"github.com/skillsenselab/scribe/transcript"
)

func TestParseLines(t *testing.T) {
	text := "Speaker 1: hello there\n\nplain narration line\nSPEAKER A: loud greeting\nnote: not a speaker line\n"
	lines := ParseLines(text)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %+v", len(lines), lines)
	}
	if lines[0].Speaker != "Speaker 1" || lines[0].Text != "hello there" {
		t.Errorf("unexpected first line: %+v", lines[0])
	}
	if lines[1].Speaker != "" || lines[1].Text != "plain narration line" {
		t.Errorf("unexpected plain line: %+v", lines[1])
	}
	if lines[2].Speaker != "SPEAKER A" {
		t.Errorf("speaker prefix match should be case-insensitive: %+v", lines[2])
	}
	if lines[3].Speaker != "" || lines[3].Text != "note: not a speaker line" {
		t.Errorf("non-speaker label must stay plain text: %+v", lines[3])
	}
}

func TestSimilarity(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"hello world", "hello world", 1.0},
		{"hello world", "HELLO World", 1.0},
		{"a b c d", "a b c e", 3.0 / 5.0},
		{"one two", "three four", 0},
		{"", "hello", 0},
		{"hello", "", 0},
	}
	for _, tc := range cases {
		if got := Similarity(tc.a, tc.b); got != tc.want {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestReconcile_FirstMatchNotBestMatch(t *testing.T) {
	// Both lines clear the threshold, but the later one scores higher.
	// The first qualifying line still wins.
	segText := "w1 w2 w3 w4 w5 w6 w7 w8 w9 w10"
	first := "w1 w2 w3 w4 w5 w6 w7 w8 w9 x1" // Jaccard 9/11 ≈ 0.82
	better := segText                        // Jaccard 1.0

	segments := []transcript.Segment{{
		Text:  segText,
		Start: transcript.Time(0),
		End:   transcript.Time(2),
	}}
	lines := []Line{{Text: first}, {Text: better}}

	out := NewReconciler(DefaultThreshold).Reconcile(segments, lines)
	if out[0].Text != first {
		t.Errorf("expected first qualifying line to win, got %q", out[0].Text)
	}
}

func TestReconcile_KeepsOriginalWhenNothingQualifies(t *testing.T) {
	segments := []transcript.Segment{{Text: "completely different words"}}
	lines := []Line{{Text: "unrelated reference line"}}
	out := NewReconciler(DefaultThreshold).Reconcile(segments, lines)
	if out[0].Text != "completely different words" {
		t.Errorf("expected original text retained, got %q", out[0].Text)
	}
}

func TestReconcile_PreservesTimingAndDropsWords(t *testing.T) {
	segments := []transcript.Segment{{
		Text:  "hello there world",
		Start: transcript.Time(1.5),
		End:   transcript.Time(3.5),
		Words: []transcript.Word{{Text: "hello", Confidence: 0.4}},
	}}
	lines := []Line{{Text: "hello there world"}}
	out := NewReconciler(DefaultThreshold).Reconcile(segments, lines)
	if out[0].Start == nil || *out[0].Start != 1.5 || out[0].End == nil || *out[0].End != 3.5 {
		t.Errorf("timing must be preserved: start=%v end=%v", out[0].Start, out[0].End)
	}
	if out[0].Words != nil {
		t.Error("stale word alignments must be dropped after rewriting text")
	}
}

func TestReconcile_LabeledLineSuppliesSpeaker(t *testing.T) {
	segments := []transcript.Segment{
		{Text: "good morning everyone"},
		{Text: "good morning everyone", Speaker: "Speaker B"},
	}
	lines := ParseLines("Speaker 1: good morning everyone")
	out := NewReconciler(DefaultThreshold).Reconcile(segments, lines)
	if out[0].Speaker != "Speaker 1" {
		t.Errorf("unattributed segment should take the line's speaker, got %q", out[0].Speaker)
	}
	if out[1].Speaker != "Speaker B" {
		t.Errorf("existing attribution must not be overwritten, got %q", out[1].Speaker)
	}
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	segments := []transcript.Segment{{Text: "hello there world"}}
	lines := []Line{{Text: "hello there world friends"}}
	// 3/4 = 0.75 > 0.7, so the line qualifies.
	NewReconciler(DefaultThreshold).Reconcile(segments, lines)
	if segments[0].Text != "hello there world" {
		t.Errorf("input mutated: %q", segments[0].Text)
	}
}
