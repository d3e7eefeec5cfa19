package stitch

import (
	"testing"

	"github.com/skillsenselab/scribe/diarization"
	"github.com/skillsenselab/scribe/transcript"
)

func seg(start, end float64, speaker string) transcript.Segment {
	return transcript.Segment{
		Text:    "text",
		Start:   transcript.Time(start),
		End:     transcript.Time(end),
		Speaker: speaker,
	}
}

func TestGlobalLabel_Sequence(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{0, "Speaker A"},
		{1, "Speaker B"},
		{25, "Speaker Z"},
		{26, "Speaker AA"},
		{27, "Speaker AB"},
		{51, "Speaker AZ"},
		{52, "Speaker BA"},
	}
	for _, tc := range cases {
		if got := GlobalLabel(tc.n); got != tc.want {
			t.Errorf("GlobalLabel(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestSpeakerMap_WriteOnce(t *testing.T) {
	m := NewSpeakerMap()
	if !m.Set(0, "S0", "Speaker A") {
		t.Fatal("first Set should succeed")
	}
	if m.Set(0, "S0", "Speaker B") {
		t.Error("second Set for same key should be rejected")
	}
	got, ok := m.Get(0, "S0")
	if !ok || got != "Speaker A" {
		t.Errorf("expected original assignment preserved, got %q ok=%v", got, ok)
	}
	m.Set(1, "S0", "Speaker A")
	if m.GlobalCount() != 1 {
		t.Errorf("expected 1 distinct global label, got %d", m.GlobalCount())
	}
}

func TestAssignSpeakers_MaxOverlap(t *testing.T) {
	// Scenario: turns [(0,5,S0),(5,10,S1)], segment (2,4) is fully inside
	// the first turn.
	timeline := diarization.Timeline{
		{Start: 0, End: 5, Speaker: "S0"},
		{Start: 5, End: 10, Speaker: "S1"},
	}
	segments := []transcript.Segment{seg(2, 4, "")}
	AssignSpeakers(segments, timeline)
	if segments[0].Speaker != "S0" {
		t.Errorf("expected S0, got %q", segments[0].Speaker)
	}
}

func TestAssignSpeakers_PartialOverlapPicksLarger(t *testing.T) {
	timeline := diarization.Timeline{
		{Start: 0, End: 3, Speaker: "S0"},
		{Start: 3, End: 10, Speaker: "S1"},
	}
	// Segment (2,6): 1s with S0, 3s with S1.
	segments := []transcript.Segment{seg(2, 6, "")}
	AssignSpeakers(segments, timeline)
	if segments[0].Speaker != "S1" {
		t.Errorf("expected S1, got %q", segments[0].Speaker)
	}
}

func TestAssignSpeakers_TieGoesToEarlierTurn(t *testing.T) {
	timeline := diarization.Timeline{
		{Start: 0, End: 4, Speaker: "S0"},
		{Start: 4, End: 8, Speaker: "S1"},
	}
	// Segment (2,6): exactly 2s in each turn.
	segments := []transcript.Segment{seg(2, 6, "")}
	AssignSpeakers(segments, timeline)
	if segments[0].Speaker != "S0" {
		t.Errorf("expected tie to go to earlier turn S0, got %q", segments[0].Speaker)
	}
}

func TestAssignSpeakers_NeverGuesses(t *testing.T) {
	timeline := diarization.Timeline{{Start: 10, End: 20, Speaker: "S0"}}

	noOverlap := []transcript.Segment{seg(0, 5, "")}
	AssignSpeakers(noOverlap, timeline)
	if noOverlap[0].Speaker != "" {
		t.Errorf("zero overlap must leave speaker unset, got %q", noOverlap[0].Speaker)
	}

	untimed := []transcript.Segment{{Text: "no timestamps"}}
	AssignSpeakers(untimed, timeline)
	if untimed[0].Speaker != "" {
		t.Errorf("untimed segment must leave speaker unset, got %q", untimed[0].Speaker)
	}

	// Touching at a point is zero overlap, not positive.
	touching := []transcript.Segment{seg(5, 10, "")}
	AssignSpeakers(touching, timeline)
	if touching[0].Speaker != "" {
		t.Errorf("boundary-touching segment must leave speaker unset, got %q", touching[0].Speaker)
	}
}

func TestAssignSpeakers_MissingEndTreatedAsInstant(t *testing.T) {
	timeline := diarization.Timeline{{Start: 0, End: 10, Speaker: "S0"}}
	segments := []transcript.Segment{{Text: "open-ended", Start: transcript.Time(4)}}
	AssignSpeakers(segments, timeline)
	// A zero-length interval has zero overlap with everything.
	if segments[0].Speaker != "" {
		t.Errorf("zero-length segment must leave speaker unset, got %q", segments[0].Speaker)
	}
}

func TestWindowMatcher_SingleTrailingSpeakerMatches(t *testing.T) {
	// Scenario: chunk 0 is 100s of S0 with a segment at 95s; chunk 1 opens
	// with S0 at 2s. The trailing set is exactly {S0} and S0 appears in the
	// leading window, so identities join.
	chunks := []ChunkResult{
		{Index: 0, Duration: 100, Segments: []transcript.Segment{
			seg(10, 20, "S0"),
			seg(95, 99, "S0"),
		}},
		{Index: 1, Duration: 50, Segments: []transcript.Segment{
			seg(2, 6, "S0"),
		}},
	}
	speakers := NewSpeakerMap()
	speakers.Set(0, "S0", "Speaker A")

	m := NewWindowMatcher(30)
	global, ok := m.MatchAcrossBoundary(1, "S0", chunks, speakers)
	if !ok || global != "Speaker A" {
		t.Errorf("expected match to Speaker A, got %q ok=%v", global, ok)
	}
}

func TestWindowMatcher_NoMatchOnAmbiguousTrailingWindow(t *testing.T) {
	speakers := NewSpeakerMap()
	speakers.Set(0, "S0", "Speaker A")
	speakers.Set(0, "S1", "Speaker B")

	// Two distinct speakers in the trailing window.
	two := []ChunkResult{
		{Index: 0, Duration: 100, Segments: []transcript.Segment{
			seg(80, 85, "S0"),
			seg(90, 95, "S1"),
		}},
		{Index: 1, Duration: 50, Segments: []transcript.Segment{
			seg(2, 6, "S0"),
		}},
	}
	m := NewWindowMatcher(30)
	if _, ok := m.MatchAcrossBoundary(1, "S0", two, speakers); ok {
		t.Error("expected no match with two trailing speakers")
	}

	// Zero speakers in the trailing window.
	zero := []ChunkResult{
		{Index: 0, Duration: 100, Segments: []transcript.Segment{
			seg(10, 15, "S0"),
		}},
		{Index: 1, Duration: 50, Segments: []transcript.Segment{
			seg(2, 6, "S0"),
		}},
	}
	if _, ok := m.MatchAcrossBoundary(1, "S0", zero, speakers); ok {
		t.Error("expected no match with empty trailing window")
	}
}

func TestWindowMatcher_NoMatchWhenLabelAbsentFromLeadingWindow(t *testing.T) {
	speakers := NewSpeakerMap()
	speakers.Set(0, "S0", "Speaker A")

	chunks := []ChunkResult{
		{Index: 0, Duration: 100, Segments: []transcript.Segment{
			seg(95, 99, "S0"),
		}},
		{Index: 1, Duration: 100, Segments: []transcript.Segment{
			seg(40, 45, "S0"), // outside the 30s leading window
		}},
	}
	m := NewWindowMatcher(30)
	if _, ok := m.MatchAcrossBoundary(1, "S0", chunks, speakers); ok {
		t.Error("expected no match when label only appears outside the leading window")
	}
}

func TestWindowMatcher_FirstChunkNeverMatches(t *testing.T) {
	chunks := []ChunkResult{
		{Index: 0, Duration: 100, Segments: []transcript.Segment{seg(1, 2, "S0")}},
	}
	m := NewWindowMatcher(30)
	if _, ok := m.MatchAcrossBoundary(0, "S0", chunks, NewSpeakerMap()); ok {
		t.Error("chunk 0 must never match across a boundary")
	}
}

func TestStitch_ReusesIdentityAcrossBoundary(t *testing.T) {
	chunks := []ChunkResult{
		{Index: 0, Duration: 100, Segments: []transcript.Segment{
			seg(10, 20, "S0"),
			seg(95, 99, "S0"),
		}},
		{Index: 1, Duration: 50, Segments: []transcript.Segment{
			seg(2, 6, "S0"),
		}},
	}
	res := NewStitcher().Stitch(chunks)
	if res.SpeakerCount != 1 {
		t.Fatalf("expected 1 global speaker, got %d", res.SpeakerCount)
	}
	for i, s := range res.Segments {
		if s.Speaker != "Speaker A" {
			t.Errorf("segment %d: expected Speaker A, got %q", i, s.Speaker)
		}
	}
	// Chunk 1 timestamps shifted by chunk 0's duration.
	last := res.Segments[len(res.Segments)-1]
	if last.Start == nil || *last.Start != 102 {
		t.Errorf("expected offset start 102, got %v", last.Start)
	}
	if last.End == nil || *last.End != 106 {
		t.Errorf("expected offset end 106, got %v", last.End)
	}
}

func TestStitch_AllocatesNewLabelWhenNoMatch(t *testing.T) {
	chunks := []ChunkResult{
		{Index: 0, Duration: 100, Segments: []transcript.Segment{
			seg(80, 85, "S0"),
			seg(90, 95, "S1"),
		}},
		{Index: 1, Duration: 50, Segments: []transcript.Segment{
			seg(2, 6, "S0"),
		}},
	}
	res := NewStitcher().Stitch(chunks)
	// Ambiguous trailing window: chunk 1's S0 gets its own identity.
	if res.SpeakerCount != 3 {
		t.Fatalf("expected 3 global speakers, got %d", res.SpeakerCount)
	}
	got, _ := res.Speakers.Get(1, "S0")
	if got != "Speaker C" {
		t.Errorf("expected chunk 1 S0 to be Speaker C, got %q", got)
	}
}

func TestStitch_FirstEncounterAllocationOrder(t *testing.T) {
	// Chunk 0 knows only S1, chunk 1 only S0. Encounter order across chunks
	// wins over alphabetical order of local labels.
	chunks := []ChunkResult{
		{Index: 0, Duration: 10, Segments: []transcript.Segment{seg(1, 2, "S1")}},
		{Index: 1, Duration: 10, Segments: []transcript.Segment{seg(1, 2, "S0")}},
	}
	// Disable boundary matching so allocation order is observable.
	res := NewStitcher(WithMatcher(noMatcher{})).Stitch(chunks)
	if got, _ := res.Speakers.Get(0, "S1"); got != "Speaker A" {
		t.Errorf("first-encountered S1 should be Speaker A, got %q", got)
	}
	if got, _ := res.Speakers.Get(1, "S0"); got != "Speaker B" {
		t.Errorf("later-encountered S0 should be Speaker B, got %q", got)
	}
}

type noMatcher struct{}

func (noMatcher) MatchAcrossBoundary(int, string, []ChunkResult, *SpeakerMap) (string, bool) {
	return "", false
}

func TestStitch_SortedLocalLabelsWithinChunk(t *testing.T) {
	chunks := []ChunkResult{
		{Index: 0, Duration: 10, Segments: []transcript.Segment{
			seg(5, 6, "S1"), // appears first in time
			seg(7, 8, "S0"),
		}},
	}
	res := NewStitcher().Stitch(chunks)
	// Within a chunk, labels are resolved in sorted order for determinism.
	if got, _ := res.Speakers.Get(0, "S0"); got != "Speaker A" {
		t.Errorf("S0 should sort first and be Speaker A, got %q", got)
	}
	if got, _ := res.Speakers.Get(0, "S1"); got != "Speaker B" {
		t.Errorf("S1 should be Speaker B, got %q", got)
	}
}

func TestStitch_IdempotentOnGlobalLabels(t *testing.T) {
	chunks := []ChunkResult{
		{Index: 0, Duration: 10, Segments: []transcript.Segment{
			seg(1, 2, "Speaker A"),
			seg(3, 4, "Speaker B"),
		}},
	}
	res := NewStitcher().Stitch(chunks)
	if res.Segments[0].Speaker != "Speaker A" || res.Segments[1].Speaker != "Speaker B" {
		t.Errorf("canonical labels must survive re-stitching, got %q and %q",
			res.Segments[0].Speaker, res.Segments[1].Speaker)
	}
}

func TestStitch_UnlabeledSegmentsPassThrough(t *testing.T) {
	chunks := []ChunkResult{
		{Index: 0, Duration: 10, Segments: []transcript.Segment{
			{Text: "unattributed", Start: transcript.Time(1), End: transcript.Time(2)},
		}},
	}
	res := NewStitcher().Stitch(chunks)
	if res.Segments[0].Speaker != "" {
		t.Errorf("expected unattributed segment to stay unattributed, got %q", res.Segments[0].Speaker)
	}
	if res.SpeakerCount != 0 {
		t.Errorf("expected 0 speakers, got %d", res.SpeakerCount)
	}
}

func TestStitch_MonotonicTimestamps(t *testing.T) {
	chunks := []ChunkResult{
		{Index: 0, Duration: 30, Segments: []transcript.Segment{
			seg(0, 10, "S0"), seg(10, 25, "S0"),
		}},
		{Index: 1, Duration: 20, Segments: []transcript.Segment{
			seg(0, 5, "S0"), seg(5, 18, "S0"),
		}},
		{Index: 2, Duration: 40, Segments: []transcript.Segment{
			seg(1, 39, "S0"),
		}},
	}
	res := NewStitcher().Stitch(chunks)
	prev := -1.0
	for i, s := range res.Segments {
		if s.Start == nil {
			t.Fatalf("segment %d lost its timestamp", i)
		}
		if *s.Start < prev {
			t.Errorf("segment %d start %.2f precedes previous %.2f", i, *s.Start, prev)
		}
		prev = *s.Start
	}
}

func TestStitch_DoesNotMutateInput(t *testing.T) {
	start := transcript.Time(2)
	end := transcript.Time(6)
	chunks := []ChunkResult{
		{Index: 0, Duration: 10, Segments: []transcript.Segment{seg(1, 2, "S0")}},
		{Index: 1, Duration: 10, Segments: []transcript.Segment{
			{Text: "x", Start: start, End: end, Speaker: "S0",
				Words: []transcript.Word{{Text: "x", Start: transcript.Time(2), End: transcript.Time(6), Confidence: 1}}},
		}},
	}
	NewStitcher().Stitch(chunks)
	if *start != 2 || *end != 6 {
		t.Errorf("input timestamps mutated: start=%v end=%v", *start, *end)
	}
	if chunks[1].Segments[0].Speaker != "S0" {
		t.Errorf("input speaker mutated: %q", chunks[1].Segments[0].Speaker)
	}
	if *chunks[1].Segments[0].Words[0].Start != 2 {
		t.Errorf("input word timestamp mutated: %v", *chunks[1].Segments[0].Words[0].Start)
	}
}

func TestStitch_WordTimestampsShifted(t *testing.T) {
	chunks := []ChunkResult{
		{Index: 0, Duration: 60, Segments: []transcript.Segment{seg(1, 2, "S0")}},
		{Index: 1, Duration: 60, Segments: []transcript.Segment{
			{Text: "hello", Start: transcript.Time(5), End: transcript.Time(6), Speaker: "S0",
				Words: []transcript.Word{{Text: "hello", Start: transcript.Time(5), End: transcript.Time(6), Confidence: 0.9}}},
		}},
	}
	res := NewStitcher().Stitch(chunks)
	w := res.Segments[1].Words[0]
	if w.Start == nil || *w.Start != 65 {
		t.Errorf("expected word start 65, got %v", w.Start)
	}
	if w.End == nil || *w.End != 66 {
		t.Errorf("expected word end 66, got %v", w.End)
	}
}
