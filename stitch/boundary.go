package stitch

// DefaultBoundaryWindow is the width in seconds of the trailing/leading
// windows inspected when matching speaker identities across a chunk boundary.
const DefaultBoundaryWindow = 30.0

// Matcher decides whether a local speaker label in a chunk continues the
// identity of a speaker from the previous chunk. On a match it returns the
// previously assigned global label for that identity.
type Matcher interface {
	MatchAcrossBoundary(chunkIndex int, localSpeaker string, chunks []ChunkResult, speakers *SpeakerMap) (string, bool)
}

// WindowMatcher matches identities across chunk boundaries using a
// conservative time-window heuristic: the previous chunk's trailing window
// must contain exactly one distinct speaker, and the queried label must
// appear in the current chunk's leading window. Anything more ambiguous is
// treated as no match, so a new identity is allocated rather than guessed.
type WindowMatcher struct {
	// Window is the boundary window width in seconds.
	Window float64
}

// NewWindowMatcher creates a WindowMatcher. A non-positive window falls back
// to DefaultBoundaryWindow.
func NewWindowMatcher(window float64) *WindowMatcher {
	if window <= 0 {
		window = DefaultBoundaryWindow
	}
	return &WindowMatcher{Window: window}
}

// MatchAcrossBoundary implements Matcher. The first chunk never matches.
func (m *WindowMatcher) MatchAcrossBoundary(chunkIndex int, localSpeaker string, chunks []ChunkResult, speakers *SpeakerMap) (string, bool) {
	if chunkIndex == 0 {
		return "", false
	}
	prev := chunks[chunkIndex-1]
	trailing := m.trailingSpeakers(prev)
	if len(trailing) != 1 {
		return "", false
	}
	if !m.appearsInLeading(chunks[chunkIndex], localSpeaker) {
		return "", false
	}
	prevLocal := trailing[0]
	global, ok := speakers.Get(prev.Index, prevLocal)
	if !ok {
		return "", false
	}
	return global, true
}

// trailingSpeakers collects the distinct labeled speakers whose segments
// start within the last Window seconds of the chunk. Segments without a
// start timestamp are skipped.
func (m *WindowMatcher) trailingSpeakers(chunk ChunkResult) []string {
	seen := make(map[string]struct{})
	var distinct []string
	for i := len(chunk.Segments) - 1; i >= 0; i-- {
		seg := chunk.Segments[i]
		if seg.Start == nil {
			continue
		}
		if chunk.Duration-*seg.Start > m.Window {
			break
		}
		if seg.Speaker == "" {
			continue
		}
		if _, ok := seen[seg.Speaker]; !ok {
			seen[seg.Speaker] = struct{}{}
			distinct = append(distinct, seg.Speaker)
		}
	}
	return distinct
}

// appearsInLeading reports whether the label speaks within the first Window
// seconds of the chunk.
func (m *WindowMatcher) appearsInLeading(chunk ChunkResult, local string) bool {
	for _, seg := range chunk.Segments {
		if seg.Start == nil {
			continue
		}
		if *seg.Start > m.Window {
			break
		}
		if seg.Speaker == local {
			return true
		}
	}
	return false
}
