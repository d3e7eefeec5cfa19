// Package stitch implements the segment-merging and cross-chunk
// speaker-identity-resolution engine: speaker assignment from a diarization
// timeline, boundary-window identity matching, and multi-chunk stitching
// with globally consistent speaker labels.
package stitch

import "github.com/skillsenselab/scribe/transcript"

// ChunkResult is the fully processed output of one audio chunk, ready for
// stitching. Chunks are 0-indexed, contiguous, and in playback order.
type ChunkResult struct {
	// Index is the 0-based position of the chunk in playback order.
	Index int `json:"chunk_index"`
	// Segments are the chunk's transcript segments in chronological order.
	Segments []transcript.Segment `json:"segments"`
	// Duration is the chunk duration in seconds. Caller-supplied and
	// authoritative; never derived from segment timestamps.
	Duration float64 `json:"duration"`
}

// speakerKey identifies a local speaker label within one chunk.
type speakerKey struct {
	chunk int
	local string
}

// SpeakerMap records which local (per-chunk) speaker label corresponds to
// which globally consistent identity. Entries are write-once: a key, once
// assigned, is never reassigned within a run.
type SpeakerMap struct {
	entries map[speakerKey]string
}

// NewSpeakerMap creates an empty SpeakerMap.
func NewSpeakerMap() *SpeakerMap {
	return &SpeakerMap{entries: make(map[speakerKey]string)}
}

// Set records the global label for (chunk, local). Returns false without
// overwriting if the key is already assigned.
func (m *SpeakerMap) Set(chunk int, local, global string) bool {
	key := speakerKey{chunk: chunk, local: local}
	if _, ok := m.entries[key]; ok {
		return false
	}
	m.entries[key] = global
	return true
}

// Get returns the global label for (chunk, local), if assigned.
func (m *SpeakerMap) Get(chunk int, local string) (string, bool) {
	global, ok := m.entries[speakerKey{chunk: chunk, local: local}]
	return global, ok
}

// GlobalCount returns the number of distinct global labels in the map.
func (m *SpeakerMap) GlobalCount() int {
	distinct := make(map[string]struct{}, len(m.entries))
	for _, global := range m.entries {
		distinct[global] = struct{}{}
	}
	return len(distinct)
}
