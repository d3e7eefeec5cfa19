// Package enhance implements the transcript enhancement service: timestamp
// alignment, speaker diarization, reference-text reconciliation, and
// multi-chunk stitching with globally consistent speaker labels.
package enhance

import "github.com/skillsenselab/scribe/transcript"

// Stage statuses reported in ProcessingInfo.
const (
	StageCompleted = "completed"
	StageSkipped   = "skipped"
	StageFailed    = "failed"
)

// Options are the per-request processing switches.
type Options struct {
	// AlignTimestamps runs transcription alignment for word-level timing.
	AlignTimestamps bool
	// VerifySpeakers runs diarization and speaker assignment.
	VerifySpeakers bool
	// NumSpeakers hints the expected speaker count to the diarizer. Zero
	// means unknown.
	NumSpeakers int
}

// DefaultOptions enables the full pipeline.
func DefaultOptions() Options {
	return Options{AlignTimestamps: true, VerifySpeakers: true}
}

// SingleRequest is one audio file plus its reference transcript.
type SingleRequest struct {
	// AudioPath is the staged upload on local disk.
	AudioPath string
	// OriginalName is the client's file name, echoed in ProcessingInfo.
	OriginalName string
	// Transcript is the freeform reference transcript text.
	Transcript string
	Options
}

// ChunkInput pairs one audio chunk with its reference transcript.
type ChunkInput struct {
	AudioPath  string
	Transcript string
}

// ChunksRequest is an ordered list of contiguous chunks of one recording.
type ChunksRequest struct {
	Chunks []ChunkInput
	Options
}

// Response is the wire format of both enhancement endpoints.
type Response struct {
	Segments       []transcript.Segment `json:"segments"`
	ProcessingInfo map[string]any       `json:"processing_info"`
}
