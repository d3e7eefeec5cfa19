package transcription

import "github.com/skillsenselab/scribe/transcript"

// Request holds parameters for a transcribe-and-align call.
type Request struct {
	// AudioPath is the path to the audio file to transcribe.
	AudioPath string `json:"audio_path"`
	// ReferenceText is an optional reference transcript to guide alignment.
	ReferenceText string `json:"reference_text,omitempty"`
	// Language is the expected language of the audio (e.g. "en").
	Language string `json:"language,omitempty"`
	// Model is the transcription model to use.
	Model string `json:"model,omitempty"`
}

// Result holds the result of a transcribe-and-align call.
type Result struct {
	// Segments contains time-aligned transcript segments with word timings.
	Segments []transcript.Segment `json:"segments"`
	// Language is the detected or specified language.
	Language string `json:"language,omitempty"`
	// WordCount is the total number of aligned words.
	WordCount int `json:"word_count"`
	// Duration is the audio duration in seconds, if reported.
	Duration float64 `json:"duration,omitempty"`
}
