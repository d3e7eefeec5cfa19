package diarization

import "sort"

// Turn is a time interval attributed to one speaker by the diarizer.
type Turn struct {
	// Start is the turn start time in seconds.
	Start float64 `json:"start"`
	// End is the turn end time in seconds.
	End float64 `json:"end"`
	// Speaker is the local speaker label for this turn.
	Speaker string `json:"speaker"`
}

// Timeline is the ordered set of diarization turns for one audio chunk,
// sorted ascending by Start. Turns may overlap; overlapping speech is legal.
type Timeline []Turn

// Sort orders the timeline ascending by turn start time. Turns with equal
// start keep their relative order.
func (t Timeline) Sort() {
	sort.SliceStable(t, func(i, j int) bool { return t[i].Start < t[j].Start })
}

// Speakers returns the distinct speaker labels in the timeline, sorted.
func (t Timeline) Speakers() []string {
	seen := make(map[string]struct{})
	for _, turn := range t {
		seen[turn.Speaker] = struct{}{}
	}
	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Request holds parameters for a diarization call.
type Request struct {
	// AudioPath is the path to the audio file to diarize.
	AudioPath string `json:"audio_path"`
	// NumSpeakers is the exact number of speakers (0 = auto-detect).
	NumSpeakers int `json:"num_speakers,omitempty"`
	// MinSpeakers is the minimum expected number of speakers.
	MinSpeakers int `json:"min_speakers,omitempty"`
	// MaxSpeakers is the maximum expected number of speakers.
	MaxSpeakers int `json:"max_speakers,omitempty"`
}

// Result holds the result of a diarization call.
type Result struct {
	// Timeline contains the speaker turns, sorted by start time.
	Timeline Timeline `json:"timeline"`
	// NumSpeakers is the number of distinct speakers detected.
	NumSpeakers int `json:"num_speakers"`
	// TotalSpeechTime is the summed duration of all turns, in seconds.
	TotalSpeechTime float64 `json:"total_speech_time,omitempty"`
}
