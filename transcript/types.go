// Package transcript defines the segment and word value types shared by the
// transcription, reconciliation, and stitching packages.
package transcript

// Segment is a unit of transcript text with optional timing and speaker
// attribution. Start and End are nil when the source provided no timestamp;
// well-formed input carries both or neither, but consumers tolerate either
// being absent. Words are kept in insertion order, which is time order.
type Segment struct {
	// Text is the transcribed text for this segment.
	Text string `json:"text"`
	// Start is the segment start time in seconds, nil if unknown.
	Start *float64 `json:"start,omitempty"`
	// End is the segment end time in seconds, nil if unknown.
	End *float64 `json:"end,omitempty"`
	// Speaker is the attributed speaker label, empty if unresolved.
	Speaker string `json:"speaker,omitempty"`
	// Words are the word-level alignments, if available.
	Words []Word `json:"words,omitempty"`
}

// Word is a single aligned word with its timing and confidence.
type Word struct {
	// Text is the word text.
	Text string `json:"word"`
	// Start is the word start time in seconds, nil if unknown.
	Start *float64 `json:"start,omitempty"`
	// End is the word end time in seconds, nil if unknown.
	End *float64 `json:"end,omitempty"`
	// Confidence is the alignment confidence score. Defaults to 1.0 when
	// the collaborator does not report one.
	Confidence float64 `json:"score"`
}

// Clone returns a deep copy of the segment. Timestamps are copied by value
// so the copy can be shifted without mutating the original.
func (s Segment) Clone() Segment {
	out := s
	if s.Start != nil {
		v := *s.Start
		out.Start = &v
	}
	if s.End != nil {
		v := *s.End
		out.End = &v
	}
	if s.Words != nil {
		out.Words = make([]Word, len(s.Words))
		copy(out.Words, s.Words)
	}
	return out
}

// Time returns a pointer to v. Convenience for building segments.
func Time(v float64) *float64 { return &v }
