package stitch

import (
	"github.com/skillsenselab/scribe/diarization"
	"github.com/skillsenselab/scribe/transcript"
)

// AssignSpeakers labels each transcript segment with the diarization turn it
// overlaps most, in place, and returns the slice. A segment is labeled only
// when it has a start timestamp and a strictly positive overlap with some
// turn; otherwise its speaker is left untouched. Ties on overlap go to the
// earlier-starting turn. Segments without an end timestamp are treated as
// zero-length at their start time.
func AssignSpeakers(segments []transcript.Segment, timeline diarization.Timeline) []transcript.Segment {
	for i := range segments {
		seg := &segments[i]
		if seg.Start == nil {
			continue
		}
		segStart := *seg.Start
		segEnd := segStart
		if seg.End != nil {
			segEnd = *seg.End
		}

		best := 0.0
		bestSpeaker := ""
		for _, turn := range timeline {
			overlap := min(segEnd, turn.End) - max(segStart, turn.Start)
			// Strict > keeps the earliest-starting turn on ties when the
			// timeline is sorted by start time.
			if overlap > best {
				best = overlap
				bestSpeaker = turn.Speaker
			}
		}
		if best > 0 {
			seg.Speaker = bestSpeaker
		}
	}
	return segments
}
