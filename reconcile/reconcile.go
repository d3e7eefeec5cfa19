package reconcile

import (
	"strings"

	"github.com/skillsenselab/scribe/transcript"
)

// DefaultThreshold is the similarity a reference line must exceed to replace
// a segment's text.
const DefaultThreshold = 0.7

// Reconciler rewrites segment text from reference lines by word-set
// similarity. The zero value is not usable; construct with NewReconciler.
type Reconciler struct {
	threshold float64
}

// NewReconciler creates a Reconciler. A non-positive threshold falls back to
// DefaultThreshold.
func NewReconciler(threshold float64) *Reconciler {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Reconciler{threshold: threshold}
}

// Reconcile returns a copy of segments where each segment's text is replaced
// by the first reference line whose similarity exceeds the threshold,
// scanning lines in their original order. Segments with no qualifying line
// keep their original text. A labeled line also supplies its speaker to
// segments that have none. Word timing is dropped from rewritten segments
// since the words no longer correspond to the alignment.
func (r *Reconciler) Reconcile(segments []transcript.Segment, lines []Line) []transcript.Segment {
	out := make([]transcript.Segment, len(segments))
	for i, seg := range segments {
		out[i] = seg.Clone()
		for _, line := range lines {
			// First match wins, by policy; a later line may score higher.
			if Similarity(seg.Text, line.Text) > r.threshold {
				out[i].Text = line.Text
				out[i].Words = nil
				if out[i].Speaker == "" && line.Speaker != "" {
					out[i].Speaker = line.Speaker
				}
				break
			}
		}
	}
	return out
}

// Similarity is the Jaccard index over lowercase whitespace-tokenized word
// sets. It is 0 when either text has no words.
func Similarity(a, b string) float64 {
	wa := tokenSet(a)
	wb := tokenSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	intersection := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			intersection++
		}
	}
	union := len(wa) + len(wb) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		set[tok] = struct{}{}
	}
	return set
}
