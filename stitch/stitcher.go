package stitch

import (
	"sort"

	"github.com/skillsenselab/scribe/logger"
	"github.com/skillsenselab/scribe/transcript"
)

// Result is the outcome of stitching a sequence of chunks into one
// continuous transcript.
type Result struct {
	// Segments are the merged segments in playback order, with timestamps
	// shifted onto the global recording timeline and speakers rewritten to
	// global labels.
	Segments []transcript.Segment
	// SpeakerCount is the number of distinct global speakers identified.
	SpeakerCount int
	// Speakers is the per-chunk local-to-global label map built during the
	// run.
	Speakers *SpeakerMap
}

// Stitcher merges per-chunk results into a single transcript with globally
// consistent speaker labels. A Stitcher carries per-run state; create a new
// one for each stitching operation.
type Stitcher struct {
	matcher  Matcher
	speakers *SpeakerMap
	nextID   int
	log      *logger.Logger
}

// Option configures a Stitcher.
type Option func(*Stitcher)

// WithMatcher sets the cross-boundary identity matcher.
func WithMatcher(m Matcher) Option {
	return func(s *Stitcher) {
		s.matcher = m
	}
}

// NewStitcher creates a Stitcher with fresh state.
func NewStitcher(opts ...Option) *Stitcher {
	s := &Stitcher{
		matcher:  NewWindowMatcher(DefaultBoundaryWindow),
		speakers: NewSpeakerMap(),
		log:      logger.WithComponent("stitch"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Stitch merges the chunks, which must be ordered by Index, into one
// continuous transcript. It first resolves every local speaker label to a
// global identity, then concatenates the segments with a running time
// offset. Input segments are not mutated.
func (s *Stitcher) Stitch(chunks []ChunkResult) Result {
	s.buildSpeakerMap(chunks)

	var merged []transcript.Segment
	offset := 0.0
	for _, chunk := range chunks {
		for _, seg := range chunk.Segments {
			out := seg.Clone()
			if out.Start != nil {
				out.Start = transcript.Time(*out.Start + offset)
			}
			if out.End != nil {
				out.End = transcript.Time(*out.End + offset)
			}
			for i := range out.Words {
				if out.Words[i].Start != nil {
					out.Words[i].Start = transcript.Time(*out.Words[i].Start + offset)
				}
				if out.Words[i].End != nil {
					out.Words[i].End = transcript.Time(*out.Words[i].End + offset)
				}
			}
			if out.Speaker != "" {
				// Labels the mapping pass never saw pass through unchanged.
				if global, ok := s.speakers.Get(chunk.Index, out.Speaker); ok {
					out.Speaker = global
				}
			}
			merged = append(merged, out)
		}
		offset += chunk.Duration
	}

	s.log.Debug("stitched chunks",
		logger.Fields("chunks", len(chunks), "segments", len(merged), "speakers", s.speakers.GlobalCount()))

	return Result{
		Segments:     merged,
		SpeakerCount: s.speakers.GlobalCount(),
		Speakers:     s.speakers,
	}
}

// buildSpeakerMap walks the chunks in index order and assigns each local
// speaker label a global identity: continue the previous chunk's identity
// when the boundary matcher agrees, otherwise allocate the next unused
// global label. Local labels within a chunk are handled in sorted order so
// allocation is deterministic.
func (s *Stitcher) buildSpeakerMap(chunks []ChunkResult) {
	for _, chunk := range chunks {
		for _, local := range localSpeakers(chunk) {
			if _, ok := s.speakers.Get(chunk.Index, local); ok {
				continue
			}
			global, matched := s.matcher.MatchAcrossBoundary(chunk.Index, local, chunks, s.speakers)
			if !matched {
				global = GlobalLabel(s.nextID)
				s.nextID++
			}
			s.speakers.Set(chunk.Index, local, global)
		}
	}
}

// localSpeakers returns the chunk's distinct non-empty speaker labels,
// sorted.
func localSpeakers(chunk ChunkResult) []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, seg := range chunk.Segments {
		if seg.Speaker == "" {
			continue
		}
		if _, ok := seen[seg.Speaker]; !ok {
			seen[seg.Speaker] = struct{}{}
			labels = append(labels, seg.Speaker)
		}
	}
	sort.Strings(labels)
	return labels
}
