package enhance

import (
	"context"
	"os"
	"time"

	"github.com/skillsenselab/scribe/audio"
	"github.com/skillsenselab/scribe/diarization"
	apperrors "github.com/skillsenselab/scribe/errors"
	"github.com/skillsenselab/scribe/logger"
	"github.com/skillsenselab/scribe/observability"
	"github.com/skillsenselab/scribe/provider"
	"github.com/skillsenselab/scribe/reconcile"
	"github.com/skillsenselab/scribe/resilience"
	"github.com/skillsenselab/scribe/stitch"
	"github.com/skillsenselab/scribe/transcript"
	"github.com/skillsenselab/scribe/transcription"
)

// ServiceConfig tunes the pipeline heuristics.
type ServiceConfig struct {
	// BoundaryWindow is the cross-chunk speaker matching window in seconds.
	BoundaryWindow float64
	// SimilarityThreshold is the reference-text reconciliation threshold.
	SimilarityThreshold float64
	// Preprocess enables ffmpeg cleanup before the collaborators run.
	Preprocess bool
}

// ApplyDefaults fills zero values with defaults.
func (c *ServiceConfig) ApplyDefaults() {
	if c.BoundaryWindow == 0 {
		c.BoundaryWindow = stitch.DefaultBoundaryWindow
	}
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = reconcile.DefaultThreshold
	}
}

// Service orchestrates the enhancement pipeline over the transcription and
// diarization collaborators. It is safe for concurrent use; all per-request
// state lives in the request scope.
type Service struct {
	cfg          ServiceConfig
	transcribers *provider.Manager[transcription.Provider]
	diarizers    *provider.Manager[diarization.Provider]
	preprocessor *audio.Preprocessor
	reconciler   *reconcile.Reconciler
	retry        resilience.RetryConfig
	metrics      *observability.PipelineMetrics
	log          *logger.Logger
}

// NewService creates a Service. metrics may be nil when telemetry is
// disabled.
func NewService(
	cfg ServiceConfig,
	transcribers *provider.Manager[transcription.Provider],
	diarizers *provider.Manager[diarization.Provider],
	preprocessor *audio.Preprocessor,
	metrics *observability.PipelineMetrics,
) *Service {
	cfg.ApplyDefaults()
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		logger.Warn("collaborator call retrying", logger.Fields(
			"attempt", attempt,
			"backoff", backoff.String(),
			logger.FieldError, err.Error(),
		))
	}
	return &Service{
		cfg:          cfg,
		transcribers: transcribers,
		diarizers:    diarizers,
		preprocessor: preprocessor,
		reconciler:   reconcile.NewReconciler(cfg.SimilarityThreshold),
		retry:        retry,
		metrics:      metrics,
		log:          logger.WithComponent("enhance"),
	}
}

// HealthComponents reports availability of the collaborator sidecars.
func (s *Service) HealthComponents(ctx context.Context) map[string]bool {
	out := make(map[string]bool)
	if p, err := s.transcribers.Get(ctx); err == nil {
		out[p.Name()] = p.IsAvailable(ctx)
	}
	if p, err := s.diarizers.Get(ctx); err == nil {
		out[p.Name()] = p.IsAvailable(ctx)
	}
	return out
}

// EnhanceTranscript runs the single-file pipeline: optional preprocessing,
// timestamp alignment, reference-text reconciliation, and speaker
// assignment.
func (s *Service) EnhanceTranscript(ctx context.Context, req SingleRequest) (*Response, error) {
	ctx, span := observability.StartSpan(ctx, "enhance.transcript")
	defer span.End()

	transcriber, diarizer, err := s.checkPreconditions(ctx, req.Options)
	if err != nil {
		return nil, err
	}

	info := map[string]any{
		"original_file":        req.OriginalName,
		"timestamp_alignment":  StageSkipped,
		"speaker_verification": StageSkipped,
	}

	workPath, cleanup := s.preprocess(ctx, req.AudioPath, info)
	defer cleanup()

	segments, err := s.buildSegments(ctx, transcriber, workPath, req.Transcript, req.Options, info)
	if err != nil {
		return nil, err
	}

	if req.VerifySpeakers {
		segments, err = s.assignSpeakers(ctx, diarizer, workPath, req.NumSpeakers, segments, info)
		if err != nil {
			return nil, err
		}
	}

	observability.SetSpanAttribute(ctx, "segments", len(segments))
	return &Response{Segments: segments, ProcessingInfo: info}, nil
}

// EnhanceChunks runs the multi-chunk pipeline: each chunk goes through the
// single-chunk stages, then the results are stitched into one transcript
// with globally consistent speaker labels.
func (s *Service) EnhanceChunks(ctx context.Context, req ChunksRequest) (*Response, error) {
	ctx, span := observability.StartSpan(ctx, "enhance.chunks")
	defer span.End()

	if len(req.Chunks) == 0 {
		return nil, apperrors.InvalidInput("audio_chunks", "at least one chunk is required")
	}

	transcriber, diarizer, err := s.checkPreconditions(ctx, req.Options)
	if err != nil {
		return nil, err
	}

	chunkResults := make([]stitch.ChunkResult, 0, len(req.Chunks))
	for idx, chunk := range req.Chunks {
		s.log.Info("processing chunk", logger.Fields(
			logger.FieldChunk, idx,
			"total", len(req.Chunks),
		))
		result, err := s.processChunk(ctx, transcriber, diarizer, idx, chunk, req.Options)
		if err != nil {
			return nil, err
		}
		chunkResults = append(chunkResults, result)
	}
	s.metrics.RecordChunks(ctx, len(chunkResults))

	start := time.Now()
	stitcher := stitch.NewStitcher(
		stitch.WithMatcher(stitch.NewWindowMatcher(s.cfg.BoundaryWindow)),
	)
	stitched := stitcher.Stitch(chunkResults)
	s.metrics.RecordStage(ctx, "stitch", time.Since(start))
	s.metrics.RecordSpeakers(ctx, stitched.SpeakerCount)

	info := map[string]any{
		"total_chunks":         len(req.Chunks),
		"timestamp_alignment":  stageStatus(req.AlignTimestamps),
		"speaker_verification": stageStatus(req.VerifySpeakers),
		"global_speakers":      stitched.SpeakerCount,
	}
	observability.SetSpanAttribute(ctx, "chunks", len(req.Chunks))
	observability.SetSpanAttribute(ctx, "speakers", stitched.SpeakerCount)
	return &Response{Segments: stitched.Segments, ProcessingInfo: info}, nil
}

// checkPreconditions resolves the collaborators required by the options and
// verifies they are reachable. It runs before any audio is touched so
// unavailable collaborators fail the request without partial work.
func (s *Service) checkPreconditions(ctx context.Context, opts Options) (transcription.Provider, diarization.Provider, error) {
	var transcriber transcription.Provider
	var diarizer diarization.Provider

	if opts.AlignTimestamps {
		p, err := s.transcribers.Get(ctx)
		if err != nil || !p.IsAvailable(ctx) {
			return nil, nil, apperrors.ServiceUnavailable("transcription")
		}
		transcriber = p
	}
	if opts.VerifySpeakers {
		p, err := s.diarizers.Get(ctx)
		if err != nil || !p.IsAvailable(ctx) {
			return nil, nil, apperrors.ServiceUnavailable("diarization")
		}
		diarizer = p
	}
	return transcriber, diarizer, nil
}

// preprocess runs ffmpeg cleanup when enabled. Preprocessing is best-effort:
// on failure the original file is used and the stage is reported as failed.
// The returned cleanup removes the derived file, if any.
func (s *Service) preprocess(ctx context.Context, path string, info map[string]any) (string, func()) {
	if !s.cfg.Preprocess || s.preprocessor == nil {
		return path, func() {}
	}
	start := time.Now()
	cleaned, err := s.preprocessor.Preprocess(ctx, path)
	if err != nil {
		s.log.Warn("audio preprocessing failed, using original", logger.ErrorFields("preprocess", err))
		info["preprocessing"] = StageFailed
		return path, func() {}
	}
	s.metrics.RecordStage(ctx, "preprocess", time.Since(start))
	info["preprocessing"] = StageCompleted
	return cleaned, func() { os.Remove(cleaned) }
}

// buildSegments produces the chunk's segments: aligned by the transcription
// collaborator and reconciled against the reference text, or parsed directly
// from the reference text when alignment is disabled.
func (s *Service) buildSegments(
	ctx context.Context,
	transcriber transcription.Provider,
	audioPath, referenceText string,
	opts Options,
	info map[string]any,
) ([]transcript.Segment, error) {
	if !opts.AlignTimestamps {
		return parseReferenceTranscript(referenceText), nil
	}

	start := time.Now()
	result, err := resilience.Retry(ctx, s.retry, func() (*transcription.Result, error) {
		return transcriber.TranscribeAndAlign(ctx, transcription.Request{
			AudioPath:     audioPath,
			ReferenceText: referenceText,
		})
	})
	if err != nil {
		return nil, apperrors.ProcessingFailed("timestamp alignment", err)
	}
	s.metrics.RecordStage(ctx, "align", time.Since(start))

	segments := result.Segments
	if info != nil {
		info["timestamp_alignment"] = StageCompleted
		info["word_count"] = result.WordCount
	}

	if lines := reconcile.ParseLines(referenceText); len(lines) > 0 {
		segments = s.reconciler.Reconcile(segments, lines)
		if info != nil {
			info["reconciliation"] = StageCompleted
		}
	}
	return segments, nil
}

// assignSpeakers diarizes the audio and labels the segments by maximum
// temporal overlap.
func (s *Service) assignSpeakers(
	ctx context.Context,
	diarizer diarization.Provider,
	audioPath string,
	numSpeakers int,
	segments []transcript.Segment,
	info map[string]any,
) ([]transcript.Segment, error) {
	start := time.Now()
	result, err := resilience.Retry(ctx, s.retry, func() (*diarization.Result, error) {
		return diarizer.Diarize(ctx, diarization.Request{
			AudioPath:   audioPath,
			NumSpeakers: numSpeakers,
		})
	})
	if err != nil {
		return nil, apperrors.ProcessingFailed("speaker diarization", err)
	}
	s.metrics.RecordStage(ctx, "diarize", time.Since(start))

	segments = stitch.AssignSpeakers(segments, result.Timeline)
	if info != nil {
		info["speaker_verification"] = StageCompleted
		info["speakers_detected"] = result.NumSpeakers
	}
	return segments, nil
}

// processChunk runs the single-chunk stages for one chunk of a multi-chunk
// request and packages the result for stitching.
func (s *Service) processChunk(
	ctx context.Context,
	transcriber transcription.Provider,
	diarizer diarization.Provider,
	idx int,
	chunk ChunkInput,
	opts Options,
) (stitch.ChunkResult, error) {
	workPath, cleanup := s.preprocess(ctx, chunk.AudioPath, map[string]any{})
	defer cleanup()

	segments, err := s.buildSegments(ctx, transcriber, workPath, chunk.Transcript, opts, nil)
	if err != nil {
		return stitch.ChunkResult{}, err
	}
	if opts.VerifySpeakers {
		segments, err = s.assignSpeakers(ctx, diarizer, workPath, 0, segments, nil)
		if err != nil {
			return stitch.ChunkResult{}, err
		}
	}

	return stitch.ChunkResult{
		Index:    idx,
		Segments: segments,
		Duration: s.chunkDuration(ctx, workPath, segments),
	}, nil
}

// chunkDuration probes the chunk duration, falling back to the last segment
// end when probing is unavailable, then to zero.
func (s *Service) chunkDuration(ctx context.Context, path string, segments []transcript.Segment) float64 {
	if s.preprocessor != nil {
		d, err := s.preprocessor.Duration(ctx, path)
		if err == nil {
			return d
		}
		s.log.Warn("duration probe failed, falling back to segment times",
			logger.ErrorFields("probe", err))
	}
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i].End != nil {
			return *segments[i].End
		}
	}
	return 0
}

// parseReferenceTranscript converts freeform reference text into untimed
// segments, carrying over speaker labels from labeled lines.
func parseReferenceTranscript(text string) []transcript.Segment {
	lines := reconcile.ParseLines(text)
	segments := make([]transcript.Segment, 0, len(lines))
	for _, line := range lines {
		segments = append(segments, transcript.Segment{
			Text:    line.Text,
			Speaker: line.Speaker,
		})
	}
	return segments
}

func stageStatus(enabled bool) string {
	if enabled {
		return StageCompleted
	}
	return StageSkipped
}
