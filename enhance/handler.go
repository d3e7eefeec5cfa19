package enhance

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/skillsenselab/scribe/errors"
	"github.com/skillsenselab/scribe/logger"
	"github.com/skillsenselab/scribe/observability"
	"github.com/skillsenselab/scribe/server"
	"github.com/skillsenselab/scribe/server/endpoint"
	"github.com/skillsenselab/scribe/validation"
)

// transcriptForm is the validated shape of the single-file request fields.
type transcriptForm struct {
	Transcript  string `json:"gemini_transcript" validate:"required"`
	NumSpeakers int    `json:"num_speakers" validate:"omitempty,min=1"`
}

// Handler exposes the enhancement pipeline over HTTP.
type Handler struct {
	svc       *Service
	uploadDir string
	metrics   *observability.PipelineMetrics
	log       *logger.Logger
}

// NewHandler creates a Handler. uploadDir is where uploads are staged; empty
// means the OS temp dir. metrics may be nil.
func NewHandler(svc *Service, uploadDir string, metrics *observability.PipelineMetrics) *Handler {
	return &Handler{
		svc:       svc,
		uploadDir: uploadDir,
		metrics:   metrics,
		log:       logger.WithComponent("enhance.http"),
	}
}

// RegisterRoutes mounts the enhancement endpoints on the engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/enhance-transcript", h.EnhanceTranscript)
	r.POST("/enhance-chunks", h.EnhanceChunks)
}

// HealthChecker reports collaborator availability for the health endpoint.
func (h *Handler) HealthChecker() endpoint.HealthChecker {
	return func(ctx context.Context) []endpoint.ComponentHealth {
		components := []endpoint.ComponentHealth{}
		for name, up := range h.svc.HealthComponents(ctx) {
			status := endpoint.StatusDown
			if up {
				status = endpoint.StatusUp
			}
			components = append(components, endpoint.ComponentHealth{Name: name, Status: status})
		}
		return components
	}
}

// EnhanceTranscript handles POST /enhance-transcript: one audio file plus
// its reference transcript.
func (h *Handler) EnhanceTranscript(c *gin.Context) {
	h.metrics.RequestStart(c.Request.Context())
	status := "error"
	defer func() { h.metrics.RequestEnd(c.Request.Context(), "enhance-transcript", status) }()

	file, err := c.FormFile("audio_file")
	if err != nil {
		server.RespondWithError(c, apperrors.MissingField("audio_file"))
		return
	}
	form := transcriptForm{Transcript: c.PostForm("gemini_transcript")}
	if n := c.PostForm("num_speakers"); n != "" {
		v, err := strconv.Atoi(n)
		if err != nil {
			server.RespondWithError(c, apperrors.InvalidInput("num_speakers", "must be an integer"))
			return
		}
		form.NumSpeakers = v
	}
	if err := validation.Validate(form); err != nil {
		server.RespondWithError(c, err)
		return
	}

	opts := h.parseOptions(c)
	opts.NumSpeakers = form.NumSpeakers

	staged, err := h.stageUpload(c, file)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	defer os.Remove(staged)

	resp, err := h.svc.EnhanceTranscript(c.Request.Context(), SingleRequest{
		AudioPath:    staged,
		OriginalName: file.Filename,
		Transcript:   form.Transcript,
		Options:      opts,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	status = "ok"
	server.RespondOK(c, resp)
}

// EnhanceChunks handles POST /enhance-chunks: ordered audio chunks with one
// reference transcript per chunk. A count mismatch is rejected before any
// upload is staged or collaborator invoked.
func (h *Handler) EnhanceChunks(c *gin.Context) {
	h.metrics.RequestStart(c.Request.Context())
	status := "error"
	defer func() { h.metrics.RequestEnd(c.Request.Context(), "enhance-chunks", status) }()

	form, err := c.MultipartForm()
	if err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", "multipart form expected"))
		return
	}
	files := form.File["audio_chunks"]
	transcripts := form.Value["gemini_transcripts"]

	if len(files) == 0 {
		server.RespondWithError(c, apperrors.MissingField("audio_chunks"))
		return
	}
	if len(files) != len(transcripts) {
		server.RespondWithError(c, apperrors.InvalidInput("audio_chunks",
			fmt.Sprintf("chunk count %d does not match transcript count %d", len(files), len(transcripts))))
		return
	}

	opts := h.parseOptions(c)

	chunks := make([]ChunkInput, 0, len(files))
	staged := make([]string, 0, len(files))
	defer func() {
		for _, path := range staged {
			os.Remove(path)
		}
	}()
	for i, file := range files {
		path, err := h.stageUpload(c, file)
		if err != nil {
			server.RespondWithError(c, err)
			return
		}
		staged = append(staged, path)
		chunks = append(chunks, ChunkInput{AudioPath: path, Transcript: transcripts[i]})
	}

	resp, err := h.svc.EnhanceChunks(c.Request.Context(), ChunksRequest{
		Chunks:  chunks,
		Options: opts,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	status = "ok"
	server.RespondOK(c, resp)
}

// parseOptions reads the processing switches; both stages default to on.
func (h *Handler) parseOptions(c *gin.Context) Options {
	opts := DefaultOptions()
	if v := c.PostForm("enable_timestamp_alignment"); v != "" {
		opts.AlignTimestamps = v != "false" && v != "0"
	}
	if v := c.PostForm("enable_speaker_verification"); v != "" {
		opts.VerifySpeakers = v != "false" && v != "0"
	}
	return opts
}

// stageUpload writes an upload to local disk, keeping the original
// extension so downstream tools can sniff the container format.
func (h *Handler) stageUpload(c *gin.Context, file *multipart.FileHeader) (string, error) {
	ext := filepath.Ext(file.Filename)
	tmp, err := os.CreateTemp(h.uploadDir, "upload-*"+ext)
	if err != nil {
		return "", apperrors.Internal(err)
	}
	tmp.Close()

	if err := c.SaveUploadedFile(file, tmp.Name()); err != nil {
		os.Remove(tmp.Name())
		return "", apperrors.Internal(err)
	}
	return tmp.Name(), nil
}
