// Package audio shells out to ffmpeg/ffprobe for preprocessing and metadata:
// resampling to the speech-standard rate, loudness normalization, rumble
// filtering, and duration probing.
package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/skillsenselab/scribe/logger"
	"github.com/skillsenselab/scribe/process"
)

const (
	// DefaultSampleRate is the speech-processing standard of 16 kHz.
	DefaultSampleRate = 16000
	// DefaultHighPassHz removes low-frequency rumble below typical speech.
	DefaultHighPassHz = 80
)

// Config controls the preprocessing pipeline.
type Config struct {
	// FFmpegBinary overrides the ffmpeg binary path. Defaults to "ffmpeg".
	FFmpegBinary string `json:"ffmpeg_binary" yaml:"ffmpeg_binary" mapstructure:"ffmpeg_binary"`
	// FFprobeBinary overrides the ffprobe binary path. Defaults to "ffprobe".
	FFprobeBinary string `json:"ffprobe_binary" yaml:"ffprobe_binary" mapstructure:"ffprobe_binary"`
	// SampleRate is the output sample rate in Hz. Defaults to 16000.
	SampleRate int `json:"sample_rate" yaml:"sample_rate" mapstructure:"sample_rate"`
	// Normalize enables EBU R128 loudness normalization.
	Normalize bool `json:"normalize" yaml:"normalize" mapstructure:"normalize"`
	// HighPassHz enables a high-pass filter at the given cutoff when > 0.
	HighPassHz int `json:"high_pass_hz" yaml:"high_pass_hz" mapstructure:"high_pass_hz"`
	// Timeout bounds a single ffmpeg/ffprobe invocation.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.FFmpegBinary == "" {
		c.FFmpegBinary = "ffmpeg"
	}
	if c.FFprobeBinary == "" {
		c.FFprobeBinary = "ffprobe"
	}
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Timeout == 0 {
		c.Timeout = 2 * time.Minute
	}
}

// Preprocessor converts uploads into clean mono WAV input for the
// transcription and diarization collaborators.
type Preprocessor struct {
	cfg Config
	log *logger.Logger
}

// NewPreprocessor creates a Preprocessor.
func NewPreprocessor(cfg Config) *Preprocessor {
	cfg.ApplyDefaults()
	return &Preprocessor{cfg: cfg, log: logger.WithComponent("audio")}
}

// Preprocess writes a 16 kHz mono WAV rendition of src next to it and
// returns the new path. The caller owns the returned file and must remove
// it. On ffmpeg failure the partial output is removed and an error returned;
// callers typically fall back to the original file.
func (p *Preprocessor) Preprocess(ctx context.Context, src string) (string, error) {
	dst := derivedPath(src, "clean")

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	start := time.Now()
	result, err := process.Run(ctx, process.Command{
		Binary: p.cfg.FFmpegBinary,
		Args:   PreprocessArgs(src, dst, p.cfg),
	})
	if err != nil {
		os.Remove(dst)
		stderr := ""
		if result != nil {
			stderr = strings.TrimSpace(string(result.Stderr))
		}
		return "", fmt.Errorf("ffmpeg preprocess: %w: %s", err, stderr)
	}

	p.log.Debug("preprocessed audio", logger.DurationFields("preprocess", time.Since(start)))
	return dst, nil
}

// Duration probes the audio duration in seconds using ffprobe.
func (p *Preprocessor) Duration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	result, err := process.Run(ctx, process.Command{
		Binary: p.cfg.FFprobeBinary,
		Args:   DurationArgs(path),
	})
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}
	out := strings.TrimSpace(string(result.Stdout))
	d, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: parse %q: %w", out, err)
	}
	return d, nil
}

// PreprocessArgs builds the ffmpeg argument list for converting src to a
// mono WAV at the configured sample rate, with optional high-pass filtering
// and loudness normalization.
func PreprocessArgs(src, dst string, cfg Config) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-i", src,
		"-ac", "1",
		"-ar", strconv.Itoa(cfg.SampleRate),
	}
	if filter := filterChain(cfg); filter != "" {
		args = append(args, "-af", filter)
	}
	return append(args, dst)
}

// DurationArgs builds the ffprobe argument list that prints the container
// duration in seconds as a bare number.
func DurationArgs(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}

func filterChain(cfg Config) string {
	var filters []string
	if cfg.HighPassHz > 0 {
		filters = append(filters, fmt.Sprintf("highpass=f=%d", cfg.HighPassHz))
	}
	if cfg.Normalize {
		filters = append(filters, "loudnorm=I=-20:TP=-1.5:LRA=11")
	}
	return strings.Join(filters, ",")
}

// derivedPath returns "<dir>/<base>.<tag>.wav" for src.
func derivedPath(src, tag string) string {
	dir := filepath.Dir(src)
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(dir, base+"."+tag+".wav")
}
