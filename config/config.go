package config

import (
	"github.com/skillsenselab/scribe/audio"
	"github.com/skillsenselab/scribe/auth"
	"github.com/skillsenselab/scribe/diarization/pyannote"
	"github.com/skillsenselab/scribe/logger"
	"github.com/skillsenselab/scribe/observability"
	"github.com/skillsenselab/scribe/server"
	"github.com/skillsenselab/scribe/stitch"
	"github.com/skillsenselab/scribe/transcription/whisperx"
)

// ServiceName is the canonical service identifier used for config lookup,
// logging, and telemetry.
const ServiceName = "scribe"

// EnhanceConfig tunes the enhancement pipeline heuristics.
type EnhanceConfig struct {
	// BoundaryWindow is the cross-chunk speaker matching window in seconds.
	BoundaryWindow float64 `yaml:"boundary_window" mapstructure:"boundary_window"`
	// SimilarityThreshold is the reference-text reconciliation threshold.
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	// Preprocess enables ffmpeg audio cleanup before the collaborators run.
	Preprocess bool `yaml:"preprocess" mapstructure:"preprocess"`
	// UploadDir is where uploaded audio is staged. Defaults to the OS temp dir.
	UploadDir string `yaml:"upload_dir" mapstructure:"upload_dir"`
}

// ApplyDefaults fills zero values with defaults.
func (c *EnhanceConfig) ApplyDefaults() {
	if c.BoundaryWindow == 0 {
		c.BoundaryWindow = stitch.DefaultBoundaryWindow
	}
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = 0.7
	}
}

// Config is the root service configuration.
type Config struct {
	Logging       logger.Config        `yaml:"logging" mapstructure:"logging"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Auth          auth.Config          `yaml:"auth" mapstructure:"auth"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Whisperx      whisperx.Config      `yaml:"whisperx" mapstructure:"whisperx"`
	Pyannote      pyannote.Config      `yaml:"pyannote" mapstructure:"pyannote"`
	Audio         audio.Config         `yaml:"audio" mapstructure:"audio"`
	Enhance       EnhanceConfig        `yaml:"enhance" mapstructure:"enhance"`
}

// ApplyDefaults fills every section's zero values.
func (c *Config) ApplyDefaults() {
	c.Logging.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
	c.Audio.ApplyDefaults()
	c.Enhance.ApplyDefaults()
}

// Validate checks every section that can be invalid.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}
