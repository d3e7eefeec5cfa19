// Package transcription defines the transcription provider interface and
// common types for interacting with forced-alignment speech-to-text backends.
package transcription

import (
	"context"

	"github.com/skillsenselab/scribe/provider"
)

// Provider is the interface that transcription backends must implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// TranscribeAndAlign sends audio for transcription and word-level
	// alignment and returns time-aligned segments.
	TranscribeAndAlign(ctx context.Context, req Request) (*Result, error)
}
