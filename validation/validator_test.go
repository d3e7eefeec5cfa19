package validation

import (
	"strings"
	"testing"

	"github.com/skillsenselab/scribe/errors"
)

type sampleRequest struct {
	Transcript  string `json:"transcript" validate:"required"`
	NumSpeakers int    `json:"num_speakers" validate:"gte=0,lte=32"`
}

func TestValidate_Success(t *testing.T) {
	req := sampleRequest{Transcript: "Speaker 1: hello", NumSpeakers: 2}
	if err := Validate(req); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	err := Validate(sampleRequest{NumSpeakers: 1})
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "transcript") {
		t.Errorf("expected field name in message, got %q", appErr.Message)
	}
}

func TestValidate_OutOfRange(t *testing.T) {
	err := Validate(sampleRequest{Transcript: "x", NumSpeakers: 99})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "num_speakers") {
		t.Errorf("expected num_speakers in error, got %q", err.Error())
	}
}
