// Package reconcile substitutes timestamped-but-lower-quality transcript
// text with better wording from an independent reference transcription of
// the same audio, preserving the original timing.
package reconcile

import "strings"

// Line is one line of reference text, either plain utterance text or an
// utterance tagged with a speaker label.
type Line struct {
	// Speaker is the label parsed from a "Speaker N: ..." prefix, empty for
	// plain lines.
	Speaker string
	// Text is the utterance text with any label prefix stripped.
	Text string
}

// ParseLines splits freeform reference text into tagged lines. A line of the
// form "<label>: <utterance>" where <label> case-insensitively starts with
// the word "speaker" becomes a labeled Line; every other non-blank line is a
// plain Line. This textual convention is the documented input contract for
// freeform reference transcripts.
func ParseLines(text string) []Line {
	var lines []Line
	for _, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if label, rest, ok := strings.Cut(trimmed, ":"); ok {
			label = strings.TrimSpace(label)
			if strings.HasPrefix(strings.ToLower(label), "speaker") {
				lines = append(lines, Line{
					Speaker: label,
					Text:    strings.TrimSpace(rest),
				})
				continue
			}
		}
		lines = append(lines, Line{Text: trimmed})
	}
	return lines
}
