package transcription

import (
	"strings"

	"github.com/mediascribe/video-transcription/internal/types"
)

// Pause thresholds for transcript formatting, in seconds. A gap below
// shortPause flows on the same line, up to mediumPause starts a new
// line, and anything longer opens a new paragraph.
const (
	shortPause  = 0.5
	mediumPause = 1.5
)

// formatSegmentsWithPauses joins decoded segments into readable text
// using the silence between them to place line and paragraph breaks.
// Negative gaps from overlapping timestamps are treated as no pause.
func formatSegmentsWithPauses(segments []types.Segment) string {
	var b strings.Builder
	first := true
	var prevEnd float64

	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}

		if first {
			b.WriteString(text)
			prevEnd = seg.End
			first = false
			continue
		}

		pause := seg.Start - prevEnd
		switch {
		case pause < shortPause:
			b.WriteString(" ")
		case pause < mediumPause:
			b.WriteString("\n")
		default:
			b.WriteString("\n\n")
		}
		b.WriteString(text)
		prevEnd = seg.End
	}

	return strings.TrimSpace(b.String())
}
