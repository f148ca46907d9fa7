package transcription

import (
	"math"
	"regexp"
)

// avgSegmentSeconds is the fixed heuristic for how much audio one
// decoded segment covers, used to estimate total work before the real
// segmentation is known.
const avgSegmentSeconds = 5.0

// defaultDurationSeconds stands in when the audio duration is unknown.
const defaultDurationSeconds = 60.0

// Whisper in verbose mode prints one line per decoded segment:
// [00:00.000 --> 00:05.240]  some text
var segmentPattern = regexp.MustCompile(`^\[\d{2,}:\d{2}(?::\d{2})?\.\d{3} --> `)

// isSegmentLine reports whether a stdout line marks one completed
// decoding unit.
func isSegmentLine(line string) bool {
	return segmentPattern.MatchString(line)
}

// estimateSegments predicts the total decoding units for an audio
// duration. The real count is discovered incrementally, so this is
// only an estimate; the tracker clamps when it is exceeded.
func estimateSegments(duration float64) int {
	if duration <= 0 {
		duration = defaultDurationSeconds
	}
	n := int(duration / avgSegmentSeconds)
	if n < 1 {
		n = 1
	}
	return n
}

// transcriptionProgress folds completed units into a monotonic stage
// fraction in [0,1]. When decoding yields more units than estimated
// the fraction stays clamped at 1 instead of overshooting.
type transcriptionProgress struct {
	estimatedUnits int
	unitsDone      int
	last           float64
}

func newTranscriptionProgress(estimatedUnits int) *transcriptionProgress {
	if estimatedUnits < 1 {
		estimatedUnits = 1
	}
	return &transcriptionProgress{estimatedUnits: estimatedUnits}
}

// advance records one completed unit and returns the updated fraction.
func (p *transcriptionProgress) advance() float64 {
	p.unitsDone++
	frac := math.Min(float64(p.unitsDone)/float64(p.estimatedUnits), 1.0)
	if frac > p.last {
		p.last = frac
	}
	return p.last
}
