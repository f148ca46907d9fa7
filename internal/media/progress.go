package media

import (
	"math"
	"regexp"
	"strconv"
)

// ffmpeg reports the processed position on stderr as time=HH:MM:SS.cc
var timePattern = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2}\.?\d*)`)

// parseProcessedTime extracts the processed timestamp in seconds from
// one line of ffmpeg stderr output.
func parseProcessedTime(line string) (float64, bool) {
	m := timePattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}

	hours, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, false
	}

	return float64(hours)*3600 + float64(minutes)*60 + seconds, true
}

// transcodeProgress converts processed timestamps into a monotonic
// stage fraction in [0,1]. Duplicate or out-of-order reports never
// move the fraction backward. With an unknown total duration the
// tracker runs in indeterminate mode and pins the stage midpoint.
type transcodeProgress struct {
	totalDuration float64
	last          float64
}

func newTranscodeProgress(totalDuration float64) *transcodeProgress {
	return &transcodeProgress{totalDuration: totalDuration}
}

func (p *transcodeProgress) indeterminate() bool {
	return p.totalDuration <= 0
}

// update folds one processed-time report into the stage fraction.
func (p *transcodeProgress) update(processed float64) float64 {
	if p.indeterminate() {
		p.last = 0.5
		return p.last
	}

	frac := math.Min(processed/p.totalDuration, 1.0)
	if frac > p.last {
		p.last = frac
	}
	return p.last
}
