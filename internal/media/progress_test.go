package media

import (
	"math"
	"strings"
	"testing"
)

// TestParseProcessedTime checks timestamp extraction from ffmpeg stderr lines.
func TestParseProcessedTime(t *testing.T) {
	tests := []struct {
		line string
		want float64
		ok   bool
	}{
		{"size=     256kB time=00:00:30.00 bitrate= 512.0kbits/s speed=25x", 30, true},
		{"size=    1024kB time=00:01:05.50 bitrate= 512.0kbits/s", 65.5, true},
		{"size=    4096kB time=01:00:00.00 bitrate= 512.0kbits/s", 3600, true},
		{"frame=  100 fps= 25 q=-1.0", 0, false},
		{"", 0, false},
		{"Press [q] to stop, [?] for help", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseProcessedTime(tt.line)
		if ok != tt.ok {
			t.Errorf("parseProcessedTime(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			continue
		}
		if ok && math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("parseProcessedTime(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

// TestProgressScannerSurvivesOversizedLines verifies a stderr line far
// beyond bufio's default token cap does not abort the progress scan.
func TestProgressScannerSurvivesOversizedLines(t *testing.T) {
	huge := strings.Repeat("x", 200*1024)
	input := huge + "\rsize= 256kB time=00:00:30.00 bitrate= 512.0kbits/s\r"

	scanner := newProgressScanner(strings.NewReader(input))

	var times []float64
	for scanner.Scan() {
		if processed, ok := parseProcessedTime(scanner.Text()); ok {
			times = append(times, processed)
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanner error: %v", err)
	}
	if len(times) != 1 || times[0] != 30 {
		t.Fatalf("parsed times = %v, want [30]", times)
	}
}

// TestTranscodeProgressInterpolation verifies the processed/total fraction.
func TestTranscodeProgressInterpolation(t *testing.T) {
	p := newTranscodeProgress(60)

	if got := p.update(30); got != 0.5 {
		t.Fatalf("update(30) = %v, want 0.5", got)
	}
}

// TestTranscodeProgressNeverDecreases verifies that duplicate or
// out-of-order reports cannot move progress backward.
func TestTranscodeProgressNeverDecreases(t *testing.T) {
	p := newTranscodeProgress(60)

	p.update(30)
	if got := p.update(20); got != 0.5 {
		t.Fatalf("stale report lowered progress: got %v, want 0.5", got)
	}
	if got := p.update(45); got != 0.75 {
		t.Fatalf("update(45) = %v, want 0.75", got)
	}
}

// TestTranscodeProgressClamped verifies the fraction caps at 1 when the
// tool reports past the probed duration.
func TestTranscodeProgressClamped(t *testing.T) {
	p := newTranscodeProgress(60)

	if got := p.update(90); got != 1.0 {
		t.Fatalf("update(90) = %v, want 1.0", got)
	}
}

// TestTranscodeProgressIndeterminate verifies the fixed-midpoint
// fallback when the duration probe failed.
func TestTranscodeProgressIndeterminate(t *testing.T) {
	p := newTranscodeProgress(0)

	if !p.indeterminate() {
		t.Fatal("zero duration should be indeterminate")
	}
	for _, processed := range []float64{5, 500, 1} {
		if got := p.update(processed); got != 0.5 {
			t.Fatalf("update(%v) = %v, want fixed midpoint 0.5", processed, got)
		}
	}
}
