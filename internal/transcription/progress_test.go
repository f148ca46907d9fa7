package transcription

import "testing"

// TestEstimateSegments checks the duration-based unit estimate.
func TestEstimateSegments(t *testing.T) {
	tests := []struct {
		duration float64
		want     int
	}{
		{200, 40},
		{60, 12},
		{5, 1},
		{2, 1},  // never below one unit
		{0, 12}, // unknown duration falls back to the default estimate
		{-3, 12},
	}

	for _, tt := range tests {
		if got := estimateSegments(tt.duration); got != tt.want {
			t.Errorf("estimateSegments(%v) = %d, want %d", tt.duration, got, tt.want)
		}
	}
}

// TestIsSegmentLine checks recognition of whisper verbose output lines.
func TestIsSegmentLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"[00:00.000 --> 00:05.240]  Hello there.", true},
		{"[01:23.500 --> 01:29.000]  And welcome back.", true},
		{"[1:00:00.000 --> 1:00:04.000]  One hour in.", true},
		{"Detecting language using up to the first 30 seconds.", false},
		{"100%|##########| 461M/461M", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isSegmentLine(tt.line); got != tt.want {
			t.Errorf("isSegmentLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

// TestTranscriptionProgressAdvance verifies the units/estimate fraction.
func TestTranscriptionProgressAdvance(t *testing.T) {
	p := newTranscriptionProgress(4)

	want := []float64{0.25, 0.5, 0.75, 1.0}
	for i, w := range want {
		if got := p.advance(); got != w {
			t.Fatalf("advance #%d = %v, want %v", i+1, got, w)
		}
	}
}

// TestTranscriptionProgressClampsOvershoot verifies that when decoding
// yields more units than estimated the fraction stays pinned at 1
// instead of overshooting the stage budget.
func TestTranscriptionProgressClampsOvershoot(t *testing.T) {
	p := newTranscriptionProgress(40)

	var last float64
	for i := 0; i < 50; i++ {
		got := p.advance()
		if got > 1.0 {
			t.Fatalf("advance #%d overshot: %v", i+1, got)
		}
		if got < last {
			t.Fatalf("advance #%d decreased: %v after %v", i+1, got, last)
		}
		last = got
	}
	if last != 1.0 {
		t.Fatalf("final fraction = %v, want exactly 1.0", last)
	}
}

// TestTranscriptionProgressMinimumEstimate guards against a zero estimate.
func TestTranscriptionProgressMinimumEstimate(t *testing.T) {
	p := newTranscriptionProgress(0)

	if got := p.advance(); got != 1.0 {
		t.Fatalf("advance = %v, want 1.0", got)
	}
}
