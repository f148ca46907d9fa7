package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mediascribe/video-transcription/internal/types"
)

// TestSaveTranscriptWritesTextAndMetadata checks both artifacts land on disk.
func TestSaveTranscriptWritesTextAndMetadata(t *testing.T) {
	dir := t.TempDir()
	ls := NewLocalStorage(dir)

	result := &types.TranscriptionResult{
		JobID:       "job-1",
		Text:        "hello world",
		Language:    "en",
		Duration:    12.5,
		WordCount:   2,
		ProcessedAt: time.Now(),
		Segments: []types.Segment{
			{Start: 0, End: 5, Text: "hello"},
			{Start: 5, End: 12.5, Text: "world"},
		},
	}

	txtPath, err := ls.SaveTranscript("team meeting.mp4", result)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	content, err := os.ReadFile(txtPath)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if string(content) != "hello world" {
		t.Fatalf("transcript content = %q", content)
	}

	metaPath := strings.TrimSuffix(txtPath, "_transcript.txt") + "_meta.json"
	if _, err := os.Stat(metaPath); err != nil {
		t.Fatalf("metadata sidecar missing: %v", err)
	}

	if filepath.Dir(txtPath) != dir {
		t.Fatalf("transcript written outside output dir: %s", txtPath)
	}
}

// TestSanitizeFilename checks path separators and shell-hostile
// characters are stripped.
func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"team meeting", "team_meeting"},
		{"../../etc/passwd", "passwd"},
		{`what?*|is<this>`, "what___is_this_"},
		{strings.Repeat("x", 150), strings.Repeat("x", 100)},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
