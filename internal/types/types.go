package types

import "time"

// JobStatus is the closed set of states a job moves through.
type JobStatus string

// Job status values
const (
	StatusQueued          JobStatus = "queued"
	StatusExtractingAudio JobStatus = "extracting_audio"
	StatusTranscribing    JobStatus = "transcribing"
	StatusCompleted       JobStatus = "completed"
	StatusFailed          JobStatus = "failed"
)

// Terminal reports whether a status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// JobSnapshot is an immutable copy of a job's state, safe to hand to
// HTTP responses and WebSocket broadcasts.
type JobSnapshot struct {
	ID             string     `json:"id"`
	Filename       string     `json:"filename"`
	FileSize       int64      `json:"file_size"`
	Status         JobStatus  `json:"status"`
	Progress       float64    `json:"progress"`
	CurrentStage   string     `json:"current_stage"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	TranscriptPath string     `json:"transcript_path,omitempty"`
}

// TranscriptionResult represents the output of a completed transcription
type TranscriptionResult struct {
	JobID       string
	Text        string
	Language    string
	Duration    float64
	Segments    []Segment
	WordCount   int
	ProcessedAt time.Time
	LocalPath   string
}

// Segment represents a timestamped segment of transcription
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
