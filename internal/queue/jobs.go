package queue

import (
	"time"

	"github.com/mediascribe/video-transcription/internal/types"
)

// Job is one submitted unit of work moving through the two-stage
// pipeline. Its mutable fields are owned by the worker running it;
// everyone else sees copies via Snapshot.
type Job struct {
	ID             string
	Filename       string
	FileSize       int64
	Status         types.JobStatus
	Progress       float64
	CurrentStage   string
	CreatedAt      time.Time
	CompletedAt    *time.Time
	ErrorMessage   string
	VideoPath      string
	AudioPath      string
	TranscriptPath string

	seq int64 // assigned by the manager at submission
}

// NewJob creates a job in queued state.
func NewJob(id, filename string, fileSize int64, videoPath string) *Job {
	return &Job{
		ID:           id,
		Filename:     filename,
		FileSize:     fileSize,
		Status:       types.StatusQueued,
		CurrentStage: "Queued",
		CreatedAt:    time.Now(),
		VideoPath:    videoPath,
	}
}

// Snapshot returns an immutable copy of the job's observable state.
func (j *Job) Snapshot() types.JobSnapshot {
	snap := types.JobSnapshot{
		ID:             j.ID,
		Filename:       j.Filename,
		FileSize:       j.FileSize,
		Status:         j.Status,
		Progress:       j.Progress,
		CurrentStage:   j.CurrentStage,
		CreatedAt:      j.CreatedAt,
		ErrorMessage:   j.ErrorMessage,
		TranscriptPath: j.TranscriptPath,
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		snap.CompletedAt = &t
	}
	return snap
}

// validTransition enforces the allowed job state machine edges. The
// terminal states admit nothing.
func validTransition(from, to types.JobStatus) bool {
	switch from {
	case types.StatusQueued:
		return to == types.StatusExtractingAudio
	case types.StatusExtractingAudio:
		return to == types.StatusTranscribing || to == types.StatusFailed
	case types.StatusTranscribing:
		return to == types.StatusCompleted || to == types.StatusFailed
	default:
		return false
	}
}
