package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/mediascribe/video-transcription/internal/types"
)

// worker pulls jobs off the queue and runs each one to a terminal
// state before taking the next.
func (m *Manager) worker(id int) {
	defer m.wg.Done()
	log.Printf("Worker %d started", id)

	for {
		job, ok := m.next()
		if !ok {
			log.Printf("Worker %d stopped", id)
			return
		}
		if job == nil {
			continue
		}
		m.runJob(id, job)
	}
}

// runJob drives one job through both stages. Every failure, including
// a panic, is converted here into a failed terminal state with a
// redacted error message; nothing escapes to the pool.
func (m *Manager) runJob(workerID int, job *Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Worker %d: panic processing job %s: %v\n%s", workerID, job.ID, r, debug.Stack())
			m.update(job, types.StatusFailed, 0, "Failed", types.CodeInternalError+": unexpected pipeline failure")
		}
	}()

	ctx := context.Background()
	log.Printf("Worker %d: processing job %s (%s)", workerID, job.ID, job.Filename)

	// Stage 1: audio extraction, overall progress 0-50.
	m.update(job, types.StatusExtractingAudio, 0, "Starting audio extraction", "")

	audioPath := filepath.Join(m.audioDir, job.ID+".wav")
	err := m.transcoder.Extract(ctx, job.VideoPath, audioPath, func(fraction float64, message string) {
		m.update(job, types.StatusExtractingAudio, fraction*50, message, "")
	})
	if err != nil {
		m.fail(workerID, job, err)
		return
	}
	m.setArtifacts(job, audioPath, "")

	// Stage 2: transcription, overall progress 50-100.
	m.update(job, types.StatusTranscribing, 50, "Starting transcription", "")

	result, err := m.transcriber.Transcribe(ctx, audioPath, func(fraction float64, message string) {
		m.update(job, types.StatusTranscribing, 50+fraction*50, message, "")
	})
	if err != nil {
		m.fail(workerID, job, err)
		return
	}

	result.JobID = job.ID
	result.WordCount = len(strings.Fields(result.Text))
	result.ProcessedAt = time.Now()

	localPath, err := m.store.SaveTranscript(job.Filename, result)
	if err != nil {
		m.fail(workerID, job, &types.TranscriptionError{Summary: "could not persist transcript", Err: err})
		return
	}
	result.LocalPath = localPath
	m.setArtifacts(job, "", localPath)

	if m.metadata != nil {
		if err := m.metadata.SaveTranscript(job.ID, job.Filename, result.Language, localPath, result.Duration, result.WordCount); err != nil {
			log.Printf("Worker %d: metadata save failed for job %s: %v", workerID, job.ID, err)
		}
	}

	m.update(job, types.StatusCompleted, 100, "Completed", "")
	log.Printf("Worker %d: job %s completed (%s)", workerID, job.ID, localPath)
}

// fail moves a job to the failed state with a client-safe message. The
// full diagnostic goes to the logs only.
func (m *Manager) fail(workerID int, job *Job, err error) {
	log.Printf("Worker %d: job %s failed: %v", workerID, job.ID, err)
	m.update(job, types.StatusFailed, 0, "Failed", redactError(err))
}

// redactError maps an internal failure onto the public error taxonomy.
// Summaries never carry paths or stack traces.
func redactError(err error) string {
	var tcErr *types.TranscodeError
	if errors.As(err, &tcErr) {
		return fmt.Sprintf("%s: %s", types.CodeTranscodeError, tcErr.Summary)
	}
	var trErr *types.TranscriptionError
	if errors.As(err, &trErr) {
		return fmt.Sprintf("%s: %s", types.CodeTranscriptionError, trErr.Summary)
	}
	return types.CodeInternalError + ": unexpected pipeline failure"
}
