package queue

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mediascribe/video-transcription/internal/hub"
	"github.com/mediascribe/video-transcription/internal/types"
)

// ErrShutdown is returned by Submit after the manager stops accepting work.
var ErrShutdown = errors.New("queue manager is shut down")

// Transcoder produces the normalized audio artifact for stage 1,
// reporting its stage fraction in [0,1].
type Transcoder interface {
	Extract(ctx context.Context, inputPath, outputPath string, onProgress func(fraction float64, message string)) error
}

// Transcriber produces the transcript for stage 2, reporting its stage
// fraction in [0,1].
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, onProgress func(fraction float64, message string)) (*types.TranscriptionResult, error)
}

// TranscriptStore persists a finished transcript and returns its path.
type TranscriptStore interface {
	SaveTranscript(filename string, result *types.TranscriptionResult) (string, error)
}

// MetadataRecorder indexes finished transcripts. May be absent.
type MetadataRecorder interface {
	SaveTranscript(jobID, filename, language, localPath string, duration float64, wordCount int) error
}

// Stats describes queue and job counts for the status endpoint.
type Stats struct {
	Workers   int `json:"workers"`
	QueueSize int `json:"queue_size"`
	Total     int `json:"total"`
	Queued    int `json:"queued"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// Manager owns the job table and the FIFO of pending work, and runs a
// fixed-size pool of workers over it. Every job mutation goes through
// the manager's single update path and is published to the hub.
type Manager struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []string // FIFO of queued job IDs
	jobs    map[string]*Job
	nextSeq int64 // submission order, ListJobs sort key
	closed  bool
	wg      sync.WaitGroup

	workerCount int
	audioDir    string
	transcoder  Transcoder
	transcriber Transcriber
	store       TranscriptStore
	metadata    MetadataRecorder
	hub         *hub.Hub
}

// NewManager creates a manager; metadata may be nil.
func NewManager(
	workerCount int,
	audioDir string,
	transcoder Transcoder,
	transcriber Transcriber,
	store TranscriptStore,
	metadata MetadataRecorder,
	h *hub.Hub,
) *Manager {
	if workerCount < 1 {
		workerCount = 2
	}
	m := &Manager{
		pending:     make([]string, 0),
		jobs:        make(map[string]*Job),
		workerCount: workerCount,
		audioDir:    audioDir,
		transcoder:  transcoder,
		transcriber: transcriber,
		store:       store,
		metadata:    metadata,
		hub:         h,
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Start launches the worker pool.
func (m *Manager) Start() {
	log.Printf("Starting worker pool with %d workers", m.workerCount)
	for i := 0; i < m.workerCount; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}
}

// Submit creates a queued job for an uploaded file and hands it to the
// pool. It never waits for a free worker; the queue is unbounded. It
// fails only after Shutdown.
func (m *Manager) Submit(filename string, fileSize int64, videoPath string) (types.JobSnapshot, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return types.JobSnapshot{}, ErrShutdown
	}

	job := NewJob(uuid.New().String(), filename, fileSize, videoPath)
	job.seq = m.nextSeq
	m.nextSeq++
	m.jobs[job.ID] = job
	m.pending = append(m.pending, job.ID)
	snap := job.Snapshot()
	// Publish before signaling a worker, so the queued snapshot always
	// reaches observers ahead of the first running-state broadcast.
	m.hub.Publish(snap)
	m.cond.Signal()
	m.mu.Unlock()

	log.Printf("Job %s added to queue: %s", job.ID, filename)
	return snap, nil
}

// Shutdown stops accepting submissions and waits for in-flight jobs to
// finish. Queued jobs still drain; nothing is aborted.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.closed = true
	m.cond.Broadcast()
	m.mu.Unlock()

	m.wg.Wait()
	log.Println("Worker pool drained")
}

// GetJob returns a snapshot of one job.
func (m *Manager) GetJob(id string) (types.JobSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[id]
	if !ok {
		return types.JobSnapshot{}, false
	}
	return job.Snapshot(), true
}

// ListJobs returns snapshots of every known job in submission order.
// Jobs are ordered by their sequence number rather than CreatedAt,
// which can tie at clock resolution for back-to-back submissions.
func (m *Manager) ListJobs() []types.JobSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordered := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		ordered = append(ordered, job)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].seq < ordered[j].seq
	})

	snaps := make([]types.JobSnapshot, len(ordered))
	for i, job := range ordered {
		snaps[i] = job.Snapshot()
	}
	return snaps
}

// Stats returns worker, queue, and job counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		Workers:   m.workerCount,
		QueueSize: len(m.pending),
		Total:     len(m.jobs),
	}
	for _, job := range m.jobs {
		switch job.Status {
		case types.StatusQueued:
			s.Queued++
		case types.StatusExtractingAudio, types.StatusTranscribing:
			s.Running++
		case types.StatusCompleted:
			s.Completed++
		case types.StatusFailed:
			s.Failed++
		}
	}
	return s
}

// next blocks until a job is available or the manager is drained after
// shutdown. The second return is false once no more work will arrive.
func (m *Manager) next() (*Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.pending) == 0 && !m.closed {
		m.cond.Wait()
	}
	if len(m.pending) == 0 {
		return nil, false
	}

	id := m.pending[0]
	m.pending = m.pending[1:]
	return m.jobs[id], true
}

// update is the single mutation path for a job's observable state. It
// enforces the state machine, keeps progress non-decreasing over the
// job's lifetime, stamps terminal times exactly once, and publishes
// the resulting snapshot.
func (m *Manager) update(job *Job, status types.JobStatus, progress float64, stage, errMsg string) {
	m.mu.Lock()
	if job.Status.Terminal() {
		m.mu.Unlock()
		return
	}
	if status != job.Status {
		if !validTransition(job.Status, status) {
			m.mu.Unlock()
			log.Printf("Job %s: refusing transition %s -> %s", job.ID, job.Status, status)
			return
		}
		job.Status = status
	}
	if progress > job.Progress {
		job.Progress = progress
	}
	job.CurrentStage = stage
	if status.Terminal() && job.CompletedAt == nil {
		now := time.Now()
		job.CompletedAt = &now
	}
	if status == types.StatusFailed {
		job.ErrorMessage = errMsg
	}
	snap := job.Snapshot()
	m.mu.Unlock()

	m.hub.Publish(snap)
}

// setArtifacts records stage outputs on the job under the table lock.
func (m *Manager) setArtifacts(job *Job, audioPath, transcriptPath string) {
	m.mu.Lock()
	if audioPath != "" {
		job.AudioPath = audioPath
	}
	if transcriptPath != "" {
		job.TranscriptPath = transcriptPath
	}
	m.mu.Unlock()
}
