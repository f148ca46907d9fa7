package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mediascribe/video-transcription/internal/hub"
	"github.com/mediascribe/video-transcription/internal/queue"
	"github.com/mediascribe/video-transcription/internal/types"
)

// JobsHandler serves job queries and transcript downloads
type JobsHandler struct {
	manager *queue.Manager
	hub     *hub.Hub
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(manager *queue.Manager, h *hub.Hub) *JobsHandler {
	return &JobsHandler{
		manager: manager,
		hub:     h,
	}
}

// List returns all known jobs in submission order.
func (h *JobsHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.manager.ListJobs())
}

// Get returns a single job snapshot by ID.
func (h *JobsHandler) Get(c *fiber.Ctx) error {
	snap, ok := h.manager.GetJob(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Job not found",
			"code":  "ERR_JOB_NOT_FOUND",
		})
	}
	return c.JSON(snap)
}

// Download streams the transcript artifact of a completed job.
func (h *JobsHandler) Download(c *fiber.Ctx) error {
	snap, ok := h.manager.GetJob(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Job not found",
			"code":  "ERR_JOB_NOT_FOUND",
		})
	}

	if snap.Status != types.StatusCompleted || snap.TranscriptPath == "" {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Transcript not available",
			"code":  "ERR_TRANSCRIPT_NOT_FOUND",
		})
	}

	if _, err := os.Stat(snap.TranscriptPath); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Transcript not available",
			"code":  "ERR_TRANSCRIPT_NOT_FOUND",
		})
	}

	stem := strings.TrimSuffix(snap.Filename, filepath.Ext(snap.Filename))
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s_transcript.txt"`, stem))
	return c.SendFile(snap.TranscriptPath)
}

// Status reports worker, queue, and observer counters.
func (h *JobsHandler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"queue":     h.manager.Stats(),
		"observers": h.hub.Count(),
	})
}
