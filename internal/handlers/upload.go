package handlers

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mediascribe/video-transcription/internal/queue"
)

// supportedVideoFormats lists the container extensions the pipeline accepts.
var supportedVideoFormats = []string{".mp4", ".avi", ".mkv", ".mov", ".webm", ".flv", ".wmv"}

// UploadHandler accepts video uploads and turns them into jobs
type UploadHandler struct {
	manager   *queue.Manager
	uploadDir string
	maxSizeMB int
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(manager *queue.Manager, uploadDir string, maxSizeMB int) *UploadHandler {
	return &UploadHandler{
		manager:   manager,
		uploadDir: uploadDir,
		maxSizeMB: maxSizeMB,
	}
}

// Handle processes the upload request
func (h *UploadHandler) Handle(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
			"code":  "ERR_NO_FILE",
		})
	}

	maxSize := int64(h.maxSizeMB) * 1024 * 1024
	if file.Size > maxSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("File too large (max %dMB)", h.maxSizeMB),
			"code":  "ERR_FILE_TOO_LARGE",
		})
	}

	if !validVideoFormat(file.Filename) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Unsupported file format. Allowed: %s", strings.Join(supportedVideoFormats, ", ")),
			"code":  "ERR_INVALID_FORMAT",
		})
	}

	// Unique name keeps concurrent uploads of the same file apart.
	extension := filepath.Ext(file.Filename)
	videoPath := filepath.Join(h.uploadDir, fmt.Sprintf("%s%s", uuid.New().String(), extension))

	if err := c.SaveFile(file, videoPath); err != nil {
		log.Printf("Failed to save uploaded file: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save file",
			"code":  "ERR_SAVE_FAILED",
		})
	}

	snap, err := h.manager.Submit(file.Filename, file.Size, videoPath)
	if err != nil {
		if errors.Is(err, queue.ErrShutdown) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Server is shutting down",
				"code":  "ERR_SHUTTING_DOWN",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to enqueue job",
			"code":  "ERR_ENQUEUE_FAILED",
		})
	}

	return c.JSON(snap)
}

// validVideoFormat checks the upload extension against the allow-list.
func validVideoFormat(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, format := range supportedVideoFormats {
		if ext == format {
			return true
		}
	}
	return false
}
