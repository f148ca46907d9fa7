package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mediascribe/video-transcription/internal/types"
)

// LocalStorage persists finished transcripts on the local filesystem
type LocalStorage struct {
	outputDir string
}

// NewLocalStorage creates a local storage handler rooted at outputDir
func NewLocalStorage(outputDir string) *LocalStorage {
	return &LocalStorage{
		outputDir: outputDir,
	}
}

// SaveTranscript writes the transcript text and a metadata sidecar,
// returning the transcript path.
func (ls *LocalStorage) SaveTranscript(filename string, result *types.TranscriptionResult) (string, error) {
	if err := os.MkdirAll(ls.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %v", err)
	}

	// e.g. 20250123_143022_team_meeting_transcript.txt
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	timestamp := time.Now().Format("20060102_150405")
	baseFilename := fmt.Sprintf("%s_%s", timestamp, sanitizeFilename(stem))

	txtPath := filepath.Join(ls.outputDir, baseFilename+"_transcript.txt")
	metaPath := filepath.Join(ls.outputDir, baseFilename+"_meta.json")

	if err := os.WriteFile(txtPath, []byte(result.Text), 0644); err != nil {
		return "", fmt.Errorf("failed to save transcript: %v", err)
	}

	metadata := map[string]interface{}{
		"job_id":           result.JobID,
		"source_filename":  filename,
		"language":         result.Language,
		"duration_seconds": result.Duration,
		"word_count":       result.WordCount,
		"created_at":       result.ProcessedAt,
		"segments":         result.Segments,
	}
	metaJSON, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %v", err)
	}
	if err := os.WriteFile(metaPath, metaJSON, 0644); err != nil {
		return "", fmt.Errorf("failed to save metadata: %v", err)
	}

	return txtPath, nil
}

// ReadTranscript returns the raw transcript content at path.
func (ls *LocalStorage) ReadTranscript(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// sanitizeFilename strips path separators and characters that do not
// belong in a filename.
func sanitizeFilename(name string) string {
	result := filepath.Base(name)
	for _, c := range []string{":", "*", "?", "\"", "<", ">", "|"} {
		result = strings.ReplaceAll(result, c, "_")
	}
	result = strings.ReplaceAll(result, " ", "_")
	if len(result) > 100 {
		result = result[:100]
	}
	return result
}
