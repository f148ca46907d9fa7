package transcription

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mediascribe/video-transcription/internal/types"
)

// DurationProber reports the duration in seconds of a media file.
type DurationProber interface {
	Probe(ctx context.Context, path string) (float64, error)
}

// WhisperTranscriber runs OpenAI Whisper over normalized audio and
// tracks per-segment progress from its verbose output.
type WhisperTranscriber struct {
	modelName string
	device    string
	prober    DurationProber
	mu        sync.Mutex // exclusive use of the compute device
}

// NewWhisperTranscriber creates a transcriber invoking Whisper via
// python -m whisper. A device of "auto" selects CUDA when an NVIDIA
// accelerator is visible and falls back to CPU otherwise.
func NewWhisperTranscriber(modelName, device string, prober DurationProber) *WhisperTranscriber {
	resolved := resolveDevice(device)
	log.Printf("Initializing Whisper transcriber (model: %s, device: %s)", modelName, resolved)

	return &WhisperTranscriber{
		modelName: modelName,
		device:    resolved,
		prober:    prober,
	}
}

// resolveDevice maps "auto" to cuda or cpu based on accelerator visibility.
func resolveDevice(device string) string {
	if device != "" && device != "auto" {
		return device
	}
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return "cuda"
	}
	return "cpu"
}

// Transcribe decodes the audio file and returns the transcript,
// reporting the stage fraction in [0,1] through onProgress as each
// segment completes. If the accelerator fails at runtime the decode is
// retried on CPU; the progress contract is unchanged, only its pacing.
func (wt *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string, onProgress func(fraction float64, message string)) (*types.TranscriptionResult, error) {
	wt.mu.Lock()
	defer wt.mu.Unlock()

	duration, err := wt.prober.Probe(ctx, audioPath)
	if err != nil {
		log.Printf("Audio duration probe failed for %s, assuming %.0fs: %v", audioPath, defaultDurationSeconds, err)
		duration = 0
	}
	estimated := estimateSegments(duration)
	log.Printf("Transcribing %s (duration: %.2fs, estimated segments: %d, device: %s)",
		audioPath, duration, estimated, wt.device)

	tempDir, err := os.MkdirTemp("", "whisper-output-*")
	if err != nil {
		return nil, &types.TranscriptionError{Summary: "could not create working directory", Err: err}
	}
	defer os.RemoveAll(tempDir)

	result, err := wt.run(ctx, audioPath, tempDir, wt.device, estimated, onProgress)
	if err != nil && wt.device == "cuda" {
		// Accelerator exhaustion or driver trouble: retry on CPU.
		log.Printf("Whisper failed on cuda, retrying on cpu: %v", err)
		result, err = wt.run(ctx, audioPath, tempDir, "cpu", estimated, onProgress)
	}
	if err != nil {
		return nil, err
	}

	if onProgress != nil {
		onProgress(1.0, "Transcription complete")
	}
	return result, nil
}

// run performs one Whisper invocation on the given device.
func (wt *WhisperTranscriber) run(ctx context.Context, audioPath, tempDir, device string, estimated int, onProgress func(fraction float64, message string)) (*types.TranscriptionResult, error) {
	absAudioPath, err := filepath.Abs(audioPath)
	if err != nil {
		return nil, &types.TranscriptionError{Summary: "could not resolve audio artifact", Err: err}
	}

	args := []string{
		"-m", "whisper",
		absAudioPath,
		"--model", wt.modelName,
		"--device", device,
		"--output_dir", tempDir,
		"--output_format", "json", // JSON carries the segments
		"--verbose", "True",       // verbose stdout drives progress
	}
	if device == "cpu" {
		args = append(args, "--fp16", "False")
	}

	cmd := exec.CommandContext(ctx, "python", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &types.TranscriptionError{Summary: "could not attach to model output", Err: err}
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, &types.TranscriptionError{Summary: "whisper tool unavailable", Err: err}
	}

	tracker := newTranscriptionProgress(estimated)
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if !isSegmentLine(scanner.Text()) {
			continue
		}
		frac := tracker.advance()
		if onProgress != nil {
			onProgress(frac, fmt.Sprintf("Transcribing: segment %d/%d", tracker.unitsDone, estimated))
		}
	}

	if err := cmd.Wait(); err != nil {
		return nil, &types.TranscriptionError{
			Summary: "whisper exited with an error",
			Err:     fmt.Errorf("%v\n%s", err, tailOf(stderr.String(), diagTailLines)),
		}
	}

	return readWhisperOutput(tempDir, audioPath)
}

// diagTailLines bounds how much whisper stderr is kept for error reports.
const diagTailLines = 20

// tailOf returns the last n lines of s.
func tailOf(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// readWhisperOutput parses the JSON file Whisper writes next to its
// other output formats.
func readWhisperOutput(tempDir, audioPath string) (*types.TranscriptionResult, error) {
	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(tempDir, baseName+".json")

	jsonData, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, &types.TranscriptionError{Summary: "model produced no transcript", Err: err}
	}

	var out whisperOutput
	if err := json.Unmarshal(jsonData, &out); err != nil {
		return nil, &types.TranscriptionError{Summary: "model output was unreadable", Err: err}
	}

	segments := make([]types.Segment, len(out.Segments))
	for i, seg := range out.Segments {
		segments[i] = types.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		}
	}

	var duration float64
	if len(segments) > 0 {
		duration = segments[len(segments)-1].End
	}

	// Pause-aware formatting when segment timing is available; raw
	// model text otherwise.
	text := formatSegmentsWithPauses(segments)
	if text == "" {
		text = strings.TrimSpace(out.Text)
	}

	log.Printf("Transcription finished: %d segments, %.2fs audio", len(segments), duration)

	return &types.TranscriptionResult{
		Text:     text,
		Language: out.Language,
		Duration: duration,
		Segments: segments,
	}, nil
}

// whisperOutput matches Whisper's JSON output format
type whisperOutput struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []whisperSegment `json:"segments"`
}

// whisperSegment represents a timestamped segment from Whisper
type whisperSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
