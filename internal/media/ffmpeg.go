package media

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mediascribe/video-transcription/internal/types"
)

// diagTailLines bounds how much ffmpeg stderr is kept for error reports.
const diagTailLines = 20

// Extractor invokes ffmpeg and ffprobe to turn source media into the
// normalized 16kHz mono WAV that Whisper expects.
type Extractor struct {
	ffmpegPath  string
	ffprobePath string
}

// NewExtractor creates an extractor using the ffmpeg/ffprobe binaries on PATH.
func NewExtractor() *Extractor {
	return &Extractor{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
	}
}

// Probe returns the media duration in seconds using ffprobe.
func (e *Extractor) Probe(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %v", err)
	}

	durationStr := strings.TrimSpace(string(out))
	if durationStr == "" {
		return 0, fmt.Errorf("ffprobe returned empty duration")
	}

	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unparseable duration %q: %v", durationStr, err)
	}

	return duration, nil
}

// Extract converts the source media at inputPath into a 16kHz mono WAV
// at outputPath, reporting the stage fraction in [0,1] through
// onProgress as ffmpeg processes the stream. A failed duration probe
// downgrades progress to indeterminate mode rather than failing the stage.
func (e *Extractor) Extract(ctx context.Context, inputPath, outputPath string, onProgress func(fraction float64, message string)) error {
	duration, err := e.Probe(ctx, inputPath)
	if err != nil {
		log.Printf("Duration probe failed for %s, using indeterminate progress: %v", inputPath, err)
		duration = 0
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-hide_banner",
		"-nostdin",
		"-i", inputPath,
		"-vn",               // drop video stream
		"-ac", "1",          // mono
		"-ar", "16000",      // 16kHz sample rate
		"-c:a", "pcm_s16le", // 16-bit PCM
		"-y",                // overwrite output
		outputPath,
	)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &types.TranscodeError{Summary: "could not attach to transcoder output", Err: err}
	}
	if err := cmd.Start(); err != nil {
		return &types.TranscodeError{Summary: "transcoder tool unavailable", Err: err}
	}

	tracker := newTranscodeProgress(duration)
	var tail []string

	scanner := newProgressScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		tail = append(tail, line)
		if len(tail) > diagTailLines {
			tail = tail[len(tail)-diagTailLines:]
		}

		processed, ok := parseProcessedTime(line)
		if !ok {
			continue
		}
		frac := tracker.update(processed)
		if onProgress != nil {
			onProgress(frac, fmt.Sprintf("Extracting audio: %.1f%%", frac*100))
		}
	}

	if err := scanner.Err(); err != nil {
		// Keep draining so ffmpeg cannot block on a full pipe before Wait.
		log.Printf("Transcoder progress stream read failed: %v", err)
		io.Copy(io.Discard, stderr)
	}

	if err := cmd.Wait(); err != nil {
		return &types.TranscodeError{
			Summary: "transcoder exited with an error",
			Err:     fmt.Errorf("%v\n%s", err, strings.Join(tail, "\n")),
		}
	}

	if _, err := os.Stat(outputPath); err != nil {
		return &types.TranscodeError{
			Summary: "transcoder produced no output artifact",
			Err:     fmt.Errorf("%v\n%s", err, strings.Join(tail, "\n")),
		}
	}

	if onProgress != nil {
		onProgress(1.0, "Audio extraction complete")
	}
	return nil
}

// newProgressScanner builds a scanner for ffmpeg's stderr with room
// for oversized diagnostic lines.
func newProgressScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(scanProgressLines)
	return scanner
}

// scanProgressLines splits on both \n and \r, because ffmpeg rewrites
// its progress line in place with carriage returns.
func scanProgressLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
