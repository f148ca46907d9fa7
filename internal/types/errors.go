package types

import "fmt"

// Error codes surfaced to clients
const (
	CodeTranscodeError     = "TRANSCODE_ERROR"
	CodeTranscriptionError = "TRANSCRIPTION_ERROR"
	CodeInternalError      = "INTERNAL_ERROR"
)

// TranscodeError is a stage-1 failure. Summary is safe to show to
// clients; Err holds the full diagnostic and stays in the logs.
type TranscodeError struct {
	Summary string
	Err     error
}

func (e *TranscodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcode: %s: %v", e.Summary, e.Err)
	}
	return "transcode: " + e.Summary
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// TranscriptionError is a stage-2 failure with the same split between
// public summary and internal diagnostic.
type TranscriptionError struct {
	Summary string
	Err     error
}

func (e *TranscriptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcription: %s: %v", e.Summary, e.Err)
	}
	return "transcription: " + e.Summary
}

func (e *TranscriptionError) Unwrap() error { return e.Err }
