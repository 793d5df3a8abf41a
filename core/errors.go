package core

import (
	"errors"
	"fmt"
)

// Errors returned by the launch pipeline. Callers should match them with errors.Is; the
// returned errors wrap these with the version, artifact or path they concern.
var (
	ErrManifestNotFound      = errors.New("manifest not found")
	ErrManifestCorrupt       = errors.New("manifest corrupt")
	ErrNoArtifactForPlatform = errors.New("no artifact for platform")
	ErrDownloadFailed        = errors.New("download failed")
	ErrExtractionFailed      = errors.New("extraction failed")
	ErrNoRuntimeFound        = errors.New("no java runtime found")
	ErrRuntimeTooOld         = errors.New("java runtime too old")
	ErrInsufficientMemory    = errors.New("insufficient memory")
	ErrEmptyClasspath        = errors.New("empty classpath")
	ErrCancelled             = errors.New("cancelled")
)

// DownloadError is returned for an artifact that could not be downloaded after all retries
type DownloadError struct {
	ID       string
	URL      string
	Attempts int
	Err      error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download of %s from %s failed after %d attempt(s): %v", e.ID, e.URL, e.Attempts, e.Err)
}

// Unwrap allows errors.Is to match both ErrDownloadFailed and the underlying cause
func (e *DownloadError) Unwrap() []error {
	return []error{ErrDownloadFailed, e.Err}
}

// errHashMismatch is retried by the downloader; it only escapes wrapped in a DownloadError
var errHashMismatch = errors.New("hash mismatch")

// permanentError marks a fetch failure that retrying cannot fix (e.g. HTTP 404)
type permanentError struct{ Err error }

func (e *permanentError) Error() string { return e.Err.Error() }
func (e *permanentError) Unwrap() error { return e.Err }

func isPermanent(err error) bool {
	return errors.As(err, new(*permanentError))
}
