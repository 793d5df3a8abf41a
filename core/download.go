package core

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultWorkers = 8
	DefaultRetries = 3
	DefaultBackoff = 500 * time.Millisecond
)

// TaskKind is the kind of artifact a DownloadTask fetches
type TaskKind string

const (
	KindClient     TaskKind = "client"
	KindLibrary    TaskKind = "library"
	KindNative     TaskKind = "native"
	KindAssetIndex TaskKind = "asset-index"
	KindLogConfig  TaskKind = "log-config"
	KindAsset      TaskKind = "asset"
)

// DownloadTask is one artifact to place at Dest
type DownloadTask struct {
	// ID identifies the artifact; tasks with the same ID are fetched once
	ID   string
	Kind TaskKind
	URL  string
	Dest string
	// HashFormat defaults to sha1
	HashFormat string
	// Hash is the expected hex encoded hash; when empty any existing file is accepted
	Hash string
	// Size is the expected size in bytes, or 0 if unknown
	Size int64
	// Optional artifacts don't fail the run when they can't be downloaded
	Optional bool
}

// DownloadStatus is the outcome of a DownloadTask
type DownloadStatus int

const (
	// StatusCached means a valid file was already in place
	StatusCached DownloadStatus = iota
	StatusDownloaded
	StatusFailed
	StatusCancelled
)

func (s DownloadStatus) String() string {
	switch s {
	case StatusCached:
		return "cached"
	case StatusDownloaded:
		return "downloaded"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

type CompletedDownload struct {
	Task   DownloadTask
	Status DownloadStatus
	// Attempts is the number of fetches made; 0 for cached files
	Attempts int
	// Error indicates if/why downloading this file failed
	Error error
}

// DownloadResults holds the outcome of every task, keyed by task ID
type DownloadResults map[string]CompletedDownload

// Failures returns the failed downloads, ordered by ID
func (r DownloadResults) Failures() []CompletedDownload {
	var out []CompletedDownload
	for _, c := range r {
		if c.Status == StatusFailed {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b CompletedDownload) int {
		return strings.Compare(a.Task.ID, b.Task.ID)
	})
	return out
}

// MandatoryFailure joins the errors of every task that isn't optional and didn't end with a
// valid file, whether it failed or was cancelled
func (r DownloadResults) MandatoryFailure() error {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	var errs []error
	for _, id := range ids {
		c := r[id]
		if c.Task.Optional || c.Status == StatusDownloaded || c.Status == StatusCached {
			continue
		}
		err := c.Error
		if err == nil {
			err = fmt.Errorf("%s was not downloaded (%s)", id, c.Status)
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Fetched returns the number of artifacts that were fetched over the network
func (r DownloadResults) Fetched() int {
	n := 0
	for _, c := range r {
		if c.Status == StatusDownloaded {
			n++
		}
	}
	return n
}

// ProgressEvent reports the bytes transferred for one artifact
type ProgressEvent struct {
	ID    string
	Done  int64
	Total int64
}

// Downloader fetches artifacts concurrently into the content store
type Downloader struct {
	Fetcher Fetcher
	// TempDir holds partial downloads; it must be on the same filesystem as the destinations
	TempDir string
	Workers int
	// Retries is the number of retries after the first attempt
	Retries int
	// Backoff is the delay before the first retry, doubled for each further retry
	Backoff time.Duration
	// Progress is called from the worker goroutines, and must not block
	Progress func(ProgressEvent)
	Logger   *log.Logger

	flight singleflight.Group
}

// NewDownloader creates a Downloader with the default limits
func NewDownloader(f Fetcher, tempDir string, logger *log.Logger) *Downloader {
	return &Downloader{
		Fetcher: f,
		TempDir: tempDir,
		Workers: DefaultWorkers,
		Retries: DefaultRetries,
		Backoff: DefaultBackoff,
		Logger:  orDiscard(logger),
	}
}

// Download ensures every task's file is present and valid. It waits for every task to finish,
// so one failure never stops its siblings; the outcome of each is in the returned results.
// If ctx is cancelled, no further tasks are started, tasks in progress stop at the next read,
// and the error wraps ErrCancelled.
func (d *Downloader) Download(ctx context.Context, tasks []DownloadTask) (DownloadResults, error) {
	var unique []DownloadTask
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if !seen[t.ID] {
			seen[t.ID] = true
			unique = append(unique, t)
		}
	}
	if err := os.MkdirAll(d.TempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temporary download directory: %w", err)
	}

	workers := d.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(unique) {
		workers = len(unique)
	}

	taskChan := make(chan DownloadTask)
	downloads := make(chan CompletedDownload)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				downloads <- d.run(ctx, task)
			}
		}()
	}
	go func() {
		defer close(taskChan)
		for _, t := range unique {
			select {
			case <-ctx.Done():
				return
			case taskChan <- t:
			}
		}
	}()
	go func() {
		wg.Wait()
		close(downloads)
	}()

	results := make(DownloadResults, len(unique))
	for c := range downloads {
		results[c.Task.ID] = c
	}
	for _, t := range unique {
		if _, ok := results[t.ID]; !ok {
			results[t.ID] = CompletedDownload{Task: t, Status: StatusCancelled, Error: ErrCancelled}
		}
	}
	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	return results, nil
}

func (d *Downloader) run(ctx context.Context, task DownloadTask) CompletedDownload {
	if ctx.Err() != nil {
		return CompletedDownload{Task: task, Status: StatusCancelled, Error: ErrCancelled}
	}
	// Overlapping calls for the same artifact share one fetch
	for {
		v, _, _ := d.flight.Do(task.ID, func() (interface{}, error) {
			return d.fetch(ctx, task), nil
		})
		c := v.(CompletedDownload)
		// The shared fetch ran under another caller's context; fetch again under ours
		if c.Status == StatusCancelled && ctx.Err() == nil {
			continue
		}
		c.Task = task
		return c
	}
}

func (d *Downloader) fetch(ctx context.Context, task DownloadTask) CompletedDownload {
	logger := orDiscard(d.Logger)
	format := task.HashFormat
	if format == "" {
		format = DefaultHashFormat
	}

	if task.Hash == "" {
		logger.Warn("no checksum to verify download against", "id", task.ID, "url", task.URL)
	}
	if d.isValid(task, format) {
		logger.Debug("cached", "id", task.ID)
		d.progress(task.ID, task.Size, task.Size)
		return CompletedDownload{Task: task, Status: StatusCached}
	}

	var err error
	attempts := 0
	for attempt := 0; attempt <= d.Retries; attempt++ {
		if attempt > 0 {
			wait := d.Backoff << (attempt - 1)
			logger.Debug("retrying download", "id", task.ID, "attempt", attempt+1, "wait", wait, "err", err)
			select {
			case <-ctx.Done():
				return CompletedDownload{Task: task, Status: StatusCancelled, Attempts: attempts, Error: ErrCancelled}
			case <-time.After(wait):
			}
		}
		attempts++
		err = d.attempt(ctx, task, format)
		if err == nil {
			logger.Debug("downloaded", "id", task.ID, "attempts", attempts)
			return CompletedDownload{Task: task, Status: StatusDownloaded, Attempts: attempts}
		}
		if ctx.Err() != nil {
			return CompletedDownload{Task: task, Status: StatusCancelled, Attempts: attempts, Error: ErrCancelled}
		}
		if isPermanent(err) {
			break
		}
	}
	logger.Warn("download failed", "id", task.ID, "url", task.URL, "err", err)
	return CompletedDownload{
		Task:     task,
		Status:   StatusFailed,
		Attempts: attempts,
		Error:    &DownloadError{ID: task.ID, URL: task.URL, Attempts: attempts, Err: err},
	}
}

// isValid checks whether the destination already holds the expected file
func (d *Downloader) isValid(task DownloadTask, format string) bool {
	info, err := os.Stat(task.Dest)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if task.Size > 0 && info.Size() != task.Size {
		return false
	}
	if task.Hash == "" {
		return true
	}
	sum, err := HashFile(task.Dest, format)
	return err == nil && strings.EqualFold(sum, task.Hash)
}

// attempt makes one fetch into the partial file, resuming from whatever it already holds,
// and moves it onto the destination once verified
func (d *Downloader) attempt(ctx context.Context, task DownloadTask, format string) error {
	part := d.partPath(task)
	h, err := GetHashImpl(format)
	if err != nil {
		return &permanentError{err}
	}

	var offset int64
	if info, err := os.Stat(part); err == nil {
		offset = info.Size()
		if task.Size > 0 && offset >= task.Size {
			offset = 0
		}
	}
	if offset > 0 {
		if err := hashPrefix(h, part, offset); err != nil {
			offset = 0
			h.Reset()
		}
	}

	resp, err := d.Fetcher.Fetch(ctx, task.URL, offset)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.Offset != offset {
		// The server sent the whole file
		offset = resp.Offset
		h.Reset()
	}
	total := task.Size
	if total <= 0 && resp.Size > 0 {
		total = resp.Size
	}

	f, err := os.OpenFile(part, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temporary file for download: %w", err)
	}
	if err := f.Truncate(offset); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to truncate temporary file: %w", err)
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to seek temporary file: %w", err)
	}

	done := offset
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			_ = f.Close()
			return err
		}
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				_ = f.Close()
				return fmt.Errorf("failed to write temporary file: %w", err)
			}
			h.Write(buf[:n])
			done += int64(n)
			d.progress(task.ID, done, total)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = f.Close()
			return readErr
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if task.Size > 0 && done < task.Size {
		// Kept for the next attempt to resume
		return fmt.Errorf("transfer ended after %d of %d bytes", done, task.Size)
	}
	if task.Size > 0 && done > task.Size {
		_ = os.Remove(part)
		return fmt.Errorf("%w: received %d bytes, expected %d", errHashMismatch, done, task.Size)
	}
	if task.Hash != "" {
		sum := hex.EncodeToString(h.Sum(nil))
		if !strings.EqualFold(sum, task.Hash) {
			_ = os.Remove(part)
			return fmt.Errorf("%w: got %s %s, expected %s", errHashMismatch, format, sum, task.Hash)
		}
	}

	if err := os.MkdirAll(filepath.Dir(task.Dest), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", task.Dest, err)
	}
	if err := os.Rename(part, task.Dest); err != nil {
		return fmt.Errorf("failed to move download into place: %w", err)
	}
	return nil
}

// partPath names the partial file after the artifact's ID and expected hash, so a leftover
// from another revision of the same artifact is never resumed
func (d *Downloader) partPath(task DownloadTask) string {
	sum := sha1.Sum([]byte(task.ID + "\x00" + task.Hash))
	return filepath.Join(d.TempDir, hex.EncodeToString(sum[:])+".part")
}

func (d *Downloader) progress(id string, done, total int64) {
	if d.Progress != nil {
		d.Progress(ProgressEvent{ID: id, Done: done, Total: total})
	}
}

func hashPrefix(w io.Writer, path string, n int64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.CopyN(w, f, n)
	return err
}
