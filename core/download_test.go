package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeFetcher serves files from memory
type fakeFetcher struct {
	mu    sync.Mutex
	files map[string][]byte
	calls map[string]int
	// offsets records the offset of every fetch
	offsets map[string][]int64
	// failures is the number of transient failures a URL returns before succeeding
	failures map[string]int
	// ignoreRange makes the fetcher always send the whole file
	ignoreRange bool
	onFetch     func(url string)
}

func newFakeFetcher(files map[string][]byte) *fakeFetcher {
	return &fakeFetcher{
		files:    files,
		calls:    make(map[string]int),
		offsets:  make(map[string][]int64),
		failures: make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, offset int64) (*FetchResponse, error) {
	f.mu.Lock()
	f.calls[url]++
	f.offsets[url] = append(f.offsets[url], offset)
	n := f.calls[url]
	data, ok := f.files[url]
	failures := f.failures[url]
	hook := f.onFetch
	f.mu.Unlock()

	if hook != nil {
		hook(url)
	}
	if !ok {
		return nil, &permanentError{errors.New("invalid response status: 404 Not Found")}
	}
	if n <= failures {
		return nil, errors.New("connection reset by peer")
	}
	if offset > 0 && !f.ignoreRange && offset < int64(len(data)) {
		return &FetchResponse{Body: io.NopCloser(bytes.NewReader(data[offset:])), Offset: offset, Size: int64(len(data))}, nil
	}
	return &FetchResponse{Body: io.NopCloser(bytes.NewReader(data)), Offset: 0, Size: int64(len(data))}, nil
}

func (f *fakeFetcher) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeFetcher) callsTo(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func sha1Hex(t *testing.T, data []byte) string {
	t.Helper()
	sum, err := HashBytes(data, "sha1")
	if err != nil {
		t.Fatal(err)
	}
	return sum
}

type downloadFixture struct {
	dirs       Dirs
	fetcher    *fakeFetcher
	downloader *Downloader
	tasks      []DownloadTask
}

func newDownloadFixture(t *testing.T, names ...string) *downloadFixture {
	t.Helper()
	dirs := Dirs{Root: t.TempDir()}
	files := make(map[string][]byte)
	var tasks []DownloadTask
	for _, name := range names {
		url := "https://example.com/" + name
		data := []byte(strings.Repeat(name+" contents ", 4096))
		files[url] = data
		tasks = append(tasks, DownloadTask{
			ID:   "library:" + name,
			Kind: KindLibrary,
			URL:  url,
			Dest: dirs.Library("g/" + name),
			Hash: sha1Hex(t, data),
			Size: int64(len(data)),
		})
	}
	fetcher := newFakeFetcher(files)
	d := NewDownloader(fetcher, dirs.Temp(), nil)
	d.Backoff = time.Millisecond
	return &downloadFixture{dirs: dirs, fetcher: fetcher, downloader: d, tasks: tasks}
}

// validatedFiles lists the files in the store outside of the temporary directory
func (f *downloadFixture) validatedFiles(t *testing.T) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(f.dirs.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path == f.dirs.Temp() {
			return filepath.SkipDir
		}
		if !d.IsDir() {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestDownloadIsIdempotent(t *testing.T) {
	f := newDownloadFixture(t, "a.jar", "b.jar", "c.jar")
	results, err := f.downloader.Download(context.Background(), f.tasks)
	if err != nil {
		t.Fatal(err)
	}
	if results.Fetched() != 3 || f.fetcher.totalCalls() != 3 {
		t.Fatalf("Expected 3 fetches, got %d (%d calls)", results.Fetched(), f.fetcher.totalCalls())
	}

	results, err = f.downloader.Download(context.Background(), f.tasks)
	if err != nil {
		t.Fatal(err)
	}
	if f.fetcher.totalCalls() != 3 || results.Fetched() != 0 {
		t.Errorf("Expected no fetches on the second run, got %d", f.fetcher.totalCalls()-3)
	}
	for id, c := range results {
		if c.Status != StatusCached {
			t.Errorf("Expected %s to be cached, got %s", id, c.Status)
		}
	}
}

func TestDownloadRecoversFromCorruption(t *testing.T) {
	f := newDownloadFixture(t, "a.jar", "b.jar", "c.jar")
	if _, err := f.downloader.Download(context.Background(), f.tasks); err != nil {
		t.Fatal(err)
	}
	before := make(map[string]time.Time)
	for _, task := range f.tasks {
		info, err := os.Stat(task.Dest)
		if err != nil {
			t.Fatal(err)
		}
		before[task.ID] = info.ModTime()
	}

	corrupted := f.tasks[1]
	data, err := os.ReadFile(corrupted.Dest)
	if err != nil {
		t.Fatal(err)
	}
	data[10] ^= 0xff
	if err := os.WriteFile(corrupted.Dest, data, 0644); err != nil {
		t.Fatal(err)
	}

	results, err := f.downloader.Download(context.Background(), f.tasks)
	if err != nil {
		t.Fatal(err)
	}
	if results.Fetched() != 1 || results[corrupted.ID].Status != StatusDownloaded {
		t.Errorf("Expected only %s to be fetched again, got %d fetches", corrupted.ID, results.Fetched())
	}
	if f.fetcher.callsTo(corrupted.URL) != 2 || f.fetcher.callsTo(f.tasks[0].URL) != 1 || f.fetcher.callsTo(f.tasks[2].URL) != 1 {
		t.Errorf("Unexpected fetches %v", f.fetcher.calls)
	}
	if sum, _ := HashFile(corrupted.Dest, "sha1"); sum != corrupted.Hash {
		t.Error("Expected the corrupted file to be restored")
	}
	for _, task := range []DownloadTask{f.tasks[0], f.tasks[2]} {
		info, err := os.Stat(task.Dest)
		if err != nil {
			t.Fatal(err)
		}
		if !info.ModTime().Equal(before[task.ID]) {
			t.Errorf("Expected %s to be left untouched", task.ID)
		}
	}
}

func TestDownloadRetriesTransientErrors(t *testing.T) {
	f := newDownloadFixture(t, "a.jar")
	f.fetcher.failures[f.tasks[0].URL] = 2
	results, err := f.downloader.Download(context.Background(), f.tasks)
	if err != nil {
		t.Fatal(err)
	}
	c := results[f.tasks[0].ID]
	if c.Status != StatusDownloaded || c.Attempts != 3 {
		t.Errorf("Expected success on the third attempt, got %s after %d", c.Status, c.Attempts)
	}
}

func TestDownloadHashMismatchFails(t *testing.T) {
	f := newDownloadFixture(t, "a.jar", "b.jar")
	bad := f.tasks[0]
	bad.Hash = strings.Repeat("0", 40)
	tasks := []DownloadTask{bad, f.tasks[1]}

	results, err := f.downloader.Download(context.Background(), tasks)
	if err != nil {
		t.Fatal(err)
	}
	c := results[bad.ID]
	if c.Status != StatusFailed || c.Attempts != DefaultRetries+1 {
		t.Errorf("Expected failure after %d attempts, got %s after %d", DefaultRetries+1, c.Status, c.Attempts)
	}
	if !errors.Is(c.Error, ErrDownloadFailed) || !errors.Is(c.Error, errHashMismatch) {
		t.Errorf("Expected a hash mismatch download error, got %v", c.Error)
	}
	var dlErr *DownloadError
	if !errors.As(c.Error, &dlErr) || dlErr.ID != bad.ID {
		t.Errorf("Expected a DownloadError for %s, got %v", bad.ID, c.Error)
	}
	if _, err := os.Stat(bad.Dest); !os.IsNotExist(err) {
		t.Error("Expected no file to be left at the destination of a failed download")
	}

	// The sibling completes regardless
	if results[f.tasks[1].ID].Status != StatusDownloaded {
		t.Errorf("Expected the sibling to be downloaded, got %s", results[f.tasks[1].ID].Status)
	}
	if !errors.Is(results.MandatoryFailure(), ErrDownloadFailed) {
		t.Error("Expected a mandatory failure")
	}
	if len(results.Failures()) != 1 {
		t.Errorf("Expected 1 failure, got %d", len(results.Failures()))
	}
}

func TestDownloadPermanentErrorsAreNotRetried(t *testing.T) {
	f := newDownloadFixture(t, "a.jar")
	missing := DownloadTask{ID: "asset:missing", URL: "https://example.com/missing", Dest: f.dirs.AssetObject(strings.Repeat("ab", 20)), Optional: true}
	results, err := f.downloader.Download(context.Background(), append(f.tasks, missing))
	if err != nil {
		t.Fatal(err)
	}
	if c := results[missing.ID]; c.Status != StatusFailed || c.Attempts != 1 {
		t.Errorf("Expected one attempt for a missing file, got %s after %d", c.Status, c.Attempts)
	}
	if err := results.MandatoryFailure(); err != nil {
		t.Errorf("Expected optional failures to be tolerated, got %v", err)
	}
}

func TestDownloadResumesPartialFiles(t *testing.T) {
	f := newDownloadFixture(t, "a.jar")
	task := f.tasks[0]
	data := f.fetcher.files[task.URL]
	half := int64(len(data) / 2)
	if err := os.MkdirAll(f.dirs.Temp(), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f.downloader.partPath(task), data[:half], 0644); err != nil {
		t.Fatal(err)
	}

	results, err := f.downloader.Download(context.Background(), f.tasks)
	if err != nil {
		t.Fatal(err)
	}
	if results[task.ID].Status != StatusDownloaded {
		t.Fatalf("Expected the download to complete, got %v", results[task.ID].Error)
	}
	if offsets := f.fetcher.offsets[task.URL]; len(offsets) != 1 || offsets[0] != half {
		t.Errorf("Expected one fetch resuming at %d, got %v", half, offsets)
	}
	if sum, _ := HashFile(task.Dest, "sha1"); sum != task.Hash {
		t.Error("Resumed file has the wrong contents")
	}
}

func TestDownloadRestartsWhenRangeIgnored(t *testing.T) {
	f := newDownloadFixture(t, "a.jar")
	f.fetcher.ignoreRange = true
	task := f.tasks[0]
	data := f.fetcher.files[task.URL]
	if err := os.MkdirAll(f.dirs.Temp(), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f.downloader.partPath(task), data[:100], 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := f.downloader.Download(context.Background(), f.tasks); err != nil {
		t.Fatal(err)
	}
	if sum, _ := HashFile(task.Dest, "sha1"); sum != task.Hash {
		t.Error("Expected the whole file to be written when the server ignores the range")
	}
}

func TestDownloadIgnoresStalePartialFiles(t *testing.T) {
	f := newDownloadFixture(t, "a.jar")
	f.downloader.Retries = 0
	task := f.tasks[0]
	// A partial file left by an older revision of the same artifact
	older := task
	older.Hash = sha1Hex(t, []byte("an older revision"))
	if err := os.MkdirAll(f.dirs.Temp(), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f.downloader.partPath(older), []byte(strings.Repeat("old ", 1000)), 0644); err != nil {
		t.Fatal(err)
	}

	results, err := f.downloader.Download(context.Background(), f.tasks)
	if err != nil {
		t.Fatal(err)
	}
	if results[task.ID].Status != StatusDownloaded {
		t.Fatalf("Expected the download to complete, got %v", results[task.ID].Error)
	}
	if offsets := f.fetcher.offsets[task.URL]; len(offsets) != 1 || offsets[0] != 0 {
		t.Errorf("Expected one fetch from the start, got %v", offsets)
	}
}

func TestDownloadWarnsWithoutChecksum(t *testing.T) {
	f := newDownloadFixture(t, "a.jar")
	f.tasks[0].Hash = ""
	var buf bytes.Buffer
	f.downloader.Logger = NewLogger(&buf, false)

	results, err := f.downloader.Download(context.Background(), f.tasks)
	if err != nil {
		t.Fatal(err)
	}
	if results[f.tasks[0].ID].Status != StatusDownloaded {
		t.Fatalf("Expected the download to complete, got %v", results[f.tasks[0].ID].Error)
	}
	if !strings.Contains(buf.String(), "no checksum") {
		t.Errorf("Expected a warning about the missing checksum, got %q", buf.String())
	}
}

func TestDownloadCancellation(t *testing.T) {
	f := newDownloadFixture(t, "a.jar", "b.jar", "c.jar")
	f.downloader.Workers = 1
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.fetcher.onFetch = func(url string) {
		if url == f.tasks[1].URL {
			cancel()
		}
	}

	results, err := f.downloader.Download(ctx, f.tasks)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Expected ErrCancelled, got %v", err)
	}
	if results[f.tasks[0].ID].Status != StatusDownloaded {
		t.Errorf("Expected the first artifact to complete, got %s", results[f.tasks[0].ID].Status)
	}
	for _, task := range f.tasks[1:] {
		if results[task.ID].Status != StatusCancelled {
			t.Errorf("Expected %s to be cancelled, got %s", task.ID, results[task.ID].Status)
		}
	}
	files := f.validatedFiles(t)
	if len(files) != 1 || files[0] != f.tasks[0].Dest {
		t.Errorf("Expected exactly one validated file, got %v", files)
	}
}

func TestDownloadDeduplicates(t *testing.T) {
	f := newDownloadFixture(t, "a.jar")
	tasks := []DownloadTask{f.tasks[0], f.tasks[0]}
	results, err := f.downloader.Download(context.Background(), tasks)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || f.fetcher.totalCalls() != 1 {
		t.Errorf("Expected one result and one fetch, got %d results and %d fetches", len(results), f.fetcher.totalCalls())
	}

	// Overlapping runs share the fetch of the same artifact
	g := newDownloadFixture(t, "b.jar")
	gate := make(chan struct{})
	g.fetcher.onFetch = func(string) { <-gate }
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.downloader.Download(context.Background(), g.tasks); err != nil {
				t.Error(err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()
	if g.fetcher.totalCalls() != 1 {
		t.Errorf("Expected overlapping runs to fetch once, got %d", g.fetcher.totalCalls())
	}
}

func TestDownloadSharedFetchSurvivesCancelledRun(t *testing.T) {
	f := newDownloadFixture(t, "a.jar")
	task := f.tasks[0]
	started := make(chan struct{})
	gate := make(chan struct{})
	var once sync.Once
	f.fetcher.onFetch = func(string) {
		first := false
		once.Do(func() { first = true })
		if first {
			close(started)
			<-gate
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var cancelledErr error
	cancelledDone := make(chan struct{})
	go func() {
		defer close(cancelledDone)
		_, cancelledErr = f.downloader.Download(ctx, f.tasks)
	}()
	<-started

	var results DownloadResults
	var err error
	done := make(chan struct{})
	go func() {
		defer close(done)
		results, err = f.downloader.Download(context.Background(), f.tasks)
	}()
	// Let the second run join the fetch of the first
	time.Sleep(20 * time.Millisecond)
	cancel()
	close(gate)
	<-cancelledDone
	<-done

	if !errors.Is(cancelledErr, ErrCancelled) {
		t.Errorf("Expected the cancelled run to return ErrCancelled, got %v", cancelledErr)
	}
	if err != nil {
		t.Fatal(err)
	}
	if results[task.ID].Status != StatusDownloaded {
		t.Fatalf("Expected the second run to download the artifact, got %s", results[task.ID].Status)
	}
	if err := results.MandatoryFailure(); err != nil {
		t.Errorf("Expected no mandatory failure, got %v", err)
	}
	if sum, _ := HashFile(task.Dest, "sha1"); sum != task.Hash {
		t.Error("Expected a validated file after the second run")
	}
}

func TestMandatoryFailureIncludesCancelled(t *testing.T) {
	results := DownloadResults{
		"a": {Task: DownloadTask{ID: "a"}, Status: StatusDownloaded},
		"b": {Task: DownloadTask{ID: "b"}, Status: StatusCancelled, Error: ErrCancelled},
		"c": {Task: DownloadTask{ID: "c", Optional: true}, Status: StatusCancelled, Error: ErrCancelled},
	}
	if err := results.MandatoryFailure(); !errors.Is(err, ErrCancelled) {
		t.Errorf("Expected a cancelled mandatory task to be a failure, got %v", err)
	}
	delete(results, "b")
	if err := results.MandatoryFailure(); err != nil {
		t.Errorf("Expected optional tasks to be ignored, got %v", err)
	}
}

func TestDownloadProgress(t *testing.T) {
	f := newDownloadFixture(t, "a.jar")
	var mu sync.Mutex
	var last ProgressEvent
	f.downloader.Progress = func(e ProgressEvent) {
		mu.Lock()
		last = e
		mu.Unlock()
	}
	if _, err := f.downloader.Download(context.Background(), f.tasks); err != nil {
		t.Fatal(err)
	}
	if last.ID != f.tasks[0].ID || last.Done != f.tasks[0].Size || last.Total != f.tasks[0].Size {
		t.Errorf("Expected a final progress event for the whole file, got %+v", last)
	}
}
