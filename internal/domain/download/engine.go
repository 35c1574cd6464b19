// Package download implements the parallel fetch engine: retrying,
// backing off, verifying integrity, and reporting progress for a batch of
// tarball downloads, per spec.md §4.5.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/launchpad-sh/launchpad/internal/domain/lperr"
	"github.com/launchpad-sh/launchpad/internal/ports"
)

// Task is one file to fetch.
type Task struct {
	URL       string
	DestPath  string
	Integrity string // optional expected sha256, hex-encoded
	Domain    string // for progress/error labeling
}

// Result is the outcome of one Task.
type Result struct {
	Task  Task
	Bytes int64
	Err   error
}

// ProgressFunc is invoked at most every 100ms per task with byte counts
// while bytes arrive, and once more when the body has been read in full;
// total is -1 when Content-Length was unknown (spec §4.5).
type ProgressFunc func(task Task, downloaded, total int64)

// Config tunes the engine's concurrency and retry behavior.
type Config struct {
	MaxConcurrent       int
	MaxRetries          int
	InitialRetryDelayMs int
	Client              *http.Client
	Progress            ProgressFunc
}

const (
	defaultMaxRetries          = 3
	defaultInitialRetryDelayMs = 1000
	hardConcurrencyCap         = 32
)

// Engine downloads a batch of tasks in parallel with retry and integrity
// checking.
type Engine struct {
	fs     ports.FileSystem
	client *http.Client
	cfg    Config
}

// New builds an Engine. fs is used for writing, renaming and removing
// destination files; each response body is read into memory and then
// written with fs.WriteFile, since ports.FileSystem has no streaming-write
// primitive.
func New(fs ports.FileSystem, cfg Config) *Engine {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.InitialRetryDelayMs == 0 {
		cfg.InitialRetryDelayMs = defaultInitialRetryDelayMs
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Engine{fs: fs, client: cfg.Client, cfg: cfg}
}

// concurrency computes min(tasks, cpu_count, max_concurrent, 32), per spec
// §4.5's worker-stealing pool sizing rule.
func (e *Engine) concurrency(taskCount int) int {
	n := taskCount
	if cpu := runtime.NumCPU(); cpu < n {
		n = cpu
	}
	if e.cfg.MaxConcurrent > 0 && e.cfg.MaxConcurrent < n {
		n = e.cfg.MaxConcurrent
	}
	if n > hardConcurrencyCap {
		n = hardConcurrencyCap
	}
	if n < 1 {
		n = 1
	}
	return n
}

// FetchAll downloads every task, returning one Result per task in input
// order. A ChecksumMismatch on one task does not cancel the others:
// downloads are independent per package (spec §4.5/§7).
func (e *Engine) FetchAll(ctx context.Context, tasks []Task) []Result {
	results := make([]Result, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency(len(tasks)))

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			bytesWritten, err := e.fetchWithRetry(gctx, task)
			results[i] = Result{Task: task, Bytes: bytesWritten, Err: err}
			return nil // never abort sibling downloads
		})
	}
	_ = g.Wait()

	return results
}

// fetchWithRetry skips the fetch when a complete archive already at
// DestPath matches task.Integrity (partial downloads are not resumed),
// retries transient errors with doubling backoff, and verifies integrity.
func (e *Engine) fetchWithRetry(ctx context.Context, task Task) (int64, error) {
	if task.Integrity != "" && e.fs.Exists(task.DestPath) {
		if ok, _ := e.verify(task.DestPath, task.Integrity); ok {
			return 0, nil // already staged and valid; resume skips the fetch
		}
	}

	delay := time.Duration(e.cfg.InitialRetryDelayMs) * time.Millisecond
	var lastErr error
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		n, err := e.fetchOnce(ctx, task)
		if err == nil {
			return n, nil
		}
		if isChecksumMismatch(err) {
			return 0, err // fatal, not retried
		}
		lastErr = err
	}
	return 0, lperr.Wrap(lperr.KindTransport, fmt.Sprintf("download %s", task.URL), lastErr)
}

func (e *Engine) fetchOnce(ctx context.Context, task Task) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download: %s returned %s", task.URL, resp.Status)
	}

	total := resp.ContentLength // -1 when unknown; progress callback handles that

	tmpPath := task.DestPath + ".part"
	data, n, err := readWithProgress(resp.Body, total, e.cfg.Progress, task)
	if err != nil {
		return 0, err
	}
	if err := e.fs.WriteFile(tmpPath, data, 0o644); err != nil {
		return 0, err
	}

	if task.Integrity != "" {
		ok, sum := e.verify(tmpPath, task.Integrity)
		if !ok {
			_ = e.fs.Remove(tmpPath)
			return 0, lperr.New(lperr.KindIntegrity, fmt.Sprintf("checksum mismatch for %s: got %s", task.URL, sum)).
				WithContext(task.Domain)
		}
	}

	if err := e.fs.Rename(tmpPath, task.DestPath); err != nil {
		return 0, err
	}
	return n, nil
}

func (e *Engine) verify(path, expected string) (bool, string) {
	sum, err := e.fs.FileHash(path)
	if err != nil {
		return false, ""
	}
	return sum == expected, sum
}

func isChecksumMismatch(err error) bool {
	var ue *lperr.UserError
	return err != nil && errors.As(err, &ue) && ue.Kind == lperr.KindIntegrity
}

// readWithProgress drains r into memory while invoking progress at most
// every 100ms, per spec §4.5. Buffered in memory rather than streamed
// straight to a file handle because ports.FileSystem only exposes
// whole-file WriteFile, matching the teacher's filesystem port shape.
func readWithProgress(r io.Reader, total int64, progress ProgressFunc, task Task) ([]byte, int64, error) {
	buf := make([]byte, 0, maxInt64(total, 64*1024))
	chunk := make([]byte, 32*1024)
	var downloaded int64
	lastReport := time.Time{}

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			downloaded += int64(n)
			if progress != nil && time.Since(lastReport) >= 100*time.Millisecond {
				progress(task, downloaded, total)
				lastReport = time.Now()
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, downloaded, err
		}
	}
	if progress != nil {
		progress(task, downloaded, total)
	}
	return buf, downloaded, nil
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// sha256Hex is exposed for callers (e.g. tests) that need to precompute an
// expected integrity value from raw bytes.
func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
