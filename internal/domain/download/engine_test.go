package download

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchpad-sh/launchpad/internal/ports"
)

func TestEngine_FetchAll_Success(t *testing.T) {
	t.Parallel()

	body := []byte("hello world")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	fs := ports.NewMockFileSystem()
	e := New(fs, Config{})

	results := e.FetchAll(context.Background(), []Task{
		{URL: srv.URL, DestPath: "/cache/a.tar.xz"},
	})

	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	data, err := fs.ReadFile("/cache/a.tar.xz")
	require.NoError(t, err)
	assert.Equal(t, body, data)
}

func TestEngine_FetchAll_ChecksumMismatchNotRetried(t *testing.T) {
	t.Parallel()

	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		fmt.Fprint(w, "wrong content")
	}))
	defer srv.Close()

	fs := ports.NewMockFileSystem()
	e := New(fs, Config{InitialRetryDelayMs: 1})

	results := e.FetchAll(context.Background(), []Task{
		{URL: srv.URL, DestPath: "/cache/a.tar.xz", Integrity: sha256Hex([]byte("right content"))},
	})

	require.Len(t, results, 1)
	require.Error(t, results[0].Err)
	assert.Equal(t, 1, attempts)
}

func TestEngine_FetchAll_RetriesTransientFailure(t *testing.T) {
	t.Parallel()

	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	fs := ports.NewMockFileSystem()
	e := New(fs, Config{InitialRetryDelayMs: 1, MaxRetries: 3})

	results := e.FetchAll(context.Background(), []Task{
		{URL: srv.URL, DestPath: "/cache/a.tar.xz"},
	})

	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, 3, attempts)
}

func TestEngine_Concurrency(t *testing.T) {
	t.Parallel()

	fs := ports.NewMockFileSystem()
	e := New(fs, Config{MaxConcurrent: 2})
	assert.LessOrEqual(t, e.concurrency(10), 2)
	assert.LessOrEqual(t, e.concurrency(1), 1)
}
