package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestFetcher(retries int) *Fetcher {
	f := New(5*time.Second, retries, zerolog.Nop())
	f.backoff.InitialInterval = time.Millisecond
	f.backoff.MaxInterval = 5 * time.Millisecond
	return f
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer srv.Close()

	body, err := newTestFetcher(3).Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(body) != `{"type":"FeatureCollection","features":[]}` {
		t.Fatalf("unexpected body %q", body)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher(3).Get(context.Background(), srv.URL)
	if !errors.Is(err, errUnexpected) {
		t.Fatalf("expected unexpected status error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestDownloadWritesTempFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("CDF\x01"))
	}))
	defer srv.Close()

	path, err := newTestFetcher(0).Download(context.Background(), srv.URL, "ensemble-*.nc")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer func() { _ = os.Remove(path) }()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read temp file: %v", err)
	}
	if string(data) != "CDF\x01" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestIsRemote(t *testing.T) {
	if !IsRemote("https://example.org/basins.geojson") || !IsRemote("HTTP://host/x") {
		t.Fatal("expected URLs to be remote")
	}
	if IsRemote("./data/basins.geojson") || IsRemote("/mnt/data/x.nc") {
		t.Fatal("expected paths to be local")
	}
}
