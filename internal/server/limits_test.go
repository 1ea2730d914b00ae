package server_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/go-value-encoder/internal/encoder"
	"github.com/example/go-value-encoder/internal/server"
	"github.com/example/go-value-encoder/internal/testutil"
)

// ---------------------------------------------------------------------------
// Request size and batch limits
// ---------------------------------------------------------------------------

func TestTransform_OversizedBodyRejectedAs413(t *testing.T) {
	h := newTextHandler(t, server.WithMaxInputBytes(32))

	body := `{"values":"` + strings.Repeat("a", 64) + `"}`

	rec := postJSON(h, "/transform", body)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("want 413, got %d", rec.Code)
	}
}

func TestTransform_BodyAtLimitIsAccepted(t *testing.T) {
	body := `{"values":"abc"}`
	h := newTextHandler(t, server.WithMaxInputBytes(len(body)))

	rec := postJSON(h, "/transform", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d (body %s)", rec.Code, rec.Body.String())
	}
}

func TestTransform_BatchOverLimitRejectedAs413(t *testing.T) {
	h := newTextHandler(t, server.WithMaxBatch(2))

	rec := postJSON(h, "/transform", `{"values":["a","b","c"]}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("want 413, got %d", rec.Code)
	}

	rec = postJSON(h, "/transform", `{"values":["a","b"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 at the limit, got %d", rec.Code)
	}
}

func TestInverse_RowsOverLimitRejectedAs413(t *testing.T) {
	h := newTextHandler(t, server.WithMaxBatch(1))

	rec := postJSON(h, "/inverse", `{"indices":[[0],[1]]}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("want 413, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// Worker pool / concurrency throttling
// ---------------------------------------------------------------------------

// blockingEncoder wraps a fitted encoder and parks every transform until
// release is closed.
type blockingEncoder struct {
	*encoder.Encoder

	mu      sync.Mutex
	peak    int
	current int32
	entered chan struct{}
	release chan struct{}
}

func (b *blockingEncoder) TransformOne(seq encoder.Sequence, opts ...encoder.TransformOption) (*encoder.Array, error) {
	n := int(atomic.AddInt32(&b.current, 1))
	defer atomic.AddInt32(&b.current, -1)

	b.mu.Lock()
	if n > b.peak {
		b.peak = n
	}
	b.mu.Unlock()

	if b.entered != nil {
		b.entered <- struct{}{}
	}
	<-b.release

	return b.Encoder.TransformOne(seq, opts...)
}

func TestTransform_ConcurrencyThrottling(t *testing.T) {
	const workers = 2
	const totalRequests = 5

	enc := &blockingEncoder{
		Encoder: testutil.FitEncoder(t, encoder.Text("abc")),
		release: make(chan struct{}),
	}

	h := server.NewHandler(enc, server.WithWorkers(workers))

	var wg sync.WaitGroup

	codes := make([]int, totalRequests)
	for i := range totalRequests {
		wg.Add(1)

		go func(idx int) {
			defer wg.Done()

			codes[idx] = postJSON(h, "/transform", `{"values":"abc"}`).Code
		}(i)
	}

	// Give goroutines time to reach the encoder.
	time.Sleep(50 * time.Millisecond)
	close(enc.release)
	wg.Wait()

	enc.mu.Lock()
	got := enc.peak
	enc.mu.Unlock()

	if got > workers {
		t.Errorf("peak concurrency %d exceeded worker limit %d", got, workers)
	}

	for i, code := range codes {
		if code != http.StatusOK {
			t.Errorf("request %d: want 200, got %d", i, code)
		}
	}
}

func TestTransform_WaiterTimesOutWhileThrottled(t *testing.T) {
	enc := &blockingEncoder{
		Encoder: testutil.FitEncoder(t, encoder.Text("abc")),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	defer close(enc.release)

	h := server.NewHandler(enc,
		server.WithWorkers(1),
		server.WithRequestTimeout(20*time.Millisecond),
	)

	go postJSON(h, "/transform", `{"values":"abc"}`)
	<-enc.entered

	rec := postJSON(h, "/transform", `{"values":"abc"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503 while the only worker is busy, got %d", rec.Code)
	}
}

func TestTransform_WaiterCancelledWhileThrottled(t *testing.T) {
	enc := &blockingEncoder{
		Encoder: testutil.FitEncoder(t, encoder.Text("abc")),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	defer close(enc.release)

	h := server.NewHandler(enc, server.WithWorkers(1))

	go postJSON(h, "/transform", `{"values":"abc"}`)
	<-enc.entered

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequestWithContext(ctx, http.MethodPost, "/transform", bytes.NewBufferString(`{"values":"abc"}`))
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503 for cancelled waiter, got %d", rec.Code)
	}
}
