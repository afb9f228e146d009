package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xenking/kiosk-pos/internal/storage/file"
)

func testTelemetry() Telemetry {
	return Telemetry{
		TracerProvider: tracenoop.NewTracerProvider(),
		MeterProvider:  metricnoop.NewMeterProvider(),
	}
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		ReceiptDir: t.TempDir(),
		TaxRate:    "0.06",
		StoreName:  "CORNER CAFE",
		Catalog:    CatalogMemory,
		Health:     HealthConfig{Interval: time.Second},
		Graceful:   GracefulConfig{ShutdownTimeout: time.Second},
	}
}

// syncBuffer is written by the session goroutine and read by the test.
type syncBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}

func TestServe_CheckoutToArchive(t *testing.T) {
	cfg := testConfig(t)
	in := strings.NewReader("menu drink\nadd Coffee 2\ncheckout Alice\nquit\n")
	var out syncBuffer

	err := Serve(context.Background(), zap.NewNop(), cfg, testTelemetry(), in, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "CORNER CAFE")
	assert.Contains(t, out.String(), "Total: 6.36")

	paths, err := file.NewReceiptArchive(cfg.ReceiptDir).List(context.Background())
	require.NoError(t, err)
	require.Len(t, paths, 1)

	lines, err := file.ReadLines(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "CORNER CAFE", lines[0])
	assert.Equal(t, []string{"Subtotal: 6.00", "Tax: 0.36", "Total: 6.36"}, lines[len(lines)-3:])
}

func TestServe_InvalidTaxRate(t *testing.T) {
	cfg := testConfig(t)
	cfg.TaxRate = "-1"

	err := Serve(context.Background(), zap.NewNop(), cfg, testTelemetry(), strings.NewReader(""), io.Discard)
	require.Error(t, err)
}

func TestServe_CancelStopsSession(t *testing.T) {
	cfg := testConfig(t)
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = w.Close()
		_ = r.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, zap.NewNop(), cfg, testTelemetry(), r, io.Discard)
	}()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop after cancel")
	}
}

func TestServe_AdminEndpoints(t *testing.T) {
	cfg := testConfig(t)
	cfg.AdminAddr = "127.0.0.1:0"

	core, logs := observer.New(zap.InfoLevel)
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	done := make(chan error, 1)
	go func() {
		done <- Serve(context.Background(), zap.New(core), cfg, testTelemetry(), r, io.Discard)
	}()

	var addr string
	require.Eventually(t, func() bool {
		entries := logs.FilterMessage("Admin server listening").All()
		if len(entries) == 0 {
			return false
		}
		addr = fmt.Sprint(entries[0].ContextMap()["addr"])
		return true
	}, 5*time.Second, 10*time.Millisecond)

	for _, path := range []string{"/livez", "/readyz"} {
		require.Eventually(t, func() bool {
			resp, err := http.Get("http://" + addr + path)
			if err != nil {
				return false
			}
			_ = resp.Body.Close()
			return resp.StatusCode == http.StatusOK && resp.Header.Get("X-Request-ID") != ""
		}, 5*time.Second, 20*time.Millisecond, path)
	}

	_, err = w.Write([]byte("quit\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop after quit")
	}
}
