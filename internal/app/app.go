// Package app wires the kiosk: configuration, storage, checkout, health and
// the terminal session.
package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/kiosk-pos/internal/domain/menu"
	"github.com/xenking/kiosk-pos/internal/domain/order"
	"github.com/xenking/kiosk-pos/internal/domain/receipt"
	"github.com/xenking/kiosk-pos/internal/session"
	"github.com/xenking/kiosk-pos/internal/storage/file"
	"github.com/xenking/kiosk-pos/internal/storage/memory"
	"github.com/xenking/kiosk-pos/internal/storage/postgres"
	"github.com/xenking/kiosk-pos/pkg/health"
	"github.com/xenking/kiosk-pos/pkg/httpmiddleware"
)

// Telemetry carries the providers used for instrumentation.
type Telemetry struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Run starts the kiosk on the process terminal.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	return Serve(ctx, lg, cfg, Telemetry{
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
	}, os.Stdin, os.Stdout)
}

// Serve builds every dependency from cfg and runs the session on in/out
// until the user quits or ctx is cancelled. The admin server, when
// configured, stops with the session.
func Serve(ctx context.Context, lg *zap.Logger, cfg *Config, tel Telemetry, in io.Reader, out io.Writer) error {
	lg.Info("Initializing",
		zap.String("receipt_dir", cfg.ReceiptDir),
		zap.String("catalog", cfg.Catalog),
		zap.Bool("record_store", cfg.DatabaseURL != ""),
		zap.String("tax_rate", cfg.TaxRate),
	)

	calc, err := cfg.TaxCalculator()
	if err != nil {
		return errors.Wrap(err, "tax calculator")
	}
	renderer := receipt.NewService(calc, receipt.WithTitle(cfg.StoreName))
	archive := file.NewReceiptArchive(cfg.ReceiptDir)

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("receipt-dir", 2*time.Second, health.DirWritableCheck(cfg.ReceiptDir))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	orderOpts := []order.Option{
		order.WithLogger(lg.Named("order")),
		order.WithTracerProvider(tel.TracerProvider),
		order.WithMeterProvider(tel.MeterProvider),
	}

	var catalog menu.Repository = memory.DefaultCatalog()
	if cfg.DatabaseURL != "" {
		// The pool connects lazily, so an unreachable database surfaces as a
		// failed checkout instead of a failed start.
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "create db pool")
		}
		defer pool.Close()

		healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
		orderOpts = append(orderOpts, order.WithStore(postgres.NewReceiptStore(pool)))

		if cfg.Catalog == CatalogPostgres {
			if err := postgres.RunMigrations(ctx, pool); err != nil {
				return errors.Wrap(err, "prepare catalog")
			}
			catalog = postgres.NewCatalogRepository(pool)
		}
	}

	orderSvc, err := order.NewService(renderer, archive, orderOpts...)
	if err != nil {
		return errors.Wrap(err, "create order service")
	}
	sess := session.New(catalog, orderSvc, renderer,
		session.WithLogger(lg.Named("session")),
		session.WithStatus(healthSvc),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	healthSvc.Start(ctx, cfg.Health.Interval)
	defer healthSvc.Stop()
	healthSvc.SetReady(true)

	g, ctx := errgroup.WithContext(ctx)
	if cfg.AdminAddr != "" {
		ln, err := net.Listen("tcp", cfg.AdminAddr)
		if err != nil {
			return errors.Wrap(err, "listen admin")
		}
		server := newAdminServer(lg, healthSvc, tel)

		g.Go(func() error {
			lg.Info("Admin server listening", zap.Stringer("addr", ln.Addr()))
			if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "admin server")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			healthSvc.SetReady(false)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				lg.Error("Admin server shutdown error", zap.Error(err))
			}
			return nil
		})
	}
	g.Go(func() error {
		defer cancel()
		err := sess.Run(ctx, in, out)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	lg.Info("Kiosk stopped")
	return nil
}

func newAdminServer(lg *zap.Logger, h *health.Health, tel Telemetry) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", h.LiveEndpoint)
	mux.HandleFunc("/readyz", h.ReadyEndpoint)

	return &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.InjectLogger(lg.Named("admin")),
			httpmiddleware.Recovery(),
			httpmiddleware.RequestID(),
			httpmiddleware.Instrument("kiosk-admin", tel.TracerProvider, tel.MeterProvider),
			httpmiddleware.LogRequests(),
		),
	}
}
