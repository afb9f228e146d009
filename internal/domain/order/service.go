package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/kiosk-pos/internal/domain/cart"
	"github.com/xenking/kiosk-pos/internal/domain/errs"
	"github.com/xenking/kiosk-pos/internal/domain/receipt"
)

const instrumentationName = "github.com/xenking/kiosk-pos/internal/domain/order"

// Sentinel errors for checkout validation.
var (
	ErrEmptyCart        = errors.Wrap(errs.ErrInvalidInput, "cart is empty")
	ErrCustomerRequired = errors.Wrap(errs.ErrInvalidInput, "customer name is required")
)

// Renderer turns a cart into receipt lines and a summary.
type Renderer interface {
	Render(c *cart.Cart) receipt.Receipt
}

// Result holds the output of a successful checkout.
type Result struct {
	Order *Order
	// Lines is the rendered receipt text as archived.
	Lines       []string
	ReceiptPath string
	// ReceiptID is the record store identifier, zero when no store is configured.
	ReceiptID int64
}

// Option configures a Service.
type Option func(*Service)

// WithStore additionally saves every receipt to a record store.
func WithStore(store receipt.Store) Option {
	return func(s *Service) { s.store = store }
}

func WithLogger(lg *zap.Logger) Option {
	return func(s *Service) { s.lg = lg }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = mp }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracerProvider = tp }
}

// Service checks out carts: it snapshots the order, renders the receipt and
// persists it to the archive and, when configured, the record store.
type Service struct {
	renderer Renderer
	archive  receipt.Archive
	store    receipt.Store

	lg    *zap.Logger
	now   func() time.Time
	newID func() string

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	checkouts      metric.Int64Counter
	failures       metric.Int64Counter
}

// NewService creates an order Service.
func NewService(renderer Renderer, archive receipt.Archive, opts ...Option) (*Service, error) {
	s := &Service{
		renderer:       renderer,
		archive:        archive,
		lg:             zap.NewNop(),
		now:            time.Now,
		newID:          func() string { return uuid.New().String() },
		meterProvider:  metricnoop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
	}
	for _, o := range opts {
		o(s)
	}

	meter := s.meterProvider.Meter(instrumentationName)
	var err error
	if s.checkouts, err = meter.Int64Counter("kiosk.checkouts",
		metric.WithDescription("Completed checkouts"),
	); err != nil {
		return nil, errors.Wrap(err, "create checkouts counter")
	}
	if s.failures, err = meter.Int64Counter("kiosk.checkout.failures",
		metric.WithDescription("Checkouts that failed to persist a receipt"),
	); err != nil {
		return nil, errors.Wrap(err, "create failures counter")
	}
	s.tracer = s.tracerProvider.Tracer(instrumentationName)

	return s, nil
}

// Checkout snapshots c into an Order and persists its receipt. The cart is
// cleared only after every configured sink has saved the receipt; on any
// error it is left untouched so the caller may retry or abandon.
func (s *Service) Checkout(ctx context.Context, c *cart.Cart, customerName string) (_ *Result, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Checkout")
	defer func() {
		if rerr != nil {
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		span.End()
	}()

	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return nil, ErrCustomerRequired
	}

	r := s.renderer.Render(c)
	o := &Order{
		ID:           s.newID(),
		CustomerName: customerName,
		CreatedAt:    s.now(),
		Lines:        c.Items(),
		Subtotal:     r.Summary.Subtotal,
		Tax:          r.Summary.Tax,
		Total:        r.Summary.Total,
	}
	span.SetAttributes(
		attribute.String("order.id", o.ID),
		attribute.Int("order.lines", len(o.Lines)),
	)
	lg := s.lg.With(zap.String("order_id", o.ID))

	path, err := s.archive.Save(ctx, r.Lines)
	if err != nil {
		s.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("sink", "archive")))
		lg.Error("Receipt archive failed", zap.Error(err))
		return nil, errors.Wrap(err, "archive receipt")
	}

	var id int64
	if s.store != nil {
		id, err = s.store.Save(ctx, receipt.Record{
			OrderID:      o.ID,
			CustomerName: o.CustomerName,
			Lines:        r.Lines,
			Items:        r.Items,
			Summary:      r.Summary,
		})
		if err != nil {
			s.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("sink", "store")))
			lg.Error("Receipt store failed", zap.String("receipt_path", path), zap.Error(err))
			return nil, errors.Wrap(err, "store receipt")
		}
	}

	c.Clear()
	s.checkouts.Add(ctx, 1)
	lg.Info("Checkout completed",
		zap.String("customer", o.CustomerName),
		zap.Stringer("total", o.Total),
		zap.String("receipt_path", path),
		zap.Int64("receipt_id", id),
	)

	return &Result{Order: o, Lines: r.Lines, ReceiptPath: path, ReceiptID: id}, nil
}
