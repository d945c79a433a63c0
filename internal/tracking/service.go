package tracking

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/oceanbites/oceanbites-backend/internal/pricing"
	"github.com/oceanbites/oceanbites-backend/pkg/enums"
	"github.com/oceanbites/oceanbites-backend/pkg/errors"
	"github.com/oceanbites/oceanbites-backend/pkg/kv"
	"github.com/oceanbites/oceanbites-backend/pkg/logger"
	"github.com/oceanbites/oceanbites-backend/pkg/metrics"
	"github.com/oceanbites/oceanbites-backend/pkg/types"
)

// defaultTickInterval drives the lifecycle recomputation cadence.
const defaultTickInterval = 750 * time.Millisecond

// CartCheckout is the slice of the cart the tracker needs: detach the
// priced lines and clear the live cart in one step.
type CartCheckout interface {
	Checkout(ctx context.Context) ([]types.CartLine, pricing.Breakdown)
}

// CheckoutInput carries the customer-facing order fields.
type CheckoutInput struct {
	CustomerName    string
	DeliveryAddress string
	Notes           string
	PaymentMethod   string
}

// ServiceParams configure the order tracker.
type ServiceParams struct {
	Store     kv.Store
	Namespace string
	Cart      CartCheckout
	Submitter Submitter
	Logger    *logger.Logger
	Metrics   *metrics.TrackerMetrics

	// Interval overrides the tick cadence; zero keeps the default.
	Interval time.Duration
	// Now is injectable for tests; zero keeps time.Now.
	Now func() time.Time

	// StreamConfigured is carried through as order metadata only.
	StreamConfigured bool
}

// Service owns the single active order and the one timer allowed to
// mutate it. All access is serialized under one lock; the timer
// goroutine and HTTP handlers share it.
type Service struct {
	store     kv.Store
	cart      CartCheckout
	submitter Submitter
	logg      *logger.Logger
	metrics   *metrics.TrackerMetrics
	interval  time.Duration
	now       func() time.Time
	streamed  bool
	key       string

	mu    sync.Mutex
	order *Order
	stop  chan struct{}
}

// NewService validates dependencies. Call Resume afterwards to restore a
// persisted order from a previous process.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, errors.New(errors.CodeInternal, "kv store required")
	}
	if params.Cart == nil {
		return nil, errors.New(errors.CodeInternal, "cart required")
	}
	namespace := params.Namespace
	if namespace == "" {
		namespace = "ob"
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultTickInterval
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:     params.Store,
		cart:      params.Cart,
		submitter: params.Submitter,
		logg:      params.Logger,
		metrics:   params.Metrics,
		interval:  interval,
		now:       now,
		streamed:  params.StreamConfigured,
		key:       kv.BuildKey(namespace, "order", "last"),
	}, nil
}

// Checkout finalizes the cart into a new order, replacing any previous
// one. Remote submission failure never blocks the local state machine.
func (s *Service) Checkout(ctx context.Context, input CheckoutInput) (Order, error) {
	items, breakdown := s.cart.Checkout(ctx)
	if len(items) == 0 {
		return Order{}, errors.New(errors.CodeValidation, "cart is empty")
	}

	now := s.now()
	order := Order{
		ID:              s.resolveOrderID(ctx, input, items, breakdown, now),
		CreatedAt:       now.UnixMilli(),
		Status:          enums.OrderStatusConfirmed,
		Progress:        initialProgress,
		CustomerName:    input.CustomerName,
		DeliveryAddress: input.DeliveryAddress,
		Notes:           input.Notes,
		PaymentMethod:   input.PaymentMethod,
		Items:           items,
		Pricing:         breakdown.Snapshot(),
		Meta: OrderMeta{
			RemoteAPIConfigured:    s.submitter != nil,
			RemoteStreamConfigured: s.streamed,
		},
	}

	s.mu.Lock()
	s.cancelLocked()
	s.order = &order
	s.persistLocked(ctx)
	s.startTimerLocked()
	s.mu.Unlock()

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID), "order created")
	}
	return order, nil
}

func (s *Service) resolveOrderID(ctx context.Context, input CheckoutInput, items []types.CartLine, breakdown pricing.Breakdown, now time.Time) string {
	if s.submitter == nil {
		return LocalOrderID(now)
	}
	id, err := s.submitter.Submit(ctx, SubmissionPayload{
		CustomerName:    input.CustomerName,
		DeliveryAddress: input.DeliveryAddress,
		Notes:           input.Notes,
		PaymentMethod:   input.PaymentMethod,
		Items:           items,
		Pricing:         breakdown.Snapshot(),
	})
	if err != nil || id == "" {
		s.metrics.IncRemoteFallback()
		if s.logg != nil && err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "remote order submission failed; using local id")
		}
		return LocalOrderID(now)
	}
	return id
}

// Current returns a copy of the active order, if any.
func (s *Service) Current() (Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.order == nil {
		return Order{}, false
	}
	return *s.order, true
}

// Cancel marks the active order cancelled. Cancelling an order already
// in a terminal state, or with no order at all, is a no-op.
func (s *Service) Cancel(ctx context.Context) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.order == nil {
		return Order{}, errors.New(errors.CodeNotFound, "no active order")
	}
	if s.order.Status.Terminal() {
		return *s.order, nil
	}

	s.order.Status = enums.OrderStatusCancelled
	s.persistLocked(ctx)
	s.cancelLocked()
	s.metrics.IncTransition(string(s.order.Status))
	return *s.order, nil
}

// Clear tears down the active order entirely, cancelling the timer and
// dropping the persisted copy. Safe to call with no order.
func (s *Service) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	s.order = nil
	if err := s.store.Del(ctx, s.key); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to drop persisted order")
	}
}

// Resume restores a persisted order at process start. Malformed or
// unrecognized payloads are discarded silently. A restored non-terminal
// order is advanced to the current wall-clock position and resumes
// ticking.
func (s *Service) Resume(ctx context.Context) {
	raw, err := s.store.Get(ctx, s.key)
	if err != nil {
		return
	}
	var order Order
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		return
	}
	if order.ID == "" || !order.Status.Valid() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	s.order = &order
	if order.Status.Terminal() {
		return
	}
	s.advanceLocked(ctx)
	if !s.order.Status.Terminal() {
		s.startTimerLocked()
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID), "resumed order tracking")
	}
}

// Close cancels any running timer. Idempotent.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// startTimerLocked installs the single allowed timer. Any previous timer
// must already be cancelled by the caller.
func (s *Service) startTimerLocked() {
	stop := make(chan struct{})
	s.stop = stop

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.tick(context.Background())
			}
		}
	}()
}

// cancelLocked stops the running timer; cancelling twice is a no-op.
func (s *Service) cancelLocked() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
}

// tick recomputes (status, progress) from elapsed time. An unchanged
// result emits no state update and no persistence write.
func (s *Service) tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.IncTick()
	if s.order == nil || s.order.Status.Terminal() {
		s.cancelLocked()
		return
	}
	s.advanceLocked(ctx)
	if s.order.Status.Terminal() {
		s.cancelLocked()
	}
}

// advanceLocked applies the transition function and persists only when
// something observable changed.
func (s *Service) advanceLocked(ctx context.Context) {
	elapsed := time.Duration(s.now().UnixMilli()-s.order.CreatedAt) * time.Millisecond
	status := StatusAt(elapsed)
	progress := ProgressAt(elapsed)

	if status == s.order.Status && progress == s.order.Progress {
		return
	}
	if status != s.order.Status {
		s.metrics.IncTransition(string(status))
	}
	s.order.Status = status
	s.order.Progress = progress
	s.persistLocked(ctx)
}

func (s *Service) persistLocked(ctx context.Context) {
	payload, err := json.Marshal(s.order)
	if err != nil {
		return
	}
	if err := s.store.Set(ctx, s.key, string(payload)); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "order persistence degraded; in-memory state remains authoritative")
	}
}
