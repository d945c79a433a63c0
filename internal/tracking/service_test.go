package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oceanbites/oceanbites-backend/internal/pricing"
	"github.com/oceanbites/oceanbites-backend/pkg/enums"
	obErrors "github.com/oceanbites/oceanbites-backend/pkg/errors"
	"github.com/oceanbites/oceanbites-backend/pkg/kv"
	"github.com/oceanbites/oceanbites-backend/pkg/types"
)

type fakeCart struct {
	items []types.CartLine
	promo types.Promo
}

func (c *fakeCart) Checkout(ctx context.Context) ([]types.CartLine, pricing.Breakdown) {
	items := c.items
	c.items = nil
	return items, pricing.Quote(items, c.promo)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type stubSubmitter struct {
	id  string
	err error
}

func (s stubSubmitter) Submit(ctx context.Context, payload SubmissionPayload) (string, error) {
	return s.id, s.err
}

func stockedCart() *fakeCart {
	return &fakeCart{
		items: []types.CartLine{{ItemID: "grilled-salmon", Name: "Grilled Salmon", UnitPrice: 18.5, Quantity: 2}},
	}
}

func newTestService(t *testing.T, store kv.Store, cart CartCheckout, sub Submitter, clock *fakeClock) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Store:     store,
		Cart:      cart,
		Submitter: sub,
		Interval:  time.Hour, // ticks are driven manually in tests
		Now:       clock.Now,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func TestCheckoutCreatesConfirmedOrderWithLocalID(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.UnixMilli(1700000000000)}
	svc := newTestService(t, kv.NewMemory(), stockedCart(), nil, clock)

	order, err := svc.Checkout(context.Background(), CheckoutInput{CustomerName: "Marina", PaymentMethod: "card"})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if order.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected Confirmed, got %q", order.Status)
	}
	if order.Progress != 3 {
		t.Fatalf("expected initial progress 3, got %d", order.Progress)
	}
	if !strings.HasPrefix(order.ID, "ORD-") {
		t.Fatalf("expected local id, got %q", order.ID)
	}
	if order.Meta.RemoteAPIConfigured || order.Meta.RemoteStreamConfigured {
		t.Fatalf("expected demo-mode metadata, got %+v", order.Meta)
	}
	if order.Pricing.Total <= 0 {
		t.Fatal("expected a priced order")
	}
}

func TestCheckoutUsesRemoteIDWhenAvailable(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.UnixMilli(1700000000000)}
	svc := newTestService(t, kv.NewMemory(), stockedCart(), stubSubmitter{id: "R-42"}, clock)

	order, err := svc.Checkout(context.Background(), CheckoutInput{})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if order.ID != "R-42" {
		t.Fatalf("expected remote id, got %q", order.ID)
	}
	if !order.Meta.RemoteAPIConfigured {
		t.Fatal("expected remoteApiConfigured metadata")
	}
}

func TestCheckoutFallsBackToLocalIDOnRemoteFailure(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.UnixMilli(1700000000000)}
	svc := newTestService(t, kv.NewMemory(), stockedCart(),
		stubSubmitter{err: errors.New("connection refused")}, clock)

	order, err := svc.Checkout(context.Background(), CheckoutInput{})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if !strings.HasPrefix(order.ID, "ORD-") {
		t.Fatalf("expected local fallback id, got %q", order.ID)
	}
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.UnixMilli(1700000000000)}
	svc := newTestService(t, kv.NewMemory(), &fakeCart{}, nil, clock)

	_, err := svc.Checkout(context.Background(), CheckoutInput{})
	if err == nil {
		t.Fatal("expected an error")
	}
	typed := obErrors.As(err)
	if typed == nil || typed.Code() != obErrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLifecycleTransitionsOverTime(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fakeClock{now: time.UnixMilli(1700000000000)}
	svc := newTestService(t, kv.NewMemory(), stockedCart(), nil, clock)

	if _, err := svc.Checkout(ctx, CheckoutInput{}); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	clock.Advance(31 * time.Second)
	svc.tick(ctx)
	order, ok := svc.Current()
	if !ok || order.Status != enums.OrderStatusPreparing {
		t.Fatalf("at t0+31s expected Preparing, got %q", order.Status)
	}

	clock.Advance(90 * time.Second) // t0+121s
	svc.tick(ctx)
	order, _ = svc.Current()
	if order.Status != enums.OrderStatusDelivered {
		t.Fatalf("at t0+121s expected Delivered, got %q", order.Status)
	}
	if order.Progress != 100 {
		t.Fatalf("expected progress 100, got %d", order.Progress)
	}

	// Terminal orders ignore further ticks entirely.
	clock.Advance(time.Hour)
	svc.tick(ctx)
	after, _ := svc.Current()
	if after.Status != order.Status || after.Progress != order.Progress {
		t.Fatalf("terminal order mutated by a later tick: %+v", after)
	}
}

func TestUnchangedTickWritesNothing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	counter := &countingStore{MemoryStore: kv.NewMemory()}
	clock := &fakeClock{now: time.UnixMilli(1700000000000)}
	svc := newTestService(t, counter, stockedCart(), nil, clock)

	if _, err := svc.Checkout(ctx, CheckoutInput{}); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	// The first tick settles progress from the creation placeholder to the
	// computed value; after that, ticks with no elapsed time change nothing.
	svc.tick(ctx)
	writes := counter.sets
	svc.tick(ctx)
	svc.tick(ctx)
	if counter.sets != writes {
		t.Fatalf("expected no writes on unchanged ticks, got %d extra", counter.sets-writes)
	}
}

func TestCancelIsIdempotentAndTerminal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fakeClock{now: time.UnixMilli(1700000000000)}
	svc := newTestService(t, kv.NewMemory(), stockedCart(), nil, clock)

	if _, err := svc.Checkout(ctx, CheckoutInput{}); err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	first, err := svc.Cancel(ctx)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if first.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected Cancelled, got %q", first.Status)
	}

	second, err := svc.Cancel(ctx)
	if err != nil {
		t.Fatalf("second Cancel: %v", err)
	}
	if second.Status != first.Status || second.Progress != first.Progress {
		t.Fatal("second cancel mutated the order")
	}

	// A cancelled order never advances again.
	clock.Advance(10 * time.Minute)
	svc.tick(ctx)
	after, _ := svc.Current()
	if after.Status != enums.OrderStatusCancelled {
		t.Fatalf("cancelled order advanced to %q", after.Status)
	}
}

func TestCancelWithoutOrder(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.UnixMilli(1700000000000)}
	svc := newTestService(t, kv.NewMemory(), &fakeCart{}, nil, clock)

	_, err := svc.Cancel(context.Background())
	typed := obErrors.As(err)
	if typed == nil || typed.Code() != obErrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestClearDropsOrderAndPersistedCopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemory()
	clock := &fakeClock{now: time.UnixMilli(1700000000000)}
	svc := newTestService(t, store, stockedCart(), nil, clock)

	if _, err := svc.Checkout(ctx, CheckoutInput{}); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	svc.Clear(ctx)

	if _, ok := svc.Current(); ok {
		t.Fatal("expected no active order after clear")
	}
	if _, err := store.Get(ctx, "ob:order:last"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected persisted order removed, got %v", err)
	}
}

func TestResumeRestoresPersistedOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemory()
	created := time.UnixMilli(1700000000000)
	persisted := Order{
		ID:        "ORD-ABCDE-1234",
		CreatedAt: created.UnixMilli(),
		Status:    enums.OrderStatusConfirmed,
		Progress:  3,
		Items:     []types.CartLine{{ItemID: "oyster", UnitPrice: 4, Quantity: 1}},
	}
	payload, _ := json.Marshal(persisted)
	if err := store.Set(ctx, "ob:order:last", string(payload)); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	// The process restarts 40s after the order was created.
	clock := &fakeClock{now: created.Add(40 * time.Second)}
	svc := newTestService(t, store, &fakeCart{}, nil, clock)
	svc.Resume(ctx)

	order, ok := svc.Current()
	if !ok {
		t.Fatal("expected a restored order")
	}
	if order.ID != persisted.ID {
		t.Fatalf("expected id %q, got %q", persisted.ID, order.ID)
	}
	if order.Status != enums.OrderStatusPreparing {
		t.Fatalf("expected restored order advanced to Preparing, got %q", order.Status)
	}
}

func TestResumeIgnoresMalformedPayloads(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: "{{{"},
		{name: "missing id", payload: `{"status":"Confirmed"}`},
		{name: "unknown status", payload: `{"id":"x","status":"Teleporting"}`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			store := kv.NewMemory()
			if err := store.Set(ctx, "ob:order:last", tc.payload); err != nil {
				t.Fatalf("seed store: %v", err)
			}

			clock := &fakeClock{now: time.UnixMilli(1700000000000)}
			svc := newTestService(t, store, &fakeCart{}, nil, clock)
			svc.Resume(ctx)

			if _, ok := svc.Current(); ok {
				t.Fatal("expected malformed payload to be discarded")
			}
		})
	}
}

func TestNewCheckoutReplacesPreviousOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fakeClock{now: time.UnixMilli(1700000000000)}
	cart := stockedCart()
	svc := newTestService(t, kv.NewMemory(), cart, nil, clock)

	first, err := svc.Checkout(ctx, CheckoutInput{})
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}

	cart.items = []types.CartLine{{ItemID: "chowder", UnitPrice: 9.5, Quantity: 1}}
	second, err := svc.Checkout(ctx, CheckoutInput{})
	if err != nil {
		t.Fatalf("second Checkout: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a fresh order id")
	}

	current, _ := svc.Current()
	if current.ID != second.ID {
		t.Fatalf("expected the new order to be active, got %q", current.ID)
	}
}

type countingStore struct {
	*kv.MemoryStore
	mu   sync.Mutex
	sets int
}

func (c *countingStore) Set(ctx context.Context, key, value string) error {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
	return c.MemoryStore.Set(ctx, key, value)
}
