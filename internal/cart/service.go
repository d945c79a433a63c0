// Package cart owns the authoritative in-memory cart state and its
// durable persistence. All other components read derived data through
// the Store.
package cart

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/oceanbites/oceanbites-backend/internal/pricing"
	"github.com/oceanbites/oceanbites-backend/pkg/logger"
	"github.com/oceanbites/oceanbites-backend/pkg/types"
)

// Store holds the live cart lines and promo selection. Mutations are
// serialized under a single lock, which preserves the read-after-write
// ordering the persistence layer relies on.
type Store struct {
	mu    sync.Mutex
	repo  *Repo
	logg  *logger.Logger
	items []types.CartLine
	promo types.Promo
}

// View is the derived cart snapshot handed to readers. Everything in it
// is recomputed from current state on every call.
type View struct {
	Items      []types.CartLine      `json:"items"`
	Promo      types.Promo           `json:"promo"`
	ItemsCount int                   `json:"itemsCount"`
	Pricing    types.PricingSnapshot `json:"pricing"`
}

// AddItemInput is the candidate for a new cart line.
type AddItemInput struct {
	ItemID    string
	Name      string
	UnitPrice float64
	Notes     string
}

// NewStore hydrates the cart from durable storage.
func NewStore(ctx context.Context, repo *Repo, logg *logger.Logger) (*Store, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repo required")
	}
	items, promo := repo.Load(ctx)
	return &Store{
		repo:  repo,
		logg:  logg,
		items: items,
		promo: promo,
	}, nil
}

// AddItem appends a new line with quantity 1, or bumps the quantity of an
// existing line. Name and price are fixed at first add. Malformed
// candidates are a no-op.
func (s *Store) AddItem(ctx context.Context, input AddItemInput) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strings.TrimSpace(input.ItemID)
	if id == "" || math.IsNaN(input.UnitPrice) || math.IsInf(input.UnitPrice, 0) || input.UnitPrice < 0 {
		return s.viewLocked()
	}

	if idx := s.indexOf(id); idx >= 0 {
		s.items[idx].Quantity++
	} else {
		s.items = append(s.items, types.CartLine{
			ItemID:    id,
			Name:      input.Name,
			UnitPrice: input.UnitPrice,
			Quantity:  1,
			Notes:     input.Notes,
		})
	}
	s.persistLocked(ctx)
	return s.viewLocked()
}

// IncrementItem bumps the quantity of the matching line; no-op when the
// id is unknown.
func (s *Store) IncrementItem(ctx context.Context, id string) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(id); idx >= 0 {
		s.items[idx].Quantity++
		s.persistLocked(ctx)
	}
	return s.viewLocked()
}

// DecrementItem lowers the quantity of the matching line, removing it
// entirely when the quantity would drop to zero; no-op when unknown.
func (s *Store) DecrementItem(ctx context.Context, id string) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(id); idx >= 0 {
		if s.items[idx].Quantity <= 1 {
			s.items = append(s.items[:idx], s.items[idx+1:]...)
		} else {
			s.items[idx].Quantity--
		}
		s.persistLocked(ctx)
	}
	return s.viewLocked()
}

// RemoveItem drops the matching line unconditionally; no-op when unknown.
func (s *Store) RemoveItem(ctx context.Context, id string) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(id); idx >= 0 {
		s.items = append(s.items[:idx], s.items[idx+1:]...)
		s.persistLocked(ctx)
	}
	return s.viewLocked()
}

// ClearCart empties the lines. The promo survives a cart reset until
// cleared explicitly.
func (s *Store) ClearCart(ctx context.Context) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.persistLocked(ctx)
	return s.viewLocked()
}

// ApplyPromo resolves the raw code against the static table and replaces
// the current promo wholesale, including zero-discount resolutions.
func (s *Store) ApplyPromo(ctx context.Context, rawCode string) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.promo = pricing.Resolve(rawCode)
	s.persistLocked(ctx)
	return s.viewLocked()
}

// ClearPromo resets the promo selection.
func (s *Store) ClearPromo(ctx context.Context) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.promo = types.Promo{}
	s.persistLocked(ctx)
	return s.viewLocked()
}

// View returns the current derived snapshot.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Checkout detaches the current lines and pricing for order creation and
// clears the cart. The promo is kept, and the returned slices share no
// memory with the live cart.
func (s *Store) Checkout(ctx context.Context) ([]types.CartLine, pricing.Breakdown) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := copyLines(s.items)
	breakdown := pricing.Quote(items, s.promo)

	s.items = nil
	s.persistLocked(ctx)
	return items, breakdown
}

func (s *Store) viewLocked() View {
	items := copyLines(s.items)
	return View{
		Items:      items,
		Promo:      s.promo,
		ItemsCount: pricing.ItemsCount(items),
		Pricing:    pricing.Quote(items, s.promo).Snapshot(),
	}
}

func (s *Store) persistLocked(ctx context.Context) {
	if ok := s.repo.Save(ctx, copyLines(s.items), s.promo); !ok && s.logg != nil {
		s.logg.Warn(ctx, "cart persistence degraded; in-memory state remains authoritative")
	}
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ItemID == id {
			return i
		}
	}
	return -1
}

func copyLines(items []types.CartLine) []types.CartLine {
	out := make([]types.CartLine, len(items))
	copy(out, items)
	return out
}
