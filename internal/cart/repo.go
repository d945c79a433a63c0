package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/oceanbites/oceanbites-backend/internal/pricing"
	"github.com/oceanbites/oceanbites-backend/pkg/kv"
	"github.com/oceanbites/oceanbites-backend/pkg/logger"
	"github.com/oceanbites/oceanbites-backend/pkg/metrics"
	"github.com/oceanbites/oceanbites-backend/pkg/types"
)

// schemaVersion tags the current cart envelope format.
const schemaVersion = 2

// rawEnvelope is the tolerant read-side shape; items and promo stay raw
// until sanitized.
type rawEnvelope struct {
	Version int             `json:"version"`
	Items   json.RawMessage `json:"items"`
	Promo   json.RawMessage `json:"promo"`
	SavedAt int64           `json:"savedAt"`
}

// persistedEnvelope is the write-side shape, replaced wholesale on every
// mutation.
type persistedEnvelope struct {
	Version int              `json:"version"`
	Items   []types.CartLine `json:"items"`
	Promo   types.Promo      `json:"promo"`
	SavedAt int64            `json:"savedAt"`
}

// Repo is the versioned persistence adapter for cart state. Load never
// fails: malformed or missing data sanitizes to defaults. Save degrades
// to a failure return when the durable store rejects the write; the
// in-memory cart stays authoritative for the session.
type Repo struct {
	store   kv.Store
	logg    *logger.Logger
	metrics *metrics.PersistenceMetrics
	now     func() time.Time

	keyEnvelope string
	keyItems    string
	keyPromo    string

	mu sync.Mutex
	// lastContent caches the serialized (items, promo) pair of the last
	// successful write. Process-local only; a fresh process always
	// performs at least one write.
	lastContent string
}

// RepoParams configure the persistence adapter.
type RepoParams struct {
	Store     kv.Store
	Namespace string
	Logger    *logger.Logger
	Metrics   *metrics.PersistenceMetrics
	Now       func() time.Time
}

// NewRepo builds the adapter with namespaced storage keys.
func NewRepo(params RepoParams) (*Repo, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("kv store required")
	}
	namespace := params.Namespace
	if namespace == "" {
		namespace = "ob"
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Repo{
		store:       params.Store,
		logg:        params.Logger,
		metrics:     params.Metrics,
		now:         now,
		keyEnvelope: kv.BuildKey(namespace, "cart", "v2"),
		keyItems:    kv.BuildKey(namespace, "cart", "items"),
		keyPromo:    kv.BuildKey(namespace, "cart", "promo"),
	}, nil
}

type migrator func(ctx context.Context) ([]types.CartLine, types.Promo, bool)

// Load restores cart state through an ordered list of migrator
// strategies: the current-version envelope first, then the legacy split
// keys. Each step is independent of prior failures.
func (r *Repo) Load(ctx context.Context) ([]types.CartLine, types.Promo) {
	for _, migrate := range []migrator{r.loadEnvelope, r.loadLegacy} {
		if items, promo, ok := migrate(ctx); ok {
			return items, promo
		}
	}
	return nil, types.Promo{}
}

func (r *Repo) loadEnvelope(ctx context.Context) ([]types.CartLine, types.Promo, bool) {
	raw, err := r.store.Get(ctx, r.keyEnvelope)
	if err != nil {
		return nil, types.Promo{}, false
	}
	var env rawEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, types.Promo{}, false
	}
	if env.Version != schemaVersion {
		return nil, types.Promo{}, false
	}
	return sanitizeLines(env.Items), sanitizePromo(env.Promo), true
}

// loadLegacy reads the pre-envelope split keys. It is the final fallback
// and always succeeds, defaulting whatever is missing or malformed.
func (r *Repo) loadLegacy(ctx context.Context) ([]types.CartLine, types.Promo, bool) {
	var items []types.CartLine
	if raw, err := r.store.Get(ctx, r.keyItems); err == nil {
		items = sanitizeLines(json.RawMessage(raw))
	}
	promo := types.Promo{}
	if raw, err := r.store.Get(ctx, r.keyPromo); err == nil {
		promo = sanitizePromo(json.RawMessage(raw))
	}
	return items, promo, true
}

// Save replaces the persisted envelope wholesale and mirrors the legacy
// keys for older readers. Identical content is skipped to avoid storage
// churn under rapid state changes.
func (r *Repo) Save(ctx context.Context, items []types.CartLine, promo types.Promo) bool {
	if items == nil {
		items = []types.CartLine{}
	}
	promo.DiscountRate = pricing.ClampRate(promo.DiscountRate)

	content, err := json.Marshal(struct {
		Items []types.CartLine `json:"items"`
		Promo types.Promo      `json:"promo"`
	}{Items: items, Promo: promo})
	if err != nil {
		r.warn(ctx, "failed to serialize cart state", err)
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if string(content) == r.lastContent {
		r.metrics.IncSkip()
		return true
	}

	payload, err := json.Marshal(persistedEnvelope{
		Version: schemaVersion,
		Items:   items,
		Promo:   promo,
		SavedAt: r.now().UnixMilli(),
	})
	if err != nil {
		r.warn(ctx, "failed to serialize cart envelope", err)
		return false
	}

	if err := r.store.Set(ctx, r.keyEnvelope, string(payload)); err != nil {
		r.metrics.IncFailure()
		r.warn(ctx, "cart envelope write failed; keeping in-memory state", err)
		return false
	}
	r.lastContent = string(content)
	r.metrics.IncWrite()

	// Legacy mirrors are written only after the envelope landed, and are
	// best effort.
	if itemsJSON, err := json.Marshal(items); err == nil {
		if err := r.store.Set(ctx, r.keyItems, string(itemsJSON)); err != nil {
			r.warn(ctx, "legacy items mirror write failed", err)
		}
	}
	if promoJSON, err := json.Marshal(promo); err == nil {
		if err := r.store.Set(ctx, r.keyPromo, string(promoJSON)); err != nil {
			r.warn(ctx, "legacy promo mirror write failed", err)
		}
	}

	return true
}

func (r *Repo) warn(ctx context.Context, msg string, err error) {
	if r.logg == nil {
		return
	}
	ctx = r.logg.WithField(ctx, "error", err.Error())
	r.logg.Warn(ctx, msg)
}

// sanitizeLines tolerates corrupted or hand-edited storage: elements
// without a string itemId are dropped silently, duplicate ids keep the
// first occurrence, and missing fields take defaults.
func sanitizeLines(raw json.RawMessage) []types.CartLine {
	if len(raw) == 0 {
		return nil
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil
	}
	lines := make([]types.CartLine, 0, len(elements))
	seen := map[string]struct{}{}
	for _, element := range elements {
		var obj map[string]any
		if err := json.Unmarshal(element, &obj); err != nil {
			continue
		}
		line, ok := sanitizeLine(obj)
		if !ok {
			continue
		}
		if _, dup := seen[line.ItemID]; dup {
			continue
		}
		seen[line.ItemID] = struct{}{}
		lines = append(lines, line)
	}
	return lines
}

func sanitizeLine(obj map[string]any) (types.CartLine, bool) {
	id, ok := obj["itemId"].(string)
	if !ok || id == "" {
		return types.CartLine{}, false
	}

	line := types.CartLine{ItemID: id, Quantity: 1}
	if name, ok := obj["name"].(string); ok {
		line.Name = name
	}
	if notes, ok := obj["notes"].(string); ok {
		line.Notes = notes
	}
	if price, ok := obj["unitPrice"].(float64); ok && !math.IsNaN(price) && !math.IsInf(price, 0) && price >= 0 {
		line.UnitPrice = price
	}
	if qty, ok := obj["quantity"].(float64); ok {
		if q := int(qty); q >= 1 {
			line.Quantity = q
		}
	}
	return line, true
}

func sanitizePromo(raw json.RawMessage) types.Promo {
	if len(raw) == 0 {
		return types.Promo{}
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return types.Promo{}
	}
	promo := types.Promo{}
	if code, ok := obj["code"].(string); ok {
		promo.Code = code
	}
	if rate, ok := obj["discountRate"].(float64); ok {
		promo.DiscountRate = rate
	}
	promo.DiscountRate = pricing.ClampRate(promo.DiscountRate)
	return promo
}
