// Package tracking owns the simulated order-fulfillment lifecycle: a
// single active order evolving through time-driven status transitions.
package tracking

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/oceanbites/oceanbites-backend/pkg/enums"
	"github.com/oceanbites/oceanbites-backend/pkg/types"
)

// Lifecycle timing, measured from order creation.
const (
	preparingAfter  = 30 * time.Second
	deliveringAfter = 75 * time.Second
	deliveredAfter  = 120 * time.Second
)

// initialProgress is shown immediately on order creation, before the
// first tick recomputes from elapsed time.
const initialProgress = 3

// Order is the finalized priced order produced at checkout. It is owned
// exclusively by the tracker; the cart holds no reference to it.
type Order struct {
	ID              string                `json:"id"`
	CreatedAt       int64                 `json:"createdAt"`
	Status          enums.OrderStatus     `json:"status"`
	Progress        int                   `json:"progress"`
	CustomerName    string                `json:"customerName"`
	DeliveryAddress string                `json:"deliveryAddress"`
	Notes           string                `json:"notes"`
	PaymentMethod   string                `json:"paymentMethod"`
	Items           []types.CartLine      `json:"items"`
	Pricing         types.PricingSnapshot `json:"pricing"`
	Meta            OrderMeta             `json:"meta"`
}

// OrderMeta records which remote collaborators were configured when the
// order was created. The stream URL is carried as metadata only; no
// streaming connection is opened here.
type OrderMeta struct {
	RemoteAPIConfigured    bool `json:"remoteApiConfigured"`
	RemoteStreamConfigured bool `json:"remoteStreamConfigured"`
}

// StatusAt maps elapsed time since creation onto the lifecycle.
func StatusAt(elapsed time.Duration) enums.OrderStatus {
	switch {
	case elapsed < preparingAfter:
		return enums.OrderStatusConfirmed
	case elapsed < deliveringAfter:
		return enums.OrderStatusPreparing
	case elapsed < deliveredAfter:
		return enums.OrderStatusOutForDelivery
	default:
		return enums.OrderStatusDelivered
	}
}

// ProgressAt is the percentage of the full lifecycle window elapsed,
// clamped to [0, 100].
func ProgressAt(elapsed time.Duration) int {
	pct := int(math.Round(float64(elapsed.Milliseconds()) / float64(deliveredAfter.Milliseconds()) * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// LocalOrderID generates the fallback identifier used when no remote id
// is available: ORD-<5 random base36 chars>-<last 4 digits of epoch ms>.
func LocalOrderID(now time.Time) string {
	var sb strings.Builder
	for i := 0; i < 5; i++ {
		sb.WriteByte(base36[rand.Intn(len(base36))])
	}
	millis := fmt.Sprintf("%d", now.UnixMilli())
	return fmt.Sprintf("ORD-%s-%s", sb.String(), millis[len(millis)-4:])
}
