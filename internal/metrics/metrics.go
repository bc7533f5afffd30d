package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"shoply-be/internal/utils"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// CheckoutStats counts checkout outcomes. The zero value is ready to use.
type CheckoutStats struct {
	Placed         Counter
	EmptyCart      Counter
	StockConflicts Counter
	Busy           Counter
	StorageFaults  Counter
	PublishFailed  Counter

	latencyMicros Counter
}

func NewCheckoutStats() *CheckoutStats {
	return &CheckoutStats{}
}

func (s *CheckoutStats) ObserveLatency(t *Timer) {
	s.latencyMicros.Add(uint64(t.Duration().Microseconds()))
}

type Snapshot struct {
	OrdersPlaced       uint64  `json:"orders_placed"`
	EmptyCart          uint64  `json:"empty_cart_rejections"`
	StockConflicts     uint64  `json:"stock_conflicts"`
	Busy               uint64  `json:"checkout_busy"`
	StorageFaults      uint64  `json:"storage_faults"`
	PublishFailed      uint64  `json:"event_publish_failures"`
	TotalLatencyMillis float64 `json:"checkout_latency_ms_total"`
}

func (s *CheckoutStats) Snapshot() Snapshot {
	return Snapshot{
		OrdersPlaced:       s.Placed.Load(),
		EmptyCart:          s.EmptyCart.Load(),
		StockConflicts:     s.StockConflicts.Load(),
		Busy:               s.Busy.Load(),
		StorageFaults:      s.StorageFaults.Load(),
		PublishFailed:      s.PublishFailed.Load(),
		TotalLatencyMillis: float64(s.latencyMicros.Load()) / 1000,
	}
}

func (s *CheckoutStats) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, s.Snapshot())
	}
}
