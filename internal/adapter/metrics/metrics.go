// Package metrics exports cart mirroring outcomes as Prometheus metrics.
package metrics

import (
	"errors"

	"storefront/internal/app"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultStale   = "stale"
	ResultSkipped = "skipped"
)

var _ app.SyncObserver = (*CartObserver)(nil)

// CartObserver implements app.SyncObserver with Prometheus counters.
type CartObserver struct {
	mirror *prometheus.CounterVec
	sync   *prometheus.CounterVec
	pushed prometheus.Counter
}

// NewCartObserver registers the cart metrics with reg. A nil reg uses the
// default registerer.
func NewCartObserver(reg prometheus.Registerer) *CartObserver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &CartObserver{
		mirror: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "mirror_total",
			Help:      "Remote cart calls issued after local cart changes, by operation and result",
		}, []string{"op", "result"}),

		sync: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "sync_total",
			Help:      "Cart sync passes after sign-in, by result",
		}, []string{"result"}),

		pushed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "sync_pushed_lines_total",
			Help:      "Cart lines written to the remote cart by sync passes",
		}),
	}
}

// MirrorDone counts one remote mirror call.
func (o *CartObserver) MirrorDone(op string, err error) {
	o.mirror.WithLabelValues(op, result(err)).Inc()
}

// SyncDone counts one finished sync pass.
func (o *CartObserver) SyncDone(pushed int, err error) {
	o.sync.WithLabelValues(result(err)).Inc()
	o.pushed.Add(float64(pushed))
}

// SyncSkipped counts a sync request dropped because a pass was running.
func (o *CartObserver) SyncSkipped() {
	o.sync.WithLabelValues(ResultSkipped).Inc()
}

func result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, app.ErrStaleSession):
		return ResultStale
	default:
		return ResultError
	}
}
