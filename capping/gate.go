// Package capping throttles how often the client starts a resolution, independently
// of what the documents contain.
package capping

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
	"github.com/prebid/vast-resolver/config"
	"github.com/prebid/vast-resolver/metrics"
)

// window is how long the free calls of the current window stay counted.
const window = time.Hour

// Reasons for a denial.
const (
	ReasonFreeLunch       = "free-lunch capping"
	ReasonMinimumInterval = "minimum interval not reached"
)

// Decision is the outcome of Gate.Admit.
type Decision struct {
	Allowed bool
	Reason  string
	// Detail is a human readable explanation of a denial.
	Detail string
	// Calls is the number of calls made in the current window, this one included.
	Calls int64
}

// Gate decides whether a call may go ahead. It serializes its own reads and writes
// of the state; callers sharing a Store across processes are not coordinated.
type Gate struct {
	store             Store
	freeCallThreshold int64
	minimumInterval   time.Duration
	clock             clock.Clock
	metricsEngine     metrics.MetricsEngine

	mu sync.Mutex
}

func NewGate(store Store, cfg config.Capping, clk clock.Clock, metricsEngine metrics.MetricsEngine) *Gate {
	return &Gate{
		store:             store,
		freeCallThreshold: int64(cfg.FreeCallThreshold),
		minimumInterval:   cfg.MinimumCallInterval(),
		clock:             clk,
		metricsEngine:     metricsEngine,
	}
}

// Admit counts the call and evaluates both capping rules. The call counter and the
// window end are written before the rules run, so denied calls are counted too.
//
// A Store error admits the call: the error is returned alongside an allowed Decision.
func (g *Gate) Admit(ctx context.Context) (Decision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	decision, err := g.admit(ctx, g.clock.Now())
	switch {
	case err != nil:
		g.metricsEngine.RecordCapping(metrics.CappingStoreFailure)
	case decision.Allowed:
		g.metricsEngine.RecordCapping(metrics.CappingAdmitted)
	case decision.Reason == ReasonFreeLunch:
		g.metricsEngine.RecordCapping(metrics.CappingFreeLunch)
	default:
		g.metricsEngine.RecordCapping(metrics.CappingMinInterval)
	}
	return decision, err
}

func (g *Gate) admit(ctx context.Context, now time.Time) (Decision, error) {
	nowMillis := now.UnixMilli()

	windowEnd, err := g.store.Get(ctx, KeyTotalCallsTimeout)
	if err != nil {
		return Decision{Allowed: true}, err
	}
	var calls int64
	if nowMillis >= windowEnd {
		calls = 1
		if err := g.store.Set(ctx, KeyTotalCallsTimeout, now.Add(window).UnixMilli()); err != nil {
			return Decision{Allowed: true}, err
		}
	} else {
		if calls, err = g.store.Get(ctx, KeyTotalCalls); err != nil {
			return Decision{Allowed: true}, err
		}
		calls++
	}
	if err := g.store.Set(ctx, KeyTotalCalls, calls); err != nil {
		return Decision{Allowed: true, Calls: calls}, err
	}

	if g.freeCallThreshold > 0 && calls <= g.freeCallThreshold {
		return Decision{
			Reason: ReasonFreeLunch,
			Detail: fmt.Sprintf("%s not reached yet %d/%d", ReasonFreeLunch, calls, g.freeCallThreshold),
			Calls:  calls,
		}, nil
	}

	lastSuccess, err := g.store.Get(ctx, KeyLastSuccess)
	if err != nil {
		return Decision{Allowed: true, Calls: calls}, err
	}
	sinceLastSuccess := time.Duration(nowMillis-lastSuccess) * time.Millisecond
	if sinceLastSuccess < 0 {
		glog.Warningf("Last successful call is %s in the future. Resetting it.", -sinceLastSuccess)
		if err := g.store.Set(ctx, KeyLastSuccess, 0); err != nil {
			return Decision{Allowed: true, Calls: calls}, err
		}
	} else if sinceLastSuccess < g.minimumInterval {
		return Decision{
			Reason: ReasonMinimumInterval,
			Detail: fmt.Sprintf("%s (%dms)", ReasonMinimumInterval, g.minimumInterval.Milliseconds()),
			Calls:  calls,
		}, nil
	}

	return Decision{Allowed: true, Calls: calls}, nil
}

// RecordSuccess stores the current time as the last call which produced ads.
func (g *Gate) RecordSuccess(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.Set(ctx, KeyLastSuccess, g.clock.Now().UnixMilli())
}
