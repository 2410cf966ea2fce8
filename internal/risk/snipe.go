// Package risk tracks snipe events and enforces the per-market quoting
// cool-down that follows them.
//
// A snipe is a market move so large that the public mid has jumped more than
// half a spread away from the maker's tracked fair value. The engine detects
// it during a tick and trips the guard; until the market's cool-down elapses
// the guard keeps the maker out of that market entirely.
package risk

import (
	"log/slog"
	"sync"
	"time"
)

// Guard remembers when each market was last sniped. Safe for concurrent use.
type Guard struct {
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	snipedAt map[string]time.Time
}

// NewGuard creates an empty snipe guard.
func NewGuard(logger *slog.Logger) *Guard {
	return &Guard{
		logger:   logger.With("component", "risk"),
		now:      time.Now,
		snipedAt: make(map[string]time.Time),
	}
}

// Trip records a snipe in the market at the current time. The fair value and
// mid are logged so the operator can see how far the market ran.
func (g *Guard) Trip(marketID string, fairValue, mid int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.snipedAt[marketID] = g.now()
	g.logger.Warn("snipe detected",
		"market", marketID,
		"fair_value", fairValue,
		"mid", mid,
	)
}

// CoolingDown reports whether the market is still inside its cool-down
// window. A non-positive timeout means snipes carry no cool-down. Expired
// entries are dropped so the map does not grow with retired markets.
func (g *Guard) CoolingDown(marketID string, timeout time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	at, ok := g.snipedAt[marketID]
	if !ok {
		return false
	}
	if timeout <= 0 || g.now().Sub(at) >= timeout {
		delete(g.snipedAt, marketID)
		g.logger.Info("snipe cool-down expired", "market", marketID)
		return false
	}
	return true
}

// Remove clears snipe state for a stopped market.
func (g *Guard) Remove(marketID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.snipedAt, marketID)
}
