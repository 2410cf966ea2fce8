package strategy

import (
	"kalshi-mm/internal/market"
	"kalshi-mm/pkg/types"
)

// Delta is the minimal mutation set that moves the current resting book to
// the desired ladders. Cancels must be applied before places so the freed
// exposure is available for the new orders.
type Delta struct {
	CancelIDs []string
	Places    []types.Order
}

// Empty reports whether the delta requires no exchange mutations.
func (d Delta) Empty() bool {
	return len(d.CancelIDs) == 0 && len(d.Places) == 0
}

// Reconcile diffs the desired ladders against the maker's own dense book
// views. A resting level whose quantity exactly matches the desired ladder is
// left alone; any other nonzero level has all of its orders cancelled, and
// every desired level not already consistent is emitted as a new order.
//
// Reconcile is idempotent: when the current views were built from exactly the
// desired ladders, the returned delta is empty.
func Reconcile(marketID string, desiredYes, desiredNo Ladder, currentYes, currentNo *market.BookView, orders []types.OrderRow, expirationTS int64) Delta {
	var delta Delta
	reconcileSide(&delta, marketID, types.SideYes, desiredYes, currentYes, orders, expirationTS)
	reconcileSide(&delta, marketID, types.SideNo, desiredNo, currentNo, orders, expirationTS)
	return delta
}

// reconcileSide walks the full price domain for one side, collecting cancels
// for inconsistent levels and places for missing ones.
func reconcileSide(delta *Delta, marketID string, side types.Side, desired Ladder, current *market.BookView, orders []types.OrderRow, expirationTS int64) {
	consistent := make(map[int]bool)
	isYes := side == types.SideYes

	for price := types.MinPrice; price <= types.MaxPrice; price++ {
		resting := current.Qty(price)
		if resting == 0 {
			continue
		}
		if want, ok := desired[price]; ok && want == resting {
			consistent[price] = true
			continue
		}
		for _, o := range orders {
			if o.IsYes == isYes && o.Price == price {
				delta.CancelIDs = append(delta.CancelIDs, o.OrderID)
			}
		}
	}

	// Ascending price walk keeps the place order deterministic.
	for price := types.MinPrice; price <= types.MaxPrice; price++ {
		count, ok := desired[price]
		if !ok || consistent[price] {
			continue
		}
		delta.Places = append(delta.Places, types.Order{
			MarketID:         marketID,
			Side:             side,
			Price:            price,
			Count:            count,
			ExpirationUnixTS: expirationTS,
		})
	}
}
