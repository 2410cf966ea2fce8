// Package market provides dense order-book views over the full price domain.
//
// A BookView maps every integer price 1..99 to a resting quantity, with
// missing levels held at zero. Views are built from two sources:
//   - the public order book (price/quantity pairs from the exchange)
//   - the maker's own resting orders, grouped by (price, side)
//
// The dense representation is what the reconciler diffs against the desired
// ladder: walking the whole domain makes "level absent" and "level at zero"
// the same case, so the diff needs no set bookkeeping.
package market

import "kalshi-mm/pkg/types"

// BookView is a dense price → quantity map over [1, 99].
// Index 0 is unused; prices index directly.
type BookView [types.MaxPrice + 1]int

// Qty returns the resting quantity at a price, zero for out-of-range prices.
func (b *BookView) Qty(price int) int {
	if price < types.MinPrice || price > types.MaxPrice {
		return 0
	}
	return b[price]
}

// Level is one nonzero (price, quantity) entry of a view.
type Level struct {
	Price int
	Qty   int
}

// Levels lists the nonzero entries in ascending price order.
func (b *BookView) Levels() []Level {
	var out []Level
	for p := types.MinPrice; p <= types.MaxPrice; p++ {
		if b[p] != 0 {
			out = append(out, Level{Price: p, Qty: b[p]})
		}
	}
	return out
}

// FromPublicBook reindexes the exchange's sparse yes/no level lists onto the
// full price domain. Levels at out-of-range prices are dropped; duplicate
// prices accumulate.
func FromPublicBook(resp *types.OrderBookResponse) (yes, no BookView) {
	for _, lvl := range resp.OrderBook.Yes {
		if p := lvl[0]; p >= types.MinPrice && p <= types.MaxPrice {
			yes[p] += lvl[1]
		}
	}
	for _, lvl := range resp.OrderBook.No {
		if p := lvl[0]; p >= types.MinPrice && p <= types.MaxPrice {
			no[p] += lvl[1]
		}
	}
	return yes, no
}

// FromRestingOrders builds own-order views by grouping resting orders by
// (price, side) and summing remaining counts.
func FromRestingOrders(orders []types.OrderRow) (yes, no BookView) {
	for _, o := range orders {
		if o.Price < types.MinPrice || o.Price > types.MaxPrice {
			continue
		}
		if o.IsYes {
			yes[o.Price] += o.RemainingCount
		} else {
			no[o.Price] += o.RemainingCount
		}
	}
	return yes, no
}
