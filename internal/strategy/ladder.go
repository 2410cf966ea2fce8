// Package strategy implements the quoting math for binary prediction markets:
// a pure ladder planner that derives the desired resting book from profile
// parameters, exposure and fair value, and a reconciler that diffs the desired
// ladder against the maker's current resting orders.
//
// Everything here is integer arithmetic in cents. Per-level quantities and
// top-of-ladder prices truncate, so the planner is deterministic for fixed
// inputs — the reconciler relies on finding exact equality with a ladder it
// placed on a previous tick.
package strategy

import "kalshi-mm/pkg/types"

// Ladder maps price (cents) to desired resting quantity on one side.
type Ladder map[int]int

// PlanLadder derives the desired yes and no ladders for one market.
//
// Each side quotes up to profile.Depth levels below its top-of-ladder price
//
//	top = fair - (spread-1)/2
//
// (with fair = fairValue on the yes side and 100-fairValue on the no side),
// sized so that InstantLiquidityCents is split evenly across levels at the
// side's fair price. Level emission stops at the edge of the price domain,
// at the configured yes-price clamps, or when the level's notional would
// push cumulative exposure past MaxExposureCents.
//
// Exposure starts from the filled position (a long yes position charges the
// yes side and subsidises the no side, and vice versa) plus the notional of
// already-resting orders on that side, and accumulates each emitted level so
// every cent placed is accounted for in the check that placed it.
//
// position may be nil when the maker holds nothing in the market.
func PlanLadder(profile types.MarketProfile, position *types.PositionRow, orders []types.OrderRow, fairValue int) (desiredYes, desiredNo Ladder) {
	exposureCents := 0
	holdsYes := false
	if position != nil {
		exposureCents = position.PositionCost
		holdsYes = position.Position > 0
	}

	yesOrderExposure := 0
	noOrderExposure := 0
	for _, o := range orders {
		if o.IsYes {
			yesOrderExposure += o.Price * o.RemainingCount
		} else {
			noOrderExposure += o.Price * o.RemainingCount
		}
	}

	yesExposure := -exposureCents
	if holdsYes {
		yesExposure = exposureCents
	}
	yesExposure += yesOrderExposure

	desiredYes = planSide(profile, fairValue, yesExposure, func(p int) int { return p })

	noExposure := exposureCents
	if holdsYes {
		noExposure = -exposureCents
	}
	noExposure += noOrderExposure

	// No-side clamps apply to the equivalent yes price.
	desiredNo = planSide(profile, 100-fairValue, noExposure, func(p int) int { return 100 - p })

	return desiredYes, desiredNo
}

// planSide emits one side's ladder. fair is the side's own fair price,
// cumulative the exposure already committed to that side, and yesEquiv maps
// a level price to the yes price the clamps are expressed in.
func planSide(profile types.MarketProfile, fair, cumulative int, yesEquiv func(int) int) Ladder {
	desired := make(Ladder)

	perLevel := profile.InstantLiquidityCents / profile.Depth / fair
	if perLevel < 1 {
		// Budget too small for even one contract per level at this price.
		return desired
	}
	top := fair - (profile.Spread-1)/2

	for i := 0; i < profile.Depth; i++ {
		price := top - i
		if price < types.MinPrice {
			break
		}
		eq := yesEquiv(price)
		if profile.MaxYesPrice != nil && eq > *profile.MaxYesPrice {
			break
		}
		if profile.MinYesPrice != nil && eq < *profile.MinYesPrice {
			break
		}
		levelCents := price * perLevel
		if levelCents+cumulative > profile.MaxExposureCents {
			break
		}
		desired[price] = perLevel
		cumulative += levelCents
	}

	return desired
}
