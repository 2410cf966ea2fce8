package strategy

import (
	"testing"

	"kalshi-mm/pkg/types"
)

func intPtr(v int) *int { return &v }

func testProfile() types.MarketProfile {
	return types.MarketProfile{
		MarketTicker:          "TEST-MKT",
		InstantLiquidityCents: 10000,
		MaxExposureCents:      50000,
		PriceStickyness:       10,
		Spread:                5,
		Depth:                 3,
	}
}

// Fresh seed at fair value 50: per-level qty 10000/3/50 = 66, top of yes
// 50-2 = 48, and the no side mirrors it exactly.
func TestPlanLadderFreshSeed(t *testing.T) {
	t.Parallel()

	yes, no := PlanLadder(testProfile(), nil, nil, 50)

	want := Ladder{48: 66, 47: 66, 46: 66}
	assertLadder(t, "yes", yes, want)
	assertLadder(t, "no", no, want)
}

func TestPlanLadderAfterInventoryShift(t *testing.T) {
	t.Parallel()

	// Fair value damped to 47 after accumulating long yes inventory.
	pos := &types.PositionRow{MarketID: "m1", Position: 30, PositionCost: 1500}
	yes, no := PlanLadder(testProfile(), pos, nil, 47)

	// per-level yes: 10000/3/47 = 70, top 47-2 = 45
	assertLadder(t, "yes", yes, Ladder{45: 70, 44: 70, 43: 70})
	// no side: fair 53, per-level 10000/3/53 = 62, top 51
	assertLadder(t, "no", no, Ladder{51: 62, 50: 62, 49: 62})
}

func TestPlanLadderSpreadOne(t *testing.T) {
	t.Parallel()

	p := testProfile()
	p.Spread = 1
	p.Depth = 1

	yes, no := PlanLadder(p, nil, nil, 50)

	// spread 1 quotes straight at fair value on both sides.
	assertLadder(t, "yes", yes, Ladder{50: 66})
	assertLadder(t, "no", no, Ladder{50: 66})
}

func TestPlanLadderStopsAtPriceFloor(t *testing.T) {
	t.Parallel()

	p := testProfile()
	p.Depth = 5

	yes, _ := PlanLadder(p, nil, nil, 4)

	// top of yes = 4-2 = 2; only prices 2 and 1 exist.
	for price := range yes {
		if price < types.MinPrice || price > types.MaxPrice {
			t.Errorf("price %d out of [1,99]", price)
		}
	}
	if len(yes) != 2 {
		t.Errorf("yes ladder has %d levels, want 2 (prices 2 and 1)", len(yes))
	}
}

func TestPlanLadderYesPriceClamps(t *testing.T) {
	t.Parallel()

	p := testProfile()
	p.MinYesPrice = intPtr(47)

	yes, no := PlanLadder(p, nil, nil, 50)

	// Yes side stops when the price drops below the clamp.
	assertLadder(t, "yes", yes, Ladder{48: 66, 47: 66})
	// No side: clamps apply to the equivalent yes price 100-p. Top no level
	// 48 maps to yes 52, fine; levels 47 and 46 map to 53 and 54, also fine
	// against a min of 47, so the no ladder is unaffected.
	assertLadder(t, "no", no, Ladder{48: 66, 47: 66, 46: 66})

	p = testProfile()
	p.MaxYesPrice = intPtr(52)
	_, no = PlanLadder(p, nil, nil, 50)
	// No level 47 is yes-equivalent 53 > 52: ladder stops after the top level.
	assertLadder(t, "no", no, Ladder{48: 66})
}

func TestPlanLadderExposureCap(t *testing.T) {
	t.Parallel()

	p := testProfile()
	p.MaxExposureCents = 6500

	yes, _ := PlanLadder(p, nil, nil, 50)

	// 48*66=3168, +47*66=3102 → 6270; adding 46*66 would breach 6500.
	assertLadder(t, "yes", yes, Ladder{48: 66, 47: 66})
}

// Σ price*qty over the planned ladder plus starting exposure never exceeds
// the cap, because each accepted level is added to cumulative exposure.
func TestPlanLadderExposureSumBounded(t *testing.T) {
	t.Parallel()

	p := testProfile()
	p.MaxExposureCents = 7000
	p.Depth = 10

	pos := &types.PositionRow{Position: 5, PositionCost: 900}
	resting := []types.OrderRow{{OrderID: "r1", Price: 40, IsYes: true, RemainingCount: 10}}

	yes, _ := PlanLadder(p, pos, resting, 50)

	total := 900 + 40*10
	for price, qty := range yes {
		total += price * qty
	}
	if total > p.MaxExposureCents {
		t.Errorf("yes ladder notional %d exceeds cap %d", total, p.MaxExposureCents)
	}
}

// Holding yes charges the yes side and subsidises the no side.
func TestPlanLadderExposureSign(t *testing.T) {
	t.Parallel()

	p := testProfile()
	p.MaxExposureCents = 6500

	longYes := &types.PositionRow{Position: 10, PositionCost: 500}
	yes, no := PlanLadder(p, longYes, nil, 50)

	// Yes side starts charged at +500: 500+3168 = 3668, and the next
	// level's 3102 would breach 6500, so only the top level survives.
	assertLadder(t, "yes", yes, Ladder{48: 66})
	// No side starts subsidised at -500: -500+3168+3102 = 5770 fits, and
	// the third level's 3036 would breach.
	assertLadder(t, "no", no, Ladder{48: 66, 47: 66})

	longNo := &types.PositionRow{Position: -10, PositionCost: 500}
	yes, no = PlanLadder(p, longNo, nil, 50)
	assertLadder(t, "yes", yes, Ladder{48: 66, 47: 66})
	assertLadder(t, "no", no, Ladder{48: 66})
}

func TestPlanLadderRestingOrderExposure(t *testing.T) {
	t.Parallel()

	p := testProfile()
	p.MaxExposureCents = 6500

	resting := []types.OrderRow{
		{OrderID: "y", Price: 50, IsYes: true, RemainingCount: 10},  // 500 on yes
		{OrderID: "n", Price: 30, IsYes: false, RemainingCount: 10}, // 300 on no
	}
	yes, no := PlanLadder(p, nil, resting, 50)

	// 500 of resting yes notional leaves room for one level; 300 of resting
	// no notional leaves room for one level too (300+3168+3102 > 6500).
	assertLadder(t, "yes", yes, Ladder{48: 66})
	assertLadder(t, "no", no, Ladder{48: 66})
}

func TestPlanLadderExtremeFairValues(t *testing.T) {
	t.Parallel()

	p := testProfile()
	p.Spread = 1
	p.Depth = 1

	// fair 1: liquidity follows probability, so the yes side is enormous
	// (10000/1 contracts at 1c) and the no side small (10000/99 at 99c).
	yes, no := PlanLadder(p, nil, nil, 1)
	assertLadder(t, "yes", yes, Ladder{1: 10000})
	assertLadder(t, "no", no, Ladder{99: 101})

	// fair 99: mirrored; the no side divides by 100-99 = 1, never by zero.
	yes, no = PlanLadder(p, nil, nil, 99)
	assertLadder(t, "yes", yes, Ladder{99: 101})
	assertLadder(t, "no", no, Ladder{1: 10000})
}

func TestPlanLadderTinyLiquidity(t *testing.T) {
	t.Parallel()

	p := testProfile()
	p.InstantLiquidityCents = 100 // 100/3/50 = 0 contracts per level

	yes, _ := PlanLadder(p, nil, nil, 50)
	if len(yes) != 0 {
		t.Errorf("expected empty ladder for sub-contract budget, got %v", yes)
	}
}

func assertLadder(t *testing.T, name string, got, want Ladder) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("%s ladder = %v, want %v", name, got, want)
		return
	}
	for price, qty := range want {
		if got[price] != qty {
			t.Errorf("%s ladder[%d] = %d, want %d", name, price, got[price], qty)
		}
	}
}
