package amm

import (
	"math"
	"testing"
)

func closeTo(t *testing.T, got, want, eps float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Fatalf("%s: got %v, want %v (+/- %v)", msg, got, want, eps)
	}
}

func TestSwapXForYSmall(t *testing.T) {
	p, err := NewPool(100000, 5000000, 0.003, 0, 0)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	dy, err := p.SwapXForY(100)
	if err != nil {
		t.Fatalf("SwapXForY: %v", err)
	}
	closeTo(t, dy, 4980.03, 0.01, "dy_out")
	spot, err := p.SpotPrice()
	if err != nil {
		t.Fatalf("SpotPrice: %v", err)
	}
	closeTo(t, spot, 49.90, 0.01, "post-swap spot")
}

func TestSwapInvariantNeverDecreases(t *testing.T) {
	p, err := NewPool(100000, 5000000, 0.003, 0, 0)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	kBefore := p.K
	if _, err := p.SwapXForY(1000); err != nil {
		t.Fatalf("swap: %v", err)
	}
	if p.K <= kBefore {
		t.Fatalf("k did not strictly increase with fee>0: before=%v after=%v", kBefore, p.K)
	}
	if p.X <= 0 || p.Y <= 0 {
		t.Fatalf("reserves went non-positive: x=%v y=%v", p.X, p.Y)
	}
}

func TestZeroFeeSwapInvariantNonDecreasing(t *testing.T) {
	p, err := NewPool(1000, 1000, 0, 0, 0)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	kBefore := p.K
	if _, err := p.SwapXForY(10); err != nil {
		t.Fatalf("swap: %v", err)
	}
	if p.K < kBefore {
		t.Fatalf("k decreased: before=%v after=%v", kBefore, p.K)
	}
}

func TestRoundTripSwapLosesValue(t *testing.T) {
	p, err := NewPool(100000, 5000000, 0.003, 0, 0)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	dy, err := p.SwapXForY(1000)
	if err != nil {
		t.Fatalf("swap1: %v", err)
	}
	dx, err := p.SwapYForX(dy)
	if err != nil {
		t.Fatalf("swap2: %v", err)
	}
	if dx >= 1000 {
		t.Fatalf("round trip gained value: started with 1000, ended with %v", dx)
	}
}

func TestAddThenRemoveLiquidityRoundTrip(t *testing.T) {
	p, err := NewPool(100000, 5000000, 0.003, 0, 0)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	xBefore, yBefore := p.X, p.Y
	shares, err := p.AddLiquidity(1000, 50000, 1e-9)
	if err != nil {
		t.Fatalf("AddLiquidity: %v", err)
	}
	if _, _, err := p.RemoveLiquidity(shares); err != nil {
		t.Fatalf("RemoveLiquidity: %v", err)
	}
	closeTo(t, p.X, xBefore, 1e-3, "x restored after round trip")
	closeTo(t, p.Y, yBefore, 1e-3, "y restored after round trip")
}

func TestAddLiquidityRatioToleranceRejected(t *testing.T) {
	p, err := NewPool(100000, 5000000, 0.003, 0, 0)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	if _, err := p.AddLiquidity(1000, 1000, 0.001); err != ErrRatioTolerance {
		t.Fatalf("expected ErrRatioTolerance, got %v", err)
	}
}

func TestRemoveLiquidityExceedsShares(t *testing.T) {
	p, err := NewPool(1000, 1000, 0.003, 0, 0)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	if _, _, err := p.RemoveLiquidity(p.Shares * 2); err != ErrInsufficientShares {
		t.Fatalf("expected ErrInsufficientShares, got %v", err)
	}
}

func TestObserveIdempotentWithinBlock(t *testing.T) {
	p, err := NewPool(1000, 50000, 0.003, 0, 100)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	if err := p.Observe(5); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	c1 := p.cumulative
	if err := p.Observe(5); err != nil {
		t.Fatalf("Observe repeat: %v", err)
	}
	if p.cumulative != c1 {
		t.Fatalf("Observe was not idempotent within block: %v vs %v", c1, p.cumulative)
	}
}

func TestObserveRejectsNonMonotonicBlock(t *testing.T) {
	p, err := NewPool(1000, 50000, 0.003, 10, 100)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	if err := p.Observe(9); err != ErrNonMonotonicBlock {
		t.Fatalf("expected ErrNonMonotonicBlock, got %v", err)
	}
}

func TestTWAPManipulationDisplacement(t *testing.T) {
	p, err := NewPool(1000, 50000, 0, 0, 48)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	window := uint64(48)
	for b := uint64(1); b <= 46; b++ {
		if err := p.Observe(b); err != nil {
			t.Fatalf("observe %d: %v", b, err)
		}
	}
	baseline, err := p.SpotPrice()
	if err != nil {
		t.Fatalf("spot: %v", err)
	}
	// Spike the spot price 2x for 2 blocks, then let the TWAP window close
	// over the 48-block span.
	if _, err := p.SwapYForX(p.Y * (math.Sqrt2 - 1)); err != nil {
		t.Fatalf("spike swap: %v", err)
	}
	if err := p.Observe(47); err != nil {
		t.Fatalf("observe 47: %v", err)
	}
	if err := p.Observe(48); err != nil {
		t.Fatalf("observe 48: %v", err)
	}
	twap, err := p.TWAP(window)
	if err != nil {
		t.Fatalf("TWAP: %v", err)
	}
	expectedDisplacement := baseline * (2.0 / 48.0)
	gotDisplacement := twap - baseline
	if math.Abs(gotDisplacement-expectedDisplacement) > baseline*0.02 {
		t.Fatalf("displacement %v not close to expected %v", gotDisplacement, expectedDisplacement)
	}
}

func TestTWAPBracketCollapseFallsBackToSpot(t *testing.T) {
	p, err := NewPool(1000, 50000, 0.003, 0, 100)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	twap, err := p.TWAP(0)
	if err != nil {
		t.Fatalf("TWAP: %v", err)
	}
	spot, _ := p.SpotPrice()
	closeTo(t, twap, spot, 1e-9, "TWAP with zero window should equal spot")
}

func TestImpermanentLoss(t *testing.T) {
	il := ImpermanentLoss(1.0)
	closeTo(t, il, 0, 1e-9, "no loss at r=1")
	il2 := ImpermanentLoss(4.0)
	if il2 >= 0 {
		t.Fatalf("expected negative IL at r=4, got %v", il2)
	}
}
