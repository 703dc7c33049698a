// Package amm implements a constant-product two-reserve automated market
// maker with a block-indexed TWAP accumulator. The pool is a pure state
// machine: every mutation is explicit (swap, add/remove liquidity, penalty
// injection) and no method retains a reference to caller state.
package amm

import (
	"math"
	"sort"
)

// sample is one recorded point of the cumulative price integral.
type sample struct {
	block      uint64
	cumulative float64
}

// Pool holds the reserves, invariant, LP shares, and TWAP history for a
// single constant-product market.
type Pool struct {
	X, Y   float64 // collateral / debt token reserves
	K      float64 // invariant, recomputed after every mutation
	Fee    float64 // swap fee fraction in [0,1)
	Shares float64 // total LP shares outstanding

	cumulative  float64 // C: cumulative price integral
	lastObserve uint64
	history     []sample

	maxWindow uint64 // largest TWAP window the caller intends to query
}

// NewPool creates a pool at genesis with initial reserves (x0, y0), a swap
// fee fraction, and the largest TWAP window the caller will ever query
// (used to bound retained history).
func NewPool(x0, y0, fee float64, genesisBlock uint64, maxWindow uint64) (*Pool, error) {
	if x0 <= 0 || y0 <= 0 {
		return nil, ErrInvalidReserves
	}
	if fee < 0 || fee >= 1 {
		return nil, ErrInvalidFee
	}
	p := &Pool{
		X:           x0,
		Y:           y0,
		K:           x0 * y0,
		Fee:         fee,
		Shares:      math.Sqrt(x0 * y0),
		lastObserve: genesisBlock,
		maxWindow:   maxWindow,
	}
	p.history = append(p.history, sample{block: genesisBlock, cumulative: 0})
	return p, nil
}

// SpotPrice returns y/x. Only fails if reserves have become degenerate,
// which the pool's own invariants should make impossible.
func (p *Pool) SpotPrice() (float64, error) {
	if p.X <= 0 || p.Y <= 0 {
		return 0, ErrInvalidReserves
	}
	return p.Y / p.X, nil
}

// Observe advances the cumulative price accumulator to block b using the
// spot price that held since the last observation, and records a sample.
// It is idempotent within the same block and must be called exactly once
// per block by the engine before any swap in that block.
func (p *Pool) Observe(b uint64) error {
	if b < p.lastObserve {
		return ErrNonMonotonicBlock
	}
	if b == p.lastObserve {
		return nil
	}
	spot, err := p.SpotPrice()
	if err != nil {
		return err
	}
	delta := float64(b - p.lastObserve)
	p.cumulative += spot * delta
	p.lastObserve = b
	p.history = append(p.history, sample{block: b, cumulative: p.cumulative})
	p.trimHistory()
	return nil
}

// trimHistory drops samples older than the max window can ever need,
// always keeping the last sample at or before the cutoff so a TWAP query
// landing exactly on the window edge still has a bracketing point.
func (p *Pool) trimHistory() {
	if p.maxWindow == 0 || len(p.history) == 0 {
		return
	}
	latest := p.history[len(p.history)-1].block
	if latest < p.maxWindow {
		return
	}
	cutoff := latest - p.maxWindow
	keepFrom := 0
	for i, s := range p.history {
		if s.block <= cutoff {
			keepFrom = i
		} else {
			break
		}
	}
	if keepFrom > 0 {
		p.history = append([]sample(nil), p.history[keepFrom:]...)
	}
}

// TWAP returns the time-weighted average spot price over the trailing
// window blocks ending at the last observed block. If the bracket collapses
// to zero blocks it falls back to the current spot price.
func (p *Pool) TWAP(window uint64) (float64, error) {
	bNow := p.lastObserve
	var target uint64
	if bNow >= window {
		target = bNow - window
	}
	idx := sort.Search(len(p.history), func(i int) bool {
		return p.history[i].block > target
	}) - 1
	if idx < 0 {
		return 0, ErrInsufficientHistory
	}
	then := p.history[idx]
	if bNow == then.block {
		return p.SpotPrice()
	}
	return (p.cumulative - then.cumulative) / float64(bNow-then.block), nil
}

// SwapXForY sells dx of the x reserve for y, charging the pool's fee on the
// input and committing the full (pre-fee) input to the x reserve so k is
// monotonically non-decreasing.
func (p *Pool) SwapXForY(dx float64) (float64, error) {
	if dx <= 0 {
		return 0, ErrInvalidAmount
	}
	dxEff := dx * (1 - p.Fee)
	yNew := p.K / (p.X + dxEff)
	dyOut := p.Y - yNew
	if dyOut <= 0 {
		return 0, ErrDegenerateSwap
	}
	newX := p.X + dx
	newY := p.Y - dyOut
	if newX <= 0 || newY <= 0 {
		return 0, ErrReserveUnderflow
	}
	p.X, p.Y = newX, newY
	p.K = p.X * p.Y
	return dyOut, nil
}

// SwapYForX mirrors SwapXForY, selling dy of the y reserve for x.
func (p *Pool) SwapYForX(dy float64) (float64, error) {
	if dy <= 0 {
		return 0, ErrInvalidAmount
	}
	dyEff := dy * (1 - p.Fee)
	xNew := p.K / (p.Y + dyEff)
	dxOut := p.X - xNew
	if dxOut <= 0 {
		return 0, ErrDegenerateSwap
	}
	newY := p.Y + dy
	newX := p.X - dxOut
	if newX <= 0 || newY <= 0 {
		return 0, ErrReserveUnderflow
	}
	p.X, p.Y = newX, newY
	p.K = p.X * p.Y
	return dxOut, nil
}

// AddLiquidity mints LP shares proportional to the smaller of the two
// contributed ratios, provided dx/x and dy/y agree within tolerance.
func (p *Pool) AddLiquidity(dx, dy, tolerance float64) (float64, error) {
	if dx <= 0 || dy <= 0 {
		return 0, ErrInvalidAmount
	}
	ratioX := dx / p.X
	ratioY := dy / p.Y
	maxRatio := math.Max(ratioX, ratioY)
	if math.Abs(ratioX-ratioY) > tolerance*maxRatio {
		return 0, ErrRatioTolerance
	}
	minRatio := math.Min(ratioX, ratioY)
	minted := minRatio * p.Shares
	p.X += dx
	p.Y += dy
	p.K = p.X * p.Y
	p.Shares += minted
	return minted, nil
}

// RemoveLiquidity burns shares and returns the corresponding reserve amounts.
func (p *Pool) RemoveLiquidity(shares float64) (float64, float64, error) {
	if shares <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	if shares > p.Shares {
		return 0, 0, ErrInsufficientShares
	}
	frac := shares / p.Shares
	dx := p.X * frac
	dy := p.Y * frac
	newX := p.X - dx
	newY := p.Y - dy
	if newX <= 0 || newY <= 0 {
		return 0, 0, ErrReserveUnderflow
	}
	p.X, p.Y = newX, newY
	p.Shares -= shares
	p.K = p.X * p.Y
	return dx, dy, nil
}

// InjectPenalty raises the y reserve without minting shares, used only by
// the liquidation engine to return unsettled penalty value to LPs.
func (p *Pool) InjectPenalty(dy float64) error {
	if dy <= 0 {
		return ErrInvalidAmount
	}
	p.Y += dy
	p.K = p.X * p.Y
	return nil
}

// ImpermanentLoss reports the LP value loss relative to holding, for a
// price ratio r = p_current/p_entry. Reporting only; does not mutate state.
func ImpermanentLoss(r float64) float64 {
	if r <= 0 {
		return -1
	}
	return 2*math.Sqrt(r)/(1+r) - 1
}
