// Package controller implements the redemption-rate feedback laws of
// spec.md §4.4: a proportional-integral controller and a log-scale
// integral-only ("Tick") controller, both driving a compounding redemption
// price toward the AMM market price.
package controller

import "math"

// clamp bounds x to [lo, hi].
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Controller tracks redemption price r_p, the current per-block redemption
// rate r_r, and the bounded integral accumulator I (clamped to IMin/IMax in
// PI mode and to the rate corridor in Tick mode).
type Controller struct {
	cfg Config

	redemptionPrice float64
	redemptionRate  float64
	integral        float64
	lastBlock       uint64
}

// New constructs a controller seeded with an initial redemption price and
// a genesis block. The redemption rate and integral accumulator start at
// zero; the first Step call measures Δb from genesisBlock.
func New(cfg Config, initialPrice float64, genesisBlock uint64) (*Controller, error) {
	if initialPrice <= 0 {
		return nil, ErrInvalidRedemptionPrice
	}
	if cfg.RMin > cfg.RMax {
		return nil, ErrInvalidBounds
	}
	if cfg.Mode == PI && cfg.IMin > cfg.IMax {
		return nil, ErrInvalidBounds
	}
	return &Controller{
		cfg:             cfg,
		redemptionPrice: initialPrice,
		lastBlock:       genesisBlock,
	}, nil
}

// RedemptionPrice returns the current redemption price r_p.
func (c *Controller) RedemptionPrice() float64 { return c.redemptionPrice }

// RedemptionRate returns the current per-block redemption rate r_r.
func (c *Controller) RedemptionRate() float64 { return c.redemptionRate }

// Step advances the controller to block b: it compounds the redemption
// price by the rate held since the last update, then recomputes the rate
// from the observed market price under the configured feedback law.
func (c *Controller) Step(pMarket float64, block uint64) error {
	if block <= c.lastBlock {
		return ErrNonMonotonicBlock
	}
	delta := float64(block - c.lastBlock)
	c.redemptionPrice *= math.Pow(1+c.redemptionRate, delta)

	switch c.cfg.Mode {
	case PI:
		e := (pMarket - c.redemptionPrice) / c.redemptionPrice
		p := -c.cfg.Kp * e
		c.integral = clamp(c.integral-c.cfg.Ki*e, c.cfg.IMin, c.cfg.IMax)
		c.redemptionRate = clamp(p+c.integral, c.cfg.RMin, c.cfg.RMax)
	case Tick:
		eLog := math.Log(pMarket / c.redemptionPrice)
		c.integral = clamp(c.integral-c.cfg.S*eLog, c.cfg.RMin, c.cfg.RMax)
		c.redemptionRate = c.integral
	}

	c.lastBlock = block
	return nil
}
