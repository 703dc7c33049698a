// Package agent defines the closed interface between the Scenario Engine
// and the agent library: a read-only per-block View, a closed set of
// intended operations (Op), and the Agent capability {Act} that produces
// them. Per spec.md §5, agents carry their own internal state across
// blocks but never mutate engine-owned state directly — the engine applies
// the Ops an agent returns.
package agent

// Kind is the closed set of operations an agent may request.
type Kind int

const (
	SwapXToY Kind = iota
	SwapYToX
	OpenVault
	Deposit
	Withdraw
	Borrow
	Repay
	AddLiquidity
	RemoveLiquidity
	SelfLiquidate
)

func (k Kind) String() string {
	switch k {
	case SwapXToY:
		return "swap_x_to_y"
	case SwapYToX:
		return "swap_y_to_x"
	case OpenVault:
		return "open_vault"
	case Deposit:
		return "deposit"
	case Withdraw:
		return "withdraw"
	case Borrow:
		return "borrow"
	case Repay:
		return "repay"
	case AddLiquidity:
		return "add_liquidity"
	case RemoveLiquidity:
		return "remove_liquidity"
	case SelfLiquidate:
		return "self_liquidate"
	default:
		return "unknown"
	}
}

// Op is one intended operation returned from Act. Only the fields relevant
// to Kind are populated; the engine interprets them per Kind:
//
//   - SwapXToY / SwapYToX: Amount is dx or dy.
//   - OpenVault: Amount is collateral, Amount2 is debt.
//   - Deposit / Withdraw: Amount is Δc.
//   - Borrow / Repay: Amount is Δd.
//   - AddLiquidity: Amount is dx, Amount2 is dy.
//   - RemoveLiquidity: Amount is the share count to burn.
//   - SelfLiquidate: only VaultID is used.
//
// VaultID addresses an existing vault for Deposit/Withdraw/Borrow/Repay/
// SelfLiquidate; it is ignored for the other kinds.
type Op struct {
	Kind    Kind
	Amount  float64
	Amount2 float64
	VaultID uint64
}

// VaultSnapshot is a read-only view of one open vault, as seen by agents.
type VaultSnapshot struct {
	ID         uint64
	Owner      string
	Collateral float64
	Debt       float64
}

// View is the read-only per-block state agents observe. It is a snapshot:
// mutating it has no effect on engine state, and it goes stale after the
// block it was taken for.
type View struct {
	Block uint64

	ExternalPrice float64
	SpotPrice     float64
	TwapPrice     float64

	ReserveX, ReserveY float64
	SwapFee            float64

	RedemptionPrice float64
	RedemptionRate  float64

	Vaults []VaultSnapshot

	RMin   float64
	DFloor float64

	OpenPaused       bool
	BorrowPaused     bool
	LiquidationPaused bool
}

// Agent is polymorphic over the capability {Act}: given the block number
// and a read-only view, it returns the operations it intends for this
// block. Dispatch order across agents is fixed by the Scenario Engine, not
// by this interface.
type Agent interface {
	ID() string
	Act(view View) []Op
}
