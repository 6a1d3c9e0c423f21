package market

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/courier-life/internal/player"
)

// MaxLeverage caps position leverage globally.
const MaxLeverage = 5.0

// marginCallThreshold is the unrealized loss fraction that forces a
// leveraged position closed.
const marginCallThreshold = 0.3

// Position is a per-symbol holding.
type Position struct {
	Symbol       string  `json:"symbol"`
	Shares       int     `json:"shares"`
	AvgCost      float64 `json:"avg_cost"`
	CurrentPrice float64 `json:"current_price"`
	Leverage     float64 `json:"leverage"`
}

// MarketValue is the position's leveraged exposure at current price.
func (p *Position) MarketValue() float64 {
	return float64(p.Shares) * p.CurrentPrice * p.Leverage
}

// ProfitLoss is the unrealized leveraged P&L.
func (p *Position) ProfitLoss() float64 {
	return (p.CurrentPrice - p.AvgCost) * float64(p.Shares) * p.Leverage
}

// ProfitLossPercent is the unleveraged price move against cost basis.
func (p *Position) ProfitLossPercent() float64 {
	if p.AvgCost == 0 {
		return 0
	}
	return (p.CurrentPrice - p.AvgCost) / p.AvgCost * 100
}

// TradeAction labels a transaction record.
type TradeAction string

const (
	ActionBuy         TradeAction = "buy"
	ActionSell        TradeAction = "sell"
	ActionLiquidation TradeAction = "liquidation"
)

// Transaction is one append-only trade record.
type Transaction struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Action    TradeAction `json:"action"`
	Symbol    string      `json:"symbol"`
	Shares    int         `json:"shares"`
	Price     float64     `json:"price"`
	Leverage  float64     `json:"leverage"`
	Amount    float64     `json:"amount"` // capital spent or revenue received
	Profit    float64     `json:"profit,omitempty"`
}

// TradeResult is the discriminated outcome of a buy or sell.
type TradeResult struct {
	OK     bool    `json:"ok"`
	Reason string  `json:"reason,omitempty"`
	Profit float64 `json:"profit,omitempty"`
	Amount float64 `json:"amount,omitempty"`
}

// Trade failure reason codes.
const (
	ReasonLeverageOverCap    = "leverage_over_cap"
	ReasonInsufficientFunds  = "insufficient_funds"
	ReasonNoPosition         = "no_position"
	ReasonInsufficientShares = "insufficient_shares"
)

// Portfolio holds the courier's positions. It debits and credits the shared
// finances directly; callers serialize access through the engine.
type Portfolio struct {
	finances  *player.Finances
	positions map[string]*Position
	history   []Transaction
}

// NewPortfolio creates an empty portfolio over the shared finances.
func NewPortfolio(finances *player.Finances) *Portfolio {
	return &Portfolio{
		finances:  finances,
		positions: make(map[string]*Position),
	}
}

// Buy opens or extends a position. Required capital is shares×price/leverage.
// Merging into an existing position uses shares-weighted average cost.
func (pf *Portfolio) Buy(symbol string, shares int, price, leverage float64, now time.Time) TradeResult {
	if leverage > MaxLeverage {
		return TradeResult{OK: false, Reason: ReasonLeverageOverCap}
	}
	if leverage < 1.0 {
		leverage = 1.0
	}

	capital := float64(shares) * price / leverage
	if capital > pf.finances.DeliveryCoins {
		return TradeResult{OK: false, Reason: ReasonInsufficientFunds}
	}

	pf.finances.DeliveryCoins -= capital

	if pos, ok := pf.positions[symbol]; ok {
		totalCost := pos.AvgCost*float64(pos.Shares) + price*float64(shares)
		pos.Shares += shares
		pos.AvgCost = totalCost / float64(pos.Shares)
		pos.CurrentPrice = price
	} else {
		pf.positions[symbol] = &Position{
			Symbol:       symbol,
			Shares:       shares,
			AvgCost:      price,
			CurrentPrice: price,
			Leverage:     leverage,
		}
	}

	pf.history = append(pf.history, Transaction{
		ID:        uuid.NewString(),
		Timestamp: now,
		Action:    ActionBuy,
		Symbol:    symbol,
		Shares:    shares,
		Price:     price,
		Leverage:  leverage,
		Amount:    player.RoundMoney(capital),
	})

	return TradeResult{OK: true, Amount: player.RoundMoney(capital)}
}

// Sell closes part or all of a position at the given price. Revenue is
// shares×price×leverage; realized profit is (price−avgCost)×shares×leverage.
func (pf *Portfolio) Sell(symbol string, shares int, price float64, now time.Time) TradeResult {
	return pf.sell(symbol, shares, price, now, ActionSell)
}

func (pf *Portfolio) sell(symbol string, shares int, price float64, now time.Time, action TradeAction) TradeResult {
	pos, ok := pf.positions[symbol]
	if !ok {
		return TradeResult{OK: false, Reason: ReasonNoPosition}
	}
	if shares > pos.Shares {
		return TradeResult{OK: false, Reason: ReasonInsufficientShares}
	}

	revenue := float64(shares) * price * pos.Leverage
	profit := (price - pos.AvgCost) * float64(shares) * pos.Leverage

	if shares == pos.Shares {
		delete(pf.positions, symbol)
	} else {
		pos.Shares -= shares
	}

	pf.finances.DeliveryCoins += revenue

	pf.history = append(pf.history, Transaction{
		ID:        uuid.NewString(),
		Timestamp: now,
		Action:    action,
		Symbol:    symbol,
		Shares:    shares,
		Price:     price,
		Leverage:  pos.Leverage,
		Amount:    player.RoundMoney(revenue),
		Profit:    player.RoundMoney(profit),
	})

	return TradeResult{OK: true, Amount: player.RoundMoney(revenue), Profit: player.RoundMoney(profit)}
}

// RefreshPositions marks positions to current exchange prices and force-
// liquidates any leveraged position past the margin threshold. Returns the
// symbols liquidated.
func (pf *Portfolio) RefreshPositions(ex *Exchange, now time.Time) []string {
	for symbol, pos := range pf.positions {
		if s := ex.Get(symbol); s != nil {
			pos.CurrentPrice = s.Price
		}
	}

	var liquidated []string
	for symbol, pos := range pf.positions {
		if pos.Leverage <= 1.0 {
			continue
		}
		lossFraction := -pos.ProfitLossPercent() / 100
		if lossFraction >= marginCallThreshold {
			res := pf.sell(symbol, pos.Shares, pos.CurrentPrice, now, ActionLiquidation)
			if res.OK {
				slog.Warn("margin call",
					"symbol", symbol,
					"price", pos.CurrentPrice,
					"loss", fmt.Sprintf("%.1f%%", lossFraction*100),
				)
				liquidated = append(liquidated, symbol)
			}
		}
	}
	return liquidated
}

// Position returns the holding for a symbol, or nil.
func (pf *Portfolio) Position(symbol string) *Position {
	return pf.positions[symbol]
}

// Positions returns all live holdings, ordered by symbol.
func (pf *Portfolio) Positions() []*Position {
	out := make([]*Position, 0, len(pf.positions))
	for _, p := range pf.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Value sums market value over live positions.
func (pf *Portfolio) Value() float64 {
	total := 0.0
	for _, p := range pf.positions {
		total += p.MarketValue()
	}
	return total
}

// TotalProfitLoss sums unrealized P&L over live positions.
func (pf *Portfolio) TotalProfitLoss() float64 {
	total := 0.0
	for _, p := range pf.positions {
		total += p.ProfitLoss()
	}
	return total
}

// History returns the most recent limit transactions.
func (pf *Portfolio) History(limit int) []Transaction {
	if limit <= 0 || limit > len(pf.history) {
		limit = len(pf.history)
	}
	out := make([]Transaction, limit)
	copy(out, pf.history[len(pf.history)-limit:])
	return out
}

// RestoreHistory seeds the transaction log from persisted records.
func (pf *Portfolio) RestoreHistory(records []Transaction) {
	pf.history = append([]Transaction{}, records...)
}

// RestorePositions seeds holdings from persisted records.
func (pf *Portfolio) RestorePositions(positions []*Position) {
	pf.positions = make(map[string]*Position, len(positions))
	for _, p := range positions {
		pf.positions[p.Symbol] = p
	}
}
