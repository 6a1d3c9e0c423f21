// Package market simulates the stock exchange and the courier's leveraged
// portfolio.
package market

import (
	"sort"
	"strings"
	"time"

	"github.com/talgya/courier-life/internal/entropy"
	"github.com/talgya/courier-life/internal/player"
)

// Sector classifies a stock and determines its volatility.
type Sector string

const (
	SectorTech     Sector = "tech"
	SectorFinance  Sector = "finance"
	SectorConsumer Sector = "consumer"
	SectorMedical  Sector = "medical"
	SectorEnergy   Sector = "energy"
)

// sectorVolatility scales the uniform price shock per sector.
var sectorVolatility = map[Sector]float64{
	SectorTech:     1.5,
	SectorFinance:  0.8,
	SectorConsumer: 1.0,
	SectorMedical:  1.2,
	SectorEnergy:   1.3,
}

// Stock is one listed symbol.
type Stock struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Sector        Sector  `json:"sector"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int     `json:"volume"`
}

// Exchange holds the listed catalog and applies price ticks during trading
// hours.
type Exchange struct {
	stocks map[string]*Stock
	rng    entropy.Source

	lastTick time.Time
}

// tradingHours bound price movement to the 09:00-15:00 in-game session.
const (
	openHour  = 9
	closeHour = 15
)

// NewExchange lists the built-in catalog.
func NewExchange(rng entropy.Source) *Exchange {
	listings := []struct {
		symbol string
		name   string
		sector Sector
		price  float64
	}{
		{"000001", "Ping An Bank", SectorFinance, 12.50},
		{"000002", "Vanke A", SectorConsumer, 18.20},
		{"000858", "Wuliangye", SectorConsumer, 158.30},
		{"002415", "Hikvision", SectorTech, 35.80},
		{"300059", "East Money", SectorFinance, 15.60},
		{"300750", "CATL", SectorTech, 420.50},
		{"600036", "Merchants Bank", SectorFinance, 35.20},
		{"600519", "Kweichow Moutai", SectorConsumer, 1680.00},
		{"600887", "Yili Dairy", SectorConsumer, 32.40},
		{"688111", "Kingsoft Office", SectorTech, 280.80},
	}

	stocks := make(map[string]*Stock, len(listings))
	for _, l := range listings {
		stocks[l.symbol] = &Stock{
			Symbol: l.symbol,
			Name:   l.name,
			Sector: l.sector,
			Price:  l.price,
			Volume: 10000 + rng.Intn(990001),
		}
	}

	return &Exchange{stocks: stocks, rng: rng}
}

// Tick applies one round of price movement at the given game time. A tick is
// a no-op outside trading hours or within 60 game seconds of the previous
// tick. Returns whether prices moved.
func (e *Exchange) Tick(now time.Time) bool {
	h := now.Hour()
	if h < openHour || h >= closeHour {
		return false
	}
	if !e.lastTick.IsZero() && now.Sub(e.lastTick) < time.Minute {
		return false
	}

	for _, s := range e.stocks {
		// Uniform shock in [-5%, +5%], scaled by sector volatility.
		change := entropy.Uniform(e.rng, -0.05, 0.05) * sectorVolatility[s.Sector]
		s.ChangePercent = change * 100
		s.Price = player.RoundMoney(s.Price * (1 + change))
		s.Volume = 10000 + e.rng.Intn(990001)
	}

	e.lastTick = now
	return true
}

// Get returns the stock for a symbol, or nil.
func (e *Exchange) Get(symbol string) *Stock {
	return e.stocks[symbol]
}

// All returns every listed stock, ordered by symbol.
func (e *Exchange) All() []*Stock {
	out := make([]*Stock, 0, len(e.stocks))
	for _, s := range e.stocks {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Search matches symbols or names case-insensitively.
func (e *Exchange) Search(keyword string) []*Stock {
	keyword = strings.ToLower(keyword)
	var out []*Stock
	for _, s := range e.stocks {
		if strings.Contains(strings.ToLower(s.Name), keyword) ||
			strings.Contains(strings.ToLower(s.Symbol), keyword) {
			out = append(out, s)
		}
	}
	return out
}
