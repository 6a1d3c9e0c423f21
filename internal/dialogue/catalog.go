// Package dialogue resolves customer interactions after delivery events.
// The offline catalog is static configuration loaded once and injected;
// online mode delegates to an external response provider.
package dialogue

import "github.com/talgya/courier-life/internal/player"

// Trigger names the delivery situation that opens an interaction.
type Trigger string

const (
	TriggerDelivered   Trigger = "delivered"    // normal hand-off
	TriggerLate        Trigger = "late"         // past the estimate
	TriggerRushRequest Trigger = "rush-request" // customer chasing the order
	TriggerOnTime      Trigger = "on-time"      // hit the estimate exactly
)

// Effect is the impact vector a chosen option applies. CreditDelta mutates
// the credit score directly; the probability deltas are recorded for the
// delivery resolver's own rolls and never applied retroactively.
type Effect struct {
	CreditDelta          int     `json:"credit_delta"`
	TipChanceDelta       float64 `json:"tip_chance_delta"`
	ComplaintChanceDelta float64 `json:"complaint_chance_delta"`
}

// Option is one line the courier can say, optionally gated on an attribute.
type Option struct {
	Text     string               `json:"text"`
	Effect   Effect               `json:"effect"`
	Requires map[player.Skill]int `json:"requires,omitempty"`
}

// Entry maps (customer type, trigger) to its weighted options and the pool
// of flavor responses the customer answers with.
type Entry struct {
	CustomerType player.CustomerType `json:"customer_type"`
	Trigger      Trigger             `json:"trigger"`
	Options      []Option            `json:"options"`
	Responses    []string            `json:"responses"`
	Context      string              `json:"context"`
}

// Catalog is the full offline dialogue table, immutable after construction.
type Catalog struct {
	entries map[player.CustomerType][]Entry
}

// Find returns the entry for a customer type and trigger, or nil.
func (c *Catalog) Find(ct player.CustomerType, trigger Trigger) *Entry {
	for i := range c.entries[ct] {
		if c.entries[ct][i].Trigger == trigger {
			return &c.entries[ct][i]
		}
	}
	return nil
}

// DefaultCatalog builds the built-in dialogue table.
func DefaultCatalog() *Catalog {
	entries := map[player.CustomerType][]Entry{
		player.CustomerShyProgrammer: {
			{
				CustomerType: player.CustomerShyProgrammer,
				Trigger:      TriggerDelivered,
				Options: []Option{
					{
						Text:   "Left your order at the door, grab it whenever works.",
						Effect: Effect{CreditDelta: 2, TipChanceDelta: 0.6},
					},
					{
						Text:   "Delivery! Come get it!",
						Effect: Effect{CreditDelta: -1, ComplaintChanceDelta: 0.3},
					},
				},
				Responses: []string{"thanks", "appreciate it"},
				Context:   "shy programmers prefer zero-contact drop-offs",
			},
			{
				CustomerType: player.CustomerShyProgrammer,
				Trigger:      TriggerLate,
				Options: []Option{
					{
						Text:   "Sorry I'm late, traffic was brutal.",
						Effect: Effect{CreditDelta: -1},
					},
					{
						Text:   "Left it at the door, still hot.",
						Effect: Effect{CreditDelta: 1, TipChanceDelta: 0.3},
					},
				},
				Responses: []string{"no worries", "try to be on time next time"},
				Context:   "programmers are usually forgiving about delays",
			},
		},
		player.CustomerImpatientRich: {
			{
				CustomerType: player.CustomerImpatientRich,
				Trigger:      TriggerRushRequest,
				Options: []Option{
					{
						Text:   "I'm already on the way, almost there.",
						Effect: Effect{},
					},
					{
						Text:   "Sorry, ran into a problem on my end.",
						Effect: Effect{CreditDelta: -3, ComplaintChanceDelta: 0.5},
					},
					{
						Text:     "Sir, I'm expediting your order right now.",
						Effect:   Effect{CreditDelta: 1},
						Requires: map[player.Skill]int{player.SkillEmotionalIntelligence: 3},
					},
				},
				Responses: []string{"your service is terrible", "make me wait like that again and see"},
				Context:   "impatient big spenders expect deference",
			},
			{
				CustomerType: player.CustomerImpatientRich,
				Trigger:      TriggerOnTime,
				Options: []Option{
					{
						Text:   "Your order, right on time.",
						Effect: Effect{CreditDelta: 2, TipChanceDelta: 0.8},
					},
					{
						Text:     "Your delivery, boss. Anything else I can do?",
						Effect:   Effect{CreditDelta: 3, TipChanceDelta: 1.0},
						Requires: map[player.Skill]int{player.SkillEmotionalIntelligence: 4},
					},
				},
				Responses: []string{"not bad, on the dot", "acceptable speed this time"},
				Context:   "punctuality earns generous tips here",
			},
		},
		player.CustomerDifficultElderly: {
			{
				CustomerType: player.CustomerDifficultElderly,
				Trigger:      TriggerDelivered,
				Options: []Option{
					{
						Text:   "Hello auntie, your food has arrived.",
						Effect: Effect{CreditDelta: 2, ComplaintChanceDelta: -0.2},
					},
					{
						Text:   "Your order's here.",
						Effect: Effect{ComplaintChanceDelta: 0.1},
					},
					{
						Text:     "Grandma, your meal is here, eat it while it's warm.",
						Effect:   Effect{CreditDelta: 3, TipChanceDelta: 0.4},
						Requires: map[player.Skill]int{player.SkillEmotionalIntelligence: 5},
					},
				},
				Responses: []string{"such a polite child", "young people these days aren't so bad"},
				Context:   "a warm greeting noticeably lowers complaints",
			},
		},
		player.CustomerNormal: {
			{
				CustomerType: player.CustomerNormal,
				Trigger:      TriggerDelivered,
				Options: []Option{
					{
						Text:   "Hi, your delivery is here.",
						Effect: Effect{CreditDelta: 1},
					},
					{
						Text:   "Order delivered, enjoy your meal.",
						Effect: Effect{CreditDelta: 1, TipChanceDelta: 0.2},
					},
				},
				Responses: []string{"thanks", "thanks for the trouble"},
				Context:   "plain customers, plain exchanges",
			},
		},
		player.CustomerVIP: {
			{
				CustomerType: player.CustomerVIP,
				Trigger:      TriggerDelivered,
				Options: []Option{
					{
						Text:   "Hello, your VIP priority order has arrived.",
						Effect: Effect{CreditDelta: 2, TipChanceDelta: 0.6},
					},
					{
						Text:     "Your meal is served. Thank you for choosing us, enjoy.",
						Effect:   Effect{CreditDelta: 3, TipChanceDelta: 0.8},
						Requires: map[player.Skill]int{player.SkillEmotionalIntelligence: 3},
					},
				},
				Responses: []string{"excellent service", "I'll order from you again"},
				Context:   "VIPs expect white-glove treatment",
			},
		},
	}

	return &Catalog{entries: entries}
}
