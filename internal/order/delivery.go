package order

import (
	"github.com/talgya/courier-life/internal/entropy"
	"github.com/talgya/courier-life/internal/player"
)

// EventType names a random occurrence during a delivery run.
type EventType string

const (
	EventFoodDamage  EventType = "food_damage"
	EventAccident    EventType = "accident"
	EventBatteryDead EventType = "battery_dead"
	EventEarlyBonus  EventType = "early_bonus"
)

// Event is one random occurrence rolled during resolution.
type Event struct {
	Type        EventType `json:"type"`
	Description string    `json:"description"`
	Cost        float64   `json:"cost,omitempty"`
	Bonus       float64   `json:"bonus,omitempty"`
	TimePenalty int       `json:"time_penalty,omitempty"`
}

// Result is the outcome of a delivery run. The caller applies the deltas to
// player state; the resolver only mutates the order's status and reports.
type Result struct {
	Success          bool    `json:"success"`
	Earnings         float64 `json:"earnings"`
	Tip              float64 `json:"tip"`
	Complaint        bool    `json:"complaint"`
	ExperienceGained int     `json:"experience_gained"`
	CreditDelta      int     `json:"credit_delta"`
	FiveStar         bool    `json:"five_star"`
	Events           []Event `json:"events"`
	TimePenalty      int     `json:"time_penalty"`
}

// Resolver runs accepted orders against a snapshot of the courier's
// attributes and equipment.
type Resolver struct {
	rng entropy.Source
}

// NewResolver creates a delivery resolver backed by the given source.
func NewResolver(rng entropy.Source) *Resolver {
	return &Resolver{rng: rng}
}

var tierExperience = map[Priority]int{
	PriorityS: 50,
	PriorityA: 30,
	PriorityD: 15,
}

// Resolve simulates the delivery. Step order matters: events adjust the
// running total, an accident aborts everything after it, and the tip and
// complaint rolls only happen on runs that finish.
func (r *Resolver) Resolve(o *Order, st *player.State) *Result {
	res := &Result{Success: true}
	total := o.BaseFee + o.WeatherBonus + o.PeakBonus

	res.Events = r.rollEvents(o, st)
	for i, ev := range res.Events {
		switch ev.Type {
		case EventAccident:
			// An accident ends the run: no earnings, no tip, no rating.
			// Anything rolled after the crash never happened.
			res.Events = res.Events[:i+1]
			res.Success = false
			res.Earnings = 0
			o.Status = StatusCancelled
			return res
		case EventFoodDamage:
			total -= ev.Cost
		case EventEarlyBonus:
			total += ev.Bonus
		case EventBatteryDead:
			res.TimePenalty += ev.TimePenalty
		}
	}

	if entropy.Chance(r.rng, o.TipProb) {
		res.Tip = player.RoundMoney(entropy.Uniform(r.rng, 2.0, 20.0))
		total += res.Tip
	}

	complaintChance := o.ComplaintProb
	if st.Attributes.Skill(player.SkillEmotionalIntelligence) > 5 {
		complaintChance *= 0.8
	}
	if entropy.Chance(r.rng, complaintChance) {
		res.Complaint = true
		res.CreditDelta = -5
	} else {
		res.FiveStar = true
		res.CreditDelta = 1
	}

	res.Earnings = player.RoundMoney(total)
	res.ExperienceGained = r.experience(o, st.Weather)
	o.Status = StatusDelivered
	return res
}

func (r *Resolver) rollEvents(o *Order, st *player.State) []Event {
	var events []Event

	// Rain soaks unprotected cargo; bracing halves the odds.
	damageChance := 0.3
	if st.Equipment.CargoReinforced {
		damageChance = 0.15
	}
	if st.Weather.Severe() && !st.Equipment.RainCover && entropy.Chance(r.rng, damageChance) {
		events = append(events, Event{
			Type:        EventFoodDamage,
			Description: "food ruined by the rain",
			Cost:        o.BaseFee * 0.5,
		})
	}

	if entropy.Chance(r.rng, 0.05) {
		events = append(events, Event{
			Type:        EventAccident,
			Description: "traffic accident on route",
			Cost:        500.0,
		})
	}

	if st.Equipment.BatteryCapacity < 50 && entropy.Chance(r.rng, 0.1) {
		events = append(events, Event{
			Type:        EventBatteryDead,
			Description: "battery died, pushed the scooter",
			TimePenalty: 20,
		})
	}

	if st.Attributes.Skill(player.SkillDirectionSense) > 3 && entropy.Chance(r.rng, 0.2) {
		events = append(events, Event{
			Type:        EventEarlyBonus,
			Description: "shortcut paid off, delivered early",
			Bonus:       3.0,
		})
	}

	return events
}

func (r *Resolver) experience(o *Order, w player.Weather) int {
	exp := tierExperience[o.Priority]
	if w.Severe() {
		exp += 10
	}
	return exp
}
