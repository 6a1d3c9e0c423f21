// Package order produces delivery jobs and resolves their execution.
package order

import (
	"fmt"

	"github.com/talgya/courier-life/internal/entropy"
	"github.com/talgya/courier-life/internal/player"
	"github.com/talgya/courier-life/internal/weather"
)

// Priority tiers an order by payout and risk.
type Priority uint8

const (
	PriorityS Priority = iota // high pay, high complaint risk
	PriorityA                 // regular
	PriorityD                 // safe, cheap
)

var priorityLabels = [...]string{"S", "A", "D"}

func (p Priority) String() string {
	if int(p) < len(priorityLabels) {
		return priorityLabels[p]
	}
	return "?"
}

// Status tracks an order through its lifecycle.
type Status uint8

const (
	StatusAvailable Status = iota
	StatusAccepted
	StatusPickedUp
	StatusDelivered
	StatusCancelled
)

var statusLabels = [...]string{"available", "accepted", "picked-up", "delivered", "cancelled"}

func (s Status) String() string {
	if int(s) < len(statusLabels) {
		return statusLabels[s]
	}
	return "unknown"
}

// Order is immutable once generated except for Status.
type Order struct {
	ID               string              `json:"id"`
	RestaurantName   string              `json:"restaurant_name"`
	CustomerName     string              `json:"customer_name"`
	PickupDistrict   player.District     `json:"pickup_district"`
	DeliveryDistrict player.District     `json:"delivery_district"`
	CustomerType     player.CustomerType `json:"customer_type"`
	Priority         Priority            `json:"priority"`
	BaseFee          float64             `json:"base_fee"`
	DistanceKM       float64             `json:"distance_km"`
	EstimatedMinutes int                 `json:"estimated_minutes"`
	WeatherBonus     float64             `json:"weather_bonus"`
	PeakBonus        float64             `json:"peak_bonus"`
	Status           Status              `json:"status"`
	ComplaintProb    float64             `json:"complaint_probability"`
	TipProb          float64             `json:"tip_probability"`
	Requirements     []string            `json:"requirements"`
}

// Total is the headline payout before delivery events.
func (o *Order) Total() float64 {
	return player.RoundMoney(o.BaseFee + o.WeatherBonus + o.PeakBonus)
}

var restaurants = []string{
	"Golden Arches", "Bucket Bros", "Shaxian Snacks", "Lanzhou Noodle House",
	"Braised Chicken & Rice", "Hotpot Harbor", "Northwest Kitchen",
	"Grandma's Home", "White Deer Diner", "Green Tea Bistro",
}

var customerNames = []string{
	"Zhang San", "Li Si", "Wang Wu", "Zhao Liu", "Qian Qi", "Sun Ba",
	"Zhou Jiu", "Wu Shi", "Zheng Shiyi", "Wang Shier", "Feng Shisan",
	"Chen Shisi", "Chu Shiwu", "Wei Shiliu",
}

// specialRequirements are static per customer type; severe weather appends
// one extra care tag.
var specialRequirements = map[player.CustomerType][]string{
	player.CustomerShyProgrammer:    {"leave at the door", "no phone calls"},
	player.CustomerImpatientRich:    {"video check on arrival", "receipt required"},
	player.CustomerDifficultElderly: {"hand over in person", "bring change"},
	player.CustomerNormal:           {"standard delivery"},
	player.CustomerVIP:              {"thermal bag required", "handle with care"},
}

// priorityWeights maps each customer type to its tier distribution {S, A, D}.
var priorityWeights = map[player.CustomerType][3]float64{
	player.CustomerShyProgrammer:    {0.1, 0.3, 0.6},
	player.CustomerImpatientRich:    {0.7, 0.25, 0.05},
	player.CustomerDifficultElderly: {0.4, 0.5, 0.1},
	player.CustomerNormal:           {0.2, 0.6, 0.2},
	player.CustomerVIP:              {0.5, 0.4, 0.1},
}

var tierBaseFees = map[Priority]float64{
	PriorityS: 15.0,
	PriorityA: 8.0,
	PriorityD: 5.0,
}

// districtMultipliers reflect affluence: richer districts pay more.
var districtMultipliers = map[player.District]float64{
	player.DistrictAntNest:     1.2,
	player.DistrictWutongLane:  1.0,
	player.DistrictStartupPark: 1.1,
	player.DistrictJadeBay:     1.5,
}

var tierComplaintBase = map[Priority]float64{
	PriorityS: 0.7,
	PriorityA: 0.4,
	PriorityD: 0.05,
}

var complaintTypeMultipliers = map[player.CustomerType]float64{
	player.CustomerShyProgrammer:    0.3,
	player.CustomerImpatientRich:    1.5,
	player.CustomerDifficultElderly: 1.2,
	player.CustomerNormal:           1.0,
	player.CustomerVIP:              0.8,
}

var districtTipBase = map[player.District]float64{
	player.DistrictAntNest:     0.1,
	player.DistrictWutongLane:  0.3,
	player.DistrictStartupPark: 0.2,
	player.DistrictJadeBay:     0.6,
}

var tipTypeMultipliers = map[player.CustomerType]float64{
	player.CustomerShyProgrammer:    1.2,
	player.CustomerImpatientRich:    0.8,
	player.CustomerDifficultElderly: 0.5,
	player.CustomerNormal:           1.0,
	player.CustomerVIP:              1.5,
}

// peakHours are the lunch and dinner rush hours that carry a fee bonus.
var peakHours = map[int]bool{11: true, 12: true, 13: true, 18: true, 19: true, 20: true}

// Generator builds candidate orders from weather and time of day. It never
// touches player state.
type Generator struct {
	rng entropy.Source
	seq int
}

// NewGenerator creates an order generator backed by the given source.
func NewGenerator(rng entropy.Source) *Generator {
	return &Generator{rng: rng}
}

// Generate produces one random order for the given conditions.
func (g *Generator) Generate(w player.Weather, currentHour int) *Order {
	districts := player.AllDistricts()
	types := player.AllCustomerTypes()

	pickup := districts[g.rng.Intn(len(districts))]
	delivery := districts[g.rng.Intn(len(districts))]
	ctype := types[g.rng.Intn(len(types))]

	weights := priorityWeights[ctype]
	priority := entropy.WeightedChoice(g.rng, map[int]float64{
		int(PriorityS): weights[0],
		int(PriorityA): weights[1],
		int(PriorityD): weights[2],
	})

	baseFee := baseFee(pickup, delivery, Priority(priority))
	distance := g.distance(pickup, delivery)

	// Sequential ids: a random suffix could collide within one pool and
	// make accept-by-id ambiguous.
	g.seq++

	o := &Order{
		ID:               fmt.Sprintf("ORDER_%06d", 100000+g.seq),
		RestaurantName:   restaurants[g.rng.Intn(len(restaurants))],
		CustomerName:     customerNames[g.rng.Intn(len(customerNames))],
		PickupDistrict:   pickup,
		DeliveryDistrict: delivery,
		CustomerType:     ctype,
		Priority:         Priority(priority),
		BaseFee:          baseFee,
		DistanceKM:       distance,
		EstimatedMinutes: estimatedMinutes(distance, w),
		WeatherBonus:     player.RoundMoney(baseFee * weather.BonusRate(w)),
		PeakBonus:        peakBonus(currentHour, baseFee),
		Status:           StatusAvailable,
		ComplaintProb:    complaintProbability(Priority(priority), ctype),
		TipProb:          tipProbability(delivery, ctype),
		Requirements:     requirements(ctype, w),
	}
	return o
}

func baseFee(pickup, delivery player.District, p Priority) float64 {
	mult := (districtMultipliers[pickup] + districtMultipliers[delivery]) / 2
	return player.RoundMoney(tierBaseFees[p] * mult)
}

func (g *Generator) distance(pickup, delivery player.District) float64 {
	if pickup == delivery {
		return player.RoundMoney(entropy.Uniform(g.rng, 0.5, 2.0))
	}
	return player.RoundMoney(entropy.Uniform(g.rng, 2.0, 8.0))
}

func estimatedMinutes(distance float64, w player.Weather) int {
	// 5 minutes per km on a clear day.
	return int(distance * 5 * weather.TimeMultiplier(w))
}

func peakBonus(hour int, baseFee float64) float64 {
	if peakHours[hour] {
		return player.RoundMoney(baseFee * 0.2)
	}
	return 0.0
}

func complaintProbability(p Priority, c player.CustomerType) float64 {
	prob := tierComplaintBase[p] * complaintTypeMultipliers[c]
	if prob > 0.9 {
		prob = 0.9
	}
	return prob
}

func tipProbability(d player.District, c player.CustomerType) float64 {
	prob := districtTipBase[d] * tipTypeMultipliers[c]
	if prob > 0.8 {
		prob = 0.8
	}
	return prob
}

func requirements(c player.CustomerType, w player.Weather) []string {
	reqs := append([]string{}, specialRequirements[c]...)
	if w == player.WeatherRainy {
		reqs = append(reqs, "keep dry")
	}
	return reqs
}
