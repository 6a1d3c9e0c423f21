// Package player holds the canonical mutable state of the courier and the
// closed enumerations the rest of the simulation reads.
package player

import (
	"fmt"
	"time"
)

// Weather enumerates the sky conditions that modulate orders and deliveries.
type Weather uint8

const (
	WeatherSunny Weather = iota
	WeatherRainy
	WeatherStormy
	WeatherSnowy
	WeatherFoggy
	WeatherTyphoon
)

var weatherLabels = [...]string{"sunny", "rainy", "stormy", "snowy", "foggy", "typhoon"}

func (w Weather) String() string {
	if int(w) < len(weatherLabels) {
		return weatherLabels[w]
	}
	return "unknown"
}

// ParseWeather reconstructs a Weather from its canonical label.
func ParseWeather(label string) (Weather, error) {
	for i, l := range weatherLabels {
		if l == label {
			return Weather(i), nil
		}
	}
	return WeatherSunny, fmt.Errorf("unknown weather %q", label)
}

// AllWeathers lists every weather value, in label order.
func AllWeathers() []Weather {
	out := make([]Weather, len(weatherLabels))
	for i := range out {
		out[i] = Weather(i)
	}
	return out
}

// Severe reports whether the weather damages unprotected cargo.
func (w Weather) Severe() bool {
	return w == WeatherRainy || w == WeatherStormy
}

// District enumerates the four delivery zones of the city.
type District uint8

const (
	DistrictAntNest     District = iota // dense urban village
	DistrictWutongLane                  // old town
	DistrictStartupPark                 // new business park
	DistrictJadeBay                     // upscale waterfront
)

var districtLabels = [...]string{"ant-nest", "wutong-lane", "startup-park", "jade-bay"}

func (d District) String() string {
	if int(d) < len(districtLabels) {
		return districtLabels[d]
	}
	return "unknown"
}

// ParseDistrict reconstructs a District from its canonical label.
func ParseDistrict(label string) (District, error) {
	for i, l := range districtLabels {
		if l == label {
			return District(i), nil
		}
	}
	return DistrictAntNest, fmt.Errorf("unknown district %q", label)
}

// AllDistricts lists every district, in label order.
func AllDistricts() []District {
	out := make([]District, len(districtLabels))
	for i := range out {
		out[i] = District(i)
	}
	return out
}

// CustomerType tags an order with the behavioral profile of its customer.
type CustomerType uint8

const (
	CustomerShyProgrammer CustomerType = iota
	CustomerImpatientRich
	CustomerDifficultElderly
	CustomerNormal
	CustomerVIP
)

var customerLabels = [...]string{"shy-programmer", "impatient-rich", "difficult-elderly", "normal", "vip"}

func (c CustomerType) String() string {
	if int(c) < len(customerLabels) {
		return customerLabels[c]
	}
	return "unknown"
}

// ParseCustomerType reconstructs a CustomerType from its canonical label.
func ParseCustomerType(label string) (CustomerType, error) {
	for i, l := range customerLabels {
		if l == label {
			return CustomerType(i), nil
		}
	}
	return CustomerNormal, fmt.Errorf("unknown customer type %q", label)
}

// AllCustomerTypes lists every customer type, in label order.
func AllCustomerTypes() []CustomerType {
	out := make([]CustomerType, len(customerLabels))
	for i := range out {
		out[i] = CustomerType(i)
	}
	return out
}

// Stats accumulates lifetime counters. Monotonic, never decremented.
type Stats struct {
	TotalOrders          int     `json:"total_orders"`
	SuccessfulDeliveries int     `json:"successful_deliveries"`
	Complaints           int     `json:"complaints"`
	FiveStarRatings      int     `json:"five_star_ratings"`
	TotalEarnings        float64 `json:"total_earnings"`
	TotalTips            float64 `json:"total_tips"`
}

// Finances tracks the courier's money. DeliveryCoins is the liquid currency;
// monetary values are rounded to 2 decimals only at transaction boundaries.
type Finances struct {
	DeliveryCoins    float64 `json:"delivery_coins"`
	CreditPoints     int     `json:"credit_points"`
	Debt             float64 `json:"debt"`
	MonthlyRent      float64 `json:"monthly_rent"`
	Savings          float64 `json:"savings"`
	MedicalInsurance bool    `json:"medical_insurance"`
}

// Equipment is the courier's delivery gear.
type Equipment struct {
	BatteryCapacity int    `json:"battery_capacity"`
	RainCover       bool   `json:"rain_cover"`
	CargoReinforced bool   `json:"cargo_reinforced"`
	UniformTier     string `json:"uniform_tier"` // "basic" or "formal"
}

// State is the aggregate root. Exactly one instance exists per session; every
// subsystem takes a reference and mutations are serialized by the engine.
type State struct {
	PlayerName string      `json:"player_name"`
	Attributes *Attributes `json:"attributes"`
	Finances   Finances    `json:"finances"`
	Equipment  Equipment   `json:"equipment"`
	Stats      Stats       `json:"stats"`

	CurrentTime  time.Time `json:"current_time"`
	Weather      Weather   `json:"weather"`
	District     District  `json:"district"`
	FatigueLevel int       `json:"fatigue_level"`
	Online       bool      `json:"online"`
}

// New creates a fresh courier: broke, indebted, healthy, optimistic.
func New(name string) *State {
	return &State{
		PlayerName: name,
		Attributes: NewAttributes(),
		Finances: Finances{
			DeliveryCoins: 100.0,
			CreditPoints:  100,
			Debt:          50000.0,
			MonthlyRent:   2000.0,
		},
		Equipment: Equipment{
			BatteryCapacity: 100,
			UniformTier:     UniformBasic,
		},
		CurrentTime: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		Weather:     WeatherSunny,
		District:    DistrictAntNest,
		Online:      true,
	}
}
