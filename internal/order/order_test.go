package order

import (
	"strings"
	"testing"

	"github.com/talgya/courier-life/internal/entropy"
	"github.com/talgya/courier-life/internal/player"
)

func TestGenerateFieldsConsistent(t *testing.T) {
	g := NewGenerator(entropy.NewSeededSource(1))

	for i := 0; i < 100; i++ {
		o := g.Generate(player.WeatherSunny, 14)

		if !strings.HasPrefix(o.ID, "ORDER_") {
			t.Fatalf("bad id %q", o.ID)
		}
		if o.Status != StatusAvailable {
			t.Fatalf("fresh order status %v", o.Status)
		}
		if o.BaseFee <= 0 || o.DistanceKM <= 0 {
			t.Fatalf("non-positive fee or distance: %+v", o)
		}
		if o.PickupDistrict == o.DeliveryDistrict {
			if o.DistanceKM < 0.5 || o.DistanceKM > 2.0 {
				t.Fatalf("same-district distance %f out of range", o.DistanceKM)
			}
		} else if o.DistanceKM < 2.0 || o.DistanceKM > 8.0 {
			t.Fatalf("cross-district distance %f out of range", o.DistanceKM)
		}
		if o.WeatherBonus != 0 {
			t.Fatalf("sunny order carries weather bonus %f", o.WeatherBonus)
		}
		if o.PeakBonus != 0 {
			t.Fatalf("off-peak order carries peak bonus %f", o.PeakBonus)
		}
		if o.ComplaintProb > 0.9 || o.TipProb > 0.8 {
			t.Fatalf("probability caps violated: %+v", o)
		}
		if len(o.Requirements) == 0 {
			t.Fatal("every customer type carries requirements")
		}
	}
}

func TestGeneratePeakBonus(t *testing.T) {
	g := NewGenerator(entropy.NewSeededSource(2))

	o := g.Generate(player.WeatherSunny, 12)
	if want := player.RoundMoney(o.BaseFee * 0.2); o.PeakBonus != want {
		t.Fatalf("peak bonus %f, want %f", o.PeakBonus, want)
	}
}

func TestGenerateWeatherExtras(t *testing.T) {
	g := NewGenerator(entropy.NewSeededSource(3))

	o := g.Generate(player.WeatherRainy, 14)
	if want := player.RoundMoney(o.BaseFee * 0.3); o.WeatherBonus != want {
		t.Fatalf("rainy weather bonus %f, want %f", o.WeatherBonus, want)
	}

	found := false
	for _, r := range o.Requirements {
		if r == "keep dry" {
			found = true
		}
	}
	if !found {
		t.Fatalf("rainy order missing keep-dry requirement: %v", o.Requirements)
	}
}

func TestBaseFeeFormula(t *testing.T) {
	// Jade Bay both ways: multiplier 1.5, S tier base 15.
	got := baseFee(player.DistrictJadeBay, player.DistrictJadeBay, PriorityS)
	if got != 22.5 {
		t.Fatalf("base fee %f, want 22.5", got)
	}
	// Mixed districts average the multipliers.
	got = baseFee(player.DistrictAntNest, player.DistrictWutongLane, PriorityD)
	if got != 5.5 {
		t.Fatalf("base fee %f, want 5.5", got)
	}
}

func TestEstimatedMinutes(t *testing.T) {
	if got := estimatedMinutes(4.0, player.WeatherSunny); got != 20 {
		t.Fatalf("sunny estimate %d, want 20", got)
	}
	if got := estimatedMinutes(4.0, player.WeatherTyphoon); got != 40 {
		t.Fatalf("typhoon estimate %d, want 40", got)
	}
}

func TestProbabilityCaps(t *testing.T) {
	// 0.7 * 1.5 would be 1.05, capped at 0.9.
	if got := complaintProbability(PriorityS, player.CustomerImpatientRich); got != 0.9 {
		t.Fatalf("complaint probability %f, want capped 0.9", got)
	}
	// 0.6 * 1.5 would be 0.9, capped at 0.8.
	if got := tipProbability(player.DistrictJadeBay, player.CustomerVIP); got != 0.8 {
		t.Fatalf("tip probability %f, want capped 0.8", got)
	}
}

func TestOrderTotal(t *testing.T) {
	o := &Order{BaseFee: 10.0, WeatherBonus: 3.0, PeakBonus: 2.0}
	if o.Total() != 15.0 {
		t.Fatalf("total %f, want 15.0", o.Total())
	}
}

func TestGenerateUniqueIDs(t *testing.T) {
	g := NewGenerator(entropy.NewSeededSource(7))

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		o := g.Generate(player.WeatherSunny, 14)
		if seen[o.ID] {
			t.Fatalf("duplicate order id %q", o.ID)
		}
		seen[o.ID] = true
	}
}
