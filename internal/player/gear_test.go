package player

import "testing"

func TestBuyGearChargesAndEquips(t *testing.T) {
	st := New("rider")
	st.Finances.DeliveryCoins = 1000

	ok, reason := BuyGear(st, GearRainCover)
	if !ok || reason != "" {
		t.Fatalf("buy rain cover: %v %q", ok, reason)
	}
	if !st.Equipment.RainCover || st.Finances.DeliveryCoins != 800 {
		t.Fatalf("after purchase: %+v coins %f", st.Equipment, st.Finances.DeliveryCoins)
	}

	if ok, reason := BuyGear(st, GearRainCover); ok || reason != "already_owned" {
		t.Fatalf("second purchase: %v %q", ok, reason)
	}

	ok, _ = BuyGear(st, GearFormalUniform)
	if !ok || st.Equipment.UniformTier != UniformFormal {
		t.Fatalf("uniform: %v tier %q", ok, st.Equipment.UniformTier)
	}
}

func TestBuyGearRejections(t *testing.T) {
	st := New("rider") // 100 coins, less than any price

	if ok, reason := BuyGear(st, "jetpack"); ok || reason != "unknown_gear" {
		t.Fatalf("unknown gear: %v %q", ok, reason)
	}
	if ok, reason := BuyGear(st, GearCargoBracing); ok || reason != "insufficient_funds" {
		t.Fatalf("broke purchase: %v %q", ok, reason)
	}
	if st.Finances.DeliveryCoins != 100 {
		t.Fatalf("failed purchase still charged: %f", st.Finances.DeliveryCoins)
	}
}

func TestBuyGearBatteryPackRepeatsUntilCap(t *testing.T) {
	st := New("rider")
	st.Finances.DeliveryCoins = 10000

	for want := 120; want <= MaxBatteryCapacity; want += 20 {
		if ok, reason := BuyGear(st, GearBatteryPack); !ok {
			t.Fatalf("battery pack at %d: %q", st.Equipment.BatteryCapacity, reason)
		}
		if st.Equipment.BatteryCapacity != want {
			t.Fatalf("capacity %d, want %d", st.Equipment.BatteryCapacity, want)
		}
	}

	if ok, reason := BuyGear(st, GearBatteryPack); ok || reason != "battery_maxed" {
		t.Fatalf("purchase past cap: %v %q", ok, reason)
	}
}

func TestGearShopOwnershipFlags(t *testing.T) {
	st := New("rider")
	st.Equipment.CargoReinforced = true

	for _, item := range GearShop(st) {
		want := item.ID == GearCargoBracing
		if item.Owned != want {
			t.Fatalf("item %s owned = %v, want %v", item.ID, item.Owned, want)
		}
		if item.Price <= 0 {
			t.Fatalf("item %s has no price", item.ID)
		}
	}
}
