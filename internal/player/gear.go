package player

// Gear item ids, stable across the API.
const (
	GearBatteryPack   = "battery_pack"
	GearRainCover     = "rain_cover"
	GearCargoBracing  = "cargo_bracing"
	GearFormalUniform = "formal_uniform"
)

// Uniform tiers.
const (
	UniformBasic  = "basic"
	UniformFormal = "formal"
)

// MaxBatteryCapacity caps repeated battery pack purchases.
const MaxBatteryCapacity = 200

// GearItem is one purchasable equipment upgrade, priced in delivery coins.
type GearItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Owned       bool    `json:"owned"`
}

var gearCatalog = []GearItem{
	{ID: GearBatteryPack, Name: "battery pack", Description: "adds 20 battery capacity", Price: 300},
	{ID: GearRainCover, Name: "rain cover", Description: "keeps cargo dry in severe weather", Price: 200},
	{ID: GearCargoBracing, Name: "cargo bracing", Description: "halves food damage odds", Price: 150},
	{ID: GearFormalUniform, Name: "formal uniform", Description: "expected by upscale customers", Price: 500},
}

// GearShop lists the catalog with ownership resolved against the state.
func GearShop(st *State) []GearItem {
	out := make([]GearItem, len(gearCatalog))
	copy(out, gearCatalog)
	for i := range out {
		out[i].Owned = ownsGear(st, out[i].ID)
	}
	return out
}

func ownsGear(st *State, id string) bool {
	switch id {
	case GearRainCover:
		return st.Equipment.RainCover
	case GearCargoBracing:
		return st.Equipment.CargoReinforced
	case GearFormalUniform:
		return st.Equipment.UniformTier == UniformFormal
	}
	return false
}

// BuyGear applies one upgrade after charging its price. The battery pack is
// repeatable up to the capacity cap; the rest are one-shot.
func BuyGear(st *State, id string) (bool, string) {
	var item *GearItem
	for i := range gearCatalog {
		if gearCatalog[i].ID == id {
			item = &gearCatalog[i]
			break
		}
	}
	if item == nil {
		return false, "unknown_gear"
	}
	if id == GearBatteryPack && st.Equipment.BatteryCapacity >= MaxBatteryCapacity {
		return false, "battery_maxed"
	}
	if ownsGear(st, id) {
		return false, "already_owned"
	}
	if st.Finances.DeliveryCoins < item.Price {
		return false, "insufficient_funds"
	}
	st.Finances.DeliveryCoins = RoundMoney(st.Finances.DeliveryCoins - item.Price)

	switch id {
	case GearBatteryPack:
		st.Equipment.BatteryCapacity += 20
		if st.Equipment.BatteryCapacity > MaxBatteryCapacity {
			st.Equipment.BatteryCapacity = MaxBatteryCapacity
		}
	case GearRainCover:
		st.Equipment.RainCover = true
	case GearCargoBracing:
		st.Equipment.CargoReinforced = true
	case GearFormalUniform:
		st.Equipment.UniformTier = UniformFormal
	}
	return true, ""
}
