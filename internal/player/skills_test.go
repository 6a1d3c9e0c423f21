package player

import "testing"

func TestGainExperienceLevelUp(t *testing.T) {
	a := NewAttributes()

	if levels := a.GainExperience(50); levels != 0 {
		t.Fatalf("50 exp should not level, got %d levels", levels)
	}
	if a.Level != 1 || a.Experience != 50 {
		t.Fatalf("want level 1 exp 50, got level %d exp %d", a.Level, a.Experience)
	}

	if levels := a.GainExperience(50); levels != 1 {
		t.Fatalf("reaching 100 should grant 1 level, got %d", levels)
	}
	if a.Level != 2 || a.Experience != 0 {
		t.Fatalf("want level 2 exp 0, got level %d exp %d", a.Level, a.Experience)
	}
}

func TestGainExperienceDiscardsOverflow(t *testing.T) {
	a := NewAttributes()

	// 130 exp crosses the threshold once; the 30 overflow is not carried.
	if levels := a.GainExperience(130); levels != 1 {
		t.Fatalf("want 1 level, got %d", levels)
	}
	if a.Experience != 0 {
		t.Fatalf("overflow carried: exp %d", a.Experience)
	}
}

func TestStaminaClamps(t *testing.T) {
	a := NewAttributes()

	a.SpendStamina(150)
	if a.Stamina != 0 {
		t.Fatalf("stamina not clamped at 0: %d", a.Stamina)
	}

	a.RestoreStamina(250)
	if a.Stamina != 100 {
		t.Fatalf("stamina not clamped at 100: %d", a.Stamina)
	}
}

func TestMeetsAll(t *testing.T) {
	a := NewAttributes()
	a.RaiseSkill(SkillCommunication, 3)

	if !a.MeetsAll(map[Skill]int{SkillCommunication: 3, SkillDirectionSense: 1}) {
		t.Fatal("requirements should be met")
	}
	if a.MeetsAll(map[Skill]int{SkillFirstAid: 1}) {
		t.Fatal("absent skill should read as 0")
	}
}

func TestParseRoundTrips(t *testing.T) {
	for _, w := range AllWeathers() {
		got, err := ParseWeather(w.String())
		if err != nil || got != w {
			t.Fatalf("weather %v did not round-trip: %v %v", w, got, err)
		}
	}
	for _, d := range AllDistricts() {
		got, err := ParseDistrict(d.String())
		if err != nil || got != d {
			t.Fatalf("district %v did not round-trip: %v %v", d, got, err)
		}
	}
	for _, c := range AllCustomerTypes() {
		got, err := ParseCustomerType(c.String())
		if err != nil || got != c {
			t.Fatalf("customer type %v did not round-trip: %v %v", c, got, err)
		}
	}
	if _, err := ParseWeather("hail"); err == nil {
		t.Fatal("unknown weather label should fail")
	}
}

func TestRoundMoney(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{1.005, 1.0}, // binary representation of 1.005 is just below it
		{2.675, 2.67},
		{10.0, 10.0},
		{3.14159, 3.14},
		{-1.126, -1.13},
	}
	for _, c := range cases {
		if got := RoundMoney(c.in); got != c.want {
			t.Fatalf("RoundMoney(%f) = %f, want %f", c.in, got, c.want)
		}
	}
}

func TestSevereWeather(t *testing.T) {
	severe := map[Weather]bool{WeatherRainy: true, WeatherStormy: true}
	for _, w := range AllWeathers() {
		if w.Severe() != severe[w] {
			t.Fatalf("weather %v severe = %v", w, w.Severe())
		}
	}
}
