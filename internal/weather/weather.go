// Package weather evolves the city's sky and maps each condition to the
// simulation modifiers orders and deliveries consume.
//
// Conditions drift smoothly over game time through a simplex-noise field
// rather than independent re-rolls, so a typhoon builds out of a storm
// instead of appearing from a clear sky.
package weather

import (
	"log/slog"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/courier-life/internal/player"
)

// TimeMultiplier scales estimated delivery time per condition.
func TimeMultiplier(w player.Weather) float64 {
	switch w {
	case player.WeatherRainy:
		return 1.3
	case player.WeatherStormy:
		return 1.6
	case player.WeatherSnowy:
		return 1.5
	case player.WeatherFoggy:
		return 1.4
	case player.WeatherTyphoon:
		return 2.0
	default:
		return 1.0
	}
}

// BonusRate is the hazard-pay fraction of the base fee per condition.
func BonusRate(w player.Weather) float64 {
	switch w {
	case player.WeatherRainy:
		return 0.3
	case player.WeatherStormy:
		return 0.8
	case player.WeatherSnowy:
		return 0.5
	case player.WeatherFoggy:
		return 0.4
	case player.WeatherTyphoon:
		return 1.5
	default:
		return 0.0
	}
}

// System samples the noise field at the current game time to pick the
// prevailing condition.
type System struct {
	noise opensimplex.Noise

	// frequency controls how fast conditions shift: one full noise unit
	// roughly every two game days.
	frequency float64
}

// NewSystem creates a weather system seeded for this session.
func NewSystem(seed int64) *System {
	return &System{
		noise:     opensimplex.New(seed),
		frequency: 0.5,
	}
}

// At returns the condition prevailing at the given game time.
func (s *System) At(t time.Time) player.Weather {
	days := float64(t.Unix()) / 86400.0
	// Second axis separates sessions sampling the same timestamp range.
	n := s.noise.Eval2(days*s.frequency, 0.37)

	// Noise is roughly in [-1, 1]; squash to [0, 1] and bucket with fat
	// weight on fair skies and a thin typhoon tail.
	v := (n + 1) / 2
	switch {
	case v < 0.45:
		return player.WeatherSunny
	case v < 0.60:
		return player.WeatherFoggy
	case v < 0.78:
		return player.WeatherRainy
	case v < 0.88:
		return player.WeatherStormy
	case v < 0.95:
		return player.WeatherSnowy
	default:
		return player.WeatherTyphoon
	}
}

// Refresh computes the condition for the given time and logs transitions.
func (s *System) Refresh(t time.Time, current player.Weather) player.Weather {
	next := s.At(t)
	if next != current {
		slog.Info("weather changed", "from", current, "to", next)
	}
	return next
}
