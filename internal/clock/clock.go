// Package clock maps wall-clock time to in-game time and classifies the
// game day into the buckets that drive order generation and delivery speed.
package clock

import (
	"fmt"
	"sync"
	"time"
)

// DayPart buckets the game day into seven fixed clock-hour bands.
type DayPart uint8

const (
	Dawn      DayPart = iota // 05:00-07:00
	Morning                  // 07:00-11:00
	Noon                     // 11:00-13:00
	Afternoon                // 13:00-17:00
	Evening                  // 17:00-19:00
	Night                    // 19:00-23:00
	Midnight                 // 23:00-05:00
)

var dayPartLabels = [...]string{"dawn", "morning", "noon", "afternoon", "evening", "night", "midnight"}

func (p DayPart) String() string {
	if int(p) < len(dayPartLabels) {
		return dayPartLabels[p]
	}
	return "unknown"
}

// deliveryModifiers scales estimated delivery time by road conditions:
// quiet roads before dawn, jammed at lunch.
var deliveryModifiers = map[DayPart]float64{
	Dawn:      0.8,
	Morning:   1.2,
	Noon:      1.5,
	Afternoon: 1.0,
	Evening:   1.3,
	Night:     0.9,
	Midnight:  0.7,
}

// PartForHour classifies an hour [0,24) into its day part.
func PartForHour(hour int) DayPart {
	switch {
	case hour >= 5 && hour < 7:
		return Dawn
	case hour >= 7 && hour < 11:
		return Morning
	case hour >= 11 && hour < 13:
		return Noon
	case hour >= 13 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 19:
		return Evening
	case hour >= 19 && hour < 23:
		return Night
	default:
		return Midnight
	}
}

// Clock advances in-game time at a fixed multiple of real time. Observers
// are transient per session; nothing here is persisted except the current
// game time and day counter, which the engine snapshots.
type Clock struct {
	mu sync.Mutex

	gameTime   time.Time
	multiplier float64 // game seconds per real second
	lastReal   time.Time
	day        int

	onNewDay []func(day int)
	onHour   []func(hour int)
}

// New creates a clock starting at the given game time. multiplier is how
// many game seconds elapse per real second (60 = one game minute per second).
func New(start time.Time, multiplier float64) *Clock {
	if multiplier <= 0 {
		multiplier = 60
	}
	return &Clock{
		gameTime:   start,
		multiplier: multiplier,
		lastReal:   time.Now(),
		day:        1,
	}
}

// Update advances game time by the real time elapsed since the last call,
// scaled by the multiplier, and fires any boundary observers.
func (c *Clock) Update() {
	now := time.Now()

	c.mu.Lock()
	elapsed := now.Sub(c.lastReal).Seconds()
	c.lastReal = now
	mult := c.multiplier
	c.mu.Unlock()

	c.advance(time.Duration(elapsed * mult * float64(time.Second)))
}

// Advance pushes game time forward manually, independent of the wall clock.
// Used to simulate delivery and study durations.
func (c *Clock) Advance(d time.Duration) {
	c.advance(d)
}

func (c *Clock) advance(d time.Duration) {
	if d <= 0 {
		return
	}

	c.mu.Lock()
	old := c.gameTime
	c.gameTime = c.gameTime.Add(d)
	now := c.gameTime

	oldDate := old.Truncate(24 * time.Hour)
	newDate := now.Truncate(24 * time.Hour)
	daysCrossed := int(newDate.Sub(oldDate).Hours() / 24)
	crossedDay := daysCrossed > 0
	c.day += daysCrossed
	day := c.day
	crossedHour := old.Hour() != now.Hour() || crossedDay

	newDay := append([]func(int){}, c.onNewDay...)
	hourly := append([]func(int){}, c.onHour...)
	c.mu.Unlock()

	// Observers run outside the lock; they typically funnel back into the
	// engine's own serialization.
	if crossedDay {
		for _, f := range newDay {
			f(day)
		}
	}
	if crossedHour {
		for _, f := range hourly {
			f(now.Hour())
		}
	}
}

// Now returns the current in-game time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameTime
}

// Day returns the in-game day counter (starts at 1).
func (c *Clock) Day() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.day
}

// SetMultiplier changes the game-seconds-per-real-second rate.
func (c *Clock) SetMultiplier(m float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m > 0 {
		c.multiplier = m
	}
}

// Restore resets game time and day counter from a loaded snapshot.
func (c *Clock) Restore(t time.Time, day int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gameTime = t
	if day >= 1 {
		c.day = day
	}
	c.lastReal = time.Now()
}

// OnNewDay registers an observer fired after a day boundary is crossed.
func (c *Clock) OnNewDay(f func(day int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onNewDay = append(c.onNewDay, f)
}

// OnHourChange registers an observer fired after an hour boundary is crossed.
func (c *Clock) OnHourChange(f func(hour int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onHour = append(c.onHour, f)
}

// Part returns the current day part.
func (c *Clock) Part() DayPart {
	return PartForHour(c.Now().Hour())
}

// IsPeakHour reports whether the current hour falls in one of the three
// two-hour rush bands: morning 7-9, lunch 11-13, dinner 17-19.
func (c *Clock) IsPeakHour() bool {
	h := c.Now().Hour()
	return (h >= 7 && h <= 9) || (h >= 11 && h <= 13) || (h >= 17 && h <= 19)
}

// IsLateNight reports the dead hours when almost nothing moves.
func (c *Clock) IsLateNight() bool {
	h := c.Now().Hour()
	return h >= 22 || h <= 5
}

// DeliveryTimeModifier returns the road-condition multiplier for the current
// day part.
func (c *Clock) DeliveryTimeModifier() float64 {
	if m, ok := deliveryModifiers[c.Part()]; ok {
		return m
	}
	return 1.0
}

// FormattedTime returns the in-game time as "Day N HH:MM (part)".
func (c *Clock) FormattedTime() string {
	c.mu.Lock()
	t := c.gameTime
	day := c.day
	c.mu.Unlock()
	return fmt.Sprintf("Day %d %s (%s)", day, t.Format("15:04"), PartForHour(t.Hour()))
}
