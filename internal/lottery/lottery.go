// Package lottery implements the three ticket games. The engine draws and
// scores; the caller applies cost and prize to the courier's balance.
package lottery

import (
	"fmt"

	"github.com/talgya/courier-life/internal/entropy"
)

// Variant selects a lottery game.
type Variant string

const (
	DoubleColorBall Variant = "double-color-ball"
	SuperLotto      Variant = "super-lotto"
	ScratchCard     Variant = "scratch-card"
)

// TicketCost is the fixed price per variant.
func TicketCost(v Variant) float64 {
	if v == ScratchCard {
		return 10.0
	}
	return 2.0
}

// Draw is the outcome of one play.
type Draw struct {
	Variant        Variant `json:"variant"`
	Cost           float64 `json:"cost"`
	Prize          float64 `json:"prize"`
	PlayerNumbers  []int   `json:"player_numbers,omitempty"`
	WinningNumbers []int   `json:"winning_numbers,omitempty"`
	FrontMatches   int     `json:"front_matches"`
	BackMatches    int     `json:"back_matches"`
	BlueMatch      bool    `json:"blue_match"`
}

// Engine runs the games. Draws use the configured source, which may be the
// true-entropy client.
type Engine struct {
	rng entropy.Source

	// consecutiveLosses drives the pity multiplier on double-color-ball
	// minor tiers: +10% per straight losing play, reset on any win.
	consecutiveLosses int
}

// NewEngine creates a lottery engine over the given source.
func NewEngine(rng entropy.Source) *Engine {
	return &Engine{rng: rng}
}

// ConsecutiveLosses exposes the loss streak for persistence.
func (e *Engine) ConsecutiveLosses() int {
	return e.consecutiveLosses
}

// RestoreLossStreak seeds the streak from a snapshot.
func (e *Engine) RestoreLossStreak(n int) {
	if n >= 0 {
		e.consecutiveLosses = n
	}
}

// Play runs one ticket. numbers may be nil for a random pick; scratch cards
// ignore it. An error only signals a malformed ticket, never a losing one.
func (e *Engine) Play(v Variant, numbers []int) (*Draw, error) {
	switch v {
	case DoubleColorBall:
		return e.playDoubleColorBall(numbers)
	case SuperLotto:
		return e.playSuperLotto(numbers)
	case ScratchCard:
		return e.playScratchCard(), nil
	default:
		return nil, fmt.Errorf("unknown lottery variant %q", v)
	}
}

// playDoubleColorBall draws 6 unique reds from 1-33 plus a blue from 1-16.
func (e *Engine) playDoubleColorBall(numbers []int) (*Draw, error) {
	if numbers == nil {
		numbers = append(entropy.SampleUnique(e.rng, 1, 33, 6), 1+e.rng.Intn(16))
	}
	if err := validateTicket(numbers, 7, 6, 33, 16); err != nil {
		return nil, err
	}

	winning := append(entropy.SampleUnique(e.rng, 1, 33, 6), 1+e.rng.Intn(16))

	redMatches := countMatches(numbers[:6], winning[:6])
	blueMatch := numbers[6] == winning[6]

	prize := e.doubleColorBallPrize(redMatches, blueMatch)
	if prize > 0 {
		e.consecutiveLosses = 0
	} else {
		e.consecutiveLosses++
	}

	return &Draw{
		Variant:        DoubleColorBall,
		Cost:           TicketCost(DoubleColorBall),
		Prize:          prize,
		PlayerNumbers:  numbers,
		WinningNumbers: winning,
		FrontMatches:   redMatches,
		BlueMatch:      blueMatch,
	}, nil
}

// doubleColorBallPrize applies the tier table. The pity multiplier applies
// to every tier except the two jackpots.
func (e *Engine) doubleColorBallPrize(redMatches int, blueMatch bool) float64 {
	pity := 1 + float64(e.consecutiveLosses)*0.1

	switch {
	case redMatches == 6 && blueMatch:
		return 5000000.0
	case redMatches == 6:
		return 1000000.0
	case redMatches == 5 && blueMatch:
		return 3000.0 * pity
	case redMatches == 5 || (redMatches == 4 && blueMatch):
		return 200.0 * pity
	case redMatches == 4 || (redMatches == 3 && blueMatch):
		return 10.0 * pity
	case blueMatch:
		return 5.0 * pity
	default:
		return 0.0
	}
}

// playSuperLotto draws 5 front numbers from 1-35 plus 2 back from 1-12.
func (e *Engine) playSuperLotto(numbers []int) (*Draw, error) {
	if numbers == nil {
		numbers = append(entropy.SampleUnique(e.rng, 1, 35, 5), entropy.SampleUnique(e.rng, 1, 12, 2)...)
	}
	if err := validateTicket(numbers, 7, 5, 35, 12); err != nil {
		return nil, err
	}

	winning := append(entropy.SampleUnique(e.rng, 1, 35, 5), entropy.SampleUnique(e.rng, 1, 12, 2)...)

	front := countMatches(numbers[:5], winning[:5])
	back := countMatches(numbers[5:], winning[5:])

	return &Draw{
		Variant:        SuperLotto,
		Cost:           TicketCost(SuperLotto),
		Prize:          superLottoPrize(front, back),
		PlayerNumbers:  numbers,
		WinningNumbers: winning,
		FrontMatches:   front,
		BackMatches:    back,
	}, nil
}

func superLottoPrize(front, back int) float64 {
	switch {
	case front == 5 && back == 2:
		return 10000000.0
	case front == 5 && back == 1:
		return 500000.0
	case front == 5:
		return 10000.0
	case front == 4 && back == 2:
		return 3000.0
	case front == 4 && back == 1:
		return 300.0
	case front == 3 && back == 2:
		return 200.0
	case front == 4 || (front == 3 && back == 1) || (front == 2 && back == 2):
		return 10.0
	case front == 3 || (front == 1 && back == 2) || (front == 2 && back == 1) || back == 2:
		return 5.0
	default:
		return 0.0
	}
}

// scratchPrizes is the fixed discrete distribution, heavily weighted toward
// nothing. The weights are relative; the draw normalizes by their total.
var scratchPrizes = []struct {
	prize  float64
	weight float64
}{
	{0, 0.7},
	{10, 0.15},
	{20, 0.08},
	{50, 0.04},
	{100, 0.02},
	{500, 0.008},
	{1000, 0.001},
	{10000, 0.0001},
}

func (e *Engine) playScratchCard() *Draw {
	weights := make(map[int]float64, len(scratchPrizes))
	for i, p := range scratchPrizes {
		weights[i] = p.weight
	}
	idx := entropy.WeightedChoice(e.rng, weights)

	return &Draw{
		Variant: ScratchCard,
		Cost:    TicketCost(ScratchCard),
		Prize:   scratchPrizes[idx].prize,
	}
}

func validateTicket(numbers []int, total, frontCount, frontMax, backMax int) error {
	if len(numbers) != total {
		return fmt.Errorf("ticket needs %d numbers, got %d", total, len(numbers))
	}
	seen := make(map[int]bool)
	for i, n := range numbers {
		if i < frontCount {
			if n < 1 || n > frontMax {
				return fmt.Errorf("front number %d out of range 1-%d", n, frontMax)
			}
			if seen[n] {
				return fmt.Errorf("duplicate front number %d", n)
			}
			seen[n] = true
		} else if n < 1 || n > backMax {
			return fmt.Errorf("back number %d out of range 1-%d", n, backMax)
		}
	}
	return nil
}

func countMatches(a, b []int) int {
	set := make(map[int]bool, len(b))
	for _, n := range b {
		set[n] = true
	}
	count := 0
	for _, n := range a {
		if set[n] {
			count++
		}
	}
	return count
}
