package lottery

import (
	"testing"

	"github.com/talgya/courier-life/internal/entropy"
)

// zeroSource makes every draw fully predictable: Intn always 0 turns a
// unique sample into the first k numbers of the range, Float64 0 lands
// weighted picks on the first bucket.
type zeroSource struct{}

func (zeroSource) Float64() float64 { return 0.0 }
func (zeroSource) Intn(n int) int   { return 0 }

func TestDoubleColorBallJackpot(t *testing.T) {
	e := NewEngine(zeroSource{})

	// The zero source draws reds 1-6 and blue 1.
	d, err := e.Play(DoubleColorBall, []int{1, 2, 3, 4, 5, 6, 1})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if d.Prize != 5000000.0 {
		t.Fatalf("prize %f, want jackpot", d.Prize)
	}
	if d.FrontMatches != 6 || !d.BlueMatch {
		t.Fatalf("matches %d blue %v", d.FrontMatches, d.BlueMatch)
	}
	if d.Cost != 2.0 {
		t.Fatalf("cost %f, want 2.0", d.Cost)
	}
	if e.ConsecutiveLosses() != 0 {
		t.Fatal("a win must reset the loss streak")
	}
}

func TestDoubleColorBallTiers(t *testing.T) {
	cases := []struct {
		reds  int
		blue  bool
		prize float64
	}{
		{6, true, 5000000.0},
		{6, false, 1000000.0},
		{5, true, 3000.0},
		{5, false, 200.0},
		{4, true, 200.0},
		{4, false, 10.0},
		{3, true, 10.0},
		{0, true, 5.0},
		{3, false, 0.0},
		{0, false, 0.0},
	}
	for _, c := range cases {
		e := NewEngine(zeroSource{})
		if got := e.doubleColorBallPrize(c.reds, c.blue); got != c.prize {
			t.Fatalf("%d reds blue=%v: prize %f, want %f", c.reds, c.blue, got, c.prize)
		}
	}
}

func TestDoubleColorBallLossStreakAndPity(t *testing.T) {
	e := NewEngine(zeroSource{})

	// Winning reds are 1-6; this ticket matches nothing.
	lose := []int{20, 21, 22, 23, 24, 25, 9}
	for i := 1; i <= 5; i++ {
		d, err := e.Play(DoubleColorBall, lose)
		if err != nil {
			t.Fatalf("play %d: %v", i, err)
		}
		if d.Prize != 0 {
			t.Fatalf("play %d should lose, prize %f", i, d.Prize)
		}
		if e.ConsecutiveLosses() != i {
			t.Fatalf("streak %d after %d losses", e.ConsecutiveLosses(), i)
		}
	}

	// Five straight losses push the blue-only tier from 5.0 to 7.5.
	if got := e.doubleColorBallPrize(0, true); got != 7.5 {
		t.Fatalf("pity prize %f, want 7.5", got)
	}
	// Jackpots never get the multiplier.
	if got := e.doubleColorBallPrize(6, true); got != 5000000.0 {
		t.Fatalf("jackpot with pity %f", got)
	}
}

func TestRestoreLossStreak(t *testing.T) {
	e := NewEngine(zeroSource{})
	e.RestoreLossStreak(10)
	if e.ConsecutiveLosses() != 10 {
		t.Fatalf("streak %d, want 10", e.ConsecutiveLosses())
	}
	e.RestoreLossStreak(-3)
	if e.ConsecutiveLosses() != 10 {
		t.Fatal("negative restore must be ignored")
	}
}

func TestDoubleColorBallTicketValidation(t *testing.T) {
	e := NewEngine(zeroSource{})

	bad := [][]int{
		{1, 2, 3, 4, 5, 6},          // too short
		{1, 2, 3, 4, 5, 34, 1},      // red out of range
		{1, 2, 3, 4, 5, 5, 1},       // duplicate red
		{1, 2, 3, 4, 5, 6, 17},      // blue out of range
		{0, 2, 3, 4, 5, 6, 1},       // red below range
		{1, 2, 3, 4, 5, 6, 7, 8, 9}, // too long
	}
	for _, ticket := range bad {
		if _, err := e.Play(DoubleColorBall, ticket); err == nil {
			t.Fatalf("ticket %v should be rejected", ticket)
		}
	}
}

func TestDoubleColorBallRandomTicket(t *testing.T) {
	e := NewEngine(entropy.NewSeededSource(7))

	d, err := e.Play(DoubleColorBall, nil)
	if err != nil {
		t.Fatalf("random ticket: %v", err)
	}
	if len(d.PlayerNumbers) != 7 || len(d.WinningNumbers) != 7 {
		t.Fatalf("ticket lengths %d/%d", len(d.PlayerNumbers), len(d.WinningNumbers))
	}
	seen := make(map[int]bool)
	for _, n := range d.PlayerNumbers[:6] {
		if n < 1 || n > 33 || seen[n] {
			t.Fatalf("bad red %d in %v", n, d.PlayerNumbers)
		}
		seen[n] = true
	}
	if b := d.PlayerNumbers[6]; b < 1 || b > 16 {
		t.Fatalf("bad blue %d", b)
	}
}

func TestSuperLottoJackpot(t *testing.T) {
	e := NewEngine(zeroSource{})

	// Zero source draws front 1-5 and back 1-2.
	d, err := e.Play(SuperLotto, []int{1, 2, 3, 4, 5, 1, 2})
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if d.Prize != 10000000.0 {
		t.Fatalf("prize %f, want jackpot", d.Prize)
	}
	if d.FrontMatches != 5 || d.BackMatches != 2 {
		t.Fatalf("matches %d/%d", d.FrontMatches, d.BackMatches)
	}
}

func TestSuperLottoTiers(t *testing.T) {
	cases := []struct {
		front, back int
		prize       float64
	}{
		{5, 2, 10000000.0},
		{5, 1, 500000.0},
		{5, 0, 10000.0},
		{4, 2, 3000.0},
		{4, 1, 300.0},
		{3, 2, 200.0},
		{4, 0, 10.0},
		{3, 1, 10.0},
		{2, 2, 10.0},
		{3, 0, 5.0},
		{1, 2, 5.0},
		{2, 1, 5.0},
		{0, 2, 5.0},
		{2, 0, 0.0},
		{0, 0, 0.0},
	}
	for _, c := range cases {
		if got := superLottoPrize(c.front, c.back); got != c.prize {
			t.Fatalf("%d+%d: prize %f, want %f", c.front, c.back, got, c.prize)
		}
	}
}

func TestScratchCard(t *testing.T) {
	e := NewEngine(zeroSource{})

	d, err := e.Play(ScratchCard, nil)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if d.Cost != 10.0 {
		t.Fatalf("cost %f, want 10.0", d.Cost)
	}
	// Float64 0 lands in the first weighted bucket, which pays nothing.
	if d.Prize != 0 {
		t.Fatalf("prize %f, want 0", d.Prize)
	}
}

func TestUnknownVariant(t *testing.T) {
	e := NewEngine(zeroSource{})
	if _, err := e.Play(Variant("mega-millions"), nil); err == nil {
		t.Fatal("unknown variant should error")
	}
}
