package engine

import (
	"time"

	"github.com/talgya/courier-life/internal/dialogue"
	"github.com/talgya/courier-life/internal/market"
	"github.com/talgya/courier-life/internal/player"
	"github.com/talgya/courier-life/internal/school"
)

// Memento is a point-in-time snapshot of everything a session needs to
// resume: the player state plus the subsystem logs and counters that live
// outside it. It is the unit the persistence layer saves and loads.
type Memento struct {
	State    player.State
	GameTime time.Time
	GameDay  int

	Career            string
	LastBilledDay     int
	LotteryLossStreak int

	Interactions  []dialogue.HistoryRecord
	StudySessions []school.StudySession
	PassedCourses []school.CourseID
	Positions     []*market.Position
	Transactions  []market.Transaction
}

// Export snapshots the session under the lock.
func (s *Session) Export() *Memento {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := *s.state
	attrs := *s.state.Attributes
	attrs.Skills = make(map[player.Skill]int, len(s.state.Attributes.Skills))
	for k, v := range s.state.Attributes.Skills {
		attrs.Skills[k] = v
	}
	st.Attributes = &attrs
	st.CurrentTime = s.clock.Now()

	return &Memento{
		State:             st,
		GameTime:          s.clock.Now(),
		GameDay:           s.clock.Day(),
		Career:            s.career,
		LastBilledDay:     s.expenses.LastBilledDay(),
		LotteryLossStreak: s.lottery.ConsecutiveLosses(),
		Interactions:      s.dialogues.History(0),
		StudySessions:     s.nightSchool.Sessions(),
		PassedCourses:     s.nightSchool.Passed(),
		Positions:         s.portfolio.Positions(),
		Transactions:      s.portfolio.History(0),
	}
}

// Restore rehydrates the session from a snapshot. Call before Run.
func (s *Session) Restore(m *Memento) {
	if m == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	*s.state = m.State
	if m.State.Attributes != nil {
		attrs := *m.State.Attributes
		s.state.Attributes = &attrs
	}
	s.clock.Restore(m.GameTime, m.GameDay)
	s.career = m.Career
	s.expenses.Restore(m.LastBilledDay, m.State.Finances.MonthlyRent)
	s.lottery.RestoreLossStreak(m.LotteryLossStreak)
	s.dialogues.RestoreHistory(m.Interactions)
	s.nightSchool.RestoreSessions(m.StudySessions)
	s.nightSchool.RestorePassed(m.PassedCourses)
	s.portfolio.RestorePositions(m.Positions)
	s.portfolio.RestoreHistory(m.Transactions)
}
