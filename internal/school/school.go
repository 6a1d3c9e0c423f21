package school

import (
	"sort"
	"time"

	"github.com/talgya/courier-life/internal/entropy"
	"github.com/talgya/courier-life/internal/player"
)

// StudySession is an append-only log entry, one per study action.
type StudySession struct {
	CourseID         CourseID  `json:"course_id"`
	StartTime        time.Time `json:"start_time"`
	DurationMinutes  int       `json:"duration_minutes"`
	Effectiveness    float64   `json:"effectiveness"`
	ExperienceGained int       `json:"experience_gained"`
}

// EnrollResult reports an enrollment attempt.
type EnrollResult struct {
	OK       bool                 `json:"ok"`
	Reason   string               `json:"reason,omitempty"`
	Required map[player.Skill]int `json:"required,omitempty"`
	Cost     float64              `json:"cost,omitempty"`
}

// StudyResult reports a study session.
type StudyResult struct {
	Effectiveness    float64 `json:"effectiveness"`
	ExperienceGained int     `json:"experience_gained"`
	StaminaCost      int     `json:"stamina_cost"`
	TotalStudiedMin  int     `json:"total_studied_minutes"`
}

// ExamResult reports an exam attempt.
type ExamResult struct {
	OK              bool                 `json:"ok"`
	Reason          string               `json:"reason,omitempty"`
	Passed          bool                 `json:"passed"`
	PassProbability float64              `json:"pass_probability"`
	SkillBonuses    map[player.Skill]int `json:"skill_bonuses,omitempty"`
	StudiedMinutes  int                  `json:"studied_minutes,omitempty"`
	RequiredMinutes int                  `json:"required_minutes,omitempty"`
}

// Failure reason codes.
const (
	ReasonPrerequisites     = "unmet_prerequisites"
	ReasonInsufficientFunds = "insufficient_funds"
	ReasonInsufficientStudy = "insufficient_study_time"
	ReasonUnknownCourse     = "unknown_course"
)

// maxSessionMinutes caps a single study sitting.
const maxSessionMinutes = 180

// NightSchool tracks enrollments and study progress against the catalog.
type NightSchool struct {
	catalog  *Catalog
	rng      entropy.Source
	enrolled map[CourseID]bool
	sessions []StudySession
	passed   map[CourseID]bool
}

// NewNightSchool creates a night school over the given catalog.
func NewNightSchool(catalog *Catalog, rng entropy.Source) *NightSchool {
	return &NightSchool{
		catalog:  catalog,
		rng:      rng,
		enrolled: make(map[CourseID]bool),
		passed:   make(map[CourseID]bool),
	}
}

// Enroll registers for a course: prerequisites checked first, then funds
// debited. No side effect on failure.
func (n *NightSchool) Enroll(id CourseID, st *player.State) EnrollResult {
	course := n.catalog.Get(id)
	if course == nil {
		return EnrollResult{OK: false, Reason: ReasonUnknownCourse}
	}
	if !st.Attributes.MeetsAll(course.Prerequisites) {
		return EnrollResult{OK: false, Reason: ReasonPrerequisites, Required: course.Prerequisites}
	}
	if st.Finances.DeliveryCoins < course.Cost {
		return EnrollResult{OK: false, Reason: ReasonInsufficientFunds, Cost: course.Cost}
	}

	st.Finances.DeliveryCoins -= course.Cost
	n.enrolled[id] = true
	return EnrollResult{OK: true, Cost: course.Cost}
}

// Enrolled reports whether the courier registered for a course.
func (n *NightSchool) Enrolled(id CourseID) bool {
	return n.enrolled[id]
}

// Study logs a session of up to 180 minutes, draining stamina and granting
// experience scaled by effectiveness.
func (n *NightSchool) Study(id CourseID, minutes int, st *player.State, now time.Time) StudyResult {
	if minutes > maxSessionMinutes {
		minutes = maxSessionMinutes
	}
	if minutes < 0 {
		minutes = 0
	}

	eff := studyEffectiveness(minutes, st.Attributes)
	exp := int(float64(minutes/10) * eff)
	staminaCost := minutes / 5
	st.Attributes.SpendStamina(staminaCost)

	n.sessions = append(n.sessions, StudySession{
		CourseID:         id,
		StartTime:        now,
		DurationMinutes:  minutes,
		Effectiveness:    eff,
		ExperienceGained: exp,
	})

	return StudyResult{
		Effectiveness:    eff,
		ExperienceGained: exp,
		StaminaCost:      staminaCost,
		TotalStudiedMin:  n.StudiedMinutes(id),
	}
}

// studyEffectiveness models how much of a session sticks: stamina carries
// the base rate, education helps, marathon sittings past two hours decay.
func studyEffectiveness(minutes int, attrs *player.Attributes) float64 {
	staminaFactor := float64(attrs.Stamina) / 100
	educationBonus := float64(attrs.Skill(player.SkillEducationLevel)) * 0.05

	timePenalty := 0.0
	if minutes > 120 {
		timePenalty = float64(minutes-120) * 0.005
	}

	eff := 0.7*staminaFactor + educationBonus - timePenalty
	if eff < 0.1 {
		eff = 0.1
	}
	if eff > 1.0 {
		eff = 1.0
	}
	return eff
}

// StudiedMinutes sums logged study time for a course.
func (n *NightSchool) StudiedMinutes(id CourseID) int {
	total := 0
	for _, s := range n.sessions {
		if s.CourseID == id {
			total += s.DurationMinutes
		}
	}
	return total
}

// averageEffectiveness over past sessions for a course; 0.5 with no history.
func (n *NightSchool) averageEffectiveness(id CourseID) float64 {
	total, count := 0.0, 0
	for _, s := range n.sessions {
		if s.CourseID == id {
			total += s.Effectiveness
			count++
		}
	}
	if count == 0 {
		return 0.5
	}
	return total / float64(count)
}

// TakeExam attempts the course exam. Requires cumulative study minutes of
// at least the course duration. Failing costs nothing and retakes are
// unconstrained; passing applies the course's skill bonuses.
func (n *NightSchool) TakeExam(id CourseID, st *player.State) ExamResult {
	course := n.catalog.Get(id)
	if course == nil {
		return ExamResult{OK: false, Reason: ReasonUnknownCourse}
	}

	studied := n.StudiedMinutes(id)
	required := course.DurationHours * 60
	if studied < required {
		return ExamResult{
			OK:              false,
			Reason:          ReasonInsufficientStudy,
			StudiedMinutes:  studied,
			RequiredMinutes: required,
		}
	}

	prob := n.passProbability(course, st.Attributes)
	passed := entropy.Chance(n.rng, prob)

	res := ExamResult{OK: true, Passed: passed, PassProbability: prob}
	if passed {
		for skill, bonus := range course.SkillBonuses {
			st.Attributes.RaiseSkill(skill, bonus)
		}
		n.passed[id] = true
		res.SkillBonuses = course.SkillBonuses
	}
	return res
}

// passProbability weighs study quality against course difficulty, with a
// small credit for already-relevant skills.
func (n *NightSchool) passProbability(course *Course, attrs *player.Attributes) float64 {
	skillBonus := 0.0
	for skill := range course.SkillBonuses {
		skillBonus += float64(attrs.Skill(skill)) * 0.02
	}

	prob := course.Difficulty.baseRate()*n.averageEffectiveness(course.ID) + skillBonus
	if prob < 0.1 {
		prob = 0.1
	}
	if prob > 0.95 {
		prob = 0.95
	}
	return prob
}

// PassedCourses counts exams passed, for graduation progress.
func (n *NightSchool) PassedCourses() int {
	return len(n.passed)
}

// TotalStudiedHours sums all logged study time across courses.
func (n *NightSchool) TotalStudiedHours() int {
	total := 0
	for _, s := range n.sessions {
		total += s.DurationMinutes
	}
	return total / 60
}

// GraduationProgress reports whether a milestone's bar is met.
func (n *NightSchool) GraduationProgress(level EducationLevel) (met bool, req GraduationRequirement) {
	req = GraduationRequirements[level]
	return n.TotalStudiedHours() >= req.TotalHours && n.PassedCourses() >= req.MinCourses, req
}

// Sessions returns the full study log.
func (n *NightSchool) Sessions() []StudySession {
	out := make([]StudySession, len(n.sessions))
	copy(out, n.sessions)
	return out
}

// RestoreSessions seeds the study log from persisted records and re-marks
// enrollments implied by it.
func (n *NightSchool) RestoreSessions(sessions []StudySession) {
	n.sessions = append([]StudySession{}, sessions...)
	for _, s := range sessions {
		n.enrolled[s.CourseID] = true
	}
}

// Passed lists the courses whose exams were cleared, for persistence.
func (n *NightSchool) Passed() []CourseID {
	out := make([]CourseID, 0, len(n.passed))
	for id := range n.passed {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RestorePassed seeds cleared exams from a snapshot.
func (n *NightSchool) RestorePassed(ids []CourseID) {
	for _, id := range ids {
		n.passed[id] = true
		n.enrolled[id] = true
	}
}
