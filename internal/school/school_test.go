package school

import (
	"testing"
	"time"

	"github.com/talgya/courier-life/internal/player"
)

// fixedSource returns a constant Float64, so pass/fail rolls are chosen
// per test.
type fixedSource struct{ v float64 }

func (f fixedSource) Float64() float64 { return f.v }
func (f fixedSource) Intn(n int) int   { return 0 }

var studyTime = time.Date(2024, 1, 5, 19, 0, 0, 0, time.UTC)

func TestEnroll(t *testing.T) {
	n := NewNightSchool(DefaultCatalog(), fixedSource{})
	st := player.New("rider")
	st.Finances.DeliveryCoins = 1000.0

	res := n.Enroll(CourseFirstAid, st)
	if !res.OK || res.Cost != 200.0 {
		t.Fatalf("enroll: %+v", res)
	}
	if st.Finances.DeliveryCoins != 800.0 {
		t.Fatalf("balance %f, want 800", st.Finances.DeliveryCoins)
	}
	if !n.Enrolled(CourseFirstAid) {
		t.Fatal("enrollment not recorded")
	}
}

func TestEnrollRejections(t *testing.T) {
	n := NewNightSchool(DefaultCatalog(), fixedSource{})
	st := player.New("rider")
	st.Finances.DeliveryCoins = 10000.0

	if res := n.Enroll(CourseID("quantum-physics"), st); res.OK || res.Reason != ReasonUnknownCourse {
		t.Fatalf("unknown course: %+v", res)
	}
	// Customer service needs communication 2; the fresh courier has 0.
	if res := n.Enroll(CourseCustomerService, st); res.OK || res.Reason != ReasonPrerequisites {
		t.Fatalf("prerequisite gate: %+v", res)
	}

	st.Finances.DeliveryCoins = 100.0
	if res := n.Enroll(CourseFirstAid, st); res.OK || res.Reason != ReasonInsufficientFunds {
		t.Fatalf("funds gate: %+v", res)
	}
	if st.Finances.DeliveryCoins != 100.0 {
		t.Fatal("failed enrollment moved money")
	}
}

func TestStudySessionCapAndCosts(t *testing.T) {
	n := NewNightSchool(DefaultCatalog(), fixedSource{})
	st := player.New("rider")

	res := n.Study(CourseFirstAid, 300, st, studyTime)

	// Sessions cap at 180 minutes.
	if res.TotalStudiedMin != 180 {
		t.Fatalf("studied %d, want capped 180", res.TotalStudiedMin)
	}
	if res.StaminaCost != 36 {
		t.Fatalf("stamina cost %d, want 180/5", res.StaminaCost)
	}
	if st.Attributes.Stamina != 64 {
		t.Fatalf("stamina %d, want 64", st.Attributes.Stamina)
	}
	if res.ExperienceGained <= 0 {
		t.Fatalf("experience %d", res.ExperienceGained)
	}
}

func TestStudyEffectiveness(t *testing.T) {
	attrs := player.NewAttributes() // stamina 100, education 1

	// 0.7*1.0 + 0.05, no marathon penalty.
	if got := studyEffectiveness(60, attrs); got != 0.75 {
		t.Fatalf("effectiveness %f, want 0.75", got)
	}

	// 180 minutes: 60 past the two-hour mark costs 0.3.
	if got := studyEffectiveness(180, attrs); got < 0.449 || got > 0.451 {
		t.Fatalf("marathon effectiveness %f, want ~0.45", got)
	}

	// Exhausted courier bottoms out at the floor.
	attrs.Stamina = 0
	attrs.Skills[player.SkillEducationLevel] = 0
	if got := studyEffectiveness(60, attrs); got != 0.1 {
		t.Fatalf("floor %f, want 0.1", got)
	}

	// Scholar with deep stamina caps at 1.0.
	attrs.Stamina = 100
	attrs.Skills[player.SkillEducationLevel] = 10
	if got := studyEffectiveness(60, attrs); got != 1.0 {
		t.Fatalf("cap %f, want 1.0", got)
	}
}

func TestTakeExamRequiresStudyTime(t *testing.T) {
	n := NewNightSchool(DefaultCatalog(), fixedSource{v: 0.0})
	st := player.New("rider")

	n.Study(CourseFirstAid, 60, st, studyTime)

	res := n.TakeExam(CourseFirstAid, st)
	if res.OK || res.Reason != ReasonInsufficientStudy {
		t.Fatalf("exam gate: %+v", res)
	}
	if res.StudiedMinutes != 60 || res.RequiredMinutes != 1200 {
		t.Fatalf("progress %d/%d", res.StudiedMinutes, res.RequiredMinutes)
	}
}

func TestTakeExamPassAppliesBonuses(t *testing.T) {
	n := NewNightSchool(DefaultCatalog(), fixedSource{v: 0.0}) // roll always passes
	st := player.New("rider")

	// First aid needs 20 course hours of study.
	for i := 0; i < 7; i++ {
		n.Study(CourseFirstAid, 180, st, studyTime)
		st.Attributes.RestoreStamina(100)
	}

	res := n.TakeExam(CourseFirstAid, st)
	if !res.OK || !res.Passed {
		t.Fatalf("exam: %+v", res)
	}
	if st.Attributes.Skill(player.SkillFirstAid) != 3 {
		t.Fatalf("first aid skill %d, want 3", st.Attributes.Skill(player.SkillFirstAid))
	}
	if st.Attributes.Skill(player.SkillCustomerService) != 1 {
		t.Fatalf("customer service skill %d, want 1", st.Attributes.Skill(player.SkillCustomerService))
	}
	if n.PassedCourses() != 1 {
		t.Fatalf("passed count %d", n.PassedCourses())
	}
}

func TestTakeExamFailCostsNothing(t *testing.T) {
	n := NewNightSchool(DefaultCatalog(), fixedSource{v: 0.99}) // roll always fails
	st := player.New("rider")

	for i := 0; i < 7; i++ {
		n.Study(CourseFirstAid, 180, st, studyTime)
		st.Attributes.RestoreStamina(100)
	}

	res := n.TakeExam(CourseFirstAid, st)
	if !res.OK || res.Passed {
		t.Fatalf("exam: %+v", res)
	}
	if st.Attributes.Skill(player.SkillFirstAid) != 0 {
		t.Fatal("failed exam granted skills")
	}

	// Retakes are allowed immediately.
	if res := n.TakeExam(CourseFirstAid, st); !res.OK {
		t.Fatalf("retake blocked: %+v", res)
	}
}

func TestPassProbabilityRewardsGoodStudy(t *testing.T) {
	rested := NewNightSchool(DefaultCatalog(), fixedSource{})
	tired := NewNightSchool(DefaultCatalog(), fixedSource{})

	good := player.New("good")
	bad := player.New("bad")
	bad.Attributes.Stamina = 10

	for i := 0; i < 7; i++ {
		rested.Study(CourseFirstAid, 120, good, studyTime)
		good.Attributes.RestoreStamina(100)
		tired.Study(CourseFirstAid, 120, bad, studyTime)
		bad.Attributes.Stamina = 10
	}

	course := DefaultCatalog().Get(CourseFirstAid)
	pGood := rested.passProbability(course, good.Attributes)
	pBad := tired.passProbability(course, bad.Attributes)
	if pGood <= pBad {
		t.Fatalf("effective study should raise the pass rate: %f vs %f", pGood, pBad)
	}
	if pGood > 0.95 || pBad < 0.1 {
		t.Fatalf("probability outside clamps: %f %f", pGood, pBad)
	}
}

func TestGraduationProgress(t *testing.T) {
	n := NewNightSchool(DefaultCatalog(), fixedSource{})

	met, req := n.GraduationProgress(EducationHighSchool)
	if met {
		t.Fatal("fresh student cannot have graduated")
	}
	if req.TotalHours != 200 || req.MinCourses != 3 {
		t.Fatalf("requirement %+v", req)
	}
}

func TestRestoreSessionsAndPassed(t *testing.T) {
	n := NewNightSchool(DefaultCatalog(), fixedSource{})

	n.RestoreSessions([]StudySession{
		{CourseID: CourseFirstAid, StartTime: studyTime, DurationMinutes: 120, Effectiveness: 0.7, ExperienceGained: 8},
		{CourseID: CourseEnglish, StartTime: studyTime, DurationMinutes: 60, Effectiveness: 0.5, ExperienceGained: 3},
	})
	n.RestorePassed([]CourseID{CourseTrafficSafety})

	if n.StudiedMinutes(CourseFirstAid) != 120 {
		t.Fatalf("studied minutes %d", n.StudiedMinutes(CourseFirstAid))
	}
	if !n.Enrolled(CourseFirstAid) || !n.Enrolled(CourseEnglish) || !n.Enrolled(CourseTrafficSafety) {
		t.Fatal("restore must re-mark enrollments")
	}
	if n.PassedCourses() != 1 {
		t.Fatalf("passed count %d", n.PassedCourses())
	}
	if got := n.Passed(); len(got) != 1 || got[0] != CourseTrafficSafety {
		t.Fatalf("passed list %v", got)
	}
}

func TestCareerEligibility(t *testing.T) {
	b := NewCareerBoard(DefaultCareers(), fixedSource{})
	attrs := player.NewAttributes()

	res, ok := b.CheckEligibility("civil servant", attrs)
	if !ok || res.Eligible {
		t.Fatalf("fresh courier cannot be eligible: %+v", res)
	}
	if res.NeededLevel == 0 || res.MissingSkill == "" {
		t.Fatalf("missing requirement not reported: %+v", res)
	}

	if _, ok := b.CheckEligibility("astronaut", attrs); ok {
		t.Fatal("unknown career should report not found")
	}

	attrs.Skills[player.SkillCustomerService] = 4
	attrs.Skills[player.SkillEmotionalIntelligence] = 3
	res, ok = b.CheckEligibility("service team lead", attrs)
	if !ok || !res.Eligible {
		t.Fatalf("requirements met but not eligible: %+v", res)
	}
}

func TestAttemptTransition(t *testing.T) {
	attrs := player.NewAttributes()
	attrs.Skills[player.SkillCustomerService] = 4
	attrs.Skills[player.SkillEmotionalIntelligence] = 3

	win := NewCareerBoard(DefaultCareers(), fixedSource{v: 0.0})
	res := win.AttemptTransition("service team lead", attrs)
	if !res.OK || !res.Succeeded {
		t.Fatalf("transition: %+v", res)
	}
	if res.Benefits == nil || res.Benefits.StableIncome != 5000 {
		t.Fatalf("benefits missing: %+v", res.Benefits)
	}
	// Easy base 0.8 plus skill credit, capped at 0.9.
	if res.SuccessRate != 0.9 {
		t.Fatalf("success rate %f, want capped 0.9", res.SuccessRate)
	}

	lose := NewCareerBoard(DefaultCareers(), fixedSource{v: 0.99})
	res = lose.AttemptTransition("service team lead", attrs)
	if !res.OK || res.Succeeded || res.Benefits != nil {
		t.Fatalf("failed transition: %+v", res)
	}

	if res := lose.AttemptTransition("civil servant", player.NewAttributes()); res.OK || res.Reason != ReasonPrerequisites {
		t.Fatalf("ineligible attempt: %+v", res)
	}
	if res := lose.AttemptTransition("astronaut", attrs); res.OK || res.Reason != ReasonUnknownCareer {
		t.Fatalf("unknown career attempt: %+v", res)
	}
}
