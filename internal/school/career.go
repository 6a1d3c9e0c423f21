package school

import (
	"sort"

	"github.com/talgya/courier-life/internal/entropy"
	"github.com/talgya/courier-life/internal/player"
)

// Career is a static catalog entry describing a way out of the delivery
// game. Benefits describe the income profile; applying them to ongoing
// income is the caller's concern.
type Career struct {
	Name         string               `json:"name"`
	Requirements map[player.Skill]int `json:"requirements"`
	Difficulty   Difficulty           `json:"difficulty"`
	Benefits     CareerBenefits       `json:"benefits"`
}

// CareerBenefits is the income/perk descriptor granted on success.
type CareerBenefits struct {
	StableIncome    float64 `json:"stable_income,omitempty"`
	IncomeRangeLow  float64 `json:"income_range_low,omitempty"`
	IncomeRangeHigh float64 `json:"income_range_high,omitempty"`
	HourlyRate      float64 `json:"hourly_rate,omitempty"`
	Perks           string  `json:"perks,omitempty"`
}

// DefaultCareers builds the built-in career table.
func DefaultCareers() []Career {
	return []Career{
		{
			Name: "civil servant",
			Requirements: map[player.Skill]int{
				player.SkillEducationLevel: 5,
				player.SkillCommunication:  3,
			},
			Difficulty: DifficultyHard,
			Benefits:   CareerBenefits{StableIncome: 8000, Perks: "high social status"},
		},
		{
			Name: "corporate manager",
			Requirements: map[player.Skill]int{
				player.SkillEducationLevel:      4,
				player.SkillFinancialManagement: 3,
			},
			Difficulty: DifficultyMedium,
			Benefits:   CareerBenefits{IncomeRangeLow: 6000, IncomeRangeHigh: 15000, Perks: "high growth potential"},
		},
		{
			Name: "service team lead",
			Requirements: map[player.Skill]int{
				player.SkillCustomerService:       4,
				player.SkillEmotionalIntelligence: 3,
			},
			Difficulty: DifficultyEasy,
			Benefits:   CareerBenefits{StableIncome: 5000, Perks: "good work environment"},
		},
		{
			Name: "corporate trainer",
			Requirements: map[player.Skill]int{
				player.SkillCommunication:  4,
				player.SkillEducationLevel: 3,
			},
			Difficulty: DifficultyMedium,
			Benefits:   CareerBenefits{HourlyRate: 200, Perks: "flexible schedule"},
		},
	}
}

// EligibilityResult reports a prerequisite check.
type EligibilityResult struct {
	Eligible     bool         `json:"eligible"`
	MissingSkill player.Skill `json:"missing_skill,omitempty"`
	NeededLevel  int          `json:"needed_level,omitempty"`
	CurrentLevel int          `json:"current_level,omitempty"`
}

// TransitionResult reports a career attempt.
type TransitionResult struct {
	OK          bool            `json:"ok"`
	Reason      string          `json:"reason,omitempty"`
	Succeeded   bool            `json:"succeeded"`
	SuccessRate float64         `json:"success_rate"`
	Career      string          `json:"career,omitempty"`
	Benefits    *CareerBenefits `json:"benefits,omitempty"`
}

// ReasonUnknownCareer flags an attempt at a career not in the table.
const ReasonUnknownCareer = "unknown_career"

// CareerBoard runs eligibility checks and transition attempts over the
// static career table.
type CareerBoard struct {
	careers map[string]Career
	rng     entropy.Source
}

// NewCareerBoard creates a board over the given table.
func NewCareerBoard(careers []Career, rng entropy.Source) *CareerBoard {
	m := make(map[string]Career, len(careers))
	for _, c := range careers {
		m[c.Name] = c
	}
	return &CareerBoard{careers: m, rng: rng}
}

// Careers lists the table, ordered by name.
func (b *CareerBoard) Careers() []Career {
	out := make([]Career, 0, len(b.careers))
	for _, c := range b.careers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CheckEligibility verifies every skill requirement.
func (b *CareerBoard) CheckEligibility(name string, attrs *player.Attributes) (EligibilityResult, bool) {
	career, ok := b.careers[name]
	if !ok {
		return EligibilityResult{}, false
	}
	for skill, min := range career.Requirements {
		if attrs.Skill(skill) < min {
			return EligibilityResult{
				Eligible:     false,
				MissingSkill: skill,
				NeededLevel:  min,
				CurrentLevel: attrs.Skill(skill),
			}, true
		}
	}
	return EligibilityResult{Eligible: true}, true
}

// AttemptTransition rolls a career jump: base rate by difficulty plus 0.05
// per level of each required skill, capped at 0.9. Success returns the
// benefits descriptor; failure costs nothing.
func (b *CareerBoard) AttemptTransition(name string, attrs *player.Attributes) TransitionResult {
	career, ok := b.careers[name]
	if !ok {
		return TransitionResult{OK: false, Reason: ReasonUnknownCareer}
	}

	elig, _ := b.CheckEligibility(name, attrs)
	if !elig.Eligible {
		return TransitionResult{OK: false, Reason: ReasonPrerequisites}
	}

	rate := career.Difficulty.baseRate()
	for skill := range career.Requirements {
		rate += float64(attrs.Skill(skill)) * 0.05
	}
	if rate > 0.9 {
		rate = 0.9
	}

	res := TransitionResult{OK: true, SuccessRate: rate, Career: name}
	if entropy.Chance(b.rng, rate) {
		res.Succeeded = true
		benefits := career.Benefits
		res.Benefits = &benefits
	}
	return res
}
