package player

import "fmt"

// Skill is the closed enumeration of attributes that courses, exams, and
// dialogue gates reference by key. Absent keys read as level 0.
type Skill string

const (
	SkillDirectionSense        Skill = "direction_sense"
	SkillEmotionalIntelligence Skill = "emotional_intelligence"
	SkillEducationLevel        Skill = "education_level"
	SkillFirstAid              Skill = "first_aid"
	SkillCommunication         Skill = "communication"
	SkillTrafficSafety         Skill = "traffic_safety"
	SkillCustomerService       Skill = "customer_service"
	SkillFinancialManagement   Skill = "financial_management"
	SkillLanguage              Skill = "language_skills"
)

// AllSkills lists every skill key.
var AllSkills = []Skill{
	SkillDirectionSense,
	SkillEmotionalIntelligence,
	SkillEducationLevel,
	SkillFirstAid,
	SkillCommunication,
	SkillTrafficSafety,
	SkillCustomerService,
	SkillFinancialManagement,
	SkillLanguage,
}

// ParseSkill validates a skill key read from persisted state or catalogs.
func ParseSkill(key string) (Skill, error) {
	for _, s := range AllSkills {
		if string(s) == key {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown skill %q", key)
}

// Attributes holds skill levels plus the scalar attributes that deliveries
// and study sessions read and drain.
//
// Stamina is clamped to [0, 100]. CreditScore is deliberately unclamped and
// can go negative.
type Attributes struct {
	Skills      map[Skill]int `json:"skills"`
	Stamina     int           `json:"stamina"`
	CreditScore int           `json:"credit_score"`
	Experience  int           `json:"experience"`
	Level       int           `json:"level"`
}

// NewAttributes returns starting attributes: base skills at 1, trained
// skills locked at 0.
func NewAttributes() *Attributes {
	return &Attributes{
		Skills: map[Skill]int{
			SkillDirectionSense:        1,
			SkillEmotionalIntelligence: 1,
			SkillEducationLevel:        1,
		},
		Stamina:     100,
		CreditScore: 100,
		Level:       1,
	}
}

// Skill returns the level for a key, 0 when absent.
func (a *Attributes) Skill(s Skill) int {
	return a.Skills[s]
}

// RaiseSkill adds delta to a skill level.
func (a *Attributes) RaiseSkill(s Skill, delta int) {
	if a.Skills == nil {
		a.Skills = make(map[Skill]int)
	}
	a.Skills[s] += delta
}

// MeetsAll reports whether every skill requirement in req is satisfied.
func (a *Attributes) MeetsAll(req map[Skill]int) bool {
	for skill, min := range req {
		if a.Skill(skill) < min {
			return false
		}
	}
	return true
}

// SpendStamina drains stamina, clamped at 0.
func (a *Attributes) SpendStamina(cost int) {
	a.Stamina -= cost
	if a.Stamina < 0 {
		a.Stamina = 0
	}
}

// RestoreStamina adds stamina, clamped at 100.
func (a *Attributes) RestoreStamina(amount int) {
	a.Stamina += amount
	if a.Stamina > 100 {
		a.Stamina = 100
	}
}

// GainExperience adds exp and applies level-ups. Each 100 experience grants
// one level and resets the counter; overflow past the threshold is discarded
// rather than carried.
func (a *Attributes) GainExperience(exp int) (levelsGained int) {
	a.Experience += exp
	for a.Experience >= 100 {
		a.Level++
		a.Experience = 0
		levelsGained++
	}
	return levelsGained
}
