// Package school covers the night-school courses, exams, and the career
// transitions they unlock.
package school

import (
	"sort"

	"github.com/talgya/courier-life/internal/player"
)

// Difficulty grades a course's exam and a career's entry bar.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// baseRate is the unmodified pass/success probability per difficulty.
func (d Difficulty) baseRate() float64 {
	switch d {
	case DifficultyEasy:
		return 0.8
	case DifficultyMedium:
		return 0.6
	default:
		return 0.4
	}
}

// CourseID keys the static catalog.
type CourseID string

const (
	CourseFirstAid            CourseID = "first-aid"
	CourseCommunication       CourseID = "communication"
	CourseTrafficSafety       CourseID = "traffic-safety"
	CourseCustomerService     CourseID = "customer-service"
	CourseFinancialManagement CourseID = "financial-management"
	CourseEnglish             CourseID = "english"
)

// Course is a static catalog entry, read-only after initialization.
type Course struct {
	ID            CourseID             `json:"id"`
	Name          string               `json:"name"`
	DurationHours int                  `json:"duration_hours"`
	Cost          float64              `json:"cost"`
	Difficulty    Difficulty           `json:"difficulty"`
	SkillBonuses  map[player.Skill]int `json:"skill_bonuses"`
	Prerequisites map[player.Skill]int `json:"prerequisites"`
	Description   string               `json:"description"`
}

// Catalog holds every course, immutable after construction.
type Catalog struct {
	courses map[CourseID]*Course
}

// Get returns a course by ID, or nil.
func (c *Catalog) Get(id CourseID) *Course {
	return c.courses[id]
}

// All returns every course, ordered by ID.
func (c *Catalog) All() []*Course {
	out := make([]*Course, 0, len(c.courses))
	for _, course := range c.courses {
		out = append(out, course)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DefaultCatalog builds the built-in course table.
func DefaultCatalog() *Catalog {
	courses := []*Course{
		{
			ID:            CourseFirstAid,
			Name:          "First Aid Essentials",
			DurationHours: 20,
			Cost:          200.0,
			Difficulty:    DifficultyEasy,
			SkillBonuses:  map[player.Skill]int{player.SkillFirstAid: 3, player.SkillCustomerService: 1},
			Prerequisites: map[player.Skill]int{},
			Description:   "basic emergency care, fewer disputes on hospital runs",
		},
		{
			ID:            CourseCommunication,
			Name:          "Communication Psychology",
			DurationHours: 30,
			Cost:          400.0,
			Difficulty:    DifficultyMedium,
			SkillBonuses:  map[player.Skill]int{player.SkillEmotionalIntelligence: 2, player.SkillCommunication: 3},
			Prerequisites: map[player.Skill]int{},
			Description:   "raises EQ and conversation skills, cuts complaints",
		},
		{
			ID:            CourseTrafficSafety,
			Name:          "Traffic Safety",
			DurationHours: 15,
			Cost:          150.0,
			Difficulty:    DifficultyEasy,
			SkillBonuses:  map[player.Skill]int{player.SkillTrafficSafety: 3, player.SkillDirectionSense: 1},
			Prerequisites: map[player.Skill]int{},
			Description:   "road awareness, lowers accident exposure",
		},
		{
			ID:            CourseCustomerService,
			Name:          "Customer Service Techniques",
			DurationHours: 25,
			Cost:          300.0,
			Difficulty:    DifficultyMedium,
			SkillBonuses:  map[player.Skill]int{player.SkillCustomerService: 3, player.SkillEmotionalIntelligence: 1},
			Prerequisites: map[player.Skill]int{player.SkillCommunication: 2},
			Description:   "professional service skills, happier customers",
		},
		{
			ID:            CourseFinancialManagement,
			Name:          "Personal Finance Planning",
			DurationHours: 40,
			Cost:          600.0,
			Difficulty:    DifficultyHard,
			SkillBonuses:  map[player.Skill]int{player.SkillFinancialManagement: 4, player.SkillEducationLevel: 1},
			Prerequisites: map[player.Skill]int{player.SkillEducationLevel: 3},
			Description:   "investing and budgeting, a way out of debt",
		},
		{
			ID:            CourseEnglish,
			Name:          "Spoken English",
			DurationHours: 50,
			Cost:          800.0,
			Difficulty:    DifficultyHard,
			SkillBonuses:  map[player.Skill]int{player.SkillLanguage: 4, player.SkillCustomerService: 2},
			Prerequisites: map[player.Skill]int{player.SkillEducationLevel: 2},
			Description:   "serve international customers",
		},
	}

	m := make(map[CourseID]*Course, len(courses))
	for _, c := range courses {
		m[c.ID] = c
	}
	return &Catalog{courses: m}
}

// EducationLevel names a graduation milestone.
type EducationLevel string

const (
	EducationHighSchool EducationLevel = "high-school"
	EducationCollege    EducationLevel = "college"
	EducationBachelor   EducationLevel = "bachelor"
	EducationMaster     EducationLevel = "master"
)

// GraduationRequirement is the study volume needed for a milestone.
type GraduationRequirement struct {
	TotalHours int `json:"total_hours"`
	MinCourses int `json:"min_courses"`
}

// GraduationRequirements maps each milestone to its bar.
var GraduationRequirements = map[EducationLevel]GraduationRequirement{
	EducationHighSchool: {TotalHours: 200, MinCourses: 3},
	EducationCollege:    {TotalHours: 500, MinCourses: 6},
	EducationBachelor:   {TotalHours: 1000, MinCourses: 10},
	EducationMaster:     {TotalHours: 1500, MinCourses: 15},
}
