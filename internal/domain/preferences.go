package domain

const (
	DefaultHoursPerWeek        = 10.0
	DefaultComplexityTolerance = 5.0
	DefaultLearningCapacity    = 5.0
	DefaultLocation            = "US"
	PreferenceAny              = "any"
)

// LearnerPreferences agrupa los datos del usuario que no son rasgos:
// disponibilidad, estilo de aprendizaje y habilidades actuales.
type LearnerPreferences struct {
	HoursPerWeek         float64  `json:"hours_per_week"`
	ComplexityTolerance  float64  `json:"complexity_tolerance"`
	LearningCapacity     float64  `json:"learning_capacity"`
	BudgetPreference     string   `json:"budget_preference"`
	LearningStyle        string   `json:"learning_style"`
	DifficultyPreference string   `json:"difficulty_preference"`
	CurrentSkills        []string `json:"current_skills,omitempty"`
	Location             string   `json:"location"`
}

// DefaultPreferences devuelve las preferencias neutras.
func DefaultPreferences() LearnerPreferences {
	return LearnerPreferences{
		HoursPerWeek:         DefaultHoursPerWeek,
		ComplexityTolerance:  DefaultComplexityTolerance,
		LearningCapacity:     DefaultLearningCapacity,
		BudgetPreference:     PreferenceAny,
		LearningStyle:        PreferenceAny,
		DifficultyPreference: PreferenceAny,
		Location:             DefaultLocation,
	}
}

// WithDefaults completa los campos vacios con los valores neutros.
func (p LearnerPreferences) WithDefaults() LearnerPreferences {
	d := DefaultPreferences()
	if p.HoursPerWeek <= 0 {
		p.HoursPerWeek = d.HoursPerWeek
	}
	if p.ComplexityTolerance <= 0 {
		p.ComplexityTolerance = d.ComplexityTolerance
	}
	if p.LearningCapacity <= 0 {
		p.LearningCapacity = d.LearningCapacity
	}
	if p.BudgetPreference == "" {
		p.BudgetPreference = d.BudgetPreference
	}
	if p.LearningStyle == "" {
		p.LearningStyle = d.LearningStyle
	}
	if p.DifficultyPreference == "" {
		p.DifficultyPreference = d.DifficultyPreference
	}
	if p.Location == "" {
		p.Location = d.Location
	}
	return p
}
