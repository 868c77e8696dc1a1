// Package catalog carga una unica vez los catalogos estaticos del motor de evaluacion
// (banco de preguntas, vectores de dominio, plantillas de roadmap, recursos, mercado)
// y los expone como un objeto inmutable que se inyecta en los servicios.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"pathforge/internal/domain"
)

//go:embed data/*.yaml
var embedded embed.FS

var (
	// ErrInvalidCatalog envuelve cualquier falla de carga o validacion. Es fatal al arrancar.
	ErrInvalidCatalog = errors.New("invalid catalog")
)

const (
	fileQuestions = "questions.yaml"
	fileDomains   = "domains.yaml"
	fileRoadmaps  = "roadmaps.yaml"
	fileTips      = "tips.yaml"
	fileCareers   = "careers.yaml"
	fileResources = "resources.yaml"
	fileMarket    = "market.yaml"
	filePace      = "pace.yaml"
	fileEvents    = "events.yaml"
)

// Catalog agrupa todos los datos estaticos. Se construye con Load y no se modifica despues.
type Catalog struct {
	Questions        map[domain.Trait][]string
	DomainVectors    []DomainVector
	FitWeights       []DomainVector
	RoadmapTemplates map[string][]RoadmapStepTemplate
	FallbackRoadmap  []RoadmapStepTemplate
	TraitTips        map[domain.Trait]string
	Careers          []Career
	Relationships    Relationships
	Resources        []Resource
	Market           MarketData
	Pace             PaceConfig
	Events           []Event
	DomainKeywords   map[string][]string
}

// DomainVector es la ponderacion de rasgos requerida por un dominio.
type DomainVector struct {
	Name    string                   `yaml:"name"`
	Weights map[domain.Trait]float64 `yaml:"weights"`
}

// WeightSum suma los pesos del vector.
func (v DomainVector) WeightSum() float64 {
	var sum float64
	for _, w := range v.Weights {
		sum += w
	}
	return sum
}

// OrderedTraits devuelve los rasgos del vector en orden canonico.
func (v DomainVector) OrderedTraits() []domain.Trait {
	out := make([]domain.Trait, 0, len(v.Weights))
	for _, t := range domain.AllTraits() {
		if _, ok := v.Weights[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

type RoadmapStepTemplate struct {
	Title  string `yaml:"title"`
	Months int    `yaml:"months"`
}

type Career struct {
	Career           string         `yaml:"career"`
	Domain           string         `yaml:"domain"`
	Traits           []domain.Trait `yaml:"traits"`
	IsSpecialization bool           `yaml:"is_specialization"`
}

// Relationships describe pivotes conocidos entre dominios. Las claves son "<origen>_to_<destino>".
type Relationships struct {
	PivotPaths     map[string]PivotInfo `yaml:"pivot_paths"`
	SkillTransfers map[string][]string  `yaml:"skill_transfers"`
}

type PivotInfo struct {
	Summary         string   `yaml:"summary" json:"summary"`
	Bridges         []string `yaml:"bridges" json:"bridges"`
	TypicalDuration string   `yaml:"typical_duration" json:"typical_duration"`
}

type Resource struct {
	ID              string         `yaml:"id" json:"id"`
	Type            string         `yaml:"type" json:"type"`
	Title           string         `yaml:"title" json:"title"`
	Provider        string         `yaml:"provider" json:"provider"`
	Skills          []domain.Trait `yaml:"skills" json:"skills"`
	HoursToComplete float64        `yaml:"hours_to_complete" json:"hours_to_complete"`
	Price           float64        `yaml:"price" json:"price"`
	Rating          float64        `yaml:"rating" json:"rating"`
	Reviews         int            `yaml:"reviews" json:"reviews"`
	UpdatedYear     int            `yaml:"updated_year" json:"updated_year"`
	Difficulty      string         `yaml:"difficulty" json:"difficulty"`
	LearningStyle   []string       `yaml:"learning_style" json:"learning_style"`
	URL             string         `yaml:"url" json:"url"`
	KeyLearnings    []string       `yaml:"key_learnings" json:"key_learnings"`
}

type MarketData struct {
	JobData map[string]DomainMarket `yaml:"job_data"`
}

type DomainMarket struct {
	HiringTrend   string       `yaml:"hiring_trend"`
	AverageSalary float64      `yaml:"average_salary"`
	MarketSize    string       `yaml:"market_size"`
	Jobs          []JobListing `yaml:"jobs"`
}

type JobListing struct {
	Title           string      `yaml:"title" json:"title"`
	Company         string      `yaml:"company" json:"company"`
	Location        string      `yaml:"location" json:"location"`
	RequiredSkills  []string    `yaml:"required_skills" json:"required_skills"`
	ExperienceYears float64     `yaml:"experience_years" json:"experience_years"`
	SalaryRange     SalaryRange `yaml:"salary_range" json:"salary_range"`
}

type SalaryRange struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

type PaceConfig struct {
	HoursPerWeek        []HoursBucket               `yaml:"hours_per_week_categories"`
	ComplexityTolerance map[string]ComplexityBucket `yaml:"complexity_tolerance"`
	LearningCapacity    map[string]CapacityBucket   `yaml:"learning_capacity"`
}

type HoursBucket struct {
	Category   string  `yaml:"category"`
	Min        float64 `yaml:"min"`
	Max        float64 `yaml:"max"`
	Multiplier float64 `yaml:"multiplier"`
}

type ComplexityBucket struct {
	Multiplier  float64 `yaml:"multiplier"`
	Description string  `yaml:"description"`
}

type CapacityBucket struct {
	Multiplier    float64 `yaml:"multiplier"`
	RetentionRisk string  `yaml:"retention_risk"`
}

type Event struct {
	Title string   `yaml:"title" json:"title"`
	Date  string   `yaml:"date" json:"date"`
	Tags  []string `yaml:"tags" json:"tags"`
}

// Vector busca un vector de ranking por nombre.
func (c *Catalog) Vector(name string) (DomainVector, bool) {
	return findVector(c.DomainVectors, name)
}

// FitWeight busca los pesos del catalogo de ajuste por nombre.
func (c *Catalog) FitWeight(name string) (DomainVector, bool) {
	return findVector(c.FitWeights, name)
}

// DomainNames devuelve los dominios de ranking en orden de catalogo.
func (c *Catalog) DomainNames() []string {
	out := make([]string, 0, len(c.DomainVectors))
	for _, v := range c.DomainVectors {
		out = append(out, v.Name)
	}
	return out
}

// QuestionCount devuelve el total de preguntas del banco.
func (c *Catalog) QuestionCount() int {
	n := 0
	for _, qs := range c.Questions {
		n += len(qs)
	}
	return n
}

func findVector(vs []DomainVector, name string) (DomainVector, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, v := range vs {
		if v.Name == name {
			return v, true
		}
	}
	return DomainVector{}, false
}

// Default carga los catalogos embebidos.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return LoadFS(sub)
}

// Load carga los catalogos desde dir, o los embebidos si dir esta vacio.
func Load(dir string) (*Catalog, error) {
	if strings.TrimSpace(dir) == "" {
		return Default()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: catalog dir %s: %v", ErrInvalidCatalog, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: catalog dir %s is not a directory", ErrInvalidCatalog, dir)
	}
	return LoadFS(os.DirFS(dir))
}

// LoadFS lee y valida todos los archivos. questions, domains y roadmaps son obligatorios.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	var (
		questions questionsFile
		domains   domainsFile
		roadmaps  roadmapsFile
		tips      tipsFile
		careers   careersFile
		resources resourcesFile
		market    MarketData
		pace      PaceConfig
		events    eventsFile
	)

	required := []struct {
		name string
		dst  any
	}{
		{fileQuestions, &questions},
		{fileDomains, &domains},
		{fileRoadmaps, &roadmaps},
	}
	for _, r := range required {
		if err := decodeFile(fsys, r.name, r.dst); err != nil {
			return nil, err
		}
	}

	optional := []struct {
		name string
		dst  any
	}{
		{fileTips, &tips},
		{fileCareers, &careers},
		{fileResources, &resources},
		{fileMarket, &market},
		{filePace, &pace},
		{fileEvents, &events},
	}
	for _, o := range optional {
		if err := decodeFile(fsys, o.name, o.dst); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
	}

	c := &Catalog{
		Questions:        questions.Questions,
		DomainVectors:    normalizeVectors(domains.Ranking),
		FitWeights:       normalizeVectors(domains.Fit),
		RoadmapTemplates: lowerKeys(roadmaps.Templates),
		FallbackRoadmap:  roadmaps.Fallback,
		TraitTips:        tips.Tips,
		Careers:          careers.Careers,
		Relationships:    careers.Relationships,
		Resources:        resources.Resources,
		Market:           market,
		Pace:             pace,
		Events:           events.Events,
		DomainKeywords:   lowerKeys(events.Keywords),
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func decodeFile(fsys fs.FS, name string, dst any) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", ErrInvalidCatalog, name, err)
	}
	if err := yaml.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalidCatalog, name, err)
	}
	return nil
}

func (c *Catalog) applyDefaults() {
	if len(c.FallbackRoadmap) == 0 {
		c.FallbackRoadmap = []RoadmapStepTemplate{
			{Title: "Learn Fundamentals", Months: 3},
			{Title: "Develop Skills", Months: 4},
			{Title: "Build Projects", Months: 4},
			{Title: "Gain Experience", Months: 6},
			{Title: "Apply Professionally", Months: 2},
		}
	}
	if len(c.Pace.HoursPerWeek) == 0 {
		c.Pace.HoursPerWeek = []HoursBucket{
			{Category: "low", Min: 0, Max: 5, Multiplier: 1.5},
			{Category: "medium", Min: 5, Max: 15, Multiplier: 1.0},
			{Category: "high", Min: 15, Max: 30, Multiplier: 0.7},
			{Category: "very_high", Min: 30, Max: 100, Multiplier: 0.5},
		}
	}
	if len(c.Pace.ComplexityTolerance) == 0 {
		c.Pace.ComplexityTolerance = map[string]ComplexityBucket{
			"low":    {Multiplier: 1.3, Description: "Prefers step-by-step learning"},
			"medium": {Multiplier: 1.0, Description: "Balanced approach"},
			"high":   {Multiplier: 0.8, Description: "Comfortable with complex topics"},
		}
	}
	if len(c.Pace.LearningCapacity) == 0 {
		c.Pace.LearningCapacity = map[string]CapacityBucket{
			"slow":    {Multiplier: 1.4, RetentionRisk: "high"},
			"average": {Multiplier: 1.0, RetentionRisk: "medium"},
			"fast":    {Multiplier: 0.75, RetentionRisk: "low"},
		}
	}
	if c.TraitTips == nil {
		c.TraitTips = map[domain.Trait]string{}
	}
	if c.Relationships.PivotPaths == nil {
		c.Relationships.PivotPaths = map[string]PivotInfo{}
	}
	if c.Relationships.SkillTransfers == nil {
		c.Relationships.SkillTransfers = map[string][]string{}
	}
	if c.Market.JobData == nil {
		c.Market.JobData = map[string]DomainMarket{}
	}
	if c.DomainKeywords == nil {
		c.DomainKeywords = map[string][]string{}
	}
}

func normalizeVectors(vs []DomainVector) []DomainVector {
	out := make([]DomainVector, 0, len(vs))
	for _, v := range vs {
		v.Name = strings.ToLower(strings.TrimSpace(v.Name))
		out = append(out, v)
	}
	return out
}

func lowerKeys[T any](in map[string]T) map[string]T {
	if in == nil {
		return nil
	}
	out := make(map[string]T, len(in))
	for k, v := range in {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

type questionsFile struct {
	Questions map[domain.Trait][]string `yaml:"questions"`
}

type domainsFile struct {
	Ranking []DomainVector `yaml:"ranking"`
	Fit     []DomainVector `yaml:"fit"`
}

type roadmapsFile struct {
	Templates map[string][]RoadmapStepTemplate `yaml:"templates"`
	Fallback  []RoadmapStepTemplate            `yaml:"fallback"`
}

type tipsFile struct {
	Tips map[domain.Trait]string `yaml:"tips"`
}

type careersFile struct {
	Careers       []Career      `yaml:"careers"`
	Relationships Relationships `yaml:"relationships"`
}

type resourcesFile struct {
	Resources []Resource `yaml:"resources"`
}

type eventsFile struct {
	Events   []Event             `yaml:"events"`
	Keywords map[string][]string `yaml:"domain_keywords"`
}
