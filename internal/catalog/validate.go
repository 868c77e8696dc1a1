package catalog

import (
	"fmt"
	"math"
	"strings"

	"pathforge/internal/domain"
)

// Validate verifica la consistencia minima que el motor necesita para arrancar.
func (c *Catalog) Validate() error {
	if err := c.validateQuestions(); err != nil {
		return err
	}
	if len(c.DomainVectors) == 0 {
		return fmt.Errorf("%w: no ranking domains", ErrInvalidCatalog)
	}
	if err := validateVectors("ranking", c.DomainVectors); err != nil {
		return err
	}
	if err := validateVectors("fit", c.FitWeights); err != nil {
		return err
	}
	if len(c.RoadmapTemplates) == 0 {
		return fmt.Errorf("%w: no roadmap templates", ErrInvalidCatalog)
	}
	for name, steps := range c.RoadmapTemplates {
		if len(steps) == 0 {
			return fmt.Errorf("%w: roadmap %q has no steps", ErrInvalidCatalog, name)
		}
		for _, s := range steps {
			if strings.TrimSpace(s.Title) == "" || s.Months <= 0 {
				return fmt.Errorf("%w: roadmap %q has an invalid step", ErrInvalidCatalog, name)
			}
		}
	}
	for tr := range c.TraitTips {
		if domain.TraitIndex(tr) < 0 {
			return fmt.Errorf("%w: tip for unknown trait %q", ErrInvalidCatalog, tr)
		}
	}
	for _, car := range c.Careers {
		if car.Career == "" || car.Domain == "" {
			return fmt.Errorf("%w: career entry missing name or domain", ErrInvalidCatalog)
		}
		for _, tr := range car.Traits {
			if domain.TraitIndex(tr) < 0 {
				return fmt.Errorf("%w: career %q uses unknown trait %q", ErrInvalidCatalog, car.Career, tr)
			}
		}
	}
	seen := make(map[string]struct{}, len(c.Resources))
	for _, r := range c.Resources {
		if r.ID == "" {
			return fmt.Errorf("%w: resource without id", ErrInvalidCatalog)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: duplicate resource id %q", ErrInvalidCatalog, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

func (c *Catalog) validateQuestions() error {
	if len(c.Questions) == 0 {
		return fmt.Errorf("%w: empty question bank", ErrInvalidCatalog)
	}
	texts := make(map[string]domain.Trait)
	for tr, qs := range c.Questions {
		if domain.TraitIndex(tr) < 0 {
			return fmt.Errorf("%w: questions for unknown trait %q", ErrInvalidCatalog, tr)
		}
		for _, q := range qs {
			if strings.TrimSpace(q) == "" {
				return fmt.Errorf("%w: blank question for trait %q", ErrInvalidCatalog, tr)
			}
			if prev, dup := texts[q]; dup {
				return fmt.Errorf("%w: question %q repeated for %q and %q", ErrInvalidCatalog, q, prev, tr)
			}
			texts[q] = tr
		}
	}
	for _, tr := range domain.AllTraits() {
		if len(c.Questions[tr]) == 0 {
			return fmt.Errorf("%w: trait %q has no questions", ErrInvalidCatalog, tr)
		}
	}
	return nil
}

func validateVectors(kind string, vs []DomainVector) error {
	names := make(map[string]struct{}, len(vs))
	for _, v := range vs {
		if v.Name == "" {
			return fmt.Errorf("%w: %s domain without name", ErrInvalidCatalog, kind)
		}
		if _, dup := names[v.Name]; dup {
			return fmt.Errorf("%w: duplicate %s domain %q", ErrInvalidCatalog, kind, v.Name)
		}
		names[v.Name] = struct{}{}
		for tr, w := range v.Weights {
			if domain.TraitIndex(tr) < 0 {
				return fmt.Errorf("%w: %s domain %q uses unknown trait %q", ErrInvalidCatalog, kind, v.Name, tr)
			}
			if math.IsNaN(w) || w < 0 || w > 1 {
				return fmt.Errorf("%w: %s domain %q weight %v out of [0,1]", ErrInvalidCatalog, kind, v.Name, w)
			}
		}
	}
	return nil
}
