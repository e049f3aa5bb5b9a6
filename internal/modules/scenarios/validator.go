package scenarios

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var messages []string
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Validator validates scenario configurations.
type Validator struct{}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate rejects empty or duplicate scenario names and negative thresholds.
// Returns ValidationErrors if the configuration is invalid.
func (v *Validator) Validate(doc *Document) error {
	var errors ValidationErrors

	seen := make(map[string]bool, len(doc.Scenarios))
	for i, s := range doc.Scenarios {
		field := fmt.Sprintf("scenario[%d]", i)

		if strings.TrimSpace(s.Name) == "" {
			errors = append(errors, ValidationError{Field: field + ".name", Message: "name is required"})
		} else if seen[s.Name] {
			errors = append(errors, ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate scenario name %q", s.Name)})
		}
		seen[s.Name] = true

		for category, n := range s.Requirements.Categories {
			if n < 0 {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("%s.requirements.categories.%s", field, category),
					Message: "must be >= 0",
				})
			}
		}

		if q := s.Requirements.MinQualityScore; q != nil && *q < 0 {
			errors = append(errors, ValidationError{Field: field + ".requirements.min_quality_score", Message: "must be >= 0"})
		}

		if ds := s.Requirements.MinDirectionalStrength; ds != nil && (*ds < 0 || *ds > 1) {
			errors = append(errors, ValidationError{
				Field:   field + ".requirements.min_directional_strength",
				Message: "must be between 0.0 and 1.0",
			})
		}

		rm := s.RiskManagement
		if rm.MilestonePoints < 0 || rm.MaxStopLossPoints < 0 || rm.TotalTargetPoints < 0 {
			errors = append(errors, ValidationError{Field: field + ".risk_management", Message: "points must be >= 0"})
		}
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// CategoryWarning flags a scenario category that no direction defines conditions for
type CategoryWarning struct {
	Scenario string
	Category string
}

// UnknownCategories lists scenario categories missing from the category config.
// They are not fatal: such a category always counts 0.
func UnknownCategories(doc *Document) []CategoryWarning {
	var warnings []CategoryWarning
	for _, s := range doc.Scenarios {
		for _, category := range sortedNames(s.Requirements.Categories) {
			_, call := doc.Categories.Call[category]
			_, put := doc.Categories.Put[category]
			if !call && !put {
				warnings = append(warnings, CategoryWarning{Scenario: s.Name, Category: category})
			}
		}
	}
	return warnings
}
