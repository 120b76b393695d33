package domain

import (
	"strings"
	"unicode/utf8"

	apperrors "github.com/spec-kit/ticket-bot/pkg/util/errorutil"
)

const (
	DescriptionMinLength = 10
	DescriptionMaxLength = 1000
)

// TicketIntake is the validated content of the ticket form.
type TicketIntake struct {
	Category    string
	Priority    string
	Description string
}

// Normalize trims whitespace and upper-cases the priority.
func (in TicketIntake) Normalize() TicketIntake {
	return TicketIntake{
		Category:    strings.TrimSpace(in.Category),
		Priority:    strings.ToUpper(strings.TrimSpace(in.Priority)),
		Description: strings.TrimSpace(in.Description),
	}
}

// Validate checks the intake against the form constraints and the catalog.
func (in TicketIntake) Validate(catalog *PriorityCatalog) error {
	details := map[string]any{}
	if in.Category == "" {
		details["category"] = "required"
	}
	if _, ok := catalog.Get(in.Priority); !ok {
		details["priority"] = "must be one of " + joinLevels(catalog.Levels())
	}
	n := utf8.RuneCountInString(in.Description)
	if n < DescriptionMinLength || n > DescriptionMaxLength {
		details["description"] = "must be between 10 and 1000 characters"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket form", details)
	}
	return nil
}

// ApplicationIntake is the validated content of the staff application form.
type ApplicationIntake struct {
	Name         string
	Age          string
	Experience   string
	Motivation   string
	Availability string
}

// Normalize trims whitespace on every field.
func (in ApplicationIntake) Normalize() ApplicationIntake {
	return ApplicationIntake{
		Name:         strings.TrimSpace(in.Name),
		Age:          strings.TrimSpace(in.Age),
		Experience:   strings.TrimSpace(in.Experience),
		Motivation:   strings.TrimSpace(in.Motivation),
		Availability: strings.TrimSpace(in.Availability),
	}
}

// Validate requires every field.
func (in ApplicationIntake) Validate() error {
	details := map[string]any{}
	for name, value := range map[string]string{
		"name":         in.Name,
		"age":          in.Age,
		"experience":   in.Experience,
		"motivation":   in.Motivation,
		"availability": in.Availability,
	} {
		if value == "" {
			details[name] = "required"
		}
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid application form", details)
	}
	return nil
}

func joinLevels(levels []TicketPriority) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}
