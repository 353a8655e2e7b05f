package heuristic

import (
	"context"
	"fmt"

	"sambou/domain/profile"
	"sambou/models"
)

// SnippetOracle fills application advice from templates over the profile narrative
type SnippetOracle struct{}

// NewSnippetOracle creates a template-based snippet oracle
func NewSnippetOracle() *SnippetOracle {
	return &SnippetOracle{}
}

// Generate builds markdown advice for one department
func (o *SnippetOracle) Generate(ctx context.Context, in models.SnippetInput) (*models.ApplicationSnippets, error) {
	v := parseNarrative(in.UserProfile)
	valueOr := func(f profile.Field, fallback string) string {
		if s := v[f]; s != "" {
			return s
		}
		return fallback
	}

	activities := valueOr(profile.FieldExtracurriculars, "your activities outside class")
	skills := valueOr(profile.FieldSkills, "your strongest skills")
	interests := valueOr(profile.FieldPreferences, "your academic interests")

	return &models.ApplicationSnippets{
		PersonalStatementFocus: fmt.Sprintf(
			"- Open with a concrete moment from **%s**.\n- Show how it led you toward %s.\n- Keep the academic record (GPA %s) as supporting evidence, not the headline.",
			activities, in.DepartmentName, valueOr(profile.FieldGPA, "N/A")),
		WhyThisProgram: fmt.Sprintf(
			"- Name one course, lab or faculty group in %s at %s that matches %s.\n- Explain what you would contribute, not only what you would gain.",
			in.DepartmentName, in.UniversityName, interests),
		RelevantSkillsHighlight: fmt.Sprintf(
			"- Lead with **%s**.\n- Back each skill with a project, result or award.",
			skills),
		CareerGoalsAlignment: fmt.Sprintf(
			"- State a specific goal and show how %s at %s is the next step toward it.",
			in.DepartmentName, in.UniversityName),
		PotentialQuestionsToPrepare: fmt.Sprintf(
			"1. Why %s at %s rather than a similar program elsewhere?\n2. How has %s prepared you for the demands of %s?",
			in.DepartmentName, in.UniversityName, activities, in.DepartmentName),
	}, nil
}
