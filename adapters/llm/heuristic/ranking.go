package heuristic

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"sambou/domain/profile"
	"sambou/models"
)

// DefaultUniversities are paired with the best-scoring departments
var DefaultUniversities = []string{
	"Stanford University",
	"Massachusetts Institute of Technology (MIT)",
	"University of California, Berkeley",
	"Carnegie Mellon University",
	"University of Oxford",
}

var departmentKeywords = map[string][]string{
	"Computer Science":        {"programming", "python", "java", "software", "coding", "algorithm", "computer"},
	"Electrical Engineering":  {"circuit", "electronics", "robotics", "hardware", "signal", "embedded"},
	"Mechanical Engineering":  {"mechanical", "cad", "robotics", "design", "engine", "manufacturing"},
	"Business Administration": {"business", "leadership", "startup", "finance", "marketing", "management"},
	"Biology":                 {"biology", "lab", "genetics", "medicine", "ecology", "cell"},
	"Chemistry":               {"chemistry", "lab", "organic", "molecule", "chemical"},
	"Physics":                 {"physics", "quantum", "astronomy", "mechanics", "olympiad"},
	"Mathematics":             {"math", "calculus", "proof", "olympiad", "statistics", "algebra"},
	"Data Science":            {"data", "statistics", "python", "analytics", "machine learning", "sql"},
	"Artificial Intelligence": {"ai", "machine learning", "neural", "deep learning", "python", "research"},
	"Economics":               {"economics", "finance", "policy", "market", "statistics"},
	"Psychology":              {"psychology", "behavior", "mental", "counseling", "cognitive"},
	"Fine Arts":               {"art", "painting", "drawing", "design", "sculpture", "portfolio"},
	"Music":                   {"music", "piano", "violin", "orchestra", "band", "composition"},
	"History":                 {"history", "archive", "museum", "debate", "politics"},
	"Literature":              {"literature", "writing", "poetry", "novel", "reading", "journalism"},
}

// RankingOracle scores departments by keyword overlap with the profile and GPA strength
type RankingOracle struct {
	Universities []string
	Limit        int
}

// NewRankingOracle creates a ranking oracle returning at most five suggestions
func NewRankingOracle() *RankingOracle {
	return &RankingOracle{Universities: DefaultUniversities, Limit: 5}
}

type scored struct {
	department string
	score      float64
	matches    []string
}

// Rank scores every candidate department and keeps the best ones
func (o *RankingOracle) Rank(ctx context.Context, in models.DepartmentRankingInput) ([]models.RankedDepartment, error) {
	values := parseNarrative(in.Profile)
	if len(values) == 0 || len(in.Departments) == 0 {
		return []models.RankedDepartment{}, nil
	}

	text := strings.ToLower(strings.Join([]string{
		values[profile.FieldExtracurriculars],
		values[profile.FieldSkills],
		values[profile.FieldPreferences],
	}, " "))

	gpa, hasGPA := normalizedGPA(values[profile.FieldGPA])
	if !hasGPA {
		gpa = 0.5
	}

	results := make([]scored, 0, len(in.Departments))
	for _, dept := range in.Departments {
		s := scored{department: dept}
		keywords := append([]string{strings.ToLower(dept)}, departmentKeywords[dept]...)
		for _, kw := range keywords {
			if containsWord(text, kw) {
				s.matches = append(s.matches, kw)
			}
		}
		s.score = 4.0 + 3.0*gpa + math.Min(float64(len(s.matches)), 3)
		results = append(results, s)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].department < results[j].department
	})

	limit := o.Limit
	if limit <= 0 || limit > len(results) {
		limit = len(results)
	}
	universities := o.Universities
	if len(universities) == 0 {
		universities = DefaultUniversities
	}

	out := make([]models.RankedDepartment, 0, limit)
	for i, r := range results[:limit] {
		out = append(out, models.RankedDepartment{
			UniversityName: universities[i%len(universities)],
			DepartmentName: r.department,
			Ranking:        math.Round(math.Min(r.score, 10)*10) / 10,
			Reason:         reasonFor(r, values),
		})
	}
	return out, nil
}

func reasonFor(r scored, values map[profile.Field]string) string {
	var b strings.Builder
	if len(r.matches) > 0 {
		fmt.Fprintf(&b, "Your profile mentions %s, which aligns with %s.", strings.Join(r.matches, ", "), r.department)
	} else {
		fmt.Fprintf(&b, "%s is a broad fit given your overall academic record.", r.department)
	}
	if gpa := values[profile.FieldGPA]; gpa != "" {
		fmt.Fprintf(&b, " A GPA of %s supports the application.", gpa)
	}
	return b.String()
}

// containsWord matches kw on word boundaries so "ai" does not hit "said"
func containsWord(text, kw string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], kw)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(kw)
		before := start == 0 || !isWordByte(text[start-1])
		after := end == len(text) || !isWordByte(text[end])
		if before && after {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}
