package evaluation

import (
	"context"
	"math"
	"sort"
	"strings"

	"sambou/internal"
	"sambou/internal/errors"
	"sambou/models"
	"sambou/ports"

	"github.com/montanaflynn/stats"
)

const (
	minRanking = 0.0
	maxRanking = 10.0
)

// Summary describes the distribution of returned rankings
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
	Min    float64 `json:"min"`
}

// Result is the outcome of a successful or soft-failed evaluation
type Result struct {
	Rankings []models.RankedDepartment `json:"rankings"`
	// Empty marks the soft failure where the oracle returned nothing usable
	Empty   bool    `json:"empty"`
	Dropped int     `json:"dropped"`
	Summary Summary `json:"summary"`
}

// Coordinator submits profiles to the ranking oracle and guards its output
type Coordinator struct {
	oracle ports.DepartmentRankingOracle
	logger *internal.Logger
}

// NewCoordinator creates an evaluation coordinator
func NewCoordinator(oracle ports.DepartmentRankingOracle, logger *internal.Logger) *Coordinator {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Coordinator{oracle: oracle, logger: logger.With("component", "evaluation")}
}

// Evaluate ranks candidate departments for the profile narrative. An oracle error
// is a hard failure; an empty answer is a soft failure reported through Result.Empty.
func (c *Coordinator) Evaluate(ctx context.Context, narrative string, candidates []string) (Result, error) {
	if strings.TrimSpace(narrative) == "" {
		return Result{}, errors.InvalidInput("profile narrative is empty")
	}

	raw, err := c.oracle.Rank(ctx, models.DepartmentRankingInput{
		Profile:     narrative,
		Departments: candidates,
	})
	if err != nil {
		c.logger.Error("department ranking failed: %v", err)
		if errors.HasCode(err, errors.CodeExternalService) {
			return Result{}, err
		}
		return Result{}, errors.ExternalServiceError("department ranking", err)
	}

	rankings, dropped := Normalize(raw)
	result := Result{Rankings: rankings, Dropped: dropped, Empty: len(rankings) == 0}
	if dropped > 0 {
		c.logger.Warn("dropped %d malformed ranking entries", dropped)
	}
	if result.Empty {
		c.logger.Info("ranking oracle returned no usable rankings")
		return result, nil
	}
	result.Summary = Summarize(rankings)
	c.logger.Info("evaluated %d departments, top=%.1f", result.Summary.Count, result.Summary.Max)
	return result, nil
}

// Normalize drops entries without names, clamps rankings to [0,10] with one
// decimal, removes duplicate department keys keeping the first and re-sorts
// descending. The oracle's own ordering is not trusted.
func Normalize(in []models.RankedDepartment) ([]models.RankedDepartment, int) {
	out := make([]models.RankedDepartment, 0, len(in))
	seen := make(map[models.DepartmentKey]bool, len(in))
	dropped := 0

	for _, r := range in {
		key := r.Key()
		if key.UniversityName == "" || key.DepartmentName == "" || math.IsNaN(r.Ranking) {
			dropped++
			continue
		}
		if seen[key] {
			dropped++
			continue
		}
		seen[key] = true

		r.UniversityName = key.UniversityName
		r.DepartmentName = key.DepartmentName
		r.Ranking = roundRanking(r.Ranking)
		r.Reason = strings.TrimSpace(r.Reason)
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Ranking > out[j].Ranking })
	return out, dropped
}

// Summarize computes ranking statistics; zero value for an empty list
func Summarize(rankings []models.RankedDepartment) Summary {
	if len(rankings) == 0 {
		return Summary{}
	}
	data := make(stats.Float64Data, len(rankings))
	for i, r := range rankings {
		data[i] = r.Ranking
	}

	s := Summary{Count: len(data)}
	s.Mean, _ = data.Mean()
	s.Median, _ = data.Median()
	s.Max, _ = data.Max()
	s.Min, _ = data.Min()
	// rankings already carry one decimal, so only the derived values need rounding
	s.Mean, _ = stats.Round(s.Mean, 1)
	s.Median, _ = stats.Round(s.Median, 1)
	return s
}

func roundRanking(v float64) float64 {
	v = math.Max(minRanking, math.Min(maxRanking, v))
	return math.Round(v*10) / 10
}
