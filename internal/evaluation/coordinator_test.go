package evaluation

import (
	"context"
	"errors"
	"testing"

	apperrors "sambou/internal/errors"
	"sambou/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRanker struct {
	mock.Mock
}

func (m *mockRanker) Rank(ctx context.Context, in models.DepartmentRankingInput) ([]models.RankedDepartment, error) {
	args := m.Called(in)
	out, _ := args.Get(0).([]models.RankedDepartment)
	return out, args.Error(1)
}

func dept(uni, name string, rank float64) models.RankedDepartment {
	return models.RankedDepartment{UniversityName: uni, DepartmentName: name, Ranking: rank, Reason: "fit"}
}

func TestNormalize(t *testing.T) {
	out, dropped := Normalize([]models.RankedDepartment{
		dept("MIT", "Physics", 7.26),
		dept("", "Biology", 9),
		dept("Stanford", "Computer Science", 12),
		dept(" MIT ", "Physics", 9.9),
		dept("Oxford", "History", -1),
	})

	assert.Equal(t, 2, dropped)
	require.Len(t, out, 3)
	assert.Equal(t, "Stanford", out[0].UniversityName)
	assert.Equal(t, 10.0, out[0].Ranking)
	assert.Equal(t, 7.3, out[1].Ranking)
	assert.Equal(t, "MIT", out[1].UniversityName)
	assert.Equal(t, 0.0, out[2].Ranking)
}

func TestNormalizeIsStableForTies(t *testing.T) {
	out, _ := Normalize([]models.RankedDepartment{
		dept("A", "X", 8), dept("B", "X", 8), dept("C", "X", 9),
	})
	assert.Equal(t, []string{"C", "A", "B"}, []string{out[0].UniversityName, out[1].UniversityName, out[2].UniversityName})
}

func TestEvaluatePassesNarrativeAndCandidates(t *testing.T) {
	ranker := &mockRanker{}
	candidates := []string{"Physics", "Biology"}
	ranker.On("Rank", models.DepartmentRankingInput{Profile: "GPA: 4.0", Departments: candidates}).
		Return([]models.RankedDepartment{dept("MIT", "Physics", 8.0), dept("Yale", "Biology", 9.0)}, nil)

	res, err := NewCoordinator(ranker, nil).Evaluate(context.Background(), "GPA: 4.0", candidates)
	require.NoError(t, err)
	assert.False(t, res.Empty)
	assert.Equal(t, "Yale", res.Rankings[0].UniversityName)
	assert.Equal(t, Summary{Count: 2, Mean: 8.5, Median: 8.5, Max: 9, Min: 8}, res.Summary)
	ranker.AssertExpectations(t)
}

func TestEvaluateEmptyIsSoftFailure(t *testing.T) {
	for _, rankings := range [][]models.RankedDepartment{nil, {}, {dept("", "", 5)}} {
		ranker := &mockRanker{}
		ranker.On("Rank", mock.Anything).Return(rankings, nil)

		res, err := NewCoordinator(ranker, nil).Evaluate(context.Background(), "GPA: 4.0", nil)
		require.NoError(t, err)
		assert.True(t, res.Empty)
		assert.NotNil(t, res.Rankings)
		assert.Empty(t, res.Rankings)
	}
}

func TestEvaluateOracleErrorIsHardFailure(t *testing.T) {
	ranker := &mockRanker{}
	ranker.On("Rank", mock.Anything).Return(nil, errors.New("connection reset"))

	res, err := NewCoordinator(ranker, nil).Evaluate(context.Background(), "GPA: 4.0", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeExternalService, apperrors.GetCode(err))
	assert.Empty(t, res.Rankings)
}

func TestEvaluateRejectsBlankNarrative(t *testing.T) {
	_, err := NewCoordinator(&mockRanker{}, nil).Evaluate(context.Background(), "  ", nil)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}
