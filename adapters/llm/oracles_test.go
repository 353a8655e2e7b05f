package llm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"sambou/adapters/llm/heuristic"
	"sambou/ai"
	apperrors "sambou/internal/errors"
	"sambou/models"
	"sambou/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorderSpy struct {
	mu  sync.Mutex
	ops []string
}

func (r *recorderSpy) RecordUsage(ctx context.Context, op string, usage *models.UsageData) error {
	r.mu.Lock()
	r.ops = append(r.ops, op)
	r.mu.Unlock()
	return nil
}

func newOracles(client *MockLLMClient, cfg Config, rec ports.UsageRecorder) ports.Oracles {
	return NewOracles(client, ai.NewPromptManager(""), cfg, rec, heuristic.NewOracles(), nil)
}

func TestProfileAdapterRendersHistoryAndParsesOutput(t *testing.T) {
	client := &MockLLMClient{
		Response: `{"aiResponseText":"Got it. Scores?","isUserInputValid":true,"updatedProfileField":"gpa","updatedProfileValue":"3.8/4.0","isProfileComplete":false}`,
		Usage:    &models.UsageData{TotalTokens: 42},
	}
	rec := &recorderSpy{}
	oracles := newOracles(client, Config{}, rec)

	out, err := oracles.Profile.Converse(context.Background(), models.ProfileConversationInput{
		ConversationHistory: []models.LLMMessage{
			{Role: models.RoleModel, Text: "What is your GPA?"},
			{Role: models.RoleUser, Text: "3.8/4.0"},
		},
		ProfileSoFar: map[string]string{},
	})
	require.NoError(t, err)
	require.NotNil(t, out.UpdatedProfileField)
	assert.Equal(t, "gpa", *out.UpdatedProfileField)
	assert.True(t, *out.IsUserInputValid)

	prompt := client.LastPrompt()
	assert.Contains(t, prompt, "user: 3.8/4.0")
	assert.Contains(t, prompt, "gpa, testScores, extracurriculars, skills, preferences")
	assert.Contains(t, prompt, "GPA doesn't look quite right")
	assert.Equal(t, []string{models.OpProfileTurn}, rec.ops)
}

func TestProfileAdapterWrapsTransportErrors(t *testing.T) {
	oracles := newOracles(&MockLLMClient{Error: errors.New("timeout")}, Config{FallbackToHeuristic: true}, nil)
	_, err := oracles.Profile.Converse(context.Background(), models.ProfileConversationInput{})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeExternalService, apperrors.GetCode(err))
}

func TestRankingAdapterAcceptsArrayAndWrappedObject(t *testing.T) {
	for _, body := range []string{
		`[{"universityName":"MIT","departmentName":"Physics","ranking":9.1,"reason":"r"}]`,
		`{"rankings":[{"universityName":"MIT","departmentName":"Physics","ranking":9.1,"reason":"r"}]}`,
	} {
		oracles := newOracles(&MockLLMClient{Response: body}, Config{}, nil)
		out, err := oracles.Ranking.Rank(context.Background(), models.DepartmentRankingInput{Profile: "GPA: 4.0", Departments: []string{"Physics"}})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, 9.1, out[0].Ranking)
	}
}

func TestRankingAdapterNullIsEmpty(t *testing.T) {
	oracles := newOracles(&MockLLMClient{Response: "null"}, Config{}, nil)
	out, err := oracles.Ranking.Rank(context.Background(), models.DepartmentRankingInput{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRankingAdapterFallback(t *testing.T) {
	client := &MockLLMClient{Error: errors.New("503")}

	_, err := newOracles(client, Config{}, nil).Ranking.Rank(context.Background(), models.DepartmentRankingInput{})
	assert.Equal(t, apperrors.CodeExternalService, apperrors.GetCode(err))

	out, err := newOracles(client, Config{FallbackToHeuristic: true}, nil).Ranking.Rank(context.Background(), models.DepartmentRankingInput{
		Profile:     "GPA: 3.5/4.0\nSkills: painting",
		Departments: []string{"Fine Arts", "Physics"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestSnippetAdapterParsesAndRendersTarget(t *testing.T) {
	client := &MockLLMClient{Response: `{"personalStatementFocus":"a","whyThisProgram":"b","relevantSkillsHighlight":"c","careerGoalsAlignment":"d","potentialQuestionsToPrepare":"e"}`}
	out, err := newOracles(client, Config{}, nil).Snippets.Generate(context.Background(), models.SnippetInput{
		UserProfile: "GPA: 4.0", UniversityName: "Caltech", DepartmentName: "Chemistry",
	})
	require.NoError(t, err)
	assert.Equal(t, "b", out.WhyThisProgram)
	assert.Contains(t, client.LastPrompt(), "Target University: Caltech")
}

func TestSnippetAdapterEmptyResponseIsError(t *testing.T) {
	_, err := newOracles(&MockLLMClient{Response: ""}, Config{}, nil).Snippets.Generate(context.Background(), models.SnippetInput{})
	assert.Error(t, err)
}
