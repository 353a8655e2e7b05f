package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"sambou/ai"
	"sambou/domain/profile"
	"sambou/internal"
	"sambou/internal/errors"
	"sambou/models"
	"sambou/ports"
)

// Config holds oracle adapter configuration
type Config struct {
	SystemContext       string
	FallbackToHeuristic bool // delegate ranking and snippets to the fallback oracles on transport errors
}

// ProfileAdapter implements ProfileConversationOracle on top of an LLM
type ProfileAdapter struct {
	client   *ai.StructuredClient[models.ProfileConversationOutput]
	recorder ports.UsageRecorder
	logger   *internal.Logger
}

// RankingAdapter implements DepartmentRankingOracle on top of an LLM
type RankingAdapter struct {
	config   Config
	client   *ai.StructuredClient[rankingPayload]
	recorder ports.UsageRecorder
	fallback ports.DepartmentRankingOracle
	logger   *internal.Logger
}

// SnippetAdapter implements SnippetOracle on top of an LLM
type SnippetAdapter struct {
	config   Config
	client   *ai.StructuredClient[models.ApplicationSnippets]
	recorder ports.UsageRecorder
	fallback ports.SnippetOracle
	logger   *internal.Logger
}

// NewOracles wires the three LLM-backed oracles over one transport.
// recorder and fallback entries may be nil.
func NewOracles(client ports.LLMClient, prompts *ai.PromptManager, config Config, recorder ports.UsageRecorder, fallback ports.Oracles, logger *internal.Logger) ports.Oracles {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	logger = logger.With("provider", client.Provider(), "model", client.Model())
	return ports.Oracles{
		Profile: &ProfileAdapter{
			client:   ai.NewStructuredClient[models.ProfileConversationOutput](client, prompts, config.SystemContext, logger),
			recorder: recorder,
			logger:   logger,
		},
		Ranking: &RankingAdapter{
			config:   config,
			client:   ai.NewStructuredClient[rankingPayload](client, prompts, config.SystemContext, logger),
			recorder: recorder,
			fallback: fallback.Ranking,
			logger:   logger,
		},
		Snippets: &SnippetAdapter{
			config:   config,
			client:   ai.NewStructuredClient[models.ApplicationSnippets](client, prompts, config.SystemContext, logger),
			recorder: recorder,
			fallback: fallback.Snippets,
			logger:   logger,
		},
	}
}

// Converse renders the profile prompt and asks the LLM to judge the turn
func (a *ProfileAdapter) Converse(ctx context.Context, in models.ProfileConversationInput) (*models.ProfileConversationOutput, error) {
	out, usage, err := a.client.GetJsonResponseFromPromptWithContext(ctx, ai.PromptProfileConversation, profileReplacements(in))
	record(ctx, a.recorder, models.OpProfileTurn, usage)
	if err != nil {
		a.logger.Warn("[ProfileAdapter] oracle call failed: %v", err)
		return nil, errors.ExternalServiceError("profile conversation", err)
	}
	return out, nil
}

// Rank asks the LLM to score departments for the profile
func (a *RankingAdapter) Rank(ctx context.Context, in models.DepartmentRankingInput) ([]models.RankedDepartment, error) {
	out, usage, err := a.client.GetJsonResponseFromPromptWithContext(ctx, ai.PromptDepartmentRanking, map[string]string{
		"PROFILE":     in.Profile,
		"DEPARTMENTS": strings.Join(in.Departments, ", "),
	})
	record(ctx, a.recorder, models.OpDepartmentRanking, usage)
	if err != nil {
		if a.config.FallbackToHeuristic && a.fallback != nil {
			a.logger.Warn("[RankingAdapter] oracle call failed, using fallback: %v", err)
			return a.fallback.Rank(ctx, in)
		}
		return nil, errors.ExternalServiceError("department ranking", err)
	}
	if out == nil {
		return nil, nil
	}
	return out.Rankings, nil
}

// Generate asks the LLM for application advice for one department
func (a *SnippetAdapter) Generate(ctx context.Context, in models.SnippetInput) (*models.ApplicationSnippets, error) {
	out, usage, err := a.client.GetJsonResponseFromPromptWithContext(ctx, ai.PromptApplicationSnippets, map[string]string{
		"USER_PROFILE":    in.UserProfile,
		"UNIVERSITY_NAME": in.UniversityName,
		"DEPARTMENT_NAME": in.DepartmentName,
	})
	record(ctx, a.recorder, models.OpApplicationSnippets, usage)
	if err != nil {
		if a.config.FallbackToHeuristic && a.fallback != nil {
			a.logger.Warn("[SnippetAdapter] oracle call failed, using fallback: %v", err)
			return a.fallback.Generate(ctx, in)
		}
		return nil, errors.ExternalServiceError("application snippets", err)
	}
	if out == nil {
		return nil, errors.ExternalServiceError("application snippets", fmt.Errorf("empty response"))
	}
	return out, nil
}

// rankingPayload accepts either a bare array or an object wrapping it under "rankings"
type rankingPayload struct {
	Rankings []models.RankedDepartment
}

func (p *rankingPayload) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		return json.Unmarshal(data, &p.Rankings)
	}
	var wrapped struct {
		Rankings []models.RankedDepartment `json:"rankings"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	p.Rankings = wrapped.Rankings
	return nil
}

func profileReplacements(in models.ProfileConversationInput) map[string]string {
	order := make([]string, len(profile.Order))
	var questions, reprompts strings.Builder
	for i, f := range profile.Order {
		order[i] = string(f)
		def, _ := profile.Lookup(f)
		fmt.Fprintf(&questions, "- %s: %q\n", f, def.Question)
		if def.Reprompt != "" {
			fmt.Fprintf(&reprompts, "- %s: %q\n", f, def.Reprompt)
		}
	}
	fmt.Fprintf(&reprompts, "- For others, if invalid, you can say: %q\n", profile.GenericReprompt("[the field name]"))

	soFar := in.ProfileSoFar
	if soFar == nil {
		soFar = map[string]string{}
	}
	soFarJSON, _ := json.Marshal(soFar)

	var history strings.Builder
	for _, msg := range in.ConversationHistory {
		fmt.Fprintf(&history, "%s: %s\n", msg.Role, msg.Text)
	}
	if history.Len() == 0 {
		history.WriteString("(empty)\n")
	}

	return map[string]string{
		"FIELD_ORDER":          strings.Join(order, ", "),
		"PROFILE_SO_FAR":       string(soFarJSON),
		"CONVERSATION_HISTORY": strings.TrimRight(history.String(), "\n"),
		"INITIAL_QUESTIONS":    strings.TrimRight(questions.String(), "\n"),
		"VALIDATION_PROMPTS":   strings.TrimRight(reprompts.String(), "\n"),
	}
}

func record(ctx context.Context, recorder ports.UsageRecorder, op string, usage *models.UsageData) {
	if recorder == nil || usage == nil {
		return
	}
	_ = recorder.RecordUsage(ctx, op, usage)
}
