package ports

import (
	"context"

	"sambou/models"
)

// ProfileConversationOracle judges one conversational turn. It decides which field
// is targeted, whether the last user answer is valid and what to say next.
type ProfileConversationOracle interface {
	Converse(ctx context.Context, in models.ProfileConversationInput) (*models.ProfileConversationOutput, error)
}

// DepartmentRankingOracle scores university departments against a profile narrative.
// A nil or empty slice with a nil error is a valid "no rankings" answer.
type DepartmentRankingOracle interface {
	Rank(ctx context.Context, in models.DepartmentRankingInput) ([]models.RankedDepartment, error)
}

// SnippetOracle generates application advice for one department
type SnippetOracle interface {
	Generate(ctx context.Context, in models.SnippetInput) (*models.ApplicationSnippets, error)
}

// Oracles bundles the three content collaborators the workflow depends on
type Oracles struct {
	Profile  ProfileConversationOracle
	Ranking  DepartmentRankingOracle
	Snippets SnippetOracle
}
