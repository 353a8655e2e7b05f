package heuristic

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"sambou/domain/profile"
	"sambou/models"
)

var (
	numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
	testNames     = []string{"sat", "act", "gre", "gmat", "toefl", "ielts", "duolingo", "lsat", "mcat", "ap ", "ib ", "a-level", "gcse", "gaokao", "csat", "abitur"}
)

// ProfileOracle runs the profile conversation with rule-based answer checks
type ProfileOracle struct{}

// NewProfileOracle creates a rule-based profile oracle
func NewProfileOracle() *ProfileOracle {
	return &ProfileOracle{}
}

// Converse asks for the next missing field or judges the last user answer
func (o *ProfileOracle) Converse(ctx context.Context, in models.ProfileConversationInput) (*models.ProfileConversationOutput, error) {
	values := make(map[profile.Field]string, len(in.ProfileSoFar))
	for k, v := range in.ProfileSoFar {
		if f, ok := profile.Parse(k); ok {
			values[f] = v
		}
	}

	target, missing := profile.FirstMissing(values)
	if !missing {
		return &models.ProfileConversationOutput{
			AIResponseText:    profile.CompletionMessage,
			IsProfileComplete: true,
		}, nil
	}

	history := in.ConversationHistory
	if len(history) == 0 || history[len(history)-1].Role != models.RoleUser {
		return &models.ProfileConversationOutput{AIResponseText: profile.QuestionFor(target)}, nil
	}

	answer := strings.TrimSpace(history[len(history)-1].Text)
	if !ValidAnswer(target, answer) {
		return &models.ProfileConversationOutput{
			AIResponseText:   profile.RepromptFor(target),
			IsUserInputValid: models.BoolPtr(false),
		}, nil
	}

	values[target] = answer
	out := &models.ProfileConversationOutput{
		IsUserInputValid:    models.BoolPtr(true),
		UpdatedProfileField: models.StringPtr(string(target)),
		UpdatedProfileValue: models.StringPtr(answer),
	}
	if next, ok := profile.FirstMissing(values); ok {
		out.AIResponseText = "Got it. " + profile.QuestionFor(next)
	} else {
		out.AIResponseText = profile.ConcludingMessage
		out.IsProfileComplete = true
	}
	return out, nil
}

// ValidAnswer applies the per-field acceptance rules
func ValidAnswer(f profile.Field, answer string) bool {
	answer = strings.TrimSpace(answer)
	switch f {
	case profile.FieldGPA:
		return validGPA(answer)
	case profile.FieldTestScores:
		return validTestScores(answer)
	default:
		return len([]rune(answer)) >= 2
	}
}

func validGPA(answer string) bool {
	nums := numberPattern.FindAllString(answer, -1)
	if len(nums) == 0 {
		return false
	}
	v, err := strconv.ParseFloat(nums[0], 64)
	if err != nil || v < 0 {
		return false
	}
	if len(nums) >= 2 {
		scale, err := strconv.ParseFloat(nums[1], 64)
		return err == nil && scale > 0 && v <= scale
	}
	return v <= 5 || (v >= 10 && v <= 100)
}

func validTestScores(answer string) bool {
	if !numberPattern.MatchString(answer) {
		return false
	}
	lower := strings.ToLower(answer) + " "
	for _, name := range testNames {
		if strings.Contains(lower, name) {
			return true
		}
	}
	return false
}
