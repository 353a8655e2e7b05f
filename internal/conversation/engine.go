package conversation

import (
	"context"
	"strings"

	"sambou/domain/profile"
	"sambou/internal"
	"sambou/models"
	"sambou/ports"
)

// State is the position of the conversation, derived from transcript and profile
type State string

const (
	AwaitingFirstQuestion State = "awaiting_first_question"
	AwaitingUserAnswer    State = "awaiting_user_answer"
	ValidatingAnswer      State = "validating_answer"
	Complete              State = "complete"
)

// NoTurn marks an outcome that judged no user answer
const NoTurn = -1

// Outcome is the result of one Advance call
type Outcome struct {
	ResponseText string
	Accepted     bool
	Rejected     bool // the oracle judged the answer invalid
	UpdatedField profile.Field
	UpdatedValue string
	IsComplete   bool
	State        State
	Turn         int // transcript index of the judged user entry, NoTurn otherwise
	Fallback     bool
}

// Engine performs single conversational turns, delegating judgment to the oracle
type Engine struct {
	oracle ports.ProfileConversationOracle
	logger *internal.Logger
}

// NewEngine creates a turn engine
func NewEngine(oracle ports.ProfileConversationOracle, logger *internal.Logger) *Engine {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Engine{oracle: oracle, logger: logger.With("component", "conversation")}
}

// StateOf derives the conversation state
func StateOf(history []models.ConversationEntry, values map[profile.Field]string) State {
	if _, missing := profile.FirstMissing(values); !missing {
		return Complete
	}
	if len(history) == 0 {
		return AwaitingFirstQuestion
	}
	if history[len(history)-1].Speaker == models.SpeakerUser {
		return ValidatingAnswer
	}
	return AwaitingUserAnswer
}

// Advance decides what to say next and whether the last user answer is accepted.
// It never mutates its inputs; use Apply to record an accepted answer.
func (e *Engine) Advance(ctx context.Context, history []models.ConversationEntry, values map[profile.Field]string) Outcome {
	state := StateOf(history, values)
	if state == Complete {
		return Outcome{
			ResponseText: profile.CompletionMessage,
			IsComplete:   true,
			State:        Complete,
			Turn:         NoTurn,
		}
	}

	out, err := e.oracle.Converse(ctx, models.ProfileConversationInput{
		ConversationHistory: ToLLMMessages(history),
		ProfileSoFar:        profile.StringMap(values),
	})
	if err != nil || out == nil {
		if err != nil {
			e.logger.Warn("profile oracle failed, asking fallback question: %v", err)
		} else {
			e.logger.Warn("profile oracle returned no output, asking fallback question")
		}
		return Outcome{
			ResponseText: profile.FallbackQuestion(values),
			State:        state,
			Turn:         NoTurn,
			Fallback:     true,
		}
	}

	expected, _ := profile.FirstMissing(values)

	if state != ValidatingAnswer {
		text := strings.TrimSpace(out.AIResponseText)
		if text == "" {
			text = profile.QuestionFor(expected)
		}
		return Outcome{ResponseText: text, State: state, Turn: NoTurn}
	}

	result := Outcome{State: state, Turn: len(history) - 1}

	if out.IsUserInputValid == nil || !*out.IsUserInputValid || out.UpdatedProfileField == nil || out.UpdatedProfileValue == nil {
		result.Rejected = out.IsUserInputValid != nil && !*out.IsUserInputValid
		result.ResponseText = strings.TrimSpace(out.AIResponseText)
		if result.ResponseText == "" {
			result.ResponseText = profile.RepromptFor(expected)
		}
		return result
	}

	field, known := profile.Parse(*out.UpdatedProfileField)
	value := strings.TrimSpace(*out.UpdatedProfileValue)
	if !known || field != expected || value == "" {
		e.logger.Warn("ignoring out-of-order update field=%q expected=%s", *out.UpdatedProfileField, expected)
		result.ResponseText = profile.RepromptFor(expected)
		return result
	}

	result.Accepted = true
	result.UpdatedField = field
	result.UpdatedValue = value

	next, stillMissing := nextMissingAfter(values, field)
	result.IsComplete = !stillMissing
	text := strings.TrimSpace(out.AIResponseText)
	switch {
	case result.IsComplete && (!out.IsProfileComplete || text == ""):
		text = profile.ConcludingMessage
	case !result.IsComplete && (out.IsProfileComplete || text == ""):
		text = profile.QuestionFor(next)
	}
	result.ResponseText = text
	return result
}

// Apply records an accepted answer into the accumulator. It reports whether the
// profile changed; applying the same outcome twice changes nothing.
func Apply(acc *profile.Accumulator, o Outcome) bool {
	if !o.Accepted || o.Turn == NoTurn {
		return false
	}
	return acc.Record(o.Turn, o.UpdatedField, o.UpdatedValue)
}

// ToLLMMessages maps transcript speakers onto oracle roles
func ToLLMMessages(history []models.ConversationEntry) []models.LLMMessage {
	out := make([]models.LLMMessage, len(history))
	for i, entry := range history {
		role := models.RoleModel
		if entry.Speaker == models.SpeakerUser {
			role = models.RoleUser
		}
		out[i] = models.LLMMessage{Role: role, Text: entry.Text}
	}
	return out
}

func nextMissingAfter(values map[profile.Field]string, set profile.Field) (profile.Field, bool) {
	for _, f := range profile.Order {
		if f == set {
			continue
		}
		if strings.TrimSpace(values[f]) == "" {
			return f, true
		}
	}
	return "", false
}
