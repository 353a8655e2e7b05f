package profile

import (
	"fmt"
	"strings"
)

// Field identifies one required profile field
type Field string

const (
	FieldGPA              Field = "gpa"
	FieldTestScores       Field = "testScores"
	FieldExtracurriculars Field = "extracurriculars"
	FieldSkills           Field = "skills"
	FieldPreferences      Field = "preferences"
)

// Definition holds the prompt texts and narrative label of a field
type Definition struct {
	Field    Field
	Label    string
	Question string
	// Reprompt is optional; GenericReprompt is used when empty
	Reprompt string
}

// Order is the fixed elicitation sequence. Fields are never asked out of order.
var Order = []Field{FieldGPA, FieldTestScores, FieldExtracurriculars, FieldSkills, FieldPreferences}

var definitions = map[Field]Definition{
	FieldGPA: {
		Field:    FieldGPA,
		Label:    "GPA",
		Question: "Let's start with your academic profile. What is your GPA? (e.g., 3.8/4.3 or 90/100)",
		Reprompt: "Hmm, that GPA doesn't look quite right. Could you provide it in a common format like '3.8/4.0' or '90 out of 100'?",
	},
	FieldTestScores: {
		Field:    FieldTestScores,
		Label:    "Test Scores",
		Question: "Great. Now, what are your standardized test scores? Please include the test name(s) and score(s). (e.g., SAT: 1500, ACT: 34)",
		Reprompt: "It seems like those test scores might be missing some details or a number. Could you try again, perhaps like 'SAT: 1500' or 'TOEFL: 110'?",
	},
	FieldExtracurriculars: {
		Field:    FieldExtracurriculars,
		Label:    "Extracurricular Activities",
		Question: "Thanks! Could you tell me about your extracurricular activities? (e.g., Captain of debate team, volunteer work)",
	},
	FieldSkills: {
		Field:    FieldSkills,
		Label:    "Skills",
		Question: "What skills do you possess relevant to your studies? (e.g., Python, Java, lab techniques, public speaking)",
	},
	FieldPreferences: {
		Field:    FieldPreferences,
		Label:    "Preferences & Interests",
		Question: "Finally, what are your school or department preferences and interests? (e.g., Interested in West Coast universities, focus on AI research)",
	},
}

// Fixed conversational texts
const (
	CompletionMessage = "It looks like I already have all your profile details. Proceeding to the next step!"
	ConcludingMessage = "Great, that's all the information I need for your profile!"
	TroubleMessage    = "Sorry, I'm having a bit of trouble. Could we try that again?"
)

// GenericReprompt is the re-prompt for fields without a dedicated one
func GenericReprompt(label string) string {
	return fmt.Sprintf("That doesn't seem to quite answer the question. Could you please tell me about %s?", strings.ToLower(label))
}

// Lookup returns the static definition of a field
func Lookup(f Field) (Definition, bool) {
	s, ok := definitions[f]
	return s, ok
}

// Parse resolves a field name as the oracle reports it. Matching ignores case
// and surrounding whitespace.
func Parse(name string) (Field, bool) {
	name = strings.TrimSpace(name)
	for _, f := range Order {
		if strings.EqualFold(string(f), name) {
			return f, true
		}
	}
	return "", false
}

// Index returns the position of f in Order, or -1
func Index(f Field) int {
	for i, o := range Order {
		if o == f {
			return i
		}
	}
	return -1
}

// Next returns the field after f, false when f is last or unknown
func Next(f Field) (Field, bool) {
	i := Index(f)
	if i < 0 || i+1 >= len(Order) {
		return "", false
	}
	return Order[i+1], true
}

// FirstMissing returns the first field in order without a non-empty value
func FirstMissing(values map[Field]string) (Field, bool) {
	for _, f := range Order {
		if strings.TrimSpace(values[f]) == "" {
			return f, true
		}
	}
	return "", false
}

// QuestionFor returns the initial question for f
func QuestionFor(f Field) string {
	if s, ok := definitions[f]; ok {
		return s.Question
	}
	return TroubleMessage
}

// RepromptFor returns the validation re-prompt for f, falling back to the generic one
func RepromptFor(f Field) string {
	s, ok := definitions[f]
	if !ok {
		return TroubleMessage
	}
	if s.Reprompt != "" {
		return s.Reprompt
	}
	return GenericReprompt(s.Label)
}

// FallbackQuestion is the static answer used when the oracle cannot respond:
// the initial question of the first missing field.
func FallbackQuestion(values map[Field]string) string {
	if f, ok := FirstMissing(values); ok {
		return QuestionFor(f)
	}
	return TroubleMessage
}
