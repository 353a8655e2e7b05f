package models

// Roles used in oracle conversation history
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// LLMMessage is a transcript line as the profile oracle sees it
type LLMMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// ProfileConversationInput is the profile oracle request
type ProfileConversationInput struct {
	ConversationHistory []LLMMessage      `json:"conversationHistory"`
	ProfileSoFar        map[string]string `json:"profileSoFar"`
}

// ProfileConversationOutput is the profile oracle response. The optional fields
// are present only when the last history entry was a user turn being judged.
type ProfileConversationOutput struct {
	AIResponseText      string  `json:"aiResponseText"`
	IsUserInputValid    *bool   `json:"isUserInputValid,omitempty"`
	UpdatedProfileField *string `json:"updatedProfileField,omitempty"`
	UpdatedProfileValue *string `json:"updatedProfileValue,omitempty"`
	IsProfileComplete   bool    `json:"isProfileComplete"`
}

// DepartmentRankingInput is the ranking oracle request
type DepartmentRankingInput struct {
	Profile     string   `json:"profile"`
	Departments []string `json:"departments"`
}

// SnippetInput is the snippet oracle request
type SnippetInput struct {
	UserProfile    string `json:"userProfile"`
	UniversityName string `json:"universityName"`
	DepartmentName string `json:"departmentName"`
}

// BoolPtr and StringPtr help build optional oracle fields
func BoolPtr(v bool) *bool { return &v }

func StringPtr(v string) *string { return &v }
