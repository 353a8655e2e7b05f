package models

import (
	"strings"
	"time"
)

// WorkflowStage is one of the three sequential phases of the workflow
type WorkflowStage string

const (
	StageProfile    WorkflowStage = "profile"
	StageEvaluation WorkflowStage = "evaluation"
	StageDeadlines  WorkflowStage = "deadlines"
)

// Speaker identifies who produced a transcript entry
type Speaker string

const (
	SpeakerSystem Speaker = "system"
	SpeakerUser   Speaker = "user"
)

// ConversationEntry is one line of the profile conversation transcript
type ConversationEntry struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// DepartmentKey identifies a department at a university. Selection and
// snippet targeting compare keys, never object identity.
type DepartmentKey struct {
	UniversityName string `json:"universityName" yaml:"universityName"`
	DepartmentName string `json:"departmentName" yaml:"departmentName"`
}

// Normalized trims surrounding whitespace from both names
func (k DepartmentKey) Normalized() DepartmentKey {
	return DepartmentKey{
		UniversityName: strings.TrimSpace(k.UniversityName),
		DepartmentName: strings.TrimSpace(k.DepartmentName),
	}
}

// Label renders "<University> - <Department>"
func (k DepartmentKey) Label() string {
	return k.UniversityName + " - " + k.DepartmentName
}

// RankedDepartment is a scored university department produced by evaluation
type RankedDepartment struct {
	UniversityName string  `json:"universityName"`
	DepartmentName string  `json:"departmentName"`
	Ranking        float64 `json:"ranking"`
	Reason         string  `json:"reason"`
}

// Key returns the identity of the ranked department
func (d RankedDepartment) Key() DepartmentKey {
	return DepartmentKey{UniversityName: d.UniversityName, DepartmentName: d.DepartmentName}.Normalized()
}

// ApplicationSnippets is per-department application advice; every section may be empty
type ApplicationSnippets struct {
	PersonalStatementFocus      string `json:"personalStatementFocus"`
	WhyThisProgram              string `json:"whyThisProgram"`
	RelevantSkillsHighlight     string `json:"relevantSkillsHighlight"`
	CareerGoalsAlignment        string `json:"careerGoalsAlignment"`
	PotentialQuestionsToPrepare string `json:"potentialQuestionsToPrepare"`
}

// IsEmpty reports whether no section carries text
func (s ApplicationSnippets) IsEmpty() bool {
	return strings.TrimSpace(s.PersonalStatementFocus) == "" &&
		strings.TrimSpace(s.WhyThisProgram) == "" &&
		strings.TrimSpace(s.RelevantSkillsHighlight) == "" &&
		strings.TrimSpace(s.CareerGoalsAlignment) == "" &&
		strings.TrimSpace(s.PotentialQuestionsToPrepare) == ""
}

// Notice variants
const (
	NoticeDefault     = "default"
	NoticeDestructive = "destructive"
)

// Notice is a short human-readable message surfaced to the user after an operation
type Notice struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Variant     string    `json:"variant"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewNotice builds a notice stamped with the current time
func NewNotice(title, description, variant string) Notice {
	return Notice{Title: title, Description: description, Variant: variant, CreatedAt: time.Now()}
}

// DeadlineWindow is the application period for a department
type DeadlineWindow struct {
	DepartmentName      string    `json:"departmentName" yaml:"department"`
	ApplicationOpen     time.Time `json:"applicationOpen" yaml:"open"`
	ApplicationDeadline time.Time `json:"applicationDeadline" yaml:"deadline"`
}

// DeadlineRow is one bar of the deadline timeline
type DeadlineRow struct {
	Name                string    `json:"name"`
	UniversityName      string    `json:"universityName"`
	DepartmentName      string    `json:"departmentName"`
	ApplicationOpen     time.Time `json:"applicationOpen"`
	ApplicationDeadline time.Time `json:"applicationDeadline"`
	Fallback            bool      `json:"fallback"`
}

// DeadlineTimeline is the chart-ready view of the selected departments
type DeadlineTimeline struct {
	Rows        []DeadlineRow `json:"rows"`
	DomainStart time.Time     `json:"domainStart"`
	DomainEnd   time.Time     `json:"domainEnd"`
}
