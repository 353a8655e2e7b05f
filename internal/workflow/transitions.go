package workflow

import "sambou/models"

// stageTransitions lists the forward moves of the workflow. Reset is not a
// transition: it replaces the session and lands on the profile stage.
var stageTransitions = map[models.WorkflowStage][]models.WorkflowStage{
	// profile completes and evaluation ran without a hard failure
	models.StageProfile: {models.StageEvaluation},

	// the user confirms a non-empty selection
	models.StageEvaluation: {models.StageDeadlines},

	models.StageDeadlines: {},
}

// ValidNextStages returns the stages reachable from the given stage
func ValidNextStages(from models.WorkflowStage) []models.WorkflowStage {
	return stageTransitions[from]
}

// CanTransition checks if moving between two stages is allowed
func CanTransition(from, to models.WorkflowStage) bool {
	for _, stage := range ValidNextStages(from) {
		if stage == to {
			return true
		}
	}
	return false
}

// Stages returns every workflow stage in order
func Stages() []models.WorkflowStage {
	return []models.WorkflowStage{
		models.StageProfile,
		models.StageEvaluation,
		models.StageDeadlines,
	}
}
