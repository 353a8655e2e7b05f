package workflow

import (
	"fmt"

	"sambou/internal/evaluation"
	"sambou/models"
)

const maxNotices = 20

func evaluationCompleteNotice(summary evaluation.Summary) models.Notice {
	desc := "Departments have been evaluated based on your profile."
	if summary.Count > 0 {
		desc = fmt.Sprintf("%s %d departments ranked, top score %.1f.", desc, summary.Count, summary.Max)
	}
	return models.NewNotice("Evaluation Complete", desc, models.NoticeDefault)
}

func evaluationNoteNotice() models.Notice {
	return models.NewNotice("Evaluation Note",
		"AI completed evaluation, but no specific rankings were returned. You can proceed or refine your profile if needed.",
		models.NoticeDefault)
}

func evaluationErrorNotice() models.Notice {
	return models.NewNotice("Evaluation Error",
		"An error occurred while evaluating departments. Please try again.",
		models.NoticeDestructive)
}

func departmentsSelectedNotice() models.Notice {
	return models.NewNotice("Departments Selected", "Proceeding to view application deadlines.", models.NoticeDefault)
}

func snippetErrorNotice() models.Notice {
	return models.NewNotice("Snippet Generation Error",
		"Could not generate application advice. Please try again.",
		models.NoticeDestructive)
}

func resetNotice() models.Notice {
	return models.NewNotice("Process Reset", "Let's start over. Please provide your profile details.", models.NoticeDefault)
}

func conversationStartErrorNotice() models.Notice {
	return models.NewNotice("Conversation Error", "Could not start the conversation with the AI.", models.NoticeDestructive)
}

func conversationTurnErrorNotice() models.Notice {
	return models.NewNotice("Conversation Error", "There was an issue processing your answer.", models.NoticeDestructive)
}
