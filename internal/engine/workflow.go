package engine

import (
	"context"

	"github.com/mrinal-mann/superteacher-backend/internal/domain"
	"github.com/mrinal-mann/superteacher-backend/internal/intent"
	"github.com/mrinal-mann/superteacher-backend/internal/vision"
)

type textHandler func(e *Engine, ctx context.Context, s *domain.Session, msg string, it intent.Intent) string

type imageHandler func(e *Engine, ctx context.Context, s *domain.Session, img vision.Input) string

type stepSpec struct {
	onText  textHandler
	onImage imageHandler
}

// Workflow is a conversation variant as data: its start step plus the handler
// for every step it declares. New variants are new descriptors, not new
// engine code.
type Workflow struct {
	Kind  domain.WorkflowKind
	Start domain.Step

	steps map[domain.Step]stepSpec
}

// Declares reports whether step is part of this workflow. Handlers may only
// ever leave the session on a declared step.
func (w Workflow) Declares(step domain.Step) bool {
	_, ok := w.steps[step]
	return ok
}

// CBSEWorkflow is the full variant: class and subject first, then a question
// paper whose per-question marks must be confirmed before the student answer
// is graded.
func CBSEWorkflow() Workflow {
	return Workflow{
		Kind:  domain.WorkflowCBSE,
		Start: domain.StepWaitingForClass,
		steps: map[domain.Step]stepSpec{
			domain.StepInitial: {
				onText:  (*Engine).handleInitialText,
				onImage: (*Engine).handleEarlyImage,
			},
			domain.StepWaitingForClass: {
				onText:  (*Engine).handleClassText,
				onImage: (*Engine).handleEarlyImage,
			},
			domain.StepWaitingForSubject: {
				onText:  (*Engine).handleSubjectText,
				onImage: (*Engine).handleEarlyImage,
			},
			domain.StepWaitingForQuestionPaper: {
				onText:  (*Engine).handleQuestionPaperText,
				onImage: (*Engine).handleQuestionPaperImage,
			},
			domain.StepProcessingQuestionPaper: {
				onText:  (*Engine).handleBusyText,
				onImage: (*Engine).handleQuestionPaperImage,
			},
			domain.StepExtractingMarks: {
				onText:  (*Engine).handleBusyText,
				onImage: (*Engine).handleQuestionPaperImage,
			},
			domain.StepWaitingForMarksConfirmation: {
				onText: (*Engine).handleMarksConfirmationText,
			},
			domain.StepWaitingForMarksUpdate: {
				onText: (*Engine).handleMarksUpdateText,
			},
			domain.StepWaitingForStudentAnswer: {
				onText:  (*Engine).handleAnswerText,
				onImage: (*Engine).handleAnswerImage,
			},
			domain.StepGradingInProgress: {
				onText: (*Engine).handleBusyText,
			},
			domain.StepComplete: {
				onText:  (*Engine).handleFollowUpText,
				onImage: (*Engine).handlePostGradingImage,
			},
			domain.StepFollowUp: {
				onText:  (*Engine).handleFollowUpText,
				onImage: (*Engine).handlePostGradingImage,
			},
		},
	}
}

// SimpleWorkflow is the short variant: one typed or photographed question,
// one answer, one grade.
func SimpleWorkflow() Workflow {
	return Workflow{
		Kind:  domain.WorkflowSimple,
		Start: domain.StepWaitingForQuestion,
		steps: map[domain.Step]stepSpec{
			domain.StepInitial: {
				onText:  (*Engine).handleInitialText,
				onImage: (*Engine).handleQuestionPaperImage,
			},
			domain.StepWaitingForQuestion: {
				onText:  (*Engine).handleQuestionText,
				onImage: (*Engine).handleQuestionPaperImage,
			},
			domain.StepProcessingQuestionPaper: {
				onText:  (*Engine).handleBusyText,
				onImage: (*Engine).handleQuestionPaperImage,
			},
			domain.StepExtractingMarks: {
				onText: (*Engine).handleBusyText,
			},
			domain.StepWaitingForStudentAnswer: {
				onText:  (*Engine).handleAnswerText,
				onImage: (*Engine).handleAnswerImage,
			},
			domain.StepGradingInProgress: {
				onText: (*Engine).handleBusyText,
			},
			domain.StepComplete: {
				onText:  (*Engine).handleFollowUpText,
				onImage: (*Engine).handlePostGradingImage,
			},
			domain.StepFollowUp: {
				onText:  (*Engine).handleFollowUpText,
				onImage: (*Engine).handlePostGradingImage,
			},
		},
	}
}

// WorkflowFor returns the descriptor for a configured kind, defaulting to
// CBSE.
func WorkflowFor(kind domain.WorkflowKind) Workflow {
	if kind == domain.WorkflowSimple {
		return SimpleWorkflow()
	}
	return CBSEWorkflow()
}
