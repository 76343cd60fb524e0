package engine

import (
	"fmt"
	"strings"

	"github.com/mrinal-mann/superteacher-backend/internal/domain"
)

// Every user-visible string lives here. Failures always resolve to one of
// these messages with a clear next action; raw errors never reach the user.

const (
	msgResetDone = "Okay, starting fresh! Your previous grading results are saved."

	msgGreetingAgain = "Hello again!"

	msgRecovered = "Something went out of sync on my side, so I've taken us back to a safe point."

	msgStillWorking = "One moment — I'm still working on the last upload. I'll be ready for your next message shortly."

	msgClassNotRecognized = "I didn't catch the class. Please tell me a class between 6 and 12, for example \"Class 10\"."

	msgClassSet = "Great, %s it is. Which subject is this paper for? (Mathematics, Science, Social Science, English, Hindi or Economics)"

	msgSubjectNotRecognized = "I didn't recognize that subject. Please choose one of: Mathematics, Science, Social Science, English, Hindi or Economics."

	msgSubjectSet = "%s — noted. Now send me a photo of the question paper, or type the questions out."

	msgWantQuestionPaper = "Please send a photo of the question paper, or type the full question text."

	msgWantQuestion = "Please type the question you want graded, or send a photo of it."

	msgQuestionCaptured = "Got the question! It will be graded out of %d marks. Now send the student's answer — a photo of the answer sheet or typed text."

	msgPaperUnreadable = "I couldn't read that image clearly. Please send a sharper photo of the question paper, or type the questions instead."

	msgAnswerUnreadable = "I couldn't read the answer sheet clearly. Please send a sharper photo, or type the answer text."

	msgNoMarksFound = "I read the paper but couldn't find the mark allocation. You can set marks one question at a time, like:\n\"Question 1 should be 5 marks\""

	msgConfirmMarks = "Does this mark allocation look right? Reply \"Yes\" to confirm, or \"No\" to correct it."

	msgConfirmReprompt = "Please reply \"Yes\" if the marks are correct, \"No\" to change them — or send a correction directly, like \"Question 3 should be 5 marks\"."

	msgAskForCorrection = "No problem. Tell me the correction in this format:\n\"Question 3 should be 5 marks\""

	msgUpdateFormat = "I couldn't read that correction. Please use this format:\n\"Question 3 should be 5 marks\""

	msgMarkUpdated = "Updated question %d to %d marks."

	msgDraftEmpty = "There are no marks to confirm yet. Add them one at a time, like:\n\"Question 1 should be 5 marks\""

	msgMarksConfirmed = "Marks confirmed — %d in total. Now send the student's answer sheet as a photo, or type the answer."

	msgWantAnswer = "Please send the student's answer — a photo of the answer sheet or the typed answer text."

	msgConfirmBeforeGrading = "Before I can grade, please confirm the mark allocation. Reply \"Yes\" if it's correct or send a correction like \"Question 3 should be 5 marks\"."

	msgPaperBeforeGrading = "I need the question paper before grading. Please send a photo of it or type the questions."

	msgInstructionNoted = "Understood — I'll grade with a %s approach."

	msgNewCycle = "Starting a new grading round! The previous result is saved in history."
)

func welcomeMessage(kind domain.WorkflowKind) string {
	if kind == domain.WorkflowSimple {
		return "Hello! I'm your grading assistant. Send me a question (typed or as a photo), " +
			"then the student's answer, and I'll grade it with detailed feedback.\n\n" +
			"To begin, what's the question?"
	}
	return "Hello! I'm your CBSE grading assistant. Here's how it works:\n" +
		"1. Tell me the class\n" +
		"2. Tell me the subject\n" +
		"3. Send a photo of the question paper\n" +
		"4. Confirm the mark allocation\n" +
		"5. Send the student's answer sheet\n\n" +
		"Which class is this for? (6–12)"
}

func helpMessage(kind domain.WorkflowKind) string {
	common := "You can also:\n" +
		"• Say \"reset\" or \"start over\" at any point\n" +
		"• Give grading instructions like \"grade strictly\" or \"be lenient\"\n" +
		"• Ask follow-up questions about a result"
	if kind == domain.WorkflowSimple {
		return "Send me a question and a student answer (photos or text) and I'll grade it.\n\n" + common
	}
	return "I grade CBSE answer sheets. Tell me the class and subject, send the question paper, " +
		"confirm the marks, then send the answer sheet.\n\n" + common
}

// promptFor restates what the engine needs at a given step.
func promptFor(wf Workflow, step domain.Step) string {
	switch step {
	case domain.StepInitial:
		return welcomeMessage(wf.Kind)
	case domain.StepWaitingForClass:
		return "Which class is this paper for? (6–12)"
	case domain.StepWaitingForSubject:
		return "Which subject? (Mathematics, Science, Social Science, English, Hindi or Economics)"
	case domain.StepWaitingForQuestion:
		return msgWantQuestion
	case domain.StepWaitingForQuestionPaper:
		return msgWantQuestionPaper
	case domain.StepWaitingForMarksConfirmation:
		return msgConfirmReprompt
	case domain.StepWaitingForMarksUpdate:
		return msgUpdateFormat
	case domain.StepWaitingForStudentAnswer:
		return msgWantAnswer
	case domain.StepProcessingQuestionPaper, domain.StepExtractingMarks, domain.StepGradingInProgress:
		return msgStillWorking
	case domain.StepComplete, domain.StepFollowUp:
		return "You can ask about the last result, or send a new image to grade another answer."
	default:
		return welcomeMessage(wf.Kind)
	}
}

// imageGuidance explains what to do with an image that arrived in a state not
// expecting one.
func imageGuidance(wf Workflow, step domain.Step) string {
	switch step {
	case domain.StepWaitingForClass:
		return "I've got your image, but first I need the class. Which class is this paper for? (6–12)\n" +
			"Please re-send the photo once we get there."
	case domain.StepWaitingForSubject:
		return "I've got your image, but first I need the subject. Which subject is this paper for?\n" +
			"Please re-send the photo once we get there."
	case domain.StepWaitingForMarksConfirmation, domain.StepWaitingForMarksUpdate:
		return "Let's settle the mark allocation first. " + msgConfirmReprompt
	default:
		return "I wasn't expecting an image right now. " + promptFor(wf, step)
	}
}

// renderDraftMarks formats the extracted allocation for confirmation.
func renderDraftMarks(sheet *domain.MarkSheet, declaredTotal int) string {
	var b strings.Builder
	b.WriteString("Here's the mark allocation I found:\n\n")
	for _, q := range sheet.Questions() {
		if q.Marks > 0 {
			fmt.Fprintf(&b, "Q%d: %d marks", q.Number, q.Marks)
		} else {
			fmt.Fprintf(&b, "Q%d: ? marks", q.Number)
		}
		if q.Text != "" {
			fmt.Fprintf(&b, " — %s", truncate(q.Text, 60))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nTotal: %d marks", sheet.Total())
	if declaredTotal > 0 && declaredTotal != sheet.Total() {
		fmt.Fprintf(&b, " (the paper header says %d)", declaredTotal)
	}
	b.WriteString("\n")
	return b.String()
}

// renderResult formats a grading result for the teacher.
func renderResult(r domain.GradingResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Grading complete: %.1f / %d (%.0f%%)\n\n", r.Score, r.OutOf, r.Percentage)
	if r.Feedback != "" {
		fmt.Fprintf(&b, "%s\n", r.Feedback)
	}
	if len(r.Strengths) > 0 {
		b.WriteString("\n✅ Strengths:\n")
		for _, s := range r.Strengths {
			fmt.Fprintf(&b, "• %s\n", s)
		}
	}
	if len(r.AreasForImprovement) > 0 {
		b.WriteString("\n📈 Areas for improvement:\n")
		for _, a := range r.AreasForImprovement {
			fmt.Fprintf(&b, "• %s\n", a)
		}
	}
	if len(r.SuggestedPoints) > 0 {
		b.WriteString("\n💡 Points a full answer should cover:\n")
		for _, p := range r.SuggestedPoints {
			fmt.Fprintf(&b, "• %s\n", p)
		}
	}
	b.WriteString("\nAsk me anything about this result, or send a new image to grade another answer.")
	return b.String()
}

// followUpReply answers questions about the last result deterministically
// from the stored GradingResult.
func followUpReply(last *domain.GradingResult, msg string) string {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "improve") || strings.Contains(lower, "better") || strings.Contains(lower, "higher"):
		var b strings.Builder
		b.WriteString("To score higher, the answer should:\n")
		for _, a := range last.AreasForImprovement {
			fmt.Fprintf(&b, "• %s\n", a)
		}
		for _, p := range last.SuggestedPoints {
			fmt.Fprintf(&b, "• %s\n", p)
		}
		return b.String()
	case strings.Contains(lower, "why") || strings.Contains(lower, "score") || strings.Contains(lower, "marks"):
		var b strings.Builder
		fmt.Fprintf(&b, "The answer scored %.1f out of %d (%.0f%%).\n\n%s\n",
			last.Score, last.OutOf, last.Percentage, last.Feedback)
		if len(last.Strengths) > 0 {
			b.WriteString("\nWhat worked well:\n")
			for _, s := range last.Strengths {
				fmt.Fprintf(&b, "• %s\n", s)
			}
		}
		return b.String()
	default:
		return fmt.Sprintf("The last answer scored %.1f out of %d (%.0f%%). "+
			"You can ask \"why this score?\" or \"how can it improve?\" — or send a new image to grade another answer.",
			last.Score, last.OutOf, last.Percentage)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
