package intent

import (
	"testing"

	"github.com/mrinal-mann/superteacher-backend/internal/domain"
)

func sessionAt(step domain.Step) *domain.Session {
	s := domain.NewSession("u1", domain.WorkflowCBSE)
	s.Step = step
	return s
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		step domain.Step
		want Intent
	}{
		{"greeting", "Hi!", domain.StepInitial, Greeting},
		{"greeting with noise", "hello there", domain.StepWaitingForClass, Greeting},
		{"greeting token inside word does not fire", "this is my answer to question one about history", domain.StepWaitingForQuestion, ProvideQuestion},

		{"help", "help", domain.StepInitial, Help},
		{"help beats grading keyword", "can you help me grade", domain.StepInitial, Help},

		{"reset from initial", "reset", domain.StepInitial, NewSession},
		{"reset from confirmation", "start over", domain.StepWaitingForMarksConfirmation, NewSession},
		{"reset from complete", "grade another answer", domain.StepComplete, NewSession},
		{"reset beats class number", "restart", domain.StepWaitingForClass, NewSession},
		{"short reset command while answering", "grade another answer", domain.StepWaitingForStudentAnswer, NewSession},
		{"reset phrase inside long answer is prose", "Deforestation gives another answer to the question of land use and causes soil erosion", domain.StepWaitingForStudentAnswer, Unknown},
		{"help word inside long answer is prose", "Forests help in maintaining the balance of oxygen and rainfall in nature", domain.StepWaitingForStudentAnswer, Unknown},
		{"approach lookalike inside long answer is prose", "The district administration must be held accountable to the people it serves", domain.StepWaitingForStudentAnswer, Unknown},

		{"class number", "Class 10", domain.StepWaitingForClass, SetClass},
		{"bare class number", "10", domain.StepWaitingForClass, SetClass},
		{"class outside class state", "Class 10", domain.StepWaitingForSubject, Unknown},

		{"subject", "Mathematics", domain.StepWaitingForSubject, SetSubject},
		{"subject casual", "it's for social science", domain.StepWaitingForSubject, SetSubject},

		{"confirm", "Yes", domain.StepWaitingForMarksConfirmation, ConfirmMarks},
		{"confirm phrase", "looks good", domain.StepWaitingForMarksConfirmation, ConfirmMarks},
		{"reject", "No", domain.StepWaitingForMarksConfirmation, RejectMarks},
		{"negation wins over affirmative", "no that's not right", domain.StepWaitingForMarksConfirmation, RejectMarks},
		{"no outside confirmation", "no", domain.StepWaitingForQuestion, Unknown},

		{"mark update in update state", "Question 3 should be 5 marks", domain.StepWaitingForMarksUpdate, UpdateMarks},
		{"mark update during confirmation", "q2 to 4 marks", domain.StepWaitingForMarksConfirmation, UpdateMarks},
		{"mark update elsewhere ignored", "question 3 should be 5 marks", domain.StepWaitingForStudentAnswer, Unknown},

		{"grading instruction", "grade strictly", domain.StepWaitingForStudentAnswer, GradingInstruction},
		{"grading instruction be lenient", "please be lenient", domain.StepComplete, GradingInstruction},
		{"approach word alone is not an instruction", "strict", domain.StepWaitingForStudentAnswer, Unknown},

		{"typed question", "Explain the water cycle in detail", domain.StepWaitingForQuestion, ProvideQuestion},
		{"typed question paper", "1. Define GDP (2 marks)", domain.StepWaitingForQuestionPaper, ProvideQuestion},
		{"too short for a question", "hm ok", domain.StepWaitingForQuestion, Unknown},

		{"follow-up question mark", "why did it lose marks?", domain.StepComplete, FollowUpQuestion},
		{"follow-up keyword", "explain the score", domain.StepFollowUp, FollowUpQuestion},
		{"post-grading default", "that seems harsh", domain.StepComplete, FollowUpQuestion},

		{"empty", "   ", domain.StepInitial, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.msg, sessionAt(tt.step))
			if got != tt.want {
				t.Errorf("Classify(%q, %s) = %s, want %s", tt.msg, tt.step, got, tt.want)
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	s := sessionAt(domain.StepWaitingForMarksConfirmation)
	msg := "no, question 2 should be 4 marks"
	first := Classify(msg, s)
	for i := 0; i < 5; i++ {
		if got := Classify(msg, s); got != first {
			t.Fatalf("classification changed between calls: %s then %s", first, got)
		}
	}
}

func TestClassifyDoesNotMutateSession(t *testing.T) {
	s := sessionAt(domain.StepWaitingForMarksConfirmation)
	s.ClassLevel = domain.Class10
	Classify("yes", s)
	if s.Step != domain.StepWaitingForMarksConfirmation || s.ClassLevel != domain.Class10 {
		t.Error("Classify mutated the session")
	}
}

func TestParseMarkUpdate(t *testing.T) {
	tests := []struct {
		msg      string
		question int
		marks    int
		ok       bool
	}{
		{"Question 3 should be 5 marks", 3, 5, true},
		{"question 12 should be 10 marks", 12, 10, true},
		{"q3 to 5 marks", 3, 5, true},
		{"Q.4 is 2 marks", 4, 2, true},
		{"change question 1 to 6 marks please", 1, 6, true},
		{"question 3 should be 5", 0, 0, false},
		{"3 should be 5 marks", 0, 0, false},
		{"question should be 5 marks", 0, 0, false},
		{"make them all 5 marks", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			q, m, ok := ParseMarkUpdate(tt.msg)
			if ok != tt.ok || q != tt.question || m != tt.marks {
				t.Errorf("ParseMarkUpdate(%q) = (%d, %d, %v), want (%d, %d, %v)",
					tt.msg, q, m, ok, tt.question, tt.marks, tt.ok)
			}
		})
	}
}
