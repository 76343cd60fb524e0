package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// WorkflowKind discriminates the conversation variant a session runs.
type WorkflowKind string

const (
	WorkflowSimple WorkflowKind = "simple"
	WorkflowCBSE   WorkflowKind = "cbse"
)

// Step is the current position of a session in its workflow.
type Step string

const (
	StepInitial                     Step = "initial"
	StepWaitingForClass             Step = "waiting_for_class"
	StepWaitingForSubject           Step = "waiting_for_subject"
	StepWaitingForQuestion          Step = "waiting_for_question"
	StepWaitingForQuestionPaper     Step = "waiting_for_question_paper"
	StepProcessingQuestionPaper     Step = "processing_question_paper"
	StepExtractingMarks             Step = "extracting_marks"
	StepWaitingForMarksConfirmation Step = "waiting_for_marks_confirmation"
	StepWaitingForMarksUpdate       Step = "waiting_for_marks_update"
	StepWaitingForStudentAnswer     Step = "waiting_for_student_answer"
	StepGradingInProgress           Step = "grading_in_progress"
	StepComplete                    Step = "complete"
	StepFollowUp                    Step = "follow_up"
)

type ClassLevel string

const (
	Class6  ClassLevel = "class_6"
	Class7  ClassLevel = "class_7"
	Class8  ClassLevel = "class_8"
	Class9  ClassLevel = "class_9"
	Class10 ClassLevel = "class_10"
	Class11 ClassLevel = "class_11"
	Class12 ClassLevel = "class_12"
)

var classByNumber = map[string]ClassLevel{
	"6": Class6, "7": Class7, "8": Class8, "9": Class9,
	"10": Class10, "11": Class11, "12": Class12,
}

// ParseClassLevel recognizes a class number in free text ("Class 10", "10th", "grade 9").
func ParseClassLevel(text string) (ClassLevel, bool) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r < '0' || r > '9'
	})
	for _, f := range fields {
		if c, ok := classByNumber[f]; ok {
			return c, true
		}
	}
	return "", false
}

func (c ClassLevel) Display() string {
	return "Class " + strings.TrimPrefix(string(c), "class_")
}

type Subject string

const (
	SubjectMathematics   Subject = "mathematics"
	SubjectScience       Subject = "science"
	SubjectEnglish       Subject = "english"
	SubjectSocialScience Subject = "social_science"
	SubjectEconomics     Subject = "economics"
	SubjectHindi         Subject = "hindi"
)

// subjectKeywords is checked in order: "social science" must win over "science".
var subjectKeywords = []struct {
	keyword string
	subject Subject
}{
	{"math", SubjectMathematics},
	{"economic", SubjectEconomics},
	{"social", SubjectSocialScience},
	{"sst", SubjectSocialScience},
	{"science", SubjectScience},
	{"english", SubjectEnglish},
	{"hindi", SubjectHindi},
}

// ParseSubject recognizes a subject name in free text.
func ParseSubject(text string) (Subject, bool) {
	lower := strings.ToLower(text)
	for _, sk := range subjectKeywords {
		if strings.Contains(lower, sk.keyword) {
			return sk.subject, true
		}
	}
	return "", false
}

func (s Subject) Display() string {
	parts := strings.Split(string(s), "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// Session is the per-user conversation state. A single tagged variant covers
// both workflows: Workflow discriminates, and the CBSE-only fields stay zero
// in the simple flow.
type Session struct {
	ID       string       `json:"id"`
	UserID   string       `json:"user_id"`
	Workflow WorkflowKind `json:"workflow"`
	Step     Step         `json:"step"`

	ClassLevel ClassLevel `json:"class_level,omitempty"`
	Subject    Subject    `json:"subject,omitempty"`

	Question          string `json:"question,omitempty"`
	QuestionPaperText string `json:"question_paper_text,omitempty"`
	StudentAnswerText string `json:"student_answer_text,omitempty"`

	DraftMarks       *MarkSheet `json:"draft_marks,omitempty"`
	ConfirmedMarks   *MarkSheet `json:"confirmed_marks,omitempty"`
	MarkingConfirmed bool       `json:"marking_confirmed"`
	MaxMarks         int        `json:"max_marks"`

	GradingInstruction string          `json:"grading_instruction,omitempty"`
	Approach           Approach        `json:"approach,omitempty"`
	GradingHistory     []GradingResult `json:"grading_history,omitempty"`

	// Revision counts committed store updates; it survives resets so
	// interleaved writers can be told apart.
	Revision        int64     `json:"revision"`
	LastInteraction time.Time `json:"last_interaction"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewSession creates a fresh session positioned at the initial step.
func NewSession(userID string, workflow WorkflowKind) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:              uuid.NewString(),
		UserID:          userID,
		Workflow:        workflow,
		Step:            StepInitial,
		LastInteraction: now,
		CreatedAt:       now,
	}
}

// ResetForNewCycle returns the session to the given start step, clearing all
// per-cycle fields. Grading history is preserved when keepHistory is set.
func (s *Session) ResetForNewCycle(start Step, keepHistory bool) {
	s.Step = start
	s.ClassLevel = ""
	s.Subject = ""
	s.Question = ""
	s.QuestionPaperText = ""
	s.StudentAnswerText = ""
	s.DraftMarks = nil
	s.ConfirmedMarks = nil
	s.MarkingConfirmed = false
	s.MaxMarks = 0
	s.GradingInstruction = ""
	s.Approach = ""
	if !keepHistory {
		s.GradingHistory = nil
	}
}

// ConfirmMarks promotes the draft sheet to the confirmed one. The confirmed
// sheet is only ever non-nil together with MarkingConfirmed, and its total
// must be positive.
func (s *Session) ConfirmMarks() bool {
	if s.DraftMarks == nil || s.DraftMarks.Total() <= 0 {
		return false
	}
	s.ConfirmedMarks = s.DraftMarks.Clone()
	s.MarkingConfirmed = true
	s.MaxMarks = s.ConfirmedMarks.Total()
	return true
}

// LastResult returns the most recent grading result, if any.
func (s *Session) LastResult() *GradingResult {
	if len(s.GradingHistory) == 0 {
		return nil
	}
	return &s.GradingHistory[len(s.GradingHistory)-1]
}

// Clone deep-copies the session so store callers never share mutable state.
func (s *Session) Clone() *Session {
	c := *s
	if s.DraftMarks != nil {
		c.DraftMarks = s.DraftMarks.Clone()
	}
	if s.ConfirmedMarks != nil {
		c.ConfirmedMarks = s.ConfirmedMarks.Clone()
	}
	if s.GradingHistory != nil {
		c.GradingHistory = make([]GradingResult, len(s.GradingHistory))
		copy(c.GradingHistory, s.GradingHistory)
	}
	return &c
}
