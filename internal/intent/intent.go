// Package intent maps a free-text teacher message to a symbolic intent. The
// precedence between overlapping keyword sets is a first-class artifact: Rules
// is an ordered list and Classify returns the first match.
package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mrinal-mann/superteacher-backend/internal/config"
	"github.com/mrinal-mann/superteacher-backend/internal/domain"
)

type Intent string

const (
	Greeting           Intent = "greeting"
	Help               Intent = "help"
	NewSession         Intent = "new_session"
	SetClass           Intent = "set_class"
	SetSubject         Intent = "set_subject"
	ConfirmMarks       Intent = "confirm_marks"
	RejectMarks        Intent = "reject_marks"
	UpdateMarks        Intent = "update_marks"
	ProvideQuestion    Intent = "provide_question"
	GradingInstruction Intent = "grading_instruction"
	FollowUpQuestion   Intent = "follow_up_question"
	Unknown            Intent = "unknown"
)

// Rule pairs a named predicate with the intent it yields.
type Rule struct {
	Name   string
	Intent Intent
	Match  func(msg string, s *domain.Session) bool
}

// Rules in priority order. Earlier rules win: reset phrases beat everything,
// state-structural patterns beat keyword bags, keyword bags beat state
// defaults. Tests pin this order because the keyword sets overlap.
var Rules = []Rule{
	// 1. Reset phrases, honored from any state.
	{
		Name:   "reset-phrase",
		Intent: NewSession,
		Match: func(msg string, _ *domain.Session) bool {
			if hasAny(msg, "start over", "start again", "reset", "restart", "new session") {
				return true
			}
			// Conversational phrases like "grade another answer" count
			// only at command length; inside a long student answer they
			// are ordinary prose and must never wipe session state.
			return len(msg) <= 30 &&
				hasAny(msg, "new grading", "grade another", "another answer")
		},
	},

	// 2. State-structural patterns.
	{
		Name:   "marks-update-grammar",
		Intent: UpdateMarks,
		Match: func(msg string, s *domain.Session) bool {
			if s.Step != domain.StepWaitingForMarksUpdate && s.Step != domain.StepWaitingForMarksConfirmation {
				return false
			}
			_, _, ok := ParseMarkUpdate(msg)
			return ok
		},
	},
	{
		Name:   "class-number",
		Intent: SetClass,
		Match: func(msg string, s *domain.Session) bool {
			if s.Step != domain.StepWaitingForClass {
				return false
			}
			_, ok := domain.ParseClassLevel(msg)
			return ok
		},
	},
	{
		Name:   "subject-name",
		Intent: SetSubject,
		Match: func(msg string, s *domain.Session) bool {
			if s.Step != domain.StepWaitingForSubject {
				return false
			}
			_, ok := domain.ParseSubject(msg)
			return ok
		},
	},
	{
		Name:   "marks-affirmative",
		Intent: ConfirmMarks,
		Match: func(msg string, s *domain.Session) bool {
			return s.Step == domain.StepWaitingForMarksConfirmation && isAffirmative(msg)
		},
	},
	{
		Name:   "marks-negative",
		Intent: RejectMarks,
		Match: func(msg string, s *domain.Session) bool {
			return s.Step == domain.StepWaitingForMarksConfirmation && isNegative(msg)
		},
	},

	// 3. Keyword bags.
	{
		Name:   "greeting-token",
		Intent: Greeting,
		Match: func(msg string, _ *domain.Session) bool {
			if len(msg) > 30 {
				return false
			}
			return hasAny(msg, "hi", "hello", "hey", "namaste", "good morning",
				"good afternoon", "good evening")
		},
	},
	{
		Name:   "help-request",
		Intent: Help,
		Match: func(msg string, s *domain.Session) bool {
			if answerLike(msg, s) || len(msg) > 60 {
				return false
			}
			return hasAny(msg, "help", "how do i", "how does this work",
				"what can you do", "what do i do")
		},
	},
	{
		Name:   "grading-instruction",
		Intent: GradingInstruction,
		Match: func(msg string, s *domain.Session) bool {
			if answerLike(msg, s) || len(msg) > 80 {
				return false
			}
			if _, ok := domain.ParseApproach(msg); !ok {
				return false
			}
			return hasAny(msg, "grade", "grading", "mark", "marking", "check", "evaluate", "be")
		},
	},
	{
		Name:   "follow-up-question",
		Intent: FollowUpQuestion,
		Match: func(msg string, s *domain.Session) bool {
			if s.Step != domain.StepComplete && s.Step != domain.StepFollowUp {
				return false
			}
			return strings.HasSuffix(msg, "?") ||
				hasAny(msg, "why", "how", "explain", "what about")
		},
	},

	// 4. State defaults.
	{
		Name:   "typed-question",
		Intent: ProvideQuestion,
		Match: func(msg string, s *domain.Session) bool {
			if s.Step != domain.StepWaitingForQuestion && s.Step != domain.StepWaitingForQuestionPaper {
				return false
			}
			return len(msg) >= config.MinQuestionLen
		},
	},
	{
		Name:   "post-grading-default",
		Intent: FollowUpQuestion,
		Match: func(msg string, s *domain.Session) bool {
			return (s.Step == domain.StepComplete || s.Step == domain.StepFollowUp) && msg != ""
		},
	},
}

// Classify returns the intent of message given the session's current state.
// Pure: no clock, no randomness, no session mutation.
func Classify(message string, s *domain.Session) Intent {
	msg := normalize(message)
	if msg == "" {
		return Unknown
	}
	for _, r := range Rules {
		if r.Match(msg, s) {
			return r.Intent
		}
	}
	return Unknown
}

// markUpdateRe matches the correction grammar:
// "question 3 should be 5 marks" / "q3 to 5 marks" / "question 3 is 5 marks".
var markUpdateRe = regexp.MustCompile(`(?i)\bq(?:uestion)?\.?\s*(\d{1,2})\s+(?:should\s+be|to|is)\s+(\d{1,3})\s*marks?\b`)

// ParseMarkUpdate extracts (question number, marks) from a correction message.
func ParseMarkUpdate(message string) (question, marks int, ok bool) {
	m := markUpdateRe.FindStringSubmatch(message)
	if m == nil {
		return 0, 0, false
	}
	question, err1 := strconv.Atoi(m[1])
	marks, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil || question <= 0 || marks <= 0 {
		return 0, 0, false
	}
	return question, marks, true
}

// normalize lowercases, collapses whitespace and strips punctuation from token
// edges, keeping a trailing "?" so question-shaped messages stay detectable.
func normalize(message string) string {
	fields := strings.Fields(strings.ToLower(message))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, `.,!:;"'()`)
		if f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, " ")
}

// hasAny reports whether any token (or space-separated phrase) occurs in the
// normalized message on word boundaries.
// answerLike reports whether the session is waiting for a student answer and
// msg is long enough to be one. Keyword bags yield to answer-length prose so
// a line containing "help" or "be strict" is graded rather than rerouted.
func answerLike(msg string, s *domain.Session) bool {
	return s.Step == domain.StepWaitingForStudentAnswer && len(msg) >= config.MinAnswerLen
}

func hasAny(msg string, tokens ...string) bool {
	padded := " " + strings.TrimSuffix(msg, "?") + " "
	for _, t := range tokens {
		if strings.Contains(padded, " "+t+" ") {
			return true
		}
	}
	return false
}

var affirmatives = []string{"yes", "yep", "yeah", "correct", "right", "confirm", "confirmed", "ok", "okay", "sure", "looks good", "perfect"}

var negatives = []string{"no", "nope", "wrong", "incorrect", "not right", "change", "fix"}

func isAffirmative(msg string) bool {
	if hasAny(msg, negatives...) {
		return false
	}
	return hasAny(msg, affirmatives...)
}

func isNegative(msg string) bool {
	return hasAny(msg, negatives...)
}
