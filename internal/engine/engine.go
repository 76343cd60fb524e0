// Package engine is the conversation state machine: it reads the current
// session, classifies the inbound message, invokes the extractor and grading
// collaborators as needed and commits exactly one new session state per turn.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mrinal-mann/superteacher-backend/internal/config"
	"github.com/mrinal-mann/superteacher-backend/internal/domain"
	"github.com/mrinal-mann/superteacher-backend/internal/grading"
	"github.com/mrinal-mann/superteacher-backend/internal/intent"
	"github.com/mrinal-mann/superteacher-backend/internal/marks"
	"github.com/mrinal-mann/superteacher-backend/internal/session"
	"github.com/mrinal-mann/superteacher-backend/internal/storage"
	"github.com/mrinal-mann/superteacher-backend/internal/vision"
)

// Engine drives one workflow over injected collaborators. All session
// mutation happens inside the store's per-key critical section; nothing else
// in the process writes session state.
type Engine struct {
	store   session.Store
	vision  vision.Extractor
	storage storage.ObjectStore
	grader  *grading.Orchestrator
	wf      Workflow

	sessionTTL time.Duration
	now        func() time.Time
}

// Deps contains everything required to construct an Engine.
type Deps struct {
	Store      session.Store
	Vision     vision.Extractor
	Storage    storage.ObjectStore
	Grader     *grading.Orchestrator
	Workflow   Workflow
	SessionTTL time.Duration
}

func New(deps Deps) *Engine {
	return &Engine{
		store:      deps.Store,
		vision:     deps.Vision,
		storage:    deps.Storage,
		grader:     deps.Grader,
		wf:         deps.Workflow,
		sessionTTL: deps.SessionTTL,
		now:        time.Now,
	}
}

// SessionFactory returns the Factory a Store needs for this engine's
// workflow.
func SessionFactory(kind domain.WorkflowKind) session.Factory {
	return func(userID string) *domain.Session {
		return domain.NewSession(userID, kind)
	}
}

// HandleText processes one inbound text turn and returns the reply.
func (e *Engine) HandleText(ctx context.Context, userID, text string) (string, error) {
	var reply string
	_, err := e.store.Update(ctx, userID, func(s *domain.Session) error {
		e.expireIfStale(s)
		reply = e.textTurn(ctx, s, text)
		s.LastInteraction = e.now().UTC()
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("text turn for %s: %w", userID, err)
	}
	return reply, nil
}

// HandleImage processes one inbound image turn and returns the reply.
func (e *Engine) HandleImage(ctx context.Context, userID string, img vision.Input) (string, error) {
	var reply string
	_, err := e.store.Update(ctx, userID, func(s *domain.Session) error {
		e.expireIfStale(s)
		reply = e.imageTurn(ctx, s, img)
		s.LastInteraction = e.now().UTC()
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("image turn for %s: %w", userID, err)
	}
	return reply, nil
}

// Start resets the conversation and returns the canonical greeting. Used by
// the /start command.
func (e *Engine) Start(ctx context.Context, userID string) (string, error) {
	var reply string
	_, err := e.store.Update(ctx, userID, func(s *domain.Session) error {
		s.ResetForNewCycle(e.wf.Start, true)
		s.LastInteraction = e.now().UTC()
		reply = welcomeMessage(e.wf.Kind)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("start for %s: %w", userID, err)
	}
	return reply, nil
}

// Reset handles an explicit reset request, preserving grading history.
func (e *Engine) Reset(ctx context.Context, userID string) (string, error) {
	var reply string
	_, err := e.store.Update(ctx, userID, func(s *domain.Session) error {
		s.ResetForNewCycle(e.wf.Start, true)
		s.LastInteraction = e.now().UTC()
		reply = msgResetDone + "\n\n" + promptFor(e.wf, e.wf.Start)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("reset for %s: %w", userID, err)
	}
	return reply, nil
}

func (e *Engine) expireIfStale(s *domain.Session) {
	if e.sessionTTL <= 0 {
		return
	}
	if e.now().Sub(s.LastInteraction) > e.sessionTTL && s.Step != domain.StepInitial {
		slog.Info("session expired, resetting", "user_id", s.UserID, "idle", e.now().Sub(s.LastInteraction))
		s.ResetForNewCycle(e.wf.Start, true)
	}
}

func (e *Engine) textTurn(ctx context.Context, s *domain.Session, text string) string {
	// Unknown step values are coerced at the turn boundary, never propagated.
	if !e.wf.Declares(s.Step) {
		slog.Warn("session in undeclared step, coercing", "user_id", s.UserID, "step", s.Step)
		s.Step = e.wf.Start
		return msgRecovered + "\n\n" + promptFor(e.wf, e.wf.Start)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return promptFor(e.wf, s.Step)
	}

	it := intent.Classify(text, s)

	// Intent-driven transitions that short-circuit the state handlers.
	switch it {
	case intent.NewSession:
		s.ResetForNewCycle(e.wf.Start, true)
		return msgResetDone + "\n\n" + promptFor(e.wf, e.wf.Start)
	case intent.Help:
		return helpMessage(e.wf.Kind)
	case intent.Greeting:
		if s.Step == domain.StepInitial {
			s.Step = e.wf.Start
			return welcomeMessage(e.wf.Kind)
		}
		return msgGreetingAgain + "\n\n" + promptFor(e.wf, s.Step)
	case intent.GradingInstruction:
		s.GradingInstruction = text
		if a, ok := domain.ParseApproach(text); ok {
			s.Approach = a
		}
		return fmt.Sprintf(msgInstructionNoted, s.Approach) + "\n\n" + promptFor(e.wf, s.Step)
	}

	reply := e.wf.steps[s.Step].onText(e, ctx, s, text, it)
	e.enforceDeclaredStep(s)
	return reply
}

func (e *Engine) imageTurn(ctx context.Context, s *domain.Session, img vision.Input) string {
	spec, ok := e.wf.steps[s.Step]
	if !ok {
		slog.Warn("session in undeclared step, coercing", "user_id", s.UserID, "step", s.Step)
		s.Step = e.wf.Start
		return msgRecovered + "\n\n" + promptFor(e.wf, e.wf.Start)
	}
	if spec.onImage == nil {
		// An unexpected image is guidance, not an error; it is never
		// silently dropped.
		return imageGuidance(e.wf, s.Step)
	}
	reply := spec.onImage(e, ctx, s, img)
	e.enforceDeclaredStep(s)
	return reply
}

// enforceDeclaredStep guarantees no handler can leave the session on a step
// the workflow does not declare.
func (e *Engine) enforceDeclaredStep(s *domain.Session) {
	if !e.wf.Declares(s.Step) {
		slog.Error("handler set undeclared step, coercing", "user_id", s.UserID, "step", s.Step)
		s.Step = e.wf.Start
	}
}

// --- step handlers: shared ---

func (e *Engine) handleInitialText(_ context.Context, s *domain.Session, _ string, _ intent.Intent) string {
	s.Step = e.wf.Start
	return welcomeMessage(e.wf.Kind)
}

func (e *Engine) handleBusyText(_ context.Context, _ *domain.Session, _ string, _ intent.Intent) string {
	return msgStillWorking
}

// --- step handlers: CBSE ---

func (e *Engine) handleClassText(_ context.Context, s *domain.Session, msg string, it intent.Intent) string {
	if it != intent.SetClass {
		return msgClassNotRecognized
	}
	level, _ := domain.ParseClassLevel(msg)
	s.ClassLevel = level
	s.Step = domain.StepWaitingForSubject
	return fmt.Sprintf(msgClassSet, level.Display())
}

func (e *Engine) handleSubjectText(_ context.Context, s *domain.Session, msg string, it intent.Intent) string {
	if it != intent.SetSubject {
		return msgSubjectNotRecognized
	}
	subject, _ := domain.ParseSubject(msg)
	s.Subject = subject
	s.Step = domain.StepWaitingForQuestionPaper
	return fmt.Sprintf(msgSubjectSet, subject.Display())
}

func (e *Engine) handleEarlyImage(_ context.Context, s *domain.Session, _ vision.Input) string {
	if s.Step == domain.StepInitial {
		s.Step = e.wf.Start
	}
	return imageGuidance(e.wf, s.Step)
}

func (e *Engine) handleQuestionPaperText(_ context.Context, s *domain.Session, msg string, it intent.Intent) string {
	if it != intent.ProvideQuestion {
		return msgWantQuestionPaper
	}
	// A teacher may type the paper instead of photographing it.
	return e.ingestQuestionPaper(s, msg)
}

func (e *Engine) handleQuestionPaperImage(ctx context.Context, s *domain.Session, img vision.Input) string {
	s.Step = domain.StepProcessingQuestionPaper
	e.storeImage(ctx, &img)

	text, err := e.vision.ExtractText(ctx, img, vision.HintQuestionPaper)
	if err != nil {
		slog.Error("question paper OCR failed", "user_id", s.UserID, "error", err)
		s.Step = e.questionStep()
		return msgPaperUnreadable
	}
	return e.ingestQuestionPaper(s, text)
}

// ingestQuestionPaper runs mark extraction over paper text, from any source.
func (e *Engine) ingestQuestionPaper(s *domain.Session, text string) string {
	s.QuestionPaperText = text
	s.Question = text

	if e.wf.Kind == domain.WorkflowSimple {
		// The simple flow skips marks confirmation: total from the
		// question itself, the paper header, or the default.
		s.MaxMarks = simpleMaxMarks(text)
		s.Step = domain.StepWaitingForStudentAnswer
		return fmt.Sprintf(msgQuestionCaptured, s.MaxMarks)
	}

	s.Step = domain.StepExtractingMarks
	res := marks.Extract(text, s.Subject)
	s.DraftMarks = res.Sheet
	if res.Sheet.Len() == 0 {
		s.Step = domain.StepWaitingForMarksUpdate
		return msgNoMarksFound
	}
	s.Step = domain.StepWaitingForMarksConfirmation
	return renderDraftMarks(res.Sheet, res.DeclaredTotal) + "\n" + msgConfirmMarks
}

func (e *Engine) handleMarksConfirmationText(_ context.Context, s *domain.Session, msg string, it intent.Intent) string {
	switch it {
	case intent.ConfirmMarks:
		if !s.ConfirmMarks() {
			// Confirmed an empty or zero-total draft; marks must be
			// corrected first.
			s.Step = domain.StepWaitingForMarksUpdate
			return msgDraftEmpty
		}
		s.Step = domain.StepWaitingForStudentAnswer
		return fmt.Sprintf(msgMarksConfirmed, s.MaxMarks)
	case intent.RejectMarks:
		s.Step = domain.StepWaitingForMarksUpdate
		return msgAskForCorrection
	case intent.UpdateMarks:
		return e.applyMarkUpdate(s, msg)
	default:
		return msgConfirmReprompt
	}
}

func (e *Engine) handleMarksUpdateText(_ context.Context, s *domain.Session, msg string, _ intent.Intent) string {
	// A message outside the grammar is not an error: applyMarkUpdate
	// reprompts with the expected format and the state does not change.
	return e.applyMarkUpdate(s, msg)
}

func (e *Engine) applyMarkUpdate(s *domain.Session, msg string) string {
	q, m, ok := intent.ParseMarkUpdate(msg)
	if !ok {
		return msgUpdateFormat
	}
	if s.DraftMarks == nil {
		s.DraftMarks = domain.NewMarkSheet()
	}
	s.DraftMarks.SetMarks(q, m)
	s.Step = domain.StepWaitingForMarksConfirmation
	return fmt.Sprintf(msgMarkUpdated, q, m) + "\n\n" +
		renderDraftMarks(s.DraftMarks, 0) + "\n" + msgConfirmMarks
}

// --- step handlers: simple flow ---

func (e *Engine) handleQuestionText(_ context.Context, s *domain.Session, msg string, it intent.Intent) string {
	if it != intent.ProvideQuestion {
		return msgWantQuestion
	}
	return e.ingestQuestionPaper(s, msg)
}

// --- step handlers: student answer and grading ---

func (e *Engine) handleAnswerText(ctx context.Context, s *domain.Session, msg string, _ intent.Intent) string {
	if len(msg) < config.MinAnswerLen {
		return msgWantAnswer
	}
	return e.gradeAnswer(ctx, s, msg)
}

func (e *Engine) handleAnswerImage(ctx context.Context, s *domain.Session, img vision.Input) string {
	e.storeImage(ctx, &img)
	text, err := e.vision.ExtractText(ctx, img, vision.HintStudentAnswer)
	if err != nil {
		slog.Error("student answer OCR failed", "user_id", s.UserID, "error", err)
		return msgAnswerUnreadable
	}
	return e.gradeAnswer(ctx, s, text)
}

func (e *Engine) gradeAnswer(ctx context.Context, s *domain.Session, answer string) string {
	// State-integrity guard: grading needs a positive total.
	if e.wf.Kind == domain.WorkflowCBSE && (!s.MarkingConfirmed || s.MaxMarks <= 0) {
		if s.DraftMarks.Len() > 0 {
			s.Step = domain.StepWaitingForMarksConfirmation
			return msgConfirmBeforeGrading
		}
		s.Step = domain.StepWaitingForQuestionPaper
		return msgPaperBeforeGrading
	}
	maxMarks := s.MaxMarks
	if maxMarks <= 0 {
		maxMarks = config.DefaultMaxMarks
	}

	s.StudentAnswerText = answer
	s.Step = domain.StepGradingInProgress

	result := e.grader.Grade(ctx, grading.Request{
		QuestionContext: e.questionContext(s),
		StudentAnswer:   answer,
		Instruction:     s.GradingInstruction,
		Approach:        e.approach(s),
		MaxMarks:        maxMarks,
	})
	s.GradingHistory = append(s.GradingHistory, result)
	s.Step = domain.StepComplete
	return renderResult(result)
}

func (e *Engine) questionContext(s *domain.Session) string {
	var b strings.Builder
	if s.Workflow == domain.WorkflowCBSE {
		fmt.Fprintf(&b, "%s %s question paper.\n", s.ClassLevel.Display(), s.Subject.Display())
		if s.ConfirmedMarks.Len() > 0 {
			b.WriteString("Mark allocation: ")
			for i, q := range s.ConfirmedMarks.Questions() {
				if i > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "Q%d=%d", q.Number, q.Marks)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString(s.Question)
	return b.String()
}

func (e *Engine) approach(s *domain.Session) domain.Approach {
	if s.Approach != "" {
		return s.Approach
	}
	if e.wf.Kind == domain.WorkflowCBSE {
		return domain.ApproachCBSEStandard
	}
	return domain.ApproachBalanced
}

// --- step handlers: after grading ---

func (e *Engine) handleFollowUpText(_ context.Context, s *domain.Session, msg string, _ intent.Intent) string {
	last := s.LastResult()
	if last == nil {
		// Completed step with no history is a state-integrity problem.
		s.ResetForNewCycle(e.wf.Start, true)
		return msgRecovered + "\n\n" + promptFor(e.wf, e.wf.Start)
	}
	s.Step = domain.StepFollowUp
	return followUpReply(last, msg)
}

func (e *Engine) handlePostGradingImage(ctx context.Context, s *domain.Session, img vision.Input) string {
	// A new image after a completed cycle starts the next one; the previous
	// result stays in history.
	s.ResetForNewCycle(e.wf.Start, true)
	if e.wf.Kind == domain.WorkflowSimple {
		return msgNewCycle + "\n\n" + e.handleQuestionPaperImage(ctx, s, img)
	}
	return msgNewCycle + "\n\n" + promptFor(e.wf, e.wf.Start)
}

// --- helpers ---

func (e *Engine) questionStep() domain.Step {
	if e.wf.Kind == domain.WorkflowSimple {
		return domain.StepWaitingForQuestion
	}
	return domain.StepWaitingForQuestionPaper
}

// storeImage uploads the image to durable storage so the vision collaborator
// gets a stable reference. Failure is non-fatal: the raw bytes still work.
func (e *Engine) storeImage(ctx context.Context, img *vision.Input) {
	if e.storage == nil || len(img.Data) == 0 || img.URL != "" {
		return
	}
	url, err := e.storage.Store(ctx, img.Data, img.Name)
	if err != nil {
		slog.Warn("storing upload failed, using raw bytes", "error", err)
		return
	}
	img.URL = url
}

var outOfRe = regexp.MustCompile(`(?i)\b(?:out\s+of\s+(\d{1,3})|for\s+(\d{1,3})\s*marks)\b`)

// simpleMaxMarks finds the total for the simple flow: an "out of N" phrase in
// the typed question, the paper's declared total, or the default.
func simpleMaxMarks(text string) int {
	if m := outOfRe.FindStringSubmatch(text); m != nil {
		digits := m[1]
		if digits == "" {
			digits = m[2]
		}
		if n, err := strconv.Atoi(digits); err == nil && n > 0 {
			return n
		}
	}
	if res := marks.Extract(text, ""); res.DeclaredTotal > 0 {
		return res.DeclaredTotal
	}
	return config.DefaultMaxMarks
}
