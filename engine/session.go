package engine

import (
	"context"

	"tipline/model"
)

// Session is the explicit per-whistleblower state object: one compiled
// questionnaire, one context, the evolving answers, and the components
// reading them. Every mutation synchronously re-runs evaluation, score
// aggregation and navigation state, in that order. Nothing here is
// shared across sessions.
type Session struct {
	Context       *model.Context
	Questionnaire *model.Questionnaire

	eval      *Evaluator
	nav       *Navigator
	receivers *ReceiverSelection
	known     map[string]model.Receiver
	answers   model.Answers
	score     int
	state     *SubmissionState
	submitter ReportSubmitter
}

// NewSession starts (or resumes) a report against the context. The
// submission state is created at most once per open context via the
// assembler; receivers are resolved on entry.
func NewSession(ctx *model.Context, q *model.Questionnaire, known map[string]model.Receiver, asm *Assembler, submitter ReportSubmitter) *Session {
	eval := &Evaluator{Q: q}
	return &Session{
		Context:       ctx,
		Questionnaire: q,
		eval:          eval,
		nav:           NewNavigator(eval),
		receivers:     SelectReceivers(ctx, known, nil),
		known:         known,
		answers:       make(model.Answers),
		state:         asm.Create(ctx.ID),
		submitter:     submitter,
	}
}

// ReenterReceivers recomputes the recipient set for the same context,
// preserving the manual selection when the context allows recipient
// selection.
func (s *Session) ReenterReceivers() {
	s.receivers = SelectReceivers(s.Context, s.known, s.receivers.Snapshot())
	s.receivers.Narrow(s.eval.TriggeredReceivers(s.answers))
}

// SetAnswer replaces the answer instances of a field and re-evaluates.
func (s *Session) SetAnswer(fieldID string, entries ...model.AnswerEntry) error {
	if s.state.Finalized() {
		return validationErr(CodeFinalized)
	}
	if s.Questionnaire.Field(fieldID) == nil {
		return validationErr(CodeUnknownField)
	}
	if len(entries) == 0 {
		delete(s.answers, fieldID)
	} else {
		s.answers[fieldID] = append([]model.AnswerEntry(nil), entries...)
	}
	s.recalculate()
	return nil
}

// ClearAnswer removes a field's answer instances and re-evaluates.
func (s *Session) ClearAnswer(fieldID string) error {
	return s.SetAnswer(fieldID)
}

// recalculate is the synchronous pipeline run after every mutation:
// aggregate score, prune answers of fields the mutation deactivated
// (stale entries must not keep feeding the score), clamp the navigator,
// refresh receiver narrowing. Pruning can itself deactivate further
// fields, so it loops to a fixpoint; the bound is the field count.
func (s *Session) recalculate() {
	for i := 0; i <= len(s.answers); i++ {
		s.score = s.eval.Score(s.answers)
		stale := s.eval.InactiveFields(s.answers, s.score)
		if len(stale) == 0 {
			break
		}
		for _, id := range stale {
			delete(s.answers, id)
		}
	}
	s.score = s.eval.Score(s.answers)
	s.nav.clamp(s.answers, s.score)
	s.receivers.Narrow(s.eval.TriggeredReceivers(s.answers))
}

// Answers returns a copy of the current answers.
func (s *Session) Answers() model.Answers {
	return s.answers.Clone()
}

// Score is the current aggregate score.
func (s *Session) Score() int {
	return s.score
}

// Risk classifies the current score against the context thresholds.
func (s *Session) Risk() RiskLevel {
	return Classify(s.score, s.Context)
}

// AdditionalQuestionnaireRequired reports whether the score has activated
// the context's follow-up questionnaire.
func (s *Session) AdditionalQuestionnaireRequired() bool {
	return AdditionalQuestionnaireRequired(s.score, s.Context)
}

// Blocked reports whether a selected option prevents final submission.
func (s *Session) Blocked() bool {
	return len(s.eval.BlockingOptions(s.answers)) > 0
}

// Receivers exposes the recipient selection for toggling and display.
func (s *Session) Receivers() *ReceiverSelection {
	return s.receivers
}

// SetIdentityProvided flags whether the whistleblower disclosed their
// identity. The identity material itself never passes through the
// engine.
func (s *Session) SetIdentityProvided(provided bool) {
	s.state.IdentityProvided = provided
}

// Steps returns the active steps in navigation order.
func (s *Session) Steps() []*model.Step {
	return s.nav.Steps(s.answers, s.score)
}

// CurrentStep returns the step in view, or nil on the review pseudo-step.
func (s *Session) CurrentStep() *model.Step {
	return s.nav.Current(s.answers, s.score)
}

// AtReview reports whether the terminal navigator state is reached.
func (s *Session) AtReview() bool {
	return s.nav.AtReview(s.answers, s.score)
}

// Next validates the current step and advances.
func (s *Session) Next() error {
	return s.nav.Next(s.answers, s.score)
}

// Back returns to the previous active step without validating.
func (s *Session) Back() {
	s.nav.Back(s.answers, s.score)
}

// State exposes the submission lifecycle state.
func (s *Session) State() *SubmissionState {
	return s.state
}

// Payload assembles the serializable submission.
func (s *Session) Payload() Payload {
	return Payload{
		ContextID:        s.Context.ID,
		Receivers:        s.receivers.Selected(),
		IdentityProvided: s.state.IdentityProvided,
		Answers:          s.answers.Clone(),
		Score:            s.score,
	}
}

// Submit validates the final state and hands the payload to the
// transport collaborator. Local failures (blocked option, terminal state
// not reached, invalid steps, empty recipient set) are ValidationErrors
// raised before any network interaction. A transport failure leaves the
// state open so the report can be resubmitted; success finalizes it and
// records the receipt.
func (s *Session) Submit(ctx context.Context) (string, error) {
	if s.Blocked() {
		return "", validationErr(CodeBlocked)
	}
	if !s.AtReview() {
		return "", validationErr(CodeNotTerminal)
	}
	if err := s.nav.ValidateAll(s.answers, s.score); err != nil {
		return "", err
	}
	if len(s.receivers.Selected()) == 0 {
		return "", validationErr(CodeReceiversEmpty)
	}

	if err := s.state.begin(); err != nil {
		return "", err
	}
	receipt, err := s.submitter.SubmitReport(ctx, s.Payload())
	s.state.end(receipt, err == nil)
	if err != nil {
		return "", err
	}
	return receipt, nil
}
