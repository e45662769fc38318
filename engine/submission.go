package engine

import (
	"context"
	"sync"

	"tipline/model"
)

// Payload is the externally observable submission shape handed to the
// transport collaborator.
type Payload struct {
	ContextID        string        `json:"context_id"`
	Receivers        []string      `json:"receivers"`
	IdentityProvided bool          `json:"identity_provided"`
	Answers          model.Answers `json:"answers"`
	Score            int           `json:"score"`
}

// ReportSubmitter is the transport collaborator the assembler hands the
// final payload to. The engine only observes success or a structured
// error.
type ReportSubmitter interface {
	SubmitReport(ctx context.Context, p Payload) (receipt string, err error)
}

// SubmissionState is the mutable report state bound to one context for
// the lifetime of a whistleblowing session. It is not shared across
// sessions.
type SubmissionState struct {
	ContextID        string
	IdentityProvided bool

	mu         sync.Mutex
	submitting bool
	finalized  bool
	receipt    string
}

// Finalized reports whether the report was successfully submitted; the
// state is immutable from then on.
func (st *SubmissionState) Finalized() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.finalized
}

// Receipt returns the identifier recorded on successful submission.
func (st *SubmissionState) Receipt() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.receipt
}

// begin marks a submit attempt in flight. Duplicate concurrent submits
// are rejected so a report cannot be created twice.
func (st *SubmissionState) begin() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.finalized {
		return validationErr(CodeFinalized)
	}
	if st.submitting {
		return validationErr(CodeInFlight)
	}
	st.submitting = true
	return nil
}

// end closes the in-flight window. On success the state is finalized and
// the receipt recorded; on failure it stays open for retry.
func (st *SubmissionState) end(receipt string, ok bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.submitting = false
	if ok {
		st.finalized = true
		st.receipt = receipt
	}
}

// Assembler creates submission states, exactly one per open context.
type Assembler struct {
	mu     sync.Mutex
	states map[string]*SubmissionState
}

func NewAssembler() *Assembler {
	return &Assembler{states: make(map[string]*SubmissionState)}
}

// Create binds a new state to the context, or returns the existing one
// while it is still open. A finalized state is replaced: the report was
// already filed, so a new Create starts a fresh report.
func (a *Assembler) Create(contextID string) *SubmissionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	if st, ok := a.states[contextID]; ok && !st.Finalized() {
		return st
	}
	st := &SubmissionState{ContextID: contextID}
	a.states[contextID] = st
	return st
}
