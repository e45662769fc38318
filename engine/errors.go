package engine

import (
	"fmt"
	"strings"
)

// FieldError is a single field-level validation failure. Path addresses
// the field inside nested fieldgroups and multi-entry instances, in the
// form group.index.fieldname.
type FieldError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ValidationError blocks the offending transition locally. It never
// reaches the network.
type ValidationError struct {
	Code   string       `json:"code"`
	StepID string       `json:"step_id,omitempty"`
	Fields []FieldError `json:"fields,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation: " + e.Code
	}
	paths := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		paths[i] = f.Path
	}
	return fmt.Sprintf("validation: %s (%s)", e.Code, strings.Join(paths, ", "))
}

func validationErr(code string) *ValidationError {
	return &ValidationError{Code: code}
}

// Validation error codes.
const (
	CodeStepInvalid       = "step.invalid"
	CodeNotTerminal       = "submission.not_terminal"
	CodeBlocked           = "submission.blocked"
	CodeInFlight          = "submission.in_flight"
	CodeFinalized         = "submission.finalized"
	CodeReceiverUnknown   = "receivers.unknown"
	CodeReceiverMandatory = "receivers.mandatory"
	CodeReceiverLimit     = "receivers.limit"
	CodeReceiverNarrowed  = "receivers.narrowed"
	CodeReceiversEmpty    = "receivers.empty"
	CodeSelectionFrozen   = "receivers.selection_not_allowed"
	CodeUnknownField      = "answers.unknown_field"
)
