package engine

import (
	"fmt"
	"regexp"
	"strconv"

	"tipline/model"
)

// Navigator is the state machine over the questionnaire's active steps.
// Position is an index into the active-step list; the list itself is
// recomputed from (answers, score) on every call, so steps skip and
// reappear as triggers flip. The index one past the last active step is
// the review/submit pseudo-step.
type Navigator struct {
	eval *Evaluator
	pos  int
}

func NewNavigator(eval *Evaluator) *Navigator {
	return &Navigator{eval: eval}
}

// Steps returns the current active-step list in navigation order.
func (n *Navigator) Steps(ans model.Answers, score int) []*model.Step {
	return n.eval.ActiveSteps(ans, score)
}

// Current returns the step the whistleblower is on, or nil at the review
// pseudo-step.
func (n *Navigator) Current(ans model.Answers, score int) *model.Step {
	active := n.Steps(ans, score)
	if n.pos >= len(active) {
		return nil
	}
	return active[n.pos]
}

// AtReview reports whether the terminal pseudo-step has been reached.
func (n *Navigator) AtReview(ans model.Answers, score int) bool {
	return n.pos >= len(n.Steps(ans, score))
}

// Next validates the current step and advances to the next active step,
// or to the review pseudo-step after the last one. Inactive steps are
// skipped transparently because they are not in the list at all.
func (n *Navigator) Next(ans model.Answers, score int) error {
	active := n.Steps(ans, score)
	if n.pos >= len(active) {
		return nil
	}
	cur := active[n.pos]
	if errs := n.ValidateStep(cur, ans, score); len(errs) > 0 {
		return &ValidationError{Code: CodeStepInvalid, StepID: cur.ID, Fields: errs}
	}
	n.pos++
	return nil
}

// Back moves to the previous active step. It never validates.
func (n *Navigator) Back(ans model.Answers, score int) {
	if n.pos > 0 {
		n.pos--
	}
	n.clamp(ans, score)
}

// clamp keeps the position inside the current active-step list after a
// mutation shrank it.
func (n *Navigator) clamp(ans model.Answers, score int) {
	if active := n.Steps(ans, score); n.pos > len(active) {
		n.pos = len(active)
	}
}

// ValidateStep checks the step's active fields: required answers present,
// attr constraints (min_len, max_len, regexp) satisfied, choice values
// naming real options. Errors are keyed by nested field path.
func (n *Navigator) ValidateStep(s *model.Step, ans model.Answers, score int) []FieldError {
	sel := n.eval.Select(ans)
	var errs []FieldError
	for i := range s.Children {
		errs = n.validateField(&s.Children[i], "", -1, ans, sel, score, errs)
	}
	return errs
}

// ValidateAll checks every active step and returns a ValidationError
// carrying the first offending step, so the caller can route the
// whistleblower back to it. Terminal-state submission requires this to
// pass.
func (n *Navigator) ValidateAll(ans model.Answers, score int) error {
	for _, s := range n.Steps(ans, score) {
		if errs := n.ValidateStep(s, ans, score); len(errs) > 0 {
			return &ValidationError{Code: CodeStepInvalid, StepID: s.ID, Fields: errs}
		}
	}
	return nil
}

func (n *Navigator) validateField(f *model.Field, prefix string, instance int, ans model.Answers, sel Selection, score int, errs []FieldError) []FieldError {
	if !n.eval.FieldActive(f, sel, score) {
		return errs
	}

	path := f.ID
	if prefix != "" {
		path = prefix + "." + f.ID
	}

	if len(f.Children) > 0 {
		return n.validateGroup(f, path, ans, sel, score, errs)
	}

	entries := ans[f.ID]
	if instance >= 0 {
		if instance < len(entries) {
			entries = entries[instance : instance+1]
		} else {
			entries = nil
		}
	}

	answered := false
	for _, entry := range entries {
		if entry.Value == "" {
			continue
		}
		answered = true
		errs = checkAttrs(f, path, entry.Value, errs)
		if len(f.Options) > 0 && !optionOf(f, entry.Value) {
			errs = append(errs, FieldError{path, "unknown option"})
		}
	}
	if f.Required && !answered {
		errs = append(errs, FieldError{path, "required"})
	}
	return errs
}

func (n *Navigator) validateGroup(f *model.Field, path string, ans model.Answers, sel Selection, score int, errs []FieldError) []FieldError {
	if !f.MultiEntry {
		for i := range f.Children {
			errs = n.validateField(&f.Children[i], path, -1, ans, sel, score, errs)
		}
		return errs
	}

	instances := 0
	for i := range f.Children {
		if l := len(ans[f.Children[i].ID]); l > instances {
			instances = l
		}
	}
	if instances == 0 && f.Required {
		instances = 1
	}
	for inst := 0; inst < instances; inst++ {
		prefix := path + "." + strconv.Itoa(inst)
		for i := range f.Children {
			errs = n.validateField(&f.Children[i], prefix, inst, ans, sel, score, errs)
		}
	}
	return errs
}

func checkAttrs(f *model.Field, path, value string, errs []FieldError) []FieldError {
	if attr, ok := f.Attrs["min_len"]; ok {
		if min, err := strconv.Atoi(attr.Value); err == nil && len(value) < min {
			errs = append(errs, FieldError{path, fmt.Sprintf("shorter than %d", min)})
		}
	}
	if attr, ok := f.Attrs["max_len"]; ok {
		if max, err := strconv.Atoi(attr.Value); err == nil && max > 0 && len(value) > max {
			errs = append(errs, FieldError{path, fmt.Sprintf("longer than %d", max)})
		}
	}
	if attr, ok := f.Attrs["regexp"]; ok && attr.Value != "" {
		if re, err := regexp.Compile(attr.Value); err == nil && !re.MatchString(value) {
			errs = append(errs, FieldError{path, "pattern mismatch"})
		}
	}
	return errs
}
