package engine

import "tipline/model"

// Evaluator decides step/field activation for one compiled questionnaire.
// It is stateless: every call works off the (answers, score) pair it is
// given, so re-evaluation cannot desync from the answers.
type Evaluator struct {
	Q *model.Questionnaire
}

// Selection is the set of currently selected options, keyed by field id.
// It is derived from answers alone: an entry value counts as a selection
// when it names an existing option of its field, and duplicate instances
// of the same option collapse into one.
type Selection map[string]map[string]bool

func (sel Selection) Has(field, option string) bool {
	return sel[field][option]
}

// Select builds the selection for the given answers.
func (e *Evaluator) Select(ans model.Answers) Selection {
	sel := make(Selection)
	e.Q.Walk(func(_ *model.Step, f *model.Field) {
		if len(f.Options) == 0 {
			return
		}
		for _, entry := range ans[f.ID] {
			if !optionOf(f, entry.Value) {
				continue
			}
			if sel[f.ID] == nil {
				sel[f.ID] = make(map[string]bool)
			}
			sel[f.ID][entry.Value] = true
		}
	})
	return sel
}

func optionOf(f *model.Field, id string) bool {
	for i := range f.Options {
		if f.Options[i].ID == id {
			return true
		}
	}
	return false
}

// StepActive reports whether the step's own trigger rule is satisfied.
func (e *Evaluator) StepActive(s *model.Step, sel Selection, score int) bool {
	return s.Trigger.Satisfied(sel.Has, score)
}

// FieldActive reports whether the field's own trigger rule is satisfied.
// Nesting is not considered here: a field inside an inactive step or
// group is excluded by the tree walks below.
func (e *Evaluator) FieldActive(f *model.Field, sel Selection, score int) bool {
	return f.Trigger.Satisfied(sel.Has, score)
}

// ActiveSteps returns the steps whose triggers are satisfied, in schema
// order. This is the step set the navigator may move through.
func (e *Evaluator) ActiveSteps(ans model.Answers, score int) []*model.Step {
	sel := e.Select(ans)
	var active []*model.Step
	for i := range e.Q.Steps {
		s := &e.Q.Steps[i]
		if e.StepActive(s, sel, score) {
			active = append(active, s)
		}
	}
	return active
}

// walkActive visits every field that is active together with its whole
// ancestor chain (step and enclosing groups).
func (e *Evaluator) walkActive(sel Selection, score int, visit func(s *model.Step, f *model.Field)) {
	for i := range e.Q.Steps {
		s := &e.Q.Steps[i]
		if !e.StepActive(s, sel, score) {
			continue
		}
		e.walkActiveFields(s, s.Children, sel, score, visit)
	}
}

func (e *Evaluator) walkActiveFields(s *model.Step, fields []model.Field, sel Selection, score int, visit func(*model.Step, *model.Field)) {
	for i := range fields {
		f := &fields[i]
		if !e.FieldActive(f, sel, score) {
			continue
		}
		visit(s, f)
		e.walkActiveFields(s, f.Children, sel, score, visit)
	}
}

// InactiveFields returns the ids of fields that currently hold answers
// but are no longer active (own trigger failed, or any ancestor is
// inactive). Their stale entries must be pruned so they cannot feed the
// score or contradict later answers.
func (e *Evaluator) InactiveFields(ans model.Answers, score int) []string {
	sel := e.Select(ans)
	active := make(map[string]bool)
	e.walkActive(sel, score, func(_ *model.Step, f *model.Field) {
		active[f.ID] = true
	})

	var stale []string
	for id := range ans {
		if f := e.Q.Field(id); f != nil && !active[id] {
			stale = append(stale, id)
		}
	}
	return stale
}
