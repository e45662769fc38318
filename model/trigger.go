package model

import "fmt"

// TriggerKind discriminates the compiled form of a step/field trigger rule.
type TriggerKind int

const (
	// TriggerNone marks a node without a rule: always active.
	TriggerNone TriggerKind = iota
	// TriggerScore activates the node once the aggregate score reaches
	// the threshold.
	TriggerScore
	// TriggerOptions activates the node based on selected options.
	TriggerOptions
	// TriggerCombined requires both the score threshold and the option
	// clauses to hold.
	TriggerCombined
)

// Trigger is the tagged variant a raw trigger rule compiles into. It is
// resolved once at schema load; evaluation never re-interprets the raw
// triggered_by_* fields.
type Trigger struct {
	Kind      TriggerKind
	Threshold int
	Clauses   []OptionTrigger
}

// Satisfied reports whether the rule holds for the given selection and
// aggregate score.
//
// Policy (single source of truth for step/field activation):
//   - score part: score >= Threshold;
//   - options part: any matching clause with Sufficient set satisfies the
//     list on its own; failing that, every non-sufficient clause must
//     match, and at least one such clause must exist;
//   - TriggerCombined: both parts must hold.
func (t Trigger) Satisfied(selected func(field, option string) bool, score int) bool {
	switch t.Kind {
	case TriggerNone:
		return true
	case TriggerScore:
		return score >= t.Threshold
	case TriggerOptions:
		return t.optionsSatisfied(selected)
	case TriggerCombined:
		return score >= t.Threshold && t.optionsSatisfied(selected)
	}
	return false
}

func (t Trigger) optionsSatisfied(selected func(field, option string) bool) bool {
	all := false
	for _, c := range t.Clauses {
		match := selected(c.Field, c.Option)
		if c.Sufficient {
			if match {
				return true
			}
			continue
		}
		if !match {
			return false
		}
		all = true
	}
	return all
}

// SchemaError reports a malformed or inconsistent questionnaire schema.
// It is fatal to evaluation of the context it was loaded for.
type SchemaError struct {
	QuestionnaireID string
	Detail          string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema %s: %s", e.QuestionnaireID, e.Detail)
}

// Compile validates the schema and resolves every raw trigger rule into
// its tagged form. It must be called once before the questionnaire is
// handed to the engine.
//
// Detected inconsistencies: duplicate field ids, duplicate option ids
// within a field, trigger clauses referencing unknown fields or options.
func (q *Questionnaire) Compile() error {
	q.fields = make(map[string]*Field)

	var dup string
	q.Walk(func(_ *Step, f *Field) {
		if _, seen := q.fields[f.ID]; seen && dup == "" {
			dup = f.ID
		}
		q.fields[f.ID] = f
	})
	if dup != "" {
		return &SchemaError{q.ID, "duplicate field id " + dup}
	}

	for _, f := range q.fields {
		seen := make(map[string]bool, len(f.Options))
		for _, o := range f.Options {
			if seen[o.ID] {
				return &SchemaError{q.ID, fmt.Sprintf("field %s: duplicate option id %s", f.ID, o.ID)}
			}
			seen[o.ID] = true
		}
	}

	for i := range q.Steps {
		s := &q.Steps[i]
		t, err := q.compileTrigger(s.TriggeredByScore, s.TriggeredByOptions, "step "+s.ID)
		if err != nil {
			return err
		}
		s.Trigger = t
	}

	var err error
	q.Walk(func(_ *Step, f *Field) {
		if err != nil {
			return
		}
		var t Trigger
		t, err = q.compileTrigger(f.TriggeredByScore, f.TriggeredByOptions, "field "+f.ID)
		f.Trigger = t
	})
	return err
}

func (q *Questionnaire) compileTrigger(threshold int, clauses []OptionTrigger, where string) (Trigger, error) {
	for _, c := range clauses {
		f := q.fields[c.Field]
		if f == nil {
			return Trigger{}, &SchemaError{q.ID, fmt.Sprintf("%s: trigger references unknown field %s", where, c.Field)}
		}
		if f.option(c.Option) == nil {
			return Trigger{}, &SchemaError{q.ID, fmt.Sprintf("%s: trigger references unknown option %s of field %s", where, c.Option, c.Field)}
		}
	}

	switch {
	case threshold > 0 && len(clauses) > 0:
		return Trigger{Kind: TriggerCombined, Threshold: threshold, Clauses: clauses}, nil
	case threshold > 0:
		return Trigger{Kind: TriggerScore, Threshold: threshold}, nil
	case len(clauses) > 0:
		return Trigger{Kind: TriggerOptions, Clauses: clauses}, nil
	}
	return Trigger{Kind: TriggerNone}, nil
}
