package engine

import "tipline/model"

// ScoreStrategy folds one selected option's points into the running
// total. Strategies are keyed by the option's score_type so the
// combination rule stays pluggable.
type ScoreStrategy func(total, points int) int

var scoreStrategies = map[string]ScoreStrategy{
	"none":       func(total, _ int) int { return total },
	"addition":   func(total, points int) int { return total + points },
	"multiplier": func(total, points int) int { return total * points },
}

func applyScore(total int, o *model.Option) int {
	strategy, ok := scoreStrategies[o.ScoreType]
	if !ok {
		strategy = scoreStrategies["addition"]
	}
	return strategy(total, o.ScorePoints)
}

// Score computes the aggregate score for the given answers.
//
// Only options selected on currently active fields count, and a selection
// is a set: re-selecting the same option across multi-entry instances
// never counts twice. Because activation itself may depend on the score,
// the computation iterates from zero until the value stabilizes; the
// iteration is bounded by the step count, so it is deterministic for any
// well-formed schema.
func (e *Evaluator) Score(ans model.Answers) int {
	sel := e.Select(ans)
	score := 0
	for i := 0; i <= len(e.Q.Steps); i++ {
		next := e.scorePass(sel, score)
		if next == score {
			break
		}
		score = next
	}
	return score
}

// scorePass sums selected options over the fields active at the given
// score, in schema order. Schema order matters for the multiplier
// strategy.
func (e *Evaluator) scorePass(sel Selection, score int) int {
	total := 0
	e.walkActive(sel, score, func(_ *model.Step, f *model.Field) {
		for i := range f.Options {
			o := &f.Options[i]
			if sel.Has(f.ID, o.ID) {
				total = applyScore(total, o)
			}
		}
	})
	return total
}

// RiskLevel classifies the aggregate score against the context thresholds.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

func (l RiskLevel) String() string {
	switch l {
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	}
	return "low"
}

// Classify maps a score to its risk level. A threshold of zero disables
// that level: contexts without scoring always classify low.
func Classify(score int, ctx *model.Context) RiskLevel {
	if ctx.ScoreThresholdHigh > 0 && score >= ctx.ScoreThresholdHigh {
		return RiskHigh
	}
	if ctx.ScoreThresholdMedium > 0 && score >= ctx.ScoreThresholdMedium {
		return RiskMedium
	}
	return RiskLow
}

// AdditionalQuestionnaireRequired reports whether the score has activated
// the context's follow-up questionnaire. The activation is monotonic in
// the score and idempotent: it is a pure function of (score, context).
func AdditionalQuestionnaireRequired(score int, ctx *model.Context) bool {
	return ctx.AdditionalQuestionnaireID != "" && Classify(score, ctx) == RiskHigh
}

// BlockingOptions returns the selected options that carry
// block_submission, in schema order.
func (e *Evaluator) BlockingOptions(ans model.Answers) []*model.Option {
	sel := e.Select(ans)
	score := e.Score(ans)
	var blocking []*model.Option
	e.walkActive(sel, score, func(_ *model.Step, f *model.Field) {
		for i := range f.Options {
			o := &f.Options[i]
			if o.BlockSubmission && sel.Has(f.ID, o.ID) {
				blocking = append(blocking, o)
			}
		}
	})
	return blocking
}

// TriggeredReceivers collects the union of trigger_receiver sets on
// selected options. A nil result means no narrowing applies.
func (e *Evaluator) TriggeredReceivers(ans model.Answers) map[string]bool {
	sel := e.Select(ans)
	score := e.Score(ans)
	var triggered map[string]bool
	e.walkActive(sel, score, func(_ *model.Step, f *model.Field) {
		for i := range f.Options {
			o := &f.Options[i]
			if len(o.TriggerReceiver) == 0 || !sel.Has(f.ID, o.ID) {
				continue
			}
			if triggered == nil {
				triggered = make(map[string]bool)
			}
			for _, id := range o.TriggerReceiver {
				triggered[id] = true
			}
		}
	})
	return triggered
}
