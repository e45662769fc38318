package engine

import "tipline/model"

// Review is the outcome of replaying a submitted payload through the
// engine: the authoritative score and classification the server stores.
type Review struct {
	Score int
	Level RiskLevel
}

// ReviewPayload replays a client-assembled payload against the same
// schema, answers and receiver policy the client evaluated, so the
// server never trusts a client-computed score or an out-of-policy
// recipient set. Any violation is a ValidationError.
func ReviewPayload(ctx *model.Context, q *model.Questionnaire, known map[string]model.Receiver, p Payload) (*Review, error) {
	eval := &Evaluator{Q: q}

	for id := range p.Answers {
		if q.Field(id) == nil {
			return nil, validationErr(CodeUnknownField)
		}
	}

	score := eval.Score(p.Answers)
	if len(eval.BlockingOptions(p.Answers)) > 0 {
		return nil, validationErr(CodeBlocked)
	}

	nav := NewNavigator(eval)
	if err := nav.ValidateAll(p.Answers, score); err != nil {
		return nil, err
	}

	if err := reviewReceivers(ctx, known, eval.TriggeredReceivers(p.Answers), p.Receivers); err != nil {
		return nil, err
	}

	return &Review{Score: score, Level: Classify(score, ctx)}, nil
}

func reviewReceivers(ctx *model.Context, known map[string]model.Receiver, triggered map[string]bool, ids []string) error {
	if len(ids) == 0 {
		return validationErr(CodeReceiversEmpty)
	}

	inContext := make(map[string]model.Receiver)
	for _, id := range ctx.Receivers {
		if r, ok := known[id]; ok {
			inContext[id] = r
		}
	}

	chosen := make(map[string]bool, len(ids))
	added := 0
	for _, id := range ids {
		r, ok := inContext[id]
		if !ok {
			return validationErr(CodeReceiverUnknown)
		}
		if chosen[id] {
			continue
		}
		chosen[id] = true
		if r.ForcefullySelected {
			continue
		}
		if triggered != nil && !triggered[id] {
			return validationErr(CodeReceiverNarrowed)
		}
		added++
	}

	for id, r := range inContext {
		if r.ForcefullySelected && !chosen[id] {
			return validationErr(CodeReceiverMandatory)
		}
	}

	if max := ctx.MaximumSelectableReceivers; max > 0 && added > max {
		return validationErr(CodeReceiverLimit)
	}
	return nil
}
