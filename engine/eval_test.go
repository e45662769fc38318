package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipline/model"
)

func TestSelectCollapsesDuplicates(t *testing.T) {
	eval := &Evaluator{Q: scoringQuestionnaire(t)}

	sel := eval.Select(model.Answers{
		"severity": {answer("opt2"), answer("opt2"), answer("bogus")},
		"details":  {answer("free text, not an option")},
	})

	assert.True(t, sel.Has("severity", "opt2"))
	assert.False(t, sel.Has("severity", "bogus"))
	assert.False(t, sel.Has("details", "free text, not an option"))
}

func TestActiveStepsFollowScore(t *testing.T) {
	eval := &Evaluator{Q: scoringQuestionnaire(t)}

	assert.Len(t, eval.ActiveSteps(model.Answers{}, 0), 1)
	assert.Len(t, eval.ActiveSteps(model.Answers{}, 5), 2)
	assert.Len(t, eval.ActiveSteps(model.Answers{}, 4), 1)
}

func TestInactiveFieldsReportsStaleAnswers(t *testing.T) {
	q := scoringQuestionnaire(t)
	eval := &Evaluator{Q: q}

	// details belongs to step B, inactive at score 2
	ans := model.Answers{
		"severity": {answer("opt2")},
		"details":  {answer("stale")},
	}
	stale := eval.InactiveFields(ans, eval.Score(ans))
	require.Equal(t, []string{"details"}, stale)

	// at score 6 everything is active
	ans["severity"] = []model.AnswerEntry{answer("opt2"), answer("opt4")}
	assert.Empty(t, eval.InactiveFields(ans, eval.Score(ans)))
}

func TestFieldInsideInactiveGroupIsStale(t *testing.T) {
	q := &model.Questionnaire{
		ID: "q-nested",
		Steps: []model.Step{{
			ID: "s1",
			Children: []model.Field{
				{
					ID:      "gate",
					Options: []model.Option{{ID: "open"}},
				},
				{
					ID:                 "group",
					Type:               "fieldgroup",
					TriggeredByOptions: []model.OptionTrigger{{Field: "gate", Option: "open", Sufficient: true}},
					Children: []model.Field{
						{ID: "inner", Type: "inputbox"},
					},
				},
			},
		}},
	}
	require.NoError(t, q.Compile())
	eval := &Evaluator{Q: q}

	// group trigger fails: the nested field is inactive even though its
	// own rule is empty
	ans := model.Answers{"inner": {answer("text")}}
	assert.Equal(t, []string{"inner"}, eval.InactiveFields(ans, 0))

	ans["gate"] = []model.AnswerEntry{answer("open")}
	assert.Empty(t, eval.InactiveFields(ans, 0))
}
