package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipline/model"
)

func TestScoreSumsSelectedOptions(t *testing.T) {
	eval := &Evaluator{Q: scoringQuestionnaire(t)}

	assert.Equal(t, 0, eval.Score(model.Answers{}))
	assert.Equal(t, 2, eval.Score(model.Answers{"severity": {answer("opt2")}}))
	assert.Equal(t, 6, eval.Score(model.Answers{"severity": {answer("opt2"), answer("opt4")}}))
}

func TestScoreNoDoubleCount(t *testing.T) {
	eval := &Evaluator{Q: scoringQuestionnaire(t)}

	// the same option selected across several multi-entry instances
	// counts once
	ans := model.Answers{"severity": {answer("opt2"), answer("opt2"), answer("opt2")}}
	assert.Equal(t, 2, eval.Score(ans))
}

func TestScoreIgnoresUnknownValues(t *testing.T) {
	eval := &Evaluator{Q: scoringQuestionnaire(t)}

	ans := model.Answers{"severity": {answer("not-an-option")}}
	assert.Equal(t, 0, eval.Score(ans))
}

func TestScoreStrategies(t *testing.T) {
	q := &model.Questionnaire{
		ID: "q-strategies",
		Steps: []model.Step{{
			ID: "s1",
			Children: []model.Field{
				{
					ID: "base",
					Options: []model.Option{
						{ID: "add3", ScorePoints: 3, ScoreType: "addition"},
						{ID: "silent", ScorePoints: 100, ScoreType: "none"},
					},
				},
				{
					ID: "factor",
					Options: []model.Option{
						{ID: "double", ScorePoints: 2, ScoreType: "multiplier"},
					},
				},
				{
					ID: "legacy",
					Options: []model.Option{
						// unknown score_type falls back to addition
						{ID: "extra", ScorePoints: 1, ScoreType: "bogus"},
					},
				},
			},
		}},
	}
	require.NoError(t, q.Compile())
	eval := &Evaluator{Q: q}

	ans := model.Answers{
		"base":   {answer("add3"), answer("silent")},
		"factor": {answer("double")},
		"legacy": {answer("extra")},
	}
	// schema order: (0 + 3) * 2 + 1
	assert.Equal(t, 7, eval.Score(ans))
}

func TestScoreExcludesInactiveFields(t *testing.T) {
	// a field triggered by an option carries points of its own; once the
	// trigger option is deselected the dependent points vanish too
	q := &model.Questionnaire{
		ID: "q-dependent",
		Steps: []model.Step{{
			ID: "s1",
			Children: []model.Field{
				{
					ID: "gate",
					Options: []model.Option{
						{ID: "open", ScorePoints: 1, ScoreType: "addition"},
					},
				},
				{
					ID:                 "bonus",
					TriggeredByOptions: []model.OptionTrigger{{Field: "gate", Option: "open", Sufficient: true}},
					Options: []model.Option{
						{ID: "plus", ScorePoints: 10, ScoreType: "addition"},
					},
				},
			},
		}},
	}
	require.NoError(t, q.Compile())
	eval := &Evaluator{Q: q}

	active := model.Answers{"gate": {answer("open")}, "bonus": {answer("plus")}}
	assert.Equal(t, 11, eval.Score(active))

	stale := model.Answers{"bonus": {answer("plus")}}
	assert.Equal(t, 0, eval.Score(stale))
}

func TestClassify(t *testing.T) {
	ctx := scoringContext()

	tests := []struct {
		score int
		want  RiskLevel
	}{
		{0, RiskLow},
		{2, RiskLow},
		{3, RiskMedium},
		{5, RiskMedium},
		{6, RiskHigh},
		{100, RiskHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.score, ctx), "score %d", tt.score)
	}

	unscored := &model.Context{ID: "plain"}
	assert.Equal(t, RiskLow, Classify(100, unscored))
}

func TestAdditionalQuestionnaireActivation(t *testing.T) {
	ctx := scoringContext()
	ctx.AdditionalQuestionnaireID = "q-followup"

	assert.False(t, AdditionalQuestionnaireRequired(5, ctx))
	assert.True(t, AdditionalQuestionnaireRequired(6, ctx))
	// idempotent and monotonic in the score
	assert.True(t, AdditionalQuestionnaireRequired(6, ctx))
	assert.True(t, AdditionalQuestionnaireRequired(7, ctx))

	ctx.AdditionalQuestionnaireID = ""
	assert.False(t, AdditionalQuestionnaireRequired(10, ctx))
}

func TestBlockingOptions(t *testing.T) {
	q := &model.Questionnaire{
		ID: "q-blocking",
		Steps: []model.Step{{
			ID: "s1",
			Children: []model.Field{{
				ID: "screen",
				Options: []model.Option{
					{ID: "ok"},
					{ID: "stop", BlockSubmission: true},
				},
			}},
		}},
	}
	require.NoError(t, q.Compile())
	eval := &Evaluator{Q: q}

	assert.Empty(t, eval.BlockingOptions(model.Answers{"screen": {answer("ok")}}))
	blocking := eval.BlockingOptions(model.Answers{"screen": {answer("stop")}})
	require.Len(t, blocking, 1)
	assert.Equal(t, "stop", blocking[0].ID)
}
