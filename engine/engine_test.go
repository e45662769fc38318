package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"tipline/model"
)

// scoringQuestionnaire is the canonical two-step scenario: step A always
// active with a multi-select worth 2 and 4 points, step B active from
// score 5 with a required text field.
func scoringQuestionnaire(t *testing.T) *model.Questionnaire {
	t.Helper()
	q := &model.Questionnaire{
		ID: "q-scoring",
		Steps: []model.Step{
			{
				ID:    "stepA",
				Order: 0,
				Children: []model.Field{
					{
						ID:         "severity",
						Type:       "checkbox",
						MultiEntry: true,
						Options: []model.Option{
							{ID: "opt2", ScorePoints: 2, ScoreType: "addition"},
							{ID: "opt4", ScorePoints: 4, ScoreType: "addition"},
						},
					},
				},
			},
			{
				ID:               "stepB",
				Order:            1,
				TriggeredByScore: 5,
				Children: []model.Field{
					{ID: "details", Type: "inputbox", Required: true},
				},
			},
		},
	}
	require.NoError(t, q.Compile())
	return q
}

func scoringContext() *model.Context {
	return &model.Context{
		ID:                   "ctx1",
		ScoreThresholdMedium: 3,
		ScoreThresholdHigh:   6,
		QuestionnaireID:      "q-scoring",
		Receivers:            []string{"r1", "r2", "r3"},
	}
}

func knownReceivers() map[string]model.Receiver {
	return map[string]model.Receiver{
		"r1": {ID: "r1", Name: "Anticorruption desk", ForcefullySelected: true},
		"r2": {ID: "r2", Name: "Legal desk"},
		"r3": {ID: "r3", Name: "Ombudsman"},
	}
}

func answer(value string) model.AnswerEntry {
	return model.AnswerEntry{Value: value}
}

// fakeSubmitter records submissions and can be told to fail.
type fakeSubmitter struct {
	calls   int
	fail    error
	receipt string
	last    Payload
}

func (f *fakeSubmitter) SubmitReport(_ context.Context, p Payload) (string, error) {
	f.calls++
	f.last = p
	if f.fail != nil {
		return "", f.fail
	}
	if f.receipt == "" {
		f.receipt = "1234567890123456"
	}
	return f.receipt, nil
}

func newTestSession(t *testing.T) (*Session, *fakeSubmitter) {
	t.Helper()
	sub := &fakeSubmitter{}
	s := NewSession(scoringContext(), scoringQuestionnaire(t), knownReceivers(), NewAssembler(), sub)
	return s, sub
}

func requireValidationCode(t *testing.T, err error, code string) {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, code, verr.Code)
}

func requireNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			t.Fatalf("unexpected validation error: %v", verr)
		}
		t.Fatalf("unexpected error: %v", err)
	}
}
