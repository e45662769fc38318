package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipline/config"
	"tipline/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.Config{DBUrl: filepath.Join(t.TempDir(), "test.sqlite")}
	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.SaveReceiver(ctx, &model.Receiver{ID: "r1", Name: "Desk", ForcefullySelected: true}))
	require.NoError(t, s.SaveReceiver(ctx, &model.Receiver{ID: "r2", Name: "Ombudsman"}))

	q := &model.Questionnaire{
		ID:   "q1",
		Name: "intake",
		Steps: []model.Step{{
			ID: "s1",
			Children: []model.Field{
				{ID: "f1", Type: "inputbox", Required: true},
			},
		}},
	}
	require.NoError(t, s.SaveQuestionnaire(ctx, q))

	require.NoError(t, s.SaveContext(ctx, &model.Context{
		ID:                   "ctx1",
		Name:                 "Default",
		ScoreThresholdMedium: 3,
		ScoreThresholdHigh:   6,
		QuestionnaireID:      "q1",
		Receivers:            []string{"r1", "r2"},
	}))
}

func TestContextRoundTrip(t *testing.T) {
	s := testStore(t)
	seed(t, s)
	ctx := context.Background()

	c, err := s.GetContext(ctx, "ctx1")
	require.NoError(t, err)
	assert.Equal(t, "Default", c.Name)
	assert.Equal(t, []string{"r1", "r2"}, c.Receivers)

	all, err := s.ListContexts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	// upsert replaces the receiver links
	c.Receivers = []string{"r2"}
	require.NoError(t, s.SaveContext(ctx, c))
	c, err = s.GetContext(ctx, "ctx1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r2"}, c.Receivers)

	_, err = s.GetContext(ctx, "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestQuestionnaireCompiledOnRead(t *testing.T) {
	s := testStore(t)
	seed(t, s)

	q, err := s.GetQuestionnaire(context.Background(), "q1")
	require.NoError(t, err)
	assert.NotNil(t, q.Field("f1"))
}

func TestSaveQuestionnaireRejectsMalformedSchema(t *testing.T) {
	s := testStore(t)

	bad := &model.Questionnaire{
		ID: "q-bad",
		Steps: []model.Step{{
			ID: "s1",
			Children: []model.Field{
				{ID: "dup"},
				{ID: "dup"},
			},
		}},
	}
	err := s.SaveQuestionnaire(context.Background(), bad)
	var schemaErr *model.SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestSubmissionRoundTrip(t *testing.T) {
	s := testStore(t)
	seed(t, s)
	ctx := context.Background()

	sub := &Submission{
		ID:               "sub1",
		ContextID:        "ctx1",
		Time:             time.Now(),
		IdentityProvided: true,
		Score:            6,
		RiskLevel:        "high",
		ReceiptHash:      "abc123",
		Answers:          model.Answers{"f1": {{Value: "report text"}}},
		Receivers:        []string{"r1", "r2"},
	}
	require.NoError(t, s.InsertSubmission(ctx, sub))

	got, err := s.GetSubmissionByReceiptHash(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "sub1", got.ID)
	assert.Equal(t, "ctx1", got.ContextID)
	assert.True(t, got.IdentityProvided)
	assert.Equal(t, 6, got.Score)
	assert.Equal(t, "high", got.RiskLevel)
	assert.Equal(t, "report text", got.Answers["f1"][0].Value)

	_, err = s.GetSubmissionByReceiptHash(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDeleteContext(t *testing.T) {
	s := testStore(t)
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.DeleteContext(ctx, "ctx1"))
	assert.ErrorIs(t, s.DeleteContext(ctx, "ctx1"), sql.ErrNoRows)
}
