package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"tipline/model"
)

// Store wraps the platform tables. Questionnaire definitions are stored
// as JSON blobs and compiled on read; everything else is relational.
type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db}
}

func (s *Store) ListContexts(ctx context.Context) ([]model.Context, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, select_all_receivers, allow_recipients_selection,
			maximum_selectable_receivers, score_threshold_medium, score_threshold_high,
			questionnaire_id, additional_questionnaire_id
		FROM context
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contexts []model.Context
	for rows.Next() {
		var c model.Context
		err = rows.Scan(
			&c.ID, &c.Name, &c.SelectAllReceivers, &c.AllowRecipientsSelection,
			&c.MaximumSelectableReceivers, &c.ScoreThresholdMedium, &c.ScoreThresholdHigh,
			&c.QuestionnaireID, &c.AdditionalQuestionnaireID,
		)
		if err != nil {
			return nil, err
		}
		c.Receivers, err = s.contextReceivers(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, c)
	}
	return contexts, rows.Err()
}

func (s *Store) GetContext(ctx context.Context, id string) (*model.Context, error) {
	c := model.Context{}
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, name, select_all_receivers, allow_recipients_selection,
			maximum_selectable_receivers, score_threshold_medium, score_threshold_high,
			questionnaire_id, additional_questionnaire_id
		FROM context
		WHERE id = ?`,
		id,
	).Scan(
		&c.ID, &c.Name, &c.SelectAllReceivers, &c.AllowRecipientsSelection,
		&c.MaximumSelectableReceivers, &c.ScoreThresholdMedium, &c.ScoreThresholdHigh,
		&c.QuestionnaireID, &c.AdditionalQuestionnaireID,
	)
	if err != nil {
		return nil, err
	}
	c.Receivers, err = s.contextReceivers(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) contextReceivers(ctx context.Context, contextID string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT receiver_id FROM context_receiver
		WHERE context_id = ?
		ORDER BY ord`,
		contextID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) SaveContext(ctx context.Context, c *model.Context) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO context (id, name, select_all_receivers, allow_recipients_selection,
			maximum_selectable_receivers, score_threshold_medium, score_threshold_high,
			questionnaire_id, additional_questionnaire_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			select_all_receivers = excluded.select_all_receivers,
			allow_recipients_selection = excluded.allow_recipients_selection,
			maximum_selectable_receivers = excluded.maximum_selectable_receivers,
			score_threshold_medium = excluded.score_threshold_medium,
			score_threshold_high = excluded.score_threshold_high,
			questionnaire_id = excluded.questionnaire_id,
			additional_questionnaire_id = excluded.additional_questionnaire_id`,
		c.ID, c.Name, c.SelectAllReceivers, c.AllowRecipientsSelection,
		c.MaximumSelectableReceivers, c.ScoreThresholdMedium, c.ScoreThresholdHigh,
		c.QuestionnaireID, c.AdditionalQuestionnaireID,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM context_receiver WHERE context_id = ?`, c.ID)
	if err != nil {
		return err
	}
	for ord, rid := range c.Receivers {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO context_receiver (context_id, receiver_id, ord) VALUES (?, ?, ?)`,
			c.ID, rid, ord,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) DeleteContext(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM context WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetQuestionnaire reads and compiles a schema. A malformed definition
// surfaces as model.SchemaError.
func (s *Store) GetQuestionnaire(ctx context.Context, id string) (*model.Questionnaire, error) {
	var definition string
	err := s.DB.QueryRowContext(ctx, `
		SELECT definition FROM questionnaire WHERE id = ?`,
		id,
	).Scan(&definition)
	if err != nil {
		return nil, err
	}

	q := new(model.Questionnaire)
	if err = json.Unmarshal([]byte(definition), q); err != nil {
		return nil, &model.SchemaError{QuestionnaireID: id, Detail: err.Error()}
	}
	if err = q.Compile(); err != nil {
		return nil, err
	}
	return q, nil
}

// SaveQuestionnaire validates the schema before storing it, so a context
// can never reference a definition that fails to compile.
func (s *Store) SaveQuestionnaire(ctx context.Context, q *model.Questionnaire) error {
	if err := q.Compile(); err != nil {
		return err
	}
	definition, err := json.Marshal(q)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO questionnaire (id, name, definition) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, definition = excluded.definition`,
		q.ID, q.Name, string(definition),
	)
	return err
}

func (s *Store) ListReceivers(ctx context.Context) ([]model.Receiver, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, forcefully_selected FROM receiver ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receivers []model.Receiver
	for rows.Next() {
		var r model.Receiver
		if err = rows.Scan(&r.ID, &r.Name, &r.ForcefullySelected); err != nil {
			return nil, err
		}
		receivers = append(receivers, r)
	}
	return receivers, rows.Err()
}

func (s *Store) SaveReceiver(ctx context.Context, r *model.Receiver) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO receiver (id, name, forcefully_selected) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			forcefully_selected = excluded.forcefully_selected`,
		r.ID, r.Name, r.ForcefullySelected,
	)
	return err
}

// Submission is the stored form of a filed report.
type Submission struct {
	ID               string
	ContextID        string
	Time             time.Time
	IdentityProvided bool
	Score            int
	RiskLevel        string
	ReceiptHash      string
	Answers          model.Answers
	Receivers        []string
}

func (s *Store) InsertSubmission(ctx context.Context, sub *Submission) error {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO submission (id, context_id, time, identity_provided, score, risk_level, receipt_hash, answers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.ContextID, sub.Time, sub.IdentityProvided, sub.Score, sub.RiskLevel, sub.ReceiptHash, string(answers),
	)
	if err != nil {
		return err
	}

	for _, rid := range sub.Receivers {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO submission_receiver (submission_id, receiver_id) VALUES (?, ?)`,
			sub.ID, rid,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetSubmissionByReceiptHash resolves a receipt hash back to its
// submission, for receipt authentication.
func (s *Store) GetSubmissionByReceiptHash(ctx context.Context, hash string) (*Submission, error) {
	sub := Submission{ReceiptHash: hash}
	var answers string
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, context_id, time, identity_provided, score, risk_level, answers
		FROM submission
		WHERE receipt_hash = ?`,
		hash,
	).Scan(&sub.ID, &sub.ContextID, &sub.Time, &sub.IdentityProvided, &sub.Score, &sub.RiskLevel, &answers)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal([]byte(answers), &sub.Answers); err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetUserHash returns the stored password hash for an admin user.
func (s *Store) GetUserHash(ctx context.Context, username string) (hash []byte, err error) {
	err = s.DB.
		QueryRowContext(ctx, `SELECT password_hash FROM user WHERE username = ?`, username).
		Scan(&hash)
	return
}
