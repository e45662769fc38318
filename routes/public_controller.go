package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"tipline/app"
	"tipline/database"
	"tipline/engine"
	"tipline/httpx"
	"tipline/log"
	"tipline/model"
)

func PublicListContexts(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contexts, err := app.ListContexts(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.list_contexts", err)
			return
		}
		if contexts == nil {
			contexts = []model.Context{}
		}
		render.JSON(w, r, contexts)
	}
}

func PublicGetContextById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contextId := chi.URLParam(r, "id")

		context, err := app.GetContext(r.Context(), contextId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_context", contextId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_context", err)
			return
		}
		render.JSON(w, r, context)
	}
}

func PublicGetQuestionnaireById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionnaireId := chi.URLParam(r, "id")

		questionnaire, err := app.GetQuestionnaire(r.Context(), questionnaireId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_questionnaire", questionnaireId)
			return
		}
		var schemaErr *model.SchemaError
		if errors.As(err, &schemaErr) {
			// fatal for this context, never worked around
			httpx.LogJSONError(w, r, http.StatusUnprocessableEntity, log.ErrorLevel, "schema.invalid")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_questionnaire", err)
			return
		}
		render.JSON(w, r, questionnaire)
	}
}

func PublicListReceivers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		receivers, err := app.ListReceivers(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.list_receivers", err)
			return
		}
		if receivers == nil {
			receivers = []model.Receiver{}
		}
		render.JSON(w, r, receivers)
	}
}

// PublicSubmitReport files a report. The payload is replayed through the
// engine server-side: the client's score is discarded and its answers
// and recipient set revalidated against the same rules the client ran.
func PublicSubmitReport(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := engine.Payload{}
		err := render.DecodeJSON(r.Body, &payload)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		context, err := app.GetContext(r.Context(), payload.ContextID)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_context", payload.ContextID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_context", err)
			return
		}

		questionnaire, err := app.GetQuestionnaire(r.Context(), context.QuestionnaireID)
		if err != nil {
			var schemaErr *model.SchemaError
			if errors.As(err, &schemaErr) {
				httpx.LogJSONError(w, r, http.StatusUnprocessableEntity, log.ErrorLevel, "schema.invalid")
			} else {
				httpx.LogInternalError(w, "db.get_questionnaire", err)
			}
			return
		}

		receivers, err := app.ListReceivers(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.list_receivers", err)
			return
		}
		known := make(map[string]model.Receiver, len(receivers))
		for _, rec := range receivers {
			known[rec.ID] = rec
		}

		review, err := engine.ReviewPayload(context, questionnaire, known, payload)
		if err != nil {
			var validationErr *engine.ValidationError
			if errors.As(err, &validationErr) {
				httpx.LogJSONError(w, r, http.StatusForbidden, log.DebugLevel, validationErr.Code)
			} else {
				httpx.LogInternalError(w, "submission.review", err)
			}
			return
		}

		receipt, err := GenerateReceipt()
		if err != nil {
			httpx.LogInternalError(w, "submission.receipt", err)
			return
		}

		err = app.InsertSubmission(r.Context(), &database.Submission{
			ID:               uuid.NewString(),
			ContextID:        context.ID,
			Time:             time.Now(),
			IdentityProvided: payload.IdentityProvided,
			Score:            review.Score,
			RiskLevel:        review.Level.String(),
			ReceiptHash:      HashReceipt(receipt, app.ReceiptSalt),
			Answers:          payload.Answers,
			Receivers:        payload.Receivers,
		})
		if err != nil {
			httpx.LogInternalError(w, "db.insert_submission", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]string{"receipt": receipt})
	}
}
