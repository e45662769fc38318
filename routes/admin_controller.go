package routes

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"tipline/app"
	"tipline/httpx"
	"tipline/log"
	"tipline/model"
)

func UpsertContext(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		context := model.Context{}
		err := render.DecodeJSON(r.Body, &context)
		if err != nil || context.ID == "" || context.QuestionnaireID == "" {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		// the questionnaire must exist and compile before a context may
		// reference it
		_, err = app.GetQuestionnaire(r.Context(), context.QuestionnaireID)
		if err != nil {
			var schemaErr *model.SchemaError
			switch {
			case errors.Is(err, sql.ErrNoRows):
				httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "context.questionnaire_missing")
			case errors.As(err, &schemaErr):
				httpx.LogJSONError(w, r, http.StatusUnprocessableEntity, log.ErrorLevel, "schema.invalid")
			default:
				httpx.LogInternalError(w, "db.get_questionnaire", err)
			}
			return
		}

		if err = app.SaveContext(r.Context(), &context); err != nil {
			httpx.LogInternalError(w, "db.save_context", err)
			return
		}
		render.JSON(w, r, context)
	}
}

func DeleteContextById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contextId := chi.URLParam(r, "id")

		err := app.DeleteContext(r.Context(), contextId)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "delete_context", contextId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.delete_context", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func UpsertQuestionnaire(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionnaire := model.Questionnaire{}
		err := render.DecodeJSON(r.Body, &questionnaire)
		if err != nil || questionnaire.ID == "" {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		err = app.SaveQuestionnaire(r.Context(), &questionnaire)
		var schemaErr *model.SchemaError
		if errors.As(err, &schemaErr) {
			log.Debugf("schema.invalid: %s", schemaErr)
			httpx.LogJSONError(w, r, http.StatusUnprocessableEntity, log.DebugLevel, "schema.invalid")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.save_questionnaire", err)
			return
		}
		render.JSON(w, r, questionnaire)
	}
}

func UpsertReceiver(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		receiver := model.Receiver{}
		err := render.DecodeJSON(r.Body, &receiver)
		if err != nil || receiver.ID == "" {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		if err = app.SaveReceiver(r.Context(), &receiver); err != nil {
			httpx.LogInternalError(w, "db.save_receiver", err)
			return
		}
		render.JSON(w, r, receiver)
	}
}
