package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tipline/app"
	"tipline/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()
	secret := []byte(app.TokenSecret)

	api.Post("/auth/session", NewSession(app))
	api.Post("/auth/receiptauth", ReceiptAuth(app))
	api.Post("/auth/admin", AdminLogin(app))

	api.Get("/contexts", PublicListContexts(app))
	api.Get("/contexts/{id}", PublicGetContextById(app))
	api.Get("/questionnaires/{id}", PublicGetQuestionnaireById(app))
	api.Get("/receivers", PublicListReceivers(app))

	api.
		With(middlewares.Session(secret), middlewares.Role(middlewares.RoleWhistleblower)).
		Post("/submissions", PublicSubmitReport(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Session(secret), middlewares.Role(middlewares.RoleAdmin))

		r.Post("/contexts", UpsertContext(app))
		r.Delete("/contexts/{id}", DeleteContextById(app))
		r.Post("/questionnaires", UpsertQuestionnaire(app))
		r.Post("/receivers", UpsertReceiver(app))
	})

	return api
}
