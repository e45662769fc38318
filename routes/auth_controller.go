package routes

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tipline/app"
	"tipline/httpx"
	"tipline/log"
	"tipline/routes/middlewares"
)

type sessionResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// NewSession opens an anonymous whistleblower session. Every submission
// call rides under the returned token.
func NewSession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := middlewares.SignToken(
			[]byte(app.TokenSecret), middlewares.RoleWhistleblower, "", app.TokenTTL)
		if err != nil {
			httpx.LogInternalError(w, "auth.sign_token", err)
			return
		}
		render.JSON(w, r, sessionResponse{ID: uuid.NewString(), Token: token})
	}
}

type receiptAuthRequest struct {
	Receipt string `json:"receipt"`
}

// ReceiptAuth exchanges a submission receipt for a session token bound
// to the filed report.
func ReceiptAuth(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := receiptAuthRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil || len(req.Receipt) != receiptDigits {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "auth.receipt")
			return
		}

		sub, err := app.GetSubmissionByReceiptHash(r.Context(), HashReceipt(req.Receipt, app.ReceiptSalt))
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "auth.receipt")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_submission", err)
			return
		}

		token, err := middlewares.SignToken(
			[]byte(app.TokenSecret), middlewares.RoleWhistleblower, sub.ID, app.TokenTTL)
		if err != nil {
			httpx.LogInternalError(w, "auth.sign_token", err)
			return
		}
		render.JSON(w, r, sessionResponse{ID: sub.ID, Token: token})
	}
}

// AdminLogin authenticates an admin user via HTTP basic auth.
func AdminLogin(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		hash, err := app.GetUserHash(r.Context(), user)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.user")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_user", err)
			return
		}
		if bcrypt.CompareHashAndPassword(hash, []byte(pass)) != nil {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.password")
			return
		}

		token, err := middlewares.SignToken(
			[]byte(app.TokenSecret), middlewares.RoleAdmin, "", app.TokenTTL)
		if err != nil {
			httpx.LogInternalError(w, "auth.sign_token", err)
			return
		}
		render.JSON(w, r, sessionResponse{ID: user, Token: token})
	}
}
