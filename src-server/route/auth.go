package route

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"

	"advisordesk/src-server/jwt"
	"advisordesk/src-server/model"
	"advisordesk/src-server/utils"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func Auth(muxer *http.ServeMux, as *utils.AppState) {
	type RegisterReqBody struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
	}

	type LoginReqBody struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	type UserRespBody struct {
		Email    string `json:"email"`
		FullName string `json:"fullName"`
	}

	type LoginRespBody struct {
		Token string       `json:"token"`
		User  UserRespBody `json:"user"`
	}

	// register
	muxer.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		var reqBody RegisterReqBody
		if !decodeBody(w, r, &reqBody) {
			return
		}

		// #region - validate
		email := model.NormalizeEmail(reqBody.Email)
		if _, err := mail.ParseAddress(email); err != nil || email == "" {
			writeJSON(w, http.StatusBadRequest, errorRespBody{Error: "A valid email is required"})
			return
		}
		if len(reqBody.Password) < 6 {
			writeJSON(w, http.StatusBadRequest, errorRespBody{Error: "Password must be at least 6 characters"})
			return
		}
		taken, err := model.EmailTaken(r.Context(), as.BunDB, email)
		if err != nil {
			slog.Error("can't check if email is taken", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorRespBody{Error: "Can't create user"})
			return
		}
		if taken {
			writeJSON(w, http.StatusBadRequest, errorRespBody{Error: "User already exists"})
			return
		}
		// #endregion

		// #region - insert user & seed their calendar
		userModel := &model.User{
			ID:       uuid.NewString(),
			Email:    email,
			FullName: utils.CleanupName(reqBody.FullName),
		}
		if err := userModel.SetPassword(reqBody.Password); err != nil {
			slog.Error("can't hash password", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorRespBody{Error: "Can't create user"})
			return
		}
		if err := as.BunDB.RunInTx(r.Context(), &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
			if err := userModel.Insert(ctx, tx); err != nil {
				return err
			}
			return as.Seed.Apply(ctx, tx, userModel.ID)
		}); err != nil {
			// lost a race with another registration of the same email
			if errors.Is(err, model.ErrEmailTaken) {
				writeJSON(w, http.StatusBadRequest, errorRespBody{Error: "User already exists"})
				return
			}
			slog.Error("can't create user", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorRespBody{Error: "Can't create user"})
			return
		}
		// #endregion

		slog.Info("user registered", "user_id", userModel.ID)
		writeJSON(w, http.StatusCreated, map[string]string{"message": "User created successfully"})
	})

	// login
	muxer.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var reqBody LoginReqBody
		if !decodeBody(w, r, &reqBody) {
			return
		}

		userModel, err := model.UserByEmail(r.Context(), as.BunDB, reqBody.Email)
		switch {
		case errors.Is(err, model.ErrUserNotFound):
			writeJSON(w, http.StatusUnauthorized, errorRespBody{Error: "Invalid credentials"})
			return
		case err != nil:
			slog.Error("can't find user", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorRespBody{Error: "Can't log in"})
			return
		}
		if !userModel.CheckPassword(reqBody.Password) {
			writeJSON(w, http.StatusUnauthorized, errorRespBody{Error: "Invalid credentials"})
			return
		}

		token, err := jwt.Encode(
			jwt.NewPayload(userModel.ID, userModel.Email, as.Config.GetJWTExpire()),
			as.Config.GetJWTSecret(),
		)
		if err != nil {
			slog.Error("can't sign token", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorRespBody{Error: "Can't log in"})
			return
		}
		if err := userModel.TouchLastLogin(r.Context(), as.BunDB); err != nil {
			slog.Warn("can't update last login", "error", err)
		}

		writeJSON(w, http.StatusOK, LoginRespBody{
			Token: token,
			User:  UserRespBody{Email: userModel.Email, FullName: userModel.FullName},
		})
	})
}
