/* Copyright 2025 Notae Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package controllers

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/ubaldooc/notae-notes-app/pkg/server/app"
	"github.com/ubaldooc/notae-notes-app/pkg/server/database"
	"github.com/ubaldooc/notae-notes-app/pkg/server/middleware"
)

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type sessionResponse struct {
	Key       string        `json:"key"`
	ExpiresAt int64         `json:"expiresAt"`
	User      database.User `json:"user"`
}

// Login authenticates the user and issues a session key
func (c *Controllers) Login(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := decodeBody(r, &payload); err != nil {
		middleware.DoError(w, "invalid payload", err, http.StatusBadRequest)
		return
	}

	user, err := c.app.Authenticate(payload.Email, payload.Password)
	if errors.Is(errors.Cause(err), app.ErrLoginInvalid) {
		http.Error(w, app.ErrLoginInvalid.Error(), http.StatusUnauthorized)
		return
	}
	if err != nil {
		middleware.DoError(w, "authenticating user", err, http.StatusInternalServerError)
		return
	}

	session, err := c.app.SignIn(&user)
	if err != nil {
		middleware.DoError(w, "signing in", err, http.StatusInternalServerError)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, sessionResponse{
		Key:       session.Key,
		ExpiresAt: session.ExpiresAt.Unix(),
		User:      user,
	})
}

// Register creates an account and signs it in
func (c *Controllers) Register(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := decodeBody(r, &payload); err != nil {
		middleware.DoError(w, "invalid payload", err, http.StatusBadRequest)
		return
	}

	user, err := c.app.CreateUser(payload.Email, payload.Password, payload.Name)
	switch errors.Cause(err) {
	case nil:
	case app.ErrRegistrationDisabled:
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	case app.ErrDuplicateEmail, app.ErrEmailRequired, app.ErrPasswordTooShort:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	default:
		middleware.DoError(w, "creating user", err, http.StatusInternalServerError)
		return
	}

	session, err := c.app.SignIn(&user)
	if err != nil {
		middleware.DoError(w, "signing in", err, http.StatusInternalServerError)
		return
	}

	middleware.RespondJSON(w, http.StatusCreated, sessionResponse{
		Key:       session.Key,
		ExpiresAt: session.ExpiresAt.Unix(),
		User:      user,
	})
}

// Logout deletes the session the request was authenticated with
func (c *Controllers) Logout(w http.ResponseWriter, r *http.Request) {
	key, err := middleware.SessionKeyFromRequest(r)
	if err != nil || key == "" {
		middleware.RespondUnauthorized(w)
		return
	}

	if err := c.app.DeleteSession(key); err != nil {
		middleware.DoError(w, "deleting session", err, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdatePreferences updates the display preferences of the authenticated user
func (c *Controllers) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	user := authedUser(r)

	var params app.PreferenceParams
	if err := decodeBody(r, &params); err != nil {
		middleware.DoError(w, "invalid payload", err, http.StatusBadRequest)
		return
	}

	if err := c.app.UpdatePreferences(user, params); err != nil {
		middleware.DoError(w, "updating preferences", err, http.StatusInternalServerError)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, user)
}

type feedbackPayload struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// CreateFeedback records a feedback message from the authenticated user
func (c *Controllers) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	user := authedUser(r)

	var payload feedbackPayload
	if err := decodeBody(r, &payload); err != nil {
		middleware.DoError(w, "invalid payload", err, http.StatusBadRequest)
		return
	}

	_, err := c.app.CreateFeedback(user, payload.Subject, payload.Message)
	if errors.Is(errors.Cause(err), app.ErrFeedbackMessageRequired) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		middleware.DoError(w, "creating feedback", err, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
}
