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

// Package middleware provides middleware for incoming http requests
package middleware

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/ubaldooc/notae-notes-app/pkg/server/app"
	"github.com/ubaldooc/notae-notes-app/pkg/server/context"
	"github.com/ubaldooc/notae-notes-app/pkg/server/database"
	"github.com/ubaldooc/notae-notes-app/pkg/server/log"
)

// ErrInvalidToken is an error for an invalid session token
var ErrInvalidToken = errors.New("Invalid token")

// SessionKeyFromRequest extracts the bearer session key from the
// Authorization header. A missing header yields an empty key without an
// error.
func SessionKeyFromRequest(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", nil
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}

// AuthWithSession resolves the user from the session key in the Authorization
// header. A missing or expired session yields a nil user without an error.
func AuthWithSession(a *app.App, r *http.Request) (*database.User, error) {
	key, err := SessionKeyFromRequest(r)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, nil
	}

	var session database.Session
	err = a.DB.Where("key = ?", key).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "finding session")
	}

	if session.ExpiresAt.Before(a.Clock.Now()) {
		return nil, nil
	}

	var user database.User
	if err := a.DB.First(&user, session.UserID).Error; err != nil {
		return nil, errors.Wrap(err, "finding user")
	}

	if err := a.TouchSession(&session); err != nil {
		log.ErrorWrap(err, "touching session")
	}

	return &user, nil
}

// Auth requires the request to carry a valid session and attaches the
// resolved user to the request context
func Auth(a *app.App, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := AuthWithSession(a, r)
		if err != nil {
			RespondUnauthorized(w)
			return
		}
		if user == nil {
			RespondUnauthorized(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithUser(r.Context(), user)))
	}
}
