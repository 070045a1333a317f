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

// Package controllers provides the http handlers of the api
package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/ubaldooc/notae-notes-app/pkg/server/app"
	"github.com/ubaldooc/notae-notes-app/pkg/server/context"
	"github.com/ubaldooc/notae-notes-app/pkg/server/database"
	"github.com/ubaldooc/notae-notes-app/pkg/server/middleware"
)

// Controllers is a set of http handlers backed by the application context
type Controllers struct {
	app *app.App
}

// New returns a new set of controllers
func New(a *app.App) *Controllers {
	return &Controllers{app: a}
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(err, "decoding request body")
	}

	return nil
}

// authedUser returns the user the auth middleware attached to the request
func authedUser(r *http.Request) *database.User {
	return context.User(r.Context())
}

// GetHealth responds 200 when the server is up
func (c *Controllers) GetHealth(w http.ResponseWriter, r *http.Request) {
	middleware.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
