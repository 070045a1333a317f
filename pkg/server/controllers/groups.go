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

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/ubaldooc/notae-notes-app/pkg/server/app"
	"github.com/ubaldooc/notae-notes-app/pkg/server/database"
	"github.com/ubaldooc/notae-notes-app/pkg/server/middleware"
)

// GetGroups returns all groups of the authenticated user
func (c *Controllers) GetGroups(w http.ResponseWriter, r *http.Request) {
	user := authedUser(r)

	groups, err := c.app.GetGroups(user.ID)
	if err != nil {
		middleware.DoError(w, "getting groups", err, http.StatusInternalServerError)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, groups)
}

// SaveGroup creates or updates the group with the id in the path
func (c *Controllers) SaveGroup(w http.ResponseWriter, r *http.Request) {
	user := authedUser(r)
	vars := mux.Vars(r)

	var group database.Group
	if err := decodeBody(r, &group); err != nil {
		middleware.DoError(w, "invalid payload", err, http.StatusBadRequest)
		return
	}
	group.ClientID = vars["id"]

	saved, err := c.app.UpsertGroup(user.ID, group)
	switch errors.Cause(err) {
	case nil:
	case app.ErrGroupIDRequired, app.ErrGroupNameRequired:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	default:
		middleware.DoError(w, "saving group", err, http.StatusInternalServerError)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, saved)
}

// DeleteGroup deletes the group with the id in the path and detaches its notes
func (c *Controllers) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	user := authedUser(r)
	vars := mux.Vars(r)

	err := c.app.DeleteGroupCascade(user.ID, vars["id"])
	if errors.Is(errors.Cause(err), app.ErrGroupNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		middleware.DoError(w, "deleting group", err, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReorderGroups assigns display positions to a batch of groups
func (c *Controllers) ReorderGroups(w http.ResponseWriter, r *http.Request) {
	user := authedUser(r)

	var entries []app.OrderEntry
	if err := decodeBody(r, &entries); err != nil {
		middleware.DoError(w, "invalid payload", err, http.StatusBadRequest)
		return
	}

	if err := c.app.ReorderGroups(user.ID, entries); err != nil {
		middleware.DoError(w, "reordering groups", err, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
