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

// GetNotes returns all notes of the authenticated user, trashed ones
// included. Clients need the full set to reconcile by id.
func (c *Controllers) GetNotes(w http.ResponseWriter, r *http.Request) {
	user := authedUser(r)

	notes, err := c.app.GetNotes(user.ID)
	if err != nil {
		middleware.DoError(w, "getting notes", err, http.StatusInternalServerError)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, notes)
}

// SaveNote creates or updates the note with the id in the path. The id in
// the path is authoritative over the id in the body.
func (c *Controllers) SaveNote(w http.ResponseWriter, r *http.Request) {
	user := authedUser(r)
	vars := mux.Vars(r)

	var note database.Note
	if err := decodeBody(r, &note); err != nil {
		middleware.DoError(w, "invalid payload", err, http.StatusBadRequest)
		return
	}
	note.ClientID = vars["id"]

	saved, err := c.app.UpsertNote(user.ID, note)
	if errors.Is(errors.Cause(err), app.ErrNoteIDRequired) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		middleware.DoError(w, "saving note", err, http.StatusInternalServerError)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, saved)
}

// TrashNote soft-deletes the note with the id in the path
func (c *Controllers) TrashNote(w http.ResponseWriter, r *http.Request) {
	user := authedUser(r)
	vars := mux.Vars(r)

	note, err := c.app.TrashNote(user.ID, vars["id"])
	if errors.Is(errors.Cause(err), app.ErrNoteNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		middleware.DoError(w, "trashing note", err, http.StatusInternalServerError)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, note)
}

// RestoreNote brings the trashed note with the id in the path back to active
func (c *Controllers) RestoreNote(w http.ResponseWriter, r *http.Request) {
	user := authedUser(r)
	vars := mux.Vars(r)

	note, err := c.app.RestoreNote(user.ID, vars["id"])
	if errors.Is(errors.Cause(err), app.ErrNoteNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		middleware.DoError(w, "restoring note", err, http.StatusInternalServerError)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, note)
}

// DeleteNote permanently deletes the note with the id in the path
func (c *Controllers) DeleteNote(w http.ResponseWriter, r *http.Request) {
	user := authedUser(r)
	vars := mux.Vars(r)

	err := c.app.DeleteNote(user.ID, vars["id"])
	if errors.Is(errors.Cause(err), app.ErrNoteNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		middleware.DoError(w, "deleting note", err, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// EmptyTrash permanently deletes every trashed note of the authenticated user
func (c *Controllers) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	user := authedUser(r)

	deleted, err := c.app.EmptyTrash(user.ID)
	if err != nil {
		middleware.DoError(w, "emptying trash", err, http.StatusInternalServerError)
		return
	}

	middleware.RespondJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// ReorderNotes assigns manual positions to a batch of notes
func (c *Controllers) ReorderNotes(w http.ResponseWriter, r *http.Request) {
	user := authedUser(r)

	var entries []app.OrderEntry
	if err := decodeBody(r, &entries); err != nil {
		middleware.DoError(w, "invalid payload", err, http.StatusBadRequest)
		return
	}

	if err := c.app.ReorderNotes(user.ID, entries); err != nil {
		middleware.DoError(w, "reordering notes", err, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
