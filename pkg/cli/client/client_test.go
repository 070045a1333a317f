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

package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"

	"github.com/ubaldooc/notae-notes-app/pkg/assert"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/context"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/schema"
)

func testCtx(endpoint string) context.NotaeCtx {
	return context.NotaeCtx{
		APIEndpoint: endpoint,
		SessionKey:  "test-session-key",
		Version:     "test",
	}
}

func TestFetchNotes(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		json.NewEncoder(w).Encode([]schema.Note{
			{ID: "note-n1", Title: "t", Body: "b", Status: schema.StatusActive},
		})
	}))
	defer server.Close()

	notes, err := FetchNotes(testCtx(server.URL))
	if err != nil {
		t.Fatal(errors.Wrap(err, "fetching notes"))
	}

	assert.Equal(t, gotPath, "/notes", "path mismatch")
	assert.Equal(t, gotAuth, "Bearer test-session-key", "authorization header mismatch")
	assert.Equal(t, len(notes), 1, "note count mismatch")
	assert.Equal(t, notes[0].ID, "note-n1", "note id mismatch")
}

func TestSaveNote(t *testing.T) {
	var gotMethod, gotPath string
	var gotPayload schema.Note
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotPayload)

		json.NewEncoder(w).Encode(gotPayload)
	}))
	defer server.Close()

	n := schema.Note{
		ID:        "note-n1",
		Title:     "t",
		Body:      "b",
		Status:    schema.StatusActive,
		UpdatedAt: "2023-05-01T10:00:00Z",
	}
	got, err := SaveNote(testCtx(server.URL), n)
	if err != nil {
		t.Fatal(errors.Wrap(err, "saving note"))
	}

	assert.Equal(t, gotMethod, "PUT", "method mismatch")
	assert.Equal(t, gotPath, "/notes/note-n1", "path mismatch")
	assert.Equal(t, gotPayload.UpdatedAt, "2023-05-01T10:00:00Z", "client timestamps must go over the wire")
	assert.Equal(t, got.ID, "note-n1", "returned note id mismatch")
}

func TestSaveNote_serverError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "something went wrong", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := SaveNote(testCtx(server.URL), schema.Note{ID: "note-n1"})

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected an HTTPError, got %v", err)
	}
	assert.Equal(t, httpErr.StatusCode, http.StatusInternalServerError, "status code mismatch")
	assert.Equal(t, httpErr.Message, "something went wrong", "message mismatch")
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload LoginPayload
		json.NewDecoder(r.Body).Decode(&payload)

		if payload.Email != "alice@example.com" || payload.Password != "pass1234" {
			http.Error(w, "wrong credentials", http.StatusUnauthorized)
			return
		}

		json.NewEncoder(w).Encode(LoginResponse{
			Key:  "new-session-key",
			User: schema.User{ID: "user-u1", Email: payload.Email},
		})
	}))
	defer server.Close()

	ctx := context.NotaeCtx{APIEndpoint: server.URL}

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := Login(ctx, "alice@example.com", "pass1234")
		if err != nil {
			t.Fatal(errors.Wrap(err, "logging in"))
		}

		assert.Equal(t, resp.Key, "new-session-key", "session key mismatch")
		assert.Equal(t, resp.User.ID, "user-u1", "user id mismatch")
	})

	t.Run("invalid credentials", func(t *testing.T) {
		_, err := Login(ctx, "alice@example.com", "wrong")

		assert.Equal(t, err, ErrInvalidLogin, "expected ErrInvalidLogin")
	})
}

func TestDoAuthorizedReq_noSession(t *testing.T) {
	ctx := context.NotaeCtx{APIEndpoint: "http://localhost"}

	_, err := FetchNotes(ctx)

	assert.NotEqual(t, err, nil, "expected an error without a session")
}

func TestTrashNote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.Method, "POST", "method mismatch")
		assert.Equal(t, r.URL.Path, "/notes/note-n1/trash", "path mismatch")

		json.NewEncoder(w).Encode(schema.Note{ID: "note-n1", Status: schema.StatusTrashed})
	}))
	defer server.Close()

	got, err := TrashNote(testCtx(server.URL), "note-n1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "trashing note"))
	}

	assert.Equal(t, got.Status, schema.StatusTrashed, "status mismatch")
}
