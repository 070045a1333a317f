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

package app

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubaldooc/notae-notes-app/pkg/clock"
	"github.com/ubaldooc/notae-notes-app/pkg/server/database"
)

type fakeEmail struct {
	subject string
	from    string
	to      []string
	body    string
}

type fakeEmailBackend struct {
	mu     sync.Mutex
	emails []fakeEmail
}

func (b *fakeEmailBackend) Queue(subject, from string, to []string, contentType, body string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.emails = append(b.emails, fakeEmail{subject: subject, from: from, to: to, body: body})

	return nil
}

func newTestApp(t *testing.T) (*App, *clock.Mock, *fakeEmailBackend) {
	t.Helper()

	db := database.Open("", filepath.Join(t.TempDir(), "test.db"))
	database.InitSchema(db)

	clk := clock.NewMock()
	backend := &fakeEmailBackend{}

	a := &App{
		DB:           db,
		Clock:        clk,
		EmailBackend: backend,
		WebURL:       "http://example.com",
		MailFrom:     "noreply@example.com",
	}
	require.NoError(t, a.Validate(), "app should be valid")

	return a, clk, backend
}

func mustCreateUser(t *testing.T, a *App, email string) database.User {
	t.Helper()

	user, err := a.CreateUser(email, "password1234", "Tester")
	require.NoError(t, err, "creating user")

	return user
}

func TestValidate(t *testing.T) {
	a, _, _ := newTestApp(t)

	testCases := []struct {
		name     string
		mutate   func(*App)
		expected error
	}{
		{
			name:     "missing db",
			mutate:   func(a *App) { a.DB = nil },
			expected: ErrEmptyDB,
		},
		{
			name:     "missing clock",
			mutate:   func(a *App) { a.Clock = nil },
			expected: ErrEmptyClock,
		},
		{
			name:     "missing web url",
			mutate:   func(a *App) { a.WebURL = "" },
			expected: ErrEmptyWebURL,
		},
		{
			name:     "missing email backend",
			mutate:   func(a *App) { a.EmailBackend = nil },
			expected: ErrEmptyEmailBackend,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			copy := *a
			tc.mutate(&copy)
			assert.Equal(t, tc.expected, copy.Validate(), "error mismatch")
		})
	}
}

func TestCreateUser(t *testing.T) {
	a, _, _ := newTestApp(t)

	user, err := a.CreateUser("alice@example.com", "password1234", "Alice")
	require.NoError(t, err, "creating user")

	assert.NotEmpty(t, user.UUID, "uuid should be set")
	assert.Equal(t, "alice@example.com", user.Email, "email mismatch")
	assert.NotEqual(t, "password1234", user.Password, "password should be hashed")
	assert.Equal(t, "system", user.Theme, "default theme mismatch")

	t.Run("duplicate email", func(t *testing.T) {
		_, err := a.CreateUser("alice@example.com", "password1234", "Alice II")
		assert.Equal(t, ErrDuplicateEmail, errors.Cause(err), "error mismatch")
	})

	t.Run("short password", func(t *testing.T) {
		_, err := a.CreateUser("bob@example.com", "short", "Bob")
		assert.Equal(t, ErrPasswordTooShort, errors.Cause(err), "error mismatch")
	})

	t.Run("registration disabled", func(t *testing.T) {
		a.DisableRegistration = true
		defer func() { a.DisableRegistration = false }()

		_, err := a.CreateUser("carol@example.com", "password1234", "Carol")
		assert.Equal(t, ErrRegistrationDisabled, errors.Cause(err), "error mismatch")
	})
}

func TestAuthenticate(t *testing.T) {
	a, _, _ := newTestApp(t)
	created := mustCreateUser(t, a, "alice@example.com")

	t.Run("valid credentials", func(t *testing.T) {
		user, err := a.Authenticate("alice@example.com", "password1234")
		require.NoError(t, err, "authenticating")
		assert.Equal(t, created.ID, user.ID, "user mismatch")
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := a.Authenticate("alice@example.com", "wrong-password")
		assert.Equal(t, ErrLoginInvalid, errors.Cause(err), "error mismatch")
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := a.Authenticate("nobody@example.com", "password1234")
		assert.Equal(t, ErrLoginInvalid, errors.Cause(err), "error mismatch")
	})
}

func TestSignIn(t *testing.T) {
	a, clk, _ := newTestApp(t)
	user := mustCreateUser(t, a, "alice@example.com")

	session, err := a.SignIn(&user)
	require.NoError(t, err, "signing in")

	assert.Equal(t, user.ID, session.UserID, "session user mismatch")
	assert.NotEmpty(t, session.Key, "session key should be set")
	assert.Equal(t, clk.Now().Add(sessionTTL), session.ExpiresAt, "expiry mismatch")

	var stored database.User
	require.NoError(t, a.DB.First(&stored, user.ID).Error, "reloading user")
	require.NotNil(t, stored.LastLoginAt, "last login should be recorded")
}

func TestDeleteSession(t *testing.T) {
	a, _, _ := newTestApp(t)
	user := mustCreateUser(t, a, "alice@example.com")

	session, err := a.CreateSession(user.ID)
	require.NoError(t, err, "creating session")

	require.NoError(t, a.DeleteSession(session.Key), "deleting session")

	var count int64
	require.NoError(t, a.DB.Model(&database.Session{}).Count(&count).Error, "counting sessions")
	assert.Equal(t, int64(0), count, "session should be gone")
}

func TestUpsertNote(t *testing.T) {
	a, _, _ := newTestApp(t)
	user := mustCreateUser(t, a, "alice@example.com")

	note := database.Note{
		ClientID:        "note-n1",
		Title:           "groceries",
		Body:            "milk",
		CharCount:       4,
		Status:          StatusActive,
		CustomOrder:     -1,
		ClientCreatedAt: "2024-01-01T00:00:00Z",
		ClientUpdatedAt: "2024-01-01T00:00:00Z",
	}

	created, err := a.UpsertNote(user.ID, note)
	require.NoError(t, err, "creating note")
	assert.Equal(t, "2024-01-01T00:00:00Z", created.ClientCreatedAt, "client createdAt should be preserved")

	note.Body = "milk and eggs"
	note.ClientUpdatedAt = "2024-01-02T00:00:00Z"
	_, err = a.UpsertNote(user.ID, note)
	require.NoError(t, err, "updating note")

	notes, err := a.GetNotes(user.ID)
	require.NoError(t, err, "querying notes")
	require.Len(t, notes, 1, "the second write should update in place")
	assert.Equal(t, "milk and eggs", notes[0].Body, "body mismatch")
	assert.Equal(t, "2024-01-02T00:00:00Z", notes[0].ClientUpdatedAt, "client updatedAt should be preserved")

	t.Run("missing id", func(t *testing.T) {
		_, err := a.UpsertNote(user.ID, database.Note{Title: "untitled"})
		assert.Equal(t, ErrNoteIDRequired, errors.Cause(err), "error mismatch")
	})

	t.Run("invalid status defaults to active", func(t *testing.T) {
		saved, err := a.UpsertNote(user.ID, database.Note{
			ClientID:        "note-n2",
			Status:          "archived",
			ClientCreatedAt: "2024-01-01T00:00:00Z",
			ClientUpdatedAt: "2024-01-01T00:00:00Z",
		})
		require.NoError(t, err, "upserting note")
		assert.Equal(t, StatusActive, saved.Status, "status should fall back to active")
	})
}

func TestGetNotes_isolatedByUser(t *testing.T) {
	a, _, _ := newTestApp(t)
	alice := mustCreateUser(t, a, "alice@example.com")
	bob := mustCreateUser(t, a, "bob@example.com")

	_, err := a.UpsertNote(alice.ID, database.Note{
		ClientID:        "note-a1",
		ClientCreatedAt: "2024-01-01T00:00:00Z",
		ClientUpdatedAt: "2024-01-01T00:00:00Z",
	})
	require.NoError(t, err, "creating alice note")

	notes, err := a.GetNotes(bob.ID)
	require.NoError(t, err, "querying bob notes")
	assert.Len(t, notes, 0, "bob should see no notes")
}

func TestTrashRestoreNote(t *testing.T) {
	a, clk, _ := newTestApp(t)
	user := mustCreateUser(t, a, "alice@example.com")

	_, err := a.UpsertNote(user.ID, database.Note{
		ClientID:        "note-n1",
		Status:          StatusActive,
		ClientCreatedAt: "2024-01-01T00:00:00Z",
		ClientUpdatedAt: "2024-01-01T00:00:00Z",
	})
	require.NoError(t, err, "creating note")

	clk.Advance(48 * time.Hour)

	trashed, err := a.TrashNote(user.ID, "note-n1")
	require.NoError(t, err, "trashing note")
	assert.Equal(t, StatusTrashed, trashed.Status, "status mismatch")
	assert.Equal(t, clk.Now().UTC().Format(time.RFC3339), trashed.ClientUpdatedAt,
		"trashing should bump updatedAt")

	clk.Advance(time.Hour)

	restored, err := a.RestoreNote(user.ID, "note-n1")
	require.NoError(t, err, "restoring note")
	assert.Equal(t, StatusActive, restored.Status, "status mismatch")
	assert.Equal(t, clk.Now().UTC().Format(time.RFC3339), restored.ClientUpdatedAt,
		"restoring should bump updatedAt")

	t.Run("missing note", func(t *testing.T) {
		_, err := a.TrashNote(user.ID, "note-missing")
		assert.Equal(t, ErrNoteNotFound, errors.Cause(err), "error mismatch")
	})
}

func TestEmptyTrash(t *testing.T) {
	a, _, _ := newTestApp(t)
	user := mustCreateUser(t, a, "alice@example.com")

	for _, n := range []database.Note{
		{ClientID: "note-n1", Status: StatusActive, ClientCreatedAt: "2024-01-01T00:00:00Z", ClientUpdatedAt: "2024-01-01T00:00:00Z"},
		{ClientID: "note-n2", Status: StatusTrashed, ClientCreatedAt: "2024-01-01T00:00:00Z", ClientUpdatedAt: "2024-01-01T00:00:00Z"},
		{ClientID: "note-n3", Status: StatusTrashed, ClientCreatedAt: "2024-01-01T00:00:00Z", ClientUpdatedAt: "2024-01-01T00:00:00Z"},
	} {
		_, err := a.UpsertNote(user.ID, n)
		require.NoError(t, err, "creating note")
	}

	deleted, err := a.EmptyTrash(user.ID)
	require.NoError(t, err, "emptying trash")
	assert.Equal(t, 2, deleted, "deleted count mismatch")

	notes, err := a.GetNotes(user.ID)
	require.NoError(t, err, "querying notes")
	require.Len(t, notes, 1, "only the active note should remain")
	assert.Equal(t, "note-n1", notes[0].ClientID, "remaining note mismatch")
}

func TestReorderNotes(t *testing.T) {
	a, _, _ := newTestApp(t)
	user := mustCreateUser(t, a, "alice@example.com")

	_, err := a.UpsertNote(user.ID, database.Note{
		ClientID:        "note-n1",
		Status:          StatusActive,
		ClientCreatedAt: "2024-01-01T00:00:00Z",
		ClientUpdatedAt: "2024-01-01T00:00:00Z",
	})
	require.NoError(t, err, "creating note")

	err = a.ReorderNotes(user.ID, []OrderEntry{{ID: "note-n1", Order: 3}})
	require.NoError(t, err, "reordering notes")

	notes, err := a.GetNotes(user.ID)
	require.NoError(t, err, "querying notes")
	require.Len(t, notes, 1, "note count mismatch")
	assert.Equal(t, 3, notes[0].CustomOrder, "order mismatch")
	assert.Equal(t, "2024-01-01T00:00:00Z", notes[0].ClientUpdatedAt,
		"reordering must not touch updatedAt")
}

func TestSweepExpiredTrash(t *testing.T) {
	a, clk, _ := newTestApp(t)
	user := mustCreateUser(t, a, "alice@example.com")

	now := clk.Now()
	old := now.Add(-31 * 24 * time.Hour).UTC().Format(time.RFC3339)
	recent := now.Add(-2 * 24 * time.Hour).UTC().Format(time.RFC3339)

	for _, n := range []database.Note{
		{ClientID: "note-expired", Status: StatusTrashed, ClientCreatedAt: old, ClientUpdatedAt: old},
		{ClientID: "note-recent", Status: StatusTrashed, ClientCreatedAt: recent, ClientUpdatedAt: recent},
		{ClientID: "note-active", Status: StatusActive, ClientCreatedAt: old, ClientUpdatedAt: old},
		{ClientID: "note-garbled", Status: StatusTrashed, ClientCreatedAt: old, ClientUpdatedAt: "not-a-time"},
	} {
		_, err := a.UpsertNote(user.ID, n)
		require.NoError(t, err, "creating note")
	}

	deleted, err := a.SweepExpiredTrash()
	require.NoError(t, err, "sweeping trash")
	assert.Equal(t, 1, deleted, "deleted count mismatch")

	notes, err := a.GetNotes(user.ID)
	require.NoError(t, err, "querying notes")

	remaining := map[string]bool{}
	for _, n := range notes {
		remaining[n.ClientID] = true
	}
	assert.False(t, remaining["note-expired"], "expired note should be deleted")
	assert.True(t, remaining["note-recent"], "recent note should survive")
	assert.True(t, remaining["note-active"], "active note should survive")
	assert.True(t, remaining["note-garbled"], "unparsable note should be left alone")
}

func TestUpsertGroup(t *testing.T) {
	a, _, _ := newTestApp(t)
	user := mustCreateUser(t, a, "alice@example.com")

	group := database.Group{
		ClientID:        "group-g1",
		Name:            "work",
		Color:           "#ff0000",
		ClientCreatedAt: "2024-01-01T00:00:00Z",
		ClientUpdatedAt: "2024-01-01T00:00:00Z",
	}
	_, err := a.UpsertGroup(user.ID, group)
	require.NoError(t, err, "creating group")

	group.Name = "work stuff"
	group.ClientUpdatedAt = "2024-01-02T00:00:00Z"
	_, err = a.UpsertGroup(user.ID, group)
	require.NoError(t, err, "updating group")

	groups, err := a.GetGroups(user.ID)
	require.NoError(t, err, "querying groups")
	require.Len(t, groups, 1, "the second write should update in place")
	assert.Equal(t, "work stuff", groups[0].Name, "name mismatch")
	assert.Equal(t, "2024-01-02T00:00:00Z", groups[0].ClientUpdatedAt, "client updatedAt should be preserved")

	t.Run("missing name", func(t *testing.T) {
		_, err := a.UpsertGroup(user.ID, database.Group{ClientID: "group-g2"})
		assert.Equal(t, ErrGroupNameRequired, errors.Cause(err), "error mismatch")
	})
}

func TestDeleteGroupCascade(t *testing.T) {
	a, _, _ := newTestApp(t)
	user := mustCreateUser(t, a, "alice@example.com")

	_, err := a.UpsertGroup(user.ID, database.Group{
		ClientID:        "group-g1",
		Name:            "work",
		ClientCreatedAt: "2024-01-01T00:00:00Z",
		ClientUpdatedAt: "2024-01-01T00:00:00Z",
	})
	require.NoError(t, err, "creating group")

	groupID := "group-g1"
	_, err = a.UpsertNote(user.ID, database.Note{
		ClientID:        "note-n1",
		Status:          StatusActive,
		GroupClientID:   &groupID,
		ClientCreatedAt: "2024-01-01T00:00:00Z",
		ClientUpdatedAt: "2024-01-01T00:00:00Z",
	})
	require.NoError(t, err, "creating note")

	require.NoError(t, a.DeleteGroupCascade(user.ID, "group-g1"), "deleting group")

	groups, err := a.GetGroups(user.ID)
	require.NoError(t, err, "querying groups")
	assert.Len(t, groups, 0, "group should be gone")

	notes, err := a.GetNotes(user.ID)
	require.NoError(t, err, "querying notes")
	require.Len(t, notes, 1, "note should survive")
	assert.Nil(t, notes[0].GroupClientID, "note should be detached")

	t.Run("missing group", func(t *testing.T) {
		err := a.DeleteGroupCascade(user.ID, "group-missing")
		assert.Equal(t, ErrGroupNotFound, errors.Cause(err), "error mismatch")
	})
}

func TestReorderGroups(t *testing.T) {
	a, _, _ := newTestApp(t)
	user := mustCreateUser(t, a, "alice@example.com")

	for i, id := range []string{"group-g1", "group-g2"} {
		_, err := a.UpsertGroup(user.ID, database.Group{
			ClientID:        id,
			Name:            id,
			Order:           i,
			ClientCreatedAt: "2024-01-01T00:00:00Z",
			ClientUpdatedAt: "2024-01-01T00:00:00Z",
		})
		require.NoError(t, err, "creating group")
	}

	err := a.ReorderGroups(user.ID, []OrderEntry{
		{ID: "group-g1", Order: 1},
		{ID: "group-g2", Order: 0},
	})
	require.NoError(t, err, "reordering groups")

	groups, err := a.GetGroups(user.ID)
	require.NoError(t, err, "querying groups")
	require.Len(t, groups, 2, "group count mismatch")
	assert.Equal(t, "group-g2", groups[0].ClientID, "first group mismatch")
	assert.Equal(t, "group-g1", groups[1].ClientID, "second group mismatch")
}

func TestUpdatePreferences(t *testing.T) {
	a, _, _ := newTestApp(t)
	user := mustCreateUser(t, a, "alice@example.com")

	theme := "dark"
	require.NoError(t, a.UpdatePreferences(&user, PreferenceParams{Theme: &theme}), "updating preferences")

	var stored database.User
	require.NoError(t, a.DB.First(&stored, user.ID).Error, "reloading user")
	assert.Equal(t, "dark", stored.Theme, "theme mismatch")
	assert.Equal(t, "list", stored.NoteView, "untouched preference should keep its value")
}

func TestCreateFeedback(t *testing.T) {
	a, _, backend := newTestApp(t)
	a.FeedbackTo = "ops@example.com"
	user := mustCreateUser(t, a, "alice@example.com")

	_, err := a.CreateFeedback(&user, "sync issue", "notes are duplicated")
	require.NoError(t, err, "creating feedback")

	var count int64
	require.NoError(t, a.DB.Model(&database.Feedback{}).Count(&count).Error, "counting feedback")
	assert.Equal(t, int64(1), count, "feedback count mismatch")

	require.Len(t, backend.emails, 1, "a notification should be sent")
	assert.Equal(t, []string{"ops@example.com"}, backend.emails[0].to, "recipient mismatch")

	t.Run("missing message", func(t *testing.T) {
		_, err := a.CreateFeedback(&user, "subject", "")
		assert.Equal(t, ErrFeedbackMessageRequired, errors.Cause(err), "error mismatch")
	})
}

func TestReplyFeedback(t *testing.T) {
	a, _, backend := newTestApp(t)
	user := mustCreateUser(t, a, "alice@example.com")

	feedback, err := a.CreateFeedback(&user, "sync issue", "notes are duplicated")
	require.NoError(t, err, "creating feedback")

	require.NoError(t, a.ReplyFeedback(feedback.ID, "fixed in the latest release"), "replying")

	require.Len(t, backend.emails, 1, "the reply should be mailed")
	assert.Equal(t, []string{"alice@example.com"}, backend.emails[0].to, "recipient mismatch")
	assert.Equal(t, "Re: sync issue", backend.emails[0].subject, "subject mismatch")

	listed, err := a.ListFeedback()
	require.NoError(t, err, "listing feedback")
	require.Len(t, listed, 1, "feedback count mismatch")
	require.NotNil(t, listed[0].RepliedAt, "reply time should be recorded")

	t.Run("missing feedback", func(t *testing.T) {
		err := a.ReplyFeedback(9999, "hello")
		assert.Equal(t, ErrFeedbackNotFound, errors.Cause(err), "error mismatch")
	})
}
