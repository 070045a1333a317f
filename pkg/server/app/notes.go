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
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/ubaldooc/notae-notes-app/pkg/retention"
	"github.com/ubaldooc/notae-notes-app/pkg/server/database"
)

const (
	// StatusActive is the status of a note that is not in the trash
	StatusActive = "active"
	// StatusTrashed is the status of a soft-deleted note
	StatusTrashed = "trashed"
)

var (
	// ErrNoteNotFound is an error for a note that does not exist
	ErrNoteNotFound = errors.New("Note not found")
	// ErrNoteIDRequired is an error for a note without an id
	ErrNoteIDRequired = errors.New("Note id is required")
)

// UpsertNote writes the given note for the user, keyed by the id the client
// generated. The client's createdAt and updatedAt are stored verbatim; they
// drive reconciliation across devices and the server must not rewrite them.
func (a *App) UpsertNote(userID int, n database.Note) (database.Note, error) {
	if n.ClientID == "" {
		return database.Note{}, ErrNoteIDRequired
	}
	if n.Status != StatusActive && n.Status != StatusTrashed {
		n.Status = StatusActive
	}
	n.UserID = userID

	var existing database.Note
	err := a.DB.Where("user_id = ? AND client_id = ?", userID, n.ClientID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := a.DB.Create(&n).Error; err != nil {
			return database.Note{}, errors.Wrap(err, "creating note")
		}

		return n, nil
	}
	if err != nil {
		return database.Note{}, errors.Wrap(err, "finding note")
	}

	n.Model = existing.Model
	if err := a.DB.Save(&n).Error; err != nil {
		return database.Note{}, errors.Wrap(err, "updating note")
	}

	return n, nil
}

// GetNotes returns all notes of the user, newest first by the client clock
func (a *App) GetNotes(userID int) ([]database.Note, error) {
	notes := []database.Note{}
	err := a.DB.Where("user_id = ?", userID).
		Order("client_updated_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, errors.Wrap(err, "querying notes")
	}

	return notes, nil
}

func (a *App) getNote(userID int, clientID string) (database.Note, error) {
	var note database.Note
	err := a.DB.Where("user_id = ? AND client_id = ?", userID, clientID).First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Note{}, ErrNoteNotFound
	}
	if err != nil {
		return database.Note{}, errors.Wrap(err, "finding note")
	}

	return note, nil
}

func (a *App) setNoteStatus(userID int, clientID, status string) (database.Note, error) {
	note, err := a.getNote(userID, clientID)
	if err != nil {
		return database.Note{}, err
	}

	// The status change must come with a fresh updatedAt, or devices that
	// hold a newer copy would overwrite it on their next reconciliation.
	note.Status = status
	note.ClientUpdatedAt = a.Clock.Now().UTC().Format(time.RFC3339)
	if err := a.DB.Save(&note).Error; err != nil {
		return database.Note{}, errors.Wrap(err, "updating note status")
	}

	return note, nil
}

// TrashNote moves the note with the given id into the trash
func (a *App) TrashNote(userID int, clientID string) (database.Note, error) {
	return a.setNoteStatus(userID, clientID, StatusTrashed)
}

// RestoreNote moves the note with the given id out of the trash
func (a *App) RestoreNote(userID int, clientID string) (database.Note, error) {
	return a.setNoteStatus(userID, clientID, StatusActive)
}

// DeleteNote permanently deletes the note with the given id
func (a *App) DeleteNote(userID int, clientID string) error {
	result := a.DB.Where("user_id = ? AND client_id = ?", userID, clientID).
		Delete(&database.Note{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "deleting note")
	}
	if result.RowsAffected == 0 {
		return ErrNoteNotFound
	}

	return nil
}

// EmptyTrash permanently deletes all trashed notes of the user. It returns
// the number of notes deleted.
func (a *App) EmptyTrash(userID int) (int, error) {
	result := a.DB.Where("user_id = ? AND status = ?", userID, StatusTrashed).
		Delete(&database.Note{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "deleting trashed notes")
	}

	return int(result.RowsAffected), nil
}

// OrderEntry is a single position assignment in a batch reorder
type OrderEntry struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// ReorderNotes assigns manual positions to the given notes. Reordering is a
// view concern and does not touch the notes' updatedAt.
func (a *App) ReorderNotes(userID int, entries []OrderEntry) error {
	err := a.DB.Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			err := tx.Model(&database.Note{}).
				Where("user_id = ? AND client_id = ?", userID, entry.ID).
				Update("custom_order", entry.Order).Error
			if err != nil {
				return errors.Wrapf(err, "updating order for note %s", entry.ID)
			}
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "reordering notes")
	}

	return nil
}

// SweepExpiredTrash permanently deletes every trashed note that has outlived
// the retention window. Notes whose updatedAt cannot be parsed are left
// alone. It returns the number of notes deleted.
func (a *App) SweepExpiredTrash() (int, error) {
	trashed := []database.Note{}
	if err := a.DB.Where("status = ?", StatusTrashed).Find(&trashed).Error; err != nil {
		return 0, errors.Wrap(err, "querying trashed notes")
	}

	now := a.Clock.Now()
	deleted := 0
	for _, note := range trashed {
		updatedAt, err := time.Parse(time.RFC3339, note.ClientUpdatedAt)
		if err != nil {
			continue
		}
		if !retention.Expired(updatedAt, now) {
			continue
		}

		if err := a.DB.Delete(&note).Error; err != nil {
			return deleted, errors.Wrapf(err, "deleting expired note %s", note.ClientID)
		}
		deleted++
	}

	return deleted, nil
}
