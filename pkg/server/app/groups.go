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
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/ubaldooc/notae-notes-app/pkg/server/database"
)

var (
	// ErrGroupNotFound is an error for a group that does not exist
	ErrGroupNotFound = errors.New("Group not found")
	// ErrGroupIDRequired is an error for a group without an id
	ErrGroupIDRequired = errors.New("Group id is required")
	// ErrGroupNameRequired is an error for a group without a name
	ErrGroupNameRequired = errors.New("Group name is required")
)

// UpsertGroup writes the given group for the user, keyed by the id the
// client generated. The client's timestamps are stored verbatim.
func (a *App) UpsertGroup(userID int, g database.Group) (database.Group, error) {
	if g.ClientID == "" {
		return database.Group{}, ErrGroupIDRequired
	}
	if g.Name == "" {
		return database.Group{}, ErrGroupNameRequired
	}
	g.UserID = userID

	var existing database.Group
	err := a.DB.Where("user_id = ? AND client_id = ?", userID, g.ClientID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := a.DB.Create(&g).Error; err != nil {
			return database.Group{}, errors.Wrap(err, "creating group")
		}

		return g, nil
	}
	if err != nil {
		return database.Group{}, errors.Wrap(err, "finding group")
	}

	g.Model = existing.Model
	if err := a.DB.Save(&g).Error; err != nil {
		return database.Group{}, errors.Wrap(err, "updating group")
	}

	return g, nil
}

// GetGroups returns all groups of the user in display order
func (a *App) GetGroups(userID int) ([]database.Group, error) {
	groups := []database.Group{}
	err := a.DB.Where("user_id = ?", userID).
		Order("display_order ASC, id ASC").
		Find(&groups).Error
	if err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}

	return groups, nil
}

// DeleteGroupCascade deletes the group with the given id and detaches its
// notes. The notes survive ungrouped.
func (a *App) DeleteGroupCascade(userID int, clientID string) error {
	err := a.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&database.Note{}).
			Where("user_id = ? AND group_client_id = ?", userID, clientID).
			Update("group_client_id", nil).Error
		if err != nil {
			return errors.Wrap(err, "detaching notes")
		}

		result := tx.Where("user_id = ? AND client_id = ?", userID, clientID).
			Delete(&database.Group{})
		if result.Error != nil {
			return errors.Wrap(result.Error, "deleting group")
		}
		if result.RowsAffected == 0 {
			return ErrGroupNotFound
		}

		return nil
	})
	if err != nil {
		return err
	}

	return nil
}

// ReorderGroups assigns display positions to the given groups
func (a *App) ReorderGroups(userID int, entries []OrderEntry) error {
	err := a.DB.Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			err := tx.Model(&database.Group{}).
				Where("user_id = ? AND client_id = ?", userID, entry.ID).
				Update("display_order", entry.Order).Error
			if err != nil {
				return errors.Wrapf(err, "updating order for group %s", entry.ID)
			}
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "reordering groups")
	}

	return nil
}
