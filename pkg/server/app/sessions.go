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

	"github.com/ubaldooc/notae-notes-app/pkg/server/crypt"
	"github.com/ubaldooc/notae-notes-app/pkg/server/database"
)

// sessionTTL is how long a session key stays valid after it is issued
const sessionTTL = 24 * 100 * time.Hour

// CreateSession creates a session for the user with the given id
func (a *App) CreateSession(userID int) (database.Session, error) {
	key, err := crypt.GetRandomStr(32)
	if err != nil {
		return database.Session{}, errors.Wrap(err, "generating session key")
	}

	now := a.Clock.Now()
	session := database.Session{
		UserID:     userID,
		Key:        key,
		LastUsedAt: now,
		ExpiresAt:  now.Add(sessionTTL),
	}
	if err := a.DB.Create(&session).Error; err != nil {
		return database.Session{}, errors.Wrap(err, "saving session")
	}

	return session, nil
}

// DeleteSession deletes the session with the given key
func (a *App) DeleteSession(key string) error {
	if err := a.DB.Where("key = ?", key).Delete(&database.Session{}).Error; err != nil {
		return errors.Wrap(err, "deleting session")
	}

	return nil
}

// DeleteUserSessions deletes all sessions of the user with the given id
func (a *App) DeleteUserSessions(userID int) error {
	if err := a.DB.Where("user_id = ?", userID).Delete(&database.Session{}).Error; err != nil {
		return errors.Wrap(err, "deleting user sessions")
	}

	return nil
}

// TouchSession records that the session was just used
func (a *App) TouchSession(session *database.Session) error {
	if err := a.DB.Model(session).Update("last_used_at", a.Clock.Now()).Error; err != nil {
		return errors.Wrap(err, "updating session use time")
	}

	return nil
}
