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
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/ubaldooc/notae-notes-app/pkg/server/crypt"
	"github.com/ubaldooc/notae-notes-app/pkg/server/database"
)

var (
	// ErrLoginInvalid is an error for invalid credentials for login
	ErrLoginInvalid = errors.New("Wrong email and password combination")
	// ErrDuplicateEmail is an error for an attempt to register an email already in use
	ErrDuplicateEmail = errors.New("Duplicate email")
	// ErrRegistrationDisabled is an error for registration being disabled
	ErrRegistrationDisabled = errors.New("Registration is disabled")
	// ErrEmailRequired is an error for an empty email
	ErrEmailRequired = errors.New("Email is required")
	// ErrPasswordTooShort is an error for a password that is too short
	ErrPasswordTooShort = errors.New("Password should be longer than 8 characters")
)

// CreateUser creates a user with the given credentials
func (a *App) CreateUser(email, password, name string) (database.User, error) {
	if a.DisableRegistration {
		return database.User{}, ErrRegistrationDisabled
	}
	if email == "" {
		return database.User{}, ErrEmailRequired
	}
	if len(password) < 8 {
		return database.User{}, ErrPasswordTooShort
	}

	var count int64
	if err := a.DB.Model(&database.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return database.User{}, errors.Wrap(err, "counting users with the email")
	}
	if count > 0 {
		return database.User{}, ErrDuplicateEmail
	}

	hashed, err := crypt.HashPassword(password)
	if err != nil {
		return database.User{}, errors.Wrap(err, "hashing password")
	}

	user := database.User{
		UUID:          uuid.New().String(),
		Email:         email,
		Password:      hashed,
		Name:          name,
		Theme:         "system",
		NoteView:      "list",
		NoteSortOrder: "updatedAt",
	}
	if err := a.DB.Create(&user).Error; err != nil {
		return database.User{}, errors.Wrap(err, "creating user")
	}

	return user, nil
}

// Authenticate authenticates the user with the given credentials
func (a *App) Authenticate(email, password string) (database.User, error) {
	var user database.User
	err := a.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return database.User{}, ErrLoginInvalid
	}
	if err != nil {
		return database.User{}, errors.Wrap(err, "finding user")
	}

	if !crypt.VerifyPassword(user.Password, password) {
		return database.User{}, ErrLoginInvalid
	}

	return user, nil
}

// SignIn signs in the user by creating a session and recording the login time
func (a *App) SignIn(user *database.User) (database.Session, error) {
	session, err := a.CreateSession(user.ID)
	if err != nil {
		return database.Session{}, errors.Wrap(err, "creating session")
	}

	now := a.Clock.Now()
	if err := a.DB.Model(user).Update("last_login_at", &now).Error; err != nil {
		return database.Session{}, errors.Wrap(err, "updating last login time")
	}

	return session, nil
}

// PreferenceParams are the updatable display preferences of a user
type PreferenceParams struct {
	Name          *string `json:"name"`
	Theme         *string `json:"theme"`
	NoteView      *string `json:"noteView"`
	NoteSortOrder *string `json:"noteSortOrder"`
}

// UpdatePreferences updates the display preferences of the user. Only the
// fields present in the params are changed.
func (a *App) UpdatePreferences(user *database.User, p PreferenceParams) error {
	updates := map[string]interface{}{}
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.Theme != nil {
		updates["theme"] = *p.Theme
	}
	if p.NoteView != nil {
		updates["note_view"] = *p.NoteView
	}
	if p.NoteSortOrder != nil {
		updates["note_sort_order"] = *p.NoteSortOrder
	}
	if len(updates) == 0 {
		return nil
	}

	if err := a.DB.Model(user).Updates(updates).Error; err != nil {
		return errors.Wrap(err, "updating user preferences")
	}

	return nil
}
