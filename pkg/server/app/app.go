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

// Package app provides the application-level business logic of the server
package app

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/ubaldooc/notae-notes-app/pkg/clock"
	"github.com/ubaldooc/notae-notes-app/pkg/server/mailer"
)

var (
	// ErrEmptyDB is an error for an app without a db connection
	ErrEmptyDB = errors.New("DB is empty")
	// ErrEmptyClock is an error for an app without a clock
	ErrEmptyClock = errors.New("Clock is empty")
	// ErrEmptyWebURL is an error for an app with an empty web url
	ErrEmptyWebURL = errors.New("WebURL is empty")
	// ErrEmptyEmailBackend is an error for an app without an email backend
	ErrEmptyEmailBackend = errors.New("EmailBackend is empty")
)

// App is an application context
type App struct {
	DB                  *gorm.DB
	Clock               clock.Clock
	EmailBackend        mailer.Backend
	WebURL              string
	MailFrom            string
	FeedbackTo          string
	DisableRegistration bool
}

// Validate validates the app configuration
func (a *App) Validate() error {
	if a.DB == nil {
		return ErrEmptyDB
	}
	if a.Clock == nil {
		return ErrEmptyClock
	}
	if a.WebURL == "" {
		return ErrEmptyWebURL
	}
	if a.EmailBackend == nil {
		return ErrEmptyEmailBackend
	}

	return nil
}
