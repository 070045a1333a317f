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
	"fmt"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/ubaldooc/notae-notes-app/pkg/server/database"
	"github.com/ubaldooc/notae-notes-app/pkg/server/log"
)

var (
	// ErrFeedbackMessageRequired is an error for a feedback with no message
	ErrFeedbackMessageRequired = errors.New("Feedback message is required")
	// ErrFeedbackNotFound is an error for a feedback that does not exist
	ErrFeedbackNotFound = errors.New("Feedback not found")
)

// CreateFeedback records a feedback message from the user and notifies the
// operator address, if one is configured. Delivery failure does not fail the
// submission.
func (a *App) CreateFeedback(user *database.User, subject, message string) (database.Feedback, error) {
	if message == "" {
		return database.Feedback{}, ErrFeedbackMessageRequired
	}
	if subject == "" {
		subject = "(no subject)"
	}

	feedback := database.Feedback{
		UserID:  user.ID,
		Subject: subject,
		Message: message,
	}
	if err := a.DB.Create(&feedback).Error; err != nil {
		return database.Feedback{}, errors.Wrap(err, "saving feedback")
	}

	if a.FeedbackTo != "" {
		body := fmt.Sprintf("From: %s (%s)\n\n%s", user.Name, user.Email, message)
		err := a.EmailBackend.Queue(
			fmt.Sprintf("Feedback: %s", subject),
			a.MailFrom,
			[]string{a.FeedbackTo},
			"text/plain",
			body,
		)
		if err != nil {
			log.WithFields(log.Fields{
				"user_id": user.ID,
			}).ErrorWrap(err, "notifying feedback")
		}
	}

	return feedback, nil
}

// ListFeedback returns all feedback messages, oldest first
func (a *App) ListFeedback() ([]database.Feedback, error) {
	feedback := []database.Feedback{}
	if err := a.DB.Order("id ASC").Find(&feedback).Error; err != nil {
		return nil, errors.Wrap(err, "querying feedback")
	}

	return feedback, nil
}

// ReplyFeedback emails the given reply to the feedback's author and records
// the reply time
func (a *App) ReplyFeedback(feedbackID int, reply string) error {
	var feedback database.Feedback
	err := a.DB.First(&feedback, feedbackID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrFeedbackNotFound
	}
	if err != nil {
		return errors.Wrap(err, "finding feedback")
	}

	var user database.User
	if err := a.DB.First(&user, feedback.UserID).Error; err != nil {
		return errors.Wrap(err, "finding feedback author")
	}

	err = a.EmailBackend.Queue(
		fmt.Sprintf("Re: %s", feedback.Subject),
		a.MailFrom,
		[]string{user.Email},
		"text/plain",
		reply,
	)
	if err != nil {
		return errors.Wrap(err, "sending reply")
	}

	now := a.Clock.Now()
	if err := a.DB.Model(&feedback).Update("replied_at", &now).Error; err != nil {
		return errors.Wrap(err, "recording reply time")
	}

	return nil
}
