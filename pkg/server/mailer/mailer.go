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

// Package mailer provides a way to send emails
package mailer

import (
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"github.com/ubaldooc/notae-notes-app/pkg/server/log"
)

// Backend is an interface for sending emails
type Backend interface {
	Queue(subject, from string, to []string, contentType, body string) error
}

// SMTPParams is the configuration for the SMTP backend
type SMTPParams struct {
	Host     string
	Port     string
	Username string
	Password string
}

// SMTPBackend sends emails over SMTP
type SMTPBackend struct {
	dialer *gomail.Dialer
}

// NewSMTPBackend returns a backend that delivers mail through the given
// SMTP server
func NewSMTPBackend(p SMTPParams) (*SMTPBackend, error) {
	port, err := strconv.Atoi(p.Port)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing SMTP port '%s'", p.Port)
	}

	return &SMTPBackend{
		dialer: gomail.NewDialer(p.Host, port, p.Username, p.Password),
	}, nil
}

// Queue sends the email through the configured SMTP server
func (b *SMTPBackend) Queue(subject, from string, to []string, contentType, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody(contentType, body)

	if err := b.dialer.DialAndSend(m); err != nil {
		return errors.Wrap(err, "sending email")
	}

	return nil
}

// BrowserBackend writes emails to the log instead of delivering them. It is
// used in environments without an SMTP server configured.
type BrowserBackend struct{}

// Queue logs the email
func (b *BrowserBackend) Queue(subject, from string, to []string, contentType, body string) error {
	log.WithFields(log.Fields{
		"subject": subject,
		"from":    from,
		"to":      to,
	}).Info("email delivery skipped because no SMTP server is configured")

	return nil
}
