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

package login

import (
	"net/url"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ubaldooc/notae-notes-app/pkg/cli/client"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/config"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/context"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/infra"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/log"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/session"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/ui"
)

var example = `
  notae login`

// NewCmd returns a new login command
func NewCmd(ctx context.NotaeCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Login to the notae server",
		Example: example,
		RunE:    newRun(ctx),
	}

	return cmd
}

// getServerDisplayURL derives a user-facing server URL from the api endpoint
func getServerDisplayURL(ctx context.NotaeCtx) string {
	u, err := url.Parse(ctx.APIEndpoint)
	if err != nil {
		return ""
	}
	if u.Scheme == "" || u.Host == "" {
		return ""
	}

	return u.Scheme + "://" + u.Host
}

func newRun(ctx context.NotaeCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if displayURL := getServerDisplayURL(ctx); displayURL != "" {
			log.Infof("logging in to %s\n", displayURL)
		}

		var email, password string
		if err := ui.PromptInput("email", &email); err != nil {
			return errors.Wrap(err, "getting email input")
		}
		if email == "" {
			return errors.New("Email is empty")
		}

		if err := ui.PromptPassword("password", &password); err != nil {
			return errors.Wrap(err, "getting password input")
		}
		if password == "" {
			return errors.New("Password is empty")
		}

		resp, err := client.Login(ctx, email, password)
		if err == client.ErrInvalidLogin {
			log.Error("wrong credentials\n")
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "logging in")
		}

		manager := session.NewManager(ctx.DataDir(), ctx.Clock)
		defer manager.Close()

		if _, err := manager.Switch(resp.User.ID); err != nil {
			return errors.Wrap(err, "binding the user store")
		}

		hasGuestData, err := manager.HasGuestData()
		if err != nil {
			return errors.Wrap(err, "checking for guest data")
		}
		if hasGuestData {
			ok, err := ui.Confirm("keep the notes you made before logging in?", true)
			if err != nil {
				return errors.Wrap(err, "getting confirmation")
			}
			if ok {
				imported, err := manager.ImportGuestData()
				if err != nil {
					return errors.Wrap(err, "importing guest data")
				}
				log.Infof("imported %d records. They will reach the server on the next sync.\n", imported)
			}
		}

		cf, err := config.Read(ctx)
		if err != nil {
			return errors.Wrap(err, "reading config")
		}
		cf.SessionKey = resp.Key
		cf.User = &resp.User
		if err := config.Write(ctx, cf); err != nil {
			return errors.Wrap(err, "writing config")
		}

		log.Success("logged in\n")

		return nil
	}
}
