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

package logout

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ubaldooc/notae-notes-app/pkg/cli/client"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/config"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/context"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/infra"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/log"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/session"
)

var wipeFlag bool

// NewCmd returns a new logout command
func NewCmd(ctx context.NotaeCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Logout from the notae server",
		RunE:  newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVar(&wipeFlag, "wipe", false, "remove this account's local data on logout")

	return cmd
}

func newRun(ctx context.NotaeCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if !ctx.LoggedIn() {
			log.Error("not logged in\n")
			return nil
		}

		// end the server-side session first; the local session falls back to
		// guest even if the server is unreachable
		if err := client.Logout(ctx); err != nil {
			log.Warnf("could not end the server session: %v\n", err)
		}

		manager := session.NewManager(ctx.DataDir(), ctx.Clock)
		defer manager.Close()

		if _, err := manager.Switch(ctx.User.ID); err != nil {
			return errors.Wrap(err, "binding the user store")
		}
		if err := manager.Logout(wipeFlag); err != nil {
			return errors.Wrap(err, "switching to guest")
		}

		cf, err := config.Read(ctx)
		if err != nil {
			return errors.Wrap(err, "reading config")
		}
		cf.SessionKey = ""
		cf.User = nil
		if err := config.Write(ctx, cf); err != nil {
			return errors.Wrap(err, "writing config")
		}

		log.Success("logged out\n")

		return nil
	}
}
