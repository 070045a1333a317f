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

package feedback

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ubaldooc/notae-notes-app/pkg/cli/client"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/context"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/infra"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/log"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/ui"
)

var example = `
  notae feedback`

// NewCmd returns a new feedback command
func NewCmd(ctx context.NotaeCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "feedback",
		Short:   "Send feedback to the notae maintainers",
		Example: example,
		RunE:    newRun(ctx),
	}

	return cmd
}

func newRun(ctx context.NotaeCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if !ctx.LoggedIn() {
			log.Error("feedback requires being logged in\n")
			return nil
		}

		var subject, message string
		if err := ui.PromptInput("subject", &subject); err != nil {
			return errors.Wrap(err, "getting subject input")
		}
		if err := ui.PromptInput("message", &message); err != nil {
			return errors.Wrap(err, "getting message input")
		}
		if message == "" {
			return errors.New("Empty message")
		}

		if err := client.SendFeedback(ctx, subject, message); err != nil {
			return errors.Wrap(err, "sending feedback")
		}

		log.Success("feedback sent. Thank you!\n")

		return nil
	}
}
