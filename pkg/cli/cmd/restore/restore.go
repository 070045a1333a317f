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

package restore

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ubaldooc/notae-notes-app/pkg/cli/context"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/infra"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/localstore"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/log"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/schema"
)

var example = `
  notae restore note-8e97b5a6-491a-4b61-a3bc-babbbd6606e2`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of arguments")
	}

	return nil
}

// NewCmd returns a new restore command
func NewCmd(ctx context.NotaeCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "restore <note-id>",
		Short:   "Restore a note from the trash",
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	return cmd
}

func newRun(ctx context.NotaeCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		id := args[0]

		store, err := localstore.Open(ctx.DataDir(), ctx.Identity(), ctx.Clock)
		if err != nil {
			return errors.Wrap(err, "opening the local store")
		}
		defer store.Close()

		n, err := store.GetNote(id)
		if err == sql.ErrNoRows {
			log.Errorf("note %s not found\n", id)
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading the note")
		}

		if n.Status != schema.StatusTrashed {
			log.Plainf("%s is not in the trash\n", id)
			return nil
		}

		n.Status = schema.StatusActive
		n.UpdatedAt = schema.FormatTime(ctx.Clock.Now())

		if err := store.PutNote(n); err != nil {
			return errors.Wrap(err, "writing the note")
		}

		log.Successf("restored %s. Run 'notae sync' to propagate.\n", id)

		return nil
	}
}
