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

package trash

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ubaldooc/notae-notes-app/pkg/cli/client"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/context"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/infra"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/localstore"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/log"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/schema"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/ui"
)

var emptyFlag bool

var example = `
 * Move a note to the trash
 notae trash note-8e97b5a6-491a-4b61-a3bc-babbbd6606e2

 * Permanently delete every trashed note
 notae trash --empty`

func preRun(cmd *cobra.Command, args []string) error {
	if emptyFlag {
		if len(args) != 0 {
			return errors.New("--empty takes no arguments")
		}
		return nil
	}
	if len(args) != 1 {
		return errors.New("Incorrect number of arguments")
	}

	return nil
}

// NewCmd returns a new trash command
func NewCmd(ctx context.NotaeCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "trash <note-id>",
		Short:   "Move a note to the trash",
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVar(&emptyFlag, "empty", false, "permanently delete every trashed note")

	return cmd
}

func emptyTrash(ctx context.NotaeCtx, store *localstore.Store) error {
	trashed, err := store.GetAllNotes(localstore.FilterTrashed)
	if err != nil {
		return errors.Wrap(err, "reading trashed notes")
	}
	if len(trashed) == 0 {
		log.Plain("the trash is empty\n")
		return nil
	}

	ok, err := ui.Confirm("permanently delete all trashed notes?", false)
	if err != nil {
		return errors.Wrap(err, "getting confirmation")
	}
	if !ok {
		log.Plain("aborted\n")
		return nil
	}

	for _, n := range trashed {
		if err := store.DeleteNote(n.ID); err != nil {
			return errors.Wrapf(err, "deleting note %s", n.ID)
		}
	}

	if ctx.LoggedIn() {
		if err := client.EmptyTrash(ctx); err != nil {
			log.Warnf("could not empty the server trash: %v\n", err)
		}
	}

	log.Successf("deleted %d notes\n", len(trashed))

	return nil
}

func newRun(ctx context.NotaeCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		store, err := localstore.Open(ctx.DataDir(), ctx.Identity(), ctx.Clock)
		if err != nil {
			return errors.Wrap(err, "opening the local store")
		}
		defer store.Close()

		if emptyFlag {
			return emptyTrash(ctx, store)
		}

		id := args[0]

		n, err := store.GetNote(id)
		if err == sql.ErrNoRows {
			log.Errorf("note %s not found\n", id)
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading the note")
		}

		if n.Status == schema.StatusTrashed {
			log.Plainf("%s is already in the trash\n", id)
			return nil
		}

		// the timestamp bump is what carries the status change to other
		// devices through the next sync pass
		n.Status = schema.StatusTrashed
		n.UpdatedAt = schema.FormatTime(ctx.Clock.Now())

		if err := store.PutNote(n); err != nil {
			return errors.Wrap(err, "writing the note")
		}

		log.Successf("trashed %s. Run 'notae sync' to propagate.\n", id)

		return nil
	}
}
