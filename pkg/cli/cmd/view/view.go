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

package view

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ubaldooc/notae-notes-app/pkg/cli/context"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/infra"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/localstore"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/log"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/schema"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/state"
	"github.com/ubaldooc/notae-notes-app/pkg/retention"
)

var trashFlag bool

var example = `
 * List active notes
 notae view

 * List trashed notes with their days until permanent deletion
 notae view --trash`

// NewCmd returns a new view command
func NewCmd(ctx context.NotaeCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "view",
		Aliases: []string{"ls", "v"},
		Short:   "List notes",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVar(&trashFlag, "trash", false, "list trashed notes instead of active ones")

	return cmd
}

// orderNotes sorts for display: pinned first, then manual positions, then
// most recently updated
func orderNotes(notes []schema.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}

		aUnset := a.CustomOrder == schema.CustomOrderUnset
		bUnset := b.CustomOrder == schema.CustomOrderUnset
		if aUnset != bUnset {
			return bUnset
		}
		if !aUnset {
			return a.CustomOrder < b.CustomOrder
		}

		return schema.ParseTime(a.UpdatedAt).After(schema.ParseTime(b.UpdatedAt))
	})
}

func newRun(ctx context.NotaeCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		store, err := localstore.Open(ctx.DataDir(), ctx.Identity(), ctx.Clock)
		if err != nil {
			return errors.Wrap(err, "opening the local store")
		}
		defer store.Close()

		filter := localstore.FilterActive
		if trashFlag {
			filter = localstore.FilterTrashed
		}

		loaded, err := store.GetAllNotes(filter)
		if err != nil {
			return errors.Wrap(err, "reading notes")
		}
		groups, err := store.GetAllGroups()
		if err != nil {
			return errors.Wrap(err, "reading groups")
		}

		stateStore := state.NewStore()
		stateStore.Dispatch(state.Action{
			Type:   state.ActionSetData,
			Notes:  loaded,
			Groups: groups,
		})

		snapshot := stateStore.Current()
		notes := snapshot.Notes

		if len(notes) == 0 {
			log.Plain("no notes\n")
			return nil
		}

		groupNames := make(map[string]string)
		for _, g := range snapshot.Groups {
			groupNames[g.ID] = g.Name
		}

		orderNotes(notes)

		for _, n := range notes {
			marker := " "
			if n.Pinned {
				marker = "*"
			}

			groupName := ""
			if n.GroupID != nil {
				groupName = groupNames[*n.GroupID]
			}

			if trashFlag {
				days := retention.DaysRemaining(schema.ParseTime(n.UpdatedAt), ctx.Clock.Now())
				log.Plainf("%s %s  %s (%d days left)\n", marker, n.ID, n.Title, days)
			} else if groupName != "" {
				log.Plainf("%s %s  %s [%s]\n", marker, n.ID, n.Title, groupName)
			} else {
				log.Plainf("%s %s  %s\n", marker, n.ID, n.Title)
			}
		}

		return nil
	}
}
