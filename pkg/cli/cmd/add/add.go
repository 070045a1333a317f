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

package add

import (
	"database/sql"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ubaldooc/notae-notes-app/pkg/cli/context"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/infra"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/localstore"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/log"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/schema"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/ui"
)

var bodyFlag string
var groupFlag string

var example = `
 * Add a note with its body inline
 notae add "groceries" -b "milk, eggs"

 * Send stdin content to a note
 echo "a branch is just a pointer to a commit" | notae add "git tips"

 * File the note under a group
 notae add "standup notes" -b "..." -g work`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of arguments")
	}

	return nil
}

// NewCmd returns a new add command
func NewCmd(ctx context.NotaeCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <title>",
		Short:   "Add a new note",
		Aliases: []string{"a", "n", "new"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&bodyFlag, "body", "b", "", "The body of the note")
	f.StringVarP(&groupFlag, "group", "g", "", "The name of the group to file the note under")

	return cmd
}

func getBody() (string, error) {
	if bodyFlag != "" {
		return bodyFlag, nil
	}

	// check for piped content
	fInfo, _ := os.Stdin.Stat()
	if fInfo.Mode()&os.ModeCharDevice == 0 {
		c, err := ui.ReadStdInput()
		if err != nil {
			return "", errors.Wrap(err, "getting piped input")
		}
		return c, nil
	}

	var body string
	if err := ui.PromptInput("body", &body); err != nil {
		return "", errors.Wrap(err, "getting body input")
	}

	return body, nil
}

// resolveGroup finds the group with the given name, creating it on first use
func resolveGroup(ctx context.NotaeCtx, store *localstore.Store, name string) (schema.Group, error) {
	groups, err := store.GetAllGroups()
	if err != nil {
		return schema.Group{}, errors.Wrap(err, "reading groups")
	}
	for _, g := range groups {
		if g.Name == name {
			return g, nil
		}
	}

	g := schema.NewGroup(ctx.Clock, name, "", len(groups))
	if err := store.PutGroup(g); err != nil {
		return schema.Group{}, errors.Wrap(err, "creating the group")
	}

	return g, nil
}

func newRun(ctx context.NotaeCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		title := args[0]

		body, err := getBody()
		if err != nil {
			return errors.Wrap(err, "getting body")
		}

		store, err := localstore.Open(ctx.DataDir(), ctx.Identity(), ctx.Clock)
		if err != nil {
			return errors.Wrap(err, "opening the local store")
		}
		defer store.Close()

		n := schema.NewNote(ctx.Clock, title, body)

		if groupFlag != "" {
			g, err := resolveGroup(ctx, store, groupFlag)
			if err != nil {
				return err
			}
			n.GroupID = &g.ID
		}

		if err := store.PutNote(n); err != nil {
			return errors.Wrap(err, "writing the note")
		}

		// writes land locally first; the sync command propagates them
		if _, err := store.GetNote(n.ID); err == sql.ErrNoRows {
			return errors.New("note was not persisted")
		} else if err != nil {
			return errors.Wrap(err, "reading the note back")
		}

		log.Successf("added %s\n", n.ID)

		return nil
	}
}
