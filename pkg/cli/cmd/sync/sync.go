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

package sync

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ubaldooc/notae-notes-app/pkg/cli/client"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/context"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/infra"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/localstore"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/log"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/schema"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/syncer"
)

var example = `
  notae sync`

// NewCmd returns a new sync command
func NewCmd(ctx context.NotaeCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Aliases: []string{"s"},
		Short:   "Sync data with the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	return cmd
}

// httpGateway adapts the client package to the syncer's remote surface
type httpGateway struct {
	ctx context.NotaeCtx
}

func (g httpGateway) FetchNotes() ([]schema.Note, error) {
	return client.FetchNotes(g.ctx)
}

func (g httpGateway) FetchGroups() ([]schema.Group, error) {
	return client.FetchGroups(g.ctx)
}

func (g httpGateway) SaveNote(n schema.Note) (schema.Note, error) {
	return client.SaveNote(g.ctx, n)
}

func (g httpGateway) SaveGroup(gr schema.Group) (schema.Group, error) {
	return client.SaveGroup(g.ctx, gr)
}

func newRun(ctx context.NotaeCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		store, err := localstore.Open(ctx.DataDir(), ctx.Identity(), ctx.Clock)
		if err != nil {
			return errors.Wrap(err, "opening the local store")
		}
		defer store.Close()

		var remote syncer.Gateway
		if ctx.LoggedIn() {
			remote = httpGateway{ctx: ctx}
		} else {
			log.Infof("not logged in. Running a local maintenance pass only.\n")
		}

		result, err := syncer.New(store, remote, ctx.Clock).Run()
		if err != nil {
			return errors.Wrap(err, "running sync")
		}

		for _, syncErr := range result.Errors {
			log.Errorf("%v\n", syncErr)
		}

		if result.Repaired > 0 {
			log.Infof("repaired %d records\n", result.Repaired)
		}
		log.Successf("synced. pushed %d, pulled %d\n", result.Pushed, result.Pulled)

		if len(result.Errors) > 0 {
			log.Warnf("%d records failed and will retry on the next sync\n", len(result.Errors))
		}

		return nil
	}
}
