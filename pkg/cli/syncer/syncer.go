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

// Package syncer reconciles the local store with the server. Reconciliation
// is last-writer-wins: for every record id present on either side, the copy
// with the newer updatedAt timestamp replaces the older one. Equal timestamps
// mean the sides already agree and nothing moves.
package syncer

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/ubaldooc/notae-notes-app/pkg/cli/localstore"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/log"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/schema"
	"github.com/ubaldooc/notae-notes-app/pkg/clock"
)

// Gateway is the remote surface the engine reconciles against
type Gateway interface {
	FetchNotes() ([]schema.Note, error)
	FetchGroups() ([]schema.Group, error)
	SaveNote(schema.Note) (schema.Note, error)
	SaveGroup(schema.Group) (schema.Group, error)
}

// Result summarizes a sync pass. Notes and Groups are the local state as it
// stands after the pass, re-read from the store so that callers never derive
// state from in-flight intermediates.
type Result struct {
	Pushed   int
	Pulled   int
	Repaired int
	Errors   []error
	Notes    []schema.Note
	Groups   []schema.Group
}

// Engine runs sync passes for one identity's store
type Engine struct {
	store  *localstore.Store
	remote Gateway
	clock  clock.Clock
}

// New creates a sync engine. A nil gateway puts the engine in local-only
// mode: the guest identity never talks to the server.
func New(store *localstore.Store, remote Gateway, clk clock.Clock) *Engine {
	return &Engine{
		store:  store,
		remote: remote,
		clock:  clk,
	}
}

// direction classifies what a single record id needs
type direction int

const (
	directionNone direction = iota
	directionPush
	directionPull
)

// classify decides which side wins for one id. Records present on only one
// side move to the other; records present on both compare updatedAt with
// strict inequality.
func classify(localOK, remoteOK bool, localUpdatedAt, remoteUpdatedAt string) direction {
	switch {
	case localOK && !remoteOK:
		return directionPush
	case !localOK && remoteOK:
		return directionPull
	}

	local := schema.ParseTime(localUpdatedAt)
	remote := schema.ParseTime(remoteUpdatedAt)

	if local.After(remote) {
		return directionPush
	}
	if remote.After(local) {
		return directionPull
	}

	return directionNone
}

// Run performs one full sync pass. Every record operation is isolated: one
// record failing to push or pull is recorded in the result and does not stop
// the rest. The pass settles completely before returning.
func (e *Engine) Run() (Result, error) {
	var ret Result

	if e.remote == nil {
		log.Debug("local-only mode, skipping reconciliation\n")
	} else {
		if err := e.reconcile(&ret); err != nil {
			return ret, err
		}
	}

	repaired, err := e.repairLocal()
	if err != nil {
		return ret, errors.Wrap(err, "repairing local records")
	}
	ret.Repaired = repaired

	collapsed, err := e.store.CollapseDuplicateNotes()
	if err != nil {
		return ret, errors.Wrap(err, "collapsing duplicate notes")
	}
	if collapsed > 0 {
		log.Debug("collapsed %d duplicate note records\n", collapsed)
	}
	if _, err := e.store.CollapseDuplicateGroups(); err != nil {
		return ret, errors.Wrap(err, "collapsing duplicate groups")
	}

	notes, err := e.store.GetAllNotes(localstore.FilterAll)
	if err != nil {
		return ret, errors.Wrap(err, "reading notes after sync")
	}
	groups, err := e.store.GetAllGroups()
	if err != nil {
		return ret, errors.Wrap(err, "reading groups after sync")
	}
	ret.Notes = notes
	ret.Groups = groups

	return ret, nil
}

// reconcile runs the last-writer-wins pass against the server. Failing to
// fetch either collection aborts the pass: without the remote picture there
// is nothing sound to reconcile against.
func (e *Engine) reconcile(ret *Result) error {
	remoteNotes, err := e.remote.FetchNotes()
	if err != nil {
		return errors.Wrap(err, "fetching notes from the server")
	}
	remoteGroups, err := e.remote.FetchGroups()
	if err != nil {
		return errors.Wrap(err, "fetching groups from the server")
	}

	localNotes, err := e.store.GetAllNotes(localstore.FilterAll)
	if err != nil {
		return errors.Wrap(err, "reading local notes")
	}
	localGroups, err := e.store.GetAllGroups()
	if err != nil {
		return errors.Wrap(err, "reading local groups")
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	record := func(dir direction, err error) {
		mu.Lock()
		defer mu.Unlock()

		if err != nil {
			ret.Errors = append(ret.Errors, err)
			return
		}
		switch dir {
		case directionPush:
			ret.Pushed++
		case directionPull:
			ret.Pulled++
		}
	}

	localNoteByID := make(map[string]schema.Note)
	for _, n := range localNotes {
		localNoteByID[n.ID] = n
	}
	remoteNoteByID := make(map[string]schema.Note)
	for _, n := range remoteNotes {
		remoteNoteByID[n.ID] = n
	}

	for _, id := range unionIDs(localNoteByID, remoteNoteByID) {
		local, localOK := localNoteByID[id]
		remote, remoteOK := remoteNoteByID[id]

		dir := classify(localOK, remoteOK, local.UpdatedAt, remote.UpdatedAt)
		if dir == directionNone {
			continue
		}

		wg.Add(1)
		go func(id string, dir direction, local, remote schema.Note) {
			defer wg.Done()

			var err error
			switch dir {
			case directionPush:
				_, err = e.remote.SaveNote(local)
				err = errors.Wrapf(err, "pushing note %s", id)
			case directionPull:
				err = errors.Wrapf(e.store.PutNote(remote), "pulling note %s", id)
			}

			record(dir, err)
		}(id, dir, local, remote)
	}

	localGroupByID := make(map[string]schema.Group)
	for _, g := range localGroups {
		localGroupByID[g.ID] = g
	}
	remoteGroupByID := make(map[string]schema.Group)
	for _, g := range remoteGroups {
		remoteGroupByID[g.ID] = g
	}

	for _, id := range unionGroupIDs(localGroupByID, remoteGroupByID) {
		local, localOK := localGroupByID[id]
		remote, remoteOK := remoteGroupByID[id]

		dir := classify(localOK, remoteOK, local.UpdatedAt, remote.UpdatedAt)
		if dir == directionNone {
			continue
		}

		wg.Add(1)
		go func(id string, dir direction, local, remote schema.Group) {
			defer wg.Done()

			var err error
			switch dir {
			case directionPush:
				_, err = e.remote.SaveGroup(local)
				err = errors.Wrapf(err, "pushing group %s", id)
			case directionPull:
				err = errors.Wrapf(e.store.PutGroup(remote), "pulling group %s", id)
			}

			record(dir, err)
		}(id, dir, local, remote)
	}

	wg.Wait()

	for _, err := range ret.Errors {
		log.Debug("sync error: %v\n", err)
	}

	return nil
}

// repairLocal runs the structural repair pass over the local store. Notes
// carrying an out-of-range status and groups missing timestamps are put back
// into shape and persisted. The repairs never touch updatedAt and never go
// over the wire: a repair is not an edit.
func (e *Engine) repairLocal() (int, error) {
	repaired := 0

	notes, err := e.store.GetAllNotes(localstore.FilterAll)
	if err != nil {
		return 0, errors.Wrap(err, "reading local notes")
	}
	for _, n := range notes {
		if n.Status == schema.StatusActive || n.Status == schema.StatusTrashed {
			continue
		}

		log.Debug("repairing note %s with status %q\n", n.ID, n.Status)
		if err := e.store.PutNote(n.Normalized(e.clock)); err != nil {
			return repaired, errors.Wrapf(err, "repairing note %s", n.ID)
		}
		repaired++
	}

	groups, err := e.store.GetAllGroups()
	if err != nil {
		return repaired, errors.Wrap(err, "reading local groups")
	}
	for _, g := range groups {
		if g.CreatedAt != "" && g.UpdatedAt != "" {
			continue
		}

		log.Debug("repairing group %s with missing timestamps\n", g.ID)
		if err := e.store.PutGroup(g.Normalized(e.clock)); err != nil {
			return repaired, errors.Wrapf(err, "repairing group %s", g.ID)
		}
		repaired++
	}

	return repaired, nil
}

func unionIDs(local, remote map[string]schema.Note) []string {
	seen := make(map[string]bool)
	var ret []string
	for id := range local {
		if !seen[id] {
			seen[id] = true
			ret = append(ret, id)
		}
	}
	for id := range remote {
		if !seen[id] {
			seen[id] = true
			ret = append(ret, id)
		}
	}

	return ret
}

func unionGroupIDs(local, remote map[string]schema.Group) []string {
	seen := make(map[string]bool)
	var ret []string
	for id := range local {
		if !seen[id] {
			seen[id] = true
			ret = append(ret, id)
		}
	}
	for id := range remote {
		if !seen[id] {
			seen[id] = true
			ret = append(ret, id)
		}
	}

	return ret
}
