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

// Package state holds the in-memory application state behind a reducer.
// Every mutation is an action dispatched through a pure reduce function;
// subscribers observe the full new state synchronously, in registration
// order, before Dispatch returns. There is no batching: one action, one
// notification.
package state

import (
	"sync"

	"github.com/ubaldooc/notae-notes-app/pkg/cli/schema"
)

// ActionType names a state transition
type ActionType string

const (
	// ActionSetData replaces the note and group collections wholesale,
	// typically after a sync pass
	ActionSetData ActionType = "SET_DATA"
	// ActionUpsertNote inserts or replaces one note by id
	ActionUpsertNote ActionType = "UPSERT_NOTE"
	// ActionUpsertNotes inserts or replaces a batch of notes by id
	ActionUpsertNotes ActionType = "UPSERT_NOTES"
	// ActionRemoveNote removes one note by id
	ActionRemoveNote ActionType = "REMOVE_NOTE"
	// ActionRemoveNotes removes a batch of notes by id
	ActionRemoveNotes ActionType = "REMOVE_NOTES"
	// ActionUpsertGroup inserts or replaces one group by id
	ActionUpsertGroup ActionType = "UPSERT_GROUP"
	// ActionRemoveGroup removes one group by id
	ActionRemoveGroup ActionType = "REMOVE_GROUP"
	// ActionSetUser sets or clears the authenticated user
	ActionSetUser ActionType = "SET_USER"
	// ActionClearState resets everything, used on identity switches
	ActionClearState ActionType = "CLEAR_STATE"
)

// Action is one state transition with its payload. Only the fields relevant
// to the action's type are read.
type Action struct {
	Type    ActionType
	Note    schema.Note
	Notes   []schema.Note
	Group   schema.Group
	Groups  []schema.Group
	NoteIDs []string
	GroupID string
	User    *schema.User
}

// State is the full application state
type State struct {
	User   *schema.User
	Notes  []schema.Note
	Groups []schema.Group
}

// Subscriber observes the full state after each dispatch
type Subscriber func(State)

// Store dispatches actions and notifies subscribers
type Store struct {
	mu          sync.Mutex
	state       State
	subscribers []Subscriber
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// Subscribe registers a subscriber. It is called synchronously on every
// dispatch from then on.
func (s *Store) Subscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscribers = append(s.subscribers, sub)
}

// Current returns the state as of the last dispatch
func (s *Store) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Dispatch runs the action through the reducer and notifies every
// subscriber with the new state before returning
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	subs := s.subscribers
	s.mu.Unlock()

	for _, sub := range subs {
		sub(next)
	}
}

// Reduce computes the next state. It is pure: the given state is never
// mutated in place and an unknown action returns it unchanged.
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionSetData:
		s.Notes = copyNotes(a.Notes)
		s.Groups = copyGroups(a.Groups)
	case ActionUpsertNote:
		s.Notes = upsertNotes(s.Notes, []schema.Note{a.Note})
	case ActionUpsertNotes:
		s.Notes = upsertNotes(s.Notes, a.Notes)
	case ActionRemoveNote:
		s.Notes = removeNotes(s.Notes, []string{a.Note.ID})
	case ActionRemoveNotes:
		s.Notes = removeNotes(s.Notes, a.NoteIDs)
	case ActionUpsertGroup:
		s.Groups = upsertGroups(s.Groups, a.Group)
	case ActionRemoveGroup:
		s.Groups = removeGroup(s.Groups, a.GroupID)
	case ActionSetUser:
		s.User = a.User
	case ActionClearState:
		s = State{}
	}

	return s
}

func copyNotes(notes []schema.Note) []schema.Note {
	if notes == nil {
		return nil
	}

	ret := make([]schema.Note, len(notes))
	copy(ret, notes)
	return ret
}

func copyGroups(groups []schema.Group) []schema.Group {
	if groups == nil {
		return nil
	}

	ret := make([]schema.Group, len(groups))
	copy(ret, groups)
	return ret
}

func upsertNotes(existing []schema.Note, incoming []schema.Note) []schema.Note {
	ret := copyNotes(existing)

	for _, n := range incoming {
		replaced := false
		for i := range ret {
			if ret[i].ID == n.ID {
				ret[i] = n
				replaced = true
				break
			}
		}
		if !replaced {
			ret = append(ret, n)
		}
	}

	return ret
}

func removeNotes(existing []schema.Note, ids []string) []schema.Note {
	removing := make(map[string]bool)
	for _, id := range ids {
		removing[id] = true
	}

	var ret []schema.Note
	for _, n := range existing {
		if !removing[n.ID] {
			ret = append(ret, n)
		}
	}

	return ret
}

func upsertGroups(existing []schema.Group, g schema.Group) []schema.Group {
	ret := copyGroups(existing)

	for i := range ret {
		if ret[i].ID == g.ID {
			ret[i] = g
			return ret
		}
	}

	return append(ret, g)
}

func removeGroup(existing []schema.Group, id string) []schema.Group {
	var ret []schema.Group
	for _, g := range existing {
		if g.ID != id {
			ret = append(ret, g)
		}
	}

	return ret
}
