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

package state

import (
	"testing"

	"github.com/ubaldooc/notae-notes-app/pkg/assert"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/schema"
)

func TestReduce(t *testing.T) {
	n1 := schema.Note{ID: "note-n1", Title: "one"}
	n2 := schema.Note{ID: "note-n2", Title: "two"}
	g1 := schema.Group{ID: "group-g1", Name: "work"}

	testCases := []struct {
		name     string
		initial  State
		action   Action
		expected State
	}{
		{
			name:    "set data replaces collections",
			initial: State{Notes: []schema.Note{n1}},
			action: Action{
				Type:   ActionSetData,
				Notes:  []schema.Note{n2},
				Groups: []schema.Group{g1},
			},
			expected: State{Notes: []schema.Note{n2}, Groups: []schema.Group{g1}},
		},
		{
			name:     "upsert note inserts",
			initial:  State{Notes: []schema.Note{n1}},
			action:   Action{Type: ActionUpsertNote, Note: n2},
			expected: State{Notes: []schema.Note{n1, n2}},
		},
		{
			name:    "upsert note replaces by id",
			initial: State{Notes: []schema.Note{n1, n2}},
			action: Action{
				Type: ActionUpsertNote,
				Note: schema.Note{ID: "note-n1", Title: "edited"},
			},
			expected: State{Notes: []schema.Note{{ID: "note-n1", Title: "edited"}, n2}},
		},
		{
			name:     "remove note",
			initial:  State{Notes: []schema.Note{n1, n2}},
			action:   Action{Type: ActionRemoveNote, Note: schema.Note{ID: "note-n1"}},
			expected: State{Notes: []schema.Note{n2}},
		},
		{
			name:     "remove notes batch",
			initial:  State{Notes: []schema.Note{n1, n2}},
			action:   Action{Type: ActionRemoveNotes, NoteIDs: []string{"note-n1", "note-n2"}},
			expected: State{},
		},
		{
			name:     "upsert group",
			initial:  State{},
			action:   Action{Type: ActionUpsertGroup, Group: g1},
			expected: State{Groups: []schema.Group{g1}},
		},
		{
			name:     "remove group",
			initial:  State{Groups: []schema.Group{g1}},
			action:   Action{Type: ActionRemoveGroup, GroupID: "group-g1"},
			expected: State{},
		},
		{
			name:    "clear state resets everything",
			initial: State{Notes: []schema.Note{n1}, User: &schema.User{ID: "user-u1"}},
			action:  Action{Type: ActionClearState},
			expected: State{},
		},
		{
			name:     "unknown action leaves state alone",
			initial:  State{Notes: []schema.Note{n1}},
			action:   Action{Type: ActionType("BOGUS")},
			expected: State{Notes: []schema.Note{n1}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Reduce(tc.initial, tc.action)

			assert.DeepEqual(t, got, tc.expected, "reduced state mismatch")
		})
	}
}

func TestReduce_pure(t *testing.T) {
	initial := State{Notes: []schema.Note{{ID: "note-n1", Title: "original"}}}

	_ = Reduce(initial, Action{
		Type: ActionUpsertNote,
		Note: schema.Note{ID: "note-n1", Title: "edited"},
	})

	assert.Equal(t, initial.Notes[0].Title, "original", "reduce must not mutate its input")
}

func TestStore_subscribers(t *testing.T) {
	s := NewStore()

	var order []string
	var observed []State
	s.Subscribe(func(st State) {
		order = append(order, "first")
		observed = append(observed, st)
	})
	s.Subscribe(func(st State) {
		order = append(order, "second")
	})

	s.Dispatch(Action{Type: ActionUpsertNote, Note: schema.Note{ID: "note-n1"}})

	// notification is synchronous and in registration order
	assert.DeepEqual(t, order, []string{"first", "second"}, "notification order mismatch")
	assert.Equal(t, len(observed), 1, "observed state count mismatch")
	assert.Equal(t, len(observed[0].Notes), 1, "subscriber should see the new state")
}

func TestStore_setUser(t *testing.T) {
	s := NewStore()

	u := &schema.User{ID: "user-u1", Email: "alice@example.com"}
	s.Dispatch(Action{Type: ActionSetUser, User: u})
	assert.Equal(t, s.Current().User.ID, "user-u1", "user mismatch")

	s.Dispatch(Action{Type: ActionSetUser, User: nil})
	if s.Current().User != nil {
		t.Error("user should be cleared")
	}
}
