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

package localstore

import (
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/ubaldooc/notae-notes-app/pkg/assert"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/schema"
	"github.com/ubaldooc/notae-notes-app/pkg/clock"
)

func mustOpen(t *testing.T, identity string) *Store {
	t.Helper()

	s, err := Open(t.TempDir(), identity, clock.NewMock())
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening store"))
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestOpen_separateIdentities(t *testing.T) {
	dir := t.TempDir()
	clk := clock.NewMock()

	guest, err := Open(dir, "guest", clk)
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening guest store"))
	}
	defer guest.Close()

	user, err := Open(dir, "user-u1", clk)
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening user store"))
	}
	defer user.Close()

	if err := guest.PutNote(schema.NewNote(clk, "guest note", "body")); err != nil {
		t.Fatal(errors.Wrap(err, "putting guest note"))
	}

	notes, err := user.GetAllNotes(FilterAll)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting user notes"))
	}

	assert.Equal(t, len(notes), 0, "user store should not see guest records")
}

func TestOpen_emptyIdentity(t *testing.T) {
	_, err := Open(t.TempDir(), "", clock.NewMock())

	assert.NotEqual(t, err, nil, "expected an error")
}

func TestPutNote_upsert(t *testing.T) {
	s := mustOpen(t, "guest")
	clk := clock.NewMock()

	n := schema.NewNote(clk, "title", "body")
	if err := s.PutNote(n); err != nil {
		t.Fatal(errors.Wrap(err, "putting note"))
	}

	n.Body = "updated body"
	n.UpdatedAt = schema.FormatTime(clk.Now().Add(time.Hour))
	if err := s.PutNote(n); err != nil {
		t.Fatal(errors.Wrap(err, "putting note again"))
	}

	notes, groups, err := s.CountRecords()
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting records"))
	}
	assert.Equal(t, notes, 1, "note count mismatch")
	assert.Equal(t, groups, 0, "group count mismatch")

	got, err := s.GetNote(n.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting note"))
	}
	assert.Equal(t, got.Body, "updated body", "body mismatch")
	assert.Equal(t, got.CharCount, len("updated body"), "charCount mismatch")
}

func TestPutNote_invalid(t *testing.T) {
	s := mustOpen(t, "guest")

	err := s.PutNote(schema.Note{Title: "no id"})

	assert.Equal(t, errors.Cause(err), schema.ErrInvalidRecord, "expected rejection")

	notes, _, err := s.CountRecords()
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting records"))
	}
	assert.Equal(t, notes, 0, "invalid note must not be persisted")
}

func TestGetNote_missing(t *testing.T) {
	s := mustOpen(t, "guest")

	_, err := s.GetNote("note-nonexistent")

	assert.Equal(t, err, sql.ErrNoRows, "expected sql.ErrNoRows")
}

func TestGetAllNotes_filter(t *testing.T) {
	s := mustOpen(t, "guest")
	clk := clock.NewMock()

	active := schema.NewNote(clk, "active", "a")
	trashed := schema.NewNote(clk, "trashed", "t")
	trashed.Status = schema.StatusTrashed

	for _, n := range []schema.Note{active, trashed} {
		if err := s.PutNote(n); err != nil {
			t.Fatal(errors.Wrap(err, "putting note"))
		}
	}

	testCases := []struct {
		filter   StatusFilter
		expected int
	}{
		{filter: FilterAll, expected: 2},
		{filter: FilterActive, expected: 1},
		{filter: FilterTrashed, expected: 1},
	}

	for _, tc := range testCases {
		got, err := s.GetAllNotes(tc.filter)
		if err != nil {
			t.Fatal(errors.Wrap(err, "getting notes"))
		}

		assert.Equal(t, len(got), tc.expected, "note count mismatch")
	}
}

func TestDeleteGroupCascade(t *testing.T) {
	s := mustOpen(t, "guest")
	clk := clock.NewMock()

	g := schema.NewGroup(clk, "work", "#ff0000", 0)
	if err := s.PutGroup(g); err != nil {
		t.Fatal(errors.Wrap(err, "putting group"))
	}

	grouped := schema.NewNote(clk, "grouped", "b")
	grouped.GroupID = &g.ID
	loose := schema.NewNote(clk, "loose", "b")
	for _, n := range []schema.Note{grouped, loose} {
		if err := s.PutNote(n); err != nil {
			t.Fatal(errors.Wrap(err, "putting note"))
		}
	}

	affected, err := s.DeleteGroupCascade(g.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "deleting group"))
	}

	assert.DeepEqual(t, affected, []string{grouped.ID}, "affected ids mismatch")

	if _, err := s.GetGroup(g.ID); err != sql.ErrNoRows {
		t.Errorf("group should be gone, got err %v", err)
	}

	got, err := s.GetNote(grouped.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting note"))
	}
	if got.GroupID != nil {
		t.Errorf("note should be detached, got group %s", *got.GroupID)
	}
}

func TestBulkUpdateNoteOrder(t *testing.T) {
	s := mustOpen(t, "guest")
	clk := clock.NewMock()

	n1 := schema.NewNote(clk, "first", "b")
	n2 := schema.NewNote(clk, "second", "b")
	for _, n := range []schema.Note{n1, n2} {
		if err := s.PutNote(n); err != nil {
			t.Fatal(errors.Wrap(err, "putting note"))
		}
	}

	err := s.BulkUpdateNoteOrder([]schema.OrderEntry{
		{ID: n1.ID, Order: 1},
		{ID: n2.ID, Order: 0},
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "bulk updating order"))
	}

	got1, err := s.GetNote(n1.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting note"))
	}
	got2, err := s.GetNote(n2.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting note"))
	}

	assert.Equal(t, got1.CustomOrder, 1, "order mismatch")
	assert.Equal(t, got2.CustomOrder, 0, "order mismatch")
	// reorder must not disturb the write clock
	assert.Equal(t, got1.UpdatedAt, n1.UpdatedAt, "updatedAt must be untouched")
}

func TestCollapseDuplicateNotes(t *testing.T) {
	s := mustOpen(t, "guest")
	clk := clock.NewMock()

	older := schema.NewNote(clk, "older", "b")
	older.ID = "note-dup"
	newer := older
	newer.Title = "newer"
	newer.CreatedAt = schema.FormatTime(clk.Now().Add(time.Hour))

	for _, n := range []schema.Note{older, newer} {
		if err := s.insertNoteRaw(n); err != nil {
			t.Fatal(errors.Wrap(err, "inserting raw note"))
		}
	}

	removed, err := s.CollapseDuplicateNotes()
	if err != nil {
		t.Fatal(errors.Wrap(err, "collapsing duplicates"))
	}
	assert.Equal(t, removed, 1, "removed count mismatch")

	notes, _, err := s.CountRecords()
	if err != nil {
		t.Fatal(errors.Wrap(err, "counting records"))
	}
	assert.Equal(t, notes, 1, "note count mismatch")

	got, err := s.GetNote("note-dup")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting note"))
	}
	assert.Equal(t, got.Title, "newer", "latest createdAt should survive")

	// a second pass finds nothing to heal
	removed, err = s.CollapseDuplicateNotes()
	if err != nil {
		t.Fatal(errors.Wrap(err, "collapsing duplicates again"))
	}
	assert.Equal(t, removed, 0, "second pass should be a no-op")
}

func TestDestroy(t *testing.T) {
	dir := t.TempDir()
	clk := clock.NewMock()

	s, err := Open(dir, "guest", clk)
	if err != nil {
		t.Fatal(errors.Wrap(err, "opening store"))
	}
	if err := s.PutNote(schema.NewNote(clk, "t", "b")); err != nil {
		t.Fatal(errors.Wrap(err, "putting note"))
	}

	if err := s.Destroy(); err != nil {
		t.Fatal(errors.Wrap(err, "destroying store"))
	}

	if _, err := os.Stat(DBPath(dir, "guest")); !os.IsNotExist(err) {
		t.Errorf("database file should be removed, got err %v", err)
	}
}
