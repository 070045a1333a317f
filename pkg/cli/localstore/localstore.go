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

// Package localstore provides the durable per-identity storage of notes and
// groups. Each identity (guest or an authenticated user id) owns a separate
// database file; the two never share records.
package localstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// sqlite driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/ubaldooc/notae-notes-app/pkg/cli/log"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/schema"
	"github.com/ubaldooc/notae-notes-app/pkg/clock"
)

// StatusFilter selects notes by their lifecycle state
type StatusFilter string

const (
	// FilterAll selects notes regardless of status
	FilterAll StatusFilter = ""
	// FilterActive selects notes that are not in the trash
	FilterActive StatusFilter = StatusFilter(schema.StatusActive)
	// FilterTrashed selects soft-deleted notes
	FilterTrashed StatusFilter = StatusFilter(schema.StatusTrashed)
)

// Store is a handle to one identity's database. It is owned by the session
// manager, which is the only component allowed to open and close it.
type Store struct {
	db       *sql.DB
	identity string
	path     string
	clock    clock.Clock
}

// DBPath returns the database file path for the given identity
func DBPath(dataDir, identity string) string {
	return filepath.Join(dataDir, fmt.Sprintf("notae-%s.db", identity))
}

// Open opens, creating if necessary, the database for the given identity.
// Failing to open is fatal for persistence and must be surfaced loudly by
// the caller.
func Open(dataDir, identity string, clk clock.Clock) (*Store, error) {
	if identity == "" {
		return nil, errors.New("opening store: empty identity")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating data directory at %s", dataDir)
	}

	path := DBPath(dataDir, identity)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening database at %s", path)
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrapf(err, "connecting to database at %s", path)
	}

	s := &Store{
		db:       db,
		identity: identity,
		path:     path,
		clock:    clk,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing schema")
	}

	return s, nil
}

// initSchema creates the tables and indexes if they are missing.
// The id columns are deliberately not unique: duplicate ids are a defect
// state left behind by crashed syncs that the store must be able to hold and
// later heal, rather than fail on.
func (s *Store) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS notes
		(
			seq integer PRIMARY KEY AUTOINCREMENT,
			id text NOT NULL,
			title text NOT NULL,
			body text NOT NULL,
			char_count integer NOT NULL DEFAULT 0,
			pinned bool NOT NULL DEFAULT false,
			group_id text,
			status text NOT NULL DEFAULT 'active',
			custom_order integer NOT NULL DEFAULT -1,
			created_at text NOT NULL,
			updated_at text NOT NULL
		)`)
	if err != nil {
		return errors.Wrap(err, "creating notes table")
	}

	_, err = s.db.Exec(`CREATE TABLE IF NOT EXISTS groups
		(
			seq integer PRIMARY KEY AUTOINCREMENT,
			id text NOT NULL,
			name text NOT NULL,
			color text NOT NULL DEFAULT '',
			"order" integer NOT NULL DEFAULT 0,
			created_at text NOT NULL,
			updated_at text NOT NULL
		)`)
	if err != nil {
		return errors.Wrap(err, "creating groups table")
	}

	_, err = s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_notes_id ON notes(id);
		CREATE INDEX IF NOT EXISTS idx_notes_group_id ON notes(group_id);
		CREATE INDEX IF NOT EXISTS idx_notes_status ON notes(status);
		CREATE INDEX IF NOT EXISTS idx_notes_updated_at ON notes(updated_at);
		CREATE INDEX IF NOT EXISTS idx_notes_custom_order ON notes(custom_order);
		CREATE INDEX IF NOT EXISTS idx_groups_id ON groups(id);
		CREATE INDEX IF NOT EXISTS idx_groups_order ON groups("order");`)
	if err != nil {
		return errors.Wrap(err, "creating indices")
	}

	return nil
}

// Identity returns the identity key this store is bound to
func (s *Store) Identity() string {
	return s.identity
}

// Close closes the database handle
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, "closing database")
	}

	return nil
}

// Destroy closes the store and irreversibly removes its database file
func (s *Store) Destroy() error {
	if err := s.Close(); err != nil {
		return err
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing database file at %s", s.path)
	}

	return nil
}

// PutNote upserts the note by its id. The record goes through validation and
// normalization first; a record that fails is logged and never written.
func (s *Store) PutNote(n schema.Note) error {
	if err := n.Validate(); err != nil {
		log.Debug("refusing to write invalid note: %v\n", err)
		return errors.Wrap(err, "validating note")
	}

	n = n.Normalized(s.clock)

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	res, err := tx.Exec(`UPDATE notes SET title = ?, body = ?, char_count = ?, pinned = ?, group_id = ?,
		status = ?, custom_order = ?, created_at = ?, updated_at = ? WHERE id = ?`,
		n.Title, n.Body, n.CharCount, n.Pinned, n.GroupID, n.Status, n.CustomOrder, n.CreatedAt, n.UpdatedAt, n.ID)
	if err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "updating note %s", n.ID)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "counting affected rows")
	}

	if affected == 0 {
		_, err = tx.Exec(`INSERT INTO notes (id, title, body, char_count, pinned, group_id, status, custom_order, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			n.ID, n.Title, n.Body, n.CharCount, n.Pinned, n.GroupID, n.Status, n.CustomOrder, n.CreatedAt, n.UpdatedAt)
		if err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "inserting note %s", n.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}

// PutGroup upserts the group by its id after validation and normalization
func (s *Store) PutGroup(g schema.Group) error {
	if err := g.Validate(); err != nil {
		log.Debug("refusing to write invalid group: %v\n", err)
		return errors.Wrap(err, "validating group")
	}

	g = g.Normalized(s.clock)

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	res, err := tx.Exec(`UPDATE groups SET name = ?, color = ?, "order" = ?, created_at = ?, updated_at = ? WHERE id = ?`,
		g.Name, g.Color, g.Order, g.CreatedAt, g.UpdatedAt, g.ID)
	if err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "updating group %s", g.ID)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "counting affected rows")
	}

	if affected == 0 {
		_, err = tx.Exec(`INSERT INTO groups (id, name, color, "order", created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			g.ID, g.Name, g.Color, g.Order, g.CreatedAt, g.UpdatedAt)
		if err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "inserting group %s", g.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}

const noteColumns = "id, title, body, char_count, pinned, group_id, status, custom_order, created_at, updated_at"

func scanNote(row interface{ Scan(...interface{}) error }) (schema.Note, error) {
	var n schema.Note
	err := row.Scan(&n.ID, &n.Title, &n.Body, &n.CharCount, &n.Pinned, &n.GroupID, &n.Status, &n.CustomOrder, &n.CreatedAt, &n.UpdatedAt)

	return n, err
}

// GetNote retrieves a note by its id. sql.ErrNoRows is returned when the
// note does not exist.
func (s *Store) GetNote(id string) (schema.Note, error) {
	row := s.db.QueryRow(fmt.Sprintf("SELECT %s FROM notes WHERE id = ? ORDER BY created_at DESC, seq DESC LIMIT 1", noteColumns), id)

	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return n, err
	}
	if err != nil {
		return n, errors.Wrapf(err, "querying note %s", id)
	}

	return n, nil
}

// GetAllNotes returns all notes, optionally filtered by status
func (s *Store) GetAllNotes(filter StatusFilter) ([]schema.Note, error) {
	query := fmt.Sprintf("SELECT %s FROM notes", noteColumns)
	var args []interface{}
	if filter != FilterAll {
		query += " WHERE status = ?"
		args = append(args, string(filter))
	}
	query += " ORDER BY updated_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying notes")
	}
	defer rows.Close()

	var ret []schema.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning a note row")
		}

		ret = append(ret, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating note rows")
	}

	return ret, nil
}

// DeleteNote removes the note with the given id permanently
func (s *Store) DeleteNote(id string) error {
	if _, err := s.db.Exec("DELETE FROM notes WHERE id = ?", id); err != nil {
		return errors.Wrapf(err, "deleting note %s", id)
	}

	return nil
}

// NotesByGroup returns all active notes referencing the given group
func (s *Store) NotesByGroup(groupID string) ([]schema.Note, error) {
	rows, err := s.db.Query(fmt.Sprintf("SELECT %s FROM notes WHERE group_id = ? AND status = ?", noteColumns),
		groupID, string(schema.StatusActive))
	if err != nil {
		return nil, errors.Wrapf(err, "querying notes of group %s", groupID)
	}
	defer rows.Close()

	var ret []schema.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning a note row")
		}

		ret = append(ret, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating note rows")
	}

	return ret, nil
}

// GetGroup retrieves a group by its id
func (s *Store) GetGroup(id string) (schema.Group, error) {
	var g schema.Group
	err := s.db.QueryRow(`SELECT id, name, color, "order", created_at, updated_at FROM groups WHERE id = ? ORDER BY created_at DESC, seq DESC LIMIT 1`, id).
		Scan(&g.ID, &g.Name, &g.Color, &g.Order, &g.CreatedAt, &g.UpdatedAt)
	if err == sql.ErrNoRows {
		return g, err
	}
	if err != nil {
		return g, errors.Wrapf(err, "querying group %s", id)
	}

	return g, nil
}

// GetAllGroups returns all groups in display order
func (s *Store) GetAllGroups() ([]schema.Group, error) {
	rows, err := s.db.Query(`SELECT id, name, color, "order", created_at, updated_at FROM groups ORDER BY "order" ASC, seq ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	defer rows.Close()

	var ret []schema.Group
	for rows.Next() {
		var g schema.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Color, &g.Order, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning a group row")
		}

		ret = append(ret, g)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterating group rows")
	}

	return ret, nil
}

// BulkUpdateNoteOrder atomically assigns manual positions to a batch of
// notes. Either every entry applies or none does; readers never observe a
// partial ordering.
func (s *Store) BulkUpdateNoteOrder(entries []schema.OrderEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	for _, entry := range entries {
		if _, err := tx.Exec("UPDATE notes SET custom_order = ? WHERE id = ?", entry.Order, entry.ID); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "updating order of note %s", entry.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}

// BulkUpdateGroupOrder atomically assigns display positions to a batch of groups
func (s *Store) BulkUpdateGroupOrder(entries []schema.OrderEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	for _, entry := range entries {
		if _, err := tx.Exec(`UPDATE groups SET "order" = ? WHERE id = ?`, entry.Order, entry.ID); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "updating order of group %s", entry.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}

// DeleteGroupCascade removes the group and, within the same transaction,
// reassigns every note referencing it to no group. A crash mid-operation
// must never leave notes pointing at a nonexistent group. It returns the ids
// of the affected notes so the caller can update derived state.
func (s *Store) DeleteGroupCascade(groupID string) ([]string, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "beginning a transaction")
	}

	rows, err := tx.Query("SELECT id FROM notes WHERE group_id = ?", groupID)
	if err != nil {
		tx.Rollback()
		return nil, errors.Wrapf(err, "querying notes of group %s", groupID)
	}

	var affected []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			tx.Rollback()
			return nil, errors.Wrap(err, "scanning a note id")
		}

		affected = append(affected, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		tx.Rollback()
		return nil, errors.Wrap(err, "iterating note ids")
	}
	rows.Close()

	if _, err := tx.Exec("UPDATE notes SET group_id = NULL WHERE group_id = ?", groupID); err != nil {
		tx.Rollback()
		return nil, errors.Wrapf(err, "detaching notes from group %s", groupID)
	}

	if _, err := tx.Exec("DELETE FROM groups WHERE id = ?", groupID); err != nil {
		tx.Rollback()
		return nil, errors.Wrapf(err, "deleting group %s", groupID)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}

	return affected, nil
}

// CollapseDuplicateNotes is a self-healing maintenance pass. For every note
// id stored more than once, only the record with the latest createdAt
// survives. Safe to run redundantly.
func (s *Store) CollapseDuplicateNotes() (int, error) {
	return s.collapseDuplicates("notes")
}

// CollapseDuplicateGroups is the group analogue of CollapseDuplicateNotes
func (s *Store) CollapseDuplicateGroups() (int, error) {
	return s.collapseDuplicates("groups")
}

func (s *Store) collapseDuplicates(table string) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, errors.Wrap(err, "beginning a transaction")
	}

	rows, err := tx.Query(fmt.Sprintf("SELECT id FROM %s GROUP BY id HAVING count(*) > 1", table))
	if err != nil {
		tx.Rollback()
		return 0, errors.Wrap(err, "querying duplicate ids")
	}

	var dupIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			tx.Rollback()
			return 0, errors.Wrap(err, "scanning a duplicate id")
		}

		dupIDs = append(dupIDs, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		tx.Rollback()
		return 0, errors.Wrap(err, "iterating duplicate ids")
	}
	rows.Close()

	removed := 0
	for _, id := range dupIDs {
		log.Debug("collapsing duplicate records for id %s in %s\n", id, table)

		res, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND seq NOT IN
			(SELECT seq FROM %s WHERE id = ? ORDER BY created_at DESC, seq DESC LIMIT 1)`, table, table), id, id)
		if err != nil {
			tx.Rollback()
			return 0, errors.Wrapf(err, "collapsing duplicates for id %s", id)
		}

		n, err := res.RowsAffected()
		if err != nil {
			tx.Rollback()
			return 0, errors.Wrap(err, "counting removed rows")
		}
		removed += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing transaction")
	}

	return removed, nil
}

// Erase removes every record while keeping the store open. Used when guest
// data has been imported into a user store and must not linger.
func (s *Store) Erase() error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	if _, err := tx.Exec("DELETE FROM notes"); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "erasing notes")
	}
	if _, err := tx.Exec("DELETE FROM groups"); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "erasing groups")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}

// CountRecords returns the number of stored notes and groups
func (s *Store) CountRecords() (int, int, error) {
	var notes, groups int
	if err := s.db.QueryRow("SELECT count(*) FROM notes").Scan(&notes); err != nil {
		return 0, 0, errors.Wrap(err, "counting notes")
	}
	if err := s.db.QueryRow("SELECT count(*) FROM groups").Scan(&groups); err != nil {
		return 0, 0, errors.Wrap(err, "counting groups")
	}

	return notes, groups, nil
}

// insertNoteRaw writes a note row bypassing the upsert. It exists so that
// tests and the duplicate-collapse pass can reproduce the defect state of
// multiple rows sharing an id.
func (s *Store) insertNoteRaw(n schema.Note) error {
	_, err := s.db.Exec(`INSERT INTO notes (id, title, body, char_count, pinned, group_id, status, custom_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.Body, n.CharCount, n.Pinned, n.GroupID, n.Status, n.CustomOrder, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return errors.Wrapf(err, "inserting note %s", n.ID)
	}

	return nil
}
