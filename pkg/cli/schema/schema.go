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

// Package schema defines the note and group records and the repair logic
// that turns arbitrary stored objects into well-formed records.
package schema

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ubaldooc/notae-notes-app/pkg/clock"
)

// Status is the lifecycle state of a note
type Status string

const (
	// StatusActive is the status of a note that is not in the trash
	StatusActive Status = "active"
	// StatusTrashed is the status of a soft-deleted note
	StatusTrashed Status = "trashed"
)

// CustomOrderUnset is the sentinel for a note that has not been assigned a
// manual position. Unset notes sort after every assigned one.
const CustomOrderUnset = -1

// TimeFormat is the wire and storage format for timestamps
const TimeFormat = time.RFC3339

// Note is a user-authored text entity
type Note struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Body        string  `json:"body"`
	CharCount   int     `json:"charCount"`
	Pinned      bool    `json:"pinned"`
	GroupID     *string `json:"groupId"`
	Status      Status  `json:"status"`
	CustomOrder int     `json:"customOrder"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// Group is a named, colored label for organizing notes
type Group struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Order     int    `json:"order"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// User is the account record the authentication boundary yields on login
type User struct {
	ID            string `json:"id" yaml:"id"`
	Email         string `json:"email" yaml:"email"`
	Name          string `json:"name" yaml:"name"`
	Theme         string `json:"theme" yaml:"theme"`
	NoteView      string `json:"noteView" yaml:"noteView"`
	NoteSortOrder string `json:"noteSortOrder" yaml:"noteSortOrder"`
}

// OrderEntry is a single position assignment in a batch reorder
type OrderEntry struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// NewNoteID generates an id for a new note
func NewNoteID() string {
	return "note-" + uuid.New().String()
}

// NewGroupID generates an id for a new group
func NewGroupID() string {
	return "group-" + uuid.New().String()
}

// FormatTime serializes a timestamp into the storage format
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// ParseTime parses a stored timestamp. An unparsable value comes back as the
// zero time so that the other side of a timestamp comparison wins.
func ParseTime(s string) time.Time {
	t, err := time.Parse(TimeFormat, s)
	if err != nil {
		return time.Time{}
	}

	return t
}

// NewNote constructs an active note with generated id and timestamps
func NewNote(clk clock.Clock, title, body string) Note {
	now := FormatTime(clk.Now())

	return Note{
		ID:          NewNoteID(),
		Title:       title,
		Body:        body,
		CharCount:   utf8.RuneCountInString(body),
		Status:      StatusActive,
		CustomOrder: CustomOrderUnset,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewGroup constructs a group with generated id and timestamps
func NewGroup(clk clock.Clock, name, color string, order int) Group {
	now := FormatTime(clk.Now())

	return Group{
		ID:        NewGroupID(),
		Name:      name,
		Color:     color,
		Order:     order,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks that the note can be keyed and stored
func (n Note) Validate() error {
	if n.ID == "" {
		return errors.Wrap(ErrInvalidRecord, "note is missing an id")
	}

	return nil
}

// Validate checks that the group can be keyed and stored
func (g Group) Validate() error {
	if g.ID == "" {
		return errors.Wrap(ErrInvalidRecord, "group is missing an id")
	}
	if g.Name == "" {
		return errors.Wrap(ErrInvalidRecord, "group is missing a name")
	}

	return nil
}

// Normalized returns a copy of the note with derived and defaulted fields in
// a consistent state. It is applied before every local write so that a record
// that fails repair is never persisted half-formed.
func (n Note) Normalized(clk clock.Clock) Note {
	if n.Status != StatusActive && n.Status != StatusTrashed {
		n.Status = StatusActive
	}

	n.CharCount = utf8.RuneCountInString(n.Body)

	if n.CreatedAt == "" {
		n.CreatedAt = FormatTime(clk.Now())
	}
	if n.UpdatedAt == "" {
		n.UpdatedAt = n.CreatedAt
	}

	return n
}

// Normalized returns a copy of the group with defaulted timestamps
func (g Group) Normalized(clk clock.Clock) Group {
	if g.CreatedAt == "" {
		g.CreatedAt = FormatTime(clk.Now())
	}
	if g.UpdatedAt == "" {
		g.UpdatedAt = g.CreatedAt
	}

	return g
}
