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

package schema

import (
	"github.com/pkg/errors"

	"github.com/ubaldooc/notae-notes-app/pkg/clock"
)

// ErrInvalidRecord is an error for a record that fails the required-field
// check of repair. Such a record cannot be synthesized safely and must be
// rejected as a whole.
var ErrInvalidRecord = errors.New("invalid record")

// requiredNoteFields cannot be defaulted; their absence rejects the record
var requiredNoteFields = []string{"id", "title", "body"}

// requiredGroupFields cannot be defaulted; their absence rejects the record
var requiredGroupFields = []string{"id", "name"}

// RepairNote validates an arbitrary decoded object claiming to be a note and
// returns a fully populated, type-correct note. Required fields missing or
// mistyped reject the whole object. Optional fields are copied verbatim when
// well-typed and silently replaced by their defaults otherwise. The function
// is pure and idempotent: repairing its own output changes nothing.
func RepairNote(raw map[string]interface{}, clk clock.Clock) (Note, error) {
	if raw == nil {
		return Note{}, errors.Wrap(ErrInvalidRecord, "not an object")
	}

	for _, field := range requiredNoteFields {
		if _, ok := stringValue(raw, field); !ok {
			return Note{}, errors.Wrapf(ErrInvalidRecord, "required field %q is missing or mistyped", field)
		}
	}

	now := FormatTime(clk.Now())

	n := Note{
		CharCount:   intField(raw, "charCount", 0),
		Pinned:      boolField(raw, "pinned", false),
		GroupID:     groupIDField(raw),
		Status:      Status(stringField(raw, "status", string(StatusActive))),
		CustomOrder: intField(raw, "customOrder", CustomOrderUnset),
		CreatedAt:   stringField(raw, "createdAt", now),
		UpdatedAt:   stringField(raw, "updatedAt", now),
	}
	n.ID, _ = stringValue(raw, "id")
	n.Title, _ = stringValue(raw, "title")
	n.Body, _ = stringValue(raw, "body")

	// recovery policy for legacy records carrying an unknown status
	if n.Status != StatusActive && n.Status != StatusTrashed {
		n.Status = StatusActive
	}

	return n, nil
}

// RepairGroup is the group analogue of RepairNote
func RepairGroup(raw map[string]interface{}, clk clock.Clock) (Group, error) {
	if raw == nil {
		return Group{}, errors.Wrap(ErrInvalidRecord, "not an object")
	}

	for _, field := range requiredGroupFields {
		if _, ok := stringValue(raw, field); !ok {
			return Group{}, errors.Wrapf(ErrInvalidRecord, "required field %q is missing or mistyped", field)
		}
	}

	now := FormatTime(clk.Now())

	g := Group{
		Color:     stringField(raw, "color", ""),
		Order:     intField(raw, "order", 0),
		CreatedAt: stringField(raw, "createdAt", now),
		UpdatedAt: stringField(raw, "updatedAt", now),
	}
	g.ID, _ = stringValue(raw, "id")
	g.Name, _ = stringValue(raw, "name")

	return g, nil
}

func stringValue(raw map[string]interface{}, key string) (string, bool) {
	v, ok := raw[key]
	if !ok {
		return "", false
	}

	s, ok := v.(string)
	return s, ok
}

func stringField(raw map[string]interface{}, key, defaultValue string) string {
	if s, ok := stringValue(raw, key); ok {
		return s
	}

	return defaultValue
}

// intField reads a numeric field. Numbers decoded from JSON arrive as
// float64; integers stored natively are accepted too.
func intField(raw map[string]interface{}, key string, defaultValue int) int {
	switch v := raw[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return defaultValue
	}
}

func boolField(raw map[string]interface{}, key string, defaultValue bool) bool {
	if b, ok := raw[key].(bool); ok {
		return b
	}

	return defaultValue
}

// groupIDField reads the nullable group reference. A string is a reference,
// an explicit null or anything malformed means ungrouped.
func groupIDField(raw map[string]interface{}) *string {
	if s, ok := raw["groupId"].(string); ok {
		return &s
	}

	return nil
}
