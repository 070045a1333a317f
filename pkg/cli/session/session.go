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

// Package session owns the single open store handle and the identity it is
// bound to. All identity transitions go through the Manager, serialized by a
// mutex, so that no two stores are ever open at once and no component reads
// from a store mid-switch.
package session

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/ubaldooc/notae-notes-app/pkg/cli/consts"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/localstore"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/log"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/schema"
	"github.com/ubaldooc/notae-notes-app/pkg/clock"
)

// Observer is notified after the session switches to a new identity.
// Notification is an explicit callback: there is no global event medium.
type Observer func(identity string)

// Manager binds the runtime to one identity's store at a time
type Manager struct {
	mu        sync.Mutex
	dataDir   string
	clock     clock.Clock
	store     *localstore.Store
	identity  string
	observers []Observer
}

// NewManager creates a manager with no store bound yet
func NewManager(dataDir string, clk clock.Clock) *Manager {
	return &Manager{
		dataDir: dataDir,
		clock:   clk,
	}
}

// Subscribe registers an observer for identity switches
func (m *Manager) Subscribe(obs Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.observers = append(m.observers, obs)
}

// Current returns the identity the manager is bound to, or "" before the
// first switch
func (m *Manager) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.identity
}

// Store returns the open store. It is nil before the first switch.
func (m *Manager) Store() *localstore.Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.store
}

// Switch closes the currently bound store, opens the store for the given
// identity and notifies observers. Switching to the already-bound identity
// is a no-op.
func (m *Manager) Switch(identity string) (*localstore.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.switchLocked(identity)
}

func (m *Manager) switchLocked(identity string) (*localstore.Store, error) {
	if identity == m.identity && m.store != nil {
		return m.store, nil
	}

	if m.store != nil {
		if err := m.store.Close(); err != nil {
			return nil, errors.Wrapf(err, "closing store for %s", m.identity)
		}
		m.store = nil
	}

	store, err := localstore.Open(m.dataDir, identity, m.clock)
	if err != nil {
		return nil, errors.Wrapf(err, "opening store for %s", identity)
	}

	m.store = store
	m.identity = identity

	log.Debug("session switched to identity %s\n", identity)

	for _, obs := range m.observers {
		obs(identity)
	}

	return store, nil
}

// HasGuestData reports whether the guest store holds any records. It peeks
// into the guest database without disturbing the current binding.
func (m *Manager) HasGuestData() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.identity == consts.GuestIdentity && m.store != nil {
		notes, groups, err := m.store.CountRecords()
		if err != nil {
			return false, errors.Wrap(err, "counting guest records")
		}
		return notes+groups > 0, nil
	}

	guest, err := localstore.Open(m.dataDir, consts.GuestIdentity, m.clock)
	if err != nil {
		return false, errors.Wrap(err, "opening guest store")
	}
	defer guest.Close()

	notes, groups, err := guest.CountRecords()
	if err != nil {
		return false, errors.Wrap(err, "counting guest records")
	}

	return notes+groups > 0, nil
}

// ImportGuestData copies every guest record into the currently bound user
// store and then erases the guest store. Each record goes through the repair
// path on the way in; a record that fails repair is dropped with a log line
// rather than poisoning the import. Importing from an empty guest store is a
// no-op, which makes the operation safe to retry. The import is local-only:
// imported records reach the server on the next sync pass.
func (m *Manager) ImportGuestData() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store == nil {
		return 0, errors.New("no store bound")
	}
	if m.identity == consts.GuestIdentity {
		return 0, errors.New("cannot import guest data into the guest store")
	}

	guest, err := localstore.Open(m.dataDir, consts.GuestIdentity, m.clock)
	if err != nil {
		return 0, errors.Wrap(err, "opening guest store")
	}
	defer guest.Close()

	notes, err := guest.GetAllNotes(localstore.FilterAll)
	if err != nil {
		return 0, errors.Wrap(err, "reading guest notes")
	}
	groups, err := guest.GetAllGroups()
	if err != nil {
		return 0, errors.Wrap(err, "reading guest groups")
	}

	imported := 0
	for _, g := range groups {
		repaired, err := repairGroup(g, m.clock)
		if err != nil {
			log.Debug("dropping guest group %s: %v\n", g.ID, err)
			continue
		}
		if err := m.store.PutGroup(repaired); err != nil {
			return imported, errors.Wrapf(err, "importing group %s", g.ID)
		}
		imported++
	}
	for _, n := range notes {
		repaired, err := repairNote(n, m.clock)
		if err != nil {
			log.Debug("dropping guest note %s: %v\n", n.ID, err)
			continue
		}
		if err := m.store.PutNote(repaired); err != nil {
			return imported, errors.Wrapf(err, "importing note %s", n.ID)
		}
		imported++
	}

	if err := guest.Erase(); err != nil {
		return imported, errors.Wrap(err, "erasing guest store")
	}

	return imported, nil
}

// Logout rebinds the session to the guest identity. When wipe is set, the
// departing user's local database file is removed so that no account data
// stays behind on a shared machine.
func (m *Manager) Logout(wipe bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store != nil && m.identity != consts.GuestIdentity && wipe {
		if err := m.store.Destroy(); err != nil {
			return errors.Wrapf(err, "destroying store for %s", m.identity)
		}
		m.store = nil
		m.identity = ""
	}

	_, err := m.switchLocked(consts.GuestIdentity)
	return err
}

// Close releases the bound store, if any
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store == nil {
		return nil
	}

	err := m.store.Close()
	m.store = nil
	m.identity = ""

	return err
}

// repairNote funnels a typed record through the structural repair pass.
// Round-tripping through the decoded form keeps import and sync repair on
// one code path.
func repairNote(n schema.Note, clk clock.Clock) (schema.Note, error) {
	raw, err := toRaw(n)
	if err != nil {
		return schema.Note{}, err
	}

	return schema.RepairNote(raw, clk)
}

func repairGroup(g schema.Group, clk clock.Clock) (schema.Group, error) {
	raw, err := toRaw(g)
	if err != nil {
		return schema.Group{}, err
	}

	return schema.RepairGroup(raw, clk)
}

func toRaw(v interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling record")
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, errors.Wrap(err, "unmarshalling record")
	}

	return raw, nil
}
