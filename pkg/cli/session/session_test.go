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

package session

import (
	"os"
	"testing"

	"github.com/pkg/errors"

	"github.com/ubaldooc/notae-notes-app/pkg/assert"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/consts"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/localstore"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/schema"
	"github.com/ubaldooc/notae-notes-app/pkg/clock"
)

func TestSwitch(t *testing.T) {
	clk := clock.NewMock()
	m := NewManager(t.TempDir(), clk)
	defer m.Close()

	var notified []string
	m.Subscribe(func(identity string) {
		notified = append(notified, identity)
	})

	guest, err := m.Switch(consts.GuestIdentity)
	if err != nil {
		t.Fatal(errors.Wrap(err, "switching to guest"))
	}
	if err := guest.PutNote(schema.NewNote(clk, "guest note", "b")); err != nil {
		t.Fatal(errors.Wrap(err, "putting guest note"))
	}

	user, err := m.Switch("user-u1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "switching to user"))
	}

	assert.Equal(t, m.Current(), "user-u1", "current identity mismatch")
	assert.DeepEqual(t, notified, []string{consts.GuestIdentity, "user-u1"}, "observer calls mismatch")

	notes, err := user.GetAllNotes(localstore.FilterAll)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting user notes"))
	}
	assert.Equal(t, len(notes), 0, "user store must not see guest records")
}

func TestSwitch_sameIdentityNoop(t *testing.T) {
	clk := clock.NewMock()
	m := NewManager(t.TempDir(), clk)
	defer m.Close()

	var notified int
	m.Subscribe(func(string) {
		notified++
	})

	first, err := m.Switch(consts.GuestIdentity)
	if err != nil {
		t.Fatal(errors.Wrap(err, "switching"))
	}
	second, err := m.Switch(consts.GuestIdentity)
	if err != nil {
		t.Fatal(errors.Wrap(err, "switching again"))
	}

	if first != second {
		t.Error("re-switching to the bound identity should keep the store")
	}
	assert.Equal(t, notified, 1, "observer should fire once")
}

func TestHasGuestData(t *testing.T) {
	clk := clock.NewMock()
	m := NewManager(t.TempDir(), clk)
	defer m.Close()

	guest, err := m.Switch(consts.GuestIdentity)
	if err != nil {
		t.Fatal(errors.Wrap(err, "switching to guest"))
	}

	ok, err := m.HasGuestData()
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking guest data"))
	}
	assert.Equal(t, ok, false, "empty guest store should report no data")

	if err := guest.PutNote(schema.NewNote(clk, "t", "b")); err != nil {
		t.Fatal(errors.Wrap(err, "putting note"))
	}

	ok, err = m.HasGuestData()
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking guest data"))
	}
	assert.Equal(t, ok, true, "guest store with a note should report data")

	// still true when a user store is bound
	if _, err := m.Switch("user-u1"); err != nil {
		t.Fatal(errors.Wrap(err, "switching to user"))
	}
	ok, err = m.HasGuestData()
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking guest data"))
	}
	assert.Equal(t, ok, true, "guest data should be visible from a user session")
}

func TestImportGuestData(t *testing.T) {
	clk := clock.NewMock()
	m := NewManager(t.TempDir(), clk)
	defer m.Close()

	guest, err := m.Switch(consts.GuestIdentity)
	if err != nil {
		t.Fatal(errors.Wrap(err, "switching to guest"))
	}

	n := schema.NewNote(clk, "guest note", "body")
	g := schema.NewGroup(clk, "guest group", "#00ff00", 0)
	n.GroupID = &g.ID
	if err := guest.PutNote(n); err != nil {
		t.Fatal(errors.Wrap(err, "putting guest note"))
	}
	if err := guest.PutGroup(g); err != nil {
		t.Fatal(errors.Wrap(err, "putting guest group"))
	}

	user, err := m.Switch("user-u1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "switching to user"))
	}

	imported, err := m.ImportGuestData()
	if err != nil {
		t.Fatal(errors.Wrap(err, "importing"))
	}
	assert.Equal(t, imported, 2, "imported count mismatch")

	got, err := user.GetNote(n.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting imported note"))
	}
	assert.Equal(t, got.Title, "guest note", "imported note mismatch")
	assert.Equal(t, got.UpdatedAt, n.UpdatedAt, "import must preserve timestamps")

	ok, err := m.HasGuestData()
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking guest data"))
	}
	assert.Equal(t, ok, false, "guest store should be erased after import")

	// importing again from the now-empty guest store changes nothing
	imported, err = m.ImportGuestData()
	if err != nil {
		t.Fatal(errors.Wrap(err, "importing again"))
	}
	assert.Equal(t, imported, 0, "second import should be a no-op")
}

func TestImportGuestData_intoGuest(t *testing.T) {
	clk := clock.NewMock()
	m := NewManager(t.TempDir(), clk)
	defer m.Close()

	if _, err := m.Switch(consts.GuestIdentity); err != nil {
		t.Fatal(errors.Wrap(err, "switching to guest"))
	}

	_, err := m.ImportGuestData()

	assert.NotEqual(t, err, nil, "importing into the guest store should fail")
}

func TestLogout(t *testing.T) {
	clk := clock.NewMock()
	dir := t.TempDir()

	t.Run("wipe removes the user database", func(t *testing.T) {
		m := NewManager(dir, clk)
		defer m.Close()

		user, err := m.Switch("user-wipe")
		if err != nil {
			t.Fatal(errors.Wrap(err, "switching to user"))
		}
		if err := user.PutNote(schema.NewNote(clk, "t", "b")); err != nil {
			t.Fatal(errors.Wrap(err, "putting note"))
		}

		if err := m.Logout(true); err != nil {
			t.Fatal(errors.Wrap(err, "logging out"))
		}

		assert.Equal(t, m.Current(), consts.GuestIdentity, "session should land on guest")
		if _, err := os.Stat(localstore.DBPath(dir, "user-wipe")); !os.IsNotExist(err) {
			t.Errorf("user database should be removed, got err %v", err)
		}
	})

	t.Run("without wipe the user database stays", func(t *testing.T) {
		m := NewManager(dir, clk)
		defer m.Close()

		user, err := m.Switch("user-keep")
		if err != nil {
			t.Fatal(errors.Wrap(err, "switching to user"))
		}
		if err := user.PutNote(schema.NewNote(clk, "t", "b")); err != nil {
			t.Fatal(errors.Wrap(err, "putting note"))
		}

		if err := m.Logout(false); err != nil {
			t.Fatal(errors.Wrap(err, "logging out"))
		}

		assert.Equal(t, m.Current(), consts.GuestIdentity, "session should land on guest")
		if _, err := os.Stat(localstore.DBPath(dir, "user-keep")); err != nil {
			t.Errorf("user database should remain, got err %v", err)
		}
	})
}
