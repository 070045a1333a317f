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

// Package context defines the notae runtime context
package context

import (
	"net/http"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/ubaldooc/notae-notes-app/pkg/cli/consts"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/schema"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/utils"
	"github.com/ubaldooc/notae-notes-app/pkg/clock"
)

// Paths contain directory definitions
type Paths struct {
	Home   string
	Config string
	Data   string
	Cache  string
}

// NotaeCtx is a context holding the information of the current runtime
type NotaeCtx struct {
	Paths       Paths
	APIEndpoint string
	Version     string
	SessionKey  string
	User        *schema.User
	Clock       clock.Clock
	HTTPClient  *http.Client
}

// DataDir returns the directory under which the per-identity database files live
func (ctx NotaeCtx) DataDir() string {
	return filepath.Join(ctx.Paths.Data, consts.NotaeDirName)
}

// LoggedIn reports whether the context carries an authenticated session
func (ctx NotaeCtx) LoggedIn() bool {
	return ctx.SessionKey != "" && ctx.User != nil
}

// Identity returns the identity key that selects the local database. Without
// an authenticated session, all work happens under the guest identity.
func (ctx NotaeCtx) Identity() string {
	if ctx.LoggedIn() {
		return ctx.User.ID
	}

	return consts.GuestIdentity
}

// Redact replaces private information from the context with a set of
// placeholder values.
func Redact(ctx NotaeCtx) NotaeCtx {
	var sessionKey string
	if ctx.SessionKey != "" {
		sessionKey = "1"
	} else {
		sessionKey = "0"
	}
	ctx.SessionKey = sessionKey

	return ctx
}

// InitDirs creates the notae directories if they don't already exist.
func InitDirs(paths Paths) error {
	if paths.Config != "" {
		configDir := filepath.Join(paths.Config, consts.NotaeDirName)
		if err := utils.EnsureDir(configDir); err != nil {
			return errors.Wrap(err, "initializing config dir")
		}
	}
	if paths.Data != "" {
		dataDir := filepath.Join(paths.Data, consts.NotaeDirName)
		if err := utils.EnsureDir(dataDir); err != nil {
			return errors.Wrap(err, "initializing data dir")
		}
	}
	if paths.Cache != "" {
		cacheDir := filepath.Join(paths.Cache, consts.NotaeDirName)
		if err := utils.EnsureDir(cacheDir); err != nil {
			return errors.Wrap(err, "initializing cache dir")
		}
	}

	return nil
}
