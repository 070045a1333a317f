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

// Package infra provides operations and definitions for the
// local infrastructure for notae
package infra

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ubaldooc/notae-notes-app/pkg/cli/client"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/config"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/context"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/log"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/utils"
	"github.com/ubaldooc/notae-notes-app/pkg/clock"
	"github.com/ubaldooc/notae-notes-app/pkg/dirs"
)

const (
	// DefaultAPIEndpoint is the default API endpoint used when none is configured
	DefaultAPIEndpoint = "http://localhost:3001/api"
)

// RunEFunc is a function type of notae commands
type RunEFunc func(*cobra.Command, []string) error

// Init initializes the notae environment and returns a new notae context.
// apiEndpoint overrides the configured endpoint for this run when non-empty.
func Init(versionTag, apiEndpoint string) (*context.NotaeCtx, error) {
	paths := context.Paths{
		Home:   dirs.Home,
		Config: dirs.ConfigHome,
		Data:   dirs.DataHome,
		Cache:  dirs.CacheHome,
	}

	if err := context.InitDirs(paths); err != nil {
		return nil, errors.Wrap(err, "initializing directories")
	}

	ctx := context.NotaeCtx{
		Paths:      paths,
		Version:    versionTag,
		Clock:      clock.New(),
		HTTPClient: client.NewRateLimitedHTTPClient(),
	}

	if err := initConfigFile(ctx, apiEndpoint); err != nil {
		return nil, errors.Wrap(err, "initializing config file")
	}

	cf, err := config.Read(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}

	ctx.APIEndpoint = cf.APIEndpoint
	if apiEndpoint != "" {
		ctx.APIEndpoint = apiEndpoint
	}
	ctx.SessionKey = cf.SessionKey
	ctx.User = cf.User

	log.Debug("context: %+v\n", context.Redact(ctx))

	return &ctx, nil
}

// initConfigFile creates a config file if one does not exist
func initConfigFile(ctx context.NotaeCtx, apiEndpoint string) error {
	path := config.GetPath(ctx)
	ok, err := utils.FileExists(path)
	if err != nil {
		return errors.Wrap(err, "checking config file")
	}
	if ok {
		return nil
	}

	endpoint := apiEndpoint
	if endpoint == "" {
		endpoint = DefaultAPIEndpoint
	}

	cf := config.Config{
		APIEndpoint: endpoint,
	}

	if err := config.Write(ctx, cf); err != nil {
		return errors.Wrap(err, "writing config file")
	}

	return nil
}
