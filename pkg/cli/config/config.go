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

package config

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/ubaldooc/notae-notes-app/pkg/cli/consts"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/context"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/schema"
)

// Config holds notae configuration. The session credential lives here rather
// than in a database because it has to be readable before any per-identity
// database can be selected.
type Config struct {
	APIEndpoint string       `yaml:"apiEndpoint"`
	SessionKey  string       `yaml:"sessionKey"`
	User        *schema.User `yaml:"user"`
}

// GetPath returns the path to the notae config file
func GetPath(ctx context.NotaeCtx) string {
	return fmt.Sprintf("%s/%s/%s", ctx.Paths.Config, consts.NotaeDirName, consts.ConfigFilename)
}

// Read reads the config file
func Read(ctx context.NotaeCtx) (Config, error) {
	var ret Config

	configPath := GetPath(ctx)
	b, err := os.ReadFile(configPath)
	if err != nil {
		return ret, errors.Wrap(err, "reading config file")
	}

	err = yaml.Unmarshal(b, &ret)
	if err != nil {
		return ret, errors.Wrap(err, "unmarshalling config")
	}

	return ret, nil
}

// Write writes the config to the config file. The file is not world-readable
// because it carries the session credential.
func Write(ctx context.NotaeCtx, cf Config) error {
	path := GetPath(ctx)

	b, err := yaml.Marshal(cf)
	if err != nil {
		return errors.Wrap(err, "marshalling config into YAML")
	}

	err = os.WriteFile(path, b, 0600)
	if err != nil {
		return errors.Wrap(err, "writing the config file")
	}

	return nil
}
