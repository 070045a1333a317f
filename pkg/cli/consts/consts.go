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

// Package consts provides definitions of constants used across packages
package consts

const (
	// NotaeDirName is the name of the directory holding notae files
	NotaeDirName = "notae"
	// ConfigFilename is the name of the config file
	ConfigFilename = "notaerc"
	// DBFilePrefix is the prefix of per-identity database files
	DBFilePrefix = "notae"
	// GuestIdentity is the identity key under which data of users without an
	// account is stored. Each authenticated user gets a namespace keyed by the
	// user id; guests share this fixed one.
	GuestIdentity = "guest"
)
