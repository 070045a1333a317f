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

// Package retention defines the trash retention policy shared by the client
// and the server. Both sides must agree on the window, or the client would
// report a different expiry than the server sweep enforces.
package retention

import "time"

// Days is the number of days a trashed note is retained before it becomes
// eligible for permanent deletion.
const Days = 30

// Window is the retention period as a duration.
const Window = Days * 24 * time.Hour

// Expired reports whether a note trashed with the given last update time has
// outlived the retention window as of now.
func Expired(updatedAt, now time.Time) bool {
	return now.Sub(updatedAt) > Window
}

// DaysRemaining returns the whole days left before a trashed note with the
// given last update time expires. It never returns a negative number.
func DaysRemaining(updatedAt, now time.Time) int {
	remaining := Window - now.Sub(updatedAt)
	if remaining <= 0 {
		return 0
	}

	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}

	return days
}
