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

package database

import (
	"time"
)

// Model is the base model definition
type Model struct {
	ID        int       `gorm:"primaryKey" json:"-"`
	CreatedAt time.Time `json:"-" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"-" gorm:"autoUpdateTime"`
}

// User is a model for a user
type User struct {
	Model
	UUID          string     `json:"id" gorm:"type:text;index"`
	Email         string     `json:"email" gorm:"index"`
	Password      string     `json:"-"`
	Name          string     `json:"name"`
	Theme         string     `json:"theme"`
	NoteView      string     `json:"noteView"`
	NoteSortOrder string     `json:"noteSortOrder"`
	LastLoginAt   *time.Time `json:"-"`
}

// Session represents a user session
type Session struct {
	Model
	UserID     int    `gorm:"index"`
	Key        string `gorm:"index"`
	LastUsedAt time.Time
	ExpiresAt  time.Time
}

// Note is a model for a note. Records are keyed by the id the client
// generated so that the same record can be written from any device. The
// client's timestamps are stored verbatim; they are the reconciliation
// clock and the server never rewrites them.
type Note struct {
	Model
	ClientID        string  `json:"id" gorm:"index;type:text"`
	UserID          int     `json:"-" gorm:"index"`
	Title           string  `json:"title"`
	Body            string  `json:"body"`
	CharCount       int     `json:"charCount"`
	Pinned          bool    `json:"pinned" gorm:"default:false"`
	GroupClientID   *string `json:"groupId" gorm:"index"`
	Status          string  `json:"status" gorm:"index;default:active"`
	CustomOrder     int     `json:"customOrder" gorm:"default:-1"`
	ClientCreatedAt string  `json:"createdAt"`
	ClientUpdatedAt string  `json:"updatedAt" gorm:"index"`
}

// Group is a model for a group
type Group struct {
	Model
	ClientID        string `json:"id" gorm:"index;type:text"`
	UserID          int    `json:"-" gorm:"index"`
	Name            string `json:"name"`
	Color           string `json:"color"`
	Order           int    `json:"order" gorm:"column:display_order;default:0"`
	ClientCreatedAt string `json:"createdAt"`
	ClientUpdatedAt string `json:"updatedAt"`
}

// Feedback is a model for a user-submitted feedback message
type Feedback struct {
	Model
	UserID    int    `gorm:"index"`
	Subject   string
	Message   string
	RepliedAt *time.Time
}
