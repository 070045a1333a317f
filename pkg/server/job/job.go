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

// Package job provides the background jobs of the server
package job

import (
	"github.com/robfig/cron"

	"github.com/ubaldooc/notae-notes-app/pkg/server/app"
	"github.com/ubaldooc/notae-notes-app/pkg/server/log"
)

// trashSweepSchedule runs the retention sweep once a day at midnight UTC
const trashSweepSchedule = "0 0 0 * * *"

// Runner schedules and runs the background jobs
type Runner struct {
	app  *app.App
	cron *cron.Cron
}

// NewRunner returns a job runner for the given app
func NewRunner(a *app.App) *Runner {
	return &Runner{
		app:  a,
		cron: cron.New(),
	}
}

// SweepTrash permanently deletes trashed notes that have outlived the
// retention window
func (r *Runner) SweepTrash() {
	deleted, err := r.app.SweepExpiredTrash()
	if err != nil {
		log.ErrorWrap(err, "sweeping expired trash")
		return
	}

	log.WithFields(log.Fields{
		"deleted": deleted,
	}).Info("swept expired trash")
}

// Start schedules the jobs and starts the scheduler
func (r *Runner) Start() error {
	if err := r.cron.AddFunc(trashSweepSchedule, r.SweepTrash); err != nil {
		return err
	}

	r.cron.Start()
	log.Info("started background jobs")

	return nil
}

// Stop stops the scheduler. Running jobs are not interrupted.
func (r *Runner) Stop() {
	r.cron.Stop()
}
