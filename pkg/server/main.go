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

package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/ubaldooc/notae-notes-app/pkg/clock"
	"github.com/ubaldooc/notae-notes-app/pkg/server/app"
	"github.com/ubaldooc/notae-notes-app/pkg/server/config"
	"github.com/ubaldooc/notae-notes-app/pkg/server/controllers"
	"github.com/ubaldooc/notae-notes-app/pkg/server/database"
	"github.com/ubaldooc/notae-notes-app/pkg/server/job"
	"github.com/ubaldooc/notae-notes-app/pkg/server/log"
	"github.com/ubaldooc/notae-notes-app/pkg/server/mailer"
	"github.com/ubaldooc/notae-notes-app/pkg/server/middleware"
)

var versionTag = "master"

var (
	startCmd            = flag.NewFlagSet("start", flag.ExitOnError)
	port                = startCmd.String("port", "", "the port to bind to")
	appEnv              = startCmd.String("appEnv", "", "the environment name")
	webURL              = startCmd.String("webUrl", "", "the url of the server")
	dbPath              = startCmd.String("dbPath", "", "the path to the sqlite database file")
	disableRegistration = startCmd.Bool("disableRegistration", false, "disable user registration")
	logLevel            = startCmd.String("logLevel", "", "the log level")
)

func newEmailBackend(cfg config.Config) (mailer.Backend, error) {
	if cfg.SMTPHost == "" {
		return &mailer.BrowserBackend{}, nil
	}

	return mailer.NewSMTPBackend(mailer.SMTPParams{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	})
}

func startServer() error {
	config.Load()

	cfg, err := config.New(config.Params{
		AppEnv:              *appEnv,
		Port:                *port,
		WebURL:              *webURL,
		DBPath:              *dbPath,
		DisableRegistration: *disableRegistration,
		LogLevel:            *logLevel,
	})
	if err != nil {
		return err
	}

	log.SetLevel(cfg.LogLevel)

	db := database.Open(cfg.DatabaseURL, cfg.DBPath)
	database.InitSchema(db)

	emailBackend, err := newEmailBackend(cfg)
	if err != nil {
		return err
	}

	a := &app.App{
		DB:                  db,
		Clock:               clock.New(),
		EmailBackend:        emailBackend,
		WebURL:              cfg.WebURL,
		MailFrom:            cfg.MailFrom,
		FeedbackTo:          cfg.FeedbackTo,
		DisableRegistration: cfg.DisableRegistration,
	}

	router, err := controllers.NewRouter(a, controllers.RouteConfig{
		Controllers: controllers.New(a),
		RateLimiter: middleware.NewRateLimiter(10, 20),
	})
	if err != nil {
		return err
	}

	runner := job.NewRunner(a)
	if err := runner.Start(); err != nil {
		return err
	}
	defer runner.Stop()

	log.WithFields(log.Fields{
		"port":    cfg.Port,
		"version": versionTag,
	}).Info("starting server")

	return http.ListenAndServe(":"+cfg.Port, router)
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: notae-server [start|version]")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "start":
		if err := startCmd.Parse(os.Args[2:]); err != nil {
			log.ErrorWrap(err, "parsing flags")
			os.Exit(1)
		}
		if err := startServer(); err != nil {
			log.ErrorWrap(err, "starting server")
			os.Exit(1)
		}
	case "version":
		fmt.Printf("notae-server %s\n", versionTag)
	default:
		fmt.Printf("unknown command %s\n", os.Args[1])
		os.Exit(1)
	}
}
