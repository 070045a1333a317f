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

package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ubaldooc/notae-notes-app/pkg/server/app"
	"github.com/ubaldooc/notae-notes-app/pkg/server/middleware"
)

// Route represents a single route of the api
type Route struct {
	Method    string
	Pattern   string
	Handler   http.HandlerFunc
	RateLimit bool
	Auth      bool
}

func (c *Controllers) routes() []Route {
	return []Route{
		{Method: "GET", Pattern: "/health", Handler: c.GetHealth},

		{Method: "POST", Pattern: "/auth/login", Handler: c.Login, RateLimit: true},
		{Method: "POST", Pattern: "/auth/register", Handler: c.Register, RateLimit: true},
		{Method: "POST", Pattern: "/auth/logout", Handler: c.Logout},

		// Literal note paths are registered before /notes/{id} so that mux
		// does not capture them as ids.
		{Method: "DELETE", Pattern: "/notes/trashed", Handler: c.EmptyTrash, Auth: true},
		{Method: "POST", Pattern: "/notes/order", Handler: c.ReorderNotes, Auth: true},
		{Method: "GET", Pattern: "/notes", Handler: c.GetNotes, Auth: true},
		{Method: "PUT", Pattern: "/notes/{id}", Handler: c.SaveNote, Auth: true},
		{Method: "DELETE", Pattern: "/notes/{id}", Handler: c.DeleteNote, Auth: true},
		{Method: "POST", Pattern: "/notes/{id}/trash", Handler: c.TrashNote, Auth: true},
		{Method: "POST", Pattern: "/notes/{id}/restore", Handler: c.RestoreNote, Auth: true},

		{Method: "POST", Pattern: "/groups/order", Handler: c.ReorderGroups, Auth: true},
		{Method: "GET", Pattern: "/groups", Handler: c.GetGroups, Auth: true},
		{Method: "PUT", Pattern: "/groups/{id}", Handler: c.SaveGroup, Auth: true},
		{Method: "DELETE", Pattern: "/groups/{id}", Handler: c.DeleteGroup, Auth: true},

		{Method: "PATCH", Pattern: "/users/preferences", Handler: c.UpdatePreferences, Auth: true},
		{Method: "POST", Pattern: "/feedback", Handler: c.CreateFeedback, Auth: true, RateLimit: true},
	}
}

// RouteConfig is the configuration for the router
type RouteConfig struct {
	Controllers *Controllers
	RateLimiter *middleware.RateLimiter
}

// NewRouter creates a router that serves the api under /api
func NewRouter(a *app.App, cfg RouteConfig) (http.Handler, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	router := mux.NewRouter().StrictSlash(true)
	api := router.PathPrefix("/api").Subrouter()

	for _, route := range cfg.Controllers.routes() {
		handler := route.Handler
		if route.Auth {
			handler = middleware.Auth(a, handler)
		}
		if cfg.RateLimiter != nil {
			handler = cfg.RateLimiter.ApplyLimit(handler, route.RateLimit)
		}

		api.Handle(route.Pattern, handler).Methods(route.Method)
	}

	return middleware.Global(router), nil
}
