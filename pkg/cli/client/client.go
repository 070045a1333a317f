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

// Package client provides interfaces for interacting with the notae server
// and the data structures for responses
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/ubaldooc/notae-notes-app/pkg/cli/context"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/log"
	"github.com/ubaldooc/notae-notes-app/pkg/cli/schema"
)

// ErrInvalidLogin is an error for invalid credentials for login
var ErrInvalidLogin = errors.New("wrong credentials")

// HTTPError represents an HTTP error response from the server
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf(`response %d "%s"`, e.StatusCode, e.Message)
}

// IsNotFound returns true if the error is a 404 Not Found error
func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

const (
	// clientRateLimitPerSecond is the max requests per second the client will make
	clientRateLimitPerSecond = 50
	// clientRateLimitBurst is the burst capacity for rate limiting
	clientRateLimitBurst = 100
)

// rateLimitedTransport wraps an http.RoundTripper with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client with rate limiting
func NewRateLimitedHTTPClient() *http.Client {
	interval := time.Second / time.Duration(clientRateLimitPerSecond)

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Every(interval), clientRateLimitBurst),
	}
	return &http.Client{
		Transport: transport,
	}
}

func getHTTPClient(ctx context.NotaeCtx) *http.Client {
	if ctx.HTTPClient != nil {
		return ctx.HTTPClient
	}

	return &http.Client{}
}

func getReq(ctx context.NotaeCtx, path, method, body string) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s%s", ctx.APIEndpoint, path)
	req, err := http.NewRequest(method, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	req.Header.Set("CLI-Version", ctx.Version)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if ctx.SessionKey != "" {
		credential := fmt.Sprintf("Bearer %s", ctx.SessionKey)
		req.Header.Set("Authorization", credential)
	}

	return req, nil
}

// checkRespErr checks if the given http response indicates an error. It returns
// a typed error carrying the status code and the decoded error message.
func checkRespErr(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "server responded with %d but client could not read the response body", res.StatusCode)
	}

	bodyStr := string(body)
	return &HTTPError{
		StatusCode: res.StatusCode,
		Message:    strings.TrimRight(bodyStr, "\n"),
	}
}

// doReq does a http request to the given path in the api endpoint
func doReq(ctx context.NotaeCtx, method, path, body string) (*http.Response, error) {
	req, err := getReq(ctx, path, method, body)
	if err != nil {
		return nil, errors.Wrap(err, "getting request")
	}

	log.Debug("HTTP %s %s\n", method, path)

	hc := getHTTPClient(ctx)
	res, err := hc.Do(req)
	if err != nil {
		return res, errors.Wrap(err, "making http request")
	}

	log.Debug("HTTP %d %s\n", res.StatusCode, res.Status)

	if err = checkRespErr(res); err != nil {
		return res, err
	}

	return res, nil
}

// doAuthorizedReq does a http request to the given path in the api endpoint as
// a user, with the appropriate headers. The given path should include the
// preceding slash.
func doAuthorizedReq(ctx context.NotaeCtx, method, path, body string) (*http.Response, error) {
	if ctx.SessionKey == "" {
		return nil, errors.New("no session key found")
	}

	return doReq(ctx, method, path, body)
}

func decodeInto(res *http.Response, v interface{}) error {
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return errors.Wrap(err, "decoding payload")
	}

	return nil
}

// FetchNotes gets all of the user's notes from the server, trashed ones
// included. The sync pass needs the full picture to classify by id.
func FetchNotes(ctx context.NotaeCtx) ([]schema.Note, error) {
	res, err := doAuthorizedReq(ctx, "GET", "/notes", "")
	if err != nil {
		return nil, errors.Wrap(err, "fetching notes")
	}

	var ret []schema.Note
	if err := decodeInto(res, &ret); err != nil {
		return nil, err
	}

	return ret, nil
}

// FetchGroups gets all of the user's groups from the server
func FetchGroups(ctx context.NotaeCtx) ([]schema.Group, error) {
	res, err := doAuthorizedReq(ctx, "GET", "/groups", "")
	if err != nil {
		return nil, errors.Wrap(err, "fetching groups")
	}

	var ret []schema.Group
	if err := decodeInto(res, &ret); err != nil {
		return nil, err
	}

	return ret, nil
}

// SaveNote creates or updates the note on the server keyed by its client id.
// The server preserves the client's timestamps so that the reconciliation
// clock stays consistent across devices.
func SaveNote(ctx context.NotaeCtx, n schema.Note) (schema.Note, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return schema.Note{}, errors.Wrap(err, "marshaling payload")
	}

	res, err := doAuthorizedReq(ctx, "PUT", fmt.Sprintf("/notes/%s", n.ID), string(b))
	if err != nil {
		return schema.Note{}, errors.Wrap(err, "saving a note to the server")
	}

	var ret schema.Note
	if err := decodeInto(res, &ret); err != nil {
		return schema.Note{}, err
	}

	return ret, nil
}

// DeleteNote permanently removes a note on the server
func DeleteNote(ctx context.NotaeCtx, id string) error {
	res, err := doAuthorizedReq(ctx, "DELETE", fmt.Sprintf("/notes/%s", id), "")
	if err != nil {
		return errors.Wrap(err, "deleting a note in the server")
	}
	res.Body.Close()

	return nil
}

// TrashNote soft-deletes a note on the server
func TrashNote(ctx context.NotaeCtx, id string) (schema.Note, error) {
	res, err := doAuthorizedReq(ctx, "POST", fmt.Sprintf("/notes/%s/trash", id), "")
	if err != nil {
		return schema.Note{}, errors.Wrap(err, "trashing a note in the server")
	}

	var ret schema.Note
	if err := decodeInto(res, &ret); err != nil {
		return schema.Note{}, err
	}

	return ret, nil
}

// RestoreNote brings a trashed note back to active on the server
func RestoreNote(ctx context.NotaeCtx, id string) (schema.Note, error) {
	res, err := doAuthorizedReq(ctx, "POST", fmt.Sprintf("/notes/%s/restore", id), "")
	if err != nil {
		return schema.Note{}, errors.Wrap(err, "restoring a note in the server")
	}

	var ret schema.Note
	if err := decodeInto(res, &ret); err != nil {
		return schema.Note{}, err
	}

	return ret, nil
}

// EmptyTrash permanently removes every trashed note on the server
func EmptyTrash(ctx context.NotaeCtx) error {
	res, err := doAuthorizedReq(ctx, "DELETE", "/notes/trashed", "")
	if err != nil {
		return errors.Wrap(err, "emptying the trash in the server")
	}
	res.Body.Close()

	return nil
}

// ReorderNotes sends a batch of manual note positions to the server
func ReorderNotes(ctx context.NotaeCtx, entries []schema.OrderEntry) error {
	b, err := json.Marshal(entries)
	if err != nil {
		return errors.Wrap(err, "marshaling payload")
	}

	res, err := doAuthorizedReq(ctx, "POST", "/notes/order", string(b))
	if err != nil {
		return errors.Wrap(err, "reordering notes in the server")
	}
	res.Body.Close()

	return nil
}

// SaveGroup creates or updates the group on the server keyed by its client id
func SaveGroup(ctx context.NotaeCtx, g schema.Group) (schema.Group, error) {
	b, err := json.Marshal(g)
	if err != nil {
		return schema.Group{}, errors.Wrap(err, "marshaling payload")
	}

	res, err := doAuthorizedReq(ctx, "PUT", fmt.Sprintf("/groups/%s", g.ID), string(b))
	if err != nil {
		return schema.Group{}, errors.Wrap(err, "saving a group to the server")
	}

	var ret schema.Group
	if err := decodeInto(res, &ret); err != nil {
		return schema.Group{}, err
	}

	return ret, nil
}

// DeleteGroup removes a group on the server. Server-side notes referencing it
// are detached by the server within the same operation.
func DeleteGroup(ctx context.NotaeCtx, id string) error {
	res, err := doAuthorizedReq(ctx, "DELETE", fmt.Sprintf("/groups/%s", id), "")
	if err != nil {
		return errors.Wrap(err, "deleting a group in the server")
	}
	res.Body.Close()

	return nil
}

// ReorderGroups sends a batch of group display positions to the server
func ReorderGroups(ctx context.NotaeCtx, entries []schema.OrderEntry) error {
	b, err := json.Marshal(entries)
	if err != nil {
		return errors.Wrap(err, "marshaling payload")
	}

	res, err := doAuthorizedReq(ctx, "POST", "/groups/order", string(b))
	if err != nil {
		return errors.Wrap(err, "reordering groups in the server")
	}
	res.Body.Close()

	return nil
}

// LoginPayload is a payload for /auth/login
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is a response from the /auth/login endpoint
type LoginResponse struct {
	Key       string      `json:"key"`
	ExpiresAt int64       `json:"expiresAt"`
	User      schema.User `json:"user"`
}

// Login requests a session token
func Login(ctx context.NotaeCtx, email, password string) (LoginResponse, error) {
	payload := LoginPayload{
		Email:    email,
		Password: password,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return LoginResponse{}, errors.Wrap(err, "marshaling payload")
	}

	res, err := doReq(ctx, "POST", "/auth/login", string(b))
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized {
			return LoginResponse{}, ErrInvalidLogin
		}
		return LoginResponse{}, errors.Wrap(err, "making http request")
	}

	var resp LoginResponse
	if err := decodeInto(res, &resp); err != nil {
		return LoginResponse{}, err
	}

	return resp, nil
}

// Logout deletes a user session on the server side
func Logout(ctx context.NotaeCtx) error {
	res, err := doAuthorizedReq(ctx, "POST", "/auth/logout", "")
	if err != nil {
		return errors.Wrap(err, "making http request")
	}
	res.Body.Close()

	return nil
}

// UpdatePreferences saves the user's display preferences on the server
func UpdatePreferences(ctx context.NotaeCtx, u schema.User) (schema.User, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return schema.User{}, errors.Wrap(err, "marshaling payload")
	}

	res, err := doAuthorizedReq(ctx, "PATCH", "/users/preferences", string(b))
	if err != nil {
		return schema.User{}, errors.Wrap(err, "updating preferences in the server")
	}

	var ret schema.User
	if err := decodeInto(res, &ret); err != nil {
		return schema.User{}, err
	}

	return ret, nil
}

// FeedbackPayload is a payload for /feedback
type FeedbackPayload struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// SendFeedback submits a feedback message
func SendFeedback(ctx context.NotaeCtx, subject, message string) error {
	payload := FeedbackPayload{
		Subject: subject,
		Message: message,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshaling payload")
	}

	res, err := doAuthorizedReq(ctx, "POST", "/feedback", string(b))
	if err != nil {
		return errors.Wrap(err, "sending feedback to the server")
	}
	res.Body.Close()

	return nil
}
