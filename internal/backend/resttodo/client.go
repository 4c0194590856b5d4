// Package resttodo implements service.Service against the todo REST backend.
package resttodo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"
	"time"

	"rtodo/internal/service"
)

const (
	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second
)

// Client implements service.Service against the REST backend.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New creates a client for the backend at baseURL.
func New(baseURL string) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{})
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, httpc *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpc,
	}
}

// taskPayload is the wire shape of a task. The photo reference arrives under
// one of three names depending on the endpoint; normalize() folds them into
// the canonical field so no caller repeats the aliasing.
type taskPayload struct {
	ID        string                `json:"id"`
	Title     string                `json:"title"`
	PhotoURI  string                `json:"photoUri"`
	Image     string                `json:"image"`
	ImageURL  string                `json:"imageUrl"`
	Location  *service.LocationData `json:"location"`
	Completed bool                  `json:"completed"`
}

func (p taskPayload) normalize() service.Task {
	photo := p.PhotoURI
	if photo == "" {
		photo = p.Image
	}
	if photo == "" {
		photo = p.ImageURL
	}
	return service.Task{
		ID:        p.ID,
		Title:     p.Title,
		PhotoURI:  photo,
		Location:  p.Location,
		Completed: p.Completed,
	}
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, email, password string) (service.UserRecord, error) {
	raw, err := c.doJSON(ctx, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return service.UserRecord{}, asConflict(err)
	}
	var u service.UserRecord
	if raw != nil {
		// Lenient: some deployments answer with {token} instead of the
		// account record.
		_ = json.Unmarshal(raw, &u)
	}
	if u.Email == "" {
		u.Email = email
	}
	return u, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	raw, err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	var body struct {
		Token string `json:"token"`
	}
	if raw != nil {
		_ = json.Unmarshal(raw, &body)
	}
	if body.Token == "" {
		return "", service.Errf(service.KindServer, "login response missing token")
	}
	return body.Token, nil
}

// ListTasks returns every task of the authenticated user.
func (c *Client) ListTasks(ctx context.Context, token string) ([]service.Task, error) {
	raw, err := c.doJSON(ctx, http.MethodGet, "/todos", token, nil)
	if err != nil {
		return nil, err
	}
	var payloads []taskPayload
	if raw != nil {
		if err := json.Unmarshal(raw, &payloads); err != nil {
			// Not an array under any envelope; treat as empty.
			slog.Debug("todos response not a task array", "err", err)
		}
	}
	tasks := make([]service.Task, 0, len(payloads))
	for _, p := range payloads {
		tasks = append(tasks, p.normalize())
	}
	return tasks, nil
}

// UploadImage uploads the file at localPath and returns its remote URL.
func (c *Client) UploadImage(ctx context.Context, localPath, token string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", &service.Error{Kind: service.KindUpload, Message: "read image: " + err.Error(), Err: err}
	}
	defer f.Close()

	fileType := imageExt(localPath)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="photo.%s"`, fileType))
	h.Set("Content-Type", "image/"+fileType)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", &service.Error{Kind: service.KindUpload, Message: "build upload: " + err.Error(), Err: err}
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", &service.Error{Kind: service.KindUpload, Message: "read image: " + err.Error(), Err: err}
	}
	if err := w.Close(); err != nil {
		return "", &service.Error{Kind: service.KindUpload, Message: "build upload: " + err.Error(), Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images", &buf)
	if err != nil {
		return "", service.Errf(service.KindNetwork, "build request: %v", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", transportError(err)
	}
	defer resp.Body.Close()

	raw, err := decodeResponse(resp)
	if err != nil {
		return "", err
	}
	var body struct {
		URL string `json:"url"`
	}
	if raw != nil {
		_ = json.Unmarshal(raw, &body)
	}
	if body.URL == "" {
		return "", service.Errf(service.KindUpload, "no image url in response")
	}
	return body.URL, nil
}

// CreateTask creates a task. The title must be non-empty after trimming;
// a bad title never issues a request.
func (c *Client) CreateTask(ctx context.Context, token string, data service.NewTaskData) (service.Task, error) {
	title := strings.TrimSpace(data.Title)
	if title == "" {
		return service.Task{}, service.Errf(service.KindValidation, "title is required")
	}

	payload := map[string]any{"title": title}
	if data.Location != nil {
		payload["location"] = wireLocation(data.Location)
	}
	if data.PhotoURI != "" {
		payload["photoUri"] = data.PhotoURI
	}

	raw, err := c.doJSON(ctx, http.MethodPost, "/todos", token, payload)
	if err != nil {
		return service.Task{}, err
	}
	return decodeTask(raw)
}

// UpdateTask applies a partial update. Only non-nil fields go on the wire.
func (c *Client) UpdateTask(ctx context.Context, id, token string, update service.TaskUpdate) (service.Task, error) {
	payload := map[string]any{}
	if update.Title != nil {
		payload["title"] = *update.Title
	}
	if update.Completed != nil {
		payload["completed"] = *update.Completed
	}
	if update.Image != nil {
		// The backend schema names the field photoUri.
		if *update.Image == "" {
			payload["photoUri"] = nil
		} else {
			payload["photoUri"] = *update.Image
		}
	}
	if update.Location != nil {
		payload["location"] = wireLocation(update.Location)
	}

	raw, err := c.doJSON(ctx, http.MethodPatch, "/todos/"+id, token, payload)
	if err != nil {
		return service.Task{}, err
	}
	return decodeTask(raw)
}

// DeleteTask removes a task. The backend answers 204 No Content.
func (c *Client) DeleteTask(ctx context.Context, id, token string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, "/todos/"+id, token, nil)
	return err
}

// wireLocation strips the timestamp: the backend only takes coordinates.
func wireLocation(loc *service.LocationData) map[string]float64 {
	return map[string]float64{
		"latitude":  loc.Latitude,
		"longitude": loc.Longitude,
	}
}

func decodeTask(raw json.RawMessage) (service.Task, error) {
	var p taskPayload
	if raw == nil {
		return service.Task{}, service.Errf(service.KindServer, "empty task response")
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return service.Task{}, service.Errf(service.KindServer, "unexpected task response: %v", err)
	}
	return p.normalize(), nil
}

// imageExt infers the upload extension from the file reference. Suffixes of
// five or more characters are usually a query string on a presigned URL, not
// an extension; those and missing suffixes fall back to jpeg.
func imageExt(uri string) string {
	i := strings.LastIndex(uri, ".")
	if i < 0 {
		return "jpeg"
	}
	ext := uri[i+1:]
	if ext == "" || len(ext) >= 5 {
		return "jpeg"
	}
	return ext
}

// doJSON performs a JSON request against path and returns the effective
// result with any {data: ...} envelope already unwrapped.
func (c *Client) doJSON(ctx context.Context, method, path, token string, payload any) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, service.Errf(service.KindValidation, "encode payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, service.Errf(service.KindNetwork, "build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	slog.Debug("api request", "method", method, "path", path)
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp)
}

func transportError(err error) error {
	if strings.Contains(err.Error(), "context deadline exceeded") {
		return &service.Error{Kind: service.KindNetwork, Message: "request timed out", Err: err}
	}
	return &service.Error{Kind: service.KindNetwork, Message: "network error: " + err.Error(), Err: err}
}

// decodeResponse normalizes a backend response: non-success statuses become
// typed errors with a human-readable message, 204 yields no body, and a
// {data: ...} envelope is unwrapped.
func decodeResponse(resp *http.Response) (json.RawMessage, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &service.Error{Kind: service.KindNetwork, Message: "read response: " + err.Error(), Err: err}
	}
	if resp.StatusCode >= 400 {
		return nil, apiError(resp.StatusCode, body, resp.Status)
	}
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	return unwrapEnvelope(body), nil
}

// unwrapEnvelope returns the data attribute when the body is an object
// carrying one, otherwise the body itself.
func unwrapEnvelope(body []byte) json.RawMessage {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if len(env.Data) > 0 && string(env.Data) != "null" {
			return env.Data
		}
	}
	return body
}

// apiError turns a non-success response into a typed error. The backend may
// answer {message: ...} or {error: ...}, with the value itself possibly
// structured; plain HTML error pages get a generic message.
func apiError(status int, body []byte, statusLine string) error {
	text := strings.TrimSpace(string(body))
	msg := text

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(body, &decoded); err == nil {
		raw, ok := decoded["message"]
		if !ok {
			raw, ok = decoded["error"]
		}
		if ok {
			var s string
			if json.Unmarshal(raw, &s) == nil {
				msg = s
			} else {
				msg = string(raw)
			}
		}
	} else if strings.Contains(text, "<!DOCTYPE html>") {
		msg = fmt.Sprintf("server error (%d)", status)
	}
	if msg == "" {
		msg = fmt.Sprintf("error %d: %s", status, strings.TrimSpace(strings.TrimPrefix(statusLine, fmt.Sprint(status))))
	}

	kind := kindForStatus(status)
	if kind == service.KindServer && strings.Contains(strings.ToLower(msg), "unauthorized") {
		kind = service.KindAuth
	}
	return &service.Error{Kind: kind, Message: msg, Status: status}
}

func kindForStatus(status int) service.Kind {
	switch status {
	case http.StatusUnauthorized:
		return service.KindAuth
	case http.StatusNotFound:
		return service.KindNotFound
	case http.StatusConflict:
		return service.KindConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return service.KindValidation
	default:
		return service.KindServer
	}
}

// asConflict upgrades a registration failure whose message is
// conflict-shaped. Backends have been seen reporting the collision as a
// generic error instead of a 409.
func asConflict(err error) error {
	var se *service.Error
	if errors.As(err, &se) && se.Kind != service.KindConflict && se.Kind != service.KindAuth &&
		se.Kind != service.KindNetwork && service.ConflictShaped(se.Message) {
		return &service.Error{Kind: service.KindConflict, Message: se.Message, Status: se.Status, Err: se.Err}
	}
	return err
}
