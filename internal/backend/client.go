// Package backend is a thin client for the Career Bridge REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/hpungsan/careerbridge/internal/config"
	"github.com/hpungsan/careerbridge/internal/errors"
)

// FormKind names one of the detail forms the API stores per user.
type FormKind string

const (
	FormPersonal  FormKind = "personal"
	FormEducation FormKind = "education"
	FormJob       FormKind = "job"
)

// Valid reports whether k is a known form.
func (k FormKind) Valid() bool {
	switch k {
	case FormPersonal, FormEducation, FormJob:
		return true
	}
	return false
}

// File is one multipart attachment.
type File struct {
	Field string
	Name  string
	Data  []byte
}

// Admin is the admin record returned by /admin/login.
type Admin struct {
	ID    json.RawMessage `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Email string          `json:"email"`
	Role  string          `json:"role,omitempty"`
}

// envelope is the common response body of the API.
type envelope struct {
	Success         bool            `json:"success"`
	Message         string          `json:"message,omitempty"`
	Data            json.RawMessage `json:"data,omitempty"`
	Admin           *Admin          `json:"admin,omitempty"`
	ProfilePhotoURL string          `json:"profilePhotoUrl,omitempty"`
}

// Client talks to the API rooted at BaseURL.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client from the API settings in cfg.
func New(cfg *config.Config) *Client {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	timeout := time.Duration(cfg.APITimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewWithHTTPClient(cfg.APIBaseURL, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient uses hc for every request.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// GetForm returns the stored JSON for one form, or nil when the user has none.
func (c *Client) GetForm(ctx context.Context, kind FormKind, userID string) (json.RawMessage, error) {
	if !kind.Valid() {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown form %q", kind))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/%s/user/%s", kind, userID), nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	env, err := c.do(req, userID)
	if err != nil {
		var bErr *errors.BridgeError
		if stderrors.As(err, &bErr) && bErr.Code == errors.ErrUpstreamRejected && bErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, nil
	}
	return env.Data, nil
}

// SaveForm posts data as the multipart "data" field with optional files.
// The response's data member is returned as-is.
func (c *Client) SaveForm(ctx context.Context, kind FormKind, userID string, data any, files ...File) (json.RawMessage, error) {
	if !kind.Valid() {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown form %q", kind))
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	body, contentType, err := multipartBody(map[string]string{"data": string(payload)}, files)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/%s/save", kind), body)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	req.Header.Set("Content-Type", contentType)
	env, err := c.do(req, userID)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// UploadPhoto sends a profile photo and returns the URL the API stored.
func (c *Client) UploadPhoto(ctx context.Context, userID, filename string, data []byte) (string, error) {
	body, contentType, err := multipartBody(
		map[string]string{"userId": userID},
		[]File{{Field: "profilePhoto", Name: filename, Data: data}},
	)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/personal/upload-photo"), body)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	req.Header.Set("Content-Type", contentType)
	env, err := c.do(req, userID)
	if err != nil {
		return "", err
	}
	return env.ProfilePhotoURL, nil
}

// ProfilePhoto returns the stored profile photo reference from the personal
// details record, or "" when there is none.
func (c *Client) ProfilePhoto(ctx context.Context, userID string) (string, error) {
	raw, err := c.GetForm(ctx, FormPersonal, userID)
	if err != nil || raw == nil {
		return "", err
	}
	var v struct {
		ProfilePhoto string `json:"profilePhoto"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", errors.NewUpstreamRejected(http.StatusBadGateway, "malformed personal details")
	}
	return v.ProfilePhoto, nil
}

// ResolvePhotoURL makes a stored photo reference absolute by prefixing the
// API root. Absolute http(s) and data: URLs pass through untouched.
func (c *Client) ResolvePhotoURL(ref string) string {
	if ref == "" || strings.HasPrefix(ref, "http") || strings.HasPrefix(ref, "data:") {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return c.baseURL + ref
}

// AdminLogin checks admin credentials against the API.
func (c *Client) AdminLogin(ctx context.Context, email, password string) (*Admin, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/admin/login"), bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	env, err := c.do(req, "")
	if err != nil {
		return nil, err
	}
	if env.Admin == nil {
		return &Admin{Email: email}, nil
	}
	return env.Admin, nil
}

func (c *Client) url(format string, args ...any) string {
	return c.baseURL + fmt.Sprintf(format, args...)
}

// do sends req and decodes the envelope. Transport failures map to
// UPSTREAM_UNAVAILABLE; non-2xx answers and success=false map to
// UPSTREAM_REJECTED carrying the API's message.
func (c *Client) do(req *http.Request, userID string) (*envelope, error) {
	req.Header.Set("Accept", "application/json")
	if userID != "" {
		req.Header.Set("User-ID", userID)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewUpstreamUnavailable(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, errors.NewUpstreamUnavailable(err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewUpstreamRejected(resp.StatusCode, env.Message)
	}
	if decodeErr != nil {
		return nil, errors.NewUpstreamRejected(http.StatusBadGateway, "backend returned an unreadable response")
	}
	if !env.Success {
		return nil, errors.NewUpstreamRejected(http.StatusBadRequest, env.Message)
	}
	return &env, nil
}

func multipartBody(fields map[string]string, files []File) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	for _, f := range files {
		if f.Data == nil {
			continue
		}
		part, err := w.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
