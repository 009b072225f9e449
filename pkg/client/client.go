// Package client is a typed Go client for the MindfulKids moderation API. It mirrors the mobile
// client's contract: a bearer token, a fixed timeout per call, no retries, and errors mapped to
// *apperrors.Error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/mindfulkids-backend/internal/apperrors"
)

const (
	DefaultTimeout = 15 * time.Second
	UploadTimeout  = 30 * time.Second

	maxErrorBody = 64 << 10
)

type Client struct {
	baseURL       string
	http          *http.Client
	timeout       time.Duration
	uploadTimeout time.Duration

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeouts overrides the per-call timeouts for JSON and multipart requests.
func WithTimeouts(request, upload time.Duration) Option {
	return func(c *Client) {
		c.timeout = request
		c.uploadTimeout = upload
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		http:          http.DefaultClient,
		timeout:       DefaultTimeout,
		uploadTimeout: UploadTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token sent with every request. An empty token signs the client out.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// genericMessages are shown when the server did not send an error string.
var genericMessages = map[int]string{
	http.StatusBadRequest:          "The request was not valid.",
	http.StatusUnauthorized:        "Please sign in again.",
	http.StatusForbidden:           "You do not have permission to do that.",
	http.StatusNotFound:            "We could not find what you were looking for.",
	http.StatusConflict:            "This item changed in the meantime. Please reload and try again.",
	http.StatusTooManyRequests:     "Too many attempts. Please wait a moment and try again.",
	http.StatusInternalServerError: "Something went wrong on our side. Please try again.",
	http.StatusGatewayTimeout:      "The server took too long to respond. Please try again.",
}

func codeForStatus(status int) apperrors.ErrorCode {
	switch status {
	case http.StatusBadRequest:
		return apperrors.CodeValidation
	case http.StatusUnauthorized:
		return apperrors.CodeUnauthorized
	case http.StatusForbidden:
		return apperrors.CodeForbidden
	case http.StatusNotFound:
		return apperrors.CodeNotFound
	case http.StatusConflict:
		return apperrors.CodeInvalidStateTransition
	case http.StatusTooManyRequests:
		return apperrors.CodeRateLimited
	case http.StatusGatewayTimeout, http.StatusBadGateway, http.StatusServiceUnavailable:
		return apperrors.CodeNetworkOrTimeout
	default:
		return apperrors.CodeServerError
	}
}

func messageForStatus(status int) string {
	if msg, ok := genericMessages[status]; ok {
		return msg
	}
	if status >= http.StatusInternalServerError {
		return genericMessages[http.StatusInternalServerError]
	}
	return fmt.Sprintf("The request failed (%d).", status)
}

// decodeError prefers the server's error string and code and falls back to a message keyed by
// status when the body is missing or not an envelope.
func decodeError(resp *http.Response) *apperrors.Error {
	var envelope struct {
		Error string              `json:"error"`
		Code  apperrors.ErrorCode `json:"code"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&envelope)

	out := &apperrors.Error{Code: envelope.Code, Message: strings.TrimSpace(envelope.Error)}
	if out.Code == "" {
		out.Code = codeForStatus(resp.StatusCode)
	}
	if out.Message == "" {
		out.Message = messageForStatus(resp.StatusCode)
	}
	return out
}

func transportError(err error) *apperrors.Error {
	msg := "Could not reach the server. Check your connection and try again."
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "The request timed out. Please try again."
	}
	return &apperrors.Error{Code: apperrors.CodeNetworkOrTimeout, Message: msg, Details: err.Error()}
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// send issues one request and decodes a 2xx body into out. It never retries.
func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apperrors.Error{Code: apperrors.CodeServerError, Message: messageForStatus(http.StatusInternalServerError), Details: err.Error()}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return apperrors.Validation("request could not be encoded")
		}
		body = bytes.NewReader(raw)
	}
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return transportError(err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// FormFile is a document attached to a multipart request.
type FormFile struct {
	Field    string
	Filename string
	Content  io.Reader
}

func (c *Client) doMultipart(ctx context.Context, path string, fields map[string]string, file FormFile, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return apperrors.Validation("request could not be encoded")
		}
	}
	part, err := mw.CreateFormFile(file.Field, file.Filename)
	if err != nil {
		return apperrors.Validation("request could not be encoded")
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return apperrors.Validation("document could not be read")
	}
	if err := mw.Close(); err != nil {
		return apperrors.Validation("request could not be encoded")
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, &buf)
	if err != nil {
		return transportError(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req, out)
}

// optional treats NOT_FOUND as absence.
func optional(err error) (bool, error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.Validation("id is required")
	}
	return nil
}
