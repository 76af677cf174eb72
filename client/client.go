// Package client talks to the bandchat HTTP API. *Client satisfies
// feed.Backend.
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
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bandchat/feed"
	"bandchat/models"
)

var _ feed.Backend = (*Client)(nil)

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("bandchat error %d: %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("bandchat error %d: %s", e.Status, e.Code)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client is a bandchat API client.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// New creates a client. A zero timeout leaves requests bounded only by
// their context.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// doRequest sends the request and decodes the envelope's data into out.
func (c *Client) doRequest(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	jsonErr := json.Unmarshal(respBody, &env)
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Code: env.Error, Message: env.Message}
		if jsonErr != nil || apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if jsonErr != nil {
		return fmt.Errorf("decode response: %w", jsonErr)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	if in == nil {
		return c.doRequest(ctx, method, path, "", nil, out)
	}
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.doRequest(ctx, method, path, "application/json", bytes.NewReader(data), out)
}

// Session is the result of Register and Login.
type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Register creates an account and keeps its token on the client.
func (c *Client) Register(ctx context.Context, username, password string) (*Session, error) {
	return c.authenticate(ctx, "/api/register", username, password)
}

// Login exchanges credentials for a token and keeps it on the client.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	return c.authenticate(ctx, "/api/login", username, password)
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) (*Session, error) {
	var s Session
	err := c.doJSON(ctx, http.MethodPost, path, map[string]string{"username": username, "password": password}, &s)
	if err != nil {
		return nil, err
	}
	c.Token = s.Token
	return &s, nil
}

func (c *Client) ListRooms(ctx context.Context) ([]models.ChatRoom, error) {
	var rooms []models.ChatRoom
	if err := c.doJSON(ctx, http.MethodGet, "/api/rooms", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *Client) CreateRoom(ctx context.Context, name string, private bool) (*models.ChatRoom, error) {
	var room models.ChatRoom
	err := c.doJSON(ctx, http.MethodPost, "/api/rooms", map[string]interface{}{"name": name, "is_private": private}, &room)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// LatestPage fetches the newest limit messages, newest first.
func (c *Client) LatestPage(ctx context.Context, conversationID int64, viewerID string, limit int) ([]models.Message, error) {
	return c.page(ctx, conversationID, viewerID, 0, limit)
}

// OlderPage fetches up to limit messages strictly older than before, newest first.
func (c *Client) OlderPage(ctx context.Context, conversationID int64, viewerID string, before int64, limit int) ([]models.Message, error) {
	if before <= 0 {
		return nil, fmt.Errorf("older page needs a message id, got %d", before)
	}
	return c.page(ctx, conversationID, viewerID, before, limit)
}

func (c *Client) page(ctx context.Context, conversationID int64, viewerID string, before int64, limit int) ([]models.Message, error) {
	q := url.Values{}
	if viewerID != "" {
		q.Set("viewerId", viewerID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if before > 0 {
		q.Set("before", strconv.FormatInt(before, 10))
	}
	path := fmt.Sprintf("/api/rooms/%d/messages", conversationID)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var msgs []models.Message
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

type sendRequest struct {
	SenderID   string                `json:"sender_id"`
	Body       string                `json:"body"`
	Kind       models.Kind           `json:"kind"`
	ParentID   *int64                `json:"parent_id,omitempty"`
	Attachment *models.AttachmentRef `json:"attachment,omitempty"`
}

// SendMessage posts draft and returns the stored message.
func (c *Client) SendMessage(ctx context.Context, conversationID int64, draft feed.Draft) (models.Message, error) {
	kind := draft.Kind
	if kind == "" {
		kind = models.KindText
	}
	var msg models.Message
	err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/rooms/%d/messages", conversationID), sendRequest{
		SenderID:   draft.SenderID,
		Body:       draft.Body,
		Kind:       kind,
		ParentID:   draft.ParentID,
		Attachment: draft.Attachment,
	}, &msg)
	return msg, err
}

// Upload streams r as a multipart upload.
func (c *Client) Upload(ctx context.Context, name, contentType string, r io.Reader) (models.AttachmentRef, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	var ref models.AttachmentRef
	err := c.doRequest(ctx, http.MethodPost, "/api/uploads", mw.FormDataContentType(), pr, &ref)
	// unblock the writer if the request ended early
	pr.CloseWithError(io.ErrClosedPipe)
	return ref, err
}
