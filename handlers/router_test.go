package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandchat/config"
	"bandchat/models"
	"bandchat/repository"
	"bandchat/services"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.ServerConfig{
		JWTSecret:        "test-secret",
		JWTExpiry:        1,
		MaxMessageLength: 100,
		MaxPageSize:      3,
		MaxUploadBytes:   1 << 10,
	}
	users := repository.NewInMemoryUserRepo()
	chatRepo := repository.NewInMemoryChatRepo()
	msgRepo := repository.NewInMemoryMessageRepo()
	blobs := repository.NewInMemoryUploadRepo()
	_, err := chatRepo.Create("General", false, 0)
	require.NoError(t, err)

	chats := services.NewChatService(chatRepo, msgRepo, repository.NewInMemoryParticipantRepo())
	srv := httptest.NewServer(NewRouter(zerolog.Nop(), Services{
		Auth:           services.NewAuthService(users, cfg),
		Chats:          chats,
		Messages:       services.NewMessageService(msgRepo, chats, users, blobs, cfg, zerolog.Nop()),
		Uploads:        services.NewUploadService(blobs, cfg.MaxUploadBytes),
		MaxUploadBytes: cfg.MaxUploadBytes,
	}))
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return do(t, req)
}

func do(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func register(t *testing.T, srv *httptest.Server, name string) (string, models.User) {
	t.Helper()
	status, env := call(t, srv, http.MethodPost, "/api/register", "", map[string]string{"username": name, "password": "secret123"})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var out struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out.Token, out.User
}

func TestHealthAndAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	status, env := call(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	status, env = call(t, srv, http.MethodGet, "/api/rooms/1/messages", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized", env.Error)

	status, _ = call(t, srv, http.MethodGet, "/api/rooms/1/messages", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestMessagePaging(t *testing.T) {
	srv := newTestServer(t)
	token, user := register(t, srv, "keys")

	for i := 1; i <= 5; i++ {
		status, env := call(t, srv, http.MethodPost, "/api/rooms/1/messages", token,
			map[string]interface{}{"sender_id": user.SenderID(), "body": fmt.Sprintf("bar %d", i), "kind": "TEXT"})
		require.Equal(t, http.StatusCreated, status, env.Message)
	}

	page := func(query string) []models.Message {
		status, env := call(t, srv, http.MethodGet, "/api/rooms/1/messages?viewerId="+user.SenderID()+query, token, nil)
		require.Equal(t, http.StatusOK, status, env.Message)
		var msgs []models.Message
		require.NoError(t, json.Unmarshal(env.Data, &msgs))
		return msgs
	}

	latest := page("&limit=10")
	require.Len(t, latest, 3, "capped at the max page size")
	assert.Equal(t, int64(5), latest[0].ID)
	assert.Equal(t, "keys", latest[0].SenderName)

	older := page("&limit=3&before=3")
	require.Len(t, older, 2)
	assert.Equal(t, []int64{2, 1}, []int64{older[0].ID, older[1].ID})

	assert.Empty(t, page("&before=1"))

	status, _ := call(t, srv, http.MethodGet, "/api/rooms/1/messages?viewerId=999", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = call(t, srv, http.MethodGet, "/api/rooms/1/messages?before=x", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestReplyRulesMapToStatus(t *testing.T) {
	srv := newTestServer(t)
	token, _ := register(t, srv, "drummer")

	status, env := call(t, srv, http.MethodPost, "/api/rooms/1/messages", token, map[string]interface{}{"body": "root"})
	require.Equal(t, http.StatusCreated, status)
	var root models.Message
	require.NoError(t, json.Unmarshal(env.Data, &root))

	status, env = call(t, srv, http.MethodPost, "/api/rooms/1/messages", token, map[string]interface{}{"body": "reply", "parent_id": root.ID})
	require.Equal(t, http.StatusCreated, status)
	var reply models.Message
	require.NoError(t, json.Unmarshal(env.Data, &reply))

	status, _ = call(t, srv, http.MethodPost, "/api/rooms/1/messages", token, map[string]interface{}{"body": "deeper", "parent_id": reply.ID})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = call(t, srv, http.MethodPost, "/api/rooms/1/messages", token, map[string]interface{}{"body": ""})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, srv, http.MethodPost, "/api/rooms/42/messages", token, map[string]interface{}{"body": "lost"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPrivateRoomForbidden(t *testing.T) {
	srv := newTestServer(t)
	owner, _ := register(t, srv, "owner")
	guest, _ := register(t, srv, "guest")

	status, env := call(t, srv, http.MethodPost, "/api/rooms", owner, map[string]interface{}{"name": "Backstage", "is_private": true})
	require.Equal(t, http.StatusCreated, status, env.Message)
	var room models.ChatRoom
	require.NoError(t, json.Unmarshal(env.Data, &room))

	status, _ = call(t, srv, http.MethodGet, fmt.Sprintf("/api/rooms/%d/messages", room.ID), guest, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = call(t, srv, http.MethodGet, "/api/rooms", guest, nil)
	require.Equal(t, http.StatusOK, status)
	var rooms []models.ChatRoom
	require.NoError(t, json.Unmarshal(env.Data, &rooms))
	assert.Len(t, rooms, 1)
}

func TestUploadAndAttach(t *testing.T) {
	srv := newTestServer(t)
	token, _ := register(t, srv, "bassist")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "tab.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("E|--0--|"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/uploads", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", token)
	status, env := do(t, req)
	require.Equal(t, http.StatusCreated, status, env.Message)
	var ref models.AttachmentRef
	require.NoError(t, json.Unmarshal(env.Data, &ref))
	assert.Equal(t, "tab.txt", ref.Name)
	assert.Equal(t, int64(8), ref.Size)

	status, env = call(t, srv, http.MethodPost, "/api/rooms/1/messages", token,
		map[string]interface{}{"kind": "FILE", "attachment": ref})
	require.Equal(t, http.StatusCreated, status, env.Message)

	dl, err := http.NewRequest(http.MethodGet, srv.URL+"/api/"+ref.Locator, nil)
	require.NoError(t, err)
	dl.Header.Set("Authorization", token)
	resp, err := http.DefaultClient.Do(dl)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "E|--0--|", string(body))
}
