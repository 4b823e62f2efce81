package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"socialconnect/internal/auth"
	"socialconnect/internal/config"
	"socialconnect/internal/database"
	"socialconnect/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "server-test-secret-at-least-32-characters"

type testEnv struct {
	t     *testing.T
	app   *fiber.App
	blobs *testutil.BlobStoreStub
	now   time.Time
}

type testUser struct {
	ID    uint
	Token string
}

func newTestEnv(t *testing.T, flags string, rdb *redis.Client) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: database.NowUTC,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	cfg := &config.Config{
		JWTSecret:      testSecret,
		Port:           "0",
		AllowedOrigins: "http://localhost:5173",
		FeatureFlags:   flags,
		UploadDir:      t.TempDir(),
	}

	env := &testEnv{t: t, blobs: testutil.NewBlobStoreStub()}
	srv, err := NewServerWithDeps(cfg, db, rdb,
		WithBlobStore(env.blobs),
		WithAuthProvider(auth.NewProvider(testSecret, time.Hour, rdb, auth.WithBcryptCost(bcrypt.MinCost))),
		WithClock(func() time.Time {
			if env.now.IsZero() {
				return time.Now().UTC()
			}
			return env.now
		}),
	)
	require.NoError(t, err)
	env.app = srv.App()
	return env
}

func (e *testEnv) do(method, path, token string, body io.Reader, contentType string) (int, []byte) {
	e.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp.StatusCode, data
}

func (e *testEnv) json(method, path, token string, payload any) (int, []byte) {
	e.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(e.t, err)
		body = bytes.NewReader(raw)
	}
	return e.do(method, path, token, body, fiber.MIMEApplicationJSON)
}

func (e *testEnv) multipart(method, path, token string, fields map[string]string, fileField string, file []byte) (int, []byte) {
	e.t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(e.t, w.WriteField(k, v))
	}
	if file != nil {
		part, err := w.CreateFormFile(fileField, "upload.png")
		require.NoError(e.t, err)
		_, err = part.Write(file)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, w.Close())
	return e.do(method, path, token, buf, w.FormDataContentType())
}

func (e *testEnv) signup(username string) testUser {
	e.t.Helper()
	status, body := e.json(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password1",
		"fullName": "Full " + username,
	})
	require.Equal(e.t, http.StatusCreated, status, string(body))

	var res struct {
		Token string `json:"token"`
		User  struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	require.NoError(e.t, json.Unmarshal(body, &res))
	return testUser{ID: res.User.ID, Token: res.Token}
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type postBody struct {
	ID       uint   `json:"id"`
	AuthorID uint   `json:"authorId"`
	Caption  string `json:"caption"`
	Image    string `json:"image"`
	Author   struct {
		Username string `json:"username"`
	} `json:"author"`
	Comments []struct {
		Text   string `json:"text"`
		Author struct {
			Username string `json:"username"`
		} `json:"author"`
	} `json:"comments"`
}
