package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/siteadmin/internal/common"
	"github.com/dmitrijs2005/siteadmin/internal/logging"
	"github.com/dmitrijs2005/siteadmin/internal/server/auth"
	"github.com/dmitrijs2005/siteadmin/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/siteadmin/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	invalidLoginBody = `{"message":"Invalid email or password"}` + "\n"
	serverErrorBody  = `{"message":"Server error"}` + "\n"
	notAuthBody      = `{"message":"Not authorized"}` + "\n"
	noFileBody       = `{"error":"No file uploaded"}` + "\n"
)

var testSecret = []byte("test-secret")

type testEnv struct {
	router  http.Handler
	admins  *services.AdminService
	issuer  *auth.TokenIssuer
	uploads *services.DiskStore
}

func newTestEnv(t *testing.T, opts RouterOptions) *testEnv {
	t.Helper()

	m := repomanager.NewInMemoryRepositoryManager()
	h, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	issuer := auth.NewTokenIssuer(testSecret, time.Hour)
	login, err := services.NewLoginService(nil, m, h, issuer, logging.Nop())
	require.NoError(t, err)

	store, err := services.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	handlers := NewHandlers(login, store, nil, logging.Nop())

	return &testEnv{
		router:  NewRouter(handlers, auth.NewTokenVerifier(testSecret), opts, logging.Nop()),
		admins:  services.NewAdminService(nil, m, h, logging.Nop()),
		issuer:  issuer,
		uploads: store,
	}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func loginRequestFor(email, password string) *http.Request {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestLogin_Scenarios(t *testing.T) {
	env := newTestEnv(t, RouterOptions{UploadRequireAuth: true})
	admin, err := env.admins.Create(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)

	// Correct credentials.
	ok := env.do(t, loginRequestFor("a@x.com", "secret1"))
	require.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "application/json", ok.Header().Get("Content-Type"))

	var body loginResponse
	require.NoError(t, json.Unmarshal(ok.Body.Bytes(), &body))
	assert.Equal(t, "Admin login successful", body.Message)
	require.NotEmpty(t, body.Token)

	id, err := auth.NewTokenVerifier(testSecret).Verify(body.Token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, id)

	// Wrong password.
	wrong := env.do(t, loginRequestFor("a@x.com", "wrongpass"))
	assert.Equal(t, http.StatusBadRequest, wrong.Code)
	assert.Equal(t, invalidLoginBody, wrong.Body.String())

	// Unknown email: byte-identical to the wrong password response.
	unknown := env.do(t, loginRequestFor("nouser@x.com", "anything"))
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, wrong.Body.Bytes(), unknown.Body.Bytes())
	assert.Equal(t, wrong.Header(), unknown.Header())
}

func TestLogin_EmailIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	_, err := env.admins.Create(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)

	w := env.do(t, loginRequestFor("  A@X.COM", "secret1"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogin_BadBodies(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})

	for _, raw := range []string{"", "not json", `{"email":`, `[]`, `{}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(raw))
		w := env.do(t, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
		assert.Equal(t, invalidLoginBody, w.Body.String(), raw)
	}
}

func TestLogin_StorageUnreachable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM admins`).
		WithArgs("a@x.com").
		WillReturnError(errors.New("dial tcp: connection refused"))

	h, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	login, err := services.NewLoginService(db, repomanager.NewPostgresRepositoryManager(), h, auth.NewTokenIssuer(testSecret, time.Hour), logging.Nop())
	require.NoError(t, err)

	router := NewRouter(NewHandlers(login, nil, nil, logging.Nop()), auth.NewTokenVerifier(testSecret), RouterOptions{}, logging.Nop())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginRequestFor("a@x.com", "secret1"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, serverErrorBody, w.Body.String())
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_MissingSecretIsServerError(t *testing.T) {
	m := repomanager.NewInMemoryRepositoryManager()
	h, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	_, err = services.NewAdminService(nil, m, h, logging.Nop()).Create(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)

	login, err := services.NewLoginService(nil, m, h, auth.NewTokenIssuer(nil, time.Hour), logging.Nop())
	require.NoError(t, err)
	router := NewRouter(NewHandlers(login, nil, nil, logging.Nop()), auth.NewTokenVerifier(nil), RouterOptions{}, logging.Nop())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginRequestFor("a@x.com", "secret1"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, serverErrorBody, w.Body.String())
}

func TestLogin_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})
	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/admin/login", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func bearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestMe(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})

	token, _, err := env.issuer.Issue("admin-1")
	require.NoError(t, err)

	w := env.do(t, bearer(httptest.NewRequest(http.MethodGet, "/api/admin/me", nil), token))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"admin-1"}`, w.Body.String())

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/admin/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, notAuthBody, w.Body.String())

	other, _, err := auth.NewTokenIssuer([]byte("other-secret"), time.Hour).Issue("admin-1")
	require.NoError(t, err)
	w = env.do(t, bearer(httptest.NewRequest(http.MethodGet, "/api/admin/me", nil), other))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, notAuthBody, w.Body.String())
}

func TestMe_ExpiredToken(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})

	token, _, err := auth.NewTokenIssuer(testSecret, time.Millisecond).Issue("admin-1")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	_, err = auth.NewTokenVerifier(testSecret).Verify(token)
	assert.ErrorIs(t, err, common.ErrTokenExpired)

	w := env.do(t, bearer(httptest.NewRequest(http.MethodGet, "/api/admin/me", nil), token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, notAuthBody, w.Body.String())
}

func multipartRequest(t *testing.T, field, filename, contentType string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + filename + `"`}
		if contentType != "" {
			h["Content-Type"] = []string{contentType}
		}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.WriteField("note", "ignored"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUpload_Success(t *testing.T) {
	env := newTestEnv(t, RouterOptions{UploadRequireAuth: true, UploadMaxBytes: 1 << 20})
	token, _, err := env.issuer.Issue("admin-1")
	require.NoError(t, err)

	content := []byte("\x89PNG fake image")
	w := env.do(t, bearer(multipartRequest(t, "file", "logo.png", "image/png", content), token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "File uploaded successfully", resp.Message)
	assert.Equal(t, "logo.png", resp.File.OriginalName)
	assert.Equal(t, "image/png", resp.File.MimeType)
	assert.Equal(t, int64(len(content)), resp.File.Size)
	assert.True(t, strings.HasSuffix(resp.File.FileName, ".png"))

	stored, err := os.ReadFile(resp.File.Path)
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}

func TestUpload_DefaultMimeType(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})

	w := env.do(t, multipartRequest(t, "file", "blob", "", []byte("x")))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mimetype":"application/octet-stream"`)
}

func TestUpload_NoFile(t *testing.T) {
	env := newTestEnv(t, RouterOptions{})

	w := env.do(t, multipartRequest(t, "", "", "", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, noFileBody, w.Body.String())

	w = env.do(t, multipartRequest(t, "attachment", "a.txt", "text/plain", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, noFileBody, w.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w = env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, noFileBody, w.Body.String())
}

func TestUpload_RequiresAuth(t *testing.T) {
	env := newTestEnv(t, RouterOptions{UploadRequireAuth: true})

	w := env.do(t, multipartRequest(t, "file", "a.txt", "text/plain", []byte("x")))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, notAuthBody, w.Body.String())

	entries, err := os.ReadDir(env.uploads.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpload_TooLarge(t *testing.T) {
	env := newTestEnv(t, RouterOptions{UploadMaxBytes: 512})

	w := env.do(t, multipartRequest(t, "file", "big.bin", "", bytes.Repeat([]byte("a"), 4096)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.JSONEq(t, `{"error":"File too large"}`, w.Body.String())
}

type failingStore struct{}

func (failingStore) Save(context.Context, string, string, int64, io.Reader) (*services.UploadedFile, error) {
	return nil, errors.New("disk full")
}

func TestUpload_StoreError(t *testing.T) {
	router := NewRouter(NewHandlers(nil, failingStore{}, nil, logging.Nop()), auth.NewTokenVerifier(testSecret), RouterOptions{}, logging.Nop())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, multipartRequest(t, "file", "a.txt", "text/plain", []byte("x")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, `{"error":"Internal server error"}`+"\n", w.Body.String())
}

func TestHealth(t *testing.T) {
	ok := NewRouter(NewHandlers(nil, nil, nil, logging.Nop()), nil, RouterOptions{}, logging.Nop())
	w := httptest.NewRecorder()
	ok.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	down := NewRouter(NewHandlers(nil, nil, func(context.Context) error { return errors.New("db down") }, logging.Nop()), nil, RouterOptions{}, logging.Nop())
	w = httptest.NewRecorder()
	down.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, w.Body.String())
}

type panickingAuthenticator struct{}

func (panickingAuthenticator) Login(context.Context, string, string) (*services.LoginResult, error) {
	panic("login exploded")
}

func TestRouter_LogsRecoveredPanic(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.New(&buf, logging.FormatJSON, "info")
	require.NoError(t, err)

	router := NewRouter(NewHandlers(panickingAuthenticator{}, nil, nil, log), auth.NewTokenVerifier(testSecret), RouterOptions{}, log)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, loginRequestFor("a@x.com", "secret1"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, serverErrorBody, w.Body.String())

	out := buf.String()
	assert.Contains(t, out, `"msg":"panic in handler"`)
	assert.Contains(t, out, `"msg":"http request"`)
	assert.Contains(t, out, `"status":500`)
	assert.Contains(t, out, `"path":"/api/admin/login"`)
}
