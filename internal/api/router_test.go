package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gatherhall/server/internal/api/handlers"
	"github.com/gatherhall/server/internal/auth"
	"github.com/gatherhall/server/internal/config"
	"github.com/gatherhall/server/internal/domain/events"
	"github.com/gatherhall/server/internal/domain/registrations"
	"github.com/gatherhall/server/internal/domain/users"
	"github.com/gatherhall/server/internal/uploads"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]users.User
	tokens map[string]users.ResetToken
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[string]users.User),
		tokens: make(map[string]users.ResetToken),
	}
}

func (r *fakeUserRepo) Create(ctx context.Context, user users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return users.ErrEmailTaken
	}
	user.CreatedAt = time.Now().UTC()
	r.users[user.Email] = user
	return nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[email]
	if !ok {
		return nil, users.ErrNotFound
	}
	return &user, nil
}

func (r *fakeUserRepo) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[email]
	if !ok {
		return users.ErrNotFound
	}
	user.PasswordHash = passwordHash
	r.users[email] = user
	return nil
}

func (r *fakeUserRepo) SaveResetToken(ctx context.Context, token users.ResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.Token] = token
	return nil
}

func (r *fakeUserRepo) GetResetToken(ctx context.Context, token string) (*users.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.tokens[token]
	if !ok {
		return nil, users.ErrNotFound
	}
	return &record, nil
}

func (r *fakeUserRepo) DeleteResetToken(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

func (r *fakeUserRepo) anyToken(t *testing.T) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for token := range r.tokens {
		return token
	}
	t.Fatal("no reset token recorded")
	return ""
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events map[string]*events.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[string]*events.Event)}
}

func (r *fakeEventRepo) Create(ctx context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.CreatedAt = time.Now().UTC()
	r.events[event.ID] = &event
	return nil
}

func (r *fakeEventRepo) Get(ctx context.Context, id string) (*events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	clone := *event
	return &clone, nil
}

func (r *fakeEventRepo) List(ctx context.Context) ([]events.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := make([]events.Event, 0, len(r.events))
	for _, event := range r.events {
		list = append(list, *event)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (r *fakeEventRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return events.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

type fakeRegStore struct {
	mu      sync.Mutex
	eventsR *fakeEventRepo
	rows    map[string]map[string]registrations.Registration
}

func newFakeRegStore(eventsR *fakeEventRepo) *fakeRegStore {
	return &fakeRegStore{
		eventsR: eventsR,
		rows:    make(map[string]map[string]registrations.Registration),
	}
}

func (s *fakeRegStore) RegisterTx(ctx context.Context, fn func(ctx context.Context, tx registrations.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, &fakeRegTx{store: s})
}

type fakeRegTx struct {
	store *fakeRegStore
}

func (t *fakeRegTx) EventForUpdate(ctx context.Context, eventID string) (*events.Event, error) {
	return t.store.eventsR.Get(ctx, eventID)
}

func (t *fakeRegTx) Exists(ctx context.Context, eventID, userID string) (bool, error) {
	byUser, ok := t.store.rows[eventID]
	if !ok {
		return false, nil
	}
	_, taken := byUser[userID]
	return taken, nil
}

func (t *fakeRegTx) Insert(ctx context.Context, registration registrations.Registration) error {
	byUser, ok := t.store.rows[registration.EventID]
	if !ok {
		byUser = make(map[string]registrations.Registration)
		t.store.rows[registration.EventID] = byUser
	}
	byUser[registration.UserID] = registration
	return nil
}

func (t *fakeRegTx) Recount(ctx context.Context, eventID string) (int, error) {
	count := len(t.store.rows[eventID])
	t.store.eventsR.mu.Lock()
	if event, ok := t.store.eventsR.events[eventID]; ok {
		event.RegisteredCount = count
	}
	t.store.eventsR.mu.Unlock()
	return count, nil
}

type noopNotifier struct{}

func (noopNotifier) Welcome(ctx context.Context, to, name string)              {}
func (noopNotifier) PasswordReset(ctx context.Context, to, name, link string)  {}
func (noopNotifier) RegistrationConfirmed(ctx context.Context, to, name string, event events.Event) {
}

type testEnv struct {
	server     *httptest.Server
	userRepo   *fakeUserRepo
	eventRepo  *fakeEventRepo
	uploadsDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Config{
		Server: config.ServerConfig{FrontendURL: "http://localhost:3000"},
		Auth: config.AuthConfig{
			JWTSecret:     "test-secret",
			JWTExpiry:     time.Hour,
			ResetTokenTTL: time.Hour,
		},
		Uploads: config.UploadsConfig{MaxBytes: 1 << 20},
		CORS:    config.CORSConfig{AllowAllOrigins: true},
	}

	userRepo := newFakeUserRepo()
	eventRepo := newFakeEventRepo()
	regStore := newFakeRegStore(eventRepo)
	notifier := noopNotifier{}
	logger := zerolog.Nop()

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, "gatherhall")
	usersService := users.NewService(userRepo, tokens, notifier, cfg.Server.FrontendURL, cfg.Auth.ResetTokenTTL, logger)
	eventsService := events.NewService(eventRepo)
	registrationsService := registrations.NewService(regStore, notifier, logger)

	uploadsDir := t.TempDir()
	images, err := uploads.NewStore(uploadsDir, cfg.Uploads.MaxBytes)
	require.NoError(t, err)

	handler := NewRouter(RouterDeps{
		Config: cfg,
		Logger: logger,
		Tokens: tokens,
		Auth:   handlers.NewAuthHandler(usersService),
		Events: handlers.NewEventsHandler(eventsService, registrationsService, images),
		Health: handlers.NewHealthHandler(nil, "test"),
		Images: images,
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &testEnv{server: server, userRepo: userRepo, eventRepo: eventRepo, uploadsDir: uploadsDir}
}

func (e *testEnv) postJSON(t *testing.T, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, e.server.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func (e *testEnv) get(t *testing.T, path, token string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func (e *testEnv) delete(t *testing.T, path, token string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, e.server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil
	}
	return body
}

func (e *testEnv) signup(t *testing.T, name, email, role string) string {
	t.Helper()
	resp, _ := e.postJSON(t, "/api/register", "", map[string]any{
		"name": name, "email": email, "pass": "hunter22", "role": role,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := e.postJSON(t, "/api/login", "", map[string]any{
		"email": email, "pass": "hunter22",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (e *testEnv) createEvent(t *testing.T, token string, fields map[string]string) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/api/events", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode, "create event: %v", body)
	return body
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Ada", "ada@x.com", "user")

	resp, body := env.get(t, "/api/me", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := body["user"].(map[string]any)
	require.Equal(t, "ada@x.com", user["email"])
	require.Equal(t, "user", user["role"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ada", "ada@x.com", "user")

	resp, body := env.postJSON(t, "/api/register", "", map[string]any{
		"name": "Imposter", "email": "ada@x.com", "pass": "different1",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "user exists", body["error"])
}

func TestRegisterCannotSelfAssignAdmin(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Sneaky", "sneaky@x.com", "admin")

	resp, body := env.get(t, "/api/me", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := body["user"].(map[string]any)
	require.Equal(t, "user", user["role"])
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ada", "ada@x.com", "user")

	resp, body := env.postJSON(t, "/api/login", "", map[string]any{
		"email": "ada@x.com", "pass": "wrong-password",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid credentials", body["error"])
}

func TestMeRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.get(t, "/api/me", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateEventRequiresOrganiser(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Plain", "plain@x.com", "user")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("title", "Nope"))
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/events", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = decodeBody(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreateEventDefaults(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Org", "org@x.com", "organiser")

	body := env.createEvent(t, token, map[string]string{
		"title": "  GopherMeet  ",
		"desc":  `Great talks <script>alert("xss")</script>`,
		"loc":   "Room 4",
	})

	require.Equal(t, "GopherMeet", body["title"])
	require.Equal(t, float64(100), body["capacity"])
	require.NotContains(t, body["description"], "<script>")
}

func TestCreateEventWithImage(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Org", "org@x.com", "organiser")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("title", "Pics"))
	part, err := writer.CreateFormFile("image", "poster.png")
	require.NoError(t, err)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	require.NoError(t, png.Encode(part, img))
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/events", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	imageURL, _ := body["imageUrl"].(string)
	require.True(t, strings.HasPrefix(imageURL, "/uploads/"))

	served, _ := env.get(t, imageURL, "")
	require.Equal(t, http.StatusOK, served.StatusCode)
}

func TestGetEventNotFound(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.get(t, "/api/events/01HZZZZZZZZZZZZZZZZZZZZZZZ", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "event not found", body["error"])
}

func TestListEventsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "Org", "org@x.com", "organiser")
	env.createEvent(t, token, map[string]string{"title": "First"})
	env.createEvent(t, token, map[string]string{"title": "Second"})

	resp, err := http.Get(env.server.URL + "/api/events")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 2)
}

func TestRegisterForEventLifecycle(t *testing.T) {
	env := newTestEnv(t)
	organiser := env.signup(t, "Org", "org@x.com", "organiser")
	attendee := env.signup(t, "Ada", "ada@x.com", "user")

	created := env.createEvent(t, organiser, map[string]string{"title": "Tiny", "cap": "1"})
	eventID := created["id"].(string)

	resp, body := env.postJSON(t, "/api/events/"+eventID+"/register", attendee, map[string]any{
		"phone": "555-0100", "usn": "1XX22CS001",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["ok"])

	// Same user again.
	resp, body = env.postJSON(t, "/api/events/"+eventID+"/register", attendee, map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "already registered", body["error"])

	// Capacity exhausted for the next user.
	second := env.signup(t, "Bob", "bob@x.com", "user")
	resp, body = env.postJSON(t, "/api/events/"+eventID+"/register", second, map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "event full", body["error"])

	// The stored count reflects the accepted registration only.
	resp, body = env.get(t, "/api/events/"+eventID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(1), body["registeredCount"])
}

func TestRegisterForUnknownEvent(t *testing.T) {
	env := newTestEnv(t)
	attendee := env.signup(t, "Ada", "ada@x.com", "user")

	resp, body := env.postJSON(t, "/api/events/01HZZZZZZZZZZZZZZZZZZZZZZZ/register", attendee, map[string]any{})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "event not found", body["error"])
}

func TestDeleteEventOwnership(t *testing.T) {
	env := newTestEnv(t)
	organiser := env.signup(t, "Org", "org@x.com", "organiser")
	outsider := env.signup(t, "Other", "other@x.com", "organiser")

	created := env.createEvent(t, organiser, map[string]string{"title": "Mine"})
	eventID := created["id"].(string)

	resp, _ := env.delete(t, "/api/events/"+eventID, outsider)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := env.delete(t, "/api/events/"+eventID, organiser)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["ok"])

	resp, _ = env.get(t, "/api/events/"+eventID, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteEventSucceedsWhenImageCleanupFails(t *testing.T) {
	env := newTestEnv(t)
	organiser := env.signup(t, "Org", "org@x.com", "organiser")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("title", "Posterless"))
	part, err := writer.CreateFormFile("image", "poster.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/events", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+organiser)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	created := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	imageURL, _ := created["imageUrl"].(string)
	require.True(t, strings.HasPrefix(imageURL, "/uploads/"))
	eventID := created["id"].(string)

	// Swap the stored file for a non-empty directory so removal cannot
	// succeed; the delete must still go through.
	imgPath := filepath.Join(env.uploadsDir, filepath.Base(imageURL))
	require.NoError(t, os.Remove(imgPath))
	require.NoError(t, os.MkdirAll(filepath.Join(imgPath, "nested"), 0o755))

	resp, body := env.delete(t, "/api/events/"+eventID, organiser)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["ok"])

	resp, _ = env.get(t, "/api/events/"+eventID, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminCanDeleteAnyEvent(t *testing.T) {
	env := newTestEnv(t)
	organiser := env.signup(t, "Org", "org@x.com", "organiser")
	created := env.createEvent(t, organiser, map[string]string{"title": "Doomed"})
	eventID := created["id"].(string)

	// Admins come from bootstrap, not self-registration, so plant one directly.
	admin := users.User{ID: "admin-1", Name: "Root", Email: "root@x.com", Role: "admin"}
	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)
	admin.PasswordHash = hash
	require.NoError(t, env.userRepo.Create(context.Background(), admin))

	resp, body := env.postJSON(t, "/api/login", "", map[string]any{"email": "root@x.com", "pass": "hunter22"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	adminToken := body["token"].(string)

	resp, _ = env.delete(t, "/api/events/"+eventID, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestForgotPasswordUniformResponse(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ada", "ada@x.com", "user")

	resp, known := env.postJSON(t, "/api/forgot-password", "", map[string]any{"email": "ada@x.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, unknown := env.postJSON(t, "/api/forgot-password", "", map[string]any{"email": "ghost@x.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Identical bodies: the response reveals nothing about account existence.
	require.Equal(t, known["message"], unknown["message"])
	require.Len(t, env.userRepo.tokens, 1)
}

func TestResetPasswordFlow(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "Ada", "ada@x.com", "user")

	resp, _ := env.postJSON(t, "/api/forgot-password", "", map[string]any{"email": "ada@x.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := env.userRepo.anyToken(t)

	resp, _ = env.postJSON(t, "/api/reset-password", "", map[string]any{
		"token": token, "newPass": "brand-new-pass",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Token is single use.
	resp, body := env.postJSON(t, "/api/reset-password", "", map[string]any{
		"token": token, "newPass": "another-pass",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid reset token", body["error"])

	// Old password dead, new one works.
	resp, _ = env.postJSON(t, "/api/login", "", map[string]any{"email": "ada@x.com", "pass": "hunter22"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.postJSON(t, "/api/login", "", map[string]any{"email": "ada@x.com", "pass": "brand-new-pass"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.get(t, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])
}

func TestValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		path string
		body map[string]any
	}{
		{"register missing email", "/api/register", map[string]any{"name": "A", "pass": "hunter22"}},
		{"register short password", "/api/register", map[string]any{"name": "A", "email": "a@x.com", "pass": "ab"}},
		{"login bad email", "/api/login", map[string]any{"email": "nope", "pass": "hunter22"}},
		{"forgot bad email", "/api/forgot-password", map[string]any{"email": "not-an-email"}},
		{"reset missing token", "/api/reset-password", map[string]any{"newPass": "hunter22"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := env.postJSON(t, tc.path, "", tc.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Contains(t, body, "error", fmt.Sprintf("body: %v", body))
		})
	}
}
