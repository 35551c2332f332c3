package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/storetest"
	pkg_hash "github.com/Skotchmaster/marketplace/pkg/hash"
	"github.com/Skotchmaster/marketplace/pkg/mail"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

type published struct {
	topic string
	key   string
	event Event
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic: topic, key: key, event: event.(Event)})
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.event.Type)
	}
	return out
}

type fakeMail struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMail) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMail) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

type memStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemStore() *memStore { return &memStore{files: map[string][]byte{}} }

func (s *memStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = b
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
	return nil
}

func (s *memStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.files))
	for k := range s.files {
		out = append(out, k)
	}
	return out
}

type fakeIndex struct {
	mu      sync.Mutex
	docs    map[uint]string
	failing bool
}

func newFakeIndex() *fakeIndex { return &fakeIndex{docs: map[uint]string{}} }

func (x *fakeIndex) Index(_ context.Context, p *models.Product) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.failing {
		return errors.New("index down")
	}
	x.docs[p.ID] = strings.ToLower(p.Name + " " + p.Description)
	return nil
}

func (x *fakeIndex) Delete(_ context.Context, id uint) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.docs, id)
	return nil
}

func (x *fakeIndex) SearchIDs(_ context.Context, q string) ([]uint, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	var ids []uint
	for id, text := range x.docs {
		if strings.Contains(text, strings.ToLower(q)) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (x *fakeIndex) has(id uint) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	_, ok := x.docs[id]
	return ok
}

type testEnv struct {
	repo     *repo.GormRepo
	auth     *AuthService
	confirm  *ConfirmService
	users    *UserService
	products *ProductService
	events   *fakePublisher
	mail     *fakeMail
	files    *memStore
	index    *fakeIndex
	tasks    *Tasks
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	r := repo.New(storetest.Open(t))
	env := &testEnv{
		repo:   r,
		events: &fakePublisher{},
		mail:   &fakeMail{},
		files:  newMemStore(),
		index:  newFakeIndex(),
		tasks:  &Tasks{},
	}
	env.confirm = &ConfirmService{
		Repo:    r,
		Secret:  []byte("test-email-secret"),
		MaxAge:  time.Hour,
		BaseURL: "http://shop.test",
		Mail:    env.mail,
		Events:  env.events,
		Tasks:   env.tasks,
	}
	env.auth = &AuthService{
		Repo: r,
		Issuer: &tokens.Issuer{
			AccessSecret:  []byte("test-access-secret"),
			RefreshSecret: []byte("test-refresh-secret"),
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
		},
		Confirm:       env.confirm,
		Events:        env.events,
		Tasks:         env.tasks,
		SingleSession: true,
	}
	env.users = &UserService{Repo: r, Files: env.files, Index: env.index, Events: env.events, Tasks: env.tasks, PhoneRegion: "US"}
	env.products = &ProductService{Repo: r, Files: env.files, Index: env.index, Events: env.events, Tasks: env.tasks}
	t.Cleanup(env.tasks.Wait)
	return env
}

// seedUser inserts a user directly, bypassing registration.
func (e *testEnv) seedUser(t *testing.T, username, password string, verified bool) *models.User {
	t.Helper()
	h, err := pkg_hash.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{Username: username, PasswordHash: h, Email: username + "@example.com", IsVerified: verified}
	require.NoError(t, e.repo.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) login(t *testing.T, username, password string) *LoginResult {
	t.Helper()
	res, err := e.auth.Login(context.Background(), username, password)
	require.NoError(t, err)
	return res
}

func upload(name, body string) Upload {
	return Upload{
		Filename:    name,
		ContentType: "application/octet-stream",
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte(body))), nil
		},
	}
}

func strptr(s string) *string { return &s }
