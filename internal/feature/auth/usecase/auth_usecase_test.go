package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"startup_boilerplate/internal/feature/auth/domain/entity"
	userentity "startup_boilerplate/internal/feature/user/domain/entity"
	useruc "startup_boilerplate/internal/feature/user/usecase"
)

// memUserRepository is an in-memory useruc.UserRepository.
type memUserRepository struct {
	mu    sync.Mutex
	users map[string]userentity.User
}

func (m *memUserRepository) Create(_ context.Context, u *userentity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; ok {
		return useruc.ErrUserAlreadyExists
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memUserRepository) FindByID(_ context.Context, id string) (*userentity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, useruc.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUserRepository) FindByEmail(_ context.Context, email string) (*userentity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email && !u.IsDeleted {
			return &u, nil
		}
	}
	return nil, useruc.ErrUserNotFound
}

func (m *memUserRepository) Update(_ context.Context, u *userentity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return useruc.ErrUserNotFound
	}
	m.users[u.ID] = *u
	return nil
}

func (m *memUserRepository) List(context.Context, useruc.ListFilter) ([]*userentity.User, error) {
	return nil, nil
}

// memSessionRepository is an in-memory SessionRepository.
type memSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]entity.Session

	CreateFunc func(s *entity.Session) error
}

func (m *memSessionRepository) Create(_ context.Context, s *entity.Session) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *memSessionRepository) FindByID(_ context.Context, id string) (*entity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *memSessionRepository) FindByUserID(_ context.Context, userID string) ([]*entity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Session
	for _, s := range m.sessions {
		if s.UserID == userID && s.IsValid() {
			s := s
			out = append(out, &s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memSessionRepository) Revoke(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	now := time.Now()
	s.RevokedAt = &now
	m.sessions[id] = s
	return nil
}

func (m *memSessionRepository) RevokeAllByUserID(ctx context.Context, userID string) error {
	active, _ := m.FindByUserID(ctx, userID)
	for _, s := range active {
		if err := m.Revoke(ctx, s.ID); err != nil {
			return err
		}
	}
	return nil
}

func (m *memSessionRepository) DeleteExpired(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.IsExpired() || s.IsRevoked() {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *memSessionRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	active, err := m.FindByUserID(ctx, userID)
	return int64(len(active)), err
}

func (m *memSessionRepository) DeleteOldestByUserID(ctx context.Context, userID string) error {
	active, _ := m.FindByUserID(ctx, userID)
	if len(active) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, active[0].ID)
	return nil
}

// mockJWTGenerator is a mock implementation of JWTGenerator.
type mockJWTGenerator struct {
	GenerateTokenFunc func(userID, email string) (string, error)
}

func (m *mockJWTGenerator) GenerateToken(userID, email string) (string, error) {
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(userID, email)
	}
	return "mock-jwt-token", nil
}

type fixture struct {
	uc       *authUsecase
	users    *memUserRepository
	sessions *memSessionRepository
	jwt      *mockJWTGenerator
}

func newFixture(t *testing.T, maxSessions int) *fixture {
	t.Helper()
	users := &memUserRepository{users: map[string]userentity.User{}}
	sessions := &memSessionRepository{sessions: map[string]entity.Session{}}
	jwt := &mockJWTGenerator{}
	uc := NewAuthUsecase(useruc.NewUserUsecase(users), sessions, jwt, Config{
		SessionTTL:         time.Hour,
		MaxSessionsPerUser: maxSessions,
	})
	return &fixture{uc: uc, users: users, sessions: sessions, jwt: jwt}
}

func (f *fixture) seedLocalUser(t *testing.T, id, email, password string) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	hash := string(hashed)
	now := time.Now().UTC()
	f.users.users[id] = userentity.User{
		ID: id, Email: email, HashedPassword: &hash, IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
}

var googleIdentity = ExternalIdentity{
	Provider:      "google",
	Subject:       "1234",
	Email:         "ada@example.com",
	FirstName:     "Ada",
	LastName:      "Lovelace",
	ImageURL:      "https://example.com/ada.png",
	EmailVerified: true,
}

func TestAuthUsecase_Signup(t *testing.T) {
	ctx := context.Background()

	t.Run("successful signup", func(t *testing.T) {
		f := newFixture(t, 0)

		u, err := f.uc.Signup(ctx, "test@example.com", "password123")
		require.NoError(t, err)

		assert.NotEmpty(t, u.ID)
		assert.True(t, u.IsActive)
		assert.False(t, u.IsEmailVerified)
		require.True(t, u.HasPassword())
		assert.NotEqual(t, "password123", *u.HashedPassword, "password is hashed")
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*u.HashedPassword), []byte("password123")))
	})

	t.Run("short password", func(t *testing.T) {
		f := newFixture(t, 0)

		_, err := f.uc.Signup(ctx, "test@example.com", "short")
		assert.ErrorIs(t, err, ErrWeakPassword)
		assert.Empty(t, f.users.users)
	})

	t.Run("password over 72 bytes", func(t *testing.T) {
		f := newFixture(t, 0)

		_, err := f.uc.Signup(ctx, "test@example.com", strings.Repeat("a", 73))
		assert.ErrorIs(t, err, ErrWeakPassword)
		assert.Empty(t, f.users.users)

		_, err = f.uc.Signup(ctx, "test@example.com", strings.Repeat("a", 72))
		assert.NoError(t, err)
	})

	t.Run("email held by active user", func(t *testing.T) {
		f := newFixture(t, 0)
		f.seedLocalUser(t, "u1", "test@example.com", "password123")

		_, err := f.uc.Signup(ctx, "test@example.com", "password123")
		assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	})

	t.Run("email of a deleted user can be reused", func(t *testing.T) {
		f := newFixture(t, 0)
		f.seedLocalUser(t, "u1", "test@example.com", "password123")
		_, err := f.uc.CloseAccount(ctx, "u1")
		require.NoError(t, err)

		u, err := f.uc.Signup(ctx, "test@example.com", "password456")
		require.NoError(t, err)
		assert.NotEqual(t, "u1", u.ID, "ids are never reused")
	})
}

func TestAuthUsecase_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("successful login", func(t *testing.T) {
		f := newFixture(t, 0)
		f.seedLocalUser(t, "u1", "test@example.com", "password123")
		f.jwt.GenerateTokenFunc = func(userID, email string) (string, error) {
			assert.Equal(t, "u1", userID)
			assert.Equal(t, "test@example.com", email)
			return "signed", nil
		}

		token, err := f.uc.Login(ctx, "test@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, "signed", token)
	})

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"user not found", "wrong@example.com", "password123"},
		{"incorrect password", "test@example.com", "wrong-password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 0)
			f.seedLocalUser(t, "u1", "test@example.com", "password123")

			_, err := f.uc.Login(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}

	t.Run("external-only user has no password", func(t *testing.T) {
		f := newFixture(t, 0)
		_, _, err := f.uc.CompleteExternalSignIn(ctx, googleIdentity, SessionMeta{})
		require.NoError(t, err)

		_, err = f.uc.Login(ctx, googleIdentity.Email, "anything-long")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("deleted user cannot log in", func(t *testing.T) {
		f := newFixture(t, 0)
		f.seedLocalUser(t, "u1", "test@example.com", "password123")
		_, err := f.uc.CloseAccount(ctx, "u1")
		require.NoError(t, err)

		_, err = f.uc.Login(ctx, "test@example.com", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("deactivated user is reactivated", func(t *testing.T) {
		f := newFixture(t, 0)
		f.seedLocalUser(t, "u1", "test@example.com", "password123")
		_, err := f.uc.DeactivateAccount(ctx, "u1")
		require.NoError(t, err)

		_, err = f.uc.Login(ctx, "test@example.com", "password123")
		require.NoError(t, err)
		assert.True(t, f.users.users["u1"].IsActive)
	})

	t.Run("JWT generation failure", func(t *testing.T) {
		f := newFixture(t, 0)
		f.seedLocalUser(t, "u1", "test@example.com", "password123")
		boom := errors.New("signing failed")
		f.jwt.GenerateTokenFunc = func(string, string) (string, error) { return "", boom }

		_, err := f.uc.Login(ctx, "test@example.com", "password123")
		assert.ErrorIs(t, err, boom)
	})
}

func TestAuthUsecase_CompleteExternalSignIn(t *testing.T) {
	ctx := context.Background()
	meta := SessionMeta{UserAgent: "test-agent", IPAddress: "127.0.0.1"}

	t.Run("first sign-in creates user and session", func(t *testing.T) {
		f := newFixture(t, 0)

		s, u, err := f.uc.CompleteExternalSignIn(ctx, googleIdentity, meta)
		require.NoError(t, err)

		assert.Equal(t, "google|1234", u.ID)
		assert.Equal(t, "Ada", *u.FirstName)
		assert.True(t, u.IsEmailVerified)
		assert.Nil(t, u.HashedPassword)
		assert.Equal(t, u.CreatedAt, u.UpdatedAt)

		assert.Len(t, s.ID, 64)
		assert.Equal(t, u.ID, s.UserID)
		assert.Equal(t, "google", s.Provider)
		assert.Equal(t, "test-agent", s.UserAgent)
		assert.Equal(t, time.Hour, s.ExpiresAt.Sub(s.CreatedAt))
	})

	t.Run("repeat sign-in reuses the user", func(t *testing.T) {
		f := newFixture(t, 0)

		s1, u1, err := f.uc.CompleteExternalSignIn(ctx, googleIdentity, meta)
		require.NoError(t, err)
		s2, u2, err := f.uc.CompleteExternalSignIn(ctx, googleIdentity, meta)
		require.NoError(t, err)

		assert.Equal(t, u1.ID, u2.ID)
		assert.NotEqual(t, s1.ID, s2.ID)
		assert.Len(t, f.users.users, 1)
	})

	t.Run("unverified email is verified on a later sign-in", func(t *testing.T) {
		f := newFixture(t, 0)
		unverified := googleIdentity
		unverified.EmailVerified = false

		_, u, err := f.uc.CompleteExternalSignIn(ctx, unverified, meta)
		require.NoError(t, err)
		assert.False(t, u.IsEmailVerified)

		_, u, err = f.uc.CompleteExternalSignIn(ctx, googleIdentity, meta)
		require.NoError(t, err)
		assert.True(t, u.IsEmailVerified)
	})

	t.Run("deactivated user is reactivated", func(t *testing.T) {
		f := newFixture(t, 0)
		_, u, err := f.uc.CompleteExternalSignIn(ctx, googleIdentity, meta)
		require.NoError(t, err)
		_, err = f.uc.DeactivateAccount(ctx, u.ID)
		require.NoError(t, err)

		_, u, err = f.uc.CompleteExternalSignIn(ctx, googleIdentity, meta)
		require.NoError(t, err)
		assert.Equal(t, userentity.StatusActive, u.Status())
	})

	t.Run("deleted user is rejected", func(t *testing.T) {
		f := newFixture(t, 0)
		_, u, err := f.uc.CompleteExternalSignIn(ctx, googleIdentity, meta)
		require.NoError(t, err)
		_, err = f.uc.CloseAccount(ctx, u.ID)
		require.NoError(t, err)

		_, _, err = f.uc.CompleteExternalSignIn(ctx, googleIdentity, meta)
		assert.ErrorIs(t, err, useruc.ErrUserDeleted)
	})

	t.Run("incomplete identity", func(t *testing.T) {
		f := newFixture(t, 0)
		noEmail := googleIdentity
		noEmail.Email = ""

		_, _, err := f.uc.CompleteExternalSignIn(ctx, noEmail, meta)
		assert.ErrorIs(t, err, ErrIdentityIncomplete)
	})

	t.Run("session cap evicts the oldest", func(t *testing.T) {
		f := newFixture(t, 2)

		var ids []string
		for i := 0; i < 3; i++ {
			s, _, err := f.uc.CompleteExternalSignIn(ctx, googleIdentity, meta)
			require.NoError(t, err)
			ids = append(ids, s.ID)
			time.Sleep(time.Millisecond)
		}

		count, err := f.sessions.CountByUserID(ctx, "google|1234")
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)

		_, err = f.sessions.FindByID(ctx, ids[0])
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("long user agent is cut on a rune boundary", func(t *testing.T) {
		f := newFixture(t, 0)
		ua := "a" + strings.Repeat("日", 600)

		s, _, err := f.uc.CompleteExternalSignIn(ctx, googleIdentity, SessionMeta{UserAgent: ua, IPAddress: "127.0.0.1"})
		require.NoError(t, err)
		assert.True(t, utf8.ValidString(s.UserAgent))
		assert.Equal(t, 512, utf8.RuneCountInString(s.UserAgent))
		assert.True(t, strings.HasPrefix(ua, s.UserAgent))
	})

	t.Run("session store failure", func(t *testing.T) {
		f := newFixture(t, 0)
		boom := errors.New("store down")
		f.sessions.CreateFunc = func(*entity.Session) error { return boom }

		_, _, err := f.uc.CompleteExternalSignIn(ctx, googleIdentity, meta)
		assert.ErrorIs(t, err, boom)
	})
}

func TestAuthUsecase_ResolveSession(t *testing.T) {
	ctx := context.Background()

	t.Run("valid session", func(t *testing.T) {
		f := newFixture(t, 0)
		s, _, err := f.uc.CompleteExternalSignIn(ctx, googleIdentity, SessionMeta{})
		require.NoError(t, err)

		u, err := f.uc.ResolveSession(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "google|1234", u.ID)
	})

	t.Run("empty and unknown ids", func(t *testing.T) {
		f := newFixture(t, 0)

		_, err := f.uc.ResolveSession(ctx, "")
		assert.ErrorIs(t, err, ErrSessionNotFound)
		_, err = f.uc.ResolveSession(ctx, "nope")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("revoked session", func(t *testing.T) {
		f := newFixture(t, 0)
		s, _, err := f.uc.CompleteExternalSignIn(ctx, googleIdentity, SessionMeta{})
		require.NoError(t, err)
		require.NoError(t, f.uc.SignOut(ctx, s.ID))

		_, err = f.uc.ResolveSession(ctx, s.ID)
		assert.ErrorIs(t, err, ErrSessionRevoked)
	})

	t.Run("expired session", func(t *testing.T) {
		f := newFixture(t, 0)
		s, _, err := f.uc.CompleteExternalSignIn(ctx, googleIdentity, SessionMeta{})
		require.NoError(t, err)
		f.uc.now = func() time.Time { return s.ExpiresAt.Add(time.Second) }

		_, err = f.uc.ResolveSession(ctx, s.ID)
		assert.ErrorIs(t, err, ErrSessionExpired)
	})

	t.Run("deactivated user", func(t *testing.T) {
		f := newFixture(t, 0)
		s, u, err := f.uc.CompleteExternalSignIn(ctx, googleIdentity, SessionMeta{})
		require.NoError(t, err)
		_, err = useruc.NewUserUsecase(f.users).Deactivate(ctx, u.ID)
		require.NoError(t, err)

		_, err = f.uc.ResolveSession(ctx, s.ID)
		assert.ErrorIs(t, err, useruc.ErrUserInactive)
	})
}

func TestAuthUsecase_ResolveUser(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name    string
		prepare func(f *fixture) error
		wantErr error
	}{
		{"active", func(*fixture) error { return nil }, nil},
		{"deactivated", func(f *fixture) error { _, err := f.uc.DeactivateAccount(ctx, "u1"); return err }, useruc.ErrUserInactive},
		{"deleted", func(f *fixture) error { _, err := f.uc.CloseAccount(ctx, "u1"); return err }, useruc.ErrUserDeleted},
		{"unknown", func(f *fixture) error { delete(f.users.users, "u1"); return nil }, useruc.ErrUserNotFound},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 0)
			f.seedLocalUser(t, "u1", "test@example.com", "password123")
			require.NoError(t, tc.prepare(f))

			u, err := f.uc.ResolveUser(ctx, "u1")
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, u)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u1", u.ID)
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc"},
		{"héllo", 2, "hé"},
		{"日本語", 2, "日本"},
		{"ok\xffbad", 10, "okbad"},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		assert.Equal(t, tt.want, got, tt.in)
		assert.True(t, utf8.ValidString(got))
	}
}

func TestAuthUsecase_SignOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	assert.NoError(t, f.uc.SignOut(ctx, ""))
	assert.NoError(t, f.uc.SignOut(ctx, "unknown"), "signing out twice is not an error")
}

func TestAuthUsecase_AccountClosureRevokesSessions(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name string
		fn   func(f *fixture, id string) (*userentity.User, error)
		want userentity.Status
	}{
		{"deactivate", func(f *fixture, id string) (*userentity.User, error) { return f.uc.DeactivateAccount(ctx, id) }, userentity.StatusDeactivated},
		{"close", func(f *fixture, id string) (*userentity.User, error) { return f.uc.CloseAccount(ctx, id) }, userentity.StatusDeleted},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, 0)
			s, u, err := f.uc.CompleteExternalSignIn(ctx, googleIdentity, SessionMeta{})
			require.NoError(t, err)

			got, err := tc.fn(f, u.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Status())

			stored, err := f.sessions.FindByID(ctx, s.ID)
			require.NoError(t, err)
			assert.True(t, stored.IsRevoked())
		})
	}
}

func TestAuthUsecase_PurgeExpiredSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	past := time.Now().Add(-time.Hour)
	f.sessions.sessions["revoked"] = entity.Session{ID: "revoked", UserID: "u1", CreatedAt: past, ExpiresAt: time.Now().Add(time.Hour), RevokedAt: &past}
	f.sessions.sessions["old"] = entity.Session{ID: "old", UserID: "u1", CreatedAt: past.Add(-time.Hour), ExpiresAt: past}
	f.sessions.sessions["new"] = entity.Session{ID: "new", UserID: "u1", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}

	n, err := f.uc.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Contains(t, f.sessions.sessions, "new")
}
