package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"startup_boilerplate/internal/feature/auth/domain/entity"
	userentity "startup_boilerplate/internal/feature/user/domain/entity"
	useruc "startup_boilerplate/internal/feature/user/usecase"
)

const (
	// minPasswordLength defines the minimum number of characters for a password.
	minPasswordLength = 8

	// maxPasswordBytes is the bcrypt input limit.
	maxPasswordBytes = 72

	// sessionIDBytes is the entropy of a session ID; hex encoding doubles it.
	sessionIDBytes = 32

	// dummyHash keeps Login timing uniform when the user does not exist.
	dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// UserService is the subset of the user usecase the auth flows depend on.
type UserService interface {
	Create(ctx context.Context, params userentity.NewUserParams) (*userentity.User, error)
	Get(ctx context.Context, id string) (*userentity.User, error)
	FindByEmail(ctx context.Context, email string) (*userentity.User, error)
	EnsureFromIdentity(ctx context.Context, params userentity.NewUserParams) (*userentity.User, bool, error)
	MarkEmailVerified(ctx context.Context, id string) (*userentity.User, error)
	Reactivate(ctx context.Context, id string) (*userentity.User, error)
	Deactivate(ctx context.Context, id string) (*userentity.User, error)
	SoftDelete(ctx context.Context, id string) (*userentity.User, error)
}

// JWTGenerator defines the interface for generating JWT tokens.
type JWTGenerator interface {
	// GenerateToken generates a signed JWT for the given user.
	GenerateToken(userID, email string) (string, error)
}

// ExternalIdentity is the normalized result of a completed identity-provider sign-in.
type ExternalIdentity struct {
	Provider      string
	Subject       string
	Email         string
	FirstName     string
	LastName      string
	ImageURL      string
	EmailVerified bool
}

// UserID returns the local user ID derived from the provider and subject.
func (i ExternalIdentity) UserID() string {
	return i.Provider + "|" + i.Subject
}

// SessionMeta describes the client that opened a session.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

// Config holds the session policy.
type Config struct {
	SessionTTL         time.Duration
	MaxSessionsPerUser int
}

// authUsecase implements authentication business logic.
type authUsecase struct {
	users        UserService
	sessions     SessionRepository
	jwtGenerator JWTGenerator
	cfg          Config
	now          func() time.Time
}

// NewAuthUsecase creates a new instance of authUsecase.
func NewAuthUsecase(users UserService, sessions SessionRepository, jwtGenerator JWTGenerator, cfg Config) *authUsecase {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	return &authUsecase{
		users:        users,
		sessions:     sessions,
		jwtGenerator: jwtGenerator,
		cfg:          cfg,
		now:          time.Now,
	}
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters long", ErrWeakPassword, minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: must be at most %d bytes long", ErrWeakPassword, maxPasswordBytes)
	}
	return nil
}

// Signup registers a new local user with a hashed password.
// The email must not belong to another non-deleted user.
func (u *authUsecase) Signup(ctx context.Context, email, password string) (*userentity.User, error) {
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	_, err := u.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrEmailAlreadyExists
	case !errors.Is(err, useruc.ErrUserNotFound):
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hash := string(hashed)

	return u.users.Create(ctx, userentity.NewUserParams{
		ID:             uuid.NewString(),
		Email:          email,
		HashedPassword: &hash,
	})
}

// Login authenticates a local user and returns a signed JWT.
// The bcrypt comparison always runs so a missing user costs the same as a wrong password.
// A deactivated user is reactivated by a successful login.
func (u *authUsecase) Login(ctx context.Context, email, password string) (string, error) {
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, useruc.ErrUserNotFound) {
		return "", err
	}

	passwordHash := dummyHash
	if err == nil && user.HasPassword() {
		passwordHash = *user.HashedPassword
	}

	compareErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))
	if err != nil || compareErr != nil || !user.HasPassword() {
		return "", ErrInvalidCredentials
	}

	if !user.IsActive {
		if user, err = u.users.Reactivate(ctx, user.ID); err != nil {
			return "", err
		}
	}

	token, err := u.jwtGenerator.GenerateToken(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// CompleteExternalSignIn gets or creates the user for a provider identity and opens a session.
func (u *authUsecase) CompleteExternalSignIn(ctx context.Context, id ExternalIdentity, meta SessionMeta) (*entity.Session, *userentity.User, error) {
	if id.Provider == "" || id.Subject == "" || id.Email == "" {
		return nil, nil, ErrIdentityIncomplete
	}

	verified := id.EmailVerified
	user, created, err := u.users.EnsureFromIdentity(ctx, userentity.NewUserParams{
		ID:              id.UserID(),
		Email:           id.Email,
		FirstName:       optional(id.FirstName),
		LastName:        optional(id.LastName),
		ImageURL:        optional(id.ImageURL),
		IsEmailVerified: &verified,
	})
	if err != nil {
		return nil, nil, err
	}

	if !created {
		if !user.IsActive {
			if user, err = u.users.Reactivate(ctx, user.ID); err != nil {
				return nil, nil, err
			}
		}
		if verified && !user.IsEmailVerified {
			if user, err = u.users.MarkEmailVerified(ctx, user.ID); err != nil {
				return nil, nil, err
			}
		}
	}

	session, err := u.openSession(ctx, user.ID, id.Provider, meta)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("external sign-in completed", "user_id", user.ID, "provider", id.Provider, "created", created)
	return session, user, nil
}

// openSession enforces the per-user session cap and stores a new session.
func (u *authUsecase) openSession(ctx context.Context, userID, provider string, meta SessionMeta) (*entity.Session, error) {
	if limit := u.cfg.MaxSessionsPerUser; limit > 0 {
		count, err := u.sessions.CountByUserID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to count sessions: %w", err)
		}
		for ; count >= int64(limit); count-- {
			if err := u.sessions.DeleteOldestByUserID(ctx, userID); err != nil {
				return nil, fmt.Errorf("failed to evict oldest session: %w", err)
			}
		}
	}

	sid, err := newSessionID()
	if err != nil {
		return nil, err
	}
	now := u.now().UTC()
	session := &entity.Session{
		ID:        sid,
		UserID:    userID,
		Provider:  provider,
		UserAgent: truncate(meta.UserAgent, 512),
		IPAddress: truncate(meta.IPAddress, 45),
		CreatedAt: now,
		ExpiresAt: now.Add(u.cfg.SessionTTL),
	}
	if err := u.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// ResolveSession returns the active user behind a session ID.
func (u *authUsecase) ResolveSession(ctx context.Context, sessionID string) (*userentity.User, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	session, err := u.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsRevoked() {
		return nil, ErrSessionRevoked
	}
	if session.IsExpiredAt(u.now()) {
		return nil, ErrSessionExpired
	}

	return u.ResolveUser(ctx, session.UserID)
}

// ResolveUser returns the user behind an authenticated principal if the account is still active.
func (u *authUsecase) ResolveUser(ctx context.Context, userID string) (*userentity.User, error) {
	user, err := u.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch user.Status() {
	case userentity.StatusDeleted:
		return nil, useruc.ErrUserDeleted
	case userentity.StatusDeactivated:
		return nil, useruc.ErrUserInactive
	}
	return user, nil
}

// SignOut revokes the session. Signing out of an unknown session is not an error.
func (u *authUsecase) SignOut(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := u.sessions.Revoke(ctx, sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return nil
}

// DeactivateAccount deactivates the user and revokes every session.
func (u *authUsecase) DeactivateAccount(ctx context.Context, userID string) (*userentity.User, error) {
	user, err := u.users.Deactivate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.sessions.RevokeAllByUserID(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return user, nil
}

// CloseAccount soft-deletes the user and revokes every session.
func (u *authUsecase) CloseAccount(ctx context.Context, userID string) (*userentity.User, error) {
	user, err := u.users.SoftDelete(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := u.sessions.RevokeAllByUserID(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to revoke sessions: %w", err)
	}
	return user, nil
}

// PurgeExpiredSessions removes expired and revoked sessions and reports how many were removed.
func (u *authUsecase) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return u.sessions.DeleteExpired(ctx)
}

func newSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// truncate caps s at n runes and drops invalid UTF-8.
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
