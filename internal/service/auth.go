package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/validate"
	pkg_hash "github.com/Skotchmaster/marketplace/pkg/hash"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/pkg/metrics"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

const maxUsernameLen = 50

// RevocationCache mirrors revoked jtis. It only ever answers "yes" with
// authority; a miss falls through to the database.
type RevocationCache interface {
	MarkRevoked(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type AuthService struct {
	Repo          *repo.GormRepo
	Issuer        *tokens.Issuer
	Confirm       *ConfirmService
	Revocations   RevocationCache
	Events        Publisher
	Tasks         *Tasks
	SingleSession bool
	Now           func() time.Time
}

type LoginResult struct {
	Username string
	IsAdmin  bool
	*tokens.Pair
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) Register(ctx context.Context, username, password, email string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", username)

	email = normalizeEmail(email)
	switch {
	case username == "":
		return nil, fail(ErrValidation, "Username is missing.")
	case password == "":
		return nil, fail(ErrValidation, "Password is missing.")
	case email == "":
		return nil, fail(ErrValidation, "Email is missing.")
	case len(username) > maxUsernameLen:
		return nil, fail(ErrValidation, "Username is too long.")
	case !validate.Email(email):
		return nil, ErrInvalidEmail
	}

	if taken, err := s.Repo.UsernameExists(ctx, username); err != nil {
		return nil, err
	} else if taken {
		l.Warn("register_error", "status", 400, "reason", "username taken")
		return nil, ErrUsernameTaken
	}
	if taken, err := s.Repo.EmailExists(ctx, email); err != nil {
		return nil, err
	} else if taken {
		l.Warn("register_error", "status", 400, "reason", "email taken")
		return nil, ErrEmailTaken
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		if errors.Is(err, pkg_hash.ErrPasswordTooLong) {
			return nil, fail(ErrValidation, "Password is too long.")
		}
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: pwHash,
		Email:        email,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// lost a race with a concurrent registration
			if taken, _ := s.Repo.UsernameExists(ctx, username); taken {
				return nil, ErrUsernameTaken
			}
			return nil, ErrEmailTaken
		}
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return nil, err
	}

	publishUser(ctx, s.Events, s.Tasks, EventUserRegistered, username)
	if s.Confirm != nil {
		s.Confirm.SendConfirmationAsync(ctx, email)
	}
	metrics.AuthEvents.WithLabelValues("register", "ok").Inc()
	l.Info("register_success")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	switch {
	case username == "":
		return nil, fail(ErrValidation, "Username is missing.")
	case password == "":
		return nil, fail(ErrValidation, "Password is missing.")
	}

	user, err := s.Repo.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "status", 400, "reason", "unknown username")
			metrics.AuthEvents.WithLabelValues("login", "mismatch").Inc()
			return nil, ErrCredentialMismatch
		}
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 400, "reason", "wrong password")
		metrics.AuthEvents.WithLabelValues("login", "mismatch").Inc()
		return nil, ErrCredentialMismatch
	}
	if user.IsBanned {
		l.Warn("login_failed", "status", 403, "reason", "banned")
		metrics.AuthEvents.WithLabelValues("login", "banned").Inc()
		return nil, ErrUserBanned
	}
	if !user.IsVerified {
		l.Warn("login_failed", "status", 403, "reason", "unverified")
		metrics.AuthEvents.WithLabelValues("login", "unverified").Inc()
		return nil, ErrUserUnverified
	}

	now := s.now()
	sessionID := uuid.NewString()
	pair, err := s.Issuer.Issue(user.Username, user.Role(), sessionID, now)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	if s.SingleSession {
		err := s.Repo.ReplaceSession(ctx, &models.Session{
			Username:  user.Username,
			SessionID: sessionID,
			TokenHash: tokens.Sha256Hex(pair.RefreshToken),
			ExpiresAt: pair.RefreshExp.UTC(),
		})
		if err != nil {
			l.Error("login_failed", "status", 500, "reason", "cannot store session", "error", err)
			return nil, err
		}
	}

	metrics.AuthEvents.WithLabelValues("login", "ok").Inc()
	l.Info("login_success")
	return &LoginResult{Username: user.Username, IsAdmin: user.IsAdmin, Pair: pair}, nil
}

// Refresh trades a refresh token for a new pair. The presented refresh token
// is revoked in the same transaction that rotates the session, so only one
// concurrent caller can use it.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, accessToken string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.Issuer.RefreshSecret)
	if err != nil || claims.ID == "" || claims.Subject == "" {
		l.Warn("refresh_failed", "status", 401, "reason", "invalid refresh token", "error", err)
		metrics.AuthEvents.WithLabelValues("refresh", "invalid").Inc()
		return nil, ErrBadToken
	}
	l = l.With("username", claims.Subject)

	refreshExp := expiryOf(claims.ExpiresAt, s.now())
	revoked, err := s.isRevoked(ctx, claims.ID, refreshExp)
	if err != nil {
		return nil, err
	}
	if revoked {
		l.Warn("refresh_failed", "status", 401, "reason", "refresh token revoked")
		metrics.AuthEvents.WithLabelValues("refresh", "revoked").Inc()
		return nil, ErrRevoked
	}

	user, err := s.Repo.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrBadToken
		}
		return nil, err
	}

	var oldAccess *repo.TokenRef
	if accessToken != "" {
		ac, err := tokens.AccessClaimsIgnoringExpiry(accessToken, s.Issuer.AccessSecret)
		if err == nil && ac.Subject == claims.Subject && ac.SessionID == claims.SessionID && ac.ID != "" {
			oldAccess = &repo.TokenRef{JTI: ac.ID, ExpiresAt: expiryOf(ac.ExpiresAt, s.now())}
		}
	}

	pair, err := s.Issuer.Issue(user.Username, user.Role(), claims.SessionID, s.now())
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	oldRefresh := repo.TokenRef{JTI: claims.ID, ExpiresAt: refreshExp}
	err = s.Repo.RotateRefresh(ctx, repo.RotateParams{
		Username:     user.Username,
		SessionID:    claims.SessionID,
		OldRefresh:   oldRefresh,
		OldAccess:    oldAccess,
		NewTokenHash: tokens.Sha256Hex(pair.RefreshToken),
		NewExpiresAt: pair.RefreshExp,
		CheckSession: s.SingleSession,
	})
	switch {
	case errors.Is(err, repo.ErrAlreadyRevoked):
		l.Warn("refresh_failed", "status", 401, "reason", "refresh token already used")
		metrics.AuthEvents.WithLabelValues("refresh", "revoked").Inc()
		return nil, ErrRevoked
	case errors.Is(err, repo.ErrStaleSession):
		l.Warn("refresh_failed", "status", 401, "reason", "session replaced")
		metrics.AuthEvents.WithLabelValues("refresh", "stale").Inc()
		return nil, ErrSessionEnded
	case err != nil:
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, err
	}

	s.mirror(ctx, oldRefresh)
	if oldAccess != nil {
		s.mirror(ctx, *oldAccess)
	}

	metrics.AuthEvents.WithLabelValues("refresh", "ok").Inc()
	l.Info("refresh_success")
	return &LoginResult{Username: user.Username, IsAdmin: user.IsAdmin, Pair: pair}, nil
}

// Logout revokes whatever tokens it can make sense of and ends the session
// they belong to. Unparseable or already revoked tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	var p repo.LogoutParams
	if ac, err := tokens.AccessClaimsIgnoringExpiry(accessToken, s.Issuer.AccessSecret); err == nil && ac.ID != "" {
		p.Username, p.SessionID = ac.Subject, ac.SessionID
		p.Revoke = append(p.Revoke, repo.TokenRef{JTI: ac.ID, ExpiresAt: expiryOf(ac.ExpiresAt, s.now())})
	}
	if rc, err := tokens.RefreshClaimsIgnoringExpiry(refreshToken, s.Issuer.RefreshSecret); err == nil && rc.ID != "" {
		if p.Username == "" || p.Username == rc.Subject {
			p.Username, p.SessionID = rc.Subject, firstNonEmpty(p.SessionID, rc.SessionID)
			p.Revoke = append(p.Revoke, repo.TokenRef{JTI: rc.ID, ExpiresAt: expiryOf(rc.ExpiresAt, s.now())})
		}
	}
	if len(p.Revoke) == 0 {
		l.Info("logout_noop")
		return nil
	}

	if err := s.Repo.Logout(ctx, p); err != nil {
		l.Error("logout_failed", "status", 500, "error", err)
		return err
	}
	for _, t := range p.Revoke {
		s.mirror(ctx, t)
	}

	metrics.AuthEvents.WithLabelValues("logout", "ok").Inc()
	l.Info("logout_success", "username", p.Username)
	return nil
}

// Authenticate validates an access token for a protected request.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*tokens.AccessClaims, error) {
	claims, err := tokens.AccessClaimsFromToken(accessToken, s.Issuer.AccessSecret)
	if err != nil || claims.Subject == "" {
		return nil, ErrBadToken
	}

	revoked, err := s.isRevoked(ctx, claims.ID, expiryOf(claims.ExpiresAt, s.now()))
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevoked
	}

	if s.SingleSession {
		active, err := s.Repo.SessionActive(ctx, claims.Subject, claims.SessionID)
		if err != nil {
			return nil, err
		}
		if !active {
			return nil, ErrSessionEnded
		}
	}
	return claims, nil
}

func (s *AuthService) isRevoked(ctx context.Context, jti string, exp time.Time) (bool, error) {
	if jti == "" {
		return true, nil
	}
	if s.Revocations != nil {
		hit, err := s.Revocations.IsRevoked(ctx, jti)
		if err != nil {
			logging.FromContext(ctx).Warn("revocation_cache_failed", "error", err)
		} else if hit {
			return true, nil
		}
	}

	revoked, err := s.Repo.IsRevoked(ctx, jti)
	if err != nil {
		return false, err
	}
	if revoked {
		s.mirror(ctx, repo.TokenRef{JTI: jti, ExpiresAt: exp})
	}
	return revoked, nil
}

func (s *AuthService) mirror(ctx context.Context, t repo.TokenRef) {
	if s.Revocations == nil {
		return
	}
	ttl := t.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	if err := s.Revocations.MarkRevoked(ctx, t.JTI, ttl); err != nil {
		logging.FromContext(ctx).Warn("revocation_cache_failed", "error", err)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func expiryOf(d *jwt.NumericDate, fallback time.Time) time.Time {
	if d == nil {
		return fallback
	}
	return d.Time
}
