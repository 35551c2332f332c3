package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/pkg/mail"
	"github.com/Skotchmaster/marketplace/pkg/metrics"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

const (
	DefaultConfirmMaxAge = time.Hour
	DefaultMailTimeout   = 10 * time.Second
)

// ConfirmService issues and checks signed email-confirmation tokens.
type ConfirmService struct {
	Repo        *repo.GormRepo
	Secret      []byte
	MaxAge      time.Duration
	BaseURL     string
	Mail        mail.Sender
	MailTimeout time.Duration
	Events      Publisher
	Tasks       *Tasks
	Now         func() time.Time
}

func (s *ConfirmService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ConfirmService) maxAge() time.Duration {
	if s.MaxAge > 0 {
		return s.MaxAge
	}
	return DefaultConfirmMaxAge
}

func (s *ConfirmService) Token(email string) (string, error) {
	return tokens.NewConfirmToken(s.Secret, email, s.now(), s.maxAge())
}

func (s *ConfirmService) Link(token string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/api/user/confirm/" + url.PathEscape(token)
}

// SendConfirmation mails a fresh confirmation link to email. It blocks for at
// most MailTimeout.
func (s *ConfirmService) SendConfirmation(ctx context.Context, email string) error {
	token, err := s.Token(email)
	if err != nil {
		return fmt.Errorf("sign confirmation token: %w", err)
	}
	if s.Mail == nil {
		return nil
	}

	timeout := s.MailTimeout
	if timeout <= 0 {
		timeout = DefaultMailTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err = s.Mail.Send(ctx, mail.Message{
		To:      email,
		Subject: "Confirm your email",
		Body: "Please confirm your email address by opening the link below.\n\n" +
			s.Link(token) + "\n\nThe link expires in " + s.maxAge().String() + ".\n",
	})
	if err != nil {
		metrics.MailDeliveries.WithLabelValues("failed").Inc()
		return err
	}
	metrics.MailDeliveries.WithLabelValues("sent").Inc()
	return nil
}

// SendConfirmationAsync delivers the link in the background. The request
// that triggered it never sees the outcome.
func (s *ConfirmService) SendConfirmationAsync(ctx context.Context, email string) {
	l := logging.FromContext(ctx).With("svc", "confirm.send")
	bg := logging.IntoContext(context.WithoutCancel(ctx), l)
	s.Tasks.Go(func() {
		if err := s.SendConfirmation(bg, email); err != nil {
			l.Warn("confirmation_mail_failed", "reason", "mail delivery failed", "error", err)
			return
		}
		l.Info("confirmation_mail_sent")
	})
}

// Confirm marks the owner of the token's email as verified. A still-valid
// token can be used again; the second use changes nothing.
func (s *ConfirmService) Confirm(ctx context.Context, token string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "confirm.confirm")

	claims, err := tokens.ConfirmClaimsFromToken(token, s.Secret, s.now(), s.maxAge())
	if err != nil {
		l.Warn("confirm_failed", "status", 403, "reason", "bad or expired token", "error", err)
		metrics.AuthEvents.WithLabelValues("confirm", "invalid").Inc()
		return nil, ErrConfirmFailed
	}

	before, err := s.Repo.GetUserByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("confirm_failed", "status", 404, "reason", "no user for email")
			return nil, fail(ErrNotFound, "No user found with this email.")
		}
		return nil, err
	}

	user, err := s.Repo.MarkVerified(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fail(ErrNotFound, "No user found with this email.")
		}
		return nil, err
	}

	if !before.IsVerified {
		publishUser(ctx, s.Events, s.Tasks, EventUserVerified, user.Username)
	}
	metrics.AuthEvents.WithLabelValues("confirm", "ok").Inc()
	l.Info("confirm_success", "username", user.Username)
	return user, nil
}

// Resend answers the same way whether or not the address is known. Mail goes
// out only to existing, unverified users.
func (s *ConfirmService) Resend(ctx context.Context, email string) {
	l := logging.FromContext(ctx).With("svc", "confirm.resend")

	email = normalizeEmail(email)
	if email == "" {
		return
	}
	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			l.Error("resend_lookup_failed", "error", err)
		}
		return
	}
	if user.IsVerified {
		return
	}
	s.SendConfirmationAsync(ctx, user.Email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
