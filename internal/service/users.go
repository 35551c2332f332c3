package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/validate"
	"github.com/Skotchmaster/marketplace/pkg/filestore"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

const maxReportLen = 500

type ProductIndex interface {
	Index(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uint) error
	SearchIDs(ctx context.Context, query string) ([]uint, error)
}

type UserService struct {
	Repo        *repo.GormRepo
	Files       filestore.Store
	Index       ProductIndex
	Events      Publisher
	Tasks       *Tasks
	PhoneRegion string
}

type ProfileUpdate struct {
	FullName *string
	Phone    *string
	Address  *string
}

func (s *UserService) Profile(ctx context.Context, username string) (*models.User, error) {
	u, err := s.Repo.GetUser(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *UserService) UpdateProfile(ctx context.Context, username string, in ProfileUpdate) (*models.User, error) {
	fields := map[string]any{}
	if in.FullName != nil {
		v := validate.Text(*in.FullName)
		if len(v) > 100 {
			return nil, fail(ErrValidation, "Full name is too long.")
		}
		fields["full_name"] = v
	}
	if in.Address != nil {
		v := validate.Text(*in.Address)
		if len(v) > 255 {
			return nil, fail(ErrValidation, "Address is too long.")
		}
		fields["address"] = v
	}
	if in.Phone != nil {
		if strings.TrimSpace(*in.Phone) == "" {
			fields["phone"] = ""
		} else {
			region := s.PhoneRegion
			if region == "" {
				region = "US"
			}
			phone, err := validate.Phone(*in.Phone, region)
			if err != nil {
				return nil, fail(ErrValidation, "Phone number is invalid.")
			}
			fields["phone"] = phone
		}
	}

	u, err := s.Repo.UpdateProfile(ctx, username, fields)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (s *UserService) SetPicture(ctx context.Context, username string, file Upload) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "users.set_picture", "username", username)

	if !filestore.IsAllowedImage(file.Filename) {
		return nil, fail(ErrValidation, "Only png, jpg, jpeg and gif images are allowed.")
	}
	old, err := s.Profile(ctx, username)
	if err != nil {
		return nil, err
	}

	keys, err := storeImages(ctx, s.Files, "users/"+username, []Upload{file})
	if err != nil {
		l.Error("picture_store_failed", "error", err)
		return nil, err
	}

	u, err := s.Repo.UpdateProfile(ctx, username, map[string]any{"picture": keys[0]})
	if err != nil {
		removeFiles(ctx, s.Files, keys)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if old.Picture != "" {
		removeFiles(ctx, s.Files, []string{old.Picture})
	}
	return u, nil
}

// DeleteAccount removes the user and all owned data, then cleans up files
// and index entries.
func (s *UserService) DeleteAccount(ctx context.Context, username string) error {
	l := logging.FromContext(ctx).With("svc", "users.delete", "username", username)

	out, err := s.Repo.DeleteUser(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if s.Files != nil {
		removeFiles(ctx, s.Files, out.PictureKeys)
	}
	if s.Index != nil {
		for _, id := range out.ProductIDs {
			if err := s.Index.Delete(ctx, id); err != nil {
				l.Warn("index_delete_failed", "product_id", id, "error", err)
			}
		}
	}
	publishUser(ctx, s.Events, s.Tasks, EventUserDeleted, username)
	l.Info("account_deleted", "products", len(out.ProductIDs))
	return nil
}

func (s *UserService) ReportUser(ctx context.Context, reporter, reported, description string) (*models.UserReport, error) {
	reported = strings.TrimSpace(reported)
	description = validate.Text(description)
	switch {
	case reported == "":
		return nil, fail(ErrValidation, "Missing reported user.")
	case description == "":
		return nil, fail(ErrValidation, "Missing description.")
	case len(description) > maxReportLen:
		return nil, fail(ErrValidation, "Description is too long.")
	case reported == reporter:
		return nil, fail(ErrValidation, "You cannot report yourself.")
	}

	if ok, err := s.Repo.UsernameExists(ctx, reported); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrUserNotFound
	}

	rep := &models.UserReport{ReportedUser: reported, ReporterUsername: reporter, Description: description}
	if err := s.Repo.CreateUserReport(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *UserService) UserReports(ctx context.Context) ([]models.UserReport, error) {
	return s.Repo.ListUserReports(ctx)
}

// SetBanned bans or unbans username. Banning ends the user's session.
func (s *UserService) SetBanned(ctx context.Context, username string, banned bool) error {
	if err := s.Repo.SetBanned(ctx, username, banned); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	typ := EventUserUnbanned
	if banned {
		typ = EventUserBanned
	}
	publishUser(ctx, s.Events, s.Tasks, typ, username)
	logging.FromContext(ctx).Info("user_ban_changed", "svc", "users.ban", "username", username, "banned", banned)
	return nil
}

func (s *UserService) SetAdmin(ctx context.Context, username string, admin bool) error {
	if err := s.Repo.SetAdmin(ctx, username, admin); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
