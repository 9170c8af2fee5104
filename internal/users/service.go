package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/foodorder-backend/internal/recordstore"
	pkgerrors "github.com/angelmondragon/foodorder-backend/pkg/errors"
	"github.com/angelmondragon/foodorder-backend/pkg/logger"
	"github.com/google/uuid"
)

// ProfileStore is where profile records live.
type ProfileStore interface {
	Write(ctx context.Context, path string, value any) error
	Read(ctx context.Context, path string) (recordstore.Snapshot, error)
}

type credentialsRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// UpdateProfileInput carries the fields a user may change. Nil leaves the
// field unchanged.
type UpdateProfileInput struct {
	FirstName    *string
	LastName     *string
	MobileNumber *string
}

// Service manages the signed-in user's profile.
type Service interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*Profile, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
}

type ServiceParams struct {
	Profiles ProfileStore
	Users    credentialsRepository
	Hasher   passwordHasher
	Logger   *logger.Logger
}

type service struct {
	profiles ProfileStore
	users    credentialsRepository
	hasher   passwordHasher
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Profiles == nil {
		return nil, fmt.Errorf("profile store required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{profiles: params.Profiles, users: params.Users, hasher: params.Hasher, logg: logg}, nil
}

func (s *service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	snap, err := s.profiles.Read(ctx, ProfilePath(userID))
	if err != nil {
		return nil, err
	}
	if !snap.Exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
	}
	var profile Profile
	if err := snap.Decode(&profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode profile")
	}
	return &profile, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*Profile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	apply := func(dst *string, src *string, field string) error {
		if src == nil {
			return nil
		}
		value := strings.TrimSpace(*src)
		if value == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, field+" cannot be empty")
		}
		*dst = value
		return nil
	}
	if err := apply(&profile.FirstName, input.FirstName, "first_name"); err != nil {
		return nil, err
	}
	if err := apply(&profile.LastName, input.LastName, "last_name"); err != nil {
		return nil, err
	}
	if err := apply(&profile.MobileNumber, input.MobileNumber, "mobile_number"); err != nil {
		return nil, err
	}
	if err := s.profiles.Write(ctx, ProfilePath(userID), profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save profile")
	}
	return profile, nil
}

func (s *service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	ok, err := s.hasher.Verify(current, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}
	hash, err := s.hasher.Hash(next)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	if err := s.users.UpdatePasswordHash(ctx, id, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	s.logg.Info(s.logg.WithUserID(ctx, userID), "users.password_changed")
	return nil
}

// RecordLogin stamps the profile's last login. A missing profile is
// recreated from the credentials row.
func RecordLogin(ctx context.Context, store ProfileStore, user *User, at time.Time) error {
	path := ProfilePath(user.ID.String())
	snap, err := store.Read(ctx, path)
	if err != nil {
		return err
	}
	profile := Profile{Email: user.Email, CreatedAt: user.CreatedAt}
	if snap.Exists {
		if err := snap.Decode(&profile); err != nil {
			profile = Profile{Email: user.Email, CreatedAt: user.CreatedAt}
		}
	}
	stamp := at.UTC()
	profile.LastLogin = &stamp
	return store.Write(ctx, path, profile)
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" || strings.Contains(userID, "/") {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return nil
}
