package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/foodorder-backend/internal/users"
	pkgAuth "github.com/angelmondragon/foodorder-backend/pkg/auth"
	"github.com/angelmondragon/foodorder-backend/pkg/auth/session"
	"github.com/angelmondragon/foodorder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodorder-backend/pkg/errors"
	"github.com/angelmondragon/foodorder-backend/pkg/logger"
	"github.com/google/uuid"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*LoginResponse, error)
	Logout(ctx context.Context, claims *pkgAuth.AccessTokenClaims) error
	Me(claims *pkgAuth.AccessTokenClaims) (*AuthState, error)
}

type userRepository interface {
	Create(ctx context.Context, input users.CreateUserInput) (*users.User, error)
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*users.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, userID string) (session.Issued, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (session.Issued, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// CartClearer empties a user's cart on sign-out.
type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

// DraftDiscarder drops a user's checkout draft on sign-out.
type DraftDiscarder interface {
	DiscardDraft(ctx context.Context, userID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Users    userRepository
	Profiles users.ProfileStore
	Sessions sessionManager
	Signer   *pkgAuth.Signer
	Hasher   passwordHasher
	Cart     CartClearer
	Drafts   DraftDiscarder
	Logger   *logger.Logger
	Clock    func() time.Time
}

type service struct {
	users    userRepository
	profiles users.ProfileStore
	sessions sessionManager
	signer   *pkgAuth.Signer
	hasher   passwordHasher
	cart     CartClearer
	drafts   DraftDiscarder
	logg     *logger.Logger
	now      func() time.Time
}

// NewService constructs the identity service.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Signer == nil {
		return nil, fmt.Errorf("token signer is required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &service{
		users:    params.Users,
		profiles: params.Profiles,
		sessions: params.Sessions,
		signer:   params.Signer,
		hasher:   params.Hasher,
		cart:     params.Cart,
		drafts:   params.Drafts,
		logg:     logg,
		now:      now,
	}, nil
}

// Register stores the credentials row and the profile record, then signs the
// new user in.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	user, err := s.users.Create(ctx, users.CreateUserInput{Email: email, PasswordHash: hash, Role: enums.UserRoleCustomer})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	profile := users.Profile{
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		MobileNumber: strings.TrimSpace(req.MobileNumber),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.profiles.Write(ctx, users.ProfilePath(user.ID.String()), profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save profile")
	}
	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "auth.registered")

	return s.signIn(ctx, user)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	return s.signIn(ctx, user)
}

// Refresh rotates the session named by the (possibly expired) access token.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*LoginResponse, error) {
	claims, err := s.signer.ParseAllowExpired(accessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}
	issued, userID, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}
	if userID != claims.UserID.String() {
		_ = s.sessions.Revoke(ctx, issued.AccessID)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		_ = s.sessions.Revoke(ctx, issued.AccessID)
		if users.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	return s.tokens(user, issued)
}

// Logout ends the session and drops the per-user cart and checkout draft.
func (s *service) Logout(ctx context.Context, claims *pkgAuth.AccessTokenClaims) error {
	if claims == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	userID := claims.UserID.String()
	logCtx := s.logg.WithUserID(ctx, userID)
	if s.cart != nil {
		if err := s.cart.Clear(ctx, userID); err != nil {
			s.logg.Warn(logCtx, "auth.logout_cart_clear_failed")
		}
	}
	if s.drafts != nil {
		if err := s.drafts.DiscardDraft(ctx, userID); err != nil {
			s.logg.Warn(logCtx, "auth.logout_draft_clear_failed")
		}
	}
	s.logg.Info(logCtx, "auth.logged_out")
	return nil
}

func (s *service) Me(claims *pkgAuth.AccessTokenClaims) (*AuthState, error) {
	if claims == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return &AuthState{State: StateSignedIn, UserID: claims.UserID, Email: claims.Email}, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*users.User, error) {
	input := users.NormalizeEmail(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, input)
	if err != nil {
		if users.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}
	valid, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) signIn(ctx context.Context, user *users.User) (*LoginResponse, error) {
	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now
	if err := users.RecordLogin(ctx, s.profiles, user, now); err != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "auth.profile_login_stamp_failed")
	}

	issued, err := s.sessions.Generate(ctx, user.ID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	return s.tokens(user, issued)
}

func (s *service) tokens(user *users.User, issued session.Issued) (*LoginResponse, error) {
	accessToken, err := s.signer.Mint(s.now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		JTI:    issued.AccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: issued.RefreshToken,
		ExpiresIn:    int64(s.signer.TTL().Seconds()),
		User:         users.FromModel(user),
	}, nil
}
