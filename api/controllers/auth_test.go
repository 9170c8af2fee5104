package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/angelmondragon/foodorder-backend/api/middleware"
	"github.com/angelmondragon/foodorder-backend/internal/auth"
	pkgAuth "github.com/angelmondragon/foodorder-backend/pkg/auth"
	"github.com/angelmondragon/foodorder-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodorder-backend/pkg/errors"
)

type stubAuthService struct {
	login        *auth.LoginResponse
	err          error
	loggedOut    *pkgAuth.AccessTokenClaims
	refreshedFor [2]string
}

func (s *stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.LoginResponse, error) {
	return s.login, s.err
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.login, s.err
}

func (s *stubAuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*auth.LoginResponse, error) {
	s.refreshedFor = [2]string{accessToken, refreshToken}
	return s.login, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, claims *pkgAuth.AccessTokenClaims) error {
	s.loggedOut = claims
	return s.err
}

func (s *stubAuthService) Me(claims *pkgAuth.AccessTokenClaims) (*auth.AuthState, error) {
	if claims == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return &auth.AuthState{State: auth.StateSignedIn, UserID: claims.UserID, Email: claims.Email}, nil
}

func TestAuthLoginSetsTokenHeader(t *testing.T) {
	svc := &stubAuthService{login: &auth.LoginResponse{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 3600}}
	resp := serve(t, http.MethodPost, "/login", "/login", `{"email":"juan@example.com","password":"secret123"}`, AuthLogin(svc, nil), nil)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get(middleware.TokenHeader); got != "access" {
		t.Fatalf("expected token header, got %q", got)
	}
}

func TestAuthLoginValidatesBody(t *testing.T) {
	svc := &stubAuthService{}
	resp := serve(t, http.MethodPost, "/login", "/login", `{"email":"not-an-email"}`, AuthLogin(svc, nil), nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthRegisterReturnsCreated(t *testing.T) {
	svc := &stubAuthService{login: &auth.LoginResponse{AccessToken: "access"}}
	body := `{"email":"juan@example.com","password":"secret123","first_name":"Juan","last_name":"Dela Cruz","mobile_number":"09171234567"}`
	resp := serve(t, http.MethodPost, "/register", "/register", body, AuthRegister(svc, nil), nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
}

func TestAuthRefreshPassesBothTokens(t *testing.T) {
	svc := &stubAuthService{login: &auth.LoginResponse{AccessToken: "new-access"}}
	r := serveWithHeader(t, AuthRefresh(svc, nil), "Bearer old-access", `{"refresh_token":"old-refresh"}`)
	if r.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", r.Code)
	}
	if svc.refreshedFor != [2]string{"old-access", "old-refresh"} {
		t.Fatalf("unexpected refresh args %v", svc.refreshedFor)
	}
}

func TestAuthLogoutUsesClaims(t *testing.T) {
	svc := &stubAuthService{}
	claims := testClaims(enums.UserRoleCustomer)
	resp := serve(t, http.MethodPost, "/logout", "/logout", "", AuthLogout(svc, nil), claims)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.loggedOut != claims {
		t.Fatal("expected logout with request claims")
	}
}

func TestAuthMeSignedOut(t *testing.T) {
	resp := serve(t, http.MethodGet, "/me", "/me", "", AuthMe(&stubAuthService{}, nil), nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}

	resp = serve(t, http.MethodGet, "/me", "/me", "", AuthMe(&stubAuthService{}, nil), testClaims(enums.UserRoleCustomer))
	var state auth.AuthState
	decodeData(t, resp, &state)
	if state.State != auth.StateSignedIn || state.UserID != testUserID {
		t.Fatalf("unexpected state %+v", state)
	}
}
