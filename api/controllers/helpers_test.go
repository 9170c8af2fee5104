package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/foodorder-backend/api/middleware"
	pkgAuth "github.com/angelmondragon/foodorder-backend/pkg/auth"
	"github.com/angelmondragon/foodorder-backend/pkg/enums"
)

var testUserID = uuid.MustParse("0190a3b2-7c4d-7e00-8000-000000000001")

func testClaims(role enums.UserRole) *pkgAuth.AccessTokenClaims {
	claims := &pkgAuth.AccessTokenClaims{UserID: testUserID, Email: "juan@example.com", Role: role}
	claims.ID = "access-1"
	return claims
}

// serve routes one request through a chi router so URL params resolve.
func serve(t *testing.T, method, pattern, target, body string, h http.HandlerFunc, claims *pkgAuth.AccessTokenClaims) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Method(method, pattern, h)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if claims != nil {
		req = req.WithContext(middleware.WithClaims(context.Background(), claims))
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func serveWithHeader(t *testing.T, h http.HandlerFunc, authorization, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Authorization", authorization)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, resp.Body.String())
	}
	return env
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	env := decodeEnvelope(t, resp)
	if err := json.Unmarshal(env.Data, dest); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}
