package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodorder-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/foodorder-backend/pkg/errors"
)

// requireUserID returns the authenticated caller; routes mounted behind
// Auth always have one.
func requireUserID(r *http.Request) (string, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return userID, nil
}
