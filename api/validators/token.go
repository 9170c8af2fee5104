package validators

import (
	"errors"
	"strings"
)

var ErrMissingToken = errors.New("missing auth token")

// BearerToken extracts the token from an Authorization header value. The
// scheme prefix is optional.
func BearerToken(header string) (string, error) {
	token := strings.TrimSpace(header)
	if scheme, rest, found := strings.Cut(token, " "); strings.EqualFold(scheme, "bearer") {
		token = ""
		if found {
			token = strings.TrimSpace(rest)
		}
	}
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
