package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/foodorder-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// Signer mints and verifies HS256 access tokens.
type Signer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewSigner(cfg config.JWTConfig) (*Signer, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("jwt issuer is required")
	}
	if cfg.ExpirationMinutes <= 0 {
		return nil, fmt.Errorf("jwt expiration minutes must be positive")
	}
	return &Signer{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    time.Duration(cfg.ExpirationMinutes) * time.Minute,
	}, nil
}

// TTL is the lifetime of minted tokens.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Mint issues a signed token valid from now for the configured TTL.
func (s *Signer) Mint(now time.Time, payload AccessTokenPayload) (string, error) {
	if payload.UserID == uuid.Nil {
		return "", fmt.Errorf("user id is required")
	}
	if !payload.Role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", payload.Role)
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	claims := AccessTokenClaims{
		UserID: payload.UserID,
		Email:  payload.Email,
		Role:   payload.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   payload.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, issuer and expiry.
func (s *Signer) Parse(tokenString string) (*AccessTokenClaims, error) {
	return s.parse(tokenString, jwt.NewParser(
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(s.issuer),
	))
}

// ParseAllowExpired skips time checks so refresh can read the jti of an
// expired token.
func (s *Signer) ParseAllowExpired(tokenString string) (*AccessTokenClaims, error) {
	return s.parse(tokenString, jwt.NewParser(
		jwt.WithoutClaimsValidation(),
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(s.issuer),
	))
}

func (s *Signer) parse(tokenString string, parser *jwt.Parser) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtSigningMethod {
			return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("token has no user id")
	}
	return claims, nil
}
