package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
)

// Identity is the authenticated caller.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserClaims represents the JWT claims for a user
type UserClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Authenticator resolves a bearer token to an Identity.
type Authenticator interface {
	Authenticate(token string) (*Identity, error)
}

// JWTProvider verifies HS256 bearer tokens
type JWTProvider struct {
	secret []byte
	issuer string
}

// NewJWTProvider creates a new JWTProvider instance
func NewJWTProvider(cfg *config.JWTConfig) *JWTProvider {
	return &JWTProvider{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
	}
}

var _ Authenticator = (*JWTProvider)(nil)

// Authenticate validates tokenString and returns the caller identity.
func (p *JWTProvider) Authenticate(tokenString string) (*Identity, error) {
	claims, err := p.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &Identity{ID: claims.UserID, Name: claims.Name}, nil
}

// ValidateAccessToken validates an access token and returns the claims
func (p *JWTProvider) ValidateAccessToken(tokenString string) (*UserClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return p.secret, nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// IssueToken signs a token for identity. Tokens are normally minted by the
// identity provider; this exists for local tooling and tests.
func (p *JWTProvider) IssueToken(identity Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := UserClaims{
		UserID: identity.ID,
		Name:   identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    p.issuer,
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}
