package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/kspl/approval-api/internal/config"
	"github.com/kspl/approval-api/internal/domain"
)

var (
	// ErrInvalidToken is returned when a token fails signature or claim validation
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when a token is past its expiry
	ErrExpiredToken = errors.New("token expired")
)

// Claims are the JWT claims embedded in issued access tokens
type Claims struct {
	Username     string   `json:"username"`
	DisplayName  string   `json:"name,omitempty"`
	Email        string   `json:"email,omitempty"`
	DepartmentID string   `json:"dept,omitempty"`
	Roles        []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 access tokens for local logins
type TokenManager struct {
	secret   []byte
	issuer   string
	tokenTTL time.Duration
}

// NewTokenManager creates a token manager from auth configuration
func NewTokenManager(cfg *config.AuthConfig) *TokenManager {
	return &TokenManager{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		tokenTTL: cfg.TokenTTL(),
	}
}

// Issue creates a signed access token for the given user.
// Returns the token string and its expiry time.
func (t *TokenManager) Issue(user *domain.User) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(t.tokenTTL)

	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, string(r.Name))
	}

	claims := Claims{
		Username:    user.Username,
		DisplayName: user.FullName(),
		Email:       user.Email,
		Roles:       roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	if user.DepartmentID != nil {
		claims.DepartmentID = user.DepartmentID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify parses and validates a token string and returns the user context
// encoded in its claims
func (t *TokenManager) Verify(tokenString string) (*UserContext, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid subject", ErrInvalidToken)
	}

	userCtx := &UserContext{
		UserID:      userID,
		Username:    claims.Username,
		DisplayName: claims.DisplayName,
		Email:       claims.Email,
	}
	if claims.DepartmentID != "" {
		deptID, err := uuid.Parse(claims.DepartmentID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid department claim", ErrInvalidToken)
		}
		userCtx.DepartmentID = &deptID
	}
	for _, r := range claims.Roles {
		role := domain.RoleType(r)
		if role.IsValid() {
			userCtx.Roles = append(userCtx.Roles, role)
		}
	}

	return userCtx, nil
}
