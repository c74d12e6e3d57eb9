// Package auth implements password hashing, token issuance and verification,
// and the owner/admin authorization rules.
package auth

import (
	"context"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/lucas-ioliveira/ordering-system/internal/apperrors"
	"github.com/lucas-ioliveira/ordering-system/internal/config"
	"github.com/lucas-ioliveira/ordering-system/internal/models"
)

// TokenType is the scheme clients send tokens with.
const TokenType = "Bearer"

// UserLookup resolves the subject of a token.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Claims are the registered claims carried by every token. Access and refresh
// tokens differ only by lifetime.
type Claims struct {
	jwt.StandardClaims
}

// UserID returns the numeric subject.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "invalid subject")
	}
	return uint(id), nil
}

// Option customizes a TokenService.
type Option func(*TokenService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

// TokenService issues and verifies signed tokens.
type TokenService struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	users      UserLookup
	revoked    RevocationStore
	now        func() time.Time
}

// NewTokenService creates a TokenService. Only HMAC algorithms are accepted.
func NewTokenService(cfg config.Auth, users UserLookup, revoked RevocationStore, opts ...Option) (*TokenService, error) {
	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, errors.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("empty signing secret")
	}
	if revoked == nil {
		revoked = NewMemoryRevocationStore()
	}

	s := &TokenService{
		secret:     []byte(cfg.SecretKey),
		method:     method,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		users:      users,
		revoked:    revoked,
		now:        time.Now,
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = config.RefreshTokenTTL
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for userID valid for d. A zero d uses the access token lifetime.
func (s *TokenService) Issue(userID uint, d time.Duration) (string, error) {
	if d == 0 {
		d = s.accessTTL
	}
	now := s.now()
	claims := Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: now.Add(d).Unix(),
			IssuedAt:  now.Unix(),
			Id:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

// IssuePair issues an access and a refresh token for userID.
func (s *TokenService) IssuePair(userID uint) (TokenPair, error) {
	access, err := s.Issue(userID, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.Issue(userID, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: TokenType}, nil
}

// Parse checks signature, algorithm, expiry and revocation.
func (s *TokenService) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	if err := strictSegments(tokenString); err != nil {
		return nil, apperrors.ErrInvalidToken.WithCause(err)
	}

	parser := &jwt.Parser{
		ValidMethods: []string{s.method.Alg()},
		// Expiry is checked below against the injected clock.
		SkipClaimsValidation: true,
	}

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.ErrInvalidToken.WithCause(err)
	}
	if !claims.VerifyExpiresAt(s.now().Unix(), true) {
		return nil, apperrors.ErrInvalidToken.WithCause(errors.New("token expired"))
	}
	if claims.Subject == "" || claims.Id == "" {
		return nil, apperrors.ErrInvalidToken.WithCause(errors.New("missing claims"))
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.Id)
	if err != nil {
		return nil, apperrors.ErrStorageUnavailable.WithCause(err)
	}
	if revoked {
		return nil, apperrors.ErrInvalidToken.WithCause(errors.New("token revoked"))
	}
	return claims, nil
}

// Verify parses the token and loads its active subject.
func (s *TokenService) Verify(ctx context.Context, tokenString string) (*models.User, error) {
	_, user, err := s.verify(ctx, tokenString)
	return user, err
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked, so each refresh token can be used once.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, user, err := s.verify(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	first, err := s.revoked.Revoke(ctx, claims.Id, time.Unix(claims.ExpiresAt, 0))
	if err != nil {
		return TokenPair{}, apperrors.ErrStorageUnavailable.WithCause(err)
	}
	if !first {
		return TokenPair{}, apperrors.ErrInvalidToken.WithCause(errors.New("refresh token reused"))
	}
	return s.IssuePair(user.ID)
}

func (s *TokenService) verify(ctx context.Context, tokenString string) (*Claims, *models.User, error) {
	claims, err := s.Parse(ctx, tokenString)
	if err != nil {
		return nil, nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, nil, apperrors.ErrInvalidToken.WithCause(err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, nil, apperrors.ErrTokenUserNotFound
		}
		return nil, nil, err
	}
	if !user.Active {
		return nil, nil, apperrors.ErrUserNotActive
	}
	return claims, user, nil
}

// strictSegments rejects tokens whose segments are not canonical unpadded
// base64url. The jwt-go decoder ignores trailing padding bits, so a changed
// final character could otherwise still verify.
func strictSegments(tokenString string) error {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return errors.New("token must have three segments")
	}
	for _, part := range parts {
		if _, err := base64.RawURLEncoding.Strict().DecodeString(part); err != nil {
			return errors.Wrap(err, "malformed token segment")
		}
	}
	return nil
}
