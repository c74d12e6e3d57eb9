package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lucas-ioliveira/ordering-system/internal/apperrors"
	"github.com/lucas-ioliveira/ordering-system/internal/config"
	"github.com/lucas-ioliveira/ordering-system/internal/models"
)

type userLookupStub map[uint]*models.User

func (u userLookupStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	user, ok := u[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func authConfig() config.Auth {
	return config.Auth{
		SecretKey:       "test-secret",
		Algorithm:       "HS256",
		AccessTokenTTL:  30 * time.Minute,
		RefreshTokenTTL: config.RefreshTokenTTL,
		BcryptCost:      bcrypt.MinCost,
	}
}

func newTokenService(t *testing.T, users userLookupStub) (*TokenService, *clock) {
	t.Helper()
	clk := &clock{now: time.Now()}
	svc, err := NewTokenService(authConfig(), users, NewMemoryRevocationStore(), WithClock(clk.Now))
	require.NoError(t, err)
	return svc, clk
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, h.Check("s3cret!", hash))
	assert.False(t, h.Check("wrong", hash))
	assert.False(t, h.Check("s3cret!", "not-a-hash"))

	other, err := h.Hash("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes are salted")
}

func TestNewBcryptHasher_InvalidCostFallsBack(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(100).cost)
}

func TestNewTokenService_RejectsNonHMAC(t *testing.T) {
	cfg := authConfig()
	cfg.Algorithm = "RS256"
	_, err := NewTokenService(cfg, userLookupStub{}, nil)
	assert.Error(t, err)
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	user := &models.User{ID: 7, Email: "a@b.com", Active: true}
	svc, _ := newTokenService(t, userLookupStub{7: user})

	token, err := svc.Issue(7, 0)
	require.NoError(t, err)

	claims, err := svc.Parse(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
	assert.NotEmpty(t, claims.Id)

	got, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestTokenService_Expiry(t *testing.T) {
	svc, clk := newTokenService(t, userLookupStub{1: {ID: 1, Active: true}})

	token, err := svc.Issue(1, time.Minute)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), token)
	require.NoError(t, err)

	clk.Advance(2 * time.Minute)
	_, err = svc.Verify(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenService_Tampering(t *testing.T) {
	svc, _ := newTokenService(t, userLookupStub{1: {ID: 1, Active: true}, 2: {ID: 2, Active: true}})

	token1, err := svc.Issue(1, 0)
	require.NoError(t, err)
	token2, err := svc.Issue(2, 0)
	require.NoError(t, err)

	// Payload of user 2 with the signature of user 1.
	p1 := strings.Split(token1, ".")
	p2 := strings.Split(token2, ".")
	forged := strings.Join([]string{p1[0], p2[1], p1[2]}, ".")

	_, err = svc.Parse(context.Background(), forged)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	cfg := authConfig()
	cfg.SecretKey = "another-secret"
	otherSvc, err := NewTokenService(cfg, userLookupStub{}, nil)
	require.NoError(t, err)
	foreign, err := otherSvc.Issue(1, 0)
	require.NoError(t, err)

	_, err = svc.Parse(context.Background(), foreign)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	_, err = svc.Parse(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenService_SingleCharacterTampering(t *testing.T) {
	svc, _ := newTokenService(t, userLookupStub{1: {ID: 1, Active: true}})

	token, err := svc.Issue(1, 0)
	require.NoError(t, err)
	_, err = svc.Parse(context.Background(), token)
	require.NoError(t, err)

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	segments := []string{"header", "payload", "signature"}

	segment := 0
	for pos := 0; pos < len(token); pos++ {
		if token[pos] == '.' {
			segment++
			continue
		}
		for i := 0; i < len(alphabet); i++ {
			if alphabet[i] == token[pos] {
				continue
			}
			tampered := token[:pos] + string(alphabet[i]) + token[pos+1:]
			_, err := svc.Parse(context.Background(), tampered)
			if !assert.ErrorIs(t, err, apperrors.ErrInvalidToken, "%s pos=%d %q->%q", segments[segment], pos, token[pos], alphabet[i]) {
				return
			}
		}
	}
}

func TestTokenService_RejectsOtherAlgorithm(t *testing.T) {
	svc, _ := newTokenService(t, userLookupStub{1: {ID: 1, Active: true}})

	cfg := authConfig()
	cfg.Algorithm = "HS512"
	hs512, err := NewTokenService(cfg, userLookupStub{}, nil)
	require.NoError(t, err)
	token, err := hs512.Issue(1, 0)
	require.NoError(t, err)

	_, err = svc.Parse(context.Background(), token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenService_VerifyUnknownOrInactiveUser(t *testing.T) {
	svc, _ := newTokenService(t, userLookupStub{2: {ID: 2, Active: false}})

	unknown, err := svc.Issue(1, 0)
	require.NoError(t, err)
	_, err = svc.Verify(context.Background(), unknown)
	assert.ErrorIs(t, err, apperrors.ErrTokenUserNotFound)

	inactive, err := svc.Issue(2, 0)
	require.NoError(t, err)
	_, err = svc.Verify(context.Background(), inactive)
	assert.ErrorIs(t, err, apperrors.ErrUserNotActive)
}

func TestTokenService_RefreshIsSingleUse(t *testing.T) {
	svc, _ := newTokenService(t, userLookupStub{1: {ID: 1, Active: true}})

	pair, err := svc.IssuePair(1)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)

	rotated, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	_, err = svc.Refresh(context.Background(), rotated.RefreshToken)
	assert.NoError(t, err)
}

func TestTokenService_RefreshTokenLivesSevenDays(t *testing.T) {
	svc, clk := newTokenService(t, userLookupStub{1: {ID: 1, Active: true}})

	pair, err := svc.IssuePair(1)
	require.NoError(t, err)

	clk.Advance(time.Hour)
	_, err = svc.Verify(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	_, err = svc.Verify(context.Background(), pair.RefreshToken)
	assert.NoError(t, err)

	clk.Advance(7 * 24 * time.Hour)
	_, err = svc.Verify(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestPolicy(t *testing.T) {
	admin := &models.User{ID: 1, Admin: true}
	owner := &models.User{ID: 2}
	other := &models.User{ID: 3}

	assert.NoError(t, CanViewSelfOrAdmin(admin, 2))
	assert.NoError(t, CanViewSelfOrAdmin(owner, 2))
	assert.ErrorIs(t, CanViewSelfOrAdmin(other, 2), apperrors.ErrForbidden)
	assert.ErrorIs(t, CanViewSelfOrAdmin(nil, 2), apperrors.ErrNotAuthenticated)

	assert.NoError(t, CanAdminOnly(admin))
	assert.ErrorIs(t, CanAdminOnly(owner), apperrors.ErrForbidden)

	assert.Nil(t, ListScope(admin))
	require.NotNil(t, ListScope(owner))
	assert.Equal(t, uint(2), *ListScope(owner))

	scope := ListScope(nil)
	require.NotNil(t, scope)
	assert.Equal(t, uint(0), *scope)
}

func TestMemoryRevocationStore(t *testing.T) {
	store := NewMemoryRevocationStore()
	ctx := context.Background()

	first, err := store.Revoke(ctx, "jti", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, first)

	again, err := store.Revoke(ctx, "jti", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, again)

	revoked, err := store.IsRevoked(ctx, "jti")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = store.IsRevoked(ctx, "other")
	require.NoError(t, err)
	assert.False(t, revoked)
}

// fakeRedis implements the two commands the revocation store uses.
type fakeRedis struct {
	redis.Cmdable
	mu   sync.Mutex
	keys map[string]time.Duration
}

func (f *fakeRedis) SetNX(_ context.Context, key string, _ interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Exists(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisRevocationStore(t *testing.T) {
	fake := &fakeRedis{keys: map[string]time.Duration{}}
	store := NewRedisRevocationStore(fake)
	ctx := context.Background()

	first, err := store.Revoke(ctx, "abc", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, first)
	assert.InDelta(t, time.Hour.Seconds(), fake.keys["revoked_refresh:abc"].Seconds(), 5)

	again, err := store.Revoke(ctx, "abc", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, again)

	revoked, err := store.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestTokenService_RefreshWithRedisStore(t *testing.T) {
	store := NewRedisRevocationStore(&fakeRedis{keys: map[string]time.Duration{}})
	svc, err := NewTokenService(authConfig(), userLookupStub{1: {ID: 1, Active: true}}, store)
	require.NoError(t, err)

	pair, err := svc.IssuePair(1)
	require.NoError(t, err)
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
