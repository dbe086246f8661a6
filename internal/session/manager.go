// Package session issues, verifies and revokes the signed session tokens carried in the login cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	issuer   = "chirp"
	audience = "chirp-web"

	revokedKeyPrefix = "session:revoked:"
)

var (
	// ErrInvalidSession covers malformed, expired or wrongly signed tokens.
	ErrInvalidSession = errors.New("invalid session")
	// ErrRevokedSession is returned for tokens whose id was revoked at logout.
	ErrRevokedSession = errors.New("session revoked")
)

// Claims is the payload of a session token.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 32)
	if err != nil || id == 0 {
		return 0, ErrInvalidSession
	}
	return uint(id), nil
}

// Manager signs session tokens with a shared secret and tracks revocations in Redis.
// A nil Redis client disables server-side revocation; logout then relies on clearing the cookie.
type Manager struct {
	secret   []byte
	lifetime time.Duration
	rdb      *redis.Client
	now      func() time.Time
}

// NewManager creates a session manager.
func NewManager(secret string, lifetime time.Duration, rdb *redis.Client) *Manager {
	return &Manager{
		secret:   []byte(secret),
		lifetime: lifetime,
		rdb:      rdb,
		now:      time.Now,
	}
}

// Lifetime returns the inactivity window of a session.
func (m *Manager) Lifetime() time.Duration {
	return m.lifetime
}

// Issue starts a new session for the user.
func (m *Manager) Issue(userID uint, username string) (string, *Claims, error) {
	return m.sign(userID, username, uuid.NewString())
}

// Refresh re-signs an existing session with a fresh expiry, keeping its id.
func (m *Manager) Refresh(claims *Claims) (string, *Claims, error) {
	userID, err := claims.UserID()
	if err != nil {
		return "", nil, err
	}
	return m.sign(userID, claims.Username, claims.ID)
}

func (m *Manager) sign(userID uint, username, jti string) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
			ID:        jti,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies a token and rejects revoked sessions.
func (m *Manager) Parse(ctx context.Context, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, ErrInvalidSession
	}

	revoked, err := m.isRevoked(ctx, claims.ID)
	if err != nil {
		// Redis outages must not log everybody out.
		return claims, nil
	}
	if revoked {
		return nil, ErrRevokedSession
	}
	return claims, nil
}

// Revoke blacklists the session id until every token carrying it has expired.
// A refresh may have extended the id up to one lifetime past now.
func (m *Manager) Revoke(ctx context.Context, claims *Claims) error {
	if m.rdb == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := m.lifetime
	if claims.ExpiresAt != nil {
		if remaining := claims.ExpiresAt.Sub(m.now()); remaining > ttl {
			ttl = remaining
		}
	}
	if err := m.rdb.Set(ctx, revokedKeyPrefix+claims.ID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (m *Manager) isRevoked(ctx context.Context, jti string) (bool, error) {
	if m.rdb == nil {
		return false, nil
	}
	n, err := m.rdb.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
