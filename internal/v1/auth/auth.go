// Package auth issues and validates the short-lived session tokens a
// client presents on reconnect, and checks the longer-lived authorized
// keys an admin grants out of band for privileged chat commands.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims identifies a previously admitted player across a
// reconnect, so the relay can restore their scene and entities without
// replaying the full admission flow.
type SessionClaims struct {
	PlayerID string `json:"pid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies SessionClaims with a single HMAC secret.
// There is no external identity provider: the relay is its own
// authority over who it already admitted.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer builds an Issuer. ttl is the lifetime of a minted session
// token; callers pass 0 to get a 24-hour default.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// Issue mints a session token for a player that has already passed
// admission once this process lifetime.
func (i *Issuer) Issue(playerID, username string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		PlayerID: playerID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Validate parses and verifies a session token, returning its claims.
func (i *Issuer) Validate(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("validate session token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("session token is not valid")
	}
	return claims, nil
}

// KeyStore is an in-memory implementation of relay.AuthorizedKeys,
// seeded with a fixed set of admin-granted keys at startup and
// mutable afterward through the admin surface's authorize-key
// operation.
type KeyStore struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

// NewKeyStore builds a KeyStore from a fixed set of authorized keys.
func NewKeyStore(keys []string) *KeyStore {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return &KeyStore{keys: m}
}

// IsAuthorized implements relay.AuthorizedKeys.
func (s *KeyStore) IsAuthorized(_ context.Context, authKey string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[authKey]
	return ok, nil
}

// Add grants authKey elevated chat-command authority, used by the
// admin surface's authorize-key operation.
func (s *KeyStore) Add(authKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[authKey] = struct{}{}
}
