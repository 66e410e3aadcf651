// Package session issues and checks login tokens and keeps track of the
// signed-in user of a local client.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "rewear"

var (
	ErrInvalidToken = errors.New("session token is invalid")
	ErrExpired      = errors.New("session has expired")
	ErrRevoked      = errors.New("session was logged out")
)

// Claims identifies the user behind a session token.
type Claims struct {
	UserID    string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Manager signs HS256 session tokens and remembers logged-out token ids until
// they would have expired anyway. It is safe for concurrent use.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewManager(secret string, ttl time.Duration, now func() time.Time) (*Manager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", ttl)
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     now,
		revoked: make(map[string]time.Time),
	}, nil
}

// Issue returns a signed token for the user.
func (m *Manager) Issue(userID, email string) (string, Claims, error) {
	now := m.now().UTC()
	c := Claims{
		UserID:    userID,
		Email:     email,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(m.ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ID:        c.TokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
		Email: email,
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign session: %w", err)
	}
	// NumericDate has second precision.
	c.ExpiresAt = c.ExpiresAt.Truncate(time.Second)
	return signed, c, nil
}

// Resolve verifies a token and reports who it belongs to.
func (m *Manager) Resolve(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrInvalidToken
	}
	var parsed tokenClaims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if parsed.Issuer != issuer || parsed.Subject == "" || parsed.ID == "" || parsed.ExpiresAt == nil {
		return Claims{}, ErrInvalidToken
	}
	now := m.now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Claims{}, ErrExpired
	}

	m.mu.Lock()
	_, revoked := m.revoked[parsed.ID]
	m.mu.Unlock()
	if revoked {
		return Claims{}, ErrRevoked
	}
	return Claims{
		UserID:    parsed.Subject,
		Email:     parsed.Email,
		TokenID:   parsed.ID,
		ExpiresAt: exp,
	}, nil
}

// Logout revokes the token. Logging out an already expired or revoked token
// is not an error.
func (m *Manager) Logout(raw string) error {
	c, err := m.Resolve(raw)
	if errors.Is(err, ErrExpired) || errors.Is(err, ErrRevoked) {
		return nil
	}
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[c.TokenID] = c.ExpiresAt
	m.pruneLocked()
	return nil
}

func (m *Manager) pruneLocked() {
	now := m.now()
	for id, exp := range m.revoked {
		if !exp.After(now) {
			delete(m.revoked, id)
		}
	}
}
