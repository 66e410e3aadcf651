package session

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sahil-darj/Rewear/internal/models"
	"github.com/sahil-darj/Rewear/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newManager(t *testing.T) (*Manager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 7, 12, 10, 0, 0, 0, time.UTC)}
	m, err := NewManager("test-secret", time.Hour, clock.Now)
	require.NoError(t, err)
	return m, clock
}

func TestIssueAndResolve(t *testing.T) {
	m, _ := newManager(t)
	token, issued, err := m.Issue("u1", "a@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, issued.TokenID)

	got, err := m.Resolve(token)
	require.NoError(t, err)
	require.Equal(t, "u1", got.UserID)
	require.Equal(t, "a@example.com", got.Email)
	require.Equal(t, issued.TokenID, got.TokenID)
	require.True(t, issued.ExpiresAt.Equal(got.ExpiresAt))
}

func TestResolveRejectsBadTokens(t *testing.T) {
	m, clock := newManager(t)
	_, err := m.Resolve("")
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.Resolve("not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewManager("other-secret", time.Hour, clock.Now)
	require.NoError(t, err)
	foreign, _, err := other.Issue("u1", "a@example.com")
	require.NoError(t, err)
	_, err = m.Resolve(foreign)
	require.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Resolve(unsigned)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveExpired(t *testing.T) {
	m, clock := newManager(t)
	token, _, err := m.Issue("u1", "a@example.com")
	require.NoError(t, err)

	clock.Advance(time.Hour)
	_, err = m.Resolve(token)
	require.ErrorIs(t, err, ErrExpired)
}

func TestLogoutRevokes(t *testing.T) {
	m, _ := newManager(t)
	token, _, err := m.Issue("u1", "a@example.com")
	require.NoError(t, err)
	keep, _, err := m.Issue("u1", "a@example.com")
	require.NoError(t, err)

	require.NoError(t, m.Logout(token))
	_, err = m.Resolve(token)
	require.ErrorIs(t, err, ErrRevoked)
	require.NoError(t, m.Logout(token))

	_, err = m.Resolve(keep)
	require.NoError(t, err)

	require.ErrorIs(t, m.Logout("garbage"), ErrInvalidToken)
}

func TestManagerConcurrentUse(t *testing.T) {
	m, _ := newManager(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, _, err := m.Issue("u1", "a@example.com")
			if err != nil {
				t.Error(err)
				return
			}
			if err := m.Logout(token); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
}

func TestNewManagerValidation(t *testing.T) {
	_, err := NewManager(" ", time.Hour, nil)
	require.Error(t, err)
	_, err = NewManager("secret", 0, nil)
	require.Error(t, err)
}

func TestLocalSaveLoadClear(t *testing.T) {
	rec, err := store.Open("bolt", filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Close() })
	ctx := context.Background()
	l := NewLocal(rec)

	_, ok, err := l.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	cur := Current{
		User:  models.User{ID: "u1", Email: "a@example.com", Name: "A", Points: 100, JoinedDate: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
		Token: "tok",
	}
	require.NoError(t, l.Save(ctx, cur))

	got, ok, err := l.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, cur.ID, got.ID)
	require.Equal(t, cur.Token, got.Token)
	require.True(t, cur.JoinedDate.Equal(got.JoinedDate))

	require.NoError(t, l.Clear(ctx))
	_, ok, err = l.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}
