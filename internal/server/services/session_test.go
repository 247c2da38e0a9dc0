package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/hashkeeper/internal/common"
	"github.com/dmitrijs2005/hashkeeper/internal/server/auth"
	"github.com/dmitrijs2005/hashkeeper/internal/server/models"
	"github.com/dmitrijs2005/hashkeeper/internal/server/sessionstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserLookup struct {
	users map[string]*models.User
	err   error
}

func (f *fakeUserLookup) GetByID(_ context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

// failingStore wraps a MemoryStore and fails selected operations.
type failingStore struct {
	*sessionstore.MemoryStore
	createErr, findErr, deleteErr, purgeErr error
}

func (f *failingStore) Create(ctx context.Context, sid, userID string, ttl time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.MemoryStore.Create(ctx, sid, userID, ttl)
}

func (f *failingStore) Find(ctx context.Context, sid string) (*models.Session, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.MemoryStore.Find(ctx, sid)
}

func (f *failingStore) Delete(ctx context.Context, sid string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.MemoryStore.Delete(ctx, sid)
}

func (f *failingStore) PurgeExpired(ctx context.Context) (int64, error) {
	if f.purgeErr != nil {
		return 0, f.purgeErr
	}
	return f.MemoryStore.PurgeExpired(ctx)
}

const testSecret = "test-secret"

func newSessionService(t *testing.T) (*SessionService, *failingStore, *fakeUserLookup) {
	t.Helper()
	store := &failingStore{MemoryStore: sessionstore.NewMemoryStore()}
	users := &fakeUserLookup{users: map[string]*models.User{
		"u1": {ID: "u1", UserName: "alice"},
	}}
	return NewSessionService(store, users, testSecret, time.Hour, discard()), store, users
}

func TestSession_CreateAuthorizeDestroy(t *testing.T) {
	s, store, _ := newSessionService(t)
	ctx := context.Background()

	token, err := s.Create(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	userID, err := s.Authorize(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	require.NoError(t, s.Destroy(ctx, token))
	assert.Zero(t, store.Len())

	_, err = s.Authorize(ctx, token)
	assert.ErrorIs(t, err, common.ErrUnauthenticated, "a destroyed session cannot be reused")

	require.NoError(t, s.Destroy(ctx, token), "destroy is idempotent")
}

func TestSession_IDsAreUnique(t *testing.T) {
	s, store, _ := newSessionService(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		token, err := s.Create(ctx, "u1")
		require.NoError(t, err)
		sid, err := auth.GetSessionIDFromToken(token, []byte(testSecret))
		require.NoError(t, err)
		assert.Len(t, sid, 2*sessionIDBytes)
		assert.False(t, seen[sid])
		seen[sid] = true
	}
	assert.Equal(t, 20, store.Len())
}

func TestSession_AuthorizeRejects(t *testing.T) {
	s, _, _ := newSessionService(t)
	ctx := context.Background()

	foreign, err := auth.GenerateToken("sid", []byte("other-secret"), time.Hour)
	require.NoError(t, err)
	unknownSID, err := auth.GenerateToken("not-in-store", []byte(testSecret), time.Hour)
	require.NoError(t, err)
	expired, err := auth.GenerateToken("sid", []byte(testSecret), -time.Minute)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"empty":       "",
		"garbage":     "garbage",
		"foreign":     foreign,
		"unknown sid": unknownSID,
		"expired":     expired,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Authorize(ctx, tok)
			assert.ErrorIs(t, err, common.ErrUnauthenticated)
		})
	}
}

func TestSession_StoreExpiryIsEnforced(t *testing.T) {
	store := &failingStore{MemoryStore: sessionstore.NewMemoryStore()}
	s := NewSessionService(store, &fakeUserLookup{}, testSecret, time.Hour, discard())
	ctx := context.Background()

	token, err := s.Create(ctx, "u1")
	require.NoError(t, err)
	sid, err := auth.GetSessionIDFromToken(token, []byte(testSecret))
	require.NoError(t, err)

	// Replace the stored session by one that is already expired.
	require.NoError(t, store.MemoryStore.Create(ctx, sid, "u1", -time.Second))

	_, err = s.Authorize(ctx, token)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestSession_StoreErrors(t *testing.T) {
	s, store, _ := newSessionService(t)
	ctx := context.Background()

	store.createErr = errDBDown
	_, err := s.Create(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrInternal)
	store.createErr = nil

	token, err := s.Create(ctx, "u1")
	require.NoError(t, err)

	store.findErr = errDBDown
	_, err = s.Authorize(ctx, token)
	assert.ErrorIs(t, err, common.ErrInternal)
	assert.NotErrorIs(t, err, common.ErrUnauthenticated)

	store.deleteErr = errDBDown
	assert.ErrorIs(t, s.Destroy(ctx, token), common.ErrInternal)
}

func TestSession_DestroyIgnoresBadTokens(t *testing.T) {
	s, store, _ := newSessionService(t)
	store.deleteErr = errors.New("must not be called")

	assert.NoError(t, s.Destroy(context.Background(), ""))
	assert.NoError(t, s.Destroy(context.Background(), "not.a.token"))
}

func TestSession_ResolveOrInvalidate(t *testing.T) {
	s, store, users := newSessionService(t)
	ctx := context.Background()

	token, err := s.Create(ctx, "u1")
	require.NoError(t, err)

	u, err := s.ResolveOrInvalidate(ctx, token, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.UserName)
	assert.Equal(t, 1, store.Len())

	delete(users.users, "u1")

	_, err = s.ResolveOrInvalidate(ctx, token, "u1")
	assert.ErrorIs(t, err, common.ErrSessionInvalidated)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Zero(t, store.Len(), "the orphaned session is destroyed")

	_, err = s.Authorize(ctx, token)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestSession_ResolveOrInvalidate_LookupError(t *testing.T) {
	s, store, users := newSessionService(t)
	ctx := context.Background()

	token, err := s.Create(ctx, "u1")
	require.NoError(t, err)

	users.err = common.ErrInternal
	_, err = s.ResolveOrInvalidate(ctx, token, "u1")
	assert.ErrorIs(t, err, common.ErrInternal)
	assert.NotErrorIs(t, err, common.ErrSessionInvalidated)
	assert.Equal(t, 1, store.Len(), "transient errors keep the session")
}

func TestSession_PurgeExpired(t *testing.T) {
	s, store, _ := newSessionService(t)
	ctx := context.Background()

	require.NoError(t, store.MemoryStore.Create(ctx, "old", "u1", -time.Second))
	_, err := s.Create(ctx, "u1")
	require.NoError(t, err)

	n, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	store.purgeErr = errDBDown
	_, err = s.PurgeExpired(ctx)
	assert.ErrorIs(t, err, errDBDown)
}

func TestSession_RunPurger(t *testing.T) {
	s, store, _ := newSessionService(t)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, store.MemoryStore.Create(ctx, "old", "u1", -time.Second))

	done := make(chan struct{})
	go func() {
		s.RunPurger(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunPurger did not stop after cancel")
	}
}
