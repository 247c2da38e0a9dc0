package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/hashkeeper/internal/common"
	"github.com/dmitrijs2005/hashkeeper/internal/cryptox"
	"github.com/dmitrijs2005/hashkeeper/internal/dbx"
	"github.com/dmitrijs2005/hashkeeper/internal/logging"
	"github.com/dmitrijs2005/hashkeeper/internal/server/models"
	kvrepo "github.com/dmitrijs2005/hashkeeper/internal/server/repositories/kv"
	"github.com/dmitrijs2005/hashkeeper/internal/server/repositories/sessions"
	usersrepo "github.com/dmitrijs2005/hashkeeper/internal/server/repositories/users"
)

// --- helpers ---

var testParams = cryptox.Params{Time: 1, Memory: 8 * 1024, Threads: 1, SaltLen: 16, KeyLen: 32}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var errDBDown = errors.New("db down")

// fakeUsersRepo is an in-memory users.Repository enforcing the same
// uniqueness rules as the schema.
type fakeUsersRepo struct {
	mu    sync.Mutex
	users map[string]*models.User

	creates int
	findErr error
	getErr  error
	// createErr, when set, is returned by Create instead of inserting.
	createErr error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	for _, existing := range f.users {
		if existing.UserName == u.UserName || strings.EqualFold(existing.Email, u.Email) {
			return nil, common.ErrAlreadyExists
		}
	}
	f.creates++
	cp := *u
	cp.CreatedAt = time.Now()
	f.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeUsersRepo) FindByUsernameOrEmail(_ context.Context, username, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.users {
		if u.UserName == username || strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.UserName == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeKVRepo struct {
	mu     sync.Mutex
	nextID int64
	items  []*models.KV

	createErr error
	listErr   error
}

func (f *fakeKVRepo) Create(_ context.Context, item *models.KV) (*models.KV, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	cp := *item
	cp.ID = f.nextID
	cp.CreatedAt = time.Now()
	f.items = append(f.items, &cp)
	out := cp
	return &out, nil
}

func (f *fakeKVRepo) ListByUser(_ context.Context, userID string) ([]*models.KV, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.KV
	for _, it := range f.items {
		if it.UserID == userID {
			cp := *it
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeRepoManager struct {
	u  *fakeUsersRepo
	kv *fakeKVRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), kv: &fakeKVRepo{}}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository         { return m.u }
func (m *fakeRepoManager) KV(dbx.DBTX) kvrepo.Repository               { return m.kv }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessions.Repository       { return nil }

func discard() logging.Logger { return logging.NewDiscard() }
