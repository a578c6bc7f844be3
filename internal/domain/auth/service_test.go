package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsledger/internal/core/apperror"
	"partsledger/internal/core/capability"
	"partsledger/internal/core/id"
	"partsledger/internal/domain/auth"
	"partsledger/internal/domain/ledger/ledgertest"
)

// memUserRepo is an in-memory auth.Repository.
type memUserRepo struct {
	mu    sync.Mutex
	users map[id.ID]*auth.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[id.ID]*auth.User)}
}

func (r *memUserRepo) Create(ctx context.Context, u *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username {
			return apperror.NewDuplicate("user", "username", u.Username)
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID)
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user", username)
}

func (r *memUserRepo) Update(ctx context.Context, u *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return apperror.NewNotFound("user", u.ID)
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memUserRepo) List(ctx context.Context) ([]auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []auth.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

var _ auth.Repository = (*memUserRepo)(nil)

func newService() (*auth.Service, *memUserRepo) {
	repo := newMemUserRepo()
	svc := auth.NewService(repo, ledgertest.TxManager{}, auth.Config{
		Secret:   []byte("test-secret"),
		TokenTTL: time.Hour,
	})
	return svc, repo
}

func TestLoginAndValidate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	created, err := svc.CreateUser(ctx, "tech1", "Hunter2!", "Field Tech", []string{capability.TrucksConsume})
	require.NoError(t, err)
	assert.True(t, created.IsActive)

	token, u, err := svc.Login(ctx, "tech1", "Hunter2!")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotNil(t, u.LastLoginAt)

	identity, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, identity.UserID)
	assert.Equal(t, "tech1", identity.Username)
	assert.Equal(t, []string{capability.TrucksConsume}, identity.Capabilities)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	_, err := svc.CreateUser(ctx, "tech1", "Hunter2!", "", nil)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "tech1", "wrong")
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))

	// Unknown users get the same error as wrong passwords.
	_, _, err = svc.Login(ctx, "nobody", "Hunter2!")
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	u, err := svc.CreateUser(ctx, "tech1", "Hunter2!", "", nil)
	require.NoError(t, err)
	require.NoError(t, svc.SetActive(ctx, u.ID, false))

	_, _, err = svc.Login(ctx, "tech1", "Hunter2!")
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	_, err := svc.CreateUser(ctx, "tech1", "Hunter2!", "", nil)
	require.NoError(t, err)
	token, _, err := svc.Login(ctx, "tech1", "Hunter2!")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token + "x")
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))

	_, err = svc.ValidateToken("not-a-token")
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
}

func TestExpiredToken(t *testing.T) {
	ctx := context.Background()
	repo := newMemUserRepo()
	svc := auth.NewService(repo, ledgertest.TxManager{}, auth.Config{
		Secret:   []byte("test-secret"),
		TokenTTL: -time.Minute,
	})
	_, err := svc.CreateUser(ctx, "tech1", "Hunter2!", "", nil)
	require.NoError(t, err)

	token, _, err := svc.Login(ctx, "tech1", "Hunter2!")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	u, err := svc.CreateUser(ctx, "tech1", "Hunter2!", "", nil)
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, u.ID, "wrong", "NewPass1!")
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))

	require.NoError(t, svc.ChangePassword(ctx, u.ID, "Hunter2!", "NewPass1!"))

	_, _, err = svc.Login(ctx, "tech1", "Hunter2!")
	assert.True(t, apperror.IsCode(err, apperror.CodeUnauthorized))
	_, _, err = svc.Login(ctx, "tech1", "NewPass1!")
	assert.NoError(t, err)
}

func TestCreateUserValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	_, err := svc.CreateUser(ctx, "tech1", "", "", nil)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.CreateUser(ctx, "", "Hunter2!", "", nil)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = svc.CreateUser(ctx, "tech1", "Hunter2!", "", nil)
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, "tech1", "Other1!", "", nil)
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicate))
}
