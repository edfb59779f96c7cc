package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"storehub/internal/model"
	"storehub/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	user, ok := r.users[uid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) List(_ context.Context, _, _ int) ([]model.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var users []model.User
	for _, u := range r.users {
		users = append(users, *u)
	}
	return users, int64(len(users)), nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	uid, err := uuid.Parse(id)
	if err != nil {
		return gorm.ErrRecordNotFound
	}
	delete(r.users, uid)
	return nil
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*model.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*model.RefreshToken)}
}

func (r *fakeTokenRepo) Create(_ context.Context, token *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *token
	r.tokens[token.Token] = &stored
	return nil
}

func (r *fakeTokenRepo) FindByToken(_ context.Context, token string) (*model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tokens[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeTokenRepo) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

func (r *fakeTokenRepo) DeleteByUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, token := range r.tokens {
		if token.UserID.String() == userID {
			delete(r.tokens, key)
		}
	}
	return nil
}

// rbacRepoWithRole reuses the authz fake and answers FindRoleByID/Name for
// one known role.
type rbacRepoWithRole struct {
	*fakeRBACRepo
	role *model.Role
}

func (r rbacRepoWithRole) FindRoleByID(_ context.Context, id uuid.UUID) (*model.Role, error) {
	if r.role != nil && r.role.ID == id {
		return r.role, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r rbacRepoWithRole) FindRoleByName(_ context.Context, name string) (*model.Role, error) {
	if r.role != nil && r.role.Name == name {
		return r.role, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newUserFixture(role *model.Role) (service.UserService, *fakeUserRepo, *fakeTokenRepo) {
	userRepo := newFakeUserRepo()
	tokenRepo := newFakeTokenRepo()
	svc := service.NewUserService(userRepo, tokenRepo, rbacRepoWithRole{fakeRBACRepo: newFakeRBACRepo(), role: role})
	return svc, userRepo, tokenRepo
}

func staffRole() *model.Role {
	return &model.Role{ID: uuid.New(), Name: "staff", IsActive: true}
}

func TestCreateUser_HashesPasswordAndAssignsRole(t *testing.T) {
	role := staffRole()
	svc, userRepo, _ := newUserFixture(role)

	resp, err := svc.CreateUser(context.Background(), service.CreateUserRequest{
		Username: "jamie",
		Email:    "jamie@example.com",
		Password: "s3cr3t-pass",
		RoleID:   role.ID.String(),
	})

	require.NoError(t, err)
	assert.Equal(t, "jamie", resp.Username)
	assert.True(t, resp.IsActive)

	stored, err := userRepo.GetByEmail(context.Background(), "jamie@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cr3t-pass", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("s3cr3t-pass")))
}

func TestCreateUser_RejectsDuplicateEmail(t *testing.T) {
	role := staffRole()
	svc, _, _ := newUserFixture(role)

	_, err := svc.CreateUser(context.Background(), service.CreateUserRequest{
		Username: "jamie",
		Email:    "jamie@example.com",
		Password: "s3cr3t-pass",
		RoleID:   role.ID.String(),
	})
	require.NoError(t, err)

	_, err = svc.CreateUser(context.Background(), service.CreateUserRequest{
		Username: "jamie2",
		Email:    "jamie@example.com",
		Password: "other-pass",
		RoleID:   role.ID.String(),
	})
	require.Error(t, err)
}

func TestCreateUser_RejectsUnknownRole(t *testing.T) {
	svc, _, _ := newUserFixture(staffRole())

	_, err := svc.CreateUser(context.Background(), service.CreateUserRequest{
		Username: "jamie",
		Email:    "jamie@example.com",
		Password: "s3cr3t-pass",
		RoleID:   uuid.NewString(),
	})

	require.Error(t, err)
}

func TestLogin_WrongPasswordFails(t *testing.T) {
	role := staffRole()
	svc, _, _ := newUserFixture(role)

	_, err := svc.CreateUser(context.Background(), service.CreateUserRequest{
		Username: "jamie",
		Email:    "jamie@example.com",
		Password: "s3cr3t-pass",
		RoleID:   role.ID.String(),
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), service.LoginUserRequest{
		Email:    "jamie@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
}

func TestLogin_IssuesTokenPairAndPersistsRefresh(t *testing.T) {
	role := staffRole()
	svc, _, tokenRepo := newUserFixture(role)

	_, err := svc.CreateUser(context.Background(), service.CreateUserRequest{
		Username: "jamie",
		Email:    "jamie@example.com",
		Password: "s3cr3t-pass",
		RoleID:   role.ID.String(),
	})
	require.NoError(t, err)

	tokens, err := svc.Login(context.Background(), service.LoginUserRequest{
		Email:    "jamie@example.com",
		Password: "s3cr3t-pass",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	stored, err := tokenRepo.FindByToken(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.True(t, stored.ExpiresAt.After(time.Now()))
}

func TestRefresh_RotatesToken(t *testing.T) {
	role := staffRole()
	svc, _, tokenRepo := newUserFixture(role)

	_, err := svc.CreateUser(context.Background(), service.CreateUserRequest{
		Username: "jamie",
		Email:    "jamie@example.com",
		Password: "s3cr3t-pass",
		RoleID:   role.ID.String(),
	})
	require.NoError(t, err)

	tokens, err := svc.Login(context.Background(), service.LoginUserRequest{
		Email:    "jamie@example.com",
		Password: "s3cr3t-pass",
	})
	require.NoError(t, err)

	rotated, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// The old token is revoked by rotation
	_, err = tokenRepo.FindByToken(context.Background(), tokens.RefreshToken)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRefresh_UnknownTokenFails(t *testing.T) {
	svc, _, _ := newUserFixture(staffRole())

	_, err := svc.Refresh(context.Background(), uuid.NewString())
	require.Error(t, err)
}

func TestDeleteUser_RevokesSessions(t *testing.T) {
	role := staffRole()
	svc, _, tokenRepo := newUserFixture(role)

	created, err := svc.CreateUser(context.Background(), service.CreateUserRequest{
		Username: "jamie",
		Email:    "jamie@example.com",
		Password: "s3cr3t-pass",
		RoleID:   role.ID.String(),
	})
	require.NoError(t, err)

	tokens, err := svc.Login(context.Background(), service.LoginUserRequest{
		Email:    "jamie@example.com",
		Password: "s3cr3t-pass",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(context.Background(), created.ID))

	_, err = tokenRepo.FindByToken(context.Background(), tokens.RefreshToken)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = svc.GetUserByID(context.Background(), created.ID)
	require.ErrorIs(t, err, service.ErrNotFound)
}
