package service

import (
	"context"
	"errors"
	"os"
	"regexp"
	"time"

	"storehub/internal/model"
	"storehub/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Gender   string `json:"gender" binding:"omitempty,oneof=MALE FEMALE OTHER"`
	Password string `json:"password" binding:"required,min=6"`
	RoleID   string `json:"role_id" binding:"required"`
}

type UpdateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	Gender   string `json:"gender" binding:"omitempty,oneof=MALE FEMALE OTHER"`
	RoleID   string `json:"role_id"`
	IsActive *bool  `json:"is_active"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Gender    string `json:"gender"`
	RoleID    string `json:"role_id"`
	RoleName  string `json:"role_name"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenPairResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPairResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, id string) error
	EnsureAdminUser(ctx context.Context, email, password string) error
}

type userService struct {
	repo      repository.UserRepository
	tokenRepo repository.TokenRepository
	rbacRepo  repository.RBACRepository
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, tokenRepo repository.TokenRepository, rbacRepo repository.RBACRepository) UserService {
	return &userService{repo: repo, tokenRepo: tokenRepo, rbacRepo: rbacRepo}
}

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,10}$`)

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// Helper: parse model to standard json API response
func mapUserToResponse(user *model.User) *UserResponse {
	roleID := ""
	roleName := ""
	if user.RoleID != nil {
		roleID = user.RoleID.String()
	}
	if user.Role != nil {
		roleName = user.Role.Name
	}

	return &UserResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		Email:     user.Email,
		Phone:     user.Phone,
		Gender:    user.Gender,
		RoleID:    roleID,
		RoleName:  roleName,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: user.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	if !emailRegex.MatchString(req.Email) {
		return nil, errors.New("invalid email format")
	}

	roleID, err := uuid.Parse(req.RoleID)
	if err != nil {
		return nil, errors.New("invalid role id")
	}
	if _, err := s.rbacRepo.FindRoleByID(ctx, roleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("role does not exist")
		}
		return nil, err
	}

	// Double check username/email uniqueness via repo directly
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, errors.New("username already exists")
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, errors.New("email already exists")
	}

	// Hash password automatically
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	gender := req.Gender
	if gender == "" {
		gender = model.GenderOther
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Gender:   gender,
		Password: string(hashedPassword),
		RoleID:   &roleID,
		IsActive: true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.GetUserByID(ctx, user.ID.String())
}

// EnsureAdminUser creates the bootstrap administrator account if no user with
// the given email exists yet. It requires the built-in admin role to be seeded.
func (s *userService) EnsureAdminUser(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil
	}

	role, err := s.rbacRepo.FindRoleByName(ctx, "admin")
	if err != nil {
		return errors.New("admin role is not seeded")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash password")
	}

	return s.repo.Create(ctx, &model.User{
		Username: "admin",
		Email:    email,
		Gender:   model.GenderOther,
		Password: string(hashedPassword),
		RoleID:   &role.ID,
		IsActive: true,
	})
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenPairResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.New("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid email or password")
	}

	if !user.IsActive {
		return nil, errors.New("account is deactivated")
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenPairResponse, error) {
	stored, err := s.tokenRepo.FindByToken(ctx, refreshToken)
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.tokenRepo.Delete(ctx, refreshToken)
		return nil, errors.New("refresh token expired")
	}

	user, err := s.repo.GetByID(ctx, stored.UserID.String())
	if err != nil {
		return nil, errors.New("invalid refresh token")
	}
	if !user.IsActive {
		return nil, errors.New("account is deactivated")
	}

	// Rotate: the old refresh token is single-use
	if err := s.tokenRepo.Delete(ctx, refreshToken); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokenRepo.Delete(ctx, refreshToken)
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenPairResponse, error) {
	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}

	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": roleName,
		"exp":  time.Now().Add(accessTokenTTL).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString(jwtSecret())
	if err != nil {
		return nil, errors.New("failed to sign access token")
	}

	refresh := &model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}
	if err := s.tokenRepo.Create(ctx, refresh); err != nil {
		return nil, err
	}

	return &TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
	}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return mapUserToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, *mapUserToResponse(&users[i]))
	}
	return res, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Email != "" {
		if !emailRegex.MatchString(req.Email) {
			return nil, errors.New("invalid email format")
		}
		user.Email = req.Email
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Gender != "" {
		user.Gender = req.Gender
	}
	if req.RoleID != "" {
		roleID, err := uuid.Parse(req.RoleID)
		if err != nil {
			return nil, errors.New("invalid role id")
		}
		if _, err := s.rbacRepo.FindRoleByID(ctx, roleID); err != nil {
			return nil, errors.New("role does not exist")
		}
		user.RoleID = &roleID
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return s.GetUserByID(ctx, id)
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	// Revoke outstanding sessions alongside the soft delete
	if err := s.tokenRepo.DeleteByUser(ctx, user.ID.String()); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
