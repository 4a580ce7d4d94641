package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/OmSonawane4/Roxiler-Assignment/internal/auth"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/cache"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/domain"
	"github.com/OmSonawane4/Roxiler-Assignment/internal/repository"
	apperrors "github.com/OmSonawane4/Roxiler-Assignment/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// Password and profile bounds. bcrypt ignores bytes past 72.
const (
	minPasswordLength = 8
	maxPasswordLength = 72
	minNameLength     = 3
	maxNameLength     = 100
	maxAddressLength  = 400
)

// UserService implements registration, authentication and user management.
type UserService struct {
	users      repository.UserRepository
	jwtManager *auth.JWTManager
	producer   EventPublisher
	cache      cache.Cache
	logger     *slog.Logger
	hashCost   int
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	jwtManager *auth.JWTManager,
	producer EventPublisher,
	dashboards cache.Cache,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:      users,
		jwtManager: jwtManager,
		producer:   producer,
		cache:      dashboards,
		logger:     logger,
		hashCost:   bcryptCost,
	}
}

// RegisterInput holds the parameters for self-registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Address  string
	Role     domain.Role
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// CreateUserInput holds the parameters for an admin-created account.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Address  string
	Role     domain.Role
}

// UpdateProfileInput holds the parameters for updating a user's profile.
type UpdateProfileInput struct {
	Name    *string
	Address *string
}

// Register creates a customer or store owner account and returns a token.
// Admin accounts can only be created by an administrator.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.AuthResult, error) {
	if input.Role == "" {
		input.Role = domain.RoleCustomer
	}
	if input.Role == domain.RoleAdmin {
		return nil, apperrors.Forbidden("admin accounts can only be created by an administrator")
	}

	user, err := s.createUser(ctx, CreateUserInput(input))
	if err != nil {
		return nil, err
	}

	result, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role.String()),
	)
	return result, nil
}

// Login authenticates a user with email and password.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*domain.AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	result, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return result, nil
}

// GetProfile returns the user with the given id.
func (s *UserService) GetProfile(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// UpdateProfile changes the caller's name and/or address.
func (s *UserService) UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		user.Address = strings.TrimSpace(*input.Address)
	}
	if err := validateProfile(user.Name, user.Address); err != nil {
		return nil, err
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.logger.InfoContext(ctx, "profile updated", slog.String("user_id", user.ID))
	return user, nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, id, current, next string) error {
	if current == "" {
		return apperrors.InvalidInput("current password is required")
	}
	if err := validatePassword(next); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get user by id: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apperrors.Unauthorized("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, id, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed", slog.String("user_id", id))
	return nil
}

// CreateUser creates an account with any role. Admin only.
func (s *UserService) CreateUser(ctx context.Context, p domain.Principal, input CreateUserInput) (*domain.User, error) {
	if !domain.Can(p, domain.CapManageUsers) {
		return nil, apperrors.Forbidden("only administrators can create users")
	}

	user, err := s.createUser(ctx, input)
	if err != nil {
		return nil, err
	}
	invalidateDashboards(ctx, s.cache, s.logger, cache.AdminDashboardKey())

	s.logger.InfoContext(ctx, "user created by admin",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role.String()),
		slog.String("admin_id", p.ID),
	)
	return user, nil
}

// ListUsers returns a page of users. Admin only.
func (s *UserService) ListUsers(ctx context.Context, p domain.Principal, filter domain.UserFilter, page, perPage int) ([]domain.User, int, error) {
	if !domain.Can(p, domain.CapManageUsers) {
		return nil, 0, apperrors.Forbidden("only administrators can list users")
	}
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown role %q", filter.Role))
	}

	users, total, err := s.users.List(ctx, filter, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// DeleteUser removes a user with their ratings and owned stores. Admin only;
// administrators cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, p domain.Principal, id string) error {
	if !domain.Can(p, domain.CapManageUsers) {
		return apperrors.Forbidden("only administrators can delete users")
	}
	if p.ID == id {
		return apperrors.InvalidInput("administrators cannot delete their own account")
	}

	deletion, err := s.users.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	for _, storeID := range deletion.DeletedStoreIDs {
		logPublishError(ctx, s.logger, "store.deleted", storeID, s.producer.PublishStoreDeleted(ctx, storeID))
	}
	for _, agg := range deletion.Aggregates {
		logPublishError(ctx, s.logger, "store.aggregate_updated", agg.StoreID, s.producer.PublishAggregateUpdated(ctx, agg))
	}
	invalidateDashboards(ctx, s.cache, s.logger,
		cache.AdminDashboardKey(),
		cache.CustomerDashboardKey(id),
		cache.OwnerDashboardKey(id),
	)

	s.logger.InfoContext(ctx, "user deleted",
		slog.String("user_id", id),
		slog.Int("stores_deleted", len(deletion.DeletedStoreIDs)),
		slog.Int("stores_reaggregated", len(deletion.Aggregates)),
	)
	return nil
}

func (s *UserService) createUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	address := strings.TrimSpace(input.Address)
	email := normalizeEmail(input.Email)

	if err := validateProfile(name, address); err != nil {
		return nil, err
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, apperrors.InvalidInput("a valid email is required")
	}
	if !input.Role.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown role %q", input.Role))
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Address:      address,
		Role:         input.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *UserService) issueToken(user *domain.User) (*domain.AuthResult, error) {
	token, expiresAt, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role.String())
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &domain.AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateProfile(name, address string) error {
	if n := len([]rune(name)); n < minNameLength || n > maxNameLength {
		return apperrors.InvalidInput(fmt.Sprintf("name must be between %d and %d characters", minNameLength, maxNameLength))
	}
	if len([]rune(address)) > maxAddressLength {
		return apperrors.InvalidInput(fmt.Sprintf("address must be at most %d characters", maxAddressLength))
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if len(password) > maxPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at most %d bytes", maxPasswordLength))
	}

	var hasLetter, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsLetter(ch):
			hasLetter = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one letter and one digit")
	}
	return nil
}
