// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, profile maintenance, and
// password changes, issuing JWTs on the way.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/samifathi/invoice-api/internal/common"
	"github.com/samifathi/invoice-api/internal/server/auth"
	"github.com/samifathi/invoice-api/internal/server/config"
	"github.com/samifathi/invoice-api/internal/server/models"
	"github.com/samifathi/invoice-api/internal/server/repositories/repomanager"
)

// RegisterInput carries a registration request. Role defaults to viewer when
// left empty.
type RegisterInput struct {
	Name       string
	Email      string
	Password   string
	Role       models.Role
	Department models.Department
}

// ProfileUpdateInput is the explicit allow-list of mutable profile fields.
// Anything else submitted by a client never reaches this struct.
type ProfileUpdateInput struct {
	Name       *string
	Department *models.Department
}

// AuthResult bundles the stored identity with a freshly minted access token.
type AuthResult struct {
	User  *models.User
	Token string
}

// UserService provides authentication-related operations over the credential
// store: registration, login, profile reads/updates, and password changes.
type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	jwtSecret     []byte
	tokenValidity time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:            db,
		repomanager:   m,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidityDuration,
	}
}

// NormalizeEmail lowercases and trims an email the way the store keeps it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user and logs them in. Duplicate emails yield
// common.ErrorUserExists when caught by the pre-check, or
// common.ErrorAlreadyExists when two registrations race and the unique index
// picks the loser.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = NormalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = models.RoleViewer
	}

	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, in.Email)
	if err == nil {
		return nil, common.ErrorUserExists
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error checking existing user: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Department:   in.Department,
		IsActive:     true,
	}

	user, err = repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return s.authResult(user)
}

// Login verifies credentials and mints a token. Unknown email and wrong
// password are deliberately indistinguishable (common.ErrorInvalidCredentials);
// an inactive account is reported distinctly since it is not a
// credential-guessing signal.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, common.ErrorMissingCredentials
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidCredentials
		}
		return nil, common.ErrorInternal
	}

	if !user.IsActive {
		return nil, common.ErrorAccountInactive
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, common.ErrorInvalidCredentials
	}

	return s.authResult(user)
}

// GetActiveUser loads a user by id for the authentication gate. Inactive
// accounts yield common.ErrorAccountInactive so deactivation takes effect on
// the very next request, without waiting for token expiry.
func (s *UserService) GetActiveUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, common.ErrorAccountInactive
	}
	return user, nil
}

// GetProfile returns the stored identity for the given user id.
func (s *UserService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

// UpdateProfile applies the allow-listed profile fields. An update with no
// recognized field yields common.ErrorNoUpdates.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, in ProfileUpdateInput) (*models.User, error) {
	if in.Name == nil && in.Department == nil {
		return nil, common.ErrorNoUpdates
	}

	verr := &common.ValidationError{}
	if in.Name != nil {
		validateName(verr, strings.TrimSpace(*in.Name))
	}
	if in.Department != nil && !in.Department.Valid() {
		verr.Add("department", "department must be one of finance, sales, operations, management")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Department != nil {
		user.Department = *in.Department
	}

	return repo.UpdateProfile(ctx, user)
}

// ChangePassword verifies the current password before re-hashing and storing
// the new one.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return common.ErrorMissingPasswords
	}
	if len(newPassword) < auth.MinPasswordLength {
		return common.ErrorWeakPassword
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !auth.CheckPassword(currentPassword, user.PasswordHash) {
		return common.ErrorInvalidPassword
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return common.ErrorInternal
	}

	return repo.UpdatePassword(ctx, userID, hash)
}

// --- helpers below ---

func (s *UserService) authResult(user *models.User) (*AuthResult, error) {
	identity := &models.Identity{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		Department: user.Department,
	}
	token, err := auth.GenerateToken(identity, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &AuthResult{User: user, Token: token}, nil
}

func validateName(verr *common.ValidationError, name string) {
	if name == "" {
		verr.Add("name", "name is required")
	} else if len(name) < 2 || len(name) > 100 {
		verr.Add("name", "name must be between 2 and 100 characters")
	}
}

func validateRegistration(in RegisterInput) error {
	verr := &common.ValidationError{}

	validateName(verr, strings.TrimSpace(in.Name))

	if in.Email == "" {
		verr.Add("email", "email is required")
	} else if _, err := mail.ParseAddress(in.Email); err != nil {
		verr.Add("email", "invalid email format")
	}

	if in.Password == "" {
		verr.Add("password", "password is required")
	} else if len(in.Password) < auth.MinPasswordLength {
		verr.Add("password", "password must be at least 6 characters")
	}

	if !in.Role.Valid() {
		verr.Add("role", "role must be one of admin, accountant, viewer")
	}

	if in.Department == "" {
		verr.Add("department", "department is required")
	} else if !in.Department.Valid() {
		verr.Add("department", "department must be one of finance, sales, operations, management")
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}
