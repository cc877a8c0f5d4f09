package users

import (
	"context"

	"github.com/samifathi/invoice-api/internal/server/models"
)

// Repository is the credential store boundary. Implementations must enforce
// email uniqueness and surface it as common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}
