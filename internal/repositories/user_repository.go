package repositories

import (
	"pasar/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	GetByID(id string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Create(user *models.User) error
}
