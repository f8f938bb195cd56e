// Package admins persists administrator credentials.
package admins

import (
	"context"

	"github.com/dmitrijs2005/siteadmin/internal/server/models"
)

// Repository stores admins keyed by id and by normalised email.
//
// Lookups return common.ErrorNotFound when nothing matches; writes that
// collide on email return common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, admin *models.Admin) (*models.Admin, error)
	Update(ctx context.Context, admin *models.Admin) (*models.Admin, error)
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	GetByID(ctx context.Context, id string) (*models.Admin, error)
}
