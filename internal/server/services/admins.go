// Package services contains server-side business logic: the admin
// credential lifecycle, the login verifier and the upload stores.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/siteadmin/internal/common"
	"github.com/dmitrijs2005/siteadmin/internal/dbx"
	"github.com/dmitrijs2005/siteadmin/internal/logging"
	"github.com/dmitrijs2005/siteadmin/internal/server/auth"
	"github.com/dmitrijs2005/siteadmin/internal/server/models"
	"github.com/dmitrijs2005/siteadmin/internal/server/repositories/repomanager"
)

// PrepareForPersist runs before every admin write. It normalises the email
// and, when plaintextIfChanged is non-nil, replaces PasswordHash with a fresh
// hash of it. A nil pointer leaves the stored hash untouched so re-saving an
// entry never double-hashes.
func PrepareForPersist(admin *models.Admin, plaintextIfChanged *string, h auth.PasswordHasher) error {
	admin.Email = common.NormalizeEmail(admin.Email)
	if admin.Email == "" {
		return fmt.Errorf("%w: email is required", common.ErrorValidation)
	}

	if plaintextIfChanged == nil {
		if admin.PasswordHash == "" {
			return fmt.Errorf("%w: password is required", common.ErrorValidation)
		}
		return nil
	}

	if utf8.RuneCountInString(*plaintextIfChanged) < common.MinPasswordLength {
		return fmt.Errorf("%w: %w: minimum %d characters", common.ErrorValidation, common.ErrPasswordTooShort, common.MinPasswordLength)
	}

	hash, err := h.Hash(*plaintextIfChanged)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	admin.PasswordHash = hash

	return nil
}

// AdminService is the only writer of admin entries.
type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	log         logging.Logger
}

// NewAdminService constructs an AdminService. db may be nil when m serves an
// in-memory store; Upsert then runs without a transaction.
func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, h auth.PasswordHasher, log logging.Logger) *AdminService {
	return &AdminService{
		db:          db,
		repomanager: m,
		hasher:      h,
		log:         log.With("module", "admins"),
	}
}

// Create stores a new admin with the given email and plaintext password.
func (s *AdminService) Create(ctx context.Context, email, password string) (*models.Admin, error) {
	return s.create(ctx, s.repomanager.Admins(s.db), email, password)
}

// Save re-persists admin's email. The password hash always comes from the
// stored row; a caller-supplied hash that differs from it is rejected, so
// passwords change only through ChangePassword or Upsert.
func (s *AdminService) Save(ctx context.Context, admin *models.Admin) (saved *models.Admin, err error) {
	err = s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Admins(tx)

		stored, err := repo.GetByID(ctx, admin.ID)
		if err != nil {
			return fmt.Errorf("error loading admin: %w", err)
		}
		if admin.PasswordHash != "" && admin.PasswordHash != stored.PasswordHash {
			return fmt.Errorf("%w: password hash cannot be set directly", common.ErrorValidation)
		}

		next := *stored
		next.Email = admin.Email
		if err := PrepareForPersist(&next, nil, s.hasher); err != nil {
			return err
		}

		saved, err = repo.Update(ctx, &next)
		if err != nil {
			return fmt.Errorf("error saving admin: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// ChangePassword rehashes and stores a new password for the admin with id.
func (s *AdminService) ChangePassword(ctx context.Context, id, password string) (*models.Admin, error) {
	repo := s.repomanager.Admins(s.db)

	admin, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error loading admin: %w", err)
	}

	return s.changePassword(ctx, repo, admin, password)
}

// Upsert creates the admin or, if the email is already registered, replaces
// its password. Lookup and write share one transaction.
func (s *AdminService) Upsert(ctx context.Context, email, password string) (admin *models.Admin, created bool, err error) {
	fn := func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Admins(tx)

		existing, err := repo.GetByEmail(ctx, common.NormalizeEmail(email))
		switch {
		case errors.Is(err, common.ErrorNotFound):
			admin, err = s.create(ctx, repo, email, password)
			created = err == nil
			return err
		case err != nil:
			return fmt.Errorf("error loading admin: %w", err)
		}

		admin, err = s.changePassword(ctx, repo, existing, password)
		return err
	}

	if err = s.inTx(ctx, fn); err != nil {
		return nil, false, err
	}

	s.log.Info(ctx, "admin provisioned", "admin_id", admin.ID, "email", admin.Email, "created", created)
	return admin, created, nil
}

func (s *AdminService) create(ctx context.Context, repo adminWriter, email, password string) (*models.Admin, error) {
	admin := &models.Admin{Email: email}
	if err := PrepareForPersist(admin, &password, s.hasher); err != nil {
		return nil, err
	}
	a, err := repo.Create(ctx, admin)
	if err != nil {
		return nil, fmt.Errorf("error creating admin: %w", err)
	}
	return a, nil
}

func (s *AdminService) changePassword(ctx context.Context, repo adminWriter, admin *models.Admin, password string) (*models.Admin, error) {
	if err := PrepareForPersist(admin, &password, s.hasher); err != nil {
		return nil, err
	}
	a, err := repo.Update(ctx, admin)
	if err != nil {
		return nil, fmt.Errorf("error updating admin: %w", err)
	}
	return a, nil
}

// inTx runs fn in a transaction, or directly when there is no database.
func (s *AdminService) inTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, s.db, nil, fn)
}

type adminWriter interface {
	Create(ctx context.Context, admin *models.Admin) (*models.Admin, error)
	Update(ctx context.Context, admin *models.Admin) (*models.Admin, error)
}
