package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/siteadmin/internal/common"
	"github.com/dmitrijs2005/siteadmin/internal/logging"
	"github.com/dmitrijs2005/siteadmin/internal/server/auth"
	"github.com/dmitrijs2005/siteadmin/internal/server/repositories/repomanager"
)

// dummyPassword is hashed once at construction so that unknown emails still
// pay for a full bcrypt comparison.
const dummyPassword = "siteadmin-timing-equaliser"

// TokenIssuer mints a bearer token for an admin id.
type TokenIssuer interface {
	Issue(adminID string) (string, time.Time, error)
}

// LoginResult is returned on successful login.
type LoginResult struct {
	AdminID   string
	Token     string
	ExpiresAt time.Time
}

// LoginService verifies admin credentials and issues tokens. It never writes
// to the store.
type LoginService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	issuer      TokenIssuer
	log         logging.Logger
	dummyHash   string
}

// NewLoginService constructs a LoginService. It hashes a fixed dummy
// password with h, so construction costs one bcrypt round.
func NewLoginService(db *sql.DB, m repomanager.RepositoryManager, h auth.PasswordHasher, issuer TokenIssuer, log logging.Logger) (*LoginService, error) {
	dummy, err := h.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &LoginService{
		db:          db,
		repomanager: m,
		hasher:      h,
		issuer:      issuer,
		log:         log.With("module", "login"),
		dummyHash:   dummy,
	}, nil
}

// Login checks email and password. Unknown email and wrong password both
// return common.ErrorUnauthorized; infrastructure failures wrap
// common.ErrorInternal.
func (s *LoginService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = common.NormalizeEmail(email)

	if email == "" || password == "" {
		s.hasher.Verify(password, s.dummyHash)
		s.log.Info(ctx, "admin login rejected", "reason", "missing credentials")
		return nil, common.ErrorUnauthorized
	}

	admin, err := s.repomanager.Admins(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			s.log.Info(ctx, "admin login rejected", "email", email, "reason", "unknown email")
			return nil, common.ErrorUnauthorized
		}
		s.log.Error(ctx, "admin lookup failed", "email", email, "error", err)
		return nil, fmt.Errorf("%w: admin lookup: %w", common.ErrorInternal, err)
	}

	if !s.hasher.Verify(password, admin.PasswordHash) {
		s.log.Info(ctx, "admin login rejected", "email", email, "reason", "password mismatch")
		return nil, common.ErrorUnauthorized
	}

	token, exp, err := s.issuer.Issue(admin.ID)
	if err != nil {
		s.log.Error(ctx, "token issue failed", "admin_id", admin.ID, "error", err)
		return nil, fmt.Errorf("%w: issue token: %w", common.ErrorInternal, err)
	}

	s.log.Info(ctx, "admin login succeeded", "admin_id", admin.ID)

	return &LoginResult{AdminID: admin.ID, Token: token, ExpiresAt: exp}, nil
}
