package services

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/siteadmin/internal/server/auth"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newFastHasher(t *testing.T) *auth.BcryptHasher {
	t.Helper()
	h, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

// countingHasher records calls and produces predictable hashes.
type countingHasher struct {
	hashes   atomic.Int32
	verifies atomic.Int32
	hashErr  error
}

func (h *countingHasher) Hash(p string) (string, error) {
	h.hashes.Add(1)
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "hashed:" + p, nil
}

func (h *countingHasher) Verify(p, hashed string) bool {
	h.verifies.Add(1)
	return hashed == "hashed:"+p
}

type fakeIssuer struct {
	token string
	err   error
	got   string
}

func (f *fakeIssuer) Issue(adminID string) (string, time.Time, error) {
	f.got = adminID
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	return f.token, time.Now().Add(time.Hour), nil
}
