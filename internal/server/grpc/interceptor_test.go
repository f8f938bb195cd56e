package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/siteadmin/internal/logging"
	"github.com/dmitrijs2005/siteadmin/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type stubVerifier struct {
	id  string
	err error
}

func (s stubVerifier) Verify(string) (string, error) { return s.id, s.err }

func TestInterceptor_UnprotectedPassesThrough(t *testing.T) {
	s := NewGRPCServer("", logging.Nop(), nil, stubVerifier{err: errors.New("must not be called")})

	called := false
	resp, err := s.accessTokenInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: LoginMethod},
		func(ctx context.Context, req any) (any, error) {
			called = true
			return "ok", nil
		})

	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "ok", resp)
}

func TestInterceptor_Protected(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: WhoAmIMethod}
	withMD := func(v string) context.Context {
		return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", v))
	}

	tests := []struct {
		name     string
		ctx      context.Context
		verifier stubVerifier
		code     codes.Code
	}{
		{"no metadata", context.Background(), stubVerifier{id: "a"}, codes.Unauthenticated},
		{"wrong scheme", withMD("Token abc"), stubVerifier{id: "a"}, codes.Unauthenticated},
		{"rejected", withMD("Bearer abc"), stubVerifier{err: errors.New("bad")}, codes.Unauthenticated},
		{"no secret", withMD("Bearer abc"), stubVerifier{err: auth.ErrMissingSigningSecret}, codes.Internal},
		{"ok", withMD("Bearer abc"), stubVerifier{id: "a-1"}, codes.OK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewGRPCServer("", logging.Nop(), nil, tt.verifier)

			var gotID string
			_, err := s.accessTokenInterceptor(tt.ctx, nil, info, func(ctx context.Context, req any) (any, error) {
				gotID, _ = auth.AdminIDFromContext(ctx)
				return nil, nil
			})

			assert.Equal(t, tt.code, status.Code(err))
			if tt.code == codes.OK {
				assert.Equal(t, tt.verifier.id, gotID)
			}
		})
	}
}
