package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/siteadmin/internal/common"
	"github.com/dmitrijs2005/siteadmin/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// protectedMethods require a bearer token in the authorization metadata.
var protectedMethods = map[string]bool{
	WhoAmIMethod: true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if !protectedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AuthorizationHeaderName); len(values) > 0 {
			header = values[0]
		}
	}

	token, ok := auth.ParseBearer(header)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, msgNotAuthorized)
	}

	adminID, err := s.verifier.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrMissingSigningSecret) {
			s.logger.Error(ctx, "token verification unavailable", "error", err)
			return nil, status.Error(codes.Internal, msgServerError)
		}
		s.logger.Info(ctx, "bearer token rejected", "method", info.FullMethod, "error", err)
		return nil, status.Error(codes.Unauthenticated, msgNotAuthorized)
	}

	return handler(auth.WithAdminID(ctx, adminID), req)
}
