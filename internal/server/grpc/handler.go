package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/siteadmin/internal/common"
	"github.com/dmitrijs2005/siteadmin/internal/server/auth"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	msgLoginSuccess  = "Admin login successful"
	msgInvalidLogin  = "Invalid email or password"
	msgServerError   = "Server error"
	msgNotAuthorized = "Not authorized"
)

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	fields := req.GetFields()
	email := fields["email"].GetStringValue()
	password := fields["password"].GetStringValue()

	result, err := s.login.Login(ctx, email, password)

	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, msgInvalidLogin)
		}
		s.logger.Error(ctx, "login failed", "error", err)
		return nil, status.Error(codes.Internal, msgServerError)
	}

	return structpb.NewStruct(map[string]any{
		"message": msgLoginSuccess,
		"token":   result.Token,
	})
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {

	id, ok := auth.AdminIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, msgNotAuthorized)
	}

	return structpb.NewStruct(map[string]any{"id": id})
}
