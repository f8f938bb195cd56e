package common

// MinPasswordLength is the minimum number of characters accepted for an
// administrator password before it is hashed.
const MinPasswordLength = 6

// AuthorizationHeaderName is the HTTP header and gRPC metadata key that
// carries the bearer token.
const AuthorizationHeaderName = "authorization"

// BearerPrefix precedes the token in the authorization header value.
const BearerPrefix = "Bearer "
