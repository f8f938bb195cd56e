package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dmitrijs2005/siteadmin/internal/timex"
)

// parseEnv overlays values from environment variables. Unset variables leave
// the current value alone; malformed numbers, booleans or durations panic.
//
//	HTTP_ADDR, GRPC_ADDR, DATABASE_DSN, JWT_SECRET, JWT_EXPIRES_IN,
//	BCRYPT_COST, UPLOAD_BACKEND, UPLOAD_DIR, UPLOAD_MAX_BYTES,
//	UPLOAD_REQUIRE_AUTH, S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET,
//	S3_REGION, S3_BASE_ENDPOINT, LOG_FORMAT, LOG_LEVEL, SHUTDOWN_TIMEOUT
func parseEnv(config *Config) {
	envString("HTTP_ADDR", &config.HTTPAddr)
	envString("GRPC_ADDR", &config.GRPCAddr)
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("JWT_SECRET", &config.SecretKey)

	if v, ok := os.LookupEnv("JWT_EXPIRES_IN"); ok && v != "" {
		d, err := timex.ParseDuration(v)
		if err != nil {
			panic(fmt.Errorf("JWT_EXPIRES_IN: %w", err))
		}
		config.TokenLifetime = d
	}

	if v, ok := os.LookupEnv("BCRYPT_COST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("BCRYPT_COST: %w", err))
		}
		config.BcryptCost = n
	}

	envString("UPLOAD_BACKEND", &config.UploadBackend)
	envString("UPLOAD_DIR", &config.UploadDir)

	if v, ok := os.LookupEnv("UPLOAD_MAX_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			panic(fmt.Errorf("UPLOAD_MAX_BYTES: %w", err))
		}
		config.UploadMaxBytes = n
	}

	if v, ok := os.LookupEnv("UPLOAD_REQUIRE_AUTH"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("UPLOAD_REQUIRE_AUTH: %w", err))
		}
		config.UploadRequireAuth = b
	}

	envString("S3_ROOT_USER", &config.S3RootUser)
	envString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	envString("LOG_FORMAT", &config.LogFormat)
	envString("LOG_LEVEL", &config.LogLevel)

	if v, ok := os.LookupEnv("SHUTDOWN_TIMEOUT"); ok && v != "" {
		d, err := timex.ParseDuration(v)
		if err != nil {
			panic(fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err))
		}
		config.ShutdownTimeout = d
	}
}

func envString(name string, dst *string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*dst = v
	}
}
