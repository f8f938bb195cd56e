package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/siteadmin/internal/flagx"
	"github.com/dmitrijs2005/siteadmin/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// Durations use timex.Duration so that "1d" style strings and plain
// numbers of milliseconds are both accepted. UploadRequireAuth is a pointer so that an
// explicit false can be told apart from an absent key.
type JsonConfig struct {
	HTTPAddr          string         `json:"http_addr"`
	GRPCAddr          string         `json:"grpc_addr"`
	DatabaseDSN       string         `json:"database_dsn"`
	SecretKey         string         `json:"secret_key"`
	TokenLifetime     timex.Duration `json:"token_lifetime"`
	BcryptCost        int            `json:"bcrypt_cost"`
	UploadBackend     string         `json:"upload_backend"`
	UploadDir         string         `json:"upload_dir"`
	UploadMaxBytes    int64          `json:"upload_max_bytes"`
	UploadRequireAuth *bool          `json:"upload_require_auth"`
	S3RootUser        string         `json:"s3_root_user"`
	S3RootPassword    string         `json:"s3_root_password"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Region          string         `json:"s3_region"`
	S3BaseEndpoint    string         `json:"s3_base_endpoint"`
	LogFormat         string         `json:"log_format"`
	LogLevel          string         `json:"log_level"`
	ShutdownTimeout   timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads configuration values from a JSON file into config.
//
// The file path comes from the -c/-config flags or the CONFIG environment
// variable (see flagx.ConfigFilePath). If none is set, nothing is loaded.
// Only keys present in the file override the current values. An unreadable
// file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFilePath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCAddr, c.GRPCAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.TokenLifetime.Duration != 0 {
		config.TokenLifetime = c.TokenLifetime.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	setString(&config.UploadBackend, c.UploadBackend)
	setString(&config.UploadDir, c.UploadDir)
	if c.UploadMaxBytes != 0 {
		config.UploadMaxBytes = c.UploadMaxBytes
	}
	if c.UploadRequireAuth != nil {
		config.UploadRequireAuth = *c.UploadRequireAuth
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
