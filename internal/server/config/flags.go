package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/siteadmin/internal/flagx"
	"github.com/dmitrijs2005/siteadmin/internal/timex"
)

// Flags handled by parseFlags. Other binaries sharing the command line
// (adminctl) must not reuse these names.
var serverFlags = []string{"-a", "-g", "-d", "-s", "-t", "-k", "-u", "-o", "-l"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5000")
//	-g string   gRPC bind address (empty disables gRPC)
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t string   token lifetime ("1d", "12h", "30m", ...)
//	-k int      bcrypt cost
//	-u string   upload backend ("disk" or "s3")
//	-o string   upload directory for the disk backend
//	-l string   log format ("json", "text", "logrus")
//
// os.Args is first filtered with flagx.FilterArgs so that flags owned by
// other components do not trip the parser.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port to run server")
	fs.StringVar(&config.GRPCAddr, "g", config.GRPCAddr, "gRPC address and port (empty disables)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenLifetime := fs.String("t", config.TokenLifetime.String(), "token lifetime (e.g. 1d, 12h)")
	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.UploadBackend, "u", config.UploadBackend, "upload backend (disk|s3)")
	fs.StringVar(&config.UploadDir, "o", config.UploadDir, "upload directory")
	fs.StringVar(&config.LogFormat, "l", config.LogFormat, "log format (json|text|logrus)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	d, err := timex.ParseDuration(*tokenLifetime)
	if err != nil {
		panic(err)
	}
	config.TokenLifetime = d
}
