// Package adminctl provisions administrator credentials from the command
// line: it creates an admin or replaces the password of an existing one.
package adminctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/siteadmin/internal/common"
	"github.com/dmitrijs2005/siteadmin/internal/flagx"
	"github.com/dmitrijs2005/siteadmin/internal/server/models"
)

var ctlFlags = []string{"-email", "--email", "-password-stdin", "--password-stdin"}

type Options struct {
	Email         string
	PasswordStdin bool
}

// ParseOptions reads adminctl's own flags from args, ignoring the server
// configuration flags that share the command line.
func ParseOptions(args []string) (*Options, error) {
	opts := &Options{}

	fs := flag.NewFlagSet("adminctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.Email, "email", "", "administrator email")
	fs.BoolVar(&opts.PasswordStdin, "password-stdin", false, "read the password from the first line of stdin")

	if err := fs.Parse(flagx.FilterArgs(args, ctlFlags)); err != nil {
		return nil, err
	}

	opts.Email = common.NormalizeEmail(opts.Email)
	if opts.Email == "" {
		return nil, errors.New("-email is required")
	}

	return opts, nil
}

// Provisioner creates or updates an admin.
type Provisioner interface {
	Upsert(ctx context.Context, email, password string) (*models.Admin, bool, error)
}

// Run obtains the password (stdin or terminal prompt) and upserts the admin.
// fd is the terminal used for the prompt.
func Run(ctx context.Context, p Provisioner, opts *Options, stdin io.Reader, fd int, out io.Writer) error {
	var (
		pw  []byte
		err error
	)
	if opts.PasswordStdin {
		pw, err = ReadPasswordLine(stdin)
	} else {
		pw, err = PromptPassword(out, fd)
	}
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	admin, created, err := p.Upsert(ctx, opts.Email, string(pw))
	if err != nil {
		return err
	}

	if created {
		fmt.Fprintf(out, "created admin %s (%s)\n", admin.Email, admin.ID)
	} else {
		fmt.Fprintf(out, "updated password for admin %s (%s)\n", admin.Email, admin.ID)
	}
	return nil
}
