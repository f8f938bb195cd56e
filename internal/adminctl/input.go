package adminctl

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/siteadmin/internal/common"
	"golang.org/x/term"
)

var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrEmptyPassword    = errors.New("password is empty")
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// PromptPassword asks for the password twice on the terminal behind fd
// without echo. The returned slice should be wiped by the caller.
func PromptPassword(w io.Writer, fd int) ([]byte, error) {
	first, err := promptOnce(w, fd, "Password: ")
	if err != nil {
		return nil, err
	}

	second, err := promptOnce(w, fd, "Confirm password: ")
	if err != nil {
		common.WipeByteArray(first)
		return nil, err
	}
	defer common.WipeByteArray(second)

	if !bytes.Equal(first, second) {
		common.WipeByteArray(first)
		return nil, ErrPasswordMismatch
	}
	if len(first) == 0 {
		return nil, ErrEmptyPassword
	}

	return first, nil
}

func promptOnce(w io.Writer, fd int, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}

// ReadPasswordLine reads the first line of r as the password, for
// non-interactive use.
func ReadPasswordLine(r io.Reader) ([]byte, error) {
	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read password: %w", err)
	}

	pw := bytes.TrimRight(line, "\r\n")
	if len(pw) == 0 {
		return nil, ErrEmptyPassword
	}
	return pw, nil
}
